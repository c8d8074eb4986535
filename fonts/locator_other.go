//go:build !windows

package fonts

// PlatformLocator returns a directory scan over the platform font folders.
func PlatformLocator() Locator {
	return NewDirLocator()
}

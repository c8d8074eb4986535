//go:build windows

package fonts

import (
	"os"
	"path/filepath"

	"golang.org/x/sys/windows/registry"
)

const fontsKeyPath = `SOFTWARE\Microsoft\Windows NT\CurrentVersion\Fonts`

// RegistryLocator 通过 Windows 注册表查找已安装字体。
type RegistryLocator struct{}

func (RegistryLocator) Locate(family string, bold, italic bool) (Source, bool) {
	for _, root := range []registry.Key{registry.LOCAL_MACHINE, registry.CURRENT_USER} {
		if src, ok := locateInKey(root, family, bold, italic); ok {
			return src, true
		}
	}
	return Source{}, false
}

func locateInKey(root registry.Key, family string, bold, italic bool) (Source, bool) {
	k, err := registry.OpenKey(root, fontsKeyPath, registry.QUERY_VALUE)
	if err != nil {
		return Source{}, false
	}
	defer k.Close()

	names, err := k.ReadValueNames(-1)
	if err != nil {
		return Source{}, false
	}
	for _, name := range names {
		if !matchRegistryName(name, family, bold, italic) {
			continue
		}
		file, _, err := k.GetStringValue(name)
		if err != nil || file == "" {
			continue
		}
		// 注册表通常只给出文件名，也可能是完整路径
		if !filepath.IsAbs(file) {
			winDir := os.Getenv("WINDIR")
			if winDir == "" {
				winDir = `C:\Windows`
			}
			file = filepath.Join(winDir, "Fonts", file)
		}
		return Source{Path: file}, true
	}
	return Source{}, false
}

// PlatformLocator returns the registry lookup backed by a directory scan.
func PlatformLocator() Locator {
	return Chain{RegistryLocator{}, NewDirLocator()}
}

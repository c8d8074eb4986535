package layer

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultBackgroundDir 是背景素材目录的默认位置。
var DefaultBackgroundDir = filepath.Join("assets", "backgrounds")

var backgroundExts = map[string]bool{".png": true, ".jpg": true, ".jpeg": true}

// Backgrounds lists the background images in dir, sorted by file name.
// A missing directory yields no backgrounds and no error.
func Backgrounds(dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}
	items, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取背景目录失败: %w", err)
	}
	var out []string
	for _, it := range items {
		if it.IsDir() || !backgroundExts[strings.ToLower(filepath.Ext(it.Name()))] {
			continue
		}
		out = append(out, filepath.Join(dir, it.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// DefaultBackground returns the first background image in dir, or "".
func DefaultBackground(dir string) (string, error) {
	list, err := Backgrounds(dir)
	if err != nil || len(list) == 0 {
		return "", err
	}
	return list[0], nil
}

package fonts

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
)

// EmbedPrefix marks a font source that lives inside the binary.
const EmbedPrefix = "embed:"

var bundled = map[string][]byte{
	"go-regular":         goregular.TTF,
	"go-bold":            gobold.TTF,
	"go-italic":          goitalic.TTF,
	"go-bolditalic":      gobolditalic.TTF,
	"go-mono":            gomono.TTF,
	"go-mono-bold":       gomonobold.TTF,
	"go-mono-italic":     gomonoitalic.TTF,
	"go-mono-bolditalic": gomonobolditalic.TTF,
}

// Load 返回内置字体的字节数据，name 可写为 "embed:go-bold" 或直接 "go-bold"。
func Load(name string) ([]byte, error) {
	key := strings.ToLower(strings.TrimPrefix(name, EmbedPrefix))
	data, ok := bundled[key]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 不存在", name)
	}
	return data, nil
}

// BundledNames lists the embedded faces in a stable order.
func BundledNames() []string {
	names := make([]string, 0, len(bundled))
	for k := range bundled {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// bundledName picks the embedded face for the requested style.
func bundledName(mono, bold, italic bool) string {
	base := "go"
	if mono {
		base = "go-mono"
	}
	switch {
	case bold && italic:
		return base + "-bolditalic"
	case bold:
		return base + "-bold"
	case italic:
		return base + "-italic"
	case mono:
		return base
	default:
		return base + "-regular"
	}
}

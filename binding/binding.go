// Package binding expands ${field} placeholders against catalog entries.
package binding

import (
	"regexp"
	"strings"

	"github.com/Balrog57/xml2png/layer"
)

// DefaultPattern 生成与条目输出键同名的文件。
const DefaultPattern = "${key}"

var exprPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// Fields exposes an entry under the placeholder names used in patterns.
func Fields(e layer.Entry) map[string]string {
	return map[string]string{
		"key":          e.Key,
		"name":         e.DisplayName,
		"description":  e.Description,
		"year":         e.Year,
		"genre":        e.Genre,
		"manufacturer": e.Manufacturer,
	}
}

// Interpolate 将文本中的 ${field} 或 ${field|filter} 替换为 data 中的值。
// 字段不存在时保留原占位符。支持的过滤器：lower、upper、trim、slug。
func Interpolate(text string, data map[string]string) string {
	if data == nil {
		return text
	}
	return exprPattern.ReplaceAllStringFunc(text, func(match string) string {
		groups := exprPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		parts := strings.Split(groups[1], "|")
		name := strings.ToLower(strings.TrimSpace(parts[0]))
		if name == "" {
			return match
		}
		val, ok := data[name]
		if !ok {
			return match
		}
		for _, f := range parts[1:] {
			val, ok = applyFilter(strings.TrimSpace(f), val)
			if !ok {
				return match
			}
		}
		return val
	})
}

func applyFilter(name, val string) (string, bool) {
	switch name {
	case "lower":
		return strings.ToLower(val), true
	case "upper":
		return strings.ToUpper(val), true
	case "trim":
		return strings.TrimSpace(val), true
	case "slug":
		return slug(val), true
	default:
		return val, false
	}
}

func slug(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// OutputName expands pattern for e and makes the result safe to use as a
// file name stem. An empty result falls back to the entry key.
func OutputName(pattern string, e layer.Entry) string {
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultPattern
	}
	name := sanitize(Interpolate(pattern, Fields(e)))
	if name == "" {
		name = sanitize(e.Key)
	}
	return name
}

// sanitize 替换各平台文件名中的非法字符，并去掉首尾的空格与点。
func sanitize(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r < 0x20:
			return -1
		case strings.ContainsRune(`<>:"/\|?*`, r):
			return '_'
		default:
			return r
		}
	}, name)
	return strings.Trim(name, " .")
}

package fonts

import "strings"

// familyStems 将常见字体族名映射为 Windows 字体文件名主干。
var familyStems = map[string]string{
	"times new roman": "times",
	"arial":           "arial",
	"verdana":         "verdana",
	"tahoma":          "tahoma",
	"impact":          "impact",
	"comic sans ms":   "comic",
	"courier new":     "cour",
	"segoe ui":        "segoeui",
	"georgia":         "georgia",
	"trebuchet ms":    "trebuc",
}

// styleSuffix returns the conventional filename suffix for a style.
func styleSuffix(bold, italic bool) string {
	switch {
	case bold && italic:
		return "bi"
	case bold:
		return "bd"
	case italic:
		return "i"
	default:
		return ""
	}
}

// tableCandidates 返回按顺序尝试的文件名：带样式后缀的版本在前，常规版本在后。
func tableCandidates(family string, bold, italic bool) []string {
	clean := strings.TrimSpace(family)
	if strings.HasSuffix(strings.ToLower(clean), ".ttf") {
		clean = clean[:len(clean)-4]
	}
	base, ok := familyStems[strings.ToLower(clean)]
	if !ok {
		base = clean
	}
	if base == "" {
		return nil
	}
	out := []string{}
	if suffix := styleSuffix(bold, italic); suffix != "" {
		out = append(out, base+suffix+".ttf")
	}
	return append(out, base+".ttf")
}

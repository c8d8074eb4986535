package fonts

import "strings"

// matchRegistryName reports whether a Windows font registry value name such
// as "Arial Bold Italic (TrueType)" describes family with exactly the
// requested style. Names listing several faces ("Cambria & Cambria Math")
// match when any of the faces does.
func matchRegistryName(name, family string, bold, italic bool) bool {
	want := normalizeFamily(family)
	if want == "" {
		return false
	}
	clean := strings.ToLower(name)
	if i := strings.Index(clean, "("); i >= 0 {
		clean = clean[:i]
	}
	for _, face := range strings.Split(clean, "&") {
		words := strings.Fields(face)
		var rest []string
		var hasBold, hasItalic bool
		for _, w := range words {
			switch w {
			case "bold":
				hasBold = true
			case "italic", "oblique":
				hasItalic = true
			case "regular":
			default:
				rest = append(rest, w)
			}
		}
		if strings.Join(rest, " ") == want && hasBold == bold && hasItalic == italic {
			return true
		}
	}
	return false
}

package layout

import (
	"strings"

	"golang.org/x/image/font"

	"github.com/Balrog57/xml2png/layer"
)

const (
	// Ellipsis 附加在被截断的文本之后。
	Ellipsis = "..."
	// linePadding 是行高在字形跨度之外额外增加的像素。
	linePadding = 4
	// lineHeightSample 用于测量上升部与下降部的参考字形。
	lineHeightSample = "Tg"
	// advanceSample 用于估算平均字符宽度。
	advanceSample = "x"
)

// Truncate cuts text to maxChars characters and appends "...". A
// non-positive maxChars or a short enough text is returned unchanged.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars]) + Ellipsis
}

// Wrap 以字符数为预算做贪心换行。空白会被折叠；超过预算的单词会被拆开，
// 并先填满当前行剩余的位置。全空白的文本返回 nil。
func Wrap(text string, width int) []string {
	if width < 1 {
		width = 1
	}
	words := strings.Fields(text)
	var lines []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			lines = append(lines, string(cur))
			cur = cur[:0]
		}
	}

	for i := 0; i < len(words); {
		word := []rune(words[i])
		sep := 0
		if len(cur) > 0 {
			sep = 1
		}
		if len(cur)+sep+len(word) <= width {
			if sep == 1 {
				cur = append(cur, ' ')
			}
			cur = append(cur, word...)
			i++
			continue
		}
		if len(word) > width {
			space := width - len(cur) - sep
			if space > 0 {
				if sep == 1 {
					cur = append(cur, ' ')
				}
				cur = append(cur, word[:space]...)
				words[i] = string(word[space:])
			}
		}
		flush()
	}
	flush()
	return lines
}

// Measure returns the advance width of s in pixels.
func Measure(face font.Face, s string) float64 {
	return float64(font.MeasureString(face, s)) / 64
}

// LineHeight 以参考字形 "Tg" 的纵向跨度加上固定间距作为行高。
func LineHeight(face font.Face) int {
	bounds, _ := font.BoundString(face, lineHeightSample)
	return (bounds.Max.Y - bounds.Min.Y).Ceil() + linePadding
}

// Lines lays text out inside box. Lines are stacked top-down from box.Y and
// layout stops at the first line whose bottom would pass the bottom of box.
func Lines(text string, box Box, face font.Face, align layer.Align, wordWrap bool) []Line {
	if text == "" {
		return nil
	}
	contents := []string{text}
	if wordWrap && box.Width > 0 {
		// 字形宽度为 0 的退化字体不换行
		if adv := Measure(face, advanceSample); adv > 0 {
			budget := int(float64(box.Width) / adv)
			if budget < 1 {
				budget = 1
			}
			contents = Wrap(text, budget)
		}
	}

	lineHeight := LineHeight(face)
	ascent := face.Metrics().Ascent.Round()
	bottom := box.Y + box.Height

	var out []Line
	y := box.Y
	for _, content := range contents {
		if y+lineHeight > bottom {
			break
		}
		width := Measure(face, content)
		out = append(out, Line{
			Content:  content,
			X:        alignX(box, width, align),
			Y:        y,
			Baseline: y + ascent,
			Width:    width,
			Height:   lineHeight,
		})
		y += lineHeight
	}
	return out
}

func alignX(box Box, width float64, align layer.Align) float64 {
	switch align {
	case layer.AlignCenter:
		return float64(box.X) + (float64(box.Width)-width)/2
	case layer.AlignRight:
		return float64(box.X) + float64(box.Width) - width
	default:
		return float64(box.X)
	}
}

package layer

import "fmt"

const (
	// ContentLayers 是背景之外的内容图层数量。
	ContentLayers = 10
	// BackgroundName is the label of layer 0.
	BackgroundName = "Background"

	DefaultFont     = "Arial"
	DefaultFontSize = 24
)

// NewBackground returns the background layer with the given image path.
// 背景在没有路径时视为未配置（Enabled=false）。
func NewBackground(path string) Layer {
	return Layer{
		Name:    BackgroundName,
		Kind:    KindStaticImage,
		Enabled: path != "",
		Visible: true,
		Width:   1024,
		Height:  768,
		Path:    path,
	}
}

// NewContent returns the default, unconfigured content layer #index.
func NewContent(index int) Layer {
	return Layer{
		Name:     fmt.Sprintf("Layer #%d", index),
		Kind:     KindText,
		Enabled:  false,
		Visible:  true,
		X:        100,
		Y:        100,
		Width:    100,
		Height:   100,
		Source:   SourceDescription,
		Font:     DefaultFont,
		Size:     DefaultFontSize,
		Color:    White,
		Align:    AlignLeft,
		WordWrap: true,
	}
}

// NewSession 创建一次会话的固定图层集合：1 个背景 + 10 个内容图层。
func NewSession(backgroundPath string) []Layer {
	layers := make([]Layer, 0, ContentLayers+1)
	layers = append(layers, NewBackground(backgroundPath))
	for i := 1; i <= ContentLayers; i++ {
		layers = append(layers, NewContent(i))
	}
	return layers
}

// Placeholder 是未加载目录时用于预览的示例条目。
func Placeholder() Entry {
	return Entry{
		Key:          "Sonic The Hedgehog 2",
		DisplayName:  "Sonic The Hedgehog 2",
		Description:  "Dr. Robotnik is back and he's planning to take over the world again! It's up to Sonic and his new pal Tails to stop him.",
		Year:         "1992",
		Genre:        "Platformer",
		Manufacturer: "SEGA",
	}
}

// Field returns the raw entry value selected by src. When entry is nil the
// placeholder values are used so a template can be previewed without a catalog.
func Field(entry *Entry, src TextSource, useDisplayName bool) string {
	if entry == nil {
		p := Placeholder()
		entry = &p
	}
	switch src {
	case SourceDescription:
		return entry.Description
	case SourceName:
		if useDisplayName {
			return entry.DisplayName
		}
		return entry.Key
	case SourceYear:
		return entry.Year
	case SourceGenre:
		return entry.Genre
	case SourceManufacturer:
		return entry.Manufacturer
	default:
		return ""
	}
}

// Text 解析文本图层的最终内容：字段值为空时直接返回空串，否则拼接前后缀。
// 截断由 layout.Truncate 在拼接之后完成。
func (l Layer) Text(entry *Entry) string {
	text := Field(entry, l.Source, l.UseDisplayName)
	if text == "" {
		return ""
	}
	return l.Prefix + text + l.Suffix
}

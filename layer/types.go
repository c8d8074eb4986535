package layer

// 该文件定义图层与条目的数据模型，供合成器、模板与批处理共用。

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoLayers 表示图层列表为空（至少需要背景图层）。
var ErrNoLayers = errors.New("图层列表为空，缺少背景图层")

// Kind 是图层的封闭变体类型。
type Kind int

const (
	KindText Kind = iota
	KindStaticImage
	KindFolderImage
)

// String returns the keyword used by the template format.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindStaticImage:
		return "image"
	case KindFolderImage:
		return "folder"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind maps a template keyword back to a Kind.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text":
		return KindText, nil
	case "image", "static":
		return KindStaticImage, nil
	case "folder":
		return KindFolderImage, nil
	default:
		return KindText, fmt.Errorf("未知的图层类型 %q", s)
	}
}

// TextSource 指定文本图层从条目的哪个字段取值。
type TextSource int

const (
	SourceDescription TextSource = iota
	SourceName
	SourceYear
	SourceGenre
	SourceManufacturer
)

func (s TextSource) String() string {
	switch s {
	case SourceDescription:
		return "description"
	case SourceName:
		return "name"
	case SourceYear:
		return "year"
	case SourceGenre:
		return "genre"
	case SourceManufacturer:
		return "manufacturer"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// ParseTextSource maps a template keyword back to a TextSource.
func ParseTextSource(s string) (TextSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "description", "desc":
		return SourceDescription, nil
	case "name":
		return SourceName, nil
	case "year":
		return SourceYear, nil
	case "genre":
		return SourceGenre, nil
	case "manufacturer":
		return SourceManufacturer, nil
	default:
		return SourceDescription, fmt.Errorf("未知的文本来源 %q", s)
	}
}

// Align 是文本的水平对齐方式。
type Align int

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

func (a Align) String() string {
	switch a {
	case AlignCenter:
		return "center"
	case AlignRight:
		return "right"
	default:
		return "left"
	}
}

// ParseAlign 解析对齐关键字，未知值按 left 处理。
func ParseAlign(s string) Align {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "center", "middle":
		return AlignCenter
	case "right", "end":
		return AlignRight
	default:
		return AlignLeft
	}
}

// Color 采用 0-255 的 RGBA 数值（非预乘）。
type Color struct {
	R uint8 `json:"r"`
	G uint8 `json:"g"`
	B uint8 `json:"b"`
	A uint8 `json:"a"`
}

// White is the default text colour.
var White = Color{R: 255, G: 255, B: 255, A: 255}

// Hex formats the colour as #RRGGBBAA.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02X%02X%02X%02X", c.R, c.G, c.B, c.A)
}

// ParseColor 支持 #RGB、#RRGGBB 与 #RRGGBBAA。
func ParseColor(value string) (Color, error) {
	v := strings.TrimPrefix(strings.TrimSpace(value), "#")
	var parts [4]uint8
	parts[3] = 0xff
	switch len(v) {
	case 3:
		for i := 0; i < 3; i++ {
			h, err := hexByte(strings.Repeat(string(v[i]), 2))
			if err != nil {
				return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
			}
			parts[i] = h
		}
	case 6, 8:
		for i := 0; i < len(v)/2; i++ {
			h, err := hexByte(v[i*2 : i*2+2])
			if err != nil {
				return Color{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
			}
			parts[i] = h
		}
	default:
		return Color{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	return Color{R: parts[0], G: parts[1], B: parts[2], A: parts[3]}, nil
}

func hexByte(s string) (uint8, error) {
	var out uint8
	for _, r := range s {
		var d uint8
		switch {
		case r >= '0' && r <= '9':
			d = uint8(r - '0')
		case r >= 'a' && r <= 'f':
			d = uint8(r-'a') + 10
		case r >= 'A' && r <= 'F':
			d = uint8(r-'A') + 10
		default:
			return 0, fmt.Errorf("非法十六进制字符 %q", r)
		}
		out = out<<4 | d
	}
	return out, nil
}

// Entry 是目录中的一条记录，所有字段都可能为空。
type Entry struct {
	Key          string `json:"key"` // 输出文件名主干，同时用于文件夹图片查找
	DisplayName  string `json:"name"`
	Description  string `json:"description"`
	Year         string `json:"year"`
	Genre        string `json:"genre"`
	Manufacturer string `json:"manufacturer"`
}

// Layer 描述一个可配置的图层。索引 0 的图层是背景，几何信息不参与绘制。
type Layer struct {
	Name    string `json:"name"`
	Kind    Kind   `json:"kind"`
	Enabled bool   `json:"enabled"` // 是否配置了输入源
	Visible bool   `json:"visible"` // 显示开关，与 Enabled 相互独立

	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`

	// 文本属性
	Source         TextSource `json:"source"`
	Font           string     `json:"font"`
	Size           float64    `json:"size"`
	Color          Color      `json:"color"`
	Align          Align      `json:"align"`
	MaxChars       int        `json:"maxChars"` // 0 表示不限制
	WordWrap       bool       `json:"wordWrap"`
	Bold           bool       `json:"bold"`
	Italic         bool       `json:"italic"`
	Underline      bool       `json:"underline"`
	Prefix         string     `json:"prefix"`
	Suffix         string     `json:"suffix"`
	UseDisplayName bool       `json:"useDisplayName"` // Name 来源使用显示名而不是输出键

	// 图片属性：StaticImage 与背景为文件路径，FolderImage 为目录
	Path     string `json:"path"`
	Mirror   bool   `json:"mirror"`
	Rotation int    `json:"rotation"` // 顺时针 0/90/180/270
	Stretch  bool   `json:"stretch"`
	Trim     bool   `json:"trim"`

	// FallbackText 仅被接受并保存，目前不影响渲染。
	FallbackText bool `json:"fallbackText"`
}

// Drawable reports whether the layer may contribute pixels at all.
func (l Layer) Drawable() bool {
	return l.Enabled && l.Visible
}

// Validate 检查图层列表的结构性约束。
func Validate(layers []Layer) error {
	if len(layers) == 0 {
		return ErrNoLayers
	}
	return nil
}

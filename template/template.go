// Package template persists a layer session in the marquee template DSL.
package template

import (
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/Balrog57/xml2png/dsl"
	"github.com/Balrog57/xml2png/layer"
)

const (
	DefaultName    = "Marquee"
	DefaultVersion = "v1"
)

// Template is a parsed layer session plus an optional fixed canvas size.
type Template struct {
	Name    string
	Version string
	// Width/Height 为 0 时画布尺寸取自背景图。
	Width  int
	Height int
	Layers []layer.Layer
}

// Default returns an empty session: no background, ten disabled layers.
func Default() *Template {
	return &Template{
		Name:    DefaultName,
		Version: DefaultVersion,
		Layers:  layer.NewSession(""),
	}
}

// DefaultFor returns the default session with the first image found in
// backgroundDir as its background. Without one the background stays disabled.
func DefaultFor(backgroundDir string) (*Template, error) {
	t := Default()
	bg, err := layer.DefaultBackground(backgroundDir)
	if err != nil {
		return nil, err
	}
	if bg != "" {
		if abs, err := filepath.Abs(bg); err == nil {
			bg = abs
		}
		t.Layers[0] = layer.NewBackground(bg)
	}
	return t, nil
}

// Size returns the fixed canvas size, or nil when the background decides.
func (t *Template) Size() *image.Point {
	if t == nil || t.Width <= 0 || t.Height <= 0 {
		return nil
	}
	return &image.Point{X: t.Width, Y: t.Height}
}

// Parse reads a template from r.
func Parse(r io.Reader) (*Template, error) {
	doc, err := dsl.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("解析模板失败: %w", err)
	}
	return fromDocument(doc)
}

// ParseString parses template source text.
func ParseString(src string) (*Template, error) {
	return Parse(strings.NewReader(src))
}

// Load reads a template file. Relative asset paths are resolved against the
// directory that contains the file.
func Load(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("读取模板失败: %w", err)
	}
	defer f.Close()

	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	t.resolvePaths(filepath.Dir(path))
	return t, nil
}

// Save writes t to path in template syntax.
func Save(path string, t *Template) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建模板文件失败: %w", err)
	}
	if err := t.Format(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (t *Template) resolvePaths(base string) {
	for i := range t.Layers {
		p := t.Layers[i].Path
		if p == "" || filepath.IsAbs(p) {
			continue
		}
		t.Layers[i].Path = filepath.Join(base, p)
	}
}

func fromDocument(doc *dsl.Document) (*Template, error) {
	t := Default()
	t.Name = doc.Name
	t.Version = doc.Version
	seen := map[int]bool{}

	for _, sec := range doc.Sections {
		switch {
		case sec.Canvas != nil:
			if err := t.applyCanvas(sec.Canvas.Block); err != nil {
				return nil, err
			}
		case sec.Background != nil:
			if err := t.applyBackground(sec.Background.Block); err != nil {
				return nil, err
			}
		case sec.Layer != nil:
			idx, err := strconv.Atoi(sec.Layer.Index)
			if err != nil || idx < 1 || idx > layer.ContentLayers {
				return nil, posErr(sec.Layer.Pos, "图层编号必须在 1..%d 之间: %s", layer.ContentLayers, sec.Layer.Index)
			}
			if seen[idx] {
				return nil, posErr(sec.Layer.Pos, "图层 %d 重复定义", idx)
			}
			seen[idx] = true
			l, err := buildLayer(idx, sec.Layer)
			if err != nil {
				return nil, err
			}
			t.Layers[idx] = l
		}
	}
	return t, nil
}

func (t *Template) applyCanvas(block *dsl.Block) error {
	return eachAssignment(block, func(a *dsl.Assignment) error {
		switch a.Key {
		case "width":
			return setInt(a, &t.Width)
		case "height":
			return setInt(a, &t.Height)
		default:
			return unknownKey(a, "canvas")
		}
	})
}

func (t *Template) applyBackground(block *dsl.Block) error {
	bg := &t.Layers[0]
	explicit := false
	err := eachAssignment(block, func(a *dsl.Assignment) error {
		switch a.Key {
		case "src":
			return setString(a, &bg.Path)
		case "enabled":
			explicit = true
			return setBool(a, &bg.Enabled)
		case "visible":
			return setBool(a, &bg.Visible)
		default:
			return unknownKey(a, "background")
		}
	})
	if err != nil {
		return err
	}
	// 未显式指定时，有图片路径即视为启用
	if !explicit {
		bg.Enabled = bg.Path != ""
	}
	return nil
}

func buildLayer(idx int, sec *dsl.LayerSection) (layer.Layer, error) {
	l := layer.NewContent(idx)
	kind, err := layer.ParseKind(sec.Kind)
	if err != nil {
		return l, posErr(sec.Pos, "%v", err)
	}
	l.Kind = kind
	// 模板中声明的图层默认启用
	l.Enabled = true

	err = eachAssignment(sec.Block, func(a *dsl.Assignment) error {
		if ok, err := applyCommon(&l, a); ok {
			return err
		}
		switch kind {
		case layer.KindText:
			return applyText(&l, a)
		default:
			return applyImage(&l, a)
		}
	})
	return l, err
}

func applyCommon(l *layer.Layer, a *dsl.Assignment) (bool, error) {
	switch a.Key {
	case "name":
		return true, setString(a, &l.Name)
	case "enabled":
		return true, setBool(a, &l.Enabled)
	case "visible":
		return true, setBool(a, &l.Visible)
	case "at":
		nums, err := boxValue(a)
		if err != nil {
			return true, err
		}
		l.X, l.Y, l.Width, l.Height = nums[0], nums[1], nums[2], nums[3]
		return true, nil
	}
	return false, nil
}

func applyText(l *layer.Layer, a *dsl.Assignment) error {
	switch a.Key {
	case "source":
		s, err := word(a)
		if err != nil {
			return err
		}
		src, err := layer.ParseTextSource(s)
		if err != nil {
			return posErr(a.Pos, "%v", err)
		}
		l.Source = src
		return nil
	case "font":
		return setString(a, &l.Font)
	case "size":
		return setFloat(a, &l.Size)
	case "color":
		s, err := colorValue(a)
		if err != nil {
			return err
		}
		c, err := layer.ParseColor(s)
		if err != nil {
			return posErr(a.Pos, "%v", err)
		}
		l.Color = c
		return nil
	case "align":
		s, err := word(a)
		if err != nil {
			return err
		}
		l.Align = layer.ParseAlign(s)
		return nil
	case "max-chars":
		return setInt(a, &l.MaxChars)
	case "wrap":
		return setBool(a, &l.WordWrap)
	case "bold":
		return setBool(a, &l.Bold)
	case "italic":
		return setBool(a, &l.Italic)
	case "underline":
		return setBool(a, &l.Underline)
	case "prefix":
		return setString(a, &l.Prefix)
	case "suffix":
		return setString(a, &l.Suffix)
	case "display-name":
		return setBool(a, &l.UseDisplayName)
	default:
		return unknownKey(a, "text")
	}
}

func applyImage(l *layer.Layer, a *dsl.Assignment) error {
	switch a.Key {
	case "src":
		if l.Kind != layer.KindStaticImage {
			return unknownKey(a, l.Kind.String())
		}
		return setString(a, &l.Path)
	case "dir":
		if l.Kind != layer.KindFolderImage {
			return unknownKey(a, l.Kind.String())
		}
		return setString(a, &l.Path)
	case "mirror":
		return setBool(a, &l.Mirror)
	case "rotate":
		return setInt(a, &l.Rotation)
	case "stretch":
		return setBool(a, &l.Stretch)
	case "trim":
		return setBool(a, &l.Trim)
	case "fallback-text":
		return setBool(a, &l.FallbackText)
	default:
		return unknownKey(a, l.Kind.String())
	}
}

func eachAssignment(block *dsl.Block, fn func(*dsl.Assignment) error) error {
	if block == nil {
		return nil
	}
	for _, stmt := range block.Statements {
		if stmt == nil || stmt.Assignment == nil {
			continue
		}
		if err := fn(stmt.Assignment); err != nil {
			return err
		}
	}
	return nil
}

var errType = errors.New("属性值类型错误")

func posErr(pos lexer.Position, format string, args ...any) error {
	return fmt.Errorf("第 %d 行: %s", pos.Line, fmt.Sprintf(format, args...))
}

func typeErr(a *dsl.Assignment, want string) error {
	return fmt.Errorf("第 %d 行: %s 需要%s: %w", a.Pos.Line, a.Key, want, errType)
}

func unknownKey(a *dsl.Assignment, section string) error {
	return posErr(a.Pos, "%s 中未知的属性 %q", section, a.Key)
}

func setString(a *dsl.Assignment, dst *string) error {
	if a.Value.String == nil {
		return typeErr(a, "字符串")
	}
	*dst = string(*a.Value.String)
	return nil
}

// word accepts either a bare identifier or a quoted string.
func word(a *dsl.Assignment) (string, error) {
	switch {
	case a.Value.Ident != nil:
		return *a.Value.Ident, nil
	case a.Value.String != nil:
		return string(*a.Value.String), nil
	default:
		return "", typeErr(a, "标识符")
	}
}

func colorValue(a *dsl.Assignment) (string, error) {
	switch {
	case a.Value.Color != nil:
		return *a.Value.Color, nil
	case a.Value.String != nil:
		return string(*a.Value.String), nil
	case a.Value.Object != nil:
		// { r: 255, g: 204, b: 0, a: 255 }，a 缺省为 255
		ch, err := objectInts(a, []string{"r", "g", "b", "a"}, map[string]int{"a": 255})
		if err != nil {
			return "", err
		}
		for _, v := range ch {
			if v < 0 || v > 255 {
				return "", typeErr(a, " 0..255 的颜色分量")
			}
		}
		return fmt.Sprintf("#%02X%02X%02X%02X", ch[0], ch[1], ch[2], ch[3]), nil
	default:
		return "", typeErr(a, "颜色")
	}
}

// boxValue reads `at` as [x, y, w, h] or { x: .., y: .., width: .., height: .. }.
func boxValue(a *dsl.Assignment) ([]int, error) {
	if a.Value.Object != nil {
		return objectInts(a, []string{"x", "y", "width", "height"}, nil)
	}
	return intArray(a, 4)
}

// objectInts reads the numeric entries keys of an inline object in order.
// Keys missing from the object take their value from defaults; unknown keys
// are an error.
func objectInts(a *dsl.Assignment, keys []string, defaults map[string]int) ([]int, error) {
	obj := a.Value.Object
	known := make(map[string]bool, len(keys))
	for _, k := range keys {
		known[k] = true
	}
	for _, e := range obj.Entries {
		if !known[e.Key] {
			return nil, posErr(e.Pos, "%s 中未知的属性 %q", a.Key, e.Key)
		}
	}
	out := make([]int, len(keys))
	for i, k := range keys {
		v := obj.Lookup(k)
		if v == nil {
			d, ok := defaults[k]
			if !ok {
				return nil, posErr(a.Pos, "%s 缺少 %s", a.Key, k)
			}
			out[i] = d
			continue
		}
		if v.Number == nil {
			return nil, typeErr(a, "数字")
		}
		f, err := strconv.ParseFloat(*v.Number, 64)
		if err != nil {
			return nil, typeErr(a, "数字")
		}
		out[i] = int(f)
	}
	return out, nil
}

func setBool(a *dsl.Assignment, dst *bool) error {
	if a.Value.Ident != nil {
		switch *a.Value.Ident {
		case "true", "yes", "on":
			*dst = true
			return nil
		case "false", "no", "off":
			*dst = false
			return nil
		}
	}
	return typeErr(a, "布尔值")
}

func setFloat(a *dsl.Assignment, dst *float64) error {
	if a.Value.Number == nil {
		return typeErr(a, "数字")
	}
	f, err := strconv.ParseFloat(*a.Value.Number, 64)
	if err != nil {
		return typeErr(a, "数字")
	}
	*dst = f
	return nil
}

func setInt(a *dsl.Assignment, dst *int) error {
	var f float64
	if err := setFloat(a, &f); err != nil {
		return err
	}
	*dst = int(f)
	return nil
}

func intArray(a *dsl.Assignment, n int) ([]int, error) {
	arr := a.Value.Array
	if arr == nil || len(arr.Values) != n {
		return nil, typeErr(a, fmt.Sprintf(" %d 个数字的数组", n))
	}
	out := make([]int, n)
	for i, v := range arr.Values {
		if v.Number == nil {
			return nil, typeErr(a, fmt.Sprintf(" %d 个数字的数组", n))
		}
		f, err := strconv.ParseFloat(*v.Number, 64)
		if err != nil {
			return nil, typeErr(a, "数字")
		}
		out[i] = int(f)
	}
	return out, nil
}

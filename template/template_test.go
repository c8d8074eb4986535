package template

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Balrog57/xml2png/layer"
)

const marquee = `
template Marquee v1 {
  canvas { width: 800  height: 200 }
  background { src: "bg.png" }

  layer 1 text {
    source: description
    at: [10, 10, 400, 100]
    font: "Arial"; size: 24; color: #FFCC00FF; align: center
    max-chars: 40
    prefix: "« "; suffix: " »"
  }
  layer 2 image { src: "/abs/logo.png"  at: [0, 0, 0, 0]  mirror: true  rotate: 90 }
  layer 3 folder { dir: "snaps"  at: [600, 50, 300, 200]  stretch: false  enabled: false }
}
`

func TestParseTemplate(t *testing.T) {
	tpl, err := ParseString(marquee)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tpl.Name != "Marquee" || tpl.Version != "v1" {
		t.Fatalf("unexpected header %s %s", tpl.Name, tpl.Version)
	}
	if size := tpl.Size(); size == nil || size.X != 800 || size.Y != 200 {
		t.Fatalf("unexpected canvas size %v", size)
	}
	if len(tpl.Layers) != layer.ContentLayers+1 {
		t.Fatalf("missing layers must be filled, got %d", len(tpl.Layers))
	}

	bg := tpl.Layers[0]
	if bg.Path != "bg.png" || !bg.Enabled || !bg.Visible {
		t.Fatalf("unexpected background %+v", bg)
	}

	text := tpl.Layers[1]
	if !text.Enabled || text.Kind != layer.KindText || text.Source != layer.SourceDescription {
		t.Fatalf("unexpected text layer %+v", text)
	}
	if text.X != 10 || text.Width != 400 || text.Height != 100 {
		t.Fatalf("unexpected box %+v", text)
	}
	if text.Color != (layer.Color{R: 0xFF, G: 0xCC, B: 0x00, A: 0xFF}) || text.Align != layer.AlignCenter {
		t.Fatalf("unexpected style %+v", text)
	}
	if text.MaxChars != 40 || text.Prefix != "« " || text.Suffix != " »" {
		t.Fatalf("unexpected text options %+v", text)
	}

	img := tpl.Layers[2]
	if img.Kind != layer.KindStaticImage || img.Path != "/abs/logo.png" || !img.Mirror || img.Rotation != 90 {
		t.Fatalf("unexpected image layer %+v", img)
	}

	folder := tpl.Layers[3]
	if folder.Kind != layer.KindFolderImage || folder.Path != "snaps" || folder.Enabled {
		t.Fatalf("unexpected folder layer %+v", folder)
	}

	for i := 4; i <= layer.ContentLayers; i++ {
		if tpl.Layers[i] != layer.NewContent(i) {
			t.Fatalf("layer %d should be the disabled default", i)
		}
	}
}

func TestParseTemplateErrors(t *testing.T) {
	cases := map[string]string{
		"index range":   "template T v1 {\n layer 11 text { }\n}",
		"duplicate":     "template T v1 {\n layer 1 text { }\n layer 1 image { }\n}",
		"unknown kind":  "template T v1 {\n layer 1 video { }\n}",
		"unknown key":   "template T v1 {\n layer 1 text { colour: #FFF }\n}",
		"kind mismatch": "template T v1 {\n layer 1 text { src: \"a.png\" }\n}",
		"dir on image":  "template T v1 {\n layer 1 image { dir: \"a\" }\n}",
		"bad bool":      "template T v1 {\n background { visible: 1 }\n}",
		"bad box":       "template T v1 {\n layer 1 text { at: [1, 2, 3] }\n}",
		"bad source":    "template T v1 {\n layer 1 text { source: title }\n}",
		"box missing":   "template T v1 {\n layer 1 text { at: { x: 1, y: 2, width: 3 } }\n}",
		"box extra key": "template T v1 {\n layer 1 text { at: { x: 1, y: 2, w: 3, height: 4 } }\n}",
		"channel range": "template T v1 {\n layer 1 text { color: { r: 300, g: 0, b: 0 } }\n}",
		"object string": "template T v1 {\n layer 1 text { font: { name: 1 } }\n}",
		"syntax":        "template T v1 {",
	}
	for name, src := range cases {
		if _, err := ParseString(src); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}

	_, err := ParseString("template T v1 {\n layer 1 text { size: \"big\" }\n}")
	if !errors.Is(err, errType) {
		t.Fatalf("type errors should wrap errType, got %v", err)
	}
	if !strings.Contains(err.Error(), "第 2 行") {
		t.Fatalf("error should carry the line number: %v", err)
	}
}

func TestBackgroundEnabledFollowsPath(t *testing.T) {
	tpl, err := ParseString("template T v1 {\n background { visible: true }\n}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tpl.Layers[0].Enabled {
		t.Fatalf("background without src must stay disabled")
	}
	tpl, err = ParseString("template T v1 {\n background { src: \"a.png\"  enabled: false }\n}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if tpl.Layers[0].Enabled {
		t.Fatalf("explicit enabled: false must win")
	}
}

func TestFormatRoundTrip(t *testing.T) {
	tpl := Default()
	tpl.Name = "Round"
	tpl.Width, tpl.Height = 640, 480
	tpl.Layers[0] = layer.NewBackground("/tmp/bg.png")
	tpl.Layers[0].Visible = false

	text := layer.NewContent(1)
	text.Enabled = true
	text.Source = layer.SourceYear
	text.X, text.Y, text.Width, text.Height = -5, 20, 300, 60
	text.Size = 10.5
	text.Color = layer.Color{R: 1, G: 2, B: 3, A: 128}
	text.Align = layer.AlignRight
	text.Bold, text.Italic, text.Underline = true, true, true
	text.WordWrap = false
	text.Prefix = "(\"year\") "
	text.UseDisplayName = true
	text.Name = "Year"
	tpl.Layers[1] = text

	img := layer.NewContent(5)
	img.Kind = layer.KindStaticImage
	img.Enabled = true
	img.Path = "/tmp/logo.png"
	img.Rotation = 270
	img.Stretch = true
	img.Trim = true
	img.FallbackText = true
	tpl.Layers[5] = img

	folder := layer.NewContent(10)
	folder.Kind = layer.KindFolderImage
	folder.Path = "/tmp/snaps"
	folder.FallbackText = true
	tpl.Layers[10] = folder

	var buf bytes.Buffer
	if err := tpl.Format(&buf); err != nil {
		t.Fatalf("format: %v", err)
	}
	if strings.Contains(buf.String(), "layer 2 ") {
		t.Fatalf("default layers should be omitted:\n%s", buf.String())
	}

	back, err := ParseString(buf.String())
	if err != nil {
		t.Fatalf("reparse: %v\n%s", err, buf.String())
	}
	if back.Name != "Round" || back.Width != 640 || back.Height != 480 {
		t.Fatalf("header lost: %+v", back)
	}
	for i := range tpl.Layers {
		if back.Layers[i] != tpl.Layers[i] {
			t.Fatalf("layer %d changed:\nwant %+v\ngot  %+v", i, tpl.Layers[i], back.Layers[i])
		}
	}
}

func TestFormatSanitizesName(t *testing.T) {
	tpl := Default()
	tpl.Name = "My Marquee"
	var buf bytes.Buffer
	if err := tpl.Format(&buf); err != nil {
		t.Fatalf("format: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "template Marquee v1 {") {
		t.Fatalf("unexpected header: %s", buf.String())
	}
	if _, err := ParseString(buf.String()); err != nil {
		t.Fatalf("default template must reparse: %v", err)
	}
}

func TestLoadResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "marquee.tpl")
	if err := os.WriteFile(path, []byte(marquee), 0o644); err != nil {
		t.Fatal(err)
	}
	tpl, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := tpl.Layers[0].Path; got != filepath.Join(dir, "bg.png") {
		t.Fatalf("background path not resolved: %s", got)
	}
	if got := tpl.Layers[3].Path; got != filepath.Join(dir, "snaps") {
		t.Fatalf("folder path not resolved: %s", got)
	}
	if got := tpl.Layers[2].Path; got != "/abs/logo.png" {
		t.Fatalf("absolute path must be kept: %s", got)
	}

	out := filepath.Join(dir, "saved.tpl")
	if err := Save(out, tpl); err != nil {
		t.Fatalf("save: %v", err)
	}
	again, err := Load(out)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if again.Layers[1] != tpl.Layers[1] {
		t.Fatalf("text layer changed after save/load")
	}

	if _, err := Load(filepath.Join(dir, "absent.tpl")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestInlineObjectValues(t *testing.T) {
	src := `template T v1 {
  layer 1 text {
    at: { x: 12, y: 34, width: 200, height: 50 }
    color: { r: 255; g: 128; b: 0 }
  }
  layer 2 text {
    at: {
      height: 8
      width: 7
      y: 6
      x: 5
    }
    color: { r: 1, g: 2, b: 3, a: 4 }
  }
}`
	tpl, err := ParseString(src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	l := tpl.Layers[1]
	if l.X != 12 || l.Y != 34 || l.Width != 200 || l.Height != 50 {
		t.Fatalf("unexpected box %+v", l)
	}
	if l.Color != (layer.Color{R: 255, G: 128, B: 0, A: 255}) {
		t.Fatalf("alpha should default to 255, got %+v", l.Color)
	}
	l = tpl.Layers[2]
	if l.X != 5 || l.Y != 6 || l.Width != 7 || l.Height != 8 {
		t.Fatalf("keys must map by name, not order: %+v", l)
	}
	if l.Color != (layer.Color{R: 1, G: 2, B: 3, A: 4}) {
		t.Fatalf("unexpected colour %+v", l.Color)
	}
}

func TestImageFallbackTextRoundTrip(t *testing.T) {
	tpl, err := ParseString("template T v1 {\n layer 1 image { src: \"a.png\"  fallback-text: true }\n}")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	var buf bytes.Buffer
	if err := tpl.Format(&buf); err != nil {
		t.Fatalf("format: %v", err)
	}
	back, err := ParseString(buf.String())
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if !back.Layers[1].FallbackText {
		t.Fatalf("fallback-text lost on a static image layer:\n%s", buf.String())
	}
}

func TestDefaultForPicksFirstBackground(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"zeta.jpg", "alpha.png"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	tpl, err := DefaultFor(dir)
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	bg := tpl.Layers[0]
	if bg.Path != filepath.Join(dir, "alpha.png") || !bg.Enabled {
		t.Fatalf("unexpected background %+v", bg)
	}
	if tpl.Layers[1] != layer.NewContent(1) {
		t.Fatalf("content layers should keep their defaults")
	}

	empty, err := DefaultFor(filepath.Join(dir, "missing"))
	if err != nil {
		t.Fatalf("missing dir: %v", err)
	}
	if empty.Layers[0].Enabled || empty.Layers[0].Path != "" {
		t.Fatalf("no background expected, got %+v", empty.Layers[0])
	}
}

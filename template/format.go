package template

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/Balrog57/xml2png/layer"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

// Format writes t in template syntax. Content layers that still equal their
// default are omitted; Parse fills them back in.
func (t *Template) Format(w io.Writer) error {
	bw := bufio.NewWriter(w)
	p := &printer{w: bw}

	name, version := t.Name, t.Version
	if !identPattern.MatchString(name) {
		name = DefaultName
	}
	if !identPattern.MatchString(version) {
		version = DefaultVersion
	}
	p.line(0, "template %s %s {", name, version)

	if t.Width > 0 && t.Height > 0 {
		p.open("canvas")
		p.kv("width", strconv.Itoa(t.Width))
		p.kv("height", strconv.Itoa(t.Height))
		p.close()
	}

	if len(t.Layers) > 0 {
		bg := t.Layers[0]
		p.open("background")
		p.kv("src", strconv.Quote(bg.Path))
		p.kv("enabled", strconv.FormatBool(bg.Enabled))
		p.kv("visible", strconv.FormatBool(bg.Visible))
		p.close()
	}

	for i := 1; i < len(t.Layers) && i <= layer.ContentLayers; i++ {
		l := t.Layers[i]
		def := layer.NewContent(i)
		if l == def {
			continue
		}
		p.open(fmt.Sprintf("layer %d %s", i, l.Kind))
		if l.Name != def.Name {
			p.kv("name", strconv.Quote(l.Name))
		}
		p.kv("enabled", strconv.FormatBool(l.Enabled))
		p.kv("visible", strconv.FormatBool(l.Visible))
		p.kv("at", fmt.Sprintf("[%d, %d, %d, %d]", l.X, l.Y, l.Width, l.Height))
		switch l.Kind {
		case layer.KindText:
			writeText(p, l)
		case layer.KindStaticImage:
			p.kv("src", strconv.Quote(l.Path))
			writeImage(p, l)
		case layer.KindFolderImage:
			p.kv("dir", strconv.Quote(l.Path))
			writeImage(p, l)
		}
		p.close()
	}

	p.line(0, "}")
	if p.err != nil {
		return fmt.Errorf("写入模板失败: %w", p.err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("写入模板失败: %w", err)
	}
	return nil
}

func writeText(p *printer, l layer.Layer) {
	p.kv("source", l.Source.String())
	p.kv("font", strconv.Quote(l.Font))
	p.kv("size", strconv.FormatFloat(l.Size, 'f', -1, 64))
	p.kv("color", l.Color.Hex())
	p.kv("align", l.Align.String())
	p.kv("max-chars", strconv.Itoa(l.MaxChars))
	p.kv("wrap", strconv.FormatBool(l.WordWrap))
	p.kv("bold", strconv.FormatBool(l.Bold))
	p.kv("italic", strconv.FormatBool(l.Italic))
	p.kv("underline", strconv.FormatBool(l.Underline))
	if l.Prefix != "" {
		p.kv("prefix", strconv.Quote(l.Prefix))
	}
	if l.Suffix != "" {
		p.kv("suffix", strconv.Quote(l.Suffix))
	}
	p.kv("display-name", strconv.FormatBool(l.UseDisplayName))
}

func writeImage(p *printer, l layer.Layer) {
	p.kv("mirror", strconv.FormatBool(l.Mirror))
	p.kv("rotate", strconv.Itoa(l.Rotation))
	p.kv("stretch", strconv.FormatBool(l.Stretch))
	p.kv("trim", strconv.FormatBool(l.Trim))
	p.kv("fallback-text", strconv.FormatBool(l.FallbackText))
}

// printer 记录第一次写入错误，后续写入直接忽略。
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(indent int, format string, args ...any) {
	if p.err != nil {
		return
	}
	for i := 0; i < indent; i++ {
		if _, p.err = io.WriteString(p.w, "  "); p.err != nil {
			return
		}
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *printer) open(header string) {
	p.line(1, "%s {", header)
}

func (p *printer) kv(key, value string) {
	p.line(2, "%s: %s", key, value)
}

func (p *printer) close() {
	p.line(1, "}")
}

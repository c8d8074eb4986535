package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/Balrog57/xml2png/fonts"
)

const (
	borderWidth = 0.2
	// 标题与说明的字号（pt）
	titleSize   = 8.0
	captionSize = 6.5
	headerSize  = 12.0
)

// Item is one cell of the proof sheet. Image may be nil for entries that
// failed to render; the cell then shows only its captions.
type Item struct {
	Title   string
	Caption string
	Image   image.Image
}

// Options configures page geometry in millimetres.
type Options struct {
	Title      string
	PageWidth  float64
	PageHeight float64
	Margin     float64
	Gap        float64
	Columns    int
	// ThumbRatio 缩略图区域的高宽比，默认 0.75。
	ThumbRatio float64
}

func (o Options) withDefaults() Options {
	if o.PageWidth <= 0 || o.PageHeight <= 0 {
		o.PageWidth, o.PageHeight = 210, 297 // A4
	}
	if o.Margin <= 0 {
		o.Margin = 10
	}
	if o.Gap <= 0 {
		o.Gap = 4
	}
	if o.Columns <= 0 {
		o.Columns = 3
	}
	if o.ThumbRatio <= 0 {
		o.ThumbRatio = 0.75
	}
	return o
}

// Grid is the computed cell layout of a page.
type Grid struct {
	CellWidth   float64
	ThumbHeight float64
	CellHeight  float64
	Top         float64
	Columns     int
	Rows        int
}

// PerPage returns how many items fit on one page.
func (g Grid) PerPage() int { return g.Columns * g.Rows }

// Sheet renders batch results as a PDF contact sheet via github.com/tdewolff/canvas.
type Sheet struct {
	opts Options

	fontMu sync.Mutex
	family *canvas.FontFamily
}

// NewSheet creates a sheet renderer.
func NewSheet(opts Options) *Sheet {
	return &Sheet{opts: opts.withDefaults()}
}

// Grid computes the cell layout for the configured page.
func (s *Sheet) Grid() Grid {
	o := s.opts
	g := Grid{Columns: o.Columns}
	usable := o.PageWidth - 2*o.Margin - float64(o.Columns-1)*o.Gap
	g.CellWidth = math.Max(usable/float64(o.Columns), 1)
	g.ThumbHeight = g.CellWidth * o.ThumbRatio
	// 两行说明文字
	g.CellHeight = g.ThumbHeight + 2*lineAdvance(titleSize)
	g.Top = o.Margin
	if o.Title != "" {
		g.Top += lineAdvance(headerSize) + o.Gap
	}
	rows := (o.PageHeight - o.Margin - g.Top + o.Gap) / (g.CellHeight + o.Gap)
	g.Rows = int(math.Max(math.Floor(rows), 1))
	return g
}

// Render lays out items in catalog order and returns the PDF bytes.
func (s *Sheet) Render(items []Item) ([]byte, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("缺少可渲染的条目")
	}
	family, err := s.fontFamily()
	if err != nil {
		return nil, err
	}

	o := s.opts
	grid := s.Grid()
	pages := (len(items) + grid.PerPage() - 1) / grid.PerPage()

	var buf bytes.Buffer
	writer := pdf.New(&buf, o.PageWidth, o.PageHeight, nil)
	writer.SetInfo(o.Title, "", "", "", "xml2png")
	for p := 0; p < pages; p++ {
		if p > 0 {
			writer.NewPage(o.PageWidth, o.PageHeight)
		}
		c := canvas.New(o.PageWidth, o.PageHeight)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV) // 左上角为原点

		if o.Title != "" {
			face := family.Face(headerSize, canvas.Black, canvas.FontBold, canvas.FontNormal)
			header := fmt.Sprintf("%s  (%d/%d)", o.Title, p+1, pages)
			ctx.DrawText(o.Margin, o.Margin+face.Metrics().Ascent, canvas.NewTextLine(face, header, canvas.Left))
		}

		start := p * grid.PerPage()
		end := min(start+grid.PerPage(), len(items))
		for i, item := range items[start:end] {
			col, row := i%grid.Columns, i/grid.Columns
			x := o.Margin + float64(col)*(grid.CellWidth+o.Gap)
			y := grid.Top + float64(row)*(grid.CellHeight+o.Gap)
			s.drawCell(ctx, family, grid, x, y, item)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile renders items to path, creating the parent directory.
func (s *Sheet) WriteFile(path string, items []Item) error {
	data, err := s.Render(items)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入 PDF 文件失败: %w", err)
	}
	return nil
}

func (s *Sheet) drawCell(ctx *canvas.Context, family *canvas.FontFamily, grid Grid, x, y float64, item Item) {
	// 缩略图区域边框，透明图片也能看出范围
	ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeColor(canvas.Hex("#bbbbbb"))
	ctx.SetStrokeWidth(borderWidth)
	ctx.DrawPath(x, y, canvas.Rectangle(grid.CellWidth, grid.ThumbHeight))

	if item.Image != nil && !item.Image.Bounds().Empty() {
		w, _, ox, oy := fitBox(item.Image.Bounds().Dx(), item.Image.Bounds().Dy(), grid.CellWidth, grid.ThumbHeight)
		dpmm := float64(item.Image.Bounds().Dx()) / w
		ctx.DrawImage(x+ox, y+oy, item.Image, canvas.DPMM(dpmm))
	}

	cursor := y + grid.ThumbHeight
	titleFace := family.Face(titleSize, canvas.Black, canvas.FontBold, canvas.FontNormal)
	cursor += lineAdvance(titleSize)
	ctx.DrawText(x, cursor-descent(titleSize), canvas.NewTextLine(titleFace, fitText(titleFace, item.Title, grid.CellWidth), canvas.Left))

	if item.Caption != "" {
		capFace := family.Face(captionSize, canvas.Hex("#aa3333"), canvas.FontRegular, canvas.FontNormal)
		cursor += lineAdvance(titleSize)
		ctx.DrawText(x, cursor-descent(titleSize), canvas.NewTextLine(capFace, fitText(capFace, item.Caption, grid.CellWidth), canvas.Left))
	}
}

// fitBox scales a w×h pixel image into a boxW×boxH millimetre box keeping the
// aspect ratio, and returns the drawn size and the centring offsets.
func fitBox(w, h int, boxW, boxH float64) (dw, dh, ox, oy float64) {
	scale := math.Min(boxW/float64(w), boxH/float64(h))
	dw, dh = float64(w)*scale, float64(h)*scale
	return dw, dh, (boxW - dw) / 2, (boxH - dh) / 2
}

// fitText 超出宽度时按字符截断并追加省略号。
func fitText(face *canvas.FontFace, s string, width float64) string {
	if s == "" || face.TextWidth(s) <= width {
		return s
	}
	runes := []rune(s)
	for n := len(runes) - 1; n > 0; n-- {
		candidate := string(runes[:n]) + "..."
		if face.TextWidth(candidate) <= width {
			return candidate
		}
	}
	return "..."
}

func (s *Sheet) fontFamily() (*canvas.FontFamily, error) {
	s.fontMu.Lock()
	defer s.fontMu.Unlock()
	if s.family != nil {
		return s.family, nil
	}

	family := canvas.NewFontFamily("xml2png")
	styles := []struct {
		name  string
		style canvas.FontStyle
	}{
		{"go-regular", canvas.FontRegular},
		{"go-bold", canvas.FontBold},
	}
	for _, st := range styles {
		data, err := fonts.Load(st.name)
		if err != nil {
			return nil, err
		}
		if err := family.LoadFont(data, 0, st.style); err != nil {
			return nil, fmt.Errorf("加载字体 %s 失败: %w", st.name, err)
		}
	}
	s.family = family
	return family, nil
}

// lineAdvance 返回给定字号（pt）的行距（mm）。
func lineAdvance(sizePt float64) float64 { return sizePt * 1.3 * ptToMm }

func descent(sizePt float64) float64 { return sizePt * 0.3 * ptToMm }

const ptToMm = 25.4 / 72

package rasterrenderer

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/Balrog57/xml2png/fonts"
	"github.com/Balrog57/xml2png/layer"
	"github.com/Balrog57/xml2png/layout"
	"github.com/Balrog57/xml2png/renderer"
	"github.com/Balrog57/xml2png/transform"
)

// 背景无法提供尺寸时的默认画布大小。
const (
	DefaultWidth  = 1024
	DefaultHeight = 768
)

// folderExtensions 是文件夹图层按顺序尝试的扩展名。
var folderExtensions = []string{".png", ".jpg"}

// Compositor draws layers onto an RGBA canvas. It keeps no state between
// calls besides the injected font resolver and is safe for concurrent use.
type Compositor struct {
	fonts *fonts.Resolver
}

var _ renderer.Renderer = (*Compositor)(nil)

// New creates a compositor that resolves fonts through resolver.
func New(resolver *fonts.Resolver) *Compositor {
	if resolver == nil {
		resolver = fonts.NewResolver(fonts.Options{})
	}
	return &Compositor{fonts: resolver}
}

// Composite renders one entry. entry may be nil, in which case text layers
// show placeholder values and folder layers are skipped. Only structural
// problems are returned as errors; asset problems are recorded in Result.Skips.
func (c *Compositor) Composite(entry *layer.Entry, layers []layer.Layer, opts renderer.Options) (*renderer.Result, error) {
	if err := layer.Validate(layers); err != nil {
		return nil, err
	}
	bg := layers[0]
	bgPath := bg.Path
	if opts.Background != "" {
		bgPath = opts.Background
	}

	// 背景即使被隐藏也要读取，用来决定画布尺寸
	var bgImg image.Image
	var bgErr error
	if bgPath != "" {
		if err := checkImageSize(bgPath); err != nil {
			return nil, err
		}
		bgImg, bgErr = imaging.Open(bgPath)
	}

	width, height := DefaultWidth, DefaultHeight
	if bgImg != nil {
		width, height = bgImg.Bounds().Dx(), bgImg.Bounds().Dy()
	}
	if opts.Size != nil {
		width, height = opts.Size.X, opts.Size.Y
	}
	if !validSize(width, height) {
		if opts.Size != nil {
			return nil, fmt.Errorf("%w: %dx%d", renderer.ErrInvalidSize, width, height)
		}
		return nil, fmt.Errorf("%w: 背景 %s 尺寸为 %dx%d", renderer.ErrInvalidSize, bgPath, width, height)
	}

	res := &renderer.Result{Canvas: image.NewRGBA(image.Rect(0, 0, width, height))}
	if bg.Drawable() {
		switch {
		case bgPath == "":
			res.Skips = append(res.Skips, renderer.Skip{Layer: 0, Name: bg.Name, Reason: renderer.SkipNoSource})
		case bgImg == nil:
			res.Skips = append(res.Skips, assetSkip(0, bg.Name, bgErr))
		default:
			c.drawBackground(res.Canvas, bgImg)
		}
	}

	for i := 1; i < len(layers); i++ {
		l := layers[i]
		if !l.Drawable() {
			continue
		}
		var skip *renderer.Skip
		switch l.Kind {
		case layer.KindText:
			skip = c.drawText(res, i, l, entry)
		case layer.KindStaticImage:
			skip = c.drawStatic(res.Canvas, i, l)
		case layer.KindFolderImage:
			skip = c.drawFolder(res.Canvas, i, l, entry)
		}
		// FallbackText 目前不改变行为：缺图时图层保持空白
		if skip != nil {
			res.Skips = append(res.Skips, *skip)
		}
	}
	return res, nil
}

func validSize(w, h int) bool {
	return w > 0 && h > 0 && w <= renderer.MaxDimension && h <= renderer.MaxDimension
}

// checkImageSize reads only the image header so an oversized background is
// rejected before its pixels are decoded. Unreadable files are left for
// imaging.Open to report.
func checkImageSize(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil
	}
	if !validSize(cfg.Width, cfg.Height) {
		return fmt.Errorf("%w: 背景 %s 尺寸为 %dx%d", renderer.ErrInvalidSize, path, cfg.Width, cfg.Height)
	}
	return nil
}

func (c *Compositor) drawBackground(canvas *image.RGBA, bgImg image.Image) {
	size := canvas.Bounds().Size()
	var img *image.NRGBA
	if bgImg.Bounds().Size() != size {
		img = imaging.Resize(bgImg, size.X, size.Y, imaging.Lanczos)
	} else {
		img = imaging.Clone(bgImg)
	}
	transform.Blend(canvas, transform.Placement{Image: img})
}

func (c *Compositor) drawText(res *renderer.Result, index int, l layer.Layer, entry *layer.Entry) *renderer.Skip {
	text := layout.Truncate(l.Text(entry), l.MaxChars)
	if text == "" {
		return &renderer.Skip{Layer: index, Name: l.Name, Reason: renderer.SkipEmptyText}
	}

	face := c.fonts.Resolve(l.Font, l.Size, l.Bold, l.Italic).NewFace()
	defer face.Close()

	box := layout.Box{X: l.X, Y: l.Y, Width: l.Width, Height: l.Height}
	lines := layout.Lines(text, box, face, l.Align, l.WordWrap)

	src := image.NewUniform(color.NRGBA{R: l.Color.R, G: l.Color.G, B: l.Color.B, A: l.Color.A})
	drawer := font.Drawer{Dst: res.Canvas, Src: src, Face: face}
	for _, ln := range lines {
		drawer.Dot = fixed.Point26_6{
			X: fixed.Int26_6(math.Round(ln.X * 64)),
			Y: fixed.I(ln.Baseline),
		}
		drawer.DrawString(ln.Content)
		if l.Underline {
			underline(res.Canvas, ln, src)
		}
	}
	res.Text = append(res.Text, layout.Block{Layer: index, Name: l.Name, Text: text, Lines: lines})
	return nil
}

// underline 在基线处画一条 1 像素高、与行宽相同的线。
func underline(canvas *image.RGBA, ln layout.Line, src image.Image) {
	x0 := int(math.Round(ln.X))
	x1 := int(math.Round(ln.X + ln.Width))
	if x1 <= x0 {
		return
	}
	rect := image.Rect(x0, ln.Baseline, x1, ln.Baseline+1)
	xdraw.Draw(canvas, rect, src, image.Point{}, xdraw.Over)
}

func (c *Compositor) drawStatic(canvas *image.RGBA, index int, l layer.Layer) *renderer.Skip {
	if l.Path == "" {
		return &renderer.Skip{Layer: index, Name: l.Name, Reason: renderer.SkipNoSource}
	}
	return c.drawImage(canvas, index, l, l.Path)
}

func (c *Compositor) drawFolder(canvas *image.RGBA, index int, l layer.Layer, entry *layer.Entry) *renderer.Skip {
	if entry == nil {
		return &renderer.Skip{Layer: index, Name: l.Name, Reason: renderer.SkipNoEntry}
	}
	if l.Path == "" {
		return &renderer.Skip{Layer: index, Name: l.Name, Reason: renderer.SkipNoSource}
	}
	path, ok := FolderAsset(l.Path, entry.Key)
	if !ok {
		err := fmt.Errorf("%s 中没有 %s.png 或 %s.jpg: %w", l.Path, entry.Key, entry.Key, fs.ErrNotExist)
		return &renderer.Skip{Layer: index, Name: l.Name, Reason: renderer.SkipMissingAsset, Err: err}
	}
	return c.drawImage(canvas, index, l, path)
}

func (c *Compositor) drawImage(canvas *image.RGBA, index int, l layer.Layer, path string) *renderer.Skip {
	img, err := imaging.Open(path)
	if err != nil {
		s := assetSkip(index, l.Name, err)
		return &s
	}
	transform.Blend(canvas, transform.Apply(img, transform.FromLayer(l)))
	return nil
}

// FolderAsset resolves {dir}/{key}.png, falling back to {dir}/{key}.jpg.
func FolderAsset(dir, key string) (string, bool) {
	if key == "" {
		return "", false
	}
	for _, ext := range folderExtensions {
		path := filepath.Join(dir, key+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func assetSkip(index int, name string, err error) renderer.Skip {
	reason := renderer.SkipUndecodable
	if errors.Is(err, fs.ErrNotExist) {
		reason = renderer.SkipMissingAsset
	}
	return renderer.Skip{Layer: index, Name: name, Reason: reason, Err: err}
}

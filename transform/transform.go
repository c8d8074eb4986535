// Package transform prepares a decoded image for blending onto a canvas:
// optional border trim, mirror, clockwise rotation, then sizing.
package transform

import (
	"image"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/nxshock/colorcrop"
	xdraw "golang.org/x/image/draw"

	"github.com/Balrog57/xml2png/layer"
)

// trimThreshold 是裁边时允许的颜色差（0-1）。
const trimThreshold = 0.1

// Options 是变换所需的图层参数。
type Options struct {
	X, Y          int
	Width, Height int
	Mirror        bool
	Rotation      int
	Stretch       bool
	Trim          bool
}

// FromLayer extracts the transform options of an image layer.
func FromLayer(l layer.Layer) Options {
	return Options{
		X:        l.X,
		Y:        l.Y,
		Width:    l.Width,
		Height:   l.Height,
		Mirror:   l.Mirror,
		Rotation: l.Rotation,
		Stretch:  l.Stretch,
		Trim:     l.Trim,
	}
}

// Placement is a transformed image and the canvas point of its top-left corner.
type Placement struct {
	Image *image.NRGBA
	At    image.Point
}

// Bounds returns the canvas rectangle covered by the placement.
func (p Placement) Bounds() image.Rectangle {
	if p.Image == nil {
		return image.Rectangle{}
	}
	return image.Rectangle{Min: p.At, Max: p.At.Add(p.Image.Bounds().Size())}
}

// Apply runs the fixed pipeline: trim (if enabled), mirror, rotate, size.
func Apply(src image.Image, opts Options) Placement {
	var img image.Image = src
	if opts.Trim {
		img = Trim(img)
	}
	out := imaging.Clone(img)
	if opts.Mirror {
		out = imaging.FlipH(out)
	}
	out = Rotate(out, opts.Rotation)

	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	switch {
	case opts.Width <= 0 || opts.Height <= 0 || w == 0 || h == 0:
		// 无约束：原尺寸放在 (x, y)
		return Placement{Image: out, At: image.Pt(opts.X, opts.Y)}
	case opts.Stretch:
		return Placement{Image: resize(out, opts.Width, opts.Height), At: image.Pt(opts.X, opts.Y)}
	default:
		tw, th := Fit(w, h, opts.Width, opts.Height)
		offX := (opts.Width - tw) / 2
		offY := (opts.Height - th) / 2
		return Placement{Image: resize(out, tw, th), At: image.Pt(opts.X+offX, opts.Y+offY)}
	}
}

// NormalizeRotation 将角度归一到 {0, 90, 180, 270}，其他角度视为 0。
func NormalizeRotation(deg int) int {
	deg %= 360
	if deg < 0 {
		deg += 360
	}
	switch deg {
	case 90, 180, 270:
		return deg
	default:
		return 0
	}
}

// Rotate rotates clockwise by deg. imaging rotates counter-clockwise, so a
// clockwise quarter turn is imaging.Rotate270.
func Rotate(img *image.NRGBA, deg int) *image.NRGBA {
	switch NormalizeRotation(deg) {
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// Fit returns the size of a w x h image scaled uniformly to fit in boxW x boxH.
// 受限的那一边恰好等于盒子尺寸，另一边向下取整，最小为 1。
func Fit(w, h, boxW, boxH int) (int, int) {
	var tw, th int
	if boxW*h <= boxH*w {
		tw = boxW
		th = h * boxW / w
	} else {
		th = boxH
		tw = w * boxH / h
	}
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	return tw, th
}

// Trim 以左上角像素颜色为边框色裁掉四周的纯色边。
func Trim(img image.Image) image.Image {
	b := img.Bounds()
	if b.Empty() {
		return img
	}
	return colorcrop.Crop(img, img.At(b.Min.X, b.Min.Y), trimThreshold)
}

// Blend composites p onto dst with source-over, honouring the source alpha.
func Blend(dst draw.Image, p Placement) {
	if p.Image == nil {
		return
	}
	xdraw.Draw(dst, p.Bounds(), p.Image, p.Image.Bounds().Min, xdraw.Over)
}

func resize(img *image.NRGBA, w, h int) *image.NRGBA {
	if img.Bounds().Dx() == w && img.Bounds().Dy() == h {
		return img
	}
	return imaging.Resize(img, w, h, imaging.Lanczos)
}

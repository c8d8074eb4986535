package transform

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
)

var (
	red   = color.NRGBA{R: 255, A: 255}
	green = color.NRGBA{G: 255, A: 255}
	blue  = color.NRGBA{B: 255, A: 255}
	white = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
)

// asymmetric 返回一个 3x2 的非对称测试图：每个像素颜色不同。
func asymmetric() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	palette := []color.NRGBA{red, green, blue, white, {A: 255}, {R: 128, G: 64, A: 255}}
	for i, c := range palette {
		img.SetNRGBA(i%3, i/3, c)
	}
	return img
}

func TestRotateIsClockwise(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, red)
	img.SetNRGBA(1, 0, blue)

	out := Rotate(img, 90)
	if out.Bounds().Dx() != 1 || out.Bounds().Dy() != 2 {
		t.Fatalf("90° must transpose the size, got %v", out.Bounds())
	}
	if out.NRGBAAt(0, 0) != red || out.NRGBAAt(0, 1) != blue {
		t.Fatalf("clockwise rotation must move the left pixel to the top")
	}
	if got := Rotate(img, 270); got.NRGBAAt(0, 0) != blue {
		t.Fatalf("270° clockwise must move the right pixel to the top")
	}
}

func TestNormalizeRotation(t *testing.T) {
	cases := map[int]int{0: 0, 90: 90, 180: 180, 270: 270, 360: 0, 450: 90, -90: 270, 45: 0}
	for in, want := range cases {
		if got := NormalizeRotation(in); got != want {
			t.Fatalf("NormalizeRotation(%d) = %d want %d", in, got, want)
		}
	}
}

func TestMirrorThenRotate(t *testing.T) {
	src := asymmetric()
	p := Apply(src, Options{Mirror: true, Rotation: 90})

	want := imaging.Rotate270(imaging.FlipH(src))
	other := imaging.FlipH(imaging.Rotate270(src))
	if !bytes.Equal(p.Image.Pix, want.Pix) {
		t.Fatalf("result must equal mirror followed by rotation")
	}
	if bytes.Equal(p.Image.Pix, other.Pix) {
		t.Fatalf("result must differ from rotation followed by mirror")
	}
	if p.Image.Bounds().Dx() != 2 || p.Image.Bounds().Dy() != 3 {
		t.Fatalf("unexpected rotated size %v", p.Image.Bounds())
	}
}

func TestNaturalSizeWhenUnconstrained(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 37, 21))
	for _, opts := range []Options{
		{X: 5, Y: 7},
		{X: 5, Y: 7, Width: 100},
		{X: 5, Y: 7, Height: 100, Stretch: true},
		{X: 5, Y: 7, Width: -1, Height: 50},
	} {
		p := Apply(src, opts)
		if p.Image.Bounds().Dx() != 37 || p.Image.Bounds().Dy() != 21 {
			t.Fatalf("%+v: expected native size, got %v", opts, p.Image.Bounds())
		}
		if p.At != image.Pt(5, 7) {
			t.Fatalf("%+v: expected placement at (5,7), got %v", opts, p.At)
		}
	}
}

func TestStretchExact(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 40, 10))
	for _, box := range [][2]int{{100, 100}, {13, 77}, {1, 1}, {40, 10}} {
		p := Apply(src, Options{X: 3, Y: 4, Width: box[0], Height: box[1], Stretch: true})
		if p.Image.Bounds().Dx() != box[0] || p.Image.Bounds().Dy() != box[1] {
			t.Fatalf("stretch to %v gave %v", box, p.Image.Bounds())
		}
		if p.At != image.Pt(3, 4) {
			t.Fatalf("stretch must place at (x, y), got %v", p.At)
		}
	}
}

func TestAspectFitBound(t *testing.T) {
	cases := []struct{ w, h, boxW, boxH int }{
		{40, 10, 100, 100},
		{10, 40, 100, 100},
		{300, 7, 300, 50},
		{7, 300, 299, 301},
		{640, 480, 320, 320},
		{50, 50, 50, 50},
	}
	for _, tc := range cases {
		tw, th := Fit(tc.w, tc.h, tc.boxW, tc.boxH)
		if tw > tc.boxW || th > tc.boxH {
			t.Fatalf("%+v: %dx%d exceeds the box", tc, tw, th)
		}
		if tw != tc.boxW && th != tc.boxH {
			t.Fatalf("%+v: %dx%d touches neither box side", tc, tw, th)
		}
	}
}

func TestAspectFitCenters(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 40, 10))
	p := Apply(src, Options{X: 10, Y: 20, Width: 100, Height: 100})
	if p.Image.Bounds().Dx() != 100 || p.Image.Bounds().Dy() != 25 {
		t.Fatalf("unexpected fitted size %v", p.Image.Bounds())
	}
	if p.At != image.Pt(10, 20+(100-25)/2) {
		t.Fatalf("unexpected centred placement %v", p.At)
	}
}

func TestBlendOver(t *testing.T) {
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	src.SetNRGBA(0, 0, red)
	src.SetNRGBA(1, 0, color.NRGBA{B: 255, A: 128})
	Blend(dst, Placement{Image: src, At: image.Pt(1, 1)})

	if got := dst.RGBAAt(1, 1); got != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("opaque source must replace destination, got %v", got)
	}
	if got := dst.RGBAAt(2, 1); got.A != 128 || got.B != 128 {
		t.Fatalf("half transparent source over transparent must keep its alpha, got %v", got)
	}
	if got := dst.RGBAAt(1, 2); got != (color.RGBA{}) {
		t.Fatalf("transparent source must leave destination untouched, got %v", got)
	}
	if got := dst.RGBAAt(0, 0); got != (color.RGBA{}) {
		t.Fatalf("pixel outside placement changed: %v", got)
	}
}

func TestTrimBorder(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.SetNRGBA(x, y, white)
		}
	}
	for y := 3; y < 7; y++ {
		for x := 2; x < 8; x++ {
			img.SetNRGBA(x, y, red)
		}
	}
	out := Trim(img)
	if out.Bounds().Dx() >= 10 || out.Bounds().Dy() >= 10 {
		t.Fatalf("expected the white border to be trimmed, got %v", out.Bounds())
	}
}

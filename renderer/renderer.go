package renderer

import (
	"errors"
	"fmt"
	"image"

	"github.com/Balrog57/xml2png/layer"
	"github.com/Balrog57/xml2png/layout"
)

// MaxDimension 是画布每条边允许的最大像素数。
const MaxDimension = 16384

// ErrInvalidSize 表示画布尺寸不合法：非正数或超过 MaxDimension。
var ErrInvalidSize = errors.New("输出尺寸不合法")

// Renderer 将一个条目与图层配置合成为栅格图像。
// 同一 Renderer 的多次调用互不依赖，可以并发执行。
type Renderer interface {
	Composite(entry *layer.Entry, layers []layer.Layer, opts Options) (*Result, error)
}

// Options 是单次合成的可选参数。
type Options struct {
	// Background 非空时替代背景图层的图片路径（同时用于尺寸与绘制）。
	Background string
	// Size 非空时强制画布尺寸，背景图会被缩放到该尺寸。
	Size *image.Point
}

// SkipReason enumerates why a layer contributed no pixels.
type SkipReason int

const (
	SkipEmptyText SkipReason = iota + 1
	SkipNoSource
	SkipMissingAsset
	SkipUndecodable
	SkipNoEntry
)

func (r SkipReason) String() string {
	switch r {
	case SkipEmptyText:
		return "empty-text"
	case SkipNoSource:
		return "no-source"
	case SkipMissingAsset:
		return "missing-asset"
	case SkipUndecodable:
		return "undecodable"
	case SkipNoEntry:
		return "no-entry"
	default:
		return fmt.Sprintf("skip(%d)", int(r))
	}
}

// Skip records a layer that was enabled and visible but drew nothing.
type Skip struct {
	Layer  int
	Name   string
	Reason SkipReason
	Err    error
}

func (s Skip) Error() string {
	if s.Err != nil {
		return fmt.Sprintf("图层 %d (%s) 已跳过: %s: %v", s.Layer, s.Name, s.Reason, s.Err)
	}
	return fmt.Sprintf("图层 %d (%s) 已跳过: %s", s.Layer, s.Name, s.Reason)
}

func (s Skip) Unwrap() error { return s.Err }

// Result 是一次合成的输出：画布、文本排版结果与被跳过的图层。
type Result struct {
	Canvas *image.RGBA
	Text   []layout.Block
	Skips  []Skip
}

// Skipped reports the skip reason recorded for layer index i, if any.
func (r *Result) Skipped(i int) (SkipReason, bool) {
	if r == nil {
		return 0, false
	}
	for _, s := range r.Skips {
		if s.Layer == i {
			return s.Reason, true
		}
	}
	return 0, false
}

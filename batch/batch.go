// Package batch renders a whole catalog with a bounded worker pool.
package batch

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync/atomic"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/Balrog57/xml2png/binding"
	"github.com/Balrog57/xml2png/layer"
	"github.com/Balrog57/xml2png/layout"
	"github.com/Balrog57/xml2png/renderer"
)

// ErrNoEntries 表示目录中没有可渲染的条目。
var ErrNoEntries = errors.New("没有可渲染的条目")

// Job describes one batch run.
type Job struct {
	Entries []layer.Entry
	Layers  []layer.Layer
	Options renderer.Options

	OutputDir string
	// Pattern 输出文件名模板，见 binding.OutputName。
	Pattern string
	// Workers 并发数，<=0 时使用 CPU 数。
	Workers int
	// Thumbnail >0 时为每个成功的条目保留一张不超过该边长的缩略图。
	Thumbnail int
	// DebugDir 非空时为每个条目写出 {name}.json 排版调试文件。
	DebugDir string
	// Progress 在每个条目结束后调用，可能来自多个 goroutine。
	Progress func(done, total int)
}

// Item is the outcome for one entry, in catalog order.
type Item struct {
	Entry layer.Entry
	Path  string
	Skips []renderer.Skip
	Thumb image.Image
	Err   error
}

// Report summarises a run.
type Report struct {
	Items   []Item
	Written int
	Failed  int
}

// Run composites every entry and writes {OutputDir}/{name}.png. A failing
// entry is logged and recorded in its Item without stopping the others.
// Cancelling ctx stops the run before the next entry starts; entries already
// in flight finish and Run returns the partial report with ctx.Err().
func Run(ctx context.Context, r renderer.Renderer, job Job) (*Report, error) {
	if r == nil {
		return nil, fmt.Errorf("renderer 不能为空")
	}
	if len(job.Entries) == 0 {
		return nil, ErrNoEntries
	}
	if err := layer.Validate(job.Layers); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(job.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("创建输出目录失败: %w", err)
	}
	if job.DebugDir != "" {
		if err := os.MkdirAll(job.DebugDir, 0o755); err != nil {
			return nil, fmt.Errorf("创建调试目录失败: %w", err)
		}
	}

	workers := job.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	names := OutputNames(job.Pattern, job.Entries)
	report := &Report{Items: make([]Item, len(job.Entries))}
	total := len(job.Entries)
	var done atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i := range job.Entries {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// 排队期间可能已被取消
			if ctx.Err() != nil {
				return nil
			}
			item := &report.Items[i]
			item.Entry = job.Entries[i]
			item.Path = filepath.Join(job.OutputDir, names[i]+".png")
			item.Skips, item.Thumb, item.Err = renderOne(r, item.Entry, names[i], job)
			if item.Err != nil {
				log.Printf("条目 %s 生成失败: %v", item.Entry.Key, item.Err)
			}
			if job.Progress != nil {
				job.Progress(int(done.Add(1)), total)
			}
			return nil
		})
	}
	_ = g.Wait()

	for i := range report.Items {
		switch {
		case report.Items[i].Err != nil:
			report.Failed++
		case report.Items[i].Path != "":
			report.Written++
		}
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func renderOne(r renderer.Renderer, entry layer.Entry, name string, job Job) ([]renderer.Skip, image.Image, error) {
	res, err := r.Composite(&entry, job.Layers, job.Options)
	if err != nil {
		return nil, nil, fmt.Errorf("合成失败: %w", err)
	}
	if job.DebugDir != "" {
		if err := layout.WriteDebugJSON(res.Text, filepath.Join(job.DebugDir, name+".json")); err != nil {
			log.Printf("条目 %s 输出调试 JSON 失败: %v", entry.Key, err)
		}
	}
	path := filepath.Join(job.OutputDir, name+".png")
	if err := imaging.Save(res.Canvas, path); err != nil {
		return res.Skips, nil, fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	var thumb image.Image
	if job.Thumbnail > 0 {
		thumb = imaging.Fit(res.Canvas, job.Thumbnail, job.Thumbnail, imaging.Lanczos)
	}
	return res.Skips, thumb, nil
}

// OutputNames expands pattern for every entry. Names that collide with an
// earlier entry get a numeric suffix so no output is silently overwritten.
func OutputNames(pattern string, entries []layer.Entry) []string {
	names := make([]string, len(entries))
	used := make(map[string]int, len(entries))
	for i, e := range entries {
		name := binding.OutputName(pattern, e)
		if n := used[name]; n > 0 {
			candidate := name + "_" + strconv.Itoa(n+1)
			for used[candidate] > 0 {
				n++
				candidate = name + "_" + strconv.Itoa(n+1)
			}
			used[name] = n + 1
			name = candidate
		}
		used[name]++
		names[i] = name
	}
	return names
}

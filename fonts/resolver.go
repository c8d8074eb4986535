package fonts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/sync/singleflight"
)

// DefaultSize is used when a request carries a non-positive size.
const DefaultSize = 24

// Key 是字体缓存键。
type Key struct {
	Family string
	Size   float64
	Bold   bool
	Italic bool
}

func (k Key) String() string {
	return fmt.Sprintf("%s|%g|%t|%t", k.Family, k.Size, k.Bold, k.Italic)
}

// Handle is a resolved, cached font at a fixed size.
type Handle struct {
	Key    Key
	Origin string // 文件路径或 embed:* 名称

	font *opentype.Font
}

// NewFace creates a face for drawing and measuring. opentype faces are not
// safe for concurrent use, so every render asks for its own face. The result
// is never nil: if the parsed font cannot produce a face the fixed 7x13
// bitmap face is returned.
func (h *Handle) NewFace() font.Face {
	if h == nil || h.font == nil {
		return basicfont.Face7x13
	}
	face, err := opentype.NewFace(h.font, &opentype.FaceOptions{
		Size:    h.Key.Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return basicfont.Face7x13
	}
	return face
}

// Options configures a Resolver.
type Options struct {
	// Locator 是平台查找策略，为空时使用 PlatformLocator。
	Locator Locator
	// Dirs 用于静态族名表与按文件名直接加载，为空时使用 DefaultDirs。
	Dirs []string
}

// Resolver maps (family, size, bold, italic) to a usable Handle and caches
// the result for the lifetime of the resolver. It is safe for concurrent use.
type Resolver struct {
	locator Locator
	dirs    []string

	mu    sync.RWMutex
	cache map[Key]*Handle
	group singleflight.Group
	loads atomic.Int64
}

// NewResolver creates a resolver; the zero Options use the platform defaults.
func NewResolver(opts Options) *Resolver {
	if opts.Locator == nil {
		opts.Locator = PlatformLocator()
	}
	if opts.Dirs == nil {
		opts.Dirs = DefaultDirs()
	}
	return &Resolver{
		locator: opts.Locator,
		dirs:    opts.Dirs,
		cache:   map[Key]*Handle{},
	}
}

// Resolve never fails. Lookup order: locator, static family table, family as
// a file path, bundled Go font.
func (r *Resolver) Resolve(family string, size float64, bold, italic bool) *Handle {
	if size <= 0 {
		size = DefaultSize
	}
	key := Key{Family: family, Size: size, Bold: bold, Italic: italic}
	if h, ok := r.cached(key); ok {
		return h
	}
	v, _, _ := r.group.Do(key.String(), func() (interface{}, error) {
		// 上一个 Do 可能刚刚写入缓存
		if h, ok := r.cached(key); ok {
			return h, nil
		}
		h := r.load(key)
		r.mu.Lock()
		r.cache[key] = h
		r.mu.Unlock()
		return h, nil
	})
	return v.(*Handle)
}

// Loads reports how many cache misses actually loaded a font.
func (r *Resolver) Loads() int64 {
	return r.loads.Load()
}

func (r *Resolver) cached(key Key) (*Handle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.cache[key]
	return h, ok
}

func (r *Resolver) load(key Key) *Handle {
	r.loads.Add(1)
	for _, src := range r.candidates(key) {
		f, err := parseSource(src)
		if err != nil {
			continue
		}
		return &Handle{Key: key, Origin: src.Origin(), font: f}
	}
	name := bundledName(false, key.Bold, key.Italic)
	data, _ := Load(name)
	f, err := opentype.Parse(data)
	if err != nil {
		return &Handle{Key: key, Origin: "basicfont"}
	}
	return &Handle{Key: key, Origin: EmbedPrefix + name, font: f}
}

// candidates 按回退链顺序列出可尝试的字体来源（不含最终的内置字体）。
func (r *Resolver) candidates(key Key) []Source {
	var out []Source
	if r.locator != nil {
		if src, ok := r.locator.Locate(key.Family, key.Bold, key.Italic); ok {
			out = append(out, src)
		}
	}
	for _, name := range tableCandidates(key.Family, key.Bold, key.Italic) {
		for _, dir := range r.dirs {
			path := filepath.Join(dir, name)
			if fileExists(path) {
				out = append(out, Source{Path: path})
			}
		}
	}
	if family := strings.TrimSpace(key.Family); family != "" {
		if fileExists(family) {
			out = append(out, Source{Path: family})
		} else if !filepath.IsAbs(family) {
			for _, dir := range r.dirs {
				if path := filepath.Join(dir, family); fileExists(path) {
					out = append(out, Source{Path: path})
				}
			}
		}
	}
	return out
}

func parseSource(src Source) (*opentype.Font, error) {
	data := src.Data
	if data == nil {
		var err error
		if data, err = os.ReadFile(src.Path); err != nil {
			return nil, fmt.Errorf("读取字体 %s 失败: %w", src.Path, err)
		}
	}
	coll, err := opentype.ParseCollection(data)
	if err != nil {
		return nil, fmt.Errorf("解析字体 %s 失败: %w", src.Origin(), err)
	}
	if src.Index < 0 || src.Index >= coll.NumFonts() {
		return nil, fmt.Errorf("字体 %s 不含第 %d 个字面", src.Origin(), src.Index)
	}
	return coll.Font(src.Index)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

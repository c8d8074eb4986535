package fonts

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/image/font/sfnt"
)

// Source is where a font face can be loaded from: either raw bytes or a path.
// Index selects a face inside a collection (.ttc).
type Source struct {
	Path  string
	Data  []byte
	Index int
}

// Origin describes the source for diagnostics.
func (s Source) Origin() string {
	if s.Path != "" {
		return s.Path
	}
	return "bytes"
}

// Locator 是平台字体查找能力：family 大小写不敏感，bold/italic 必须精确匹配。
type Locator interface {
	Locate(family string, bold, italic bool) (Source, bool)
}

// Chain tries each locator in order.
type Chain []Locator

func (c Chain) Locate(family string, bold, italic bool) (Source, bool) {
	for _, l := range c {
		if l == nil {
			continue
		}
		if src, ok := l.Locate(family, bold, italic); ok {
			return src, true
		}
	}
	return Source{}, false
}

// BundledLocator serves the embedded Go fonts. Family "Go" and "Go Mono" are
// always matched; with MatchAll every family resolves to the Go faces, which
// gives a locator with no dependency on installed fonts.
type BundledLocator struct {
	MatchAll bool
}

func (b BundledLocator) Locate(family string, bold, italic bool) (Source, bool) {
	name := normalizeFamily(family)
	var mono bool
	switch name {
	case "go", "go regular":
	case "go mono":
		mono = true
	default:
		if !b.MatchAll {
			return Source{}, false
		}
	}
	key := bundledName(mono, bold, italic)
	data, err := Load(key)
	if err != nil {
		return Source{}, false
	}
	return Source{Path: EmbedPrefix + key, Data: data}, true
}

// DefaultDirs 返回当前平台常见的字体目录。
func DefaultDirs() []string {
	home, _ := os.UserHomeDir()
	var dirs []string
	switch runtime.GOOS {
	case "windows":
		winDir := os.Getenv("WINDIR")
		if winDir == "" {
			winDir = `C:\Windows`
		}
		dirs = append(dirs, filepath.Join(winDir, "Fonts"))
		if local := os.Getenv("LOCALAPPDATA"); local != "" {
			dirs = append(dirs, filepath.Join(local, "Microsoft", "Windows", "Fonts"))
		}
	case "darwin":
		dirs = append(dirs, "/System/Library/Fonts", "/Library/Fonts")
		if home != "" {
			dirs = append(dirs, filepath.Join(home, "Library", "Fonts"))
		}
	default:
		dirs = append(dirs, "/usr/share/fonts", "/usr/local/share/fonts")
		if home != "" {
			dirs = append(dirs, filepath.Join(home, ".fonts"), filepath.Join(home, ".local", "share", "fonts"))
		}
	}
	return dirs
}

type faceKey struct {
	family string
	bold   bool
	italic bool
}

// DirLocator scans font directories once and indexes faces by the family and
// subfamily names found in their sfnt name tables.
type DirLocator struct {
	Dirs []string

	once  sync.Once
	index map[faceKey]indexedFace
}

type indexedFace struct {
	src  Source
	rank int
}

// NewDirLocator creates a locator over dirs (DefaultDirs when empty).
func NewDirLocator(dirs ...string) *DirLocator {
	if len(dirs) == 0 {
		dirs = DefaultDirs()
	}
	return &DirLocator{Dirs: dirs}
}

func (d *DirLocator) Locate(family string, bold, italic bool) (Source, bool) {
	d.once.Do(d.scan)
	face, ok := d.index[faceKey{family: normalizeFamily(family), bold: bold, italic: italic}]
	return face.src, ok
}

func (d *DirLocator) scan() {
	d.index = map[faceKey]indexedFace{}
	var buf sfnt.Buffer
	for _, dir := range d.Dirs {
		// WalkDir 按字典序遍历，保证同名字体的选择是确定的
		_ = filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
			if err != nil || entry.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(path)) {
			case ".ttf", ".otf", ".ttc", ".otc":
			default:
				return nil
			}
			d.indexFile(path, &buf)
			return nil
		})
	}
}

func (d *DirLocator) indexFile(path string, buf *sfnt.Buffer) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return
	}
	for i := 0; i < coll.NumFonts(); i++ {
		f, err := coll.Font(i)
		if err != nil {
			continue
		}
		family := faceName(f, buf, sfnt.NameIDTypographicFamily, sfnt.NameIDFamily)
		subfamily := faceName(f, buf, sfnt.NameIDTypographicSubfamily, sfnt.NameIDSubfamily)
		d.add(family, subfamily, Source{Path: path, Index: i})
	}
}

// add indexes one face. For the same family and style a plain face
// ("Regular", "Bold Italic") replaces a weight or width variant such as
// "Black" or "Condensed"; otherwise the first face seen is kept.
func (d *DirLocator) add(family, subfamily string, src Source) {
	if strings.TrimSpace(family) == "" {
		return
	}
	bold, italic := styleFlags(subfamily)
	key := faceKey{family: normalizeFamily(family), bold: bold, italic: italic}
	rank := styleRank(subfamily)
	if prev, exists := d.index[key]; exists && prev.rank <= rank {
		return
	}
	d.index[key] = indexedFace{src: src, rank: rank}
}

func faceName(f *sfnt.Font, buf *sfnt.Buffer, ids ...sfnt.NameID) string {
	for _, id := range ids {
		if name, err := f.Name(buf, id); err == nil && strings.TrimSpace(name) != "" {
			return name
		}
	}
	return ""
}

// styleFlags 从子族名（例如 "Bold Italic"）推断粗体/斜体标记。
func styleFlags(subfamily string) (bold, italic bool) {
	s := strings.ToLower(subfamily)
	bold = strings.Contains(s, "bold")
	italic = strings.Contains(s, "italic") || strings.Contains(s, "oblique")
	return bold, italic
}

// plainStyleWords 是不改变字重与字宽的子族名词。
var plainStyleWords = map[string]bool{
	"regular": true, "book": true, "normal": true, "roman": true,
	"bold": true, "italic": true, "oblique": true,
}

// styleRank is 0 for a plain subfamily and 1 for any other weight or width
// variant ("Black", "Light", "SemiBold", "Condensed").
func styleRank(subfamily string) int {
	for _, w := range strings.Fields(strings.ToLower(subfamily)) {
		if !plainStyleWords[w] {
			return 1
		}
	}
	return 0
}

func normalizeFamily(family string) string {
	return strings.Join(strings.Fields(strings.ToLower(family)), " ")
}

// Package catalog reads EmulationStation gamelists and HyperSpin menu
// databases into layer entries.
package catalog

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Balrog57/xml2png/layer"
)

var (
	// ErrInvalidXML 表示文件不是格式正确的 XML。
	ErrInvalidXML = errors.New("XML 格式错误")
	// ErrUnknownFormat 表示根元素既不是 gameList 也不是 menu。
	ErrUnknownFormat = errors.New("未知的目录格式")
)

// Format identifies the catalog dialect by its root element.
type Format string

const (
	FormatGameList Format = "gameList" // EmulationStation
	FormatMenu     Format = "menu"     // HyperSpin
)

type gameList struct {
	Games []esGame `xml:"game"`
}

type esGame struct {
	Path        string `xml:"path"`
	Name        string `xml:"name"`
	Desc        string `xml:"desc"`
	ReleaseDate string `xml:"releasedate"`
	Genre       string `xml:"genre"`
	Developer   string `xml:"developer"`
	Publisher   string `xml:"publisher"`
}

type menu struct {
	Games []hsGame `xml:"game"`
}

type hsGame struct {
	Name         string `xml:"name,attr"`
	Description  string `xml:"description"`
	Year         string `xml:"year"`
	Genre        string `xml:"genre"`
	Manufacturer string `xml:"manufacturer"`
}

// Load parses the catalog file at path.
func Load(path string) ([]layer.Entry, Format, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("打开目录文件失败: %w", err)
	}
	defer f.Close()

	entries, format, err := Parse(f)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", path, err)
	}
	return entries, format, nil
}

// Parse detects the dialect from the root element and decodes every game.
// Games without a usable key are dropped.
func Parse(r io.Reader) ([]layer.Entry, Format, error) {
	dec := xml.NewDecoder(r)
	root, err := rootElement(dec)
	if err != nil {
		return nil, "", err
	}

	switch Format(root.Name.Local) {
	case FormatGameList:
		var doc gameList
		if err := dec.DecodeElement(&doc, &root); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidXML, err)
		}
		return fromGameList(doc), FormatGameList, nil
	case FormatMenu:
		var doc menu
		if err := dec.DecodeElement(&doc, &root); err != nil {
			return nil, "", fmt.Errorf("%w: %v", ErrInvalidXML, err)
		}
		return fromMenu(doc), FormatMenu, nil
	default:
		return nil, "", fmt.Errorf("%w: 根元素 <%s>", ErrUnknownFormat, root.Name.Local)
	}
}

func rootElement(dec *xml.Decoder) (xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return xml.StartElement{}, fmt.Errorf("%w: 文档为空", ErrInvalidXML)
		}
		if err != nil {
			return xml.StartElement{}, fmt.Errorf("%w: %v", ErrInvalidXML, err)
		}
		if se, ok := tok.(xml.StartElement); ok {
			return se, nil
		}
	}
}

func fromGameList(doc gameList) []layer.Entry {
	entries := make([]layer.Entry, 0, len(doc.Games))
	for _, g := range doc.Games {
		key := Stem(strings.TrimSpace(g.Path))
		if key == "" {
			continue
		}
		name := strings.TrimSpace(g.Name)
		e := layer.Entry{
			Key:          key,
			DisplayName:  name,
			Description:  strings.TrimSpace(g.Desc),
			Year:         Year(g.ReleaseDate),
			Genre:        strings.TrimSpace(g.Genre),
			Manufacturer: strings.TrimSpace(g.Developer),
		}
		if e.DisplayName == "" {
			e.DisplayName = key
		}
		if e.Description == "" {
			e.Description = name
		}
		if e.Manufacturer == "" {
			e.Manufacturer = strings.TrimSpace(g.Publisher)
		}
		entries = append(entries, e)
	}
	return entries
}

func fromMenu(doc menu) []layer.Entry {
	entries := make([]layer.Entry, 0, len(doc.Games))
	for _, g := range doc.Games {
		name := strings.TrimSpace(g.Name)
		if name == "" {
			continue
		}
		entries = append(entries, layer.Entry{
			Key:          name,
			DisplayName:  name,
			Description:  strings.TrimSpace(g.Description),
			Year:         strings.TrimSpace(g.Year),
			Genre:        strings.TrimSpace(g.Genre),
			Manufacturer: strings.TrimSpace(g.Manufacturer),
		})
	}
	return entries
}

// Stem returns the file name of a ROM path without its extension. Both '/'
// and '\' separate directories because gamelists are shared across systems.
// 以点开头且没有其他点的文件名（如 ".zip"）保持原样。
func Stem(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.LastIndexByte(base, '.'); i > 0 && strings.TrimLeft(base[:i], ".") != "" {
		base = base[:i]
	}
	return base
}

// Year returns the first four characters of an ES release date such as
// 19850913T000000, or "" when the value is shorter.
func Year(releaseDate string) string {
	r := []rune(strings.TrimSpace(releaseDate))
	if len(r) < 4 {
		return ""
	}
	return string(r[:4])
}

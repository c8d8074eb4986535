package catalog

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Balrog57/xml2png/layer"
)

const esGamelist = `<?xml version="1.0"?>
<gameList>
  <game>
    <path>./roms/super_mario.zip</path>
    <name>Super Mario</name>
    <desc>A plumber saves a princess.</desc>
    <releasedate>19850913T000000</releasedate>
    <publisher>Nintendo</publisher>
  </game>
  <game>
    <path>roms\sub\zelda.7z</path>
    <releasedate>86</releasedate>
    <developer>Nintendo EAD</developer>
    <publisher>Nintendo</publisher>
  </game>
  <game>
    <path>./roms/tetris.gb</path>
    <name>Tetris</name>
  </game>
  <game>
    <name>No path, skipped</name>
  </game>
</gameList>
`

const hsMenu = `<?xml version="1.0" encoding="UTF-8"?>
<menu>
  <header><listname>Sega Genesis</listname></header>
  <game name="Sonic The Hedgehog 2 (World)" index="" image="">
    <description>Sonic The Hedgehog 2</description>
    <year>1992</year>
    <genre>Platform</genre>
    <manufacturer>Sega</manufacturer>
  </game>
  <game name="">
    <description>unnamed</description>
  </game>
</menu>
`

func TestParseGameList(t *testing.T) {
	entries, format, err := Parse(strings.NewReader(esGamelist))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if format != FormatGameList {
		t.Fatalf("expected gameList, got %s", format)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d: %+v", len(entries), entries)
	}

	want := layer.Entry{
		Key:          "super_mario",
		DisplayName:  "Super Mario",
		Description:  "A plumber saves a princess.",
		Year:         "1985",
		Manufacturer: "Nintendo",
	}
	if entries[0] != want {
		t.Fatalf("unexpected first entry:\nwant %+v\ngot  %+v", want, entries[0])
	}

	zelda := entries[1]
	if zelda.Key != "zelda" || zelda.DisplayName != "zelda" {
		t.Fatalf("display name should fall back to key: %+v", zelda)
	}
	if zelda.Year != "" {
		t.Fatalf("short release date must give empty year, got %q", zelda.Year)
	}
	if zelda.Manufacturer != "Nintendo EAD" {
		t.Fatalf("developer should win over publisher: %q", zelda.Manufacturer)
	}

	if tetris := entries[2]; tetris.Description != "Tetris" {
		t.Fatalf("description should fall back to name: %+v", tetris)
	}
}

func TestParseMenu(t *testing.T) {
	entries, format, err := Parse(strings.NewReader(hsMenu))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if format != FormatMenu {
		t.Fatalf("expected menu, got %s", format)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	want := layer.Entry{
		Key:          "Sonic The Hedgehog 2 (World)",
		DisplayName:  "Sonic The Hedgehog 2 (World)",
		Description:  "Sonic The Hedgehog 2",
		Year:         "1992",
		Genre:        "Platform",
		Manufacturer: "Sega",
	}
	if entries[0] != want {
		t.Fatalf("unexpected entry:\nwant %+v\ngot  %+v", want, entries[0])
	}
}

func TestParseErrors(t *testing.T) {
	if _, _, err := Parse(strings.NewReader("<datafile><game/></datafile>")); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if _, _, err := Parse(strings.NewReader("<gameList><game>")); !errors.Is(err, ErrInvalidXML) {
		t.Fatalf("expected ErrInvalidXML for truncated document, got %v", err)
	}
	if _, _, err := Parse(strings.NewReader("   ")); !errors.Is(err, ErrInvalidXML) {
		t.Fatalf("expected ErrInvalidXML for empty document, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gamelist.xml")
	if err := os.WriteFile(path, []byte(esGamelist), 0o644); err != nil {
		t.Fatal(err)
	}
	entries, _, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	if _, _, err := Load(filepath.Join(dir, "absent.xml")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestStem(t *testing.T) {
	cases := map[string]string{
		"./roms/game.zip":     "game",
		`C:\roms\game.v1.zip`: "game.v1",
		"game":                "game",
		".zip":                ".zip",
		"roms/":               "",
		"":                    "",
	}
	for in, want := range cases {
		if got := Stem(in); got != want {
			t.Fatalf("Stem(%q) = %q, want %q", in, got, want)
		}
	}
}

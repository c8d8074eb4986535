package layer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestNewSessionShape(t *testing.T) {
	layers := NewSession("")
	if len(layers) != ContentLayers+1 {
		t.Fatalf("expected %d layers, got %d", ContentLayers+1, len(layers))
	}
	if layers[0].Name != BackgroundName {
		t.Fatalf("layer 0 must be the background, got %q", layers[0].Name)
	}
	if layers[0].Enabled {
		t.Fatalf("background without path must be disabled")
	}
	for i, l := range layers[1:] {
		if l.Enabled {
			t.Fatalf("content layer %d should start disabled", i+1)
		}
		if !l.Visible {
			t.Fatalf("content layer %d should start visible", i+1)
		}
	}
	if !NewSession("bg.png")[0].Enabled {
		t.Fatalf("background with a path must be enabled")
	}
}

func TestTextResolution(t *testing.T) {
	entry := &Entry{
		Key:          "super_mario",
		DisplayName:  "Super Mario",
		Description:  "A plumber saves a princess.",
		Year:         "1985",
		Genre:        "Platform",
		Manufacturer: "Nintendo",
	}
	cases := []struct {
		name string
		l    Layer
		want string
	}{
		{"description", Layer{Source: SourceDescription}, "A plumber saves a princess."},
		{"name uses key by default", Layer{Source: SourceName}, "super_mario"},
		{"name uses display name", Layer{Source: SourceName, UseDisplayName: true}, "Super Mario"},
		{"year with affixes", Layer{Source: SourceYear, Prefix: "(", Suffix: ")"}, "(1985)"},
		{"genre", Layer{Source: SourceGenre}, "Platform"},
		{"manufacturer", Layer{Source: SourceManufacturer}, "Nintendo"},
	}
	for _, tc := range cases {
		if got := tc.l.Text(entry); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestEmptyFieldIgnoresAffixes(t *testing.T) {
	l := Layer{Source: SourceGenre, Prefix: "Genre: "}
	if got := l.Text(&Entry{Key: "x"}); got != "" {
		t.Fatalf("expected empty text, got %q", got)
	}
}

func TestPlaceholderWithoutEntry(t *testing.T) {
	l := Layer{Source: SourceYear}
	if got := l.Text(nil); got != "1992" {
		t.Fatalf("expected placeholder year, got %q", got)
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string]Color{
		"#fff":      {255, 255, 255, 255},
		"#102030":   {0x10, 0x20, 0x30, 0xff},
		"#10203040": {0x10, 0x20, 0x30, 0x40},
	}
	for in, want := range cases {
		got, err := ParseColor(in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseColor(%q) = %+v want %+v", in, got, want)
		}
		if in == "#10203040" && got.Hex() != "#10203040" {
			t.Fatalf("Hex round trip mismatch: %s", got.Hex())
		}
	}
	if _, err := ParseColor("#12"); err == nil {
		t.Fatalf("expected error for short colour")
	}
	if _, err := ParseColor("#zzzzzz"); err == nil {
		t.Fatalf("expected error for non-hex colour")
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(nil); !errors.Is(err, ErrNoLayers) {
		t.Fatalf("expected ErrNoLayers, got %v", err)
	}
	if err := Validate(NewSession("")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBackgroundsSortedImagesOnly(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.JPG", "a.png", "c.jpeg", "notes.txt", "d.gif"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "0.png"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := Backgrounds(dir)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	want := []string{"a.png", "b.JPG", "c.jpeg"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i, name := range want {
		if got[i] != filepath.Join(dir, name) {
			t.Fatalf("entry %d: expected %s, got %s", i, name, got[i])
		}
	}

	first, err := DefaultBackground(dir)
	if err != nil || first != filepath.Join(dir, "a.png") {
		t.Fatalf("unexpected default background %q (%v)", first, err)
	}
}

func TestBackgroundsMissingDir(t *testing.T) {
	got, err := Backgrounds(filepath.Join(t.TempDir(), "nope"))
	if err != nil || got != nil {
		t.Fatalf("missing dir should be empty, got %v (%v)", got, err)
	}
	if bg, err := DefaultBackground(""); err != nil || bg != "" {
		t.Fatalf("empty dir name should give no default, got %q (%v)", bg, err)
	}
}

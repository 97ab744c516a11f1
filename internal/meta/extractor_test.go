package meta

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseFraction(t *testing.T) {
	tests := []struct {
		in        string
		num, tot  int
	}{
		{"3", 3, 0},
		{"3/12", 3, 12},
		{" 1 / 12 ", 1, 12},
		{"", 0, 0},
		{"x", 0, 0},
		{"4/x", 4, 0},
	}

	for _, tt := range tests {
		num, tot := parseFraction(tt.in)
		if num != tt.num || tot != tt.tot {
			t.Errorf("parseFraction(%q) = (%d, %d), want (%d, %d)", tt.in, num, tot, tt.num, tt.tot)
		}
	}
}

func TestIsLosslessCodec(t *testing.T) {
	tests := []struct {
		codec string
		want  bool
	}{
		{"flac", true},
		{"FLAC", true},
		{"alac", true},
		{"pcm_s16le", true},
		{"pcm_s24be", true},
		{"mp3", false},
		{"aac", false},
		{"opus", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := isLosslessCodec(tt.codec); got != tt.want {
			t.Errorf("isLosslessCodec(%q) = %v, want %v", tt.codec, got, tt.want)
		}
	}
}

func TestExtractMissingFile(t *testing.T) {
	e := New(Config{})

	_, err := e.Extract(filepath.Join(t.TempDir(), "gone.mp3"))
	if err == nil {
		t.Fatal("extracting a missing file succeeded")
	}
	if !errors.Is(err, ErrUnreadable) {
		t.Errorf("error = %v, want ErrUnreadable", err)
	}
}

func TestExtractGarbageFile(t *testing.T) {
	if ProbeAvailable() {
		// With ffprobe installed the error path differs; this test
		// covers the degraded environment.
		t.Skip("ffprobe present")
	}

	path := filepath.Join(t.TempDir(), "noise.mp3")
	if err := os.WriteFile(path, []byte("not audio at all"), 0644); err != nil {
		t.Fatal(err)
	}

	e := New(Config{})
	_, err := e.Extract(path)
	if err == nil {
		t.Fatal("extracting garbage succeeded")
	}
	if !errors.Is(err, ErrNoMetadata) {
		t.Errorf("error = %v, want ErrNoMetadata", err)
	}
}

func TestExtractCorruptStreamWithProbe(t *testing.T) {
	if !ProbeAvailable() {
		t.Skip("ffprobe missing")
	}

	path := filepath.Join(t.TempDir(), "noise.mp3")
	if err := os.WriteFile(path, []byte("not audio at all"), 0644); err != nil {
		t.Fatal(err)
	}

	e := New(Config{})
	_, err := e.Extract(path)
	if err == nil {
		t.Fatal("extracting garbage succeeded")
	}
	if !errors.Is(err, ErrCorruptStream) {
		t.Errorf("error = %v, want ErrCorruptStream", err)
	}
}

func TestOverlayFillsOnlyHoles(t *testing.T) {
	title := "Kept"
	overlay(&title, "Replaced")
	if title != "Kept" {
		t.Errorf("overlay overwrote a set value: %q", title)
	}

	empty := ""
	overlay(&empty, "  Filled  ")
	if empty != "Filled" {
		t.Errorf("overlay = %q, want trimmed Filled", empty)
	}
}

func TestProbeTagKeyFallback(t *testing.T) {
	tags := map[string]string{"ALBUM_ARTIST": "Various"}

	if got := probeTag(tags, "album_artist", "ALBUM_ARTIST", "albumartist"); got != "Various" {
		t.Errorf("probeTag = %q, want Various", got)
	}
	if got := probeTag(tags, "title", "TITLE"); got != "" {
		t.Errorf("probeTag = %q, want empty for missing keys", got)
	}
}

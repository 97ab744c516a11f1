package config

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/spf13/viper"
)

func TestNormalizeExtensions(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"strips dots and lowercases", []string{".MP3", "Flac"}, []string{"flac", "mp3"}},
		{"dedupes", []string{"mp3", ".mp3", "MP3"}, []string{"mp3"}},
		{"drops empties", []string{"", "  ", "ogg"}, []string{"ogg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Scanner{AudioExts: tt.in}
			cfg.Normalize()
			if !reflect.DeepEqual(cfg.AudioExts, tt.want) {
				t.Errorf("Normalize(%v) = %v, want %v", tt.in, cfg.AudioExts, tt.want)
			}
		})
	}
}

func TestNormalizeEmptyExtensionsFallsBack(t *testing.T) {
	cfg := &Scanner{AudioExts: []string{"", "   "}}
	cfg.Normalize()
	if len(cfg.AudioExts) != len(DefaultAudioExts) {
		t.Errorf("empty extension list did not fall back to defaults: %v", cfg.AudioExts)
	}
}

func TestNormalizeRoots(t *testing.T) {
	cfg := &Scanner{Roots: []string{"/music", "/music", "  ", "/other "}}
	cfg.Normalize()
	want := []string{"/music", "/other"}
	if !reflect.DeepEqual(cfg.Roots, want) {
		t.Errorf("roots = %v, want %v", cfg.Roots, want)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultScanner()
	if err := cfg.Validate(); !errors.Is(err, ErrNoRoots) {
		t.Errorf("empty config: got %v, want ErrNoRoots", err)
	}

	cfg.Roots = []string{"/music"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	v := viper.New()
	v.SetConfigFile(path)

	depth := uint(3)
	saved := &Scanner{
		Roots:        []string{"/music", "/archive"},
		AudioExts:    []string{".FLAC", "mp3"},
		IgnoreHidden: true,
		MaxDepth:     &depth,
	}
	if err := SaveScanner(v, saved); err != nil {
		t.Fatalf("SaveScanner failed: %v", err)
	}

	v2 := viper.New()
	v2.SetConfigFile(path)
	if err := v2.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig failed: %v", err)
	}

	loaded, err := LoadScanner(v2)
	if err != nil {
		t.Fatalf("LoadScanner failed: %v", err)
	}

	if !reflect.DeepEqual(loaded.Roots, saved.Roots) {
		t.Errorf("roots = %v, want %v", loaded.Roots, saved.Roots)
	}
	if !reflect.DeepEqual(loaded.AudioExts, []string{"flac", "mp3"}) {
		t.Errorf("exts = %v, want normalized [flac mp3]", loaded.AudioExts)
	}
	if loaded.MaxDepth == nil || *loaded.MaxDepth != 3 {
		t.Errorf("max depth = %v, want 3", loaded.MaxDepth)
	}
}

func TestLoadScannerDefaults(t *testing.T) {
	cfg, err := LoadScanner(viper.New())
	if err != nil {
		t.Fatalf("LoadScanner failed: %v", err)
	}
	if !cfg.IgnoreHidden {
		t.Error("default should ignore hidden entries")
	}
	if cfg.MaxDepth != nil {
		t.Errorf("default max depth = %v, want unlimited", cfg.MaxDepth)
	}
	if len(cfg.AudioExts) == 0 {
		t.Error("default extension list is empty")
	}
}

package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/viper"
)

// DefaultAudioExts are the extensions considered audio when the config
// does not name any.
var DefaultAudioExts = []string{
	"mp3",
	"flac",
	"m4a",
	"aac",
	"ogg",
	"opus",
	"wav",
	"aiff",
	"wma",
	"ape",
	"wv",
}

// ErrNoRoots indicates a scanner config without any root directories
var ErrNoRoots = errors.New("no root directories configured")

// Scanner holds the persisted scanner configuration.
// MaxDepth is nil for unlimited descent.
type Scanner struct {
	Roots        []string `mapstructure:"roots"`
	AudioExts    []string `mapstructure:"audio_exts"`
	IgnoreHidden bool     `mapstructure:"ignore_hidden"`
	MaxDepth     *uint    `mapstructure:"max_depth"`
}

// DefaultScanner returns the scanner configuration used when none has
// been saved yet.
func DefaultScanner() *Scanner {
	return &Scanner{
		Roots:        nil,
		AudioExts:    append([]string(nil), DefaultAudioExts...),
		IgnoreHidden: true,
		MaxDepth:     nil,
	}
}

// LoadScanner reads the scanner section from viper and normalizes it.
// Missing fields fall back to defaults; a saved-but-empty extension
// list also falls back rather than matching nothing.
func LoadScanner(v *viper.Viper) (*Scanner, error) {
	cfg := DefaultScanner()

	if v.IsSet("scanner") {
		if err := v.UnmarshalKey("scanner", cfg); err != nil {
			return nil, fmt.Errorf("failed to parse scanner config: %w", err)
		}
	}

	cfg.Normalize()
	return cfg, nil
}

// SaveScanner validates cfg and writes it back through viper.
func SaveScanner(v *viper.Viper, cfg *Scanner) error {
	cfg.Normalize()

	v.Set("scanner.roots", cfg.Roots)
	v.Set("scanner.audio_exts", cfg.AudioExts)
	v.Set("scanner.ignore_hidden", cfg.IgnoreHidden)
	if cfg.MaxDepth != nil {
		v.Set("scanner.max_depth", *cfg.MaxDepth)
	} else {
		v.Set("scanner.max_depth", nil)
	}

	if err := v.WriteConfig(); err != nil {
		// First save: the config file may not exist yet
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return v.SafeWriteConfig()
		}
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Normalize lower-cases and de-duplicates extensions, strips leading
// dots and drops empty entries. Applied once at load/save time so the
// walker can match extensions verbatim.
func (c *Scanner) Normalize() {
	seen := make(map[string]bool)
	exts := make([]string, 0, len(c.AudioExts))

	for _, ext := range c.AudioExts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		ext = strings.TrimPrefix(ext, ".")
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		exts = append(exts, ext)
	}

	sort.Strings(exts)
	if len(exts) == 0 {
		exts = append([]string(nil), DefaultAudioExts...)
		sort.Strings(exts)
	}
	c.AudioExts = exts

	roots := make([]string, 0, len(c.Roots))
	seenRoots := make(map[string]bool)
	for _, root := range c.Roots {
		root = strings.TrimSpace(root)
		if root == "" || seenRoots[root] {
			continue
		}
		seenRoots[root] = true
		roots = append(roots, root)
	}
	c.Roots = roots
}

// ExtensionSet returns the configured extensions as a lookup set keyed
// by lower-case extension without the leading dot.
func (c *Scanner) ExtensionSet() map[string]bool {
	set := make(map[string]bool, len(c.AudioExts))
	for _, ext := range c.AudioExts {
		set[ext] = true
	}
	return set
}

// Validate reports whether a full import can run with this config.
func (c *Scanner) Validate() error {
	if len(c.Roots) == 0 {
		return ErrNoRoots
	}
	return nil
}

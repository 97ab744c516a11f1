package meta

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// FilenameGuess holds metadata inferred from a file's name and the
// directories above it. It is only a fallback for files whose tags
// are missing or incomplete.
type FilenameGuess struct {
	Artist string
	Album  string
	Title  string
	Track  int
	Disc   int
	Year   string
}

var (
	trackArtistTitleRe = regexp.MustCompile(`^(\d+)\s*[-_.]\s*(.+?)\s*-\s*(.+)$`)
	trackTitleRe       = regexp.MustCompile(`^(\d+)\s*[-_.]\s*(.+)$`)
	artistTitleRe      = regexp.MustCompile(`^(.+?)\s+-\s+(.+)$`)
	discDirRe          = regexp.MustCompile(`(?i)^(disc|cd|disk)\s*(\d+)$`)
	yearPrefixRe       = regexp.MustCompile(`^(\d{4})\s*[-_.]\s*(.+)$`)
	yearSuffixRe       = regexp.MustCompile(`^(.+?)\s*\((\d{4})\)$`)
)

// ParseFilename infers metadata from a path like
// "Artist/Album (2004)/Disc 2/07 - Title.flac". The bare filename
// stem always serves as a last-resort title.
func ParseFilename(path string) *FilenameGuess {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))

	g := &FilenameGuess{}

	switch {
	case trackArtistTitleRe.MatchString(stem):
		m := trackArtistTitleRe.FindStringSubmatch(stem)
		g.Track, _ = strconv.Atoi(m[1])
		g.Artist = strings.TrimSpace(m[2])
		g.Title = strings.TrimSpace(m[3])
	case trackTitleRe.MatchString(stem):
		m := trackTitleRe.FindStringSubmatch(stem)
		g.Track, _ = strconv.Atoi(m[1])
		g.Title = strings.ReplaceAll(strings.TrimSpace(m[2]), "_", " ")
	case artistTitleRe.MatchString(stem):
		m := artistTitleRe.FindStringSubmatch(stem)
		g.Artist = strings.TrimSpace(m[1])
		g.Title = strings.TrimSpace(m[2])
	default:
		g.Title = stem
	}

	g.inferFromDirs(filepath.Dir(path))
	return g
}

// inferFromDirs reads album, artist, year and disc number from the
// directory layout, assuming the common Artist/Album/tracks shape.
func (g *FilenameGuess) inferFromDirs(dir string) {
	parts := strings.Split(filepath.Clean(dir), string(filepath.Separator))
	if len(parts) == 0 || (len(parts) == 1 && (parts[0] == "." || parts[0] == "")) {
		return
	}

	albumIdx := len(parts) - 1

	// A "Disc N" folder supplies the disc number; the album folder
	// is then one level higher.
	if m := discDirRe.FindStringSubmatch(parts[albumIdx]); m != nil {
		g.Disc, _ = strconv.Atoi(m[2])
		albumIdx--
	}

	if albumIdx >= 0 && g.Album == "" {
		album := parts[albumIdx]
		if m := yearPrefixRe.FindStringSubmatch(album); m != nil {
			g.Year = m[1]
			album = strings.TrimSpace(m[2])
		} else if m := yearSuffixRe.FindStringSubmatch(album); m != nil {
			album = strings.TrimSpace(m[1])
			g.Year = m[2]
		}
		g.Album = album
	}

	if albumIdx-1 >= 0 && g.Artist == "" {
		g.Artist = parts[albumIdx-1]
	}
}

// Package meta turns an audio file on disk into structured metadata:
// embedded tags, stream properties and acoustic analysis. Tag reading
// uses dhowden/tag, stream properties come from ffprobe, and the two
// are merged with tags winning over probe output.
package meta

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dhowden/tag"

	"github.com/franz/music-indexer/internal/util"
)

var (
	// ErrUnreadable marks a file the extractor could not open or read
	ErrUnreadable = errors.New("file unreadable")

	// ErrNoMetadata marks a file where every extraction method failed
	ErrNoMetadata = errors.New("no metadata could be extracted")

	// ErrUnsupportedFormat marks a container no reader recognizes
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	// ErrCorruptStream marks a file the demuxer rejects
	ErrCorruptStream = errors.New("corrupt audio stream")
)

// FileMetadata is everything the extractor learns about one file
type FileMetadata struct {
	Path string

	// Embedded tags
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Date        string
	Genre       string
	Track       int
	TrackTotal  int
	Disc        int
	DiscTotal   int

	// Stream properties
	Format       string
	Codec        string
	DurationMs   int
	BitrateKbps  int
	SampleRateHz int
	Channels     int
	Lossless     bool

	// Acoustic analysis, filled in by Analyze
	Fingerprint       string
	BPM               float64
	QualityScore      float64
	QualityAssessment string
}

// Extractor reads tags and stream properties from audio files
type Extractor struct {
	retry   *util.RetryConfig
	analyze bool
}

// Config holds extractor configuration
type Config struct {
	// Retry governs transient open failures on flaky mounts
	Retry *util.RetryConfig

	// Analyze enables decoded-audio analysis (fingerprint, tempo,
	// spectral quality). Costs a full decode per file.
	Analyze bool
}

// New creates an extractor
func New(cfg Config) *Extractor {
	if cfg.Retry == nil {
		cfg.Retry = util.DefaultRetryConfig()
	}
	return &Extractor{retry: cfg.Retry, analyze: cfg.Analyze}
}

// Extract reads everything it can about path. Tag reading and ffprobe
// each may fail independently; the file only counts as failed when
// both do. Missing title, artist or album fall back to the filename.
func (e *Extractor) Extract(path string) (*FileMetadata, error) {
	util.DebugLog("Extracting metadata: %s", path)

	m := &FileMetadata{Path: path}

	tagErr := e.readTags(path, m)
	probeErr := e.readStreamProperties(path, m)

	if tagErr != nil && probeErr != nil {
		switch {
		case errors.Is(tagErr, ErrUnreadable):
			return nil, tagErr
		case errors.Is(probeErr, ErrCorruptStream):
			return nil, probeErr
		case errors.Is(tagErr, tag.ErrNoTagsFound) || errors.Is(probeErr, ErrProbeUnavailable):
			return nil, fmt.Errorf("%w: tag: %v, ffprobe: %v", ErrNoMetadata, tagErr, probeErr)
		default:
			return nil, fmt.Errorf("%w: tag: %v, ffprobe: %v", ErrUnsupportedFormat, tagErr, probeErr)
		}
	}

	// Filename and directory hints fill any holes the tags left
	applyFilenameGuess(m, ParseFilename(path))

	if e.analyze {
		if err := Analyze(path, m); err != nil {
			// Analysis is best-effort: a file without a fingerprint
			// is still a perfectly good catalog entry.
			util.DebugLog("Analysis failed for %s: %v", path, err)
		}
	}

	return m, nil
}

// readTags fills m from embedded tags via dhowden/tag
func (e *Extractor) readTags(path string, m *FileMetadata) error {
	f, err := util.RetryableOpen(path, e.retry)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	defer f.Close()

	t, err := tag.ReadFrom(f)
	if err != nil {
		return fmt.Errorf("failed to read tags: %w", err)
	}

	m.Format = string(t.Format())
	m.Title = strings.TrimSpace(t.Title())
	m.Artist = strings.TrimSpace(t.Artist())
	m.Album = strings.TrimSpace(t.Album())
	m.AlbumArtist = strings.TrimSpace(t.AlbumArtist())
	m.Genre = strings.TrimSpace(t.Genre())
	if t.Year() > 0 {
		m.Date = strconv.Itoa(t.Year())
	}

	m.Track, m.TrackTotal = t.Track()
	m.Disc, m.DiscTotal = t.Disc()

	return nil
}

// readStreamProperties fills stream fields from ffprobe, and overlays
// tags only where the tag library left a hole.
func (e *Extractor) readStreamProperties(path string, m *FileMetadata) error {
	info, err := Probe(path)
	if err != nil {
		return err
	}

	if info.Format != nil {
		if m.Format == "" {
			m.Format = info.Format.FormatName
		}
		if info.Format.Duration != "" {
			if sec, err := strconv.ParseFloat(info.Format.Duration, 64); err == nil {
				m.DurationMs = int(sec * 1000)
			}
		}
		if info.Format.BitRate != "" {
			if bps, err := strconv.Atoi(info.Format.BitRate); err == nil {
				m.BitrateKbps = bps / 1000
			}
		}

		if tags := info.Format.Tags; tags != nil {
			overlay(&m.Title, probeTag(tags, "title", "TITLE"))
			overlay(&m.Artist, probeTag(tags, "artist", "ARTIST"))
			overlay(&m.Album, probeTag(tags, "album", "ALBUM"))
			overlay(&m.AlbumArtist, probeTag(tags, "album_artist", "ALBUM_ARTIST", "albumartist"))
			overlay(&m.Date, probeTag(tags, "date", "DATE", "year", "YEAR"))
			overlay(&m.Genre, probeTag(tags, "genre", "GENRE"))

			if m.Track == 0 {
				m.Track, m.TrackTotal = parseFraction(probeTag(tags, "track", "TRACK"))
			}
			if m.Disc == 0 {
				m.Disc, m.DiscTotal = parseFraction(probeTag(tags, "disc", "DISC", "discnumber"))
			}
		}
	}

	if stream := info.AudioStream(); stream != nil {
		m.Codec = stream.CodecName
		m.SampleRateHz = stream.SampleRate
		m.Channels = stream.Channels
		m.Lossless = isLosslessCodec(stream.CodecName)
	}

	return nil
}

// applyFilenameGuess fills remaining holes from the filename parse
func applyFilenameGuess(m *FileMetadata, guess *FilenameGuess) {
	if m.Title == "" {
		m.Title = guess.Title
	}
	if m.Artist == "" {
		m.Artist = guess.Artist
	}
	if m.Album == "" {
		m.Album = guess.Album
	}
	if m.Track == 0 {
		m.Track = guess.Track
	}
	if m.Disc == 0 {
		m.Disc = guess.Disc
	}
	if m.Date == "" {
		m.Date = guess.Year
	}
}

func overlay(dst *string, val string) {
	if *dst == "" && val != "" {
		*dst = strings.TrimSpace(val)
	}
}

// probeTag retrieves a tag value trying multiple key spellings
func probeTag(tags map[string]string, keys ...string) string {
	for _, key := range keys {
		if val, ok := tags[key]; ok && val != "" {
			return val
		}
	}
	return ""
}

// parseFraction parses "3" or "3/12" into (number, total)
func parseFraction(s string) (int, int) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0
	}
	num, rest, found := strings.Cut(s, "/")
	n, err := strconv.Atoi(strings.TrimSpace(num))
	if err != nil {
		return 0, 0
	}
	if !found {
		return n, 0
	}
	total, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return n, 0
	}
	return n, total
}

// isLosslessCodec reports whether codec preserves the source signal
func isLosslessCodec(codec string) bool {
	codec = strings.ToLower(codec)
	if strings.HasPrefix(codec, "pcm_") {
		return true
	}
	lossless := map[string]bool{
		"flac":    true,
		"alac":    true,
		"ape":     true,
		"wavpack": true,
		"wv":      true,
		"tta":     true,
		"pcm":     true,
		"wav":     true,
		"aiff":    true,
	}
	return lossless[codec]
}

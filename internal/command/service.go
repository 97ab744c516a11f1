// Package command is the application surface behind the CLI: every
// verb the binary exposes is a method here, so the cobra layer stays
// thin and the operations are testable without a terminal.
package command

import (
	"context"
	"fmt"

	"github.com/franz/music-indexer/internal/catalog"
	"github.com/franz/music-indexer/internal/config"
	"github.com/franz/music-indexer/internal/device"
	"github.com/franz/music-indexer/internal/meta"
	"github.com/franz/music-indexer/internal/orchestrate"
	"github.com/franz/music-indexer/internal/persist"
	"github.com/franz/music-indexer/internal/progress"
	"github.com/franz/music-indexer/internal/resolve"
	"github.com/franz/music-indexer/internal/walk"
)

// Service wires the pipeline together for one catalog
type Service struct {
	store      *catalog.Store
	cfg        config.Scanner
	classifier *device.Classifier
	reporter   *progress.Reporter
	orch       *orchestrate.Orchestrator
}

// Options configures a Service
type Options struct {
	Store    *catalog.Store
	Scanner  config.Scanner
	Reporter *progress.Reporter

	// Analyze enables decoded-audio analysis during import
	Analyze bool
}

// NewService builds the pipeline
func NewService(opts Options) *Service {
	classifier := device.NewClassifier()
	extractor := meta.New(meta.Config{Analyze: opts.Analyze})
	resolver := resolve.New(opts.Store)
	persister := persist.New(opts.Store, resolver)

	return &Service{
		store:      opts.Store,
		cfg:        opts.Scanner,
		classifier: classifier,
		reporter:   opts.Reporter,
		orch:       orchestrate.New(opts.Scanner, classifier, extractor, persister, opts.Reporter),
	}
}

// Orchestrator exposes the run state machine, mainly for Stop
func (s *Service) Orchestrator() *orchestrate.Orchestrator {
	return s.orch
}

// ImportFull runs one full import of every configured root.
// A concurrent second call fails with orchestrate.ErrScanInProgress.
func (s *Service) ImportFull(ctx context.Context) (*orchestrate.Summary, error) {
	return s.orch.Run(ctx)
}

// GroupReport describes one device group in a dry run
type GroupReport struct {
	Device     device.Device
	Roots      []string
	Workers    int
	Candidates int
	TotalBytes int64
}

// ScanReport is the outcome of a dry run
type ScanReport struct {
	Groups     []GroupReport
	Candidates int
	TotalBytes int64
}

// ScanLibrary performs a dry run: classify devices, walk the roots
// and count what an import would process, with no extraction and no
// catalog writes.
func (s *Service) ScanLibrary(ctx context.Context) (*ScanReport, error) {
	cfg := s.cfg
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	walker := walk.New(cfg)
	groups := s.classifier.GroupRoots(cfg.Roots)
	if len(groups) == 0 {
		return nil, fmt.Errorf("no reachable roots among %v", cfg.Roots)
	}

	report := &ScanReport{}
	for _, g := range groups {
		gr := GroupReport{
			Device:  g.Device,
			Roots:   g.Roots,
			Workers: g.Workers(),
		}

		entries := make(chan walk.Entry, 256)
		done := make(chan struct{})
		go func() {
			defer close(done)
			for e := range entries {
				if e.Candidate != nil {
					gr.Candidates++
					gr.TotalBytes += e.Candidate.SizeBytes
				}
			}
		}()

		var walkErr error
		for _, root := range g.Roots {
			if err := walker.Walk(ctx, root, entries); err != nil {
				walkErr = err
				break
			}
		}
		close(entries)
		<-done
		if walkErr != nil {
			return nil, walkErr
		}

		report.Groups = append(report.Groups, gr)
		report.Candidates += gr.Candidates
		report.TotalBytes += gr.TotalBytes
	}

	return report, nil
}

// GetScannerConfig returns the active scanner configuration
func (s *Service) GetScannerConfig() config.Scanner {
	cfg := s.cfg
	cfg.Normalize()
	return cfg
}

// ListArtists returns every artist with variations and sites
func (s *Service) ListArtists() ([]*catalog.Artist, error) {
	return s.store.ListArtists()
}

// CreateArtist adds an artist by hand, outside any scan
func (s *Service) CreateArtist(name, bio string, variations, sites []string) (*catalog.Artist, error) {
	name = resolve.Clean(name)
	if name == "" {
		return nil, fmt.Errorf("artist name must not be empty")
	}

	if _, err := s.store.FindArtistByName(nil, name); err == nil {
		return nil, fmt.Errorf("artist %q already exists", name)
	}

	artist := &catalog.Artist{
		Name:       name,
		Bio:        bio,
		Variations: variations,
		Sites:      sites,
	}
	if err := s.store.InsertArtist(nil, artist); err != nil {
		return nil, err
	}
	return artist, nil
}

// ListSongs returns every song
func (s *Service) ListSongs() ([]*catalog.Song, error) {
	return s.store.ListSongs()
}

// CreateSong adds a song by hand. Duplicate titles are allowed:
// same-titled songs are distinct recordings.
func (s *Service) CreateSong(title, acoustID string) (*catalog.Song, error) {
	title = resolve.Clean(title)
	if title == "" {
		return nil, fmt.Errorf("song title must not be empty")
	}

	song := &catalog.Song{Title: title, AcoustID: acoustID}
	if err := s.store.InsertSong(nil, song); err != nil {
		return nil, err
	}
	return song, nil
}

// ListReleases returns every release
func (s *Service) ListReleases() ([]*catalog.Release, error) {
	return s.store.ListReleases()
}

// Dupes reports groups of library files sharing an acoustic
// fingerprint. Reporting only; nothing is deleted.
func (s *Service) Dupes() (map[string][]*catalog.LibraryFile, error) {
	return s.store.DuplicateFingerprints()
}

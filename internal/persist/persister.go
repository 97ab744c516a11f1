// Package persist writes one imported file's entity graph to the
// catalog atomically. Resolution and the library-file upsert share a
// single transaction, so a failed import leaves no partial entities
// behind.
package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/franz/music-indexer/internal/catalog"
	"github.com/franz/music-indexer/internal/meta"
	"github.com/franz/music-indexer/internal/resolve"
	"github.com/franz/music-indexer/internal/util"
)

// Persister imports resolved files into the catalog. Writes to the
// same track coordinate are serialized through a keyed lock, so the
// newest-wins collision rule is decided by processing order rather
// than by a race.
type Persister struct {
	store    *catalog.Store
	resolver *resolve.Resolver

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a persister backed by store
func New(store *catalog.Store, resolver *resolve.Resolver) *Persister {
	return &Persister{
		store:    store,
		resolver: resolver,
		locks:    make(map[string]*sync.Mutex),
	}
}

// ImportFile resolves and persists one extracted file in a single
// transaction. Transaction failures are not retried; the caller
// reports them per file. catalog.ErrUnavailable passes through
// unwrapped so the run can abort.
func (p *Persister) ImportFile(ctx context.Context, m *meta.FileMetadata, sizeBytes, modifiedUnix int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := p.coordinateLock(coordinateKey(m))
	lock.Lock()
	defer lock.Unlock()

	err := p.store.Transaction(func(tx *sql.Tx) error {
		res, err := p.resolver.Resolve(tx, m)
		if err != nil {
			return err
		}
		return p.upsertLibraryFile(tx, res, m, sizeBytes, modifiedUnix)
	})
	if err != nil {
		if errors.Is(err, catalog.ErrUnavailable) {
			return err
		}
		return fmt.Errorf("failed to persist %s: %w", m.Path, err)
	}
	return nil
}

// upsertLibraryFile links the file row to its track, applying the
// newest-wins rule when the track already belongs to another path.
func (p *Persister) upsertLibraryFile(tx *sql.Tx, res *resolve.Resolved, m *meta.FileMetadata, sizeBytes, modifiedUnix int64) error {
	file := &catalog.LibraryFile{
		ReleaseTrackID:    res.Track.ID,
		Path:              m.Path,
		SizeBytes:         sizeBytes,
		ModifiedUnix:      modifiedUnix,
		DurationMs:        int64(m.DurationMs),
		BitrateKbps:       m.BitrateKbps,
		SampleRateHz:      m.SampleRateHz,
		Channels:          m.Channels,
		Fingerprint:       m.Fingerprint,
		BPM:               m.BPM,
		QualityScore:      m.QualityScore,
		QualityAssessment: m.QualityAssessment,
	}

	byPath, err := p.store.GetLibraryFileByPath(tx, m.Path)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return err
	}
	byTrack, err := p.store.GetLibraryFileByTrack(tx, res.Track.ID)
	if err != nil && !errors.Is(err, catalog.ErrNotFound) {
		return err
	}

	switch {
	case byPath == nil && byTrack == nil:
		return p.store.InsertLibraryFile(tx, file)

	case byPath != nil && byTrack != nil && byPath.ID == byTrack.ID:
		// Re-scan of a known file at its known coordinate
		file.ID = byPath.ID
		return p.store.UpdateLibraryFile(tx, file)

	case byPath != nil && byTrack == nil:
		// Known file moved to a different coordinate
		file.ID = byPath.ID
		return p.store.UpdateLibraryFile(tx, file)

	case byPath == nil:
		// Coordinate collision: this file supersedes the track's
		// previous link. The superseded path stays on disk; its row
		// is taken over rather than duplicated.
		util.DebugLog("Track collision at %s: %s supersedes %s",
			coordinateKey(m), m.Path, byTrack.Path)
		file.ID = byTrack.ID
		return p.store.UpdateLibraryFile(tx, file)

	default:
		// Both rows exist and differ: the path's old coordinate link
		// is stale, and the track's current holder loses to this
		// file. One row has to go to keep path and track unique.
		if err := p.store.DeleteLibraryFile(tx, byPath.ID); err != nil {
			return err
		}
		file.ID = byTrack.ID
		return p.store.UpdateLibraryFile(tx, file)
	}
}

// coordinateLock returns the mutex for one coordinate key, creating
// it on first use. Locks are never removed; coordinates in one run
// number at most the files scanned.
func (p *Persister) coordinateLock(key string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()

	lock, ok := p.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		p.locks[key] = lock
	}
	return lock
}

// coordinateKey derives the pre-resolution identity of a file's track
// coordinate. Two files that would resolve to the same track always
// share a key.
func coordinateKey(m *meta.FileMetadata) string {
	artist := m.Artist
	if artist == "" {
		artist = m.AlbumArtist
	}
	disc := m.Disc
	if disc <= 0 {
		disc = 1
	}
	return strings.Join([]string{
		resolve.Fold(resolve.OrUnknown(artist)),
		resolve.Fold(resolve.OrUnknown(m.Album)),
		fmt.Sprintf("%d:%d", disc, m.Track),
	}, "|")
}

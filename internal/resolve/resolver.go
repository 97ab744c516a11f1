// Package resolve maps extracted file metadata onto catalog entities.
// Resolution reuses existing artists, releases and tracks wherever an
// exact (case-insensitive) match exists and creates the rest, so
// repeated scans converge on one identity per artist and release.
package resolve

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/franz/music-indexer/internal/catalog"
	"github.com/franz/music-indexer/internal/meta"
	"github.com/franz/music-indexer/internal/util"
)

// Resolved is the entity tuple one file maps onto. Created* report
// whether the entity was minted during this resolution or reused.
type Resolved struct {
	Artist  *catalog.Artist
	Song    *catalog.Song
	Release *catalog.Release
	Track   *catalog.ReleaseTrack

	CreatedArtist  bool
	CreatedSong    bool
	CreatedRelease bool
	CreatedTrack   bool
}

// Resolver resolves metadata against a catalog store
type Resolver struct {
	store *catalog.Store
}

// New creates a resolver backed by store
func New(store *catalog.Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve maps m onto its entity tuple inside tx. Value precedence is
// embedded tag, then filename inference (already merged into m by the
// extractor), then the Unknown placeholder.
func (r *Resolver) Resolve(tx *sql.Tx, m *meta.FileMetadata) (*Resolved, error) {
	res := &Resolved{}

	if err := r.resolveArtist(tx, m, res); err != nil {
		return nil, err
	}
	if err := r.resolveRelease(tx, m, res); err != nil {
		return nil, err
	}
	if err := r.resolveTrack(tx, m, res); err != nil {
		return nil, err
	}

	return res, nil
}

// resolveArtist reuses an artist matching the candidate name or any
// recorded variation; otherwise it creates one, keeping the raw
// pre-normalization spelling as the first variation when it differs.
func (r *Resolver) resolveArtist(tx *sql.Tx, m *meta.FileMetadata, res *Resolved) error {
	raw := m.Artist
	if raw == "" {
		raw = m.AlbumArtist
	}
	canonical := OrUnknown(raw)

	artist, err := r.store.FindArtistByName(tx, canonical)
	if err == nil {
		res.Artist = artist
		return r.store.TouchArtist(tx, artist.ID)
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("artist lookup failed: %w", err)
	}

	artist = &catalog.Artist{Name: canonical}
	if raw != "" && raw != canonical {
		artist.Variations = []string{raw}
	}
	if err := r.store.InsertArtist(tx, artist); err != nil {
		return fmt.Errorf("artist create failed: %w", err)
	}
	util.DebugLog("Created artist %q", canonical)

	res.Artist = artist
	res.CreatedArtist = true
	return nil
}

// resolveRelease reuses a release with the same title credited to the
// resolved artist, or creates one carrying the file's date and genre.
func (r *Resolver) resolveRelease(tx *sql.Tx, m *meta.FileMetadata, res *Resolved) error {
	title := OrUnknown(m.Album)

	release, err := r.store.FindReleaseByTitleArtist(tx, title, res.Artist.ID)
	if err == nil {
		res.Release = release
		return r.store.TouchRelease(tx, release.ID)
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("release lookup failed: %w", err)
	}

	release = &catalog.Release{
		Title:       title,
		ReleaseDate: Clean(m.Date),
	}
	if genre := Clean(m.Genre); genre != "" {
		release.Genres = []string{genre}
	}
	if err := r.store.InsertRelease(tx, release); err != nil {
		return fmt.Errorf("release create failed: %w", err)
	}
	if err := r.store.AddReleaseMainArtist(tx, release.ID, res.Artist.ID); err != nil {
		return err
	}
	util.DebugLog("Created release %q by %q", title, res.Artist.Name)

	res.Release = release
	res.CreatedRelease = true
	return nil
}

// resolveTrack places the file at its (release, disc, track)
// coordinate. An occupied slot is reused together with its song; an
// empty slot gets a fresh song and track. The disc number defaults
// to 1 when tags carry none.
func (r *Resolver) resolveTrack(tx *sql.Tx, m *meta.FileMetadata, res *Resolved) error {
	disc := m.Disc
	if disc <= 0 {
		disc = 1
	}

	track, err := r.store.GetTrackAt(tx, res.Release.ID, disc, m.Track)
	if err == nil {
		song, err := r.store.GetSong(tx, track.SongID)
		if err != nil {
			return fmt.Errorf("song lookup failed: %w", err)
		}
		if err := r.store.TouchTrack(tx, track.ID); err != nil {
			return err
		}
		res.Track = track
		res.Song = song
		return nil
	}
	if !errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("track lookup failed: %w", err)
	}

	title := Clean(m.Title)
	if title == "" {
		title = Unknown
	}

	song := &catalog.Song{Title: title}
	if err := r.store.InsertSong(tx, song); err != nil {
		return fmt.Errorf("song create failed: %w", err)
	}

	track = &catalog.ReleaseTrack{
		ReleaseID:   res.Release.ID,
		SongID:      song.ID,
		DiscNumber:  disc,
		TrackNumber: m.Track,
	}
	if err := r.store.InsertTrack(tx, track); err != nil {
		return fmt.Errorf("track create failed: %w", err)
	}
	if err := r.store.AddTrackArtist(tx, &catalog.ReleaseTrackArtist{
		ReleaseTrackID: track.ID,
		ArtistID:       res.Artist.ID,
		Role:           catalog.RolePerformer,
	}); err != nil {
		return err
	}

	res.Song = song
	res.CreatedSong = true
	res.Track = track
	res.CreatedTrack = true
	return nil
}

package catalog

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// FindReleaseByTitleArtist looks up a release by title (case-insensitive)
// credited to the given main artist. Returns ErrNotFound when absent.
func (s *Store) FindReleaseByTitleArtist(q querier, title, artistID string) (*Release, error) {
	if q == nil {
		q = s.db
	}

	r := &Release{}
	err := q.QueryRow(`
		SELECT r.id, r.title, COALESCE(r.release_date, ''), COALESCE(r.country, ''),
		       COALESCE(r.notes, ''), r.created_at, r.updated_at
		FROM releases r
		JOIN release_main_artists rma ON rma.release_id = r.id
		WHERE r.title = ? COLLATE NOCASE AND rma.artist_id = ?
		LIMIT 1
	`, title, artistID).Scan(&r.ID, &r.Title, &r.ReleaseDate, &r.Country, &r.Notes,
		&r.CreatedAt, &r.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find release: %w", err)
	}
	return r, nil
}

// InsertRelease creates a new release with its type/genre/style sets
func (s *Store) InsertRelease(q querier, r *Release) error {
	if q == nil {
		q = s.db
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}

	_, err := q.Exec(`
		INSERT INTO releases (id, title, release_date, country, notes)
		VALUES (?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''))
	`, r.ID, r.Title, r.ReleaseDate, r.Country, r.Notes)
	if err != nil {
		return fmt.Errorf("failed to insert release: %w", err)
	}

	for _, kind := range r.Types {
		if err := s.AddReleaseType(q, r.ID, kind); err != nil {
			return err
		}
	}
	for _, genre := range r.Genres {
		if err := s.AddReleaseGenre(q, r.ID, genre); err != nil {
			return err
		}
	}
	for _, style := range r.Styles {
		if err := s.AddReleaseStyle(q, r.ID, style); err != nil {
			return err
		}
	}

	return nil
}

// AddReleaseType records a release type. Duplicate pairs are ignored.
func (s *Store) AddReleaseType(q querier, releaseID, kind string) error {
	if q == nil {
		q = s.db
	}
	_, err := q.Exec(`
		INSERT INTO release_types (id, release_id, kind)
		VALUES (?, ?, ?)
		ON CONFLICT (release_id, kind) DO NOTHING
	`, uuid.NewString(), releaseID, kind)
	if err != nil {
		return fmt.Errorf("failed to add release type: %w", err)
	}
	return nil
}

// AddReleaseGenre records a genre. Duplicate pairs are ignored.
func (s *Store) AddReleaseGenre(q querier, releaseID, genre string) error {
	if q == nil {
		q = s.db
	}
	_, err := q.Exec(`
		INSERT INTO release_genres (id, release_id, genre)
		VALUES (?, ?, ?)
		ON CONFLICT (release_id, genre) DO NOTHING
	`, uuid.NewString(), releaseID, genre)
	if err != nil {
		return fmt.Errorf("failed to add release genre: %w", err)
	}
	return nil
}

// AddReleaseStyle records a style. Duplicate pairs are ignored.
func (s *Store) AddReleaseStyle(q querier, releaseID, style string) error {
	if q == nil {
		q = s.db
	}
	_, err := q.Exec(`
		INSERT INTO release_styles (id, release_id, style)
		VALUES (?, ?, ?)
		ON CONFLICT (release_id, style) DO NOTHING
	`, uuid.NewString(), releaseID, style)
	if err != nil {
		return fmt.Errorf("failed to add release style: %w", err)
	}
	return nil
}

// AddReleaseMainArtist credits a main artist. Duplicate pairs are ignored.
func (s *Store) AddReleaseMainArtist(q querier, releaseID, artistID string) error {
	if q == nil {
		q = s.db
	}
	_, err := q.Exec(`
		INSERT INTO release_main_artists (id, release_id, artist_id)
		VALUES (?, ?, ?)
		ON CONFLICT (release_id, artist_id) DO NOTHING
	`, uuid.NewString(), releaseID, artistID)
	if err != nil {
		return fmt.Errorf("failed to add release main artist: %w", err)
	}
	return nil
}

// AddArtwork records artwork for a release keyed by path.
// The same path never produces a second row for the same release.
func (s *Store) AddArtwork(q querier, art *Artwork) error {
	if q == nil {
		q = s.db
	}
	if art.ID == "" {
		art.ID = uuid.NewString()
	}
	_, err := q.Exec(`
		INSERT INTO artworks (id, release_id, path, mime_type, description, hash, credits)
		VALUES (?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''), NULLIF(?, ''))
		ON CONFLICT (release_id, path) DO NOTHING
	`, art.ID, art.ReleaseID, art.Path, art.MimeType, art.Description, art.Hash, art.Credits)
	if err != nil {
		return fmt.Errorf("failed to add artwork: %w", err)
	}
	return nil
}

// TouchRelease bumps updated_at on a re-scan match
func (s *Store) TouchRelease(q querier, releaseID string) error {
	if q == nil {
		q = s.db
	}
	_, err := q.Exec(`
		UPDATE releases SET updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, releaseID)
	if err != nil {
		return fmt.Errorf("failed to touch release: %w", err)
	}
	return nil
}

// ListReleases returns all releases ordered by title
func (s *Store) ListReleases() ([]*Release, error) {
	rows, err := s.db.Query(`
		SELECT id, title, COALESCE(release_date, ''), COALESCE(country, ''),
		       COALESCE(notes, ''), created_at, updated_at
		FROM releases ORDER BY title COLLATE NOCASE
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query releases: %w", err)
	}
	defer rows.Close()

	var releases []*Release
	for rows.Next() {
		r := &Release{}
		if err := rows.Scan(&r.ID, &r.Title, &r.ReleaseDate, &r.Country, &r.Notes,
			&r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan release: %w", err)
		}
		releases = append(releases, r)
	}
	return releases, rows.Err()
}

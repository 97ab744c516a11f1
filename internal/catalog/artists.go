package catalog

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// FindArtistByName looks up an artist whose canonical name or recorded
// variation matches name case-insensitively. Returns ErrNotFound when
// no artist matches.
func (s *Store) FindArtistByName(q querier, name string) (*Artist, error) {
	if q == nil {
		q = s.db
	}

	a := &Artist{}
	err := q.QueryRow(`
		SELECT id, name, COALESCE(bio, ''), created_at, updated_at
		FROM artists
		WHERE name = ? COLLATE NOCASE
	`, name).Scan(&a.ID, &a.Name, &a.Bio, &a.CreatedAt, &a.UpdatedAt)

	if err == sql.ErrNoRows {
		// Fall back to the variation table
		err = q.QueryRow(`
			SELECT ar.id, ar.name, COALESCE(ar.bio, ''), ar.created_at, ar.updated_at
			FROM artists ar
			JOIN artist_variations av ON av.artist_id = ar.id
			WHERE av.variation = ? COLLATE NOCASE
			LIMIT 1
		`, name).Scan(&a.ID, &a.Name, &a.Bio, &a.CreatedAt, &a.UpdatedAt)
	}

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find artist: %w", err)
	}

	return a, nil
}

// InsertArtist creates a new artist row. A missing ID is minted here.
func (s *Store) InsertArtist(q querier, a *Artist) error {
	if q == nil {
		q = s.db
	}
	if a.ID == "" {
		a.ID = uuid.NewString()
	}

	_, err := q.Exec(`
		INSERT INTO artists (id, name, bio) VALUES (?, ?, NULLIF(?, ''))
	`, a.ID, a.Name, a.Bio)
	if err != nil {
		return fmt.Errorf("failed to insert artist: %w", err)
	}

	for _, variation := range a.Variations {
		if err := s.AddArtistVariation(q, a.ID, variation); err != nil {
			return err
		}
	}
	for _, site := range a.Sites {
		if err := s.AddArtistSite(q, a.ID, site); err != nil {
			return err
		}
	}

	return nil
}

// AddArtistVariation records a name variation. Duplicate pairs are ignored.
func (s *Store) AddArtistVariation(q querier, artistID, variation string) error {
	if q == nil {
		q = s.db
	}

	_, err := q.Exec(`
		INSERT INTO artist_variations (id, artist_id, variation)
		VALUES (?, ?, ?)
		ON CONFLICT (artist_id, variation) DO NOTHING
	`, uuid.NewString(), artistID, variation)
	if err != nil {
		return fmt.Errorf("failed to add artist variation: %w", err)
	}
	return nil
}

// AddArtistSite records a site URL for an artist. Duplicate pairs are ignored.
func (s *Store) AddArtistSite(q querier, artistID, url string) error {
	if q == nil {
		q = s.db
	}

	_, err := q.Exec(`
		INSERT INTO artist_sites (id, artist_id, url)
		VALUES (?, ?, ?)
		ON CONFLICT (artist_id, url) DO NOTHING
	`, uuid.NewString(), artistID, url)
	if err != nil {
		return fmt.Errorf("failed to add artist site: %w", err)
	}
	return nil
}

// TouchArtist bumps updated_at on a re-scan match
func (s *Store) TouchArtist(q querier, artistID string) error {
	if q == nil {
		q = s.db
	}

	_, err := q.Exec(`
		UPDATE artists SET updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, artistID)
	if err != nil {
		return fmt.Errorf("failed to touch artist: %w", err)
	}
	return nil
}

// GetArtist retrieves an artist by id, including variations and sites
func (s *Store) GetArtist(id string) (*Artist, error) {
	a := &Artist{}
	err := s.db.QueryRow(`
		SELECT id, name, COALESCE(bio, ''), created_at, updated_at
		FROM artists WHERE id = ?
	`, id).Scan(&a.ID, &a.Name, &a.Bio, &a.CreatedAt, &a.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get artist: %w", err)
	}

	if err := s.loadArtistDetails(a); err != nil {
		return nil, err
	}

	return a, nil
}

// ListArtists returns all artists ordered by name
func (s *Store) ListArtists() ([]*Artist, error) {
	rows, err := s.db.Query(`
		SELECT id, name, COALESCE(bio, ''), created_at, updated_at
		FROM artists ORDER BY name COLLATE NOCASE
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query artists: %w", err)
	}
	defer rows.Close()

	var artists []*Artist
	for rows.Next() {
		a := &Artist{}
		if err := rows.Scan(&a.ID, &a.Name, &a.Bio, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan artist: %w", err)
		}
		artists = append(artists, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, a := range artists {
		if err := s.loadArtistDetails(a); err != nil {
			return nil, err
		}
	}

	return artists, nil
}

func (s *Store) loadArtistDetails(a *Artist) error {
	rows, err := s.db.Query(`
		SELECT variation FROM artist_variations WHERE artist_id = ? ORDER BY variation
	`, a.ID)
	if err != nil {
		return fmt.Errorf("failed to query variations: %w", err)
	}
	defer rows.Close()

	a.Variations = a.Variations[:0]
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return err
		}
		a.Variations = append(a.Variations, v)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	siteRows, err := s.db.Query(`
		SELECT url FROM artist_sites WHERE artist_id = ? ORDER BY url
	`, a.ID)
	if err != nil {
		return fmt.Errorf("failed to query sites: %w", err)
	}
	defer siteRows.Close()

	a.Sites = a.Sites[:0]
	for siteRows.Next() {
		var u string
		if err := siteRows.Scan(&u); err != nil {
			return err
		}
		a.Sites = append(a.Sites, u)
	}
	return siteRows.Err()
}

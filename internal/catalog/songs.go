package catalog

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// InsertSong creates a new song row. Titles are deliberately not unique:
// two songs with the same title are distinct recordings.
func (s *Store) InsertSong(q querier, song *Song) error {
	if q == nil {
		q = s.db
	}
	if song.ID == "" {
		song.ID = uuid.NewString()
	}

	_, err := q.Exec(`
		INSERT INTO songs (id, title, acoustid) VALUES (?, ?, NULLIF(?, ''))
	`, song.ID, song.Title, song.AcoustID)
	if err != nil {
		return fmt.Errorf("failed to insert song: %w", err)
	}
	return nil
}

// TouchSong bumps updated_at on a re-scan match
func (s *Store) TouchSong(q querier, songID string) error {
	if q == nil {
		q = s.db
	}

	_, err := q.Exec(`
		UPDATE songs SET updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, songID)
	if err != nil {
		return fmt.Errorf("failed to touch song: %w", err)
	}
	return nil
}

// GetSong retrieves a song by id
func (s *Store) GetSong(q querier, id string) (*Song, error) {
	if q == nil {
		q = s.db
	}

	song := &Song{}
	err := q.QueryRow(`
		SELECT id, title, COALESCE(acoustid, ''), created_at, updated_at
		FROM songs WHERE id = ?
	`, id).Scan(&song.ID, &song.Title, &song.AcoustID, &song.CreatedAt, &song.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get song: %w", err)
	}
	return song, nil
}

// ListSongs returns all songs ordered by title
func (s *Store) ListSongs() ([]*Song, error) {
	rows, err := s.db.Query(`
		SELECT id, title, COALESCE(acoustid, ''), created_at, updated_at
		FROM songs ORDER BY title COLLATE NOCASE
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	var songs []*Song
	for rows.Next() {
		song := &Song{}
		if err := rows.Scan(&song.ID, &song.Title, &song.AcoustID, &song.CreatedAt, &song.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan song: %w", err)
		}
		songs = append(songs, song)
	}
	return songs, rows.Err()
}

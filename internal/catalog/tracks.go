package catalog

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// GetTrackAt looks up the release track at a (release, disc, track)
// coordinate. Returns ErrNotFound when the slot is empty.
func (s *Store) GetTrackAt(q querier, releaseID string, disc, track int) (*ReleaseTrack, error) {
	if q == nil {
		q = s.db
	}

	t := &ReleaseTrack{}
	err := q.QueryRow(`
		SELECT id, release_id, song_id, disc_number, track_number,
		       COALESCE(title_override, ''), created_at, updated_at
		FROM release_tracks
		WHERE release_id = ? AND disc_number = ? AND track_number = ?
	`, releaseID, disc, track).Scan(&t.ID, &t.ReleaseID, &t.SongID,
		&t.DiscNumber, &t.TrackNumber, &t.TitleOverride, &t.CreatedAt, &t.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get track: %w", err)
	}
	return t, nil
}

// InsertTrack creates a release track at its coordinate. The schema's
// UNIQUE (release, disc, track) constraint guards against double slots.
func (s *Store) InsertTrack(q querier, t *ReleaseTrack) error {
	if q == nil {
		q = s.db
	}
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.DiscNumber <= 0 {
		t.DiscNumber = 1
	}

	_, err := q.Exec(`
		INSERT INTO release_tracks (id, release_id, song_id, disc_number, track_number, title_override)
		VALUES (?, ?, ?, ?, ?, NULLIF(?, ''))
	`, t.ID, t.ReleaseID, t.SongID, t.DiscNumber, t.TrackNumber, t.TitleOverride)
	if err != nil {
		return fmt.Errorf("failed to insert track: %w", err)
	}
	return nil
}

// TouchTrack bumps updated_at on a re-scan match
func (s *Store) TouchTrack(q querier, trackID string) error {
	if q == nil {
		q = s.db
	}
	_, err := q.Exec(`
		UPDATE release_tracks SET updated_at = CURRENT_TIMESTAMP WHERE id = ?
	`, trackID)
	if err != nil {
		return fmt.Errorf("failed to touch track: %w", err)
	}
	return nil
}

// AddTrackArtist credits an artist on a track with a role.
// Duplicate (track, artist, role) triples are ignored.
func (s *Store) AddTrackArtist(q querier, credit *ReleaseTrackArtist) error {
	if q == nil {
		q = s.db
	}
	if credit.ID == "" {
		credit.ID = uuid.NewString()
	}

	_, err := q.Exec(`
		INSERT INTO release_track_artists (id, release_track_id, artist_id, role, position)
		VALUES (?, ?, ?, ?, NULLIF(?, 0))
		ON CONFLICT (release_track_id, artist_id, role) DO NOTHING
	`, credit.ID, credit.ReleaseTrackID, credit.ArtistID, credit.Role, credit.Position)
	if err != nil {
		return fmt.Errorf("failed to add track artist: %w", err)
	}
	return nil
}

// CountTracks returns the number of release tracks in the catalog
func (s *Store) CountTracks() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM release_tracks").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tracks: %w", err)
	}
	return count, nil
}

package catalog

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

const libraryFileColumns = `
	id, release_track_id, path, size_bytes, modified_unix, duration_ms,
	COALESCE(bitrate_kbps, 0), COALESCE(sample_rate_hz, 0), COALESCE(channels, 0),
	COALESCE(fingerprint, ''), COALESCE(bpm, 0), COALESCE(quality_score, 0),
	COALESCE(quality_assessment, ''), features, added_at, updated_at`

func scanLibraryFile(row interface{ Scan(...any) error }) (*LibraryFile, error) {
	f := &LibraryFile{}
	err := row.Scan(&f.ID, &f.ReleaseTrackID, &f.Path, &f.SizeBytes, &f.ModifiedUnix,
		&f.DurationMs, &f.BitrateKbps, &f.SampleRateHz, &f.Channels,
		&f.Fingerprint, &f.BPM, &f.QualityScore, &f.QualityAssessment,
		&f.Features, &f.AddedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetLibraryFileByPath retrieves a library file by its unique path
func (s *Store) GetLibraryFileByPath(q querier, path string) (*LibraryFile, error) {
	if q == nil {
		q = s.db
	}

	f, err := scanLibraryFile(q.QueryRow(
		`SELECT `+libraryFileColumns+` FROM library_files WHERE path = ?`, path))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get library file: %w", err)
	}
	return f, nil
}

// GetLibraryFileByTrack retrieves the library file linked to a track
func (s *Store) GetLibraryFileByTrack(q querier, trackID string) (*LibraryFile, error) {
	if q == nil {
		q = s.db
	}

	f, err := scanLibraryFile(q.QueryRow(
		`SELECT `+libraryFileColumns+` FROM library_files WHERE release_track_id = ?`, trackID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get library file: %w", err)
	}
	return f, nil
}

// InsertLibraryFile creates a new library file row
func (s *Store) InsertLibraryFile(q querier, f *LibraryFile) error {
	if q == nil {
		q = s.db
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}

	_, err := q.Exec(`
		INSERT INTO library_files (
			id, release_track_id, path, size_bytes, modified_unix, duration_ms,
			bitrate_kbps, sample_rate_hz, channels, fingerprint, bpm,
			quality_score, quality_assessment, features
		) VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, 0), NULLIF(?, 0), NULLIF(?, 0),
		          NULLIF(?, ''), NULLIF(?, 0), ?, NULLIF(?, ''), ?)
	`, f.ID, f.ReleaseTrackID, f.Path, f.SizeBytes, f.ModifiedUnix, f.DurationMs,
		f.BitrateKbps, f.SampleRateHz, f.Channels, f.Fingerprint, f.BPM,
		f.QualityScore, f.QualityAssessment, f.Features)
	if err != nil {
		return fmt.Errorf("failed to insert library file: %w", err)
	}
	return nil
}

// UpdateLibraryFile overwrites an existing row in full, keeping its id
// and added_at. This is the write behind both plain re-scans and the
// newest-wins track collision policy.
func (s *Store) UpdateLibraryFile(q querier, f *LibraryFile) error {
	if q == nil {
		q = s.db
	}

	_, err := q.Exec(`
		UPDATE library_files SET
			release_track_id = ?, path = ?, size_bytes = ?, modified_unix = ?,
			duration_ms = ?, bitrate_kbps = NULLIF(?, 0), sample_rate_hz = NULLIF(?, 0),
			channels = NULLIF(?, 0), fingerprint = NULLIF(?, ''), bpm = NULLIF(?, 0),
			quality_score = ?, quality_assessment = NULLIF(?, ''), features = ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, f.ReleaseTrackID, f.Path, f.SizeBytes, f.ModifiedUnix, f.DurationMs,
		f.BitrateKbps, f.SampleRateHz, f.Channels, f.Fingerprint, f.BPM,
		f.QualityScore, f.QualityAssessment, f.Features, f.ID)
	if err != nil {
		return fmt.Errorf("failed to update library file: %w", err)
	}
	return nil
}

// DeleteLibraryFile removes a row by id. Only the persister uses this,
// when a path's stale link must yield to a track it no longer owns.
func (s *Store) DeleteLibraryFile(q querier, id string) error {
	if q == nil {
		q = s.db
	}

	_, err := q.Exec(`DELETE FROM library_files WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete library file: %w", err)
	}
	return nil
}

// CountLibraryFiles returns the number of library files in the catalog
func (s *Store) CountLibraryFiles() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM library_files").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count library files: %w", err)
	}
	return count, nil
}

// ListLibraryFiles returns all library files ordered by path
func (s *Store) ListLibraryFiles() ([]*LibraryFile, error) {
	rows, err := s.db.Query(`SELECT ` + libraryFileColumns + ` FROM library_files ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("failed to query library files: %w", err)
	}
	defer rows.Close()

	var files []*LibraryFile
	for rows.Next() {
		f, err := scanLibraryFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan library file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// DuplicateFingerprints returns groups of library files sharing one
// acoustic fingerprint: same audio content under different paths.
func (s *Store) DuplicateFingerprints() (map[string][]*LibraryFile, error) {
	rows, err := s.db.Query(`
		SELECT ` + libraryFileColumns + `
		FROM library_files
		WHERE fingerprint IS NOT NULL AND fingerprint IN (
			SELECT fingerprint FROM library_files
			WHERE fingerprint IS NOT NULL
			GROUP BY fingerprint HAVING COUNT(*) > 1
		)
		ORDER BY fingerprint, path
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query duplicates: %w", err)
	}
	defer rows.Close()

	groups := make(map[string][]*LibraryFile)
	for rows.Next() {
		f, err := scanLibraryFile(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan library file: %w", err)
		}
		groups[f.Fingerprint] = append(groups[f.Fingerprint], f)
	}
	return groups, rows.Err()
}

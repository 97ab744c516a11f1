package catalog

// Schema v1 - the catalog's relational contract.
// Uniqueness constraints here are load-bearing: the resolver and
// persister rely on them for idempotent re-scans.
const schemaV1 = `
-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_version (
  version INTEGER PRIMARY KEY,
  applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS artists (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE COLLATE NOCASE,
  bio TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS artist_variations (
  id TEXT PRIMARY KEY,
  artist_id TEXT NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
  variation TEXT NOT NULL,
  UNIQUE (artist_id, variation)
);

CREATE INDEX IF NOT EXISTS idx_artist_variations_variation
  ON artist_variations(variation COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS artist_sites (
  id TEXT PRIMARY KEY,
  artist_id TEXT NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
  url TEXT NOT NULL,
  UNIQUE (artist_id, url)
);

-- Songs carry no title uniqueness: same-titled songs are distinct works
CREATE TABLE IF NOT EXISTS songs (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  acoustid TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_songs_title ON songs(title COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS releases (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  release_date TEXT,
  country TEXT,
  notes TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_releases_title ON releases(title COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS release_types (
  id TEXT PRIMARY KEY,
  release_id TEXT NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
  kind TEXT NOT NULL,
  UNIQUE (release_id, kind)
);

CREATE TABLE IF NOT EXISTS release_genres (
  id TEXT PRIMARY KEY,
  release_id TEXT NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
  genre TEXT NOT NULL,
  UNIQUE (release_id, genre)
);

CREATE TABLE IF NOT EXISTS release_styles (
  id TEXT PRIMARY KEY,
  release_id TEXT NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
  style TEXT NOT NULL,
  UNIQUE (release_id, style)
);

CREATE TABLE IF NOT EXISTS release_main_artists (
  id TEXT PRIMARY KEY,
  release_id TEXT NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
  artist_id TEXT NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
  UNIQUE (release_id, artist_id)
);

CREATE TABLE IF NOT EXISTS artworks (
  id TEXT PRIMARY KEY,
  release_id TEXT NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
  path TEXT NOT NULL,
  mime_type TEXT NOT NULL,
  description TEXT,
  hash TEXT,
  credits TEXT,
  UNIQUE (release_id, path)
);

CREATE TABLE IF NOT EXISTS release_tracks (
  id TEXT PRIMARY KEY,
  release_id TEXT NOT NULL REFERENCES releases(id) ON DELETE CASCADE,
  song_id TEXT NOT NULL REFERENCES songs(id) ON DELETE CASCADE,
  disc_number INTEGER NOT NULL DEFAULT 1,
  track_number INTEGER NOT NULL,
  title_override TEXT,
  created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  UNIQUE (release_id, disc_number, track_number)
);

CREATE TABLE IF NOT EXISTS release_track_artists (
  id TEXT PRIMARY KEY,
  release_track_id TEXT NOT NULL REFERENCES release_tracks(id) ON DELETE CASCADE,
  artist_id TEXT NOT NULL REFERENCES artists(id) ON DELETE CASCADE,
  role TEXT NOT NULL,
  position INTEGER,
  UNIQUE (release_track_id, artist_id, role)
);

-- One file per track, one track per file: release_track_id is unique here
CREATE TABLE IF NOT EXISTS library_files (
  id TEXT PRIMARY KEY,
  release_track_id TEXT NOT NULL UNIQUE REFERENCES release_tracks(id) ON DELETE CASCADE,
  path TEXT NOT NULL UNIQUE,
  size_bytes INTEGER NOT NULL,
  modified_unix INTEGER NOT NULL,
  duration_ms INTEGER NOT NULL DEFAULT 0,
  bitrate_kbps INTEGER,
  sample_rate_hz INTEGER,
  channels INTEGER,
  fingerprint TEXT,
  bpm REAL,
  quality_score REAL,
  quality_assessment TEXT,
  features BLOB,
  added_at DATETIME DEFAULT CURRENT_TIMESTAMP,
  updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_library_files_fingerprint
  ON library_files(fingerprint);
`

// Schema v2 - lookup indexes for the resolver's hot paths
const schemaV2 = `
CREATE INDEX IF NOT EXISTS idx_release_tracks_coord
  ON release_tracks(release_id, disc_number, track_number);
CREATE INDEX IF NOT EXISTS idx_release_main_artists_release
  ON release_main_artists(release_id);
CREATE INDEX IF NOT EXISTS idx_artist_variations_artist
  ON artist_variations(artist_id);
`

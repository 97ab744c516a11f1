package catalog

import "time"

// Artist is the identity that groups works, credits and name variations.
type Artist struct {
	ID         string
	Name       string
	Bio        string
	Variations []string
	Sites      []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Song is the abstract musical work. Duplicate titles are permitted:
// two songs with the same title are distinct recordings.
type Song struct {
	ID        string
	Title     string
	AcoustID  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Release is the published object grouping tracks: album, EP, single.
type Release struct {
	ID          string
	Title       string
	ReleaseDate string
	Country     string
	Notes       string
	Types       []string
	Genres      []string
	Styles      []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Artwork is an image associated with a release, stored by path only.
type Artwork struct {
	ID          string
	ReleaseID   string
	Path        string
	MimeType    string
	Description string
	Hash        string
	Credits     string
}

// ReleaseTrack places one song at a (disc, track) coordinate of a release.
type ReleaseTrack struct {
	ID            string
	ReleaseID     string
	SongID        string
	DiscNumber    int
	TrackNumber   int
	TitleOverride string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReleaseTrackArtist credits an artist on a track with a role.
type ReleaseTrackArtist struct {
	ID             string
	ReleaseTrackID string
	ArtistID       string
	Role           string
	Position       int
}

// Artist credit roles
const (
	RolePerformer = "performer"
	RoleFeatured  = "featured"
	RoleComposer  = "composer"
	RoleProducer  = "producer"
	RoleRemixer   = "remixer"
)

// LibraryFile is the on-disk file backing exactly one release track.
// Path is globally unique; the row is upserted by path on each scan.
type LibraryFile struct {
	ID                string
	ReleaseTrackID    string
	Path              string
	SizeBytes         int64
	ModifiedUnix      int64
	DurationMs        int64
	BitrateKbps       int
	SampleRateHz      int
	Channels          int
	Fingerprint       string
	BPM               float64
	QualityScore      float64
	QualityAssessment string
	Features          []byte
	AddedAt           time.Time
	UpdatedAt         time.Time
}

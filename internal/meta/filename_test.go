package meta

import "testing"

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name string
		path string
		want FilenameGuess
	}{
		{
			name: "track artist title",
			path: "07 - Boards of Canada - Roygbiv.mp3",
			want: FilenameGuess{Track: 7, Artist: "Boards of Canada", Title: "Roygbiv"},
		},
		{
			name: "track title",
			path: "03 - Telephasic Workshop.flac",
			want: FilenameGuess{Track: 3, Title: "Telephasic Workshop"},
		},
		{
			name: "underscore title",
			path: "01_Wildlife_Analysis.mp3",
			want: FilenameGuess{Track: 1, Title: "Wildlife Analysis"},
		},
		{
			name: "artist title",
			path: "Autechre - Bike.mp3",
			want: FilenameGuess{Artist: "Autechre", Title: "Bike"},
		},
		{
			name: "bare stem fallback",
			path: "recording.wav",
			want: FilenameGuess{Title: "recording"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseFilename(tt.path)
			if got.Track != tt.want.Track {
				t.Errorf("track = %d, want %d", got.Track, tt.want.Track)
			}
			if got.Artist != tt.want.Artist {
				t.Errorf("artist = %q, want %q", got.Artist, tt.want.Artist)
			}
			if got.Title != tt.want.Title {
				t.Errorf("title = %q, want %q", got.Title, tt.want.Title)
			}
		})
	}
}

func TestParseFilenameDirectoryHints(t *testing.T) {
	g := ParseFilename("/music/Radiohead/OK Computer (1997)/05 - Let Down.mp3")

	if g.Artist != "Radiohead" {
		t.Errorf("artist = %q, want Radiohead", g.Artist)
	}
	if g.Album != "OK Computer" {
		t.Errorf("album = %q, want OK Computer", g.Album)
	}
	if g.Year != "1997" {
		t.Errorf("year = %q, want 1997", g.Year)
	}
	if g.Track != 5 {
		t.Errorf("track = %d, want 5", g.Track)
	}
}

func TestParseFilenameDiscFolder(t *testing.T) {
	g := ParseFilename("/music/Artist/Album/Disc 2/01 - Opener.flac")

	if g.Disc != 2 {
		t.Errorf("disc = %d, want 2", g.Disc)
	}
	if g.Album != "Album" {
		t.Errorf("album = %q, want Album (disc folder skipped)", g.Album)
	}
	if g.Artist != "Artist" {
		t.Errorf("artist = %q, want Artist", g.Artist)
	}
}

func TestParseFilenameYearPrefixAlbum(t *testing.T) {
	g := ParseFilename("/music/Artist/2004 - Album Name/02 - Song.mp3")

	if g.Year != "2004" {
		t.Errorf("year = %q, want 2004", g.Year)
	}
	if g.Album != "Album Name" {
		t.Errorf("album = %q, want Album Name", g.Album)
	}
}

func TestParseFilenameEmbeddedTagWinsViaOverlayOrder(t *testing.T) {
	// applyFilenameGuess only fills holes
	m := &FileMetadata{Title: "Tagged Title", Track: 9}
	applyFilenameGuess(m, ParseFilename("/music/A/B/01 - Other.mp3"))

	if m.Title != "Tagged Title" {
		t.Errorf("title = %q, tag value must win", m.Title)
	}
	if m.Track != 9 {
		t.Errorf("track = %d, tag value must win", m.Track)
	}
	if m.Album != "B" {
		t.Errorf("album = %q, want filename fallback B", m.Album)
	}
}

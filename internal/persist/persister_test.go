package persist

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/franz/music-indexer/internal/catalog"
	"github.com/franz/music-indexer/internal/meta"
	"github.com/franz/music-indexer/internal/resolve"
)

func newTestPersister(t *testing.T) (*catalog.Store, *Persister) {
	t.Helper()

	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store, New(store, resolve.New(store))
}

func fileMeta(path, artist, album, title string, track int) *meta.FileMetadata {
	return &meta.FileMetadata{
		Path:   path,
		Artist: artist,
		Album:  album,
		Title:  title,
		Track:  track,
	}
}

func TestImportFileCreatesGraph(t *testing.T) {
	store, p := newTestPersister(t)

	m := fileMeta("/music/a.flac", "Burial", "Untrue", "Archangel", 2)
	m.DurationMs = 238000
	m.Fingerprint = "fp-a"

	if err := p.ImportFile(context.Background(), m, 1000, 42); err != nil {
		t.Fatalf("ImportFile failed: %v", err)
	}

	file, err := store.GetLibraryFileByPath(nil, "/music/a.flac")
	if err != nil {
		t.Fatalf("library file missing: %v", err)
	}
	if file.DurationMs != 238000 || file.SizeBytes != 1000 || file.ModifiedUnix != 42 {
		t.Errorf("file row = %+v", file)
	}

	if _, err := store.FindArtistByName(nil, "Burial"); err != nil {
		t.Errorf("artist missing: %v", err)
	}
}

func TestImportFileIdempotent(t *testing.T) {
	store, p := newTestPersister(t)

	m := fileMeta("/music/a.flac", "A", "Album", "Song", 1)
	for i := 0; i < 3; i++ {
		if err := p.ImportFile(context.Background(), m, 100, int64(i)); err != nil {
			t.Fatalf("import %d failed: %v", i, err)
		}
	}

	count, err := store.CountLibraryFiles()
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Errorf("library files = %d, want 1 after re-imports", count)
	}

	tracks, err := store.CountTracks()
	if err != nil {
		t.Fatal(err)
	}
	if tracks != 1 {
		t.Errorf("tracks = %d, want 1", tracks)
	}

	file, _ := store.GetLibraryFileByPath(nil, "/music/a.flac")
	if file.ModifiedUnix != 2 {
		t.Errorf("modified = %d, want latest value 2", file.ModifiedUnix)
	}
}

func TestImportFileCollisionNewestWins(t *testing.T) {
	store, p := newTestPersister(t)

	first := fileMeta("/music/old.mp3", "A", "Album", "Song", 5)
	second := fileMeta("/music/new.flac", "A", "Album", "Song", 5)

	if err := p.ImportFile(context.Background(), first, 100, 1); err != nil {
		t.Fatal(err)
	}
	if err := p.ImportFile(context.Background(), second, 200, 2); err != nil {
		t.Fatal(err)
	}

	count, _ := store.CountLibraryFiles()
	if count != 1 {
		t.Fatalf("library files = %d, want 1 (newest wins, never two rows)", count)
	}

	file, err := store.GetLibraryFileByPath(nil, "/music/new.flac")
	if err != nil {
		t.Fatalf("winning path missing: %v", err)
	}
	if file.SizeBytes != 200 {
		t.Errorf("winner size = %d, want 200", file.SizeBytes)
	}

	if _, err := store.GetLibraryFileByPath(nil, "/music/old.mp3"); err == nil {
		t.Error("superseded path still linked")
	}
}

func TestImportFileMovedCoordinate(t *testing.T) {
	store, p := newTestPersister(t)

	m := fileMeta("/music/a.flac", "A", "Album", "Song", 1)
	if err := p.ImportFile(context.Background(), m, 100, 1); err != nil {
		t.Fatal(err)
	}

	// Same path, retagged to a different track number
	moved := fileMeta("/music/a.flac", "A", "Album", "Song", 7)
	if err := p.ImportFile(context.Background(), moved, 100, 2); err != nil {
		t.Fatal(err)
	}

	count, _ := store.CountLibraryFiles()
	if count != 1 {
		t.Errorf("library files = %d, want 1", count)
	}

	file, err := store.GetLibraryFileByPath(nil, "/music/a.flac")
	if err != nil {
		t.Fatal(err)
	}

	var trackNum int
	err = store.DB().QueryRow(
		"SELECT track_number FROM release_tracks WHERE id = ?", file.ReleaseTrackID).Scan(&trackNum)
	if err != nil {
		t.Fatal(err)
	}
	if trackNum != 7 {
		t.Errorf("file linked to track %d, want the new coordinate 7", trackNum)
	}
}

func TestImportFileCancelled(t *testing.T) {
	store, p := newTestPersister(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.ImportFile(ctx, fileMeta("/music/a.flac", "A", "B", "C", 1), 1, 1)
	if err == nil {
		t.Fatal("cancelled import succeeded")
	}

	count, _ := store.CountLibraryFiles()
	if count != 0 {
		t.Errorf("cancelled import wrote %d rows", count)
	}
}

func TestImportFileConcurrentSameCoordinate(t *testing.T) {
	store, p := newTestPersister(t)

	var wg sync.WaitGroup
	paths := []string{"/music/a.mp3", "/music/b.mp3", "/music/c.mp3", "/music/d.mp3"}
	for _, path := range paths {
		wg.Add(1)
		go func(path string) {
			defer wg.Done()
			m := fileMeta(path, "A", "Album", "Song", 1)
			if err := p.ImportFile(context.Background(), m, 1, 1); err != nil {
				t.Errorf("import %s failed: %v", path, err)
			}
		}(path)
	}
	wg.Wait()

	count, _ := store.CountLibraryFiles()
	if count != 1 {
		t.Errorf("library files = %d, want exactly 1 for one coordinate", count)
	}
	tracks, _ := store.CountTracks()
	if tracks != 1 {
		t.Errorf("tracks = %d, want 1", tracks)
	}
}

func TestCoordinateKeyStable(t *testing.T) {
	a := coordinateKey(fileMeta("/x", "The Artist", "Album", "T", 3))
	b := coordinateKey(fileMeta("/y", "the  artist ", "ALBUM", "Other", 3))
	if a != b {
		t.Errorf("equivalent coordinates keyed differently: %q vs %q", a, b)
	}

	c := coordinateKey(fileMeta("/z", "The Artist", "Album", "T", 4))
	if a == c {
		t.Error("different track numbers shared a key")
	}
}

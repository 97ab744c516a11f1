package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/franz/music-indexer/internal/catalog"
	"github.com/franz/music-indexer/internal/config"
	"github.com/franz/music-indexer/internal/device"
	"github.com/franz/music-indexer/internal/meta"
	"github.com/franz/music-indexer/internal/persist"
	"github.com/franz/music-indexer/internal/progress"
	"github.com/franz/music-indexer/internal/resolve"
)

// stubExtractor derives metadata from the file name so the pipeline
// can run against plain fixture files. Paths whose base name starts
// with "corrupt" fail extraction.
type stubExtractor struct {
	mu    sync.Mutex
	track int

	// blocked/release, when set, stall the first Extract call so a
	// test can observe the orchestrator mid-run.
	blockOnce sync.Once
	blocked   chan struct{}
	release   chan struct{}
}

func (s *stubExtractor) Extract(path string) (*meta.FileMetadata, error) {
	if s.blocked != nil {
		s.blockOnce.Do(func() {
			close(s.blocked)
			<-s.release
		})
	}

	base := filepath.Base(path)
	if strings.HasPrefix(base, "corrupt") {
		return nil, fmt.Errorf("%w: %s", meta.ErrNoMetadata, path)
	}

	s.mu.Lock()
	s.track++
	track := s.track
	s.mu.Unlock()

	return &meta.FileMetadata{
		Path:   path,
		Artist: "Fixture Artist",
		Album:  "Fixture Album",
		Title:  strings.TrimSuffix(base, filepath.Ext(base)),
		Track:  track,
	}, nil
}

type eventSink struct {
	mu     sync.Mutex
	events []progress.Event
}

func (s *eventSink) Observe(e progress.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
}

func (s *eventSink) kinds() []progress.Kind {
	s.mu.Lock()
	defer s.mu.Unlock()
	kinds := make([]progress.Kind, len(s.events))
	for i, e := range s.events {
		kinds[i] = e.Kind
	}
	return kinds
}

func (s *eventSink) count(kind progress.Kind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

type fixture struct {
	root     string
	store    *catalog.Store
	sink     *eventSink
	reporter *progress.Reporter
	orch     *Orchestrator
}

func newFixture(t *testing.T, extractor Extractor, files ...string) *fixture {
	t.Helper()

	root := t.TempDir()
	for _, name := range files {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("fixture"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sink := &eventSink{}
	reporter := progress.NewReporter(sink)
	t.Cleanup(reporter.Close)

	cfg := config.Scanner{Roots: []string{root}, IgnoreHidden: true}
	persister := persist.New(store, resolve.New(store))
	orch := New(cfg, device.NewClassifier(), extractor, persister, reporter)

	return &fixture{root: root, store: store, sink: sink, reporter: reporter, orch: orch}
}

func TestRunImportsTreeWithPerFileErrors(t *testing.T) {
	f := newFixture(t, &stubExtractor{},
		"a.mp3", "b.flac", "sub/c.ogg", "corrupt.mp3",
		"notes.txt", // not audio, never counted
	)

	summary, err := f.orch.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	f.reporter.Close()

	if summary.Total != 4 || summary.Succeeded != 3 || summary.Failed != 1 {
		t.Errorf("summary = %+v, want total 4, succeeded 3, failed 1", summary)
	}
	if f.orch.State() != StateSucceeded {
		t.Errorf("state = %s, want succeeded", f.orch.State())
	}

	kinds := f.sink.kinds()
	if len(kinds) == 0 || kinds[0] != progress.KindStart {
		t.Fatalf("first event = %v, want start", kinds)
	}
	if kinds[len(kinds)-1] != progress.KindFinish {
		t.Errorf("last event = %s, want finish", kinds[len(kinds)-1])
	}
	if got := f.sink.count(progress.KindSuccess); got != 3 {
		t.Errorf("success events = %d, want 3", got)
	}
	if got := f.sink.count(progress.KindError); got != 1 {
		t.Errorf("error events = %d, want 1", got)
	}

	count, err := f.store.CountLibraryFiles()
	if err != nil {
		t.Fatal(err)
	}
	if count != 3 {
		t.Errorf("library files = %d, want 3", count)
	}
}

func TestRunRejectsConcurrentScan(t *testing.T) {
	ext := &stubExtractor{
		blocked: make(chan struct{}),
		release: make(chan struct{}),
	}
	f := newFixture(t, ext, "a.mp3")

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.Run(context.Background())
		done <- err
	}()

	select {
	case <-ext.blocked:
	case <-time.After(5 * time.Second):
		t.Fatal("scan never reached extraction")
	}

	if f.orch.State() != StateScanning {
		t.Errorf("state = %s, want scanning", f.orch.State())
	}
	if _, err := f.orch.Run(context.Background()); !errors.Is(err, ErrScanInProgress) {
		t.Errorf("second Run = %v, want ErrScanInProgress", err)
	}

	close(ext.release)
	if err := <-done; err != nil {
		t.Fatalf("first Run failed: %v", err)
	}

	// A finished orchestrator accepts another run
	if _, err := f.orch.Run(context.Background()); err != nil {
		t.Errorf("rerun after success failed: %v", err)
	}
}

func TestRunStopCancelsCleanly(t *testing.T) {
	ext := &stubExtractor{
		blocked: make(chan struct{}),
		release: make(chan struct{}),
	}
	f := newFixture(t, ext, "a.mp3", "b.mp3", "c.mp3")

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.Run(context.Background())
		done <- err
	}()

	select {
	case <-ext.blocked:
	case <-time.After(5 * time.Second):
		t.Fatal("scan never reached extraction")
	}

	f.orch.Stop()
	close(ext.release)

	err := <-done
	if err == nil {
		t.Fatal("cancelled Run reported success")
	}
	f.reporter.Close()

	if f.orch.State() != StateIdle {
		t.Errorf("state after cancellation = %s, want idle", f.orch.State())
	}
	if got := f.sink.count(progress.KindFinish); got != 1 {
		t.Errorf("finish events = %d, cancellation must still finish the run", got)
	}
}

func TestRunFailsWithoutRoots(t *testing.T) {
	store, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	reporter := progress.NewReporter()
	t.Cleanup(reporter.Close)

	orch := New(config.Scanner{}, device.NewClassifier(), &stubExtractor{},
		persist.New(store, resolve.New(store)), reporter)

	if _, err := orch.Run(context.Background()); !errors.Is(err, config.ErrNoRoots) {
		t.Errorf("Run = %v, want ErrNoRoots", err)
	}
	if orch.State() != StateFailed {
		t.Errorf("state = %s, want failed", orch.State())
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateIdle, "idle"},
		{StateScanning, "scanning"},
		{StateSucceeded, "succeeded"},
		{StateFailed, "failed"},
		{State(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

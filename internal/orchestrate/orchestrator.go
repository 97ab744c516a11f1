// Package orchestrate drives a full import run: classify devices,
// walk their roots, extract, resolve and persist, with worker pools
// sized per storage device.
package orchestrate

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sourcegraph/conc/pool"

	"github.com/franz/music-indexer/internal/catalog"
	"github.com/franz/music-indexer/internal/config"
	"github.com/franz/music-indexer/internal/device"
	"github.com/franz/music-indexer/internal/meta"
	"github.com/franz/music-indexer/internal/progress"
	"github.com/franz/music-indexer/internal/util"
	"github.com/franz/music-indexer/internal/walk"
)

// ErrScanInProgress rejects a second concurrent run
var ErrScanInProgress = errors.New("a scan is already in progress")

// Extractor turns a file path into metadata
type Extractor interface {
	Extract(path string) (*meta.FileMetadata, error)
}

// Persister writes one extracted file to the catalog
type Persister interface {
	ImportFile(ctx context.Context, m *meta.FileMetadata, sizeBytes, modifiedUnix int64) error
}

// State is the orchestrator lifecycle state
type State int32

const (
	StateIdle State = iota
	StateScanning
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Summary aggregates one run's outcome
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

// Orchestrator runs imports. One run at a time; a finished
// orchestrator can run again.
type Orchestrator struct {
	cfg        config.Scanner
	classifier *device.Classifier
	extractor  Extractor
	persister  Persister
	reporter   *progress.Reporter

	state atomic.Int32

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates an orchestrator
func New(cfg config.Scanner, classifier *device.Classifier, extractor Extractor, persister Persister, reporter *progress.Reporter) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		classifier: classifier,
		extractor:  extractor,
		persister:  persister,
		reporter:   reporter,
	}
}

// State returns the current lifecycle state
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Stop requests cooperative cancellation of the running scan.
// In-flight files finish or fail individually; no partial writes
// leak because persistence is transactional per file.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

// Run executes one full import. Only storage unavailability aborts
// the run; every per-file failure becomes an error event and the run
// carries on. A second Run while one is active returns
// ErrScanInProgress.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	if !o.state.CompareAndSwap(int32(StateIdle), int32(StateScanning)) &&
		!o.state.CompareAndSwap(int32(StateSucceeded), int32(StateScanning)) &&
		!o.state.CompareAndSwap(int32(StateFailed), int32(StateScanning)) {
		return nil, ErrScanInProgress
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
	defer func() {
		cancel()
		o.mu.Lock()
		o.cancel = nil
		o.mu.Unlock()
	}()

	cfg := o.cfg
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		o.state.Store(int32(StateFailed))
		return nil, err
	}

	walker := walk.New(cfg)
	groups := o.classifier.GroupRoots(cfg.Roots)
	if len(groups) == 0 {
		o.state.Store(int32(StateFailed))
		return nil, fmt.Errorf("no reachable roots among %v", cfg.Roots)
	}

	for _, g := range groups {
		if g.Device.Known {
			util.DebugLog("Device %s (%.0f MB/s): %d workers for %v",
				g.Device.ID, g.Device.BandwidthMBps, g.Workers(), g.Roots)
		} else {
			util.DebugLog("Device %q (bandwidth unknown): 1 worker for %v",
				g.Device.ID, g.Roots)
		}
	}

	var allRoots []string
	for _, g := range groups {
		allRoots = append(allRoots, g.Roots...)
	}
	total, err := walker.Count(runCtx, allRoots)
	if err != nil {
		o.state.Store(int32(StateIdle))
		return nil, err
	}

	o.reporter.Publish(progress.Event{Kind: progress.KindStart, Total: total})

	var succeeded, failed atomic.Int64

	groupPool := pool.New().WithContext(runCtx).WithCancelOnError()
	for _, g := range groups {
		g := g
		groupPool.Go(func(ctx context.Context) error {
			return o.runGroup(ctx, g, walker, &succeeded, &failed)
		})
	}
	runErr := groupPool.Wait()

	summary := &Summary{
		Total:     total,
		Succeeded: int(succeeded.Load()),
		Failed:    int(failed.Load()),
	}

	if runErr != nil && errors.Is(runErr, catalog.ErrUnavailable) {
		// Fatal: no finish event, the UI gets a failure instead
		o.state.Store(int32(StateFailed))
		return summary, runErr
	}

	o.reporter.Publish(progress.Event{Kind: progress.KindFinish})

	if runErr != nil {
		// Cancellation: the run ends cleanly but did not complete
		o.state.Store(int32(StateIdle))
		return summary, runErr
	}

	o.state.Store(int32(StateSucceeded))
	return summary, nil
}

// runGroup walks one device group's roots and feeds its worker pool,
// sized from the device's measured bandwidth.
func (o *Orchestrator) runGroup(ctx context.Context, g device.Group, walker *walk.Walker, succeeded, failed *atomic.Int64) error {
	entries := make(chan walk.Entry, 128)

	walkDone := make(chan error, 1)
	go func() {
		defer close(entries)
		for _, root := range g.Roots {
			if err := walker.Walk(ctx, root, entries); err != nil {
				walkDone <- err
				return
			}
		}
		walkDone <- nil
	}()

	workers := pool.New().WithMaxGoroutines(g.Workers()).WithContext(ctx).WithCancelOnError()
	for i := 0; i < g.Workers(); i++ {
		workers.Go(func(ctx context.Context) error {
			return o.worker(ctx, entries, succeeded, failed)
		})
	}
	if err := workers.Wait(); err != nil {
		return err
	}
	return <-walkDone
}

// worker drains entries, converting every per-file failure into an
// error event. Only catalog unavailability escapes as an error.
func (o *Orchestrator) worker(ctx context.Context, entries <-chan walk.Entry, succeeded, failed *atomic.Int64) error {
	for entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		if entry.Err != nil {
			failed.Add(1)
			o.reporter.Publish(progress.Event{
				Kind:  progress.KindError,
				Path:  entry.Path,
				Error: entry.Err.Error(),
			})
			continue
		}

		cand := entry.Candidate
		m, err := o.extractor.Extract(cand.Path)
		if err != nil {
			failed.Add(1)
			o.reporter.Publish(progress.Event{
				Kind:  progress.KindError,
				Path:  cand.Path,
				Error: err.Error(),
			})
			continue
		}

		if err := o.persister.ImportFile(ctx, m, cand.SizeBytes, cand.ModifiedUnix); err != nil {
			if errors.Is(err, catalog.ErrUnavailable) {
				return err
			}
			if errors.Is(err, context.Canceled) {
				return err
			}
			failed.Add(1)
			o.reporter.Publish(progress.Event{
				Kind:  progress.KindError,
				Path:  cand.Path,
				Error: err.Error(),
			})
			continue
		}

		succeeded.Add(1)
		o.reporter.Publish(progress.Event{
			Kind: progress.KindSuccess,
			Path: cand.Path,
		})
	}
	return nil
}

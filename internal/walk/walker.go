// Package walk streams audio file candidates out of a directory tree.
// Each walk starts from fresh state; nothing is remembered between
// scans, so moved or deleted files never leave phantom entries.
package walk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/franz/music-indexer/internal/config"
	"github.com/franz/music-indexer/internal/util"
)

// Candidate is a discovered audio file awaiting extraction
type Candidate struct {
	Path         string
	SizeBytes    int64
	ModifiedUnix int64
}

// Entry is one walker emission: either a candidate or a per-path
// error. Errors never abort the walk; unreadable directories are
// reported and their siblings still get visited.
type Entry struct {
	Candidate *Candidate
	Path      string
	Err       error
}

type fileIdent struct {
	dev uint64
	ino uint64
}

// Walker discovers audio files under configured roots
type Walker struct {
	extensions   map[string]bool
	ignoreHidden bool
	maxDepth     *uint
}

// New creates a Walker from scanner configuration. The configuration
// is normalized first, so extension matching is always lowercase and
// dot-free internally.
func New(cfg config.Scanner) *Walker {
	cfg.Normalize()
	return &Walker{
		extensions:   cfg.ExtensionSet(),
		ignoreHidden: cfg.IgnoreHidden,
		maxDepth:     cfg.MaxDepth,
	}
}

// IsAudioFile reports whether path carries a configured audio extension
func (w *Walker) IsAudioFile(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return false
	}
	return w.extensions[ext]
}

// Walk streams entries under root into out. Directory symlinks are
// followed, with a (device, inode) visited set breaking cycles.
// Returns ctx.Err() on cancellation, nil otherwise.
func (w *Walker) Walk(ctx context.Context, root string, out chan<- Entry) error {
	visited := make(map[fileIdent]bool)
	return w.walkDir(ctx, root, 0, visited, out)
}

func (w *Walker) walkDir(ctx context.Context, dir string, depth uint, visited map[fileIdent]bool, out chan<- Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Stat(dir)
	if err != nil {
		w.emit(ctx, out, Entry{Path: dir, Err: err})
		return nil
	}
	if !info.IsDir() {
		w.emit(ctx, out, Entry{Path: dir, Err: fmt.Errorf("not a directory")})
		return nil
	}

	// Symlink cycle guard. Directories without an inode identity
	// (non-unix) are walked without the guard.
	if dev, ino, ok := util.FileIdent(info); ok {
		id := fileIdent{dev: dev, ino: ino}
		if visited[id] {
			util.DebugLog("Skipping already-visited directory: %s", dir)
			return nil
		}
		visited[id] = true
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		w.emit(ctx, out, Entry{Path: dir, Err: err})
		return nil
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		name := entry.Name()
		if w.ignoreHidden && strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		isDir := entry.IsDir()
		if !isDir && entry.Type()&os.ModeSymlink != 0 {
			// Follow the link to see what it points at
			target, err := os.Stat(path)
			if err != nil {
				w.emit(ctx, out, Entry{Path: path, Err: err})
				continue
			}
			isDir = target.IsDir()
		}

		if isDir {
			if w.maxDepth != nil && depth+1 > *w.maxDepth {
				continue
			}
			if err := w.walkDir(ctx, path, depth+1, visited, out); err != nil {
				return err
			}
			continue
		}

		if !w.IsAudioFile(path) {
			continue
		}

		finfo, err := os.Stat(path)
		if err != nil {
			w.emit(ctx, out, Entry{Path: path, Err: err})
			continue
		}
		w.emit(ctx, out, Entry{
			Path: path,
			Candidate: &Candidate{
				Path:         path,
				SizeBytes:    finfo.Size(),
				ModifiedUnix: finfo.ModTime().Unix(),
			},
		})
	}

	return nil
}

func (w *Walker) emit(ctx context.Context, out chan<- Entry, e Entry) {
	select {
	case out <- e:
	case <-ctx.Done():
	}
}

// Count walks roots without emitting and returns the number of
// candidates. Used to size progress reporting before a scan starts.
func (w *Walker) Count(ctx context.Context, roots []string) (int, error) {
	out := make(chan Entry, 256)
	done := make(chan struct{})

	count := 0
	go func() {
		defer close(done)
		for e := range out {
			if e.Candidate != nil {
				count++
			}
		}
	}()

	var walkErr error
	for _, root := range roots {
		if err := w.Walk(ctx, root, out); err != nil {
			walkErr = err
			break
		}
	}
	close(out)
	<-done

	return count, walkErr
}

package progress

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/franz/music-indexer/internal/util"
)

// EventLog is an observer that appends every event to a timestamped
// JSONL file, one JSON object per line.
type EventLog struct {
	mu      sync.Mutex
	file    *os.File
	encoder *json.Encoder
	path    string
}

// NewEventLog creates a log file under outputDir
func NewEventLog(outputDir string) (*EventLog, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	path := filepath.Join(outputDir, fmt.Sprintf("import-%s.jsonl", timestamp))

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &EventLog{
		file:    file,
		encoder: json.NewEncoder(file),
		path:    path,
	}, nil
}

// Observe writes one event line
func (l *EventLog) Observe(e Event) {
	if l == nil || l.file == nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.encoder.Encode(e); err != nil {
		util.WarnLog("Failed to write event log entry: %v", err)
	}
}

// Path returns the log file location
func (l *EventLog) Path() string {
	return l.path
}

// Close flushes and closes the log file
func (l *EventLog) Close() error {
	if l == nil || l.file == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("failed to sync event log: %w", err)
	}
	if err := l.file.Close(); err != nil {
		return fmt.Errorf("failed to close event log: %w", err)
	}
	l.file = nil
	return nil
}

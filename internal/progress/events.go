// Package progress carries import lifecycle events from the pipeline
// to whoever is watching: the CLI progress bar, the JSONL event log,
// or a test collector.
package progress

import "time"

// Kind names an import lifecycle event
type Kind string

const (
	// KindStart opens a run and carries the candidate total
	KindStart Kind = "import:start"

	// KindSuccess reports one file persisted
	KindSuccess Kind = "import:success"

	// KindError reports one file failed and skipped
	KindError Kind = "import:error"

	// KindFinish closes every non-fatal run
	KindFinish Kind = "import:finish"
)

// Event is one import lifecycle notification
type Event struct {
	Kind      Kind      `json:"event"`
	Timestamp time.Time `json:"ts"`

	// Total is set on start events
	Total int `json:"total,omitempty"`

	// Path is set on success and error events
	Path string `json:"path,omitempty"`

	// Error is set on error events
	Error string `json:"error,omitempty"`
}

// Observer receives events in publication order
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to the Observer interface
type ObserverFunc func(Event)

// Observe calls f
func (f ObserverFunc) Observe(e Event) { f(e) }

package progress

import (
	"sync"
	"time"

	"github.com/franz/music-indexer/internal/util"
)

// defaultBufferSize bounds how many undelivered success events the
// reporter holds before shedding the oldest.
const defaultBufferSize = 1024

// Reporter fans events out to observers from a single dispatch
// goroutine, preserving publication order. Success events are
// load-shedding: when the buffer is full the oldest buffered success
// is dropped, because a slow observer must never stall the pipeline.
// Start, error and finish events are always delivered.
type Reporter struct {
	mu        sync.Mutex
	buf       []Event
	dropped   int
	observers []Observer

	wake chan struct{}
	done chan struct{}
	wg   sync.WaitGroup

	closeOnce sync.Once
}

// NewReporter starts a reporter delivering to observers
func NewReporter(observers ...Observer) *Reporter {
	r := &Reporter{
		observers: observers,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	r.wg.Add(1)
	go r.dispatch()
	return r
}

// Publish enqueues one event for delivery. Never blocks.
func (r *Reporter) Publish(e Event) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}

	r.mu.Lock()
	if len(r.buf) >= defaultBufferSize && !r.shedOldestSuccess() {
		if e.Kind == KindSuccess {
			// Full of undroppable events: shed the newcomer
			r.dropped++
			r.mu.Unlock()
			return
		}
		// Lifecycle and error events grow the buffer instead
	}
	r.buf = append(r.buf, e)
	r.mu.Unlock()
	r.signal()
}

// shedOldestSuccess removes the oldest buffered success event to make
// room. Returns false when the buffer holds none.
func (r *Reporter) shedOldestSuccess() bool {
	for i, buffered := range r.buf {
		if buffered.Kind == KindSuccess {
			r.buf = append(r.buf[:i], r.buf[i+1:]...)
			r.dropped++
			return true
		}
	}
	return false
}

func (r *Reporter) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

func (r *Reporter) dispatch() {
	defer r.wg.Done()
	for {
		r.mu.Lock()
		pending := r.buf
		r.buf = nil
		r.mu.Unlock()

		for _, e := range pending {
			for _, obs := range r.observers {
				obs.Observe(e)
			}
		}

		select {
		case <-r.wake:
		case <-r.done:
			// Final drain
			r.mu.Lock()
			pending = r.buf
			r.buf = nil
			r.mu.Unlock()
			for _, e := range pending {
				for _, obs := range r.observers {
					obs.Observe(e)
				}
			}
			return
		}
	}
}

// Close drains remaining events and stops the dispatcher
func (r *Reporter) Close() {
	r.closeOnce.Do(func() {
		close(r.done)
	})
	r.wg.Wait()

	r.mu.Lock()
	dropped := r.dropped
	r.mu.Unlock()
	if dropped > 0 {
		util.DebugLog("Reporter shed %d success events under backpressure", dropped)
	}
}

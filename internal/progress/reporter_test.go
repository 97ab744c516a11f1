package progress

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

// collector records events in delivery order
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) Observe(e Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func TestReporterDeliversInOrder(t *testing.T) {
	c := &collector{}
	r := NewReporter(c)

	r.Publish(Event{Kind: KindStart, Total: 2})
	r.Publish(Event{Kind: KindSuccess, Path: "/a"})
	r.Publish(Event{Kind: KindError, Path: "/b", Error: "boom"})
	r.Publish(Event{Kind: KindFinish})
	r.Close()

	events := c.snapshot()
	if len(events) != 4 {
		t.Fatalf("delivered %d events, want 4", len(events))
	}

	wantKinds := []Kind{KindStart, KindSuccess, KindError, KindFinish}
	for i, want := range wantKinds {
		if events[i].Kind != want {
			t.Errorf("event %d = %s, want %s", i, events[i].Kind, want)
		}
	}
	if events[0].Total != 2 {
		t.Errorf("start total = %d, want 2", events[0].Total)
	}
	if events[2].Error != "boom" {
		t.Errorf("error payload = %q", events[2].Error)
	}
}

func TestReporterTimestampsEvents(t *testing.T) {
	c := &collector{}
	r := NewReporter(c)

	r.Publish(Event{Kind: KindStart})
	r.Close()

	events := c.snapshot()
	if len(events) != 1 || events[0].Timestamp.IsZero() {
		t.Error("published event has no timestamp")
	}
}

// blockingObserver stalls on the first event until released, forcing
// later publications to pile up in the reporter's buffer.
type blockingObserver struct {
	collector
	blocked chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingObserver) Observe(e Event) {
	b.once.Do(func() {
		close(b.blocked)
		<-b.release
	})
	b.collector.Observe(e)
}

func TestReporterShedsOldestSuccessUnderBackpressure(t *testing.T) {
	obs := &blockingObserver{
		blocked: make(chan struct{}),
		release: make(chan struct{}),
	}
	r := NewReporter(obs)

	r.Publish(Event{Kind: KindStart, Total: 5000})
	select {
	case <-obs.blocked:
	case <-time.After(5 * time.Second):
		t.Fatal("observer never saw the start event")
	}

	// The dispatcher is stuck: everything below lands in the buffer
	overflow := defaultBufferSize + 500
	for i := 0; i < overflow; i++ {
		r.Publish(Event{Kind: KindSuccess, Path: fmt.Sprintf("/f/%d", i)})
	}
	r.Publish(Event{Kind: KindError, Path: "/bad", Error: "boom"})
	r.Publish(Event{Kind: KindFinish})

	close(obs.release)
	r.Close()

	events := obs.snapshot()

	var successes, errors, finishes int
	for _, e := range events {
		switch e.Kind {
		case KindSuccess:
			successes++
		case KindError:
			errors++
		case KindFinish:
			finishes++
		}
	}

	if successes >= overflow {
		t.Errorf("delivered %d successes, expected shedding below %d", successes, overflow)
	}
	if successes == 0 {
		t.Error("all successes shed")
	}
	if errors != 1 {
		t.Errorf("errors delivered = %d, error events must never drop", errors)
	}
	if finishes != 1 {
		t.Errorf("finishes delivered = %d, lifecycle events must never drop", finishes)
	}

	// Shedding drops the oldest: the last success published survives
	last := events[len(events)-1]
	if last.Kind != KindFinish {
		t.Errorf("final event = %s, want finish", last.Kind)
	}
	foundNewest := false
	newest := fmt.Sprintf("/f/%d", overflow-1)
	for _, e := range events {
		if e.Kind == KindSuccess && e.Path == newest {
			foundNewest = true
		}
	}
	if !foundNewest {
		t.Error("newest success was shed; drop policy must discard the oldest")
	}
}

func TestReporterCloseIdempotent(t *testing.T) {
	r := NewReporter(&collector{})
	r.Publish(Event{Kind: KindStart})
	r.Close()
	r.Close()
}

func TestObserverFunc(t *testing.T) {
	var got Event
	ObserverFunc(func(e Event) { got = e }).Observe(Event{Kind: KindFinish})
	if got.Kind != KindFinish {
		t.Errorf("ObserverFunc did not forward the event")
	}
}

package progress

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/franz/music-indexer/internal/util"
)

// Bar is an observer that renders a terminal progress bar. When
// stderr is not a terminal it degrades to periodic line output, so
// piped runs still show progress without control characters.
type Bar struct {
	mu     sync.Mutex
	bar    *progressbar.ProgressBar
	tty    bool
	total  int
	done   int
	errors int
}

// NewBar creates a progress bar observer
func NewBar() *Bar {
	return &Bar{tty: util.IsTerminal(os.Stderr.Fd())}
}

// Observe renders one event
func (b *Bar) Observe(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch e.Kind {
	case KindStart:
		b.total = e.Total
		b.done = 0
		b.errors = 0
		if b.tty {
			b.bar = progressbar.NewOptions(e.Total,
				progressbar.OptionSetDescription("Importing"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
				progressbar.OptionSetWidth(30),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionClearOnFinish(),
			)
		} else {
			util.InfoLog("Importing %d files", e.Total)
		}

	case KindSuccess:
		b.done++
		b.advance()

	case KindError:
		b.done++
		b.errors++
		if !b.tty {
			util.WarnLog("Failed: %s: %s", e.Path, e.Error)
		}
		b.advance()

	case KindFinish:
		if b.bar != nil {
			b.bar.Finish()
			b.bar = nil
		}
		if b.errors > 0 {
			util.WarnLog("Import finished: %d/%d files, %d errors", b.done-b.errors, b.total, b.errors)
		} else {
			util.SuccessLog("Import finished: %d files", b.done)
		}
	}
}

func (b *Bar) advance() {
	if b.bar != nil {
		b.bar.Add(1)
		return
	}
	if !b.tty && b.total > 0 && b.done%100 == 0 {
		fmt.Fprintf(os.Stderr, "  %d/%d\n", b.done, b.total)
	}
}

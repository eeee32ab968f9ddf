package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Reporter prints stage messages of a run
type Reporter struct {
	mu      sync.Mutex
	w       io.Writer
	started time.Time
	now     func() time.Time
}

// NewReporter creates a Reporter writing to stdout
func NewReporter() *Reporter {
	return NewReporterTo(color.Output)
}

// NewReporterTo creates a Reporter writing to w
func NewReporterTo(w io.Writer) *Reporter {
	if w == nil {
		w = os.Stdout
	}
	return &Reporter{w: w, now: time.Now}
}

func (r *Reporter) elapsed() string {
	if r.started.IsZero() {
		r.started = r.now()
	}
	return fmt.Sprintf("[%6.1fs]", r.now().Sub(r.started).Seconds())
}

// Stage announces the start of a stage
func (r *Reporter) Stage(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "%s %s\n", color.HiBlackString("%s", r.elapsed()), color.CyanString("▶ "+format, args...))
}

// Done reports a finished stage
func (r *Reporter) Done(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "%s %s\n", color.HiBlackString("%s", r.elapsed()), color.GreenString("✓ "+format, args...))
}

// Warn reports something the user should look at
func (r *Reporter) Warn(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "%s %s\n", color.HiBlackString("%s", r.elapsed()), color.YellowString("! "+format, args...))
}

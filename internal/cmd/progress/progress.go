// Package progress draws progress bars for batch checks and registrations.
package progress

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
)

// Bar reports progress of one pallet. The zero value and nil are no-ops.
type Bar struct {
	bar *progressbar.ProgressBar
}

// Enabled reports whether bars should be drawn: not quiet and stderr is a terminal.
func Enabled(quiet bool) bool {
	if quiet {
		return false
	}
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// New creates a bar of total steps written to w; total -1 draws a spinner.
func New(w io.Writer, total int, description string) *Bar {
	return &Bar{bar: progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)}
}

// Set moves the bar to done steps.
func (b *Bar) Set(done int) {
	if b == nil || b.bar == nil {
		return
	}
	_ = b.bar.Set(done)
}

// Add advances the bar by one step.
func (b *Bar) Add() {
	if b == nil || b.bar == nil {
		return
	}
	_ = b.bar.Add(1)
}

// Finish completes the bar.
func (b *Bar) Finish() {
	if b == nil || b.bar == nil {
		return
	}
	_ = b.bar.Finish()
}

// Tracker keeps one bar per pallet, replacing it when a new pallet starts.
type Tracker struct {
	w       io.Writer
	enabled bool
	pallet  string
	current *Bar
}

// NewTracker creates a tracker writing to w. A disabled tracker draws nothing.
func NewTracker(w io.Writer, enabled bool) *Tracker {
	return &Tracker{w: w, enabled: enabled}
}

// Step records done of total steps for pallet. A negative total draws a
// spinner for work of unknown size.
func (t *Tracker) Step(pallet, description string, done, total int) {
	if !t.enabled {
		return
	}
	if pallet != t.pallet || t.current == nil {
		t.current.Finish()
		t.pallet = pallet
		t.current = New(t.w, total, pallet+" "+description)
	}
	t.current.Set(done)
	if total > 0 && done >= total {
		t.current.Finish()
		t.current = nil
	}
}

// Close finishes any bar still drawing.
func (t *Tracker) Close() {
	t.current.Finish()
	t.current = nil
}

package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"
)

// maxListedFailures caps the input names printed by Summary.
const maxListedFailures = 5

// Stats are the counters a Progress accumulates from pool results.
type Stats struct {
	Total     int
	Completed int
	Written   int
	Skipped   int
	Cancelled int
	Contours  int
	// Busy is the processing time spent on written images.
	Busy time.Duration
	// Failed holds the base names of inputs that failed, in arrival order.
	Failed []string
}

// Progress shows batch progress on a terminal and summarizes the run.
type Progress struct {
	start   time.Time
	out     io.Writer
	enabled bool

	mu    sync.Mutex
	stats Stats
}

// NewProgress creates a reporter for total images. Nothing is printed
// unless enabled is set; Summary works either way.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		start:   time.Now(),
		out:     os.Stderr,
		enabled: enabled,
		stats:   Stats{Total: total},
	}
}

// Record accounts for one finished task.
func (p *Progress) Record(r Result, completed, total int) {
	p.mu.Lock()
	s := &p.stats
	s.Completed, s.Total = completed, total
	switch {
	case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
		s.Cancelled++
	case r.Err != nil:
		s.Failed = append(s.Failed, filepath.Base(r.Task.Input))
	case r.Skipped:
		s.Skipped++
	default:
		s.Written++
		s.Contours += r.Contours
		s.Busy += r.Elapsed
	}
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Callback returns a ProgressFunc suitable for use with Pool.Config.
func (p *Progress) Callback() ProgressFunc {
	return p.Record
}

// Stats returns a snapshot of the counters.
func (p *Progress) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Failed = slices.Clone(s.Failed)
	return s
}

// Print writes the progress line, overwriting the previous one.
func (p *Progress) Print() {
	s := p.Stats()
	elapsed := time.Since(p.start)
	rate := throughput(s.Completed, elapsed)

	const barWidth = 30
	frac := 1.0
	if s.Total > 0 {
		frac = float64(s.Completed) / float64(s.Total)
	}
	filled := int(frac * barWidth)

	var b strings.Builder
	fmt.Fprintf(&b, "\r[%s%s] %d/%d images",
		strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled), s.Completed, s.Total)

	var notes []string
	if s.Skipped > 0 {
		notes = append(notes, fmt.Sprintf("%d skipped", s.Skipped))
	}
	if n := len(s.Failed); n > 0 {
		notes = append(notes, fmt.Sprintf("%d failed", n))
	}
	if s.Cancelled > 0 {
		notes = append(notes, fmt.Sprintf("%d cancelled", s.Cancelled))
	}
	if len(notes) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(notes, ", "))
	}

	fmt.Fprintf(&b, " - %.1f images/sec", rate)
	switch {
	case s.Completed >= s.Total:
		fmt.Fprintf(&b, " - Done in %s", formatDuration(elapsed))
	case rate > 0:
		eta := time.Duration(float64(s.Total-s.Completed) / rate * float64(time.Second))
		fmt.Fprintf(&b, " - ETA: %s", formatDuration(eta))
	}

	// Pad to clear previous line content
	b.WriteString("          ")
	fmt.Fprint(p.out, b.String())
}

// Done prints the final progress and a newline.
func (p *Progress) Done() {
	if p.enabled {
		p.Print()
		fmt.Fprintln(p.out)
	}
}

// Summary describes the finished run: written, kept and failed images,
// throughput, contours measured and the names of failed inputs.
func (p *Progress) Summary() string {
	s := p.Stats()
	elapsed := time.Since(p.start)

	var b strings.Builder
	fmt.Fprintf(&b, "Wrote %d/%d images", s.Written, s.Total)
	if s.Skipped > 0 {
		fmt.Fprintf(&b, ", kept %d existing", s.Skipped)
	}
	fmt.Fprintf(&b, ", %d failed", len(s.Failed))
	if s.Cancelled > 0 {
		fmt.Fprintf(&b, ", %d cancelled", s.Cancelled)
	}
	fmt.Fprintf(&b, " in %s (%.1f images/sec)", formatDuration(elapsed), throughput(s.Completed, elapsed))
	if s.Written > 0 {
		fmt.Fprintf(&b, "; %s per image", (s.Busy / time.Duration(s.Written)).Round(time.Millisecond))
	}
	if s.Contours > 0 {
		fmt.Fprintf(&b, "; %d contours measured", s.Contours)
	}
	if len(s.Failed) > 0 {
		b.WriteString("; failed: ")
		b.WriteString(listFailures(s.Failed))
	}
	return b.String()
}

func listFailures(names []string) string {
	sorted := slices.Sorted(slices.Values(names))
	if len(sorted) <= maxListedFailures {
		return strings.Join(sorted, ", ")
	}
	return fmt.Sprintf("%s and %d more",
		strings.Join(sorted[:maxListedFailures], ", "), len(sorted)-maxListedFailures)
}

func throughput(n int, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(n) / elapsed.Seconds()
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

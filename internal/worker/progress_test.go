package worker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func written(input string, contours int, elapsed time.Duration) Result {
	return Result{
		Task:    Task{Input: input},
		Output:  Output{Path: "/out/" + input, Contours: contours},
		Elapsed: elapsed,
	}
}

func skipped(input string) Result {
	return Result{Task: Task{Input: input}, Output: Output{Path: "/out/" + input, Skipped: true}}
}

func failed(input string) Result {
	return Result{Task: Task{Input: input}, Err: errors.New("decode failed")}
}

func TestProgress_Record(t *testing.T) {
	p := NewProgress(5, false)

	p.Record(written("/in/a.png", 3, 20*time.Millisecond), 1, 5)
	p.Record(skipped("/in/b.png"), 2, 5)
	p.Record(failed("/in/sub/c.png"), 3, 5)
	p.Record(Result{Task: Task{Input: "/in/d.png"}, Err: context.Canceled}, 4, 5)
	p.Record(written("/in/e.png", 2, 40*time.Millisecond), 5, 5)

	s := p.Stats()
	if s.Completed != 5 || s.Total != 5 {
		t.Errorf("Expected 5/5 completed, got %d/%d", s.Completed, s.Total)
	}
	if s.Written != 2 {
		t.Errorf("Expected written=2, got %d", s.Written)
	}
	if s.Skipped != 1 {
		t.Errorf("Expected skipped=1, got %d", s.Skipped)
	}
	if s.Cancelled != 1 {
		t.Errorf("Expected cancelled=1, got %d", s.Cancelled)
	}
	if s.Contours != 5 {
		t.Errorf("Expected contours=5, got %d", s.Contours)
	}
	if s.Busy != 60*time.Millisecond {
		t.Errorf("Expected busy=60ms, got %s", s.Busy)
	}
	if len(s.Failed) != 1 || s.Failed[0] != "c.png" {
		t.Errorf("Expected failed=[c.png], got %v", s.Failed)
	}
}

func TestProgress_StatsIsSnapshot(t *testing.T) {
	p := NewProgress(2, false)
	p.Record(failed("/in/a.png"), 1, 2)

	s := p.Stats()
	s.Failed[0] = "changed"

	if got := p.Stats().Failed[0]; got != "a.png" {
		t.Errorf("Expected stored failure to stay a.png, got %s", got)
	}
}

func TestProgress_Print(t *testing.T) {
	var buf bytes.Buffer

	p := NewProgress(10, true)
	p.out = &buf
	p.start = time.Now().Add(-10 * time.Second)

	p.Record(skipped("/in/a.png"), 4, 10)
	p.Record(failed("/in/b.png"), 5, 10)

	output := buf.String()

	if !strings.Contains(output, "█") {
		t.Error("Expected progress bar in output")
	}
	if !strings.Contains(output, "5/10 images") {
		t.Errorf("Expected '5/10 images' in output, got: %s", output)
	}
	if !strings.Contains(output, "(1 skipped, 1 failed)") {
		t.Errorf("Expected '(1 skipped, 1 failed)' in output, got: %s", output)
	}
	if !strings.Contains(output, "images/sec") {
		t.Errorf("Expected 'images/sec' in output, got: %s", output)
	}
	if !strings.Contains(output, "ETA:") {
		t.Errorf("Expected 'ETA:' in output, got: %s", output)
	}
}

func TestProgress_Done(t *testing.T) {
	var buf bytes.Buffer

	p := NewProgress(3, true)
	p.out = &buf
	p.start = time.Now().Add(-3 * time.Second)

	p.Record(written("/in/a.png", 0, time.Millisecond), 3, 3)
	buf.Reset()

	p.Done()

	output := buf.String()
	if !strings.Contains(output, "Done in") {
		t.Errorf("Expected 'Done in' in output, got: %s", output)
	}
	if strings.Contains(output, "ETA:") {
		t.Errorf("Expected no ETA once finished, got: %s", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Error("Expected output to end with newline")
	}
}

func TestProgress_Summary(t *testing.T) {
	p := NewProgress(6, false)
	p.start = time.Now().Add(-10 * time.Second)

	p.Record(written("/in/a.png", 4, 100*time.Millisecond), 1, 6)
	p.Record(written("/in/b.png", 2, 300*time.Millisecond), 2, 6)
	p.Record(skipped("/in/c.png"), 3, 6)
	p.Record(failed("/in/zebra.png"), 4, 6)
	p.Record(failed("/in/apple.png"), 5, 6)
	p.Record(written("/in/d.png", 0, 200*time.Millisecond), 6, 6)

	summary := p.Summary()

	for _, want := range []string{
		"Wrote 4/6 images",
		"kept 1 existing",
		"2 failed",
		"200ms per image",
		"6 contours measured",
		"failed: apple.png, zebra.png",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("Expected %q in summary, got: %s", want, summary)
		}
	}
	if strings.Contains(summary, "cancelled") {
		t.Errorf("Expected no cancelled count, got: %s", summary)
	}
}

func TestProgress_SummaryTruncatesFailures(t *testing.T) {
	p := NewProgress(7, false)
	for i := 0; i < 7; i++ {
		p.Record(failed(fmt.Sprintf("/in/%d.png", i)), i+1, 7)
	}

	summary := p.Summary()

	if !strings.Contains(summary, "failed: 0.png, 1.png, 2.png, 3.png, 4.png and 2 more") {
		t.Errorf("Expected five names and a remainder, got: %s", summary)
	}
	if strings.Contains(summary, "per image") {
		t.Errorf("Expected no per-image time without written images, got: %s", summary)
	}
}

func TestProgress_Disabled(t *testing.T) {
	var buf bytes.Buffer

	p := NewProgress(10, false)
	p.out = &buf

	p.Record(written("/in/a.png", 1, time.Millisecond), 1, 10)
	p.Done()

	if buf.Len() != 0 {
		t.Errorf("Expected no output when disabled, got: %s", buf.String())
	}
}

func TestProgress_Callback(t *testing.T) {
	p := NewProgress(10, false)

	callback := p.Callback()
	callback(skipped("/in/a.png"), 5, 10)

	s := p.Stats()
	if s.Completed != 5 {
		t.Errorf("Expected completed=5, got %d", s.Completed)
	}
	if s.Skipped != 1 {
		t.Errorf("Expected skipped=1, got %d", s.Skipped)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		expected string
		duration time.Duration
	}{
		{duration: 30 * time.Second, expected: "30s"},
		{duration: 90 * time.Second, expected: "1m30s"},
		{duration: 5 * time.Minute, expected: "5m0s"},
		{duration: 65 * time.Minute, expected: "1h5m"},
		{duration: 2*time.Hour + 30*time.Minute, expected: "2h30m"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			result := formatDuration(tt.duration)
			if result != tt.expected {
				t.Errorf("formatDuration(%v) = %s, want %s", tt.duration, result, tt.expected)
			}
		})
	}
}

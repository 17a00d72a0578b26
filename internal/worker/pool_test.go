package worker

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockProcessor struct {
	fail      map[string]bool
	existing  map[string]bool
	delay     time.Duration
	callCount atomic.Int32
	forced    atomic.Int32
}

func (m *mockProcessor) Process(ctx context.Context, input string, force bool) (Output, error) {
	m.callCount.Add(1)
	if force {
		m.forced.Add(1)
	}
	path := filepath.Join("/out", filepath.Base(input))
	if m.existing[input] && !force {
		return Output{Path: path, Skipped: true}, nil
	}

	select {
	case <-ctx.Done():
		return Output{}, ctx.Err()
	case <-time.After(m.delay):
	}

	if m.fail[input] {
		return Output{}, errors.New("simulated failure")
	}
	return Output{Path: path, Contours: 2}, nil
}

func inputs(names ...string) []Task {
	tasks := make([]Task, len(names))
	for i, n := range names {
		tasks[i] = Task{Input: filepath.Join("/in", n)}
	}
	return tasks
}

func TestPool_BasicExecution(t *testing.T) {
	proc := &mockProcessor{delay: 10 * time.Millisecond}
	pool := New(Config{Workers: 2, Processor: proc})

	tasks := inputs("a.png", "b.png", "c.png")
	results := pool.Run(context.Background(), tasks)

	require.Len(t, results, len(tasks))
	for _, r := range results {
		assert.NoError(t, r.Err, r.Task.Input)
		assert.Equal(t, filepath.Join("/out", filepath.Base(r.Task.Input)), r.Path)
	}
	assert.Equal(t, int32(len(tasks)), proc.callCount.Load())
}

func TestPool_Parallelism(t *testing.T) {
	proc := &mockProcessor{delay: 50 * time.Millisecond}
	pool := New(Config{Workers: 4, Processor: proc})

	tasks := inputs("1.png", "2.png", "3.png", "4.png", "5.png", "6.png", "7.png", "8.png")

	start := time.Now()
	results := pool.Run(context.Background(), tasks)
	elapsed := time.Since(start)

	// 8 tasks of 50ms on 4 workers run in two rounds.
	assert.Less(t, elapsed, 300*time.Millisecond)
	assert.Len(t, results, len(tasks))
}

func TestPool_ErrorHandling(t *testing.T) {
	proc := &mockProcessor{
		delay: 5 * time.Millisecond,
		fail:  map[string]bool{"/in/broken.png": true},
	}
	pool := New(Config{Workers: 2, Processor: proc})

	results := pool.Run(context.Background(), inputs("a.png", "broken.png", "c.png"))
	require.Len(t, results, 3)

	failed := Failures(results)
	require.Len(t, failed, 1)
	assert.Equal(t, "/in/broken.png", failed[0].Task.Input)
	assert.Empty(t, failed[0].Path)
}

func TestPool_Cancellation(t *testing.T) {
	proc := &mockProcessor{delay: 100 * time.Millisecond}
	pool := New(Config{Workers: 2, Processor: proc})

	tasks := inputs("0.png", "1.png", "2.png", "3.png", "4.png", "5.png", "6.png", "7.png", "8.png", "9.png")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(30 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	results := pool.Run(ctx, tasks)
	elapsed := time.Since(start)

	assert.Less(t, elapsed, 250*time.Millisecond, "run should stop early")
	assert.LessOrEqual(t, len(results), len(tasks))
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestPool_ProgressCallback(t *testing.T) {
	proc := &mockProcessor{delay: 5 * time.Millisecond}

	var calls atomic.Int32
	var lastCompleted, lastTotal int
	seen := map[string]Result{}
	pool := New(Config{
		Workers:   2,
		Processor: proc,
		OnProgress: func(r Result, completed, total int) {
			calls.Add(1)
			lastCompleted, lastTotal = completed, total
			seen[r.Task.Input] = r
		},
	})
	proc.fail = map[string]bool{"/in/b.png": true}
	proc.existing = map[string]bool{"/in/c.png": true}

	tasks := inputs("a.png", "b.png", "c.png")
	pool.Run(context.Background(), tasks)

	assert.Equal(t, int32(len(tasks)), calls.Load())
	assert.Equal(t, len(tasks), lastCompleted)
	assert.Equal(t, len(tasks), lastTotal)
	assert.Equal(t, 2, seen["/in/a.png"].Contours)
	assert.Error(t, seen["/in/b.png"].Err)
	assert.True(t, seen["/in/c.png"].Skipped)
}

func TestPool_FeedsProgress(t *testing.T) {
	proc := &mockProcessor{
		fail:     map[string]bool{"/in/bad.png": true},
		existing: map[string]bool{"/in/old.png": true},
	}
	progress := NewProgress(4, false)
	pool := New(Config{Workers: 3, Processor: proc, OnProgress: progress.Callback()})

	pool.Run(context.Background(), inputs("a.png", "b.png", "bad.png", "old.png"))

	s := progress.Stats()
	assert.Equal(t, 4, s.Completed)
	assert.Equal(t, 2, s.Written)
	assert.Equal(t, 1, s.Skipped)
	assert.Equal(t, 4, s.Contours)
	assert.Equal(t, []string{"bad.png"}, s.Failed)
}

func TestPool_EmptyTasks(t *testing.T) {
	proc := &mockProcessor{}
	pool := New(Config{Workers: 2, Processor: proc})

	assert.Empty(t, pool.Run(context.Background(), nil))
	assert.Zero(t, proc.callCount.Load())
}

func TestPool_ForceIsPassedThrough(t *testing.T) {
	proc := &mockProcessor{}
	pool := New(Config{Workers: 0, Processor: proc})

	tasks := inputs("a.png", "b.png")
	tasks[1].Force = true

	results := pool.Run(context.Background(), tasks)
	assert.Len(t, results, 2)
	assert.Equal(t, int32(1), proc.forced.Load())
}

// Package worker runs image processing tasks on a bounded pool of
// goroutines.
package worker

import (
	"context"
	"sync"
	"time"
)

// Output describes what a Processor did with one input file.
type Output struct {
	Path     string
	Skipped  bool // the output already existed and was kept
	Contours int  // contours measured on the result, if any
}

// Processor turns one input file into one output file.
// pipeline.Processor implements it.
type Processor interface {
	Process(ctx context.Context, input string, force bool) (Output, error)
}

// Task is one input file to process.
type Task struct {
	Input string
	Force bool
}

// Result is the outcome of a task.
type Result struct {
	Task Task
	Output
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called with each result as it arrives, together with the
// number of results seen so far.
type ProgressFunc func(r Result, completed, total int)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Processor  Processor
	OnProgress ProgressFunc
}

// Pool runs tasks in parallel.
type Pool struct {
	workers    int
	processor  Processor
	onProgress ProgressFunc
}

// New creates a new worker pool.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		processor:  cfg.Processor,
		onProgress: cfg.OnProgress,
	}
}

// Run executes all tasks and returns one result per task that was
// started. Tasks not yet handed to a worker when ctx is cancelled are
// dropped; tasks picked up after cancellation report ctx.Err().
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	taskCh := make(chan Task, len(tasks))
	resultCh := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				return
			}
		}
	}()

	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		for result := range resultCh {
			results = append(results, result)
			if p.onProgress != nil {
				p.onProgress(result, len(results), len(tasks))
			}
		}
		close(done)
	}()

	wg.Wait()
	close(resultCh)
	<-done

	return results
}

func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		select {
		case <-ctx.Done():
			results <- Result{
				Task: task,
				Err:  ctx.Err(),
			}
			continue
		default:
		}

		start := time.Now()
		out, err := p.processor.Process(ctx, task.Input, task.Force)

		results <- Result{
			Task:    task,
			Output:  out,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}

// Failures returns the results that carry an error, in input order of
// the given slice.
func Failures(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		}
	}
	return failed
}

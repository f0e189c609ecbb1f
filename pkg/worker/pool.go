// Package worker provides a bounded pool for background jobs that must not
// add latency to the settlement path (fraud evaluation, alert fan-out).
package worker

import (
	"context"
	"log/slog"
	"sync"
)

// Job represents a task to be executed by a worker.
type Job interface {
	Process(ctx context.Context) error
}

// Pool runs jobs on a fixed number of goroutines with a bounded queue.
type Pool struct {
	workers  int
	jobQueue chan Job
	logger   *slog.Logger
	wg       sync.WaitGroup
	quit     chan struct{}
}

// NewPool creates a pool with the given worker count and queue capacity.
func NewPool(workers, queueSize int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Pool{
		workers:  workers,
		jobQueue: make(chan Job, queueSize),
		logger:   logger,
		quit:     make(chan struct{}),
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// TryEnqueue submits a job without blocking. It reports false when the
// queue is full; callers decide whether dropping is acceptable.
func (p *Pool) TryEnqueue(job Job) bool {
	select {
	case p.jobQueue <- job:
		return true
	default:
		return false
	}
}

// Stop drains already-queued jobs and waits for the workers to exit.
func (p *Pool) Stop() {
	close(p.quit)
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case job := <-p.jobQueue:
			p.run(job)
		case <-p.quit:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case job := <-p.jobQueue:
					p.run(job)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) run(job Job) {
	if err := job.Process(context.Background()); err != nil {
		p.logger.Error("background job failed", slog.String("error", err.Error()))
	}
}

// Package worker runs event pipelines on a bounded pool so a burst of
// messages cannot spawn an unbounded number of downloads or extraction
// subprocesses.
package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrShutdownTimeout is returned when workers don't stop within timeout.
var ErrShutdownTimeout = errors.New("worker pool shutdown timed out")

// Task is one unit of pipeline work. The context is cancelled when the
// pool stops.
type Task func(ctx context.Context)

// Pool runs submitted tasks on a fixed number of workers.
type Pool struct {
	workers int
	tasks   chan Task
	logger  *slog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Config holds worker pool configuration.
type Config struct {
	Workers   int
	QueueSize int
}

// NewPool creates a new worker pool.
func NewPool(cfg Config, logger *slog.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers: cfg.Workers,
		tasks:   make(chan Task, cfg.QueueSize),
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches all workers.
func (p *Pool) Start() {
	p.logger.Info("starting worker pool", "workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit queues a task for execution. It returns false when the queue is
// full or the pool is stopping; the caller decides whether that drop is
// worth reporting.
func (p *Pool) Submit(t Task) bool {
	select {
	case <-p.ctx.Done():
		return false
	default:
	}

	select {
	case p.tasks <- t:
		return true
	default:
		return false
	}
}

// QueueDepth returns the number of queued, not yet started tasks.
func (p *Pool) QueueDepth() int {
	return len(p.tasks)
}

// Stop cancels running tasks and waits for all workers to finish.
func (p *Pool) Stop(timeout time.Duration) error {
	p.logger.Info("stopping worker pool")
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	logger := p.logger.With("worker_id", id)
	logger.Info("worker started")

	for {
		select {
		case <-p.ctx.Done():
			logger.Info("worker stopping")
			return
		case t := <-p.tasks:
			p.runTask(logger, t)
		}
	}
}

// runTask isolates a task so a panicking pipeline takes down neither the
// worker nor the process.
func (p *Pool) runTask(logger *slog.Logger, t Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("task panicked", "panic", r)
		}
	}()
	t(p.ctx)
}

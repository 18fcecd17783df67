package core

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const taskTimeout = 2 * time.Minute

type task struct {
	name string
	fn   func(ctx context.Context) error
}

// TaskRunner is a submit-and-continue runner for fire-and-forget follow-up
// work. The submitting request returns before the task runs; task failures
// are logged, never propagated.
type TaskRunner struct {
	logger *zap.SugaredLogger
	queue  chan task
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

func NewTaskRunner(logger *zap.SugaredLogger, queueSize int) *TaskRunner {
	if queueSize <= 0 {
		queueSize = 64
	}
	r := &TaskRunner{
		logger: logger,
		queue:  make(chan task, queueSize),
	}
	r.wg.Add(1)
	go r.run()
	return r
}

// Submit enqueues a task without blocking the caller. A full queue drops the
// task with a warning rather than stalling the submitting request.
func (r *TaskRunner) Submit(name string, fn func(ctx context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.logger.Warnw("task runner closed, dropping task", "task", name)
		return
	}
	select {
	case r.queue <- task{name: name, fn: fn}:
	default:
		r.logger.Warnw("task queue full, dropping task", "task", name)
	}
}

func (r *TaskRunner) run() {
	defer r.wg.Done()
	for t := range r.queue {
		r.execute(t)
	}
}

func (r *TaskRunner) execute(t task) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorw("background task panicked", "task", t.name, "panic", rec)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), taskTimeout)
	defer cancel()

	start := time.Now()
	if err := t.fn(ctx); err != nil {
		r.logger.Warnw("background task failed", "task", t.name, "error", err, "elapsed", time.Since(start).String())
		return
	}
	r.logger.Debugw("background task completed", "task", t.name, "elapsed", time.Since(start).String())
}

// Close stops accepting tasks and waits for queued work to drain.
func (r *TaskRunner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.mu.Unlock()

	close(r.queue)
	r.wg.Wait()
}

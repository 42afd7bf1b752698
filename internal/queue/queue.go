// Package queue serializes generation runs so exactly one executes at a time.
package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrTaskPanicked wraps a panic recovered from a task.
var ErrTaskPanicked = errors.New("task panicked")

// Task is one unit of work. It receives the context its submitter passed to
// Enqueue.
type Task func(ctx context.Context) error

type job struct {
	ctx  context.Context
	task Task
	done chan error
}

// Queue runs submitted tasks one at a time in submission order. The zero
// value is not usable; create one with New and share it with everything that
// submits generation runs.
type Queue struct {
	mu      sync.Mutex
	pending []*job
	running bool

	logger *slog.Logger
}

func New(logger *slog.Logger) *Queue {
	if logger == nil {
		logger = slog.Default()
	}
	return &Queue{logger: logger}
}

// Enqueue appends task to the queue, starting the drain loop if the queue is
// idle, and blocks until that task has finished. The returned error is the
// task's own; failures of other tasks never surface here. If ctx is done
// before the task's turn comes, the task is skipped and ctx's error returned.
func (q *Queue) Enqueue(ctx context.Context, task Task) error {
	j := &job{ctx: ctx, task: task, done: make(chan error, 1)}

	q.mu.Lock()
	q.pending = append(q.pending, j)
	start := !q.running
	q.running = true
	waiting := len(q.pending)
	q.mu.Unlock()

	if start {
		go q.drain()
	} else {
		q.logger.Debug("generation queued", "waiting", waiting)
	}
	return <-j.done
}

// Running reports whether the drain loop is active.
func (q *Queue) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.running
}

// Len returns the number of tasks waiting, excluding the one executing.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

func (q *Queue) drain() {
	for {
		j, ok := q.pop()
		if !ok {
			return
		}
		j.done <- q.run(j)
	}
}

// pop removes the head task. When nothing is left it flips the queue back to
// idle under the same lock, so a concurrent Enqueue either lands before the
// check or starts a new drain loop.
func (q *Queue) pop() (*job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) == 0 {
		q.running = false
		return nil, false
	}
	j := q.pending[0]
	q.pending[0] = nil
	q.pending = q.pending[1:]
	return j, true
}

func (q *Queue) run(j *job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrTaskPanicked, r)
			q.logger.Error("generation task panicked", "panic", r)
		}
	}()

	if err := j.ctx.Err(); err != nil {
		return err
	}
	return j.task(j.ctx)
}

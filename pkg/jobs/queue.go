package jobs

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of background work carrying a typed payload.
type Task[T any] struct {
	ID       string
	Kind     string
	Payload  T
	Attempt  int
	Enqueued time.Time
}

// Handler processes a task. A returned error schedules a retry.
type Handler[T any] func(context.Context, Task[T]) error

// Config tunes the worker pool.
type Config struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

// Queue dispatches tasks to a fixed pool of goroutines.
type Queue[T any] struct {
	name    string
	handler Handler[T]
	cfg     Config

	tasks   chan Task[T]
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	retries sync.WaitGroup
	mu      sync.Mutex
	started bool

	pending atomic.Int64
	failed  atomic.Int64
}

// New builds a queue. Zero config values fall back to one worker, three
// retries and a one second retry delay.
func New[T any](name string, handler Handler[T], cfg Config) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 4
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue[T]{
		name:    name,
		handler: handler,
		cfg:     cfg,
		tasks:   make(chan Task[T], cfg.BufferSize),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}
	q.started = true
	q.cfg.Logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.cfg.Workers))
}

// Stop cancels the workers and waits for them to exit. Tasks still buffered
// are dropped and counted as failed.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return
	}
	q.cancel()
	q.started = false
	q.mu.Unlock()
	q.wg.Wait()
	q.retries.Wait()

	for {
		select {
		case <-q.tasks:
			q.pending.Add(-1)
			q.failed.Add(1)
		default:
			q.cfg.Logger.Info("queue stopped", zap.String("queue", q.name), zap.Int64("dropped_total", q.failed.Load()))
			return
		}
	}
}

// Enqueue pushes a task, blocking while the buffer is full.
func (q *Queue[T]) Enqueue(task Task[T]) error {
	q.mu.Lock()
	ctx := q.ctx
	started := q.started
	q.mu.Unlock()

	if !started {
		return fmt.Errorf("queue %s not started", q.name)
	}
	if task.Enqueued.IsZero() {
		task.Enqueued = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return fmt.Errorf("queue %s stopped: %w", q.name, ctx.Err())
	case q.tasks <- task:
		q.pending.Add(1)
		return nil
	}
}

// Pending reports tasks accepted but not yet finished, including retries.
func (q *Queue[T]) Pending() int64 { return q.pending.Load() }

// Failed reports tasks that exhausted their retries or were dropped on stop.
func (q *Queue[T]) Failed() int64 { return q.failed.Load() }

func (q *Queue[T]) worker() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case task := <-q.tasks:
			if err := q.handler(q.ctx, task); err != nil {
				q.retry(task, err)
				continue
			}
			q.pending.Add(-1)
		}
	}
}

func (q *Queue[T]) retry(task Task[T], err error) {
	task.Attempt++
	log := q.cfg.Logger.With(zap.String("queue", q.name), zap.String("task_id", task.ID), zap.String("kind", task.Kind))
	if task.Attempt > q.cfg.MaxRetries {
		log.Error("task exceeded retries", zap.Error(err))
		q.pending.Add(-1)
		q.failed.Add(1)
		return
	}
	log.Warn("task failed, retrying", zap.Int("attempt", task.Attempt), zap.Error(err))

	q.retries.Add(1)
	go func(t Task[T]) {
		defer q.retries.Done()
		timer := time.NewTimer(q.cfg.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
			q.pending.Add(-1)
			q.failed.Add(1)
			return
		case <-timer.C:
		}
		select {
		case <-q.ctx.Done():
			q.pending.Add(-1)
			q.failed.Add(1)
		case q.tasks <- t:
		}
	}(task)
}

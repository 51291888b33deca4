package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job is one unit of background work.
type Job struct {
	ID       string
	Type     string
	Payload  interface{}
	Attempt  int
	Enqueued time.Time
}

// Handler processes a job.
type Handler func(context.Context, Job) error

// QueueConfig configures the worker pool.
type QueueConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

var (
	// ErrQueueFull is returned by TryEnqueue when the buffer has no room.
	ErrQueueFull = errors.New("queue buffer full")
	// ErrQueueStopped is returned for jobs offered before Start or after Stop.
	ErrQueueStopped = errors.New("queue not running")
)

// Queue is an in-memory job dispatcher. Jobs still buffered when Stop is
// called are handled once before the workers exit; pending retries are dropped.
type Queue struct {
	name    string
	handler Handler
	cfg     QueueConfig

	jobs   chan Job
	quit   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// NewQueue builds a queue; call Start before offering jobs.
func NewQueue(name string, handler Handler, cfg QueueConfig) *Queue {
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
	return &Queue{
		name:    name,
		handler: handler,
		cfg:     cfg,
		jobs:    make(chan Job, cfg.BufferSize),
		quit:    make(chan struct{}),
	}
}

// Start launches the workers. Calls after the first are ignored.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running || q.ctx != nil {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 1; i <= q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.worker(i)
	}
	q.running = true
	q.cfg.Logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.cfg.Workers))
}

// Stop refuses new jobs, drains the buffer and waits for the workers.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	close(q.quit)
	q.mu.Unlock()

	q.wg.Wait()
	q.cancel()
	q.cfg.Logger.Info("queue stopped", zap.String("queue", q.name))
}

// Enqueue offers a job, waiting for buffer space.
func (q *Queue) Enqueue(job Job) error {
	return q.push(job, true)
}

// TryEnqueue offers a job without blocking and reports ErrQueueFull when the buffer is full.
func (q *Queue) TryEnqueue(job Job) error {
	return q.push(job, false)
}

func (q *Queue) push(job Job, wait bool) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Enqueued.IsZero() {
		job.Enqueued = time.Now().UTC()
	}

	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueStopped)
	}
	if !wait {
		defer q.mu.Unlock()
		select {
		case q.jobs <- job:
			return nil
		default:
			return fmt.Errorf("queue %s: %w", q.name, ErrQueueFull)
		}
	}
	q.mu.Unlock()

	select {
	case q.jobs <- job:
		return nil
	case <-q.quit:
		return fmt.Errorf("queue %s: %w", q.name, ErrQueueStopped)
	}
}

func (q *Queue) worker(id int) {
	defer q.wg.Done()
	for {
		select {
		case job := <-q.jobs:
			q.run(id, job, true)
		case <-q.quit:
			q.drain(id)
			return
		case <-q.ctx.Done():
			return
		}
	}
}

func (q *Queue) drain(id int) {
	for {
		select {
		case job := <-q.jobs:
			q.run(id, job, false)
		default:
			return
		}
	}
}

func (q *Queue) run(worker int, job Job, retry bool) {
	err := q.handler(q.ctx, job)
	if err == nil {
		return
	}
	job.Attempt++
	fields := []zap.Field{
		zap.String("queue", q.name),
		zap.Int("worker", worker),
		zap.String("job_id", job.ID),
		zap.String("type", job.Type),
		zap.Int("attempt", job.Attempt),
		zap.Error(err),
	}
	if !retry || job.Attempt > q.cfg.MaxRetries {
		q.cfg.Logger.Error("job dropped", fields...)
		return
	}
	q.cfg.Logger.Warn("job failed, retrying", fields...)

	go func() {
		timer := time.NewTimer(q.cfg.RetryDelay)
		defer timer.Stop()
		select {
		case <-q.quit:
		case <-timer.C:
			if err := q.Enqueue(job); err != nil {
				q.cfg.Logger.Warn("job requeue failed", zap.String("queue", q.name), zap.String("job_id", job.ID), zap.Error(err))
			}
		}
	}()
}

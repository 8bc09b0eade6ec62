// Package workerpool provides a bounded worker pool for absorbing bursts
// of concurrent intake work, such as simultaneous SOS triggers.
package workerpool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of intake work.
type Task struct {
	ID      string
	Payload any
}

// Handler processes a single task. A returned error marks the task failed;
// the pool does not retry, retry policy belongs to the caller.
type Handler func(ctx context.Context, task Task) error

// Config holds pool configuration.
type Config struct {
	// Workers is the number of concurrent workers.
	Workers int
	// QueueSize bounds the pending task queue.
	QueueSize int
	// ShutdownTimeout caps how long Stop waits for in-flight work.
	ShutdownTimeout time.Duration
}

// DefaultConfig returns defaults sized for burst intake.
func DefaultConfig() Config {
	return Config{
		Workers:         8,
		QueueSize:       1024,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Pool errors.
var (
	ErrQueueFull = errors.New("workerpool: task queue is full")
	ErrStopped   = errors.New("workerpool: pool is stopped")
)

// Pool runs tasks across a fixed set of workers.
type Pool struct {
	config  Config
	handler Handler
	logger  *zap.Logger

	tasks chan Task
	wg    sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	submitted int64
	completed int64
	failed    int64
	active    int64
}

// New creates a pool; Start must be called before submitting.
func New(cfg Config, handler Handler, logger *zap.Logger) (*Pool, error) {
	if handler == nil {
		return nil, errors.New("workerpool: handler is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = DefaultConfig().QueueSize
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = DefaultConfig().ShutdownTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		config:  cfg,
		handler: handler,
		logger:  logger,
		tasks:   make(chan Task, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}, nil
}

// Start launches the workers.
func (p *Pool) Start() {
	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("worker pool started",
		zap.Int("workers", p.config.Workers),
		zap.Int("queue_size", p.config.QueueSize))
}

// Submit queues a task without blocking. Returns ErrQueueFull when the
// queue is saturated and ErrStopped after Stop.
func (p *Pool) Submit(task Task) error {
	select {
	case <-p.ctx.Done():
		return ErrStopped
	default:
	}

	select {
	case p.tasks <- task:
		atomic.AddInt64(&p.submitted, 1)
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop drains queued tasks and shuts the pool down, waiting up to
// ShutdownTimeout for in-flight work.
func (p *Pool) Stop() error {
	p.cancel()
	close(p.tasks)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped")
		return nil
	case <-time.After(p.config.ShutdownTimeout):
		p.logger.Warn("worker pool shutdown timed out")
		return errors.New("workerpool: shutdown timed out")
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		atomic.AddInt64(&p.active, 1)
		if err := p.handler(context.Background(), task); err != nil {
			atomic.AddInt64(&p.failed, 1)
			p.logger.Error("task failed",
				zap.String("task_id", task.ID),
				zap.Int("worker_id", id),
				zap.Error(err))
		} else {
			atomic.AddInt64(&p.completed, 1)
		}
		atomic.AddInt64(&p.active, -1)
	}
}

// Stats is a point-in-time view of pool activity.
type Stats struct {
	Submitted int64
	Completed int64
	Failed    int64
	Active    int64
	Queued    int
}

// Stats returns current pool statistics.
func (p *Pool) Stats() Stats {
	return Stats{
		Submitted: atomic.LoadInt64(&p.submitted),
		Completed: atomic.LoadInt64(&p.completed),
		Failed:    atomic.LoadInt64(&p.failed),
		Active:    atomic.LoadInt64(&p.active),
		Queued:    len(p.tasks),
	}
}

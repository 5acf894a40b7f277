// Package workerpool provides a bounded, typed worker pool with retries.
package workerpool

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull is returned by Submit when the queue has no free slot.
	ErrQueueFull = errors.New("task queue is full")
	// ErrStopped is returned by Submit after Stop has been called.
	ErrStopped = errors.New("pool is shutting down")
)

// Handler processes one item. A non-nil error triggers a retry until
// MaxRetries is exhausted, unless it is wrapped with Permanent.
type Handler[T any] func(ctx context.Context, item T) error

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func isPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Config holds worker pool configuration
type Config struct {
	// Workers is the number of concurrent workers
	Workers int
	// QueueSize is the size of the task queue
	QueueSize int
	// MaxRetries is the maximum number of retries for failed tasks
	MaxRetries int
	// RetryDelay is multiplied by the attempt number between retries
	RetryDelay time.Duration
}

// DefaultConfig returns defaults sized for background event publishing
func DefaultConfig() Config {
	return Config{
		Workers:    4,
		QueueSize:  1024,
		MaxRetries: 3,
		RetryDelay: 100 * time.Millisecond,
	}
}

// Pool runs a Handler over submitted items on a fixed set of goroutines.
type Pool[T any] struct {
	config  Config
	handler Handler[T]
	logger  *zap.Logger
	onDone  func(err error)

	tasks chan T
	wg    sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	stopped bool

	tasksSubmitted int64
	tasksCompleted int64
	tasksFailed    int64
	tasksRetried   int64
	activeWorkers  int64
}

// Option configures a Pool
type Option[T any] func(*Pool[T])

// WithCompletion registers a callback invoked after every item with its
// final error, nil on success.
func WithCompletion[T any](fn func(err error)) Option[T] {
	return func(p *Pool[T]) { p.onDone = fn }
}

// New creates a new worker pool. Call Start to launch the workers.
func New[T any](cfg Config, fn Handler[T], logger *zap.Logger, opts ...Option[T]) (*Pool[T], error) {
	if fn == nil {
		return nil, fmt.Errorf("worker function is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool[T]{
		config:  cfg,
		handler: fn,
		logger:  logger,
		tasks:   make(chan T, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Start launches all workers
func (p *Pool[T]) Start() {
	for i := 0; i < p.config.Workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("worker pool started",
		zap.Int("workers", p.config.Workers),
		zap.Int("queue_size", p.config.QueueSize))
}

// Submit enqueues item without blocking.
func (p *Pool[T]) Submit(item T) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}

	select {
	case p.tasks <- item:
		atomic.AddInt64(&p.tasksSubmitted, 1)
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for queued items to drain. When ctx
// expires first, in-flight handlers are cancelled and ctx.Err is returned.
func (p *Pool[T]) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return nil
	}
	p.stopped = true
	close(p.tasks)
	p.mu.Unlock()

	p.logger.Info("stopping worker pool", zap.Int("queued", len(p.tasks)))

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		p.logger.Info("worker pool stopped gracefully")
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		p.logger.Warn("worker pool shutdown timed out")
		return ctx.Err()
	}
}

func (p *Pool[T]) worker(id int) {
	defer p.wg.Done()

	atomic.AddInt64(&p.activeWorkers, 1)
	defer atomic.AddInt64(&p.activeWorkers, -1)

	for item := range p.tasks {
		p.process(id, item)
	}
}

func (p *Pool[T]) process(workerID int, item T) {
	var err error
	for attempt := 0; ; attempt++ {
		if err = p.ctx.Err(); err != nil {
			break
		}
		if err = p.handler(p.ctx, item); err == nil || isPermanent(err) {
			break
		}
		if attempt >= p.config.MaxRetries {
			err = fmt.Errorf("task failed after %d retries: %w", p.config.MaxRetries, err)
			break
		}

		atomic.AddInt64(&p.tasksRetried, 1)
		p.logger.Debug("retrying task",
			zap.Int("worker_id", workerID),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		select {
		case <-p.ctx.Done():
		case <-time.After(p.config.RetryDelay * time.Duration(attempt+1)):
		}
	}

	if err == nil {
		atomic.AddInt64(&p.tasksCompleted, 1)
	} else {
		atomic.AddInt64(&p.tasksFailed, 1)
		p.logger.Error("task failed", zap.Int("worker_id", workerID), zap.Error(err))
	}
	if p.onDone != nil {
		p.onDone(err)
	}
}

// Stats is a snapshot of pool counters
type Stats struct {
	TasksSubmitted int64
	TasksCompleted int64
	TasksFailed    int64
	TasksRetried   int64
	ActiveWorkers  int64
	QueueDepth     int
	QueueCapacity  int
	Workers        int
}

// Stats returns current pool statistics
func (p *Pool[T]) Stats() Stats {
	return Stats{
		TasksSubmitted: atomic.LoadInt64(&p.tasksSubmitted),
		TasksCompleted: atomic.LoadInt64(&p.tasksCompleted),
		TasksFailed:    atomic.LoadInt64(&p.tasksFailed),
		TasksRetried:   atomic.LoadInt64(&p.tasksRetried),
		ActiveWorkers:  atomic.LoadInt64(&p.activeWorkers),
		QueueDepth:     len(p.tasks),
		QueueCapacity:  p.config.QueueSize,
		Workers:        p.config.Workers,
	}
}

// IsHealthy reports whether the queue is below 90% of capacity
func (p *Pool[T]) IsHealthy() bool {
	stats := p.Stats()
	return float64(stats.QueueDepth)/float64(stats.QueueCapacity) < 0.9
}

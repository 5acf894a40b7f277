// Package idempotency provides an in-memory inbox that runs a handler at
// most once per message key.
package idempotency

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Status represents the processing status of an inbox entry
type Status string

const (
	StatusStarted     Status = "STARTED"
	StatusFinished    Status = "FINISHED"
	StatusRecoverable Status = "RECOVERABLE"
	StatusFailed      Status = "FAILED"
)

type entry struct {
	status    Status
	updatedAt time.Time
	expiresAt time.Time
}

// InboxConfig holds configuration for the inbox
type InboxConfig struct {
	// TTL is how long a key is remembered
	TTL time.Duration
	// CleanupInterval is how often to drop expired entries
	CleanupInterval time.Duration
	// RecoveryTimeout is when to consider a STARTED entry as stale
	RecoveryTimeout time.Duration
}

// DefaultInboxConfig returns sensible defaults
func DefaultInboxConfig() InboxConfig {
	return InboxConfig{
		TTL:             24 * time.Hour,
		CleanupInterval: 10 * time.Minute,
		RecoveryTimeout: time.Minute,
	}
}

var (
	// ErrDuplicateMessage indicates message was already processed
	ErrDuplicateMessage = errors.New("duplicate message: already processed")
	// ErrMessageInProgress indicates message is currently being processed
	ErrMessageInProgress = errors.New("message in progress by another handler")
	// ErrPreviouslyFailed indicates the handler failed terminally for this key
	ErrPreviouslyFailed = errors.New("message previously failed permanently")
)

// Terminal marks a handler error as not worth retrying for the same key.
func Terminal(err error) error {
	if err == nil {
		return nil
	}
	return &terminalError{err: err}
}

type terminalError struct{ err error }

func (e *terminalError) Error() string { return e.err.Error() }
func (e *terminalError) Unwrap() error { return e.err }

func isTerminal(err error) bool {
	var t *terminalError
	return errors.As(err, &t)
}

// Inbox remembers which keys have been handled
type Inbox struct {
	cfg    InboxConfig
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]*entry

	cancel context.CancelFunc
	done   chan struct{}
}

// NewInbox creates a new inbox
func NewInbox(cfg InboxConfig, logger *zap.Logger) *Inbox {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Inbox{
		cfg:     cfg,
		logger:  logger,
		tracer:  otel.Tracer("inbox"),
		now:     time.Now,
		entries: make(map[string]*entry),
	}
}

// Process runs fn unless key was already handled. A duplicate returns
// ErrDuplicateMessage without calling fn. A failed fn leaves the key
// recoverable, or failed when the error is Terminal.
func (i *Inbox) Process(ctx context.Context, key string, fn func(context.Context) error) error {
	ctx, span := i.tracer.Start(ctx, "inbox_process",
		trace.WithAttributes(attribute.String("idempotency_key", key)))
	defer span.End()

	if err := i.start(key); err != nil {
		span.SetAttributes(attribute.Bool("duplicate", errors.Is(err, ErrDuplicateMessage)))
		return err
	}

	if err := fn(ctx); err != nil {
		status := StatusRecoverable
		if isTerminal(err) {
			status = StatusFailed
		}
		i.mark(key, status)
		span.RecordError(err)
		return err
	}

	i.mark(key, StatusFinished)
	return nil
}

func (i *Inbox) start(key string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	if e, ok := i.entries[key]; ok && now.Before(e.expiresAt) {
		switch e.status {
		case StatusFinished:
			return ErrDuplicateMessage
		case StatusFailed:
			return ErrPreviouslyFailed
		case StatusStarted:
			if now.Sub(e.updatedAt) <= i.cfg.RecoveryTimeout {
				return ErrMessageInProgress
			}
			i.logger.Warn("recovering stale inbox entry", zap.String("key", key))
		}
	}

	i.entries[key] = &entry{
		status:    StatusStarted,
		updatedAt: now,
		expiresAt: now.Add(i.cfg.TTL),
	}
	return nil
}

func (i *Inbox) mark(key string, status Status) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if e, ok := i.entries[key]; ok {
		e.status = status
		e.updatedAt = i.now()
	}
}

// StartCleanup starts the background cleanup goroutine
func (i *Inbox) StartCleanup() {
	ctx, cancel := context.WithCancel(context.Background())
	i.cancel = cancel
	i.done = make(chan struct{})
	go i.cleanupLoop(ctx)
}

// Stop stops the cleanup goroutine, if running
func (i *Inbox) Stop() {
	if i.cancel == nil {
		return
	}
	i.cancel()
	<-i.done
}

func (i *Inbox) cleanupLoop(ctx context.Context) {
	defer close(i.done)

	ticker := time.NewTicker(i.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := i.cleanup(); n > 0 {
				i.logger.Debug("inbox cleanup completed", zap.Int("deleted", n))
			}
		}
	}
}

func (i *Inbox) cleanup() int {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	deleted := 0
	for key, e := range i.entries {
		if !now.Before(e.expiresAt) {
			delete(i.entries, key)
			deleted++
		}
	}
	return deleted
}

// InboxStats holds entry counts by status
type InboxStats struct {
	TotalEntries int
	Started      int
	Finished     int
	Recoverable  int
	Failed       int
}

// Stats returns current inbox statistics
func (i *Inbox) Stats() InboxStats {
	i.mu.Lock()
	defer i.mu.Unlock()

	stats := InboxStats{TotalEntries: len(i.entries)}
	for _, e := range i.entries {
		switch e.status {
		case StatusStarted:
			stats.Started++
		case StatusFinished:
			stats.Finished++
		case StatusRecoverable:
			stats.Recoverable++
		case StatusFailed:
			stats.Failed++
		}
	}
	return stats
}

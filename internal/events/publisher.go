package events

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/andremillet/prescreveai/internal/domain/prescription"
	"github.com/andremillet/prescreveai/internal/observability/metrics"
	"github.com/andremillet/prescreveai/pkg/circuitbreaker"
	"github.com/andremillet/prescreveai/pkg/workerpool"
)

// ErrUnavailable is reported by Ready while the broker circuit is open.
var ErrUnavailable = errors.New("event broker unavailable")

// Publisher hands issued-prescription events to the broker. Publish never
// blocks on the network.
type Publisher interface {
	Publish(ctx context.Context, e *prescription.Event) error
	Ready(ctx context.Context) error
	Close(ctx context.Context) error
}

// Sink writes one event synchronously. *Producer is the production Sink.
type Sink interface {
	PublishEvent(ctx context.Context, topic string, e *prescription.Event) error
}

// NopPublisher discards events. It is used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *prescription.Event) error { return nil }
func (NopPublisher) Ready(context.Context) error                         { return nil }
func (NopPublisher) Close(context.Context) error                         { return nil }

// PublisherConfig sizes the background publishing queue.
type PublisherConfig struct {
	Topic      string
	Workers    int
	QueueSize  int
	MaxRetries int
}

type job struct {
	ctx   context.Context
	event *prescription.Event
}

// AsyncPublisher queues events on a worker pool and writes them to a Sink
// through a circuit breaker.
type AsyncPublisher struct {
	sink    Sink
	topic   string
	pool    *workerpool.Pool[job]
	breaker *circuitbreaker.CircuitBreaker
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewAsyncPublisher starts the publishing workers.
func NewAsyncPublisher(sink Sink, cfg PublisherConfig, m *metrics.Metrics, logger *zap.Logger) (*AsyncPublisher, error) {
	if sink == nil {
		return nil, errors.New("event sink is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	if cfg.Topic == "" {
		cfg.Topic = TopicPrescriptionsIssued
	}

	p := &AsyncPublisher{
		sink:    sink,
		topic:   cfg.Topic,
		metrics: m,
		logger:  logger,
	}

	breakerName := "events." + cfg.Topic
	breaker, err := circuitbreaker.New(circuitbreaker.DefaultConfig(breakerName), logger,
		circuitbreaker.OnStateChange(func(s circuitbreaker.State) {
			m.SetBreakerState(breakerName, s)
		}))
	if err != nil {
		return nil, fmt.Errorf("create circuit breaker: %w", err)
	}
	p.breaker = breaker
	m.SetBreakerState(breakerName, circuitbreaker.StateClosed)

	poolCfg := workerpool.DefaultConfig()
	if cfg.Workers > 0 {
		poolCfg.Workers = cfg.Workers
	}
	if cfg.QueueSize > 0 {
		poolCfg.QueueSize = cfg.QueueSize
	}
	if cfg.MaxRetries > 0 {
		poolCfg.MaxRetries = cfg.MaxRetries
	}

	pool, err := workerpool.New(poolCfg, p.handle, logger,
		workerpool.WithCompletion[job](func(err error) {
			if err != nil {
				m.EventsFailed.Inc()
				return
			}
			m.EventsPublished.Inc()
		}))
	if err != nil {
		return nil, err
	}
	p.pool = pool
	pool.Start()

	return p, nil
}

func (p *AsyncPublisher) handle(ctx context.Context, j job) error {
	ctx = mergeTrace(ctx, j.ctx)
	err := p.breaker.Execute(ctx, func(ctx context.Context) error {
		return p.sink.PublishEvent(ctx, p.topic, j.event)
	})
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return workerpool.Permanent(err)
	}
	return err
}

// Publish queues e. The request context only contributes its trace; its
// cancellation does not abort the write.
func (p *AsyncPublisher) Publish(ctx context.Context, e *prescription.Event) error {
	if p.breaker.IsOpen() {
		p.metrics.EventsFailed.Inc()
		p.logger.Warn("dropping event, broker circuit open", zap.String("event_id", e.ID))
		return ErrUnavailable
	}

	if err := p.pool.Submit(job{ctx: ctx, event: e}); err != nil {
		p.metrics.EventsFailed.Inc()
		p.logger.Warn("dropping event", zap.String("event_id", e.ID), zap.Error(err))
		return err
	}
	return nil
}

// Ready reports ErrUnavailable while the breaker is open.
func (p *AsyncPublisher) Ready(context.Context) error {
	if p.breaker.IsOpen() {
		return ErrUnavailable
	}
	if !p.pool.IsHealthy() {
		return fmt.Errorf("%w: publish queue saturated", ErrUnavailable)
	}
	return nil
}

// Close drains queued events until ctx expires.
func (p *AsyncPublisher) Close(ctx context.Context) error {
	return p.pool.Stop(ctx)
}

// Package events streams issued-prescription events to a Kafka-compatible
// broker with franz-go.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/andremillet/prescreveai/internal/domain/prescription"
)

// Header keys set on every produced record.
const (
	HeaderEventType     = "event_type"
	HeaderCorrelationID = "correlation_id"
)

// ProducerConfig holds configuration for the producer
type ProducerConfig struct {
	// Brokers is a list of broker addresses
	Brokers []string
	// ClientID identifies this process to the brokers
	ClientID string
	// Linger is the time to wait before sending a batch
	Linger time.Duration
	// Compression is the compression codec to use
	Compression string
	// RequiredAcks sets the required acks level (-1 for all, 1 for leader)
	RequiredAcks int16
	// MaxRetries is the maximum number of retries for failed sends
	MaxRetries int
}

// DefaultProducerConfig returns durable defaults for low-volume events
func DefaultProducerConfig(brokers []string) ProducerConfig {
	return ProducerConfig{
		Brokers:      brokers,
		ClientID:     "prescreveai",
		Linger:       5 * time.Millisecond,
		Compression:  "lz4",
		RequiredAcks: -1,
		MaxRetries:   3,
	}
}

func (cfg ProducerConfig) options() []kgo.Opt {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ProducerLinger(cfg.Linger),
		kgo.RecordRetries(cfg.MaxRetries),
	}
	if cfg.ClientID != "" {
		opts = append(opts, kgo.ClientID(cfg.ClientID))
	}

	switch cfg.RequiredAcks {
	case 0:
		opts = append(opts, kgo.RequiredAcks(kgo.NoAck()), kgo.DisableIdempotentWrite())
	case 1:
		opts = append(opts, kgo.RequiredAcks(kgo.LeaderAck()), kgo.DisableIdempotentWrite())
	default:
		opts = append(opts, kgo.RequiredAcks(kgo.AllISRAcks()))
	}

	switch cfg.Compression {
	case "lz4":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.Lz4Compression()))
	case "snappy":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.SnappyCompression()))
	case "gzip":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.GzipCompression()))
	case "zstd":
		opts = append(opts, kgo.ProducerBatchCompression(kgo.ZstdCompression()))
	}
	return opts
}

// Producer writes domain events to the broker.
type Producer struct {
	client *kgo.Client
	logger *zap.Logger
	tracer trace.Tracer

	messagesSent int64
	errorCount   int64
}

// NewProducer creates a producer. No connection is made until the first
// record is produced.
func NewProducer(cfg ProducerConfig, logger *zap.Logger) (*Producer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	client, err := kgo.NewClient(cfg.options()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &Producer{
		client: client,
		logger: logger,
		tracer: otel.Tracer("events-producer"),
	}, nil
}

// PublishEvent writes e to topic keyed by its aggregate ID and waits for
// the broker acknowledgement.
func (p *Producer) PublishEvent(ctx context.Context, topic string, e *prescription.Event) error {
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, span := p.tracer.Start(ctx, "produce_event",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("topic", topic),
			attribute.String("event_type", string(e.EventType)),
			attribute.String("event_id", e.ID),
		))
	defer span.End()

	record := &kgo.Record{
		Topic: topic,
		Key:   []byte(e.AggregateID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: HeaderEventType, Value: []byte(e.EventType)},
		},
	}
	if e.CorrelationID != "" {
		record.Headers = append(record.Headers, kgo.RecordHeader{Key: HeaderCorrelationID, Value: []byte(e.CorrelationID)})
	}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(record))

	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		atomic.AddInt64(&p.errorCount, 1)
		span.RecordError(err)
		p.logger.Error("failed to produce event",
			zap.String("topic", topic),
			zap.String("event_id", e.ID),
			zap.Error(err))
		return fmt.Errorf("produce %s: %w", topic, err)
	}

	atomic.AddInt64(&p.messagesSent, 1)
	p.logger.Debug("event produced",
		zap.String("topic", topic),
		zap.String("event_id", e.ID),
		zap.Int32("partition", record.Partition),
		zap.Int64("offset", record.Offset))
	return nil
}

// Ping checks that at least one broker is reachable
func (p *Producer) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}

// Close flushes and closes the producer
func (p *Producer) Close(ctx context.Context) error {
	err := p.client.Flush(ctx)
	if err != nil {
		p.logger.Warn("error flushing on close", zap.Error(err))
	}
	p.client.Close()
	return err
}

// ProducerStats holds producer statistics
type ProducerStats struct {
	MessagesSent int64
	ErrorCount   int64
}

// Stats returns current producer statistics
func (p *Producer) Stats() ProducerStats {
	return ProducerStats{
		MessagesSent: atomic.LoadInt64(&p.messagesSent),
		ErrorCount:   atomic.LoadInt64(&p.errorCount),
	}
}

// headerCarrier exposes record headers to the otel propagator.
type headerCarrier kgo.Record

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Set(key, value string) {
	for i, h := range c.Headers {
		if h.Key == key {
			c.Headers[i].Value = []byte(value)
			return
		}
	}
	c.Headers = append(c.Headers, kgo.RecordHeader{Key: key, Value: []byte(value)})
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.Headers))
	for _, h := range c.Headers {
		keys = append(keys, h.Key)
	}
	return keys
}

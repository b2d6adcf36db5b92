package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/metrics"
	"github.com/fariasvn/aw139-diagnostics-platform-sub000/pkg/tracing"
)

const (
	EventRevisionSeeded    = "effectivity.revision.seeded"
	EventRevisionActivated = "effectivity.revision.activated"
	EventDataQuality       = "effectivity.data_quality"
)

type Config struct {
	Brokers          []string
	EventsTopic      string
	DataQualityTopic string
}

// ParseBrokers splits a comma-separated broker list.
func ParseBrokers(brokers string) []string {
	var list []string
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			list = append(list, b)
		}
	}
	return list
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes effectivity lifecycle and data-quality events.
type Producer struct {
	writer           messageWriter
	logger           ectologger.Logger
	eventsTopic      string
	dataQualityTopic string
}

func NewProducer(cfg Config, logger ectologger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.LeastBytes{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireOne,
		// topics are created on first publish in dev environments
		AllowAutoTopicCreation: true,
	}

	return newProducer(writer, cfg, logger)
}

func newProducer(writer messageWriter, cfg Config, logger ectologger.Logger) *Producer {
	return &Producer{
		writer:           writer,
		logger:           logger,
		eventsTopic:      cfg.EventsTopic,
		dataQualityTopic: cfg.DataQualityTopic,
	}
}

func (p *Producer) Close() error {
	return p.writer.Close()
}

// RevisionEvent reports a seeded or activated effectivity revision.
type RevisionEvent struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	RevisionID     int64     `json:"revision_id"`
	Revision       string    `json:"revision"`
	SourceDocument string    `json:"source_document"`
	CodeCount      int       `json:"code_count"`
	RangeCount     int       `json:"range_count"`
	WarningCount   int       `json:"warning_count"`
	Timestamp      time.Time `json:"timestamp"`
	TraceID        string    `json:"trace_id,omitempty"`
}

// DataQualityEvent reports one data-quality finding for operator follow-up.
type DataQualityEvent struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Revision  string    `json:"revision"`
	Kind      string    `json:"kind"`
	Code      string    `json:"code,omitempty"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	TraceID   string    `json:"trace_id,omitempty"`
}

func (p *Producer) PublishRevisionEvent(ctx context.Context, evt *RevisionEvent) error {
	if evt == nil {
		return fmt.Errorf("revision event is nil")
	}
	if evt.ID == "" {
		evt.ID = uuid.New().String()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}

	ctx, span := tracing.StartSpan(ctx, "Kafka.PublishRevisionEvent",
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", p.eventsTopic),
		attribute.String("revision", evt.Revision),
	)
	defer span.End()
	evt.TraceID = tracing.TraceID(ctx)

	data, err := json.Marshal(evt)
	if err != nil {
		span.SetStatus(codes.Error, "failed to marshal event")
		return fmt.Errorf("failed to marshal revision event: %w", err)
	}

	msg := kafka.Message{
		Topic:   p.eventsTopic,
		Key:     []byte(evt.Revision),
		Value:   data,
		Headers: p.headers(ctx, evt.Type),
	}
	if err := p.write(ctx, msg); err != nil {
		tracing.RecordError(span, err)
		return err
	}

	span.SetStatus(codes.Ok, "event published")
	return nil
}

// PublishDataQuality publishes every finding in one batch.
func (p *Producer) PublishDataQuality(ctx context.Context, events []*DataQualityEvent) error {
	if len(events) == 0 {
		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "Kafka.PublishDataQuality",
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", p.dataQualityTopic),
		attribute.Int("messaging.batch_size", len(events)),
	)
	defer span.End()

	traceID := tracing.TraceID(ctx)
	headers := p.headers(ctx, EventDataQuality)
	messages := make([]kafka.Message, 0, len(events))
	for i, evt := range events {
		if evt.ID == "" {
			evt.ID = uuid.New().String()
		}
		if evt.Type == "" {
			evt.Type = EventDataQuality
		}
		if evt.Timestamp.IsZero() {
			evt.Timestamp = time.Now().UTC()
		}
		evt.TraceID = traceID

		data, err := json.Marshal(evt)
		if err != nil {
			span.SetStatus(codes.Error, "failed to marshal event")
			return fmt.Errorf("failed to marshal data quality event %d: %w", i, err)
		}
		messages = append(messages, kafka.Message{
			Topic:   p.dataQualityTopic,
			Key:     []byte(evt.Revision + ":" + evt.Code),
			Value:   data,
			Headers: headers,
		})
	}

	if err := p.write(ctx, messages...); err != nil {
		tracing.RecordError(span, err)
		return err
	}

	span.SetStatus(codes.Ok, "batch published")
	p.logger.WithContext(ctx).Debugf("Published %d data quality events", len(messages))
	return nil
}

func (p *Producer) headers(ctx context.Context, eventType string) []kafka.Header {
	headers := []kafka.Header{{Key: "type", Value: []byte(eventType)}}
	if traceparent := tracing.TraceParent(ctx); traceparent != "" {
		headers = append(headers, kafka.Header{Key: "traceparent", Value: []byte(traceparent)})
	}
	return headers
}

func (p *Producer) write(ctx context.Context, msgs ...kafka.Message) error {
	topic := msgs[0].Topic
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		metrics.RecordKafkaPublish(topic, "failed")
		p.logger.WithContext(ctx).WithError(err).Errorf("Failed to publish to Kafka topic %s", topic)
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	metrics.RecordKafkaPublish(topic, "published")
	return nil
}

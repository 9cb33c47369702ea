// Package events publishes document admission outcomes to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"social-schema-service/internal/models"
	"social-schema-service/internal/observability/metrics"
)

// Publisher publishes document events to separate Kafka topics for
// accepted and rejected documents.
type Publisher struct {
	writerAccepted *kafka.Writer
	writerRejected *kafka.Writer
	principal      string
	topicAccepted  string
	topicRejected  string
	enabled        bool
	metrics        *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers       []string
	TopicAccepted string
	TopicRejected string
	Principal     string
	Enabled       bool
}

// New creates a Kafka event publisher. With a nil or disabled config, or no
// brokers, the publisher only logs events.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:     cfg.Principal,
			topicAccepted: cfg.TopicAccepted,
			topicRejected: cfg.TopicRejected,
			enabled:       false,
			metrics:       m,
		}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
			WriteTimeout: 10 * time.Second,
			RequiredAcks: kafka.RequireOne,
			Transport:    transport,
		}
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicAccepted", cfg.TopicAccepted).
		Str("topicRejected", cfg.TopicRejected).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerAccepted: newWriter(cfg.TopicAccepted),
		writerRejected: newWriter(cfg.TopicRejected),
		principal:      cfg.Principal,
		topicAccepted:  cfg.TopicAccepted,
		topicRejected:  cfg.TopicRejected,
		enabled:        true,
		metrics:        m,
	}
}

// Publish routes ev to the accepted or rejected topic by its event type,
// keyed by collection so one collection's events stay ordered.
func (p *Publisher) Publish(ctx context.Context, ev *models.DocumentEvent) error {
	switch ev.EventType {
	case models.EventDocumentAccepted:
		return p.PublishAccepted(ctx, ev.Collection, ev)
	case models.EventDocumentRejected:
		return p.PublishRejected(ctx, ev.Collection, ev)
	}
	return fmt.Errorf("unknown event type %q", ev.EventType)
}

// PublishAccepted publishes an event to the accepted topic.
func (p *Publisher) PublishAccepted(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerAccepted, p.topicAccepted, models.EventDocumentAccepted, key, event)
}

// PublishRejected publishes an event to the rejected topic.
func (p *Publisher) PublishRejected(ctx context.Context, key string, event any) error {
	return p.publish(ctx, p.writerRejected, p.topicRejected, models.EventDocumentRejected, key, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordKafkaPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordKafkaPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerAccepted != nil {
		if e := p.writerAccepted.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing accepted writer")
			err = e
		}
	}
	if p.writerRejected != nil {
		if e := p.writerRejected.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing rejected writer")
			err = e
		}
	}
	return err
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"

	"social-schema-service/internal/models"
)

// ConsumerConfig holds Kafka reader settings for one topic.
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	// Since rewinds every partition by this much before reading. Zero reads
	// from the latest offset.
	Since time.Duration
}

// Consumer reads document events from every partition of one topic. The
// publisher keys messages by collection, so each collection lives on a
// single partition; readers are not in a consumer group.
type Consumer struct {
	cfg    ConsumerConfig
	dialer *kafka.Dialer
}

// NewConsumer creates a consumer. Partitions are discovered when Run starts.
func NewConsumer(cfg ConsumerConfig) *Consumer {
	return &Consumer{
		cfg:    cfg,
		dialer: &kafka.Dialer{Timeout: 10 * time.Second},
	}
}

// Run reads events until ctx is cancelled and passes each decoded event to
// handle. Partitions are read concurrently, so handle must be safe for
// concurrent use. Undecodable messages are logged and skipped.
func (c *Consumer) Run(ctx context.Context, handle func(*models.DocumentEvent)) error {
	partitions, err := c.partitions(ctx)
	if err != nil {
		return err
	}
	log.Info().
		Str("topic", c.cfg.Topic).
		Int("partitions", len(partitions)).
		Dur("since", c.cfg.Since).
		Msg("Consuming document events")

	g, gctx := errgroup.WithContext(ctx)
	for _, rc := range readerConfigs(c.cfg, partitions) {
		reader := kafka.NewReader(rc)
		g.Go(func() error {
			return c.read(gctx, reader, handle)
		})
	}
	return g.Wait()
}

func (c *Consumer) partitions(ctx context.Context) ([]kafka.Partition, error) {
	var lastErr error
	for _, broker := range c.cfg.Brokers {
		parts, err := c.dialer.LookupPartitions(ctx, "tcp", broker, c.cfg.Topic)
		if err == nil {
			if len(parts) == 0 {
				return nil, fmt.Errorf("topic %s has no partitions", c.cfg.Topic)
			}
			return parts, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no brokers configured")
	}
	return nil, fmt.Errorf("lookup partitions of %s: %w", c.cfg.Topic, lastErr)
}

// readerConfigs returns one reader config per partition of the topic,
// ordered by partition ID.
func readerConfigs(cfg ConsumerConfig, partitions []kafka.Partition) []kafka.ReaderConfig {
	ids := make([]int, 0, len(partitions))
	for _, p := range partitions {
		if p.Topic != "" && p.Topic != cfg.Topic {
			continue
		}
		ids = append(ids, p.ID)
	}
	sort.Ints(ids)

	out := make([]kafka.ReaderConfig, 0, len(ids))
	for _, id := range ids {
		out = append(out, kafka.ReaderConfig{
			Brokers:   cfg.Brokers,
			Topic:     cfg.Topic,
			Partition: id,
			MinBytes:  1,
			MaxBytes:  10e6,
		})
	}
	return out
}

func (c *Consumer) read(ctx context.Context, reader *kafka.Reader, handle func(*models.DocumentEvent)) error {
	defer reader.Close()
	partition := reader.Config().Partition

	if c.cfg.Since > 0 {
		if err := reader.SetOffsetAt(ctx, time.Now().Add(-c.cfg.Since)); err != nil {
			return fmt.Errorf("rewind %s/%d: %w", c.cfg.Topic, partition, err)
		}
	}

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			log.Error().Err(err).Str("topic", c.cfg.Topic).Int("partition", partition).Msg("Kafka read error")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		ev, err := DecodeEvent(msg)
		if err != nil {
			log.Warn().Err(err).
				Str("topic", c.cfg.Topic).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("Skipping message")
			continue
		}
		handle(ev)
	}
}

// DecodeEvent parses a document event from a Kafka message. The eventType
// header wins when the payload omits it.
func DecodeEvent(msg kafka.Message) (*models.DocumentEvent, error) {
	var ev models.DocumentEvent
	if err := json.Unmarshal(msg.Value, &ev); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}
	if ev.EventType == "" {
		for _, h := range msg.Headers {
			if h.Key == "eventType" {
				ev.EventType = string(h.Value)
			}
		}
	}
	if ev.EventType != models.EventDocumentAccepted && ev.EventType != models.EventDocumentRejected {
		return nil, fmt.Errorf("unexpected event type %q", ev.EventType)
	}
	return &ev, nil
}

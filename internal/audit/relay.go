package audit

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	relayBatchSize    = 100
	relayPollInterval = time.Second
)

// KafkaRelay drains the outbox table and publishes change events to the
// configured topic. At-least-once: an entry is marked published only after
// the broker acknowledged it, so consumers must tolerate duplicates.
type KafkaRelay struct {
	client *kgo.Client
	outbox *PostgresStore
	topic  string
	logger *slog.Logger
}

// NewKafkaRelay connects to the brokers and ensures the topic exists.
func NewKafkaRelay(ctx context.Context, brokers []string, topic string, outbox *PostgresStore, logger *slog.Logger) (*KafkaRelay, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka: %w", err)
	}

	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopic(ctx, 1, 1, nil, topic)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("ensure topic %q: %w", topic, err)
	}
	if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
		client.Close()
		return nil, fmt.Errorf("ensure topic %q: %w", topic, resp.Err)
	}

	return &KafkaRelay{client: client, outbox: outbox, topic: topic, logger: logger}, nil
}

// Run polls the outbox until the context is cancelled.
func (r *KafkaRelay) Run(ctx context.Context) error {
	ticker := time.NewTicker(relayPollInterval)
	defer ticker.Stop()
	defer r.client.Close()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.relayBatch(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox relay batch failed", "error", err.Error())
			}
		}
	}
}

func (r *KafkaRelay) relayBatch(ctx context.Context) error {
	entries, err := r.outbox.FetchUnpublished(ctx, relayBatchSize)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	records := make([]*kgo.Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, &kgo.Record{
			Topic: r.topic,
			Key:   []byte(e.AggregateID),
			Value: e.Payload,
			Headers: []kgo.RecordHeader{
				{Key: "event_type", Value: []byte(e.EventType)},
			},
		})
	}

	results := r.client.ProduceSync(ctx, records...)
	if err := results.FirstErr(); err != nil {
		return fmt.Errorf("produce change events: %w", err)
	}

	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	if err := r.outbox.MarkPublished(ctx, ids); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "relayed change events", "count", len(entries), "topic", r.topic)
	return nil
}

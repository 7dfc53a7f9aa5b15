package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaRelay forwards committed audit events to a Kafka topic for downstream
// consumers (notifications, reporting). Delivery is fire-and-forget relative
// to the workflow: a broker outage delays events but never invalidates an
// already-committed transition.
type KafkaRelay struct {
	client *kgo.Client
	topic  string
	inbox  <-chan Event
	logger *slog.Logger
}

// NewKafkaRelay connects a producer client for the given brokers.
func NewKafkaRelay(brokers []string, topic string, inbox <-chan Event, logger *slog.Logger) (*KafkaRelay, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaRelay{client: client, topic: topic, inbox: inbox, logger: logger}, nil
}

// Run consumes events from the inbox until ctx is cancelled.
func (r *KafkaRelay) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			r.client.Close()
			return ctx.Err()
		case event := <-r.inbox:
			r.produce(ctx, event)
		}
	}
}

func (r *KafkaRelay) produce(ctx context.Context, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		r.logError(ctx, "marshal audit event", err)
		return
	}
	record := &kgo.Record{
		Topic: r.topic,
		Key:   []byte(event.AssessmentID.String()),
		Value: payload,
	}
	if err := r.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		r.logError(ctx, "produce audit event", err)
	}
}

func (r *KafkaRelay) logError(ctx context.Context, msg string, err error) {
	if r.logger != nil {
		r.logger.ErrorContext(ctx, msg, "error", err)
	}
}

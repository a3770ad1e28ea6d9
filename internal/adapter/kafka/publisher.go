// Package kafka publishes scenario lifecycle events for downstream
// consumers (dashboards, alerting).
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/skyfall-io/impact-sim-service/internal/config"
	"github.com/skyfall-io/impact-sim-service/internal/domain"
)

// Event types carried in the message header and payload.
const (
	EventScenarioCreated = "scenario.created"
	EventScenarioDeleted = "scenario.deleted"
)

// ScenarioEvent is the serialized payload published to the events topic.
type ScenarioEvent struct {
	Event      string                 `json:"event"`
	ScenarioID string                 `json:"scenario_id"`
	Scenario   *domain.ImpactScenario `json:"scenario,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// Publisher produces scenario events to a Kafka topic.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured events topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaEventsTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishCreated announces a newly persisted scenario.
func (p *Publisher) PublishCreated(ctx context.Context, scenario domain.ImpactScenario) error {
	msg, err := serializeEvent(ScenarioEvent{
		Event:      EventScenarioCreated,
		ScenarioID: scenario.ID,
		Scenario:   &scenario,
		OccurredAt: domain.Now(),
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

// PublishDeleted announces a scenario removal.
func (p *Publisher) PublishDeleted(ctx context.Context, id string) error {
	msg, err := serializeEvent(ScenarioEvent{
		Event:      EventScenarioDeleted,
		ScenarioID: id,
		OccurredAt: domain.Now(),
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, msg)
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeEvent marshals a ScenarioEvent into a Kafka message keyed by
// scenario id so all events for one scenario land on the same partition.
func serializeEvent(event ScenarioEvent) (kafkago.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize scenario event: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(event.ScenarioID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "event", Value: []byte(event.Event)},
			{Key: "occurred_at", Value: []byte(event.OccurredAt.Format(time.RFC3339))},
		},
	}, nil
}

//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/skyfall-io/impact-sim-service/internal/adapter/kafka"
	"github.com/skyfall-io/impact-sim-service/internal/config"
	"github.com/skyfall-io/impact-sim-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const testEventsTopic = "test-impact-scenario-events"

// startKafka runs a single-node Kafka container and returns its broker address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0")
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic via the broker's controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	controllerConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer controllerConn.Close()

	require.NoError(t, controllerConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestPublisherEvents verifies that created and deleted events round-trip
// through a real broker with the expected key, headers, and payload.
func TestPublisherEvents(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testEventsTopic)

	cfg := &config.Config{
		KafkaBrokers:     []string{broker},
		KafkaEventsTopic: testEventsTopic,
	}
	publisher := kafka.NewPublisher(cfg, discardLogger())
	t.Cleanup(func() { _ = publisher.Close() })

	lat, lon := 54.9, 61.1
	scenario := domain.ImpactScenario{
		ID:     "sim-integration",
		Name:   "Simulated Impact (54.90, 61.10)",
		Source: domain.SourceUser,
		Inputs: domain.ImpactInputs{
			DiameterM:   20,
			VelocityKmS: 19,
			Latitude:    &lat,
			Longitude:   &lon,
		},
		CreatedAt: time.Now().UTC(),
	}

	require.NoError(t, publisher.PublishCreated(ctx, scenario))
	require.NoError(t, publisher.PublishDeleted(ctx, scenario.ID))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: []string{broker},
		Topic:   testEventsTopic,
		GroupID: fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
	})
	t.Cleanup(func() { _ = consumer.Close() })

	created := readEvent(ctx, t, consumer)
	assert.Equal(t, "sim-integration", created.Key)
	assert.Equal(t, kafka.EventScenarioCreated, created.Headers["event"])
	assert.NotEmpty(t, created.Headers["occurred_at"])
	assert.Equal(t, kafka.EventScenarioCreated, created.Event.Event)
	require.NotNil(t, created.Event.Scenario)
	assert.Equal(t, scenario.Name, created.Event.Scenario.Name)
	assert.Equal(t, 20.0, created.Event.Scenario.Inputs.DiameterM)

	deleted := readEvent(ctx, t, consumer)
	assert.Equal(t, "sim-integration", deleted.Key)
	assert.Equal(t, kafka.EventScenarioDeleted, deleted.Headers["event"])
	assert.Equal(t, kafka.EventScenarioDeleted, deleted.Event.Event)
	assert.Nil(t, deleted.Event.Scenario)
}

// consumedEvent holds a deserialized message read from the events topic.
type consumedEvent struct {
	Event   kafka.ScenarioEvent
	Key     string
	Headers map[string]string
}

func readEvent(ctx context.Context, t *testing.T, consumer *kafkago.Reader) consumedEvent {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from events topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var event kafka.ScenarioEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event), "unmarshal event")

	return consumedEvent{Event: event, Key: string(msg.Key), Headers: headers}
}

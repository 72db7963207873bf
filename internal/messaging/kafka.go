package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/temcen/coursehybrid/internal/config"
	"github.com/temcen/coursehybrid/pkg/models"
)

const (
	RecommendationServed = "recommendation.served"
	publishTimeout       = 10 * time.Second
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// EventBus publishes recommendation events to Kafka.
type EventBus struct {
	writer messageWriter
	topic  string
	logger *logrus.Logger
}

func NewEventBus(cfg *config.Config, logger *logrus.Logger) *EventBus {
	topic := cfg.Kafka.Topics.RecommendationEvents
	return &EventBus{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Kafka.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{}, // Key by user so a user's events stay ordered
			RequiredAcks: kafka.RequireOne,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
			BatchSize:    100,
		},
		topic:  topic,
		logger: logger,
	}
}

func (eb *EventBus) PublishRecommendation(ctx context.Context, event models.RecommendationEvent) error {
	message, err := buildMessage(event)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := eb.writer.WriteMessages(ctx, message); err != nil {
		eb.logger.WithError(err).WithField("event_id", event.EventID).Error("Failed to publish event to Kafka")
		return fmt.Errorf("failed to write event to Kafka: %w", err)
	}

	eb.logger.WithFields(logrus.Fields{
		"event_id": event.EventID,
		"user_id":  event.UserID,
		"topic":    eb.topic,
	}).Debug("Recommendation event published")

	return nil
}

func buildMessage(event models.RecommendationEvent) (kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(event.UserID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(RecommendationServed)},
			{Key: "event_id", Value: []byte(event.EventID.String())},
			{Key: "request_id", Value: []byte(event.RequestID.String())},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
		Time: event.Timestamp,
	}, nil
}

func (eb *EventBus) Close() error {
	if err := eb.writer.Close(); err != nil {
		return fmt.Errorf("failed to close event writer: %w", err)
	}
	return nil
}

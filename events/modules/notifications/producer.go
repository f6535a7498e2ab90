// Package notifications handles Kafka event production for threshold
// notification events.
package notifications

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

// EventTypeThresholdCrossed is the event_type of every published event
const EventTypeThresholdCrossed = "posture.threshold.crossed"

// Producer handles sending notification events to Kafka
type Producer struct {
	Writer *kafka.Writer
}

// NewProducer initializes a new Kafka writer for notification events
func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{
		Writer: &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		},
	}
}

// Publish sends the event to the Kafka topic, stamping the event envelope
func (p *Producer) Publish(ctx context.Context, event NotificationEvent) error {
	event.EventType = EventTypeThresholdCrossed
	event.EventID = uuid.New().String()
	event.EventTime = time.Now().UTC()
	event.SchemaVersion = "v1"

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.Writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.EntityID),
		Value: payload,
	})
}

// Close cleans up the Kafka writer
func (p *Producer) Close() error {
	return p.Writer.Close()
}

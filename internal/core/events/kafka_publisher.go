package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaPublisher mirrors bus events onto a Kafka topic so other services can
// consume order lifecycle changes. It is optional; when not configured the bus
// works standalone.
type KafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 100 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer, logger: logger}
}

// Handle is registered on the bus for every event type that should leave the
// process. Failures are logged only; Kafka delivery is best effort here.
func (p *KafkaPublisher) Handle(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.EventType()),
		Value: value,
		Time:  event.OccurredAt(),
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("kafka publish failed",
			"event_type", event.EventType(),
			"event_id", event.EventID(),
			"error", err)
		return err
	}

	return nil
}

func (p *KafkaPublisher) Register(bus *EventBus) {
	for _, eventType := range []string{
		EventTypeOrderPaid,
		EventTypeOrderDelivered,
		EventTypeOrderCompleted,
		EventTypeOrderCancelled,
		EventTypeDisputeOpened,
		EventTypeDisputeResolved,
		EventTypeWithdrawalRequested,
	} {
		bus.Subscribe(eventType, p.Handle)
	}
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

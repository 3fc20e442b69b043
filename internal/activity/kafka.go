package activity

import (
	"context"
	"fmt"
	"log/slog"

	v1 "github.com/qlsach-lab/catalog-ledger/internal/api/v1"
	"github.com/segmentio/kafka-go"
)

// kafkaMessageWriter abstracts kafka.Writer for testability.
type kafkaMessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher writes each entry to one topic keyed by book id, so all
// activity for a book lands on one partition in order.
type KafkaPublisher struct {
	writer   kafkaMessageWriter
	closer   func() error
	encoding Encoding
}

// NewKafkaPublisher connects a synchronous writer to brokers.
func NewKafkaPublisher(brokers []string, topic string, enc Encoding) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	slog.Info("[Kafka] Activity publisher configured", "brokers", brokers, "topic", topic, "encoding", enc)
	return &KafkaPublisher{writer: w, closer: w.Close, encoding: enc}
}

// NewKafkaPublisherWith wraps an existing writer.
func NewKafkaPublisherWith(w kafkaMessageWriter, enc Encoding) *KafkaPublisher {
	return &KafkaPublisher{writer: w, encoding: enc}
}

func (k *KafkaPublisher) Publish(ctx context.Context, entry v1.ActivityEntry) error {
	body, err := Encode(k.encoding, entry)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(entry.BookID),
		Value: body,
		Time:  entry.Timestamp,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(k.encoding.contentType())},
			{Key: "activity-id", Value: []byte(entry.ID)},
		},
	}
	if err := k.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write: %w", err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	if k.closer == nil {
		return nil
	}
	return k.closer()
}

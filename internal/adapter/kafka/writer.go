package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/nyc-building-dashboard/internal/dashboard"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces dashboard interaction records to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the interaction topic. Records are
// keyed by postal code so clicks on one ZIP land on one partition.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes the records in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, records []dashboard.Record) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("write %d interaction records: %w", len(msgs), err)
	}
	w.logger.Debug("interaction records written", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a Record into a Kafka message.
func serializeToMessage(rec dashboard.Record) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize interaction record: %w", err)
	}
	key := rec.PostalCode
	if key == "" {
		key = rec.ID
	}
	return kafkago.Message{
		Key:   []byte(key),
		Value: data,
		Time:  rec.At,
		Headers: []kafkago.Header{
			{Key: "event", Value: []byte(rec.Event)},
			{Key: "record_id", Value: []byte(rec.ID)},
			{Key: "recorded_at", Value: []byte(rec.At.Format(time.RFC3339))},
		},
	}, nil
}

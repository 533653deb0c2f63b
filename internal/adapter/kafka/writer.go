package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/county-risk-forecast/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes a run's risk scores to a Kafka topic, one message per county.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the given brokers and topic.
func NewWriter(brokers []string, topic string, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireAll,
		AllowAutoTopicCreation: true,
	}
	return &Writer{writer: w, logger: logger}
}

// PublishForecasts serializes and publishes every record in a single
// WriteMessages call. Records are keyed by region so a county always lands on
// the same partition.
func (w *Writer) PublishForecasts(ctx context.Context, runID string, generatedAt time.Time, records []domain.ForecastRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i], runID, generatedAt)
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d risk scores: %w", len(msgs), err)
	}
	w.logger.Debug("published risk scores", "run_id", runID, "count", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a ForecastRecord into a Kafka message.
func serializeToMessage(rec domain.ForecastRecord, runID string, generatedAt time.Time) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize risk score for %s: %w", rec.Region, err)
	}
	return kafkago.Message{
		Key:   []byte(rec.Region),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(runID)},
			{Key: "generated_at", Value: []byte(generatedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}

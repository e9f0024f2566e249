// Package kafka implements the optional forecast audit stream.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/wildebeast/forecast-gateway/internal/config"
	"github.com/wildebeast/forecast-gateway/internal/domain"
)

// Writer publishes answered forecasts to the audit topic.
// It implements domain.AuditPublisher.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured audit topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.AuditBrokers...),
		Topic:        cfg.AuditTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// Publish serializes an audit record and writes it to the audit topic.
// Records are keyed by the deterministic forecast ID so repeat questions
// land on the same partition.
func (w *Writer) Publish(ctx context.Context, rec domain.AuditRecord) error {
	msg, err := serializeToMessage(rec)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals an AuditRecord into a Kafka message.
func serializeToMessage(rec domain.AuditRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize audit record: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(rec.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte("forecast-gateway")},
			{Key: "answered_at", Value: []byte(rec.AnsweredAt.Format(time.RFC3339))},
		},
	}, nil
}

package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/met-climate-etl/internal/config"
	"github.com/couchcryptid/met-climate-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// messageWriter is the subset of *kafkago.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// ReportWriter publishes combination reports to a Kafka topic.
// It implements pipeline.ReportPublisher.
type ReportWriter struct {
	writer messageWriter
	logger *slog.Logger
}

// NewReportWriter creates a Kafka producer for the configured report topic.
func NewReportWriter(cfg *config.Config, logger *slog.Logger) *ReportWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaReportTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		WriteTimeout: 10 * time.Second,
	}
	return &ReportWriter{writer: w, logger: logger}
}

// PublishReport serializes one report, keyed by region/parameter so all runs
// of a combination land on the same partition.
func (w *ReportWriter) PublishReport(ctx context.Context, report domain.CombinationReport) error {
	msg, err := serializeToMessage(report)
	if err != nil {
		return err
	}
	if err := w.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish report %s: %w", report.Key(), err)
	}
	return nil
}

func (w *ReportWriter) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a CombinationReport into a Kafka message.
func serializeToMessage(report domain.CombinationReport) (kafkago.Message, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize report: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(report.Key()),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "run_id", Value: []byte(report.RunID)},
			{Key: "status", Value: []byte(report.Status)},
			{Key: "finished_at", Value: []byte(report.FinishedAt.Format(time.RFC3339))},
		},
	}, nil
}

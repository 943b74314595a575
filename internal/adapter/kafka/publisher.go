package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/weather-lake-etl/internal/config"
	"github.com/couchcryptid/weather-lake-etl/internal/etl"
)

// Publisher emits one message per completed run to a Kafka topic, letting
// downstream consumers track lake freshness without polling the service.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka producer for the configured summary topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.SummaryTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Publisher{writer: w, logger: logger}
}

// PublishSummary serializes and publishes the run summary. The message key is
// the run start time so summaries for the same run overwrite on compacted
// topics.
func (p *Publisher) PublishSummary(ctx context.Context, summary etl.RunSummary) error {
	msg, err := serializeSummary(summary)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish run summary: %w", err)
	}
	p.logger.Info("run summary published",
		"topic", p.writer.Topic,
		"processed", summary.Processed,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
	)
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeSummary marshals a RunSummary into a Kafka message.
func serializeSummary(summary etl.RunSummary) (kafkago.Message, error) {
	data, err := json.Marshal(summary)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize run summary: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(summary.StartedAt.UTC().Format(time.RFC3339)),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "processed", Value: []byte(strconv.Itoa(summary.Processed))},
			{Key: "failed", Value: []byte(strconv.Itoa(summary.Failed))},
			{Key: "finished_at", Value: []byte(summary.FinishedAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}

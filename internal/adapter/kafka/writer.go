package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/climate-index-engine/internal/config"
	"github.com/couchcryptid/climate-index-engine/internal/job"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer produces computed results to the sink topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch serializes and publishes multiple results to the sink topic in a
// single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, results []job.Result) error {
	if len(results) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(results))
	for i := range results {
		msg, err := serializeToMessage(results[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	return w.writer.WriteMessages(ctx, msgs...)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a result into a Kafka message keyed by job id,
// so all results of one job land on one partition.
func serializeToMessage(result job.Result) (kafkago.Message, error) {
	data, err := json.Marshal(result)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize result: %w", err)
	}
	status := "ok"
	if result.Failed() {
		status = "error"
	}
	return kafkago.Message{
		Key:   []byte(result.JobID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "index", Value: []byte(result.Index)},
			{Key: "status", Value: []byte(status)},
			{Key: "computed_at", Value: []byte(result.ComputedAt.Format(time.RFC3339))},
		},
	}, nil
}

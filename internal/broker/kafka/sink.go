package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/BarkinBalci/insurance-etl-pipeline/internal/domain"
	"github.com/BarkinBalci/insurance-etl-pipeline/internal/metrics"
)

// SinkConfig configures the Kafka record sink.
type SinkConfig struct {
	Brokers   []string
	Topic     string
	BatchSize int
}

// messageWriter is the subset of kafka.Writer the sink relies on.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Sink serializes enriched records to flat JSON and appends them to the
// output topic. Writes require acknowledgment from all replicas; any
// delivery failure fails the whole publish.
type Sink struct {
	writer messageWriter
	config SinkConfig
	log    *zap.Logger
}

// NewSink creates a Kafka-backed record sink.
func NewSink(cfg SinkConfig, log *zap.Logger) *Sink {
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
		BatchSize:    cfg.BatchSize,
	}

	log.Info("Kafka sink created",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic))

	return &Sink{
		writer: writer,
		config: cfg,
		log:    log,
	}
}

// Publish serializes and delivers the full record set. It returns an error
// on the first serialization or delivery failure so an incomplete batch is
// never reported as success.
func (s *Sink) Publish(ctx context.Context, records []domain.EnrichedRecord) error {
	if len(records) == 0 {
		s.log.Info("No records to publish", zap.String("topic", s.config.Topic))
		return nil
	}

	messages := make([]kafkago.Message, len(records))
	for i := range records {
		value, err := json.Marshal(&records[i])
		if err != nil {
			return fmt.Errorf("failed to serialize record %d: %w", records[i].EventID, err)
		}
		messages[i] = kafkago.Message{Value: value}
	}

	batchSize := s.config.BatchSize
	if batchSize <= 0 {
		batchSize = len(messages)
	}

	for start := 0; start < len(messages); start += batchSize {
		end := start + batchSize
		if end > len(messages) {
			end = len(messages)
		}
		if err := s.writer.WriteMessages(ctx, messages[start:end]...); err != nil {
			return fmt.Errorf("failed to publish records to topic %s: %w", s.config.Topic, err)
		}
		metrics.RecordsPublished.Add(float64(end - start))
	}

	s.log.Info("Published records to Kafka",
		zap.String("topic", s.config.Topic),
		zap.Int("record_count", len(records)))

	return nil
}

// Close flushes and releases the underlying writer.
func (s *Sink) Close() error {
	return s.writer.Close()
}

package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/BarkinBalci/insurance-etl-pipeline/internal/broker"
	"github.com/BarkinBalci/insurance-etl-pipeline/internal/domain"
	"github.com/BarkinBalci/insurance-etl-pipeline/internal/metrics"
)

// SourceConfig configures the Kafka event source.
type SourceConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	// DrainWait is the idle fetch window after which the batch is
	// considered drained up to the latest offset at call time.
	DrainWait time.Duration
}

// messageReader is the subset of kafka.Reader the source relies on.
type messageReader interface {
	FetchMessage(ctx context.Context) (kafkago.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Source pulls a bounded batch of raw events from the source topic. The
// consumer group acts as the external checkpoint: offsets are committed
// through the CommitFunc returned by Fetch, never implicitly.
type Source struct {
	reader messageReader
	parser *JSONEventParser
	config SourceConfig
	log    *zap.Logger
}

// NewSource creates a Kafka-backed event source.
func NewSource(cfg SourceConfig, log *zap.Logger) *Source {
	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		StartOffset: kafkago.FirstOffset,
		MinBytes:    1,
		MaxBytes:    10e6,
	})

	log.Info("Kafka source created",
		zap.Strings("brokers", cfg.Brokers),
		zap.String("topic", cfg.Topic),
		zap.String("group_id", cfg.GroupID))

	return &Source{
		reader: reader,
		parser: NewJSONEventParser(),
		config: cfg,
		log:    log,
	}
}

// Fetch reads the records currently available on the topic, stopping once
// no message arrives within the drain window. Malformed payloads are
// dropped silently and still covered by the returned commit. Connectivity
// failures are retried once before they become fatal.
func (s *Source) Fetch(ctx context.Context) ([]domain.RawEvent, broker.CommitFunc, error) {
	var events []domain.RawEvent
	var fetched []kafkago.Message
	malformed := 0
	retried := false

	for {
		fetchCtx, cancel := context.WithTimeout(ctx, s.config.DrainWait)
		msg, err := s.reader.FetchMessage(fetchCtx)
		cancel()

		if err != nil {
			if ctx.Err() != nil {
				return nil, nil, ctx.Err()
			}
			if errors.Is(err, context.DeadlineExceeded) {
				// Drained: nothing new arrived within the window.
				break
			}
			if !retried {
				s.log.Warn("Transient fetch error, retrying once",
					zap.String("topic", s.config.Topic),
					zap.Error(err))
				retried = true
				time.Sleep(time.Second)
				continue
			}
			return nil, nil, fmt.Errorf("failed to fetch from topic %s: %w", s.config.Topic, err)
		}

		fetched = append(fetched, msg)

		event, err := s.parser.Parse(msg.Value)
		if err != nil {
			malformed++
			metrics.EventsMalformed.Inc()
			continue
		}

		events = append(events, event)
		metrics.EventsFetched.Inc()
	}

	s.log.Info("Fetched events from Kafka",
		zap.String("topic", s.config.Topic),
		zap.Int("event_count", len(events)),
		zap.Int("malformed_count", malformed))

	commit := func(ctx context.Context) error {
		if len(fetched) == 0 {
			return nil
		}
		if err := s.reader.CommitMessages(ctx, fetched...); err != nil {
			return fmt.Errorf("failed to commit source offsets: %w", err)
		}
		s.log.Info("Committed source offsets",
			zap.String("topic", s.config.Topic),
			zap.Int("message_count", len(fetched)))
		return nil
	}

	return events, commit, nil
}

// Close releases the underlying reader.
func (s *Source) Close() error {
	return s.reader.Close()
}

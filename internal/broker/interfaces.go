package broker

import (
	"context"

	"github.com/BarkinBalci/insurance-etl-pipeline/internal/domain"
)

// CommitFunc marks the fetched batch as consumed in the broker's checkpoint
// store. The orchestrator calls it only after the enriched batch has been
// published, so a failed run leaves the source offsets untouched.
type CommitFunc func(ctx context.Context) error

// EventSource pulls the bounded batch of raw events currently available on
// the source topic.
type EventSource interface {
	Fetch(ctx context.Context) ([]domain.RawEvent, CommitFunc, error)
	Close() error
}

// RecordPublisher delivers enriched records to the output topic. Publish
// returns an error if any record cannot be delivered; partial batches are
// never reported as success.
type RecordPublisher interface {
	Publish(ctx context.Context, records []domain.EnrichedRecord) error
	Close() error
}

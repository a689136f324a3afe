package etl

import (
	"go.uber.org/zap"

	"github.com/BarkinBalci/insurance-etl-pipeline/internal/domain"
	"github.com/BarkinBalci/insurance-etl-pipeline/internal/metrics"
)

// Cleaner filters structurally invalid events before the join. It is a
// pure filter: no mutation, no reordering guarantees beyond input order.
type Cleaner struct {
	log *zap.Logger
}

// NewCleaner creates a new record cleaner.
func NewCleaner(log *zap.Logger) *Cleaner {
	return &Cleaner{log: log}
}

// Clean returns the events satisfying the validity invariants: user_id,
// event_time, session_id and premium_amount present, premium_amount > 0.
// Dropped events are counted, not individually logged.
func (c *Cleaner) Clean(events []domain.RawEvent) []domain.RawEvent {
	cleaned := make([]domain.RawEvent, 0, len(events))
	for i := range events {
		if events[i].Valid() {
			cleaned = append(cleaned, events[i])
		}
	}

	dropped := len(events) - len(cleaned)
	if dropped > 0 {
		metrics.EventsDropped.Add(float64(dropped))
	}

	c.log.Info("Cleaned raw events",
		zap.Int("input_count", len(events)),
		zap.Int("kept_count", len(cleaned)),
		zap.Int("dropped_count", dropped))

	return cleaned
}

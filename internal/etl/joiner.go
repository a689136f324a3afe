package etl

import (
	"go.uber.org/zap"

	"github.com/BarkinBalci/insurance-etl-pipeline/internal/domain"
)

// JoinedEvent pairs a cleaned event with its dimension match, nil when the
// user id has no entry in the snapshot.
type JoinedEvent struct {
	Event domain.RawEvent
	User  *domain.UserDimension
}

// Joiner performs a left outer join of cleaned events against the user
// dimension snapshot. The snapshot is the broadcast side: an in-memory map
// built once and probed per event. Dimension keys are unique, so the join
// is 1:0-or-1 and every event appears exactly once in the output.
type Joiner struct {
	log *zap.Logger
}

// NewJoiner creates a new enrichment joiner.
func NewJoiner(log *zap.Logger) *Joiner {
	return &Joiner{log: log}
}

// Join probes the dimension map for every cleaned event. The map is
// read-only here and safe to share across callers.
func (j *Joiner) Join(events []domain.RawEvent, users map[int64]domain.UserDimension) []JoinedEvent {
	joined := make([]JoinedEvent, len(events))
	matched := 0
	for i := range events {
		joined[i] = JoinedEvent{Event: events[i]}
		if events[i].UserID == nil {
			continue
		}
		if user, ok := users[*events[i].UserID]; ok {
			// Copy so the pair owns its dimension row.
			u := user
			joined[i].User = &u
			matched++
		}
	}

	j.log.Info("Joined events with user dimension",
		zap.Int("event_count", len(events)),
		zap.Int("matched_count", matched),
		zap.Int("unmatched_count", len(events)-matched))

	return joined
}

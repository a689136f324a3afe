package dimension

import (
	"context"

	"github.com/BarkinBalci/insurance-etl-pipeline/internal/domain"
)

// Loader returns the complete current snapshot of the user dimension,
// keyed by user id. The snapshot is immutable for the duration of a run.
type Loader interface {
	// Snapshot loads the full dimension table into memory. This is valid
	// only while the dimension stays small enough to broadcast; past that
	// size the join strategy has to change.
	Snapshot(ctx context.Context) (map[int64]domain.UserDimension, error)

	// Close releases the underlying store connection.
	Close() error
}

package etl

import (
	"context"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BarkinBalci/insurance-etl-pipeline/internal/domain"
	"github.com/BarkinBalci/insurance-etl-pipeline/internal/metrics"
)

// DeriverConfig configures the attribute deriver.
type DeriverConfig struct {
	// Workers bounds the number of goroutines deriving records in
	// parallel. Rows carry no cross-record state, so sharding by index
	// range is safe.
	Workers int
}

// Deriver computes the derived temporal, behavioral and metadata fields on
// joined events, producing exactly one EnrichedRecord per input pair.
//
// Event ids come from a process-local counter: they are unique and
// increasing within a run but carry no uniqueness guarantee across runs or
// restarts. Callers must not treat them as global identifiers.
type Deriver struct {
	config  DeriverConfig
	counter atomic.Int64
	now     func() time.Time
	log     *zap.Logger
}

// NewDeriver creates a new attribute deriver.
func NewDeriver(cfg DeriverConfig, log *zap.Logger) *Deriver {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Deriver{
		config: cfg,
		now:    time.Now,
		log:    log,
	}
}

// Derive materializes the enriched record set. Business fields are a pure
// function of the joined input; only event_id and processing_time vary
// between invocations on the same input.
func (d *Deriver) Derive(ctx context.Context, joined []JoinedEvent) ([]domain.EnrichedRecord, error) {
	if len(joined) == 0 {
		return []domain.EnrichedRecord{}, nil
	}

	// Reserve a contiguous id block up front so ids stay deterministic
	// per input position regardless of worker scheduling.
	base := d.counter.Add(int64(len(joined))) - int64(len(joined))

	records := make([]domain.EnrichedRecord, len(joined))

	workers := d.config.Workers
	if workers > len(joined) {
		workers = len(joined)
	}
	chunk := (len(joined) + workers - 1) / workers

	g, _ := errgroup.WithContext(ctx)
	for start := 0; start < len(joined); start += chunk {
		end := start + chunk
		if end > len(joined) {
			end = len(joined)
		}
		start, end := start, end
		g.Go(func() error {
			for i := start; i < end; i++ {
				records[i] = d.derive(&joined[i], base+int64(i)+1)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	metrics.RecordsEnriched.Add(float64(len(records)))
	d.log.Info("Derived enriched records",
		zap.Int("record_count", len(records)),
		zap.Int("workers", workers))

	return records, nil
}

// derive computes one enriched record. The cleaner guarantees event_time,
// user_id, session_id and premium_amount are present at this point.
func (d *Deriver) derive(pair *JoinedEvent, eventID int64) domain.EnrichedRecord {
	event := &pair.Event
	eventTime := *event.EventTime
	eventDate := domain.NewDate(eventTime)

	record := domain.EnrichedRecord{
		EventID:        eventID,
		EventTime:      eventTime,
		UserID:         *event.UserID,
		SessionID:      *event.SessionID,
		EventType:      event.EventType,
		Channel:        event.Channel,
		PremiumAmount:  *event.PremiumAmount,
		EventDate:      eventDate,
		EventHour:      eventTime.Hour(),
		EventDayOfWeek: dayOfWeek(eventTime),
		ProcessingTime: d.now(),
		DataSource:     domain.DataSourceTag,
	}

	if event.EventType != nil && *event.EventType == domain.PurchaseEventType {
		record.IsPurchase = 1
	}

	if pair.User != nil {
		signup := pair.User.SignupDate
		city := pair.User.City
		device := pair.User.DeviceType
		tenure := eventDate.DaysSince(signup)

		record.SignupDate = &signup
		record.City = &city
		record.DeviceType = &device
		record.UserTenureDays = &tenure
	}

	return record
}

// dayOfWeek numbers days 1=Sunday through 7=Saturday. The numbering is
// fixed for the whole run.
func dayOfWeek(t time.Time) int {
	return int(t.Weekday()) + 1
}

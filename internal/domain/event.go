package domain

import (
	"encoding/json"
	"time"
)

// EventTimeLayout is the timestamp format used by raw event envelopes.
const EventTimeLayout = "2006-01-02 15:04:05"

// DataSourceTag identifies records produced by this pipeline.
const DataSourceTag = "etl"

// PurchaseEventType is the exact, case-sensitive event type that marks a purchase.
const PurchaseEventType = "purchase"

// Date is a calendar date without a time-of-day component. It serializes
// as "2006-01-02" in JSON.
type Date struct {
	time.Time
}

// NewDate truncates t to its date in UTC.
func NewDate(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DaysSince returns the whole-day difference d - other. It is negative
// when d precedes other.
func (d Date) DaysSince(other Date) int64 {
	return int64(d.Sub(other.Time) / (24 * time.Hour))
}

// MarshalJSON serializes the date as "2006-01-02".
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format("2006-01-02"))
}

// UnmarshalJSON parses a "2006-01-02" date string.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

// RawEvent is one behavioral event pulled from the source topic. Fields
// are pointers where the envelope may omit them; presence is validated by
// the cleaner, not at parse time.
type RawEvent struct {
	EventTime     *time.Time
	UserID        *int64
	SessionID     *string
	EventType     *string
	Channel       *string
	PremiumAmount *int64
}

// Valid reports whether the event satisfies the cleaning invariants:
// user_id, event_time, session_id and premium_amount present, and
// premium_amount strictly positive.
func (e *RawEvent) Valid() bool {
	return e.UserID != nil &&
		e.EventTime != nil &&
		e.SessionID != nil &&
		e.PremiumAmount != nil &&
		*e.PremiumAmount > 0
}

// UserDimension is one user's slowly-changing attributes, loaded once per
// run as an immutable snapshot keyed by user id.
type UserDimension struct {
	UserID     int64
	SignupDate Date
	City       string
	DeviceType string
}

// EnrichedRecord is the pipeline output, one per valid RawEvent. Dimension
// derived fields are nil when the event's user has no dimension match.
type EnrichedRecord struct {
	EventID        int64     `json:"event_id"`
	EventTime      time.Time `json:"event_time"`
	UserID         int64     `json:"user_id"`
	SessionID      string    `json:"session_id"`
	EventType      *string   `json:"event_type"`
	Channel        *string   `json:"channel"`
	PremiumAmount  int64     `json:"premium_amount"`
	SignupDate     *Date     `json:"signup_date"`
	City           *string   `json:"city"`
	DeviceType     *string   `json:"device_type"`
	UserTenureDays *int64    `json:"user_tenure_days"`
	EventDate      Date      `json:"event_date"`
	EventHour      int       `json:"event_hour"`
	EventDayOfWeek int       `json:"event_day_of_week"`
	IsPurchase     int       `json:"is_purchase"`
	ProcessingTime time.Time `json:"processing_time"`
	DataSource     string    `json:"data_source"`
}

// OutputColumns lists every column of the final schema in output order.
// The quality audit reports null counts over all of them.
var OutputColumns = []string{
	"event_id",
	"event_time",
	"user_id",
	"session_id",
	"event_type",
	"channel",
	"premium_amount",
	"signup_date",
	"city",
	"device_type",
	"user_tenure_days",
	"event_date",
	"event_hour",
	"event_day_of_week",
	"is_purchase",
	"processing_time",
	"data_source",
}

package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BarkinBalci/insurance-etl-pipeline/internal/domain"
)

// envelope mirrors the raw event JSON published to the source topic.
// Pointer fields keep absent keys distinguishable from zero values.
type envelope struct {
	EventTime     *string `json:"event_time"`
	UserID        *int64  `json:"user_id"`
	SessionID     *string `json:"session_id"`
	EventType     *string `json:"event_type"`
	Channel       *string `json:"channel"`
	PremiumAmount *int64  `json:"premium_amount"`
}

// JSONEventParser parses raw message payloads into RawEvents.
type JSONEventParser struct{}

// NewJSONEventParser creates a new JSON event parser.
func NewJSONEventParser() *JSONEventParser {
	return &JSONEventParser{}
}

// Parse parses a JSON payload into a RawEvent. A payload that is not valid
// JSON or carries wrongly typed fields is malformed and returns an error;
// the caller drops it. Missing fields and unparseable timestamps parse to
// nil and are left for the cleaner, which owns the validity invariants.
func (p *JSONEventParser) Parse(body []byte) (domain.RawEvent, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return domain.RawEvent{}, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}

	event := domain.RawEvent{
		UserID:        env.UserID,
		SessionID:     env.SessionID,
		EventType:     env.EventType,
		Channel:       env.Channel,
		PremiumAmount: env.PremiumAmount,
	}

	if env.EventTime != nil {
		if ts, err := time.ParseInLocation(domain.EventTimeLayout, *env.EventTime, time.UTC); err == nil {
			event.EventTime = &ts
		}
	}

	return event, nil
}

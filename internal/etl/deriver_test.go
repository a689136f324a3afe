package etl

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BarkinBalci/insurance-etl-pipeline/internal/domain"
)

func newTestDeriver(workers int) *Deriver {
	deriver := NewDeriver(DeriverConfig{Workers: workers}, zap.NewNop())
	deriver.now = func() time.Time {
		return time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)
	}
	return deriver
}

func TestDeriver_DerivesAllFields(t *testing.T) {
	deriver := newTestDeriver(1)
	user := userFixture()

	records, err := deriver.Derive(context.Background(), []JoinedEvent{{Event: validEvent(), User: &user}})
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.Equal(t, int64(1), record.EventID)
	assert.Equal(t, int64(1), record.UserID)
	assert.Equal(t, "s1", record.SessionID)
	assert.Equal(t, int64(500), record.PremiumAmount)
	assert.Equal(t, "2024-01-10", record.EventDate.Format("2006-01-02"))
	assert.Equal(t, 14, record.EventHour)
	// 2024-01-10 is a Wednesday: 4 in 1=Sunday..7=Saturday numbering.
	assert.Equal(t, 4, record.EventDayOfWeek)
	assert.Equal(t, 1, record.IsPurchase)
	assert.Equal(t, domain.DataSourceTag, record.DataSource)

	require.NotNil(t, record.UserTenureDays)
	assert.Equal(t, int64(9), *record.UserTenureDays)
	require.NotNil(t, record.City)
	assert.Equal(t, "NY", *record.City)
	require.NotNil(t, record.DeviceType)
	assert.Equal(t, "mobile", *record.DeviceType)
	require.NotNil(t, record.SignupDate)
	assert.Equal(t, "2024-01-01", record.SignupDate.Format("2006-01-02"))
}

func TestDeriver_NoDimensionMatchLeavesNulls(t *testing.T) {
	deriver := newTestDeriver(1)

	records, err := deriver.Derive(context.Background(), []JoinedEvent{{Event: validEvent()}})
	require.NoError(t, err)
	require.Len(t, records, 1)

	record := records[0]
	assert.Nil(t, record.SignupDate)
	assert.Nil(t, record.City)
	assert.Nil(t, record.DeviceType)
	assert.Nil(t, record.UserTenureDays)
}

func TestDeriver_NegativeTenure(t *testing.T) {
	deriver := newTestDeriver(1)

	user := userFixture()
	user.SignupDate = domain.NewDate(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))

	records, err := deriver.Derive(context.Background(), []JoinedEvent{{Event: validEvent(), User: &user}})
	require.NoError(t, err)

	require.NotNil(t, records[0].UserTenureDays)
	assert.Equal(t, int64(-22), *records[0].UserTenureDays)
}

func TestDeriver_IsPurchaseIsCaseSensitive(t *testing.T) {
	tests := []struct {
		name      string
		eventType *string
		want      int
	}{
		{"exact match", strPtr("purchase"), 1},
		{"capitalized", strPtr("Purchase"), 0},
		{"different type", strPtr("view"), 0},
		{"missing type", nil, 0},
	}

	deriver := newTestDeriver(1)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			event := validEvent()
			event.EventType = tt.eventType

			records, err := deriver.Derive(context.Background(), []JoinedEvent{{Event: event}})
			require.NoError(t, err)
			assert.Equal(t, tt.want, records[0].IsPurchase)
		})
	}
}

func TestDeriver_EventIDsUniqueAndIncreasingWithinRun(t *testing.T) {
	deriver := newTestDeriver(8)

	joined := make([]JoinedEvent, 1000)
	for i := range joined {
		joined[i] = JoinedEvent{Event: validEvent()}
	}

	records, err := deriver.Derive(context.Background(), joined)
	require.NoError(t, err)
	require.Len(t, records, 1000)

	seen := make(map[int64]bool, len(records))
	for i, record := range records {
		assert.False(t, seen[record.EventID], "duplicate event_id %d", record.EventID)
		seen[record.EventID] = true
		if i > 0 {
			assert.Greater(t, record.EventID, records[i-1].EventID)
		}
	}

	// A second derivation in the same process keeps ids unique.
	more, err := deriver.Derive(context.Background(), joined[:10])
	require.NoError(t, err)
	for _, record := range more {
		assert.False(t, seen[record.EventID], "event_id %d reused across derivations", record.EventID)
	}
}

func TestDeriver_BusinessFieldsAreDeterministic(t *testing.T) {
	user := userFixture()
	joined := []JoinedEvent{
		{Event: validEvent(), User: &user},
		{Event: validEvent()},
	}

	first, err := newTestDeriver(4).Derive(context.Background(), joined)
	require.NoError(t, err)
	second, err := newTestDeriver(4).Derive(context.Background(), joined)
	require.NoError(t, err)

	for i := range first {
		a, b := first[i], second[i]
		assert.Equal(t, a.EventTime, b.EventTime)
		assert.Equal(t, a.UserID, b.UserID)
		assert.Equal(t, a.SessionID, b.SessionID)
		assert.Equal(t, a.EventType, b.EventType)
		assert.Equal(t, a.Channel, b.Channel)
		assert.Equal(t, a.PremiumAmount, b.PremiumAmount)
		assert.Equal(t, a.SignupDate, b.SignupDate)
		assert.Equal(t, a.City, b.City)
		assert.Equal(t, a.DeviceType, b.DeviceType)
		assert.Equal(t, a.UserTenureDays, b.UserTenureDays)
		assert.Equal(t, a.EventDate, b.EventDate)
		assert.Equal(t, a.EventHour, b.EventHour)
		assert.Equal(t, a.EventDayOfWeek, b.EventDayOfWeek)
		assert.Equal(t, a.IsPurchase, b.IsPurchase)
		assert.Equal(t, a.DataSource, b.DataSource)
	}
}

func TestDeriver_EmptyInput(t *testing.T) {
	deriver := newTestDeriver(4)

	records, err := deriver.Derive(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

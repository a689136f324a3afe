package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeReader serves a fixed message sequence, optionally failing the first
// fetches, and reports a drained topic once exhausted.
type fakeReader struct {
	messages  []kafkago.Message
	fetchErrs []error
	next      int
	committed []kafkago.Message
	closed    bool
}

func (f *fakeReader) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(f.fetchErrs) > 0 {
		err := f.fetchErrs[0]
		f.fetchErrs = f.fetchErrs[1:]
		return kafkago.Message{}, err
	}
	if f.next >= len(f.messages) {
		return kafkago.Message{}, context.DeadlineExceeded
	}
	msg := f.messages[f.next]
	f.next++
	return msg, nil
}

func (f *fakeReader) CommitMessages(_ context.Context, msgs ...kafkago.Message) error {
	f.committed = append(f.committed, msgs...)
	return nil
}

func (f *fakeReader) Close() error {
	f.closed = true
	return nil
}

func newTestSource(reader messageReader) *Source {
	return &Source{
		reader: reader,
		parser: NewJSONEventParser(),
		config: SourceConfig{Topic: "insurance.raw_events", DrainWait: 10 * time.Millisecond},
		log:    zap.NewNop(),
	}
}

func TestSource_FetchDrainsAvailableBatch(t *testing.T) {
	reader := &fakeReader{messages: []kafkago.Message{
		{Value: []byte(`{"event_time":"2024-01-10 14:30:00","user_id":1,"session_id":"s1","event_type":"purchase","channel":"web","premium_amount":500}`)},
		{Value: []byte(`{"event_time":"2024-01-10 15:00:00","user_id":2,"session_id":"s2","event_type":"view","channel":"app","premium_amount":100}`)},
	}}
	source := newTestSource(reader)

	events, commit, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 2)

	// Offsets move only when the orchestrator commits.
	assert.Empty(t, reader.committed)
	require.NoError(t, commit(context.Background()))
	assert.Len(t, reader.committed, 2)
}

func TestSource_MalformedPayloadsDroppedButStillCommitted(t *testing.T) {
	reader := &fakeReader{messages: []kafkago.Message{
		{Value: []byte(`garbage`)},
		{Value: []byte(`{"event_time":"2024-01-10 14:30:00","user_id":1,"session_id":"s1","premium_amount":500}`)},
	}}
	source := newTestSource(reader)

	events, commit, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 1)

	require.NoError(t, commit(context.Background()))
	assert.Len(t, reader.committed, 2)
}

func TestSource_RetriesTransientErrorOnce(t *testing.T) {
	reader := &fakeReader{
		fetchErrs: []error{errors.New("broker connection reset")},
		messages: []kafkago.Message{
			{Value: []byte(`{"event_time":"2024-01-10 14:30:00","user_id":1,"session_id":"s1","premium_amount":500}`)},
		},
	}
	source := newTestSource(reader)

	events, _, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSource_PersistentErrorIsFatal(t *testing.T) {
	reader := &fakeReader{
		fetchErrs: []error{
			errors.New("broker unreachable"),
			errors.New("broker unreachable"),
		},
	}
	source := newTestSource(reader)

	_, _, err := source.Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insurance.raw_events")
}

func TestSource_EmptyTopicYieldsEmptyBatch(t *testing.T) {
	reader := &fakeReader{}
	source := newTestSource(reader)

	events, commit, err := source.Fetch(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events)

	require.NoError(t, commit(context.Background()))
	assert.Empty(t, reader.committed)
}

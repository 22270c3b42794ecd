package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/spyn"
)

type stubRecognizer struct {
	fn func(sample []byte) (*spyn.RecognitionResult, error)
}

func (s *stubRecognizer) Recognize(ctx context.Context, sample []byte, rc spyn.RecognitionContext) (*spyn.RecognitionResult, error) {
	return s.fn(sample)
}

func newTestQueue(t *testing.T) *OfflineQueue {
	t.Helper()
	st, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewOfflineQueue(st)
}

func enqueueN(t *testing.T, q *OfflineQueue, userID string, n int) {
	t.Helper()
	base := time.Now()
	for i := 0; i < n; i++ {
		err := q.Enqueue(context.Background(), &model.OfflineRecording{
			ID:         fmt.Sprintf("rec-%02d", i),
			SessionID:  "session-1",
			UserID:     userID,
			Audio:      []byte(fmt.Sprintf("sample-%02d", i)),
			CapturedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}
}

func TestQueueFIFOOrder(t *testing.T) {
	q := newTestQueue(t)
	enqueueN(t, q, "user-1", 3)

	var order []string
	rec := &stubRecognizer{fn: func(sample []byte) (*spyn.RecognitionResult, error) {
		order = append(order, string(sample))
		return &spyn.RecognitionResult{}, nil
	}}

	batch, err := q.SyncAll(context.Background(), "user-1", rec)
	require.NoError(t, err)
	require.Equal(t, 3, batch.Synced)
	require.Equal(t, 0, batch.Failed)
	require.Equal(t, []string{"sample-00", "sample-01", "sample-02"}, order)
}

func TestQueueSecondPassIsEmpty(t *testing.T) {
	q := newTestQueue(t)
	enqueueN(t, q, "user-1", 2)

	rec := &stubRecognizer{fn: func(sample []byte) (*spyn.RecognitionResult, error) {
		return &spyn.RecognitionResult{}, nil
	}}

	batch, err := q.SyncAll(context.Background(), "user-1", rec)
	require.NoError(t, err)
	require.Equal(t, 2, batch.Synced)

	batch, err = q.SyncAll(context.Background(), "user-1", rec)
	require.NoError(t, err)
	require.Equal(t, 0, batch.Synced)
	require.Equal(t, 0, batch.Failed)

	pending, err := q.PendingCount(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, 0, pending)
}

func TestQueueFailedItemsStayQueued(t *testing.T) {
	q := newTestQueue(t)
	enqueueN(t, q, "user-1", 3)

	rec := &stubRecognizer{fn: func(sample []byte) (*spyn.RecognitionResult, error) {
		if string(sample) == "sample-01" {
			return nil, &spyn.ConnectivityError{Err: errors.New("timeout")}
		}
		return &spyn.RecognitionResult{}, nil
	}}

	batch, err := q.SyncAll(context.Background(), "user-1", rec)
	require.NoError(t, err)
	require.Equal(t, 2, batch.Synced)
	require.Equal(t, 1, batch.Failed)

	pending, err := q.PendingCount(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, pending)

	// The failed item rides the next pass.
	ok := &stubRecognizer{fn: func(sample []byte) (*spyn.RecognitionResult, error) {
		require.Equal(t, "sample-01", string(sample))
		return &spyn.RecognitionResult{}, nil
	}}
	batch, err = q.SyncAll(context.Background(), "user-1", ok)
	require.NoError(t, err)
	require.Equal(t, 1, batch.Synced)
}

func TestQueueEnqueueDuringSyncLandsInNextPass(t *testing.T) {
	q := newTestQueue(t)
	enqueueN(t, q, "user-1", 1)

	// Enqueue a new recording while the pass is iterating: the snapshot
	// taken up front must exclude it.
	rec := &stubRecognizer{fn: func(sample []byte) (*spyn.RecognitionResult, error) {
		err := q.Enqueue(context.Background(), &model.OfflineRecording{
			ID:         "rec-late",
			SessionID:  "session-1",
			UserID:     "user-1",
			Audio:      []byte("late"),
			CapturedAt: time.Now(),
		})
		require.NoError(t, err)
		return &spyn.RecognitionResult{}, nil
	}}

	batch, err := q.SyncAll(context.Background(), "user-1", rec)
	require.NoError(t, err)
	require.Equal(t, 1, batch.Synced)

	pending, err := q.PendingCount(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, 1, pending)
}

func TestQueueScopedPerUser(t *testing.T) {
	q := newTestQueue(t)
	enqueueN(t, q, "user-1", 2)
	require.NoError(t, q.Enqueue(context.Background(), &model.OfflineRecording{
		ID:         "other",
		SessionID:  "session-2",
		UserID:     "user-2",
		Audio:      []byte("other"),
		CapturedAt: time.Now(),
	}))

	rec := &stubRecognizer{fn: func(sample []byte) (*spyn.RecognitionResult, error) {
		require.NotEqual(t, "other", string(sample))
		return &spyn.RecognitionResult{}, nil
	}}

	batch, err := q.SyncAll(context.Background(), "user-1", rec)
	require.NoError(t, err)
	require.Equal(t, 2, batch.Synced)

	pending, err := q.PendingCount(context.Background(), "user-2")
	require.NoError(t, err)
	require.Equal(t, 1, pending)
}

func TestQueueRoundTripsVenue(t *testing.T) {
	q := newTestQueue(t)
	venue := &model.Venue{
		Name:           "Club Test",
		Latitude:       41.0,
		Longitude:      29.0,
		Classification: model.VenueValid,
	}
	require.NoError(t, q.Enqueue(context.Background(), &model.OfflineRecording{
		ID:         "rec-1",
		SessionID:  "session-1",
		UserID:     "user-1",
		Audio:      []byte("sample"),
		CapturedAt: time.Now(),
		Venue:      venue,
	}))

	var got *model.Venue
	rec := &stubRecognizer{fn: func(sample []byte) (*spyn.RecognitionResult, error) {
		return &spyn.RecognitionResult{}, nil
	}}
	items, err := q.snapshot(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, items, 1)
	got = items[0].rec.Venue
	require.NotNil(t, got)
	require.Equal(t, "Club Test", got.Name)
	require.Equal(t, model.VenueValid, got.Classification)

	_, err = q.SyncAll(context.Background(), "user-1", rec)
	require.NoError(t, err)
}

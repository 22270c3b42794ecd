// Package spyn implements the DJ session recognition engine behind the
// SPYN screens: periodic audio sampling, in-session track de-duplication,
// online/offline branching with a durable sample queue, and end-of-session
// settlement (producer notifications and reward issuance).
package spyn

import (
	"context"
	"errors"
	"fmt"

	"github.com/spynners/api/internal/model"
)

// RecognitionContext carries session metadata alongside an audio sample.
type RecognitionContext struct {
	UserID      string
	DisplayName string
	Venue       *model.Venue
}

// RecognitionResult is the outcome of one recognition attempt.
type RecognitionResult struct {
	Identified   bool
	InCatalog    bool
	Track        *model.RecognizedTrack
	PlayOffsetMS int64
}

// Recognizer submits an audio sample to the recognition service.
// Implementations classify failures: a *ConnectivityError tells the engine
// to flip into offline mode, any other error is skipped for the cycle.
type Recognizer interface {
	Recognize(ctx context.Context, sample []byte, rc RecognitionContext) (*RecognitionResult, error)
}

// OfflineQueue durably holds samples captured while the network is down
// and replays them once connectivity returns.
type OfflineQueue interface {
	Enqueue(ctx context.Context, rec *model.OfflineRecording) error
	PendingCount(ctx context.Context, userID string) (int, error)
	// SyncAll replays the queued recordings for a user in FIFO order.
	// Items enqueued while a pass is running land in the next pass.
	SyncAll(ctx context.Context, userID string, r Recognizer) (*model.SyncBatch, error)
}

// VenueLocator classifies the venue at a coordinate. May be stale or
// unavailable; the engine treats lookup failures as "unknown".
type VenueLocator interface {
	Nearby(ctx context.Context, lat, lng float64) (*model.Venue, error)
}

// RewardResult is the outcome of a reward issuance call.
type RewardResult struct {
	Awarded        bool
	AlreadyAwarded bool
}

// Rewarder grants the session reward. Must be idempotent per user per
// calendar day per reason; the engine makes at most one call per settlement.
type Rewarder interface {
	AwardSessionReward(ctx context.Context, userID string, venue *model.Venue) (*RewardResult, error)
}

// Notifier fans out "your track was played" notifications to producers.
// Failures are logged and never block settlement.
type Notifier interface {
	NotifyTrackPlayed(ctx context.Context, n *model.NotifyProducerRequest) error
}

// EventSink receives engine events for the UI layer. All methods are
// called outside the engine lock and must not block for long.
type EventSink interface {
	TrackRecognized(sessionID string, track model.RecognizedTrack, total int)
	StateChanged(snap model.SessionSnapshot)
	SyncCompleted(sessionID string, batch model.SyncBatch)
}

// Session lifecycle errors.
var (
	ErrSessionInProgress = errors.New("spyn: a session is already in progress")
	ErrSessionNotActive  = errors.New("spyn: no active session")
	ErrSessionNotEnded   = errors.New("spyn: session has not ended")
)

// ConnectivityError marks a recognition failure caused by network loss.
type ConnectivityError struct {
	Err error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("connectivity lost: %v", e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// ServiceError marks a recognition failure that is not a connectivity
// problem (malformed response, upstream 5xx, unconfigured service).
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("recognition service error (status %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("recognition service error: %s", e.Message)
}

// IsConnectivityError reports whether err signals network loss.
func IsConnectivityError(err error) bool {
	var ce *ConnectivityError
	return errors.As(err, &ce)
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/spynners/api/internal/config"
	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/recorder"
	"github.com/spynners/api/internal/spyn"
	"github.com/spynners/api/internal/websocket"
)

const TaskTypeSpynSync = "spyn:sync"

// SessionService owns one recognition engine per user and bridges engine
// events to the WebSocket hub and Redis.
type SessionService struct {
	cfg         config.SpynConfig
	recognizer  spyn.Recognizer
	queue       spyn.OfflineQueue
	locator     spyn.VenueLocator
	rewarder    spyn.Rewarder
	notifier    spyn.Notifier
	hub         *websocket.Hub
	redis       *redis.Client
	asynqClient *asynq.Client

	mu      sync.Mutex
	entries map[string]*sessionEntry
}

type sessionEntry struct {
	engine *spyn.Engine
	// feed is non-nil when samples arrive over the API instead of a
	// server-side capture command.
	feed *recorder.FeedRecorder
}

func NewSessionService(
	cfg config.SpynConfig,
	recognizer spyn.Recognizer,
	queue spyn.OfflineQueue,
	locator spyn.VenueLocator,
	rewarder spyn.Rewarder,
	notifier spyn.Notifier,
	hub *websocket.Hub,
	redisClient *redis.Client,
	asynqClient *asynq.Client,
) *SessionService {
	return &SessionService{
		cfg:         cfg,
		recognizer:  recognizer,
		queue:       queue,
		locator:     locator,
		rewarder:    rewarder,
		notifier:    notifier,
		hub:         hub,
		redis:       redisClient,
		asynqClient: asynqClient,
		entries:     make(map[string]*sessionEntry),
	}
}

// entryFor returns the engine for a user, creating it on first use.
func (s *SessionService) entryFor(userID string) *sessionEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[userID]; ok {
		return e
	}

	entry := &sessionEntry{}
	var rec recorder.Recorder
	if s.cfg.CaptureCommand != "" {
		rec = recorder.NewExecRecorder(s.cfg.CaptureCommand)
	} else {
		entry.feed = recorder.NewFeedRecorder()
		rec = entry.feed
	}

	engineCfg := spyn.Config{
		RecognitionInterval: s.cfg.RecognitionInterval,
		RecordingDuration:   s.cfg.RecordingDuration,
		MaxDuration:         s.cfg.MaxSessionDuration,
	}
	entry.engine = spyn.NewEngine(userID, engineCfg, spyn.Deps{
		Recorder:   rec,
		Recognizer: s.recognizer,
		Queue:      s.queue,
		Locator:    s.locator,
		Rewarder:   s.rewarder,
		Notifier:   s.notifier,
		Events:     &sessionEvents{svc: s},
	})
	s.entries[userID] = entry
	return entry
}

// Start begins a session for the user.
func (s *SessionService) Start(ctx context.Context, userID string, req *model.SpynStartRequest) (*model.SpynStartResponse, error) {
	entry := s.entryFor(userID)
	snap, err := entry.engine.Start(ctx, req.DisplayName, req.Latitude, req.Longitude)
	if err != nil {
		return nil, err
	}
	return &model.SpynStartResponse{
		SessionID: snap.SessionID,
		State:     snap.State,
		StartTime: snap.StartTime,
		Venue:     snap.Venue,
	}, nil
}

// Sample feeds one captured audio sample into the user's engine. Only
// meaningful when capture runs on the client (no capture command).
func (s *SessionService) Sample(userID string, audio []byte) error {
	entry := s.entryFor(userID)
	if entry.feed == nil {
		return fmt.Errorf("server-side capture is enabled, samples are not accepted")
	}
	entry.feed.Push(audio)
	return nil
}

// Snapshot returns the current session state for the user.
func (s *SessionService) Snapshot(userID string) model.SessionSnapshot {
	return s.entryFor(userID).engine.Snapshot()
}

// End settles and ends the user's session.
func (s *SessionService) End(ctx context.Context, userID string) (*model.SpynEndResponse, error) {
	return s.entryFor(userID).engine.End(ctx)
}

// Reset returns an ended session to idle.
func (s *SessionService) Reset(userID string) error {
	return s.entryFor(userID).engine.Reset()
}

// SetNetwork records a connectivity change reported by the client.
func (s *SessionService) SetNetwork(userID string, available bool) model.SessionSnapshot {
	entry := s.entryFor(userID)
	entry.engine.SetNetworkAvailable(available)
	return entry.engine.Snapshot()
}

// QueueSync schedules a background replay of the user's offline queue.
// Used after a session ended offline and connectivity came back later.
func (s *SessionService) QueueSync(ctx context.Context, userID string) (*model.SpynSyncResponse, error) {
	pending, err := s.queue.PendingCount(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count pending recordings: %w", err)
	}
	if pending == 0 {
		return &model.SpynSyncResponse{Queued: false, Pending: 0}, nil
	}

	task, err := newSpynSyncTask(userID, s.entryFor(userID).engine.SessionID())
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}
	_, err = s.asynqClient.Enqueue(task,
		asynq.Queue("spyn"),
		asynq.MaxRetry(3),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	return &model.SpynSyncResponse{Queued: true, Pending: pending}, nil
}

// PendingCount reports how many offline recordings await sync.
func (s *SessionService) PendingCount(ctx context.Context, userID string) (int, error) {
	return s.queue.PendingCount(ctx, userID)
}

func newSpynSyncTask(userID, sessionID string) (*asynq.Task, error) {
	payload := map[string]interface{}{
		"userId":    userID,
		"sessionId": sessionID,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSpynSync, data), nil
}

// sessionEvents bridges engine events to the WebSocket hub and persists
// snapshots to Redis so session state survives an API restart.
type sessionEvents struct {
	svc *SessionService
}

func (ev *sessionEvents) TrackRecognized(sessionID string, track model.RecognizedTrack, total int) {
	if ev.svc.hub != nil {
		ev.svc.hub.BroadcastTrack(sessionID, track, total)
	}
}

func (ev *sessionEvents) StateChanged(snap model.SessionSnapshot) {
	if ev.svc.hub != nil {
		ev.svc.hub.BroadcastState(snap)
	}
	ev.svc.persistSnapshot(context.Background(), snap)
}

func (ev *sessionEvents) SyncCompleted(sessionID string, batch model.SyncBatch) {
	if ev.svc.hub != nil {
		ev.svc.hub.BroadcastSync(sessionID, batch)
	}
}

func (s *SessionService) persistSnapshot(ctx context.Context, snap model.SessionSnapshot) {
	if s.redis == nil || snap.SessionID == "" {
		return
	}
	data, err := json.Marshal(snap)
	if err != nil {
		log.Printf("Failed to marshal session snapshot: %v", err)
		return
	}
	if err := s.redis.Set(ctx, fmt.Sprintf("spyn:session:%s", snap.SessionID), data, 24*time.Hour).Err(); err != nil {
		log.Printf("Failed to persist session snapshot: %v", err)
	}
}

// GetStoredSession loads a persisted snapshot by session ID.
func (s *SessionService) GetStoredSession(ctx context.Context, sessionID string) (*model.SessionSnapshot, error) {
	data, err := s.redis.Get(ctx, fmt.Sprintf("spyn:session:%s", sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, fmt.Errorf("session not found")
		}
		return nil, err
	}
	var snap model.SessionSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

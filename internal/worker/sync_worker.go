package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/hibiken/asynq"

	"github.com/spynners/api/internal/spyn"
	"github.com/spynners/api/internal/websocket"
)

// SyncWorker replays a user's offline recording queue in the background.
// It covers the case where a session ended while offline: the client posts
// a sync request once connectivity returns, possibly long after the
// session is gone.
type SyncWorker struct {
	queue      spyn.OfflineQueue
	recognizer spyn.Recognizer
	hub        *websocket.Hub
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(queue spyn.OfflineQueue, recognizer spyn.Recognizer, hub *websocket.Hub) *SyncWorker {
	return &SyncWorker{
		queue:      queue,
		recognizer: recognizer,
		hub:        hub,
	}
}

// ProcessTask handles one queued sync pass.
func (w *SyncWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload struct {
		UserID    string `json:"userId"`
		SessionID string `json:"sessionId"`
	}
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	log.Printf("Starting offline sync for user %s", payload.UserID)

	batch, err := w.queue.SyncAll(ctx, payload.UserID, w.recognizer)
	if err != nil {
		if payload.SessionID != "" && w.hub != nil {
			w.hub.BroadcastError(payload.SessionID, "SYNC_FAILED", err.Error())
		}
		return fmt.Errorf("offline sync failed: %w", err)
	}

	log.Printf("Offline sync for user %s: %d synced, %d failed", payload.UserID, batch.Synced, batch.Failed)

	if payload.SessionID != "" && w.hub != nil {
		w.hub.BroadcastSync(payload.SessionID, *batch)
	}

	// Recognitions still queued (failed items) stay put and ride the next
	// sync request.
	return nil
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/spyn"
)

// OfflineQueue is the durable FIFO of audio samples captured while the
// network was unavailable. It satisfies spyn.OfflineQueue: enqueues are
// safe while a sync pass is iterating (items enqueued mid-pass land in
// the next pass), and sync passes never run concurrently.
type OfflineQueue struct {
	db     *sql.DB
	syncMu sync.Mutex
}

func NewOfflineQueue(s *Store) *OfflineQueue {
	return &OfflineQueue{db: s.DB()}
}

// Enqueue appends a recording. Storage failures are returned to the
// caller, which drops the sample rather than crashing the session.
func (q *OfflineQueue) Enqueue(ctx context.Context, rec *model.OfflineRecording) error {
	var venueJSON []byte
	if rec.Venue != nil {
		var err error
		venueJSON, err = json.Marshal(rec.Venue)
		if err != nil {
			return fmt.Errorf("marshal venue: %w", err)
		}
	}
	_, err := q.db.ExecContext(ctx,
		`INSERT INTO offline_recordings (id, session_id, user_id, display_name, audio, captured_at, venue_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SessionID, rec.UserID, rec.DisplayName, rec.Audio,
		rec.CapturedAt.UTC().Format(time.RFC3339Nano), nullableString(venueJSON))
	if err != nil {
		return fmt.Errorf("enqueue offline recording: %w", err)
	}
	return nil
}

// PendingCount returns the number of not-yet-submitted recordings.
func (q *OfflineQueue) PendingCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM offline_recordings WHERE user_id = ?`, userID).Scan(&n)
	return n, err
}

// SyncAll replays the queued recordings in FIFO order. Each item is
// atomically either still queued or synced: a successful submission
// deletes the row, a failed one leaves it in place and counts as failed.
// Re-invoking after a full success yields {0, 0}.
func (q *OfflineQueue) SyncAll(ctx context.Context, userID string, r spyn.Recognizer) (*model.SyncBatch, error) {
	q.syncMu.Lock()
	defer q.syncMu.Unlock()

	// Snapshot the current pass up front so concurrent enqueues are
	// excluded from it.
	items, err := q.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	batch := &model.SyncBatch{Results: make([]model.SyncRecordingResult, 0, len(items))}
	for _, item := range items {
		res, err := r.Recognize(ctx, item.rec.Audio, spyn.RecognitionContext{
			UserID:      item.rec.UserID,
			DisplayName: item.rec.DisplayName,
			Venue:       item.rec.Venue,
		})
		if err != nil {
			batch.Failed++
			batch.Results = append(batch.Results, model.SyncRecordingResult{
				RecordingID: item.rec.ID,
				Error:       err.Error(),
			})
			continue
		}

		if _, err := q.db.ExecContext(ctx,
			`DELETE FROM offline_recordings WHERE id = ?`, item.rec.ID); err != nil {
			batch.Failed++
			batch.Results = append(batch.Results, model.SyncRecordingResult{
				RecordingID: item.rec.ID,
				Error:       fmt.Sprintf("dequeue: %v", err),
			})
			continue
		}

		batch.Synced++
		result := model.SyncRecordingResult{RecordingID: item.rec.ID}
		if res != nil {
			result.Identified = res.Identified
			result.InCatalog = res.InCatalog
			result.Track = res.Track
		}
		batch.Results = append(batch.Results, result)
	}

	return batch, nil
}

type queuedItem struct {
	rec model.OfflineRecording
}

func (q *OfflineQueue) snapshot(ctx context.Context, userID string) ([]queuedItem, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT id, session_id, user_id, display_name, audio, captured_at, venue_json
		 FROM offline_recordings WHERE user_id = ?
		 ORDER BY captured_at ASC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("snapshot offline queue: %w", err)
	}
	defer rows.Close()

	var items []queuedItem
	for rows.Next() {
		var (
			rec        model.OfflineRecording
			captured   string
			venueJSON  sql.NullString
			displayNme sql.NullString
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.UserID, &displayNme,
			&rec.Audio, &captured, &venueJSON); err != nil {
			return nil, err
		}
		rec.DisplayName = displayNme.String
		if t, err := time.Parse(time.RFC3339Nano, captured); err == nil {
			rec.CapturedAt = t
		}
		if venueJSON.Valid && venueJSON.String != "" {
			var v model.Venue
			if err := json.Unmarshal([]byte(venueJSON.String), &v); err == nil {
				rec.Venue = &v
			}
		}
		items = append(items, queuedItem{rec: rec})
	}
	return items, rows.Err()
}

func nullableString(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

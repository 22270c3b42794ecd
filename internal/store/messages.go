package store

import (
	"context"
	"time"

	"github.com/spynners/api/internal/model"
)

func (s *Store) CreateMessage(ctx context.Context, m *model.Message) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, sender_id, sender_name, recipient_id, type, content, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.SenderID, m.SenderName, m.RecipientID, m.Type, m.Content,
		m.Timestamp.UTC().Format(time.RFC3339Nano))
	return err
}

// ListMessages returns the conversation between two users, oldest first.
func (s *Store) ListMessages(ctx context.Context, userID, contactID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, sender_id, sender_name, recipient_id, type, content, timestamp
		 FROM messages
		 WHERE (sender_id = ? AND recipient_id = ?) OR (sender_id = ? AND recipient_id = ?)
		 ORDER BY timestamp ASC LIMIT ?`,
		userID, contactID, contactID, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var (
			m  model.Message
			ts string
		)
		if err := rows.Scan(&m.ID, &m.SenderID, &m.SenderName, &m.RecipientID,
			&m.Type, &m.Content, &ts); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			m.Timestamp = t
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

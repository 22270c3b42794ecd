package store

import (
	"context"
	"time"

	"github.com/spynners/api/internal/model"
)

func (s *Store) CreatePlaylist(ctx context.Context, p *model.Playlist) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO playlists (id, name, user_id, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.UserID, p.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// ListPlaylists returns a user's playlists with their track IDs.
func (s *Store) ListPlaylists(ctx context.Context, userID string) ([]model.Playlist, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, user_id, created_at FROM playlists WHERE user_id = ? ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var playlists []model.Playlist
	for rows.Next() {
		var (
			p       model.Playlist
			created string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.UserID, &created); err != nil {
			return nil, err
		}
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			p.CreatedAt = t
		}
		playlists = append(playlists, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range playlists {
		trackIDs, err := s.playlistTrackIDs(ctx, playlists[i].ID)
		if err != nil {
			return nil, err
		}
		playlists[i].TrackIDs = trackIDs
	}
	return playlists, nil
}

// AddTrackToPlaylist appends a track; adding the same track twice is a
// no-op, matching the original's add-to-set behavior.
func (s *Store) AddTrackToPlaylist(ctx context.Context, playlistID, trackID string) error {
	var exists int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM playlists WHERE id = ?`, playlistID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return ErrNotFound
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO playlist_tracks (playlist_id, track_id) VALUES (?, ?)`,
		playlistID, trackID)
	return err
}

func (s *Store) playlistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT track_id FROM playlist_tracks WHERE playlist_id = ? ORDER BY rowid ASC`, playlistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

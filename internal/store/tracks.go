package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/spynners/api/internal/model"
)

func (s *Store) CreateTrack(ctx context.Context, t *model.Track) error {
	collaborators, err := json.Marshal(t.Collaborators)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tracks (id, title, artist, genre, uploaded_by, producer_name, collaborators, label, bpm, key,
		                     energy_level, mood, description, is_vip, isrc_code, iswc_code, release_date,
		                     copyright, audio_url, artwork_url, status, play_count, download_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Title, t.Artist, t.Genre, t.UploadedBy, t.ProducerName, string(collaborators), t.Label,
		nullableInt(t.BPM), t.Key, t.EnergyLevel, t.Mood, t.Description, boolToInt(t.IsVIP),
		t.ISRCCode, t.ISWCCode, t.ReleaseDate, t.Copyright, t.AudioURL, t.ArtworkURL,
		string(t.Status), t.PlayCount, t.DownloadCount,
		t.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// ListTracks returns the newest tracks, optionally filtered by genre.
func (s *Store) ListTracks(ctx context.Context, genre string, limit int) ([]model.Track, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `SELECT id, title, artist, genre, uploaded_by, producer_name, collaborators, label, bpm, key,
	                 energy_level, mood, description, is_vip, isrc_code, iswc_code, release_date,
	                 copyright, audio_url, artwork_url, status, play_count, download_count, created_at
	          FROM tracks`
	args := []interface{}{}
	if genre != "" {
		query += ` WHERE genre = ?`
		args = append(args, genre)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tracks []model.Track
	for rows.Next() {
		t, err := scanTrack(rows)
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, *t)
	}
	return tracks, rows.Err()
}

// FindTrackByIdentity looks a recognized title/artist pair up in the
// SPYNNERS catalog (case-insensitive).
func (s *Store) FindTrackByIdentity(ctx context.Context, title, artist string) (*model.Track, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, artist, genre, uploaded_by, producer_name, collaborators, label, bpm, key,
		        energy_level, mood, description, is_vip, isrc_code, iswc_code, release_date,
		        copyright, audio_url, artwork_url, status, play_count, download_count, created_at
		 FROM tracks WHERE title = ? COLLATE NOCASE AND artist = ? COLLATE NOCASE LIMIT 1`,
		strings.TrimSpace(title), strings.TrimSpace(artist))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanTrack(rows)
}

func scanTrack(rows *sql.Rows) (*model.Track, error) {
	var (
		t             model.Track
		uploadedBy    sql.NullString
		collaborators sql.NullString
		bpm           sql.NullInt64
		status        string
		isVIP         int
		created       string
	)
	err := rows.Scan(&t.ID, &t.Title, &t.Artist, &t.Genre, &uploadedBy, &t.ProducerName, &collaborators,
		&t.Label, &bpm, &t.Key, &t.EnergyLevel, &t.Mood, &t.Description, &isVIP,
		&t.ISRCCode, &t.ISWCCode, &t.ReleaseDate, &t.Copyright, &t.AudioURL, &t.ArtworkURL,
		&status, &t.PlayCount, &t.DownloadCount, &created)
	if err != nil {
		return nil, err
	}
	t.Status = model.TrackStatus(status)
	t.IsVIP = isVIP != 0
	t.UploadedBy = uploadedBy.String
	if bpm.Valid {
		v := int(bpm.Int64)
		t.BPM = &v
	}
	if collaborators.Valid && collaborators.String != "" {
		if err := json.Unmarshal([]byte(collaborators.String), &t.Collaborators); err != nil {
			return nil, err
		}
	}
	if ts, err := time.Parse(time.RFC3339Nano, created); err == nil {
		t.CreatedAt = ts
	}
	return &t, nil
}

// IncrementPlayCount bumps the play counter for a track.
func (s *Store) IncrementPlayCount(ctx context.Context, trackID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE tracks SET play_count = play_count + 1 WHERE id = ?`, trackID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableInt(p *int) interface{} {
	if p == nil {
		return nil
	}
	return *p
}

// Package store provides the service's durable local storage on SQLite:
// the offline recording queue plus users, tracks, messages and playlists.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id             TEXT PRIMARY KEY,
	email          TEXT NOT NULL UNIQUE,
	password_hash  TEXT NOT NULL,
	full_name      TEXT NOT NULL,
	user_type      TEXT NOT NULL,
	diamonds       INTEGER NOT NULL DEFAULT 0,
	black_diamonds INTEGER NOT NULL DEFAULT 0,
	is_vip         INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tracks (
	id             TEXT PRIMARY KEY,
	title          TEXT NOT NULL,
	artist         TEXT NOT NULL,
	genre          TEXT NOT NULL,
	uploaded_by    TEXT,
	producer_name  TEXT,
	collaborators  TEXT,
	label          TEXT,
	bpm            INTEGER,
	key            TEXT,
	energy_level   TEXT,
	mood           TEXT,
	description    TEXT,
	is_vip         INTEGER NOT NULL DEFAULT 0,
	isrc_code      TEXT,
	iswc_code      TEXT,
	release_date   TEXT,
	copyright      TEXT,
	audio_url      TEXT,
	artwork_url    TEXT,
	status         TEXT NOT NULL,
	play_count     INTEGER NOT NULL DEFAULT 0,
	download_count INTEGER NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tracks_identity ON tracks(title, artist);
CREATE INDEX IF NOT EXISTS idx_tracks_genre ON tracks(genre);

CREATE TABLE IF NOT EXISTS messages (
	id           TEXT PRIMARY KEY,
	sender_id    TEXT NOT NULL,
	sender_name  TEXT NOT NULL,
	recipient_id TEXT NOT NULL,
	type         TEXT NOT NULL,
	content      TEXT NOT NULL,
	timestamp    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_pair ON messages(sender_id, recipient_id);

CREATE TABLE IF NOT EXISTS playlists (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS playlist_tracks (
	playlist_id TEXT NOT NULL,
	track_id    TEXT NOT NULL,
	PRIMARY KEY (playlist_id, track_id)
);

CREATE TABLE IF NOT EXISTS offline_recordings (
	id           TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL,
	user_id      TEXT NOT NULL,
	display_name TEXT,
	audio        BLOB NOT NULL,
	captured_at  TEXT NOT NULL,
	venue_json   TEXT
);
CREATE INDEX IF NOT EXISTS idx_offline_user ON offline_recordings(user_id, captured_at);
`

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies the
// schema. Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection gets its own in-memory database; pin the
		// pool to one connection so every caller sees the same schema.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// DB exposes the underlying handle for the offline queue.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

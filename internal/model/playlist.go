package model

import "time"

// Playlist is a user-curated track list.
type Playlist struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"user_id"`
	TrackIDs  []string  `json:"tracks"`
	CreatedAt time.Time `json:"created_at"`
}

// PlaylistCreateRequest creates a playlist.
type PlaylistCreateRequest struct {
	Name string `json:"name" validate:"required"`
}

// PlaylistAddTrackRequest appends a track to a playlist.
type PlaylistAddTrackRequest struct {
	TrackID string `json:"track_id" validate:"required"`
}

// PlaylistListResponse wraps a playlist listing.
type PlaylistListResponse struct {
	Success   bool       `json:"success"`
	Playlists []Playlist `json:"playlists"`
}

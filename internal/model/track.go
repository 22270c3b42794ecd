package model

import "time"

// Track is an uploaded track in the SPYNNERS library.
type Track struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Artist        string      `json:"artist"`
	Genre         string      `json:"genre"`
	UploadedBy    string      `json:"uploaded_by,omitempty"`
	ProducerName  string      `json:"producer_name,omitempty"`
	Collaborators []string    `json:"collaborators,omitempty"`
	Label         string      `json:"label,omitempty"`
	BPM           *int        `json:"bpm,omitempty"`
	Key           string      `json:"key,omitempty"`
	EnergyLevel   string      `json:"energy_level,omitempty"`
	Mood          string      `json:"mood,omitempty"`
	Description   string      `json:"description,omitempty"`
	IsVIP         bool        `json:"is_vip"`
	ISRCCode      string      `json:"isrc_code,omitempty"`
	ISWCCode      string      `json:"iswc_code,omitempty"`
	ReleaseDate   string      `json:"release_date,omitempty"`
	Copyright     string      `json:"copyright,omitempty"`
	AudioURL      string      `json:"audio_url,omitempty"`
	ArtworkURL    string      `json:"artwork_url,omitempty"`
	Status        TrackStatus `json:"status"`
	PlayCount     int         `json:"play_count"`
	DownloadCount int         `json:"download_count"`
	CreatedAt     time.Time   `json:"created_at"`
}

// TrackUploadResponse acknowledges a stored upload.
type TrackUploadResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TrackID string `json:"track_id"`
	Synced  bool   `json:"synced"`
}

// TrackListResponse wraps a track listing.
type TrackListResponse struct {
	Success bool    `json:"success"`
	Tracks  []Track `json:"tracks"`
}

package model

import (
	"strings"
	"time"
)

// TrackDedupeKey normalizes (title, artist) into the identity used for
// in-session de-duplication.
func TrackDedupeKey(title, artist string) string {
	return strings.ToLower(strings.TrimSpace(title)) + "|" + strings.ToLower(strings.TrimSpace(artist))
}

// Venue is a snapshot of the venue a session is running at.
type Venue struct {
	Name           string              `json:"name,omitempty"`
	City           string              `json:"city,omitempty"`
	Country        string              `json:"country,omitempty"`
	Latitude       float64             `json:"latitude,omitempty"`
	Longitude      float64             `json:"longitude,omitempty"`
	Types          []string            `json:"types,omitempty"`
	Classification VenueClassification `json:"classification"`
}

// RecognizedTrack is one catalog hit identified during a session.
// Immutable once appended to the session's track list.
type RecognizedTrack struct {
	DedupeKey       string    `json:"-"`
	Title           string    `json:"title"`
	Artist          string    `json:"artist"`
	Album           string    `json:"album,omitempty"`
	Genre           string    `json:"genre,omitempty"`
	CoverImageURL   string    `json:"coverImageUrl,omitempty"`
	Score           float64   `json:"score,omitempty"`
	RecognizedAt    time.Time `json:"recognizedAt"`
	ExternalTrackID string    `json:"externalTrackId,omitempty"`
	ProducerID      string    `json:"producerId,omitempty"`
}

// OfflineRecording is an audio sample captured while the network was
// unavailable, queued for deferred recognition.
type OfflineRecording struct {
	ID          string    `json:"id"`
	SessionID   string    `json:"sessionId"`
	UserID      string    `json:"userId"`
	DisplayName string    `json:"displayName,omitempty"`
	Audio       []byte    `json:"-"`
	CapturedAt  time.Time `json:"capturedAt"`
	Venue       *Venue    `json:"venue,omitempty"`
}

// SyncRecordingResult is the outcome for one replayed offline recording.
type SyncRecordingResult struct {
	RecordingID string           `json:"recordingId"`
	Identified  bool             `json:"identified"`
	InCatalog   bool             `json:"inCatalog"`
	Track       *RecognizedTrack `json:"track,omitempty"`
	Error       string           `json:"error,omitempty"`
}

// SyncBatch is the result of one offline sync pass. Ephemeral.
type SyncBatch struct {
	Synced  int                   `json:"synced"`
	Failed  int                   `json:"failed"`
	Results []SyncRecordingResult `json:"results"`
}

// SessionSnapshot is the engine state exposed to the UI.
type SessionSnapshot struct {
	SessionID     string            `json:"sessionId"`
	UserID        string            `json:"userId"`
	State         SessionState      `json:"state"`
	StartTime     time.Time         `json:"startTime"`
	Elapsed       int64             `json:"elapsedSeconds"`
	Venue         *Venue            `json:"venue,omitempty"`
	Tracks        []RecognizedTrack `json:"tracks"`
	OfflineCount  int               `json:"offlineCount"`
	Discarded     int               `json:"discarded"`
	Online        bool              `json:"online"`
	RewardGranted bool              `json:"rewardGranted"`
}

// SpynStartRequest starts a new session.
type SpynStartRequest struct {
	DisplayName string   `json:"displayName"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
}

// SpynStartResponse acknowledges a started session.
type SpynStartResponse struct {
	SessionID string       `json:"sessionId"`
	State     SessionState `json:"state"`
	StartTime time.Time    `json:"startTime"`
	Venue     *Venue       `json:"venue,omitempty"`
}

// SpynSampleRequest feeds a captured audio sample to the engine.
type SpynSampleRequest struct {
	AudioBase64 string `json:"audio_base64" validate:"required"`
}

// SpynEndResponse is the settlement outcome.
type SpynEndResponse struct {
	SessionID      string            `json:"sessionId"`
	State          SessionState      `json:"state"`
	Duration       int64             `json:"durationSeconds"`
	Tracks         []RecognizedTrack `json:"tracks"`
	OfflinePending int               `json:"offlinePending"`
	RewardGranted  bool              `json:"rewardGranted"`
	AlreadyAwarded bool              `json:"alreadyAwarded"`
}

// SpynSyncResponse acknowledges a queued offline sync pass.
type SpynSyncResponse struct {
	Queued  bool `json:"queued"`
	Pending int  `json:"pending"`
}

// RecognizeRequest is a direct one-shot recognition request.
type RecognizeRequest struct {
	AudioBase64 string `json:"audio_base64" validate:"required"`
}

// RecognizeResponse mirrors the recognition service result.
type RecognizeResponse struct {
	Success    bool             `json:"success"`
	Message    string           `json:"message,omitempty"`
	Track      *RecognizedTrack `json:"track,omitempty"`
	InCatalog  bool             `json:"inCatalog"`
	PlayOffset int64            `json:"play_offset_ms,omitempty"`
}

// NotifyProducerRequest fans out a "your track was played" notification.
type NotifyProducerRequest struct {
	TrackTitle  string  `json:"track_title" validate:"required"`
	TrackArtist string  `json:"track_artist" validate:"required"`
	TrackAlbum  string  `json:"track_album,omitempty"`
	DJName      string  `json:"dj_name,omitempty"`
	Venue       string  `json:"venue,omitempty"`
	City        string  `json:"city,omitempty"`
	Country     string  `json:"country,omitempty"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
	PlayedAt    string  `json:"played_at,omitempty"`
}

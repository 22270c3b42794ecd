package model

// WebSocket message types
const (
	WSMessageTypeTrack = "track"
	WSMessageTypeState = "state"
	WSMessageTypeSync  = "sync"
	WSMessageTypeError = "error"
	WSMessageTypePing  = "ping"
	WSMessageTypePong  = "pong"
)

// WSMessage represents a generic WebSocket message
type WSMessage struct {
	Type string `json:"type"`
}

// WSTrackMessage announces a newly recognized track.
type WSTrackMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"sessionId"`
	Track     RecognizedTrack `json:"track"`
	Total     int             `json:"total"`
}

// WSStateMessage announces a session state transition.
type WSStateMessage struct {
	Type         string       `json:"type"`
	SessionID    string       `json:"sessionId"`
	State        SessionState `json:"state"`
	Elapsed      int64        `json:"elapsedSeconds"`
	OfflineCount int          `json:"offlineCount"`
	Online       bool         `json:"online"`
}

// WSSyncMessage announces the result of an offline sync pass.
type WSSyncMessage struct {
	Type      string    `json:"type"`
	SessionID string    `json:"sessionId"`
	Batch     SyncBatch `json:"batch"`
}

// WSErrorMessage represents an error
type WSErrorMessage struct {
	Type      string  `json:"type"`
	SessionID string  `json:"sessionId"`
	Error     WSError `json:"error"`
}

// WSError represents error details
type WSError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

package model

import "time"

// Message is a chat message between two users.
type Message struct {
	ID          string    `json:"id"`
	SenderID    string    `json:"sender_id"`
	SenderName  string    `json:"sender_name"`
	RecipientID string    `json:"recipient_id"`
	Type        string    `json:"type"`
	Content     string    `json:"content"`
	Timestamp   time.Time `json:"timestamp"`
}

// MessageSendRequest sends a chat message.
type MessageSendRequest struct {
	SenderName  string `json:"sender_name" validate:"required"`
	RecipientID string `json:"recipient_id" validate:"required"`
	Type        string `json:"type" validate:"omitempty,oneof=text voice"`
	Content     string `json:"content" validate:"required"`
}

// MessageListResponse wraps a conversation listing.
type MessageListResponse struct {
	Success  bool      `json:"success"`
	Messages []Message `json:"messages"`
}

// VoiceUploadResponse returns the stored voice note URL.
type VoiceUploadResponse struct {
	Success bool   `json:"success"`
	URL     string `json:"url"`
}

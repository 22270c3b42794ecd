package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spynners/api/internal/client"
	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/store"
)

// ChatService handles direct messages between users.
type ChatService struct {
	store   *store.Store
	storage client.StorageClient
}

func NewChatService(st *store.Store, storage client.StorageClient) *ChatService {
	return &ChatService{store: st, storage: storage}
}

// Send stores a message from the authenticated user.
func (s *ChatService) Send(ctx context.Context, senderID string, req *model.MessageSendRequest) (*model.Message, error) {
	msgType := req.Type
	if msgType == "" {
		msgType = model.MessageTypeText
	}

	msg := &model.Message{
		ID:          uuid.New().String(),
		SenderID:    senderID,
		SenderName:  req.SenderName,
		RecipientID: req.RecipientID,
		Type:        msgType,
		Content:     req.Content,
		Timestamp:   time.Now(),
	}
	if err := s.store.CreateMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	return msg, nil
}

// Conversation returns the message history between two users, oldest first.
func (s *ChatService) Conversation(ctx context.Context, userID, contactID string, limit int) ([]model.Message, error) {
	messages, err := s.store.ListMessages(ctx, userID, contactID, limit)
	if err != nil {
		return nil, err
	}
	if messages == nil {
		messages = []model.Message{}
	}
	return messages, nil
}

// UploadVoice stores a voice note and returns its URL.
func (s *ChatService) UploadVoice(ctx context.Context, senderID string, audio []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "audio/m4a"
	}
	key := fmt.Sprintf("voice/%s/%s", senderID, uuid.New().String())
	if s.storage == nil {
		return "", fmt.Errorf("voice upload requires object storage")
	}
	return s.storage.Upload(ctx, key, bytes.NewReader(audio), contentType)
}

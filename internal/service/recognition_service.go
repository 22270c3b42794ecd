package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/spyn"
)

// RecognitionService handles one-shot recognition requests outside a
// session (the "what is this track" button).
type RecognitionService struct {
	recognizer spyn.Recognizer
	redis      *redis.Client
}

func NewRecognitionService(recognizer spyn.Recognizer, redisClient *redis.Client) *RecognitionService {
	return &RecognitionService{
		recognizer: recognizer,
		redis:      redisClient,
	}
}

// Recognize identifies a single sample and records the hit in the user's
// recognition history.
func (s *RecognitionService) Recognize(ctx context.Context, userID string, sample []byte) (*model.RecognizeResponse, error) {
	res, err := s.recognizer.Recognize(ctx, sample, spyn.RecognitionContext{UserID: userID})
	if err != nil {
		return nil, err
	}

	if !res.Identified || res.Track == nil {
		return &model.RecognizeResponse{
			Success: false,
			Message: "Could not identify the track",
		}, nil
	}

	s.appendHistory(ctx, userID, res.Track)

	return &model.RecognizeResponse{
		Success:    true,
		Track:      res.Track,
		InCatalog:  res.InCatalog,
		PlayOffset: res.PlayOffsetMS,
	}, nil
}

// History returns the user's most recent recognitions, newest first.
func (s *RecognitionService) History(ctx context.Context, userID string, limit int) ([]model.RecognizedTrack, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	entries, err := s.redis.LRange(ctx, historyKey(userID), 0, int64(limit-1)).Result()
	if err != nil {
		if err == redis.Nil {
			return []model.RecognizedTrack{}, nil
		}
		return nil, err
	}

	tracks := make([]model.RecognizedTrack, 0, len(entries))
	for _, e := range entries {
		var t model.RecognizedTrack
		if err := json.Unmarshal([]byte(e), &t); err != nil {
			continue
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

func (s *RecognitionService) appendHistory(ctx context.Context, userID string, track *model.RecognizedTrack) {
	if s.redis == nil {
		return
	}
	data, err := json.Marshal(track)
	if err != nil {
		log.Printf("Failed to marshal recognition history entry: %v", err)
		return
	}
	key := historyKey(userID)
	pipe := s.redis.Pipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, 49)
	pipe.Expire(ctx, key, 30*24*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Failed to store recognition history: %v", err)
	}
}

func historyKey(userID string) string {
	return fmt.Sprintf("recognitions:%s", userID)
}

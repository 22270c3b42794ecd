package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/store"
)

// PlaylistService handles user playlists.
type PlaylistService struct {
	store *store.Store
}

func NewPlaylistService(st *store.Store) *PlaylistService {
	return &PlaylistService{store: st}
}

// Create makes an empty playlist for the user.
func (s *PlaylistService) Create(ctx context.Context, userID string, req *model.PlaylistCreateRequest) (*model.Playlist, error) {
	playlist := &model.Playlist{
		ID:        uuid.New().String(),
		Name:      req.Name,
		UserID:    userID,
		TrackIDs:  []string{},
		CreatedAt: time.Now(),
	}
	if err := s.store.CreatePlaylist(ctx, playlist); err != nil {
		return nil, fmt.Errorf("failed to save playlist: %w", err)
	}
	return playlist, nil
}

// List returns the user's playlists.
func (s *PlaylistService) List(ctx context.Context, userID string) ([]model.Playlist, error) {
	playlists, err := s.store.ListPlaylists(ctx, userID)
	if err != nil {
		return nil, err
	}
	if playlists == nil {
		playlists = []model.Playlist{}
	}
	return playlists, nil
}

// AddTrack appends a track to a playlist; duplicates are no-ops.
func (s *PlaylistService) AddTrack(ctx context.Context, playlistID, trackID string) error {
	return s.store.AddTrackToPlaylist(ctx, playlistID, trackID)
}

package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/spynners/api/internal/client"
	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/store"
)

// TrackUpload carries the metadata and decoded file bytes of one upload.
type TrackUpload struct {
	Title         string
	Artist        string
	Genre         string
	ProducerName  string
	Collaborators []string
	Label         string
	BPM           *int
	Key           string
	EnergyLevel   string
	Mood          string
	Description   string
	IsVIP         bool
	ISRCCode      string
	ISWCCode      string
	ReleaseDate   string
	Copyright     string
	Audio         []byte
	AudioType     string
	Artwork       []byte
	ArtworkType   string
}

// TrackService handles catalog uploads and listings. Files land in R2 when
// it is configured; otherwise they are embedded as data URLs so local
// development needs no bucket.
type TrackService struct {
	store   *store.Store
	storage client.StorageClient
}

func NewTrackService(st *store.Store, storage client.StorageClient) *TrackService {
	return &TrackService{store: st, storage: storage}
}

// Upload stores a track's files and catalog record.
func (s *TrackService) Upload(ctx context.Context, userID string, up *TrackUpload) (*model.TrackUploadResponse, error) {
	trackID := uuid.New().String()

	audioURL, synced := s.storeFile(ctx, fmt.Sprintf("tracks/%s/audio", trackID), up.Audio, up.AudioType)
	artworkURL := ""
	if len(up.Artwork) > 0 {
		artworkURL, _ = s.storeFile(ctx, fmt.Sprintf("tracks/%s/artwork", trackID), up.Artwork, up.ArtworkType)
	}

	track := &model.Track{
		ID:            trackID,
		Title:         up.Title,
		Artist:        up.Artist,
		Genre:         up.Genre,
		UploadedBy:    userID,
		ProducerName:  up.ProducerName,
		Collaborators: up.Collaborators,
		Label:         up.Label,
		BPM:           up.BPM,
		Key:           up.Key,
		EnergyLevel:   up.EnergyLevel,
		Mood:          up.Mood,
		Description:   up.Description,
		IsVIP:         up.IsVIP,
		ISRCCode:      up.ISRCCode,
		ISWCCode:      up.ISWCCode,
		ReleaseDate:   up.ReleaseDate,
		Copyright:     up.Copyright,
		AudioURL:      audioURL,
		ArtworkURL:    artworkURL,
		Status:        model.TrackStatusPending,
		CreatedAt:     time.Now(),
	}

	if err := s.store.CreateTrack(ctx, track); err != nil {
		return nil, fmt.Errorf("failed to save track: %w", err)
	}

	return &model.TrackUploadResponse{
		Success: true,
		Message: "Track uploaded",
		TrackID: trackID,
		Synced:  synced,
	}, nil
}

// List returns catalog tracks, newest first. VIP track audio is swapped
// for a short-lived presigned URL when storage supports it.
func (s *TrackService) List(ctx context.Context, genre string, limit int) ([]model.Track, error) {
	tracks, err := s.store.ListTracks(ctx, genre, limit)
	if err != nil {
		return nil, err
	}

	if s.storage != nil {
		for i := range tracks {
			if !tracks[i].IsVIP {
				continue
			}
			key := fmt.Sprintf("tracks/%s/audio", tracks[i].ID)
			signed, err := s.storage.GetSignedURL(ctx, key, 24*time.Hour)
			if err != nil {
				log.Printf("Failed to presign VIP audio for track %s: %v", tracks[i].ID, err)
				continue
			}
			tracks[i].AudioURL = signed
		}
	}
	return tracks, nil
}

// RecordPlay bumps a track's play counter.
func (s *TrackService) RecordPlay(ctx context.Context, trackID string) error {
	return s.store.IncrementPlayCount(ctx, trackID)
}

// storeFile uploads to R2, falling back to a data URL. The second return
// reports whether the file actually reached object storage.
func (s *TrackService) storeFile(ctx context.Context, key string, data []byte, contentType string) (string, bool) {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if s.storage != nil {
		url, err := s.storage.Upload(ctx, key, bytes.NewReader(data), contentType)
		if err == nil {
			return url, true
		}
		log.Printf("R2 upload failed for %s, falling back to data URL: %v", key, err)
	}
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data)), false
}

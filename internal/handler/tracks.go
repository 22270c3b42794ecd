package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spynners/api/internal/middleware"
	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/service"
	"github.com/spynners/api/internal/store"
	"github.com/spynners/api/pkg/response"
)

const maxUploadSize = 50 * 1024 * 1024 // 50MB

var validAudioTypes = map[string]bool{
	"audio/wav":   true,
	"audio/x-wav": true,
	"audio/wave":  true,
	"audio/mpeg":  true,
	"audio/mp3":   true,
	"audio/mp4":   true,
	"audio/x-m4a": true,
	"audio/aac":   true,
	"audio/x-aac": true,
}

type TrackHandler struct {
	service   *service.TrackService
	validator *validator.Validate
}

func NewTrackHandler(svc *service.TrackService, v *validator.Validate) *TrackHandler {
	return &TrackHandler{
		service:   svc,
		validator: v,
	}
}

// Upload handles POST /api/tracks/upload
func (h *TrackHandler) Upload(c *fiber.Ctx) error {
	title := c.FormValue("title")
	if title == "" {
		return response.ValidationError(c, "title is required", nil)
	}
	artist := c.FormValue("artist")
	if artist == "" {
		return response.ValidationError(c, "artist is required", nil)
	}
	genre := c.FormValue("genre")
	if genre == "" {
		return response.ValidationError(c, "genre is required", nil)
	}

	file, err := c.FormFile("audio")
	if err != nil {
		return response.ValidationError(c, "Audio file is required", nil)
	}
	if file.Size > maxUploadSize {
		return response.ValidationError(c, "File size exceeds 50MB limit", map[string]interface{}{
			"maxSize":  maxUploadSize,
			"fileSize": file.Size,
		})
	}
	contentType := file.Header.Get("Content-Type")
	if !validAudioTypes[contentType] {
		return response.ValidationError(c, "Invalid file type. Supported: WAV, M4A, MP3, AAC", map[string]interface{}{
			"contentType": contentType,
		})
	}

	audio, err := readMultipartFile(file)
	if err != nil {
		return response.ServiceError(c, "Failed to read audio file")
	}

	up := &service.TrackUpload{
		Title:        title,
		Artist:       artist,
		Genre:        genre,
		ProducerName: c.FormValue("producer_name"),
		Label:        c.FormValue("label"),
		Key:          c.FormValue("key"),
		EnergyLevel:  c.FormValue("energy_level"),
		Mood:         c.FormValue("mood"),
		Description:  c.FormValue("description"),
		IsVIP:        c.FormValue("is_vip") == "true",
		ISRCCode:     c.FormValue("isrc_code"),
		ISWCCode:     c.FormValue("iswc_code"),
		ReleaseDate:  c.FormValue("release_date"),
		Copyright:    c.FormValue("copyright"),
		Audio:        audio,
		AudioType:    contentType,
	}
	if collaborators := c.FormValue("collaborators"); collaborators != "" {
		up.Collaborators = strings.Split(collaborators, ",")
		for i := range up.Collaborators {
			up.Collaborators[i] = strings.TrimSpace(up.Collaborators[i])
		}
	}
	if bpmStr := c.FormValue("bpm"); bpmStr != "" {
		bpm, err := strconv.Atoi(bpmStr)
		if err != nil {
			return response.ValidationError(c, "bpm must be a number", nil)
		}
		up.BPM = &bpm
	}

	if artwork, err := c.FormFile("artwork"); err == nil {
		data, err := readMultipartFile(artwork)
		if err != nil {
			return response.ServiceError(c, "Failed to read artwork file")
		}
		up.Artwork = data
		up.ArtworkType = artwork.Header.Get("Content-Type")
	}

	result, err := h.service.Upload(c.Context(), middleware.GetUserID(c), up)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, result)
}

// List handles GET /api/tracks
func (h *TrackHandler) List(c *fiber.Ctx) error {
	tracks, err := h.service.List(c.Context(), c.Query("genre"), c.QueryInt("limit", 100))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	if tracks == nil {
		tracks = []model.Track{}
	}
	return response.OK(c, fiber.Map{"success": true, "tracks": tracks})
}

// Play handles POST /api/tracks/:trackId/play
func (h *TrackHandler) Play(c *fiber.Ctx) error {
	trackID := c.Params("trackId")
	if trackID == "" {
		return response.ValidationError(c, "Track ID is required", nil)
	}

	if err := h.service.RecordPlay(c.Context(), trackID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Track not found")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, fiber.Map{"success": true})
}

func readMultipartFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spynners/api/internal/middleware"
	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/service"
	"github.com/spynners/api/internal/store"
	"github.com/spynners/api/pkg/response"
)

type PlaylistHandler struct {
	service   *service.PlaylistService
	validator *validator.Validate
}

func NewPlaylistHandler(svc *service.PlaylistService, v *validator.Validate) *PlaylistHandler {
	return &PlaylistHandler{
		service:   svc,
		validator: v,
	}
}

// Create handles POST /api/playlists
func (h *PlaylistHandler) Create(c *fiber.Ctx) error {
	var req model.PlaylistCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	playlist, err := h.service.Create(c.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, playlist)
}

// List handles GET /api/playlists
func (h *PlaylistHandler) List(c *fiber.Ctx) error {
	playlists, err := h.service.List(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, model.PlaylistListResponse{Success: true, Playlists: playlists})
}

// AddTrack handles POST /api/playlists/:playlistId/tracks
func (h *PlaylistHandler) AddTrack(c *fiber.Ctx) error {
	playlistID := c.Params("playlistId")
	if playlistID == "" {
		return response.ValidationError(c, "Playlist ID is required", nil)
	}

	var req model.PlaylistAddTrackRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	if err := h.service.AddTrack(c.Context(), playlistID, req.TrackID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return response.NotFound(c, "Playlist not found")
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, fiber.Map{"success": true})
}

package handler

import (
	"encoding/base64"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spynners/api/internal/middleware"
	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/recorder"
	"github.com/spynners/api/internal/service"
	"github.com/spynners/api/internal/spyn"
	"github.com/spynners/api/pkg/response"
)

type SpynHandler struct {
	service   *service.SessionService
	validator *validator.Validate
}

func NewSpynHandler(svc *service.SessionService, v *validator.Validate) *SpynHandler {
	return &SpynHandler{
		service:   svc,
		validator: v,
	}
}

// Start handles POST /api/spyn/start
func (h *SpynHandler) Start(c *fiber.Ctx) error {
	var req model.SpynStartRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return response.ValidationError(c, "Invalid request body", nil)
		}
	}

	result, err := h.service.Start(c.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		switch {
		case errors.Is(err, spyn.ErrSessionInProgress):
			return response.Conflict(c, "A session is already in progress")
		case errors.Is(err, recorder.ErrPermissionDenied):
			return response.PermissionDenied(c, "Microphone permission denied")
		default:
			return response.ServiceError(c, err.Error())
		}
	}

	return response.Created(c, result)
}

// Sample handles POST /api/spyn/sample
func (h *SpynHandler) Sample(c *fiber.Ctx) error {
	var req model.SpynSampleRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	audio, err := base64.StdEncoding.DecodeString(req.AudioBase64)
	if err != nil {
		return response.ValidationError(c, "audio_base64 is not valid base64", nil)
	}

	if err := h.service.Sample(middleware.GetUserID(c), audio); err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Accepted(c, fiber.Map{"accepted": true})
}

// Session handles GET /api/spyn/session
func (h *SpynHandler) Session(c *fiber.Ctx) error {
	return response.OK(c, h.service.Snapshot(middleware.GetUserID(c)))
}

// StoredSession handles GET /api/spyn/session/:sessionId
func (h *SpynHandler) StoredSession(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return response.ValidationError(c, "Session ID is required", nil)
	}

	snap, err := h.service.GetStoredSession(c.Context(), sessionID)
	if err != nil {
		return response.NotFound(c, "Session not found")
	}
	return response.OK(c, snap)
}

// End handles POST /api/spyn/end
func (h *SpynHandler) End(c *fiber.Ctx) error {
	result, err := h.service.End(c.Context(), middleware.GetUserID(c))
	if err != nil {
		if errors.Is(err, spyn.ErrSessionNotActive) {
			return response.Conflict(c, "No active session")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, result)
}

// Reset handles POST /api/spyn/reset
func (h *SpynHandler) Reset(c *fiber.Ctx) error {
	if err := h.service.Reset(middleware.GetUserID(c)); err != nil {
		if errors.Is(err, spyn.ErrSessionNotEnded) {
			return response.Conflict(c, "Session has not ended")
		}
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, fiber.Map{"state": model.SessionStateIdle})
}

// Network handles POST /api/spyn/network
func (h *SpynHandler) Network(c *fiber.Ctx) error {
	var req struct {
		Online *bool `json:"online" validate:"required"`
	}
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}
	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	snap := h.service.SetNetwork(middleware.GetUserID(c), *req.Online)
	return response.OK(c, snap)
}

// Pending handles GET /api/spyn/offline/pending
func (h *SpynHandler) Pending(c *fiber.Ctx) error {
	pending, err := h.service.PendingCount(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, fiber.Map{"pending": pending})
}

// Sync handles POST /api/spyn/sync
func (h *SpynHandler) Sync(c *fiber.Ctx) error {
	result, err := h.service.QueueSync(c.Context(), middleware.GetUserID(c))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	if !result.Queued {
		return response.OK(c, result)
	}
	return response.Accepted(c, result)
}

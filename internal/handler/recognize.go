package handler

import (
	"encoding/base64"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spynners/api/internal/middleware"
	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/service"
	"github.com/spynners/api/internal/spyn"
	"github.com/spynners/api/pkg/response"
)

type RecognizeHandler struct {
	service   *service.RecognitionService
	validator *validator.Validate
}

func NewRecognizeHandler(svc *service.RecognitionService, v *validator.Validate) *RecognizeHandler {
	return &RecognizeHandler{
		service:   svc,
		validator: v,
	}
}

// Recognize handles POST /api/recognize
func (h *RecognizeHandler) Recognize(c *fiber.Ctx) error {
	var req model.RecognizeRequest
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

	result, err := h.service.Recognize(c.Context(), middleware.GetUserID(c), audio)
	if err != nil {
		var svcErr *spyn.ServiceError
		if spyn.IsConnectivityError(err) || errors.As(err, &svcErr) {
			return response.RecognitionError(c, err.Error())
		}
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, result)
}

// History handles GET /api/recognize/history
func (h *RecognizeHandler) History(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	tracks, err := h.service.History(c.Context(), middleware.GetUserID(c), limit)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}
	return response.OK(c, fiber.Map{"success": true, "tracks": tracks})
}

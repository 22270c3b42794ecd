package handler

import (
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/spyn"
	"github.com/spynners/api/pkg/response"
)

type PlacesHandler struct {
	locator   spyn.VenueLocator
	notifier  spyn.Notifier
	validator *validator.Validate
}

func NewPlacesHandler(locator spyn.VenueLocator, notifier spyn.Notifier, v *validator.Validate) *PlacesHandler {
	return &PlacesHandler{
		locator:   locator,
		notifier:  notifier,
		validator: v,
	}
}

// Nearby handles GET /api/places/nearby
func (h *PlacesHandler) Nearby(c *fiber.Ctx) error {
	lat, err := strconv.ParseFloat(c.Query("lat"), 64)
	if err != nil {
		return response.ValidationError(c, "lat is required and must be a number", nil)
	}
	lng, err := strconv.ParseFloat(c.Query("lng"), 64)
	if err != nil {
		return response.ValidationError(c, "lng is required and must be a number", nil)
	}

	venue, err := h.locator.Nearby(c.Context(), lat, lng)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, fiber.Map{"success": true, "venue": venue})
}

// NotifyProducer handles POST /api/notify-producer
func (h *PlacesHandler) NotifyProducer(c *fiber.Ctx) error {
	var req model.NotifyProducerRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	if err := h.notifier.NotifyTrackPlayed(c.Context(), &req); err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, fiber.Map{"success": true})
}

package handler

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/spynners/api/internal/middleware"
	"github.com/spynners/api/internal/model"
	"github.com/spynners/api/internal/service"
	"github.com/spynners/api/pkg/response"
)

type ChatHandler struct {
	service   *service.ChatService
	validator *validator.Validate
}

func NewChatHandler(svc *service.ChatService, v *validator.Validate) *ChatHandler {
	return &ChatHandler{
		service:   svc,
		validator: v,
	}
}

// Send handles POST /api/chat/send
func (h *ChatHandler) Send(c *fiber.Ctx) error {
	var req model.MessageSendRequest
	if err := c.BodyParser(&req); err != nil {
		return response.ValidationError(c, "Invalid request body", nil)
	}

	if err := h.validator.Struct(&req); err != nil {
		return response.ValidationError(c, "Validation failed", formatValidationErrors(err))
	}

	msg, err := h.service.Send(c.Context(), middleware.GetUserID(c), &req)
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, msg)
}

// Messages handles GET /api/chat/messages/:contactId
func (h *ChatHandler) Messages(c *fiber.Ctx) error {
	contactID := c.Params("contactId")
	if contactID == "" {
		return response.ValidationError(c, "Contact ID is required", nil)
	}

	messages, err := h.service.Conversation(c.Context(), middleware.GetUserID(c), contactID, c.QueryInt("limit", 100))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.OK(c, model.MessageListResponse{Success: true, Messages: messages})
}

// Voice handles POST /api/chat/voice
func (h *ChatHandler) Voice(c *fiber.Ctx) error {
	file, err := c.FormFile("audio")
	if err != nil {
		return response.ValidationError(c, "Audio file is required", nil)
	}
	if file.Size > maxUploadSize {
		return response.ValidationError(c, "File size exceeds 50MB limit", nil)
	}

	audio, err := readMultipartFile(file)
	if err != nil {
		return response.ServiceError(c, "Failed to read audio file")
	}

	url, err := h.service.UploadVoice(c.Context(), middleware.GetUserID(c), audio, file.Header.Get("Content-Type"))
	if err != nil {
		return response.ServiceError(c, err.Error())
	}

	return response.Created(c, model.VoiceUploadResponse{Success: true, URL: url})
}

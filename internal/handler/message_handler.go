package handler

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/amityhq/amity-api/internal/dto"
	"github.com/amityhq/amity-api/internal/service"
	"github.com/amityhq/amity-api/internal/utils"
)

// MessageHandler serves chat history and message mutations over REST.
type MessageHandler struct {
	messages  service.MessageService
	reads     service.ReadService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewMessageHandler constructs the message handler.
func NewMessageHandler(messages service.MessageService, reads service.ReadService, validate *validator.Validate, logger zerolog.Logger) *MessageHandler {
	return &MessageHandler{
		messages:  messages,
		reads:     reads,
		validator: validate,
		logger:    logger.With().Str("component", "message_handler").Logger(),
	}
}

// Register binds message routes under the provided router group.
func (h *MessageHandler) Register(router fiber.Router) {
	router.Get("/history", h.history)
	router.Get("/:id/status", h.status)
	router.Post("/:id/reactions", h.react)
	router.Delete("/:id/reactions/:emoji", h.unreact)
	router.Delete("/:id", h.remove)
}

func (h *MessageHandler) history(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var query dto.MessageHistoryQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}
	if before := c.Query("before"); before != "" && query.Before == nil {
		parsed, err := time.Parse(time.RFC3339, before)
		if err != nil {
			return utils.SendError(c, fiber.StatusBadRequest, "invalid before timestamp")
		}
		query.Before = &parsed
	}
	if err := h.validator.Struct(query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "room_id required")
	}

	history, err := h.messages.History(requestContext(c), userID, query)
	if err != nil {
		if errors.Is(err, service.ErrNotRoomMember) {
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		}
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccess(c, "chat history", history)
}

func (h *MessageHandler) status(c *fiber.Ctx) error {
	if userIDFromContext(c) == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	messageID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	status, err := h.reads.Status(requestContext(c), messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "message not found")
		}
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccess(c, "message status", fiber.Map{"status": status})
}

func (h *MessageHandler) react(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	messageID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload struct {
		Emoji string `json:"emoji"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	message, err := h.messages.React(requestContext(c), messageID, userID, payload.Emoji)
	if err != nil {
		if errors.Is(err, service.ErrNotRoomMember) {
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "message not found")
		}
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	return utils.SendSuccess(c, "reaction added", message)
}

func (h *MessageHandler) unreact(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	messageID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	message, err := h.messages.Unreact(requestContext(c), messageID, userID, c.Params("emoji"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "message not found")
		}
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccess(c, "reaction removed", message)
}

func (h *MessageHandler) remove(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	messageID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.messages.Delete(requestContext(c), messageID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "message not found")
		}
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	}

	return utils.SendSuccess(c, "message deleted", nil)
}

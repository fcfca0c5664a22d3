package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/amityhq/amity-api/internal/dto"
	"github.com/amityhq/amity-api/internal/service"
	"github.com/amityhq/amity-api/internal/utils"
)

// FriendHandler serves the friendship endpoints.
type FriendHandler struct {
	friends service.FriendService
	logger  zerolog.Logger
}

// NewFriendHandler constructs the friend handler.
func NewFriendHandler(friends service.FriendService, logger zerolog.Logger) *FriendHandler {
	return &FriendHandler{
		friends: friends,
		logger:  logger.With().Str("component", "friend_handler").Logger(),
	}
}

// Register binds friendship routes under the provided router group.
func (h *FriendHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/requests", h.request)
	router.Patch("/requests/:id/accept", h.accept)
}

func (h *FriendHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	friendships, err := h.friends.List(requestContext(c), userID)
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}
	return utils.SendSuccess(c, "friendships", friendships)
}

func (h *FriendHandler) request(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.FriendRequestCreate
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	friendship, err := h.friends.Request(requestContext(c), userID, payload)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "user not found")
		}
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "friend request sent", friendship)
}

func (h *FriendHandler) accept(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	requestID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	friendship, err := h.friends.Accept(requestContext(c), requestID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "friend request not found")
		}
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccess(c, "friend request accepted", friendship)
}

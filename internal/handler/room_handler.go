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

// RoomHandler serves room lifecycle and membership endpoints.
type RoomHandler struct {
	rooms  service.RoomService
	logger zerolog.Logger
}

// NewRoomHandler constructs the room handler.
func NewRoomHandler(rooms service.RoomService, logger zerolog.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:  rooms,
		logger: logger.With().Str("component", "room_handler").Logger(),
	}
}

// Register binds room routes under the provided router group.
func (h *RoomHandler) Register(router fiber.Router) {
	router.Get("/", h.list)
	router.Post("/direct", h.openDirect)
	router.Post("/group", h.createGroup)
	router.Get("/:id", h.get)
	router.Post("/:id/members", h.addMember)
	router.Delete("/:id/members/:userId", h.removeMember)
}

func (h *RoomHandler) list(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	rooms, err := h.rooms.ListForUser(requestContext(c), userID)
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}
	return utils.SendSuccess(c, "rooms", rooms)
}

func (h *RoomHandler) openDirect(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.DirectRoomCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	room, err := h.rooms.OpenDirect(requestContext(c), userID, payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "room ready", room)
}

func (h *RoomHandler) createGroup(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.GroupRoomCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	room, err := h.rooms.CreateGroup(requestContext(c), userID, payload)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "group created", room)
}

func (h *RoomHandler) get(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	roomID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	room, err := h.rooms.Get(requestContext(c), roomID, userID)
	if err != nil {
		if errors.Is(err, service.ErrNotRoomMember) {
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "room not found")
		}
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return utils.SendSuccess(c, "room", room)
}

func (h *RoomHandler) addMember(c *fiber.Ctx) error {
	actorID := userIDFromContext(c)
	if actorID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	roomID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload struct {
		UserID uint `json:"user_id"`
	}
	if err := c.BodyParser(&payload); err != nil || payload.UserID == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "user_id required")
	}

	if err := h.rooms.AddMember(requestContext(c), roomID, actorID, payload.UserID); err != nil {
		if errors.Is(err, service.ErrNotRoomMember) {
			return utils.SendError(c, fiber.StatusForbidden, err.Error())
		}
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	}

	return utils.SendSuccess(c, "member added", nil)
}

func (h *RoomHandler) removeMember(c *fiber.Ctx) error {
	actorID := userIDFromContext(c)
	if actorID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	roomID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.rooms.RemoveMember(requestContext(c), roomID, actorID, userID); err != nil {
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	}

	return utils.SendSuccess(c, "member removed", nil)
}

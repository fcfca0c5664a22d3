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

// StoryHandler serves the ephemeral story endpoints.
type StoryHandler struct {
	stories service.StoryService
	logger  zerolog.Logger
}

// NewStoryHandler constructs the story handler.
func NewStoryHandler(stories service.StoryService, logger zerolog.Logger) *StoryHandler {
	return &StoryHandler{
		stories: stories,
		logger:  logger.With().Str("component", "story_handler").Logger(),
	}
}

// Register binds story routes under the provided router group.
func (h *StoryHandler) Register(router fiber.Router) {
	router.Get("/", h.tray)
	router.Post("/", h.create)
	router.Delete("/:id", h.remove)
}

func (h *StoryHandler) tray(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	stories, err := h.stories.Tray(requestContext(c), userID)
	if err != nil {
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}
	return utils.SendSuccess(c, "stories", stories)
}

func (h *StoryHandler) create(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	var payload dto.StoryCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	story, err := h.stories.Create(requestContext(c), userID, payload)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "story published", story)
}

func (h *StoryHandler) remove(c *fiber.Ctx) error {
	userID := userIDFromContext(c)
	if userID == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	storyID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.stories.Delete(requestContext(c), storyID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "story not found")
		}
		return utils.SendError(c, fiber.StatusInternalServerError, err.Error())
	}
	return utils.SendSuccess(c, "story deleted", nil)
}

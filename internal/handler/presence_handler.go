package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/amityhq/amity-api/internal/realtime"
	"github.com/amityhq/amity-api/internal/service"
	"github.com/amityhq/amity-api/internal/utils"
)

// PresenceHandler exposes the presence registry over REST for clients that
// are not holding a socket.
type PresenceHandler struct {
	presence *realtime.Presence
	cache    *service.PresenceCache
	logger   zerolog.Logger
}

// NewPresenceHandler constructs the presence handler.
func NewPresenceHandler(presence *realtime.Presence, cache *service.PresenceCache, logger zerolog.Logger) *PresenceHandler {
	return &PresenceHandler{
		presence: presence,
		cache:    cache,
		logger:   logger.With().Str("component", "presence_handler").Logger(),
	}
}

// Register binds presence routes under the provided router group.
func (h *PresenceHandler) Register(router fiber.Router) {
	router.Get("/online", h.online)
	router.Get("/:id", h.status)
}

func (h *PresenceHandler) online(c *fiber.Ctx) error {
	if userIDFromContext(c) == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	// Prefer the cluster-wide snapshot; fall back to the local registry.
	if h.cache != nil {
		online, err := h.cache.ListOnline(requestContext(c))
		if err == nil {
			return utils.SendSuccess(c, "online users", online)
		}
		if !errors.Is(err, service.ErrPresenceCacheDisabled) {
			h.logger.Debug().Err(err).Msg("presence snapshot read failed")
		}
	}

	return utils.SendSuccess(c, "online users", h.presence.ListOnline())
}

func (h *PresenceHandler) status(c *fiber.Ctx) error {
	if userIDFromContext(c) == 0 {
		return utils.SendError(c, fiber.StatusUnauthorized, "user not authenticated")
	}

	userID, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	payload := fiber.Map{
		"userId": userID,
		"status": h.presence.Status(userID),
	}
	if lastSeen := h.presence.LastSeen(userID); !lastSeen.IsZero() {
		payload["lastSeen"] = lastSeen.UTC().Format(time.RFC3339)
	}

	return utils.SendSuccess(c, "presence", payload)
}

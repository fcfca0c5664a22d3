package handler

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/amityhq/amity-api/internal/middleware"
	"github.com/amityhq/amity-api/internal/realtime"
)

// RealtimeHandler upgrades socket connections and hands them to the gateway.
type RealtimeHandler struct {
	gateway   *realtime.Gateway
	router    *realtime.Router
	jwtSecret string
	logger    zerolog.Logger
}

// NewRealtimeHandler constructs the websocket entry point.
func NewRealtimeHandler(gateway *realtime.Gateway, router *realtime.Router, jwtSecret string, logger zerolog.Logger) *RealtimeHandler {
	return &RealtimeHandler{
		gateway:   gateway,
		router:    router,
		jwtSecret: jwtSecret,
		logger:    logger.With().Str("component", "realtime_handler").Logger(),
	}
}

// Register binds the websocket route. Authentication happens during the
// upgrade so a bad token never reaches the read loop.
func (h *RealtimeHandler) Register(router fiber.Router) {
	router.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		token := middleware.BearerToken(c.Get("Authorization"))
		if token == "" {
			token = c.Query("token")
		}

		userID, err := middleware.VerifyToken(token, h.jwtSecret)
		if err != nil {
			h.logger.Warn().Err(err).Str("ip", c.IP()).Msg("websocket handshake rejected")
			return fiber.ErrUnauthorized
		}

		ctx := c.UserContext()
		if ctx == nil {
			ctx = context.Background()
		}
		ctx = middleware.ContextWithCorrelation(ctx, middleware.GetCorrelationID(c))

		c.Locals("user_id", userID)
		c.Locals("request_ctx", ctx)
		return c.Next()
	})

	router.Get("/ws", websocket.New(h.handleConnection))
}

func (h *RealtimeHandler) handleConnection(conn *websocket.Conn) {
	userID, ok := conn.Locals("user_id").(uint)
	if !ok || userID == 0 {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(fiber.StatusUnauthorized, "unauthorized"))
		_ = conn.Close()
		return
	}

	baseCtx, _ := conn.Locals("request_ctx").(context.Context)
	if baseCtx == nil {
		baseCtx = context.Background()
	}

	h.logger.Info().Uint("user_id", userID).Msg("socket connected")
	h.gateway.Serve(baseCtx, conn, userID, h.router)
	h.logger.Info().Uint("user_id", userID).Msg("socket disconnected")
}

package router

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/amityhq/amity-api/internal/config"
	"github.com/amityhq/amity-api/internal/handler"
	"github.com/amityhq/amity-api/internal/middleware"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	RealtimeHandler     *handler.RealtimeHandler
	RoomHandler         *handler.RoomHandler
	MessageHandler      *handler.MessageHandler
	PresenceHandler     *handler.PresenceHandler
	PostHandler         *handler.PostHandler
	StoryHandler        *handler.StoryHandler
	FriendHandler       *handler.FriendHandler
	NotificationHandler *handler.NotificationHandler
	UploadHandler       *handler.UploadHandler
	JWTMiddleware       fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))

	jwtMiddleware := deps.JWTMiddleware
	if jwtMiddleware == nil {
		jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
	}

	// Socket upgrade authenticates during the handshake, not via the
	// bearer middleware, so it registers outside the protected groups.
	if deps.RealtimeHandler != nil {
		deps.RealtimeHandler.Register(app.Group("/api/v1/realtime"))
	}

	if deps.RoomHandler != nil {
		rooms := app.Group("/api/v1/rooms", jwtMiddleware)
		deps.RoomHandler.Register(rooms)
	}

	if deps.MessageHandler != nil {
		messages := app.Group("/api/v1/messages", jwtMiddleware)
		deps.MessageHandler.Register(messages)
	}

	if deps.PresenceHandler != nil {
		presence := app.Group("/api/v1/presence", jwtMiddleware)
		deps.PresenceHandler.Register(presence)
	}

	if deps.PostHandler != nil {
		posts := app.Group("/api/v1/posts", jwtMiddleware)
		deps.PostHandler.Register(posts)
	}

	if deps.StoryHandler != nil {
		stories := app.Group("/api/v1/stories", jwtMiddleware)
		deps.StoryHandler.Register(stories)
	}

	if deps.FriendHandler != nil {
		// Friend requests fan out notifications, so spamming them is cheap
		// for the sender and noisy for everyone else.
		friends := app.Group("/api/v1/friends", jwtMiddleware, middleware.RateLimit("friends", 30, time.Minute))
		deps.FriendHandler.Register(friends)
	}

	if deps.NotificationHandler != nil {
		notifications := app.Group("/api/v1/notifications", jwtMiddleware)
		deps.NotificationHandler.Register(notifications)
	}

	if deps.UploadHandler != nil {
		uploads := app.Group("/api/v1/uploads", jwtMiddleware, middleware.RateLimit("uploads", 20, time.Minute))
		deps.UploadHandler.Register(uploads)
	}
}

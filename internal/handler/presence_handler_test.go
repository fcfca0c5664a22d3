package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/amityhq/amity-api/internal/handler"
	"github.com/amityhq/amity-api/internal/realtime"
	"github.com/amityhq/amity-api/internal/service"
)

func newPresenceApp(t *testing.T, presence *realtime.Presence, cache *service.PresenceCache) *fiber.App {
	t.Helper()

	logger := zerolog.New(io.Discard)
	app := fiber.New()
	group := app.Group("/api/v1/presence", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		return c.Next()
	})
	handler.NewPresenceHandler(presence, cache, logger).Register(group)
	return app
}

func fetchOnline(t *testing.T, app *fiber.App) []uint {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/presence/online", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Success bool   `json:"success"`
		Data    []uint `json:"data"`
		Message string `json:"message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	resp.Body.Close()

	require.True(t, body.Success)
	require.Equal(t, "online users", body.Message)
	return body.Data
}

func TestPresenceOnlineFallsBackWithoutRedis(t *testing.T) {
	logger := zerolog.New(io.Discard)
	presence := realtime.NewPresence(logger)
	presence.AddConnection(7, "conn-a")

	cache := service.NewPresenceCache(nil, "amity", logger)
	app := newPresenceApp(t, presence, cache)

	online := fetchOnline(t, app)
	require.Contains(t, online, uint(7))
}

func TestPresenceOnlinePrefersSnapshot(t *testing.T) {
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	logger := zerolog.New(io.Discard)
	presence := realtime.NewPresence(logger)
	presence.AddConnection(7, "conn-a")

	cache := service.NewPresenceCache(redisClient, "amity", logger)
	require.NoError(t, cache.StoreOnline(context.Background(), []uint{3, 7, 9}))

	app := newPresenceApp(t, presence, cache)

	online := fetchOnline(t, app)
	require.Equal(t, []uint{3, 7, 9}, online)
}

package contract_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/amityhq/amity-api/internal/dto"
	"github.com/amityhq/amity-api/internal/handler"
)

type stubNotificationService struct {
	list []dto.NotificationResponse
}

func (s stubNotificationService) Publish(_ context.Context, payload dto.NotificationCreateRequest) (dto.NotificationResponse, error) {
	return dto.NotificationResponse{ID: 1, UserID: payload.UserID, Type: payload.Type, Message: payload.Message}, nil
}

func (s stubNotificationService) List(context.Context, uint, int, int) ([]dto.NotificationResponse, error) {
	return s.list, nil
}

func (s stubNotificationService) MarkRead(_ context.Context, id, userID uint) (dto.NotificationResponse, error) {
	return dto.NotificationResponse{ID: id, UserID: userID, Type: "system", Message: "hello", Read: true}, nil
}

func (s stubNotificationService) Subscribe(uint) (<-chan dto.NotificationResponse, func()) {
	ch := make(chan dto.NotificationResponse)
	return ch, func() { close(ch) }
}

func (s stubNotificationService) Start(context.Context) {}

func TestNotificationListContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "notifications.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	now := time.Now().UTC()
	svc := stubNotificationService{list: []dto.NotificationResponse{
		{ID: 1, UserID: 7, Type: "friend_request", Message: "riya sent you a friend request", CreatedAt: now.Add(-time.Hour), UpdatedAt: now.Add(-time.Hour)},
		{ID: 2, UserID: 7, Type: "post_like", Message: "dev liked your post", Read: true, CreatedAt: now, UpdatedAt: now},
	}}

	notificationHandler := handler.NewNotificationHandler(svc, zerolog.Nop(), 30*time.Second)

	app := fiber.New()
	group := app.Group("/api/v1/notifications", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(7))
		return c.Next()
	})
	notificationHandler.Register(group)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/notifications/?limit=10", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()

	var payload interface{}
	require.NoError(t, json.Unmarshal(body, &payload))
	require.NoError(t, schema.Validate(payload))
}

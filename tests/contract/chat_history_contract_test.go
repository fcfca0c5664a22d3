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

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/amityhq/amity-api/internal/dto"
	"github.com/amityhq/amity-api/internal/handler"
)

type stubMessageService struct {
	history []dto.MessageResponse
}

func (s stubMessageService) Create(context.Context, dto.MessageCreateInput) (dto.MessageResponse, error) {
	return dto.MessageResponse{}, nil
}

func (s stubMessageService) History(context.Context, uint, dto.MessageHistoryQuery) ([]dto.MessageResponse, error) {
	return s.history, nil
}

func (s stubMessageService) Delete(context.Context, uint, uint) error {
	return nil
}

func (s stubMessageService) React(context.Context, uint, uint, string) (dto.MessageResponse, error) {
	return dto.MessageResponse{}, nil
}

func (s stubMessageService) Unreact(context.Context, uint, uint, string) (dto.MessageResponse, error) {
	return dto.MessageResponse{}, nil
}

type stubReadService struct{}

func (s stubReadService) MarkRead(context.Context, uint, uint, uint) (time.Time, error) {
	return time.Now().UTC(), nil
}

func (s stubReadService) Status(context.Context, uint) (string, error) {
	return "delivered", nil
}

func TestChatHistoryContract(t *testing.T) {
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", "chat_history.schema.json"))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)

	now := time.Now().UTC()
	reply := &dto.MessageResponse{
		ID:       10,
		RoomID:   3,
		SenderID: 2,
		Sender: dto.UserSummary{
			ID:        2,
			Username:  "dev",
			FullName:  "Dev Sharma",
			AvatarURL: "https://cdn.example.com/dev.png",
		},
		Text:        "see you at eight",
		Type:        "TEXT",
		Attachments: []dto.AttachmentResponse{},
		Reactions:   []dto.ReactionResponse{},
		Reads:       []dto.ReadResponse{},
		CreatedAt:   now.Add(-10 * time.Minute),
	}

	history := []dto.MessageResponse{
		{
			ID:       11,
			RoomID:   3,
			SenderID: 1,
			Sender: dto.UserSummary{
				ID:        1,
				Username:  "riya",
				FullName:  "Riya Kapoor",
				AvatarURL: "https://cdn.example.com/riya.png",
			},
			Text: "works for me",
			Type: "TEXT",
			Attachments: []dto.AttachmentResponse{
				{ID: 1, URL: "https://cdn.example.com/map.png", FileName: "map.png", Kind: "IMAGE", SizeBytes: 2048},
			},
			Reactions: []dto.ReactionResponse{
				{ID: 1, UserID: 2, Emoji: "👍"},
			},
			Reads: []dto.ReadResponse{
				{MemberID: 2, ReadAt: now},
			},
			ReplyTo:   reply,
			CreatedAt: now.Add(-5 * time.Minute),
		},
	}

	messageHandler := handler.NewMessageHandler(stubMessageService{history: history}, stubReadService{}, validator.New(), zerolog.Nop())

	app := fiber.New()
	group := app.Group("/api/v1/messages", func(c *fiber.Ctx) error {
		c.Locals("user_id", uint(1))
		return c.Next()
	})
	messageHandler.Register(group)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/messages/history?room_id=3&limit=50", nil)
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

package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/amityhq/amity-api/internal/dto"
	"github.com/amityhq/amity-api/internal/models"
	"github.com/amityhq/amity-api/internal/observability"
	"github.com/amityhq/amity-api/internal/repository"
)

const lastMessageCacheTTL = 30 * time.Minute

// ErrEmptyMessage indicates a message with no text and no attachments.
var ErrEmptyMessage = errors.New("message requires text or at least one attachment")

// ErrNotRoomMember indicates the acting user does not belong to the room.
var ErrNotRoomMember = errors.New("user is not a member of the room")

// membershipErr maps a missing membership row to ErrNotRoomMember and leaves
// every other lookup failure intact so it does not surface as a 403.
func membershipErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotRoomMember
	}
	return err
}

// MessageService persists and serves chat messages.
type MessageService interface {
	Create(ctx context.Context, input dto.MessageCreateInput) (dto.MessageResponse, error)
	History(ctx context.Context, userID uint, query dto.MessageHistoryQuery) ([]dto.MessageResponse, error)
	Delete(ctx context.Context, messageID, userID uint) error
	React(ctx context.Context, messageID, userID uint, emoji string) (dto.MessageResponse, error)
	Unreact(ctx context.Context, messageID, userID uint, emoji string) (dto.MessageResponse, error)
}

type messageService struct {
	messages  repository.MessageRepository
	rooms     repository.RoomRepository
	redis     *redis.Client
	cacheBase string
	sanitizer *bluemonday.Policy
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewMessageService constructs the message service.
func NewMessageService(messages repository.MessageRepository, rooms repository.RoomRepository, redisClient *redis.Client, channelBase string, logger zerolog.Logger) MessageService {
	cacheBase := ""
	if channelBase != "" {
		cacheBase = channelBase + ":chat:last"
	}

	return &messageService{
		messages:  messages,
		rooms:     rooms,
		redis:     redisClient,
		cacheBase: cacheBase,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.With().Str("component", "message_service").Logger(),
		tracer:    otel.Tracer("github.com/amityhq/amity-api/internal/service/message"),
	}
}

// classifyAttachment maps a file name to an attachment kind by suffix. The
// match is case sensitive; an uppercase extension falls through to FILE.
func classifyAttachment(fileName string) string {
	switch {
	case hasAnySuffix(fileName, ".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg"):
		return models.AttachmentImage
	case hasAnySuffix(fileName, ".mp4", ".mov", ".avi", ".mkv", ".webm"):
		return models.AttachmentVideo
	case hasAnySuffix(fileName, ".mp3", ".wav", ".ogg", ".m4a"):
		return models.AttachmentAudio
	default:
		return models.AttachmentFile
	}
}

func hasAnySuffix(name string, suffixes ...string) bool {
	for _, suffix := range suffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

func (s *messageService) Create(ctx context.Context, input dto.MessageCreateInput) (dto.MessageResponse, error) {
	if input.RoomID == 0 || input.SenderID == 0 {
		return dto.MessageResponse{}, errors.New("room id and sender id are required")
	}

	text := strings.TrimSpace(s.sanitizer.Sanitize(input.Text))
	if text == "" && len(input.Attachments) == 0 {
		return dto.MessageResponse{}, ErrEmptyMessage
	}

	if _, err := s.rooms.FindMember(ctx, input.RoomID, input.SenderID); err != nil {
		return dto.MessageResponse{}, membershipErr(err)
	}

	spanCtx, span := s.tracer.Start(ctx, "messages.create", trace.WithAttributes(
		attribute.Int("room.id", int(input.RoomID)),
		attribute.Int("sender.id", int(input.SenderID)),
	))
	defer span.End()

	messageType := strings.TrimSpace(input.Type)
	if messageType == "" {
		messageType = "TEXT"
	}

	message := models.Message{
		RoomID:   input.RoomID,
		SenderID: input.SenderID,
		Text:     text,
		Type:     messageType,
	}

	if reply := strings.TrimSpace(input.ReplyTo); reply != "" {
		parsed, err := strconv.ParseUint(reply, 10, 64)
		if err != nil {
			return dto.MessageResponse{}, errors.New("invalid reply target")
		}
		replyID := uint(parsed)
		message.ReplyToID = &replyID
	}

	for _, attachment := range input.Attachments {
		message.Attachments = append(message.Attachments, models.MessageAttachment{
			URL:       attachment.URL,
			FileName:  attachment.FileName,
			Kind:      classifyAttachment(attachment.FileName),
			SizeBytes: attachment.SizeBytes,
		})
	}

	if err := s.messages.Create(spanCtx, &message); err != nil {
		span.RecordError(err)
		return dto.MessageResponse{}, err
	}

	hydrated, err := s.messages.FindHydrated(spanCtx, message.ID)
	if err != nil {
		span.RecordError(err)
		return dto.MessageResponse{}, err
	}

	response := dto.NewMessageResponse(hydrated)
	observability.ChatMessages().WithLabelValues(messageType).Inc()
	s.cacheLastMessage(spanCtx, response)

	return response, nil
}

func (s *messageService) History(ctx context.Context, userID uint, query dto.MessageHistoryQuery) ([]dto.MessageResponse, error) {
	if _, err := s.rooms.FindMember(ctx, query.RoomID, userID); err != nil {
		return nil, membershipErr(err)
	}

	before := time.Time{}
	if query.Before != nil {
		before = *query.Before
	}

	messages, err := s.messages.ListByRoom(ctx, query.RoomID, before, query.Limit)
	if err != nil {
		return nil, err
	}

	return dto.NewMessageResponseSlice(messages), nil
}

func (s *messageService) Delete(ctx context.Context, messageID, userID uint) error {
	message, err := s.messages.FindHydrated(ctx, messageID)
	if err != nil {
		return err
	}
	if message.SenderID != userID {
		return errors.New("only the sender can delete a message")
	}

	spanCtx, span := s.tracer.Start(ctx, "messages.delete", trace.WithAttributes(
		attribute.Int("message.id", int(messageID)),
	))
	defer span.End()

	if err := s.messages.SoftDelete(spanCtx, messageID); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

func (s *messageService) React(ctx context.Context, messageID, userID uint, emoji string) (dto.MessageResponse, error) {
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return dto.MessageResponse{}, errors.New("emoji is required")
	}

	message, err := s.messages.FindHydrated(ctx, messageID)
	if err != nil {
		return dto.MessageResponse{}, err
	}
	if _, err := s.rooms.FindMember(ctx, message.RoomID, userID); err != nil {
		return dto.MessageResponse{}, membershipErr(err)
	}

	reaction := models.MessageReaction{MessageID: messageID, UserID: userID, Emoji: emoji}
	if err := s.messages.AddReaction(ctx, &reaction); err != nil {
		return dto.MessageResponse{}, err
	}

	hydrated, err := s.messages.FindHydrated(ctx, messageID)
	if err != nil {
		return dto.MessageResponse{}, err
	}
	return dto.NewMessageResponse(hydrated), nil
}

func (s *messageService) Unreact(ctx context.Context, messageID, userID uint, emoji string) (dto.MessageResponse, error) {
	if err := s.messages.RemoveReaction(ctx, messageID, userID, emoji); err != nil {
		return dto.MessageResponse{}, err
	}

	hydrated, err := s.messages.FindHydrated(ctx, messageID)
	if err != nil {
		return dto.MessageResponse{}, err
	}
	return dto.NewMessageResponse(hydrated), nil
}

// cacheLastMessage mirrors the newest message of a room into redis so list
// views can render previews without a database round trip.
func (s *messageService) cacheLastMessage(ctx context.Context, message dto.MessageResponse) {
	if s.redis == nil || s.cacheBase == "" {
		return
	}

	key := s.cacheBase + ":" + strconv.FormatUint(uint64(message.RoomID), 10)
	payload := strings.TrimSpace(message.Text)
	if payload == "" && len(message.Attachments) > 0 {
		payload = message.Attachments[0].FileName
	}

	if err := s.redis.Set(ctx, key, payload, lastMessageCacheTTL).Err(); err != nil {
		s.logger.Debug().Err(err).Uint("room_id", message.RoomID).Msg("failed to cache last message")
	}
}

package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/amityhq/amity-api/internal/models"
	"github.com/amityhq/amity-api/internal/repository"
)

// Message delivery statuses as seen by the sender.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// ReadService records read markers and derives delivery status badges.
type ReadService interface {
	MarkRead(ctx context.Context, messageID, userID, roomID uint) (time.Time, error)
	Status(ctx context.Context, messageID uint) (string, error)
}

type readService struct {
	reads    repository.ReadRepository
	messages repository.MessageRepository
	rooms    repository.RoomRepository
	logger   zerolog.Logger
	tracer   trace.Tracer
}

// NewReadService constructs the read-tracking service.
func NewReadService(reads repository.ReadRepository, messages repository.MessageRepository, rooms repository.RoomRepository, logger zerolog.Logger) ReadService {
	return &readService{
		reads:    reads,
		messages: messages,
		rooms:    rooms,
		logger:   logger.With().Str("component", "read_service").Logger(),
		tracer:   otel.Tracer("github.com/amityhq/amity-api/internal/service/read"),
	}
}

// MarkRead records that userID has read messageID inside roomID. Membership
// is checked first so a read from a non-member never writes a row.
func (s *readService) MarkRead(ctx context.Context, messageID, userID, roomID uint) (time.Time, error) {
	member, err := s.rooms.FindMember(ctx, roomID, userID)
	if err != nil {
		return time.Time{}, membershipErr(err)
	}

	spanCtx, span := s.tracer.Start(ctx, "reads.mark", trace.WithAttributes(
		attribute.Int("message.id", int(messageID)),
		attribute.Int("user.id", int(userID)),
	))
	defer span.End()

	readAt, err := s.reads.MarkRead(spanCtx, messageID, member.ID, userID)
	if err != nil {
		span.RecordError(err)
		return time.Time{}, err
	}
	return readAt, nil
}

// Status derives the sender-facing badge for a message from its receipts and
// the room roster. The badge only advances once every recipient has reached
// the corresponding state.
func (s *readService) Status(ctx context.Context, messageID uint) (string, error) {
	message, err := s.messages.FindHydrated(ctx, messageID)
	if err != nil {
		return "", err
	}

	members, err := s.rooms.ListMembers(ctx, message.RoomID)
	if err != nil {
		return "", err
	}

	receipts, err := s.messages.ListReceipts(ctx, messageID)
	if err != nil {
		return "", err
	}

	return DeriveStatus(message.SenderID, members, receipts), nil
}

// DeriveStatus computes the delivery badge for a message given the room
// roster and the per-user receipts. Recipients are every member except the
// sender; with no recipients or no receipts the message stays at sent.
func DeriveStatus(senderID uint, members []models.RoomMember, receipts []models.MessageReceipt) string {
	recipients := 0
	for _, member := range members {
		if member.UserID != senderID {
			recipients++
		}
	}
	if recipients == 0 {
		return StatusSent
	}

	delivered := 0
	read := 0
	for _, receipt := range receipts {
		if receipt.UserID == senderID {
			continue
		}
		if receipt.DeliveredAt != nil {
			delivered++
		}
		if receipt.ReadAt != nil {
			read++
		}
	}

	switch {
	case read >= recipients:
		return StatusRead
	case delivered >= recipients:
		return StatusDelivered
	default:
		return StatusSent
	}
}

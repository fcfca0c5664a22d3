package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/amityhq/amity-api/internal/dto"
	"github.com/amityhq/amity-api/internal/models"
	"github.com/amityhq/amity-api/internal/repository"
)

// RoomService owns room lifecycle and membership.
type RoomService interface {
	OpenDirect(ctx context.Context, userID uint, payload dto.DirectRoomCreateRequest) (dto.RoomResponse, error)
	CreateGroup(ctx context.Context, creatorID uint, payload dto.GroupRoomCreateRequest) (dto.RoomResponse, error)
	ListForUser(ctx context.Context, userID uint) ([]dto.RoomResponse, error)
	Get(ctx context.Context, roomID, userID uint) (dto.RoomResponse, error)
	AddMember(ctx context.Context, roomID, actorID, userID uint) error
	RemoveMember(ctx context.Context, roomID, actorID, userID uint) error
	SetTyping(ctx context.Context, roomID, userID uint, typing bool) error
}

type roomService struct {
	rooms     repository.RoomRepository
	messages  repository.MessageRepository
	redis     *redis.Client
	cacheBase string
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewRoomService constructs the room service.
func NewRoomService(rooms repository.RoomRepository, messages repository.MessageRepository, redisClient *redis.Client, channelBase string, validate *validator.Validate, logger zerolog.Logger) RoomService {
	cacheBase := ""
	if channelBase != "" {
		cacheBase = channelBase + ":chat:last"
	}

	return &roomService{
		rooms:     rooms,
		messages:  messages,
		redis:     redisClient,
		cacheBase: cacheBase,
		validator: validate,
		logger:    logger.With().Str("component", "room_service").Logger(),
	}
}

func (s *roomService) OpenDirect(ctx context.Context, userID uint, payload dto.DirectRoomCreateRequest) (dto.RoomResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RoomResponse{}, err
	}
	if payload.RecipientID == userID {
		return dto.RoomResponse{}, errors.New("cannot open a direct room with yourself")
	}

	room, err := s.rooms.EnsureDirectRoom(ctx, userID, payload.RecipientID)
	if err != nil {
		return dto.RoomResponse{}, err
	}
	return s.hydrate(ctx, room), nil
}

func (s *roomService) CreateGroup(ctx context.Context, creatorID uint, payload dto.GroupRoomCreateRequest) (dto.RoomResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.RoomResponse{}, err
	}

	name := strings.TrimSpace(payload.Name)
	if name == "" {
		return dto.RoomResponse{}, errors.New("group name is required")
	}

	room, err := s.rooms.CreateGroupRoom(ctx, name, payload.AvatarURL, creatorID, payload.MemberIDs)
	if err != nil {
		return dto.RoomResponse{}, err
	}
	return s.hydrate(ctx, room), nil
}

func (s *roomService) ListForUser(ctx context.Context, userID uint) ([]dto.RoomResponse, error) {
	rooms, err := s.rooms.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.RoomResponse, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, s.hydrate(ctx, room))
	}
	return out, nil
}

func (s *roomService) Get(ctx context.Context, roomID, userID uint) (dto.RoomResponse, error) {
	if _, err := s.rooms.FindMember(ctx, roomID, userID); err != nil {
		return dto.RoomResponse{}, membershipErr(err)
	}

	room, err := s.rooms.FindByID(ctx, roomID)
	if err != nil {
		return dto.RoomResponse{}, err
	}
	return s.hydrate(ctx, room), nil
}

func (s *roomService) AddMember(ctx context.Context, roomID, actorID, userID uint) error {
	actor, err := s.rooms.FindMember(ctx, roomID, actorID)
	if err != nil {
		return membershipErr(err)
	}
	if actor.Role != models.RoleAdmin {
		return errors.New("only admins can add members")
	}
	return s.rooms.AddMember(ctx, roomID, userID, models.RoleMember)
}

func (s *roomService) RemoveMember(ctx context.Context, roomID, actorID, userID uint) error {
	// Members may leave on their own; removing someone else takes admin.
	if actorID != userID {
		actor, err := s.rooms.FindMember(ctx, roomID, actorID)
		if err != nil {
			return membershipErr(err)
		}
		if actor.Role != models.RoleAdmin {
			return errors.New("only admins can remove members")
		}
	}
	return s.rooms.RemoveMember(ctx, roomID, userID)
}

func (s *roomService) SetTyping(ctx context.Context, roomID, userID uint, typing bool) error {
	return s.rooms.SetTyping(ctx, roomID, userID, typing)
}

// hydrate attaches the latest message preview to the room DTO.
func (s *roomService) hydrate(ctx context.Context, room models.Room) dto.RoomResponse {
	response := dto.NewRoomResponse(room)

	latest, err := s.messages.LatestByRoom(ctx, room.ID)
	if err == nil {
		preview := dto.NewMessageResponse(latest)
		response.LastMessage = &preview
	}

	return response
}

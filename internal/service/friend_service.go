package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/amityhq/amity-api/internal/dto"
	"github.com/amityhq/amity-api/internal/repository"
)

// FriendService manages friend requests and the friend graph.
type FriendService interface {
	Request(ctx context.Context, userID uint, payload dto.FriendRequestCreate) (dto.FriendshipResponse, error)
	Accept(ctx context.Context, requestID, userID uint) (dto.FriendshipResponse, error)
	List(ctx context.Context, userID uint) ([]dto.FriendshipResponse, error)
}

type friendService struct {
	users         repository.UserRepository
	notifications NotificationService
	validator     *validator.Validate
	logger        zerolog.Logger
}

// NewFriendService constructs the friend service.
func NewFriendService(users repository.UserRepository, notifications NotificationService, validate *validator.Validate, logger zerolog.Logger) FriendService {
	return &friendService{
		users:         users,
		notifications: notifications,
		validator:     validate,
		logger:        logger.With().Str("component", "friend_service").Logger(),
	}
}

func (s *friendService) Request(ctx context.Context, userID uint, payload dto.FriendRequestCreate) (dto.FriendshipResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.FriendshipResponse{}, err
	}
	if payload.FriendID == userID {
		return dto.FriendshipResponse{}, errors.New("cannot befriend yourself")
	}

	if _, err := s.users.FindByID(ctx, payload.FriendID); err != nil {
		return dto.FriendshipResponse{}, err
	}

	friendship, err := s.users.CreateFriendRequest(ctx, userID, payload.FriendID)
	if err != nil {
		return dto.FriendshipResponse{}, err
	}

	if s.notifications != nil {
		_, err := s.notifications.Publish(ctx, dto.NotificationCreateRequest{
			UserID:  payload.FriendID,
			Type:    "friend_request",
			Message: fmt.Sprintf("Friend request from user #%d", userID),
		})
		if err != nil {
			s.logger.Debug().Err(err).Uint("friend_id", payload.FriendID).Msg("failed to publish friend request notification")
		}
	}

	return dto.NewFriendshipResponse(friendship), nil
}

func (s *friendService) Accept(ctx context.Context, requestID, userID uint) (dto.FriendshipResponse, error) {
	friendship, err := s.users.AcceptFriendRequest(ctx, requestID, userID)
	if err != nil {
		return dto.FriendshipResponse{}, err
	}

	if s.notifications != nil {
		_, err := s.notifications.Publish(ctx, dto.NotificationCreateRequest{
			UserID:  friendship.UserID,
			Type:    "friend_accept",
			Message: fmt.Sprintf("User #%d accepted your friend request", userID),
		})
		if err != nil {
			s.logger.Debug().Err(err).Uint("user_id", friendship.UserID).Msg("failed to publish friend accept notification")
		}
	}

	return dto.NewFriendshipResponse(friendship), nil
}

func (s *friendService) List(ctx context.Context, userID uint) ([]dto.FriendshipResponse, error) {
	friendships, err := s.users.ListFriendships(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]dto.FriendshipResponse, 0, len(friendships))
	for _, friendship := range friendships {
		out = append(out, dto.NewFriendshipResponse(friendship))
	}
	return out, nil
}

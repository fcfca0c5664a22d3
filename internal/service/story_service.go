package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/amityhq/amity-api/internal/dto"
	"github.com/amityhq/amity-api/internal/models"
	"github.com/amityhq/amity-api/internal/repository"
)

// StoryService owns ephemeral stories.
type StoryService interface {
	Create(ctx context.Context, userID uint, payload dto.StoryCreateRequest) (dto.StoryResponse, error)
	Tray(ctx context.Context, userID uint) ([]dto.StoryResponse, error)
	Delete(ctx context.Context, storyID, userID uint) error
	Start(ctx context.Context)
}

type storyService struct {
	stories   repository.StoryRepository
	users     repository.UserRepository
	ttl       time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewStoryService constructs the story service.
func NewStoryService(stories repository.StoryRepository, users repository.UserRepository, ttl time.Duration, validate *validator.Validate, logger zerolog.Logger) StoryService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &storyService{
		stories:   stories,
		users:     users,
		ttl:       ttl,
		validator: validate,
		logger:    logger.With().Str("component", "story_service").Logger(),
	}
}

// Start runs the periodic purge of expired story rows. Expired stories are
// already invisible to readers; the purge just reclaims storage.
func (s *storyService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				purged, err := s.stories.PurgeExpired(ctx, time.Now())
				if err != nil {
					s.logger.Warn().Err(err).Msg("story purge failed")
					continue
				}
				if purged > 0 {
					s.logger.Info().Int64("purged", purged).Msg("expired stories removed")
				}
			}
		}
	}()
}

func (s *storyService) Create(ctx context.Context, userID uint, payload dto.StoryCreateRequest) (dto.StoryResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StoryResponse{}, err
	}

	kind := strings.ToUpper(strings.TrimSpace(payload.Kind))
	if kind == "" {
		kind = models.AttachmentImage
	}

	story := models.Story{
		UserID:    userID,
		MediaURL:  payload.MediaURL,
		Kind:      kind,
		Caption:   strings.TrimSpace(payload.Caption),
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.stories.Create(ctx, &story); err != nil {
		return dto.StoryResponse{}, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err == nil {
		story.User = user
	}
	return dto.NewStoryResponse(story), nil
}

// Tray lists the unexpired stories from the user and their friends.
func (s *storyService) Tray(ctx context.Context, userID uint) ([]dto.StoryResponse, error) {
	friendIDs, err := s.users.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	stories, err := s.stories.ListActive(ctx, append(friendIDs, userID), time.Now())
	if err != nil {
		return nil, err
	}
	return dto.NewStoryResponseSlice(stories), nil
}

func (s *storyService) Delete(ctx context.Context, storyID, userID uint) error {
	return s.stories.Delete(ctx, storyID, userID)
}

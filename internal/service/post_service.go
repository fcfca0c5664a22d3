package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"

	"github.com/amityhq/amity-api/internal/dto"
	"github.com/amityhq/amity-api/internal/models"
	"github.com/amityhq/amity-api/internal/repository"
)

// PostService owns the feed: posts, comments and likes.
type PostService interface {
	Create(ctx context.Context, authorID uint, payload dto.PostCreateRequest) (dto.PostResponse, error)
	Feed(ctx context.Context, userID uint, limit, offset int) ([]dto.PostResponse, error)
	Get(ctx context.Context, postID uint) (dto.PostResponse, error)
	Delete(ctx context.Context, postID, userID uint) error
	Comment(ctx context.Context, userID uint, payload dto.CommentCreateRequest) (dto.CommentResponse, error)
	Like(ctx context.Context, postID, userID uint) error
	Unlike(ctx context.Context, postID, userID uint) error
}

type postService struct {
	posts         repository.PostRepository
	users         repository.UserRepository
	notifications NotificationService
	validator     *validator.Validate
	sanitizer     *bluemonday.Policy
	logger        zerolog.Logger
}

// NewPostService constructs the feed service.
func NewPostService(posts repository.PostRepository, users repository.UserRepository, notifications NotificationService, validate *validator.Validate, logger zerolog.Logger) PostService {
	sanitizer := bluemonday.UGCPolicy()
	sanitizer.AllowElements("br")

	return &postService{
		posts:         posts,
		users:         users,
		notifications: notifications,
		validator:     validate,
		sanitizer:     sanitizer,
		logger:        logger.With().Str("component", "post_service").Logger(),
	}
}

func (s *postService) Create(ctx context.Context, authorID uint, payload dto.PostCreateRequest) (dto.PostResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.PostResponse{}, err
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(payload.Body))
	if body == "" && payload.ImageURL == "" {
		return dto.PostResponse{}, errors.New("post requires text or an image")
	}

	post := models.Post{AuthorID: authorID, Body: body, ImageURL: payload.ImageURL}
	if err := s.posts.Create(ctx, &post); err != nil {
		return dto.PostResponse{}, err
	}

	hydrated, err := s.posts.FindHydrated(ctx, post.ID)
	if err != nil {
		return dto.PostResponse{}, err
	}
	return dto.NewPostResponse(hydrated), nil
}

// Feed returns posts from the user and their accepted friends, newest first.
func (s *postService) Feed(ctx context.Context, userID uint, limit, offset int) ([]dto.PostResponse, error) {
	friendIDs, err := s.users.ListFriendIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	authorIDs := append(friendIDs, userID)

	posts, err := s.posts.ListFeed(ctx, authorIDs, limit, offset)
	if err != nil {
		return nil, err
	}
	return dto.NewPostResponseSlice(posts), nil
}

func (s *postService) Get(ctx context.Context, postID uint) (dto.PostResponse, error) {
	post, err := s.posts.FindHydrated(ctx, postID)
	if err != nil {
		return dto.PostResponse{}, err
	}
	return dto.NewPostResponse(post), nil
}

func (s *postService) Delete(ctx context.Context, postID, userID uint) error {
	return s.posts.Delete(ctx, postID, userID)
}

func (s *postService) Comment(ctx context.Context, userID uint, payload dto.CommentCreateRequest) (dto.CommentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.CommentResponse{}, err
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(payload.Body))
	if body == "" {
		return dto.CommentResponse{}, errors.New("comment body empty after sanitization")
	}

	post, err := s.posts.FindHydrated(ctx, payload.PostID)
	if err != nil {
		return dto.CommentResponse{}, err
	}

	comment := models.Comment{PostID: payload.PostID, AuthorID: userID, Body: body}
	if err := s.posts.CreateComment(ctx, &comment); err != nil {
		return dto.CommentResponse{}, err
	}

	s.notifyAuthor(ctx, post.AuthorID, userID, "post_comment", fmt.Sprintf("New comment on your post #%d", post.ID))

	author, err := s.users.FindByID(ctx, userID)
	if err == nil {
		comment.Author = author
	}
	return dto.NewCommentResponse(comment), nil
}

func (s *postService) Like(ctx context.Context, postID, userID uint) error {
	post, err := s.posts.FindHydrated(ctx, postID)
	if err != nil {
		return err
	}

	if err := s.posts.Like(ctx, postID, userID); err != nil {
		return err
	}

	s.notifyAuthor(ctx, post.AuthorID, userID, "post_like", fmt.Sprintf("Your post #%d was liked", post.ID))
	return nil
}

func (s *postService) Unlike(ctx context.Context, postID, userID uint) error {
	return s.posts.Unlike(ctx, postID, userID)
}

// notifyAuthor publishes a feed notification unless the actor is the author.
func (s *postService) notifyAuthor(ctx context.Context, authorID, actorID uint, kind, message string) {
	if s.notifications == nil || authorID == actorID {
		return
	}

	_, err := s.notifications.Publish(ctx, dto.NotificationCreateRequest{
		UserID:  authorID,
		Type:    kind,
		Message: message,
	})
	if err != nil {
		s.logger.Debug().Err(err).Uint("author_id", authorID).Str("type", kind).Msg("failed to publish feed notification")
	}
}

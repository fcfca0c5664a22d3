package dto

import (
	"time"

	"github.com/amityhq/amity-api/internal/models"
)

// PostCreateRequest is the payload to publish a feed post.
type PostCreateRequest struct {
	Body     string `json:"body" validate:"required_without=ImageURL,max=8000"`
	ImageURL string `json:"image_url" validate:"omitempty,url,max=1024"`
}

// CommentCreateRequest attaches a comment to a post.
type CommentCreateRequest struct {
	PostID uint   `json:"post_id" validate:"required"`
	Body   string `json:"body" validate:"required,min=1,max=4000"`
}

// CommentResponse is a serialized comment.
type CommentResponse struct {
	ID        uint        `json:"id"`
	PostID    uint        `json:"post_id"`
	AuthorID  uint        `json:"author_id"`
	Author    UserSummary `json:"author"`
	Body      string      `json:"body"`
	CreatedAt time.Time   `json:"created_at"`
}

// PostResponse is a serialized feed post.
type PostResponse struct {
	ID        uint              `json:"id"`
	AuthorID  uint              `json:"author_id"`
	Author    UserSummary       `json:"author"`
	Body      string            `json:"body"`
	ImageURL  string            `json:"image_url"`
	LikeCount int               `json:"like_count"`
	Comments  []CommentResponse `json:"comments,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// StoryCreateRequest publishes an ephemeral story.
type StoryCreateRequest struct {
	MediaURL string `json:"media_url" validate:"required,url,max=1024"`
	Kind     string `json:"kind" validate:"omitempty,oneof=IMAGE VIDEO"`
	Caption  string `json:"caption" validate:"omitempty,max=512"`
}

// StoryResponse is a serialized story.
type StoryResponse struct {
	ID        uint        `json:"id"`
	UserID    uint        `json:"user_id"`
	User      UserSummary `json:"user"`
	MediaURL  string      `json:"media_url"`
	Kind      string      `json:"kind"`
	Caption   string      `json:"caption"`
	ExpiresAt time.Time   `json:"expires_at"`
	CreatedAt time.Time   `json:"created_at"`
}

// FriendRequestCreate sends a friend request to another user.
type FriendRequestCreate struct {
	FriendID uint `json:"friend_id" validate:"required"`
}

// FriendshipResponse is a serialized friendship edge.
type FriendshipResponse struct {
	ID        uint      `json:"id"`
	UserID    uint      `json:"user_id"`
	FriendID  uint      `json:"friend_id"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCommentResponse converts a comment model to a DTO.
func NewCommentResponse(comment models.Comment) CommentResponse {
	return CommentResponse{
		ID:        comment.ID,
		PostID:    comment.PostID,
		AuthorID:  comment.AuthorID,
		Author:    NewUserSummary(comment.Author),
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt,
	}
}

// NewPostResponse converts a post model to a DTO.
func NewPostResponse(post models.Post) PostResponse {
	response := PostResponse{
		ID:        post.ID,
		AuthorID:  post.AuthorID,
		Author:    NewUserSummary(post.Author),
		Body:      post.Body,
		ImageURL:  post.ImageURL,
		LikeCount: len(post.Likes),
		CreatedAt: post.CreatedAt,
	}
	if len(post.Comments) > 0 {
		comments := make([]CommentResponse, 0, len(post.Comments))
		for _, comment := range post.Comments {
			comments = append(comments, NewCommentResponse(comment))
		}
		response.Comments = comments
	}
	return response
}

// NewPostResponseSlice converts posts to DTOs.
func NewPostResponseSlice(posts []models.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for _, post := range posts {
		out = append(out, NewPostResponse(post))
	}
	return out
}

// NewStoryResponse converts a story model to a DTO.
func NewStoryResponse(story models.Story) StoryResponse {
	return StoryResponse{
		ID:        story.ID,
		UserID:    story.UserID,
		User:      NewUserSummary(story.User),
		MediaURL:  story.MediaURL,
		Kind:      story.Kind,
		Caption:   story.Caption,
		ExpiresAt: story.ExpiresAt,
		CreatedAt: story.CreatedAt,
	}
}

// NewStoryResponseSlice converts stories to DTOs.
func NewStoryResponseSlice(stories []models.Story) []StoryResponse {
	out := make([]StoryResponse, 0, len(stories))
	for _, story := range stories {
		out = append(out, NewStoryResponse(story))
	}
	return out
}

// NewFriendshipResponse converts a friendship model to a DTO.
func NewFriendshipResponse(friendship models.Friendship) FriendshipResponse {
	return FriendshipResponse{
		ID:        friendship.ID,
		UserID:    friendship.UserID,
		FriendID:  friendship.FriendID,
		Status:    friendship.Status,
		CreatedAt: friendship.CreatedAt,
	}
}

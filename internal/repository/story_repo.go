package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/amityhq/amity-api/internal/models"
)

// StoryRepository persists ephemeral stories.
type StoryRepository interface {
	Create(ctx context.Context, story *models.Story) error
	ListActive(ctx context.Context, userIDs []uint, now time.Time) ([]models.Story, error)
	Delete(ctx context.Context, storyID, userID uint) error
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type storyRepository struct {
	db *gorm.DB
}

// NewStoryRepository constructs a story repository backed by GORM.
func NewStoryRepository(db *gorm.DB) StoryRepository {
	return &storyRepository{db: db}
}

func (r *storyRepository) Create(ctx context.Context, story *models.Story) error {
	return r.db.WithContext(ctx).Create(story).Error
}

func (r *storyRepository) ListActive(ctx context.Context, userIDs []uint, now time.Time) ([]models.Story, error) {
	var stories []models.Story
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND expires_at > ?", userIDs, now).
		Preload("User").
		Order("created_at DESC").
		Find(&stories).Error
	if err != nil {
		return nil, err
	}
	return stories, nil
}

func (r *storyRepository) Delete(ctx context.Context, storyID, userID uint) error {
	result := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", storyID, userID).Delete(&models.Story{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *storyRepository) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&models.Story{})
	return result.RowsAffected, result.Error
}

package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amityhq/amity-api/internal/models"
)

// PostRepository persists feed posts, comments and likes.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	FindHydrated(ctx context.Context, postID uint) (models.Post, error)
	ListFeed(ctx context.Context, authorIDs []uint, limit, offset int) ([]models.Post, error)
	Delete(ctx context.Context, postID, authorID uint) error
	CreateComment(ctx context.Context, comment *models.Comment) error
	Like(ctx context.Context, postID, userID uint) error
	Unlike(ctx context.Context, postID, userID uint) error
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository constructs a post repository backed by GORM.
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	return r.db.WithContext(ctx).Create(post).Error
}

func (r *postRepository) FindHydrated(ctx context.Context, postID uint) (models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Comments").
		Preload("Comments.Author").
		Preload("Likes").
		First(&post, postID).Error
	if err != nil {
		return models.Post{}, err
	}
	return post, nil
}

func (r *postRepository) ListFeed(ctx context.Context, authorIDs []uint, limit, offset int) ([]models.Post, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var posts []models.Post
	err := r.db.WithContext(ctx).
		Where("author_id IN ?", authorIDs).
		Preload("Author").
		Preload("Comments").
		Preload("Comments.Author").
		Preload("Likes").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepository) Delete(ctx context.Context, postID, authorID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND author_id = ?", postID, authorID).Delete(&models.Post{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error
	})
}

func (r *postRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	return r.db.WithContext(ctx).Create(comment).Error
}

func (r *postRepository) Like(ctx context.Context, postID, userID uint) error {
	like := models.PostLike{PostID: postID, UserID: userID}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&like).Error
}

func (r *postRepository) Unlike(ctx context.Context, postID, userID uint) error {
	return r.db.WithContext(ctx).Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.PostLike{}).Error
}

package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/amityhq/amity-api/internal/models"
)

// UserRepository reads user profiles and manages friendship edges.
type UserRepository interface {
	FindByID(ctx context.Context, userID uint) (models.User, error)
	CreateFriendRequest(ctx context.Context, userID, friendID uint) (models.Friendship, error)
	AcceptFriendRequest(ctx context.Context, requestID, userID uint) (models.Friendship, error)
	ListFriendIDs(ctx context.Context, userID uint) ([]uint, error)
	ListFriendships(ctx context.Context, userID uint) ([]models.Friendship, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository constructs a user repository backed by GORM.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByID(ctx context.Context, userID uint) (models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (r *userRepository) CreateFriendRequest(ctx context.Context, userID, friendID uint) (models.Friendship, error) {
	friendship := models.Friendship{UserID: userID, FriendID: friendID, Status: models.FriendshipPending}
	if err := r.db.WithContext(ctx).Create(&friendship).Error; err != nil {
		return models.Friendship{}, err
	}
	return friendship, nil
}

func (r *userRepository) AcceptFriendRequest(ctx context.Context, requestID, userID uint) (models.Friendship, error) {
	var friendship models.Friendship
	// Only the recipient may accept.
	if err := r.db.WithContext(ctx).Where("id = ? AND friend_id = ?", requestID, userID).First(&friendship).Error; err != nil {
		return models.Friendship{}, err
	}

	friendship.Status = models.FriendshipAccepted
	if err := r.db.WithContext(ctx).Save(&friendship).Error; err != nil {
		return models.Friendship{}, err
	}
	return friendship, nil
}

func (r *userRepository) ListFriendIDs(ctx context.Context, userID uint) ([]uint, error) {
	var friendships []models.Friendship
	err := r.db.WithContext(ctx).
		Where("status = ? AND (user_id = ? OR friend_id = ?)", models.FriendshipAccepted, userID, userID).
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(friendships))
	for _, friendship := range friendships {
		if friendship.UserID == userID {
			ids = append(ids, friendship.FriendID)
		} else {
			ids = append(ids, friendship.UserID)
		}
	}
	return ids, nil
}

func (r *userRepository) ListFriendships(ctx context.Context, userID uint) ([]models.Friendship, error) {
	var friendships []models.Friendship
	err := r.db.WithContext(ctx).
		Where("user_id = ? OR friend_id = ?", userID, userID).
		Order("created_at DESC").
		Find(&friendships).Error
	if err != nil {
		return nil, err
	}
	return friendships, nil
}

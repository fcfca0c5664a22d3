package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amityhq/amity-api/internal/models"
)

// RoomRepository owns rooms and their memberships.
type RoomRepository interface {
	FindByID(ctx context.Context, roomID uint) (models.Room, error)
	FindMember(ctx context.Context, roomID, userID uint) (models.RoomMember, error)
	EnsureDirectRoom(ctx context.Context, userA, userB uint) (models.Room, error)
	CreateGroupRoom(ctx context.Context, name, avatarURL string, creatorID uint, memberIDs []uint) (models.Room, error)
	ListForUser(ctx context.Context, userID uint) ([]models.Room, error)
	ListMembers(ctx context.Context, roomID uint) ([]models.RoomMember, error)
	AddMember(ctx context.Context, roomID, userID uint, role string) error
	RemoveMember(ctx context.Context, roomID, userID uint) error
	SetTyping(ctx context.Context, roomID, userID uint, typing bool) error
}

type roomRepository struct {
	db *gorm.DB
}

// NewRoomRepository constructs a room repository backed by GORM.
func NewRoomRepository(db *gorm.DB) RoomRepository {
	return &roomRepository{db: db}
}

// DirectRoomKey derives the deterministic DM key for a pair of users so
// repeated DM-creation requests for the same pair land on the same room.
func DirectRoomKey(userA, userB uint) string {
	lo, hi := userA, userB
	if lo > hi {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("dm:%d:%d", lo, hi)
}

func (r *roomRepository) FindByID(ctx context.Context, roomID uint) (models.Room, error) {
	var room models.Room
	if err := r.db.WithContext(ctx).Preload("Members").Preload("Members.User").First(&room, roomID).Error; err != nil {
		return models.Room{}, err
	}
	return room, nil
}

func (r *roomRepository) FindMember(ctx context.Context, roomID, userID uint) (models.RoomMember, error) {
	var member models.RoomMember
	if err := r.db.WithContext(ctx).Where("room_id = ? AND user_id = ?", roomID, userID).First(&member).Error; err != nil {
		return models.RoomMember{}, err
	}
	return member, nil
}

func (r *roomRepository) EnsureDirectRoom(ctx context.Context, userA, userB uint) (models.Room, error) {
	key := DirectRoomKey(userA, userB)

	var room models.Room
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("dm_key = ?", key).
			Attrs(models.Room{Type: models.RoomTypeDM, DMKey: &key}).
			FirstOrCreate(&room).Error; err != nil {
			return err
		}

		for _, userID := range []uint{userA, userB} {
			member := models.RoomMember{RoomID: room.ID, UserID: userID, Role: models.RoleMember}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Room{}, err
	}

	return r.FindByID(ctx, room.ID)
}

func (r *roomRepository) CreateGroupRoom(ctx context.Context, name, avatarURL string, creatorID uint, memberIDs []uint) (models.Room, error) {
	room := models.Room{Type: models.RoomTypeGroup, Name: name, AvatarURL: avatarURL}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&room).Error; err != nil {
			return err
		}

		if err := tx.Create(&models.RoomMember{RoomID: room.ID, UserID: creatorID, Role: models.RoleAdmin}).Error; err != nil {
			return err
		}
		for _, userID := range memberIDs {
			if userID == creatorID {
				continue
			}
			member := models.RoomMember{RoomID: room.ID, UserID: userID, Role: models.RoleMember}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return models.Room{}, err
	}

	return r.FindByID(ctx, room.ID)
}

func (r *roomRepository) ListForUser(ctx context.Context, userID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.WithContext(ctx).
		Joins("JOIN room_members ON room_members.room_id = rooms.id AND room_members.user_id = ?", userID).
		Preload("Members").
		Preload("Members.User").
		Order("rooms.updated_at DESC").
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *roomRepository) ListMembers(ctx context.Context, roomID uint) ([]models.RoomMember, error) {
	var members []models.RoomMember
	if err := r.db.WithContext(ctx).Where("room_id = ?", roomID).Preload("User").Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

func (r *roomRepository) AddMember(ctx context.Context, roomID, userID uint, role string) error {
	if role == "" {
		role = models.RoleMember
	}
	member := models.RoomMember{RoomID: roomID, UserID: userID, Role: role}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error
}

func (r *roomRepository) RemoveMember(ctx context.Context, roomID, userID uint) error {
	return r.db.WithContext(ctx).Where("room_id = ? AND user_id = ?", roomID, userID).Delete(&models.RoomMember{}).Error
}

func (r *roomRepository) SetTyping(ctx context.Context, roomID, userID uint, typing bool) error {
	return r.db.WithContext(ctx).
		Model(&models.RoomMember{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Update("is_typing", typing).Error
}

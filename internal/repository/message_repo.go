package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/amityhq/amity-api/internal/models"
)

// MessageRepository persists chat messages, attachments, reactions and the
// rows that hang off a message.
type MessageRepository interface {
	Create(ctx context.Context, message *models.Message) error
	FindHydrated(ctx context.Context, messageID uint) (models.Message, error)
	ListByRoom(ctx context.Context, roomID uint, before time.Time, limit int) ([]models.Message, error)
	LatestByRoom(ctx context.Context, roomID uint) (models.Message, error)
	SoftDelete(ctx context.Context, messageID uint) error
	AddReaction(ctx context.Context, reaction *models.MessageReaction) error
	RemoveReaction(ctx context.Context, messageID, userID uint, emoji string) error
	ListReceipts(ctx context.Context, messageID uint) ([]models.MessageReceipt, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository constructs a message repository backed by GORM.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

// Create persists the message and its attachment rows as one unit; GORM
// cascades the association inside a single transaction.
func (r *messageRepository) Create(ctx context.Context, message *models.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *messageRepository) FindHydrated(ctx context.Context, messageID uint) (models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).
		Preload("Sender").
		Preload("Attachments").
		Preload("Reactions").
		Preload("Reads").
		Preload("ReplyTo").
		Preload("ReplyTo.Sender").
		First(&message, messageID).Error
	if err != nil {
		return models.Message{}, err
	}
	return message, nil
}

func (r *messageRepository) ListByRoom(ctx context.Context, roomID uint, before time.Time, limit int) ([]models.Message, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := r.db.WithContext(ctx).Where("room_id = ?", roomID)
	if !before.IsZero() {
		query = query.Where("created_at < ?", before)
	}

	var messages []models.Message
	err := query.
		Preload("Sender").
		Preload("Attachments").
		Preload("Reactions").
		Preload("Reads").
		Preload("ReplyTo").
		Preload("ReplyTo.Sender").
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	// Reverse to chronological order ascending for clients.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, nil
}

func (r *messageRepository) LatestByRoom(ctx context.Context, roomID uint) (models.Message, error) {
	var message models.Message
	err := r.db.WithContext(ctx).
		Where("room_id = ?", roomID).
		Preload("Sender").
		Preload("Attachments").
		Order("created_at DESC").
		First(&message).Error
	if err != nil {
		return models.Message{}, err
	}
	return message, nil
}

// SoftDelete replaces the message body with a tombstone, purges dependent
// rows and clears reply pointers so nothing dangles, all in one transaction.
func (r *messageRepository) SoftDelete(ctx context.Context, messageID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Message{}).
			Where("reply_to_id = ?", messageID).
			Update("reply_to_id", nil).Error; err != nil {
			return err
		}

		for _, dependent := range []interface{}{
			&models.MessageAttachment{},
			&models.MessageReaction{},
			&models.MessageRead{},
			&models.MessageReceipt{},
			&models.Notification{},
		} {
			if err := tx.Where("message_id = ?", messageID).Delete(dependent).Error; err != nil {
				return err
			}
		}

		return tx.Model(&models.Message{}).
			Where("id = ?", messageID).
			Updates(map[string]interface{}{
				"text":       models.DeletedMessageText,
				"is_deleted": true,
			}).Error
	})
}

func (r *messageRepository) AddReaction(ctx context.Context, reaction *models.MessageReaction) error {
	return r.db.WithContext(ctx).Create(reaction).Error
}

func (r *messageRepository) RemoveReaction(ctx context.Context, messageID, userID uint, emoji string) error {
	return r.db.WithContext(ctx).
		Where("message_id = ? AND user_id = ? AND emoji = ?", messageID, userID, emoji).
		Delete(&models.MessageReaction{}).Error
}

func (r *messageRepository) ListReceipts(ctx context.Context, messageID uint) ([]models.MessageReceipt, error) {
	var receipts []models.MessageReceipt
	if err := r.db.WithContext(ctx).Where("message_id = ?", messageID).Find(&receipts).Error; err != nil {
		return nil, err
	}
	return receipts, nil
}

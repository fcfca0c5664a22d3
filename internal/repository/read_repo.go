package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amityhq/amity-api/internal/models"
)

// ReadRepository records read markers and receipts. Both rows move together
// inside one transaction so a partial read state is never observable.
type ReadRepository interface {
	MarkRead(ctx context.Context, messageID, memberID, userID uint) (time.Time, error)
}

type readRepository struct {
	db *gorm.DB
}

// NewReadRepository constructs a read-tracking repository backed by GORM.
func NewReadRepository(db *gorm.DB) ReadRepository {
	return &readRepository{db: db}
}

func (r *readRepository) MarkRead(ctx context.Context, messageID, memberID, userID uint) (time.Time, error) {
	now := time.Now().UTC()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		read := models.MessageRead{MessageID: messageID, MemberID: memberID, ReadAt: now}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "message_id"}, {Name: "member_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"read_at": now}),
		}).Create(&read).Error; err != nil {
			return err
		}

		receipt := models.MessageReceipt{MessageID: messageID, UserID: userID, DeliveredAt: &now, ReadAt: &now}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "message_id"}, {Name: "user_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"read_at":      now,
				"delivered_at": gorm.Expr("COALESCE(delivered_at, ?)", now),
			}),
		}).Create(&receipt).Error
	})
	if err != nil {
		return time.Time{}, err
	}

	return now, nil
}

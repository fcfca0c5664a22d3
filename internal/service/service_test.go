package service

import (
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/amityhq/amity-api/internal/models"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func setupServiceTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:svc-%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Friendship{},
		&models.Room{},
		&models.RoomMember{},
		&models.Message{},
		&models.MessageAttachment{},
		&models.MessageReaction{},
		&models.MessageRead{},
		&models.MessageReceipt{},
		&models.Notification{},
		&models.Post{},
		&models.Comment{},
		&models.PostLike{},
		&models.Story{},
		&models.UploadRecord{},
	))
	return db
}

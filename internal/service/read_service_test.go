package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/amityhq/amity-api/internal/models"
	"github.com/amityhq/amity-api/internal/repository"
)

func TestMembershipErrKeepsStorageFailures(t *testing.T) {
	require.ErrorIs(t, membershipErr(gorm.ErrRecordNotFound), ErrNotRoomMember)

	dbErr := errors.New("connection refused")
	require.ErrorIs(t, membershipErr(dbErr), dbErr)
	require.NotErrorIs(t, membershipErr(dbErr), ErrNotRoomMember)
}

func TestDeriveStatus(t *testing.T) {
	now := time.Now()
	members := []models.RoomMember{
		{UserID: 1},
		{UserID: 2},
		{UserID: 3},
	}

	cases := []struct {
		name     string
		receipts []models.MessageReceipt
		want     string
	}{
		{
			name:     "no receipts",
			receipts: nil,
			want:     StatusSent,
		},
		{
			name: "partial delivery",
			receipts: []models.MessageReceipt{
				{UserID: 2, DeliveredAt: &now},
			},
			want: StatusSent,
		},
		{
			name: "all delivered",
			receipts: []models.MessageReceipt{
				{UserID: 2, DeliveredAt: &now},
				{UserID: 3, DeliveredAt: &now},
			},
			want: StatusDelivered,
		},
		{
			name: "delivered but partially read",
			receipts: []models.MessageReceipt{
				{UserID: 2, DeliveredAt: &now, ReadAt: &now},
				{UserID: 3, DeliveredAt: &now},
			},
			want: StatusDelivered,
		},
		{
			name: "all read",
			receipts: []models.MessageReceipt{
				{UserID: 2, DeliveredAt: &now, ReadAt: &now},
				{UserID: 3, DeliveredAt: &now, ReadAt: &now},
			},
			want: StatusRead,
		},
		{
			name: "sender receipt is ignored",
			receipts: []models.MessageReceipt{
				{UserID: 1, DeliveredAt: &now, ReadAt: &now},
				{UserID: 2, DeliveredAt: &now, ReadAt: &now},
				{UserID: 3, DeliveredAt: &now, ReadAt: &now},
			},
			want: StatusRead,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, DeriveStatus(1, members, tc.receipts))
		})
	}
}

func TestDeriveStatusNoRecipients(t *testing.T) {
	members := []models.RoomMember{{UserID: 1}}
	require.Equal(t, StatusSent, DeriveStatus(1, members, nil))
}

func TestReadServiceRequiresMembership(t *testing.T) {
	db := setupServiceTestDB(t)
	require.NoError(t, db.Create(&models.User{ID: 1, Username: "riya"}).Error)
	require.NoError(t, db.Create(&models.User{ID: 2, Username: "dev"}).Error)

	rooms := repository.NewRoomRepository(db)
	room, err := rooms.EnsureDirectRoom(context.Background(), 1, 2)
	require.NoError(t, err)

	messages := repository.NewMessageRepository(db)
	msg := models.Message{RoomID: room.ID, SenderID: 1, Text: "hello"}
	require.NoError(t, messages.Create(context.Background(), &msg))

	svc := NewReadService(repository.NewReadRepository(db), messages, rooms, testLogger())

	_, err = svc.MarkRead(context.Background(), msg.ID, 99, room.ID)
	require.ErrorIs(t, err, ErrNotRoomMember)

	readAt, err := svc.MarkRead(context.Background(), msg.ID, 2, room.ID)
	require.NoError(t, err)
	require.False(t, readAt.IsZero())

	status, err := svc.Status(context.Background(), msg.ID)
	require.NoError(t, err)
	require.Equal(t, StatusRead, status, "single recipient read should flip the badge")
}

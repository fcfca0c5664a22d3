package service

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/amityhq/amity-api/internal/dto"
	"github.com/amityhq/amity-api/internal/models"
	"github.com/amityhq/amity-api/internal/repository"
)

func TestClassifyAttachment(t *testing.T) {
	cases := []struct {
		fileName string
		want     string
	}{
		{"photo.png", models.AttachmentImage},
		{"photo.jpeg", models.AttachmentImage},
		{"sticker.webp", models.AttachmentImage},
		{"clip.mp4", models.AttachmentVideo},
		{"clip.webm", models.AttachmentVideo},
		{"voice.mp3", models.AttachmentAudio},
		{"voice.m4a", models.AttachmentAudio},
		{"report.pdf", models.AttachmentFile},
		{"noextension", models.AttachmentFile},
		{"SHOUTY.PNG", models.AttachmentFile},
	}

	for _, tc := range cases {
		require.Equal(t, tc.want, classifyAttachment(tc.fileName), tc.fileName)
	}
}

func TestMessageServiceRejectsEmptyMessage(t *testing.T) {
	svc, _, _ := newMessageServiceFixture(t)

	_, err := svc.Create(context.Background(), dto.MessageCreateInput{
		RoomID:   1,
		SenderID: 1,
		Text:     "   ",
	})
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestMessageServiceRejectsNonMember(t *testing.T) {
	svc, _, _ := newMessageServiceFixture(t)

	_, err := svc.Create(context.Background(), dto.MessageCreateInput{
		RoomID:   1,
		SenderID: 99,
		Text:     "hello",
	})
	require.ErrorIs(t, err, ErrNotRoomMember)
}

func TestMessageServiceCreatesAndClassifies(t *testing.T) {
	svc, _, redisClient := newMessageServiceFixture(t)

	response, err := svc.Create(context.Background(), dto.MessageCreateInput{
		RoomID:   1,
		SenderID: 1,
		Text:     "<script>alert(1)</script>look at this",
		Attachments: []dto.MessageAttachmentInput{
			{URL: "https://cdn.example.com/cat.png", FileName: "cat.png", SizeBytes: 1024},
			{URL: "https://cdn.example.com/notes.pdf", FileName: "notes.pdf", SizeBytes: 2048},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "look at this", response.Text, "markup should be stripped")
	require.Len(t, response.Attachments, 2)
	require.Equal(t, models.AttachmentImage, response.Attachments[0].Kind)
	require.Equal(t, models.AttachmentFile, response.Attachments[1].Kind)
	require.Equal(t, "riya", response.Sender.Username)

	cached, err := redisClient.Get(context.Background(), "amity:chat:last:1").Result()
	require.NoError(t, err)
	require.Equal(t, "look at this", cached)
}

func TestMessageServiceAttachmentOnlyMessage(t *testing.T) {
	svc, _, _ := newMessageServiceFixture(t)

	response, err := svc.Create(context.Background(), dto.MessageCreateInput{
		RoomID:   1,
		SenderID: 1,
		Attachments: []dto.MessageAttachmentInput{
			{URL: "https://cdn.example.com/voice.mp3", FileName: "voice.mp3"},
		},
	})
	require.NoError(t, err)
	require.Empty(t, response.Text)
	require.Equal(t, models.AttachmentAudio, response.Attachments[0].Kind)
}

func TestMessageServiceReplyChain(t *testing.T) {
	svc, _, _ := newMessageServiceFixture(t)

	first, err := svc.Create(context.Background(), dto.MessageCreateInput{RoomID: 1, SenderID: 1, Text: "original"})
	require.NoError(t, err)

	reply, err := svc.Create(context.Background(), dto.MessageCreateInput{
		RoomID:   1,
		SenderID: 2,
		Text:     "replying",
		ReplyTo:  "1",
	})
	require.NoError(t, err)
	require.NotNil(t, reply.ReplyTo)
	require.Equal(t, first.ID, reply.ReplyTo.ID)

	_, err = svc.Create(context.Background(), dto.MessageCreateInput{RoomID: 1, SenderID: 1, Text: "bad", ReplyTo: "not-a-number"})
	require.Error(t, err)
}

func TestMessageServiceDeleteOnlyBySender(t *testing.T) {
	svc, db, _ := newMessageServiceFixture(t)

	message, err := svc.Create(context.Background(), dto.MessageCreateInput{RoomID: 1, SenderID: 1, Text: "to delete"})
	require.NoError(t, err)

	require.Error(t, svc.Delete(context.Background(), message.ID, 2))
	require.NoError(t, svc.Delete(context.Background(), message.ID, 1))

	var stored models.Message
	require.NoError(t, db.First(&stored, message.ID).Error)
	require.True(t, stored.IsDeleted)
	require.Equal(t, models.DeletedMessageText, stored.Text)
}

func TestMessageServiceHistoryRequiresMembership(t *testing.T) {
	svc, _, _ := newMessageServiceFixture(t)

	_, err := svc.History(context.Background(), 99, dto.MessageHistoryQuery{RoomID: 1})
	require.ErrorIs(t, err, ErrNotRoomMember)

	_, err = svc.Create(context.Background(), dto.MessageCreateInput{RoomID: 1, SenderID: 1, Text: "hello"})
	require.NoError(t, err)

	history, err := svc.History(context.Background(), 2, dto.MessageHistoryQuery{RoomID: 1})
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func newMessageServiceFixture(t *testing.T) (MessageService, *gorm.DB, *redis.Client) {
	t.Helper()

	db := setupServiceTestDB(t)
	require.NoError(t, db.Create(&models.User{ID: 1, Username: "riya"}).Error)
	require.NoError(t, db.Create(&models.User{ID: 2, Username: "dev"}).Error)

	rooms := repository.NewRoomRepository(db)
	room, err := rooms.EnsureDirectRoom(context.Background(), 1, 2)
	require.NoError(t, err)
	require.Equal(t, uint(1), room.ID)

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	messages := repository.NewMessageRepository(db)
	svc := NewMessageService(messages, rooms, redisClient, "amity", testLogger())
	return svc, db, redisClient
}

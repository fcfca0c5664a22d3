package service

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/amityhq/amity-api/internal/dto"
	"github.com/amityhq/amity-api/internal/repository"
)

func TestNotificationServicePublishAndSubscribe(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, validator.New(), testLogger())

	stream, cancel := svc.Subscribe(42)
	defer cancel()

	published, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  42,
		Type:    "friend_request",
		Message: "<b>Friend request</b> from riya",
	})
	require.NoError(t, err)
	require.Equal(t, "Friend request from riya", published.Message, "markup should be stripped")

	select {
	case received := <-stream:
		require.Equal(t, published.ID, received.ID)
		require.Equal(t, uint(42), received.UserID)
	case <-time.After(time.Second):
		t.Fatal("expected notification on the subscriber channel")
	}
}

func TestNotificationServiceRejectsEmptyMessage(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, validator.New(), testLogger())

	_, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  1,
		Type:    "generic",
		Message: "<script>alert(1)</script>",
	})
	require.Error(t, err)
}

func TestNotificationServiceListAndMarkRead(t *testing.T) {
	db := setupServiceTestDB(t)
	svc := NewNotificationService(repository.NewNotificationRepository(db), nil, "", nil, validator.New(), testLogger())

	published, err := svc.Publish(context.Background(), dto.NotificationCreateRequest{
		UserID:  7,
		Type:    "post_like",
		Message: "Your post was liked",
	})
	require.NoError(t, err)

	listed, err := svc.List(context.Background(), 7, 10, 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	require.False(t, listed[0].Read)

	marked, err := svc.MarkRead(context.Background(), published.ID, 7)
	require.NoError(t, err)
	require.True(t, marked.Read)

	_, err = svc.MarkRead(context.Background(), published.ID, 99)
	require.Error(t, err, "another user cannot mark the notification read")
}

func TestPresenceCacheRoundTrip(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	cache := NewPresenceCache(redisClient, "amity", testLogger())

	require.NoError(t, cache.StoreOnline(context.Background(), []uint{1, 5, 9}))

	online, err := cache.ListOnline(context.Background())
	require.NoError(t, err)
	require.Equal(t, []uint{1, 5, 9}, online)

	require.NoError(t, cache.StoreOnline(context.Background(), []uint{}))
	online, err = cache.ListOnline(context.Background())
	require.NoError(t, err)
	require.Empty(t, online)
}

func TestPresenceCacheMissingKey(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	cache := NewPresenceCache(redisClient, "amity", testLogger())

	online, err := cache.ListOnline(context.Background())
	require.NoError(t, err)
	require.Empty(t, online)
}

func TestPresenceCacheDisabledWithoutRedis(t *testing.T) {
	cache := NewPresenceCache(nil, "amity", testLogger())

	require.NoError(t, cache.StoreOnline(context.Background(), []uint{1, 2}))

	_, err := cache.ListOnline(context.Background())
	require.ErrorIs(t, err, ErrPresenceCacheDisabled)
}

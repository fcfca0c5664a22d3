package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const presenceSnapshotTTL = 5 * time.Minute

// ErrPresenceCacheDisabled is returned by reads when no redis client is
// configured, so callers fall back to the local registry instead of treating
// the empty snapshot as an answer.
var ErrPresenceCacheDisabled = errors.New("presence cache disabled")

// PresenceCache mirrors the online user set into redis so other nodes and
// plain REST handlers can answer presence queries.
type PresenceCache struct {
	redis  *redis.Client
	key    string
	logger zerolog.Logger
}

// NewPresenceCache constructs a redis-backed presence snapshot store.
func NewPresenceCache(redisClient *redis.Client, channelBase string, logger zerolog.Logger) *PresenceCache {
	key := "presence:online"
	if channelBase != "" {
		key = channelBase + ":presence:online"
	}
	return &PresenceCache{
		redis:  redisClient,
		key:    key,
		logger: logger.With().Str("component", "presence_cache").Logger(),
	}
}

// StoreOnline overwrites the snapshot with the current online set. The TTL
// bounds staleness if the node dies without a final write.
func (c *PresenceCache) StoreOnline(ctx context.Context, userIDs []uint) error {
	if c.redis == nil {
		return nil
	}

	payload, err := json.Marshal(userIDs)
	if err != nil {
		return err
	}
	return c.redis.Set(ctx, c.key, payload, presenceSnapshotTTL).Err()
}

// ListOnline reads the snapshot back. A missing key means nobody is online.
func (c *PresenceCache) ListOnline(ctx context.Context) ([]uint, error) {
	if c.redis == nil {
		return nil, ErrPresenceCacheDisabled
	}

	payload, err := c.redis.Get(ctx, c.key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return []uint{}, nil
		}
		return nil, err
	}

	var userIDs []uint
	if err := json.Unmarshal(payload, &userIDs); err != nil {
		return nil, err
	}
	return userIDs, nil
}

package infrastructure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"wingo/domain/entities"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

const (
	liveRoundKey       = "wingo:round:live"
	roundGenerationKey = "wingo:round:generation"
)

var errStaleSnapshot = errors.New("round cache generation moved")

// RedisRoundCache is a read-through snapshot of the live round stored in Redis
type RedisRoundCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisRoundCache creates a round cache with entries expiring after ttl
func NewRedisRoundCache(rdb *redis.Client, ttl time.Duration) *RedisRoundCache {
	return &RedisRoundCache{rdb: rdb, ttl: ttl}
}

// NewRedisClient parses a redis:// URL and verifies the server answers
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// GetLive returns the cached live round. Any cache failure reads as a miss.
func (c *RedisRoundCache) GetLive(ctx context.Context) (*entities.Round, bool) {
	data, err := c.rdb.Get(ctx, liveRoundKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.WithError(err).Warn("Round cache read failed")
		}
		return nil, false
	}

	var round entities.Round
	if err := json.Unmarshal(data, &round); err != nil {
		log.WithError(err).Warn("Discarding unreadable round cache entry")
		return nil, false
	}
	return &round, true
}

// Generation returns the invalidation counter. A failed read returns -1, which makes the
// following SetLive a no-op.
func (c *RedisRoundCache) Generation(ctx context.Context) int64 {
	generation, err := c.rdb.Get(ctx, roundGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0
	}
	if err != nil {
		log.WithError(err).Warn("Round cache generation read failed")
		return -1
	}
	return generation
}

// SetLive stores the live round snapshot unless the cache was invalidated after generation was read
func (c *RedisRoundCache) SetLive(ctx context.Context, round *entities.Round, generation int64) {
	if generation < 0 {
		return
	}
	data, err := json.Marshal(round)
	if err != nil {
		log.WithError(err).Warn("Failed to encode round for cache")
		return
	}

	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, roundGenerationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return errStaleSnapshot
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, liveRoundKey, data, c.ttl)
			return nil
		})
		return err
	}, roundGenerationKey)

	switch {
	case err == nil:
	case errors.Is(err, errStaleSnapshot), errors.Is(err, redis.TxFailedErr):
		log.WithField("round_id", round.ID).Debug("Skipping round cache write after invalidation")
	default:
		log.WithError(err).Warn("Round cache write failed")
	}
}

// Invalidate drops the snapshot and advances the generation so in-flight reads do not refill it
func (c *RedisRoundCache) Invalidate(ctx context.Context) {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, roundGenerationKey)
		pipe.Del(ctx, liveRoundKey)
		return nil
	})
	if err != nil {
		log.WithError(err).Warn("Round cache invalidation failed")
	}
}

// NoopRoundCache always misses. It is used when Redis is not configured.
type NoopRoundCache struct{}

func (NoopRoundCache) GetLive(ctx context.Context) (*entities.Round, bool)                  { return nil, false }
func (NoopRoundCache) Generation(ctx context.Context) int64                                 { return 0 }
func (NoopRoundCache) SetLive(ctx context.Context, round *entities.Round, generation int64) {}
func (NoopRoundCache) Invalidate(ctx context.Context)                                       {}

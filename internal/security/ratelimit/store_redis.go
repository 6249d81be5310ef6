package ratelimit

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kaczcards/card-show-finder-sub014/internal/models"
)

// RedisStore keeps each window as a hash that Redis expires at the window end.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a Store backed by client. Keys are namespaced with prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "ratelimit:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) redisKey(key, endpoint string) string {
	return s.prefix + endpoint + "|" + key
}

// Live implements Store.
func (s *RedisStore) Live(ctx context.Context, key, endpoint string, now time.Time) (*models.RateLimitRecord, error) {
	vals, err := s.client.HGetAll(ctx, s.redisKey(key, endpoint)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, nil
	}
	count, _ := strconv.Atoi(vals["count"])
	rec := &models.RateLimitRecord{
		Key:            key,
		Endpoint:       endpoint,
		Count:          count,
		FirstRequestAt: parseMillis(vals["first"]),
		LastRequestAt:  parseMillis(vals["last"]),
		ExpiresAt:      parseMillis(vals["expires"]),
	}
	if rec.Expired(now) {
		return nil, nil
	}
	return rec, nil
}

// Create implements Store.
func (s *RedisStore) Create(ctx context.Context, rec *models.RateLimitRecord) error {
	k := s.redisKey(rec.Key, rec.Endpoint)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k,
			"count", rec.Count,
			"first", rec.FirstRequestAt.UnixMilli(),
			"last", rec.LastRequestAt.UnixMilli(),
			"expires", rec.ExpiresAt.UnixMilli(),
		)
		pipe.PExpireAt(ctx, k, rec.ExpiresAt)
		return nil
	})
	return err
}

// Increment implements Store.
func (s *RedisStore) Increment(ctx context.Context, rec *models.RateLimitRecord, now time.Time) (int, error) {
	k := s.redisKey(rec.Key, rec.Endpoint)
	var incr *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.HIncrBy(ctx, k, "count", 1)
		pipe.HSet(ctx, k, "last", now.UnixMilli())
		return nil
	})
	if err != nil {
		return 0, err
	}
	rec.Count = int(incr.Val())
	rec.LastRequestAt = now
	return rec.Count, nil
}

// DeleteExpired implements Store. Redis removes expired windows itself.
func (s *RedisStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

func parseMillis(v string) time.Time {
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

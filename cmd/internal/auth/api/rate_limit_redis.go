package api

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisFailureStore keeps failures in one sorted set per key, scored by
// unix microseconds, so several instances share throttle state.
type RedisFailureStore struct {
	rdb       redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewRedisFailureStore wraps an existing client; the caller owns it.
func NewRedisFailureStore(rdb redis.UniversalClient, retention time.Duration) *RedisFailureStore {
	if retention <= 0 {
		retention = 2 * time.Hour
	}
	return &RedisFailureStore{rdb: rdb, prefix: "poli:login_failures:", retention: retention}
}

func (s *RedisFailureStore) RecordFailure(ctx context.Context, key string, at time.Time) error {
	k := s.prefix + key
	score := float64(at.UnixMicro())
	cut := strconv.FormatInt(at.Add(-s.retention).UnixMicro(), 10)

	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZAdd(ctx, k, redis.Z{Score: score, Member: strconv.FormatInt(at.UnixNano(), 10)})
		p.ZRemRangeByScore(ctx, k, "-inf", "("+cut)
		p.Expire(ctx, k, s.retention)
		return nil
	})
	return err
}

func (s *RedisFailureStore) RecentFailures(ctx context.Context, key string, since time.Time) ([]time.Time, error) {
	members, err := s.rdb.ZRevRangeByScoreWithScores(ctx, s.prefix+key, &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixMicro(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, err
	}
	out := make([]time.Time, 0, len(members))
	for _, m := range members {
		out = append(out, time.UnixMicro(int64(m.Score)).UTC())
	}
	return out, nil
}

func (s *RedisFailureStore) Reset(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.prefix+key).Err()
}

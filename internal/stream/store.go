package stream

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/motionlab-ai/pose-backend/internal/pose"
	"github.com/motionlab-ai/pose-backend/internal/shared"
)

const (
	resultTTL  = 60 * time.Second
	sessionTTL = 24 * time.Hour
	metricsTTL = 7 * 24 * time.Hour
)

// Store keeps the latest result per session plus rolling counters in redis.
// A nil client turns every method into a no-op so the pipeline runs without
// redis at all.
type Store struct {
	redis *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func (s *Store) StoreResult(ctx context.Context, sessionID string, result *pose.Result) error {
	if s.redis == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}

	pipe := s.redis.Pipeline()
	pipe.Set(ctx, "stream:"+sessionID+":latest", data, resultTTL)
	pipe.ZAdd(ctx, "stream:sessions", redis.Z{
		Score:  float64(time.Now().UnixMilli()),
		Member: sessionID,
	})
	pipe.Expire(ctx, "stream:sessions", sessionTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *Store) GetLatestResult(ctx context.Context, sessionID string) (*pose.Result, error) {
	if s.redis == nil {
		return nil, shared.ErrNotFound
	}
	data, err := s.redis.Get(ctx, "stream:"+sessionID+":latest").Bytes()
	if err == redis.Nil {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var result pose.Result
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RecentSessions returns session ids ordered newest first.
func (s *Store) RecentSessions(ctx context.Context, limit int) ([]string, error) {
	if s.redis == nil {
		return nil, nil
	}
	results, err := s.redis.ZRevRangeWithScores(ctx, "stream:sessions", 0, int64(limit-1)).Result()
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(results))
	for _, r := range results {
		id, ok := r.Member.(string)
		if !ok {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) IncrementCounter(ctx context.Context, sessionID, field string, value int64) error {
	if s.redis == nil {
		return nil
	}
	key := "stream:" + sessionID + ":metrics"

	pipe := s.redis.Pipeline()
	pipe.HIncrBy(ctx, key, field, value)
	pipe.Expire(ctx, key, metricsTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) IncrementFrames(ctx context.Context, sessionID string) error {
	return s.IncrementCounter(ctx, sessionID, "frames", 1)
}

func (s *Store) IncrementDropped(ctx context.Context, sessionID string) error {
	return s.IncrementCounter(ctx, sessionID, "dropped", 1)
}

func (s *Store) IncrementErrors(ctx context.Context, sessionID string) error {
	return s.IncrementCounter(ctx, sessionID, "error_count", 1)
}

// Counters reads the metrics hash back. Missing fields come out as zero.
func (s *Store) Counters(ctx context.Context, sessionID string) (map[string]int64, error) {
	if s.redis == nil {
		return map[string]int64{}, nil
	}
	data, err := s.redis.HGetAll(ctx, "stream:"+sessionID+":metrics").Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(data))
	for field, v := range data {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out[field] = n
	}
	return out, nil
}

func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	if s.redis == nil {
		return nil
	}
	pipe := s.redis.Pipeline()
	pipe.Del(ctx, "stream:"+sessionID+":latest")
	pipe.Del(ctx, "stream:"+sessionID+":metrics")
	pipe.ZRem(ctx, "stream:sessions", sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

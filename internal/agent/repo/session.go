package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aura-core/server/internal/agent/model"
	errx "github.com/aura-core/server/internal/core/error"
	logx "github.com/aura-core/server/pkg/logger"
)

// RedisSessionRepository keeps one JSON snapshot per thread, expiring with the
// thread's messages.
type RedisSessionRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
	now func() time.Time
}

func NewRedisSessionRepository(rdb redis.Cmdable, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl, now: time.Now}
}

func sessionKey(threadID string) string {
	return fmt.Sprintf("thread:%s:state", threadID)
}

func (r *RedisSessionRepository) Load(ctx context.Context, threadID string) (*model.Session, error) {
	key := sessionKey(threadID)
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &model.Session{ThreadID: threadID}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session from redis")
		return nil, errx.WrapRedis(err)
	}

	var s model.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to unmarshal session")
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	s.ThreadID = threadID
	return &s, nil
}

func (r *RedisSessionRepository) Save(ctx context.Context, s *model.Session) error {
	if s == nil || s.ThreadID == "" {
		return fmt.Errorf("save session: missing thread id")
	}
	s.UpdatedAt = r.now().UTC()

	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	key := sessionKey(s.ThreadID)
	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save session to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, threadID string) error {
	if err := r.rdb.Del(ctx, sessionKey(threadID)).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)

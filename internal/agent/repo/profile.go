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

// RedisProfileRepository stores user profiles without expiry.
type RedisProfileRepository struct {
	rdb redis.Cmdable
	now func() time.Time
}

func NewRedisProfileRepository(rdb redis.Cmdable) *RedisProfileRepository {
	return &RedisProfileRepository{rdb: rdb, now: time.Now}
}

func profileKey(userID string) string {
	return fmt.Sprintf("user:%s:profile", userID)
}

func (r *RedisProfileRepository) Get(ctx context.Context, userID string) (*model.UserProfile, error) {
	key := profileKey(userID)
	raw, err := r.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return &model.UserProfile{UserID: userID, PhotoURLs: []string{}}, nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load profile from redis")
		return nil, errx.WrapRedis(err)
	}

	var p model.UserProfile
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	p.UserID = userID
	if p.PhotoURLs == nil {
		p.PhotoURLs = []string{}
	}
	return &p, nil
}

func (r *RedisProfileRepository) Put(ctx context.Context, p *model.UserProfile) error {
	if p == nil || p.UserID == "" {
		return fmt.Errorf("put profile: missing user id")
	}
	p.UpdatedAt = r.now().UTC()

	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	key := profileKey(p.UserID)
	if err := r.rdb.Set(ctx, key, b, 0).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save profile to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.ProfileRepository = (*RedisProfileRepository)(nil)

package session

import (
	"context"
	"time"

	"github.com/sharemeal/console/pkg/cache"
)

// RedisStore 基于 Redis 的工作区快照存储
type RedisStore struct {
	cache *cache.RedisCache
	ttl   time.Duration
}

// NewRedisStore 创建 Redis 快照存储
func NewRedisStore(c *cache.RedisCache, ttl time.Duration) *RedisStore {
	return &RedisStore{cache: c, ttl: ttl}
}

func (s *RedisStore) key(userID string) string {
	return "console:workspace:" + userID
}

// Save 保存快照
func (s *RedisStore) Save(ctx context.Context, userID string, snapshot []byte) error {
	return s.cache.Set(ctx, s.key(userID), string(snapshot), s.ttl)
}

// Load 读取快照
func (s *RedisStore) Load(ctx context.Context, userID string) ([]byte, bool, error) {
	val, err := s.cache.Get(ctx, s.key(userID))
	if err != nil {
		return nil, false, err
	}
	if val == "" {
		return nil, false, nil
	}
	return []byte(val), true, nil
}

// Delete 删除快照
func (s *RedisStore) Delete(ctx context.Context, userID string) error {
	return s.cache.Delete(ctx, s.key(userID))
}

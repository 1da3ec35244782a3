package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// RevocationStore 记录已吊销的 refresh 令牌 jti
type RevocationStore interface {
	// Revoke 标记 jti 已吊销，ttl 后自动清除。返回 false 表示之前已经吊销过
	Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error)
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const revokedKeyPrefix = "newsboard:revoked:"

// RedisRevocationStore 多实例部署时共享吊销表
type RedisRevocationStore struct {
	client *redis.Client
}

func NewRedisRevocationStore(client *redis.Client) *RedisRevocationStore {
	return &RedisRevocationStore{client: client}
}

// NewRedisClient 连接 Redis 并 ping 一次
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}
	return client, nil
}

func (s *RedisRevocationStore) Revoke(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, revokedKeyPrefix+jti, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("吊销令牌失败: %w", err)
	}
	return ok, nil
}

func (s *RedisRevocationStore) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := s.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("查询令牌状态失败: %w", err)
	}
	return n > 0, nil
}

// MemoryRevocationStore 单实例使用的进程内吊销表。
// 容量满时淘汰最久未访问的条目，条目统一在 ttl 后过期
type MemoryRevocationStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, struct{}]
}

// NewMemoryRevocationStore size 非正数时使用 10000
func NewMemoryRevocationStore(size int, ttl time.Duration) *MemoryRevocationStore {
	if size <= 0 {
		size = 10000
	}
	if ttl <= 0 {
		ttl = DefaultRefreshTTL
	}
	return &MemoryRevocationStore{cache: expirable.NewLRU[string, struct{}](size, nil, ttl)}
}

// Revoke 忽略单条 ttl，按创建时的统一 ttl 过期
func (s *MemoryRevocationStore) Revoke(_ context.Context, jti string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cache.Contains(jti) {
		return false, nil
	}
	s.cache.Add(jti, struct{}{})
	return true, nil
}

func (s *MemoryRevocationStore) IsRevoked(_ context.Context, jti string) (bool, error) {
	return s.cache.Contains(jti), nil
}

package utils

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem 包装缓存数据和过期时间
type CacheItem struct {
	Data      any
	ExpiresAt time.Time
}

// TTLCache 带过期时间的本地 LRU 缓存，只用于可以短暂过期的列表响应
type TTLCache struct {
	lruCache *lru.Cache[string, CacheItem]
	now      func() time.Time
}

var (
	cacheInstance *TTLCache
	cacheOnce     sync.Once
)

// GetCache 获取单例缓存实例
func GetCache() *TTLCache {
	cacheOnce.Do(func() {
		cacheInstance = NewTTLCache(500)
	})
	return cacheInstance
}

// NewTTLCache size 非正数时使用 500
func NewTTLCache(size int) *TTLCache {
	if size <= 0 {
		size = 500
	}
	// size 为正数时 lru.New 不会返回错误
	l, _ := lru.New[string, CacheItem](size)
	return &TTLCache{lruCache: l, now: time.Now}
}

// Set 设置缓存，TTL 为过期时间
func (c *TTLCache) Set(key string, data any, ttl time.Duration) {
	c.lruCache.Add(key, CacheItem{
		Data:      data,
		ExpiresAt: c.now().Add(ttl),
	})
}

// Get 获取缓存，若不存在或已过期则返回 nil
func (c *TTLCache) Get(key string) any {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}

	// 检查过期
	if c.now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil
	}

	return val.Data
}

// Delete 删除指定缓存
func (c *TTLCache) Delete(key string) {
	c.lruCache.Remove(key)
}

// DeletePrefix 删除所有以 prefix 开头的 key，热度重算后用来清掉榜单缓存
func (c *TTLCache) DeletePrefix(prefix string) {
	for _, k := range c.lruCache.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.lruCache.Remove(k)
		}
	}
}

func (c *TTLCache) Len() int { return c.lruCache.Len() }

package sources

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultVolumeTTL = 24 * time.Hour

// Cache stores string values with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

type RedisCache struct {
	client *redis.Client
	prefix string
}

func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "ideaval:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := c.client.Get(ctx, c.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.prefix+key, value, ttl).Err()
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

type MemoryCache struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	now   func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: map[string]memoryEntry{}, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return "", false, nil
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.items, key)
		return "", false, nil
	}
	return e.value, true, nil
}

func (c *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.items[key] = e
	return nil
}

type volumeSource interface {
	KeywordVolume(ctx context.Context, keyword string) (int, error)
}

// CachedVolume memoizes keyword volumes. Cache failures fall through to the
// wrapped provider; provider errors are never cached.
type CachedVolume struct {
	next  volumeSource
	cache Cache
	ttl   time.Duration
}

func NewCachedVolume(next volumeSource, cache Cache, ttl time.Duration) *CachedVolume {
	if ttl <= 0 {
		ttl = DefaultVolumeTTL
	}
	return &CachedVolume{next: next, cache: cache, ttl: ttl}
}

func (c *CachedVolume) KeywordVolume(ctx context.Context, keyword string) (int, error) {
	key := "volume:" + strings.ToLower(strings.TrimSpace(keyword))
	if v, ok, err := c.cache.Get(ctx, key); err == nil && ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n, nil
		}
	}
	n, err := c.next.KeywordVolume(ctx, keyword)
	if err != nil {
		return 0, err
	}
	_ = c.cache.Set(ctx, key, strconv.Itoa(n), c.ttl)
	return n, nil
}

package payments

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// TokenCache stores processor access tokens until shortly before they expire.
type TokenCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, token string, ttl time.Duration)
}

type memoryToken struct {
	value  string
	expiry time.Time
}

type MemoryTokenCache struct {
	mu     sync.RWMutex
	tokens map[string]memoryToken
}

func NewMemoryTokenCache() *MemoryTokenCache {
	return &MemoryTokenCache{tokens: make(map[string]memoryToken)}
}

func (m *MemoryTokenCache) Get(_ context.Context, key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tokens[key]
	if !ok || !time.Now().Before(t.expiry) {
		return "", false
	}
	return t.value, true
}

func (m *MemoryTokenCache) Set(_ context.Context, key, token string, ttl time.Duration) {
	m.mu.Lock()
	m.tokens[key] = memoryToken{value: token, expiry: time.Now().Add(ttl)}
	m.mu.Unlock()
}

// RedisTokenCache shares tokens between API replicas. Redis errors read as misses.
type RedisTokenCache struct {
	client *redis.Client
}

func NewRedisTokenCache(client *redis.Client) *RedisTokenCache {
	return &RedisTokenCache{client: client}
}

func (r *RedisTokenCache) Get(ctx context.Context, key string) (string, bool) {
	v, err := r.client.Get(ctx, key).Result()
	if err != nil {
		return "", false
	}
	return v, v != ""
}

func (r *RedisTokenCache) Set(ctx context.Context, key, token string, ttl time.Duration) {
	r.client.Set(ctx, key, token, ttl)
}

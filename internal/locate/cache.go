package locate

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"jobscout-engine/internal/domain"
	"jobscout-engine/internal/util"

	"github.com/redis/go-redis/v9"
)

// Cache stores CareerPageResults until their TTL runs out.
type Cache interface {
	Get(ctx context.Context, key string) (domain.CareerPageResult, bool)
	Set(ctx context.Context, key string, r domain.CareerPageResult)
	Clear(ctx context.Context) error
	Len(ctx context.Context) int
}

// CacheKey is (lowercased name, canonical website).
func CacheKey(c domain.CompanyTarget) string {
	return strings.ToLower(strings.TrimSpace(c.Name)) + "|" + util.CanonicalizeURL(c.WebsiteURL)
}

type MemoryCache struct {
	mu  sync.Mutex
	m   map[string]domain.CareerPageResult
	now func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{m: map[string]domain.CareerPageResult{}, now: time.Now}
}

func (c *MemoryCache) Get(_ context.Context, key string) (domain.CareerPageResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r, ok := c.m[key]
	if !ok {
		return domain.CareerPageResult{}, false
	}
	if r.Expired(c.now()) {
		delete(c.m, key)
		return domain.CareerPageResult{}, false
	}
	return cloneResult(r), true
}

func (c *MemoryCache) Set(_ context.Context, key string, r domain.CareerPageResult) {
	c.mu.Lock()
	c.m[key] = cloneResult(r)
	c.mu.Unlock()
}

func (c *MemoryCache) Clear(context.Context) error {
	c.mu.Lock()
	c.m = map[string]domain.CareerPageResult{}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Len(context.Context) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	n := 0
	for _, r := range c.m {
		if !r.Expired(now) {
			n++
		}
	}
	return n
}

func cloneResult(r domain.CareerPageResult) domain.CareerPageResult {
	if r.Alternates != nil {
		r.Alternates = append([]string(nil), r.Alternates...)
	}
	return r
}

const redisPrefix = "jobscout:career:"

// RedisCache shares results between engine processes. Expiry is Redis TTL.
type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) (domain.CareerPageResult, bool) {
	b, err := c.rdb.Get(ctx, redisPrefix+key).Bytes()
	if err != nil {
		return domain.CareerPageResult{}, false
	}
	var r domain.CareerPageResult
	if err := json.Unmarshal(b, &r); err != nil {
		return domain.CareerPageResult{}, false
	}
	return r, true
}

func (c *RedisCache) Set(ctx context.Context, key string, r domain.CareerPageResult) {
	if r.TTL <= 0 {
		return
	}
	b, err := json.Marshal(r)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, redisPrefix+key, b, r.TTL).Err()
}

func (c *RedisCache) keys(ctx context.Context) ([]string, error) {
	var out []string
	iter := c.rdb.Scan(ctx, 0, redisPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		out = append(out, iter.Val())
	}
	return out, iter.Err()
}

func (c *RedisCache) Clear(ctx context.Context) error {
	keys, err := c.keys(ctx)
	if err != nil || len(keys) == 0 {
		return err
	}
	return c.rdb.Del(ctx, keys...).Err()
}

func (c *RedisCache) Len(ctx context.Context) int {
	keys, err := c.keys(ctx)
	if err != nil {
		return 0
	}
	return len(keys)
}

package glucose

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladimiradmaev/glucolog/internal/domain"
)

var _ domain.GlucoseSource = (*Cache)(nil)

// Cache wraps a GlucoseSource with Redis-backed caching of fetched windows.
// Redis problems never fail a request, they just send it to the source.
type Cache struct {
	source domain.GlucoseSource
	redis  *redis.Client
	ttl    time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and TTL.
func NewCache(source domain.GlucoseSource, client *redis.Client, ttl time.Duration) *Cache {
	if source == nil {
		panic("glucose.NewCache: source is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{source: source, redis: client, ttl: ttl}
}

func (c *Cache) ReadingsInRange(ctx context.Context, userID domain.UserID, start, end time.Time) ([]domain.Reading, error) {
	key := readingsCacheKey(userID, start, end)
	if readings, ok := c.loadFromCache(ctx, key); ok {
		return readings, nil
	}

	readings, err := c.source.ReadingsInRange(ctx, userID, start, end)
	if err != nil {
		return nil, err
	}

	c.store(ctx, key, readings)
	return readings, nil
}

func (c *Cache) loadFromCache(ctx context.Context, key string) ([]domain.Reading, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the source without failing.
			_ = c.redis.Del(ctx, key).Err()
		}
		return nil, false
	}
	var readings []domain.Reading
	if err := json.Unmarshal(data, &readings); err != nil {
		_ = c.redis.Del(ctx, key).Err()
		return nil, false
	}
	return readings, true
}

func (c *Cache) store(ctx context.Context, key string, readings []domain.Reading) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := json.Marshal(readings)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

func readingsCacheKey(userID domain.UserID, start, end time.Time) string {
	return fmt.Sprintf("readings:%s:%d:%d", userID.Value(), start.Unix(), end.Unix())
}

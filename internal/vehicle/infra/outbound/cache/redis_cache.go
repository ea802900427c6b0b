package cache

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-redis/redis/v8"

	sharedCache "github.com/davicafu/vehiclecatalog/internal/shared/infra/platform/cache"
)

// scanBatch es el COUNT sugerido a SCAN en cada iteración.
const scanBatch = 100

type RedisCache struct {
	client *redis.Client
}

var _ sharedCache.Cache = (*RedisCache)(nil)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // cache miss
		}
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

// Set guarda sin expiración.
func (c *RedisCache) Set(ctx context.Context, key string, val interface{}) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, 0).Err()
}

// Values recorre las keys con SCAN (no KEYS, que bloquea el servidor) y las lee con MGET.
func (c *RedisCache) Values(ctx context.Context, prefix string) ([][]byte, error) {
	var keys []string
	iter := c.client.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return [][]byte{}, nil
	}

	raw, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	values := make([][]byte, 0, len(raw))
	for _, r := range raw {
		// Una key borrada entre SCAN y MGET llega como nil.
		s, ok := r.(string)
		if !ok || s == "" {
			continue
		}
		values = append(values, []byte(s))
	}
	return values, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *RedisCache) Flush(ctx context.Context) error {
	return c.client.FlushDB(ctx).Err()
}

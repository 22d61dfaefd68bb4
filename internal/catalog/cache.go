package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyProducts   = "storefront:catalog:products"
	keyCategories = "storefront:catalog:categories"
)

// Cache is the Redis edge cache for catalog reads. The backend owns the data;
// entries simply expire, except categories which are invalidated on edit.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache creates a catalog cache with the given TTL.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// productsKey scopes the product list key by category filter.
func productsKey(category string) string {
	if category == "" {
		return keyProducts
	}
	return keyProducts + ":" + category
}

// get loads a cached value into out. The second return is false on a miss.
func (c *Cache) get(ctx context.Context, key string, out any) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("unmarshal cached %s: %w", key, err)
	}
	return true, nil
}

// set stores a value under the configured TTL.
func (c *Cache) set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// invalidateCategories drops the category list after an edit so the next read
// sees the backend's updated document.
func (c *Cache) invalidateCategories(ctx context.Context) error {
	if err := c.client.Del(ctx, keyCategories).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", keyCategories, err)
	}
	return nil
}

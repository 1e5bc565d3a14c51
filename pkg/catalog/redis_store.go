package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/Sternrassler/item-list-client/pkg/listing"
)

// DefaultRedisKey is the hash holding the dataset.
const DefaultRedisKey = "catalog:items"

// RedisStore keeps the dataset in a Redis hash: field = item ID, value =
// JSON-encoded item.
type RedisStore struct {
	redis *redis.Client
	key   string
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(redisClient *redis.Client, key string) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisStore{
		redis: redisClient,
		key:   key,
	}
}

// All implements Store. Items are returned ordered by ID.
func (s *RedisStore) All(ctx context.Context) ([]listing.Item, error) {
	fields, err := s.redis.HGetAll(ctx, s.key).Result()
	if err != nil {
		storeErrors.WithLabelValues("all").Inc()
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrStoreEmpty
	}

	items := make([]listing.Item, 0, len(fields))
	for field, raw := range fields {
		var item listing.Item
		if err := json.Unmarshal([]byte(raw), &item); err != nil {
			storeErrors.WithLabelValues("all").Inc()
			return nil, fmt.Errorf("decode item %s: %w", field, err)
		}
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool { return items[i].ID.Less(items[j].ID) })
	return items, nil
}

// Seed implements Seeder. It replaces the whole dataset atomically.
func (s *RedisStore) Seed(ctx context.Context, items []listing.Item) error {
	values := make([]any, 0, len(items)*2)
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return fmt.Errorf("marshal item %s: %w", item.ID, err)
		}
		values = append(values, item.ID.String(), data)
	}

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(values) > 0 {
			pipe.HSet(ctx, s.key, values...)
		}
		return nil
	})
	if err != nil {
		storeErrors.WithLabelValues("seed").Inc()
		return fmt.Errorf("redis seed: %w", err)
	}
	return nil
}

// Delete removes the dataset.
func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.redis.Del(ctx, s.key).Err(); err != nil {
		storeErrors.WithLabelValues("delete").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.redis.Ping(ctx).Err()
}

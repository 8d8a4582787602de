package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	redis "github.com/redis/go-redis/v9"

	"andicblue/backend/internal/store"
)

const keyPrefix = "andicblue:table:"

type RedisTableCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisTableCache(addr string, password string, db int, ttl time.Duration) *RedisTableCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &RedisTableCache{client: client, ttl: ttl}
}

func (c *RedisTableCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisTableCache) Close() error {
	return c.client.Close()
}

func (c *RedisTableCache) Get(ctx context.Context, table string) ([]store.Row, bool, error) {
	val, err := c.client.Get(ctx, keyPrefix+table).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var rows []store.Row
	if err := json.Unmarshal(val, &rows); err != nil {
		return nil, false, err
	}
	return rows, true, nil
}

// Set stores the snapshot; a zero ttl keeps it until overwritten.
func (c *RedisTableCache) Set(ctx context.Context, table string, rows []store.Row) error {
	if rows == nil {
		rows = []store.Row{}
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+table, payload, c.ttl).Err()
}

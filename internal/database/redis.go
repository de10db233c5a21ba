package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClients holds one connection for commands (token denylist, chat
// blobs) and one dedicated to pub/sub subscriptions.
type RedisClients struct {
	Cache  *redis.Client
	PubSub *redis.Client
}

// NewRedisClient opens and pings a single client.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}

func NewRedisClients(ctx context.Context, redisURL string) (*RedisClients, error) {
	cache, err := NewRedisClient(ctx, redisURL)
	if err != nil {
		return nil, err
	}

	pubsub, err := NewRedisClient(ctx, redisURL)
	if err != nil {
		cache.Close()
		return nil, fmt.Errorf("pubsub connection: %w", err)
	}

	return &RedisClients{
		Cache:  cache,
		PubSub: pubsub,
	}, nil
}

func (r *RedisClients) Close() {
	r.Cache.Close()
	r.PubSub.Close()
}

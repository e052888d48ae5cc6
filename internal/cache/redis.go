package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const redisOpTimeout = 2 * time.Second

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// DialRedis connects to Redis and verifies the connection with PING.
func DialRedis(ctx context.Context, config RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return client, nil
}

// Redis is a Store backed by Redis. Values are JSON encoded under
// prefix+key; GETEX renews the TTL on every read so expiry slides the same
// way as the memory store. Redis failures degrade to cache misses.
type Redis[V any] struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

func NewRedis[V any](client *redis.Client, prefix string, ttl time.Duration, logger zerolog.Logger) *Redis[V] {
	return &Redis[V]{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (r *Redis[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V

	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	data, err := r.client.GetEx(ctx, r.prefix+key, r.ttl).Bytes()
	if errors.Is(err, redis.Nil) {
		return zero, false
	}
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("redis get failed")
		return zero, false
	}

	var value V
	if err := json.Unmarshal(data, &value); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("json unmarshal failed")
		return zero, false
	}
	return value, true
}

func (r *Redis[V]) Set(ctx context.Context, key string, value V) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("json marshal failed")
		return
	}

	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("redis set failed")
	}
}

func (r *Redis[V]) Delete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()

	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		r.logger.Warn().Err(err).Str("key", key).Msg("redis delete failed")
	}
}

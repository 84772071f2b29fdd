package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisConn adapts go-redis to the Conn interface.
type redisConn struct {
	rdb *redis.Client
}

// NewRedisConn dials a Redis connection pool from a redis:// URL.
func NewRedisConn(url string) (Conn, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &redisConn{rdb: redis.NewClient(opt)}, nil
}

func (r *redisConn) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *redisConn) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.rdb.Set(ctx, key, value, ttl).Err()
}

func (r *redisConn) Del(ctx context.Context, key string) error {
	return r.rdb.Del(ctx, key).Err()
}

func (r *redisConn) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Package cache provides a fail-soft expiring key-value store backed by
// Redis. A backing-store outage degrades every operation to a miss or no-op
// with a log line; callers fall back to their source-of-truth stores.
package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// DefaultTTL applies when a caller does not override the expiry.
const DefaultTTL = 300 * time.Second

// Conn is the minimal backing-store surface the cache needs. A miss is
// (nil, nil). Implemented by redisConn; tests use an in-memory fake.
type Conn interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Client serializes values with CBOR and round-trips any structured value,
// including binary payloads.
type Client struct {
	conn       Conn
	defaultTTL time.Duration
}

// New creates a cache client over conn. A non-positive defaultTTL falls back
// to DefaultTTL.
func New(conn Conn, defaultTTL time.Duration) *Client {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &Client{conn: conn, defaultTTL: defaultTTL}
}

// Set stores value under key. ttl <= 0 means the default TTL. Returns false
// (and logs) on any failure.
func (c *Client) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) bool {
	if c.conn == nil {
		return false
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	data, err := cbor.Marshal(value)
	if err != nil {
		slog.Error("cache encode failed", "key", key, "error", err)
		return false
	}
	if err := c.conn.Set(ctx, key, data, ttl); err != nil {
		slog.Error("cache SET failed", "key", key, "error", err)
		return false
	}
	return true
}

// Get loads key into dest. Returns false on miss or any failure.
func (c *Client) Get(ctx context.Context, key string, dest interface{}) bool {
	if c.conn == nil {
		return false
	}
	data, err := c.conn.Get(ctx, key)
	if err != nil {
		slog.Error("cache GET failed", "key", key, "error", err)
		return false
	}
	if data == nil {
		return false
	}
	if err := cbor.Unmarshal(data, dest); err != nil {
		slog.Error("cache decode failed", "key", key, "error", err)
		return false
	}
	return true
}

// Delete removes key. Returns false on failure.
func (c *Client) Delete(ctx context.Context, key string) bool {
	if c.conn == nil {
		return false
	}
	if err := c.conn.Del(ctx, key); err != nil {
		slog.Error("cache DELETE failed", "key", key, "error", err)
		return false
	}
	return true
}

// Ping reports whether the backing store is reachable.
func (c *Client) Ping(ctx context.Context) bool {
	if c.conn == nil {
		return false
	}
	if err := c.conn.Ping(ctx); err != nil {
		slog.Error("cache ping failed", "error", err)
		return false
	}
	return true
}

package redisclient

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

type Client struct {
	rdb           *redis.Client
	releaseScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		releaseScript: redis.NewScript(releaseLockScript),
	}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping checks the Redis connection
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// RevokeToken marks a session token ID as revoked until ttl passes
func (c *Client) RevokeToken(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return c.rdb.Set(ctx, fmt.Sprintf("revoked:%s", tokenID), 1, ttl).Err()
}

// IsTokenRevoked checks whether a session token ID was revoked
func (c *Client) IsTokenRevoked(ctx context.Context, tokenID string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("revoked:%s", tokenID)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}

// CacheRole stores a user's role with TTL
func (c *Client) CacheRole(ctx context.Context, userID uuid.UUID, role string, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("role:%s", userID), role, ttl).Err()
}

// GetCachedRole retrieves a cached role. ok is false on a cache miss.
func (c *Client) GetCachedRole(ctx context.Context, userID uuid.UUID) (string, bool, error) {
	role, err := c.rdb.Get(ctx, fmt.Sprintf("role:%s", userID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return role, true, nil
}

// AcquireLock acquires a distributed lock and returns the token that owns it
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (string, bool, error) {
	token := uuid.New().String()
	ok, err := c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	if !ok {
		return "", false, nil
	}
	return token, true, nil
}

// ReleaseLock releases a distributed lock if token still owns it
func (c *Client) ReleaseLock(ctx context.Context, lockKey, token string) error {
	_, err := c.releaseScript.Run(ctx, c.rdb, []string{fmt.Sprintf("lock:%s", lockKey)}, token).Result()
	if err != nil {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	return nil
}

// SetIdempotentOrder stores the order created for an idempotency key with TTL
func (c *Client) SetIdempotentOrder(ctx context.Context, key string, orderID int64, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), orderID, ttl).Err()
}

// GetIdempotentOrder returns the order stored for an idempotency key
func (c *Client) GetIdempotentOrder(ctx context.Context, key string) (int64, bool, error) {
	val, err := c.rdb.Get(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	orderID, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt idempotency entry %q: %w", key, err)
	}
	return orderID, true, nil
}

package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront/internal/localstore"

	"github.com/go-redis/redis/v8"
)

const orderFeedKey = "admin:order-feed"

type Client struct {
	rdb        *redis.Client
	visitorTTL time.Duration
}

// NewClient creates a new Redis client and verifies connectivity
func NewClient(addr, password string, db int, visitorTTL time.Duration) (*Client, error) {
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

	return &Client{rdb: rdb, visitorTTL: visitorTTL}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Ping checks the connection, used by the readiness probe
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// ForVisitor returns the durable storage scoped to one visitor.
func (c *Client) ForVisitor(visitorID string) localstore.Storage {
	return &visitorStorage{rdb: c.rdb, visitorID: visitorID, ttl: c.visitorTTL}
}

// visitorStorage keeps each key under visitor:<id>:<key>. Every write
// refreshes the TTL so an active visitor's storage does not expire.
type visitorStorage struct {
	rdb       *redis.Client
	visitorID string
	ttl       time.Duration
}

func (s *visitorStorage) key(k string) string {
	return fmt.Sprintf("visitor:%s:%s", s.visitorID, k)
}

func (s *visitorStorage) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.rdb.Get(ctx, s.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

func (s *visitorStorage) Set(ctx context.Context, key, value string) error {
	if err := s.rdb.Set(ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *visitorStorage) Remove(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// PushOrderFeed prepends an entry to the admin order feed, keeping at most
// max entries.
func (c *Client) PushOrderFeed(ctx context.Context, entry []byte, max int) error {
	pipe := c.rdb.TxPipeline()
	pipe.LPush(ctx, orderFeedKey, entry)
	pipe.LTrim(ctx, orderFeedKey, 0, int64(max-1))

	_, err := pipe.Exec(ctx)
	return err
}

// GetOrderFeed returns up to limit of the most recent feed entries
func (c *Client) GetOrderFeed(ctx context.Context, limit int) ([]string, error) {
	return c.rdb.LRange(ctx, orderFeedKey, 0, int64(limit-1)).Result()
}

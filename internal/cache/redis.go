// Package cache provides the Redis-backed audit store.
//
// Key strategy:
//   - Audit log: leaddesk:audit:v1 → list of JSON entries, most recent at index 0
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	redis "github.com/redis/go-redis/v9"

	"leaddesk/internal/audit"
)

// DefaultAuditKey is the list holding the audit log.
const DefaultAuditKey = "leaddesk:audit:v1"

// Client wraps redis.Client with the audit list helpers.
type Client struct {
	rdb *redis.Client
	key string
}

// New connects using a redis:// URL.
func New(url string) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("cache: parse redis url: %w", err)
	}
	return &Client{rdb: redis.NewClient(opts), key: DefaultAuditKey}, nil
}

// NewWithClient wraps an existing client, storing the log under key.
func NewWithClient(rdb *redis.Client, key string) *Client {
	if key == "" {
		key = DefaultAuditKey
	}
	return &Client{rdb: rdb, key: key}
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *Client) Close() error { return c.rdb.Close() }

// Load reads the whole list. Elements that fail to decode are dropped.
func (c *Client) Load(ctx context.Context) ([]audit.Entry, error) {
	vals, err := c.rdb.LRange(ctx, c.key, 0, -1).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache: load audit log: %w", err)
	}
	return decodeEntries(vals), nil
}

// Save replaces the list in a single transaction.
func (c *Client) Save(ctx context.Context, entries []audit.Entry) error {
	vals, err := encodeEntries(entries)
	if err != nil {
		return err
	}

	pipe := c.rdb.TxPipeline()
	pipe.Del(ctx, c.key)
	if len(vals) > 0 {
		pipe.RPush(ctx, c.key, vals...)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache: save audit log: %w", err)
	}
	return nil
}

// Prepend pushes e at the head and trims the list to limit in one MULTI block.
func (c *Client) Prepend(ctx context.Context, e audit.Entry, limit int) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cache: encode audit entry: %w", err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.LPush(ctx, c.key, b)
	if limit > 0 {
		pipe.LTrim(ctx, c.key, 0, int64(limit-1))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache: prepend audit entry: %w", err)
	}
	return nil
}

func encodeEntries(entries []audit.Entry) ([]any, error) {
	vals := make([]any, 0, len(entries))
	for _, e := range entries {
		b, err := json.Marshal(e)
		if err != nil {
			return nil, fmt.Errorf("cache: encode audit entry: %w", err)
		}
		vals = append(vals, b)
	}
	return vals, nil
}

func decodeEntries(vals []string) []audit.Entry {
	entries := make([]audit.Entry, 0, len(vals))
	for i, v := range vals {
		var e audit.Entry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			slog.Warn("dropping corrupt audit entry", "index", i, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

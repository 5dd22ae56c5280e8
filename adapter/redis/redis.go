// Package redis implements a Redis pub/sub event relay.
//
// Events go out as JSON PUBLISH messages on a configurable channel, with
// exponential backoff on connection errors.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/scrutin-io/scrutin/adapter"
)

// DefaultChannel is the default pub/sub channel name.
const DefaultChannel = "scrutin:events"

// DefaultTimeout is the default per-publish timeout.
const DefaultTimeout = 5 * time.Second

// DefaultRetries is the default number of retry attempts.
const DefaultRetries = 3

// Config configures the Redis relay.
type Config struct {
	// URL is the Redis connection URL (required).
	// Format: redis://[:password@]host:port[/db]
	URL string
	// Channel is the pub/sub channel name (default: scrutin:events).
	Channel string
	// Timeout is the per-publish timeout (default 5s).
	Timeout time.Duration
	// Retries is the number of retry attempts on failure (default 3).
	Retries int
}

// Relay publishes election events via Redis PUBLISH.
type Relay struct {
	config Config
	client *goredis.Client
}

// New creates a Redis relay from the given config.
func New(cfg Config) (*Relay, error) {
	if cfg.URL == "" {
		return nil, errors.New("redis relay requires a URL")
	}

	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis relay: invalid URL: %w", err)
	}

	if cfg.Channel == "" {
		cfg.Channel = DefaultChannel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Retries < 0 {
		return nil, fmt.Errorf("retries must be >= 0, got %d", cfg.Retries)
	}

	return &Relay{config: cfg, client: goredis.NewClient(opts)}, nil
}

// Publish sends the event as a JSON PUBLISH to the configured channel,
// retrying with exponential backoff.
func (r *Relay) Publish(ctx context.Context, event *adapter.ElectionEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("redis: marshal event: %w", err)
	}

	var lastErr error
	attempts := 1 + r.config.Retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("redis: context canceled: %w", err)
		}

		// Backoff precedes retries, not the first attempt.
		if i > 0 {
			backoff := time.Duration(1<<uint(i-1)) * 500 * time.Millisecond
			select {
			case <-ctx.Done():
				return fmt.Errorf("redis: context canceled during backoff: %w", ctx.Err())
			case <-time.After(backoff):
			}
		}

		publishCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
		lastErr = r.client.Publish(publishCtx, r.config.Channel, body).Err()
		cancel()

		if lastErr == nil {
			return nil
		}
	}

	return fmt.Errorf("redis: failed after %d attempts: %w", attempts, lastErr)
}

// Close releases relay resources.
func (r *Relay) Close() error {
	return r.client.Close()
}

var _ adapter.Relay = (*Relay)(nil)

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const maxWatchRetries = 5

// ViewCache is a JSON-backed Redis cache for read model projections of type T.
// A zero TTL keeps keys until they are overwritten or deleted.
type ViewCache[T any] struct {
	client *goredis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewViewCache[T any](client *goredis.Client, ttl time.Duration, logger *zap.Logger) *ViewCache[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ViewCache[T]{client: client, ttl: ttl, logger: logger}
}

// Get returns (nil, false) on a miss. Read or decode failures are logged and
// also reported as a miss, so callers fall back to the source of truth.
func (c *ViewCache[T]) Get(ctx context.Context, key string) (*T, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			c.logger.Warn("view cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		c.logger.Warn("view cache entry is corrupt", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &v, true
}

// Set stores value under key. A failed cache write is logged, not returned.
func (c *ViewCache[T]) Set(ctx context.Context, key string, value *T) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Error("view cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("view cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// SetIfNewer stores value unless the cached entry is at least as new, as
// judged by newer(current, value). The read and the write run in a WATCH
// transaction and are retried when the key changes in between. It reports
// whether value was written.
func (c *ViewCache[T]) SetIfNewer(ctx context.Context, key string, value *T, newer func(current, next *T) bool) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to marshal view %s: %w", key, err)
	}

	for i := 0; i < maxWatchRetries; i++ {
		written := false
		err = c.client.Watch(ctx, func(tx *goredis.Tx) error {
			raw, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, goredis.Nil):
			case err != nil:
				return err
			default:
				var current T
				// A corrupt entry is overwritten.
				if json.Unmarshal(raw, &current) == nil && !newer(&current, value) {
					return nil
				}
			}
			_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
				pipe.Set(ctx, key, data, c.ttl)
				return nil
			})
			if err == nil {
				written = true
			}
			return err
		}, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, fmt.Errorf("failed to write view %s: %w", key, err)
		}
		return written, nil
	}
	return false, fmt.Errorf("failed to write view %s: %w", key, err)
}

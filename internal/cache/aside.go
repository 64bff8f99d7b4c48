package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"hbnb/internal/middleware"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "hbnb:"

// RecordTTL bounds how long a cached record may be served.
const RecordTTL = 5 * time.Minute

// RecordKey returns the cache key of the record kind/id.
func RecordKey(kind, id string) string {
	return fmt.Sprintf("%s%s:%s", keyPrefix, kind, id)
}

// Aside loads key into dest. On a miss it calls fetch, which must populate
// dest, and stores the result. Redis faults degrade to calling fetch.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if client == nil {
		return fetch()
	}

	raw, err := client.Get(ctx, key).Bytes()
	if err == nil {
		if jsonErr := json.Unmarshal(raw, dest); jsonErr == nil {
			return nil
		}
		Invalidate(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		middleware.Logger.WarnContext(ctx, "cache read failed", "key", key, "error", err)
	}

	if err := fetch(); err != nil {
		return err
	}

	payload, err := json.Marshal(dest)
	if err != nil {
		return nil
	}
	if err := client.Set(ctx, key, payload, ttl).Err(); err != nil {
		middleware.Logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
	}
	return nil
}

// Hit reports whether key is currently cached.
func Hit(ctx context.Context, key string) bool {
	if client == nil {
		return false
	}
	n, err := client.Exists(ctx, key).Result()
	return err == nil && n > 0
}

// Invalidate drops key.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateRecord drops the cached copy of kind/id.
func InvalidateRecord(ctx context.Context, kind, id string) {
	Invalidate(ctx, RecordKey(kind, id))
}

// InvalidateKind drops every cached record of kind.
func InvalidateKind(ctx context.Context, kind string) {
	if client == nil {
		return
	}
	if err := deleteMatching(ctx, keyPrefix+kind+":*"); err != nil {
		middleware.Logger.WarnContext(ctx, "cache invalidation failed", "kind", kind, "error", err)
	}
}

// Flush drops every key this package wrote.
func Flush(ctx context.Context) error {
	if client == nil {
		return nil
	}
	return deleteMatching(ctx, keyPrefix+"*")
}

func deleteMatching(ctx context.Context, pattern string) error {
	iter := client.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		if err := client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

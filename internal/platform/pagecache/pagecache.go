// Copyright (c) 2026 Aria. All rights reserved.

/*
Package pagecache caches rendered page payloads in Redis, keyed by request path.

Public catalog pages are read-heavy and change only on admin writes, so their
JSON view models are cached without expiry and regenerated on demand after the
revalidation endpoint purges them — the server-side analog of statically
rendered pages.
*/
package pagecache

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/redis/go-redis/v9"

	"github.com/soramiya/aria/internal/platform/constants"
)

// Cache stores rendered GET responses in Redis.
type Cache struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// New wraps a Redis client.
func New(rdb *redis.Client, logger *slog.Logger) *Cache {
	return &Cache{rdb: rdb, logger: logger}
}

// bodyRecorder buffers a downstream response so it can be stored on success.
type bodyRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (recorder *bodyRecorder) WriteHeader(code int) {
	recorder.status = code
	recorder.ResponseWriter.WriteHeader(code)
}

func (recorder *bodyRecorder) Write(p []byte) (int, error) {
	recorder.body.Write(p)
	return recorder.ResponseWriter.Write(p)
}

// Middleware serves cached GET responses and populates the cache on misses.
//
// Only 200 responses are cached. Redis failures degrade to pass-through: the
// page is rendered live and the error is logged.
func (c *Cache) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if request.Method != http.MethodGet {
				next.ServeHTTP(writer, request)
				return
			}

			// Keyed on the full request URI: paginated and filtered variants
			// of a page are cached (and purged) independently.
			key := Key(request.URL.RequestURI())

			cached, err := c.rdb.Get(request.Context(), key).Bytes()
			if err == nil {
				writer.Header().Set("Content-Type", "application/json; charset=utf-8")
				writer.Header().Set("X-Cache", "HIT")
				_, _ = writer.Write(cached)
				return
			}
			if err != redis.Nil {
				c.logger.Error("pagecache_read_failed", slog.String("key", key), slog.Any("error", err))
			}

			recorder := &bodyRecorder{ResponseWriter: writer, status: http.StatusOK}
			next.ServeHTTP(recorder, request)

			if recorder.status == http.StatusOK && recorder.body.Len() > 0 {
				if err := c.rdb.Set(request.Context(), key, recorder.body.Bytes(), 0).Err(); err != nil {
					c.logger.Error("pagecache_write_failed", slog.String("key", key), slog.Any("error", err))
				}
			}
		})
	}
}

// Purge removes the cached payloads for the given page paths, including
// every paginated or filtered variant, and returns how many entries were
// actually deleted.
func (c *Cache) Purge(ctx context.Context, paths []string) (int, error) {
	deleted := 0
	for _, path := range paths {
		// "pages:/music*" also matches "/music?page=2" and "/music/<id>".
		pattern := Key(path) + "*"

		var cursor uint64
		for {
			keys, next, err := c.rdb.Scan(ctx, cursor, pattern, 100).Result()
			if err != nil {
				return deleted, err
			}
			if len(keys) > 0 {
				n, err := c.rdb.Del(ctx, keys...).Result()
				if err != nil {
					return deleted, err
				}
				deleted += int(n)
			}
			cursor = next
			if cursor == 0 {
				break
			}
		}
	}
	return deleted, nil
}

// Key maps a page path to its Redis key.
func Key(path string) string {
	return constants.RedisPrefixPage + path
}

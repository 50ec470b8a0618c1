package middlewares

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Response cache for public read-only routes, backed by Redis. A nil client
// disables caching entirely, so the service runs unchanged without Redis.

type cachedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

type bodyCaptureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// CacheMiddleware serves GET responses from Redis under the given key
// prefix for the given TTL.
func CacheMiddleware(client *redis.Client, prefix string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := prefix + ":" + c.Request.URL.RequestURI()
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()

		if raw, err := client.Get(ctx, key).Bytes(); err == nil {
			var cached cachedResponse
			if json.Unmarshal(raw, &cached) == nil {
				c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
				c.Abort()
				return
			}
		}

		writer := &bodyCaptureWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Next()

		if writer.Status() != http.StatusOK {
			return
		}

		raw, err := json.Marshal(cachedResponse{Status: writer.Status(), Body: writer.buf.Bytes()})
		if err != nil {
			return
		}
		// Best effort: a failed SET just means the next request hits the DB.
		client.Set(ctx, key, raw, ttl)
	}
}

// InvalidateCache drops all cache entries under the prefix. Called after
// writes that change what cached routes would return.
func InvalidateCache(client *redis.Client, prefix string) {
	if client == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	iter := client.Scan(ctx, 0, prefix+":*", 100).Iterator()
	for iter.Next(ctx) {
		client.Del(ctx, iter.Val())
	}
}

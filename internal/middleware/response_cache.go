package middleware

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/linkup-app/backend/internal/cache"
	"github.com/linkup-app/backend/internal/logger"
	"github.com/linkup-app/backend/internal/metrics"
)

// ResponseCacheMiddleware caches successful GET responses in Redis for
// the given TTL. Cached entries are per user and per query string, so
// two users never see each other's feed. Without Redis it is a no-op.
// Adds an X-Cache: HIT/MISS header.
func ResponseCacheMiddleware(name string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		redisClient := cache.GetRedisClient()
		if redisClient == nil {
			c.Next()
			return
		}

		userID := c.GetString("user_id")
		key := responseCacheKey(c.Request.URL.Path, c.Request.URL.RawQuery, userID)
		ctx := c.Request.Context()

		cached, err := redisClient.Get(ctx, key)
		if err == nil {
			metrics.Get().CacheHitsTotal.WithLabelValues(name).Inc()
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}
		metrics.Get().CacheMissesTotal.WithLabelValues(name).Inc()

		writer := &cachingResponseWriter{
			ResponseWriter: c.Writer,
			statusCode:     http.StatusOK,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		if writer.statusCode >= 200 && writer.statusCode < 300 && writer.body.Len() > 0 {
			if err := redisClient.SetEx(ctx, key, writer.body.String(), ttl); err != nil {
				logger.Log.Debug("Failed to cache response",
					zap.String("key", key),
					zap.Error(err),
				)
			}
		}
	}
}

func responseCacheKey(path, query, userID string) string {
	key := fmt.Sprintf("response:%s", path)
	if query != "" {
		key += ":" + query
	}
	if userID != "" {
		key += ":" + userID
	}
	return key
}

// cachingResponseWriter tees the response body so it can be stored
type cachingResponseWriter struct {
	gin.ResponseWriter
	statusCode int
	body       *bytes.Buffer
}

func (w *cachingResponseWriter) Write(data []byte) (int, error) {
	w.body.Write(data)
	return w.ResponseWriter.Write(data)
}

func (w *cachingResponseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

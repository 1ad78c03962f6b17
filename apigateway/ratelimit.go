package gateway

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/nashir/pushgate/fields"
)

// limiterRedis is the subset of redis commands the limiter uses, kept narrow
// so tests can swap in a fake.
type limiterRedis interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RateLimiter is a fixed-window per-IP limiter backed by redis. It pre-filters
// requests before they reach the dispatch pipeline. With no redis client the
// limiter is disabled.
type RateLimiter struct {
	rdb    limiterRedis
	Log    *logrus.Logger
	Limit  int
	Window time.Duration
}

func NewRateLimiter(rdb *redis.Client, log *logrus.Logger, limit int, window time.Duration) *RateLimiter {
	if limit <= 0 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	l := &RateLimiter{Log: log, Limit: limit, Window: window}
	if rdb != nil {
		l.rdb = rdb
	}
	return l
}

func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if r.rdb == nil {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())

		count, err := r.rdb.Incr(ctx, key).Result()
		if err != nil {
			// A broken limiter must not take the relay down with it.
			r.Log.WithFields(logrus.Fields{"error": err.Error()}).Warn("rate limiter unavailable")
			c.Next()
			return
		}
		// Only the increment that opens the window sets the expiry; refreshing
		// it on every request would keep the window from ever closing under
		// steady traffic.
		if count == 1 {
			if err := r.rdb.Expire(ctx, key, r.Window).Err(); err != nil {
				r.Log.WithFields(logrus.Fields{"error": err.Error()}).Warn("rate limiter unavailable")
			}
		}

		if count > int64(r.Limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, fields.NewFailureResponse(fields.ResponseError{
				Name:    "RateLimited",
				Message: "too many requests, slow down",
			}))
			return
		}
		c.Next()
	}
}

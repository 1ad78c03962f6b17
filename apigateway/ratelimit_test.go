package gateway

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

type fakeLimiterRedis struct {
	counts  map[string]int64
	expires int
	err     error
}

func newFakeLimiterRedis() *fakeLimiterRedis {
	return &fakeLimiterRedis{counts: map[string]int64{}}
}

func (f *fakeLimiterRedis) Incr(_ context.Context, key string) *redis.IntCmd {
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	f.counts[key]++
	return redis.NewIntResult(f.counts[key], nil)
}

func (f *fakeLimiterRedis) Expire(_ context.Context, _ string, _ time.Duration) *redis.BoolCmd {
	f.expires++
	return redis.NewBoolResult(true, nil)
}

// lapse simulates redis dropping the key when the window expiry fires.
func (f *fakeLimiterRedis) lapse() {
	f.counts = map[string]int64{}
}

func limiterRouter(limiter *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(limiter.Middleware())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func hit(r *gin.Engine) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w.Code
}

func limiterLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	fake := newFakeLimiterRedis()
	r := limiterRouter(&RateLimiter{rdb: fake, Log: limiterLogger(), Limit: 3, Window: time.Minute})

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, hit(r))
	}
	assert.Equal(t, http.StatusTooManyRequests, hit(r))
}

func TestRateLimiter_ExpirySetOncePerWindow(t *testing.T) {
	fake := newFakeLimiterRedis()
	r := limiterRouter(&RateLimiter{rdb: fake, Log: limiterLogger(), Limit: 100, Window: time.Minute})

	for i := 0; i < 10; i++ {
		assert.Equal(t, http.StatusOK, hit(r))
	}
	// Refreshing the expiry on every request would keep the window open
	// forever and accumulate the count across windows.
	assert.Equal(t, 1, fake.expires)
}

func TestRateLimiter_WindowResetClearsCount(t *testing.T) {
	fake := newFakeLimiterRedis()
	r := limiterRouter(&RateLimiter{rdb: fake, Log: limiterLogger(), Limit: 2, Window: time.Minute})

	assert.Equal(t, http.StatusOK, hit(r))
	assert.Equal(t, http.StatusOK, hit(r))
	assert.Equal(t, http.StatusTooManyRequests, hit(r))

	// Under-limit traffic in the next window is admitted again, and the fresh
	// key gets its own expiry.
	fake.lapse()
	assert.Equal(t, http.StatusOK, hit(r))
	assert.Equal(t, 2, fake.expires)
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	fake := newFakeLimiterRedis()
	fake.err = errors.New("connection refused")
	r := limiterRouter(&RateLimiter{rdb: fake, Log: limiterLogger(), Limit: 1, Window: time.Minute})

	assert.Equal(t, http.StatusOK, hit(r))
	assert.Equal(t, http.StatusOK, hit(r))
}

func TestRateLimiter_DisabledWithoutRedis(t *testing.T) {
	r := limiterRouter(NewRateLimiter(nil, limiterLogger(), 1, time.Minute))

	assert.Equal(t, http.StatusOK, hit(r))
	assert.Equal(t, http.StatusOK, hit(r))
}

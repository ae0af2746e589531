package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"earntube/internal/logger"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

var redisClient *redis.Client

// InitRedisRateLimiter initializes a shared Redis client used by the middleware.
// If the ping fails redisClient stays nil and the limiters fail open.
func InitRedisRateLimiter(client *redis.Client) {
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, rate limiting disabled", "error", err)
		return
	}
	redisClient = client
}

// RedisEnabled reports whether the Redis limiters are active.
func RedisEnabled() bool {
	return redisClient != nil
}

// RedisRateLimit implements a fixed-window rate limiter using Redis INCR/EXPIRE, keyed by client IP.
// key format: rl:<window_seconds>:<ip>
func RedisRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "rl:" + strconv.FormatInt(int64(window.Seconds()), 10) + ":" + c.ClientIP()
		limitBy(c, key, "", maxRequests, window)
	}
}

// limitBy counts one hit on key and aborts with 429 once maxRequests is exceeded.
// Redis errors let the request through.
func limitBy(c *gin.Context, key, label string, maxRequests int, window time.Duration) {
	if redisClient == nil {
		c.Next()
		return
	}

	ctx := c.Request.Context()
	val, err := redisClient.Incr(ctx, key).Result()
	if err != nil {
		c.Header("X-RateLimit-Error", "redis-error")
		c.Next()
		return
	}
	if val == 1 {
		redisClient.Expire(ctx, key, window)
	}

	c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
	c.Header("X-RateLimit-Remaining", strconv.FormatInt(max(0, int64(maxRequests)-val), 10))

	endpoint := label + c.FullPath()
	if val > int64(maxRequests) {
		RLBlocked.WithLabelValues(endpoint).Inc()
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate limit exceeded",
			"retry_after": int(window.Seconds()),
		})
		return
	}

	RLRequests.WithLabelValues(endpoint).Inc()
	c.Next()
}

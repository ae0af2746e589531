package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type clientInfo struct {
	last  time.Time
	count int
}

// memoryLimiter is the single-instance fallback used when Redis is not configured.
type memoryLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientInfo
	window  time.Duration
	max     int
}

func (l *memoryLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	ci, ok := l.clients[key]
	if !ok || now.Sub(ci.last) > l.window {
		l.clients[key] = &clientInfo{last: now, count: 1}
		l.sweep(now)
		return true
	}
	ci.count++
	return ci.count <= l.max
}

// sweep drops expired windows once the map grows
func (l *memoryLimiter) sweep(now time.Time) {
	if len(l.clients) < 10000 {
		return
	}
	for k, ci := range l.clients {
		if now.Sub(ci.last) > l.window {
			delete(l.clients, k)
		}
	}
}

// SimpleRateLimit blocks clients that send more than maxRequests per window.
// Clients are the authenticated user when JWT ran first, the IP otherwise.
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	l := &memoryLimiter{clients: make(map[string]*clientInfo), window: window, max: maxRequests}
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if actor := ActorFrom(c); actor != nil {
			key = "user:" + strconv.FormatInt(actor.UserID, 10)
		}

		if !l.allow(key, time.Now()) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// UserRateLimit limits requests per authenticated user rather than per IP.
// Requires JWT to run first. scope separates counters of different routes.
func UserRateLimit(scope string, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := ActorFrom(c)
		if actor == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		key := scope + "_rl:" + strconv.FormatInt(actor.UserID, 10) + ":" + strconv.FormatInt(int64(window.Seconds()), 10)
		limitBy(c, key, scope+":", maxRequests, window)
	}
}

package middleware

import (
	"net/http"
	"strings"

	"earntube/internal/service"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

// JWT verifies the bearer token and stores the caller in the gin context.
func JWT() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		actor, err := service.ParseJWT(strings.TrimSpace(token))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(actorKey, actor)
		c.Set("user_id", actor.UserID)
		c.Next()
	}
}

// AdminOnly rejects callers without the admin role. Must run after JWT.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !ActorFrom(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}

// ActorFrom returns the caller set by JWT, nil when the request is anonymous.
func ActorFrom(c *gin.Context) *service.Actor {
	v, ok := c.Get(actorKey)
	if !ok {
		return nil
	}
	actor, _ := v.(*service.Actor)
	return actor
}

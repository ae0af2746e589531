package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"earntube/internal/http/middleware"
	"earntube/internal/logger"
	"earntube/internal/service"

	"github.com/gin-gonic/gin"
)

// statusOf maps a service error kind onto the HTTP status the clients expect
func statusOf(k service.Kind) int {
	switch k {
	case service.KindAuthentication:
		return http.StatusUnauthorized
	case service.KindAuthorization:
		return http.StatusForbidden
	case service.KindValidation, service.KindInsufficientFunds:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindStateConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// writeError renders err as {error}. Internal causes are logged, never returned.
func writeError(c *gin.Context, err error) {
	kind := service.KindOf(err)
	status := statusOf(kind)

	msg := "Internal server error"
	var se *service.Error
	if kind != service.KindInternal && errors.As(err, &se) {
		msg = se.Message
	}
	if kind == service.KindInternal {
		logger.WithContext(c.Request.Context()).Error("request failed",
			"method", c.Request.Method, "path", c.FullPath(), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": msg})
}

// clientIP prefers the proxy headers, first hop of x-forwarded-for.
func clientIP(c *gin.Context) string {
	if xff := c.GetHeader("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(c.GetHeader("X-Real-IP")); ip != "" {
		return ip
	}
	return c.ClientIP()
}

func actor(c *gin.Context) *service.Actor {
	return middleware.ActorFrom(c)
}

// looseString accepts a JSON string or number and keeps its literal text,
// so amounts reach decimal parsing without a float64 round trip.
type looseString string

func (s *looseString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*s = ""
	case len(b) > 0 && b[0] == '"':
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = looseString(v)
	default:
		var n json.Number
		if err := json.Unmarshal(b, &n); err != nil {
			return err
		}
		*s = looseString(n.String())
	}
	return nil
}

// looseID accepts an id sent as a number or a numeric string
type looseID int64

func (id *looseID) UnmarshalJSON(b []byte) error {
	var s looseString
	if err := s.UnmarshalJSON(b); err != nil {
		return err
	}
	if s == "" {
		*id = 0
		return nil
	}
	n := json.Number(strings.TrimSpace(string(s)))
	v, err := n.Int64()
	if err != nil {
		return err
	}
	*id = looseID(v)
	return nil
}

package handlers

import (
	"context"
	"net/http"
	"time"

	"earntube/internal/service"

	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"
)

const (
	checkHealthy   = "healthy"
	checkDegraded  = "degraded"
	checkUnhealthy = "unhealthy"
)

// Pinger is satisfied by *pgxpool.Pool
type Pinger interface {
	Ping(ctx context.Context) error
}

type redisPinger struct{ rdb *redis.Client }

func (p redisPinger) Ping(ctx context.Context) error { return p.rdb.Ping(ctx).Err() }

// CatalogSource is the part of MethodCatalog readiness needs
type CatalogSource interface {
	Snapshot(ctx context.Context) (*service.Catalog, error)
}

// HealthHandler reports whether this instance can take withdrawal traffic
type HealthHandler struct {
	db              Pinger
	cache           Pinger
	methods         CatalogSource
	mobileBankingID string
	startTime       time.Time
	version         string
}

// NewHealthHandler wires the readiness checks. rdb may be nil.
func NewHealthHandler(db Pinger, rdb *redis.Client, methods CatalogSource, mobileBankingID, version string) *HealthHandler {
	h := &HealthHandler{
		db:              db,
		methods:         methods,
		mobileBankingID: mobileBankingID,
		startTime:       time.Now(),
		version:         version,
	}
	if rdb != nil {
		h.cache = redisPinger{rdb}
	}
	return h
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness fails only when the database or the catalog is unreachable. A missing or
// paused mobile banking rail and an unreachable Redis are reported as degraded.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{
		"database": h.pingCheck(ctx, h.db),
		"catalog":  h.catalogCheck(ctx),
	}
	if h.cache != nil {
		checks["redis"] = h.pingCheck(ctx, h.cache)
		if checks["redis"] != checkHealthy {
			checks["redis"] = checkDegraded
		}
	}

	status, code := "healthy", http.StatusOK
	for _, name := range []string{"database", "catalog"} {
		if checks[name] == checkUnhealthy {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}
	}

	c.JSON(code, HealthResponse{
		Status:    status,
		Version:   h.version,
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

func (h *HealthHandler) pingCheck(ctx context.Context, p Pinger) string {
	if err := p.Ping(ctx); err != nil {
		return checkUnhealthy
	}
	return checkHealthy
}

func (h *HealthHandler) catalogCheck(ctx context.Context) string {
	if h.methods == nil {
		return checkUnhealthy
	}
	cat, err := h.methods.Snapshot(ctx)
	if err != nil {
		return checkUnhealthy
	}
	m, ok := cat.Method(h.mobileBankingID)
	if !ok || !m.IsActive() {
		return checkDegraded
	}
	return checkHealthy
}

// Health is the quick database-only check
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": h.version,
	})
}

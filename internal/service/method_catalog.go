package service

import (
	"context"
	"encoding/json"
	"time"

	"earntube/internal/domain"
	"earntube/internal/logger"

	redis "github.com/redis/go-redis/v9"
)

const methodCacheKey = "withdrawal:methods:v1"

// MethodSource loads the catalog from its store of record.
type MethodSource interface {
	List(ctx context.Context) ([]*domain.PaymentMethod, error)
}

// MethodCatalog serves catalog snapshots, caching them in Redis when a client is configured.
// Cache failures fall through to the source.
type MethodCatalog struct {
	src MethodSource
	rdb *redis.Client
	ttl time.Duration
}

func NewMethodCatalog(src MethodSource, rdb *redis.Client, ttl time.Duration) *MethodCatalog {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &MethodCatalog{src: src, rdb: rdb, ttl: ttl}
}

// Snapshot returns the current catalog
func (c *MethodCatalog) Snapshot(ctx context.Context) (*Catalog, error) {
	if c.rdb != nil {
		raw, err := c.rdb.Get(ctx, methodCacheKey).Bytes()
		switch {
		case err == nil:
			var methods []domain.PaymentMethod
			if jerr := json.Unmarshal(raw, &methods); jerr == nil {
				methodCacheLookups.WithLabelValues("hit").Inc()
				return NewCatalog(methods), nil
			}
			logger.Warn("discarding undecodable method cache entry")
		case err != redis.Nil:
			logger.Warn("method cache read failed", "error", err)
		}
		methodCacheLookups.WithLabelValues("miss").Inc()
	}

	rows, err := c.src.List(ctx)
	if err != nil {
		return nil, err
	}
	methods := make([]domain.PaymentMethod, 0, len(rows))
	for _, m := range rows {
		methods = append(methods, *m)
	}

	if c.rdb != nil {
		if raw, err := json.Marshal(methods); err == nil {
			if err := c.rdb.Set(ctx, methodCacheKey, raw, c.ttl).Err(); err != nil {
				logger.Warn("method cache write failed", "error", err)
			}
		}
	}
	return NewCatalog(methods), nil
}

// Invalidate drops the cached catalog so the next Snapshot reloads it.
func (c *MethodCatalog) Invalidate(ctx context.Context) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, methodCacheKey).Err(); err != nil {
		logger.Warn("method cache invalidate failed", "error", err)
	}
}

// Current pairs settings with the current catalog
func (c *MethodCatalog) Current(ctx context.Context, s Settings) (Snapshot, error) {
	cat, err := c.Snapshot(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Settings: s, Catalog: cat}, nil
}

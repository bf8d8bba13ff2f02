package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const facetCacheKeyPrefix = "searchsync:facets:"

// DefaultFacetCacheTTL bounds staleness of cached facet expressions.
// Attribute and category definitions change rarely.
const DefaultFacetCacheTTL = 10 * time.Minute

// FacetService serves per-locale faceting expressions, cached in Redis.
// A nil Redis client disables caching and every call hits the catalog.
type FacetService struct {
	sync   *Synchronizer
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewFacetService creates a facet service. rdb may be nil.
func NewFacetService(sync *Synchronizer, rdb *redis.Client, ttl time.Duration, logger *slog.Logger) *FacetService {
	if ttl <= 0 {
		ttl = DefaultFacetCacheTTL
	}
	return &FacetService{
		sync:   sync,
		redis:  rdb,
		ttl:    ttl,
		logger: logger,
	}
}

// Expressions returns the faceting expressions for a locale.
func (f *FacetService) Expressions(ctx context.Context, locale string) ([]string, error) {
	if cached, ok := f.fromCache(ctx, locale); ok {
		return cached, nil
	}

	expressions, err := f.sync.builder.FacetAttributes(ctx, locale)
	if err != nil {
		return nil, fmt.Errorf("enumerate facets for locale %s: %w", locale, err)
	}

	f.toCache(ctx, locale, expressions)
	return expressions, nil
}

// Invalidate drops the cached expressions for a locale, forcing the next
// read to re-enumerate.
func (f *FacetService) Invalidate(ctx context.Context, locale string) error {
	if f.redis == nil {
		return nil
	}
	return f.redis.Del(ctx, facetCacheKeyPrefix+locale).Err()
}

func (f *FacetService) fromCache(ctx context.Context, locale string) ([]string, bool) {
	if f.redis == nil {
		return nil, false
	}

	data, err := f.redis.Get(ctx, facetCacheKeyPrefix+locale).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			f.logger.Warn("facet cache read failed", slog.String("error", err.Error()))
		}
		facetCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	var expressions []string
	if err := json.Unmarshal(data, &expressions); err != nil {
		f.logger.Warn("facet cache entry corrupt", slog.String("locale", locale))
		facetCacheHits.WithLabelValues("miss").Inc()
		return nil, false
	}

	facetCacheHits.WithLabelValues("hit").Inc()
	return expressions, true
}

func (f *FacetService) toCache(ctx context.Context, locale string, expressions []string) {
	if f.redis == nil {
		return
	}

	data, err := json.Marshal(expressions)
	if err != nil {
		return
	}
	if err := f.redis.Set(ctx, facetCacheKeyPrefix+locale, data, f.ttl).Err(); err != nil {
		f.logger.Warn("facet cache write failed", slog.String("error", err.Error()))
	}
}

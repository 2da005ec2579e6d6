package redis

import (
	"context"
	"errors"

	"github.com/habitverse/habitverse-engine/internal/domain/shared"
	"github.com/habitverse/habitverse-engine/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// VIEW CACHE
// ══════════════════════════════════════════════════════════════════════════════

// ViewCache caches the per-user aggregated read views. It is deliberately
// untyped over the view payload; the HTTP layer owns the DTO shapes and the
// cache only stores their JSON form.
type ViewCache struct {
	cache *Cache
	log   *logger.Logger
}

// NewViewCache creates a ViewCache on top of a connected Cache.
func NewViewCache(cache *Cache, log *logger.Logger) *ViewCache {
	if log == nil {
		log = logger.Default()
	}
	return &ViewCache{
		cache: cache,
		log:   log.With(logger.Component("view_cache")),
	}
}

// GetDashboard loads the cached dashboard view into dest.
// Returns ErrCacheMiss when absent.
func (v *ViewCache) GetDashboard(ctx context.Context, userID string, dest interface{}) error {
	return v.cache.Get(ctx, PrefixDashboard+userID, dest)
}

// SetDashboard stores the dashboard view for a user.
func (v *ViewCache) SetDashboard(ctx context.Context, userID string, view interface{}) error {
	return v.cache.Set(ctx, PrefixDashboard+userID, view, TTLDashboard)
}

// GetAnalytics loads the cached analytics window into dest.
func (v *ViewCache) GetAnalytics(ctx context.Context, userID string, dest interface{}) error {
	return v.cache.Get(ctx, PrefixAnalytics+userID, dest)
}

// SetAnalytics stores the analytics window for a user.
func (v *ViewCache) SetAnalytics(ctx context.Context, userID string, view interface{}) error {
	return v.cache.Set(ctx, PrefixAnalytics+userID, view, TTLAnalytics)
}

// GetStats loads the cached stats summary into dest.
func (v *ViewCache) GetStats(ctx context.Context, userID string, dest interface{}) error {
	return v.cache.Get(ctx, PrefixStats+userID, dest)
}

// SetStats stores the stats summary for a user.
func (v *ViewCache) SetStats(ctx context.Context, userID string, view interface{}) error {
	return v.cache.Set(ctx, PrefixStats+userID, view, TTLStats)
}

// InvalidateUser drops every cached view for the user.
func (v *ViewCache) InvalidateUser(ctx context.Context, userID string) error {
	return v.cache.Delete(ctx,
		PrefixDashboard+userID,
		PrefixAnalytics+userID,
		PrefixStats+userID,
	)
}

// IsMiss reports whether err is a cache miss.
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}

// ══════════════════════════════════════════════════════════════════════════════
// EVENT-DRIVEN INVALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// RegisterInvalidation subscribes the cache to every progression event.
// Any mutation on a user invalidates that user's cached views, so TTLs
// only matter for the day rollover.
func (v *ViewCache) RegisterInvalidation(bus shared.EventSubscriber) error {
	return bus.SubscribeAll(func(event shared.Event) error {
		userID := event.AggregateID()
		if userID == "" {
			return nil
		}

		if err := v.InvalidateUser(context.Background(), userID); err != nil {
			v.log.Warn("cache invalidation failed",
				logger.F("user_id", userID),
				logger.F("event_type", string(event.EventType())),
				logger.F("error", err.Error()),
			)
			return err
		}

		v.log.Debug("invalidated cached views",
			logger.F("user_id", userID),
			logger.F("event_type", string(event.EventType())),
		)
		return nil
	})
}

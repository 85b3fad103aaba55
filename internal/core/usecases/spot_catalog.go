package usecases

import (
	"context"
	"encoding/json"

	"github.com/samirrijal/coursemate/internal/core/domain"
	"github.com/samirrijal/coursemate/internal/core/ports"
	"github.com/samirrijal/coursemate/internal/pkg/metrics"
)

const tagsCacheTTL = 60 // seconds

// SpotCatalog reads spot details and user tags through the cache.
type SpotCatalog struct {
	cache ports.CacheService
	ttl   int
}

// NewSpotCatalog creates a SpotCatalog. cache may be nil.
func NewSpotCatalog(cache ports.CacheService, ttlSeconds int) *SpotCatalog {
	if ttlSeconds <= 0 {
		ttlSeconds = 600
	}
	return &SpotCatalog{cache: cache, ttl: ttlSeconds}
}

func spotKey(id string) string { return "spots:id:" + id }

// Details returns the known spots among ids keyed by ID. Unknown IDs are
// absent from the map.
func (c *SpotCatalog) Details(ctx context.Context, repo ports.SpotRepository, ids []string) (map[string]domain.Spot, error) {
	out := make(map[string]domain.Spot, len(ids))
	seen := make(map[string]struct{}, len(ids))
	var missing []string

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if sp, ok := c.cachedSpot(ctx, id); ok {
			out[id] = sp
			continue
		}
		missing = append(missing, id)
	}
	if len(missing) == 0 {
		return out, nil
	}

	spots, err := repo.GetByIDs(ctx, missing)
	if err != nil {
		return nil, dataErr("get_spots", err)
	}
	for _, sp := range spots {
		out[sp.ID] = sp
		if c.cache != nil {
			if data, err := json.Marshal(sp); err == nil {
				_ = c.cache.Set(ctx, spotKey(sp.ID), data, c.ttl)
			}
		}
	}
	return out, nil
}

func (c *SpotCatalog) cachedSpot(ctx context.Context, id string) (domain.Spot, bool) {
	var sp domain.Spot
	if c.cache == nil {
		return sp, false
	}
	data, err := c.cache.Get(ctx, spotKey(id))
	if err == nil && json.Unmarshal(data, &sp) == nil {
		metrics.CacheHits.WithLabelValues("spot").Inc()
		return sp, true
	}
	metrics.CacheMisses.WithLabelValues("spot").Inc()
	return sp, false
}

// TagsForUser returns a user's taste tags.
func (c *SpotCatalog) TagsForUser(ctx context.Context, repo ports.PreferenceRepository, userID string) ([]string, error) {
	if userID == "" {
		return nil, nil
	}

	cacheKey := "prefs:user:" + userID
	if c.cache != nil {
		if data, err := c.cache.Get(ctx, cacheKey); err == nil {
			var tags []string
			if err := json.Unmarshal(data, &tags); err == nil {
				metrics.CacheHits.WithLabelValues("tags").Inc()
				return tags, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("tags").Inc()
	}

	tags, err := repo.TagsForUser(ctx, userID)
	if err != nil {
		return nil, dataErr("tags_for_user", err)
	}

	if c.cache != nil {
		if data, err := json.Marshal(tags); err == nil {
			_ = c.cache.Set(ctx, cacheKey, data, tagsCacheTTL)
		}
	}
	return tags, nil
}

package datastore

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/citia/citewatch/internal/model"
)

const (
	entityCacheKey = "active_entities"
	entityCacheTTL = 5 * time.Minute
)

// CachingEntityStore wraps a store and caches the active entity list. The
// extractor reads the same small list for every answer in a batch; the CRUD
// layer changes it rarely, so a short TTL is a safe staleness bound.
type CachingEntityStore struct {
	Interface
	cache *gocache.Cache
}

// NewCachingEntityStore wraps store with a TTL cache over GetActiveEntities.
func NewCachingEntityStore(store Interface) *CachingEntityStore {
	return &CachingEntityStore{
		Interface: store,
		cache:     gocache.New(entityCacheTTL, 10*time.Minute),
	}
}

// GetActiveEntities returns the cached entity list, reloading it from the
// underlying store when the cache entry has expired.
func (c *CachingEntityStore) GetActiveEntities(ctx context.Context) ([]model.Entity, error) {
	if cached, found := c.cache.Get(entityCacheKey); found {
		if entities, ok := cached.([]model.Entity); ok {
			return entities, nil
		}
	}

	entities, err := c.Interface.GetActiveEntities(ctx)
	if err != nil {
		return nil, err
	}
	c.cache.Set(entityCacheKey, entities, gocache.DefaultExpiration)
	return entities, nil
}

// InvalidateEntities drops the cached entity list, forcing the next read to
// hit the store.
func (c *CachingEntityStore) InvalidateEntities() {
	c.cache.Delete(entityCacheKey)
}

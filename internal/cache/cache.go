// Package cache is a read-through Redis cache for dashboard reads. The
// engine never consults it for transition decisions; it only invalidates
// after each commit. A Redis outage degrades to direct store reads.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Constantin2105/inspiratec-engine/internal/common/logger"
	"github.com/Constantin2105/inspiratec-engine/internal/models"
	"github.com/Constantin2105/inspiratec-engine/internal/repository"
)

// Cache serves entity reads with a TTL bound on staleness.
type Cache struct {
	rdb   *redis.Client
	store repository.Store
	log   logger.Logger
	ttl   time.Duration
}

// New creates the cache on top of the given store.
func New(rdb *redis.Client, store repository.Store, log logger.Logger, ttl time.Duration) *Cache {
	return &Cache{
		rdb:   rdb,
		store: store,
		log:   log.WithFields(map[string]interface{}{"component": "cache"}),
		ttl:   ttl,
	}
}

func key(entity models.EntityType, id string) string {
	return fmt.Sprintf("engine:%s:%s", entity, id)
}

// GetAO reads an AO through the cache.
func (c *Cache) GetAO(ctx context.Context, id string) (*models.AO, error) {
	var ao models.AO
	if c.lookup(ctx, models.EntityAO, id, &ao) {
		return &ao, nil
	}
	fresh, err := c.store.GetAO(ctx, id)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, models.EntityAO, id, fresh)
	return fresh, nil
}

// GetCandidature reads a candidature through the cache.
func (c *Cache) GetCandidature(ctx context.Context, id string) (*models.Candidature, error) {
	var cd models.Candidature
	if c.lookup(ctx, models.EntityCandidature, id, &cd) {
		return &cd, nil
	}
	fresh, err := c.store.GetCandidature(ctx, id)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, models.EntityCandidature, id, fresh)
	return fresh, nil
}

// GetInterview reads an interview through the cache.
func (c *Cache) GetInterview(ctx context.Context, id string) (*models.Interview, error) {
	var iv models.Interview
	if c.lookup(ctx, models.EntityInterview, id, &iv) {
		return &iv, nil
	}
	fresh, err := c.store.GetInterview(ctx, id)
	if err != nil {
		return nil, err
	}
	c.fill(ctx, models.EntityInterview, id, fresh)
	return fresh, nil
}

// Invalidate drops the cached copy after a commit. Implements the engine's
// invalidator hook; if the delete fails the TTL still bounds staleness.
func (c *Cache) Invalidate(ctx context.Context, entity models.EntityType, id string) {
	if err := c.rdb.Del(ctx, key(entity, id)).Err(); err != nil {
		c.log.WithError(err).Warn("cache invalidate failed", map[string]interface{}{
			"entity": string(entity),
			"id":     id,
		})
	}
}

func (c *Cache) lookup(ctx context.Context, entity models.EntityType, id string, dst interface{}) bool {
	raw, err := c.rdb.Get(ctx, key(entity, id)).Result()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.log.WithError(err).Warn("cache read failed", map[string]interface{}{"entity": string(entity), "id": id})
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		c.log.WithError(err).Warn("cache entry corrupt", map[string]interface{}{"entity": string(entity), "id": id})
		return false
	}
	return true
}

func (c *Cache) fill(ctx context.Context, entity models.EntityType, id string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(entity, id), raw, c.ttl).Err(); err != nil {
		c.log.WithError(err).Warn("cache write failed", map[string]interface{}{"entity": string(entity), "id": id})
	}
}

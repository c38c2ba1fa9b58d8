package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/snehachy12/campus-event-system-sub002/internal/domain"
	"github.com/snehachy12/campus-event-system-sub002/internal/logger"
)

const (
	cacheKeyPrefix  = "catalog:resource:"
	defaultCacheTTL = 5 * time.Minute
)

// CachedCatalog wraps another catalog with a Redis read-through cache.
// Cache failures fall through to the origin; they never fail a lookup.
type CachedCatalog struct {
	origin ResourceCatalog
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewCachedCatalog(origin ResourceCatalog, client *redis.Client, ttl time.Duration) *CachedCatalog {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &CachedCatalog{
		origin: origin,
		client: client,
		ttl:    ttl,
		log:    logger.Get().With(zap.String("component", "cached_catalog")),
	}
}

func (c *CachedCatalog) GetResource(ctx context.Context, resourceID string) (*domain.Resource, error) {
	key := cacheKeyPrefix + resourceID

	raw, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		var res domain.Resource
		if unmarshalErr := json.Unmarshal(raw, &res); unmarshalErr == nil {
			return &res, nil
		}
		// Corrupt entry, drop it and fall through to the origin
		c.client.Del(ctx, key)
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("catalog cache read failed",
			zap.String("resource_id", resourceID),
			zap.Error(err))
	}

	res, err := c.origin.GetResource(ctx, resourceID)
	if err != nil {
		return nil, err
	}

	if raw, marshalErr := json.Marshal(res); marshalErr == nil {
		if setErr := c.client.Set(ctx, key, raw, c.ttl).Err(); setErr != nil {
			c.log.Warn("catalog cache write failed",
				zap.String("resource_id", resourceID),
				zap.Error(setErr))
		}
	}
	return res, nil
}

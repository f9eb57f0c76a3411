// Package cache keeps car details in redis for the public detail page.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"carrental/internal/entities"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// CarCache is a read-through cache of car details. A nil *CarCache, or one
// without a client, behaves as an always-empty cache.
type CarCache struct {
	rdb *redis.Client
	ttl time.Duration
	log *zerolog.Logger
}

func NewCarCache(rdb *redis.Client, ttl time.Duration, logger *zerolog.Logger) *CarCache {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &CarCache{rdb: rdb, ttl: ttl, log: logger}
}

func carKey(id int64) string {
	return fmt.Sprintf("car:%d", id)
}

func (c *CarCache) enabled() bool {
	return c != nil && c.rdb != nil && c.ttl > 0
}

// Get returns the cached detail of car id. Misses and redis errors both report false.
func (c *CarCache) Get(ctx context.Context, id int64) (*entities.CarDetail, bool) {
	if !c.enabled() {
		return nil, false
	}
	val, err := c.rdb.Get(ctx, carKey(id)).Bytes()
	if err != nil {
		return nil, false
	}
	var detail entities.CarDetail
	if err := json.Unmarshal(val, &detail); err != nil {
		return nil, false
	}
	return &detail, true
}

func (c *CarCache) Set(ctx context.Context, id int64, detail *entities.CarDetail) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(detail)
	if err != nil {
		c.log.Warn().Err(err).Int64("car_id", id).Msg("encoding car for cache")
		return
	}
	if err := c.rdb.Set(ctx, carKey(id), data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Int64("car_id", id).Msg("caching car details")
	}
}

func (c *CarCache) Invalidate(ctx context.Context, id int64) {
	if !c.enabled() {
		return
	}
	// A failed delete leaves stale details up to the TTL.
	if err := c.rdb.Del(ctx, carKey(id)).Err(); err != nil {
		c.log.Warn().Err(err).Int64("car_id", id).Msg("invalidating cached car")
	}
}

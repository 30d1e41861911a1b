package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/repository/database"
)

const zonesKey = "geofence:zones"

var _ database.ZoneRepository = (*ZoneCache)(nil)

// ZoneCache serves the zone list from redis and falls back to the wrapped
// repository on a miss. Redis failures degrade to reading through.
type ZoneCache struct {
	rdb  *redis.Client
	next database.ZoneRepository
	ttl  time.Duration
}

func NewZoneCache(rdb *redis.Client, next database.ZoneRepository, ttl time.Duration) *ZoneCache {
	return &ZoneCache{rdb: rdb, next: next, ttl: ttl}
}

func (c *ZoneCache) List(ctx context.Context) ([]domain.Zone, error) {
	raw, err := c.rdb.Get(ctx, zonesKey).Bytes()
	switch {
	case err == nil:
		var zones []domain.Zone
		if err := json.Unmarshal(raw, &zones); err == nil {
			return zones, nil
		}
		slog.Warn("zone cache entry unreadable, reloading", "key", zonesKey)
	case errors.Is(err, redis.Nil):
	default:
		slog.Warn("zone cache read failed", "key", zonesKey, "err", err)
	}

	zones, err := c.next.List(ctx)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(zones)
	if err != nil {
		return nil, fmt.Errorf("marshal zones: %w", err)
	}
	if err := c.rdb.Set(ctx, zonesKey, body, c.ttl).Err(); err != nil {
		slog.Warn("zone cache write failed", "key", zonesKey, "err", err)
	}
	return zones, nil
}

// Invalidate drops the cached list so the next List reads through.
func (c *ZoneCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, zonesKey).Err(); err != nil {
		return fmt.Errorf("delete %s: %w", zonesKey, err)
	}
	return nil
}

package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/repository/database"
)

// invalidator is implemented by zone repositories that cache.
type invalidator interface {
	Invalidate(ctx context.Context) error
}

type zoneSetter interface {
	SetZones(ctx context.Context, zones []domain.Zone) error
}

// ZoneRefresher loads the zone set from the repository into the engine.
type ZoneRefresher struct {
	repo     database.ZoneRepository
	target   zoneSetter
	interval time.Duration
}

func NewZoneRefresher(repo database.ZoneRepository, target zoneSetter, interval time.Duration) *ZoneRefresher {
	return &ZoneRefresher{repo: repo, target: target, interval: interval}
}

// Refresh loads zones and hands them to the engine. With invalidate set, a
// caching repository is bypassed first.
func (r *ZoneRefresher) Refresh(ctx context.Context, invalidate bool) ([]domain.Zone, error) {
	if inv, ok := r.repo.(invalidator); ok && invalidate {
		if err := inv.Invalidate(ctx); err != nil {
			slog.Warn("zone cache invalidation failed", "err", err)
		}
	}

	zones, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	if err := r.target.SetZones(ctx, zones); err != nil {
		return nil, fmt.Errorf("set zones: %w", err)
	}
	return zones, nil
}

// Run refreshes once immediately and then every interval until ctx is done.
// Failed refreshes keep the previous zone set.
func (r *ZoneRefresher) Run(ctx context.Context) error {
	if _, err := r.Refresh(ctx, false); err != nil {
		slog.Error("initial zone load failed", "err", err)
	}
	if r.interval <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.Refresh(ctx, false); err != nil {
				slog.Error("zone refresh failed", "err", err)
			}
		}
	}
}

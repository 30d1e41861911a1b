package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/repository/database"
)

// Persister writes newly detected violations in the background. Each call is
// attempted once; failures are logged and never reach the caller.
type Persister struct {
	repo    database.ViolationRepository
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewPersister(repo database.ViolationRepository, timeout time.Duration) *Persister {
	return &Persister{repo: repo, timeout: timeout}
}

func (p *Persister) Save(v domain.ActiveViolation) {
	if p.repo == nil {
		slog.Debug("violation not persisted, no repository", "violation", v.Key.String())
		return
	}
	rec := domain.NewViolationRecord(v)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		ctx := context.Background()
		if p.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, p.timeout)
			defer cancel()
		}

		if err := p.repo.Save(ctx, rec); err != nil {
			slog.Error("save violation failed",
				"err", err,
				"vehicle_id", rec.VehicleID,
				"zone_id", rec.ZoneID,
				"event_kind", rec.EventKind,
			)
			return
		}
		slog.Info("violation saved",
			"vehicle_id", rec.VehicleID,
			"zone_id", rec.ZoneID,
			"event_kind", rec.EventKind,
		)
	}()
}

// Wait blocks until every in-flight save has finished.
func (p *Persister) Wait() {
	p.wg.Wait()
}

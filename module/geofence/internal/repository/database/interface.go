package database

import (
	"context"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
)

type ViolationRepository interface {
	Save(ctx context.Context, rec *domain.ViolationRecord) error
}

type PositionRepository interface {
	Insert(ctx context.Context, vp *domain.VehiclePosition) error
	GetLatest(ctx context.Context, vehicleID string) (*domain.VehiclePosition, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehiclePosition, error)
}

type ZoneRepository interface {
	List(ctx context.Context) ([]domain.Zone, error)
}

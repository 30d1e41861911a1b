package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/repository/database"
)

var _ database.ViolationRepository = (*ViolationRepo)(nil)

type ViolationRepo struct {
	db *sql.DB
}

func NewViolationRepo(db *sql.DB) *ViolationRepo {
	return &ViolationRepo{db: db}
}

func (r *ViolationRepo) Save(ctx context.Context, rec *domain.ViolationRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO geofence_violations (vehicle_id, geofence_id, event_type, violation, alert_message, location, timestamp) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.VehicleID, rec.ZoneID, rec.EventKind, rec.ViolationFlag, rec.Message, rec.Location, rec.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert violation: %w", err)
	}
	return nil
}

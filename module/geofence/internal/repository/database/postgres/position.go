package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/repository/database"
)

var _ database.PositionRepository = (*PositionRepo)(nil)

type PositionRepo struct {
	db *sql.DB
}

func NewPositionRepo(db *sql.DB) *PositionRepo {
	return &PositionRepo{db: db}
}

func (r *PositionRepo) Insert(ctx context.Context, vp *domain.VehiclePosition) error {
	var speed sql.NullFloat64
	if vp.Position.Speed != nil {
		speed = sql.NullFloat64{Float64: *vp.Position.Speed, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO vehicle_positions (vehicle_id, latitude, longitude, speed, timestamp) VALUES ($1, $2, $3, $4, $5)`,
		vp.VehicleID, vp.Position.Lat, vp.Position.Lng, speed, vp.Position.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

func (r *PositionRepo) GetLatest(ctx context.Context, vehicleID string) (*domain.VehiclePosition, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT vehicle_id, latitude, longitude, speed, timestamp FROM vehicle_positions WHERE vehicle_id = $1 ORDER BY timestamp DESC LIMIT 1`,
		vehicleID,
	)

	vp, err := scanPosition(row)
	if err != nil {
		return nil, err
	}
	return vp, nil
}

func (r *PositionRepo) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehiclePosition, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT vehicle_id, latitude, longitude, speed, timestamp FROM vehicle_positions WHERE vehicle_id = $1 AND timestamp >= $2 AND timestamp <= $3 ORDER BY timestamp ASC`,
		query.VehicleID, query.Start, query.End,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []domain.VehiclePosition
	for rows.Next() {
		vp, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *vp)
	}
	return results, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPosition(s scanner) (*domain.VehiclePosition, error) {
	var (
		vp    domain.VehiclePosition
		speed sql.NullFloat64
	)
	if err := s.Scan(&vp.VehicleID, &vp.Position.Lat, &vp.Position.Lng, &speed, &vp.Position.Timestamp); err != nil {
		return nil, err
	}
	if speed.Valid {
		vp.Position.Speed = &speed.Float64
	}
	return &vp, nil
}

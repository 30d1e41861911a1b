package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/repository/database"
)

// MaxHistoryWindow bounds a single history query.
const MaxHistoryWindow = 7 * 24 * time.Hour

var (
	ErrInvalidPosition = errors.New("invalid position")
	ErrInvalidRange    = errors.New("invalid history range")
)

// PositionService keeps the raw position trail next to detection. It never
// feeds the engine itself.
type PositionService struct {
	repo database.PositionRepository
	now  func() time.Time
}

func NewPositionService(repo database.PositionRepository) *PositionService {
	return &PositionService{repo: repo, now: time.Now}
}

// SavePosition stores vp, stamping it with the current time when the report
// carried none.
func (s *PositionService) SavePosition(ctx context.Context, vp *domain.VehiclePosition) error {
	if vp.VehicleID == "" || !vp.Position.Valid() {
		return fmt.Errorf("%w: vehicle %q at %s", ErrInvalidPosition, vp.VehicleID, vp.Position.Location())
	}
	if vp.Position.Timestamp.IsZero() {
		vp.Position.Timestamp = s.now()
	}
	if err := s.repo.Insert(ctx, vp); err != nil {
		return fmt.Errorf("save position %s: %w", vp.VehicleID, err)
	}
	return nil
}

func (s *PositionService) GetLatest(ctx context.Context, vehicleID string) (*domain.VehiclePosition, error) {
	return s.repo.GetLatest(ctx, vehicleID)
}

func (s *PositionService) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehiclePosition, error) {
	if query.End.Before(query.Start) {
		return nil, fmt.Errorf("%w: end before start", ErrInvalidRange)
	}
	if query.End.Sub(query.Start) > MaxHistoryWindow {
		return nil, fmt.Errorf("%w: window longer than %s", ErrInvalidRange, MaxHistoryWindow)
	}
	return s.repo.GetHistory(ctx, query)
}

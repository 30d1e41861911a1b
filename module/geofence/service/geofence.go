package service

import (
	"context"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/repository/database"
)

const dispatcherBuffer = 256

// GeofenceService is the concurrency-safe entry point to the Engine. Every
// call is executed on the dispatcher loop, which Run must be serving.
type GeofenceService struct {
	dispatcher *Dispatcher
	engine     *Engine
}

func NewGeofenceService(cfg Config, sink NotificationSink, repo database.ViolationRepository, opts ...Option) *GeofenceService {
	d := NewDispatcher(dispatcherBuffer)
	return &GeofenceService{
		dispatcher: d,
		engine:     NewEngine(cfg, d.Timers(), sink, repo, opts...),
	}
}

// Run serves the event loop until ctx is done, then tears the engine down.
func (s *GeofenceService) Run(ctx context.Context) error {
	err := s.dispatcher.Run(ctx)
	s.engine.Close()
	return err
}

func (s *GeofenceService) UpdatePositions(ctx context.Context, vehicles []domain.Vehicle) (PassResult, error) {
	var res PassResult
	err := s.dispatcher.Do(ctx, func() { res = s.engine.ProcessPositions(vehicles) })
	return res, err
}

func (s *GeofenceService) SetZones(ctx context.Context, zones []domain.Zone) error {
	return s.dispatcher.Do(ctx, func() { s.engine.SetZones(zones) })
}

func (s *GeofenceService) Zones(ctx context.Context) ([]domain.Zone, error) {
	var zones []domain.Zone
	err := s.dispatcher.Do(ctx, func() { zones = s.engine.Zones() })
	return zones, err
}

func (s *GeofenceService) Dismiss(ctx context.Context, notificationID string) (bool, error) {
	var ok bool
	err := s.dispatcher.Do(ctx, func() { ok = s.engine.Dismiss(notificationID) })
	return ok, err
}

func (s *GeofenceService) ClearViolation(ctx context.Context, key domain.ViolationKey) (bool, error) {
	var ok bool
	err := s.dispatcher.Do(ctx, func() { ok = s.engine.ClearViolation(key) })
	return ok, err
}

func (s *GeofenceService) ForgetVehicle(ctx context.Context, vehicleID string) (int, error) {
	var n int
	err := s.dispatcher.Do(ctx, func() { n = s.engine.ForgetVehicle(vehicleID) })
	return n, err
}

func (s *GeofenceService) CurrentNotification(ctx context.Context) (domain.Notification, bool, error) {
	var (
		n  domain.Notification
		ok bool
	)
	err := s.dispatcher.Do(ctx, func() { n, ok = s.engine.CurrentNotification() })
	return n, ok, err
}

func (s *GeofenceService) ActiveViolations(ctx context.Context) ([]domain.ActiveViolation, error) {
	var out []domain.ActiveViolation
	err := s.dispatcher.Do(ctx, func() { out = s.engine.ActiveViolations() })
	return out, err
}

func (s *GeofenceService) VehicleStatus(ctx context.Context, vehicleID string) (VehicleStatus, bool, error) {
	var (
		st VehicleStatus
		ok bool
	)
	err := s.dispatcher.Do(ctx, func() { st, ok = s.engine.VehicleStatus(vehicleID) })
	return st, ok, err
}

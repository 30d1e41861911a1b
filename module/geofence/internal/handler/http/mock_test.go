package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/service"
)

type mockGeofenceService struct {
	currentNotificationFn func(ctx context.Context) (domain.Notification, bool, error)
	dismissFn             func(ctx context.Context, id string) (bool, error)
	activeViolationsFn    func(ctx context.Context) ([]domain.ActiveViolation, error)
	clearViolationFn      func(ctx context.Context, key domain.ViolationKey) (bool, error)
	zonesFn               func(ctx context.Context) ([]domain.Zone, error)
	updatePositionsFn     func(ctx context.Context, vehicles []domain.Vehicle) (service.PassResult, error)
	vehicleStatusFn       func(ctx context.Context, vehicleID string) (service.VehicleStatus, bool, error)
	forgetVehicleFn       func(ctx context.Context, vehicleID string) (int, error)
}

func (m *mockGeofenceService) CurrentNotification(ctx context.Context) (domain.Notification, bool, error) {
	return m.currentNotificationFn(ctx)
}

func (m *mockGeofenceService) Dismiss(ctx context.Context, id string) (bool, error) {
	return m.dismissFn(ctx, id)
}

func (m *mockGeofenceService) ActiveViolations(ctx context.Context) ([]domain.ActiveViolation, error) {
	return m.activeViolationsFn(ctx)
}

func (m *mockGeofenceService) ClearViolation(ctx context.Context, key domain.ViolationKey) (bool, error) {
	return m.clearViolationFn(ctx, key)
}

func (m *mockGeofenceService) Zones(ctx context.Context) ([]domain.Zone, error) {
	return m.zonesFn(ctx)
}

func (m *mockGeofenceService) UpdatePositions(ctx context.Context, vehicles []domain.Vehicle) (service.PassResult, error) {
	return m.updatePositionsFn(ctx, vehicles)
}

func (m *mockGeofenceService) VehicleStatus(ctx context.Context, vehicleID string) (service.VehicleStatus, bool, error) {
	return m.vehicleStatusFn(ctx, vehicleID)
}

func (m *mockGeofenceService) ForgetVehicle(ctx context.Context, vehicleID string) (int, error) {
	return m.forgetVehicleFn(ctx, vehicleID)
}

type mockPositionService struct {
	getLatestFn  func(ctx context.Context, vehicleID string) (*domain.VehiclePosition, error)
	getHistoryFn func(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehiclePosition, error)
}

func (m *mockPositionService) GetLatest(ctx context.Context, vehicleID string) (*domain.VehiclePosition, error) {
	return m.getLatestFn(ctx, vehicleID)
}

func (m *mockPositionService) GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehiclePosition, error) {
	return m.getHistoryFn(ctx, query)
}

type mockZoneRefresher struct {
	refreshFn func(ctx context.Context, invalidate bool) ([]domain.Zone, error)
}

func (m *mockZoneRefresher) Refresh(ctx context.Context, invalidate bool) ([]domain.Zone, error) {
	return m.refreshFn(ctx, invalidate)
}

type registrar interface {
	Register(r *gin.RouterGroup)
}

func setupRouter(handlers ...registrar) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	for _, h := range handlers {
		h.Register(r.Group(""))
	}
	return r
}

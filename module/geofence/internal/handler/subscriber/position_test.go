package subscriber

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/service"
)

type mockPositionSvc struct {
	savePositionFn func(ctx context.Context, vp *domain.VehiclePosition) error
}

func (m *mockPositionSvc) SavePosition(ctx context.Context, vp *domain.VehiclePosition) error {
	return m.savePositionFn(ctx, vp)
}

type mockGeofenceSvc struct {
	updatePositionsFn func(ctx context.Context, vehicles []domain.Vehicle) (service.PassResult, error)
}

func (m *mockGeofenceSvc) UpdatePositions(ctx context.Context, vehicles []domain.Vehicle) (service.PassResult, error) {
	return m.updatePositionsFn(ctx, vehicles)
}

type fakeMQTTMessage struct {
	topic   string
	payload []byte
}

func (f *fakeMQTTMessage) Duplicate() bool   { return false }
func (f *fakeMQTTMessage) Qos() byte         { return 0 }
func (f *fakeMQTTMessage) Retained() bool    { return false }
func (f *fakeMQTTMessage) MessageID() uint16 { return 0 }
func (f *fakeMQTTMessage) Payload() []byte   { return f.payload }
func (f *fakeMQTTMessage) Ack()              {}

func (f *fakeMQTTMessage) Topic() string {
	if f.topic == "" {
		return "/fleet/vehicle/B1234XYZ/location"
	}
	return f.topic
}

func TestHandleMessage_Success(t *testing.T) {
	var saved *domain.VehiclePosition
	var updated []domain.Vehicle

	posSvc := &mockPositionSvc{
		savePositionFn: func(_ context.Context, vp *domain.VehiclePosition) error {
			saved = vp
			return nil
		},
	}
	geoSvc := &mockGeofenceSvc{
		updatePositionsFn: func(_ context.Context, vehicles []domain.Vehicle) (service.PassResult, error) {
			updated = vehicles
			return service.PassResult{Evaluated: 1}, nil
		},
	}

	sub := &PositionSubscriber{positionSvc: posSvc, geofenceSvc: geoSvc}

	speed := 40.0
	msg := positionMessage{
		VehicleID: "B1234XYZ",
		Name:      "Truck 7",
		Latitude:  -6.2088,
		Longitude: 106.8456,
		Speed:     &speed,
		Timestamp: 1715003456,
	}
	payload, _ := json.Marshal(msg)
	sub.handleMessage(nil, &fakeMQTTMessage{payload: payload})

	if saved == nil {
		t.Fatal("expected SavePosition to be called")
	}
	if saved.VehicleID != "B1234XYZ" {
		t.Errorf("expected B1234XYZ, got %s", saved.VehicleID)
	}
	expectedTs := time.Unix(1715003456, 0)
	if !saved.Position.Timestamp.Equal(expectedTs) {
		t.Errorf("expected %v, got %v", expectedTs, saved.Position.Timestamp)
	}
	if len(updated) != 1 {
		t.Fatalf("expected 1 vehicle, got %d", len(updated))
	}
	if updated[0].Name != "Truck 7" {
		t.Errorf("expected Truck 7, got %s", updated[0].Name)
	}
	if updated[0].Position == nil || updated[0].Position.Lng != 106.8456 {
		t.Errorf("unexpected position %+v", updated[0].Position)
	}
	if updated[0].Position.Speed == nil || *updated[0].Position.Speed != 40 {
		t.Errorf("expected speed 40, got %v", updated[0].Position.Speed)
	}
}

func TestHandleMessage_VehicleFromTopic(t *testing.T) {
	var updated []domain.Vehicle
	geoSvc := &mockGeofenceSvc{
		updatePositionsFn: func(_ context.Context, vehicles []domain.Vehicle) (service.PassResult, error) {
			updated = vehicles
			return service.PassResult{}, nil
		},
	}
	sub := &PositionSubscriber{geofenceSvc: geoSvc}

	payload, _ := json.Marshal(positionMessage{Latitude: 1, Longitude: 2, Timestamp: 1715003456})
	sub.handleMessage(nil, &fakeMQTTMessage{topic: "/fleet/vehicle/TRUCK-9/location", payload: payload})

	if len(updated) != 1 || updated[0].ID != "TRUCK-9" {
		t.Fatalf("expected TRUCK-9 from topic, got %+v", updated)
	}
}

func TestHandleMessage_InvalidJSON(t *testing.T) {
	posSvc := &mockPositionSvc{
		savePositionFn: func(_ context.Context, _ *domain.VehiclePosition) error {
			t.Fatal("SavePosition should not be called")
			return nil
		},
	}
	sub := &PositionSubscriber{positionSvc: posSvc, geofenceSvc: &mockGeofenceSvc{}}
	sub.handleMessage(nil, &fakeMQTTMessage{payload: []byte("invalid")})
}

func TestHandleMessage_ValidationError(t *testing.T) {
	posSvc := &mockPositionSvc{
		savePositionFn: func(_ context.Context, _ *domain.VehiclePosition) error {
			t.Fatal("SavePosition should not be called")
			return nil
		},
	}
	sub := &PositionSubscriber{positionSvc: posSvc, geofenceSvc: &mockGeofenceSvc{}}

	// no vehicle_id and a topic without one
	msg := positionMessage{Latitude: -6.2, Longitude: 106.8, Timestamp: 1715003456}
	payload, _ := json.Marshal(msg)
	sub.handleMessage(nil, &fakeMQTTMessage{topic: "/fleet/other", payload: payload})
}

func TestHandleMessage_SaveErrorStillDetects(t *testing.T) {
	posSvc := &mockPositionSvc{
		savePositionFn: func(_ context.Context, _ *domain.VehiclePosition) error {
			return errors.New("db error")
		},
	}
	called := false
	geoSvc := &mockGeofenceSvc{
		updatePositionsFn: func(_ context.Context, _ []domain.Vehicle) (service.PassResult, error) {
			called = true
			return service.PassResult{}, nil
		},
	}

	sub := &PositionSubscriber{positionSvc: posSvc, geofenceSvc: geoSvc}

	msg := positionMessage{VehicleID: "B1234XYZ", Latitude: -6.2, Longitude: 106.8, Timestamp: 1715003456}
	payload, _ := json.Marshal(msg)
	sub.handleMessage(nil, &fakeMQTTMessage{payload: payload})

	if !called {
		t.Fatal("expected UpdatePositions to be called when history save fails")
	}
}

func TestValidatePositionMessage(t *testing.T) {
	neg := -1.0
	tests := []struct {
		name    string
		msg     positionMessage
		wantErr bool
	}{
		{"valid", positionMessage{VehicleID: "X", Latitude: 0, Longitude: 0, Timestamp: 1}, false},
		{"empty vehicle_id", positionMessage{Latitude: 0, Longitude: 0, Timestamp: 1}, true},
		{"lat too low", positionMessage{VehicleID: "X", Latitude: -91, Longitude: 0, Timestamp: 1}, true},
		{"lat too high", positionMessage{VehicleID: "X", Latitude: 91, Longitude: 0, Timestamp: 1}, true},
		{"lng too low", positionMessage{VehicleID: "X", Latitude: 0, Longitude: -181, Timestamp: 1}, true},
		{"lng too high", positionMessage{VehicleID: "X", Latitude: 0, Longitude: 181, Timestamp: 1}, true},
		{"zero timestamp", positionMessage{VehicleID: "X", Latitude: 0, Longitude: 0, Timestamp: 0}, true},
		{"negative speed", positionMessage{VehicleID: "X", Latitude: 0, Longitude: 0, Speed: &neg, Timestamp: 1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePositionMessage(&tt.msg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePositionMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestVehicleFromTopic(t *testing.T) {
	if got := vehicleFromTopic("/fleet/vehicle/B1234XYZ/location"); got != "B1234XYZ" {
		t.Errorf("expected B1234XYZ, got %q", got)
	}
	if got := vehicleFromTopic("/fleet/vehicle/location"); got != "" {
		t.Errorf("expected empty, got %q", got)
	}
}

package subscriber

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/service"
)

const (
	TopicPattern   = "/fleet/vehicle/+/location"
	handlerTimeout = 5 * time.Second
)

type positionService interface {
	SavePosition(ctx context.Context, vp *domain.VehiclePosition) error
}

type geofenceService interface {
	UpdatePositions(ctx context.Context, vehicles []domain.Vehicle) (service.PassResult, error)
}

type positionMessage struct {
	VehicleID string   `json:"vehicle_id"`
	Name      string   `json:"name,omitempty"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Speed     *float64 `json:"speed,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

// PositionSubscriber feeds MQTT position reports into history storage and
// the geofence engine.
type PositionSubscriber struct {
	client      mqtt.Client
	positionSvc positionService
	geofenceSvc geofenceService
}

func NewPositionSubscriber(client mqtt.Client, positionSvc positionService, geofenceSvc geofenceService) *PositionSubscriber {
	return &PositionSubscriber{
		client:      client,
		positionSvc: positionSvc,
		geofenceSvc: geofenceSvc,
	}
}

func (s *PositionSubscriber) Start() error {
	token := s.client.Subscribe(TopicPattern, 1, s.handleMessage)
	token.Wait()
	return token.Error()
}

func (s *PositionSubscriber) handleMessage(_ mqtt.Client, msg mqtt.Message) {
	var raw positionMessage
	if err := json.Unmarshal(msg.Payload(), &raw); err != nil {
		slog.Warn("invalid position message", "topic", msg.Topic(), "err", err)
		return
	}
	if raw.VehicleID == "" {
		raw.VehicleID = vehicleFromTopic(msg.Topic())
	}
	if err := validatePositionMessage(&raw); err != nil {
		slog.Warn("position message rejected", "topic", msg.Topic(), "err", err)
		return
	}

	pos := domain.Position{
		Lat:       raw.Latitude,
		Lng:       raw.Longitude,
		Speed:     raw.Speed,
		Timestamp: time.Unix(raw.Timestamp, 0),
	}

	ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	// history is best effort; detection runs regardless
	if s.positionSvc != nil {
		if err := s.positionSvc.SavePosition(ctx, &domain.VehiclePosition{VehicleID: raw.VehicleID, Position: pos}); err != nil {
			slog.Error("save position failed", "vehicle_id", raw.VehicleID, "err", err)
		}
	}

	res, err := s.geofenceSvc.UpdatePositions(ctx, []domain.Vehicle{{
		ID:       raw.VehicleID,
		Name:     raw.Name,
		Position: &pos,
	}})
	if err != nil {
		slog.Error("geofence update failed", "vehicle_id", raw.VehicleID, "err", err)
		return
	}
	if len(res.Raised) > 0 || len(res.Cleared) > 0 {
		slog.Debug("geofence pass",
			"vehicle_id", raw.VehicleID,
			"raised", len(res.Raised),
			"cleared", len(res.Cleared),
		)
	}
}

// vehicleFromTopic extracts the id from /fleet/vehicle/<id>/location.
func vehicleFromTopic(topic string) string {
	parts := strings.Split(strings.Trim(topic, "/"), "/")
	if len(parts) == 4 && parts[0] == "fleet" && parts[1] == "vehicle" && parts[3] == "location" {
		return parts[2]
	}
	return ""
}

func validatePositionMessage(msg *positionMessage) error {
	if msg.VehicleID == "" {
		return fmt.Errorf("vehicle_id: required")
	}
	if math.IsNaN(msg.Latitude) || msg.Latitude < -90 || msg.Latitude > 90 {
		return fmt.Errorf("latitude: must be between -90 and 90")
	}
	if math.IsNaN(msg.Longitude) || msg.Longitude < -180 || msg.Longitude > 180 {
		return fmt.Errorf("longitude: must be between -180 and 180")
	}
	if msg.Timestamp <= 0 {
		return fmt.Errorf("timestamp: must be positive")
	}
	if msg.Speed != nil && *msg.Speed < 0 {
		return fmt.Errorf("speed: must not be negative")
	}
	return nil
}

package domain

import "time"

type Notification struct {
	ID          string        `json:"id"`
	Key         ViolationKey  `json:"violation_key"`
	VehicleID   string        `json:"vehicle_id"`
	VehicleName string        `json:"vehicle_name"`
	ZoneID      string        `json:"zone_id"`
	ZoneName    string        `json:"zone_name"`
	Kind        ViolationKind `json:"kind"`
	Location    string        `json:"location,omitempty"`
	Message     string        `json:"message"`
	Reshow      bool          `json:"reshow"`
	Timestamp   time.Time     `json:"timestamp"`
}

type NotificationEventType string

const (
	NotificationShown   NotificationEventType = "notification_shown"
	NotificationRemoved NotificationEventType = "notification_removed"
)

// NotificationEvent is what leaves the process for UI clients and the broker.
type NotificationEvent struct {
	Type           NotificationEventType `json:"type"`
	NotificationID string                `json:"notification_id"`
	Notification   *Notification         `json:"notification,omitempty"`
	Timestamp      time.Time             `json:"timestamp"`
}

package domain

import (
	"fmt"
	"time"
)

type ViolationKind string

const (
	// ViolationEnter is raised when a vehicle enters a FORBIDDEN zone.
	ViolationEnter ViolationKind = "violation_enter"
	// ViolationExit is raised when a vehicle leaves a STAY_IN zone.
	ViolationExit ViolationKind = "violation_exit"
)

func (k ViolationKind) Valid() bool {
	return k == ViolationEnter || k == ViolationExit
}

// EventKind is the containment event behind the violation: "enter" or "exit".
func (k ViolationKind) EventKind() string {
	switch k {
	case ViolationEnter:
		return "enter"
	case ViolationExit:
		return "exit"
	}
	return ""
}

// ViolationKey is the unit of deduplication, dismissal and re-show scheduling.
type ViolationKey struct {
	VehicleID string        `json:"vehicle_id"`
	ZoneID    string        `json:"zone_id"`
	Kind      ViolationKind `json:"kind"`
}

func (k ViolationKey) String() string {
	return fmt.Sprintf("%s-%s-%s", k.VehicleID, k.ZoneID, k.Kind)
}

type ActiveViolation struct {
	Key        ViolationKey `json:"key"`
	Vehicle    Vehicle      `json:"vehicle"`
	Zone       ZoneRef      `json:"zone"`
	DetectedAt time.Time    `json:"detected_at"`
}

func (v ActiveViolation) Message() string {
	name := v.Vehicle.DisplayName()
	switch v.Key.Kind {
	case ViolationEnter:
		return fmt.Sprintf("VIOLATION: vehicle %s entered geofence %s (FORBIDDEN)", name, v.Zone.Name)
	case ViolationExit:
		return fmt.Sprintf("VIOLATION: vehicle %s left geofence %s (STAY_IN)", name, v.Zone.Name)
	}
	return fmt.Sprintf("VIOLATION: vehicle %s at geofence %s", name, v.Zone.Name)
}

func (v ActiveViolation) Location() string {
	if v.Vehicle.Position == nil {
		return ""
	}
	return v.Vehicle.Position.Location()
}

// ViolationRecord is what gets handed to durable storage for a new violation.
type ViolationRecord struct {
	VehicleID     string    `json:"vehicle_id"`
	ZoneID        string    `json:"zone_id"`
	EventKind     string    `json:"event_kind"`
	ViolationFlag bool      `json:"violation_flag"`
	Message       string    `json:"message"`
	Location      string    `json:"location,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewViolationRecord(v ActiveViolation) *ViolationRecord {
	return &ViolationRecord{
		VehicleID:     v.Key.VehicleID,
		ZoneID:        v.Key.ZoneID,
		EventKind:     v.Key.Kind.EventKind(),
		ViolationFlag: true,
		Message:       v.Message(),
		Location:      v.Location(),
		Timestamp:     v.DetectedAt,
	}
}

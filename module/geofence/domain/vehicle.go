package domain

import (
	"math"
	"strconv"
	"time"
)

type Position struct {
	Lat       float64   `json:"latitude"`
	Lng       float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
	Speed     *float64  `json:"speed,omitempty"`
}

// Valid reports whether the coordinates are finite and on the globe.
func (p Position) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return false
	}
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

func (p Position) Point() Point {
	return Point{Lat: p.Lat, Lng: p.Lng}
}

// Key identifies a position for the unchanged-position check.
func (p Position) Key() string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

// Location is the human readable "lat, lng" form stored with alerts.
func (p Position) Location() string {
	return strconv.FormatFloat(p.Lat, 'f', -1, 64) + ", " + strconv.FormatFloat(p.Lng, 'f', -1, 64)
}

type Vehicle struct {
	ID       string    `json:"vehicle_id"`
	Name     string    `json:"name,omitempty"`
	Position *Position `json:"position,omitempty"`
}

func (v Vehicle) DisplayName() string {
	if v.Name != "" {
		return v.Name
	}
	return "Vehicle " + v.ID
}

type VehiclePosition struct {
	VehicleID string   `json:"vehicle_id"`
	Position  Position `json:"position"`
}

type HistoryQuery struct {
	VehicleID string
	Start     time.Time
	End       time.Time
}

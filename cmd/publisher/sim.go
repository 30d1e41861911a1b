package main

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
)

const (
	metersPerDegree = 111320.0
	charset         = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Bandung, where the fleet operates by default.
var defaultCenter = domain.Point{Lat: -6.9175, Lng: 107.6191}

type positionMessage struct {
	VehicleID string  `json:"vehicle_id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Speed     float64 `json:"speed"`
	Timestamp int64   `json:"timestamp"`
}

func randomVehicleID(rng *rand.Rand) string {
	letter := string(charset[rng.Intn(26)])
	digits := fmt.Sprintf("%04d", rng.Intn(10000))
	suffix := string([]byte{charset[rng.Intn(26)], charset[rng.Intn(26)], charset[rng.Intn(26)]})
	return letter + digits + suffix
}

// anchor is a point a simulated vehicle crosses in and out of.
type anchor struct {
	center domain.Point
	// reach is how far from center the zone extends, in meters.
	reach float64
}

func zoneAnchor(z domain.Zone) (anchor, bool) {
	if z.Circle != nil {
		return anchor{center: z.Circle.Center, reach: z.Circle.RadiusMeters}, z.Circle.RadiusMeters > 0
	}
	if len(z.Polygon) < 3 {
		return anchor{}, false
	}

	var c domain.Point
	for _, p := range z.Polygon {
		c.Lat += p.Lat
		c.Lng += p.Lng
	}
	c.Lat /= float64(len(z.Polygon))
	c.Lng /= float64(len(z.Polygon))

	// The nearest vertex bounds a circle that stays inside convex rings.
	reach := math.Inf(1)
	for _, p := range z.Polygon {
		reach = math.Min(reach, approxDistance(c, p))
	}
	return anchor{center: c, reach: reach}, reach > 0
}

// offset moves p by meters along bearing (radians from north).
func offset(p domain.Point, meters, bearing float64) domain.Point {
	dLat := meters * math.Cos(bearing) / metersPerDegree
	dLng := meters * math.Sin(bearing) / (metersPerDegree * math.Cos(p.Lat*math.Pi/180))
	return domain.Point{Lat: p.Lat + dLat, Lng: p.Lng + dLng}
}

func approxDistance(a, b domain.Point) float64 {
	x := (b.Lng - a.Lng) * math.Cos((a.Lat+b.Lat)/2*math.Pi/180)
	y := b.Lat - a.Lat
	return math.Sqrt(x*x+y*y) * metersPerDegree
}

type vehicle struct {
	id     string
	name   string
	pos    domain.Point
	anchor *anchor
	tick   int
}

// step advances the vehicle. A vehicle with an anchor spends dwell ticks
// well inside its zone and then dwell ticks well outside it; the rest wander.
func (v *vehicle) step(rng *rand.Rand, dwell int) {
	v.tick++
	if v.anchor == nil {
		v.pos.Lat += rng.Float64()*0.001 - 0.0005
		v.pos.Lng += rng.Float64()*0.001 - 0.0005
		return
	}

	dist := 0.4 * v.anchor.reach
	if (v.tick/dwell)%2 == 1 {
		dist = 1.6*v.anchor.reach + 50
	}
	v.pos = offset(v.anchor.center, dist, rng.Float64()*2*math.Pi)
}

func newFleet(rng *rand.Rand, n int, zones []domain.Zone) []*vehicle {
	var anchors []anchor
	for _, z := range zones {
		if a, ok := zoneAnchor(z); ok {
			anchors = append(anchors, a)
		}
	}

	fleet := make([]*vehicle, n)
	for i := range fleet {
		v := &vehicle{
			id:   randomVehicleID(rng),
			name: fmt.Sprintf("Mobil %d", i+1),
			pos: domain.Point{
				Lat: defaultCenter.Lat + rng.Float64()*0.2 - 0.1,
				Lng: defaultCenter.Lng + rng.Float64()*0.2 - 0.1,
			},
		}
		if len(anchors) > 0 {
			a := anchors[i%len(anchors)]
			v.anchor = &a
		}
		fleet[i] = v
	}
	return fleet
}

package geometry

import (
	"math"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
)

const earthRadiusMeters = 6371000

// Result is the containment of one point against one zone. Distance is only
// meaningful when HasDistance is set, which happens for valid shapes the point
// lies outside of.
type Result struct {
	Inside      bool
	Distance    float64
	HasDistance bool
}

// Classify never panics: degenerate zones and invalid points classify as
// outside with no distance.
func Classify(p domain.Point, z domain.Zone) Result {
	if !validPoint(p) {
		return Result{}
	}
	switch {
	case z.Circle != nil:
		return classifyCircle(p, *z.Circle)
	case len(z.Polygon) > 0:
		return classifyPolygon(p, z.Polygon)
	}
	return Result{}
}

func classifyCircle(p domain.Point, c domain.Circle) Result {
	if !validPoint(c.Center) || !finite(c.RadiusMeters) || c.RadiusMeters <= 0 {
		return Result{}
	}
	d := Haversine(p, c.Center)
	if d <= c.RadiusMeters {
		return Result{Inside: true}
	}
	return Result{Distance: d - c.RadiusMeters, HasDistance: true}
}

func classifyPolygon(p domain.Point, ring []domain.Point) Result {
	if len(ring) < 3 {
		return Result{}
	}
	for _, v := range ring {
		if !validPoint(v) {
			return Result{}
		}
	}
	if pointInRing(p, ring) {
		return Result{Inside: true}
	}
	return Result{Distance: distanceToRing(p, ring), HasDistance: true}
}

// pointInRing is a ray cast with latitude as x and longitude as y. A point
// exactly on an edge gets whatever the crossing count yields, which is stable
// for a given ring.
func pointInRing(p domain.Point, ring []domain.Point) bool {
	inside := false
	x, y := p.Lat, p.Lng
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		xi, yi := ring[i].Lat, ring[i].Lng
		xj, yj := ring[j].Lat, ring[j].Lng
		if (yi > y) != (yj > y) && x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
	}
	return inside
}

func distanceToRing(p domain.Point, ring []domain.Point) float64 {
	best := math.Inf(1)
	for i, j := 0, len(ring)-1; i < len(ring); j, i = i, i+1 {
		if d := distanceToSegment(p, ring[j], ring[i]); d < best {
			best = d
		}
	}
	return best
}

// distanceToSegment finds the nearest point of a-b in an equirectangular
// projection centred on p, then measures the great-circle distance to it.
func distanceToSegment(p, a, b domain.Point) float64 {
	scale := math.Cos(toRad(p.Lat))
	if scale < 1e-12 {
		scale = 1e-12
	}
	ax, ay := wrapLng(a.Lng-p.Lng)*scale, a.Lat-p.Lat
	bx, by := wrapLng(b.Lng-p.Lng)*scale, b.Lat-p.Lat

	dx, dy := bx-ax, by-ay
	t := 0.0
	if lenSq := dx*dx + dy*dy; lenSq > 0 {
		t = -(ax*dx + ay*dy) / lenSq
		t = math.Max(0, math.Min(1, t))
	}
	nearest := domain.Point{
		Lat: p.Lat + ay + t*dy,
		Lng: p.Lng + (ax+t*dx)/scale,
	}
	return Haversine(p, nearest)
}

// Haversine returns the great-circle distance in meters.
func Haversine(a, b domain.Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLng/2)*math.Sin(dLng/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func wrapLng(d float64) float64 {
	for d > 180 {
		d -= 360
	}
	for d < -180 {
		d += 360
	}
	return d
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func validPoint(p domain.Point) bool {
	return finite(p.Lat) && finite(p.Lng) && p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

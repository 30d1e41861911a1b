package service

import (
	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/geometry"
)

// CurrentZone returns the first zone, in input order, that contains the
// vehicle. Overlapping zones therefore resolve by list order, not proximity.
func CurrentZone(v domain.Vehicle, zones []domain.Zone) domain.ContainmentSnapshot {
	if v.Position == nil || !v.Position.Valid() {
		return domain.ContainmentSnapshot{}
	}
	p := v.Position.Point()
	for _, z := range zones {
		if geometry.Classify(p, z).Inside {
			return domain.ContainmentSnapshot{
				Inside:   true,
				ZoneID:   z.ID,
				ZoneName: z.Name,
				ZoneRule: z.Rule,
			}
		}
	}
	return domain.ContainmentSnapshot{}
}

// ZoneDistance is a zone together with how far a point is from its boundary.
type ZoneDistance struct {
	Zone     domain.ZoneRef `json:"zone"`
	Inside   bool           `json:"inside"`
	Distance float64        `json:"distance_meters"`
}

// NearestZone reports the containing zone if there is one, otherwise the zone
// whose boundary is closest. ok is false when no zone has a usable shape.
func NearestZone(p domain.Point, zones []domain.Zone) (ZoneDistance, bool) {
	var (
		best  ZoneDistance
		found bool
	)
	for _, z := range zones {
		r := geometry.Classify(p, z)
		if r.Inside {
			return ZoneDistance{Zone: z.Ref(), Inside: true}, true
		}
		if r.HasDistance && (!found || r.Distance < best.Distance) {
			best = ZoneDistance{Zone: z.Ref(), Distance: r.Distance}
			found = true
		}
	}
	return best, found
}

package domain

type RuleKind string

const (
	// RuleForbidden zones must never contain the vehicle.
	RuleForbidden RuleKind = "FORBIDDEN"
	// RuleStayIn zones must keep containing the vehicle once it is inside.
	RuleStayIn RuleKind = "STAY_IN"
)

func (k RuleKind) Valid() bool {
	return k == RuleForbidden || k == RuleStayIn
}

type Point struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

type Circle struct {
	Center       Point   `json:"center" yaml:"center"`
	RadiusMeters float64 `json:"radius_meters" yaml:"radius_meters"`
}

// Zone is a geofence. Exactly one of Circle or Polygon is expected to be set;
// the ring of Polygon is implicitly closed.
type Zone struct {
	ID      string   `json:"id" yaml:"id"`
	Name    string   `json:"name" yaml:"name"`
	Rule    RuleKind `json:"rule" yaml:"rule"`
	Circle  *Circle  `json:"circle,omitempty" yaml:"circle,omitempty"`
	Polygon []Point  `json:"polygon,omitempty" yaml:"polygon,omitempty"`
}

func (z Zone) Ref() ZoneRef {
	return ZoneRef{ID: z.ID, Name: z.Name, Rule: z.Rule}
}

// ZoneRef is the part of a zone a violation keeps after the zone set changes.
type ZoneRef struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Rule RuleKind `json:"rule"`
}

// ContainmentSnapshot is the last containment result recorded for a vehicle.
type ContainmentSnapshot struct {
	Inside   bool     `json:"inside"`
	ZoneID   string   `json:"zone_id,omitempty"`
	ZoneName string   `json:"zone_name,omitempty"`
	ZoneRule RuleKind `json:"zone_rule,omitempty"`
}

func (s ContainmentSnapshot) Zone() ZoneRef {
	return ZoneRef{ID: s.ZoneID, Name: s.ZoneName, Rule: s.ZoneRule}
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/repository/database"
)

var _ database.ZoneRepository = (*ZoneRepo)(nil)

// ZoneRepo reads active geofences whose shape is stored as a GeoJSON
// geometry in the definition column.
type ZoneRepo struct {
	db *sql.DB
}

func NewZoneRepo(db *sql.DB) *ZoneRepo {
	return &ZoneRepo{db: db}
}

// List returns zones ordered by id. Rows with an unusable definition are
// skipped.
func (r *ZoneRepo) List(ctx context.Context) ([]domain.Zone, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT geofence_id, name, rule_type, definition FROM geofences WHERE status = 'active' ORDER BY geofence_id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query geofences: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var zones []domain.Zone
	for rows.Next() {
		var (
			id, name   string
			rule       sql.NullString
			definition []byte
		)
		if err := rows.Scan(&id, &name, &rule, &definition); err != nil {
			return nil, fmt.Errorf("scan geofence: %w", err)
		}

		z := domain.Zone{ID: id, Name: name, Rule: parseRule(rule)}
		if err := decodeDefinition(definition, &z); err != nil {
			slog.Warn("skipping geofence with bad definition", "geofence_id", id, "err", err)
			continue
		}
		if !z.Rule.Valid() {
			slog.Warn("skipping geofence with unknown rule", "geofence_id", id, "rule", rule.String)
			continue
		}
		zones = append(zones, z)
	}
	return zones, rows.Err()
}

// Geofences created without a rule are STAY_IN.
func parseRule(s sql.NullString) domain.RuleKind {
	if !s.Valid || strings.TrimSpace(s.String) == "" {
		return domain.RuleStayIn
	}
	return domain.RuleKind(strings.ToUpper(strings.TrimSpace(s.String)))
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
	Radius      float64         `json:"radius"`
}

// decodeDefinition fills the shape of z. GeoJSON positions are [lng, lat].
// Polygon and MultiPolygon use their first outer ring; a Point needs a
// radius in meters and becomes a circle.
func decodeDefinition(raw []byte, z *domain.Zone) error {
	var g geometry
	if err := json.Unmarshal(raw, &g); err != nil {
		// some rows hold the geometry as a JSON encoded string
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return fmt.Errorf("decode definition: %w", err)
		}
		if err := json.Unmarshal([]byte(s), &g); err != nil {
			return fmt.Errorf("decode definition: %w", err)
		}
	}

	switch g.Type {
	case "Polygon":
		var rings [][][]float64
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil {
			return fmt.Errorf("polygon coordinates: %w", err)
		}
		if len(rings) == 0 {
			return errors.New("polygon has no rings")
		}
		return setRing(z, rings[0])
	case "MultiPolygon":
		var polys [][][][]float64
		if err := json.Unmarshal(g.Coordinates, &polys); err != nil {
			return fmt.Errorf("multipolygon coordinates: %w", err)
		}
		if len(polys) == 0 || len(polys[0]) == 0 {
			return errors.New("multipolygon has no rings")
		}
		return setRing(z, polys[0][0])
	case "Point":
		var pos []float64
		if err := json.Unmarshal(g.Coordinates, &pos); err != nil {
			return fmt.Errorf("point coordinates: %w", err)
		}
		if len(pos) < 2 {
			return errors.New("point needs lng and lat")
		}
		if g.Radius <= 0 {
			return errors.New("circle needs a positive radius")
		}
		z.Circle = &domain.Circle{
			Center:       domain.Point{Lat: pos[1], Lng: pos[0]},
			RadiusMeters: g.Radius,
		}
		return nil
	}
	return fmt.Errorf("unsupported geometry %q", g.Type)
}

func setRing(z *domain.Zone, ring [][]float64) error {
	points := make([]domain.Point, 0, len(ring))
	for _, pos := range ring {
		if len(pos) < 2 {
			return errors.New("position needs lng and lat")
		}
		points = append(points, domain.Point{Lat: pos[1], Lng: pos[0]})
	}
	// the closing vertex is implied
	if n := len(points); n > 1 && points[0] == points[n-1] {
		points = points[:n-1]
	}
	if len(points) < 3 {
		return errors.New("ring needs at least three vertices")
	}
	z.Polygon = points
	return nil
}

package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/repository/database"
)

var _ database.ZoneRepository = (*ZoneRepo)(nil)

type zoneFile struct {
	Zones []domain.Zone `yaml:"zones"`
}

// ZoneRepo reads zones from a YAML file on every List, so edits are picked up
// on the next refresh.
type ZoneRepo struct {
	path string
}

func NewZoneRepo(path string) *ZoneRepo {
	return &ZoneRepo{path: path}
}

func (r *ZoneRepo) List(_ context.Context) ([]domain.Zone, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, fmt.Errorf("read zones file: %w", err)
	}
	return ParseZones(data)
}

// ParseZones decodes a zones document. Entries without an id or with an
// unknown rule are dropped; missing rules default to STAY_IN.
func ParseZones(data []byte) ([]domain.Zone, error) {
	var f zoneFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse zones: %w", err)
	}

	zones := make([]domain.Zone, 0, len(f.Zones))
	for _, z := range f.Zones {
		if z.Rule == "" {
			z.Rule = domain.RuleStayIn
		}
		if z.ID == "" || !z.Rule.Valid() {
			slog.Warn("skipping zone", "id", z.ID, "rule", z.Rule)
			continue
		}
		zones = append(zones, z)
	}
	return zones, nil
}

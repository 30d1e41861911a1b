package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
)

func TestCurrentZone(t *testing.T) {
	zones := []domain.Zone{
		squareZone("S", domain.RuleStayIn, 0, 0, 1, 1),
		circleZone("F", domain.RuleForbidden, 0.5, 0.5, 1000),
	}

	got := CurrentZone(at("v1", 0.5, 0.5), zones)
	assert.Equal(t, domain.ContainmentSnapshot{Inside: true, ZoneID: "S", ZoneName: "Zone S", ZoneRule: domain.RuleStayIn}, got)

	assert.Equal(t, domain.ContainmentSnapshot{}, CurrentZone(at("v1", 5, 5), zones))
	assert.Equal(t, domain.ContainmentSnapshot{}, CurrentZone(domain.Vehicle{ID: "v1"}, zones))
	assert.Equal(t, domain.ContainmentSnapshot{}, CurrentZone(at("v1", 0.5, 0.5), nil))
}

func TestNearestZone(t *testing.T) {
	zones := []domain.Zone{
		{ID: "degenerate", Rule: domain.RuleStayIn, Polygon: []domain.Point{{Lat: 0, Lng: 0}}},
		circleZone("C", domain.RuleForbidden, 0, 3, 1000),
		squareZone("S", domain.RuleStayIn, 0, 0, 1, 1),
	}

	got, ok := NearestZone(domain.Point{Lat: 0.5, Lng: 1.5}, zones)
	require.True(t, ok)
	assert.Equal(t, "S", got.Zone.ID)
	assert.False(t, got.Inside)
	assert.InDelta(t, 55600, got.Distance, 500)

	got, ok = NearestZone(domain.Point{Lat: 0, Lng: 3}, zones)
	require.True(t, ok)
	assert.True(t, got.Inside)
	assert.Equal(t, "C", got.Zone.ID)

	_, ok = NearestZone(domain.Point{Lat: 0.5, Lng: 0.5}, zones[:1])
	assert.False(t, ok)
}

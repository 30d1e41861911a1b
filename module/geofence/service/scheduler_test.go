package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
)

func newTestScheduler() (*Scheduler, *Registry, *fakeTimers, *recordingSink) {
	timers := newFakeTimers()
	registry := NewRegistry()
	sink := newRecordingSink()
	s := NewScheduler(registry, timers, sink, DefaultConfig(), timers.Now, sequentialIDs())
	return s, registry, timers, sink
}

func TestScheduler_ShowAndExpire(t *testing.T) {
	s, registry, timers, sink := newTestScheduler()
	key := domain.ViolationKey{VehicleID: "B1234XYZ", ZoneID: "z1", Kind: domain.ViolationEnter}
	v := violationFor(key, timers.Now())
	v.Vehicle.Position = &domain.Position{Lat: -6.2088, Lng: 106.8456}
	registry.Activate(key, v)

	id, ok := s.Show(v, false)
	require.True(t, ok)
	assert.Equal(t, "violation-1", id)

	n, ok := s.Current()
	require.True(t, ok)
	assert.Equal(t, key, n.Key)
	assert.Equal(t, "Vehicle B1234XYZ", n.VehicleName)
	assert.Equal(t, "-6.2088, 106.8456", n.Location)
	assert.Equal(t, "VIOLATION: vehicle Vehicle B1234XYZ entered geofence Zone z1 (FORBIDDEN)", n.Message)
	assert.False(t, n.Reshow)

	timers.Advance(DefaultAutoRemoveDelay - time.Millisecond)
	_, ok = s.Current()
	assert.True(t, ok)

	timers.Advance(time.Millisecond)
	_, ok = s.Current()
	assert.False(t, ok)
	assert.Equal(t, []string{"violation-1"}, sink.removed)

	timers.Advance(DefaultReshowDelay)
	n, ok = s.Current()
	require.True(t, ok)
	assert.True(t, n.Reshow)
	assert.Equal(t, "violation-2", n.ID)
}

func TestScheduler_ShowDismissedIsNoop(t *testing.T) {
	s, registry, timers, sink := newTestScheduler()
	key := domain.ViolationKey{VehicleID: "v1", ZoneID: "z1", Kind: domain.ViolationExit}
	v := violationFor(key, timers.Now())
	registry.Activate(key, v)
	registry.Dismiss(key)

	id, ok := s.Show(v, false)
	assert.False(t, ok)
	assert.Empty(t, id)
	assert.Empty(t, sink.shown)
	assert.Equal(t, 0, timers.Pending())
}

func TestScheduler_DismissOnlyVisible(t *testing.T) {
	s, registry, timers, _ := newTestScheduler()
	key := domain.ViolationKey{VehicleID: "v1", ZoneID: "z1", Kind: domain.ViolationEnter}
	v := violationFor(key, timers.Now())
	registry.Activate(key, v)

	id, _ := s.Show(v, false)
	assert.False(t, s.Dismiss("violation-unknown"))
	assert.True(t, s.Dismiss(id))
	assert.False(t, s.Dismiss(id))
	assert.True(t, registry.IsDismissed(key))

	timers.Advance(time.Minute)
	_, ok := s.Current()
	assert.False(t, ok)
	assert.Equal(t, 0, timers.Pending())
}

func TestScheduler_ReshowAfterClearIsNoop(t *testing.T) {
	s, registry, timers, sink := newTestScheduler()
	key := domain.ViolationKey{VehicleID: "v1", ZoneID: "z1", Kind: domain.ViolationEnter}
	v := violationFor(key, timers.Now())
	registry.Activate(key, v)
	s.Show(v, false)

	timers.Advance(DefaultAutoRemoveDelay)
	require.Equal(t, 1, timers.Pending(), "re-show scheduled")

	registry.Clear(key)
	assert.Equal(t, 0, timers.Pending())
	timers.Advance(DefaultReshowDelay)

	_, ok := s.Current()
	assert.False(t, ok)
	assert.Len(t, sink.shown, 1)
}

func TestScheduler_StaleReshowTaskIsNoop(t *testing.T) {
	s, registry, timers, sink := newTestScheduler()
	key := domain.ViolationKey{VehicleID: "v1", ZoneID: "z1", Kind: domain.ViolationEnter}

	// a re-show task that reaches the loop after its key was cleared
	s.reshowDue(key)
	_, ok := s.Current()
	assert.False(t, ok)
	assert.Empty(t, sink.shown)
	assert.False(t, registry.IsActive(key))
	assert.Equal(t, 0, timers.Pending())
}

func TestScheduler_ZeroDelaysDisableTimers(t *testing.T) {
	timers := newFakeTimers()
	registry := NewRegistry()
	s := NewScheduler(registry, timers, nil, Config{}, timers.Now, sequentialIDs())
	key := domain.ViolationKey{VehicleID: "v1", ZoneID: "z1", Kind: domain.ViolationEnter}
	v := violationFor(key, timers.Now())
	registry.Activate(key, v)

	_, ok := s.Show(v, false)
	require.True(t, ok)
	assert.Equal(t, 0, timers.Pending())

	assert.True(t, s.HideIf(func(k domain.ViolationKey) bool { return k == key }))
	assert.False(t, s.HideIf(func(domain.ViolationKey) bool { return true }))
}

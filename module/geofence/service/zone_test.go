package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
)

type mockZoneRepo struct {
	listFn      func(ctx context.Context) ([]domain.Zone, error)
	invalidated int
}

func (m *mockZoneRepo) List(ctx context.Context) ([]domain.Zone, error) {
	return m.listFn(ctx)
}

func (m *mockZoneRepo) Invalidate(context.Context) error {
	m.invalidated++
	return nil
}

type recordingZoneSetter struct {
	calls [][]domain.Zone
}

func (r *recordingZoneSetter) SetZones(_ context.Context, zones []domain.Zone) error {
	r.calls = append(r.calls, zones)
	return nil
}

func TestZoneRefresher_Refresh(t *testing.T) {
	zones := []domain.Zone{circleZone("F", domain.RuleForbidden, 0, 0, 100)}
	repo := &mockZoneRepo{listFn: func(context.Context) ([]domain.Zone, error) { return zones, nil }}
	target := &recordingZoneSetter{}
	r := NewZoneRefresher(repo, target, time.Minute)

	got, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, zones, got)
	assert.Equal(t, 0, repo.invalidated)

	_, err = r.Refresh(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.invalidated)
	assert.Len(t, target.calls, 2)
}

func TestZoneRefresher_ListErrorKeepsZones(t *testing.T) {
	repo := &mockZoneRepo{listFn: func(context.Context) ([]domain.Zone, error) {
		return nil, errors.New("db down")
	}}
	target := &recordingZoneSetter{}
	r := NewZoneRefresher(repo, target, time.Minute)

	_, err := r.Refresh(context.Background(), false)
	assert.ErrorContains(t, err, "list zones")
	assert.Empty(t, target.calls)
}

func TestZoneRefresher_RunLoadsImmediately(t *testing.T) {
	repo := &mockZoneRepo{listFn: func(context.Context) ([]domain.Zone, error) { return nil, nil }}
	target := &recordingZoneSetter{}
	r := NewZoneRefresher(repo, target, time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, r.Run(ctx), context.DeadlineExceeded)
	assert.Len(t, target.calls, 1)
}

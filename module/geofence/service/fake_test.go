package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
)

// fakeTimers fires callbacks synchronously from Advance, in due order.
type fakeTimers struct {
	now    time.Time
	seq    int
	timers []*fakeTimer
}

type fakeTimer struct {
	due     time.Time
	seq     int
	fn      func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func newFakeTimers() *fakeTimers {
	return &fakeTimers{now: time.Date(2025, 7, 2, 18, 0, 0, 0, time.UTC)}
}

func (f *fakeTimers) AfterFunc(d time.Duration, fn func()) Timer {
	f.seq++
	t := &fakeTimer{due: f.now.Add(d), seq: f.seq, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

func (f *fakeTimers) Now() time.Time {
	return f.now
}

// Advance moves the clock forward, firing every timer that falls due.
func (f *fakeTimers) Advance(d time.Duration) {
	target := f.now.Add(d)
	for {
		next := f.next(target)
		if next == nil {
			break
		}
		f.now = next.due
		next.fired = true
		next.fn()
	}
	f.now = target
}

func (f *fakeTimers) next(limit time.Time) *fakeTimer {
	var pending []*fakeTimer
	for _, t := range f.timers {
		if !t.stopped && !t.fired && !t.due.After(limit) {
			pending = append(pending, t)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].due.Equal(pending[j].due) {
			return pending[i].due.Before(pending[j].due)
		}
		return pending[i].seq < pending[j].seq
	})
	return pending[0]
}

// Pending counts timers that can still fire.
func (f *fakeTimers) Pending() int {
	n := 0
	for _, t := range f.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

type recordingSink struct {
	shown   []domain.Notification
	removed []string
	visible map[string]bool
	maxSeen int
}

func newRecordingSink() *recordingSink {
	return &recordingSink{visible: make(map[string]bool)}
}

func (s *recordingSink) NotificationShown(n domain.Notification) {
	s.shown = append(s.shown, n)
	s.visible[n.ID] = true
	if len(s.visible) > s.maxSeen {
		s.maxSeen = len(s.visible)
	}
}

func (s *recordingSink) NotificationRemoved(id string) {
	s.removed = append(s.removed, id)
	delete(s.visible, id)
}

func (s *recordingSink) shownFor(key domain.ViolationKey) []domain.Notification {
	var out []domain.Notification
	for _, n := range s.shown {
		if n.Key == key {
			out = append(out, n)
		}
	}
	return out
}

type mockViolationRepo struct {
	mu     sync.Mutex
	saveFn func(ctx context.Context, rec *domain.ViolationRecord) error
	saved  []domain.ViolationRecord
}

func (m *mockViolationRepo) Save(ctx context.Context, rec *domain.ViolationRecord) error {
	m.mu.Lock()
	m.saved = append(m.saved, *rec)
	m.mu.Unlock()
	if m.saveFn != nil {
		return m.saveFn(ctx, rec)
	}
	return nil
}

func (m *mockViolationRepo) records() []domain.ViolationRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.ViolationRecord, len(m.saved))
	copy(out, m.saved)
	return out
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%d", n)
	}
}

func at(id string, lat, lng float64) domain.Vehicle {
	return domain.Vehicle{ID: id, Position: &domain.Position{Lat: lat, Lng: lng}}
}

func squareZone(id string, rule domain.RuleKind, minLat, minLng, maxLat, maxLng float64) domain.Zone {
	return domain.Zone{
		ID:   id,
		Name: "Zone " + id,
		Rule: rule,
		Polygon: []domain.Point{
			{Lat: minLat, Lng: minLng},
			{Lat: minLat, Lng: maxLng},
			{Lat: maxLat, Lng: maxLng},
			{Lat: maxLat, Lng: minLng},
		},
	}
}

func circleZone(id string, rule domain.RuleKind, lat, lng, radius float64) domain.Zone {
	return domain.Zone{
		ID:     id,
		Name:   "Zone " + id,
		Rule:   rule,
		Circle: &domain.Circle{Center: domain.Point{Lat: lat, Lng: lng}, RadiusMeters: radius},
	}
}

func nan() float64 {
	return math.NaN()
}

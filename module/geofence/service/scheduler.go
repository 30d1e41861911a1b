package service

import (
	"log/slog"
	"time"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
)

// NotificationSink receives the visible-notification changes. It is called on
// the engine's event loop and must not block.
type NotificationSink interface {
	NotificationShown(n domain.Notification)
	NotificationRemoved(id string)
}

type nopSink struct{}

func (nopSink) NotificationShown(domain.Notification) {}
func (nopSink) NotificationRemoved(string)            {}

// Scheduler owns the single visible notification slot, its auto-removal and
// the re-show of violations that are still active after it disappears.
type Scheduler struct {
	registry *Registry
	timers   Timers
	sink     NotificationSink
	now      func() time.Time
	newID    func() string

	autoRemoveDelay time.Duration
	reshowDelay     time.Duration

	current *domain.Notification
	expiry  Timer
}

func NewScheduler(registry *Registry, timers Timers, sink NotificationSink, cfg Config, now func() time.Time, newID func() string) *Scheduler {
	if sink == nil {
		sink = nopSink{}
	}
	return &Scheduler{
		registry:        registry,
		timers:          timers,
		sink:            sink,
		now:             now,
		newID:           newID,
		autoRemoveDelay: cfg.AutoRemoveDelay,
		reshowDelay:     cfg.ReshowDelay,
	}
}

// Show makes v the visible notification, replacing whatever was shown. It
// returns false without doing anything when the violation was dismissed.
func (s *Scheduler) Show(v domain.ActiveViolation, reshow bool) (string, bool) {
	if s.registry.IsDismissed(v.Key) {
		slog.Debug("notification suppressed, violation dismissed", "violation", v.Key.String())
		return "", false
	}
	s.registry.cancelReshow(v.Key)

	if prev := s.current; prev != nil {
		s.hide()
		// the displaced violation gets its turn again later
		if prev.Key != v.Key {
			s.scheduleReshow(prev.Key)
		}
	}

	n := domain.Notification{
		ID:          "violation-" + s.newID(),
		Key:         v.Key,
		VehicleID:   v.Key.VehicleID,
		VehicleName: v.Vehicle.DisplayName(),
		ZoneID:      v.Zone.ID,
		ZoneName:    v.Zone.Name,
		Kind:        v.Key.Kind,
		Location:    v.Location(),
		Message:     v.Message(),
		Reshow:      reshow,
		Timestamp:   v.DetectedAt,
	}
	s.current = &n
	s.sink.NotificationShown(n)

	if s.autoRemoveDelay > 0 {
		id := n.ID
		s.expiry = s.timers.AfterFunc(s.autoRemoveDelay, func() { s.expire(id) })
	}

	slog.Info("notification shown",
		"id", n.ID,
		"violation", v.Key.String(),
		"reshow", reshow,
	)
	return n.ID, true
}

// Dismiss hides the notification and suppresses every re-show of its
// violation until the violation is cleared.
func (s *Scheduler) Dismiss(id string) bool {
	if s.current == nil || s.current.ID != id {
		return false
	}
	key := s.current.Key
	s.hide()
	s.registry.Dismiss(key)
	slog.Info("notification dismissed", "id", id, "violation", key.String())
	return true
}

func (s *Scheduler) Current() (domain.Notification, bool) {
	if s.current == nil {
		return domain.Notification{}, false
	}
	return *s.current, true
}

// HideIf removes the visible notification when its violation matches fn. No
// re-show is scheduled for it.
func (s *Scheduler) HideIf(fn func(domain.ViolationKey) bool) bool {
	if s.current == nil || !fn(s.current.Key) {
		return false
	}
	s.hide()
	return true
}

// Close hides the visible notification and stops its timer.
func (s *Scheduler) Close() {
	if s.current != nil {
		s.hide()
	}
}

func (s *Scheduler) hide() {
	stopTimer(s.expiry)
	s.expiry = nil
	id := s.current.ID
	s.current = nil
	s.sink.NotificationRemoved(id)
}

func (s *Scheduler) expire(id string) {
	if s.current == nil || s.current.ID != id {
		return
	}
	key := s.current.Key
	s.hide()
	slog.Debug("notification expired", "id", id, "violation", key.String())
	s.scheduleReshow(key)
}

func (s *Scheduler) scheduleReshow(key domain.ViolationKey) {
	if s.reshowDelay <= 0 || !s.registry.IsActive(key) || s.registry.IsDismissed(key) {
		return
	}
	t := s.timers.AfterFunc(s.reshowDelay, func() { s.reshowDue(key) })
	s.registry.setReshow(key, t)
}

func (s *Scheduler) reshowDue(key domain.ViolationKey) {
	s.registry.reshowFired(key)
	v, ok := s.registry.Get(key)
	if !ok || s.registry.IsDismissed(key) {
		slog.Debug("re-show skipped", "violation", key.String(), "active", ok)
		return
	}
	s.Show(v, true)
}

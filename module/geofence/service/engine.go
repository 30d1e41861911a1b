package service

import (
	"log/slog"
	"reflect"
	"time"

	"github.com/google/uuid"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/repository/database"
)

const (
	DefaultAutoRemoveDelay = 10 * time.Second
	DefaultReshowDelay     = 10 * time.Second
	DefaultPersistTimeout  = 5 * time.Second
)

type Config struct {
	AutoRemoveDelay time.Duration
	ReshowDelay     time.Duration
	PersistTimeout  time.Duration
}

func DefaultConfig() Config {
	return Config{
		AutoRemoveDelay: DefaultAutoRemoveDelay,
		ReshowDelay:     DefaultReshowDelay,
		PersistTimeout:  DefaultPersistTimeout,
	}
}

type Option func(*Engine)

// WithClock replaces time.Now for detection timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithIDGenerator replaces the random notification ID source.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// PassResult summarises one detection pass.
type PassResult struct {
	Evaluated     int                   `json:"evaluated"`
	Skipped       int                   `json:"skipped"`
	Raised        []domain.ViolationKey `json:"raised,omitempty"`
	Cleared       []domain.ViolationKey `json:"cleared,omitempty"`
	Notifications []string              `json:"notifications,omitempty"`
}

type VehicleStatus struct {
	Vehicle  domain.Vehicle             `json:"vehicle"`
	Snapshot domain.ContainmentSnapshot `json:"containment"`
	Nearest  *ZoneDistance              `json:"nearest,omitempty"`
}

// Engine is the violation detection state machine. It is single-threaded:
// every method, and every callback scheduled through its Timers, must run on
// one goroutine. Dispatcher provides that goroutine in production.
type Engine struct {
	zones        []domain.Zone
	snapshots    map[string]domain.ContainmentSnapshot
	lastPosition map[string]string
	lastSeen     map[string]time.Time
	vehicles     map[string]domain.Vehicle

	registry  *Registry
	scheduler *Scheduler
	persister *Persister

	now    func() time.Time
	newID  func() string
	closed bool
}

// NewEngine builds an isolated engine. sink and repo may be nil.
func NewEngine(cfg Config, timers Timers, sink NotificationSink, repo database.ViolationRepository, opts ...Option) *Engine {
	e := &Engine{
		snapshots:    make(map[string]domain.ContainmentSnapshot),
		lastPosition: make(map[string]string),
		lastSeen:     make(map[string]time.Time),
		vehicles:     make(map[string]domain.Vehicle),
		registry:     NewRegistry(),
		persister:    NewPersister(repo, cfg.PersistTimeout),
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.scheduler = NewScheduler(e.registry, timers, sink, cfg, e.now, e.newID)
	return e
}

// ProcessPositions runs one detection pass over the batch. Vehicles without a
// usable position, with the same position as last time, or with a timestamp
// older than the last processed one are skipped.
func (e *Engine) ProcessPositions(vehicles []domain.Vehicle) PassResult {
	var res PassResult
	if e.closed {
		return res
	}

	for _, v := range vehicles {
		if v.ID == "" || v.Position == nil || !v.Position.Valid() {
			res.Skipped++
			continue
		}
		pos := *v.Position
		v.Position = &pos

		key := pos.Key()
		if last, ok := e.lastPosition[v.ID]; ok && last == key {
			res.Skipped++
			continue
		}
		if seen, ok := e.lastSeen[v.ID]; ok && !pos.Timestamp.IsZero() && pos.Timestamp.Before(seen) {
			slog.Debug("stale position dropped",
				"vehicle_id", v.ID,
				"timestamp", pos.Timestamp,
				"last_seen", seen,
			)
			res.Skipped++
			continue
		}
		e.lastPosition[v.ID] = key
		if !pos.Timestamp.IsZero() {
			e.lastSeen[v.ID] = pos.Timestamp
		}
		e.vehicles[v.ID] = v
		res.Evaluated++

		e.evaluate(v, &res)
	}
	return res
}

func (e *Engine) evaluate(v domain.Vehicle, res *PassResult) {
	cur := CurrentZone(v, e.zones)

	var prev *domain.ContainmentSnapshot
	if s, ok := e.snapshots[v.ID]; ok {
		prev = &s
	}
	t := DetectTransition(v.ID, prev, cur)
	e.snapshots[v.ID] = cur

	if t.Outcome != OutcomeNone {
		slog.Debug("containment changed",
			"vehicle_id", v.ID,
			"outcome", t.Outcome.String(),
			"inside", cur.Inside,
			"zone_id", cur.ZoneID,
		)
	}

	for _, eff := range t.Effects {
		switch eff.Type {
		case EffectClear:
			if e.registry.Clear(eff.Key) {
				res.Cleared = append(res.Cleared, eff.Key)
				slog.Info("violation cleared", "violation", eff.Key.String())
			}
		case EffectRaise:
			if id, ok := e.raise(v, eff); ok {
				res.Notifications = append(res.Notifications, id)
			}
			res.Raised = append(res.Raised, eff.Key)
		}
	}
}

// raise activates the violation, shows it and persists it when it is new. A
// violation that is already active is only re-shown.
func (e *Engine) raise(v domain.Vehicle, eff Effect) (string, bool) {
	violation := domain.ActiveViolation{
		Key:        eff.Key,
		Vehicle:    v,
		Zone:       eff.Zone,
		DetectedAt: e.now(),
	}
	existing, alreadyActive := e.registry.Get(eff.Key)
	if alreadyActive {
		violation.DetectedAt = existing.DetectedAt
	}

	e.registry.Activate(eff.Key, violation)
	slog.Info("violation detected",
		"violation", eff.Key.String(),
		"zone", eff.Zone.Name,
		"already_active", alreadyActive,
	)

	id, shown := e.scheduler.Show(violation, alreadyActive)
	if !alreadyActive {
		e.persister.Save(violation)
	}
	return id, shown
}

// SetZones swaps the zone set. Zones that disappeared or changed rule take
// their violations, visible notification and vehicle snapshots with them, and
// every vehicle is re-evaluated on its next position even if it did not move.
func (e *Engine) SetZones(zones []domain.Zone) {
	next := make([]domain.Zone, len(zones))
	copy(next, zones)
	if reflect.DeepEqual(next, e.zones) {
		return
	}

	rules := make(map[string]domain.RuleKind, len(next))
	for _, z := range next {
		rules[z.ID] = z.Rule
	}
	stale := make(map[string]struct{})
	for _, z := range e.zones {
		if rule, ok := rules[z.ID]; !ok || rule != z.Rule {
			stale[z.ID] = struct{}{}
		}
	}

	if len(stale) > 0 {
		inStale := func(k domain.ViolationKey) bool {
			_, ok := stale[k.ZoneID]
			return ok
		}
		e.scheduler.HideIf(inStale)
		cleared := e.registry.ClearMatching(inStale)
		for id, s := range e.snapshots {
			if _, ok := stale[s.ZoneID]; ok && s.Inside {
				e.snapshots[id] = domain.ContainmentSnapshot{}
			}
		}
		slog.Info("zones removed", "zones", len(stale), "violations_cleared", len(cleared))
	}

	e.zones = next
	e.lastPosition = make(map[string]string)
	slog.Info("zones updated", "count", len(next))
}

func (e *Engine) Zones() []domain.Zone {
	out := make([]domain.Zone, len(e.zones))
	copy(out, e.zones)
	return out
}

// Dismiss is the operator closing the visible notification.
func (e *Engine) Dismiss(notificationID string) bool {
	return e.scheduler.Dismiss(notificationID)
}

// ClearViolation removes an active violation on operator request and hides
// its notification if it is the visible one.
func (e *Engine) ClearViolation(key domain.ViolationKey) bool {
	e.scheduler.HideIf(func(k domain.ViolationKey) bool { return k == key })
	cleared := e.registry.Clear(key)
	if cleared {
		slog.Info("violation cleared by operator", "violation", key.String())
	}
	return cleared
}

// ForgetVehicle drops all state held for a vehicle, including pending timers,
// and returns the number of violations cleared.
func (e *Engine) ForgetVehicle(vehicleID string) int {
	match := func(k domain.ViolationKey) bool { return k.VehicleID == vehicleID }
	e.scheduler.HideIf(match)
	cleared := e.registry.ClearMatching(match)

	delete(e.snapshots, vehicleID)
	delete(e.lastPosition, vehicleID)
	delete(e.lastSeen, vehicleID)
	delete(e.vehicles, vehicleID)

	slog.Info("vehicle forgotten", "vehicle_id", vehicleID, "violations_cleared", len(cleared))
	return len(cleared)
}

func (e *Engine) CurrentNotification() (domain.Notification, bool) {
	return e.scheduler.Current()
}

func (e *Engine) ActiveViolations() []domain.ActiveViolation {
	return e.registry.Active()
}

func (e *Engine) IsActive(key domain.ViolationKey) bool {
	return e.registry.IsActive(key)
}

func (e *Engine) IsDismissed(key domain.ViolationKey) bool {
	return e.registry.IsDismissed(key)
}

// VehicleStatus reports the last evaluated containment of a vehicle and, when
// it is outside every zone, the nearest one.
func (e *Engine) VehicleStatus(vehicleID string) (VehicleStatus, bool) {
	v, ok := e.vehicles[vehicleID]
	if !ok {
		return VehicleStatus{}, false
	}
	st := VehicleStatus{Vehicle: v, Snapshot: e.snapshots[vehicleID]}
	if v.Position != nil && !st.Snapshot.Inside {
		if nearest, ok := NearestZone(v.Position.Point(), e.zones); ok {
			st.Nearest = &nearest
		}
	}
	return st, true
}

// Close cancels every pending timer, hides the visible notification and waits
// for in-flight persistence. The engine ignores positions afterwards.
func (e *Engine) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.scheduler.Close()
	e.registry.Reset()
	e.persister.Wait()
}

package service

import (
	"sort"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
)

type registryEntry struct {
	violation domain.ActiveViolation
	reshow    Timer
}

// Registry holds the active violations and the operator-dismissed keys. It is
// not safe for concurrent use; Engine owns it on its event loop.
type Registry struct {
	active    map[domain.ViolationKey]*registryEntry
	dismissed map[domain.ViolationKey]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		active:    make(map[domain.ViolationKey]*registryEntry),
		dismissed: make(map[domain.ViolationKey]struct{}),
	}
}

// Activate inserts or overwrites the violation for key. A pending re-show
// timer survives the overwrite.
func (r *Registry) Activate(key domain.ViolationKey, v domain.ActiveViolation) {
	v.Key = key
	if e, ok := r.active[key]; ok {
		e.violation = v
		return
	}
	r.active[key] = &registryEntry{violation: v}
}

func (r *Registry) IsActive(key domain.ViolationKey) bool {
	_, ok := r.active[key]
	return ok
}

func (r *Registry) Get(key domain.ViolationKey) (domain.ActiveViolation, bool) {
	e, ok := r.active[key]
	if !ok {
		return domain.ActiveViolation{}, false
	}
	return e.violation, true
}

// Clear removes the violation, forgets any dismissal of it and cancels its
// pending re-show, so the next occurrence is treated as new.
func (r *Registry) Clear(key domain.ViolationKey) bool {
	delete(r.dismissed, key)
	e, ok := r.active[key]
	if !ok {
		return false
	}
	stopTimer(e.reshow)
	delete(r.active, key)
	return true
}

func (r *Registry) IsDismissed(key domain.ViolationKey) bool {
	_, ok := r.dismissed[key]
	return ok
}

func (r *Registry) Dismiss(key domain.ViolationKey) {
	r.dismissed[key] = struct{}{}
	r.cancelReshow(key)
}

// setReshow replaces the key's pending re-show timer. It is dropped, and the
// timer stopped, when the key is not active.
func (r *Registry) setReshow(key domain.ViolationKey, t Timer) {
	e, ok := r.active[key]
	if !ok {
		stopTimer(t)
		return
	}
	stopTimer(e.reshow)
	e.reshow = t
}

func (r *Registry) cancelReshow(key domain.ViolationKey) {
	if e, ok := r.active[key]; ok {
		stopTimer(e.reshow)
		e.reshow = nil
	}
}

// reshowFired forgets the timer handle once it has run.
func (r *Registry) reshowFired(key domain.ViolationKey) {
	if e, ok := r.active[key]; ok {
		e.reshow = nil
	}
}

// Keys returns the active keys matching fn.
func (r *Registry) Keys(fn func(domain.ViolationKey) bool) []domain.ViolationKey {
	var keys []domain.ViolationKey
	for k := range r.active {
		if fn == nil || fn(k) {
			keys = append(keys, k)
		}
	}
	sortKeys(keys)
	return keys
}

// ClearMatching clears every active or dismissed key matching fn.
func (r *Registry) ClearMatching(fn func(domain.ViolationKey) bool) []domain.ViolationKey {
	cleared := r.Keys(fn)
	for _, k := range cleared {
		r.Clear(k)
	}
	for k := range r.dismissed {
		if fn(k) {
			delete(r.dismissed, k)
		}
	}
	return cleared
}

// Active lists the active violations ordered by detection time.
func (r *Registry) Active() []domain.ActiveViolation {
	out := make([]domain.ActiveViolation, 0, len(r.active))
	for _, e := range r.active {
		out = append(out, e.violation)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].DetectedAt.Equal(out[j].DetectedAt) {
			return out[i].DetectedAt.Before(out[j].DetectedAt)
		}
		return out[i].Key.String() < out[j].Key.String()
	})
	return out
}

func (r *Registry) Len() int {
	return len(r.active)
}

// Reset stops every pending timer and empties the registry.
func (r *Registry) Reset() {
	for _, e := range r.active {
		stopTimer(e.reshow)
	}
	r.active = make(map[domain.ViolationKey]*registryEntry)
	r.dismissed = make(map[domain.ViolationKey]struct{})
}

func sortKeys(keys []domain.ViolationKey) {
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
}

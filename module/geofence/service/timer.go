package service

import "time"

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop reports whether the call prevented the callback from running.
	Stop() bool
}

// Timers schedules callbacks. Implementations used by Engine must run the
// callback on the same goroutine that drives the engine.
type Timers interface {
	AfterFunc(d time.Duration, f func()) Timer
}

func stopTimer(t Timer) {
	if t != nil {
		t.Stop()
	}
}

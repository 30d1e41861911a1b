package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

var ErrStopped = errors.New("dispatcher stopped")

// Dispatcher runs tasks one at a time on the goroutine that calls Run. Timers
// created through it fire on the same goroutine, so the state they touch never
// needs a lock.
type Dispatcher struct {
	tasks chan func()
	done  chan struct{}
	once  sync.Once
}

func NewDispatcher(buffer int) *Dispatcher {
	if buffer < 0 {
		buffer = 0
	}
	return &Dispatcher{
		tasks: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run executes queued tasks until ctx is cancelled. It must be called once.
func (d *Dispatcher) Run(ctx context.Context) error {
	defer d.once.Do(func() { close(d.done) })
	slog.Info("dispatcher started")

	for {
		select {
		case <-ctx.Done():
			slog.Info("dispatcher stopped", "reason", ctx.Err())
			return ctx.Err()
		case fn := <-d.tasks:
			fn()
		}
	}
}

// Do runs fn on the loop and waits for it to finish.
func (d *Dispatcher) Do(ctx context.Context, fn func()) error {
	if d.stopped() {
		return ErrStopped
	}
	finished := make(chan struct{})
	task := func() {
		defer close(finished)
		fn()
	}

	select {
	case d.tasks <- task:
	case <-d.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-finished:
		return nil
	case <-d.done:
		// Run may have returned between accepting the task and running it.
		select {
		case <-finished:
			return nil
		default:
			return ErrStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Post queues fn without waiting. It reports false once the loop is gone.
func (d *Dispatcher) Post(fn func()) bool {
	if d.stopped() {
		return false
	}
	select {
	case d.tasks <- fn:
		return true
	case <-d.done:
		return false
	}
}

func (d *Dispatcher) stopped() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}

// Timers returns a Timers whose callbacks are posted back onto the loop.
func (d *Dispatcher) Timers() Timers {
	return loopTimers{d: d}
}

type loopTimers struct {
	d *Dispatcher
}

func (lt loopTimers) AfterFunc(delay time.Duration, f func()) Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(delay, func() {
		lt.d.Post(func() {
			// Stop may have been called after the timer fired but before
			// this task reached the loop.
			if t.stopped {
				return
			}
			t.stopped = true
			f()
		})
	})
	return t
}

// loopTimer is only stopped from the loop goroutine, which is also where the
// stopped flag is read, so the flag needs no synchronisation.
type loopTimer struct {
	timer   *time.Timer
	stopped bool
}

func (t *loopTimer) Stop() bool {
	if t.stopped {
		return false
	}
	t.stopped = true
	t.timer.Stop()
	return true
}

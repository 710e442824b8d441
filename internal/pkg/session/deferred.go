package session

import (
	"time"
)

// Deferred is a handle to a task that runs once after a fixed delay.
// The handle is owned by the session that scheduled it; the session joins it
// with Wait before tearing down.
type Deferred struct {
	done chan struct{}
	err  error
}

// Schedule runs fn on its own goroutine after delay and returns its handle.
// fn must only use data it owns; the scheduling session may already have
// stopped reading by the time fn runs.
func Schedule(delay time.Duration, fn func() error) *Deferred {
	d := &Deferred{done: make(chan struct{})}
	go func() {
		defer close(d.done)
		timer := time.NewTimer(delay)
		defer timer.Stop()
		<-timer.C
		d.err = fn()
	}()
	return d
}

// Wait blocks until the task has finished and returns its error.
// A nil handle is treated as already finished.
func (d *Deferred) Wait() error {
	if d == nil {
		return nil
	}
	<-d.done
	return d.err
}

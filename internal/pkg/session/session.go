// Package session holds the per-stream protocol state shared by the server
// handler: the state machine states, the diagnostics session counter, and
// the deferred task handle.
package session

import (
	"sync/atomic"
)

// State is a server session's position in the Context exchange.
type State int

// Session states. A session starts in AwaitFirst and ends in Done.
const (
	AwaitFirst State = iota
	AfterFirst
	AfterSecond
	Done
)

func (s State) String() string {
	switch s {
	case AwaitFirst:
		return "AWAIT_FIRST"
	case AfterFirst:
		return "AFTER_FIRST"
	case AfterSecond:
		return "AFTER_SECOND"
	case Done:
		return "DONE"
	}
	return "UNKNOWN"
}

// Version returns the result set version produced on receiving a Context in
// state s, or 0 if the state does not produce one.
func (s State) Version() uint32 {
	switch s {
	case AwaitFirst:
		return 1
	case AfterFirst:
		return 2
	}
	return 0
}

// Next returns the state following s after a Context has been handled.
func (s State) Next() State {
	switch s {
	case AwaitFirst:
		return AfterFirst
	case AfterFirst:
		return AfterSecond
	}
	return Done
}

var counter atomic.Uint64

// NextID returns the next process-wide session id, starting at 1.
// Session ids are for diagnostics only.
func NextID() uint64 {
	return counter.Add(1)
}

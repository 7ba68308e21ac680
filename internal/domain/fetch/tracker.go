// Package fetch tracks the lifecycle of a single remote resource.
//
// A Tracker is in one of four states: Idle, InFlight, Succeeded or Failed.
// Each request started with Begin gets a sequence number; results carrying an
// outdated sequence number are discarded, so a Reset while a request is
// outstanding guarantees its result is never applied.
package fetch

import "sync"

// Status is the tag of the request state.
type Status int

const (
	Idle Status = iota
	InFlight
	Succeeded
	Failed
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case Idle:
		return "idle"
	case InFlight:
		return "in_flight"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// State is a point-in-time copy of a Tracker.
// Data holds the last successfully applied value, also while Failed or InFlight.
type State[T any] struct {
	Status Status
	Seq    uint64
	Data   T
	Err    error
}

// Tracker is a single-flight request state machine. The zero value is Idle.
type Tracker[T any] struct {
	mu     sync.Mutex
	status Status
	seq    uint64
	data   T
	err    error
}

// Begin starts a request.
// PRE: none
// POST: returns (seq, true) and moves to InFlight, or (current seq, false) if a request is already in flight
func (t *Tracker[T]) Begin() (uint64, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == InFlight {
		return t.seq, false
	}
	t.seq++
	t.status = InFlight
	return t.seq, true
}

// Complete applies a successful result computed from the previous data.
// PRE: seq was returned by Begin
// POST: returns false and changes nothing when seq is stale
func (t *Tracker[T]) Complete(seq uint64, apply func(prev T) T) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if seq != t.seq || t.status != InFlight {
		return false
	}
	t.data = apply(t.data)
	t.status = Succeeded
	t.err = nil
	return true
}

// Fail records a failed request, keeping the previous data.
// PRE: seq was returned by Begin
// POST: returns false and changes nothing when seq is stale
func (t *Tracker[T]) Fail(seq uint64, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if seq != t.seq || t.status != InFlight {
		return false
	}
	t.status = Failed
	t.err = err
	return true
}

// Reset drops the data and invalidates any outstanding request.
// PRE: none
// POST: state is Idle with zero data; the sequence number has advanced
func (t *Tracker[T]) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	var zero T
	t.seq++
	t.status = Idle
	t.data = zero
	t.err = nil
}

// Snapshot returns the current state.
func (t *Tracker[T]) Snapshot() State[T] {
	t.mu.Lock()
	defer t.mu.Unlock()
	return State[T]{Status: t.status, Seq: t.seq, Data: t.data, Err: t.err}
}

// Package job provides job kinds and the overlap guard for batch passes.
package job

import "sync/atomic"

// Kind identifies a batch job type
type Kind string

const (
	// KindTrendScore is the daily trend score calculation pass
	KindTrendScore Kind = "trend_score"
	// KindAlertEvaluation is the alert evaluation pass
	KindAlertEvaluation Kind = "alert_evaluation"
)

// State represents the run state of a job kind
type State int32

const (
	// StateIdle means no pass of this job kind is in flight
	StateIdle State = iota
	// StateRunning means a pass is currently in flight
	StateRunning
)

// Guard enforces at-most-one in-flight pass per job kind. A second
// invocation while one is running must skip, not queue and not error.
type Guard struct {
	kind  Kind
	state atomic.Int32
}

// NewGuard creates a guard for the given job kind, initially idle
func NewGuard(kind Kind) *Guard {
	return &Guard{kind: kind}
}

// Kind returns the job kind this guard protects
func (g *Guard) Kind() Kind {
	return g.kind
}

// TryStart atomically moves the guard from Idle to Running. It returns
// false when a pass is already in flight, in which case the caller must
// skip its pass without doing any work.
func (g *Guard) TryStart() bool {
	return g.state.CompareAndSwap(int32(StateIdle), int32(StateRunning))
}

// Done returns the guard to Idle. Callers pair it with a successful
// TryStart, typically via defer.
func (g *Guard) Done() {
	g.state.Store(int32(StateIdle))
}

// State returns the current run state
func (g *Guard) State() State {
	return State(g.state.Load())
}

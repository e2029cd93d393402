package core

import "sync"

// CallPhase is the lifecycle phase of one external summarization call.
// Failures are modelled as state, not as exceptions threaded through
// the assembler: a call that exhausts its retries settles in
// PhaseFallback and the pipeline continues with deterministic text.
type CallPhase string

const (
	PhasePending   CallPhase = "pending"
	PhaseRetrying  CallPhase = "retrying"
	PhaseSucceeded CallPhase = "succeeded"
	PhaseFallback  CallPhase = "fallback"
)

// CallState tracks one summarization call for run reporting.
type CallState struct {
	ItemID   int
	Kind     SummaryKind
	Phase    CallPhase
	Attempts int
}

// CallTracker records the state of every summarization call in a run.
// It is safe for concurrent use by the assembler's workers.
type CallTracker struct {
	mu    sync.Mutex
	calls []CallState
}

// NewCallTracker creates an empty CallTracker.
func NewCallTracker() *CallTracker {
	return &CallTracker{}
}

// Record appends the settled state of one call.
func (t *CallTracker) Record(state CallState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = append(t.calls, state)
}

// Settled returns a copy of all recorded call states.
func (t *CallTracker) Settled() []CallState {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]CallState, len(t.calls))
	copy(out, t.calls)
	return out
}

// Fallbacks counts calls that settled on fallback text.
func (t *CallTracker) Fallbacks() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := 0
	for _, c := range t.calls {
		if c.Phase == PhaseFallback {
			n++
		}
	}
	return n
}

package domain

import "math"

// FlowState is the lifecycle of one authorization flow.
//
//	Idle -> Loading -> {Authenticated | Cancelled}
//
// Cancel is also accepted from Idle. Authenticated is only reached from
// Loading; a native redirect seen while Idle is cancelled without an outcome.
// Terminal states have no way out.
type FlowState string

const (
	FlowStateIdle          FlowState = "idle"
	FlowStateLoading       FlowState = "loading"
	FlowStateAuthenticated FlowState = "authenticated"
	FlowStateCancelled     FlowState = "cancelled"
)

// IsTerminal reports whether no further transition is possible.
func (s FlowState) IsTerminal() bool {
	return s == FlowStateAuthenticated || s == FlowStateCancelled
}

// OutcomeKind discriminates an AuthorizationOutcome.
type OutcomeKind string

const (
	OutcomeAuthenticated OutcomeKind = "authenticated"
	OutcomeCancelled     OutcomeKind = "cancelled"
)

// AuthorizationOutcome is the single result of a flow: either a code or a
// user initiated cancel.
type AuthorizationOutcome struct {
	Kind OutcomeKind `json:"kind"`
	Code string      `json:"code,omitempty"`
}

// Authenticated returns a successful outcome carrying code.
func Authenticated(code string) AuthorizationOutcome {
	return AuthorizationOutcome{Kind: OutcomeAuthenticated, Code: code}
}

// Cancelled returns the cancel outcome.
func Cancelled() AuthorizationOutcome {
	return AuthorizationOutcome{Kind: OutcomeCancelled}
}

// State maps the outcome to the terminal state it produces.
func (o AuthorizationOutcome) State() FlowState {
	if o.Kind == OutcomeAuthenticated {
		return FlowStateAuthenticated
	}
	return FlowStateCancelled
}

// ProgressEpsilon is how close to 1.0 a load must be to count as complete.
const ProgressEpsilon = 0.0001

// LoadProgress is the presentation value for a page load estimate.
type LoadProgress struct {
	Value  float64 `json:"value"`
	Hidden bool    `json:"hidden"`
}

// NewLoadProgress clamps estimate to [0, 1] and derives the hidden flag.
func NewLoadProgress(estimate float64) LoadProgress {
	v := estimate
	switch {
	case math.IsNaN(v), v < 0:
		v = 0
	case v > 1:
		v = 1
	}
	return LoadProgress{
		Value:  v,
		Hidden: math.Abs(v-1.0) <= ProgressEpsilon,
	}
}

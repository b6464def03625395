package subscription

import "errors"

// ErrInvalidTransition is returned by ValidateTransition for any status
// edge that is not in the transition table and is not a self-transition.
// The root vault package wraps it into its sentinel taxonomy.
var ErrInvalidTransition = errors.New("subscription: invalid status transition")

// transitions is the single source of truth for status changes. Directed
// edges only; a reverse edge does not exist unless listed. Cancelled is
// terminal and has no outgoing edges.
var transitions = map[Status][]Status{
	StatusActive:              {StatusPaused, StatusCancelled, StatusInsufficientBalance, StatusGracePeriod},
	StatusPaused:              {StatusActive, StatusCancelled},
	StatusGracePeriod:         {StatusActive, StatusInsufficientBalance},
	StatusInsufficientBalance: {StatusActive, StatusCancelled},
	StatusCancelled:           {},
}

// AllowedTransitions returns the set of statuses reachable from the given
// status in one step. The returned slice is a copy; callers may mutate it.
// Self-transitions are always permitted and are not listed.
func AllowedTransitions(from Status) []Status {
	targets := transitions[from]
	out := make([]Status, len(targets))
	copy(out, targets)
	return out
}

// CanTransition reports whether the edge from -> to is permitted.
// A self-transition (from == to) is always permitted.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	for _, target := range transitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns ErrInvalidTransition if the edge from -> to is
// not permitted. Every status mutator must call this before writing; the
// table is consulted nowhere else.
func ValidateTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return ErrInvalidTransition
	}
	return nil
}

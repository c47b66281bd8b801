package service

import "fmt"

// State is a step of one orchestration.
type State int

// State values, in execution order. StateFailed is reachable from any state.
const (
	StateStarted State = iota
	StateLocatingContext
	StateLocatingFile
	StateLocatingFunction
	StateAwaitingSuggestions
	StateParsing
	StateResolving
	StateCompleted
	StateFailed
)

var stateNames = [...]string{
	StateStarted:             "STARTED",
	StateLocatingContext:     "LOCATING_CONTEXT",
	StateLocatingFile:        "LOCATING_FILE",
	StateLocatingFunction:    "LOCATING_FUNCTION",
	StateAwaitingSuggestions: "AWAITING_SUGGESTIONS",
	StateParsing:             "PARSING",
	StateResolving:           "RESOLVING",
	StateCompleted:           "COMPLETED",
	StateFailed:              "FAILED",
}

// String returns the state name.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// canAdvance reports whether to is a legal successor of s.
func (s State) canAdvance(to State) bool {
	if s.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return to == s+1 && to <= StateCompleted
}

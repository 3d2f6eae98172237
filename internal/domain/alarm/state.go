package alarm

import "slices"

// State is the lifecycle state stored in the alarmState field.
type State string

const (
	// StateRaised marks an alarm that has just been raised on a network element.
	StateRaised State = "RAISED"
	// StateUpdated marks an open alarm whose details were refreshed.
	StateUpdated State = "UPDATED"
	// StateRetry marks an open alarm whose notification is being retried.
	StateRetry State = "RETRY"
	// StateCleared marks an alarm whose condition went away.
	StateCleared State = "CLEARED"
)

// ActiveStates returns the states that keep an alarm open.
func ActiveStates() []State {
	return []State{StateRaised, StateUpdated, StateRetry}
}

// RelevantStates returns every state the masking computation looks at.
// Records in any other state are discarded before grouping.
func RelevantStates() []State {
	return append(ActiveStates(), StateCleared)
}

// Names converts states into their stored string form.
func Names(states []State) []string {
	result := make([]string, 0, len(states))
	for _, s := range states {
		result = append(result, string(s))
	}

	return result
}

// IsActive reports whether the state keeps the alarm open.
func (s State) IsActive() bool {
	return s == StateRaised || s == StateUpdated || s == StateRetry
}

// IsCleared reports whether the state is CLEARED.
func (s State) IsCleared() bool {
	return s == StateCleared
}

// IsRelevant reports whether the masking computation considers the state.
func (s State) IsRelevant() bool {
	return s.IsActive() || s.IsCleared()
}

// StateSet holds the distinct states observed within a group.
type StateSet map[State]struct{}

// NewStateSet builds a set from the provided states, collapsing duplicates.
func NewStateSet(states ...State) StateSet {
	set := make(StateSet, len(states))
	for _, s := range states {
		set.Add(s)
	}

	return set
}

// Add inserts a state into the set.
func (s StateSet) Add(state State) {
	s[state] = struct{}{}
}

// Has reports whether the set contains the state.
func (s StateSet) Has(state State) bool {
	_, ok := s[state]

	return ok
}

// Masked reports whether the set holds a CLEARED state alongside at least one
// active state. Only such groups are returned by the masking filter.
func (s StateSet) Masked() bool {
	if !s.Has(StateCleared) {
		return false
	}

	return slices.ContainsFunc(ActiveStates(), s.Has)
}

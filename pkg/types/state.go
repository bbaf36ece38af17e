package types

// LifecycleState is the optional state-machine value an item can carry in
// addition to its tier lifecycle (store/promote/migrate/compress/archive
// /delete). Unset ("") is always a valid state.
type LifecycleState string

const (
	StateUnset      LifecycleState = ""
	StatePlanning   LifecycleState = "planning"
	StateActive     LifecycleState = "active"
	StatePaused     LifecycleState = "paused"
	StateBlocked    LifecycleState = "blocked"
	StateCompleted  LifecycleState = "completed"
	StateCancelled  LifecycleState = "cancelled"
	StateSuperseded LifecycleState = "superseded"
	StateArchived   LifecycleState = "archived"
)

var validLifecycleStates = map[LifecycleState]bool{
	StateUnset: true, StatePlanning: true, StateActive: true, StatePaused: true,
	StateBlocked: true, StateCompleted: true, StateCancelled: true,
	StateSuperseded: true, StateArchived: true,
}

// IsValidLifecycleState reports whether s is a recognized state, treating
// the empty string (unset) as valid.
func IsValidLifecycleState(s LifecycleState) bool { return validLifecycleStates[s] }

// IsValidStateTransition reports whether moving from `from` to `to` is
// permitted by the lifecycle state machine.
func IsValidStateTransition(from, to LifecycleState) bool {
	if from == to {
		return true
	}
	switch from {
	case StateUnset:
		switch to {
		case StatePlanning, StateSuperseded:
			return true
		}
	case StatePlanning:
		switch to {
		case StateActive, StateCancelled:
			return true
		}
	case StateActive:
		switch to {
		case StatePaused, StateBlocked, StateCompleted, StateCancelled, StateSuperseded:
			return true
		}
	case StatePaused, StateBlocked:
		switch to {
		case StateActive, StateCancelled, StateSuperseded:
			return true
		}
	case StateCompleted, StateCancelled:
		switch to {
		case StateArchived, StateSuperseded:
			return true
		}
	case StateSuperseded:
		return to == StateArchived
	case StateArchived:
		return false
	}
	return false
}

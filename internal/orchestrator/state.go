// Package orchestrator drives a blue-green reindex migration end to end:
// create the target index, copy documents into it, validate the copy
// against the source, and only then atomically switch the alias — with a
// guarded rollback path and a retention record of what happened.
package orchestrator

// State is one step of the blue-green migration state machine.
type State string

const (
	StateIdle         State = "IDLE"
	StateCreateTarget State = "CREATE_TARGET"
	StateReindex      State = "REINDEX"
	StateValidate     State = "VALIDATE"
	StateSwitch       State = "SWITCH"
	StateRecord       State = "RECORD"
	StateDone         State = "DONE"
	StateFail         State = "FAIL"
)

// next returns the state that follows s on success. StateDone and StateFail
// are terminal and have no successor.
func next(s State) State {
	switch s {
	case StateIdle:
		return StateCreateTarget
	case StateCreateTarget:
		return StateReindex
	case StateReindex:
		return StateValidate
	case StateValidate:
		return StateSwitch
	case StateSwitch:
		return StateRecord
	case StateRecord:
		return StateDone
	default:
		return StateFail
	}
}

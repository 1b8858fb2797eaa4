// Package statemachine drives the workbench request lifecycle with statekit.
// A session is idle until a trigger moves it to generating or charting; the
// trigger's completion returns it to idle.
package statemachine

import (
	"time"

	"github.com/felixgeelhaar/statekit"
)

// State is a lifecycle state.
type State string

// Lifecycle states.
const (
	StateIdle       State = "idle"
	StateGenerating State = "generating"
	StateCharting   State = "charting"
)

// Operation names a user trigger.
type Operation string

// Triggers.
const (
	OpGenerate Operation = "generate"
	OpChart    Operation = "chart"
)

// Transition is one recorded state change.
type Transition struct {
	From   State
	To     State
	Reason string
	At     time.Time
}

// Context carries per-session lifecycle state through the machine.
type Context struct {
	Session     string
	Current     State
	Transitions []Transition
	Failures    int

	// OnTransition, when set, observes every recorded transition.
	OnTransition func(Transition)
}

// NewContext creates a context for a session.
func NewContext(session string) *Context {
	return &Context{
		Session: session,
		Current: StateIdle,
	}
}

const (
	stateIdle       statekit.StateID = statekit.StateID(StateIdle)
	stateGenerating statekit.StateID = statekit.StateID(StateGenerating)
	stateCharting   statekit.StateID = statekit.StateID(StateCharting)
)

const (
	eventGenerate statekit.EventType = "GENERATE"
	eventChart    statekit.EventType = "CHART"
	eventDone     statekit.EventType = "DONE"
	eventFail     statekit.EventType = "FAIL"
)

// NewLifecycleMachine creates the request lifecycle statechart.
func NewLifecycleMachine() (*statekit.MachineConfig[*Context], error) {
	return statekit.NewMachine[*Context]("workbench").
		WithInitial(stateIdle).
		WithContext(&Context{}).
		WithAction("enter", enterState).
		WithAction("recordTransition", recordTransition).
		WithAction("recordFailure", recordFailure).
		WithGuard("hasSession", guardHasSession).
		State(stateIdle).
			OnEntry("enter").
			On(eventGenerate).Target(stateGenerating).Guard("hasSession").Do("recordTransition").
			On(eventChart).Target(stateCharting).Guard("hasSession").Do("recordTransition").
			Done().
		State(stateGenerating).
			OnEntry("enter").
			On(eventDone).Target(stateIdle).Do("recordTransition").
			On(eventFail).Target(stateIdle).Do("recordFailure").
			Done().
		State(stateCharting).
			OnEntry("enter").
			On(eventDone).Target(stateIdle).Do("recordTransition").
			On(eventFail).Target(stateIdle).Do("recordFailure").
			Done().
		Build()
}

// EventFor returns the event that starts an operation.
func EventFor(op Operation) statekit.EventType {
	switch op {
	case OpGenerate:
		return eventGenerate
	case OpChart:
		return eventChart
	default:
		return statekit.EventType(op)
	}
}

// TargetOf returns the state an operation runs in.
func TargetOf(op Operation) State {
	switch op {
	case OpGenerate:
		return StateGenerating
	case OpChart:
		return StateCharting
	default:
		return State(op)
	}
}

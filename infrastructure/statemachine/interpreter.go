package statemachine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/felixgeelhaar/statekit"
)

// Lifecycle errors.
var (
	// ErrBusy indicates a trigger arrived while another was in flight.
	ErrBusy = errors.New("another request is in progress")

	// ErrRefused indicates the machine rejected a trigger from idle.
	ErrRefused = errors.New("request refused")

	// ErrNotRunning indicates End was called with nothing in flight.
	ErrNotRunning = errors.New("no request in progress")
)

// Lifecycle is a started interpreter for one session. It is safe for
// concurrent use.
type Lifecycle struct {
	mu     sync.Mutex
	interp *statekit.Interpreter[*Context]
	ctx    *Context
}

// NewLifecycle builds the machine and starts an interpreter over ctx.
func NewLifecycle(ctx *Context) (*Lifecycle, error) {
	machine, err := NewLifecycleMachine()
	if err != nil {
		return nil, fmt.Errorf("build lifecycle machine: %w", err)
	}
	return NewLifecycleFromMachine(machine, ctx), nil
}

// NewLifecycleFromMachine starts an interpreter for an already built machine.
func NewLifecycleFromMachine(machine *statekit.MachineConfig[*Context], ctx *Context) *Lifecycle {
	interp := statekit.NewInterpreter(machine)
	interp.UpdateContext(func(c **Context) {
		*c = ctx
	})
	interp.Start()
	ctx.Current = State(interp.State().Value)
	return &Lifecycle{interp: interp, ctx: ctx}
}

// Begin moves the session from idle into the operation's state.
func (l *Lifecycle) Begin(op Operation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	from := l.state()
	if from != StateIdle {
		return fmt.Errorf("%w: session is %s", ErrBusy, from)
	}

	to := TargetOf(op)
	l.interp.Send(statekit.Event{
		Type:    EventFor(op),
		Payload: TransitionPayload{From: from, To: to, Reason: string(op)},
	})
	if l.state() != to {
		return fmt.Errorf("%w: %s", ErrRefused, op)
	}
	return nil
}

// End returns the session to idle. A non-nil cause records a failure.
func (l *Lifecycle) End(cause error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	from := l.state()
	if from == StateIdle {
		return ErrNotRunning
	}

	event := eventDone
	reason := "done"
	if cause != nil {
		event = eventFail
		reason = cause.Error()
	}
	l.interp.Send(statekit.Event{
		Type:    event,
		Payload: TransitionPayload{From: from, To: StateIdle, Reason: reason},
	})
	return nil
}

// Run brackets fn with Begin and End. A panic in fn is recorded as a
// failure and re-raised once the session is back to idle.
func (l *Lifecycle) Run(op Operation, fn func() error) (err error) {
	if beginErr := l.Begin(op); beginErr != nil {
		return beginErr
	}
	defer func() {
		if v := recover(); v != nil {
			_ = l.End(fmt.Errorf("panic: %v", v))
			panic(v)
		}
		if endErr := l.End(err); endErr != nil && err == nil {
			err = endErr
		}
	}()
	return fn()
}

// Reset forces the session back to idle without recording a transition.
func (l *Lifecycle) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	snapshot := statekit.Snapshot[*Context]{
		MachineID:    "workbench",
		CurrentState: stateIdle,
		Context:      l.ctx,
		CreatedAt:    time.Now(),
	}
	if err := l.interp.Restore(snapshot); err != nil {
		return fmt.Errorf("failed to restore state: %w", err)
	}
	l.ctx.Current = StateIdle
	return nil
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state()
}

func (l *Lifecycle) state() State {
	return State(l.interp.State().Value)
}

// Busy reports whether an operation is in flight.
func (l *Lifecycle) Busy() bool {
	return l.State() != StateIdle
}

// Transitions returns a copy of the recorded transitions.
func (l *Lifecycle) Transitions() []Transition {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Transition, len(l.ctx.Transitions))
	copy(out, l.ctx.Transitions)
	return out
}

// Failures returns the number of failed operations.
func (l *Lifecycle) Failures() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ctx.Failures
}

// Stop stops the interpreter.
func (l *Lifecycle) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.interp.Stop()
}

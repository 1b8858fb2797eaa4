package statemachine

import (
	"time"

	"github.com/felixgeelhaar/statekit"
)

// TransitionPayload travels with every event the Lifecycle sends.
type TransitionPayload struct {
	From   State
	To     State
	Reason string
}

// enterState syncs the context with the state just entered. statekit hands
// actions a pointer to the context, so with *Context they get **Context.
func enterState(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	if payload, ok := event.Payload.(TransitionPayload); ok && payload.To != "" {
		(*ctx).Current = payload.To
	}
}

func recordTransition(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	payload, ok := event.Payload.(TransitionPayload)
	if !ok {
		return
	}

	c := *ctx
	tr := Transition{
		From:   payload.From,
		To:     payload.To,
		Reason: payload.Reason,
		At:     time.Now(),
	}
	c.Transitions = append(c.Transitions, tr)
	c.Current = payload.To
	if c.OnTransition != nil {
		c.OnTransition(tr)
	}
}

func recordFailure(ctx **Context, event statekit.Event) {
	if ctx == nil || *ctx == nil {
		return
	}
	(*ctx).Failures++
	recordTransition(ctx, event)
}

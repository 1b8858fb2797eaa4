package statemachine

import (
	"strings"

	"github.com/felixgeelhaar/statekit"
)

// guardHasSession refuses triggers for an unnamed session. Guards receive
// the context by value, which for *Context is the pointer itself.
func guardHasSession(ctx *Context, _ statekit.Event) bool {
	return ctx != nil && strings.TrimSpace(ctx.Session) != ""
}

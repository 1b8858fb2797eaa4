package logging

import (
	"strconv"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// SessionID adds a session id field.
func SessionID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("session_id", id)
	}
}

// ChartType adds a chart type field.
func ChartType(t string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("chart_type", t)
	}
}

// HandleID adds a chart handle id field.
func HandleID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("handle_id", id)
	}
}

// Axes adds the axis names a chart was built from.
func Axes(names ...string) Field {
	return func(e *bolt.Event) *bolt.Event {
		for i, n := range names {
			e = e.Str("axis_"+strconv.Itoa(i), n)
		}
		return e
	}
}

// Points adds a point count field.
func Points(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("points", n)
	}
}

// Records adds the record counts before and after window filtering.
func Records(prepared, kept int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("records", prepared).Int("kept", kept)
	}
}

// Dimension adds a dataset dimension field.
func Dimension(dim int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("dim", dim)
	}
}

// Scaling adds a size scaling field.
func Scaling(s string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("scaling", s)
	}
}

// Transition adds from and to state fields.
func Transition(from, to string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("from_state", from).Str("to_state", to)
	}
}

// URL adds a url field.
func URL(u string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("url", u)
	}
}

// Status adds an HTTP status field.
func Status(code int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("status", code)
	}
}

// Request adds HTTP method and path fields.
func Request(method, path string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("method", method).Str("path", path)
	}
}

// Backend adds a storage backend field.
func Backend(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("backend", name)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}

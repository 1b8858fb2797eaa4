package datagen

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceUnreachable indicates a network-layer failure talking to
	// the generation service.
	ErrServiceUnreachable = errors.New("data generation service unreachable")

	// ErrGenerationFailed indicates the service answered but reported
	// failure or returned no data.
	ErrGenerationFailed = errors.New("data generation failed")

	// ErrMalformedResponse indicates the response body could not be decoded.
	ErrMalformedResponse = errors.New("malformed generation response")
)

// UnreachableError carries the connectivity hint shown to the user.
type UnreachableError struct {
	BaseURL string
	Err     error
}

func (e *UnreachableError) Error() string {
	return fmt.Sprintf("Cannot connect to the data generation server. Check that it is running at %s", e.BaseURL)
}

// Unwrap returns ErrServiceUnreachable and the transport error.
func (e *UnreachableError) Unwrap() []error {
	return []error{ErrServiceUnreachable, e.Err}
}

// APIError is a non-2xx response from the service.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.Status, e.Body)
}

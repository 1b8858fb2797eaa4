package dataset

import "errors"

// Domain errors for dataset operations.
var (
	// ErrAxisNotFound indicates an axis name is not declared by the dataset.
	ErrAxisNotFound = errors.New("axis not found")

	// ErrInvalidRequest indicates a generation request failed validation.
	ErrInvalidRequest = errors.New("invalid generation request")

	// ErrMalformedSample indicates a sample is not a [coordinates, value] pair.
	ErrMalformedSample = errors.New("malformed sample")
)

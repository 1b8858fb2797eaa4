package application

import (
	"errors"

	"github.com/felixgeelhaar/chartgen/infrastructure/statemachine"
)

// Application errors.
var (
	// ErrBusy indicates a trigger arrived while another was in flight for
	// the same session.
	ErrBusy = statemachine.ErrBusy

	// ErrNoChart indicates the session has no live chart.
	ErrNoChart = errors.New("no chart has been created yet")

	// ErrGeneratorRequired indicates the workbench was built without a
	// data generator.
	ErrGeneratorRequired = errors.New("data generator is required")

	// ErrStoreRequired indicates the workbench was built without a
	// session store.
	ErrStoreRequired = errors.New("session store is required")
)

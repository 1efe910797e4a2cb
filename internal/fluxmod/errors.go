package fluxmod

import "errors"

// Domain errors for model registration and evaluation.
var (
	// ErrDuplicateLabel indicates a variable label was registered twice.
	ErrDuplicateLabel = errors.New("fluxmod: duplicate variable label")

	// ErrDuplicateFlux indicates a flux label was registered twice.
	ErrDuplicateFlux = errors.New("fluxmod: duplicate flux label")

	// ErrShapeMismatch indicates flux output and variable shapes cannot
	// be reconciled. Detected at first evaluation, not registration.
	ErrShapeMismatch = errors.New("fluxmod: shape mismatch")

	// ErrTimeUnset indicates the time axis was not supplied before
	// registering time-dependent quantities or solving.
	ErrTimeUnset = errors.New("fluxmod: time axis not set")

	// ErrUnknownLabel indicates a reference to a label that was never
	// registered.
	ErrUnknownLabel = errors.New("fluxmod: unknown label")
)

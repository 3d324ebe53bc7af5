package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is returned when generation or placement parameters are rejected
// before any work begins.
var ErrInvalidConfig = errors.New("invalid config")

// ErrLengthExceeded is returned when grammar expansion grows past the configured bound.
var ErrLengthExceeded = errors.New("grammar length exceeded")

// ErrUnbalancedStack is returned when turtle interpretation pops an empty stack or
// finishes with branches still open.
var ErrUnbalancedStack = errors.New("unbalanced stack")

// ErrDensityUnmet accompanies a partial forest layout. It is informational.
var ErrDensityUnmet = errors.New("density unmet")

// ErrSpeciesNotFound is returned when a species name is not in the catalog.
var ErrSpeciesNotFound = errors.New("species not found")

// ErrMeshNotFound is returned by mesh stores for unknown keys.
var ErrMeshNotFound = errors.New("mesh not found")

// InvalidConfigError names the offending option.
type InvalidConfigError struct {
	Field  string
	Reason string
}

func (e *InvalidConfigError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e *InvalidConfigError) Unwrap() error {
	return ErrInvalidConfig
}

// Invalid is shorthand for building an InvalidConfigError.
func Invalid(field, reason string) error {
	return &InvalidConfigError{Field: field, Reason: reason}
}

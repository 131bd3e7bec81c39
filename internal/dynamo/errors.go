package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for engine operations.
var (
	// ErrInvalidStateVector indicates a state vector with the wrong length,
	// a non-finite component or a zero position.
	ErrInvalidStateVector = errors.New("dynamo: invalid state vector")

	// ErrInvalidMass indicates a non-positive asteroid mass or a negative interceptor mass.
	ErrInvalidMass = errors.New("dynamo: invalid mass")

	// ErrInvalidLeadTime indicates a non-positive lead time to impact.
	ErrInvalidLeadTime = errors.New("dynamo: invalid lead time to impact")

	// ErrInvalidDeltaV indicates a negative or non-finite delta-v.
	ErrInvalidDeltaV = errors.New("dynamo: invalid delta-v")

	// ErrInvalidHorizon indicates a non-positive duration or fewer than two points.
	ErrInvalidHorizon = errors.New("dynamo: invalid propagation horizon")

	// ErrUndefinedDeflectionDirection indicates a zero velocity vector.
	ErrUndefinedDeflectionDirection = errors.New("dynamo: undefined deflection direction (zero velocity)")

	// ErrConvergenceFailure indicates Kepler's equation did not converge.
	// It triggers the linear fallback and is only ever logged.
	ErrConvergenceFailure = errors.New("dynamo: kepler solver did not converge")

	// ErrPropagationFailed indicates an unrecoverable numeric failure.
	ErrPropagationFailed = errors.New("dynamo: propagation produced non-finite state")

	// ErrCorridorGenerationFailed indicates the nominal sample itself failed.
	ErrCorridorGenerationFailed = errors.New("dynamo: corridor generation failed (nominal sample)")

	// ErrPartialCorridorResult marks corridor warnings for dropped samples.
	ErrPartialCorridorResult = errors.New("dynamo: partial corridor result")

	// ErrCancelledComputation indicates the caller cancelled the computation.
	ErrCancelledComputation = errors.New("dynamo: computation cancelled")
)

// ValidationError wraps a boundary rejection with the offending field.
type ValidationError struct {
	Field   string
	Value   float64
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s=%g", e.Wrapped.Error(), e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error {
	return e.Wrapped
}

// SampleFailure records a dropped corridor sample.
type SampleFailure struct {
	Index   int
	Wrapped error
}

func (e SampleFailure) Error() string {
	return fmt.Sprintf("sample %d: %v", e.Index, e.Wrapped)
}

func (e SampleFailure) Unwrap() error {
	return e.Wrapped
}

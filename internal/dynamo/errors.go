package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for kernel and simulation operations.
var (
	// ErrContractViolation is the parent of every precondition failure at the
	// kernel boundary. Callers can test for it with errors.Is.
	ErrContractViolation = errors.New("dynamo: contract violation")

	// ErrLengthMismatch indicates masses, positions and velocities differ in length.
	ErrLengthMismatch = fmt.Errorf("%w: array length mismatch", ErrContractViolation)

	// ErrUnsupportedSize indicates an ensemble size the kernel was not configured for.
	ErrUnsupportedSize = fmt.Errorf("%w: unsupported ensemble size", ErrContractViolation)

	// ErrIndexOutOfRange indicates a body index outside [0, N).
	ErrIndexOutOfRange = fmt.Errorf("%w: body index out of range", ErrContractViolation)

	// ErrNonPositiveMass indicates a mass <= 0 under the rejecting mass policy.
	ErrNonPositiveMass = fmt.Errorf("%w: non-positive mass", ErrContractViolation)

	// ErrNegativeSteps indicates a negative requested step count.
	ErrNegativeSteps = fmt.Errorf("%w: negative step count", ErrContractViolation)

	// ErrEmpty indicates an ensemble with no bodies.
	ErrEmpty = fmt.Errorf("%w: empty ensemble", ErrContractViolation)

	// ErrNumericBreakdown indicates a step produced a non-finite value.
	ErrNumericBreakdown = errors.New("dynamo: numeric breakdown (NaN or Inf detected)")

	// ErrParameterBounds indicates a configuration value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")
)

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Leap    int
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("leap %d step %d (t=%.4g): %v", e.Leap, e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}

package pandora

import (
	"errors"
	"fmt"
)

var (
	// ErrInput classifies every *InputError.
	//
	// Use errors.Is(err, pandora.ErrInput) to detect invalid shapes or arguments.
	ErrInput = errors.New("invalid input")

	// ErrComputation classifies every *ComputationError.
	ErrComputation = errors.New("computation failed")
)

// InputError indicates a caller-supplied value with the wrong shape or range:
// dimensionality mismatches, empty codebooks, out of range ranks or ratios,
// and under-sized training samples.
//
// Retrying an InputError without changing the input is pointless.
type InputError struct {
	// Op names the operation that rejected the input (e.g. "codebook.Nearest").
	Op  string
	Msg string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// Is reports whether target is ErrInput.
func (e *InputError) Is(target error) bool { return target == ErrInput }

// ComputationError indicates a numerical routine failed, e.g. a singular value
// decomposition that did not converge.
//
// The underlying error (if any) can be accessed via errors.Unwrap.
type ComputationError struct {
	Op    string
	Msg   string
	cause error
}

func (e *ComputationError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// Is reports whether target is ErrComputation.
func (e *ComputationError) Is(target error) bool { return target == ErrComputation }

func (e *ComputationError) Unwrap() error { return e.cause }

// NewInputError returns an *InputError for op with a formatted message.
func NewInputError(op, format string, args ...any) *InputError {
	return &InputError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// NewComputationError returns a *ComputationError for op wrapping cause.
func NewComputationError(op, msg string, cause error) *ComputationError {
	return &ComputationError{Op: op, Msg: msg, cause: cause}
}

// DimensionMismatch returns the *InputError used for every length check.
func DimensionMismatch(op string, expected, actual int) *InputError {
	return NewInputError(op, "dimension mismatch: expected %d, got %d", expected, actual)
}

package parstat

import (
	"errors"
	"fmt"
)

// Common sentinel errors for the parstat package.
var (
	// ErrEmptySeries is returned when an operation receives an empty series.
	ErrEmptySeries = errors.New("empty series")

	// ErrLengthMismatch is returned when two series must have equal lengths.
	ErrLengthMismatch = errors.New("series length mismatch")

	// ErrInvalidWindow is returned for non-positive or oversized windows.
	ErrInvalidWindow = errors.New("invalid window")

	// ErrInvalidGroupKey is returned when a group key is outside the bounded
	// group-id space.
	ErrInvalidGroupKey = errors.New("invalid group key")

	// ErrDeviceUnavailable is returned when a device operation is requested
	// but no device is usable.
	ErrDeviceUnavailable = errors.New("device unavailable")

	// ErrPoolExhausted is returned when a buffer request exceeds the device
	// memory pool capacity.
	ErrPoolExhausted = errors.New("device memory pool exhausted")

	// ErrComputation is returned when an operation would produce a degenerate
	// result, such as correlation over a zero-variance series.
	ErrComputation = errors.New("computation error")

	// ErrInvalidConfig is returned by New for invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ComputeErrorType categorizes compute errors.
type ComputeErrorType int

const (
	// ComputeErrorTypeUnknown is an unclassified error.
	ComputeErrorTypeUnknown ComputeErrorType = iota
	// ComputeErrorTypeInput indicates the input failed shape validation.
	ComputeErrorTypeInput
	// ComputeErrorTypeDevice indicates a device allocation or launch failure.
	ComputeErrorTypeDevice
	// ComputeErrorTypePool indicates the buffer pool could not serve the request.
	ComputeErrorTypePool
	// ComputeErrorTypeComputation indicates a degenerate numeric result.
	ComputeErrorTypeComputation
)

// ComputeError provides detailed information about operation failures.
type ComputeError struct {
	Type    ComputeErrorType
	Op      Operation
	Message string
	Cause   error
}

func (e *ComputeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *ComputeError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for ComputeError.
func (e *ComputeError) Is(target error) bool {
	switch e.Type {
	case ComputeErrorTypeDevice:
		return target == ErrDeviceUnavailable
	case ComputeErrorTypePool:
		return target == ErrPoolExhausted
	case ComputeErrorTypeComputation:
		return target == ErrComputation
	}
	return false
}

// newComputeError creates a new ComputeError.
func newComputeError(errType ComputeErrorType, op Operation, message string, cause error) *ComputeError {
	return &ComputeError{
		Type:    errType,
		Op:      op,
		Message: message,
		Cause:   cause,
	}
}

// inputError wraps a sentinel input error with operation context.
func inputError(op Operation, sentinel error, detail string) error {
	return newComputeError(ComputeErrorTypeInput, op, detail, sentinel)
}

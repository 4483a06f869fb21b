package serialization

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrHeaderTooLarge    = errors.New("header exceeds maximum size")
	ErrOutOfBounds       = errors.New("tensor extends beyond data section")
	ErrUnsupportedDType  = errors.New("unsupported dtype")
	ErrShapeMismatch     = errors.New("tensor size does not match shape")
	ErrInvalidTensorName = errors.New("invalid tensor name")
)

// ValidationError names the tensor a header check failed on.
type ValidationError struct {
	Tensor string
	Err    error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("tensor %q: %v", e.Tensor, e.Err)
}

// Unwrap returns the underlying sentinel.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

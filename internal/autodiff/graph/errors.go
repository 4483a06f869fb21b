package graph

import (
	"github.com/pkg/errors"
)

// Invariant violations detected by the autodiff engine. None of them is
// recoverable: the engine panics with an error wrapping one of these values,
// so callers that recover can still classify the failure with errors.Is.
var (
	ErrMissingRootStep     = errors.New("root must have a registered step")
	ErrDoubleRegistration  = errors.New("step registered twice for the same node")
	ErrStepNodeMismatch    = errors.New("step belongs to a different node than its handle")
	ErrNoParents           = errors.New("operation result needs at least one parent")
	ErrNonLeafRequireGrad  = errors.New("cannot convert a non-leaf into a tracked leaf")
	ErrMissingGradient     = errors.New("gradient consumed before it was registered")
	ErrMissingState        = errors.New("no backward state for node")
	ErrStateType           = errors.New("backward state has unexpected type")
	ErrUnresolvedState     = errors.New("backward state was not recomputed")
	ErrMissingRetroForward = errors.New("no retro-forward registered for recompute node")
)

// Panicf panics with err annotated by a formatted message and a stack trace.
func Panicf(err error, format string, args ...any) {
	panic(errors.Wrapf(err, format, args...))
}

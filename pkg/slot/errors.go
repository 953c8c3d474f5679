package slot

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by slot operations.
//
// Callers should use [errors.Is] to check error types:
//
//	if errors.Is(err, slot.ErrConstruction) {
//	    // the constructor failed; see the policy for whether to retry
//	}
var (
	// ErrConstruction indicates the constructor of a slot failed.
	//
	// Every error returned from [Slot.Get] matches this sentinel. The concrete
	// value is a [*ConstructionError] carrying the underlying cause.
	ErrConstruction = errors.New("slot: construction failed")

	// ErrPanic indicates the constructor panicked. The panic is recovered and
	// reported as a construction failure wrapping this sentinel.
	ErrPanic = errors.New("slot: constructor panicked")

	// ErrUnknown indicates a lookup for a name that was never registered.
	ErrUnknown = errors.New("slot: unknown name")

	// ErrDuplicate indicates an attempt to register a name twice.
	ErrDuplicate = errors.New("slot: duplicate registration")

	// ErrSealed indicates an attempt to register in a sealed registry.
	ErrSealed = errors.New("slot: sealed registry")

	// ErrInvalidKey indicates an empty or whitespace-only slot name.
	ErrInvalidKey = errors.New("slot: invalid name")

	// ErrNilConstructor indicates a nil constructor was passed to a registry.
	//
	// This is a programming error.
	ErrNilConstructor = errors.New("slot: nil constructor")

	// ErrTypeMismatch indicates [Resolve] found an instance of another type.
	ErrTypeMismatch = errors.New("slot: type mismatch")

	// ErrUnknownPolicy indicates [ParsePolicy] did not recognize its input.
	ErrUnknownPolicy = errors.New("slot: unknown policy")
)

// ConstructionError reports a failed constructor invocation.
//
// It matches both [ErrConstruction] and the wrapped cause under [errors.Is].
type ConstructionError struct {
	// Name is the slot name, empty for anonymous slots.
	Name string

	// Attempt is the 1-based constructor invocation that failed.
	Attempt int64

	// Err is the error returned by the constructor.
	Err error
}

func (e *ConstructionError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("slot: construction failed (attempt %d): %v", e.Attempt, e.Err)
	}

	return fmt.Sprintf("slot %q: construction failed (attempt %d): %v", e.Name, e.Attempt, e.Err)
}

// Unwrap returns [ErrConstruction] and the underlying cause.
func (e *ConstructionError) Unwrap() []error {
	return []error{ErrConstruction, e.Err}
}

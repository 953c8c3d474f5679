package slot

import (
	"fmt"
	"strings"
)

// State is the lifecycle position of a slot.
//
// Transitions:
//
//	Uninitialized -> Constructing        first caller wins the lock
//	Constructing  -> Ready               constructor succeeded (terminal)
//	Constructing  -> Uninitialized       constructor failed, Retry policy
//	Constructing  -> Failed              constructor failed, FailFast policy (terminal)
type State int32

const (
	Uninitialized State = iota
	Constructing
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Constructing:
		return "constructing"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Policy selects how a slot reacts to a failing constructor.
type Policy int

const (
	// Retry leaves the slot empty after a failure so a later Get can retry.
	Retry Policy = iota

	// FailFast makes the first failure permanent.
	FailFast
)

func (p Policy) String() string {
	switch p {
	case Retry:
		return "retry"
	case FailFast:
		return "fail-fast"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy converts "retry" or "fail-fast" (case-insensitive, "failfast"
// and "fail_fast" accepted) into a [Policy].
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "retry":
		return Retry, nil
	case "fail-fast", "failfast", "fail_fast":
		return FailFast, nil
	default:
		return Retry, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

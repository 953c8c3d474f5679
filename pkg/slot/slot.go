package slot

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Constructor builds the value held by a slot.
//
// It is invoked at most once per successful construction and never
// concurrently with itself for the same slot.
type Constructor[T any] func() (T, error)

// Hook observes constructor invocations. It is called on the constructing
// goroutine, with the slot's mutex held, right before the constructor runs.
// The returned function, if non-nil, is called with the constructor's
// result once the slot's new state is published.
//
// Panics from a hook or its done function propagate to the caller of Get.
// A panic from the hook leaves the slot untouched and does not count as an
// attempt.
type Hook func(name string, attempt int64) (done func(err error))

// Option configures a [Slot].
type Option func(*options)

type options struct {
	name   string
	policy Policy
	hook   Hook
	doc    string
}

// WithPolicy sets the failure policy. The default is [Retry].
func WithPolicy(p Policy) Option { return func(o *options) { o.policy = p } }

// WithName sets the name reported in errors, hooks and [Status].
func WithName(name string) Option { return func(o *options) { o.name = name } }

// WithHook installs a construction observer.
func WithHook(h Hook) Option { return func(o *options) { o.hook = h } }

// WithDoc attaches a human-readable note, surfaced by [Registry.Status].
func WithDoc(doc string) Option { return func(o *options) { o.doc = doc } }

// Slot lazily constructs and then holds a single value of type T.
//
// The zero value is not usable; create slots with [New], [Eager] or
// [NewStatic]. A Slot must not be copied after first use.
type Slot[T any] struct {
	// instance is published once with Store and read lock-free with Load.
	instance atomic.Pointer[T]
	// failure is set once under FailFast and never cleared.
	failure  atomic.Pointer[ConstructionError]
	state    atomic.Int32
	attempts atomic.Int64

	mu   sync.Mutex
	ctor Constructor[T]
	opts options
}

// New returns an empty slot that will build its value with ctor on first use.
// It panics if ctor is nil.
func New[T any](ctor Constructor[T], opts ...Option) *Slot[T] {
	if ctor == nil {
		panic(ErrNilConstructor)
	}

	s := &Slot[T]{ctor: ctor}
	for _, fn := range opts {
		fn(&s.opts)
	}

	return s
}

// Get returns the slot's value, constructing it if this is the first
// successful call.
//
// On failure the returned error is a [*ConstructionError]. Under [Retry] the
// slot stays empty; under [FailFast] the same error is returned forever.
func (s *Slot[T]) Get() (T, error) {
	if v := s.instance.Load(); v != nil {
		return *v, nil
	}

	if f := s.failure.Load(); f != nil {
		var zero T
		return zero, f
	}

	return s.getSlow()
}

// MustGet is like [Slot.Get] but panics on construction failure.
func (s *Slot[T]) MustGet() T {
	v, err := s.Get()
	if err != nil {
		panic(err)
	}

	return v
}

func (s *Slot[T]) getSlow() (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have finished while we waited for the lock.
	if v := s.instance.Load(); v != nil {
		return *v, nil
	}

	if f := s.failure.Load(); f != nil {
		var zero T
		return zero, f
	}

	// attempts only changes under mu. Nothing is modified until the hook
	// has returned.
	attempt := s.attempts.Load() + 1

	var done func(error)
	if s.opts.hook != nil {
		done = s.opts.hook(s.opts.name, attempt)
	}

	s.attempts.Store(attempt)
	s.state.Store(int32(Constructing))

	v, err := s.construct()

	var cerr *ConstructionError

	switch {
	case err == nil:
		s.instance.Store(&v)
		s.state.Store(int32(Ready))
	case s.opts.policy == FailFast:
		cerr = &ConstructionError{Name: s.opts.name, Attempt: attempt, Err: err}
		s.failure.Store(cerr)
		s.state.Store(int32(Failed))
	default:
		cerr = &ConstructionError{Name: s.opts.name, Attempt: attempt, Err: err}
		s.state.Store(int32(Uninitialized))
	}

	// done runs after the outcome is published.
	if done != nil {
		done(err)
	}

	if cerr != nil {
		var zero T
		return zero, cerr
	}

	return v, nil
}

func (s *Slot[T]) construct() (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()

	return s.ctor()
}

// State reports the slot's current lifecycle state.
func (s *Slot[T]) State() State { return State(s.state.Load()) }

// Attempts reports how many times the constructor has been invoked.
func (s *Slot[T]) Attempts() int64 { return s.attempts.Load() }

// Policy reports the slot's failure policy.
func (s *Slot[T]) Policy() Policy { return s.opts.policy }

// Name reports the slot's name, empty for anonymous slots.
func (s *Slot[T]) Name() string { return s.opts.name }

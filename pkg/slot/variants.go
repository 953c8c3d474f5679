package slot

import (
	"slices"
	"sync"
)

// Eager returns a slot that already holds v.
//
// The slot starts [Ready] and its constructor is never invoked, so
// [Slot.Attempts] stays zero.
func Eager[T any](v T, opts ...Option) *Slot[T] {
	s := New(func() (T, error) { return v, nil }, opts...)
	s.instance.Store(&v)
	s.state.Store(int32(Ready))

	return s
}

// NewStatic constructs the slot's value immediately.
//
// The slot always uses [FailFast]: if construction fails, the returned error
// is the terminal [*ConstructionError] and the returned slot keeps reporting
// it from [Slot.Get].
func NewStatic[T any](ctor Constructor[T], opts ...Option) (*Slot[T], error) {
	s := New(ctor, append(slices.Clip(opts), WithPolicy(FailFast))...)

	_, err := s.Get()

	return s, err
}

// MustStatic is like [NewStatic] but panics if construction fails. It is
// meant for package initialization where a failure is unrecoverable.
func MustStatic[T any](ctor Constructor[T], opts ...Option) *Slot[T] {
	s, err := NewStatic(ctor, opts...)
	if err != nil {
		panic(err)
	}

	return s
}

// Holder returns an accessor that calls ctor once and then returns its
// results forever, errors included. A panic in ctor is re-raised on every
// call.
func Holder[T any](ctor Constructor[T]) func() (T, error) {
	if ctor == nil {
		panic(ErrNilConstructor)
	}

	return sync.OnceValues(ctor)
}

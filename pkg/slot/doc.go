// Package slot provides lazily constructed, process-wide singleton slots.
//
// A [Slot] holds at most one instance of a resource. The instance is built on
// the first call to [Slot.Get] and every later call returns the identical
// value. Concurrent first callers are serialized so that exactly one
// construction runs; the rest wait for it and observe the fully built result.
//
// # Basic Usage
//
//	db := slot.New(func() (*sql.DB, error) {
//	    return sql.Open("sqlite", "file:app.db")
//	})
//
//	conn, err := db.Get()
//	if err != nil {
//	    // errors.Is(err, slot.ErrConstruction) is always true here
//	}
//
// Callers receive the slot (or a [Registry] holding it) as a dependency
// instead of reaching for a package-level variable.
//
// # Policies
//
// A failing constructor is handled according to the slot's [Policy]:
//   - [Retry] (default): the error is returned to the caller that triggered
//     construction and the slot stays empty. The next Get tries again.
//   - [FailFast]: the first error is terminal. Every later Get returns the
//     same [*ConstructionError] and the constructor never runs again.
//
// # Concurrency
//
// Get is safe for concurrent use. Once the instance is published, Get is a
// single atomic load and never touches the slot's mutex. Construction runs
// while holding the per-slot mutex; callers arriving during construction
// block until it finishes.
//
// # Variants
//
// [Eager] wraps an already built value, [NewStatic] constructs immediately
// and reports failure to the creator, and [Holder] returns a plain accessor
// function backed by [sync.OnceValues].
package slot

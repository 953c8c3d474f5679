// Package demo provides the resource the lazyslot playground constructs.
package demo

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/calvinalkan/lazyslot/pkg/slot"
)

// ErrUnavailable is returned by constructors told to fail.
var ErrUnavailable = errors.New("database unavailable")

// Database is a stand-in for an expensive shared resource.
type Database struct {
	ID        uuid.UUID
	DSN       string
	Pool      int
	CreatedAt time.Time
}

func (d *Database) String() string {
	return fmt.Sprintf("db[%s dsn=%s pool=%d]", d.ID, d.DSN, d.Pool)
}

// Factory builds Database constructors with injectable latency and failures.
//
// A Factory is safe for concurrent use; Calls counts every constructor
// invocation across all constructors it produced.
type Factory struct {
	DSN       string
	Pool      int
	Delay     time.Duration
	FailFirst int

	calls atomic.Int64
}

// NewFactory returns a Factory with a pool size of 4.
func NewFactory(dsn string, delay time.Duration, failFirst int) *Factory {
	return &Factory{
		DSN:       dsn,
		Pool:      4,
		Delay:     delay,
		FailFirst: failFirst,
	}
}

// Calls returns how many times constructors from f have run.
func (f *Factory) Calls() int64 { return f.calls.Load() }

// Constructor returns a constructor for use with [slot.New].
func (f *Factory) Constructor() slot.Constructor[*Database] {
	return func() (*Database, error) {
		n := f.calls.Add(1)

		if f.Delay > 0 {
			time.Sleep(f.Delay)
		}

		if n <= int64(f.FailFirst) {
			return nil, fmt.Errorf("connect %s (call %d): %w", f.DSN, n, ErrUnavailable)
		}

		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generate id: %w", err)
		}

		return &Database{
			ID:        id,
			DSN:       f.DSN,
			Pool:      f.Pool,
			CreatedAt: time.Now(),
		}, nil
	}
}

// Any adapts the constructor for [slot.Registry.Register].
func (f *Factory) Any() slot.Constructor[any] {
	ctor := f.Constructor()

	return func() (any, error) {
		db, err := ctor()
		if err != nil {
			return nil, err
		}

		return db, nil
	}
}

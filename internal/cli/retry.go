package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/lazyslot/internal/demo"
	"github.com/calvinalkan/lazyslot/pkg/slot"
)

// RetryCmd returns the retry command.
func RetryCmd(a *app) *Command {
	fs := flag.NewFlagSet("retry", flag.ContinueOnError)
	fs.Int("fail-first", 0, "Constructor calls that fail before one succeeds (default config fail_first, at least 1)")
	fs.Int("calls", 0, "Number of Get calls to make (default fail-first + 2)")

	return &Command{
		Flags: fs,
		Usage: "retry [flags]",
		Short: "Show how a failing constructor is handled",
		Long: "Call Get repeatedly on a slot whose constructor fails a fixed number of times.\n" +
			"With --policy=retry the slot recovers; with --policy=fail-fast the first failure is final.",
		Examples: []string{
			"retry --fail-first 3",
			"--policy=fail-fast retry --calls 5",
		},
		Slots: true,
		Exec: func(ctx context.Context, io *IO, _ []string) error {
			return execRetry(ctx, io, a, fs)
		},
	}
}

func execRetry(ctx context.Context, io *IO, a *app, fs *flag.FlagSet) error {
	failFirst := max(a.cfg.FailFirst, 1)
	if fs.Changed("fail-first") {
		failFirst, _ = fs.GetInt("fail-first")
		if failFirst < 0 {
			return errors.New("--fail-first cannot be negative")
		}
	}

	calls, _ := fs.GetInt("calls")
	if !fs.Changed("calls") {
		calls = failFirst + 2
	}

	if calls <= 0 {
		return errors.New("--calls must be greater than zero")
	}

	factory := demo.NewFactory(a.cfg.DSN, a.cfg.Delay, failFirst)
	s := slot.New(factory.Constructor(),
		slot.WithName("database"),
		slot.WithPolicy(a.cfg.PolicyValue),
		slot.WithHook(a.hook),
	)

	io.KV("policy", s.Policy())

	var first *demo.Database

	for i := 1; i <= calls; i++ {
		if ctx.Err() != nil {
			return errCanceled
		}

		db, err := s.Get()
		if err != nil {
			io.Printf("get %d: error: %v\n", i, err)
			continue
		}

		same := first == nil || first == db
		if first == nil {
			first = db
		}

		io.Printf("get %d: ok %s same=%t\n", i, db.ID, same)
	}

	io.Printf("constructions=%d state=%s\n", factory.Calls(), s.State())

	if first == nil {
		io.Warn("slot never became ready", "this is expected under fail-fast; use --policy=retry to recover")
	}

	return nil
}

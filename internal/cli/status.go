package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/lazyslot/internal/config"
	"github.com/calvinalkan/lazyslot/internal/demo"
	"github.com/calvinalkan/lazyslot/pkg/slot"
)

// StatusCmd returns the status command.
func StatusCmd(a *app) *Command {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.StringSlice("resolve", []string{"primary"}, "Slots to resolve before reporting")

	return &Command{
		Flags: fs,
		Usage: "status [flags]",
		Short: "Show the state of every registered slot",
		Long: "Populate a registry with the demo slots, resolve the ones named by\n" +
			"--resolve, then print each slot's state, attempts and policy.",
		Examples: []string{
			"status --resolve primary,replica",
			"--policy=fail-fast status --resolve replica",
		},
		Slots: true,
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execStatus(io, a, fs)
		},
	}
}

func execStatus(io *IO, a *app, fs *flag.FlagSet) error {
	reg, err := newRegistry(a)
	if err != nil {
		return err
	}

	names, _ := fs.GetStringSlice("resolve")
	for _, name := range names {
		if _, err := reg.Get(name); err != nil {
			if errors.Is(err, slot.ErrUnknown) || errors.Is(err, slot.ErrInvalidKey) {
				return err
			}

			io.Warn(err.Error(), "run status again; retry slots construct on the next resolve")
		}
	}

	printStatus(io, reg.Status())

	return nil
}

func printStatus(io *IO, rows []slot.Status) {
	io.Printf("%-8s %-14s %-8s %-10s %s\n", "NAME", "STATE", "ATTEMPTS", "POLICY", "DOC")

	for _, row := range rows {
		io.Printf("%-8s %-14s %-8d %-10s %s\n", row.Name, row.State, row.Attempts, row.Policy, row.Doc)
	}
}

// newRegistry builds the demo registry shared by status and repl.
func newRegistry(a *app) (*slot.Registry, error) {
	reg := slot.NewRegistry(
		slot.WithDefaultPolicy(a.cfg.PolicyValue),
		slot.WithRegistryHook(a.hook),
	)

	replicaFailures := max(a.cfg.FailFirst, 1)

	cfg := a.cfg

	err := errors.Join(
		reg.Register("primary", demo.NewFactory(a.cfg.DSN, a.cfg.Delay, 0).Any(),
			slot.WithDoc("primary database")),
		reg.Register("replica", demo.NewFactory(a.cfg.DSN+"?replica", a.cfg.Delay, replicaFailures).Any(),
			slot.WithDoc("replica that refuses its first connects")),
		slot.Provide(reg, "config", func() (config.Config, error) { return cfg, nil },
			slot.WithDoc("effective configuration")),
	)
	if err != nil {
		return nil, err
	}

	reg.Seal()

	return reg, nil
}

package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/lazyslot/internal/demo"
	"github.com/calvinalkan/lazyslot/pkg/slot"
)

// VariantsCmd returns the variants command.
func VariantsCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("variants", flag.ContinueOnError),
		Usage: "variants",
		Short: "Compare eager, static, holder and lazy slots",
		Long: "Build one slot of each initialization style and report when the\n" +
			"constructor ran and whether repeated access returns the same instance.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execVariants(io, a)
		},
	}
}

func execVariants(io *IO, a *app) error {
	opts := func(name string) []slot.Option {
		return []slot.Option{slot.WithName(name), slot.WithHook(a.hook)}
	}

	// eager: built by the caller before the slot exists
	eagerFactory := demo.NewFactory(a.cfg.DSN, 0, 0)

	db, err := eagerFactory.Constructor()()
	if err != nil {
		return err
	}

	eager := slot.Eager(db, opts("eager")...)
	printVariant(io, "eager", eager, eagerFactory)

	// static: constructed when the slot is created
	staticFactory := demo.NewFactory(a.cfg.DSN, 0, 0)

	static, err := slot.NewStatic(staticFactory.Constructor(), opts("static")...)
	if err != nil {
		return err
	}

	printVariant(io, "static", static, staticFactory)

	// holder: sync.OnceValues accessor
	holderFactory := demo.NewFactory(a.cfg.DSN, 0, 0)
	get := slot.Holder(holderFactory.Constructor())
	before := holderFactory.Calls()

	h1, err := get()
	if err != nil {
		return err
	}

	h2, _ := get()
	io.Printf("%-7s calls_before=%d calls_after=%d same=%t\n", "holder", before, holderFactory.Calls(), h1 == h2)

	// lazy: double-checked slot
	lazyFactory := demo.NewFactory(a.cfg.DSN, 0, 0)
	lazy := slot.New(lazyFactory.Constructor(), append(opts("lazy"), slot.WithPolicy(a.cfg.PolicyValue))...)
	printVariant(io, "lazy", lazy, lazyFactory)

	return nil
}

func printVariant(io *IO, label string, s *slot.Slot[*demo.Database], f *demo.Factory) {
	before := f.Calls()
	state := s.State()

	first, err := s.Get()
	if err != nil {
		io.Printf("%-7s state_before=%s error=%v\n", label, state, err)
		return
	}

	second, _ := s.Get()

	io.Printf("%-7s state_before=%s calls_before=%d calls_after=%d attempts=%d same=%t\n",
		label, state, before, f.Calls(), s.Attempts(), first == second)
}

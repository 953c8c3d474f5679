package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

// Command is one lazyslot subcommand.
type Command struct {
	Flags *flag.FlagSet

	// Usage starts with the command name, e.g. "race [flags]".
	Usage string
	Short string
	// Long replaces Short in "lazyslot <cmd> --help" when set.
	Long string

	// Examples are argument lists shown under "Examples:", without the
	// leading "lazyslot".
	Examples []string

	// Slots reports that the command builds slots from config, so its help
	// lists the policy and workers it would use.
	Slots bool

	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name is the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")
	return name
}

// HelpLine is the command's row in the top-level usage listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-22s %s", c.Usage, c.Short)
}

// PrintHelp writes "lazyslot <cmd> --help" output. a may be nil.
func (c *Command) PrintHelp(o *IO, a *app) {
	o.Println("Usage: lazyslot", c.Usage)
	o.Println()

	if c.Long != "" {
		o.Println(c.Long)
	} else {
		o.Println(c.Short)
	}

	if c.Flags != nil && c.Flags.HasFlags() {
		o.Println()
		o.Println("Flags:")
		o.Printf("%s", c.Flags.FlagUsages())
	}

	if c.Slots && a != nil {
		o.Println()
		o.Printf("Current config: policy=%s workers=%d construct_delay=%s fail_first=%d\n",
			a.cfg.Policy, a.cfg.Workers, a.cfg.Delay, a.cfg.FailFirst)
	}

	if len(c.Examples) > 0 {
		o.Println()
		o.Println("Examples:")

		for _, ex := range c.Examples {
			o.Println("  lazyslot", ex)
		}
	}
}

// Run parses args into Flags and calls Exec. It returns the exit code and
// prints any error itself.
func (c *Command) Run(ctx context.Context, o *IO, a *app, args []string) int {
	c.Flags.SetOutput(&strings.Builder{})

	if err := c.Flags.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			c.PrintHelp(o, a)
			return 0
		}

		o.ErrPrintln("error:", err)
		o.ErrPrintf("run 'lazyslot %s --help' for usage\n", c.Name())

		return 1
	}

	if err := c.Exec(ctx, o, c.Flags.Args()); err != nil {
		o.ErrPrintln("error:", err)
		return 1
	}

	return 0
}

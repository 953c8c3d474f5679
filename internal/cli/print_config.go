package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/lazyslot/internal/config"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, io *IO, _ []string) error {
			return execPrintConfig(io, a.cfg)
		},
	}
}

func execPrintConfig(io *IO, cfg config.Config) error {
	formatted, err := config.Format(cfg)
	if err != nil {
		return err
	}

	io.Println(formatted)
	io.Println("")
	io.Println("# sources")
	io.KV("effective_cwd", cfg.EffectiveCwd)

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		io.Println("(defaults only)")
	} else {
		if cfg.Sources.Global != "" {
			io.KV("global_config", cfg.Sources.Global)
		}

		if cfg.Sources.Project != "" {
			io.KV("project_config", cfg.Sources.Project)
		}
	}

	return nil
}

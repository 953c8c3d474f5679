package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/calvinalkan/lazyslot/internal/config"
	"github.com/calvinalkan/lazyslot/internal/telemetry"
	"github.com/calvinalkan/lazyslot/pkg/slot"
)

// app carries the resolved dependencies every command needs. It is filled
// in by Run after the global flags and config are loaded.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	hook   slot.Hook
	in     io.Reader
	env    map[string]string
}

// Run is the main entry point. Returns exit code.
//
// A value on sigCh cancels the context passed to the command.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	a := &app{in: in, env: env}
	commands := allCommands(a)

	globals := flag.NewFlagSet("lazyslot", flag.ContinueOnError)
	globals.SetInterspersed(false)
	globals.SetOutput(io.Discard)

	workDir := globals.StringP("cwd", "C", "", "Run as if started in `dir`")
	configPath := globals.StringP("config", "c", "", "Use specified config `file`")
	policy := globals.String("policy", "", "Failure policy: retry or fail-fast")
	workers := globals.Int("workers", 0, "Override config workers")
	delay := globals.String("delay", "", "Override config construct_delay (Go `duration`)")
	failFirst := globals.Int("fail-first", 0, "Override config fail_first")
	verbose := globals.BoolP("verbose", "v", false, "Log every construction attempt")
	help := globals.BoolP("help", "h", false, "Show help")

	if len(args) > 0 {
		args = args[1:]
	}

	if err := globals.Parse(args); err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut, globals, commands)

		return 1
	}

	rest := globals.Args()
	if *help || len(rest) == 0 {
		printUsage(out, globals, commands)

		return 0
	}

	cmd, ok := findCommand(commands, rest[0])
	if !ok {
		fprintln(errOut, "error: unknown command:", rest[0])
		printUsage(errOut, globals, commands)

		return 1
	}

	overrides := config.Overrides{Policy: *policy, ConstructDelay: *delay}

	if globals.Changed("workers") {
		overrides.Workers = workers
	}

	if globals.Changed("fail-first") {
		overrides.FailFirst = failFirst
	}

	if *verbose {
		overrides.LogLevel = "debug"
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: *workDir,
		ConfigPath:      *configPath,
		Overrides:       overrides,
		Env:             env,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	logger, err := telemetry.NewLogger(cfg.LogLevel, errOut)
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	defer func() { _ = logger.Sync() }()

	provider, err := telemetry.NewProvider(ctx, telemetry.TraceConfig{
		Enabled:      cfg.Tracing.Enabled,
		Exporter:     cfg.Tracing.Exporter,
		FilePath:     cfg.Tracing.FilePath,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		ServiceName:  cfg.Tracing.ServiceName,
	})
	if err != nil {
		fprintln(errOut, "error:", err)

		return 1
	}

	defer func() {
		if shutdownErr := provider.Shutdown(context.Background()); shutdownErr != nil {
			logger.Warn("trace shutdown", zap.Error(shutdownErr))
		}
	}()

	a.cfg = cfg
	a.logger = logger
	a.hook = telemetry.LogHook(logger)

	if provider.Enabled() {
		a.hook = telemetry.Multi(a.hook, telemetry.TraceHook(provider.Tracer()))
	}

	o := NewIO(out, errOut)

	if code := cmd.Run(ctx, o, a, rest[1:]); code != 0 {
		return code
	}

	return o.Finish()
}

// errCanceled is returned by commands interrupted by a signal.
var errCanceled = errors.New("interrupted")

func allCommands(a *app) []*Command {
	return []*Command{
		RaceCmd(a),
		RetryCmd(a),
		VariantsCmd(a),
		StatusCmd(a),
		ReplCmd(a),
		PrintConfigCmd(a),
	}
}

func findCommand(commands []*Command, name string) (*Command, bool) {
	for _, c := range commands {
		if c.Name() == name {
			return c, true
		}
	}

	return nil, false
}

func printUsage(w io.Writer, globals *flag.FlagSet, commands []*Command) {
	fprintln(w, "lazyslot - lazily constructed singletons, demonstrated")
	fprintln(w)
	fprintln(w, "Usage: lazyslot [options] <command> [args]")
	fprintln(w)
	fprintln(w, "Options:")
	fprintln(w, globals.FlagUsages())
	fprintln(w, "Commands:")

	for _, c := range commands {
		fprintln(w, c.HelpLine())
	}
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

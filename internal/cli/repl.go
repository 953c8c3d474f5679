package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/lazyslot/internal/demo"
	"github.com/calvinalkan/lazyslot/internal/instancelock"
	"github.com/calvinalkan/lazyslot/pkg/slot"
)

// ReplCmd returns the repl command.
func ReplCmd(a *app) *Command {
	fs := flag.NewFlagSet("repl", flag.ContinueOnError)
	fs.String("lock", "", "Instance lock `file` (default $TMPDIR/lazyslot/repl.lock)")

	return &Command{
		Flags: fs,
		Usage: "repl [flags]",
		Short: "Resolve registry slots interactively",
		Long: "Open an interactive shell over the demo registry. Only one repl per\n" +
			"lock file may run on a host at a time.",
		Examples: []string{
			"repl",
			"repl --lock /tmp/lazyslot-a.lock",
		},
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execRepl(ctx, o, a, fs)
		},
	}
}

// lineReader is the subset of *liner.State the repl uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// scanReader reads lines from a non-terminal input.
type scanReader struct {
	scanner *bufio.Scanner
}

func (r *scanReader) Prompt(string) (string, error) {
	if r.scanner.Scan() {
		return r.scanner.Text(), nil
	}

	if err := r.scanner.Err(); err != nil {
		return "", err
	}

	return "", io.EOF
}

func (*scanReader) AppendHistory(string) {}

func (*scanReader) Close() error { return nil }

func newLineReader(in io.Reader, names []string) lineReader {
	if f, ok := in.(*os.File); ok && f == os.Stdin && liner.TerminalSupported() {
		l := liner.NewLiner()
		l.SetCtrlCAborts(true)
		l.SetCompleter(func(line string) []string {
			return complete(line, names)
		})

		return l
	}

	if in == nil {
		in = strings.NewReader("")
	}

	return &scanReader{scanner: bufio.NewScanner(in)}
}

var replCommands = []string{"get", "status", "names", "help", "exit"}

func complete(line string, names []string) []string {
	var out []string

	if after, ok := strings.CutPrefix(line, "get "); ok {
		for _, n := range names {
			if strings.HasPrefix(n, after) {
				out = append(out, "get "+n)
			}
		}

		return out
	}

	for _, c := range replCommands {
		if strings.HasPrefix(c, line) {
			out = append(out, c)
		}
	}

	return out
}

func execRepl(ctx context.Context, o *IO, a *app, fs *flag.FlagSet) error {
	lockPath, _ := fs.GetString("lock")
	if lockPath == "" {
		lockPath = filepath.Join(os.TempDir(), "lazyslot", "repl.lock")
	}

	lock, err := instancelock.Acquire(lockPath)
	if err != nil {
		return err
	}

	defer func() { _ = lock.Release() }()

	reg, err := newRegistry(a)
	if err != nil {
		return err
	}

	lr := newLineReader(a.in, reg.Names())
	defer func() { _ = lr.Close() }()

	o.Println("lazyslot repl - type 'help' for commands")

	for {
		if ctx.Err() != nil {
			return errCanceled
		}

		line, err := lr.Prompt("lazyslot> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				o.Println("bye")

				return nil
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lr.AppendHistory(line)

		parts := strings.Fields(line)

		switch strings.ToLower(parts[0]) {
		case "exit", "quit", "q":
			o.Println("bye")

			return nil
		case "help", "?":
			printReplHelp(o)
		case "names", "ls":
			for _, n := range reg.Names() {
				o.Println(n)
			}
		case "status":
			printStatus(o, reg.Status())
		case "get":
			if len(parts) != 2 {
				o.Println("usage: get <name>")

				continue
			}

			replGet(o, reg, parts[1])
		default:
			o.Printf("unknown command: %s (type 'help' for commands)\n", parts[0])
		}
	}
}

func replGet(o *IO, reg *slot.Registry, name string) {
	v, err := reg.Get(name)
	if err != nil {
		o.Println("error:", err)

		return
	}

	switch val := v.(type) {
	case *demo.Database:
		o.Println(val.String())
	default:
		o.Printf("%+v\n", val)
	}
}

func printReplHelp(o *IO) {
	o.Println("Commands:")
	o.Println("  get <name>   Resolve a slot, constructing it on first use")
	o.Println("  status       Show every slot's state")
	o.Println("  names        List registered slots")
	o.Println("  help         Show this help")
	o.Println("  exit         Leave the repl")
}

package cli

import (
	"fmt"
	"io"
)

// IO is a command's view of stdout and stderr.
//
// Warnings do not fail a command outright. They are repeated on stderr
// before the first line of stdout and again after the last, so piping
// through head or tail still shows them, and any warning makes the exit
// code 1.
type IO struct {
	out      io.Writer
	errOut   io.Writer
	warnings []string
	shown    bool
}

// NewIO returns an IO writing to out and errOut.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

// Warn records a problem and the action that fixes it.
func (o *IO) Warn(problem, fix string) {
	o.warnings = append(o.warnings, problem+": "+fix)
}

// Println writes a line to stdout.
func (o *IO) Println(a ...any) {
	o.showWarnings()
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout.
func (o *IO) Printf(format string, a ...any) {
	o.showWarnings()
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// KV writes a key=value line, the format of every scenario report.
func (o *IO) KV(key string, value any) {
	o.Printf("%s=%v\n", key, value)
}

// ErrPrintln writes a line to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// ErrPrintf writes formatted output to stderr.
func (o *IO) ErrPrintf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.errOut, format, a...)
}

// Finish repeats the warnings and returns 1 if there were any.
func (o *IO) Finish() int {
	if len(o.warnings) == 0 {
		return 0
	}

	o.showWarnings()
	o.writeWarnings()

	return 1
}

func (o *IO) showWarnings() {
	if o.shown || len(o.warnings) == 0 {
		return
	}

	o.shown = true
	o.writeWarnings()
}

func (o *IO) writeWarnings() {
	for _, w := range o.warnings {
		_, _ = fmt.Fprintln(o.errOut, "warning:", w)
	}
}

package cli

import (
	"fmt"
	"io"
)

// IO is the output side of a command. Commands that work through a list of
// files report each file either as done (stdout) or as a problem (stderr,
// exit code 1) and keep going.
type IO struct {
	out    io.Writer
	errOut io.Writer

	problems []problem
	done     int
}

type problem struct {
	file string
	err  error
}

// NewIO creates a new IO instance.
func NewIO(out, errOut io.Writer) *IO {
	return &IO{out: out, errOut: errOut}
}

// Done reports that file was handled, as "verb file" or just "file" when
// verb is empty.
func (o *IO) Done(verb, file string) {
	o.done++

	if verb == "" {
		o.Println(file)

		return
	}

	o.Println(verb, file)
}

// Skip counts a file that needed no work without printing anything.
func (o *IO) Skip() {
	o.done++
}

// Warn records a problem with file that did not stop the command. Problems
// are printed by [IO.Finish] after all regular output.
func (o *IO) Warn(file string, err error) {
	o.problems = append(o.problems, problem{file: file, err: err})
}

// Println writes to stdout.
func (o *IO) Println(a ...any) {
	_, _ = fmt.Fprintln(o.out, a...)
}

// Printf writes formatted output to stdout.
func (o *IO) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(o.out, format, a...)
}

// ErrPrintln writes to stderr.
func (o *IO) ErrPrintln(a ...any) {
	_, _ = fmt.Fprintln(o.errOut, a...)
}

// Finish prints the recorded problems and returns the exit code: 1 if there
// were any, 0 otherwise. When several files were reported a count follows.
func (o *IO) Finish() int {
	if len(o.problems) == 0 {
		return 0
	}

	for _, p := range o.problems {
		_, _ = fmt.Fprintf(o.errOut, "warning: %s: %v\n", p.file, p.err)
	}

	if total := o.done + len(o.problems); total > 1 {
		_, _ = fmt.Fprintf(o.errOut, "%d of %d files had problems\n", len(o.problems), total)
	}

	return 1
}

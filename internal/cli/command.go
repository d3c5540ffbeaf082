package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"
)

var errArgCount = errors.New("wrong number of arguments")

// Command is one docbind subcommand.
type Command struct {
	// Flags holds the command's own flags. Global flags are parsed before the
	// command name and never reach it.
	Flags *flag.FlagSet

	// Usage starts with the command name, followed by its arguments, e.g.
	// "set <file> <address=value>...".
	Usage string

	// Short is the line shown in the command listing.
	Short string

	// Long is shown by "docbind <cmd> --help". Short is used when empty.
	Long string

	// MinArgs and MaxArgs bound the positional arguments. MaxArgs < 0 means
	// no upper bound. Run rejects other counts before calling Exec.
	MinArgs int
	MaxArgs int

	// Exec runs the command with the positional arguments.
	Exec func(ctx context.Context, o *IO, args []string) error
}

// Name returns the command name, the first word of Usage.
func (c *Command) Name() string {
	name, _, _ := strings.Cut(c.Usage, " ")

	return name
}

// HelpLine returns the command's line in the usage listing.
func (c *Command) HelpLine() string {
	return fmt.Sprintf("  %-32s %s", c.Usage, c.Short)
}

// PrintHelp prints usage, description and flags.
func (c *Command) PrintHelp(o *IO) {
	o.Println("Usage: docbind", c.Usage)
	o.Println()

	if c.Long != "" {
		o.Println(c.Long)
	} else {
		o.Println(c.Short)
	}

	if !c.Flags.HasFlags() {
		return
	}

	var buf strings.Builder

	c.Flags.SetOutput(&buf)
	c.Flags.PrintDefaults()

	o.Println()
	o.Println("Flags:")
	o.Printf("%s", buf.String())
}

func (c *Command) checkArgs(args []string) error {
	if len(args) < c.MinArgs || (c.MaxArgs >= 0 && len(args) > c.MaxArgs) {
		return fmt.Errorf("%w (usage: docbind %s)", errArgCount, c.Usage)
	}

	return nil
}

// Run parses flags, checks the argument count and executes the command.
// It returns the exit code: 1 when Exec fails or any file had a problem.
func (c *Command) Run(ctx context.Context, o *IO, args []string) int {
	c.Flags.SetOutput(&strings.Builder{})

	err := c.Flags.Parse(args)
	if errors.Is(err, flag.ErrHelp) {
		c.PrintHelp(o)

		return 0
	}

	if err == nil {
		err = c.checkArgs(c.Flags.Args())
	}

	if err != nil {
		o.ErrPrintln("error:", err)

		return 1
	}

	err = c.Exec(ctx, o, c.Flags.Args())
	if err != nil {
		o.ErrPrintln("error:", err)
		o.Finish()

		return 1
	}

	return o.Finish()
}

package cli

import (
	"context"
	"errors"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/docbind/pkg/docbind/filestore"
)

var errNotFormatted = errors.New("not in canonical form")

// FmtCmd returns the fmt command.
func FmtCmd(a *app) *Command {
	flags := flag.NewFlagSet("fmt", flag.ContinueOnError)
	check := flags.Bool("check", false, "Report files that would change without writing them")

	return &Command{
		Flags: flags,
		Usage: "fmt [--check] <file>...",
		Short: "Rewrite documents in canonical form",
		Long: `Decode each file and write it back in canonical form.

Prints the name of every file that changed. With --check nothing is written
and each file that would change is reported as a warning.`,
		MinArgs: 1,
		MaxArgs: -1,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execFmt(ctx, o, a, args, *check)
		},
	}
}

func execFmt(ctx context.Context, o *IO, a *app, args []string, check bool) error {
	schema, err := a.rootSchema()
	if err != nil {
		return err
	}

	for _, arg := range args {
		var changed bool

		err := a.locked(arg, func() error {
			var err error

			changed, err = filestore.Reformat(ctx, a.path(arg), schema, check, a.storeOptions()...)

			return err
		})
		if err != nil {
			o.Warn(arg, err)

			continue
		}

		switch {
		case changed && check:
			o.Warn(arg, errNotFormatted)
		case changed:
			o.Done("", arg)
		default:
			o.Skip()
		}
	}

	return nil
}

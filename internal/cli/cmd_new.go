package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

// NewCmd returns the new command.
func NewCmd(a *app) *Command {
	flags := flag.NewFlagSet("new", flag.ContinueOnError)
	sets := flags.StringArrayP("set", "s", nil, "Assign `address=value` (repeatable)")

	return &Command{
		Flags: flags,
		Usage: "new [-s address=value]... <file>",
		Short: "Create a document of the root type",
		Long: `Create a new document of the root type at <file>.

The extension picks the format (.xml, .yaml, .yml, .cbor). Absent uuid
primary fields get a random UUID. Fails if the file already exists.`,
		MinArgs: 1,
		MaxArgs: 1,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execNew(ctx, o, a, args, *sets)
		},
	}
}

func execNew(ctx context.Context, o *IO, a *app, args []string, sets []string) error {
	schema, err := a.rootSchema()
	if err != nil {
		return err
	}

	return a.locked(args[0], func() error {
		e, err := a.open(ctx, schema, args[0])
		if err != nil {
			return err
		}

		if e.State() != docbind.StateCreated {
			return fmt.Errorf("%w: %s", errFileExists, args[0])
		}

		err = assign(docbind.NewCodec(), e.Root(), sets)
		if err != nil {
			return err
		}

		err = fillKeys(e.Root())
		if err != nil {
			return err
		}

		err = e.Commit(ctx)
		if err != nil {
			return err
		}

		o.Done("", args[0])

		return nil
	})
}

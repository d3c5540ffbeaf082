package cli

import (
	"context"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

// SetCmd returns the set command.
func SetCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("set", flag.ContinueOnError),
		Usage: "set <file> <address=value>...",
		Short: "Change values of a document",
		Long: `Assign values in an existing document and write it back.

An empty value clears the target. "phones[N]" with N equal to the number of
members appends a new member. Primary fields that already hold a value
cannot be changed.`,
		MinArgs: 2,
		MaxArgs: -1,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execSet(ctx, o, a, args)
		},
	}
}

func execSet(ctx context.Context, o *IO, a *app, args []string) error {
	schema, err := a.rootSchema()
	if err != nil {
		return err
	}

	return a.locked(args[0], func() error {
		e, err := a.openExisting(ctx, schema, args[0])
		if err != nil {
			return err
		}

		err = assign(docbind.NewCodec(), e.Root(), args[1:])
		if err != nil {
			return err
		}

		if !e.IsDirty() {
			return nil
		}

		err = e.Commit(ctx)
		if err != nil {
			return err
		}

		o.Done("updated", args[0])

		return nil
	})
}

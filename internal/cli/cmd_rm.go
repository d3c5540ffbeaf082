package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

// RmCmd returns the rm command.
func RmCmd(a *app) *Command {
	return &Command{
		Flags:   flag.NewFlagSet("rm", flag.ContinueOnError),
		Usage:   "rm <file>",
		Short:   "Delete a document",
		Long:    "Check that <file> is a valid document of the root type, then delete it.",
		MinArgs: 1,
		MaxArgs: 1,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execRm(ctx, o, a, args)
		},
	}
}

func execRm(ctx context.Context, o *IO, a *app, args []string) error {
	schema, err := a.rootSchema()
	if err != nil {
		return err
	}

	return a.locked(args[0], func() error {
		e, err := a.openExisting(ctx, schema, args[0])
		if err != nil {
			return err
		}

		err = e.Delete()
		if err != nil {
			return err
		}

		err = e.Commit(ctx)
		if err != nil {
			return err
		}

		o.Done("removed", args[0])

		return nil
	})
}

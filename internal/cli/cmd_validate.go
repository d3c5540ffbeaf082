package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

// ValidateCmd returns the validate command.
func ValidateCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("validate", flag.ContinueOnError),
		Usage: "validate <file>...",
		Short: "Check documents against the root type",
		Long: `Decode each file against the root type and report problems.

Prints "ok <file>" for every valid document. Invalid or missing files are
reported as warnings and make the exit code 1.`,
		MinArgs: 1,
		MaxArgs: -1,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execValidate(ctx, o, a, args)
		},
	}
}

func execValidate(ctx context.Context, o *IO, a *app, args []string) error {
	schema, err := a.rootSchema()
	if err != nil {
		return err
	}

	for _, arg := range args {
		if err := ctx.Err(); err != nil {
			return err
		}

		_, err := a.openExisting(ctx, schema, arg)
		if err != nil {
			o.Warn(arg, err)

			continue
		}

		o.Done("ok", arg)
	}

	return nil
}

package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

// ShowCmd returns the show command.
func ShowCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("show", flag.ContinueOnError),
		Usage: "show <file> [address]...",
		Short: "Print document values",
		Long: `Print the values of a document as address=value lines.

Without addresses every present value is printed in schema order. Absent
values are skipped. With addresses only those values are printed; an absent
one prints as "address=".`,
		MinArgs: 1,
		MaxArgs: -1,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execShow(ctx, o, a, args)
		},
	}
}

func execShow(ctx context.Context, o *IO, a *app, args []string) error {
	schema, err := a.rootSchema()
	if err != nil {
		return err
	}

	e, err := a.openExisting(ctx, schema, args[0])
	if err != nil {
		return err
	}

	return printValues(o, docbind.NewCodec(), e.Root(), args[1:])
}

// printValues prints addr=value lines for addrs, or for every present value
// when addrs is empty.
func printValues(o *IO, codec *docbind.Codec, root *docbind.Element, addrs []string) error {
	if len(addrs) == 0 {
		return walk(codec, root, "", func(addr, text string) {
			o.Println(addr + "=" + text)
		})
	}

	for _, addr := range addrs {
		t, err := resolve(root, addr, false)
		if err != nil {
			return err
		}

		typ, err := t.typ()
		if err != nil {
			return err
		}

		v, err := t.get()
		if err != nil {
			return err
		}

		text, _, err := codec.Encode(typ, v)
		if err != nil {
			return fmt.Errorf("%s: %w", addr, err)
		}

		o.Println(addr + "=" + text)
	}

	return nil
}

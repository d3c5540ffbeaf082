package cli

import (
	"context"
	"errors"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/docbind/internal/config"
	"github.com/calvinalkan/docbind/pkg/docbind/schemafile"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration and schema types",
		Long: `Display the effective configuration, the files it was loaded from and
the types declared by the schema file. The root type is marked with "*".

A schema file that cannot be compiled, or a root type it does not declare,
is reported as a warning.`,
		MinArgs: 0,
		MaxArgs: 0,
		Exec: func(_ context.Context, o *IO, _ []string) error {
			execPrintConfig(o, a.cfg)

			return nil
		},
	}
}

func execPrintConfig(o *IO, cfg *config.Config) {
	o.Println(config.Format(*cfg))

	o.Println("")
	o.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		o.Println("(defaults only)")
	}

	if cfg.Sources.Global != "" {
		o.Println("global_config=" + cfg.Sources.Global)
	}

	if cfg.Sources.Project != "" {
		o.Println("project_config=" + cfg.Sources.Project)
	}

	o.Println("")
	o.Println("# types")

	reg, err := schemafile.Load(cfg.SchemaFileAbs)
	if errors.Is(err, os.ErrNotExist) {
		o.Println("(schema file not found)")

		return
	}

	if err != nil {
		o.Warn(cfg.SchemaFileAbs, err)

		return
	}

	rootFound := cfg.RootType == ""

	for _, s := range reg.Schemas() {
		if cfg.RootType != "" && strings.EqualFold(s.Name(), cfg.RootType) {
			rootFound = true

			o.Println(s.Name() + " *")

			continue
		}

		o.Println(s.Name())
	}

	if !rootFound {
		o.Warn(cfg.SchemaFileAbs, errUnknownRootType)
	}
}

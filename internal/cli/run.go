// Package cli implements the docbind command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/docbind/internal/config"
)

// exitInterrupted is the exit code after a signal cancelled the command.
const exitInterrupted = 130

// Run is the main entry point. Returns exit code.
//
// args includes the program name. A signal on sigCh cancels the running
// command; sigCh may be nil.
func Run(in io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	globals := flag.NewFlagSet("docbind", flag.ContinueOnError)
	globals.SetOutput(&strings.Builder{})
	globals.SetInterspersed(false)

	workDir := globals.StringP("cwd", "C", "", "Run as if started in `dir`")
	configPath := globals.StringP("config", "c", "", "Use specified config `file`")
	schemaFile := globals.String("schema", "", "Schema `file` (overrides config)")
	rootType := globals.StringP("type", "t", "", "Root element `type` (overrides config)")
	verbose := globals.BoolP("verbose", "v", false, "Log storage operations to stderr")
	help := globals.BoolP("help", "h", false, "Show help")

	if len(args) > 0 {
		args = args[1:]
	}

	err := globals.Parse(args)
	if err != nil {
		fprintln(errOut, "error:", err)
		printUsage(errOut, globals, nil)

		return 1
	}

	// Commands are built with a config pointer filled in after loading, so
	// help output works without a valid config.
	cfg := &config.Config{}
	logger := slog.New(slog.DiscardHandler)

	if *verbose {
		logger = slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	app := &app{cfg: cfg, log: logger, in: in, env: env}
	commands := app.commands()

	rest := globals.Args()
	if *help || len(rest) == 0 {
		printUsage(out, globals, commands)

		return 0
	}

	name := rest[0]

	var cmd *Command

	for _, c := range commands {
		if c.Name() == name {
			cmd = c

			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error: unknown command:", name)
		printUsage(errOut, globals, commands)

		return 1
	}

	loaded, err := config.Load(config.LoadInput{
		WorkDirOverride:    *workDir,
		ConfigPath:         *configPath,
		SchemaFileOverride: *schemaFile,
		RootTypeOverride:   *rootType,
		Env:                env,
	})
	if err != nil && !isHelp(rest[1:]) {
		fprintln(errOut, "error:", err)

		return 1
	}

	*cfg = loaded

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sigCh != nil {
		go func() {
			select {
			case <-sigCh:
				cancel()
			case <-ctx.Done():
			}
		}()
	}

	code := cmd.Run(ctx, NewIO(out, errOut), rest[1:])

	if errors.Is(ctx.Err(), context.Canceled) {
		return exitInterrupted
	}

	return code
}

func isHelp(args []string) bool {
	for _, arg := range args {
		if arg == "-h" || arg == "--help" {
			return true
		}
	}

	return false
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}

func printUsage(w io.Writer, globals *flag.FlagSet, commands []*Command) {
	fprintln(w, `docbind - typed structured documents

Usage: docbind [options] <command> [args]

Options:`)

	var buf strings.Builder

	globals.SetOutput(&buf)
	globals.PrintDefaults()
	globals.SetOutput(&strings.Builder{})
	_, _ = io.WriteString(w, buf.String())

	if len(commands) == 0 {
		return
	}

	fprintln(w)
	fprintln(w, "Commands:")

	for _, c := range commands {
		fprintln(w, c.HelpLine())
	}
}

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

var (
	errUnknownShellCommand = errors.New("unknown shell command (try help)")
	errUncommitted         = errors.New("uncommitted changes discarded")
	errAssignmentRequired  = errors.New("set needs address=value")
)

const historyFileName = ".docbind_history"

var shellCommands = []string{"show", "set", "drop", "state", "commit", "refresh", "delete", "help", "quit"}

const shellHelp = `show [address]...    print values
set address=value    assign one value (empty value clears)
drop group[N]        remove a group member
state                print the lifecycle state
commit               write pending changes
refresh              discard edits and reload the file
delete               mark the document for removal (commit to delete)
quit                 leave the shell`

// ShellCmd returns the shell command.
func ShellCmd(a *app) *Command {
	return &Command{
		Flags: flag.NewFlagSet("shell", flag.ContinueOnError),
		Usage: "shell <file>",
		Short: "Edit a document interactively",
		Long: `Open <file> in an interactive shell. A missing file starts a new
document that is created on the first commit.

Changes are kept in memory until "commit". Leaving with uncommitted changes
discards them and exits with status 1. Type "help" inside the shell for the
list of shell commands.`,
		MinArgs: 1,
		MaxArgs: 1,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execShell(ctx, o, a, args)
		},
	}
}

func execShell(ctx context.Context, o *IO, a *app, args []string) error {
	schema, err := a.rootSchema()
	if err != nil {
		return err
	}

	e, err := a.open(ctx, schema, args[0])
	if err != nil {
		return err
	}

	s := &session{o: o, codec: docbind.NewCodec(), e: e, file: args[0]}

	lines := a.lineReader(s.complete)
	defer func() { _ = lines.Close() }()

	for ctx.Err() == nil {
		line, err := lines.Prompt("docbind> ")
		if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
			break
		}

		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		lines.AppendHistory(line)

		done, err := s.exec(ctx, line)
		if err != nil {
			o.ErrPrintln("error:", err)
		}

		if done {
			break
		}
	}

	if e.IsDirty() {
		o.Warn(args[0], errUncommitted)
	}

	return nil
}

// session is one shell over one entity.
type session struct {
	o     *IO
	codec *docbind.Codec
	e     *docbind.Entity
	file  string
}

// exec runs one shell line and reports whether the session is over.
func (s *session) exec(ctx context.Context, line string) (bool, error) {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(name) {
	case "quit", "exit", "q":
		return true, nil

	case "help":
		s.o.Println(shellHelp)

	case "state":
		s.o.Println(s.e.State())

	case "show":
		return false, printValues(s.o, s.codec, s.e.Root(), strings.Fields(rest))

	case "set":
		if rest == "" {
			return false, errAssignmentRequired
		}

		return false, assign(s.codec, s.e.Root(), []string{rest})

	case "drop":
		g, i, err := groupMember(s.e.Root(), rest)
		if err != nil {
			return false, err
		}

		return false, g.Remove(i)

	case "commit":
		return s.commit(ctx)

	case "refresh":
		err := s.e.Refresh(ctx)
		if err != nil {
			return false, err
		}

		s.o.Println("refreshed", s.file)

	case "delete":
		err := s.e.Delete()
		if err != nil {
			return false, err
		}

		s.o.Println("marked for removal; commit to delete", s.file)

	default:
		return false, fmt.Errorf("%w: %s", errUnknownShellCommand, name)
	}

	return false, nil
}

func (s *session) commit(ctx context.Context) (bool, error) {
	if s.e.State() == docbind.StateCreated {
		err := fillKeys(s.e.Root())
		if err != nil {
			return false, err
		}
	}

	removing := s.e.State() == docbind.StateRemoved

	err := s.e.Commit(ctx)
	if err != nil {
		return false, err
	}

	if removing {
		s.o.Println("removed", s.file)

		return true, nil
	}

	s.o.Println("committed", s.file)

	return false, nil
}

// complete offers shell command names, then addresses of present values.
func (s *session) complete(line string) []string {
	name, rest, hasArg := strings.Cut(line, " ")
	if !hasArg {
		var out []string

		for _, c := range shellCommands {
			if strings.HasPrefix(c, name) {
				out = append(out, c)
			}
		}

		return out
	}

	if !slices.Contains([]string{"show", "set", "drop"}, name) || s.e.Root() == nil {
		return nil
	}

	words := strings.Fields(rest)
	prefix := ""

	if len(words) > 0 && !strings.HasSuffix(rest, " ") {
		prefix = words[len(words)-1]
	}

	head := strings.TrimSuffix(line, prefix)

	var out []string

	_ = walk(s.codec, s.e.Root(), "", func(addr, _ string) {
		if strings.HasPrefix(addr, prefix) {
			if name == "set" {
				addr += "="
			}

			out = append(out, head+addr)
		}
	})

	return out
}

// lineReader is the part of [liner.State] the shell uses.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
	Close() error
}

// lineReader returns an editing line reader with history when the shell
// reads from the process's stdin, and a plain line scanner otherwise.
func (a *app) lineReader(complete func(string) []string) lineReader {
	if f, ok := a.in.(*os.File); !ok || f != os.Stdin {
		in := a.in
		if in == nil {
			in = strings.NewReader("")
		}

		return &scanReader{sc: bufio.NewScanner(in)}
	}

	l := liner.NewLiner()
	l.SetCtrlCAborts(true)
	l.SetCompleter(complete)

	r := &historyReader{State: l, path: a.historyPath()}

	if r.path != "" {
		if f, err := os.Open(r.path); err == nil {
			_, _ = l.ReadHistory(f)
			_ = f.Close()
		}
	}

	return r
}

func (a *app) historyPath() string {
	home := a.env["HOME"]
	if home == "" {
		return ""
	}

	return filepath.Join(home, historyFileName)
}

// historyReader saves the history when closed.
type historyReader struct {
	*liner.State
	path string
}

func (r *historyReader) Close() error {
	if r.path != "" {
		if f, err := os.Create(r.path); err == nil {
			_, _ = r.WriteHistory(f)
			_ = f.Close()
		}
	}

	return r.State.Close()
}

// scanReader reads lines without prompting, for piped input.
type scanReader struct {
	sc *bufio.Scanner
}

func (r *scanReader) Prompt(string) (string, error) {
	if r.sc.Scan() {
		return r.sc.Text(), nil
	}

	if err := r.sc.Err(); err != nil {
		return "", err
	}

	return "", io.EOF
}

func (*scanReader) AppendHistory(string) {}

func (*scanReader) Close() error { return nil }

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/calvinalkan/docbind/internal/config"
	"github.com/calvinalkan/docbind/pkg/docbind"
	"github.com/calvinalkan/docbind/pkg/docbind/filestore"
	"github.com/calvinalkan/docbind/pkg/docbind/schemafile"
	"github.com/calvinalkan/docbind/pkg/docbind/xmldoc"
	"github.com/calvinalkan/docbind/pkg/docbind/yamldoc"
	"github.com/calvinalkan/docbind/pkg/fs"
)

var (
	errRootTypeRequired = errors.New("root type not set (use --type or root_type in config)")
	errUnknownRootType  = errors.New("root type not declared in schema file")
	errFileNotFound     = errors.New("file not found")
	errFileExists       = errors.New("file already exists")
)

// app holds what every command needs once the config is loaded.
type app struct {
	cfg *config.Config
	log *slog.Logger
	in  io.Reader
	env map[string]string
}

func (a *app) commands() []*Command {
	return []*Command{
		ValidateCmd(a),
		FmtCmd(a),
		ShowCmd(a),
		NewCmd(a),
		SetCmd(a),
		RmCmd(a),
		ShellCmd(a),
		PrintConfigCmd(a),
	}
}

// rootSchema loads the schema file and returns the configured root type.
func (a *app) rootSchema() (*docbind.Schema, error) {
	if a.cfg.RootType == "" {
		return nil, errRootTypeRequired
	}

	reg, err := schemafile.Load(a.cfg.SchemaFileAbs)
	if err != nil {
		return nil, err
	}

	s, ok := reg.Lookup(a.cfg.RootType)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownRootType, a.cfg.RootType)
	}

	return s, nil
}

func (a *app) storeOptions() []filestore.Option {
	indent := a.cfg.IndentWidth()

	return []filestore.Option{
		filestore.WithLogger(a.log),
		filestore.WithFormat(".xml", xmldoc.Format{Indent: indent}),
		filestore.WithFormat(".yaml", yamldoc.Format{Indent: indent}),
		filestore.WithFormat(".yml", yamldoc.Format{Indent: indent}),
		filestore.WithEntityOptions(docbind.WithLogger(a.log)),
	}
}

// path resolves a file argument against the effective working directory.
func (a *app) path(arg string) string {
	if filepath.IsAbs(arg) {
		return arg
	}

	return filepath.Join(a.cfg.EffectiveCwd, arg)
}

// locked runs fn while holding the lock of the file at arg. Commands that
// read, modify and write a document hold it for the whole cycle.
func (a *app) locked(arg string, fn func() error) error {
	return fs.WithLock(a.path(arg), fs.DefaultLockTimeout, fn)
}

// open binds an entity to the file at arg.
func (a *app) open(ctx context.Context, schema *docbind.Schema, arg string) (*docbind.Entity, error) {
	return filestore.Open(ctx, a.path(arg), schema, a.storeOptions()...)
}

// openExisting is open, failing when the file does not exist.
func (a *app) openExisting(ctx context.Context, schema *docbind.Schema, arg string) (*docbind.Entity, error) {
	e, err := a.open(ctx, schema, arg)
	if err != nil {
		return nil, err
	}

	if e.State() == docbind.StateCreated {
		return nil, fmt.Errorf("%w: %s", errFileNotFound, arg)
	}

	return e, nil
}

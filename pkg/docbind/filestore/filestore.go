// Package filestore stores docbind entities as one document file each.
//
// A record lives at <root>/<type>/<key>.<ext>, where <type> is the lower-cased
// schema name and <key> joins the encoded primary key values with "_", after
// escaping "%" and "_" inside each value as "%25" and "%5F". The
// extension selects the format: ".xml" by default, plus ".yaml", ".yml" and
// ".cbor". Writes replace the file atomically.
//
//	store, err := filestore.New("data")
//	cache := docbind.NewCache(store)
//	e, err := cache.GetOrLoad(ctx, identity, id)
//
// [Open] binds a single entity to one file instead.
package filestore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/calvinalkan/docbind/pkg/docbind"
	"github.com/calvinalkan/docbind/pkg/docbind/cbordoc"
	"github.com/calvinalkan/docbind/pkg/docbind/xmldoc"
	"github.com/calvinalkan/docbind/pkg/docbind/yamldoc"
	"github.com/calvinalkan/docbind/pkg/fs"
)

// Format converts between document bytes and node trees.
type Format interface {
	Unmarshal(data []byte) (*docbind.Node, error)
	Marshal(n *docbind.Node) ([]byte, error)
}

// PathFunc maps a primary key to a path relative to the store root,
// including the extension.
type PathFunc func(s *docbind.Schema, key docbind.Key) (string, error)

// Store is a [docbind.Backend] over a directory tree.
type Store struct {
	root     string
	fsys     fs.FS
	codec    *docbind.Codec
	formats  map[string]Format
	ext      string
	pathFunc PathFunc
	log      *slog.Logger

	entityOpts []docbind.Option
}

// Option configures a [Store].
type Option func(*Store)

// WithFS replaces the filesystem. The default is [fs.Real].
func WithFS(fsys fs.FS) Option {
	return func(s *Store) { s.fsys = fsys }
}

// WithCodec sets the codec used to encode values. The default is
// [docbind.NewCodec].
func WithCodec(c *docbind.Codec) Option {
	return func(s *Store) { s.codec = c }
}

// WithFormat registers f for files ending in ext (".json", ...), replacing
// any previous format for ext.
func WithFormat(ext string, f Format) Option {
	return func(s *Store) { s.formats[strings.ToLower(ext)] = f }
}

// WithExtension sets the extension the default path function uses.
func WithExtension(ext string) Option {
	return func(s *Store) { s.ext = strings.ToLower(ext) }
}

// WithPathFunc replaces the key to path mapping.
func WithPathFunc(fn PathFunc) Option {
	return func(s *Store) { s.pathFunc = fn }
}

// WithLogger sets the logger for file operations.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithEntityOptions sets the options [Open] passes to the entity it creates.
func WithEntityOptions(opts ...docbind.Option) Option {
	return func(s *Store) { s.entityOpts = append(s.entityOpts, opts...) }
}

// New returns a store rooted at dir. The directory is created on first write.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, errors.New("filestore: root dir is empty")
	}

	s := &Store{
		root:  dir,
		fsys:  fs.NewReal(),
		codec: docbind.NewCodec(),
		formats: map[string]Format{
			".xml":  xmldoc.Format{},
			".yaml": yamldoc.Format{},
			".yml":  yamldoc.Format{},
			".cbor": cbordoc.Format{},
		},
		ext: ".xml",
		log: slog.New(slog.DiscardHandler),
	}
	s.pathFunc = s.defaultPath

	for _, opt := range opts {
		opt(s)
	}

	if _, err := s.format(s.ext); err != nil {
		return nil, err
	}

	return s, nil
}

// Root returns the directory the store was created with.
func (s *Store) Root() string { return s.root }

// Path returns the absolute or root-relative file path of a record.
func (s *Store) Path(schema *docbind.Schema, key docbind.Key) (string, error) {
	rel, err := s.pathFunc(schema, key)
	if err != nil {
		return "", err
	}

	return filepath.Join(s.root, rel), nil
}

// Load reads and decodes the record's file. A missing file fails with
// [docbind.ErrRecordNotFound].
func (s *Store) Load(ctx context.Context, schema *docbind.Schema, key docbind.Key) (*docbind.Element, error) {
	path, err := s.Path(schema, key)
	if err != nil {
		return nil, err
	}

	return s.loadFile(ctx, schema, path)
}

// Save encodes root and atomically replaces the record's file. With created
// set the file must not exist yet; an existing one fails with
// [docbind.ErrRecordExists] and is left untouched.
func (s *Store) Save(ctx context.Context, schema *docbind.Schema, key docbind.Key, root *docbind.Element, created bool) error {
	path, err := s.Path(schema, key)
	if err != nil {
		return err
	}

	return s.saveFile(ctx, path, root, created)
}

// Delete removes the record's file. A missing file is not an error.
func (s *Store) Delete(ctx context.Context, schema *docbind.Schema, key docbind.Key) error {
	path, err := s.Path(schema, key)
	if err != nil {
		return err
	}

	return s.removeFile(ctx, path)
}

func (s *Store) loadFile(ctx context.Context, schema *docbind.Schema, path string) (*docbind.Element, error) {
	root, _, err := s.readFile(ctx, schema, path)

	return root, err
}

// readFile decodes the file at path and also returns its raw bytes.
func (s *Store) readFile(ctx context.Context, schema *docbind.Schema, path string) (*docbind.Element, []byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	f, err := s.format(filepath.Ext(path))
	if err != nil {
		return nil, nil, err
	}

	data, err := s.fsys.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, fmt.Errorf("%w: %s", docbind.ErrRecordNotFound, path)
	}

	if err != nil {
		return nil, nil, fmt.Errorf("fs: %w", err)
	}

	n, err := f.Unmarshal(data)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	root, err := docbind.DecodeNode(s.codec, schema, n)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	s.log.Debug("document loaded", slog.String("schema", schema.Name()), slog.String("path", path))

	return root, data, nil
}

func (s *Store) saveFile(ctx context.Context, path string, root *docbind.Element, created bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := s.encode(path, root)
	if err != nil {
		return err
	}

	if !created {
		return s.writeFile(path, root.Schema(), data)
	}

	err = s.fsys.CreateFile(path, data)
	if errors.Is(err, os.ErrExist) {
		return fmt.Errorf("%w: %s", docbind.ErrRecordExists, path)
	}

	if err != nil {
		return fmt.Errorf("fs: %w", err)
	}

	s.log.Debug("document created", slog.String("schema", root.Schema().Name()), slog.String("path", path))

	return nil
}

func (s *Store) writeFile(path string, schema *docbind.Schema, data []byte) error {
	err := s.fsys.WriteFile(path, data)
	if err != nil {
		return fmt.Errorf("fs: %w", err)
	}

	s.log.Debug("document written", slog.String("schema", schema.Name()), slog.String("path", path))

	return nil
}

func (s *Store) encode(path string, root *docbind.Element) ([]byte, error) {
	f, err := s.format(filepath.Ext(path))
	if err != nil {
		return nil, err
	}

	n, err := docbind.EncodeNode(s.codec, root)
	if err != nil {
		return nil, err
	}

	data, err := f.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return data, nil
}

func (s *Store) removeFile(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.fsys.Remove(path)
	if err != nil {
		return fmt.Errorf("fs: %w", err)
	}

	s.log.Debug("document removed", slog.String("path", path))

	return nil
}

func (s *Store) format(ext string) (Format, error) {
	f, ok := s.formats[strings.ToLower(ext)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", docbind.ErrUnsupportedFormat, ext)
	}

	return f, nil
}

// keyEscaper keeps "_" free to join key parts, so distinct keys map to
// distinct file names.
var keyEscaper = strings.NewReplacer("%", "%25", "_", "%5F")

func (s *Store) defaultPath(schema *docbind.Schema, key docbind.Key) (string, error) {
	if len(schema.PrimaryFields()) == 0 {
		return "", fmt.Errorf("%w: %s has no primary key", docbind.ErrUnsupportedSchema, schema.Name())
	}

	err := docbind.CheckKey(schema, key)
	if err != nil {
		return "", err
	}

	parts := make([]string, len(key))

	for i, f := range schema.PrimaryFields() {
		text, _, err := s.codec.Encode(f.Type, key[i])
		if err != nil {
			return "", err
		}

		if text == "" || text == "." || text == ".." || strings.ContainsAny(text, `/\`) {
			return "", fmt.Errorf("%w: %q cannot be used in a file name", docbind.ErrInvalidKey, text)
		}

		parts[i] = keyEscaper.Replace(text)
	}

	return filepath.Join(strings.ToLower(schema.Name()), strings.Join(parts, "_")+s.ext), nil
}

// Package sqlstore stores flat docbind entities as SQLite rows.
//
// Each schema maps to one table named after the schema, with one column per
// primitive field and a composite primary key over the primary fields. Values
// are stored in their codec text form; integer and float kinds get INTEGER
// and REAL columns so SQLite's type affinity applies.
//
// Only flat schemas are supported: no attributes, no nested elements, no
// groups. Anything else fails with [docbind.ErrUnsupportedSchema].
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

// Store is a [docbind.Backend] over a SQLite database.
type Store struct {
	db     *sql.DB
	ownsDB bool
	codec  *docbind.Codec
	log    *slog.Logger
}

// Option configures a [Store].
type Option func(*Store)

// WithCodec sets the codec used to convert values to column text.
func WithCodec(c *docbind.Codec) Option {
	return func(s *Store) { s.codec = c }
}

// WithLogger sets the logger for executed statements.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// Open opens (or creates) the database at path and applies the connection
// pragmas. The store owns the connection; call [Store.Close].
func Open(ctx context.Context, path string, opts ...Option) (*Store, error) {
	db, err := openSqlite(ctx, path)
	if err != nil {
		return nil, err
	}

	s := New(db, opts...)
	s.ownsDB = true

	return s, nil
}

// New wraps an existing connection pool. The caller keeps ownership of db.
func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:    db,
		codec: docbind.NewCodec(),
		log:   slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the database if the store opened it.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}

	return s.db.Close()
}

// CreateTable creates the table for schema if it does not exist.
func (s *Store) CreateTable(ctx context.Context, schema *docbind.Schema) error {
	stmt, err := CreateTableSQL(schema)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, stmt)
	if err != nil {
		return fmt.Errorf("sqlite: create table: %w", err)
	}

	return nil
}

// Load selects the row matching key. It fails with
// [docbind.ErrRecordNotFound] unless exactly one row matches.
func (s *Store) Load(ctx context.Context, schema *docbind.Schema, key docbind.Key) (*docbind.Element, error) {
	t, err := tableFor(schema)
	if err != nil {
		return nil, err
	}

	args, err := s.keyArgs(t, key)
	if err != nil {
		return nil, err
	}

	query := "SELECT " + strings.Join(t.columns(), ", ") + " FROM " + t.name + " WHERE " + whereClause(t.primaryColumns())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: select: %w", err)
	}
	defer rows.Close()

	values := make([]sql.NullString, len(t.fields))
	dest := make([]any, len(values))

	for i := range values {
		dest[i] = &values[i]
	}

	n := 0

	for rows.Next() {
		n++
		if n > 1 {
			break
		}

		err := rows.Scan(dest...)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scan: %w", err)
		}
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("sqlite: rows: %w", err)
	}

	if n != 1 {
		return nil, fmt.Errorf("%w: %s rows match key %s in %s", docbind.ErrRecordNotFound, countWord(n), key, t.name)
	}

	// A row is decoded as a one-level document so the codec rules apply.
	node := &docbind.Node{Name: schema.Name(), Children: make([]*docbind.Node, len(t.fields))}
	for i, f := range t.fields {
		node.Children[i] = &docbind.Node{Name: f.Name, Text: values[i].String}
	}

	return docbind.DecodeNode(s.codec, schema, node)
}

// Save inserts a created row, or updates the changed non-primary columns of
// an existing one. An insert that collides with an existing key fails with
// [docbind.ErrRecordExists].
func (s *Store) Save(ctx context.Context, schema *docbind.Schema, key docbind.Key, root *docbind.Element, created bool) error {
	t, err := tableFor(schema)
	if err != nil {
		return err
	}

	if created {
		return s.insert(ctx, t, root)
	}

	return s.update(ctx, t, key, root)
}

// Delete removes the row matching key. A missing row is not an error.
func (s *Store) Delete(ctx context.Context, schema *docbind.Schema, key docbind.Key) error {
	t, err := tableFor(schema)
	if err != nil {
		return err
	}

	args, err := s.keyArgs(t, key)
	if err != nil {
		return err
	}

	query := "DELETE FROM " + t.name + " WHERE " + whereClause(t.primaryColumns())

	_, err = s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: delete: %w", err)
	}

	s.log.Debug("row deleted", slog.String("table", t.name), slog.String("key", key.String()))

	return nil
}

func (s *Store) insert(ctx context.Context, t *table, root *docbind.Element) error {
	cols := t.columns()
	args := make([]any, len(cols))

	for i, f := range t.fields {
		arg, err := s.slotArg(root, f)
		if err != nil {
			return err
		}

		args[i] = arg
	}

	query := "INSERT INTO " + t.name + " (" + strings.Join(cols, ", ") + ") VALUES (" + placeholders(cols) + ")"

	_, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: %s: %w", docbind.ErrRecordExists, t.name, err)
		}

		return fmt.Errorf("sqlite: insert: %w", err)
	}

	s.log.Debug("row inserted", slog.String("table", t.name))

	return nil
}

func (s *Store) update(ctx context.Context, t *table, key docbind.Key, root *docbind.Element) error {
	var (
		set  []string
		args []any
	)

	for _, f := range t.fields {
		if f.Primary {
			continue
		}

		slot, err := root.Slot(f.Name)
		if err != nil {
			return err
		}

		if !slot.IsChanged() {
			continue
		}

		arg, err := s.slotArg(root, f)
		if err != nil {
			return err
		}

		set = append(set, f.Name)
		args = append(args, arg)
	}

	if len(set) == 0 {
		return nil
	}

	keyArgs, err := s.keyArgs(t, key)
	if err != nil {
		return err
	}

	args = append(args, keyArgs...)

	query := UpdateSQL(t.name, set, t.primaryColumns())

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: update: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: update: %w", err)
	}

	if n != 1 {
		return fmt.Errorf("%w: update matched %s rows for key %s in %s", docbind.ErrRecordNotFound, countWord(int(n)), key, t.name)
	}

	s.log.Debug("row updated", slog.String("table", t.name), slog.Any("columns", set))

	return nil
}

func (s *Store) slotArg(root *docbind.Element, f docbind.Field) (any, error) {
	slot, err := root.Slot(f.Name)
	if err != nil {
		return nil, err
	}

	return s.namedArg(f, slot.Get())
}

func (s *Store) keyArgs(t *table, key docbind.Key) ([]any, error) {
	err := docbind.CheckKey(t.schema, key)
	if err != nil {
		return nil, err
	}

	pk := t.schema.PrimaryFields()
	args := make([]any, len(pk))

	for i, f := range pk {
		arg, err := s.namedArg(f, key[i])
		if err != nil {
			return nil, err
		}

		args[i] = arg
	}

	return args, nil
}

// namedArg binds v as codec text; absent values bind NULL.
func (s *Store) namedArg(f docbind.Field, v any) (any, error) {
	text, ok, err := s.codec.Encode(f.Type, v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}

	if !ok {
		return sql.Named(f.Name, nil), nil
	}

	return sql.Named(f.Name, text), nil
}

func countWord(n int) string {
	if n > 1 {
		return "multiple"
	}

	return fmt.Sprint(n)
}

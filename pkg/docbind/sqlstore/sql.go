package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

// openSqlite opens the database and applies the configured pragmas.
func openSqlite(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("open sqlite: path is empty")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Ensure per-connection PRAGMAs apply consistently.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	err = db.PingContext(ctx)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	err = applyPragmas(ctx, db)
	if err != nil {
		_ = db.Close()

		return nil, err
	}

	return db, nil
}

// sqliteBusyTimeout is the time SQLite waits when the database is locked.
const sqliteBusyTimeout = 5000 // milliseconds

func applyPragmas(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, fmt.Sprintf(`
		PRAGMA busy_timeout = %d;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = FULL;
		PRAGMA foreign_keys = ON;
	`, sqliteBusyTimeout))
	if err != nil {
		return fmt.Errorf("apply pragmas: %w", err)
	}

	return nil
}

// table is the relational view of a flat schema.
type table struct {
	name   string
	schema *docbind.Schema
	fields []docbind.Field
}

func tableFor(s *docbind.Schema) (*table, error) {
	if !s.IsFlat() || len(s.Attributes()) > 0 {
		return nil, fmt.Errorf("%w: %s is not flat", docbind.ErrUnsupportedSchema, s.Name())
	}

	if len(s.PrimaryFields()) == 0 {
		return nil, fmt.Errorf("%w: %s has no primary key", docbind.ErrUnsupportedSchema, s.Name())
	}

	if !isValidIdentifier(s.Name()) {
		return nil, fmt.Errorf("%w: invalid table name %q", docbind.ErrUnsupportedSchema, s.Name())
	}

	t := &table{name: s.Name(), schema: s, fields: s.Fields()}

	for _, f := range t.fields {
		if !isValidIdentifier(f.Name) {
			return nil, fmt.Errorf("%w: invalid column name %q", docbind.ErrUnsupportedSchema, f.Name)
		}
	}

	return t, nil
}

func (t *table) columns() []string {
	out := make([]string, len(t.fields))
	for i, f := range t.fields {
		out[i] = f.Name
	}

	return out
}

func (t *table) primaryColumns() []string {
	var out []string

	for _, f := range t.fields {
		if f.Primary {
			out = append(out, f.Name)
		}
	}

	return out
}

func columnType(k docbind.Kind) string {
	switch k {
	case docbind.KindByte, docbind.KindShort, docbind.KindInt32, docbind.KindInt64:
		return "INTEGER"
	case docbind.KindFloat32, docbind.KindFloat64:
		return "REAL"
	default:
		return "TEXT"
	}
}

// CreateTableSQL returns the CREATE TABLE statement for a flat schema.
func CreateTableSQL(s *docbind.Schema) (string, error) {
	t, err := tableFor(s)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(t.name)
	b.WriteString(" (\n")

	for _, f := range t.fields {
		b.WriteString("    ")
		b.WriteString(f.Name)
		b.WriteString(" ")
		b.WriteString(columnType(f.Type.Kind))

		if f.Primary {
			b.WriteString(" NOT NULL")
		}

		b.WriteString(",\n")
	}

	b.WriteString("    PRIMARY KEY (")
	b.WriteString(strings.Join(t.primaryColumns(), ", "))
	b.WriteString(")\n)")

	return b.String(), nil
}

// UpdateSQL returns an UPDATE statement setting the given columns for the
// row matching the key columns. Every value is a named parameter.
func UpdateSQL(tableName string, set []string, key []string) string {
	assignments := make([]string, len(set))
	for i, c := range set {
		assignments[i] = c + " = :" + c
	}

	return "UPDATE " + tableName + " SET " + strings.Join(assignments, ", ") + " WHERE " + whereClause(key)
}

// whereClause joins "name = :name" conditions with AND.
func whereClause(columns []string) string {
	conds := make([]string, len(columns))
	for i, c := range columns {
		conds[i] = c + " = :" + c
	}

	return strings.Join(conds, " AND ")
}

func placeholders(columns []string) string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = ":" + c
	}

	return strings.Join(out, ", ")
}

// isValidIdentifier checks if s is a plain SQL identifier: a letter or
// underscore, then letters, digits and underscores.
func isValidIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}

	return true
}

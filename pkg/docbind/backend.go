package docbind

//go:generate mockgen -source=backend.go -destination=mock_backend_test.go -package=docbind_test

import (
	"context"
	"fmt"
	"strings"
)

// Key is a primary key: one value per primary field, in declaration order.
type Key []any

// Equal reports whether k and other hold the same values.
func (k Key) Equal(other Key) bool {
	if len(k) != len(other) {
		return false
	}

	for i := range k {
		if k[i] != other[i] {
			return false
		}
	}

	return true
}

func (k Key) String() string {
	parts := make([]string, len(k))
	for i, v := range k {
		parts[i] = fmt.Sprint(v)
	}

	return strings.Join(parts, ",")
}

// Backend stores whole entity trees by primary key.
//
// Load must return a complete tree or an error, never a partial tree. It fails
// with [ErrRecordNotFound] unless exactly one record matches. Save receives the
// tree before its change tracking is reset, so backends may write only what
// changed. Delete of a missing record is not an error.
type Backend interface {
	Load(ctx context.Context, s *Schema, key Key) (*Element, error)
	Save(ctx context.Context, s *Schema, key Key, root *Element, created bool) error
	Delete(ctx context.Context, s *Schema, key Key) error
}

// CheckKey verifies that key has one value of the right type per primary
// field of s.
func CheckKey(s *Schema, key Key) error {
	if len(key) != len(s.primary) {
		return fmt.Errorf("%w: %s has %d primary fields, got %d values", ErrInvalidKey, s.name, len(s.primary), len(key))
	}

	for i, idx := range s.primary {
		f := s.fields[idx]
		if key[i] == nil || !f.Type.Accepts(key[i]) {
			return fmt.Errorf("%w: %s wants %s, got %T", ErrInvalidKey, f.Name, f.Type, key[i])
		}
	}

	return nil
}

// KeyOf returns the current primary key values of a root element.
func KeyOf(root *Element) Key {
	key := make(Key, len(root.schema.primary))
	for i, idx := range root.schema.primary {
		key[i] = root.children[idx].slot.current
	}

	return key
}

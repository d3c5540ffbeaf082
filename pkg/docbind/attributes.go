package docbind

import (
	"fmt"
	"slices"
)

// AttributeSet is a fixed, ordered set of named, typed scalar values attached
// to an element. The names and types are fixed at construction; only values
// change.
type AttributeSet struct {
	names  []string
	types  []Type
	values []any
	hook   changeHook
}

// NewAttributeSet returns a set with the given names and types. values may be
// nil, in which case every attribute starts absent; otherwise it must have one
// entry per name.
//
// Only string, char, numeric, uuid and enum kinds may be used as attributes.
func NewAttributeSet(names []string, types []Type, values []any) (*AttributeSet, error) {
	if len(names) != len(types) || (values != nil && len(values) != len(names)) {
		return nil, fmt.Errorf("%w: %d names, %d types, %d values",
			ErrAttributeCountMismatch, len(names), len(types), len(values))
	}

	for i, name := range names {
		if !isAttributeKind(types[i].Kind) {
			return nil, fmt.Errorf("%w: %s has kind %s", ErrUnsupportedAttributeKind, name, types[i])
		}

		if slices.Contains(names[:i], name) {
			return nil, fmt.Errorf("%w: %s declared twice", ErrDuplicateAttributeDefinition, name)
		}
	}

	s := &AttributeSet{
		names:  slices.Clone(names),
		types:  slices.Clone(types),
		values: make([]any, len(names)),
	}

	for i, v := range values {
		if !s.types[i].Accepts(v) {
			return nil, fmt.Errorf("%w: %s wants %s, got %T", ErrAttributeTypeMismatch, s.names[i], s.types[i], v)
		}

		s.values[i] = v
	}

	return s, nil
}

func newBlankAttributes(attrs []AttributeDescriptor) *AttributeSet {
	s := &AttributeSet{
		names:  make([]string, len(attrs)),
		types:  make([]Type, len(attrs)),
		values: make([]any, len(attrs)),
	}

	for i, a := range attrs {
		s.names[i] = a.Name
		s.types[i] = a.Type
	}

	return s
}

func isAttributeKind(k Kind) bool {
	switch k {
	case KindString, KindChar, KindUUID, KindEnum:
		return true
	default:
		return k.IsNumeric()
	}
}

// Len returns the number of declared attributes.
func (s *AttributeSet) Len() int { return len(s.names) }

// IsEmpty reports whether no attributes are declared.
func (s *AttributeSet) IsEmpty() bool { return len(s.names) == 0 }

// Names returns the declared names in order.
func (s *AttributeSet) Names() []string { return slices.Clone(s.names) }

// Type returns the declared type of name.
func (s *AttributeSet) Type(name string) (Type, error) {
	i, err := s.index(name)
	if err != nil {
		return Null, err
	}

	return s.types[i], nil
}

// Get returns the value of name, or nil if it is absent.
func (s *AttributeSet) Get(name string) (any, error) {
	i, err := s.index(name)
	if err != nil {
		return nil, err
	}

	return s.values[i], nil
}

// Set replaces the value of name. Nil is accepted for every type. On error the
// stored value is left unchanged.
func (s *AttributeSet) Set(name string, v any) error {
	i, err := s.index(name)
	if err != nil {
		return err
	}

	if !s.types[i].Accepts(v) {
		return fmt.Errorf("%w: %s wants %s, got %T", ErrAttributeTypeMismatch, name, s.types[i], v)
	}

	if s.hook != nil {
		err := s.hook.beforeChange()
		if err != nil {
			return err
		}
	}

	s.values[i] = v

	if s.hook != nil {
		s.hook.afterChange()
	}

	return nil
}

func (s *AttributeSet) index(name string) (int, error) {
	i := slices.Index(s.names, name)
	if i < 0 {
		return -1, fmt.Errorf("%w: %s", ErrUnknownAttribute, name)
	}

	return i, nil
}

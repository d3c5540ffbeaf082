package docbind

import "fmt"

// changeHook lets the owning entity veto and observe mutations anywhere in its
// tree.
type changeHook interface {
	beforeChange() error
	beforeKeyAssign(s *Slot, v any) error
	afterChange()
}

// Slot is a single typed value cell with change tracking.
//
// The first Set captures the value held before it as the original; the slot is
// changed while the current value differs from that original. A primary slot
// accepts exactly one assignment, either from loading or from the first
// non-nil Set.
type Slot struct {
	name     string
	typ      Type
	primary  bool
	current  any
	original any
	captured bool
	assigned bool
	hook     changeHook
}

// NewSlot returns an empty, unchanged slot.
func NewSlot(name string, typ Type, primary bool) *Slot {
	return &Slot{name: name, typ: typ, primary: primary}
}

// Name returns the field name the slot is declared under.
func (s *Slot) Name() string { return s.name }

// Type returns the declared value type.
func (s *Slot) Type() Type { return s.typ }

// IsPrimary reports whether the slot is part of the primary key.
func (s *Slot) IsPrimary() bool { return s.primary }

// Get returns the current value, or nil if absent.
func (s *Slot) Get() any { return s.current }

// Original returns the value captured by the first Set since the slot was
// loaded or committed, and whether one was captured.
func (s *Slot) Original() (any, bool) { return s.original, s.captured }

// Set replaces the current value.
//
// It fails with [ErrRemovedEntityMutation] if the owning entity is removed,
// [ErrValueTypeMismatch] if v does not belong to the declared type, and
// [ErrPrimaryFieldMutation] if the slot is primary and already assigned. A
// cached entity also refuses a key another cached entity holds with
// [ErrRecordExists].
func (s *Slot) Set(v any) error {
	if s.hook != nil {
		err := s.hook.beforeChange()
		if err != nil {
			return err
		}
	}

	if !s.typ.Accepts(v) {
		return fmt.Errorf("%w: %s wants %s, got %T", ErrValueTypeMismatch, s.name, s.typ, v)
	}

	if s.primary && s.assigned {
		return fmt.Errorf("%w: %s is already assigned", ErrPrimaryFieldMutation, s.name)
	}

	if s.primary && v != nil && s.hook != nil {
		err := s.hook.beforeKeyAssign(s, v)
		if err != nil {
			return err
		}
	}

	if !s.captured {
		s.original = s.current
		s.captured = true
	}

	s.current = v

	if s.primary && v != nil {
		s.assigned = true
	}

	if s.hook != nil {
		s.hook.afterChange()
	}

	return nil
}

// IsChanged reports whether the current value differs from the captured
// original.
func (s *Slot) IsChanged() bool {
	return s.captured && s.original != s.current
}

// Commit accepts the current value as the new original.
func (s *Slot) Commit() error {
	if !s.IsChanged() {
		return fmt.Errorf("%w: %s has no changes", ErrNotReadyToCommit, s.name)
	}

	if s.primary {
		return fmt.Errorf("%w: %s is primary", ErrPrimaryFieldMutation, s.name)
	}

	s.markCommitted()

	return nil
}

// load sets the value read from storage without tracking it as a change.
func (s *Slot) load(v any) {
	s.current = v
	s.original = nil
	s.captured = false
	s.assigned = v != nil
}

// markCommitted clears change tracking after the owning entity persisted.
func (s *Slot) markCommitted() {
	s.original = nil
	s.captured = false
}

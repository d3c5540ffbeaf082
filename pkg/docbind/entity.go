package docbind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Entity is the root of a persisted tree together with its lifecycle state.
//
//	initialize new       Uninitialized -> Created
//	initialize existing  Uninitialized -> Unchanged
//	mutation             Unchanged -> Changed
//	commit               Created, Changed -> Unchanged
//	commit               Removed -> record deleted, entity unusable
//	refresh              Unchanged, Changed -> Unchanged
//	delete               Created, Unchanged, Changed -> Removed
//
// Every other combination fails without changing the entity. Entities are
// not safe for concurrent use.
type Entity struct {
	schema    *Schema
	backend   Backend
	log       *slog.Logger
	state     State
	root      *Element
	key       Key
	keyless   bool
	persisted bool
	purged    bool

	// claimKey, when set, vetoes a primary key another entity already holds.
	claimKey func(e *Entity, key Key) error
}

// NewEntity returns an uninitialized entity of s stored in b.
func NewEntity(s *Schema, b Backend, opts ...Option) *Entity {
	o := applyOptions(opts)

	return &Entity{schema: s, backend: b, log: o.logger}
}

// Schema returns the entity's schema.
func (e *Entity) Schema() *Schema { return e.schema }

// State returns the lifecycle state.
func (e *Entity) State() State { return e.state }

// Root returns the root element, or nil before initialization.
func (e *Entity) Root() *Element { return e.root }

// IsDirty reports whether the entity has work pending for storage.
func (e *Entity) IsDirty() bool { return !e.purged && e.state.RequiresCommit() }

// IsPurged reports whether a committed delete removed the backing record.
// A purged entity accepts no further operations.
func (e *Entity) IsPurged() bool { return e.purged }

// PrimaryKey returns the current values of the primary fields.
func (e *Entity) PrimaryKey() Key {
	if e.root == nil {
		return nil
	}

	return KeyOf(e.root)
}

// InitializeNew builds a blank tree.
func (e *Entity) InitializeNew() error {
	if e.state != StateUninitialized {
		return e.invalid("initialize")
	}

	e.attach(Build(e.schema))
	e.setState(StateCreated)

	return nil
}

// InitializeExisting loads the record with the given primary key.
//
// With no key values the backend decides which record to load; backends
// bound to a single document use this. Such an entity is committed without
// requiring its primary fields to be set.
func (e *Entity) InitializeExisting(ctx context.Context, key ...any) error {
	if e.state != StateUninitialized {
		return e.invalid("initialize")
	}

	k := Key(key)
	e.keyless = len(k) == 0 && len(e.schema.primary) > 0

	if !e.keyless {
		err := CheckKey(e.schema, k)
		if err != nil {
			return e.wrap(err)
		}
	}

	root, err := e.load(ctx, k)
	if err != nil {
		return e.wrap(err)
	}

	e.attach(root)
	e.key = k
	e.persisted = true
	e.setState(StateUnchanged)

	return nil
}

// Initialize loads the record with the given primary key, or builds a blank
// tree carrying that key if no record exists.
func (e *Entity) Initialize(ctx context.Context, key ...any) error {
	err := e.InitializeExisting(ctx, key...)
	if !errors.Is(err, ErrRecordNotFound) {
		return err
	}

	root := Build(e.schema)
	for i, v := range key {
		root.children[e.schema.primary[i]].slot.load(v)
	}

	e.attach(root)
	e.setState(StateCreated)

	return nil
}

// Commit persists pending work. From Removed it deletes the backing record,
// after which the entity is purged.
func (e *Entity) Commit(ctx context.Context) error {
	if e.purged {
		return e.invalid("commit")
	}

	switch e.state {
	case StateUnchanged:
		return e.wrap(ErrNothingToCommit)

	case StateCreated, StateChanged:
		key := e.key
		created := e.state == StateCreated

		if created && !e.keyless {
			key = KeyOf(e.root)

			err := CheckKey(e.schema, key)
			if err != nil {
				return e.wrap(fmt.Errorf("%w: %w", ErrNotReadyToCommit, err))
			}
		}

		err := e.backend.Save(ctx, e.schema, key, e.root, created)
		if err != nil {
			return e.wrap(err)
		}

		e.root.walkSlots(func(s *Slot) { s.markCommitted() })
		e.key = key
		e.persisted = true
		e.setState(StateUnchanged)

		return nil

	case StateRemoved:
		if e.persisted {
			err := e.backend.Delete(ctx, e.schema, e.key)
			if err != nil {
				return e.wrap(err)
			}
		}

		e.purged = true
		e.log.Debug("entity purged", slog.String("schema", e.schema.name), slog.String("key", e.key.String()))

		return nil

	default:
		return e.invalid("commit")
	}
}

// Refresh reloads the tree from storage, discarding uncommitted edits. The
// replacement tree is fully decoded before it is swapped in.
func (e *Entity) Refresh(ctx context.Context) error {
	if e.purged || !e.state.CanReload() {
		return e.invalid("refresh")
	}

	root, err := e.load(ctx, e.key)
	if err != nil {
		return e.wrap(err)
	}

	e.attach(root)
	e.setState(StateUnchanged)

	return nil
}

// Delete marks the entity for removal. The record is deleted on the next
// Commit.
func (e *Entity) Delete() error {
	switch e.state {
	case StateRemoved:
		return e.wrap(ErrAlreadyRemoved)
	case StateUninitialized:
		return e.invalid("delete")
	default:
		e.setState(StateRemoved)
		return nil
	}
}

// load fetches the record for key. A keyed load whose tree carries a
// different primary key fails with [ErrRecordNotFound].
func (e *Entity) load(ctx context.Context, key Key) (*Element, error) {
	root, err := e.backend.Load(ctx, e.schema, key)
	if err != nil {
		return nil, err
	}

	if e.keyless {
		return root, nil
	}

	if got := KeyOf(root); !got.Equal(key) {
		return nil, fmt.Errorf("%w: record for key %s holds key %s", ErrRecordNotFound, key, got)
	}

	return root, nil
}

func (e *Entity) beforeChange() error {
	if e.state == StateRemoved {
		return e.wrap(ErrRemovedEntityMutation)
	}

	return nil
}

// beforeKeyAssign runs before primary slot s takes v. Once v completes the
// key, claimKey may refuse it.
func (e *Entity) beforeKeyAssign(s *Slot, v any) error {
	if e.claimKey == nil || e.root == nil {
		return nil
	}

	key := make(Key, len(e.schema.primary))

	for i, idx := range e.schema.primary {
		slot := e.root.children[idx].slot

		key[i] = slot.current
		if slot == s {
			key[i] = v
		}
	}

	if CheckKey(e.schema, key) != nil {
		return nil
	}

	return e.claimKey(e, key)
}

func (e *Entity) afterChange() {
	if e.state == StateUnchanged {
		e.setState(StateChanged)
	}
}

func (e *Entity) attach(root *Element) {
	root.bind(e)
	e.root = root
}

func (e *Entity) setState(s State) {
	if s == e.state {
		return
	}

	e.log.Debug("entity state changed",
		slog.String("schema", e.schema.name),
		slog.String("old_state", e.state.String()),
		slog.String("new_state", s.String()),
	)

	e.state = s
}

func (e *Entity) invalid(op string) error {
	state := e.state.String()
	if e.purged {
		state = "purged"
	}

	return e.wrap(fmt.Errorf("%w: %s from %s", ErrInvalidStateTransition, op, state))
}

func (e *Entity) wrap(err error) error {
	return withContext(err, e.schema.name, "")
}

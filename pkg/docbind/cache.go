package docbind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// Cache keeps at most one live [Entity] per schema and primary key, and
// creates every entity it hands out.
//
// A Cache is not safe for concurrent use; use one per session.
type Cache struct {
	backend Backend
	opts    []Option
	log     *slog.Logger
	entries []*Entity
}

// NewCache returns an empty cache over b. opts also apply to every entity
// the cache creates.
func NewCache(b Backend, opts ...Option) *Cache {
	o := applyOptions(opts)

	return &Cache{backend: b, opts: opts, log: o.logger}
}

// Len returns the number of cached entities.
func (c *Cache) Len() int { return len(c.entries) }

// Entities returns the cached entities in insertion order.
func (c *Cache) Entities() []*Entity { return slices.Clone(c.entries) }

// GetOrLoad returns the cached entity of s with the given key, or loads it.
//
// A cached entity with nothing pending is refreshed first so external
// changes are picked up; one with pending work is returned as is. If that
// refresh fails the entity is evicted. A miss loads from the backend and
// fails with [ErrRecordNotFound] unless exactly one record matches.
func (c *Cache) GetOrLoad(ctx context.Context, s *Schema, key ...any) (*Entity, error) {
	k := Key(key)

	err := CheckKey(s, k)
	if err != nil {
		return nil, withContext(err, s.name, "")
	}

	var found *Entity

	for _, e := range c.entries {
		if e.schema != s || e.purged || !e.PrimaryKey().Equal(k) {
			continue
		}

		if found != nil {
			return nil, withContext(fmt.Errorf("%w: key %s", ErrMultipleCacheMatches, k), s.name, "")
		}

		found = e
	}

	if found != nil {
		c.log.Debug("cache hit", slog.String("schema", s.name), slog.String("key", k.String()))

		if found.IsDirty() {
			return found, nil
		}

		err := found.Refresh(ctx)
		if err != nil {
			c.Evict(found)
			return nil, err
		}

		return found, nil
	}

	c.log.Debug("cache miss", slog.String("schema", s.name), slog.String("key", k.String()))

	e := c.newEntity(s)

	err = e.InitializeExisting(ctx, key...)
	if err != nil {
		return nil, err
	}

	c.entries = append(c.entries, e)

	return e, nil
}

// New adds a blank Created entity of s. Assigning it a primary key that
// another cached entity of s holds fails with [ErrRecordExists].
func (c *Cache) New(s *Schema) (*Entity, error) {
	e := c.newEntity(s)

	err := e.InitializeNew()
	if err != nil {
		return nil, err
	}

	c.entries = append(c.entries, e)

	return e, nil
}

func (c *Cache) newEntity(s *Schema) *Entity {
	e := NewEntity(s, c.backend, c.opts...)
	e.claimKey = c.claimKey

	return e
}

// claimKey refuses key for e if another live cached entity of the same
// schema already holds it.
func (c *Cache) claimKey(e *Entity, key Key) error {
	for _, other := range c.entries {
		if other == e || other.schema != e.schema || other.purged {
			continue
		}

		if other.PrimaryKey().Equal(key) {
			return e.wrap(fmt.Errorf("%w: key %s is held by a cached entity", ErrRecordExists, key))
		}
	}

	return nil
}

// Evict drops e from the cache and reports whether it was cached.
func (c *Cache) Evict(e *Entity) bool {
	i := slices.Index(c.entries, e)
	if i < 0 {
		return false
	}

	c.entries = slices.Delete(c.entries, i, i+1)
	c.log.Debug("cache evict", slog.String("schema", e.schema.name), slog.String("state", e.state.String()))

	return true
}

// CommitAll commits every dirty entity. Entities whose removal was committed
// are evicted. Failures do not stop the remaining commits; all of them are
// returned joined.
func (c *Cache) CommitAll(ctx context.Context) error {
	var errs []error

	for _, e := range slices.Clone(c.entries) {
		if !e.IsDirty() {
			continue
		}

		err := e.Commit(ctx)
		if err != nil {
			c.log.Warn("commit failed", slog.String("schema", e.schema.name), slog.Any("error", err))
			errs = append(errs, err)

			continue
		}

		if e.purged {
			c.Evict(e)
		}
	}

	return errors.Join(errs...)
}

// ClearAll discards every uncommitted edit. Created and Removed entities have
// nothing to reload and are evicted; the rest are refreshed. Entities whose
// refresh fails are evicted and the failures returned joined.
func (c *Cache) ClearAll(ctx context.Context) error {
	var errs []error

	for _, e := range slices.Clone(c.entries) {
		if e.purged || !e.state.CanReload() {
			c.Evict(e)
			continue
		}

		err := e.Refresh(ctx)
		if err != nil {
			c.log.Warn("refresh failed", slog.String("schema", e.schema.name), slog.Any("error", err))
			c.Evict(e)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

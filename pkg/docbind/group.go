package docbind

import (
	"fmt"
	"iter"
	"slices"
)

// Group is an ordered collection of elements built from one schema. Insertion
// order is the iteration and serialization order; removal never reorders the
// remaining members.
type Group struct {
	name    string
	schema  *Schema
	attrs   *AttributeSet
	members []*Element
	hook    changeHook
}

// Name returns the field name the group is declared under.
func (g *Group) Name() string { return g.name }

// Schema returns the member schema.
func (g *Group) Schema() *Schema { return g.schema }

// Attributes returns the attributes of the group's container node.
func (g *Group) Attributes() *AttributeSet { return g.attrs }

// Len returns the number of members.
func (g *Group) Len() int { return len(g.members) }

// Get returns the member at i, or nil if i is out of range.
func (g *Group) Get(i int) *Element {
	if i < 0 || i >= len(g.members) {
		return nil
	}

	return g.members[i]
}

// All iterates over the members in order.
func (g *Group) All() iter.Seq2[int, *Element] {
	return func(yield func(int, *Element) bool) {
		for i, m := range g.members {
			if !yield(i, m) {
				return
			}
		}
	}
}

// NewChild appends a blank member and returns it.
func (g *Group) NewChild() (*Element, error) {
	err := g.before()
	if err != nil {
		return nil, err
	}

	m := buildElement(g.schema, g.schema.name, g.schema.attrs)
	if g.hook != nil {
		m.bind(g.hook)
	}

	g.members = append(g.members, m)
	g.after()

	return m, nil
}

// GetBy returns the single member matching pred, or nil if none does. More
// than one match fails with [ErrAmbiguousMatch].
func (g *Group) GetBy(pred func(*Element) bool) (*Element, error) {
	i, err := g.IndexOf(pred)
	if err != nil || i < 0 {
		return nil, err
	}

	return g.members[i], nil
}

// IndexOf returns the index of the single member matching pred, or -1 if none
// does. More than one match fails with [ErrAmbiguousMatch].
func (g *Group) IndexOf(pred func(*Element) bool) (int, error) {
	found := -1

	for i, m := range g.members {
		if !pred(m) {
			continue
		}

		if found >= 0 {
			return -1, fmt.Errorf("%w: members %d and %d of %s", ErrAmbiguousMatch, found, i, g.name)
		}

		found = i
	}

	return found, nil
}

// Contains reports whether any member matches pred.
func (g *Group) Contains(pred func(*Element) bool) bool {
	return slices.ContainsFunc(g.members, pred)
}

// Remove deletes the member at i.
func (g *Group) Remove(i int) error {
	if i < 0 || i >= len(g.members) {
		return fmt.Errorf("remove %s[%d]: index out of range [0,%d)", g.name, i, len(g.members))
	}

	err := g.before()
	if err != nil {
		return err
	}

	g.members = slices.Delete(g.members, i, i+1)
	g.after()

	return nil
}

// RemoveIf deletes every member matching pred and returns how many were
// removed.
func (g *Group) RemoveIf(pred func(*Element) bool) (int, error) {
	if !g.Contains(pred) {
		return 0, nil
	}

	err := g.before()
	if err != nil {
		return 0, err
	}

	n := len(g.members)
	g.members = slices.DeleteFunc(g.members, pred)
	g.after()

	return n - len(g.members), nil
}

// Clear deletes every member.
func (g *Group) Clear() error {
	err := g.before()
	if err != nil {
		return err
	}

	clear(g.members)
	g.members = g.members[:0]
	g.after()

	return nil
}

func (g *Group) before() error {
	if g.hook == nil {
		return nil
	}

	return g.hook.beforeChange()
}

func (g *Group) after() {
	if g.hook != nil {
		g.hook.afterChange()
	}
}

func (g *Group) bind(hook changeHook) {
	g.hook = hook
	g.attrs.hook = hook

	for _, m := range g.members {
		m.bind(hook)
	}
}

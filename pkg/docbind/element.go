package docbind

import "fmt"

// Element is a tree node. A value node holds one [Slot]; a structural node
// holds one child per declared field, in declaration order. Which one it is
// comes from its [Schema].
type Element struct {
	schema   *Schema
	name     string
	attrs    *AttributeSet
	value    *Slot
	children []child
}

type child struct {
	slot  *Slot
	elem  *Element
	group *Group
}

// Schema returns the schema the element was built from.
func (e *Element) Schema() *Schema { return e.schema }

// Name returns the element's tag: the field name it is nested under, or the
// type name for roots and group members.
func (e *Element) Name() string { return e.name }

// Attributes returns the element's attributes.
func (e *Element) Attributes() *AttributeSet { return e.attrs }

// IsValueNode reports whether the element holds a single value.
func (e *Element) IsValueNode() bool { return e.value != nil }

// Value returns the slot of a value node, or nil for a structural node.
func (e *Element) Value() *Slot { return e.value }

// Slot returns the slot of a primitive field.
func (e *Element) Slot(name string) (*Slot, error) {
	c, f, err := e.child(name)
	if err != nil {
		return nil, err
	}

	if c.slot == nil {
		return nil, fmt.Errorf("%w: %s is a %s field", ErrUnknownField, f.Name, f.Kind)
	}

	return c.slot, nil
}

// Element returns the nested element of an element field.
func (e *Element) Element(name string) (*Element, error) {
	c, f, err := e.child(name)
	if err != nil {
		return nil, err
	}

	if c.elem == nil {
		return nil, fmt.Errorf("%w: %s is a %s field", ErrUnknownField, f.Name, f.Kind)
	}

	return c.elem, nil
}

// Group returns the group of a group field.
func (e *Element) Group(name string) (*Group, error) {
	c, f, err := e.child(name)
	if err != nil {
		return nil, err
	}

	if c.group == nil {
		return nil, fmt.Errorf("%w: %s is a %s field", ErrUnknownField, f.Name, f.Kind)
	}

	return c.group, nil
}

// Get returns the current value of a primitive field.
func (e *Element) Get(name string) (any, error) {
	s, err := e.Slot(name)
	if err != nil {
		return nil, err
	}

	return s.Get(), nil
}

// Set assigns a primitive field. See [Slot.Set].
func (e *Element) Set(name string, v any) error {
	s, err := e.Slot(name)
	if err != nil {
		return err
	}

	return s.Set(v)
}

// IsChanged reports whether any slot in the subtree is changed.
func (e *Element) IsChanged() bool {
	changed := false

	e.walkSlots(func(s *Slot) {
		if s.IsChanged() {
			changed = true
		}
	})

	return changed
}

func (e *Element) child(name string) (child, Field, error) {
	i, err := e.schema.fieldIndex(name)
	if err != nil {
		return child{}, Field{}, err
	}

	return e.children[i], e.schema.fields[i], nil
}

// bind attaches hook to every mutable part of the subtree.
func (e *Element) bind(hook changeHook) {
	e.attrs.hook = hook

	if e.value != nil {
		e.value.hook = hook
	}

	for _, c := range e.children {
		switch {
		case c.slot != nil:
			c.slot.hook = hook
		case c.elem != nil:
			c.elem.bind(hook)
		case c.group != nil:
			c.group.bind(hook)
		}
	}
}

func (e *Element) walkSlots(fn func(*Slot)) {
	if e.value != nil {
		fn(e.value)
	}

	for _, c := range e.children {
		switch {
		case c.slot != nil:
			fn(c.slot)
		case c.elem != nil:
			c.elem.walkSlots(fn)
		case c.group != nil:
			for _, m := range c.group.members {
				m.walkSlots(fn)
			}
		}
	}
}

package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

var errBadAddress = errors.New("invalid address")

// An address names one value in a document:
//
//	name.given          primitive field of a nested element
//	phones[1].number    field of the second group member
//	phones[0]@phoneType attribute of a group member
//	@version            attribute of the root element
//
// A nested value node is addressed by its field name alone.
type segment struct {
	name  string
	index int // -1 when absent
}

func parseAddress(addr string) ([]segment, string, error) {
	base, attr, hasAttr := strings.Cut(addr, "@")
	if hasAttr && attr == "" {
		return nil, "", fmt.Errorf("%w: %q: empty attribute name", errBadAddress, addr)
	}

	if base == "" || base == "." {
		if !hasAttr && base == "" {
			return nil, "", fmt.Errorf("%w: empty", errBadAddress)
		}

		return nil, attr, nil
	}

	parts := strings.Split(base, ".")
	segs := make([]segment, len(parts))

	for i, part := range parts {
		name, rest, indexed := strings.Cut(part, "[")
		if name == "" {
			return nil, "", fmt.Errorf("%w: %q: empty field name", errBadAddress, addr)
		}

		segs[i] = segment{name: name, index: -1}

		if !indexed {
			continue
		}

		num, ok := strings.CutSuffix(rest, "]")
		if !ok {
			return nil, "", fmt.Errorf("%w: %q: unclosed index", errBadAddress, addr)
		}

		n, err := strconv.Atoi(num)
		if err != nil || n < 0 {
			return nil, "", fmt.Errorf("%w: %q: bad index %q", errBadAddress, addr, num)
		}

		segs[i].index = n
	}

	return segs, attr, nil
}

// target is a resolved address: a slot, or an attribute of a set.
type target struct {
	slot  *docbind.Slot
	attrs *docbind.AttributeSet
	attr  string
}

func (t target) typ() (docbind.Type, error) {
	if t.slot != nil {
		return t.slot.Type(), nil
	}

	return t.attrs.Type(t.attr)
}

func (t target) get() (any, error) {
	if t.slot != nil {
		return t.slot.Get(), nil
	}

	return t.attrs.Get(t.attr)
}

func (t target) set(v any) error {
	if t.slot != nil {
		return t.slot.Set(v)
	}

	return t.attrs.Set(t.attr, v)
}

// resolve walks addr from root. With grow set, an index equal to a group's
// length appends a new member.
func resolve(root *docbind.Element, addr string, grow bool) (target, error) {
	segs, attr, err := parseAddress(addr)
	if err != nil {
		return target{}, err
	}

	cur := root

	for i, seg := range segs {
		last := i == len(segs)-1

		f, ok := cur.Schema().Field(seg.name)
		if !ok {
			return target{}, fmt.Errorf("%w: %s", docbind.ErrUnknownField, seg.name)
		}

		switch f.Kind {
		case docbind.FieldPrimitive:
			if !last || attr != "" || seg.index >= 0 {
				return target{}, fmt.Errorf("%w: %q: %s is a primitive field", errBadAddress, addr, seg.name)
			}

			slot, err := cur.Slot(seg.name)
			if err != nil {
				return target{}, err
			}

			return target{slot: slot}, nil

		case docbind.FieldElement:
			if seg.index >= 0 {
				return target{}, fmt.Errorf("%w: %q: %s is not a group", errBadAddress, addr, seg.name)
			}

			cur, err = cur.Element(seg.name)
			if err != nil {
				return target{}, err
			}

		case docbind.FieldGroup:
			g, err := cur.Group(seg.name)
			if err != nil {
				return target{}, err
			}

			if seg.index < 0 {
				if last && attr != "" {
					return target{attrs: g.Attributes(), attr: attr}, nil
				}

				return target{}, fmt.Errorf("%w: %q: group %s needs an index", errBadAddress, addr, seg.name)
			}

			cur, err = member(g, seg.index, grow)
			if err != nil {
				return target{}, fmt.Errorf("%w: %q: %w", errBadAddress, addr, err)
			}
		}
	}

	if attr != "" {
		return target{attrs: cur.Attributes(), attr: attr}, nil
	}

	if !cur.IsValueNode() {
		return target{}, fmt.Errorf("%w: %q: %s holds no value", errBadAddress, addr, cur.Name())
	}

	return target{slot: cur.Value()}, nil
}

func member(g *docbind.Group, i int, grow bool) (*docbind.Element, error) {
	if grow && i == g.Len() {
		return g.NewChild()
	}

	m := g.Get(i)
	if m == nil {
		return nil, fmt.Errorf("index %d out of range (len %d)", i, g.Len())
	}

	return m, nil
}

// walk calls emit for every present value under e in schema order.
func walk(c *docbind.Codec, e *docbind.Element, prefix string, emit func(addr, text string)) error {
	err := walkAttributes(c, e.Attributes(), prefix, emit)
	if err != nil {
		return err
	}

	if e.IsValueNode() {
		addr := prefix
		if addr == "" {
			addr = "."
		}

		return emitSlot(c, e.Value(), addr, emit)
	}

	for _, f := range e.Schema().Fields() {
		addr := f.Name
		if prefix != "" {
			addr = prefix + "." + f.Name
		}

		switch f.Kind {
		case docbind.FieldPrimitive:
			slot, err := e.Slot(f.Name)
			if err != nil {
				return err
			}

			err = emitSlot(c, slot, addr, emit)
			if err != nil {
				return err
			}

		case docbind.FieldElement:
			child, err := e.Element(f.Name)
			if err != nil {
				return err
			}

			err = walk(c, child, addr, emit)
			if err != nil {
				return err
			}

		case docbind.FieldGroup:
			g, err := e.Group(f.Name)
			if err != nil {
				return err
			}

			err = walkAttributes(c, g.Attributes(), addr, emit)
			if err != nil {
				return err
			}

			for i, m := range g.All() {
				err := walk(c, m, fmt.Sprintf("%s[%d]", addr, i), emit)
				if err != nil {
					return err
				}
			}
		}
	}

	return nil
}

func walkAttributes(c *docbind.Codec, attrs *docbind.AttributeSet, prefix string, emit func(addr, text string)) error {
	for _, name := range attrs.Names() {
		t, err := attrs.Type(name)
		if err != nil {
			return err
		}

		v, err := attrs.Get(name)
		if err != nil {
			return err
		}

		text, ok, err := c.Encode(t, v)
		if err != nil {
			return err
		}

		if ok {
			emit(prefix+"@"+name, text)
		}
	}

	return nil
}

func emitSlot(c *docbind.Codec, s *docbind.Slot, addr string, emit func(addr, text string)) error {
	text, ok, err := c.Encode(s.Type(), s.Get())
	if err != nil {
		return err
	}

	if ok {
		emit(addr, text)
	}

	return nil
}

// groupMember resolves an address such as "phones[1]" to the group and the
// member index it names.
func groupMember(root *docbind.Element, addr string) (*docbind.Group, int, error) {
	segs, attr, err := parseAddress(addr)
	if err != nil {
		return nil, 0, err
	}

	if attr != "" || len(segs) == 0 || segs[len(segs)-1].index < 0 {
		return nil, 0, fmt.Errorf("%w: %q: not a group member", errBadAddress, addr)
	}

	cur := root

	for _, seg := range segs[:len(segs)-1] {
		if seg.index < 0 {
			cur, err = cur.Element(seg.name)
		} else {
			var g *docbind.Group

			g, err = cur.Group(seg.name)
			if err == nil {
				cur, err = member(g, seg.index, false)
			}
		}

		if err != nil {
			return nil, 0, fmt.Errorf("%w: %q: %w", errBadAddress, addr, err)
		}
	}

	last := segs[len(segs)-1]

	g, err := cur.Group(last.name)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %q: %w", errBadAddress, addr, err)
	}

	if last.index >= g.Len() {
		return nil, 0, fmt.Errorf("%w: %q: index %d out of range (len %d)", errBadAddress, addr, last.index, g.Len())
	}

	return g, last.index, nil
}

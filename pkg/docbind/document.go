package docbind

import (
	"fmt"
	"strconv"
	"strings"
)

// DecodeNode decodes a complete tree of s from n. A nil codec uses the
// default rules.
//
// The root name must equal the type name ignoring case. Declared attributes
// are looked up by exact name. Every field must match exactly one child node
// by case-insensitive name; group fields match one container node whose
// children named after the member type become the members, in document
// order. Undeclared attributes and nodes are ignored.
//
// On error no part of the tree is returned.
func DecodeNode(c *Codec, s *Schema, n *Node) (*Element, error) {
	if c == nil {
		c = NewCodec()
	}

	if n == nil {
		return nil, &Error{Schema: s.name, Err: fmt.Errorf("%w: no root node", ErrNodeNotFound)}
	}

	if !strings.EqualFold(n.Name, s.name) {
		return nil, &Error{
			Schema: s.name,
			Path:   n.Name,
			Err:    fmt.Errorf("%w: got %s, want %s", ErrNameMismatch, n.Name, s.name),
		}
	}

	d := decoder{codec: c}

	e, err := d.element(n, s, s.name, s.attrs, s.name)
	if err != nil {
		return nil, withContext(err, s.name, "")
	}

	return e, nil
}

type decoder struct {
	codec *Codec
}

func (d *decoder) element(n *Node, s *Schema, tag string, attrDecls []AttributeDescriptor, path string) (*Element, error) {
	attrs, err := d.attributes(n, attrDecls, path)
	if err != nil {
		return nil, err
	}

	e := &Element{schema: s, name: tag, attrs: attrs}

	if s.IsValueNode() {
		v, err := decodeText(d.codec, s.value, n.Text)
		if err != nil {
			return nil, &Error{Path: path, Err: err}
		}

		e.value = NewSlot(tag, s.value, false)
		e.value.load(v)

		return e, nil
	}

	e.children = make([]child, len(s.fields))

	for i, f := range s.fields {
		fieldPath := path + "/" + f.Name

		cn, err := onlyChild(n, f.Name, fieldPath)
		if err != nil {
			return nil, err
		}

		switch f.Kind {
		case FieldPrimitive:
			v, err := decodeText(d.codec, f.Type, cn.Text)
			if err != nil {
				return nil, &Error{Path: fieldPath, Err: err}
			}

			slot := NewSlot(f.Name, f.Type, f.Primary)
			slot.load(v)
			e.children[i] = child{slot: slot}

		case FieldElement:
			nested, err := d.element(cn, f.Schema, f.Name, f.Attributes, fieldPath)
			if err != nil {
				return nil, err
			}

			e.children[i] = child{elem: nested}

		case FieldGroup:
			g, err := d.group(cn, f, fieldPath)
			if err != nil {
				return nil, err
			}

			e.children[i] = child{group: g}
		}
	}

	return e, nil
}

func (d *decoder) group(n *Node, f Field, path string) (*Group, error) {
	attrs, err := d.attributes(n, f.Attributes, path)
	if err != nil {
		return nil, err
	}

	g := &Group{name: f.Name, schema: f.Schema, attrs: attrs}

	for i, mn := range n.ChildrenNamed(f.Schema.name) {
		memberPath := path + "/" + f.Schema.name + "[" + strconv.Itoa(i) + "]"

		m, err := d.element(mn, f.Schema, f.Schema.name, f.Schema.attrs, memberPath)
		if err != nil {
			return nil, err
		}

		g.members = append(g.members, m)
	}

	return g, nil
}

func (d *decoder) attributes(n *Node, decls []AttributeDescriptor, path string) (*AttributeSet, error) {
	attrs := newBlankAttributes(decls)

	for i, a := range decls {
		text, ok := n.Attr(a.Name)
		if !ok {
			return nil, &Error{Path: path, Err: fmt.Errorf("%w: %s", ErrMissingAttribute, a.Name)}
		}

		v, err := decodeText(d.codec, a.Type, text)
		if err != nil {
			return nil, &Error{Path: path + "@" + a.Name, Err: err}
		}

		attrs.values[i] = v
	}

	return attrs, nil
}

func onlyChild(n *Node, name string, path string) (*Node, error) {
	matches := n.ChildrenNamed(name)

	switch len(matches) {
	case 0:
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: %s", ErrNodeNotFound, name)}
	case 1:
		return matches[0], nil
	default:
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: %d nodes named %s", ErrNodeAmbiguous, len(matches), name)}
	}
}

// decodeText maps empty text to an absent value, except for strings where
// it is "". String and char text is taken verbatim; other kinds are trimmed
// first.
func decodeText(c *Codec, t Type, text string) (any, error) {
	switch t.Kind {
	case KindString:
	case KindChar:
		if text == "" {
			return nil, nil
		}
	default:
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, nil
		}
	}

	return c.Decode(t, text)
}

// EncodeNode encodes e as a node tree. A nil codec uses the default rules.
//
// Every declared attribute is written in declaration order, absent values as
// empty text. Primitive fields become leaf nodes, nested elements recurse,
// and group members become repeated children of the group's container node,
// tagged with the member type name.
func EncodeNode(c *Codec, e *Element) (*Node, error) {
	if c == nil {
		c = NewCodec()
	}

	n, err := encodeElement(c, e, e.name)
	if err != nil {
		return nil, withContext(err, e.schema.name, "")
	}

	return n, nil
}

func encodeElement(c *Codec, e *Element, path string) (*Node, error) {
	attrs, err := encodeAttributes(c, e.attrs, path)
	if err != nil {
		return nil, err
	}

	n := &Node{Name: e.name, Attrs: attrs}

	if e.value != nil {
		n.Text, err = encodeText(c, e.value.typ, e.value.current)
		if err != nil {
			return nil, &Error{Path: path, Err: err}
		}

		return n, nil
	}

	n.Children = make([]*Node, 0, len(e.children))

	for i, ch := range e.children {
		f := e.schema.fields[i]
		fieldPath := path + "/" + f.Name

		switch {
		case ch.slot != nil:
			text, err := encodeText(c, ch.slot.typ, ch.slot.current)
			if err != nil {
				return nil, &Error{Path: fieldPath, Err: err}
			}

			n.Children = append(n.Children, &Node{Name: f.Name, Text: text})

		case ch.elem != nil:
			cn, err := encodeElement(c, ch.elem, fieldPath)
			if err != nil {
				return nil, err
			}

			n.Children = append(n.Children, cn)

		case ch.group != nil:
			gn, err := encodeGroup(c, ch.group, fieldPath)
			if err != nil {
				return nil, err
			}

			n.Children = append(n.Children, gn)
		}
	}

	return n, nil
}

func encodeGroup(c *Codec, g *Group, path string) (*Node, error) {
	attrs, err := encodeAttributes(c, g.attrs, path)
	if err != nil {
		return nil, err
	}

	n := &Node{Name: g.name, Attrs: attrs, Children: make([]*Node, 0, len(g.members))}

	for i, m := range g.members {
		mn, err := encodeElement(c, m, path+"/"+g.schema.name+"["+strconv.Itoa(i)+"]")
		if err != nil {
			return nil, err
		}

		n.Children = append(n.Children, mn)
	}

	return n, nil
}

func encodeAttributes(c *Codec, s *AttributeSet, path string) ([]Attr, error) {
	if s.IsEmpty() {
		return nil, nil
	}

	out := make([]Attr, len(s.names))

	for i, name := range s.names {
		text, err := encodeText(c, s.types[i], s.values[i])
		if err != nil {
			return nil, &Error{Path: path + "@" + name, Err: err}
		}

		out[i] = Attr{Name: name, Value: text}
	}

	return out, nil
}

func encodeText(c *Codec, t Type, v any) (string, error) {
	text, _, err := c.Encode(t, v)
	return text, err
}

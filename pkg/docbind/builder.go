package docbind

// Build returns a blank tree for s: every slot and attribute is absent and
// every group is empty. The root is tagged with the type name.
func Build(s *Schema) *Element {
	return buildElement(s, s.name, s.attrs)
}

func buildElement(s *Schema, tag string, attrs []AttributeDescriptor) *Element {
	e := &Element{
		schema: s,
		name:   tag,
		attrs:  newBlankAttributes(attrs),
	}

	if s.IsValueNode() {
		e.value = NewSlot(tag, s.value, false)
		return e
	}

	e.children = make([]child, len(s.fields))

	for i, f := range s.fields {
		switch f.Kind {
		case FieldPrimitive:
			e.children[i] = child{slot: NewSlot(f.Name, f.Type, f.Primary)}
		case FieldElement:
			e.children[i] = child{elem: buildElement(f.Schema, f.Name, f.Attributes)}
		case FieldGroup:
			e.children[i] = child{group: newGroup(f)}
		}
	}

	return e
}

func newGroup(f Field) *Group {
	return &Group{
		name:   f.Name,
		schema: f.Schema,
		attrs:  newBlankAttributes(f.Attributes),
	}
}

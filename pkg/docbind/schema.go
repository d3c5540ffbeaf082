package docbind

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// FieldKind says how a declared field is represented in the tree.
type FieldKind uint8

// Field kinds.
const (
	// FieldPrimitive is a single typed value, stored in a [Slot].
	FieldPrimitive FieldKind = iota
	// FieldElement is one nested [Element].
	FieldElement
	// FieldGroup is an ordered [Group] of elements sharing one schema.
	FieldGroup
)

func (k FieldKind) String() string {
	switch k {
	case FieldPrimitive:
		return "primitive"
	case FieldElement:
		return "element"
	case FieldGroup:
		return "group"
	default:
		return fmt.Sprintf("FieldKind(%d)", uint8(k))
	}
}

// AttributeDescriptor declares one attribute. Attributes are ordered by
// Ordinal, then by declaration order.
type AttributeDescriptor struct {
	Name    string
	Type    Type
	Ordinal int
}

// FieldDescriptor declares one field of a [Descriptor].
type FieldDescriptor struct {
	Name string
	Kind FieldKind

	// Type is the value type of a FieldPrimitive.
	Type Type

	// Element is the member type of a FieldElement or FieldGroup.
	Element *Descriptor

	// Attributes declared on the field itself. On a FieldElement they replace
	// the element type's own attributes, which must then be empty. On a
	// FieldGroup they belong to the group's container node.
	Attributes []AttributeDescriptor

	// Primary marks a FieldPrimitive as part of the primary key.
	Primary bool
}

// Descriptor declares an element type.
//
// A descriptor with a non-null Value is a value node: its text content is a
// single value and it has no fields. Otherwise it is a structural node.
type Descriptor struct {
	Name       string
	Attributes []AttributeDescriptor
	Fields     []FieldDescriptor
	Value      Type
}

// Primitive declares a primitive field.
func Primitive(name string, typ Type) FieldDescriptor {
	return FieldDescriptor{Name: name, Kind: FieldPrimitive, Type: typ}
}

// PrimaryKey declares a primitive field that is part of the primary key.
func PrimaryKey(name string, typ Type) FieldDescriptor {
	return FieldDescriptor{Name: name, Kind: FieldPrimitive, Type: typ, Primary: true}
}

// Nested declares a nested element field.
func Nested(name string, d *Descriptor, attrs ...AttributeDescriptor) FieldDescriptor {
	return FieldDescriptor{Name: name, Kind: FieldElement, Element: d, Attributes: attrs}
}

// GroupOf declares a group field whose members are built from d.
func GroupOf(name string, d *Descriptor, attrs ...AttributeDescriptor) FieldDescriptor {
	return FieldDescriptor{Name: name, Kind: FieldGroup, Element: d, Attributes: attrs}
}

// Schema is a validated, immutable [Descriptor]. Build and decode work from a
// Schema only, so they never fail on schema grounds.
type Schema struct {
	name    string
	attrs   []AttributeDescriptor
	value   Type
	fields  []Field
	byName  map[string]int
	primary []int
}

// Field is a compiled field.
type Field struct {
	Name string
	Kind FieldKind
	Type Type

	// Schema is the member schema of element and group fields.
	Schema *Schema

	// Attributes are the effective attributes of the node the field produces:
	// the field-level ones if declared, else the member type's for elements.
	// For groups they belong to the container node.
	Attributes []AttributeDescriptor

	Primary bool
}

// Name returns the declared type name.
func (s *Schema) Name() string { return s.name }

// Attributes returns the type's own attributes in order.
func (s *Schema) Attributes() []AttributeDescriptor { return slices.Clone(s.attrs) }

// IsValueNode reports whether elements of s hold a single value.
func (s *Schema) IsValueNode() bool { return s.value.Kind != KindNull }

// ValueType returns the value type of a value node, or [Null].
func (s *Schema) ValueType() Type { return s.value }

// Fields returns the compiled fields in declaration order.
func (s *Schema) Fields() []Field { return slices.Clone(s.fields) }

// Field looks up a field by case-insensitive name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return Field{}, false
	}

	return s.fields[i], true
}

// PrimaryFields returns the primary key fields in declaration order.
func (s *Schema) PrimaryFields() []Field {
	out := make([]Field, len(s.primary))
	for i, idx := range s.primary {
		out[i] = s.fields[idx]
	}

	return out
}

// IsFlat reports whether every field is primitive.
func (s *Schema) IsFlat() bool {
	for _, f := range s.fields {
		if f.Kind != FieldPrimitive {
			return false
		}
	}

	return !s.IsValueNode()
}

func (s *Schema) fieldIndex(name string) (int, error) {
	i, ok := s.byName[strings.ToLower(name)]
	if !ok {
		return -1, fmt.Errorf("%w: %s has no field %s", ErrUnknownField, s.name, name)
	}

	return i, nil
}

// Compile validates d and everything it references.
//
// It fails with [ErrSelfReferentialSchema] if a type contains itself at any
// depth, [ErrDuplicateAttributeDefinition] if a nested element has attributes
// declared on both its type and its field, [ErrUnsupportedAttributeKind] for
// attribute kinds outside the allow-list, and [ErrInvalidSchema] for other
// structural errors.
func Compile(d *Descriptor) (*Schema, error) {
	schemas, err := CompileAll(d)
	if err != nil {
		return nil, err
	}

	return schemas[0], nil
}

// CompileAll compiles several descriptors at once. A descriptor reachable
// from more than one of them compiles to a single shared *Schema.
func CompileAll(ds ...*Descriptor) ([]*Schema, error) {
	c := compiler{done: make(map[*Descriptor]*Schema), active: make(map[*Descriptor]bool)}
	out := make([]*Schema, len(ds))

	for i, d := range ds {
		s, err := c.compile(d, "")
		if err != nil {
			name := ""
			if d != nil {
				name = d.Name
			}

			return nil, withContext(err, name, "")
		}

		out[i] = s
	}

	return out, nil
}

// MustCompile is like [Compile] but panics on error.
func MustCompile(d *Descriptor) *Schema {
	s, err := Compile(d)
	if err != nil {
		panic(err)
	}

	return s
}

type compiler struct {
	done   map[*Descriptor]*Schema
	active map[*Descriptor]bool
}

func (c *compiler) compile(d *Descriptor, path string) (*Schema, error) {
	if d == nil {
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: nil descriptor", ErrInvalidSchema)}
	}

	path = joinPath(path, d.Name)

	if c.active[d] {
		return nil, &Error{Path: path, Err: fmt.Errorf("%w: %s contains itself", ErrSelfReferentialSchema, d.Name)}
	}

	if s, ok := c.done[d]; ok {
		return s, nil
	}

	c.active[d] = true
	defer delete(c.active, d)

	s, err := c.compileNode(d, path)
	if err != nil {
		return nil, err
	}

	c.done[d] = s

	return s, nil
}

func (c *compiler) compileNode(d *Descriptor, path string) (*Schema, error) {
	fail := func(err error) (*Schema, error) { return nil, &Error{Path: path, Err: err} }

	if strings.TrimSpace(d.Name) == "" {
		return fail(fmt.Errorf("%w: type name is empty", ErrInvalidSchema))
	}

	attrs, err := compileAttributes(d.Attributes)
	if err != nil {
		return fail(err)
	}

	if d.Value.Kind != KindNull {
		if len(d.Fields) > 0 {
			return fail(fmt.Errorf("%w: value node %s declares fields", ErrInvalidSchema, d.Name))
		}

		err := validateType(d.Value)
		if err != nil {
			return fail(err)
		}
	}

	s := &Schema{
		name:   d.Name,
		attrs:  attrs,
		value:  d.Value,
		fields: make([]Field, 0, len(d.Fields)),
		byName: make(map[string]int, len(d.Fields)),
	}

	for _, fd := range d.Fields {
		fieldPath := joinPath(path, fd.Name)

		f, err := c.compileField(fd, fieldPath)
		if err != nil {
			return nil, err
		}

		key := strings.ToLower(f.Name)
		if _, dup := s.byName[key]; dup {
			return nil, &Error{Path: fieldPath, Err: fmt.Errorf("%w: field %s declared twice", ErrInvalidSchema, fd.Name)}
		}

		s.byName[key] = len(s.fields)
		if f.Primary {
			s.primary = append(s.primary, len(s.fields))
		}

		s.fields = append(s.fields, f)
	}

	return s, nil
}

func (c *compiler) compileField(fd FieldDescriptor, path string) (Field, error) {
	fail := func(err error) (Field, error) { return Field{}, &Error{Path: path, Err: err} }

	if strings.TrimSpace(fd.Name) == "" {
		return fail(fmt.Errorf("%w: field name is empty", ErrInvalidSchema))
	}

	if fd.Primary && fd.Kind != FieldPrimitive {
		return fail(fmt.Errorf("%w: only primitive fields can be primary", ErrInvalidSchema))
	}

	f := Field{Name: fd.Name, Kind: fd.Kind, Type: fd.Type, Primary: fd.Primary}

	switch fd.Kind {
	case FieldPrimitive:
		if fd.Element != nil || len(fd.Attributes) > 0 {
			return fail(fmt.Errorf("%w: primitive field %s has an element type or attributes", ErrInvalidSchema, fd.Name))
		}

		if fd.Type.Kind == KindNull {
			return fail(fmt.Errorf("%w: primitive field %s has no type", ErrInvalidSchema, fd.Name))
		}

		err := validateType(fd.Type)
		if err != nil {
			return fail(err)
		}

		return f, nil

	case FieldElement, FieldGroup:
		member, err := c.compile(fd.Element, path)
		if err != nil {
			return Field{}, err
		}

		attrs, err := compileAttributes(fd.Attributes)
		if err != nil {
			return fail(err)
		}

		f.Schema = member
		f.Type = Null
		f.Attributes = attrs

		if fd.Kind == FieldElement {
			if len(attrs) > 0 && len(member.attrs) > 0 {
				return fail(fmt.Errorf("%w: %s declares attributes on both type %s and field",
					ErrDuplicateAttributeDefinition, fd.Name, member.name))
			}

			if len(attrs) == 0 {
				f.Attributes = member.attrs
			}
		}

		return f, nil

	default:
		return fail(fmt.Errorf("%w: field %s has unknown kind %s", ErrInvalidSchema, fd.Name, fd.Kind))
	}
}

func compileAttributes(in []AttributeDescriptor) ([]AttributeDescriptor, error) {
	out := slices.Clone(in)
	slices.SortStableFunc(out, func(a, b AttributeDescriptor) int { return cmp.Compare(a.Ordinal, b.Ordinal) })

	for i, a := range out {
		if a.Name == "" {
			return nil, fmt.Errorf("%w: attribute name is empty", ErrInvalidSchema)
		}

		if !isAttributeKind(a.Type.Kind) {
			return nil, fmt.Errorf("%w: %s has kind %s", ErrUnsupportedAttributeKind, a.Name, a.Type)
		}

		err := validateType(a.Type)
		if err != nil {
			return nil, err
		}

		for _, prev := range out[:i] {
			if prev.Name == a.Name {
				return nil, fmt.Errorf("%w: %s declared twice", ErrDuplicateAttributeDefinition, a.Name)
			}
		}
	}

	return out, nil
}

func validateType(t Type) error {
	if int(t.Kind) >= len(kindNames) {
		return fmt.Errorf("%w: unknown kind %s", ErrInvalidSchema, t.Kind)
	}

	if t.Kind == KindEnum && (t.Enum == nil || len(t.Enum.variants) == 0) {
		return fmt.Errorf("%w: enum type without variants", ErrInvalidSchema)
	}

	return nil
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}

	return parent + "/" + name
}

// Registry holds compiled schemas by case-insensitive name.
type Registry struct {
	byName map[string]*Schema
	order  []*Schema
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Schema)}
}

// Register adds s. Names are unique ignoring case.
func (r *Registry) Register(s *Schema) error {
	key := strings.ToLower(s.name)
	if _, dup := r.byName[key]; dup {
		return &Error{Schema: s.name, Err: fmt.Errorf("%w: type %s registered twice", ErrInvalidSchema, s.name)}
	}

	r.byName[key] = s
	r.order = append(r.order, s)

	return nil
}

// Lookup returns the schema registered under name.
func (r *Registry) Lookup(name string) (*Schema, bool) {
	s, ok := r.byName[strings.ToLower(name)]
	return s, ok
}

// Schemas returns the registered schemas in registration order.
func (r *Registry) Schemas() []*Schema { return slices.Clone(r.order) }

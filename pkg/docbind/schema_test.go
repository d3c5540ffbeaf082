package docbind_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

func Test_Compile_Exposes_Fields_In_Declaration_Order(t *testing.T) {
	t.Parallel()

	fields := identity.Fields()
	require.Len(t, fields, 3)

	require.Equal(t, "uuid", fields[0].Name)
	require.Equal(t, docbind.FieldPrimitive, fields[0].Kind)
	require.True(t, fields[0].Primary)

	require.Equal(t, docbind.FieldElement, fields[1].Kind)
	require.Equal(t, "Name", fields[1].Schema.Name())

	require.Equal(t, docbind.FieldGroup, fields[2].Kind)
	require.Equal(t, "Phone", fields[2].Schema.Name())
	require.Empty(t, fields[2].Attributes)

	f, ok := identity.Field("PHONES")
	require.True(t, ok)
	require.Equal(t, "phones", f.Name)

	require.Len(t, identity.PrimaryFields(), 1)
	require.False(t, identity.IsFlat())
	require.True(t, fields[1].Schema.IsFlat())
}

func Test_Compile_Sorts_Attributes_By_Ordinal(t *testing.T) {
	t.Parallel()

	s, err := docbind.Compile(&docbind.Descriptor{
		Name: "Tagged",
		Attributes: []docbind.AttributeDescriptor{
			{Name: "c", Type: docbind.String, Ordinal: 2},
			{Name: "a", Type: docbind.String, Ordinal: 0},
			{Name: "b", Type: docbind.String, Ordinal: 1},
		},
		Value: docbind.String,
	})
	require.NoError(t, err)

	names := make([]string, 0, 3)
	for _, a := range s.Attributes() {
		names = append(names, a.Name)
	}

	require.Equal(t, []string{"a", "b", "c"}, names)
	require.True(t, s.IsValueNode())
	require.Equal(t, docbind.String, s.ValueType())
}

func Test_Compile_Inherits_Type_Attributes_When_Field_Declares_None(t *testing.T) {
	t.Parallel()

	owner := docbind.MustCompile(&docbind.Descriptor{
		Name: "Owner",
		Fields: []docbind.FieldDescriptor{
			docbind.Nested("phone", phoneDesc),
			docbind.Nested("label", &docbind.Descriptor{Name: "Label", Value: docbind.String},
				docbind.AttributeDescriptor{Name: "lang", Type: docbind.String}),
		},
	})

	phone, _ := owner.Field("phone")
	require.Len(t, phone.Attributes, 1)
	require.Equal(t, "phoneType", phone.Attributes[0].Name)

	label, _ := owner.Field("label")
	require.Len(t, label.Attributes, 1)
	require.Equal(t, "lang", label.Attributes[0].Name)
}

func Test_Compile_Returns_Error_When_Descriptor_Invalid(t *testing.T) {
	t.Parallel()

	self := &docbind.Descriptor{Name: "Node"}
	self.Fields = []docbind.FieldDescriptor{docbind.GroupOf("children", self)}

	outer := &docbind.Descriptor{Name: "Outer"}
	inner := &docbind.Descriptor{Name: "Inner", Fields: []docbind.FieldDescriptor{docbind.Nested("outer", outer)}}
	outer.Fields = []docbind.FieldDescriptor{docbind.Nested("inner", inner)}

	emptyEnum := docbind.NewEnumType("Empty")

	tests := []struct {
		name    string
		desc    *docbind.Descriptor
		wantErr error
	}{
		{name: "SelfReference", desc: self, wantErr: docbind.ErrSelfReferentialSchema},
		{name: "IndirectCycle", desc: outer, wantErr: docbind.ErrSelfReferentialSchema},
		{
			name: "AttributesOnTypeAndField",
			desc: &docbind.Descriptor{Name: "Owner", Fields: []docbind.FieldDescriptor{
				docbind.Nested("phone", phoneDesc, docbind.AttributeDescriptor{Name: "x", Type: docbind.String}),
			}},
			wantErr: docbind.ErrDuplicateAttributeDefinition,
		},
		{
			name: "DuplicateAttribute",
			desc: &docbind.Descriptor{Name: "D", Value: docbind.String, Attributes: []docbind.AttributeDescriptor{
				{Name: "a", Type: docbind.String}, {Name: "a", Type: docbind.Int32},
			}},
			wantErr: docbind.ErrDuplicateAttributeDefinition,
		},
		{
			name: "BoolAttribute",
			desc: &docbind.Descriptor{Name: "D", Value: docbind.String, Attributes: []docbind.AttributeDescriptor{
				{Name: "flag", Type: docbind.Bool},
			}},
			wantErr: docbind.ErrUnsupportedAttributeKind,
		},
		{name: "EmptyName", desc: &docbind.Descriptor{Value: docbind.String}, wantErr: docbind.ErrInvalidSchema},
		{
			name: "ValueNodeWithFields",
			desc: &docbind.Descriptor{Name: "D", Value: docbind.String, Fields: []docbind.FieldDescriptor{
				docbind.Primitive("x", docbind.String),
			}},
			wantErr: docbind.ErrInvalidSchema,
		},
		{
			name: "DuplicateField",
			desc: &docbind.Descriptor{Name: "D", Fields: []docbind.FieldDescriptor{
				docbind.Primitive("x", docbind.String), docbind.Primitive("X", docbind.Int32),
			}},
			wantErr: docbind.ErrInvalidSchema,
		},
		{
			name: "PrimaryGroup",
			desc: &docbind.Descriptor{Name: "D", Fields: []docbind.FieldDescriptor{
				{Name: "g", Kind: docbind.FieldGroup, Element: phoneDesc, Primary: true},
			}},
			wantErr: docbind.ErrInvalidSchema,
		},
		{
			name: "UntypedPrimitive",
			desc: &docbind.Descriptor{Name: "D", Fields: []docbind.FieldDescriptor{{Name: "x"}}},
			wantErr: docbind.ErrInvalidSchema,
		},
		{
			name: "EnumWithoutVariants",
			desc: &docbind.Descriptor{Name: "D", Fields: []docbind.FieldDescriptor{
				docbind.Primitive("e", docbind.Enum(emptyEnum)),
			}},
			wantErr: docbind.ErrInvalidSchema,
		},
		{
			name:    "NilElement",
			desc:    &docbind.Descriptor{Name: "D", Fields: []docbind.FieldDescriptor{docbind.Nested("x", nil)}},
			wantErr: docbind.ErrInvalidSchema,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := docbind.Compile(tt.desc)
			require.ErrorIs(t, err, tt.wantErr)

			var docErr *docbind.Error
			require.True(t, errors.As(err, &docErr))
		})
	}
}

func Test_Compile_Reports_Path_When_Nested_Field_Invalid(t *testing.T) {
	t.Parallel()

	bad := &docbind.Descriptor{Name: "Bad", Value: docbind.String, Attributes: []docbind.AttributeDescriptor{
		{Name: "flag", Type: docbind.Bool},
	}}

	_, err := docbind.Compile(&docbind.Descriptor{Name: "Root", Fields: []docbind.FieldDescriptor{
		docbind.Nested("child", bad),
	}})

	var docErr *docbind.Error
	require.True(t, errors.As(err, &docErr))
	require.Equal(t, "Root", docErr.Schema)
	require.Equal(t, "Root/child/Bad", docErr.Path)
}

func Test_CompileAll_Shares_Schema_When_Descriptor_Reused(t *testing.T) {
	t.Parallel()

	other := &docbind.Descriptor{Name: "Contact", Fields: []docbind.FieldDescriptor{
		docbind.PrimaryKey("id", docbind.Int64),
		docbind.GroupOf("phones", phoneDesc),
	}}

	schemas, err := docbind.CompileAll(identityDesc, other, phoneDesc)
	require.NoError(t, err)
	require.Len(t, schemas, 3)

	idPhones, _ := schemas[0].Field("phones")
	contactPhones, _ := schemas[1].Field("phones")

	require.Same(t, idPhones.Schema, contactPhones.Schema)
	require.Same(t, schemas[2], idPhones.Schema)
}

func Test_Registry_Looks_Up_Schema_Ignoring_Case(t *testing.T) {
	t.Parallel()

	reg := docbind.NewRegistry()
	require.NoError(t, reg.Register(identity))

	s, ok := reg.Lookup("IDENTITY")
	require.True(t, ok)
	require.Same(t, identity, s)

	_, ok = reg.Lookup("Phone")
	require.False(t, ok)

	err := reg.Register(docbind.MustCompile(&docbind.Descriptor{Name: "identity", Value: docbind.String}))
	require.ErrorIs(t, err, docbind.ErrInvalidSchema)
	require.Len(t, reg.Schemas(), 1)
}

func Test_MustCompile_Panics_When_Descriptor_Invalid(t *testing.T) {
	t.Parallel()

	require.Panics(t, func() {
		docbind.MustCompile(&docbind.Descriptor{})
	})
}

package schemafile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/docbind/pkg/docbind"
	"github.com/calvinalkan/docbind/pkg/docbind/schemafile"
)

const identitySchema = `{
  // variant names are case-sensitive
  "enums": {"PhoneType": ["MOBILE", "HOME", "WORK"]},
  "types": [
    {"name": "Identity",
     "attributes": [{"name": "version", "type": "int32"}],
     "fields": [
      {"name": "uuid", "type": "uuid", "primary": true},
      {"name": "name", "element": "Name"},
      {"name": "phones", "group": "Phone"},
    ]},
    {"name": "Name", "fields": [
      {"name": "given", "type": "string"},
      {"name": "family", "type": "string"},
    ]},
    {"name": "Phone",
     "attributes": [{"name": "phoneType", "type": "enum:PhoneType"}],
     "fields": [
      {"name": "countryCode", "type": "string"},
      {"name": "number", "type": "string"},
    ]},
    {"name": "Amount", "value": "float64",
     "attributes": [
       {"name": "currency", "type": "string", "ordinal": 2},
       {"name": "scale", "type": "byte", "ordinal": 1},
     ]},
  ],
}`

func Test_Parse_Compiles_Every_Declared_Type(t *testing.T) {
	t.Parallel()

	reg, err := schemafile.Parse([]byte(identitySchema))
	require.NoError(t, err)

	names := make([]string, 0, 4)
	for _, s := range reg.Schemas() {
		names = append(names, s.Name())
	}

	require.ElementsMatch(t, []string{"Identity", "Name", "Phone", "Amount"}, names)

	identity, ok := reg.Lookup("Identity")
	require.True(t, ok)

	primary := identity.PrimaryFields()
	require.Len(t, primary, 1)
	require.Equal(t, "uuid", primary[0].Name)
	require.Equal(t, docbind.UUID, primary[0].Type)

	phones, ok := identity.Field("phones")
	require.True(t, ok)
	require.Equal(t, docbind.FieldGroup, phones.Kind)

	// Types referenced from several places share one compiled schema.
	phone, ok := reg.Lookup("Phone")
	require.True(t, ok)
	require.Same(t, phone, phones.Schema)

	attr := phone.Attributes()[0]
	require.Equal(t, docbind.KindEnum, attr.Type.Kind)
	require.Equal(t, []string{"MOBILE", "HOME", "WORK"}, attr.Type.Enum.Variants())
}

func Test_Parse_Orders_Attributes_By_Ordinal(t *testing.T) {
	t.Parallel()

	reg, err := schemafile.Parse([]byte(identitySchema))
	require.NoError(t, err)

	amount, ok := reg.Lookup("Amount")
	require.True(t, ok)
	require.True(t, amount.IsValueNode())
	require.Equal(t, docbind.Float64, amount.ValueType())

	var names []string
	for _, a := range amount.Attributes() {
		names = append(names, a.Name)
	}

	if diff := cmp.Diff([]string{"scale", "currency"}, names); diff != "" {
		t.Fatalf("attribute order (-want +got):\n%s", diff)
	}
}

func Test_Parse_Builds_Decodable_Schema(t *testing.T) {
	t.Parallel()

	reg, err := schemafile.Parse([]byte(identitySchema))
	require.NoError(t, err)

	identity, _ := reg.Lookup("identity")

	root, err := docbind.DecodeNode(nil, identity, &docbind.Node{
		Name:  "Identity",
		Attrs: []docbind.Attr{{Name: "version", Value: "3"}},
		Children: []*docbind.Node{
			{Name: "uuid", Text: "3fa85f64-5717-4562-b3fc-2c963f66afa6"},
			{Name: "name", Children: []*docbind.Node{{Name: "given", Text: "Ada"}, {Name: "family"}}},
			{Name: "phones"},
		},
	})
	require.NoError(t, err)

	v, err := root.Attributes().Get("version")
	require.NoError(t, err)
	require.Equal(t, int32(3), v)
}

func Test_Parse_Returns_Error_When_File_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input   string
		wantErr error
	}{
		"NotJSON":         {input: `{"types": [`, wantErr: schemafile.ErrInvalidFile},
		"UnknownKey":      {input: `{"typez": []}`, wantErr: schemafile.ErrInvalidFile},
		"EmptyEnum":       {input: `{"enums": {"E": []}, "types": []}`, wantErr: schemafile.ErrInvalidFile},
		"UnknownKind":     {input: `{"types": [{"name": "A", "fields": [{"name": "x", "type": "decimal"}]}]}`, wantErr: schemafile.ErrUnknownType},
		"UnknownEnum":     {input: `{"types": [{"name": "A", "fields": [{"name": "x", "type": "enum:Nope"}]}]}`, wantErr: schemafile.ErrUnknownType},
		"UnknownElement":  {input: `{"types": [{"name": "A", "fields": [{"name": "x", "element": "B"}]}]}`, wantErr: schemafile.ErrUnknownType},
		"NullKind":        {input: `{"types": [{"name": "A", "fields": [{"name": "x", "type": "null"}]}]}`, wantErr: schemafile.ErrUnknownType},
		"TwoShapes":       {input: `{"types": [{"name": "A", "fields": [{"name": "x", "type": "string", "group": "A"}]}]}`, wantErr: schemafile.ErrInvalidFile},
		"NoShape":         {input: `{"types": [{"name": "A", "fields": [{"name": "x"}]}]}`, wantErr: schemafile.ErrInvalidFile},
		"DuplicateType":   {input: `{"types": [{"name": "A"}, {"name": "a"}]}`, wantErr: docbind.ErrInvalidSchema},
		"SelfReferential": {input: `{"types": [{"name": "A", "fields": [{"name": "x", "element": "A"}]}]}`, wantErr: docbind.ErrSelfReferentialSchema},
		"BoolAttribute":   {input: `{"types": [{"name": "A", "attributes": [{"name": "f", "type": "bool"}]}]}`, wantErr: docbind.ErrUnsupportedAttributeKind},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := schemafile.Parse([]byte(tt.input))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func Test_Load_Reads_File_And_Prefixes_Errors_With_Path(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	good := filepath.Join(dir, "schema.jsonc")
	require.NoError(t, os.WriteFile(good, []byte(identitySchema), 0o644))

	reg, err := schemafile.Load(good)
	require.NoError(t, err)

	_, ok := reg.Lookup("Identity")
	require.True(t, ok)

	bad := filepath.Join(dir, "bad.jsonc")
	require.NoError(t, os.WriteFile(bad, []byte(`{"types": [{"name": "A", "fields": [{"name": "x", "type": "decimal"}]}]}`), 0o644))

	_, err = schemafile.Load(bad)
	require.ErrorIs(t, err, schemafile.ErrUnknownType)
	require.ErrorContains(t, err, bad)

	_, err = schemafile.Load(filepath.Join(dir, "missing.jsonc"))
	require.ErrorIs(t, err, schemafile.ErrFileRead)
	require.ErrorIs(t, err, os.ErrNotExist)
}

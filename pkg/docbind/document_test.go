package docbind_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

func Test_DecodeNode_Builds_Tree_When_Document_Matches_Schema(t *testing.T) {
	t.Parallel()

	root, err := docbind.DecodeNode(nil, identity, johnNode())
	require.NoError(t, err)

	version, err := root.Attributes().Get("version")
	require.NoError(t, err)
	require.Equal(t, int32(1), version)
	require.Equal(t, johnID, mustGet(t, root, "uuid"))

	name := mustElement(t, root, "name")
	require.Equal(t, "John", mustGet(t, name, "given"))
	require.Equal(t, "Doe", mustGet(t, name, "family"))

	phones := mustGroup(t, root, "phones")
	require.Equal(t, 1, phones.Len())

	pt, err := phones.Get(0).Attributes().Get("phoneType")
	require.NoError(t, err)
	require.Equal(t, phoneType.MustValue("MOBILE"), pt)
	require.Equal(t, "400000000", mustGet(t, phones.Get(0), "number"))

	require.False(t, root.IsChanged())
}

func Test_EncodeNode_Round_Trips_Decoded_Document(t *testing.T) {
	t.Parallel()

	root, err := docbind.DecodeNode(nil, identity, johnNode())
	require.NoError(t, err)

	got, err := docbind.EncodeNode(nil, root)
	require.NoError(t, err)

	if diff := cmp.Diff(johnNode(), got, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("encoded node mismatch (-want +got):\n%s", diff)
	}
}

func Test_EncodeNode_Appends_Group_Members_In_Order_When_NewChild_Called(t *testing.T) {
	t.Parallel()

	root, err := docbind.DecodeNode(nil, identity, johnNode())
	require.NoError(t, err)

	phones := mustGroup(t, root, "phones")

	m, err := phones.NewChild()
	require.NoError(t, err)
	require.NoError(t, m.Attributes().Set("phoneType", phoneType.MustValue("WORK")))
	require.NoError(t, m.Set("number", "5550100"))

	n, err := docbind.EncodeNode(nil, root)
	require.NoError(t, err)

	container := n.ChildrenNamed("phones")
	require.Len(t, container, 1)

	members := container[0].ChildrenNamed("Phone")
	require.Len(t, members, 2)

	want := &docbind.Node{
		Name:  "Phone",
		Attrs: []docbind.Attr{{Name: "phoneType", Value: "WORK"}},
		Children: []*docbind.Node{
			{Name: "countryCode"},
			{Name: "number", Text: "5550100"},
		},
	}

	if diff := cmp.Diff(want, members[1], cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("appended member mismatch (-want +got):\n%s", diff)
	}

	v, _ := members[0].Attr("phoneType")
	require.Equal(t, "MOBILE", v)
}

func Test_EncodeNode_Writes_Blank_Tree_With_Empty_Attributes(t *testing.T) {
	t.Parallel()

	n, err := docbind.EncodeNode(nil, docbind.Build(identity))
	require.NoError(t, err)

	want := &docbind.Node{
		Name:  "Identity",
		Attrs: []docbind.Attr{{Name: "version"}},
		Children: []*docbind.Node{
			{Name: "uuid"},
			{Name: "name", Children: []*docbind.Node{{Name: "given"}, {Name: "family"}}},
			{Name: "phones"},
		},
	}

	if diff := cmp.Diff(want, n, cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("blank node mismatch (-want +got):\n%s", diff)
	}

	// A blank document decodes back to a blank tree.
	root, err := docbind.DecodeNode(nil, identity, n)
	require.NoError(t, err)
	require.Nil(t, mustGet(t, root, "uuid"))
	require.Empty(t, mustGet(t, mustElement(t, root, "name"), "given"))
}

func Test_DecodeNode_Matches_Names_Ignoring_Case(t *testing.T) {
	t.Parallel()

	n := johnNode()
	n.Name = "IDENTITY"
	n.Children[0].Name = "UUID"
	n.Children[2].Children[0].Name = "phone"

	root, err := docbind.DecodeNode(nil, identity, n)
	require.NoError(t, err)
	require.Equal(t, 1, mustGroup(t, root, "phones").Len())
}

func Test_DecodeNode_Ignores_Undeclared_Nodes_And_Attributes(t *testing.T) {
	t.Parallel()

	n := johnNode()
	n.Attrs = append(n.Attrs, docbind.Attr{Name: "xmlns", Value: "urn:x"})
	n.Children = append(n.Children, &docbind.Node{Name: "notes", Text: "hi"})
	n.Children[2].Children = append(n.Children[2].Children, &docbind.Node{Name: "Fax"})

	root, err := docbind.DecodeNode(nil, identity, n)
	require.NoError(t, err)
	require.Equal(t, 1, mustGroup(t, root, "phones").Len())
}

func Test_DecodeNode_Matches_Attributes_By_Name_Not_Position(t *testing.T) {
	t.Parallel()

	s := docbind.MustCompile(&docbind.Descriptor{
		Name: "Pair",
		Attributes: []docbind.AttributeDescriptor{
			{Name: "a", Type: docbind.Int32},
			{Name: "b", Type: docbind.String},
		},
		Value: docbind.String,
	})

	root, err := docbind.DecodeNode(nil, s, &docbind.Node{
		Name:  "Pair",
		Attrs: []docbind.Attr{{Name: "b", Value: "text"}, {Name: "a", Value: "7"}},
		Text:  "v",
	})
	require.NoError(t, err)

	a, _ := root.Attributes().Get("a")
	b, _ := root.Attributes().Get("b")
	require.Equal(t, int32(7), a)
	require.Equal(t, "text", b)
	require.Equal(t, "v", root.Value().Get())
}

func Test_DecodeNode_Trims_Text_When_Kind_Not_String(t *testing.T) {
	t.Parallel()

	n := johnNode()
	n.Attrs[0].Value = " 1\n"
	n.Children[0].Text = "\n  " + johnID.String() + "\n"
	n.Children[1].Children[0].Text = " John "

	root, err := docbind.DecodeNode(nil, identity, n)
	require.NoError(t, err)
	require.Equal(t, johnID, mustGet(t, root, "uuid"))
	require.Equal(t, " John ", mustGet(t, mustElement(t, root, "name"), "given"))
}

func Test_DecodeNode_Keeps_Whitespace_When_Kind_Char(t *testing.T) {
	t.Parallel()

	sep := docbind.MustCompile(&docbind.Descriptor{
		Name: "Separator",
		Fields: []docbind.FieldDescriptor{
			docbind.Primitive("sep", docbind.Character),
			docbind.Primitive("count", docbind.Int32),
		},
	})

	for _, r := range []rune{' ', '\t', '\n'} {
		root := docbind.Build(sep)
		require.NoError(t, root.Set("sep", docbind.Char(r)))

		n, err := docbind.EncodeNode(nil, root)
		require.NoError(t, err)

		got, err := docbind.DecodeNode(nil, sep, n)
		require.NoError(t, err)
		require.Equal(t, docbind.Char(r), mustGet(t, got, "sep"), "char %q", r)
		require.Nil(t, mustGet(t, got, "count"))
	}

	n := &docbind.Node{Name: "Separator", Children: []*docbind.Node{
		{Name: "sep", Text: ""},
		{Name: "count", Text: " "},
	}}

	got, err := docbind.DecodeNode(nil, sep, n)
	require.NoError(t, err)
	require.Nil(t, mustGet(t, got, "sep"))
	require.Nil(t, mustGet(t, got, "count"))
}

func Test_DecodeNode_Returns_Error_When_Document_Does_Not_Match(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		mutate   func(n *docbind.Node)
		wantErr  error
		wantPath string
	}{
		{
			name:     "RootName",
			mutate:   func(n *docbind.Node) { n.Name = "Person" },
			wantErr:  docbind.ErrNameMismatch,
			wantPath: "Person",
		},
		{
			name:     "MissingRootAttribute",
			mutate:   func(n *docbind.Node) { n.Attrs = nil },
			wantErr:  docbind.ErrMissingAttribute,
			wantPath: "Identity",
		},
		{
			name:     "AttributeNameCase",
			mutate:   func(n *docbind.Node) { n.Attrs[0].Name = "Version" },
			wantErr:  docbind.ErrMissingAttribute,
			wantPath: "Identity",
		},
		{
			name:     "MissingField",
			mutate:   func(n *docbind.Node) { n.Children[1].Children = n.Children[1].Children[:1] },
			wantErr:  docbind.ErrNodeNotFound,
			wantPath: "Identity/name/family",
		},
		{
			name: "DuplicateField",
			mutate: func(n *docbind.Node) {
				n.Children = append(n.Children, &docbind.Node{Name: "Uuid", Text: johnID.String()})
			},
			wantErr:  docbind.ErrNodeAmbiguous,
			wantPath: "Identity/uuid",
		},
		{
			name:     "MissingGroupContainer",
			mutate:   func(n *docbind.Node) { n.Children = n.Children[:2] },
			wantErr:  docbind.ErrNodeNotFound,
			wantPath: "Identity/phones",
		},
		{
			name:     "MalformedValue",
			mutate:   func(n *docbind.Node) { n.Children[0].Text = "nope" },
			wantErr:  docbind.ErrMalformedValue,
			wantPath: "Identity/uuid",
		},
		{
			name: "MalformedAttribute",
			mutate: func(n *docbind.Node) {
				n.Attrs[0].Value = "v1"
			},
			wantErr:  docbind.ErrMalformedValue,
			wantPath: "Identity@version",
		},
		{
			name: "MemberEnumValue",
			mutate: func(n *docbind.Node) {
				n.Children[2].Children[0].Attrs[0].Value = "mobile"
			},
			wantErr:  docbind.ErrInvalidEnumValue,
			wantPath: "Identity/phones/Phone[0]@phoneType",
		},
		{
			name: "MemberMissingField",
			mutate: func(n *docbind.Node) {
				n.Children[2].Children[0].Children = n.Children[2].Children[0].Children[1:]
			},
			wantErr:  docbind.ErrNodeNotFound,
			wantPath: "Identity/phones/Phone[0]/countryCode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			n := johnNode()
			tt.mutate(n)

			root, err := docbind.DecodeNode(nil, identity, n)
			require.ErrorIs(t, err, tt.wantErr)
			require.Nil(t, root)

			var docErr *docbind.Error
			require.True(t, errors.As(err, &docErr))
			require.Equal(t, "Identity", docErr.Schema)
			require.Equal(t, tt.wantPath, docErr.Path)
		})
	}
}

func Test_DecodeNode_Returns_NodeNotFound_When_Node_Nil(t *testing.T) {
	t.Parallel()

	_, err := docbind.DecodeNode(nil, identity, nil)
	require.ErrorIs(t, err, docbind.ErrNodeNotFound)
}

func Test_DecodeNode_Uses_Given_Codec(t *testing.T) {
	t.Parallel()

	c := docbind.NewCodec()
	require.NoError(t, c.Register(docbind.KindString,
		func(_ docbind.Type, v any) (string, error) { return v.(string), nil },
		func(_ docbind.Type, s string) (any, error) { return "<" + s + ">", nil },
	))

	root, err := docbind.DecodeNode(c, identity, johnNode())
	require.NoError(t, err)
	require.Equal(t, "<John>", mustGet(t, mustElement(t, root, "name"), "given"))
}

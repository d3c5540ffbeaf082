package docbind_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

var phoneType = docbind.NewEnumType("PhoneType", "MOBILE", "HOME", "WORK")

var (
	nameDesc = &docbind.Descriptor{
		Name: "Name",
		Fields: []docbind.FieldDescriptor{
			docbind.Primitive("given", docbind.String),
			docbind.Primitive("family", docbind.String),
		},
	}

	phoneDesc = &docbind.Descriptor{
		Name:       "Phone",
		Attributes: []docbind.AttributeDescriptor{{Name: "phoneType", Type: docbind.Enum(phoneType)}},
		Fields: []docbind.FieldDescriptor{
			docbind.Primitive("countryCode", docbind.String),
			docbind.Primitive("number", docbind.String),
		},
	}

	identityDesc = &docbind.Descriptor{
		Name:       "Identity",
		Attributes: []docbind.AttributeDescriptor{{Name: "version", Type: docbind.Int32}},
		Fields: []docbind.FieldDescriptor{
			docbind.PrimaryKey("uuid", docbind.UUID),
			docbind.Nested("name", nameDesc),
			docbind.GroupOf("phones", phoneDesc),
		},
	}

	identity = docbind.MustCompile(identityDesc)
)

var johnID = uuid.MustParse("3fa85f64-5717-4562-b3fc-2c963f66afa6")

// johnNode is the decoded form of:
//
//	<Identity version="1"><uuid>3fa8...</uuid>
//	  <name><given>John</given><family>Doe</family></name>
//	  <phones><Phone phoneType="MOBILE"><countryCode>61</countryCode><number>400000000</number></Phone></phones>
//	</Identity>
func johnNode() *docbind.Node {
	return identityNode(johnID)
}

// identityNode is johnNode carrying id as its uuid.
func identityNode(id uuid.UUID) *docbind.Node {
	return &docbind.Node{
		Name:  "Identity",
		Attrs: []docbind.Attr{{Name: "version", Value: "1"}},
		Children: []*docbind.Node{
			{Name: "uuid", Text: id.String()},
			{Name: "name", Children: []*docbind.Node{
				{Name: "given", Text: "John"},
				{Name: "family", Text: "Doe"},
			}},
			{Name: "phones", Children: []*docbind.Node{
				{Name: "Phone", Attrs: []docbind.Attr{{Name: "phoneType", Value: "MOBILE"}}, Children: []*docbind.Node{
					{Name: "countryCode", Text: "61"},
					{Name: "number", Text: "400000000"},
				}},
			}},
		},
	}
}

// memBackend stores encoded node trees in memory.
type memBackend struct {
	docs    map[string]*docbind.Node
	loads   int
	saves   int
	deletes int

	// failLoad makes every Load fail with this error when set.
	failLoad error
}

func newMemBackend() *memBackend {
	return &memBackend{docs: make(map[string]*docbind.Node)}
}

func docKey(s *docbind.Schema, key docbind.Key) string {
	return s.Name() + "/" + key.String()
}

func (b *memBackend) put(s *docbind.Schema, key docbind.Key, n *docbind.Node) {
	b.docs[docKey(s, key)] = n
}

func (b *memBackend) Load(_ context.Context, s *docbind.Schema, key docbind.Key) (*docbind.Element, error) {
	b.loads++

	if b.failLoad != nil {
		return nil, b.failLoad
	}

	n, ok := b.docs[docKey(s, key)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", docbind.ErrRecordNotFound, docKey(s, key))
	}

	return docbind.DecodeNode(nil, s, n)
}

func (b *memBackend) Save(_ context.Context, s *docbind.Schema, key docbind.Key, root *docbind.Element, created bool) error {
	b.saves++

	if _, exists := b.docs[docKey(s, key)]; created && exists {
		return fmt.Errorf("%w: %s", docbind.ErrRecordExists, docKey(s, key))
	}

	n, err := docbind.EncodeNode(nil, root)
	if err != nil {
		return err
	}

	b.docs[docKey(s, key)] = n

	return nil
}

func (b *memBackend) Delete(_ context.Context, s *docbind.Schema, key docbind.Key) error {
	b.deletes++
	delete(b.docs, docKey(s, key))

	return nil
}

func seededBackend() *memBackend {
	b := newMemBackend()
	b.put(identity, docbind.Key{johnID}, johnNode())

	return b
}

func mustGet(t *testing.T, e *docbind.Element, name string) any {
	t.Helper()

	v, err := e.Get(name)
	require.NoError(t, err)

	return v
}

func mustElement(t *testing.T, e *docbind.Element, name string) *docbind.Element {
	t.Helper()

	child, err := e.Element(name)
	require.NoError(t, err)

	return child
}

func mustGroup(t *testing.T, e *docbind.Element, name string) *docbind.Group {
	t.Helper()

	g, err := e.Group(name)
	require.NoError(t, err)

	return g
}

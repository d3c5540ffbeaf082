package docbind_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

func numberIs(n string) func(*docbind.Element) bool {
	return func(e *docbind.Element) bool {
		v, _ := e.Get("number")
		return v == n
	}
}

func phonesWith(t *testing.T, numbers ...string) *docbind.Group {
	t.Helper()

	g := mustGroup(t, docbind.Build(identity), "phones")

	for _, n := range numbers {
		m, err := g.NewChild()
		require.NoError(t, err)
		require.NoError(t, m.Set("number", n))
	}

	return g
}

func Test_Build_Returns_Blank_Tree_When_Schema_Compiled(t *testing.T) {
	t.Parallel()

	root := docbind.Build(identity)

	require.Equal(t, "Identity", root.Name())
	require.False(t, root.IsValueNode())
	require.Nil(t, root.Value())
	require.Equal(t, []string{"version"}, root.Attributes().Names())
	require.Nil(t, mustGet(t, root, "uuid"))

	name := mustElement(t, root, "name")
	require.Equal(t, "name", name.Name())
	require.Nil(t, mustGet(t, name, "given"))

	phones := mustGroup(t, root, "phones")
	require.Equal(t, 0, phones.Len())
	require.Same(t, identity.Fields()[2].Schema, phones.Schema())
	require.False(t, root.IsChanged())
}

func Test_Build_Creates_Value_Slot_When_Schema_Is_Value_Node(t *testing.T) {
	t.Parallel()

	s := docbind.MustCompile(&docbind.Descriptor{Name: "Amount", Value: docbind.Float64})

	root := docbind.Build(s)
	require.True(t, root.IsValueNode())
	require.Equal(t, docbind.Float64, root.Value().Type())

	_, err := root.Slot("anything")
	require.ErrorIs(t, err, docbind.ErrUnknownField)
}

func Test_Element_Returns_UnknownField_When_Field_Has_Other_Kind(t *testing.T) {
	t.Parallel()

	root := docbind.Build(identity)

	_, err := root.Slot("name")
	require.ErrorIs(t, err, docbind.ErrUnknownField)

	_, err = root.Element("phones")
	require.ErrorIs(t, err, docbind.ErrUnknownField)

	_, err = root.Group("uuid")
	require.ErrorIs(t, err, docbind.ErrUnknownField)

	err = root.Set("nickname", "Jo")
	require.ErrorIs(t, err, docbind.ErrUnknownField)
}

func Test_Element_IsChanged_Reports_Nested_Changes(t *testing.T) {
	t.Parallel()

	root := docbind.Build(identity)
	name := mustElement(t, root, "name")

	require.NoError(t, name.Set("family", "Doe"))

	require.True(t, name.IsChanged())
	require.True(t, root.IsChanged())
}

func Test_Group_NewChild_Appends_Member_When_Called(t *testing.T) {
	t.Parallel()

	g := phonesWith(t, "1")

	m, err := g.NewChild()
	require.NoError(t, err)

	require.Equal(t, 2, g.Len())
	require.Same(t, m, g.Get(g.Len()-1))
	require.Equal(t, "Phone", m.Name())
	require.Equal(t, []string{"phoneType"}, m.Attributes().Names())
	require.Nil(t, g.Get(2))
	require.Nil(t, g.Get(-1))
}

func Test_Group_GetBy_Returns_Nil_When_No_Member_Matches(t *testing.T) {
	t.Parallel()

	g := phonesWith(t, "1", "2")

	m, err := g.GetBy(numberIs("3"))
	require.NoError(t, err)
	require.Nil(t, m)

	i, err := g.IndexOf(numberIs("3"))
	require.NoError(t, err)
	require.Equal(t, -1, i)

	require.False(t, g.Contains(numberIs("3")))
}

func Test_Group_GetBy_Returns_Member_When_Exactly_One_Matches(t *testing.T) {
	t.Parallel()

	g := phonesWith(t, "1", "2", "3")

	m, err := g.GetBy(numberIs("2"))
	require.NoError(t, err)
	require.Same(t, g.Get(1), m)

	i, err := g.IndexOf(numberIs("3"))
	require.NoError(t, err)
	require.Equal(t, 2, i)
}

func Test_Group_GetBy_Returns_AmbiguousMatch_When_Several_Match(t *testing.T) {
	t.Parallel()

	g := phonesWith(t, "1", "2", "1")

	m, err := g.GetBy(numberIs("1"))
	require.ErrorIs(t, err, docbind.ErrAmbiguousMatch)
	require.Nil(t, m)

	_, err = g.IndexOf(numberIs("1"))
	require.ErrorIs(t, err, docbind.ErrAmbiguousMatch)
}

func Test_Group_Remove_Keeps_Order_Of_Remaining_Members(t *testing.T) {
	t.Parallel()

	g := phonesWith(t, "1", "2", "3", "4")

	require.NoError(t, g.Remove(1))

	n, err := g.RemoveIf(numberIs("4"))
	require.NoError(t, err)
	require.Equal(t, 1, n)

	var got []any
	for _, m := range g.All() {
		got = append(got, mustGet(t, m, "number"))
	}

	require.Equal(t, []any{"1", "3"}, got)

	require.Error(t, g.Remove(2))

	n, err = g.RemoveIf(numberIs("9"))
	require.NoError(t, err)
	require.Zero(t, n)

	require.NoError(t, g.Clear())
	require.Equal(t, 0, g.Len())
}

func Test_Group_All_Stops_When_Yield_Returns_False(t *testing.T) {
	t.Parallel()

	g := phonesWith(t, "1", "2", "3")

	seen := 0

	for i := range g.All() {
		seen++

		if i == 1 {
			break
		}
	}

	require.Equal(t, 2, seen)
}

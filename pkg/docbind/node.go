package docbind

import "strings"

// Node is a parsed document node: a name, ordered attributes, ordered
// children, and text content. Format adapters translate between their own
// representation and Node.
type Node struct {
	Name     string
	Attrs    []Attr
	Children []*Node
	Text     string
}

// Attr is one node attribute.
type Attr struct {
	Name  string
	Value string
}

// Attr returns the value of the attribute with exactly the given name.
func (n *Node) Attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}

	return "", false
}

// ChildrenNamed returns the children whose name equals name ignoring case, in
// document order.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node

	for _, c := range n.Children {
		if strings.EqualFold(c.Name, name) {
			out = append(out, c)
		}
	}

	return out
}

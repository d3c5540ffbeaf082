// Package xmldoc reads and writes docbind node trees as XML.
//
// Element tags and attribute keys keep their namespace prefix ("ns:tag").
// Only the first run of character data of an element is kept as its text;
// comments, processing instructions and mixed content are dropped.
package xmldoc

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

// DefaultIndent is the indent width used by [Format] when Indent is zero.
const DefaultIndent = 2

// ErrNoRoot is returned by [Parse] for documents without a root element.
var ErrNoRoot = errors.New("xml: document has no root element")

// Format reads and writes XML documents.
type Format struct {
	// Indent is the number of spaces per nesting level. Zero uses
	// DefaultIndent; negative writes everything on one line.
	Indent int
}

// Unmarshal parses data. See [Parse].
func (f Format) Unmarshal(data []byte) (*docbind.Node, error) {
	return Parse(data)
}

// Marshal writes n. See [Marshal].
func (f Format) Marshal(n *docbind.Node) ([]byte, error) {
	indent := f.Indent
	if indent == 0 {
		indent = DefaultIndent
	}

	return Marshal(n, indent)
}

// Parse converts an XML document into a node tree rooted at its root
// element.
func Parse(data []byte) (*docbind.Node, error) {
	doc := etree.NewDocument()

	err := doc.ReadFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("xml: %w", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, ErrNoRoot
	}

	return fromElement(root), nil
}

func fromElement(el *etree.Element) *docbind.Node {
	n := &docbind.Node{Name: el.FullTag(), Text: el.Text()}

	if len(el.Attr) > 0 {
		n.Attrs = make([]docbind.Attr, len(el.Attr))
		for i := range el.Attr {
			n.Attrs[i] = docbind.Attr{Name: el.Attr[i].FullKey(), Value: el.Attr[i].Value}
		}
	}

	for _, c := range el.ChildElements() {
		n.Children = append(n.Children, fromElement(c))
	}

	return n
}

// Marshal writes n as an XML document with a declaration. A negative
// indent writes everything on one line.
func Marshal(n *docbind.Node, indent int) ([]byte, error) {
	if n == nil {
		return nil, ErrNoRoot
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	toElement(&doc.Element, n)

	if indent >= 0 {
		doc.Indent(indent)
	} else {
		doc.Indent(etree.NoIndent)
	}

	data, err := doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("xml: %w", err)
	}

	return data, nil
}

func toElement(parent *etree.Element, n *docbind.Node) {
	el := parent.CreateElement(n.Name)

	for _, a := range n.Attrs {
		el.CreateAttr(a.Name, a.Value)
	}

	if n.Text != "" {
		el.SetText(n.Text)
	}

	for _, c := range n.Children {
		toElement(el, c)
	}
}

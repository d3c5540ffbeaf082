// Package cbordoc reads and writes docbind node trees as CBOR.
//
// Each node is a map with small integer keys:
//
//	1: name (text)
//	2: attributes, an array of [name, value] pairs (omitted when empty)
//	3: children, an array of nodes (omitted when empty)
//	4: text (omitted when empty)
//
// Encoding uses the core deterministic options, so equal trees produce
// identical bytes.
package cbordoc

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

// ErrNoRoot is returned by [Parse] for a document without a root name.
var ErrNoRoot = errors.New("cbor: document has no root node")

// maxNestedLevels bounds decode recursion; trees deeper than this are
// rejected.
const maxNestedLevels = 256

type wireNode struct {
	Name     string      `cbor:"1,keyasint"`
	Attrs    []wireAttr  `cbor:"2,keyasint,omitempty"`
	Children []*wireNode `cbor:"3,keyasint,omitempty"`
	Text     string      `cbor:"4,keyasint,omitempty"`
}

type wireAttr struct {
	_     struct{} `cbor:",toarray"`
	Name  string
	Value string
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cbordoc: enc mode: %v", err))
	}

	decMode, err = cbor.DecOptions{MaxNestedLevels: maxNestedLevels}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("cbordoc: dec mode: %v", err))
	}
}

// Format reads and writes CBOR documents.
type Format struct{}

// Unmarshal parses data. See [Parse].
func (Format) Unmarshal(data []byte) (*docbind.Node, error) { return Parse(data) }

// Marshal writes n. See [Marshal].
func (Format) Marshal(n *docbind.Node) ([]byte, error) { return Marshal(n) }

// Parse decodes a CBOR document into a node tree.
func Parse(data []byte) (*docbind.Node, error) {
	var w wireNode

	err := decMode.Unmarshal(data, &w)
	if err != nil {
		return nil, fmt.Errorf("cbor: %w", err)
	}

	if w.Name == "" {
		return nil, ErrNoRoot
	}

	return fromWire(&w), nil
}

// Marshal encodes n as a CBOR document.
func Marshal(n *docbind.Node) ([]byte, error) {
	if n == nil {
		return nil, ErrNoRoot
	}

	data, err := encMode.Marshal(toWire(n))
	if err != nil {
		return nil, fmt.Errorf("cbor: %w", err)
	}

	return data, nil
}

func fromWire(w *wireNode) *docbind.Node {
	n := &docbind.Node{Name: w.Name, Text: w.Text}

	for _, a := range w.Attrs {
		n.Attrs = append(n.Attrs, docbind.Attr{Name: a.Name, Value: a.Value})
	}

	for _, c := range w.Children {
		if c != nil {
			n.Children = append(n.Children, fromWire(c))
		}
	}

	return n
}

func toWire(n *docbind.Node) *wireNode {
	w := &wireNode{Name: n.Name, Text: n.Text}

	for _, a := range n.Attrs {
		w.Attrs = append(w.Attrs, wireAttr{Name: a.Name, Value: a.Value})
	}

	for _, c := range n.Children {
		w.Children = append(w.Children, toWire(c))
	}

	return w
}

// Package yamldoc reads and writes docbind node trees as YAML.
//
// A document is a mapping with a single key, the root node name. A node is
// written as a scalar holding its text when it has no attributes and no
// children, and as a mapping otherwise:
//
//	Identity:
//	  "@version": "1"
//	  uuid: 3fa85f64-5717-4562-b3fc-2c963f66afa6
//	  phones:
//	    Phone:
//	      - "@phoneType": MOBILE
//	        number: "400000000"
//
// Attribute keys start with "@", text of a node that also has attributes is
// stored under "#text", and repeated children share one key holding a
// sequence. Key order is preserved in both directions.
package yamldoc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

const (
	attrPrefix = "@"
	textKey    = "#text"
)

// DefaultIndent is the indent width used by [Format] when Indent is zero.
const DefaultIndent = 2

// ErrNoRoot is returned by [Parse] when the document is not a single-key
// mapping.
var ErrNoRoot = errors.New("yaml: document must be a mapping with one root key")

// Format reads and writes YAML documents.
type Format struct {
	// Indent is the number of spaces per nesting level. Zero uses
	// DefaultIndent.
	Indent int
}

// Unmarshal parses data. See [Parse].
func (f Format) Unmarshal(data []byte) (*docbind.Node, error) {
	return Parse(data)
}

// Marshal writes n. See [Marshal].
func (f Format) Marshal(n *docbind.Node) ([]byte, error) {
	indent := f.Indent
	if indent <= 0 {
		indent = DefaultIndent
	}

	return Marshal(n, indent)
}

// Parse converts a YAML document into a node tree.
func Parse(data []byte) (*docbind.Node, error) {
	var doc yaml.Node

	err := yaml.Unmarshal(data, &doc)
	if err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, ErrNoRoot
	}

	root := resolve(doc.Content[0])
	if root.Kind != yaml.MappingNode || len(root.Content) != 2 {
		return nil, ErrNoRoot
	}

	nodes, err := fromValue(root.Content[0].Value, root.Content[1])
	if err != nil {
		return nil, err
	}

	if len(nodes) != 1 {
		return nil, ErrNoRoot
	}

	return nodes[0], nil
}

// fromValue converts the value stored under key name. A sequence yields one
// node per item.
func fromValue(name string, v *yaml.Node) ([]*docbind.Node, error) {
	v = resolve(v)

	switch v.Kind {
	case yaml.ScalarNode:
		return []*docbind.Node{{Name: name, Text: scalarText(v)}}, nil

	case yaml.SequenceNode:
		out := make([]*docbind.Node, 0, len(v.Content))

		for _, item := range v.Content {
			if resolve(item).Kind == yaml.SequenceNode {
				return nil, fmt.Errorf("yaml: line %d: nested sequence under %s", item.Line, name)
			}

			nodes, err := fromValue(name, item)
			if err != nil {
				return nil, err
			}

			out = append(out, nodes...)
		}

		return out, nil

	case yaml.MappingNode:
		n := &docbind.Node{Name: name}

		for i := 0; i+1 < len(v.Content); i += 2 {
			key := v.Content[i].Value
			val := resolve(v.Content[i+1])

			switch {
			case key == textKey:
				if val.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf("yaml: line %d: %s of %s must be a scalar", val.Line, textKey, name)
				}

				n.Text = scalarText(val)

			case strings.HasPrefix(key, attrPrefix):
				if val.Kind != yaml.ScalarNode {
					return nil, fmt.Errorf("yaml: line %d: attribute %s of %s must be a scalar", val.Line, key, name)
				}

				n.Attrs = append(n.Attrs, docbind.Attr{Name: strings.TrimPrefix(key, attrPrefix), Value: scalarText(val)})

			default:
				children, err := fromValue(key, val)
				if err != nil {
					return nil, err
				}

				n.Children = append(n.Children, children...)
			}
		}

		return []*docbind.Node{n}, nil

	default:
		return nil, fmt.Errorf("yaml: line %d: unsupported node under %s", v.Line, name)
	}
}

func resolve(v *yaml.Node) *yaml.Node {
	for v.Kind == yaml.AliasNode && v.Alias != nil {
		v = v.Alias
	}

	return v
}

func scalarText(v *yaml.Node) string {
	if v.Tag == "!!null" {
		return ""
	}

	return v.Value
}

// Marshal writes n as a YAML document.
func Marshal(n *docbind.Node, indent int) ([]byte, error) {
	if n == nil {
		return nil, ErrNoRoot
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	root.Content = append(root.Content, scalar(n.Name), toValue(n))

	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(indent)

	err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}})
	if err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return nil, fmt.Errorf("yaml: %w", err)
	}

	return buf.Bytes(), nil
}

func toValue(n *docbind.Node) *yaml.Node {
	if len(n.Attrs) == 0 && len(n.Children) == 0 {
		return scalar(n.Text)
	}

	m := &yaml.Node{Kind: yaml.MappingNode}

	for _, a := range n.Attrs {
		m.Content = append(m.Content, scalar(attrPrefix+a.Name), scalar(a.Value))
	}

	if n.Text != "" {
		m.Content = append(m.Content, scalar(textKey), scalar(n.Text))
	}

	// Children sharing a name are written once, at the position of the first,
	// as a sequence.
	seqs := make(map[string]*yaml.Node)

	for _, c := range n.Children {
		if seq, ok := seqs[c.Name]; ok {
			seq.Content = append(seq.Content, toValue(c))
			continue
		}

		if countNamed(n.Children, c.Name) > 1 {
			seq := &yaml.Node{Kind: yaml.SequenceNode, Content: []*yaml.Node{toValue(c)}}
			seqs[c.Name] = seq
			m.Content = append(m.Content, scalar(c.Name), seq)

			continue
		}

		m.Content = append(m.Content, scalar(c.Name), toValue(c))
	}

	return m
}

func countNamed(nodes []*docbind.Node, name string) int {
	n := 0

	for _, c := range nodes {
		if c.Name == name {
			n++
		}
	}

	return n
}

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

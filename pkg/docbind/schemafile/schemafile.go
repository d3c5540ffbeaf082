// Package schemafile loads docbind schemas from JSONC files.
//
// A schema file declares enums and element types. Types reference each other
// by name and may appear in any order:
//
//	{
//	  // variant names are case-sensitive
//	  "enums": {"PhoneType": ["MOBILE", "HOME", "WORK"]},
//	  "types": [
//	    {"name": "Identity", "fields": [
//	      {"name": "uuid", "type": "uuid", "primary": true},
//	      {"name": "name", "element": "Name"},
//	      {"name": "phones", "group": "Phone"},
//	    ]},
//	    {"name": "Name", "fields": [
//	      {"name": "given", "type": "string"},
//	      {"name": "family", "type": "string"},
//	    ]},
//	    {"name": "Phone",
//	     "attributes": [{"name": "phoneType", "type": "enum:PhoneType"}],
//	     "fields": [
//	      {"name": "countryCode", "type": "string"},
//	      {"name": "number", "type": "string"},
//	    ]},
//	  ],
//	}
//
// A type with "value" instead of "fields" is a value node. Type names are the
// [docbind.Kind] names, or "enum:<Name>" for a declared enum.
package schemafile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tailscale/hujson"

	"github.com/calvinalkan/docbind/pkg/docbind"
)

// Errors returned while loading schema files.
var (
	ErrFileRead    = errors.New("cannot read schema file")
	ErrInvalidFile = errors.New("invalid schema file")
	ErrUnknownType = errors.New("unknown type")
)

const enumPrefix = "enum:"

type fileSpec struct {
	Enums map[string][]string `json:"enums"`
	Types []typeSpec          `json:"types"`
}

type typeSpec struct {
	Name       string      `json:"name"`
	Value      string      `json:"value"`
	Attributes []attrSpec  `json:"attributes"`
	Fields     []fieldSpec `json:"fields"`
}

type attrSpec struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Ordinal *int   `json:"ordinal"`
}

type fieldSpec struct {
	Name       string     `json:"name"`
	Type       string     `json:"type"`
	Element    string     `json:"element"`
	Group      string     `json:"group"`
	Primary    bool       `json:"primary"`
	Attributes []attrSpec `json:"attributes"`
}

// Load reads and compiles the schema file at path.
func Load(path string) (*docbind.Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFileRead, path, err)
	}

	reg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return reg, nil
}

// Parse compiles a JSONC schema document into a registry holding every
// declared type.
func Parse(data []byte) (*docbind.Registry, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JSONC: %w", ErrInvalidFile, err)
	}

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()

	var spec fileSpec

	err = dec.Decode(&spec)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %w", ErrInvalidFile, err)
	}

	b := builder{
		enums: make(map[string]*docbind.EnumType, len(spec.Enums)),
		types: make(map[string]*docbind.Descriptor, len(spec.Types)),
	}

	for name, variants := range spec.Enums {
		if len(variants) == 0 {
			return nil, fmt.Errorf("%w: enum %s has no variants", ErrInvalidFile, name)
		}

		b.enums[name] = docbind.NewEnumType(name, variants...)
	}

	descriptors := make([]*docbind.Descriptor, len(spec.Types))

	for i, ts := range spec.Types {
		d := &docbind.Descriptor{Name: ts.Name}
		key := strings.ToLower(ts.Name)

		if _, dup := b.types[key]; dup {
			return nil, fmt.Errorf("%w: type %s declared twice", docbind.ErrInvalidSchema, ts.Name)
		}

		b.types[key] = d
		descriptors[i] = d
	}

	for i, ts := range spec.Types {
		err := b.fill(descriptors[i], ts)
		if err != nil {
			return nil, fmt.Errorf("type %s: %w", ts.Name, err)
		}
	}

	schemas, err := docbind.CompileAll(descriptors...)
	if err != nil {
		return nil, err
	}

	reg := docbind.NewRegistry()

	for _, s := range schemas {
		err := reg.Register(s)
		if err != nil {
			return nil, err
		}
	}

	return reg, nil
}

type builder struct {
	enums map[string]*docbind.EnumType
	types map[string]*docbind.Descriptor
}

func (b *builder) fill(d *docbind.Descriptor, ts typeSpec) error {
	attrs, err := b.attributes(ts.Attributes)
	if err != nil {
		return err
	}

	d.Attributes = attrs

	if ts.Value != "" {
		d.Value, err = b.primitive(ts.Value)
		if err != nil {
			return err
		}
	}

	for _, fs := range ts.Fields {
		fd, err := b.field(fs)
		if err != nil {
			return fmt.Errorf("field %s: %w", fs.Name, err)
		}

		d.Fields = append(d.Fields, fd)
	}

	return nil
}

func (b *builder) field(fs fieldSpec) (docbind.FieldDescriptor, error) {
	set := 0

	for _, v := range []string{fs.Type, fs.Element, fs.Group} {
		if v != "" {
			set++
		}
	}

	if set != 1 {
		return docbind.FieldDescriptor{}, fmt.Errorf("%w: exactly one of type, element or group is required", ErrInvalidFile)
	}

	attrs, err := b.attributes(fs.Attributes)
	if err != nil {
		return docbind.FieldDescriptor{}, err
	}

	switch {
	case fs.Type != "":
		t, err := b.primitive(fs.Type)
		if err != nil {
			return docbind.FieldDescriptor{}, err
		}

		return docbind.FieldDescriptor{
			Name:       fs.Name,
			Kind:       docbind.FieldPrimitive,
			Type:       t,
			Primary:    fs.Primary,
			Attributes: attrs,
		}, nil

	case fs.Element != "":
		d, err := b.descriptor(fs.Element)
		if err != nil {
			return docbind.FieldDescriptor{}, err
		}

		fd := docbind.Nested(fs.Name, d, attrs...)
		fd.Primary = fs.Primary

		return fd, nil

	default:
		d, err := b.descriptor(fs.Group)
		if err != nil {
			return docbind.FieldDescriptor{}, err
		}

		fd := docbind.GroupOf(fs.Name, d, attrs...)
		fd.Primary = fs.Primary

		return fd, nil
	}
}

func (b *builder) attributes(specs []attrSpec) ([]docbind.AttributeDescriptor, error) {
	out := make([]docbind.AttributeDescriptor, len(specs))

	for i, as := range specs {
		t, err := b.primitive(as.Type)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", as.Name, err)
		}

		ordinal := i
		if as.Ordinal != nil {
			ordinal = *as.Ordinal
		}

		out[i] = docbind.AttributeDescriptor{Name: as.Name, Type: t, Ordinal: ordinal}
	}

	return out, nil
}

func (b *builder) primitive(name string) (docbind.Type, error) {
	if enumName, ok := strings.CutPrefix(name, enumPrefix); ok {
		e, ok := b.enums[enumName]
		if !ok {
			return docbind.Null, fmt.Errorf("%w: enum %s", ErrUnknownType, enumName)
		}

		return docbind.Enum(e), nil
	}

	k, ok := docbind.ParseKind(name)
	if !ok || k == docbind.KindEnum || k == docbind.KindNull {
		return docbind.Null, fmt.Errorf("%w: %q", ErrUnknownType, name)
	}

	return docbind.Type{Kind: k}, nil
}

func (b *builder) descriptor(name string) (*docbind.Descriptor, error) {
	d, ok := b.types[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: element type %s", ErrUnknownType, name)
	}

	return d, nil
}

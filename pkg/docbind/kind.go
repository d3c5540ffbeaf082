package docbind

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Kind is a primitive value kind.
//
// Each kind has a fixed Go representation:
//
//	KindString  string
//	KindChar    Char
//	KindBool    bool
//	KindByte    int8
//	KindShort   int16
//	KindInt32   int32
//	KindFloat32 float32
//	KindFloat64 float64
//	KindInt64   int64
//	KindUUID    uuid.UUID
//	KindEnum    EnumValue
//
// KindNull has no values; it marks structural nodes.
type Kind uint8

// Supported kinds.
const (
	KindNull Kind = iota
	KindString
	KindChar
	KindBool
	KindByte
	KindShort
	KindInt32
	KindFloat32
	KindFloat64
	KindInt64
	KindUUID
	KindEnum
)

var kindNames = [...]string{
	KindNull:    "null",
	KindString:  "string",
	KindChar:    "char",
	KindBool:    "bool",
	KindByte:    "byte",
	KindShort:   "short",
	KindInt32:   "int32",
	KindFloat32: "float32",
	KindFloat64: "float64",
	KindInt64:   "int64",
	KindUUID:    "uuid",
	KindEnum:    "enum",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}

	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseKind returns the kind with the given name (as printed by [Kind.String]).
func ParseKind(name string) (Kind, bool) {
	for k, n := range kindNames {
		if n == name {
			return Kind(k), true
		}
	}

	return KindNull, false
}

// IsNumeric reports whether k is one of the integer or floating point kinds.
func (k Kind) IsNumeric() bool {
	switch k {
	case KindByte, KindShort, KindInt32, KindInt64, KindFloat32, KindFloat64:
		return true
	default:
		return false
	}
}

// Char is the Go representation of [KindChar]. It is distinct from int32 so
// that a char and an int32 never compare equal.
type Char rune

// EnumType is a closed, named set of variant names.
type EnumType struct {
	name     string
	variants []string
}

// NewEnumType declares an enum. Variant names are matched case-sensitively.
func NewEnumType(name string, variants ...string) *EnumType {
	return &EnumType{name: name, variants: slices.Clone(variants)}
}

// Name returns the enum's declared name.
func (e *EnumType) Name() string { return e.name }

// Variants returns a copy of the declared variant names.
func (e *EnumType) Variants() []string { return slices.Clone(e.variants) }

// Value returns the variant with the given name, or [ErrInvalidEnumValue].
func (e *EnumType) Value(name string) (EnumValue, error) {
	if !slices.Contains(e.variants, name) {
		return EnumValue{}, fmt.Errorf("%w: %q is not a variant of %s", ErrInvalidEnumValue, name, e.name)
	}

	return EnumValue{enum: e, name: name}, nil
}

// MustValue is like [EnumType.Value] but panics on an unknown variant.
// Intended for package-level declarations and tests.
func (e *EnumType) MustValue(name string) EnumValue {
	v, err := e.Value(name)
	if err != nil {
		panic(err)
	}

	return v
}

// EnumValue is one variant of an [EnumType].
type EnumValue struct {
	enum *EnumType
	name string
}

// Type returns the enum the value belongs to.
func (v EnumValue) Type() *EnumType { return v.enum }

// Name returns the variant name.
func (v EnumValue) Name() string { return v.name }

func (v EnumValue) String() string { return v.name }

// Type is a declared primitive type: a kind, plus the enum for [KindEnum].
// Types are comparable.
type Type struct {
	Kind Kind
	Enum *EnumType
}

// Predeclared types.
var (
	Null      = Type{Kind: KindNull}
	String    = Type{Kind: KindString}
	Character = Type{Kind: KindChar}
	Bool      = Type{Kind: KindBool}
	Byte      = Type{Kind: KindByte}
	Short     = Type{Kind: KindShort}
	Int32     = Type{Kind: KindInt32}
	Float32   = Type{Kind: KindFloat32}
	Float64   = Type{Kind: KindFloat64}
	Int64     = Type{Kind: KindInt64}
	UUID      = Type{Kind: KindUUID}
)

// Enum returns the type for values of e.
func Enum(e *EnumType) Type {
	return Type{Kind: KindEnum, Enum: e}
}

func (t Type) String() string {
	if t.Kind == KindEnum && t.Enum != nil {
		return "enum<" + t.Enum.name + ">"
	}

	return t.Kind.String()
}

// Accepts reports whether v is a value of t. Nil is accepted by every type.
func (t Type) Accepts(v any) bool {
	if v == nil {
		return true
	}

	switch t.Kind {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindChar:
		_, ok := v.(Char)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindByte:
		_, ok := v.(int8)
		return ok
	case KindShort:
		_, ok := v.(int16)
		return ok
	case KindInt32:
		_, ok := v.(int32)
		return ok
	case KindFloat32:
		_, ok := v.(float32)
		return ok
	case KindFloat64:
		_, ok := v.(float64)
		return ok
	case KindInt64:
		_, ok := v.(int64)
		return ok
	case KindUUID:
		_, ok := v.(uuid.UUID)
		return ok
	case KindEnum:
		ev, ok := v.(EnumValue)
		return ok && ev.enum == t.Enum
	default:
		return false
	}
}

// TypeOf returns the type of a non-nil value, or false if v is not a
// supported primitive value.
func TypeOf(v any) (Type, bool) {
	switch x := v.(type) {
	case string:
		return String, true
	case Char:
		return Character, true
	case bool:
		return Bool, true
	case int8:
		return Byte, true
	case int16:
		return Short, true
	case int32:
		return Int32, true
	case float32:
		return Float32, true
	case float64:
		return Float64, true
	case int64:
		return Int64, true
	case uuid.UUID:
		return UUID, true
	case EnumValue:
		return Enum(x.enum), true
	default:
		return Null, false
	}
}

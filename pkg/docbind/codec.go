package docbind

import (
	"fmt"
	"maps"
	"strconv"
	"unicode/utf8"

	"github.com/google/uuid"
)

// EncodeFunc converts a non-nil value of a kind to its text form.
type EncodeFunc func(t Type, v any) (string, error)

// DecodeFunc converts text to a value of a kind.
type DecodeFunc func(t Type, text string) (any, error)

type kindRules struct {
	encode EncodeFunc
	decode DecodeFunc
}

// Codec holds the text encode/decode rules for every primitive kind.
//
// A Codec is an ordinary value owned by its caller. [NewCodec] returns the
// default rules; [Codec.Register] overrides the rules for one kind without
// affecting other codecs.
type Codec struct {
	rules map[Kind]kindRules
}

// NewCodec returns a codec with the default rules for all kinds.
func NewCodec() *Codec {
	c := &Codec{rules: make(map[Kind]kindRules, len(kindNames))}

	c.rules[KindString] = kindRules{
		encode: func(_ Type, v any) (string, error) { return v.(string), nil },
		decode: func(_ Type, s string) (any, error) { return s, nil },
	}
	c.rules[KindChar] = kindRules{
		encode: func(_ Type, v any) (string, error) { return string(rune(v.(Char))), nil },
		decode: decodeChar,
	}
	c.rules[KindBool] = kindRules{
		encode: func(_ Type, v any) (string, error) { return strconv.FormatBool(v.(bool)), nil },
		decode: func(_ Type, s string) (any, error) {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return nil, malformed(s, KindBool, err)
			}

			return b, nil
		},
	}
	c.rules[KindByte] = intRules(KindByte, 8)
	c.rules[KindShort] = intRules(KindShort, 16)
	c.rules[KindInt32] = intRules(KindInt32, 32)
	c.rules[KindInt64] = intRules(KindInt64, 64)
	c.rules[KindFloat32] = kindRules{
		encode: func(_ Type, v any) (string, error) {
			return strconv.FormatFloat(float64(v.(float32)), 'g', -1, 32), nil
		},
		decode: func(_ Type, s string) (any, error) {
			f, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, malformed(s, KindFloat32, err)
			}

			return float32(f), nil
		},
	}
	c.rules[KindFloat64] = kindRules{
		encode: func(_ Type, v any) (string, error) {
			return strconv.FormatFloat(v.(float64), 'g', -1, 64), nil
		},
		decode: func(_ Type, s string) (any, error) {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, malformed(s, KindFloat64, err)
			}

			return f, nil
		},
	}
	c.rules[KindUUID] = kindRules{
		encode: func(_ Type, v any) (string, error) { return v.(uuid.UUID).String(), nil },
		decode: func(_ Type, s string) (any, error) {
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, malformed(s, KindUUID, err)
			}

			return id, nil
		},
	}
	c.rules[KindEnum] = kindRules{
		encode: func(_ Type, v any) (string, error) { return v.(EnumValue).name, nil },
		decode: func(t Type, s string) (any, error) {
			if t.Enum == nil {
				return nil, fmt.Errorf("%w: enum type is not declared", ErrInvalidEnumValue)
			}

			return t.Enum.Value(s)
		},
	}

	return c
}

// Clone returns an independent copy of c.
func (c *Codec) Clone() *Codec {
	return &Codec{rules: maps.Clone(c.rules)}
}

// Register replaces the rules for kind. [KindNull] cannot be registered.
func (c *Codec) Register(kind Kind, encode EncodeFunc, decode DecodeFunc) error {
	if kind == KindNull {
		return fmt.Errorf("%w: null kind has no text representation", ErrUnsupportedOperation)
	}

	if encode == nil || decode == nil {
		return fmt.Errorf("register %s: encode and decode are required", kind)
	}

	c.rules[kind] = kindRules{encode: encode, decode: decode}

	return nil
}

// Encode returns the text form of v.
//
// A nil value has no text form: Encode returns ok=false and no error.
// A value that does not belong to t fails with [ErrValueTypeMismatch].
func (c *Codec) Encode(t Type, v any) (text string, ok bool, err error) {
	r, err := c.rulesFor(t)
	if err != nil {
		return "", false, err
	}

	if v == nil {
		return "", false, nil
	}

	if !t.Accepts(v) {
		return "", false, fmt.Errorf("%w: %T is not %s", ErrValueTypeMismatch, v, t)
	}

	text, err = r.encode(t, v)
	if err != nil {
		return "", false, err
	}

	return text, true, nil
}

// Decode parses text as a value of t.
func (c *Codec) Decode(t Type, text string) (any, error) {
	r, err := c.rulesFor(t)
	if err != nil {
		return nil, err
	}

	return r.decode(t, text)
}

func (c *Codec) rulesFor(t Type) (kindRules, error) {
	if t.Kind == KindNull {
		return kindRules{}, fmt.Errorf("%w: null kind has no text representation", ErrUnsupportedOperation)
	}

	r, ok := c.rules[t.Kind]
	if !ok {
		return kindRules{}, fmt.Errorf("%w: no rules for %s", ErrUnsupportedOperation, t.Kind)
	}

	return r, nil
}

func decodeChar(_ Type, s string) (any, error) {
	if utf8.RuneCountInString(s) != 1 {
		return nil, fmt.Errorf("%w: char needs exactly one character, got %q", ErrMalformedValue, s)
	}

	r, _ := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return nil, fmt.Errorf("%w: invalid utf-8 %q", ErrMalformedValue, s)
	}

	return Char(r), nil
}

func intRules(kind Kind, bits int) kindRules {
	return kindRules{
		encode: func(_ Type, v any) (string, error) {
			switch x := v.(type) {
			case int8:
				return strconv.FormatInt(int64(x), 10), nil
			case int16:
				return strconv.FormatInt(int64(x), 10), nil
			case int32:
				return strconv.FormatInt(int64(x), 10), nil
			default:
				return strconv.FormatInt(x.(int64), 10), nil
			}
		},
		decode: func(_ Type, s string) (any, error) {
			n, err := strconv.ParseInt(s, 10, bits)
			if err != nil {
				return nil, malformed(s, kind, err)
			}

			switch kind {
			case KindByte:
				return int8(n), nil
			case KindShort:
				return int16(n), nil
			case KindInt32:
				return int32(n), nil
			default:
				return n, nil
			}
		},
	}
}

func malformed(text string, kind Kind, cause error) error {
	return fmt.Errorf("%w: %q is not a valid %s: %w", ErrMalformedValue, text, kind, cause)
}

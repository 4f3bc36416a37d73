package metadata

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/hupe1980/vecand/internal/conv"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents an invalid kind.
	KindInvalid Kind = iota
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindBool represents a boolean value.
	KindBool
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	default:
		return "invalid"
	}
}

// Value is a small typed value used for metadata documents and filters.
//
// NOTE: This is also used for persistence; keep it stable.
type Value struct {
	Kind Kind    `json:"k"`
	I64  int64   `json:"i,omitempty"`
	F64  float64 `json:"f,omitempty"`
	S    string  `json:"s,omitempty"`
	B    bool    `json:"b,omitempty"`
}

// Int returns an int64 Value.
func Int(v int64) Value { return Value{Kind: KindInt, I64: v} }

// Float returns a float64 Value.
func Float(v float64) Value { return Value{Kind: KindFloat, F64: v} }

// String returns a string Value.
func String(v string) Value { return Value{Kind: KindString, S: v} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{Kind: KindBool, B: v} }

func fromUint64(x uint64) (Value, error) {
	i, err := conv.Uint64ToInt64(x)
	if err != nil {
		return Value{}, fmt.Errorf("metadata: %w", err)
	}
	return Int(i), nil
}

// FromAny converts a decoded JSON/YAML scalar into a Value.
func FromAny(v any) (Value, error) {
	switch x := v.(type) {
	case Value:
		return x, nil
	case int:
		return Int(int64(x)), nil
	case int32:
		return Int(int64(x)), nil
	case int64:
		return Int(x), nil
	case uint32:
		return Int(int64(x)), nil
	case uint:
		return fromUint64(uint64(x))
	case uint64:
		return fromUint64(x)
	case float32:
		return Float(float64(x)), nil
	case float64:
		return Float(x), nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i), nil
		}
		f, err := x.Float64()
		if err != nil {
			return Value{}, err
		}
		return Float(f), nil
	case string:
		return String(x), nil
	case bool:
		return Bool(x), nil
	default:
		return Value{}, fmt.Errorf("metadata: unsupported value type %T", v)
	}
}

// DocumentFromMap converts a decoded attribute map into a Document.
func DocumentFromMap(m map[string]any) (Document, error) {
	if len(m) == 0 {
		return nil, nil
	}
	doc := make(Document, len(m))
	for k, raw := range m {
		v, err := FromAny(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		doc[k] = v
	}
	return doc, nil
}

// Key returns a stable string representation for use in maps.
//
// Integral floats share the key of the equal integer so that equality probes
// find them regardless of how the number was decoded.
func (v Value) Key() string {
	switch v.Kind {
	case KindInt:
		return "n:" + strconv.FormatInt(v.I64, 10)
	case KindFloat:
		if v.F64 == math.Trunc(v.F64) && math.Abs(v.F64) < 1<<53 {
			return "n:" + strconv.FormatInt(int64(v.F64), 10)
		}
		return "n:" + strconv.FormatFloat(v.F64, 'g', -1, 64)
	case KindString:
		return "s:" + v.S
	case KindBool:
		if v.B {
			return "b:1"
		}
		return "b:0"
	default:
		return "invalid"
	}
}

// String renders the value for EXPLAIN output and errors.
func (v Value) String() string {
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.I64, 10)
	case KindFloat:
		return strconv.FormatFloat(v.F64, 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.S)
	case KindBool:
		return strconv.FormatBool(v.B)
	default:
		return "<invalid>"
	}
}

func (v Value) isNumeric() bool {
	return v.Kind == KindInt || v.Kind == KindFloat
}

func (v Value) number() float64 {
	if v.Kind == KindInt {
		return float64(v.I64)
	}
	return v.F64
}

// Compare orders two values. Integers and floats compare numerically with
// each other; other kinds only compare within the same kind. ok is false when
// the values are not comparable.
func (v Value) Compare(other Value) (cmp int, ok bool) {
	if v.isNumeric() && other.isNumeric() {
		if v.Kind == KindInt && other.Kind == KindInt {
			return compareOrdered(v.I64, other.I64), true
		}
		return compareOrdered(v.number(), other.number()), true
	}
	if v.Kind != other.Kind {
		return 0, false
	}
	switch v.Kind {
	case KindString:
		return compareOrdered(v.S, other.S), true
	case KindBool:
		switch {
		case v.B == other.B:
			return 0, true
		case !v.B:
			return -1, true
		default:
			return 1, true
		}
	default:
		return 0, false
	}
}

// Equal reports whether the values are comparable and equal.
func (v Value) Equal(other Value) bool {
	c, ok := v.Compare(other)
	return ok && c == 0
}

func compareOrdered[T int64 | float64 | string](a, b T) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Document is a typed metadata document.
type Document map[string]Value

// Clone creates a copy of the document.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	clone := make(Document, len(d))
	for k, v := range d {
		clone[k] = v
	}
	return clone
}

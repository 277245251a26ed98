// © 2025 Platform Engineering Labs Inc.
//
// SPDX-License-Identifier: FSL-1.1-ALv2

package model

import (
	"fmt"
	"sort"

	json "github.com/goccy/go-json"
)

// Kind discriminates the four shapes a property value can take. Every value
// in a resource's property tree is exactly one of these; anything else is
// rejected at the boundary with an UnsupportedValueError.
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
	KindToken
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	case KindToken:
		return "token"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value is the tagged variant flowing through resolution. Values are
// immutable once constructed; resolution always builds new ones.
type Value struct {
	kind    Kind
	scalar  any
	seq     []Value
	mapping map[string]Value
	token   Token
}

func StringValue(s string) Value { return Value{kind: KindScalar, scalar: s} }
func BoolValue(b bool) Value     { return Value{kind: KindScalar, scalar: b} }
func NumberValue(n float64) Value {
	return Value{kind: KindScalar, scalar: n}
}
func IntValue(n int64) Value { return Value{kind: KindScalar, scalar: n} }
func NullValue() Value       { return Value{kind: KindScalar, scalar: nil} }

func SequenceValue(elems ...Value) Value {
	return Value{kind: KindSequence, seq: elems}
}

func MappingValue(m map[string]Value) Value {
	if m == nil {
		m = map[string]Value{}
	}
	return Value{kind: KindMapping, mapping: m}
}

func TokenValue(t Token) Value { return Value{kind: KindToken, token: t} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) Scalar() any { return v.scalar }

func (v Value) Sequence() []Value { return v.seq }

func (v Value) Mapping() map[string]Value { return v.mapping }

func (v Value) Token() Token { return v.token }

// IsNull reports whether the value is the scalar null.
func (v Value) IsNull() bool { return v.kind == KindScalar && v.scalar == nil }

// SortedKeys returns the mapping keys in lexicographic order. Emission
// iterates mappings exclusively through this so output is reproducible.
func (v Value) SortedKeys() []string {
	keys := make([]string, 0, len(v.mapping))
	for k := range v.mapping {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FromGo converts an arbitrary Go value into the tagged variant. Nested
// sequences and mappings are converted recursively; a value outside the
// supported set fails with the offending property path.
func FromGo(v any) (Value, error) {
	return fromGo(v, "$")
}

func fromGo(v any, path string) (Value, error) {
	switch val := v.(type) {
	case nil:
		return NullValue(), nil
	case Value:
		return val, nil
	case Token:
		return TokenValue(val), nil
	case string:
		return StringValue(val), nil
	case bool:
		return BoolValue(val), nil
	case int:
		return IntValue(int64(val)), nil
	case int64:
		return IntValue(val), nil
	case float64:
		return NumberValue(val), nil
	case json.Number:
		return Value{kind: KindScalar, scalar: val}, nil
	case []Value:
		return SequenceValue(val...), nil
	case []any:
		elems := make([]Value, 0, len(val))
		for i, e := range val {
			ev, err := fromGo(e, fmt.Sprintf("%s.%d", path, i))
			if err != nil {
				return Value{}, err
			}
			elems = append(elems, ev)
		}
		return SequenceValue(elems...), nil
	case []string:
		elems := make([]Value, 0, len(val))
		for _, s := range val {
			elems = append(elems, StringValue(s))
		}
		return SequenceValue(elems...), nil
	case map[string]Value:
		return MappingValue(val), nil
	case map[string]any:
		m := make(map[string]Value, len(val))
		for k, e := range val {
			ev, err := fromGo(e, path+"."+k)
			if err != nil {
				return Value{}, err
			}
			m[k] = ev
		}
		return MappingValue(m), nil
	case map[string]string:
		m := make(map[string]Value, len(val))
		for k, s := range val {
			m[k] = StringValue(s)
		}
		return MappingValue(m), nil
	default:
		return Value{}, &UnsupportedValueError{Path: path, GoType: fmt.Sprintf("%T", v)}
	}
}

// MarshalJSON serializes the value with lexicographic mapping keys. A token
// reaching serialization means resolution was skipped or bypassed; that must
// never leak into output.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindScalar:
		return json.Marshal(v.scalar)
	case KindSequence:
		out := []byte{'['}
		for i, e := range v.seq {
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			if i > 0 {
				out = append(out, ',')
			}
			out = append(out, b...)
		}
		return append(out, ']'), nil
	case KindMapping:
		out := []byte{'{'}
		for i, k := range v.SortedKeys() {
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			vb, err := v.mapping[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			if i > 0 {
				out = append(out, ',')
			}
			out = append(out, kb...)
			out = append(out, ':')
			out = append(out, vb...)
		}
		return append(out, '}'), nil
	case KindToken:
		return nil, fmt.Errorf("unresolved token %s cannot be serialized", v.token.ID())
	default:
		return nil, fmt.Errorf("cannot serialize value of %s", v.kind)
	}
}

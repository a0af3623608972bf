package telemetry

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ValueKind identifies the concrete type held by a Value.
type ValueKind int

const (
	KindInt ValueKind = iota
	KindFloat
	KindString
)

// Value is an attribute scalar: an integer, a float or a string. Attribute
// maps are rebuilt from scratch on every notification, so values are
// immutable once created.
type Value struct {
	kind ValueKind
	i    int64
	f    float64
	s    string
}

// Int creates an integer attribute value.
func Int(v int64) Value {
	return Value{kind: KindInt, i: v}
}

// Float creates a floating point attribute value.
func Float(v float64) Value {
	return Value{kind: KindFloat, f: v}
}

// Str creates a string attribute value.
func Str(v string) Value {
	return Value{kind: KindString, s: v}
}

// Bool creates an integer attribute value carrying 1 for true and 0 for
// false, matching how the controller reports flags.
func Bool(v bool) Value {
	if v {
		return Int(1)
	}
	return Int(0)
}

// Kind returns the kind of the held scalar.
func (v Value) Kind() ValueKind {
	return v.kind
}

// Interface returns the held scalar as an untyped value, for handing to
// encoders and script runtimes.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	default:
		return v.i
	}
}

// String formats the held scalar for logs.
func (v Value) String() string {
	switch v.kind {
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindString:
		return v.s
	default:
		return strconv.FormatInt(v.i, 10)
	}
}

// MarshalJSON encodes the held scalar directly, without a type wrapper.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// Attributes is a flat mapping of attribute name to scalar value.
type Attributes map[string]Value

// FromInterface converts an untyped scalar into a Value. Booleans become
// 1/0 integers. Unsupported types are rejected.
func FromInterface(v interface{}) (Value, error) {
	switch t := v.(type) {
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float64:
		return Float(t), nil
	case string:
		return Str(t), nil
	case bool:
		return Bool(t), nil
	default:
		return Value{}, fmt.Errorf("unsupported attribute type %T", v)
	}
}

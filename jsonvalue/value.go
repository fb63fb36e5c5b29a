// Package jsonvalue defines the parsed JSON value tree the codec works on.
//
// A Value is one of six kinds: Null, Boolean, Number, String, Array, Object.
// Objects keep their fields in insertion order, so a tree printed back to text
// has the same field layout it was built with:
//
//	{"type":"Point","x":1,"y":2}
//
// Numbers are float64 at this layer. A Number built from an integer also keeps
// the exact int64, which is what gets printed at the text and CBOR boundary.
package jsonvalue

import (
	"math"
)

// Kind identifies which case of the variant a Value holds.
type Kind uint8

const (
	NullKind Kind = iota
	BooleanKind
	NumberKind
	StringKind
	ArrayKind
	ObjectKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BooleanKind:
		return "boolean"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	case ArrayKind:
		return "array"
	case ObjectKind:
		return "object"
	}
	return "unknown"
}

// Value is an immutable JSON value. The zero Value is Null.
type Value struct {
	kind  Kind
	b     bool
	num   float64
	i     int64
	exact bool // num came from an integer, i holds it without loss
	str   string
	arr   []Value
	obj   *Object
}

// Null is the JSON null value.
var Null = Value{}

// Bool returns a Boolean value.
func Bool(b bool) Value {
	return Value{kind: BooleanKind, b: b}
}

// Number returns a Number value.
func Number(f float64) Value {
	return Value{kind: NumberKind, num: f}
}

// Int returns a Number value that remembers i exactly.
func Int(i int64) Value {
	return Value{kind: NumberKind, num: float64(i), i: i, exact: true}
}

// String returns a String value.
func String(s string) Value {
	return Value{kind: StringKind, str: s}
}

// Array returns an Array value holding a copy of elems.
func Array(elems ...Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: ArrayKind, arr: cp}
}

// ObjectOf wraps o as a Value. A nil o yields an empty Object.
func ObjectOf(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: ObjectKind, obj: o}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool   { return v.kind == NullKind }
func (v Value) IsBool() bool   { return v.kind == BooleanKind }
func (v Value) IsNumber() bool { return v.kind == NumberKind }
func (v Value) IsString() bool { return v.kind == StringKind }
func (v Value) IsArray() bool  { return v.kind == ArrayKind }
func (v Value) IsObject() bool { return v.kind == ObjectKind }

// AsBool reports the boolean held by v.
func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == BooleanKind
}

// AsFloat reports the number held by v as a float64.
func (v Value) AsFloat() (float64, bool) {
	return v.num, v.kind == NumberKind
}

// AsInt reports the number held by v as an int64. It succeeds when the number
// was built from an integer, or when it is a finite float with no fractional
// part inside the int64 range.
func (v Value) AsInt() (int64, bool) {
	if v.kind != NumberKind {
		return 0, false
	}
	if v.exact {
		return v.i, true
	}
	if math.IsNaN(v.num) || math.IsInf(v.num, 0) || v.num != math.Trunc(v.num) {
		return 0, false
	}
	if v.num < math.MinInt64 || v.num >= math.MaxInt64 {
		return 0, false
	}
	return int64(v.num), true
}

// IsExactInt reports whether v is a Number that carries an exact integer.
func (v Value) IsExactInt() bool {
	return v.kind == NumberKind && v.exact
}

// AsString reports the text held by v.
func (v Value) AsString() (string, bool) {
	return v.str, v.kind == StringKind
}

// AsArray returns a copy of the elements of an Array value.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != ArrayKind {
		return nil, false
	}
	cp := make([]Value, len(v.arr))
	copy(cp, v.arr)
	return cp, true
}

// AsObject returns the Object held by v. Callers must not modify it.
func (v Value) AsObject() (*Object, bool) {
	if v.kind != ObjectKind {
		return nil, false
	}
	return v.obj, true
}

// Len returns the number of elements of an Array or fields of an Object.
func (v Value) Len() int {
	switch v.kind {
	case ArrayKind:
		return len(v.arr)
	case ObjectKind:
		return v.obj.Len()
	}
	return 0
}

// Index returns the i-th element of an Array value, or Null when out of range.
func (v Value) Index(i int) Value {
	if v.kind != ArrayKind || i < 0 || i >= len(v.arr) {
		return Null
	}
	return v.arr[i]
}

// Equal reports whether v and w are the same JSON value. Numbers compare by
// value, objects compare field by field regardless of order.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}
	switch v.kind {
	case NullKind:
		return true
	case BooleanKind:
		return v.b == w.b
	case NumberKind:
		if v.exact && w.exact {
			return v.i == w.i
		}
		return v.num == w.num
	case StringKind:
		return v.str == w.str
	case ArrayKind:
		if len(v.arr) != len(w.arr) {
			return false
		}
		for i := range v.arr {
			if !v.arr[i].Equal(w.arr[i]) {
				return false
			}
		}
		return true
	case ObjectKind:
		return v.obj.Equal(w.obj)
	}
	return false
}

// String returns the compact JSON text of v. A tree that cannot be printed
// (it holds a NaN or infinite number) renders as "!" followed by the error.
func (v Value) String() string {
	b, err := v.MarshalJSON()
	if err != nil {
		return "!" + err.Error()
	}
	return string(b)
}

package value

import (
	"math"
	"reflect"
	"strconv"
)

// Kind identifies the dynamic type held by a [Value].
type Kind uint8

const (
	// KindNull is the absent value. Tables never store it.
	KindNull Kind = iota
	// KindBool is a boolean.
	KindBool
	// KindNumber is a double precision number. Integers and reals share this kind.
	KindNumber
	// KindString is a byte string.
	KindString
	// KindTable is a host table (object or array).
	KindTable
	// KindOpaque is a host value with no JSON representation (function, userdata, ...).
	KindOpaque
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindTable:
		return "table"
	case KindOpaque:
		return "opaque"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a tagged union over the host value kinds. The zero Value is Null.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	t    *Table
	o    any
}

// Null returns the absent value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number wraps a float64.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String wraps a string.
func String(s string) Value { return Value{kind: KindString, s: s} }

// FromTable wraps t. A nil table yields Null.
func FromTable(t *Table) Value {
	if t == nil {
		return Value{}
	}
	return Value{kind: KindTable, t: t}
}

// Opaque wraps a host value that has no JSON counterpart.
func Opaque(x any) Value { return Value{kind: KindOpaque, o: x} }

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean and whether v holds one.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number and whether v holds one.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string and whether v holds one.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsTable returns the table and whether v holds one.
func (v Value) AsTable() (*Table, bool) { return v.t, v.kind == KindTable }

// AsOpaque returns the host value and whether v holds one.
func (v Value) AsOpaque() (any, bool) { return v.o, v.kind == KindOpaque }

// Interface lowers v into plain Go values. Tables that pass [Table.IsSequence] become
// []any, every other table becomes map[string]any.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindTable:
		return v.t.Interface()
	case KindOpaque:
		return v.o
	default:
		return nil
	}
}

// Equal reports whether a and b hold the same tree. Table entry order is ignored;
// NaN numbers compare equal to each other.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		if math.IsNaN(a.n) && math.IsNaN(b.n) {
			return true
		}
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindTable:
		return a.t.Equal(b.t)
	default:
		return opaqueEqual(a.o, b.o)
	}
}

func opaqueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

package value

import (
	"math"
	"strconv"
)

// Key is a table key: either a string or an integer.
type Key struct {
	s     string
	i     int64
	isInt bool
}

// StringKey returns a string key.
func StringKey(s string) Key { return Key{s: s} }

// IntKey returns an integer key.
func IntKey(i int64) Key { return Key{i: i, isInt: true} }

// IsInt reports whether k is an integer key.
func (k Key) IsInt() bool { return k.isInt }

// Int returns the integer key. It is zero for string keys.
func (k Key) Int() int64 { return k.i }

// String returns the key as text; integer keys use their decimal form.
func (k Key) String() string {
	if k.isInt {
		return strconv.FormatInt(k.i, 10)
	}
	return k.s
}

// Table is an insertion-ordered host container. Storing Null under a key removes the
// key. A Table is not safe for concurrent mutation.
type Table struct {
	keys  []Key
	vals  []Value
	index map[Key]int
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{index: make(map[Key]int)}
}

// NewArray builds a table with keys 1..n. Null items leave holes.
func NewArray(items ...Value) *Table {
	t := &Table{
		keys:  make([]Key, 0, len(items)),
		vals:  make([]Value, 0, len(items)),
		index: make(map[Key]int, len(items)),
	}
	for i, v := range items {
		t.Set(IntKey(int64(i+1)), v)
	}
	return t
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.keys)
}

// Set stores v under k, appending new keys in insertion order. A Null v removes k.
func (t *Table) Set(k Key, v Value) {
	if v.kind == KindNull {
		t.remove(k)
		return
	}
	if t.index == nil {
		t.index = make(map[Key]int)
	}
	if pos, ok := t.index[k]; ok {
		t.vals[pos] = v
		return
	}
	t.index[k] = len(t.keys)
	t.keys = append(t.keys, k)
	t.vals = append(t.vals, v)
}

func (t *Table) remove(k Key) {
	pos, ok := t.index[k]
	if !ok {
		return
	}
	delete(t.index, k)
	copy(t.keys[pos:], t.keys[pos+1:])
	copy(t.vals[pos:], t.vals[pos+1:])
	t.keys = t.keys[:len(t.keys)-1]
	t.vals[len(t.vals)-1] = Value{}
	t.vals = t.vals[:len(t.vals)-1]
	for i := pos; i < len(t.keys); i++ {
		t.index[t.keys[i]] = i
	}
}

// Lookup returns the value under k and whether it exists.
func (t *Table) Lookup(k Key) (Value, bool) {
	if t == nil {
		return Value{}, false
	}
	pos, ok := t.index[k]
	if !ok {
		return Value{}, false
	}
	return t.vals[pos], true
}

// Get returns the value under k, or Null.
func (t *Table) Get(k Key) Value {
	v, _ := t.Lookup(k)
	return v
}

// SetField is Set with a string key.
func (t *Table) SetField(name string, v Value) { t.Set(StringKey(name), v) }

// Field returns the value under a string key, or Null.
func (t *Table) Field(name string) Value { return t.Get(StringKey(name)) }

// SetIndex is Set with an integer key.
func (t *Table) SetIndex(i int64, v Value) { t.Set(IntKey(i), v) }

// Index returns the value under an integer key, or Null.
func (t *Table) Index(i int64) Value { return t.Get(IntKey(i)) }

// Border returns the largest n such that keys 1..n are all present.
func (t *Table) Border() int {
	if t == nil {
		return 0
	}
	n := 0
	for {
		if _, ok := t.index[IntKey(int64(n+1))]; !ok {
			return n
		}
		n++
	}
}

// Append stores v under Border()+1.
func (t *Table) Append(v Value) {
	t.Set(IntKey(int64(t.Border()+1)), v)
}

// IsSequence reports whether t is non-empty and its keys are exactly 1..Len().
func (t *Table) IsSequence() bool {
	n := t.Len()
	if n == 0 {
		return false
	}
	for _, k := range t.keys {
		if !k.isInt || k.i < 1 || k.i > int64(n) {
			return false
		}
	}
	// keys are unique, so n distinct integers in [1, n] cover the range
	return true
}

// Range calls fn for each entry in insertion order until fn returns false.
func (t *Table) Range(fn func(k Key, v Value) bool) {
	if t == nil {
		return
	}
	for i := range t.keys {
		if !fn(t.keys[i], t.vals[i]) {
			return
		}
	}
}

// Keys returns a copy of the keys in insertion order.
func (t *Table) Keys() []Key {
	if t == nil {
		return nil
	}
	out := make([]Key, len(t.keys))
	copy(out, t.keys)
	return out
}

// Clone returns a deep copy; nested tables are copied too.
func (t *Table) Clone() *Table {
	if t == nil {
		return nil
	}
	out := &Table{
		keys:  make([]Key, len(t.keys)),
		vals:  make([]Value, len(t.vals)),
		index: make(map[Key]int, len(t.keys)),
	}
	copy(out.keys, t.keys)
	for i, v := range t.vals {
		if v.kind == KindTable {
			v = FromTable(v.t.Clone())
		}
		out.vals[i] = v
		out.index[out.keys[i]] = i
	}
	return out
}

// Equal compares entries regardless of insertion order.
func (t *Table) Equal(o *Table) bool {
	if t.Len() != o.Len() {
		return false
	}
	if t == nil || t == o {
		return true
	}
	for i, k := range t.keys {
		ov, ok := o.Lookup(k)
		if !ok || !Equal(t.vals[i], ov) {
			return false
		}
	}
	return true
}

// Interface lowers t into []any when it is a sequence and map[string]any otherwise.
func (t *Table) Interface() any {
	if t.IsSequence() {
		out := make([]any, t.Len())
		for i := range out {
			out[i] = t.Index(int64(i + 1)).Interface()
		}
		return out
	}
	out := make(map[string]any, t.Len())
	t.Range(func(k Key, v Value) bool {
		out[k.String()] = v.Interface()
		return true
	})
	return out
}

// keyFromNumber mirrors host semantics where a float key with an integral value is the
// same key as the integer.
func keyFromNumber(f float64) (Key, bool) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return Key{}, false
	}
	return IntKey(int64(f)), true
}

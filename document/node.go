package document

import (
	"errors"
	"strconv"
)

var (
	ErrNilNode      = errors.New("document: nil node")
	ErrNotObject    = errors.New("document: node is not an object")
	ErrNotArray     = errors.New("document: node is not an array")
	ErrAlreadyOwned = errors.New("document: node already has an owner")
	ErrReleased     = errors.New("document: node already released")
)

// Kind is the JSON type of a node.
type Kind uint8

const (
	Null Kind = iota
	Bool
	Integer
	Real
	String
	Object
	Array
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Integer:
		return "integer"
	case Real:
		return "real"
	case String:
		return "string"
	case Object:
		return "object"
	case Array:
		return "array"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Node is a JSON value. Object keys keep insertion order.
type Node struct {
	kind Kind

	b bool
	i int64
	f float64
	s string

	keys   []string
	fields map[string]*Node
	items  []*Node

	alloc    Allocator
	owned    bool
	released bool
}

func newNode(a Allocator, k Kind) (*Node, error) {
	if a == nil {
		a = defaultHeap
	}
	if err := a.Acquire(k); err != nil {
		return nil, err
	}
	return &Node{kind: k, alloc: a}, nil
}

// NewNull allocates a null node from a.
func NewNull(a Allocator) (*Node, error) { return newNode(a, Null) }

// NewBool allocates a boolean node from a.
func NewBool(a Allocator, b bool) (*Node, error) {
	n, err := newNode(a, Bool)
	if err != nil {
		return nil, err
	}
	n.b = b
	return n, nil
}

// NewInteger allocates an integer node from a.
func NewInteger(a Allocator, i int64) (*Node, error) {
	n, err := newNode(a, Integer)
	if err != nil {
		return nil, err
	}
	n.i = i
	return n, nil
}

// NewReal allocates a real node from a.
func NewReal(a Allocator, f float64) (*Node, error) {
	n, err := newNode(a, Real)
	if err != nil {
		return nil, err
	}
	n.f = f
	return n, nil
}

// NewString allocates a string node from a.
func NewString(a Allocator, s string) (*Node, error) {
	n, err := newNode(a, String)
	if err != nil {
		return nil, err
	}
	n.s = s
	return n, nil
}

// NewObject allocates an empty object node from a.
func NewObject(a Allocator) (*Node, error) {
	n, err := newNode(a, Object)
	if err != nil {
		return nil, err
	}
	n.fields = make(map[string]*Node)
	return n, nil
}

// NewArray allocates an empty array node from a.
func NewArray(a Allocator) (*Node, error) { return newNode(a, Array) }

// Release hands n and its whole subtree back to their allocators. Releasing a nil or
// already released node is a no-op. Releasing a node that is attached to a parent is a
// no-op as well; the parent releases it.
func (n *Node) Release() {
	if n == nil || n.released || n.owned {
		return
	}
	n.free()
}

func (n *Node) free() {
	if n.released {
		return
	}
	n.released = true
	for _, k := range n.keys {
		n.fields[k].free()
	}
	for _, child := range n.items {
		child.free()
	}
	n.keys, n.fields, n.items = nil, nil, nil
	n.alloc.Release(n.kind)
}

// adopt takes ownership of child, releasing it when it cannot be attached.
func (n *Node) adopt(child *Node, want Kind) error {
	if child == nil {
		return ErrNilNode
	}
	var err error
	switch {
	case n.released:
		err = ErrReleased
	case n.kind != want && want == Object:
		err = ErrNotObject
	case n.kind != want:
		err = ErrNotArray
	case child.owned || child == n:
		return ErrAlreadyOwned
	case child.released:
		return ErrReleased
	}
	if err != nil {
		child.Release()
		return err
	}
	child.owned = true
	return nil
}

// Set stores child under key, releasing any previous value. Ownership of child moves to
// n, also on error: a child that cannot be attached is released.
func (n *Node) Set(key string, child *Node) error {
	if err := n.adopt(child, Object); err != nil {
		return err
	}
	if prev, ok := n.fields[key]; ok {
		prev.free()
	} else {
		n.keys = append(n.keys, key)
	}
	n.fields[key] = child
	return nil
}

// Append adds child at the end of array n. Ownership rules match [Node.Set].
func (n *Node) Append(child *Node) error {
	if err := n.adopt(child, Array); err != nil {
		return err
	}
	n.items = append(n.items, child)
	return nil
}

// Kind returns the node kind. A nil node is Null.
func (n *Node) Kind() Kind {
	if n == nil {
		return Null
	}
	return n.kind
}

// IsReleased reports whether Release has been called on n.
func (n *Node) IsReleased() bool { return n != nil && n.released }

// Bool returns the boolean payload.
func (n *Node) Bool() bool { return n != nil && n.b }

// Int returns integer nodes as int64, truncating reals.
func (n *Node) Int() int64 {
	if n == nil {
		return 0
	}
	if n.kind == Real {
		return int64(n.f)
	}
	return n.i
}

// Number returns integer and real nodes as float64.
func (n *Node) Number() float64 {
	if n == nil {
		return 0
	}
	if n.kind == Integer {
		return float64(n.i)
	}
	return n.f
}

// Str returns the string payload.
func (n *Node) Str() string {
	if n == nil {
		return ""
	}
	return n.s
}

// Len returns the number of object fields or array items.
func (n *Node) Len() int {
	if n == nil {
		return 0
	}
	if n.kind == Object {
		return len(n.keys)
	}
	return len(n.items)
}

// Get returns the object field under key, or nil.
func (n *Node) Get(key string) *Node {
	if n == nil || n.kind != Object {
		return nil
	}
	return n.fields[key]
}

// At returns the array item at i, or nil.
func (n *Node) At(i int) *Node {
	if n == nil || n.kind != Array || i < 0 || i >= len(n.items) {
		return nil
	}
	return n.items[i]
}

// Keys returns a copy of the object keys in order.
func (n *Node) Keys() []string {
	if n == nil || n.kind != Object {
		return nil
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Range visits object fields in order until fn returns false.
func (n *Node) Range(fn func(key string, child *Node) bool) {
	if n == nil || n.kind != Object {
		return
	}
	for _, k := range n.keys {
		if !fn(k, n.fields[k]) {
			return
		}
	}
}

// Each visits array items in order until fn returns false.
func (n *Node) Each(fn func(i int, child *Node) bool) {
	if n == nil || n.kind != Array {
		return
	}
	for i, child := range n.items {
		if !fn(i, child) {
			return
		}
	}
}

// Clone deep-copies n into nodes acquired from a. On failure every node built so far
// is released.
func (n *Node) Clone(a Allocator) (*Node, error) {
	if n == nil {
		return nil, ErrNilNode
	}
	if n.released {
		return nil, ErrReleased
	}
	out, err := newNode(a, n.kind)
	if err != nil {
		return nil, err
	}
	out.b, out.i, out.f, out.s = n.b, n.i, n.f, n.s
	switch n.kind {
	case Object:
		out.fields = make(map[string]*Node, len(n.keys))
		for _, k := range n.keys {
			child, err := n.fields[k].Clone(a)
			if err != nil {
				out.Release()
				return nil, err
			}
			if err := out.Set(k, child); err != nil {
				out.Release()
				return nil, err
			}
		}
	case Array:
		for _, item := range n.items {
			child, err := item.Clone(a)
			if err != nil {
				out.Release()
				return nil, err
			}
			if err := out.Append(child); err != nil {
				out.Release()
				return nil, err
			}
		}
	}
	return out, nil
}

// Interface lowers n into plain Go values: map[string]any, []any, int64, float64,
// string, bool or nil.
func (n *Node) Interface() any {
	if n == nil {
		return nil
	}
	switch n.kind {
	case Bool:
		return n.b
	case Integer:
		return n.i
	case Real:
		return n.f
	case String:
		return n.s
	case Object:
		out := make(map[string]any, len(n.keys))
		for _, k := range n.keys {
			out[k] = n.fields[k].Interface()
		}
		return out
	case Array:
		out := make([]any, len(n.items))
		for i, item := range n.items {
			out[i] = item.Interface()
		}
		return out
	default:
		return nil
	}
}

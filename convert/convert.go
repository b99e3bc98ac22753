// Package convert translates host tables into JSON documents and back.
//
// The walk is recursive and depth-first. Producing a document decides between object
// and array per table with [value.Table.IsSequence]; an empty table always becomes an
// object. Entries whose value has no JSON form (null, NaN and infinite numbers, opaque
// host values) are skipped.
// Allocation failure and depth overflow abort the whole conversion and release every
// node built so far.
package convert

import (
	"errors"
	"fmt"
	"math"

	"github.com/MrEthical07/goJWT/document"
	"github.com/MrEthical07/goJWT/value"
)

var (
	// ErrAllocation wraps allocator refusals while building a document.
	ErrAllocation = errors.New("allocate memory error")
	// ErrMaxDepth is returned when nesting exceeds the converter's depth bound.
	ErrMaxDepth = errors.New("maximum nesting depth exceeded")
	// ErrNotContainer is returned when a conversion root is not an object or array.
	ErrNotContainer = errors.New("conversion root must be an object or array")
)

// Converter holds the allocator and depth bound used by every conversion. The zero
// value uses the default heap and document.DefaultMaxDepth.
type Converter struct {
	alloc    document.Allocator
	maxDepth int
}

// Option configures a Converter.
type Option func(*Converter)

// WithAllocator sets the allocator documents are built from.
func WithAllocator(a document.Allocator) Option {
	return func(c *Converter) { c.alloc = a }
}

// WithMaxDepth bounds container nesting. Values <= 0 select document.DefaultMaxDepth.
func WithMaxDepth(depth int) Option {
	return func(c *Converter) { c.maxDepth = depth }
}

// New returns a Converter configured by opts.
func New(opts ...Option) *Converter {
	c := &Converter{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Converter) depthLimit() int {
	if c == nil || c.maxDepth <= 0 {
		return document.DefaultMaxDepth
	}
	return c.maxDepth
}

func (c *Converter) allocator() document.Allocator {
	if c == nil {
		return nil
	}
	return c.alloc
}

// ToDocument builds an object or array document from t, chosen by the sequence
// heuristic.
func (c *Converter) ToDocument(t *value.Table) (*document.Node, error) {
	if t.IsSequence() {
		return c.ToArray(t)
	}
	return c.ToObject(t)
}

// ToObject builds an object document from t whatever its shape. Integer keys are
// written in decimal.
func (c *Converter) ToObject(t *value.Table) (*document.Node, error) {
	if t == nil {
		return nil, ErrNotContainer
	}
	return c.object(t, 1)
}

// ToArray builds an array document holding t[1..Border()] in index order.
func (c *Converter) ToArray(t *value.Table) (*document.Node, error) {
	if t == nil {
		return nil, ErrNotContainer
	}
	return c.array(t, 1)
}

func (c *Converter) object(t *value.Table, depth int) (*document.Node, error) {
	if depth > c.depthLimit() {
		return nil, ErrMaxDepth
	}
	obj, err := document.NewObject(c.allocator())
	if err != nil {
		return nil, allocErr(err)
	}

	t.Range(func(k value.Key, v value.Value) bool {
		var child *document.Node
		child, err = c.entry(v, depth)
		if err != nil || child == nil {
			return err == nil
		}
		if err = obj.Set(k.String(), child); err != nil {
			err = allocErr(err)
			return false
		}
		return true
	})
	if err != nil {
		obj.Release()
		return nil, err
	}
	return obj, nil
}

func (c *Converter) array(t *value.Table, depth int) (*document.Node, error) {
	if depth > c.depthLimit() {
		return nil, ErrMaxDepth
	}
	arr, err := document.NewArray(c.allocator())
	if err != nil {
		return nil, allocErr(err)
	}

	n := t.Border()
	for i := 1; i <= n; i++ {
		child, err := c.entry(t.Index(int64(i)), depth)
		if err != nil {
			arr.Release()
			return nil, err
		}
		if child == nil {
			continue
		}
		if err := arr.Append(child); err != nil {
			arr.Release()
			return nil, allocErr(err)
		}
	}
	return arr, nil
}

// entry returns nil, nil for values that are skipped.
func (c *Converter) entry(v value.Value, depth int) (*document.Node, error) {
	var (
		n   *document.Node
		err error
	)
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.AsBool()
		n, err = document.NewBool(c.allocator(), b)
	case value.KindString:
		s, _ := v.AsString()
		n, err = document.NewString(c.allocator(), s)
	case value.KindNumber:
		f, _ := v.AsNumber()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, nil
		}
		n, err = document.NewReal(c.allocator(), f)
	case value.KindTable:
		t, _ := v.AsTable()
		if t.IsSequence() {
			return c.array(t, depth+1)
		}
		return c.object(t, depth+1)
	default:
		return nil, nil
	}
	if err != nil {
		return nil, allocErr(err)
	}
	return n, nil
}

func allocErr(err error) error {
	if errors.Is(err, ErrAllocation) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrAllocation, err)
}

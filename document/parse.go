package document

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

// DefaultMaxDepth bounds container nesting when no explicit depth is given.
const DefaultMaxDepth = 64

var (
	ErrMaxDepth     = errors.New("document: maximum nesting depth exceeded")
	ErrTrailingData = errors.New("document: trailing data after JSON value")
)

var config = jsoniter.Config{
	EscapeHTML:             false,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

type parser struct {
	iter     *jsoniter.Iterator
	alloc    Allocator
	maxDepth int
}

// Parse builds a document from data, acquiring nodes from a (the default heap when
// nil). maxDepth <= 0 selects DefaultMaxDepth. On error nothing stays acquired.
func Parse(data []byte, a Allocator, maxDepth int) (*Node, error) {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	p := &parser{
		iter:     jsoniter.ParseBytes(config, data),
		alloc:    a,
		maxDepth: maxDepth,
	}
	n, err := p.parse(0)
	if err != nil {
		return nil, err
	}

	p.iter.WhatIsNext()
	switch {
	case p.iter.Error == nil:
		n.Release()
		return nil, ErrTrailingData
	case !errors.Is(p.iter.Error, io.EOF):
		n.Release()
		return nil, p.iter.Error
	}
	return n, nil
}

// error reports any iterator failure. jsoniter records io.EOF ahead of the real
// syntax error on truncated input, so EOF counts as a failure here.
func (p *parser) error() error {
	err := p.iter.Error
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// numberError tolerates EOF: a top-level number legitimately ends the input.
func (p *parser) numberError() error {
	if err := p.iter.Error; err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (p *parser) parse(depth int) (*Node, error) {
	valueType := p.iter.WhatIsNext()
	if err := p.error(); err != nil {
		return nil, err
	}

	switch valueType {
	case jsoniter.StringValue:
		v := p.iter.ReadString()
		if err := p.error(); err != nil {
			return nil, err
		}
		return NewString(p.alloc, v)

	case jsoniter.NumberValue:
		v := p.iter.ReadNumber()
		if err := p.numberError(); err != nil {
			return nil, err
		}
		return p.number(string(v))

	case jsoniter.NilValue:
		p.iter.ReadNil()
		if err := p.error(); err != nil {
			return nil, err
		}
		return NewNull(p.alloc)

	case jsoniter.BoolValue:
		v := p.iter.ReadBool()
		if err := p.error(); err != nil {
			return nil, err
		}
		return NewBool(p.alloc, v)

	case jsoniter.ArrayValue:
		if depth+1 > p.maxDepth {
			return nil, ErrMaxDepth
		}
		arr, err := NewArray(p.alloc)
		if err != nil {
			return nil, err
		}
		p.iter.ReadArrayCB(func(*jsoniter.Iterator) bool {
			var child *Node
			child, err = p.parse(depth + 1)
			if err != nil {
				return false
			}
			err = arr.Append(child)
			return err == nil
		})
		if err == nil {
			err = p.error()
		}
		if err != nil {
			arr.Release()
			return nil, err
		}
		return arr, nil

	case jsoniter.ObjectValue:
		if depth+1 > p.maxDepth {
			return nil, ErrMaxDepth
		}
		obj, err := NewObject(p.alloc)
		if err != nil {
			return nil, err
		}
		p.iter.ReadMapCB(func(_ *jsoniter.Iterator, field string) bool {
			var child *Node
			child, err = p.parse(depth + 1)
			if err != nil {
				return false
			}
			err = obj.Set(field, child)
			return err == nil
		})
		if err == nil {
			err = p.error()
		}
		if err != nil {
			obj.Release()
			return nil, err
		}
		return obj, nil

	default:
		return nil, errors.New("document: unexpected token")
	}
}

func (p *parser) number(lit string) (*Node, error) {
	if !strings.ContainsAny(lit, ".eE") {
		if i, err := strconv.ParseInt(lit, 10, 64); err == nil {
			return NewInteger(p.alloc, i)
		}
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		return nil, fmt.Errorf("document: invalid number %q: %w", lit, err)
	}
	return NewReal(p.alloc, f)
}

package convert

import (
	"github.com/MrEthical07/goJWT/document"
	"github.com/MrEthical07/goJWT/value"
)

// ToValue builds a host table from an object or array document. Null members are
// dropped: an object loses the key, an array keeps a hole at that index. Integer and
// real numbers both become value.Number.
func (c *Converter) ToValue(doc *document.Node) (*value.Table, error) {
	switch doc.Kind() {
	case document.Object, document.Array:
		return c.table(doc, 1)
	default:
		return nil, ErrNotContainer
	}
}

func (c *Converter) table(doc *document.Node, depth int) (*value.Table, error) {
	if depth > c.depthLimit() {
		return nil, ErrMaxDepth
	}
	t := value.NewTable()

	var err error
	if doc.Kind() == document.Object {
		doc.Range(func(key string, child *document.Node) bool {
			var v value.Value
			if v, err = c.member(child, depth); err != nil {
				return false
			}
			t.SetField(key, v)
			return true
		})
	} else {
		doc.Each(func(i int, child *document.Node) bool {
			var v value.Value
			if v, err = c.member(child, depth); err != nil {
				return false
			}
			t.SetIndex(int64(i+1), v)
			return true
		})
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (c *Converter) member(n *document.Node, depth int) (value.Value, error) {
	switch n.Kind() {
	case document.Bool:
		return value.Bool(n.Bool()), nil
	case document.String:
		return value.String(n.Str()), nil
	case document.Integer, document.Real:
		return value.Number(n.Number()), nil
	case document.Object, document.Array:
		t, err := c.table(n, depth+1)
		if err != nil {
			return value.Null(), err
		}
		return value.FromTable(t), nil
	default:
		return value.Null(), nil
	}
}

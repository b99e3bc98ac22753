package document

import (
	jsoniter "github.com/json-iterator/go"
)

// MarshalJSON writes n as compact JSON with object keys in document order.
func (n *Node) MarshalJSON() ([]byte, error) {
	if n == nil {
		return []byte("null"), nil
	}
	if n.released {
		return nil, ErrReleased
	}
	stream := config.BorrowStream(nil)
	defer config.ReturnStream(stream)

	n.write(stream)
	if stream.Error != nil {
		return nil, stream.Error
	}
	buf := stream.Buffer()
	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

// String returns the compact JSON text of n, or an empty string when n cannot be
// encoded (NaN or infinite reals).
func (n *Node) String() string {
	data, err := n.MarshalJSON()
	if err != nil {
		return ""
	}
	return string(data)
}

func (n *Node) write(stream *jsoniter.Stream) {
	switch n.kind {
	case Null:
		stream.WriteNil()
	case Bool:
		stream.WriteBool(n.b)
	case Integer:
		stream.WriteInt64(n.i)
	case Real:
		stream.WriteFloat64(n.f)
	case String:
		stream.WriteString(n.s)
	case Object:
		stream.WriteObjectStart()
		for i, k := range n.keys {
			if i > 0 {
				stream.WriteMore()
			}
			stream.WriteObjectField(k)
			n.fields[k].write(stream)
		}
		stream.WriteObjectEnd()
	case Array:
		stream.WriteArrayStart()
		for i, item := range n.items {
			if i > 0 {
				stream.WriteMore()
			}
			item.write(stream)
		}
		stream.WriteArrayEnd()
	}
}

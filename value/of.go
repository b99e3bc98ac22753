package value

// Of lifts a Go value into a Value. Maps with string or numeric keys and slices become
// tables; unrecognised types become Opaque values.
func Of(x any) Value {
	switch v := x.(type) {
	case nil:
		return Null()
	case Value:
		return v
	case *Table:
		return FromTable(v)
	case bool:
		return Bool(v)
	case string:
		return String(v)
	case []byte:
		return String(string(v))
	case float64:
		return Number(v)
	case float32:
		return Number(float64(v))
	case int:
		return Number(float64(v))
	case int8:
		return Number(float64(v))
	case int16:
		return Number(float64(v))
	case int32:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case uint:
		return Number(float64(v))
	case uint8:
		return Number(float64(v))
	case uint16:
		return Number(float64(v))
	case uint32:
		return Number(float64(v))
	case uint64:
		return Number(float64(v))
	case map[string]any:
		t := NewTable()
		for k, item := range v {
			t.SetField(k, Of(item))
		}
		return FromTable(t)
	case map[string]string:
		t := NewTable()
		for k, item := range v {
			t.SetField(k, String(item))
		}
		return FromTable(t)
	case map[any]any:
		t := NewTable()
		for k, item := range v {
			key, ok := keyOf(k)
			if !ok {
				continue
			}
			t.Set(key, Of(item))
		}
		return FromTable(t)
	case []any:
		items := make([]Value, len(v))
		for i, item := range v {
			items[i] = Of(item)
		}
		return FromTable(NewArray(items...))
	case []string:
		items := make([]Value, len(v))
		for i, item := range v {
			items[i] = String(item)
		}
		return FromTable(NewArray(items...))
	default:
		return Opaque(x)
	}
}

// Object builds a string-keyed table from alternating name/value pairs. Values go
// through [Of]; a trailing name without a value is ignored.
func Object(pairs ...any) *Table {
	t := NewTable()
	for i := 0; i+1 < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			continue
		}
		t.SetField(name, Of(pairs[i+1]))
	}
	return t
}

func keyOf(k any) (Key, bool) {
	switch v := k.(type) {
	case string:
		return StringKey(v), true
	case int:
		return IntKey(int64(v)), true
	case int64:
		return IntKey(v), true
	case float64:
		if key, ok := keyFromNumber(v); ok {
			return key, true
		}
		return Key{}, false
	default:
		return Key{}, false
	}
}

package query

import (
	"reflect"

	"golang.org/x/exp/constraints"
)

// -------------------------------------------------------------------
// Value – one JSON value inside a fragment. Values are dumb data
// containers; compile.go knows how to write each of them, escaping
// strings by construction.
// -------------------------------------------------------------------

type Value interface {
	write(w *writer) error
}

// Fragment is one "key": value entry of an object body. A fragment built
// by RegisterRaw carries pre-authored text instead of a key and value.
type Fragment struct {
	Key   string
	Value Value
	raw   string
}

// KV pairs a key with a value.
func KV(key string, v Value) Fragment { return Fragment{Key: key, Value: v} }

// ------------
// Literals
// ------------

// String renders s as a quoted, escaped JSON string.
func String(s string) Value { return str(s) }

// Bool renders true / false.
func Bool(b bool) Value { return boolean(b) }

// Int is shorthand for Number(v).
func Int(v int) Value { return integer(int64(v)) }

// Number renders any integer or float in locale-invariant form.
func Number[N constraints.Integer | constraints.Float](v N) Value {
	switch reflect.ValueOf(v).Kind() {
	case reflect.Float32, reflect.Float64:
		return float(float64(v))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return unsigned(uint64(v))
	default:
		return integer(int64(v))
	}
}

// Strings renders a JSON array of strings.
func Strings(ss ...string) Value {
	a := &ArrayValue{}
	for _, s := range ss {
		a.Append(String(s))
	}
	return a
}

// Raw embeds pre-authored JSON. Text that is already valid JSON is used as
// is; otherwise quotes are read as the Placeholder glyph. The text is
// validated when rendered.
//
//	Raw("{'lang': 'painless', 'threshold': 3}")
//	Raw(`{"name": "O'Brien"}`)
func Raw(json string) Value { return raw(json) }

// ------------
// Containers
// ------------

// ObjectValue is an ordered JSON object. Keys are written in insertion order
// and duplicates are kept.
type ObjectValue struct{ frags []Fragment }

// Object builds an ObjectValue from fragments.
func Object(frags ...Fragment) *ObjectValue {
	return &ObjectValue{frags: append([]Fragment(nil), frags...)}
}

// Add appends key: v and returns the object.
func (o *ObjectValue) Add(key string, v Value) *ObjectValue {
	o.frags = append(o.frags, KV(key, v))
	return o
}

// Len reports the number of entries.
func (o *ObjectValue) Len() int { return len(o.frags) }

// Fragments returns a copy of the entries in order.
func (o *ObjectValue) Fragments() []Fragment { return append([]Fragment(nil), o.frags...) }

// ArrayValue is an ordered JSON array.
type ArrayValue struct{ items []Value }

// Array builds an ArrayValue.
func Array(vs ...Value) *ArrayValue { return &ArrayValue{items: append([]Value(nil), vs...)} }

// Append adds values to the end of the array.
func (a *ArrayValue) Append(vs ...Value) *ArrayValue {
	a.items = append(a.items, vs...)
	return a
}

// Len reports the number of items.
func (a *ArrayValue) Len() int { return len(a.items) }

// ------------
// Builders as values
// ------------

// Node embeds a builder's full rendering, {"keyword": {...}}, one nesting
// level below the current one.
func Node(r Renderer) Value { return node{r.Core()} }

// Body embeds only a builder's body, {...}, one nesting level below the
// current one. Filter-style slots whose value is a query body use it.
func Body(r Renderer) Value { return body{r.Core()} }

// -------------------------------------------------------------------
// internal value types
// -------------------------------------------------------------------

type (
	str      string
	boolean  bool
	integer  int64
	unsigned uint64
	float    float64
	raw      string
	node     struct{ b *Builder }
	body     struct{ b *Builder }
)

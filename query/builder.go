// Package query builds search-engine query DSL documents with fluent,
// composable builders.
//
//	import q "github.com/manojoshi/plainelastic/query"
//
//	agg := q.NewCardinality[Order]().
//	    FieldOf(func(o *Order) any { return &o.Customer.ID }).
//	    PrecisionThreshold(100)
//	js, err := agg.Render()
//	// {"cardinality": {"field": "customer.id", "precision_threshold": 100}}
//
// Every concrete builder embeds Builder, registers fragments while the
// caller chains, and is rendered once at the end. Builders are mutable and
// must not be shared between goroutines while being built.
package query

import (
	"errors"
	"fmt"

	"github.com/manojoshi/plainelastic/internal"
)

// Renderer is implemented by every type embedding Builder.
type Renderer interface {
	Core() *Builder
}

// Builder is the state shared by all concrete builders: the kind, the
// ordered fragments, required keys and the first error hit while chaining.
type Builder struct {
	kind     Kind
	frags    []Fragment
	required []string
	aggs     *ObjectValue
	err      error
}

// NewBuilder returns an empty builder of kind k.
func NewBuilder(k Kind) *Builder { return &Builder{kind: k} }

// Init resets b to an empty builder of kind k. Concrete builders call it
// from their constructors.
func (b *Builder) Init(k Kind) { *b = Builder{kind: k} }

func (b *Builder) Core() *Builder { return b }

// Kind reports the builder's kind.
func (b *Builder) Kind() Kind { return b.kind }

// Register appends "key": v. Keys are not deduplicated; registering the
// same key twice emits it twice.
func (b *Builder) Register(key string, v Value) {
	b.frags = append(b.frags, KV(key, v))
}

// Set registers "key": v like Register, but when key is already present its
// value is replaced in place. Keys that hold a single value use it.
func (b *Builder) Set(key string, v Value) {
	for i := range b.frags {
		if b.frags[i].Value != nil && b.frags[i].Key == key {
			b.frags[i].Value = v
			return
		}
	}
	b.Register(key, v)
}

// RegisterRaw appends a fragment authored as text with placeholder quotes,
// e.g. "'params': {'factor': 2}". It is validated when rendered.
func (b *Builder) RegisterRaw(tmpl string) {
	if tmpl == "" {
		b.Fail(fmt.Errorf("query: empty raw fragment: %w", ErrInvalidRawJSON))
		return
	}
	b.frags = append(b.frags, Fragment{raw: tmpl})
}

// SubAggregation nests a named aggregation under this one's "aggs".
func (b *Builder) SubAggregation(name string, r Renderer) {
	if b.aggs == nil {
		b.aggs = Object()
	}
	b.aggs.Add(name, Node(r))
}

// Require makes Render fail with ErrEmptyRequiredFragment unless every key
// has been registered.
func (b *Builder) Require(keys ...string) {
	b.required = internal.Unique(append(b.required, keys...))
}

// Fail records err; only the first one is kept and Render returns it.
func (b *Builder) Fail(err error) {
	if b.err == nil && err != nil {
		b.err = err
	}
}

// Err returns the first error recorded while chaining.
func (b *Builder) Err() error { return b.err }

// Has reports whether key has been registered, including as a top-level
// key of a RegisterRaw fragment.
func (b *Builder) Has(key string) bool {
	return internal.Any(b.frags, func(f Fragment) bool { return f.has(key) })
}

// Len reports the number of registered fragments.
func (b *Builder) Len() int { return len(b.frags) }

// Fragments returns a copy of the registered fragments in order.
func (b *Builder) Fragments() []Fragment { return append([]Fragment(nil), b.frags...) }

// RenderBody joins the fragments in registration order, without braces.
func (b *Builder) RenderBody() (string, error) {
	return b.render(func(w *writer) error {
		if err := b.check(); err != nil {
			return err
		}
		return w.fragments(b.frags)
	})
}

// Render returns the builder as a complete JSON object, {"keyword": {...}}.
// On error no text is returned.
func (b *Builder) Render() (string, error) {
	return b.render(func(w *writer) error { return w.node(b) })
}

// Bytes is Render for callers that send the result over the wire.
func (b *Builder) Bytes() ([]byte, error) {
	s, err := b.Render()
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

func (b *Builder) render(fn func(*writer) error) (string, error) {
	buf := internal.GetBuffer()
	defer internal.PutBuffer(buf)

	if err := fn(&writer{buf: buf}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// check enforces the sticky error, the empty-body policy and required keys.
func (b *Builder) check() error {
	if b.err != nil {
		return b.err
	}
	if len(b.frags) == 0 && b.kind.EmptyPolicy() == RequireBody {
		return fmt.Errorf("query: %s has no fragments: %w", b.kind, ErrEmptyRequiredFragment)
	}
	var missing []error
	for _, k := range b.required {
		if !b.Has(k) {
			missing = append(missing, fmt.Errorf("query: %s requires %q: %w", b.kind, k, ErrEmptyRequiredFragment))
		}
	}
	return errors.Join(missing...)
}

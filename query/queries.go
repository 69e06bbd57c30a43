package query

import "fmt"

// -------------------------------------------------------------------
// Field-scoped queries render {"kind": {"<field>": {...options}}}. The
// options object is registered under the field name on the first Field
// call and keeps filling up afterwards, so option order follows calls.
// Such a query targets one field: naming a different field later fails
// the render with ErrInvalidFieldName.
// -------------------------------------------------------------------

type scoped struct {
	opts  *ObjectValue
	field string
	bound bool
}

func (s *scoped) bind(b *Builder, field string) {
	if s.opts == nil {
		s.opts = Object()
	}
	if s.bound {
		if field != s.field {
			b.Fail(fmt.Errorf("query: %s already targets %q, not %q: %w", b.kind, s.field, field, ErrInvalidFieldName))
		}
		return
	}
	s.field, s.bound = field, true
	b.Register(field, s.opts)
}

func (s *scoped) set(key string, v Value) {
	if s.opts == nil {
		s.opts = Object()
	}
	s.opts.Add(key, v)
}

func bindPath[T any](b *Builder, s *scoped, p Path[T]) {
	if p.err != nil {
		b.Fail(p.err)
		return
	}
	s.bind(b, p.name)
}

// ------------
// match_all
// ------------

type MatchAllQuery struct{ Builder }

// MatchAll matches every document: {"match_all": {}}.
func MatchAll() *MatchAllQuery {
	m := &MatchAllQuery{}
	m.Init(KindMatchAll)
	return m
}

func (m *MatchAllQuery) Boost(f float64) *MatchAllQuery {
	m.Register("boost", Number(f))
	return m
}

// ------------
// match
// ------------

type MatchQuery[T any] struct {
	Builder
	scoped
}

func NewMatch[T any]() *MatchQuery[T] {
	m := &MatchQuery[T]{}
	m.Init(KindMatch)
	return m
}

// Field selects the analysed field to match against; call it once.
func (m *MatchQuery[T]) Field(name string) *MatchQuery[T] {
	m.bind(&m.Builder, name)
	return m
}

func (m *MatchQuery[T]) FieldOf(fn func(*T) any) *MatchQuery[T] {
	bindPath(&m.Builder, &m.scoped, Field(fn))
	return m
}

func (m *MatchQuery[T]) Query(text string) *MatchQuery[T] {
	m.set("query", String(text))
	return m
}

// Operator is "and" or "or".
func (m *MatchQuery[T]) Operator(op string) *MatchQuery[T] {
	m.set("operator", String(op))
	return m
}

func (m *MatchQuery[T]) Fuzziness(f string) *MatchQuery[T] {
	m.set("fuzziness", String(f))
	return m
}

func (m *MatchQuery[T]) Boost(f float64) *MatchQuery[T] {
	m.set("boost", Number(f))
	return m
}

// ------------
// term
// ------------

type TermQuery[T any] struct {
	Builder
	scoped
}

func NewTerm[T any]() *TermQuery[T] {
	t := &TermQuery[T]{}
	t.Init(KindTerm)
	return t
}

func (t *TermQuery[T]) Field(name string) *TermQuery[T] {
	t.bind(&t.Builder, name)
	return t
}

func (t *TermQuery[T]) FieldOf(fn func(*T) any) *TermQuery[T] {
	bindPath(&t.Builder, &t.scoped, Field(fn))
	return t
}

func (t *TermQuery[T]) Value(v Value) *TermQuery[T] {
	t.set("value", v)
	return t
}

func (t *TermQuery[T]) Boost(f float64) *TermQuery[T] {
	t.set("boost", Number(f))
	return t
}

// Eq is shorthand for an exact term match on a string value.
func Eq(field, value string) *TermQuery[any] {
	return NewTerm[any]().Field(field).Value(String(value))
}

// ------------
// terms
// ------------

type TermsQuery[T any] struct{ Builder }

func NewTerms[T any]() *TermsQuery[T] {
	t := &TermsQuery[T]{}
	t.Init(KindTerms)
	return t
}

// Field registers "<field>": [values...].
func (t *TermsQuery[T]) Field(name string, vs ...Value) *TermsQuery[T] {
	t.Register(name, Array(vs...))
	return t
}

func (t *TermsQuery[T]) FieldOf(fn func(*T) any, vs ...Value) *TermsQuery[T] {
	p := Field(fn)
	if p.err != nil {
		t.Fail(p.err)
		return t
	}
	return t.Field(p.name, vs...)
}

// In matches any of the string values.
func In(field string, values ...string) *TermsQuery[any] {
	return NewTerms[any]().Field(field, Strings(values...))
}

// ------------
// range
// ------------

type RangeQuery[T any] struct {
	Builder
	scoped
}

func NewRange[T any]() *RangeQuery[T] {
	r := &RangeQuery[T]{}
	r.Init(KindRange)
	return r
}

func (r *RangeQuery[T]) Field(name string) *RangeQuery[T] {
	r.bind(&r.Builder, name)
	return r
}

func (r *RangeQuery[T]) FieldOf(fn func(*T) any) *RangeQuery[T] {
	bindPath(&r.Builder, &r.scoped, Field(fn))
	return r
}

func (r *RangeQuery[T]) Gt(v Value) *RangeQuery[T]  { r.set("gt", v); return r }
func (r *RangeQuery[T]) Gte(v Value) *RangeQuery[T] { r.set("gte", v); return r }
func (r *RangeQuery[T]) Lt(v Value) *RangeQuery[T]  { r.set("lt", v); return r }
func (r *RangeQuery[T]) Lte(v Value) *RangeQuery[T] { r.set("lte", v); return r }

// Format is the date format used to parse string bounds.
func (r *RangeQuery[T]) Format(f string) *RangeQuery[T] {
	r.set("format", String(f))
	return r
}

// Range builds [lo, hi] when inclusive, (lo, hi) otherwise.
func Range(field string, lo, hi Value, inclusive bool) *RangeQuery[any] {
	r := NewRange[any]().Field(field)
	if inclusive {
		return r.Gte(lo).Lte(hi)
	}
	return r.Gt(lo).Lt(hi)
}

// ------------
// exists
// ------------

type ExistsQuery[T any] struct{ Builder }

func NewExists[T any]() *ExistsQuery[T] {
	e := &ExistsQuery[T]{}
	e.Init(KindExists)
	e.Require("field")
	return e
}

func (e *ExistsQuery[T]) Field(name string) *ExistsQuery[T] {
	e.Register("field", String(name))
	return e
}

func (e *ExistsQuery[T]) FieldOf(fn func(*T) any) *ExistsQuery[T] {
	setField(&e.Builder, Field(fn))
	return e
}

// ------------
// bool
// ------------

// BoolQuery combines clauses. Each occurrence type is registered once, on
// first use, and later calls append to the same array.
type BoolQuery struct {
	Builder
	clauses map[string]*ArrayValue
}

func NewBool() *BoolQuery {
	b := &BoolQuery{clauses: map[string]*ArrayValue{}}
	b.Init(KindBool)
	return b
}

func (b *BoolQuery) clause(occur string, qs []Renderer) *BoolQuery {
	arr, ok := b.clauses[occur]
	if !ok {
		arr = Array()
		b.clauses[occur] = arr
		b.Register(occur, arr)
	}
	for _, q := range qs {
		arr.Append(Node(q))
	}
	return b
}

func (b *BoolQuery) Must(qs ...Renderer) *BoolQuery    { return b.clause("must", qs) }
func (b *BoolQuery) Filter(qs ...Renderer) *BoolQuery  { return b.clause("filter", qs) }
func (b *BoolQuery) Should(qs ...Renderer) *BoolQuery  { return b.clause("should", qs) }
func (b *BoolQuery) MustNot(qs ...Renderer) *BoolQuery { return b.clause("must_not", qs) }

func (b *BoolQuery) MinimumShouldMatch(n int) *BoolQuery {
	b.Register("minimum_should_match", Int(n))
	return b
}

func (b *BoolQuery) Boost(f float64) *BoolQuery {
	b.Register("boost", Number(f))
	return b
}

// ------------
// Combinators
// ------------

func And(qs ...Renderer) *BoolQuery { return NewBool().Must(qs...) }
func Or(qs ...Renderer) *BoolQuery  { return NewBool().Should(qs...).MinimumShouldMatch(1) }
func Not(q Renderer) *BoolQuery     { return NewBool().MustNot(q) }

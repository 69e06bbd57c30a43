package query

// Dir is a sort or bucket-order direction.
type Dir string

const (
	Asc  Dir = "asc"
	Desc Dir = "desc"
)

// ScriptLang names a scripting language for script-valued options.
type ScriptLang string

const (
	LangPainless   ScriptLang = "painless"
	LangExpression ScriptLang = "expression"
	LangMustache   ScriptLang = "mustache"
	LangJava       ScriptLang = "java"
)

// setField registers "field" from a resolved path, or records its error.
func setField[T any](b *Builder, p Path[T]) {
	if p.err != nil {
		b.Fail(p.err)
		return
	}
	b.Register("field", String(p.name))
}

// -------------------------------------------------------------------
// CardinalityAggregation – approximate count of distinct values
// -------------------------------------------------------------------

// CardinalityAggregation counts distinct values of a field or script.
type CardinalityAggregation[T any] struct{ Builder }

func NewCardinality[T any]() *CardinalityAggregation[T] {
	a := &CardinalityAggregation[T]{}
	a.Init(KindCardinality)
	return a
}

func (a *CardinalityAggregation[T]) Field(name string) *CardinalityAggregation[T] {
	a.Register("field", String(name))
	return a
}

func (a *CardinalityAggregation[T]) FieldOf(fn func(*T) any) *CardinalityAggregation[T] {
	return a.FieldPath(Field(fn))
}

// FieldPath takes a pre-resolved path, e.g. from FieldOfCollection.
func (a *CardinalityAggregation[T]) FieldPath(p Path[T]) *CardinalityAggregation[T] {
	setField(&a.Builder, p)
	return a
}

// PrecisionThreshold trades memory for accuracy; counts below it are
// expected to be close to exact.
func (a *CardinalityAggregation[T]) PrecisionThreshold(n int) *CardinalityAggregation[T] {
	a.Register("precision_threshold", Int(n))
	return a
}

// Rehash false tells the engine the field already holds hashes.
func (a *CardinalityAggregation[T]) Rehash(rehash bool) *CardinalityAggregation[T] {
	a.Register("rehash", Bool(rehash))
	return a
}

func (a *CardinalityAggregation[T]) Script(script string) *CardinalityAggregation[T] {
	a.Register("script", String(script))
	return a
}

// Lang sets the script language; any ScriptLang(name) is accepted.
func (a *CardinalityAggregation[T]) Lang(lang ScriptLang) *CardinalityAggregation[T] {
	a.Register("lang", String(string(lang)))
	return a
}

// Params sets script parameters from a raw JSON object body.
func (a *CardinalityAggregation[T]) Params(body string) *CardinalityAggregation[T] {
	a.Register("params", Raw(body))
	return a
}

// -------------------------------------------------------------------
// ReverseNestedAggregation – join back from nested docs to a parent
// -------------------------------------------------------------------

// ReverseNestedAggregation must sit inside a nested aggregation. Without a
// path it joins back to the root document and renders {"reverse_nested": {}}.
type ReverseNestedAggregation[T any] struct{ Builder }

func NewReverseNested[T any]() *ReverseNestedAggregation[T] {
	a := &ReverseNestedAggregation[T]{}
	a.Init(KindReverseNested)
	return a
}

func (a *ReverseNestedAggregation[T]) Path(path string) *ReverseNestedAggregation[T] {
	a.Register("path", String(path))
	return a
}

func (a *ReverseNestedAggregation[T]) PathOf(fn func(*T) any) *ReverseNestedAggregation[T] {
	p := Field(fn)
	if p.err != nil {
		a.Fail(p.err)
		return a
	}
	return a.Path(p.name)
}

func (a *ReverseNestedAggregation[T]) Aggregation(name string, sub Renderer) *ReverseNestedAggregation[T] {
	a.SubAggregation(name, sub)
	return a
}

// -------------------------------------------------------------------
// NestedAggregation – step into nested documents
// -------------------------------------------------------------------

type NestedAggregation[T any] struct{ Builder }

func NewNested[T any]() *NestedAggregation[T] {
	a := &NestedAggregation[T]{}
	a.Init(KindNested)
	a.Require("path")
	return a
}

func (a *NestedAggregation[T]) Path(path string) *NestedAggregation[T] {
	a.Register("path", String(path))
	return a
}

func (a *NestedAggregation[T]) PathOf(fn func(*T) any) *NestedAggregation[T] {
	p := Field(fn)
	if p.err != nil {
		a.Fail(p.err)
		return a
	}
	return a.Path(p.name)
}

func (a *NestedAggregation[T]) Aggregation(name string, sub Renderer) *NestedAggregation[T] {
	a.SubAggregation(name, sub)
	return a
}

// -------------------------------------------------------------------
// TermsAggregation – one bucket per distinct value
// -------------------------------------------------------------------

type TermsAggregation[T any] struct{ Builder }

func NewTermsAggregation[T any]() *TermsAggregation[T] {
	a := &TermsAggregation[T]{}
	a.Init(KindTermsAggregation)
	return a
}

func (a *TermsAggregation[T]) Field(name string) *TermsAggregation[T] {
	a.Register("field", String(name))
	return a
}

func (a *TermsAggregation[T]) FieldOf(fn func(*T) any) *TermsAggregation[T] {
	return a.FieldPath(Field(fn))
}

func (a *TermsAggregation[T]) FieldPath(p Path[T]) *TermsAggregation[T] {
	setField(&a.Builder, p)
	return a
}

func (a *TermsAggregation[T]) Size(n int) *TermsAggregation[T] {
	a.Register("size", Int(n))
	return a
}

func (a *TermsAggregation[T]) MinDocCount(n int) *TermsAggregation[T] {
	a.Register("min_doc_count", Int(n))
	return a
}

// Order sorts buckets by key ("_count", "_key" or a sub-aggregation name).
func (a *TermsAggregation[T]) Order(key string, dir Dir) *TermsAggregation[T] {
	a.Register("order", Object(KV(key, String(string(dir)))))
	return a
}

func (a *TermsAggregation[T]) Missing(v Value) *TermsAggregation[T] {
	a.Register("missing", v)
	return a
}

func (a *TermsAggregation[T]) Script(script string) *TermsAggregation[T] {
	a.Register("script", String(script))
	return a
}

func (a *TermsAggregation[T]) Aggregation(name string, sub Renderer) *TermsAggregation[T] {
	a.SubAggregation(name, sub)
	return a
}

// -------------------------------------------------------------------
// FilterAggregation – a single bucket of documents matching a query
// -------------------------------------------------------------------

type FilterAggregation struct{ Builder }

func NewFilterAggregation(q Renderer) *FilterAggregation {
	a := &FilterAggregation{}
	a.Init(KindFilter)
	a.Register(q.Core().Kind().Keyword(), Body(q))
	return a
}

func (a *FilterAggregation) Aggregation(name string, sub Renderer) *FilterAggregation {
	a.SubAggregation(name, sub)
	return a
}

// -------------------------------------------------------------------
// MetricAggregation – avg / sum / min / max / value_count
// -------------------------------------------------------------------

type MetricAggregation[T any] struct{ Builder }

func newMetric[T any](k Kind) *MetricAggregation[T] {
	a := &MetricAggregation[T]{}
	a.Init(k)
	return a
}

func NewAvg[T any]() *MetricAggregation[T]        { return newMetric[T](KindAvg) }
func NewSum[T any]() *MetricAggregation[T]        { return newMetric[T](KindSum) }
func NewMin[T any]() *MetricAggregation[T]        { return newMetric[T](KindMin) }
func NewMax[T any]() *MetricAggregation[T]        { return newMetric[T](KindMax) }
func NewValueCount[T any]() *MetricAggregation[T] { return newMetric[T](KindValueCount) }

func (a *MetricAggregation[T]) Field(name string) *MetricAggregation[T] {
	a.Register("field", String(name))
	return a
}

func (a *MetricAggregation[T]) FieldOf(fn func(*T) any) *MetricAggregation[T] {
	return a.FieldPath(Field(fn))
}

func (a *MetricAggregation[T]) FieldPath(p Path[T]) *MetricAggregation[T] {
	setField(&a.Builder, p)
	return a
}

func (a *MetricAggregation[T]) Script(script string) *MetricAggregation[T] {
	a.Register("script", String(script))
	return a
}

// Missing is the value used for documents without the field.
func (a *MetricAggregation[T]) Missing(v Value) *MetricAggregation[T] {
	a.Register("missing", v)
	return a
}

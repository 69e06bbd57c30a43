package repository

import (
	q "github.com/manojoshi/plainelastic/query"
	"github.com/manojoshi/plainelastic/search"
)

// Opt is applied to the search request in play.
type Opt func(*search.Request)

// ---------- COMMON helpers ----------

// Select limits the _source fields returned with each hit.
func Select(fields ...string) Opt {
	return func(r *search.Request) { r.Source(fields...) }
}

// Limit pages through hits; both values are clamped to the result window.
func Limit(offset, limit int) Opt {
	return func(r *search.Request) { r.Limit(offset, limit) }
}

// SortAsc / SortDesc append a sort key.
func SortAsc(field string) Opt  { return sortOpt(field, q.Asc) }
func SortDesc(field string) Opt { return sortOpt(field, q.Desc) }

func sortOpt(f string, dir q.Dir) Opt {
	return func(r *search.Request) { r.Sort(f, dir) }
}

// TrackTotal asks for an exact hit count beyond 10k.
func TrackTotal() Opt {
	return func(r *search.Request) { r.TrackTotalHits(true) }
}

// ---------- AGGREGATE helpers ----------

// Aggregate adds a named aggregation.
func Aggregate(name string, agg q.Renderer) Opt {
	return func(r *search.Request) { r.Aggregation(name, agg) }
}

// Count adds a value_count aggregation on field.
func Count(field, alias string) Opt {
	return Aggregate(alias, q.NewValueCount[any]().Field(field))
}

func Sum(field, alias string) Opt {
	return Aggregate(alias, q.NewSum[any]().Field(field))
}

func Avg(field, alias string) Opt {
	return Aggregate(alias, q.NewAvg[any]().Field(field))
}

// Distinct adds an approximate distinct count on field.
func Distinct(field, alias string, precision int) Opt {
	return Aggregate(alias, q.NewCardinality[any]().Field(field).PrecisionThreshold(precision))
}

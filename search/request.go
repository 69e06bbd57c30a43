// Package search assembles the body of a _search request from query and
// aggregation builders and optionally runs it.
//
//	req := search.New("orders").
//	    Query(q.And(q.Eq("status", "PENDING"), q.In("warehouse_id", "45", "46"))).
//	    Source("order_id", "qty").
//	    Sort("promise_ts", q.Asc).
//	    Size(100)
//	body, err := req.Body()
package search

import (
	"context"
	"errors"
	"net/http"

	"github.com/manojoshi/plainelastic/driver"
	"github.com/manojoshi/plainelastic/internal"
	q "github.com/manojoshi/plainelastic/query"
	"github.com/manojoshi/plainelastic/scan"
)

// MaxResultWindow is the engine's default cap on from+size.
const MaxResultWindow = 10_000

// Request is a fluent _search body. Like every builder it is mutable and
// not safe for concurrent use.
type Request struct {
	q.Builder
	index    string
	sort     *q.ArrayValue
	aggs     *q.ObjectValue
	executor driver.Executor
}

// New starts a request against index. Executor must be provided before Run.
func New(index string) *Request {
	r := &Request{index: index}
	r.Init(q.KindRoot)
	return r
}

// NewAggregate starts an aggregation-only request (size 0).
func NewAggregate(index string) *Request { return New(index).Size(0) }

func (r *Request) Index() string { return r.index }

// Path is the endpoint the body is posted to.
func (r *Request) Path() string { return "/" + r.index + "/_search" }

// Query sets the request's query; a later call replaces it. The scalar
// setters below behave the same way.
func (r *Request) Query(query q.Renderer) *Request {
	r.Set("query", q.Node(query))
	return r
}

func (r *Request) From(n int) *Request {
	r.Set("from", q.Int(internal.Clamp(n, 0, MaxResultWindow)))
	return r
}

func (r *Request) Size(n int) *Request {
	r.Set("size", q.Int(internal.Clamp(n, 0, MaxResultWindow)))
	return r
}

// Limit sets from and size together.
func (r *Request) Limit(offset, limit int) *Request { return r.From(offset).Size(limit) }

// Sort appends a sort key; keys apply in call order.
func (r *Request) Sort(field string, dir q.Dir) *Request {
	if r.sort == nil {
		r.sort = q.Array()
		r.Register("sort", r.sort)
	}
	r.sort.Append(q.Object(q.KV(field, q.Object(q.KV("order", q.String(string(dir)))))))
	return r
}

// Source limits the returned _source fields.
func (r *Request) Source(fields ...string) *Request {
	fields = internal.Filter(fields, func(f string) bool { return f != "" })
	r.Set("_source", q.Strings(internal.Unique(fields)...))
	return r
}

func (r *Request) TrackTotalHits(track bool) *Request {
	r.Set("track_total_hits", q.Bool(track))
	return r
}

// Aggregation adds a named top-level aggregation.
func (r *Request) Aggregation(name string, agg q.Renderer) *Request {
	if r.aggs == nil {
		r.aggs = q.Object()
		r.Register("aggs", r.aggs)
	}
	r.aggs.Add(name, q.Node(agg))
	return r
}

func (r *Request) Using(ex driver.Executor) *Request {
	r.executor = ex
	return r
}

// Body renders the request body.
func (r *Request) Body() ([]byte, error) { return r.Bytes() }

// Run executes the request and decodes the response.
func (r *Request) Run(ctx context.Context) (*scan.Response, error) {
	if r.executor == nil {
		return nil, errors.New("search: executor not set (call Using())")
	}
	body, err := r.Body()
	if err != nil {
		return nil, err
	}
	raw, err := r.executor.Do(ctx, http.MethodPost, r.Path(), body)
	if err != nil {
		return nil, err
	}
	return scan.Decode(raw)
}

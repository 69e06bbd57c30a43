// Package repository offers a thin façade on top of the lower-level
// builders in the query and search packages. It follows the
// functional-options pattern so callers can keep code terse while still
// reaching the full query DSL.
//
//	repo := repository.New("orders", conn)
//	resp, err := repo.Search(ctx,
//	    q.And(q.Eq("status", "PENDING"), q.In("warehouse_id", "45", "46")),
//	    repository.Select("order_id", "qty"),
//	    repository.SortAsc("promise_ts"),
//	    repository.Limit(0, 1000),
//	)
package repository

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"

	j "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/manojoshi/plainelastic/driver"
	"github.com/manojoshi/plainelastic/index"
	q "github.com/manojoshi/plainelastic/query"
	"github.com/manojoshi/plainelastic/scan"
	"github.com/manojoshi/plainelastic/search"
)

// Repository is bound to one index.
type Repository struct {
	index string
	exec  driver.Executor
	log   *zap.Logger
}

// New constructs a repository bound to an index.
func New(index string, exec driver.Executor) *Repository {
	return &Repository{index: index, exec: exec, log: zap.NewNop()}
}

// WithLogger returns the repository logging through l.
func (r *Repository) WithLogger(l *zap.Logger) *Repository {
	r.log = l.With(zap.String("index", r.index))
	return r
}

// -------------------------------------------------------------------
// SEARCH
// -------------------------------------------------------------------

// Search runs a _search with the provided query (nil matches everything)
// and any options (Select, SortAsc, Limit, …).
func (r *Repository) Search(ctx context.Context, where q.Renderer, opts ...Opt) (*scan.Response, error) {
	req := r.request(where, opts)
	resp, err := req.Run(ctx)
	if err != nil {
		return nil, err
	}
	r.log.Debug("search", zap.Int("took_ms", resp.Took), zap.Int64("total", resp.Hits.Total.Value))
	return resp, nil
}

// Find runs Search and decodes every hit's _source into T.
func Find[T any](ctx context.Context, r *Repository, where q.Renderer, opts ...Opt) ([]T, error) {
	resp, err := r.Search(ctx, where, opts...)
	if err != nil {
		return nil, err
	}
	return scan.Sources[T](resp)
}

// -------------------------------------------------------------------
// AGGREGATE
// -------------------------------------------------------------------

// Aggregate runs an aggregation-only search (size 0). Caller supplies the
// aggregations through Aggregate / Count / Sum / Avg / Distinct options; a
// Limit option replaces the size when hits are wanted too.
func (r *Repository) Aggregate(ctx context.Context, where q.Renderer, opts ...Opt) (*scan.Response, error) {
	req := r.request(where, append([]Opt{func(s *search.Request) { s.Size(0) }}, opts...))
	return req.Run(ctx)
}

// Count returns the number of documents matching where.
func (r *Repository) Count(ctx context.Context, where q.Renderer) (int64, error) {
	var body []byte
	if where != nil {
		b := q.NewBuilder(q.KindRoot)
		b.Register("query", q.Node(where))
		var err error
		if body, err = b.Bytes(); err != nil {
			return 0, err
		}
	}
	raw, err := r.exec.Do(ctx, http.MethodPost, "/"+r.index+"/_count", body)
	if err != nil {
		return 0, err
	}
	return scan.DecodeCount(raw)
}

func (r *Repository) request(where q.Renderer, opts []Opt) *search.Request {
	req := search.New(r.index).Using(r.exec)
	if where != nil {
		req.Query(where)
	}
	for _, o := range opts {
		o(req)
	}
	return req
}

/*───────────────────────────────────────────────────────────────
|  Administrative helpers                                        |
└───────────────────────────────────────────────────────────────*/

// EnsureIndex creates the index from model's mapping unless it exists.
func (r *Repository) EnsureIndex(ctx context.Context, model any, opts ...index.CreateOpt) error {
	opts = append(opts, index.WithName(r.index))
	return index.AutoCreate(ctx, r.exec, model, opts...)
}

// DropIndex deletes the index; a missing index is not an error.
func (r *Repository) DropIndex(ctx context.Context) error {
	_, err := r.exec.Do(ctx, http.MethodDelete, "/"+r.index, nil)
	if err != nil && !driver.IsStatus(err, http.StatusNotFound) {
		return fmt.Errorf("repository: drop %s: %w", r.index, err)
	}
	return nil
}

/*───────────────────────────────────────────────────────────────
|  Data-loading helpers                                          |
└───────────────────────────────────────────────────────────────*/

// Put indexes one document under id.
func (r *Repository) Put(ctx context.Context, id string, doc any) error {
	body, err := j.Marshal(doc)
	if err != nil {
		return fmt.Errorf("repository: encode %s: %w", id, err)
	}
	_, err = r.exec.Do(ctx, http.MethodPut, "/"+r.index+"/_doc/"+url.PathEscape(id), body)
	return err
}

// bulkResponse is the part of a _bulk reply needed to spot failures.
type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  any    `json:"error"`
	} `json:"items"`
}

// Bulk indexes many documents in one _bulk call; keyFn supplies each id.
func Bulk[T any](ctx context.Context, r *Repository, docs []T, keyFn func(T) string) error {
	if len(docs) == 0 {
		return nil
	}
	var nd bytes.Buffer
	for _, d := range docs {
		meta, err := j.Marshal(map[string]map[string]string{"index": {"_id": keyFn(d)}})
		if err != nil {
			return err
		}
		src, err := j.Marshal(d)
		if err != nil {
			return fmt.Errorf("repository: encode %s: %w", keyFn(d), err)
		}
		nd.Write(meta)
		nd.WriteByte('\n')
		nd.Write(src)
		nd.WriteByte('\n')
	}
	raw, err := r.exec.Do(ctx, http.MethodPost, "/"+r.index+"/_bulk", nd.Bytes())
	if err != nil {
		return err
	}
	var br bulkResponse
	if err := j.Unmarshal(raw, &br); err != nil {
		return fmt.Errorf("repository: decode bulk reply: %w", err)
	}
	if br.Errors {
		for _, item := range br.Items {
			for _, res := range item {
				if res.Error != nil {
					return fmt.Errorf("repository: bulk item %s: status %d: %v", res.ID, res.Status, res.Error)
				}
			}
		}
	}
	r.log.Debug("bulk", zap.Int("docs", len(docs)))
	return nil
}

package search

import (
	"context"
	"testing"

	j "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	q "github.com/manojoshi/plainelastic/query"
)

type order struct {
	OrderID  string   `json:"order_id"`
	Status   string   `json:"status"`
	Qty      int      `json:"qty"`
	Comments []string `json:"comments"`
}

func TestRequest_Body(t *testing.T) {
	req := New("orders").
		Query(q.And(q.Eq("status", "PENDING"))).
		Source("order_id", "qty", "order_id").
		Sort("promise_ts", q.Asc).
		Sort("order_id", q.Desc).
		Limit(10, 20).
		TrackTotalHits(true)

	body, err := req.Body()
	require.NoError(t, err)
	assert.Equal(t,
		`{"query": {"bool": {"must": [{"term": {"status": {"value": "PENDING"}}}]}}, "_source": ["order_id", "qty"], "sort": [{"promise_ts": {"order": "asc"}}, {"order_id": {"order": "desc"}}], "from": 10, "size": 20, "track_total_hits": true}`,
		string(body))
	assert.True(t, j.Valid(body))
	assert.Equal(t, "/orders/_search", req.Path())
	assert.Equal(t, "orders", req.Index())
}

func TestRequest_Aggregate(t *testing.T) {
	req := NewAggregate("orders").
		Aggregation("users", q.NewCardinality[order]().Field("user_id").PrecisionThreshold(100)).
		Aggregation("by_status", q.NewTermsAggregation[order]().
			FieldOf(func(o *order) any { return &o.Status }).
			Aggregation("qty", q.NewSum[order]().FieldOf(func(o *order) any { return &o.Qty })))

	body, err := req.Body()
	require.NoError(t, err)
	assert.Equal(t,
		`{"size": 0, "aggs": {"users": {"cardinality": {"field": "user_id", "precision_threshold": 100}}, "by_status": {"terms": {"field": "status"}, "aggs": {"qty": {"sum": {"field": "qty"}}}}}}`,
		string(body))
}

func TestRequest_ClampsWindow(t *testing.T) {
	body, err := New("o").From(-5).Size(MaxResultWindow * 2).Body()
	require.NoError(t, err)
	assert.Equal(t, `{"from": 0, "size": 10000}`, string(body))
}

func TestRequest_ChildErrorFailsBody(t *testing.T) {
	body, err := New("o").Aggregation("bad", q.NewCardinality[order]()).Body()
	assert.ErrorIs(t, err, q.ErrEmptyRequiredFragment)
	assert.Nil(t, body)
}

type fakeExec struct {
	method, path string
	body         []byte
	reply        string
}

func (f *fakeExec) Do(_ context.Context, method, path string, body []byte) ([]byte, error) {
	f.method, f.path, f.body = method, path, body
	return []byte(f.reply), nil
}

func TestRequest_Run(t *testing.T) {
	_, err := New("orders").Run(context.Background())
	assert.Error(t, err)

	ex := &fakeExec{reply: `{"took": 2, "hits": {"total": {"value": 0, "relation": "eq"}, "hits": []}}`}
	resp, err := New("orders").Query(q.MatchAll()).Using(ex).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Took)
	assert.Equal(t, "POST", ex.method)
	assert.Equal(t, "/orders/_search", ex.path)
	assert.Equal(t, `{"query": {"match_all": {}}}`, string(ex.body))
}

func TestRequest_SingleValueKeysReplace(t *testing.T) {
	body, err := NewAggregate("orders").
		Limit(0, 10).
		Query(q.MatchAll()).
		Query(q.Eq("a", "b")).
		Source("qty").
		Source("status").
		Body()
	require.NoError(t, err)
	assert.Equal(t,
		`{"size": 10, "from": 0, "query": {"term": {"a": {"value": "b"}}}, "_source": ["status"]}`,
		string(body))

	var m map[string]any
	require.NoError(t, j.Unmarshal(body, &m))
	assert.Len(t, m, 4)
}

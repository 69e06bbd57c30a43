package scan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchReply = `{
  "took": 3,
  "timed_out": false,
  "hits": {
    "total": {"value": 2, "relation": "eq"},
    "max_score": 1.0,
    "hits": [
      {"_index": "orders", "_id": "101", "_score": 1.0, "_source": {"order_id": "101", "qty": 2}},
      {"_index": "orders", "_id": "102", "_score": 0.5, "_source": {"order_id": "102", "qty": 1}}
    ]
  },
  "aggregations": {
    "users": {"value": 42},
    "by_status": {
      "doc_count_error_upper_bound": 0,
      "sum_other_doc_count": 0,
      "buckets": [
        {"key": "PENDING", "doc_count": 7, "avg_qty": {"value": 2.5}},
        {"key": "SHIPPED", "doc_count": 3, "avg_qty": {"value": null}}
      ]
    }
  }
}`

type order struct {
	OrderID string `json:"order_id"`
	Qty     int    `json:"qty"`
}

func TestDecode(t *testing.T) {
	r, err := Decode([]byte(searchReply))
	require.NoError(t, err)
	assert.Equal(t, 3, r.Took)
	assert.Equal(t, int64(2), r.Hits.Total.Value)
	assert.Equal(t, "eq", r.Hits.Total.Relation)
	require.Len(t, r.Hits.Hits, 2)
	assert.Equal(t, "101", r.Hits.Hits[0].ID)
	require.NotNil(t, r.Hits.Hits[1].Score)
	assert.InDelta(t, 0.5, *r.Hits.Hits[1].Score, 1e-9)
}

func TestDecode_LegacyTotal(t *testing.T) {
	r, err := Decode([]byte(`{"hits": {"total": 12, "hits": []}}`))
	require.NoError(t, err)
	assert.Equal(t, int64(12), r.Hits.Total.Value)
	assert.Equal(t, "eq", r.Hits.Total.Relation)
}

func TestDecode_Invalid(t *testing.T) {
	_, err := Decode([]byte(`{"hits": `))
	assert.Error(t, err)
}

func TestDecodeHits(t *testing.T) {
	orders, err := DecodeHits[order]([]byte(searchReply))
	require.NoError(t, err)
	assert.Equal(t, []order{{"101", 2}, {"102", 1}}, orders)
}

func TestAggregation(t *testing.T) {
	r, err := Decode([]byte(searchReply))
	require.NoError(t, err)

	users, err := Aggregation[Value](r, "users")
	require.NoError(t, err)
	require.NotNil(t, users.Value)
	assert.InDelta(t, 42, *users.Value, 1e-9)

	byStatus, err := Aggregation[Buckets](r, "by_status")
	require.NoError(t, err)
	require.Len(t, byStatus.Buckets, 2)
	assert.Equal(t, "PENDING", byStatus.Buckets[0].Key)
	assert.Equal(t, int64(7), byStatus.Buckets[0].DocCount)

	avg, err := SubAggregation[Value](byStatus.Buckets[0], "avg_qty")
	require.NoError(t, err)
	assert.InDelta(t, 2.5, *avg.Value, 1e-9)

	avg, err = SubAggregation[Value](byStatus.Buckets[1], "avg_qty")
	require.NoError(t, err)
	assert.Nil(t, avg.Value)

	_, err = SubAggregation[Value](byStatus.Buckets[0], "missing")
	assert.ErrorIs(t, err, ErrNoAggregation)

	_, err = Aggregation[Value](r, "nope")
	assert.ErrorIs(t, err, ErrNoAggregation)
}

func TestDecodeCount(t *testing.T) {
	n, err := DecodeCount([]byte(`{"count": 17, "_shards": {}}`))
	require.NoError(t, err)
	assert.Equal(t, int64(17), n)
}

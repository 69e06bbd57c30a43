package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type product struct {
	Title string
	Price float64
	Stock struct {
		Warehouse string
	}
}

func TestMatchAll(t *testing.T) {
	assert.Equal(t, `{"match_all": {}}`, render(t, MatchAll()))
	assert.Equal(t, `{"match_all": {"boost": 1.5}}`, render(t, MatchAll().Boost(1.5)))
}

func TestMatch(t *testing.T) {
	got := render(t, NewMatch[product]().
		FieldOf(func(p *product) any { return &p.Title }).
		Query("quick fox").
		Operator("and"))
	assert.Equal(t, `{"match": {"title": {"query": "quick fox", "operator": "and"}}}`, got)
}

func TestMatch_OptionsBeforeField(t *testing.T) {
	got := render(t, NewMatch[product]().Query("fox").Field("title").Fuzziness("AUTO").Boost(2))
	assert.Equal(t, `{"match": {"title": {"query": "fox", "fuzziness": "AUTO", "boost": 2}}}`, got)
}

func TestMatch_WithoutField(t *testing.T) {
	_, err := NewMatch[product]().Query("fox").Render()
	assert.ErrorIs(t, err, ErrEmptyRequiredFragment)
}

func TestScopedQueries_SecondFieldFails(t *testing.T) {
	_, err := NewMatch[product]().Field("title").Field("body").Query("fox").Render()
	assert.ErrorIs(t, err, ErrInvalidFieldName)

	_, err = NewTerm[product]().Field("sku").FieldOf(func(p *product) any { return &p.Title }).Render()
	assert.ErrorIs(t, err, ErrInvalidFieldName)

	_, err = NewRange[product]().Field("created").Field("updated").Gte(Int(1)).Render()
	assert.ErrorIs(t, err, ErrInvalidFieldName)

	got := render(t, NewTerm[product]().Field("sku").Field("sku").Value(String("a1")))
	assert.Equal(t, `{"term": {"sku": {"value": "a1"}}}`, got)
}

func TestTermAndEq(t *testing.T) {
	got := render(t, NewTerm[product]().
		FieldOf(func(p *product) any { return &p.Stock.Warehouse }).
		Value(String("berlin")).
		Boost(1.2))
	assert.Equal(t, `{"term": {"stock.warehouse": {"value": "berlin", "boost": 1.2}}}`, got)

	assert.Equal(t, `{"term": {"status": {"value": "PENDING"}}}`, render(t, Eq("status", "PENDING")))
}

func TestTermsAndIn(t *testing.T) {
	got := render(t, In("warehouse_id", "12", "15"))
	assert.Equal(t, `{"terms": {"warehouse_id": ["12", "15"]}}`, got)

	got = render(t, NewTerms[product]().FieldOf(func(p *product) any { return &p.Price }, Int(1), Int(2)))
	assert.Equal(t, `{"terms": {"price": [1, 2]}}`, got)

	_, err := NewTerms[product]().FieldOf(func(p *product) any { return p.Price }).Render()
	assert.ErrorIs(t, err, ErrUnsupportedExpressionShape)
}

func TestRange(t *testing.T) {
	assert.Equal(t, `{"range": {"qty": {"gte": 1, "lte": 5}}}`, render(t, Range("qty", Int(1), Int(5), true)))
	assert.Equal(t, `{"range": {"qty": {"gt": 1, "lt": 5}}}`, render(t, Range("qty", Int(1), Int(5), false)))

	got := render(t, NewRange[product]().Field("created").Gte(String("2024-01-01")).Format("yyyy-MM-dd"))
	assert.Equal(t, `{"range": {"created": {"gte": "2024-01-01", "format": "yyyy-MM-dd"}}}`, got)
}

func TestExists(t *testing.T) {
	got := render(t, NewExists[product]().FieldOf(func(p *product) any { return &p.Title }))
	assert.Equal(t, `{"exists": {"field": "title"}}`, got)

	_, err := NewExists[product]().Render()
	assert.ErrorIs(t, err, ErrEmptyRequiredFragment)
}

func TestBool_ClausesAccumulate(t *testing.T) {
	b := NewBool().
		Must(Eq("status", "PENDING")).
		Filter(Range("qty", Int(1), Int(5), true)).
		Must(In("warehouse_id", "1")).
		MustNot(Eq("deleted", "true"))

	got := render(t, b)
	assert.Equal(t,
		`{"bool": {"must": [{"term": {"status": {"value": "PENDING"}}}, {"terms": {"warehouse_id": ["1"]}}], "filter": [{"range": {"qty": {"gte": 1, "lte": 5}}}], "must_not": [{"term": {"deleted": {"value": "true"}}}]}}`,
		got)
}

func TestCombinators(t *testing.T) {
	got := render(t, Or(Eq("a", "1"), Not(Eq("b", "2"))).Boost(0.5))
	assert.Equal(t,
		`{"bool": {"should": [{"term": {"a": {"value": "1"}}}, {"bool": {"must_not": [{"term": {"b": {"value": "2"}}}]}}], "minimum_should_match": 1, "boost": 0.5}}`,
		got)

	assert.Equal(t, `{"bool": {}}`, render(t, NewBool()))
	assert.Equal(t, `{"bool": {"must": [{"match_all": {}}]}}`, render(t, And(MatchAll())))
}

func TestFilterAggregation(t *testing.T) {
	a := NewFilterAggregation(Eq("status", "SHIPPED")).
		Aggregation("avg_qty", NewAvg[product]().Field("qty"))
	got := render(t, a)
	assert.Equal(t,
		`{"filter": {"term": {"status": {"value": "SHIPPED"}}}, "aggs": {"avg_qty": {"avg": {"field": "qty"}}}}`,
		got)

	_, err := NewFilterAggregation(NewMatch[product]()).Render()
	assert.ErrorIs(t, err, ErrEmptyRequiredFragment)
}

func TestMetricAggregations(t *testing.T) {
	price := func(p *product) any { return &p.Price }
	tests := []struct {
		agg  *MetricAggregation[product]
		want string
	}{
		{NewAvg[product]().FieldOf(price), `{"avg": {"field": "price"}}`},
		{NewSum[product]().FieldOf(price).Missing(Int(0)), `{"sum": {"field": "price", "missing": 0}}`},
		{NewMin[product]().Script("doc['price'].value * 2"), `{"min": {"script": "doc['price'].value * 2"}}`},
		{NewMax[product]().FieldPath(Field(price)), `{"max": {"field": "price"}}`},
		{NewValueCount[product]().Field("title"), `{"value_count": {"field": "title"}}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, render(t, tt.agg))
	}

	_, err := NewAvg[product]().Render()
	require.ErrorIs(t, err, ErrEmptyRequiredFragment)
}

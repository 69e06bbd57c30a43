// Package scan decodes search responses: hit envelopes, totals in both
// the legacy number and the {value, relation} form, and named
// aggregation results.
package scan

import (
	"bytes"
	"errors"
	"fmt"

	j "github.com/goccy/go-json"
)

// Response is the part of a search response callers usually need.
type Response struct {
	Took         int                     `json:"took"`
	TimedOut     bool                    `json:"timed_out"`
	Hits         Hits                    `json:"hits"`
	Aggregations map[string]j.RawMessage `json:"aggregations,omitempty"`
	ScrollID     string                  `json:"_scroll_id,omitempty"`
}

type Hits struct {
	Total    Total    `json:"total"`
	MaxScore *float64 `json:"max_score"`
	Hits     []Hit    `json:"hits"`
}

// Total accepts both `"total": 12` and `"total": {"value": 12, "relation": "eq"}`.
type Total struct {
	Value    int64  `json:"value"`
	Relation string `json:"relation"`
}

func (t *Total) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] != '{' {
		if bytes.Equal(b, []byte("null")) {
			return nil
		}
		t.Relation = "eq"
		return j.Unmarshal(b, &t.Value)
	}
	type plain Total
	return j.Unmarshal(b, (*plain)(t))
}

type Hit struct {
	Index  string       `json:"_index"`
	ID     string       `json:"_id"`
	Score  *float64     `json:"_score"`
	Source j.RawMessage `json:"_source"`
	Sort   []any        `json:"sort,omitempty"`
}

// CountResponse is the body of a _count call.
type CountResponse struct {
	Count int64 `json:"count"`
}

// ErrNoAggregation is returned when a named aggregation is absent.
var ErrNoAggregation = errors.New("scan: aggregation not found")

// Decode parses a search response.
func Decode(raw []byte) (*Response, error) {
	var r Response
	if err := j.Unmarshal(raw, &r); err != nil {
		return nil, fmt.Errorf("scan: decode response: %w", err)
	}
	return &r, nil
}

// DecodeCount parses a _count response.
func DecodeCount(raw []byte) (int64, error) {
	var c CountResponse
	if err := j.Unmarshal(raw, &c); err != nil {
		return 0, fmt.Errorf("scan: decode count: %w", err)
	}
	return c.Count, nil
}

// Sources decodes every hit's _source into T.
func Sources[T any](r *Response) ([]T, error) {
	out := make([]T, len(r.Hits.Hits))
	for i, h := range r.Hits.Hits {
		if len(h.Source) == 0 {
			continue
		}
		if err := j.Unmarshal(h.Source, &out[i]); err != nil {
			return nil, fmt.Errorf("scan: hit %s: %w", h.ID, err)
		}
	}
	return out, nil
}

// DecodeHits decodes a raw search response straight into []T.
func DecodeHits[T any](raw []byte) ([]T, error) {
	r, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	return Sources[T](r)
}

// Aggregation decodes the named aggregation result into T.
func Aggregation[T any](r *Response, name string) (T, error) {
	var out T
	msg, ok := r.Aggregations[name]
	if !ok {
		return out, fmt.Errorf("%w: %q", ErrNoAggregation, name)
	}
	if err := j.Unmarshal(msg, &out); err != nil {
		return out, fmt.Errorf("scan: aggregation %q: %w", name, err)
	}
	return out, nil
}

// ----------------------------------------------------------------------------
// Common aggregation result shapes
// ----------------------------------------------------------------------------

// Value is the result of single-value metrics (cardinality, avg, sum, …).
type Value struct {
	Value *float64 `json:"value"`
}

// Buckets is the result of multi-bucket aggregations such as terms.
type Buckets struct {
	DocCountErrorUpperBound int64    `json:"doc_count_error_upper_bound"`
	SumOtherDocCount        int64    `json:"sum_other_doc_count"`
	Buckets                 []Bucket `json:"buckets"`
}

// Bucket keeps sub-aggregation results raw; decode them with SubAggregation.
type Bucket struct {
	Key      any                     `json:"key"`
	DocCount int64                   `json:"doc_count"`
	Sub      map[string]j.RawMessage `json:"-"`
}

func (b *Bucket) UnmarshalJSON(data []byte) error {
	var all map[string]j.RawMessage
	if err := j.Unmarshal(data, &all); err != nil {
		return err
	}
	if k, ok := all["key"]; ok {
		if err := j.Unmarshal(k, &b.Key); err != nil {
			return err
		}
	}
	if dc, ok := all["doc_count"]; ok {
		if err := j.Unmarshal(dc, &b.DocCount); err != nil {
			return err
		}
	}
	delete(all, "key")
	delete(all, "key_as_string")
	delete(all, "doc_count")
	b.Sub = all
	return nil
}

// SingleBucket is the result of nested, reverse_nested and filter.
type SingleBucket = Bucket

// SubAggregation decodes a named sub-aggregation of a bucket into T.
func SubAggregation[T any](b Bucket, name string) (T, error) {
	var out T
	msg, ok := b.Sub[name]
	if !ok {
		return out, fmt.Errorf("%w: %q", ErrNoAggregation, name)
	}
	if err := j.Unmarshal(msg, &out); err != nil {
		return out, fmt.Errorf("scan: sub-aggregation %q: %w", name, err)
	}
	return out, nil
}

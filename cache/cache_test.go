package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	data   map[string]string
	getErr error
	ttl    time.Duration
}

func (m *memStore) Get(ctx context.Context, key string) *redis.StringCmd {
	if m.getErr != nil {
		return redis.NewStringResult("", m.getErr)
	}
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *memStore) Set(ctx context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	m.ttl = ttl
	m.data[key] = string(value.([]byte))
	return redis.NewStatusResult("OK", nil)
}

type countingExec struct {
	calls int
	err   error
}

func (c *countingExec) Do(context.Context, string, string, []byte) ([]byte, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return []byte(`{"hits": {}}`), nil
}

func TestCache_HitAfterMiss(t *testing.T) {
	store := &memStore{data: map[string]string{}}
	next := &countingExec{}
	c := New(next, store, WithTTL(time.Second), WithPrefix("t:"))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		out, err := c.Do(ctx, "POST", "/orders/_search", []byte(`{"size": 0}`))
		require.NoError(t, err)
		assert.Equal(t, `{"hits": {}}`, string(out))
	}
	assert.Equal(t, 1, next.calls)
	assert.Equal(t, time.Second, store.ttl)
	assert.Len(t, store.data, 1)
}

func TestCache_DifferentBodiesDifferentKeys(t *testing.T) {
	c := New(&countingExec{}, nil)
	a := c.Key("POST", "/orders/_search", []byte(`{"size": 0}`))
	b := c.Key("POST", "/orders/_search", []byte(`{"size": 1}`))
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, c.Key("POST", "/orders/_search", []byte(`{"size": 0}`)))
	assert.Contains(t, a, "plainelastic:")
}

func TestCache_PassThrough(t *testing.T) {
	store := &memStore{data: map[string]string{}}
	next := &countingExec{}
	c := New(next, store)

	_, err := c.Do(context.Background(), "PUT", "/orders", []byte(`{}`))
	require.NoError(t, err)
	_, err = c.Do(context.Background(), "PUT", "/orders", []byte(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
	assert.Empty(t, store.data)

	nilStore := &countingExec{}
	_, err = New(nilStore, nil).Do(context.Background(), "POST", "/orders/_search", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, nilStore.calls)
}

func TestCache_StoreFailureFallsBack(t *testing.T) {
	store := &memStore{data: map[string]string{}, getErr: errors.New("connection refused")}
	next := &countingExec{}
	out, err := New(next, store).Do(context.Background(), "POST", "/orders/_count", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
	assert.Equal(t, 1, next.calls)
}

func TestCache_UpstreamErrorNotCached(t *testing.T) {
	store := &memStore{data: map[string]string{}}
	_, err := New(&countingExec{err: errors.New("boom")}, store).Do(context.Background(), "POST", "/o/_search", nil)
	assert.Error(t, err)
	assert.Empty(t, store.data)
}

func TestCacheable(t *testing.T) {
	assert.True(t, Cacheable("/orders/_search"))
	assert.True(t, Cacheable("/orders/_search?request_cache=true"))
	assert.True(t, Cacheable("/_msearch"))
	assert.False(t, Cacheable("/orders"))
	assert.False(t, Cacheable("/orders/_doc/1"))
}

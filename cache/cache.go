// Package cache puts a Redis-backed response cache in front of a
// driver.Executor. Only idempotent reads (_search, _count, _msearch) are
// cached; everything else passes straight through.
//
//	rdb := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	exec := cache.New(driver.NewHTTPConn(url), rdb, cache.WithTTL(30*time.Second))
package cache

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/manojoshi/plainelastic/driver"
	"github.com/manojoshi/plainelastic/internal"
)

// Store is the subset of redis.Cmdable the cache needs.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

var cacheable = []string{"_search", "_count", "_msearch"}

const defaultTTL = time.Minute

type Opt func(*Cache)

func WithTTL(d time.Duration) Opt  { return func(c *Cache) { c.ttl = d } }
func WithPrefix(p string) Opt      { return func(c *Cache) { c.prefix = p } }
func WithLogger(l *zap.Logger) Opt { return func(c *Cache) { c.log = l } }

// Cache implements driver.Executor.
type Cache struct {
	next   driver.Executor
	store  Store
	ttl    time.Duration
	prefix string
	log    *zap.Logger
}

// New wraps next. A nil store disables caching.
func New(next driver.Executor, store Store, opts ...Opt) *Cache {
	c := &Cache{next: next, store: store, ttl: defaultTTL, prefix: "plainelastic:", log: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Do serves cacheable requests from Redis when possible. Redis failures
// are logged and never fail the request.
func (c *Cache) Do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if c.store == nil || !Cacheable(path) {
		return c.next.Do(ctx, method, path, body)
	}
	key := c.Key(method, path, body)

	hit, err := c.store.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		c.log.Debug("cache hit", zap.String("key", key))
		return hit, nil
	case !errors.Is(err, redis.Nil):
		c.log.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}

	out, err := c.next.Do(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	if err := c.store.Set(ctx, key, out, c.ttl).Err(); err != nil {
		c.log.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
	return out, nil
}

// Key derives the cache key for a request.
func (c *Cache) Key(method, path string, body []byte) string {
	d := xxhash.New()
	_, _ = d.WriteString(method)
	_, _ = d.WriteString(" ")
	_, _ = d.WriteString(path)
	_, _ = d.WriteString("\n")
	_, _ = d.Write(body)
	return c.prefix + strconv.FormatUint(d.Sum64(), 16)
}

// Cacheable reports whether path is a read endpoint.
func Cacheable(path string) bool {
	p := strings.SplitN(path, "?", 2)[0]
	seg := p[strings.LastIndexByte(p, '/')+1:]
	return internal.Contains(cacheable, seg)
}

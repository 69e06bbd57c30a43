// driver/http.go
//
// Thin shim over net/http that satisfies the Executor interface and adds
// a few conveniences (multi-search batching, OpenTelemetry spans, zap
// debug logging).
//
// Usage:
//
//	conn := driver.NewHTTPConn("http://localhost:9200",
//	    driver.WithLogger(logger),
//	    driver.WithTimeout(5*time.Second),
//	)
//	repo := repository.New("orders", conn)
package driver

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// Executor sends one request to the search engine and returns the raw
// response body. Everything above the driver depends only on it.
type Executor interface {
	Do(ctx context.Context, method, path string, body []byte) ([]byte, error)
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("driver: %s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// maxAttrLen caps the request body recorded on spans and in logs.
const maxAttrLen = 2048

// Opt configures an HTTPConn.
type Opt func(*HTTPConn)

func WithClient(c *http.Client) Opt       { return func(h *HTTPConn) { h.client = c } }
func WithLogger(l *zap.Logger) Opt        { return func(h *HTTPConn) { h.log = l } }
func WithBasicAuth(user, pass string) Opt { return func(h *HTTPConn) { h.user, h.pass = user, pass } }

// WithTimeout bounds each request; zero leaves the client's own timeout.
func WithTimeout(d time.Duration) Opt { return func(h *HTTPConn) { h.timeout = d } }

// HTTPConn implements Executor over HTTP.
type HTTPConn struct {
	base       string
	client     *http.Client
	log        *zap.Logger
	user, pass string
	timeout    time.Duration
}

// NewHTTPConn targets the engine at baseURL, e.g. "http://localhost:9200".
func NewHTTPConn(baseURL string, opts ...Opt) *HTTPConn {
	h := &HTTPConn{
		base:   strings.TrimRight(baseURL, "/"),
		client: http.DefaultClient,
		log:    zap.NewNop(),
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Do satisfies the Executor interface.
func (h *HTTPConn) Do(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	// span for tracing & slow-query logging
	ctx, span := otel.Tracer("plainelastic.driver").Start(ctx, "http."+strings.ToLower(method))
	defer span.End()

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	start := time.Now()
	res, code, err := h.roundTrip(ctx, method, path, body)
	elapsed := time.Since(start)

	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("es.path", path),
		attribute.String("es.body", truncate(body)),
		attribute.Int("http.status_code", code),
		attribute.Float64("es.duration_ms", float64(elapsed.Milliseconds())),
	)
	h.log.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("body", truncate(body)),
		zap.Int("status", code),
		zap.Duration("elapsed", elapsed),
		zap.Error(err),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return res, err
}

func (h *HTTPConn) roundTrip(ctx context.Context, method, path string, body []byte) ([]byte, int, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, h.base+path, rd)
	if err != nil {
		return nil, 0, fmt.Errorf("driver: build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", contentType(path))
	}
	req.Header.Set("Accept", "application/json")
	if h.user != "" {
		req.SetBasicAuth(h.user, h.pass)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("driver: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	out, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("driver: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: truncate(out)}
	}
	return out, resp.StatusCode, nil
}

// ----------------------------------------------------------------------------
// Helper APIs – optional but handy
// ----------------------------------------------------------------------------

// MultiSearch sends several search bodies against index in one _msearch
// round trip and returns the raw response.
func MultiSearch(ctx context.Context, ex Executor, index string, bodies [][]byte) ([]byte, error) {
	if len(bodies) == 0 {
		return nil, errors.New("driver: multi-search needs at least one body")
	}
	var nd bytes.Buffer
	for _, b := range bodies {
		nd.WriteString("{}\n")
		nd.Write(bytes.TrimSpace(b))
		nd.WriteByte('\n')
	}
	return ex.Do(ctx, http.MethodPost, "/"+index+"/_msearch", nd.Bytes())
}

// Close releases idle connections held by the client.
func (h *HTTPConn) Close() error {
	h.client.CloseIdleConnections()
	return nil
}

// ----------------------------------------------------------------------------
// internal helpers
// ----------------------------------------------------------------------------

func contentType(path string) string {
	if strings.HasSuffix(path, "/_msearch") || strings.HasSuffix(path, "/_bulk") {
		return "application/x-ndjson"
	}
	return "application/json"
}

func truncate(b []byte) string {
	if len(b) > maxAttrLen {
		return string(b[:maxAttrLen]) + "…"
	}
	return string(b)
}

// Package index turns Go structs into index-creation bodies (mappings and
// settings). A single public entry-point, `AutoCreate`, creates the index
// and treats "already exists" as success.
//
//	type Order struct {
//	    ID        string    `json:"order_id" es:",keyword"`
//	    Status    string    `json:"status" es:",keyword"`
//	    Qty       int       `json:"qty"`
//	    Notes     string    `json:"notes" es:",text,noindex"`
//	    CreatedAt time.Time `json:"created_at"`
//	}
//
//	if err := index.AutoCreate(ctx, conn, Order{},
//	    index.WithName("orders"),
//	    index.WithShards(1, 0),
//	); err != nil {
//	    log.Fatal(err)
//	}
package index

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/manojoshi/plainelastic/driver"
	"github.com/manojoshi/plainelastic/internal"
	q "github.com/manojoshi/plainelastic/query"
)

// ------------------------------------------------------------------
// Options
// ------------------------------------------------------------------

type CreateOpt func(*createCfg)

type createCfg struct {
	name     string // index name
	shards   int
	replicas int
	analyzer string // default analyzer for text fields
	resolver *q.Resolver
}

func WithName(name string) CreateOpt       { return func(c *createCfg) { c.name = name } }
func WithAnalyzer(name string) CreateOpt   { return func(c *createCfg) { c.analyzer = name } }
func WithResolver(r *q.Resolver) CreateOpt { return func(c *createCfg) { c.resolver = r } }

// WithShards sets number_of_shards / number_of_replicas.
func WithShards(shards, replicas int) CreateOpt {
	return func(c *createCfg) { c.shards, c.replicas = shards, replicas }
}

var fieldTypes = []string{
	"keyword", "text", "long", "integer", "short", "byte", "double", "float",
	"boolean", "date", "object", "nested", "geo_point", "ip", "binary",
}

var timeType = reflect.TypeOf(time.Time{})

// ------------------------------------------------------------------
// Public API
// ------------------------------------------------------------------

// AutoCreate builds a body from the supplied struct model and issues
// PUT /<index>. It is safe to call concurrently – the engine answers
// resource_already_exists_exception, which is ignored.
func AutoCreate(ctx context.Context, exec driver.Executor, model any, opts ...CreateOpt) error {
	cfg := newCfg(model, opts)
	body, err := buildBody(model, cfg)
	if err != nil {
		return err
	}
	_, err = exec.Do(ctx, http.MethodPut, "/"+cfg.name, body)
	if err != nil && !(driver.IsStatus(err, http.StatusBadRequest) &&
		strings.Contains(err.Error(), "resource_already_exists_exception")) {
		return fmt.Errorf("index: create %s failed: %w", cfg.name, err)
	}
	return nil
}

// BuildBody renders the index-creation body for model.
func BuildBody(model any, opts ...CreateOpt) ([]byte, error) {
	return buildBody(model, newCfg(model, opts))
}

// BuildMapping returns the "properties" object of model's mapping.
//
// Field names come from the `json` tag (through the resolver), types from
// the `es` tag or the Go type: `es:"name,keyword,noindex"`.
func BuildMapping(model any, r *q.Resolver) (*q.ObjectValue, error) {
	rt := reflect.TypeOf(model)
	if rt == nil {
		return nil, fmt.Errorf("index: nil model")
	}
	if rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	if rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("index: model %s is not a struct", rt)
	}
	if r == nil {
		r = q.DefaultResolver()
	}
	return properties(rt, r, 0)
}

func newCfg(model any, opts []CreateOpt) *createCfg {
	cfg := &createCfg{name: inferIndexName(model), shards: -1, replicas: -1}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.resolver == nil {
		cfg.resolver = q.DefaultResolver()
	}
	return cfg
}

func buildBody(model any, cfg *createCfg) ([]byte, error) {
	props, err := BuildMapping(model, cfg.resolver)
	if err != nil {
		return nil, err
	}
	b := q.NewBuilder(q.KindRoot)
	if settings := buildSettings(cfg); settings.Len() > 0 {
		b.Register("settings", settings)
	}
	b.Register("mappings", q.Object(q.KV("properties", props)))
	return b.Bytes()
}

func buildSettings(cfg *createCfg) *q.ObjectValue {
	s := q.Object()
	if cfg.shards >= 0 {
		s.Add("number_of_shards", q.Int(cfg.shards))
	}
	if cfg.replicas >= 0 {
		s.Add("number_of_replicas", q.Int(cfg.replicas))
	}
	if cfg.analyzer != "" {
		s.Add("analysis", q.Object(q.KV("analyzer", q.Object(
			q.KV("default", q.Object(q.KV("type", q.String(cfg.analyzer))))))))
	}
	return s
}

// maxMappingDepth stops self-referential models.
const maxMappingDepth = 8

func properties(rt reflect.Type, r *q.Resolver, depth int) (*q.ObjectValue, error) {
	props := q.Object()
	if depth > maxMappingDepth {
		return props, nil
	}
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		name, ok := r.Name(f)
		if !ok {
			continue
		}
		tag := strings.Split(f.Tag.Get("es"), ",")
		if tag[0] == "-" {
			continue
		}
		if tag[0] != "" {
			name = tag[0]
		}
		attrs := internal.Map(tag[1:], strings.ToLower)

		ft := indirect(f.Type)
		// promoted fields of embedded structs land in the parent
		if name == "" && ft.Kind() == reflect.Struct {
			sub, err := properties(ft, r, depth+1)
			if err != nil {
				return nil, err
			}
			for _, fr := range sub.Fragments() {
				props.Add(fr.Key, fr.Value)
			}
			continue
		}
		if _, err := q.JoinPath(name); err != nil {
			return nil, fmt.Errorf("index: field %s.%s: %w", rt.Name(), f.Name, err)
		}

		field, err := mapField(f.Type, attrs, r, depth)
		if err != nil {
			return nil, fmt.Errorf("index: field %s.%s: %w", rt.Name(), f.Name, err)
		}
		props.Add(name, field)
	}
	return props, nil
}

func mapField(t reflect.Type, attrs []string, r *q.Resolver, depth int) (*q.ObjectValue, error) {
	typ := ""
	for _, a := range attrs {
		if internal.Contains(fieldTypes, a) {
			typ = a
		}
	}
	elem := indirect(t)
	if elem.Kind() == reflect.Slice || elem.Kind() == reflect.Array {
		if elem.Elem().Kind() != reflect.Uint8 { // []byte stays binary
			elem = indirect(elem.Elem())
		}
	}
	if typ == "" {
		typ = inferType(elem)
	}
	if typ == "" {
		return nil, fmt.Errorf("no mapping type for %s", t)
	}

	out := q.Object(q.KV("type", q.String(typ)))
	for _, a := range attrs {
		switch a {
		case "noindex":
			out.Add("index", q.Bool(false))
		case "sortable":
			out.Add("doc_values", q.Bool(true))
		}
	}
	if (typ == "object" || typ == "nested") && elem.Kind() == reflect.Struct {
		props, err := properties(elem, r, depth+1)
		if err != nil {
			return nil, err
		}
		out.Add("properties", props)
	}
	return out, nil
}

func inferType(t reflect.Type) string {
	if t == timeType {
		return "date"
	}
	switch t.Kind() {
	case reflect.String:
		return "text"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int64, reflect.Uint, reflect.Uint64, reflect.Uint32:
		return "long"
	case reflect.Int32, reflect.Uint16:
		return "integer"
	case reflect.Int16, reflect.Uint8:
		return "short"
	case reflect.Int8:
		return "byte"
	case reflect.Float64:
		return "double"
	case reflect.Float32:
		return "float"
	case reflect.Struct:
		return "object"
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return "binary"
		}
	}
	return ""
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// inferIndexName defaults to the struct type name snake_cased + "s".
func inferIndexName(model any) string {
	t := reflect.TypeOf(model)
	if t == nil {
		return ""
	}
	t = indirect(t)
	return snake(t.Name()) + "s"
}

// snake converts CamelCase to snake_case.
func snake(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			sb.WriteByte('_')
		}
		sb.WriteRune(r)
	}
	return strings.ToLower(sb.String())
}

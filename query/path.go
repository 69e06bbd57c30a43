package query

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"
)

// -------------------------------------------------------------------
// Field paths
//
// Go has no expression trees, so an accessor names a field by returning
// its address:
//
//	q.PathOf(func(d *Doc) any { return &d.Address.City }) // "address.city"
//
// The resolver runs the accessor against a zeroed probe document and
// maps the returned address back to the member chain that owns it.
// -------------------------------------------------------------------

// Naming is the convention turning Go field names into engine field names.
// Only SnakeCase yields all lower-case segments; CamelCase keeps inner
// capitals (ZipCode -> zipCode) to match json-style documents. Segments are
// otherwise validated the same way under every convention.
type Naming uint8

const (
	CamelCase Naming = iota // UserID -> userID
	SnakeCase               // UserID -> user_id
	AsIs                    // UserID -> UserID
)

// maxProbeDepth bounds how many pointer-to-struct hops the probe allocates,
// which also stops self-referential types from recursing forever.
const maxProbeDepth = 8

// ResolverOpt configures a Resolver.
type ResolverOpt func(*Resolver)

// WithNaming selects the naming convention for untagged fields.
func WithNaming(n Naming) ResolverOpt { return func(r *Resolver) { r.naming = n } }

// WithTag names the struct tag consulted before the convention ("json" by
// default). An empty name disables tags.
func WithTag(name string) ResolverOpt { return func(r *Resolver) { r.tag = name } }

// Resolver converts field accessors into dotted paths. It is safe for
// concurrent use.
type Resolver struct {
	naming Naming
	tag    string
	names  sync.Map // reflect.Type → []fieldName
}

type fieldName struct {
	name string
	skip bool // tagged "-" or unexported
}

// NewResolver returns a resolver; the zero configuration is CamelCase with
// json tags.
func NewResolver(opts ...ResolverOpt) *Resolver {
	r := &Resolver{naming: CamelCase, tag: "json"}
	for _, o := range opts {
		o(r)
	}
	return r
}

var defaultResolver atomic.Pointer[Resolver]

func init() { defaultResolver.Store(NewResolver()) }

// DefaultResolver returns the resolver used by PathOf and the builders.
func DefaultResolver() *Resolver { return defaultResolver.Load() }

// SetDefaultResolver replaces the library-wide resolver. Call it once at
// start-up, before building queries.
func SetDefaultResolver(r *Resolver) {
	if r != nil {
		defaultResolver.Store(r)
	}
}

// Path is a resolved field path bound to document type T. A failed
// resolution is carried in the Path so fluent chains can report it.
type Path[T any] struct {
	name string
	err  error
}

// String returns the dotted path, or "" when resolution failed.
func (p Path[T]) String() string { return p.name }

// Err returns the resolution error, if any.
func (p Path[T]) Err() error { return p.err }

// Field resolves an accessor with the default resolver.
func Field[T any](fn func(*T) any) Path[T] {
	name, err := Resolve(DefaultResolver(), fn)
	return Path[T]{name: name, err: err}
}

// FieldOfCollection resolves a path through a slice member and a field of
// its element type: "tags" + "." + "label". Elements may be pointers, in
// which case elem receives a **E style argument:
//
//	q.FieldOfCollection(func(d *Doc) *[]*Tag { return &d.Tags },
//	    func(t **Tag) any { return &(*t).Label })
func FieldOfCollection[T, E any](coll func(*T) *[]E, elem func(*E) any) Path[T] {
	name, err := ResolveCollection(DefaultResolver(), coll, elem)
	return Path[T]{name: name, err: err}
}

// PathOf resolves an accessor to a dotted path with the default resolver.
func PathOf[T any](fn func(*T) any) (string, error) {
	return Resolve(DefaultResolver(), fn)
}

// CollectionPathOf is FieldOfCollection returning the path directly.
func CollectionPathOf[T, E any](coll func(*T) *[]E, elem func(*E) any) (string, error) {
	return ResolveCollection(DefaultResolver(), coll, elem)
}

// Resolve resolves fn with resolver r.
func Resolve[T any](r *Resolver, fn func(*T) any) (string, error) {
	segs, err := r.resolve(reflect.TypeOf((*T)(nil)).Elem(), func(root reflect.Value) any {
		return fn(root.Interface().(*T))
	})
	if err != nil {
		return "", err
	}
	return strings.Join(segs, "."), nil
}

// ResolveCollection resolves coll and elem with r and joins them.
func ResolveCollection[T, E any](r *Resolver, coll func(*T) *[]E, elem func(*E) any) (string, error) {
	head, err := r.resolve(reflect.TypeOf((*T)(nil)).Elem(), func(root reflect.Value) any {
		return coll(root.Interface().(*T))
	})
	if err != nil {
		return "", err
	}
	tail, err := Resolve(r, elem)
	if err != nil {
		return "", err
	}
	return strings.Join(head, ".") + "." + tail, nil
}

// JoinPath joins symbolic segments into a path, validating each one.
func JoinPath(segments ...string) (string, error) {
	if len(segments) == 0 {
		return "", fmt.Errorf("query: empty path: %w", ErrInvalidFieldName)
	}
	for _, s := range segments {
		if err := validSegment(s); err != nil {
			return "", err
		}
	}
	return strings.Join(segments, "."), nil
}

// Name returns the engine name of a struct field and whether it is
// addressable at all.
func (r *Resolver) Name(sf reflect.StructField) (string, bool) {
	if !sf.IsExported() && !isEmbeddedStruct(sf) {
		return "", false
	}
	if r.tag != "" {
		if tag, ok := sf.Tag.Lookup(r.tag); ok {
			name := strings.Split(tag, ",")[0]
			if name == "-" {
				return "", false
			}
			if name != "" {
				return name, true
			}
		}
	}
	if isEmbeddedStruct(sf) {
		return "", true // promoted: contributes no segment
	}
	return r.convert(sf.Name), true
}

func isEmbeddedStruct(sf reflect.StructField) bool {
	t := sf.Type
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return sf.Anonymous && t.Kind() == reflect.Struct
}

func (r *Resolver) convert(name string) string {
	switch r.naming {
	case SnakeCase:
		return snake(name)
	case AsIs:
		return name
	default:
		return lowerCamel(name)
	}
}

// -------------------------------------------------------------------
// probing
// -------------------------------------------------------------------

func (r *Resolver) resolve(rt reflect.Type, call func(reflect.Value) any) (segs []string, err error) {
	if indirectType(rt).Kind() != reflect.Struct {
		return nil, fmt.Errorf("query: %s is not a struct: %w", rt, ErrUnsupportedExpressionShape)
	}
	// Pointer element types ([]*Tag) reach the struct through allocated
	// pointer levels.
	root := reflect.New(rt)
	doc := root.Elem()
	for doc.Kind() == reflect.Pointer {
		doc.Set(reflect.New(doc.Type().Elem()))
		doc = doc.Elem()
	}
	probe(doc, 0)

	// Accessors that dereference nil maps, index empty slices or call
	// methods on zero values panic on the probe; that is a shape error.
	defer func() {
		if p := recover(); p != nil {
			segs, err = nil, fmt.Errorf("query: accessor on %s panicked (%v): %w", rt, p, ErrUnsupportedExpressionShape)
		}
	}()

	got := reflect.ValueOf(call(root))
	if !got.IsValid() || got.Kind() != reflect.Pointer || got.IsNil() {
		return nil, fmt.Errorf("query: accessor on %s must return a field address: %w", rt, ErrUnsupportedExpressionShape)
	}
	segs, ok := r.locate(doc, got.Pointer(), got.Type().Elem(), 0)
	if !ok {
		return nil, fmt.Errorf("query: accessor on %s does not address a member of the document: %w", rt, ErrUnsupportedExpressionShape)
	}
	segs = compact(segs)
	if len(segs) == 0 {
		return nil, fmt.Errorf("query: accessor on %s addresses no named field: %w", rt, ErrUnsupportedExpressionShape)
	}
	for _, s := range segs {
		if err := validSegment(s); err != nil {
			return nil, err
		}
	}
	return segs, nil
}

func indirectType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}

// probe allocates every reachable pointer-to-struct field so accessors can
// walk through them.
func probe(v reflect.Value, depth int) {
	if depth >= maxProbeDepth {
		return
	}
	for i := 0; i < v.NumField(); i++ {
		f := v.Field(i)
		if !f.CanSet() {
			continue
		}
		switch {
		case f.Kind() == reflect.Struct:
			probe(f, depth+1)
		case f.Kind() == reflect.Pointer && f.Type().Elem().Kind() == reflect.Struct:
			f.Set(reflect.New(f.Type().Elem()))
			probe(f.Elem(), depth+1)
		}
	}
}

// locate finds the member chain of v whose storage starts at target and
// whose type is want.
func (r *Resolver) locate(v reflect.Value, target uintptr, want reflect.Type, depth int) ([]string, bool) {
	if depth > maxProbeDepth {
		return nil, false
	}
	names := r.fieldNames(v.Type())
	for i, fn := range names {
		if fn.skip {
			continue
		}
		f := v.Field(i)
		start := f.UnsafeAddr()
		end := start + f.Type().Size()

		if target == start && f.Type() == want {
			return []string{fn.name}, true
		}
		switch {
		case f.Kind() == reflect.Struct && target >= start && target < end:
			if sub, ok := r.locate(f, target, want, depth+1); ok {
				return append([]string{fn.name}, sub...), true
			}
		case f.Kind() == reflect.Pointer && !f.IsNil() && f.Type().Elem().Kind() == reflect.Struct:
			if sub, ok := r.locate(f.Elem(), target, want, depth+1); ok {
				return append([]string{fn.name}, sub...), true
			}
		}
	}
	return nil, false
}

func (r *Resolver) fieldNames(rt reflect.Type) []fieldName {
	if cached, ok := r.names.Load(rt); ok {
		return cached.([]fieldName)
	}
	out := make([]fieldName, rt.NumField())
	for i := range out {
		name, ok := r.Name(rt.Field(i))
		out[i] = fieldName{name: name, skip: !ok}
	}
	r.names.Store(rt, out)
	return out
}

// -------------------------------------------------------------------
// naming helpers
// -------------------------------------------------------------------

func validSegment(s string) error {
	if s == "" {
		return fmt.Errorf("query: empty path segment: %w", ErrInvalidFieldName)
	}
	for _, c := range s {
		if c == '"' || c == Placeholder || c == '\\' || c == '.' || unicode.IsSpace(c) || unicode.IsControl(c) {
			return fmt.Errorf("query: path segment %q: %w", s, ErrInvalidFieldName)
		}
	}
	return nil
}

func compact(segs []string) []string {
	out := segs[:0]
	for _, s := range segs {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// lowerCamel lower-cases the leading upper-case run, keeping the last
// letter of an acronym when a word follows it: HTTPServer -> httpServer.
func lowerCamel(s string) string {
	rs := []rune(s)
	for i := range rs {
		if !unicode.IsUpper(rs[i]) {
			break
		}
		if i > 0 && i+1 < len(rs) && unicode.IsLower(rs[i+1]) {
			break
		}
		rs[i] = unicode.ToLower(rs[i])
	}
	return string(rs)
}

// snake converts CamelCase to snake_case, keeping acronyms together:
// UserID -> user_id, HTTPServer -> http_server.
func snake(s string) string {
	rs := []rune(s)
	var sb strings.Builder
	for i, c := range rs {
		if unicode.IsUpper(c) && i > 0 {
			prevLower := unicode.IsLower(rs[i-1]) || unicode.IsDigit(rs[i-1])
			nextLower := i+1 < len(rs) && unicode.IsLower(rs[i+1])
			if prevLower || (unicode.IsUpper(rs[i-1]) && nextLower) {
				sb.WriteByte('_')
			}
		}
		sb.WriteRune(unicode.ToLower(c))
	}
	return sb.String()
}

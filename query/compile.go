package query

import (
	"bytes"
	"fmt"
	"math"
	"strconv"

	j "github.com/goccy/go-json"
)

// -------------------------------------------------------------------
// writer – serialises a builder tree into one buffer. Nothing reaches
// the caller unless the whole tree wrote cleanly, so a failed render
// never leaks partial JSON.
// -------------------------------------------------------------------

type writer struct {
	buf   *bytes.Buffer
	depth int
}

// FormatString returns s as a quoted JSON string literal.
func FormatString(s string) (string, error) {
	b, err := j.MarshalNoEscape(s)
	if err != nil {
		return "", fmt.Errorf("query: format string: %w", err)
	}
	return string(b), nil
}

// FormatFloat returns f in shortest round-trip, locale-invariant form.
func FormatFloat(f float64) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("query: %v: %w", f, ErrInvalidLiteral)
	}
	return strconv.FormatFloat(f, 'f', -1, 64), nil
}

func (s str) write(w *writer) error {
	lit, err := FormatString(string(s))
	if err != nil {
		return err
	}
	w.buf.WriteString(lit)
	return nil
}

func (b boolean) write(w *writer) error {
	w.buf.WriteString(strconv.FormatBool(bool(b)))
	return nil
}

func (n integer) write(w *writer) error {
	w.buf.WriteString(strconv.FormatInt(int64(n), 10))
	return nil
}

func (n unsigned) write(w *writer) error {
	w.buf.WriteString(strconv.FormatUint(uint64(n), 10))
	return nil
}

func (f float) write(w *writer) error {
	lit, err := FormatFloat(float64(f))
	if err != nil {
		return err
	}
	w.buf.WriteString(lit)
	return nil
}

func (r raw) write(w *writer) error {
	text, err := resolveRaw(string(r))
	if err != nil {
		return err
	}
	w.buf.WriteString(text)
	return nil
}

// resolveRaw returns tmpl verbatim when it is already JSON, so literal
// apostrophes inside real strings survive. Otherwise placeholder quotes
// are substituted and the result must be JSON.
func resolveRaw(tmpl string) (string, error) {
	if j.Valid([]byte(tmpl)) {
		return tmpl, nil
	}
	text, err := AltQuote(tmpl, 0)
	if err != nil {
		return "", err
	}
	if !j.Valid([]byte(text)) {
		return "", fmt.Errorf("query: %q: %w", tmpl, ErrInvalidRawJSON)
	}
	return text, nil
}

func (o *ObjectValue) write(w *writer) error {
	w.buf.WriteByte('{')
	if err := w.fragments(o.frags); err != nil {
		return err
	}
	w.buf.WriteByte('}')
	return nil
}

func (a *ArrayValue) write(w *writer) error {
	w.buf.WriteByte('[')
	for i, v := range a.items {
		if i > 0 {
			w.buf.WriteString(", ")
		}
		if err := v.write(w); err != nil {
			return err
		}
	}
	w.buf.WriteByte(']')
	return nil
}

func (n node) write(w *writer) error { return w.nested(n.b, w.node) }
func (n body) write(w *writer) error { return w.nested(n.b, w.body) }

// -------------------------------------------------------------------
// builder writers
// -------------------------------------------------------------------

// nested runs fn for b one level deeper, failing once the delimiter
// table is exhausted.
func (w *writer) nested(b *Builder, fn func(*Builder) error) error {
	w.depth++
	defer func() { w.depth-- }()
	if _, err := Delimiter(w.depth); err != nil {
		return err
	}
	return fn(b)
}

// node writes {envelope}.
func (w *writer) node(b *Builder) error {
	if err := b.check(); err != nil {
		return err
	}
	w.buf.WriteByte('{')
	if b.kind == KindRoot {
		if err := w.fragments(b.frags); err != nil {
			return err
		}
	} else if err := w.envelope(b); err != nil {
		return err
	}
	w.buf.WriteByte('}')
	return nil
}

// body writes {fragments} with no keyword.
func (w *writer) body(b *Builder) error {
	if err := b.check(); err != nil {
		return err
	}
	w.buf.WriteByte('{')
	if err := w.fragments(b.frags); err != nil {
		return err
	}
	w.buf.WriteByte('}')
	return nil
}

// envelope writes "keyword": {body} followed by "aggs" when the builder
// carries sub-aggregations.
func (w *writer) envelope(b *Builder) error {
	if err := str(b.kind.Keyword()).write(w); err != nil {
		return err
	}
	w.buf.WriteString(": {")
	if err := w.fragments(b.frags); err != nil {
		return err
	}
	w.buf.WriteByte('}')
	if b.aggs != nil && b.aggs.Len() > 0 {
		w.buf.WriteString(", ")
		if err := w.fragment(KV("aggs", b.aggs)); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) fragments(frags []Fragment) error {
	for i, f := range frags {
		if i > 0 {
			w.buf.WriteString(", ")
		}
		if err := w.fragment(f); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) fragment(f Fragment) error {
	if f.Value == nil {
		if f.raw == "" {
			return fmt.Errorf("query: fragment %q has no value: %w", f.Key, ErrInvalidLiteral)
		}
		text, err := resolveRaw("{" + f.raw + "}")
		if err != nil {
			return err
		}
		w.buf.WriteString(text[1 : len(text)-1])
		return nil
	}
	if err := str(f.Key).write(w); err != nil {
		return err
	}
	w.buf.WriteString(": ")
	return f.Value.write(w)
}

// has reports whether f registers key. Raw fragments are parsed for their
// top-level keys; one that does not parse registers nothing.
func (f Fragment) has(key string) bool {
	if f.Value != nil {
		return f.Key == key
	}
	if f.raw == "" {
		return false
	}
	text, err := resolveRaw("{" + f.raw + "}")
	if err != nil {
		return false
	}
	var keys map[string]j.RawMessage
	if err := j.Unmarshal([]byte(text), &keys); err != nil {
		return false
	}
	_, ok := keys[key]
	return ok
}

package query

import (
	"fmt"
	"strings"
)

// Placeholder is the quote glyph raw templates are authored with, so that
// literals need no hand escaping: "'field': 'user_id'".
const Placeholder = '\''

// delimiters holds one quote character per nesting depth. Depth 0 is the
// JSON double quote; deeper entries are distinct from each other, from the
// placeholder and from the structural characters { } : , [ ].
var delimiters = [...]rune{'"', '`', '~', '^', '|', '#', '$', '%', '&', '!', '?', ';', '<', '>', '@', '*'}

// MaxDepth is the deepest builder nesting a single render supports.
const MaxDepth = len(delimiters)

// Delimiter returns the quote character used at depth.
func Delimiter(depth int) (rune, error) {
	if depth < 0 || depth >= MaxDepth {
		return 0, fmt.Errorf("query: depth %d (max %d): %w", depth, MaxDepth-1, ErrNestingDepthExceeded)
	}
	return delimiters[depth], nil
}

// AltQuote replaces every placeholder in tmpl with the delimiter for depth.
//
//	AltQuote("'path': 'comments'", 0) // "path": "comments"
func AltQuote(tmpl string, depth int) (string, error) {
	d, err := Delimiter(depth)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(tmpl, string(Placeholder), string(d)), nil
}

package query

import "errors"

// Render and resolution failures. Callers match them with errors.Is; the
// returned errors wrap these with the offending field, key or depth.
var (
	// ErrUnsupportedExpressionShape indicates a field accessor that is not a
	// plain chain of member accesses on the document.
	ErrUnsupportedExpressionShape = errors.New("unsupported expression shape")

	// ErrNestingDepthExceeded indicates a builder tree deeper than the
	// provisioned delimiter table.
	ErrNestingDepthExceeded = errors.New("nesting depth exceeded")

	// ErrEmptyRequiredFragment indicates a builder rendered without a fragment
	// its kind requires.
	ErrEmptyRequiredFragment = errors.New("empty required fragment")

	// ErrInvalidFieldName indicates a resolved path segment the engine cannot
	// address (empty, quoted, whitespace or control characters).
	ErrInvalidFieldName = errors.New("invalid field name")

	// ErrInvalidRawJSON indicates a raw fragment that is not well-formed JSON
	// once its placeholder quotes are resolved.
	ErrInvalidRawJSON = errors.New("invalid raw json")

	// ErrInvalidLiteral indicates a value with no JSON representation (NaN, ±Inf).
	ErrInvalidLiteral = errors.New("invalid literal")
)

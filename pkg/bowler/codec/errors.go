package codec

import "errors"

// Sentinel errors for the typed value codec. Wrapped with
// fmt.Errorf("%w: ...") at the call site so errors.Is still matches, the
// same convention internal/qmp and internal/ron use for their own
// lower-level errors.
var (
	ErrUnknownTypeCode   = errors.New("codec: unknown type code")
	ErrTruncatedInput    = errors.New("codec: truncated input")
	ErrValueOutOfRange   = errors.New("codec: value out of range")
	ErrInsufficientSpace = errors.New("codec: insufficient space in buffer")
	ErrInvalidEncoding   = errors.New("codec: invalid string encoding")
	ErrWrongGoType       = errors.New("codec: value has wrong Go type for this TypedValue")
)

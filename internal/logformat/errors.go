package logformat

import "errors"

// Sentinel errors covering every directive-failure kind.
// ParseLine wraps most of these with the offending directive via
// fmt.Errorf("%w", ...); callers that need to distinguish failure kinds
// should use errors.Is against these values.
var (
	// ErrTokenMissing corresponds to TOKN_NUL: the directive had no token to
	// consume (its delimiter does not occur in the rest of the line).
	ErrTokenMissing = errors.New("logformat: missing token")

	// ErrTokenInvalid corresponds to TOKN_INV: a token was present but
	// rejected by its field extractor (bad IP, bad protocol, bad status).
	ErrTokenInvalid = errors.New("logformat: invalid token")

	// ErrBraceMismatch corresponds to SFMT_MIS: a "%{...}" directive's
	// braces were malformed.
	ErrBraceMismatch = errors.New("logformat: malformed brace directive")

	// ErrLineExhausted corresponds to LINE_INV: the input line ran out
	// before the format string did.
	ErrLineExhausted = errors.New("logformat: line exhausted before format")
)

package internalerr

import "errors"

// Sentinel errors for common cases
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrInvalidConfig    = errors.New("invalid configuration")
	ErrMalformedLine    = errors.New("malformed input line")
	ErrStoreUnavailable = errors.New("store unavailable")
)

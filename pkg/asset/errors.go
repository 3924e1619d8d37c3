package asset

import "errors"

// Error kinds returned by document load/save operations. Every failure
// wraps one of these, so callers can classify with errors.Is while the
// message carries the offending id or offset.
var (
	ErrParse           = errors.New("manifest parse error")
	ErrInvalidDocument = errors.New("invalid document")
	ErrMissingSection  = errors.New("missing section")
	ErrMissingObject   = errors.New("missing object")
	ErrDuplicateID     = errors.New("duplicate id")
	ErrMalformedObject = errors.New("malformed object")
	ErrNotFound        = errors.New("not found")
	ErrIO              = errors.New("io failure")
	ErrSerialize       = errors.New("serialization failure")
)

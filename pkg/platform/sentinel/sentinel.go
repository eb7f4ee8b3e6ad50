package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can tell "the record does not exist" apart from
// "the store could not be asked".
//
//   - ErrNotFound: entity does not exist in store
//   - ErrConflict: entity already exists (append-only stores)
//   - ErrUnavailable: backing store unreachable or timed out
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)

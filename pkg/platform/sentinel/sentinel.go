package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into coded domain errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: no current row for the requested key
// - ErrConflict: optimistic row-version mismatch
// - ErrNoRowsAffected: a mutation executed but changed nothing
//
// For validation errors (bad input, missing fields), use pkg/domain-errors.
var (
	ErrNotFound       = errors.New("not found")
	ErrConflict       = errors.New("conflict")
	ErrNoRowsAffected = errors.New("no rows affected")
)

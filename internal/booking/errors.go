package booking

import "errors"

// Recoverable scheduling failures. Each maps to a result code at the
// executor boundary; none should escape past it as a raw error.
var (
	// ErrParseFailure marks a date/time literal the resolver could not
	// interpret. Surfaced as a request for clarification.
	ErrParseFailure = errors.New("booking: could not parse date/time")

	// ErrMissingField marks one or more absent required fields.
	ErrMissingField = errors.New("booking: missing required field")

	// ErrConflict marks a requested chain with no free technician. It is
	// accompanied by alternative slots and is never fatal.
	ErrConflict = errors.New("booking: requested time conflicts")

	// ErrNoAvailability marks a service with no qualified technician at
	// all, or a scan that found no free slot anywhere.
	ErrNoAvailability = errors.New("booking: no availability")

	// ErrBackendUnavailable wraps network failures and 5xx responses from
	// the backend service. Retryable next turn, never silently dropped.
	ErrBackendUnavailable = errors.New("booking: backend unavailable")

	// ErrNotReady marks an action whose preconditions are unmet.
	ErrNotReady = errors.New("booking: not ready")
)

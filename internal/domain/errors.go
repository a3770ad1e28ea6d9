package domain

import "errors"

// Error taxonomy. Callers classify with errors.Is; the HTTP layer maps each
// sentinel to a status code.
var (
	// ErrInvalidInput marks client-supplied physical parameters that fail
	// validation. Always recoverable.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound marks a lookup or delete on an unknown scenario id.
	ErrNotFound = errors.New("scenario not found")

	// ErrUpstreamUnavailable marks transport failures, timeouts, and error
	// statuses from the external feed.
	ErrUpstreamUnavailable = errors.New("upstream feed unavailable")

	// ErrUpstreamMalformed marks responses from the external feed that
	// cannot be decoded.
	ErrUpstreamMalformed = errors.New("upstream feed returned malformed data")

	// ErrStorage marks durable-write or read failures. Fatal for the
	// request; a partially written record is never left visible.
	ErrStorage = errors.New("storage failure")
)

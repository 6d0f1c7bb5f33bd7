package explorer

import "errors"

// Error taxonomy for the explorer. Handlers map these onto HTTP status
// codes; anything not wrapped in one of them is an execution failure that
// gets logged in full server-side and surfaced as a generic message.
var (
	// ErrUnavailable means there is no usable store connection.
	ErrUnavailable = errors.New("database unavailable")
	// ErrNotFound means the requested table is absent from introspection.
	ErrNotFound = errors.New("table not found")
	// ErrInvalidRequest means the request carried a malformed identifier or
	// an unusable value, such as a non-numeric primary-key anchor for a
	// numeric key.
	ErrInvalidRequest = errors.New("invalid request")
)

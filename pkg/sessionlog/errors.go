package sessionlog

import "errors"

var (
	// ErrNotFound indicates the session file does not exist. Higher
	// layers map this to "no session".
	ErrNotFound = errors.New("session file not found")

	// ErrCorrupted indicates a record could not be parsed.
	ErrCorrupted = errors.New("session record corrupted")

	// ErrInvalidID indicates a malformed session id was passed to a
	// filename codec.
	ErrInvalidID = errors.New("invalid session id")
)

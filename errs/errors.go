// Package errs defines sentinel errors shared across the bsonkit packages.
//
// Callers should match errors with errors.Is; call sites add context by
// wrapping the sentinel with fmt.Errorf("%w: ...").
package errs

import "errors"

var (
	// ErrInvalidKeyName indicates a document key rejected by key checking,
	// such as a key starting with '$' or containing '.'.
	ErrInvalidKeyName = errors.New("invalid key name")

	// ErrInvalidStringEncoding indicates a string that is not valid UTF-8.
	ErrInvalidStringEncoding = errors.New("string not valid UTF-8")

	// ErrInvalidDocument indicates a document that cannot be serialized:
	// an unsupported value type, a NUL byte in a key or regex component,
	// or an encoded size above the configured maximum.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidObjectID indicates a malformed ObjectId string.
	ErrInvalidObjectID = errors.New("invalid ObjectId")

	// ErrUnknownType indicates an unrecognized BSON type tag during decoding.
	ErrUnknownType = errors.New("unknown BSON type")

	// ErrOutOfRange indicates an integer outside the 64-bit signed range.
	ErrOutOfRange = errors.New("integer out of range")

	// ErrOutOfMemory indicates a buffer operation that could not be satisfied.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrCorruptDocument indicates a truncated or inconsistent BSON frame.
	ErrCorruptDocument = errors.New("corrupt document")

	// ErrDocumentTooDeep indicates document nesting beyond the supported depth.
	ErrDocumentTooDeep = errors.New("document exceeds maximum nesting depth")
)

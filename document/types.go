package document

import "github.com/arloliu/bsonkit/format"

// Array is an ordered sequence of BSON-representable values. On the wire it
// is a document whose keys are the decimal indices "0", "1", ...; the keys
// are reconstructed on encode and discarded on decode.
type Array []any

// Binary is a BSON binary value: a payload classified by a one-byte subtype.
// Subtype 0x02 is the legacy form carrying an extra inner length prefix.
type Binary struct {
	Subtype format.Subtype
	Data    []byte
}

// Regex is an uncompiled BSON regular expression: a pattern plus a flag
// string drawn from "ilmsux". The encoder deduplicates and sorts the flags;
// the decoder returns this wrapper when regex compilation is disabled or
// the pattern has no host equivalent.
type Regex struct {
	Pattern string
	Options string
}

// DBRef is a database reference. It is encoded as the embedded document
// {"$ref": Collection, "$id": ID} and synthesized back from such documents
// (and from the deprecated DBPointer element) on decode.
type DBRef struct {
	Collection string
	ID         any
}

// Code is JavaScript code with an optional scope document. A nil Scope
// encodes as a plain code element; a non-nil Scope encodes as
// code-with-scope.
type Code struct {
	Code  string
	Scope *Document
}

// Symbol is the deprecated BSON symbol type. It shares the string wire
// layout but keeps its own tag through a round trip.
type Symbol string

// Timestamp is the internal MongoDB timestamp type. On the wire the
// increment is written before the seconds, each as a little-endian int32.
type Timestamp struct {
	Seconds   uint32
	Increment uint32
}

// MinKey sorts before all other BSON values.
type MinKey struct{}

// MaxKey sorts after all other BSON values.
type MaxKey struct{}

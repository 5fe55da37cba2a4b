// Package bsonkit provides a bidirectional codec between an insertion-ordered
// document model and the BSON wire format.
//
// # Core Features
//
//   - Encoder with key checking, _id promotion, and a configurable document
//     size cap
//   - Bounds-checked decoder that preserves element order
//   - The full BSON type set, including the deprecated decode-only elements
//   - 12-byte ObjectId generation with time, machine, pid, and counter fields
//   - Pooled frame buffers and xxHash64-based key interning
//
// # Basic Usage
//
// Encoding a document:
//
//	import (
//	    "github.com/arloliu/bsonkit"
//	    "github.com/arloliu/bsonkit/codec"
//	    "github.com/arloliu/bsonkit/document"
//	    "github.com/arloliu/bsonkit/oid"
//	)
//
//	doc := document.New().
//	    Set("_id", oid.New()).
//	    Set("hello", "world").
//	    Set("n", 42)
//	data, err := bsonkit.Serialize(doc, codec.WithMoveID(true))
//
// Decoding it back:
//
//	decoded, err := bsonkit.Deserialize(data)
//	for _, key := range decoded.Keys() {
//	    value, _ := decoded.Get(key)
//	    fmt.Printf("%s=%v\n", key, value)
//	}
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the codec
// package, simplifying the most common use cases. For fine-grained control
// over encoder and decoder construction, use the codec package directly.
package bsonkit

import (
	"sync/atomic"

	"github.com/arloliu/bsonkit/codec"
	"github.com/arloliu/bsonkit/document"
	"github.com/arloliu/bsonkit/format"
)

// MaxSizeReporter is the surface the facade needs from a database
// connection to learn the server's document size cap.
type MaxSizeReporter interface {
	MaxBSONSize() int32
}

// maxDocumentSize is the process-wide document size cap. It is advisory to
// Serialize callers: the encoder itself enforces whatever per-call cap it
// was built with, and Serialize seeds that cap from this value.
var maxDocumentSize atomic.Int32

func init() {
	maxDocumentSize.Store(format.DefaultMaxDocumentSize)
}

// Serialize encodes doc into a BSON frame. The process-wide document size
// cap is applied by default; pass codec options (codec.WithCheckKeys,
// codec.WithMoveID, codec.WithMaxDocumentSize) to override per call.
//
// Example:
//
//	data, err := bsonkit.Serialize(doc, codec.WithCheckKeys(true))
func Serialize(doc *document.Document, opts ...codec.EncoderOption) ([]byte, error) {
	allOpts := make([]codec.EncoderOption, 0, len(opts)+1)
	allOpts = append(allOpts, codec.WithMaxDocumentSize(MaxDocumentSize()))
	allOpts = append(allOpts, opts...)

	enc, err := codec.NewEncoder(allOpts...)
	if err != nil {
		return nil, err
	}

	return enc.Encode(doc)
}

// Deserialize decodes a BSON frame into an ordered document.
//
// Regex elements are compiled through the host regexp engine by default;
// pass codec.WithCompileRegex(false) to receive raw pattern/flags wrappers
// instead.
func Deserialize(data []byte, opts ...codec.DecoderOption) (*document.Document, error) {
	dec, err := codec.NewDecoder(data, opts...)
	if err != nil {
		return nil, err
	}

	return dec.Decode()
}

// MaxDocumentSize returns the process-wide document size cap. The initial
// value is format.DefaultMaxDocumentSize (4 MiB).
func MaxDocumentSize() int32 {
	return maxDocumentSize.Load()
}

// UpdateMaxDocumentSize pulls the document size cap from conn and publishes
// it process-wide, returning the new value. Publication is a single atomic
// word; concurrent Serialize calls observe either the old or the new cap,
// never a torn value.
func UpdateMaxDocumentSize(conn MaxSizeReporter) int32 {
	size := conn.MaxBSONSize()
	maxDocumentSize.Store(size)

	return size
}

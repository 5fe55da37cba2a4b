// Package codec implements the BSON wire codec: an Encoder that walks an
// ordered document tree and emits the length-prefixed binary frame, and a
// Decoder that materializes the document back from bytes.
//
// Both directions operate over the closed value set defined by the document
// and oid packages plus the native Go scalars (bool, string, integers,
// floats, time.Time and nil). The Encoder validates UTF-8 and key rules and
// enforces the configured document size cap; the Decoder bounds-checks every
// read against the reported frame length and never mutates its input.
package codec

// Package format defines the BSON wire-level constants: element type tags,
// binary subtypes, and document framing limits.
package format

// Type is the one-byte element type tag that precedes every document element.
type Type byte

const (
	TypeDouble     Type = 0x01 // 64-bit IEEE-754, little-endian
	TypeString     Type = 0x02 // int32 length (incl. trailing NUL), UTF-8 bytes, NUL
	TypeDocument   Type = 0x03 // embedded document
	TypeArray      Type = 0x04 // document with decimal-string keys "0", "1", ...
	TypeBinary     Type = 0x05 // int32 length, subtype byte, payload
	TypeUndefined  Type = 0x06 // deprecated, decode only
	TypeObjectID   Type = 0x07 // 12 raw bytes
	TypeBool       Type = 0x08 // single byte, 0x00 or 0x01
	TypeDateTime   Type = 0x09 // int64 milliseconds since Unix epoch
	TypeNull       Type = 0x0A
	TypeRegex      Type = 0x0B // pattern cstring, sorted flags cstring
	TypeDBPointer  Type = 0x0C // deprecated, decode only
	TypeJavaScript Type = 0x0D // string
	TypeSymbol     Type = 0x0E // string
	TypeCodeScope  Type = 0x0F // int32 total, code string, scope document
	TypeInt32      Type = 0x10 // little-endian
	TypeTimestamp  Type = 0x11 // int32 increment, then int32 seconds
	TypeInt64      Type = 0x12 // little-endian
	TypeMaxKey     Type = 0x7F
	TypeMinKey     Type = 0xFF
)

// Subtype is the one-byte classifier inside a binary element.
type Subtype byte

const (
	SubtypeGeneric     Subtype = 0x00
	SubtypeFunction    Subtype = 0x01
	SubtypeBinaryOld   Subtype = 0x02 // legacy form with an extra inner length prefix
	SubtypeUUIDOld     Subtype = 0x03
	SubtypeUUID        Subtype = 0x04
	SubtypeMD5         Subtype = 0x05
	SubtypeUserDefined Subtype = 0x80
)

const (
	// DefaultMaxDocumentSize is the initial process-wide document size cap (4 MiB).
	DefaultMaxDocumentSize = 4 * 1024 * 1024

	// MinDocumentSize is the size of the smallest legal document:
	// an int32 length prefix followed by the terminating NUL.
	MinDocumentSize = 5

	// MaxDepth is the soft cap on document/array nesting.
	MaxDepth = 1000
)

func (t Type) String() string {
	switch t {
	case TypeDouble:
		return "Double"
	case TypeString:
		return "String"
	case TypeDocument:
		return "Document"
	case TypeArray:
		return "Array"
	case TypeBinary:
		return "Binary"
	case TypeUndefined:
		return "Undefined"
	case TypeObjectID:
		return "ObjectID"
	case TypeBool:
		return "Bool"
	case TypeDateTime:
		return "DateTime"
	case TypeNull:
		return "Null"
	case TypeRegex:
		return "Regex"
	case TypeDBPointer:
		return "DBPointer"
	case TypeJavaScript:
		return "JavaScript"
	case TypeSymbol:
		return "Symbol"
	case TypeCodeScope:
		return "CodeWithScope"
	case TypeInt32:
		return "Int32"
	case TypeTimestamp:
		return "Timestamp"
	case TypeInt64:
		return "Int64"
	case TypeMaxKey:
		return "MaxKey"
	case TypeMinKey:
		return "MinKey"
	default:
		return "Unknown"
	}
}

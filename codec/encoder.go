package codec

import (
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/bsonkit/document"
	"github.com/arloliu/bsonkit/errs"
	"github.com/arloliu/bsonkit/format"
	"github.com/arloliu/bsonkit/internal/options"
	"github.com/arloliu/bsonkit/internal/pool"
	"github.com/arloliu/bsonkit/internal/text"
	"github.com/arloliu/bsonkit/oid"
)

// regexFlags is the full set of wire regex flags, already in the
// lexicographic order the encoder must emit.
const regexFlags = "ilmsux"

// Encoder serializes ordered documents into BSON frames.
//
// An Encoder is stateless between calls and safe to reuse; a fresh frame
// buffer is taken from the pool for each Encode call and returned on every
// exit path.
type Encoder struct {
	checkKeys bool
	moveID    bool
	maxSize   int32
}

// NewEncoder creates an Encoder. Defaults: key checking off, _id promotion
// off, max document size format.DefaultMaxDocumentSize.
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	enc := &Encoder{maxSize: format.DefaultMaxDocumentSize}
	if err := options.Apply(enc, opts...); err != nil {
		return nil, err
	}

	return enc, nil
}

// Encode serializes doc and returns the frame bytes. On any error no bytes
// are returned and the internal buffer is released.
func (e *Encoder) Encode(doc *document.Document) ([]byte, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", errs.ErrInvalidDocument)
	}

	fb := pool.GetFrameBuffer()
	defer pool.PutFrameBuffer(fb)

	fb.SetMaxSize(e.maxSize)

	if err := e.writeDocument(fb, doc, e.checkKeys, e.moveID, 0); err != nil {
		return nil, err
	}

	return fb.Take(), nil
}

// writeDocument emits one document frame: reserved length slot, elements,
// trailing NUL, then the patched length. The size cap is asserted after the
// trailing NUL and before the patch, so an oversized document never yields
// a finalized frame.
func (e *Encoder) writeDocument(fb *pool.FrameBuffer, doc *document.Document, checkKeys, moveID bool, depth int) error {
	if depth > format.MaxDepth {
		return fmt.Errorf("%w: more than %d levels", errs.ErrDocumentTooDeep, format.MaxDepth)
	}

	start := fb.Len()
	lenPos := fb.Reserve(4)

	if moveID && doc.Has("_id") {
		id, _ := doc.Get("_id")
		if err := e.writeElement(fb, "_id", id, checkKeys, depth); err != nil {
			return err
		}
		for _, key := range doc.Keys() {
			if key == "_id" {
				continue
			}
			value, _ := doc.Get(key)
			if err := e.writeElement(fb, key, value, checkKeys, depth); err != nil {
				return err
			}
		}
	} else {
		for _, key := range doc.Keys() {
			value, _ := doc.Get(key)
			if err := e.writeElement(fb, key, value, checkKeys, depth); err != nil {
				return err
			}
		}
	}

	fb.Append(0)

	length := fb.Len() - start
	if max := fb.MaxSize(); max > 0 && length > int(max) {
		return fmt.Errorf("%w: document of %d bytes exceeds the %d byte limit", errs.ErrInvalidDocument, length, max)
	}

	return fb.PatchUint32(lenPos, uint32(length)) //nolint:gosec
}

// writeKey validates key and emits the element prelude: type tag plus the
// key cstring.
func (e *Encoder) writeKey(fb *pool.FrameBuffer, tag format.Type, key string, checkKeys bool) error {
	if checkKeys {
		if strings.HasPrefix(key, "$") {
			return fmt.Errorf("%w: key %q must not start with '$'", errs.ErrInvalidKeyName, key)
		}
		if strings.Contains(key, ".") {
			return fmt.Errorf("%w: key %q must not contain '.'", errs.ErrInvalidKeyName, key)
		}
	}

	switch text.ValidateString(key, false) {
	case text.HasNull:
		return fmt.Errorf("%w: key names must not contain the NUL byte", errs.ErrInvalidDocument)
	case text.InvalidUTF8:
		return fmt.Errorf("%w: key %q", errs.ErrInvalidStringEncoding, key)
	}

	fb.Append(byte(tag))
	fb.AppendString(key)
	fb.Append(0)

	return nil
}

// writeElement dispatches on the runtime type of value. The accepted set is
// closed: anything outside it fails with errs.ErrInvalidDocument.
func (e *Encoder) writeElement(fb *pool.FrameBuffer, key string, value any, checkKeys bool, depth int) error {
	switch v := value.(type) {
	case nil:
		return e.writeKey(fb, format.TypeNull, key, checkKeys)

	case float64:
		if err := e.writeKey(fb, format.TypeDouble, key, checkKeys); err != nil {
			return err
		}
		fb.AppendUint64(math.Float64bits(v))
	case float32:
		if err := e.writeKey(fb, format.TypeDouble, key, checkKeys); err != nil {
			return err
		}
		fb.AppendUint64(math.Float64bits(float64(v)))

	case string:
		if err := e.writeKey(fb, format.TypeString, key, checkKeys); err != nil {
			return err
		}

		return e.writeString(fb, v, true)

	case *document.Document:
		if err := e.writeKey(fb, format.TypeDocument, key, checkKeys); err != nil {
			return err
		}

		return e.writeDocument(fb, v, checkKeys, false, depth+1)

	case document.Array:
		return e.writeArray(fb, key, v, checkKeys, depth)

	case document.Binary:
		return e.writeBinary(fb, key, v, checkKeys)
	case []byte:
		return e.writeBinary(fb, key, document.Binary{Subtype: format.SubtypeGeneric, Data: v}, checkKeys)

	case oid.ID:
		if err := e.writeKey(fb, format.TypeObjectID, key, checkKeys); err != nil {
			return err
		}
		fb.Append(v[:]...)

	case bool:
		if err := e.writeKey(fb, format.TypeBool, key, checkKeys); err != nil {
			return err
		}
		if v {
			fb.Append(1)
		} else {
			fb.Append(0)
		}

	case time.Time:
		if err := e.writeKey(fb, format.TypeDateTime, key, checkKeys); err != nil {
			return err
		}
		fb.AppendUint64(uint64(epochMillis(v))) //nolint:gosec

	case document.Regex:
		return e.writeRegex(fb, key, v.Pattern, normalizeRegexFlags(v.Options), checkKeys)
	case *regexp.Regexp:
		// A native regexp carries the implicit multiline flag only.
		return e.writeRegex(fb, key, v.String(), "m", checkKeys)

	case document.DBRef:
		// The reference subdocument owns its dollar-prefixed keys, so key
		// checking is forced off for it.
		ref := document.NewWithCapacity(2).Set("$ref", v.Collection).Set("$id", v.ID)
		if err := e.writeKey(fb, format.TypeDocument, key, checkKeys); err != nil {
			return err
		}

		return e.writeDocument(fb, ref, false, false, depth+1)

	case document.Code:
		return e.writeCode(fb, key, v, checkKeys, depth)

	case document.Symbol:
		if err := e.writeKey(fb, format.TypeSymbol, key, checkKeys); err != nil {
			return err
		}

		return e.writeString(fb, string(v), false)

	case int:
		return e.writeInt(fb, key, int64(v), checkKeys)
	case int8:
		return e.writeInt32(fb, key, int32(v), checkKeys)
	case int16:
		return e.writeInt32(fb, key, int32(v), checkKeys)
	case int32:
		return e.writeInt32(fb, key, v, checkKeys)
	case int64:
		return e.writeInt(fb, key, v, checkKeys)
	case uint8:
		return e.writeInt32(fb, key, int32(v), checkKeys)
	case uint16:
		return e.writeInt32(fb, key, int32(v), checkKeys)
	case uint32:
		return e.writeInt(fb, key, int64(v), checkKeys)
	case uint:
		if uint64(v) > math.MaxInt64 {
			return fmt.Errorf("%w: %d does not fit in 8 bytes", errs.ErrOutOfRange, v)
		}

		return e.writeInt(fb, key, int64(v), checkKeys)
	case uint64:
		if v > math.MaxInt64 {
			return fmt.Errorf("%w: %d does not fit in 8 bytes", errs.ErrOutOfRange, v)
		}

		return e.writeInt(fb, key, int64(v), checkKeys)

	case document.Timestamp:
		if err := e.writeKey(fb, format.TypeTimestamp, key, checkKeys); err != nil {
			return err
		}
		fb.AppendUint32(v.Increment)
		fb.AppendUint32(v.Seconds)

	case document.MinKey:
		return e.writeKey(fb, format.TypeMinKey, key, checkKeys)
	case document.MaxKey:
		return e.writeKey(fb, format.TypeMaxKey, key, checkKeys)

	case big.Int, *big.Int, big.Rat, *big.Rat, big.Float, *big.Float:
		return fmt.Errorf("%w: cannot serialize the arbitrary-precision type %T; only fixed-size integers and floats are supported",
			errs.ErrInvalidDocument, value)
	case complex64, complex128:
		return fmt.Errorf("%w: cannot serialize the complex type %T", errs.ErrInvalidDocument, value)

	default:
		return fmt.Errorf("%w: cannot serialize a value of type %T", errs.ErrInvalidDocument, value)
	}

	return nil
}

// writeString emits the string wire layout: int32 length including the
// trailing NUL, UTF-8 bytes, NUL. Embedded NULs are permitted only when
// allowNull is set (string values, not symbols or code).
func (e *Encoder) writeString(fb *pool.FrameBuffer, s string, allowNull bool) error {
	switch text.ValidateString(s, allowNull) {
	case text.HasNull:
		return fmt.Errorf("%w: string must not contain the NUL byte", errs.ErrInvalidDocument)
	case text.InvalidUTF8:
		return fmt.Errorf("%w: invalid byte sequence", errs.ErrInvalidStringEncoding)
	}

	fb.AppendUint32(uint32(len(s) + 1)) //nolint:gosec
	fb.AppendString(s)
	fb.Append(0)

	return nil
}

// writeCString emits NUL-terminated bytes for regex components, which may
// contain neither NULs nor invalid UTF-8.
func (e *Encoder) writeCString(fb *pool.FrameBuffer, s string) error {
	switch text.ValidateString(s, false) {
	case text.HasNull:
		return fmt.Errorf("%w: regex patterns must not contain the NUL byte", errs.ErrInvalidDocument)
	case text.InvalidUTF8:
		return fmt.Errorf("%w: invalid byte sequence", errs.ErrInvalidStringEncoding)
	}

	fb.AppendString(s)
	fb.Append(0)

	return nil
}

func (e *Encoder) writeArray(fb *pool.FrameBuffer, key string, arr document.Array, checkKeys bool, depth int) error {
	if depth+1 > format.MaxDepth {
		return fmt.Errorf("%w: more than %d levels", errs.ErrDocumentTooDeep, format.MaxDepth)
	}

	if err := e.writeKey(fb, format.TypeArray, key, checkKeys); err != nil {
		return err
	}

	start := fb.Len()
	lenPos := fb.Reserve(4)

	for i, item := range arr {
		if err := e.writeElement(fb, strconv.Itoa(i), item, checkKeys, depth+1); err != nil {
			return err
		}
	}

	fb.Append(0)

	return fb.PatchUint32(lenPos, uint32(fb.Len()-start)) //nolint:gosec
}

func (e *Encoder) writeBinary(fb *pool.FrameBuffer, key string, bin document.Binary, checkKeys bool) error {
	if err := e.writeKey(fb, format.TypeBinary, key, checkKeys); err != nil {
		return err
	}

	length := len(bin.Data)
	if bin.Subtype == format.SubtypeBinaryOld {
		// Legacy form: the outer length covers the extra inner prefix.
		fb.AppendUint32(uint32(length + 4)) //nolint:gosec
		fb.Append(byte(bin.Subtype))
		fb.AppendUint32(uint32(length)) //nolint:gosec
	} else {
		fb.AppendUint32(uint32(length)) //nolint:gosec
		fb.Append(byte(bin.Subtype))
	}
	fb.Append(bin.Data...)

	return nil
}

func (e *Encoder) writeRegex(fb *pool.FrameBuffer, key, pattern, flags string, checkKeys bool) error {
	if err := e.writeKey(fb, format.TypeRegex, key, checkKeys); err != nil {
		return err
	}

	if err := e.writeCString(fb, pattern); err != nil {
		return err
	}

	return e.writeCString(fb, flags)
}

func (e *Encoder) writeCode(fb *pool.FrameBuffer, key string, code document.Code, checkKeys bool, depth int) error {
	if code.Scope == nil {
		if err := e.writeKey(fb, format.TypeJavaScript, key, checkKeys); err != nil {
			return err
		}

		return e.writeString(fb, code.Code, false)
	}

	if err := e.writeKey(fb, format.TypeCodeScope, key, checkKeys); err != nil {
		return err
	}

	// The total length spans its own prefix, the code string, and the
	// embedded scope document.
	start := fb.Len()
	lenPos := fb.Reserve(4)

	if err := e.writeString(fb, code.Code, false); err != nil {
		return err
	}
	if err := e.writeDocument(fb, code.Scope, false, false, depth+1); err != nil {
		return err
	}

	return fb.PatchUint32(lenPos, uint32(fb.Len()-start)) //nolint:gosec
}

// writeInt applies the size selection rule: int32 iff the value fits,
// int64 otherwise.
func (e *Encoder) writeInt(fb *pool.FrameBuffer, key string, v int64, checkKeys bool) error {
	if v >= math.MinInt32 && v <= math.MaxInt32 {
		return e.writeInt32(fb, key, int32(v), checkKeys)
	}

	if err := e.writeKey(fb, format.TypeInt64, key, checkKeys); err != nil {
		return err
	}
	fb.AppendUint64(uint64(v)) //nolint:gosec

	return nil
}

func (e *Encoder) writeInt32(fb *pool.FrameBuffer, key string, v int32, checkKeys bool) error {
	if err := e.writeKey(fb, format.TypeInt32, key, checkKeys); err != nil {
		return err
	}
	fb.AppendUint32(uint32(v)) //nolint:gosec

	return nil
}

// epochMillis converts t to milliseconds since the Unix epoch, rounding
// sub-millisecond precision instead of truncating it.
func epochMillis(t time.Time) int64 {
	ms := t.UnixMilli()
	if t.Nanosecond()%int(time.Millisecond) >= int(500*time.Microsecond) {
		ms++
	}

	return ms
}

// normalizeRegexFlags reduces raw to a deduplicated, lexicographically
// sorted flag string drawn from "ilmsux". Unknown characters are dropped.
func normalizeRegexFlags(raw string) string {
	var out []byte
	for i := 0; i < len(regexFlags); i++ {
		if strings.IndexByte(raw, regexFlags[i]) >= 0 {
			out = append(out, regexFlags[i])
		}
	}

	return string(out)
}

package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"github.com/arloliu/bsonkit/document"
	"github.com/arloliu/bsonkit/errs"
	"github.com/arloliu/bsonkit/format"
	"github.com/arloliu/bsonkit/internal/intern"
	"github.com/arloliu/bsonkit/internal/options"
	"github.com/arloliu/bsonkit/oid"
)

// Decoder parses one BSON frame into an ordered document tree.
//
// The decoder never mutates its input and bounds-checks every read against
// the frame length reported by the leading int32; any read past the frame
// fails with errs.ErrCorruptDocument.
//
// Note: the Decoder is NOT thread-safe. Each instance decodes for a single
// goroutine at a time.
type Decoder struct {
	data         []byte
	compileRegex bool
	keys         *intern.Table
}

// NewDecoder creates a Decoder over data. The frame envelope is validated
// up front: at least 5 bytes, a leading length equal to len(data), and a
// trailing NUL. Element-level validation happens during Decode.
func NewDecoder(data []byte, opts ...DecoderOption) (*Decoder, error) {
	d := &Decoder{data: data, compileRegex: true}
	if err := options.Apply(d, opts...); err != nil {
		return nil, err
	}

	if len(data) < format.MinDocumentSize {
		return nil, fmt.Errorf("%w: %d bytes is below the minimum frame size", errs.ErrCorruptDocument, len(data))
	}

	total := int(int32(binary.LittleEndian.Uint32(data))) //nolint:gosec
	if total != len(data) {
		return nil, fmt.Errorf("%w: frame length %d does not match input length %d", errs.ErrCorruptDocument, total, len(data))
	}
	if data[len(data)-1] != 0 {
		return nil, fmt.Errorf("%w: missing document terminator", errs.ErrCorruptDocument)
	}

	return d, nil
}

// Decode materializes the document. Each call allocates a fresh tree; the
// input bytes are shared only for the duration of the call.
func (d *Decoder) Decode() (*document.Document, error) {
	d.keys = intern.NewTable()

	doc, next, err := d.readDocument(0, len(d.data), 0)
	if err != nil {
		return nil, err
	}
	if next != len(d.data) {
		return nil, fmt.Errorf("%w: %d trailing bytes after document", errs.ErrCorruptDocument, len(d.data)-next)
	}

	switch v := doc.(type) {
	case *document.Document:
		return v, nil
	case document.DBRef:
		// A top-level reference document is still a document to the caller.
		return document.NewWithCapacity(2).Set("$ref", v.Collection).Set("$id", v.ID), nil
	default:
		return nil, fmt.Errorf("%w: unexpected top-level value", errs.ErrCorruptDocument)
	}
}

// readFrame validates the embedded frame starting at pos against the
// enclosing limit and returns the element region and the frame end.
func (d *Decoder) readFrame(pos, limit int) (elemStart, elemEnd, frameEnd int, err error) {
	if pos+4 > limit {
		return 0, 0, 0, fmt.Errorf("%w: truncated frame length", errs.ErrCorruptDocument)
	}

	size := int(int32(binary.LittleEndian.Uint32(d.data[pos:]))) //nolint:gosec
	if size < format.MinDocumentSize || pos+size > limit {
		return 0, 0, 0, fmt.Errorf("%w: frame of %d bytes does not fit enclosing frame", errs.ErrCorruptDocument, size)
	}

	frameEnd = pos + size
	if d.data[frameEnd-1] != 0 {
		return 0, 0, 0, fmt.Errorf("%w: missing document terminator", errs.ErrCorruptDocument)
	}

	return pos + 4, frameEnd - 1, frameEnd, nil
}

// readDocument parses the document frame at pos. Embedded documents whose
// first element is "$ref" with a string value and which carry an "$id"
// element are synthesized into a DBRef instead of a plain document.
func (d *Decoder) readDocument(pos, limit, depth int) (any, int, error) {
	if depth > format.MaxDepth {
		return nil, 0, fmt.Errorf("%w: more than %d levels", errs.ErrDocumentTooDeep, format.MaxDepth)
	}

	cur, elemEnd, frameEnd, err := d.readFrame(pos, limit)
	if err != nil {
		return nil, 0, err
	}

	doc := document.New()
	for cur < elemEnd {
		tag := format.Type(d.data[cur])
		cur++

		key, next, err := d.readCString(cur, elemEnd)
		if err != nil {
			return nil, 0, err
		}

		value, next, err := d.readValue(next, elemEnd, tag, depth)
		if err != nil {
			return nil, 0, err
		}

		doc.Set(key, value)
		cur = next
	}

	if keys := doc.Keys(); depth > 0 && len(keys) > 0 && keys[0] == "$ref" && doc.Has("$id") {
		if collection, ok := mustGet(doc, "$ref").(string); ok {
			return document.DBRef{Collection: collection, ID: mustGet(doc, "$id")}, frameEnd, nil
		}
	}

	return doc, frameEnd, nil
}

// readArray parses an array frame, discarding the decimal-string keys.
func (d *Decoder) readArray(pos, limit, depth int) (document.Array, int, error) {
	if depth > format.MaxDepth {
		return nil, 0, fmt.Errorf("%w: more than %d levels", errs.ErrDocumentTooDeep, format.MaxDepth)
	}

	cur, elemEnd, frameEnd, err := d.readFrame(pos, limit)
	if err != nil {
		return nil, 0, err
	}

	arr := make(document.Array, 0, 4)
	for cur < elemEnd {
		tag := format.Type(d.data[cur])
		cur++

		// Keys are the indices in encounter order; skip them.
		_, next, err := d.readCString(cur, elemEnd)
		if err != nil {
			return nil, 0, err
		}

		value, next, err := d.readValue(next, elemEnd, tag, depth)
		if err != nil {
			return nil, 0, err
		}

		arr = append(arr, value)
		cur = next
	}

	return arr, frameEnd, nil
}

// readValue dispatches on tag and returns the decoded value plus the
// position just past it.
func (d *Decoder) readValue(pos, limit int, tag format.Type, depth int) (any, int, error) {
	switch tag {
	case format.TypeDouble:
		bits, next, err := d.readUint64(pos, limit)
		if err != nil {
			return nil, 0, err
		}

		return math.Float64frombits(bits), next, nil

	case format.TypeString:
		return d.readString(pos, limit)

	case format.TypeDocument:
		return d.readDocument(pos, limit, depth+1)

	case format.TypeArray:
		return d.readArray(pos, limit, depth+1)

	case format.TypeBinary:
		return d.readBinary(pos, limit)

	case format.TypeUndefined:
		return nil, pos, nil

	case format.TypeObjectID:
		if pos+oid.RawLen > limit {
			return nil, 0, fmt.Errorf("%w: truncated ObjectId", errs.ErrCorruptDocument)
		}
		id, err := oid.FromBytes(d.data[pos : pos+oid.RawLen])
		if err != nil {
			return nil, 0, err
		}

		return id, pos + oid.RawLen, nil

	case format.TypeBool:
		if pos+1 > limit {
			return nil, 0, fmt.Errorf("%w: truncated boolean", errs.ErrCorruptDocument)
		}

		return d.data[pos] != 0, pos + 1, nil

	case format.TypeDateTime:
		millis, next, err := d.readUint64(pos, limit)
		if err != nil {
			return nil, 0, err
		}

		return time.UnixMilli(int64(millis)).UTC(), next, nil //nolint:gosec

	case format.TypeNull:
		return nil, pos, nil

	case format.TypeRegex:
		return d.readRegex(pos, limit)

	case format.TypeDBPointer:
		return d.readDBPointer(pos, limit)

	case format.TypeJavaScript:
		code, next, err := d.readString(pos, limit)
		if err != nil {
			return nil, 0, err
		}

		return document.Code{Code: code}, next, nil

	case format.TypeSymbol:
		s, next, err := d.readString(pos, limit)
		if err != nil {
			return nil, 0, err
		}

		return document.Symbol(s), next, nil

	case format.TypeCodeScope:
		return d.readCodeScope(pos, limit, depth)

	case format.TypeInt32:
		v, next, err := d.readUint32(pos, limit)
		if err != nil {
			return nil, 0, err
		}

		return int32(v), next, nil //nolint:gosec

	case format.TypeTimestamp:
		inc, next, err := d.readUint32(pos, limit)
		if err != nil {
			return nil, 0, err
		}
		sec, next, err := d.readUint32(next, limit)
		if err != nil {
			return nil, 0, err
		}

		return document.Timestamp{Seconds: sec, Increment: inc}, next, nil

	case format.TypeInt64:
		v, next, err := d.readUint64(pos, limit)
		if err != nil {
			return nil, 0, err
		}

		return int64(v), next, nil //nolint:gosec

	case format.TypeMinKey:
		return document.MinKey{}, pos, nil

	case format.TypeMaxKey:
		return document.MaxKey{}, pos, nil

	default:
		return nil, 0, fmt.Errorf("%w 0x%02x", errs.ErrUnknownType, byte(tag))
	}
}

func (d *Decoder) readUint32(pos, limit int) (uint32, int, error) {
	if pos+4 > limit {
		return 0, 0, fmt.Errorf("%w: truncated int32", errs.ErrCorruptDocument)
	}

	return binary.LittleEndian.Uint32(d.data[pos:]), pos + 4, nil
}

func (d *Decoder) readUint64(pos, limit int) (uint64, int, error) {
	if pos+8 > limit {
		return 0, 0, fmt.Errorf("%w: truncated int64", errs.ErrCorruptDocument)
	}

	return binary.LittleEndian.Uint64(d.data[pos:]), pos + 8, nil
}

// readCString scans for the terminating NUL within the element region and
// interns the result.
func (d *Decoder) readCString(pos, limit int) (string, int, error) {
	idx := bytes.IndexByte(d.data[pos:limit], 0)
	if idx < 0 {
		return "", 0, fmt.Errorf("%w: unterminated cstring", errs.ErrCorruptDocument)
	}

	return d.keys.Get(d.data[pos : pos+idx]), pos + idx + 1, nil
}

// readString reads the standard string layout: int32 length including the
// trailing NUL, bytes, NUL.
func (d *Decoder) readString(pos, limit int) (string, int, error) {
	length, next, err := d.readUint32(pos, limit)
	if err != nil {
		return "", 0, err
	}

	n := int(int32(length)) //nolint:gosec
	if n < 1 || next+n > limit {
		return "", 0, fmt.Errorf("%w: string length %d does not fit frame", errs.ErrCorruptDocument, n)
	}
	if d.data[next+n-1] != 0 {
		return "", 0, fmt.Errorf("%w: missing string terminator", errs.ErrCorruptDocument)
	}

	return string(d.data[next : next+n-1]), next + n, nil
}

func (d *Decoder) readBinary(pos, limit int) (document.Binary, int, error) {
	length, next, err := d.readUint32(pos, limit)
	if err != nil {
		return document.Binary{}, 0, err
	}

	n := int(int32(length)) //nolint:gosec
	if n < 0 || next+1+n > limit {
		return document.Binary{}, 0, fmt.Errorf("%w: binary length %d does not fit frame", errs.ErrCorruptDocument, n)
	}

	subtype := format.Subtype(d.data[next])
	next++

	payload := d.data[next : next+n]
	if subtype == format.SubtypeBinaryOld {
		// Legacy form: the payload carries its own inner length prefix.
		if n < 4 {
			return document.Binary{}, 0, fmt.Errorf("%w: legacy binary shorter than its inner length", errs.ErrCorruptDocument)
		}
		inner := int(int32(binary.LittleEndian.Uint32(payload))) //nolint:gosec
		if inner != n-4 {
			return document.Binary{}, 0, fmt.Errorf("%w: legacy binary inner length %d does not match %d", errs.ErrCorruptDocument, inner, n-4)
		}
		payload = payload[4:]
	}

	data := make([]byte, len(payload))
	copy(data, payload)

	return document.Binary{Subtype: subtype, Data: data}, next + n, nil
}

func (d *Decoder) readRegex(pos, limit int) (any, int, error) {
	pattern, next, err := d.readCString(pos, limit)
	if err != nil {
		return nil, 0, err
	}

	flags, next, err := d.readCString(next, limit)
	if err != nil {
		return nil, 0, err
	}

	if d.compileRegex {
		if re := tryCompileRegex(pattern, flags); re != nil {
			return re, next, nil
		}
	}

	return document.Regex{Pattern: pattern, Options: flags}, next, nil
}

func (d *Decoder) readDBPointer(pos, limit int) (document.DBRef, int, error) {
	collection, next, err := d.readString(pos, limit)
	if err != nil {
		return document.DBRef{}, 0, err
	}

	if next+oid.RawLen > limit {
		return document.DBRef{}, 0, fmt.Errorf("%w: truncated DBPointer", errs.ErrCorruptDocument)
	}
	id, err := oid.FromBytes(d.data[next : next+oid.RawLen])
	if err != nil {
		return document.DBRef{}, 0, err
	}

	return document.DBRef{Collection: collection, ID: id}, next + oid.RawLen, nil
}

func (d *Decoder) readCodeScope(pos, limit, depth int) (document.Code, int, error) {
	total, next, err := d.readUint32(pos, limit)
	if err != nil {
		return document.Code{}, 0, err
	}

	n := int(int32(total)) //nolint:gosec
	if n < 4 || pos+n > limit {
		return document.Code{}, 0, fmt.Errorf("%w: code-with-scope length %d does not fit frame", errs.ErrCorruptDocument, n)
	}

	code, next, err := d.readString(next, limit)
	if err != nil {
		return document.Code{}, 0, err
	}

	scope, next, err := d.readDocument(next, limit, depth+1)
	if err != nil {
		return document.Code{}, 0, err
	}

	scopeDoc, ok := scope.(*document.Document)
	if !ok {
		// A scope that parses as a DBRef is still a plain scope document.
		ref, _ := scope.(document.DBRef)
		scopeDoc = document.NewWithCapacity(2).Set("$ref", ref.Collection).Set("$id", ref.ID)
	}

	if next-pos != n {
		return document.Code{}, 0, fmt.Errorf("%w: code-with-scope consumed %d bytes, declared %d", errs.ErrCorruptDocument, next-pos, n)
	}

	return document.Code{Code: code, Scope: scopeDoc}, next, nil
}

// tryCompileRegex maps the wire flags onto RE2 inline flags and compiles.
// The i, m, and s flags translate directly; l, u, and x have no equivalent
// and are ignored here (the uncompiled wrapper preserves them). Returns nil
// when the pattern does not compile.
func tryCompileRegex(pattern, flags string) *regexp.Regexp {
	var inline []byte
	for _, f := range []byte("ims") {
		if strings.IndexByte(flags, f) >= 0 {
			inline = append(inline, f)
		}
	}

	expr := pattern
	if len(inline) > 0 {
		expr = "(?" + string(inline) + ")" + pattern
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return nil
	}

	return re
}

func mustGet(doc *document.Document, key string) any {
	v, _ := doc.Get(key)
	return v
}

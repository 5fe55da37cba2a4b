// Package pool provides the append-only frame buffer used by the encoder,
// recycled through a sync.Pool to minimize allocations.
package pool

import (
	"fmt"
	"sync"

	"github.com/arloliu/bsonkit/errs"
)

const (
	// FrameBufferDefaultSize is the initial capacity of a pooled buffer.
	FrameBufferDefaultSize = 1024

	// FrameBufferMaxThreshold is the capacity above which a buffer is
	// discarded instead of returned to the pool, to avoid retaining the
	// backing storage of occasional very large documents.
	FrameBufferMaxThreshold = 1024 * 256
)

// FrameBuffer accumulates one BSON frame. It supports appending at the
// tail, reserving a 4-byte slot whose value is patched in once the frame
// length is known, and a max-size cap consulted by the encoder when the
// frame is finalized.
//
// Note: the FrameBuffer is NOT thread-safe. Each buffer is owned by a
// single encode call.
type FrameBuffer struct {
	buf     []byte
	maxSize int32
}

// NewFrameBuffer creates a buffer with the given initial capacity.
func NewFrameBuffer(capacity int) *FrameBuffer {
	return &FrameBuffer{buf: make([]byte, 0, capacity)}
}

// Append copies data to the tail, growing the backing storage as needed.
func (b *FrameBuffer) Append(data ...byte) {
	b.buf = append(b.buf, data...)
}

// AppendString copies the bytes of s to the tail.
func (b *FrameBuffer) AppendString(s string) {
	b.buf = append(b.buf, s...)
}

// AppendUint32 appends v in little-endian byte order.
func (b *FrameBuffer) AppendUint32(v uint32) {
	b.buf = append(b.buf, byte(v), byte(v>>8), byte(v>>16), byte(v>>24))
}

// AppendUint64 appends v in little-endian byte order.
func (b *FrameBuffer) AppendUint64(v uint64) {
	b.buf = append(b.buf,
		byte(v), byte(v>>8), byte(v>>16), byte(v>>24),
		byte(v>>32), byte(v>>40), byte(v>>48), byte(v>>56))
}

// Reserve advances the tail by n zero bytes and returns the offset of the
// reservation for later in-place patching.
func (b *FrameBuffer) Reserve(n int) int {
	pos := len(b.buf)
	for i := 0; i < n; i++ {
		b.buf = append(b.buf, 0)
	}

	return pos
}

// PatchUint32 overwrites the 4 bytes at pos with v in little-endian byte
// order. The slot must have been obtained from Reserve; patching anywhere
// else is an internal invariant violation.
func (b *FrameBuffer) PatchUint32(pos int, v uint32) error {
	if pos < 0 || pos+4 > len(b.buf) {
		return fmt.Errorf("%w: patch at %d outside buffer of %d bytes", errs.ErrOutOfMemory, pos, len(b.buf))
	}

	b.buf[pos] = byte(v)
	b.buf[pos+1] = byte(v >> 8)
	b.buf[pos+2] = byte(v >> 16)
	b.buf[pos+3] = byte(v >> 24)

	return nil
}

// Len returns the current write position.
func (b *FrameBuffer) Len() int {
	return len(b.buf)
}

// SetMaxSize sets the frame size cap. Zero or negative disables the cap.
func (b *FrameBuffer) SetMaxSize(n int32) {
	b.maxSize = n
}

// MaxSize returns the configured frame size cap.
func (b *FrameBuffer) MaxSize() int32 {
	return b.maxSize
}

// Take returns a copy of the accumulated bytes. The buffer itself stays
// reusable (and poolable) after the copy.
func (b *FrameBuffer) Take() []byte {
	out := make([]byte, len(b.buf))
	copy(out, b.buf)

	return out
}

// Reset empties the buffer but keeps the allocated storage for reuse.
func (b *FrameBuffer) Reset() {
	b.buf = b.buf[:0]
	b.maxSize = 0
}

var framePool = sync.Pool{
	New: func() any {
		return NewFrameBuffer(FrameBufferDefaultSize)
	},
}

// GetFrameBuffer retrieves a reset buffer from the pool.
func GetFrameBuffer() *FrameBuffer {
	fb, _ := framePool.Get().(*FrameBuffer)
	return fb
}

// PutFrameBuffer returns a buffer to the pool for reuse. Oversized buffers
// are discarded to prevent memory bloat.
func PutFrameBuffer(fb *FrameBuffer) {
	if fb == nil {
		return
	}

	if cap(fb.buf) > FrameBufferMaxThreshold {
		return
	}

	fb.Reset()
	framePool.Put(fb)
}

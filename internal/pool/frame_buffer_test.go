package pool

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/bsonkit/errs"
)

func TestFrameBuffer_AppendAndLen(t *testing.T) {
	fb := NewFrameBuffer(8)
	require.Equal(t, 0, fb.Len())

	fb.Append(0x01, 0x02)
	fb.AppendString("ab")
	require.Equal(t, 4, fb.Len())
	require.Equal(t, []byte{0x01, 0x02, 'a', 'b'}, fb.Take())
}

func TestFrameBuffer_AppendUint32(t *testing.T) {
	fb := NewFrameBuffer(8)
	fb.AppendUint32(0x01020304)
	require.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, fb.Take())
}

func TestFrameBuffer_AppendUint64(t *testing.T) {
	fb := NewFrameBuffer(8)
	fb.AppendUint64(0x0102030405060708)
	require.Equal(t, []byte{0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01}, fb.Take())
}

func TestFrameBuffer_ReserveAndPatch(t *testing.T) {
	fb := NewFrameBuffer(16)
	pos := fb.Reserve(4)
	require.Equal(t, 0, pos)
	fb.Append(0xAA)

	err := fb.PatchUint32(pos, 5)
	require.NoError(t, err)
	require.Equal(t, []byte{0x05, 0x00, 0x00, 0x00, 0xAA}, fb.Take())
}

func TestFrameBuffer_PatchOutOfRange(t *testing.T) {
	fb := NewFrameBuffer(16)
	fb.Reserve(4)

	err := fb.PatchUint32(2, 1)
	require.ErrorIs(t, err, errs.ErrOutOfMemory)

	err = fb.PatchUint32(-1, 1)
	require.ErrorIs(t, err, errs.ErrOutOfMemory)
}

func TestFrameBuffer_MaxSize(t *testing.T) {
	fb := NewFrameBuffer(16)
	require.Equal(t, int32(0), fb.MaxSize())

	fb.SetMaxSize(64)
	require.Equal(t, int32(64), fb.MaxSize())

	fb.Reset()
	require.Equal(t, int32(0), fb.MaxSize())
}

func TestFrameBuffer_TakeCopies(t *testing.T) {
	fb := NewFrameBuffer(8)
	fb.Append(1, 2, 3)

	out := fb.Take()
	fb.Reset()
	fb.Append(9, 9, 9)
	require.Equal(t, []byte{1, 2, 3}, out)
}

func TestFrameBufferPool_Reuse(t *testing.T) {
	fb := GetFrameBuffer()
	fb.Append(1, 2, 3)
	fb.SetMaxSize(10)
	PutFrameBuffer(fb)

	got := GetFrameBuffer()
	require.Equal(t, 0, got.Len())
	require.Equal(t, int32(0), got.MaxSize())
	PutFrameBuffer(got)

	// A nil put must be a no-op.
	PutFrameBuffer(nil)
}

package bsonkit

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/bsonkit/codec"
	"github.com/arloliu/bsonkit/document"
	"github.com/arloliu/bsonkit/errs"
	"github.com/arloliu/bsonkit/format"
	"github.com/arloliu/bsonkit/oid"
)

type fakeConn struct {
	size int32
}

func (c *fakeConn) MaxBSONSize() int32 {
	return c.size
}

func TestSerializeDeserialize_RoundTrip(t *testing.T) {
	id := oid.New()
	doc := document.New().
		Set("_id", id).
		Set("hello", "world").
		Set("n", int32(42)).
		Set("tags", document.Array{"a", "b"})

	data, err := Serialize(doc)
	require.NoError(t, err)
	require.Equal(t, int32(len(data)), int32(binary.LittleEndian.Uint32(data))) //nolint:gosec

	got, err := Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, doc, got)
}

func TestSerialize_OptionsPassThrough(t *testing.T) {
	doc := document.New().Set("a", int32(1)).Set("_id", int32(2))

	data, err := Serialize(doc, codec.WithMoveID(true))
	require.NoError(t, err)

	decoded, err := Deserialize(data)
	require.NoError(t, err)
	require.Equal(t, []string{"_id", "a"}, decoded.Keys())

	_, err = Serialize(document.New().Set("a.b", int32(1)), codec.WithCheckKeys(true))
	require.ErrorIs(t, err, errs.ErrInvalidKeyName)
}

func TestMaxDocumentSize_Default(t *testing.T) {
	require.Equal(t, int32(format.DefaultMaxDocumentSize), MaxDocumentSize())
	require.Equal(t, int32(4194304), MaxDocumentSize())
}

func TestUpdateMaxDocumentSize(t *testing.T) {
	defer maxDocumentSize.Store(format.DefaultMaxDocumentSize)

	got := UpdateMaxDocumentSize(&fakeConn{size: 64})
	require.Equal(t, int32(64), got)
	require.Equal(t, int32(64), MaxDocumentSize())

	// Serialize now inherits the reduced process-wide cap.
	doc := document.New().Set("payload", strings.Repeat("x", 128))
	_, err := Serialize(doc)
	require.ErrorIs(t, err, errs.ErrInvalidDocument)

	// A per-call option overrides the process-wide value.
	data, err := Serialize(doc, codec.WithMaxDocumentSize(1024))
	require.NoError(t, err)
	require.NotEmpty(t, data)
}

package intern

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTable_Get(t *testing.T) {
	tbl := NewTable()

	a := tbl.Get([]byte("_id"))
	b := tbl.Get([]byte("_id"))
	require.Equal(t, "_id", a)
	require.Equal(t, a, b)
	require.Equal(t, 1, tbl.Len())

	c := tbl.Get([]byte("name"))
	require.Equal(t, "name", c)
	require.Equal(t, 2, tbl.Len())
}

func TestTable_LongKeysBypass(t *testing.T) {
	tbl := NewTable()

	long := strings.Repeat("k", maxKeyLen+1)
	got := tbl.Get([]byte(long))
	require.Equal(t, long, got)
	require.Equal(t, 0, tbl.Len())
}

func TestTable_EmptyKey(t *testing.T) {
	tbl := NewTable()
	require.Equal(t, "", tbl.Get(nil))
	require.Equal(t, "", tbl.Get([]byte{}))
	require.Equal(t, 1, tbl.Len())
}

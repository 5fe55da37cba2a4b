// Package intern provides a per-decode string intern table so repeated
// element keys share one allocation instead of one per occurrence.
package intern

import (
	"github.com/arloliu/bsonkit/internal/hash"
)

// maxKeyLen bounds the keys worth interning. Longer keys are rare and
// copying them into the table would not pay for itself.
const maxKeyLen = 64

// Table maps xxHash64 of key bytes to the interned string. A hash hit is
// confirmed by byte comparison before reuse; on a collision the new key is
// simply not interned, which keeps lookups exact without tracking chains.
type Table struct {
	entries map[uint64]string
}

// NewTable creates an empty intern table.
func NewTable() *Table {
	return &Table{entries: make(map[uint64]string, 16)}
}

// Get returns the string for the given key bytes, reusing a previously
// interned copy when the bytes match.
func (t *Table) Get(key []byte) string {
	if len(key) > maxKeyLen {
		return string(key)
	}

	h := hash.Sum64(key)
	if s, ok := t.entries[h]; ok {
		if s == string(key) {
			return s
		}
		// Different bytes, same hash: leave the existing entry alone.
		return string(key)
	}

	s := string(key)
	t.entries[h] = s

	return s
}

// Len returns the number of interned keys.
func (t *Table) Len() int {
	return len(t.entries)
}

// Package hash wraps the xxHash64 function used for key identity.
package hash

import "github.com/cespare/xxhash/v2"

// Sum64 computes the xxHash64 of the given byte slice.
func Sum64(data []byte) uint64 {
	return xxhash.Sum64(data)
}

package store

import "github.com/cespare/xxhash/v2"

// hash32 computes the portable, bit-for-bit reproducible 32-bit hash used by
// the string heap and value dictionary hash indexes. The store format version
// (FormatVersion) implies this algorithm: a reader and the builder that wrote
// its file must agree on it, so it is frozen here rather than left
// pluggable.
func hash32(b []byte) uint32 {
	return uint32(xxhash.Sum64(b))
}

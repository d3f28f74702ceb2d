package store

import "math"

// This file exposes the leaf/page codec castorld needs to produce a file
// this package can read back bit-exact (spec.md §6.1): the compressed
// triple-leaf encoding and the fixed-width value record layout are owned by
// this package since decodeLeafTriples/decodeValueRecord already embed the
// format's invariants, and castorld must stay byte-for-byte in sync with
// them rather than keep a second copy of the format.

// ValueRecordStride is the fixed byte width of one on-disk value record
// (store/value_codec.go).
const ValueRecordStride = valueRecordStride

// Hash32 exposes the hash algorithm hash.go freezes for string/value hash
// indexes, so castorld builds the exact same index a reader will probe.
func Hash32(b []byte) uint32 { return hash32(b) }

// EncodeLeafTriples packs as many of triples (already sorted and permuted
// for order o) as fit within maxBytes, returning the encoded bytes and how
// many triples were consumed.
func EncodeLeafTriples(o Order, triples []Triple, maxBytes int) ([]byte, int) {
	return encodeLeafTriples(o, triples, maxBytes)
}

// Permute reorders a canonical SPO triple into order o's sort-key column
// order, the inverse of Unpermute.
func Permute(o Order, t Triple) (c1, c2, c3 uint32) { return permute(o, t) }

// Unpermute reorders order o's sort-key columns back into a canonical SPO
// triple.
func Unpermute(o Order, c1, c2, c3 uint32) Triple { return unpermute(o, c1, c2, c3) }

// EncodeValueRecord serializes v into a ValueRecordStride-byte on-disk
// value record, the write-side counterpart of decodeValueRecord.
func EncodeValueRecord(v Value) []byte {
	b := make([]byte, ValueRecordStride)
	b[0] = byte(v.Category)
	b[1] = byte(v.Numeric)
	putU32(b[2:], uint32(v.Lexical))
	putU32(b[6:], uint32(v.DatatypeID))
	putU32(b[10:], uint32(v.DatatypeLex))
	putU32(b[14:], uint32(v.LanguageTag))
	switch v.Category {
	case CatBoolean:
		if v.Bool {
			b[18] = 1
		}
	case CatNumeric:
		switch v.Numeric {
		case NumInteger:
			putU32(b[18:], uint32(v.Int>>32))
			putU32(b[22:], uint32(v.Int))
		case NumFloat, NumDouble:
			bits := math.Float64bits(v.Float)
			putU32(b[18:], uint32(bits>>32))
			putU32(b[22:], uint32(bits))
		}
	}
	return b
}

func putU32(b []byte, v uint32) {
	b[0] = byte(v >> 24)
	b[1] = byte(v >> 16)
	b[2] = byte(v >> 8)
	b[3] = byte(v)
}

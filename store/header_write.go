package store

import "encoding/binary"

// OrderRoots mirrors orderIndex for callers outside the package: the
// builder fills one per Order and hands the set to WriteHeader so the
// on-disk layout decision stays in this file rather than duplicated in
// castorld (spec.md §6.1 item 3).
type OrderRoots struct {
	Begin, End     uint32
	IndexRoot      uint32
	AggregatedRoot uint32
}

// HeaderFields is every value the builder must supply to produce a header
// page this package's readHeader can parse back (spec.md §6.1).
type HeaderFields struct {
	TriplesCount  uint64
	RawTableFirst uint32
	Orders        [int(orderCount)]OrderRoots
	FullyAggSPO   uint32
	FullyAggPSO   uint32
	FullyAggOSP   uint32
	StringsCount  uint32
	StringsBegin  uint32
	StringsMapping int64
	StringsIndex  uint32
	ValuesCount   uint32
	ValuesBegin   int64
	ValuesIndex   uint32
	EqClassesOff  int64
	CategoryStart [CategoryCount + 1]uint32
}

// WriteHeader serializes h in the exact field order readHeader expects,
// prefixed by the magic and format version (spec.md §6.1).
func WriteHeader(h HeaderFields) []byte {
	buf := make([]byte, 0, 256)
	buf = append(buf, Magic...)
	buf = appendU32Pub(buf, FormatVersion)
	buf = appendU64Pub(buf, h.TriplesCount)
	buf = appendU32Pub(buf, h.RawTableFirst)
	for _, o := range h.Orders {
		buf = appendU32Pub(buf, o.Begin)
		buf = appendU32Pub(buf, o.End)
		buf = appendU32Pub(buf, o.IndexRoot)
		buf = appendU32Pub(buf, o.AggregatedRoot)
	}
	buf = appendU32Pub(buf, h.FullyAggSPO)
	buf = appendU32Pub(buf, h.FullyAggPSO)
	buf = appendU32Pub(buf, h.FullyAggOSP)
	buf = appendU32Pub(buf, h.StringsCount)
	buf = appendU32Pub(buf, h.StringsBegin)
	buf = appendU64Pub(buf, uint64(h.StringsMapping))
	buf = appendU32Pub(buf, h.StringsIndex)
	buf = appendU32Pub(buf, h.ValuesCount)
	buf = appendU64Pub(buf, uint64(h.ValuesBegin))
	buf = appendU32Pub(buf, h.ValuesIndex)
	buf = appendU64Pub(buf, uint64(h.EqClassesOff))
	for _, v := range h.CategoryStart {
		buf = appendU32Pub(buf, v)
	}
	return buf
}

func appendU32Pub(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}

func appendU64Pub(b []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)
	return append(b, tmp[:]...)
}

package store

import (
	"github.com/RoaringBitmap/roaring"
)

// ValueRange is an equivalence class or a union of adjacent classes
// (spec.md §3.4): [Lo, Hi] inclusive. An empty range has Lo == Hi+1, and
// brackets the glb/lub of where a not-yet-interned value would sort.
type ValueRange struct {
	Lo, Hi uint32
}

func (r ValueRange) Empty() bool { return r.Lo == r.Hi+1 }

// dictionary is the sorted array of RDF terms plus its companion structures
// (spec.md §4.3).
type dictionary struct {
	pf *pagedFile

	count         uint32 // V
	beginOffset   int64  // byte offset of values[1]
	index         *bptree
	eqClasses     *roaring.Bitmap // bit i set: value i starts a new equivalence class
	categoryStart [CategoryCount + 1]uint32

	heap *stringHeap
}

// lookupValue returns the value at id; lexical/datatype strings are
// resolved lazily through the string heap by the caller via Store methods,
// not eagerly here, matching spec.md §4.3 "resolved lazily".
func (d *dictionary) lookupValue(id uint32) (Value, error) {
	if id < 1 || id > d.count {
		return Value{}, corruptf("value id %d out of range [1,%d]", id, d.count)
	}
	off := d.offsetOf(id)
	v, err := decodeValueRecord(d.pf.cursorAtOffset(off))
	if err != nil {
		return Value{}, err
	}
	v.ID = id
	return v, nil
}

// offsetOf addresses value id's fixed-stride record directly: beginOffset is
// the byte offset of values[1], and every record after it is exactly
// valueRecordStride bytes, so no separate offset table is needed (see
// valueRecordStride).
func (d *dictionary) offsetOf(id uint32) int64 {
	return d.beginOffset + int64(id-1)*valueRecordStride
}

// valueRecordStride is the fixed on-disk footprint of one value record.
// Variable-length parts (none remain: all variable data lives on the string
// heap and is referenced by id) let the dictionary be a flat array instead
// of needing its own offset table.
const valueRecordStride = 32

// lookupID returns the value's id by hashing and walking the hash run, comparing
// each candidate with full equality including language/datatype
// (spec.md §4.3). Not found => id 0, nil error.
func (d *dictionary) lookupID(lex []byte, v Value) (uint32, error) {
	hv := hash32(lex)
	entries, err := d.index.collisionRun(hv)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		cand, err := d.lookupValue(e.id)
		if err != nil {
			return 0, err
		}
		if valuesFullyEqual(cand, v, lex, d) {
			return e.id, nil
		}
	}
	return 0, nil
}

func valuesFullyEqual(cand, v Value, lex []byte, d *dictionary) bool {
	if cand.Category != v.Category || cand.Numeric != v.Numeric {
		return false
	}
	if cand.DatatypeID != v.DatatypeID || cand.LanguageTag != v.LanguageTag {
		return false
	}
	candLex, err := d.heap.lookupString(uint32(cand.Lexical))
	if err != nil {
		return false
	}
	return string(candLex.Bytes) == string(lex)
}

// getValueCategory binary-searches categoryStart (spec.md §4.3).
func (d *dictionary) getValueCategory(id uint32) Category {
	lo, hi := 0, CategoryCount
	for lo < hi {
		mid := (lo + hi) / 2
		if d.categoryStart[mid+1] <= id {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return Category(lo)
}

// getValueEqClassByID brackets id against eqClasses: from = largest j<=id
// with bit set, to = (smallest k>id with bit set) - 1. Uses Rank/Select
// (both O(1)-ish over roaring containers) rather than linear bit scanning.
func (d *dictionary) getValueEqClassByID(id uint32) ValueRange {
	rank := d.eqClasses.Rank(id) // count of set bits in [0, id]
	from, _ := d.eqClasses.Select(uint32(rank - 1))
	to := d.count
	if card := d.eqClasses.GetCardinality(); rank < card {
		nextBit, _ := d.eqClasses.Select(uint32(rank))
		to = nextBit - 1
	}
	return ValueRange{Lo: from, Hi: to}
}

// getValueEqClassByValue computes the class by bracketing against the
// sorted dictionary in SPARQL order when the value is not interned
// (spec.md §4.3). Returns an empty range (Lo == Hi+1) when not present,
// bracketing the glb/lub.
func (d *dictionary) getValueEqClassByValue(v Value, lex []byte) (ValueRange, error) {
	if v.ID != 0 {
		return d.getValueEqClassByID(v.ID), nil
	}
	lookupLex := func(r StringRef) string {
		s, err := d.heap.lookupString(uint32(r))
		if err != nil {
			return ""
		}
		return string(s.Bytes)
	}
	// binary search over [1, count] by compareValues
	lo, hi := uint32(1), d.count+1
	for lo < hi {
		mid := lo + (hi-lo)/2
		cand, err := d.lookupValue(mid)
		if err != nil {
			return ValueRange{}, err
		}
		c := compareValues(cand, v, lookupLex)
		if c == typeErrorResult {
			// incomparable categories sort by the same blank<IRI<literal rule
			c = categoryCompare(cand.Category, v.Category)
		}
		if c < 0 {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	// lo is the insertion point (glb+1 == lo)
	if lo <= d.count {
		cand, err := d.lookupValue(lo)
		if err == nil {
			if rdfEquals(cand, v, lookupLex) == 0 {
				return d.getValueEqClassByID(lo), nil
			}
		}
	}
	return ValueRange{Lo: lo, Hi: lo - 1}, nil
}

func categoryCompare(a, b Category) int {
	rank := func(c Category) int {
		switch c {
		case CatBlank:
			return 0
		case CatIRI:
			return 1
		default:
			return 2
		}
	}
	ra, rb := rank(a), rank(b)
	switch {
	case ra < rb:
		return -1
	case ra > rb:
		return 1
	default:
		return 0
	}
}

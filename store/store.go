package store

import (
	"io"

	"github.com/RoaringBitmap/roaring"
)

// Store is a read-only, disk-backed RDF triple store (spec.md §2). Once
// Open returns successfully, the Store and everything reachable from it is
// immutable for its lifetime: mutation happens only in castorld, producing a
// fresh image (spec.md §3.6, Non-goals).
type Store struct {
	pf    *pagedFile
	hdr   *header
	dict  *dictionary
	heap  *stringHeap
	cache *TripleCache
}

// Option configures a Store at Open time.
type Option func(*Store)

// WithCacheCapacity overrides DefaultCacheCapacity for the triple cache.
func WithCacheCapacity(n int) Option {
	return func(s *Store) { s.cache = newTripleCache(n) }
}

// Open memory-maps path read-only and validates its header (spec.md §6.1,
// §6.2).
func Open(path string, opts ...Option) (*Store, error) {
	pf, err := openPagedFile(path)
	if err != nil {
		return nil, err
	}
	hdr, err := readHeader(pf)
	if err != nil {
		pf.close()
		return nil, err
	}

	heap := openStringHeap(pf, hdr.stringsCount, hdr.stringsBegin, hdr.stringsMapping, hdr.stringsIndex)

	eqClasses := roaring.NewBitmap()
	if err := readEqClassesBitmap(pf, hdr.eqClassesOff, hdr.valuesCount, eqClasses); err != nil {
		pf.close()
		return nil, err
	}

	dict := &dictionary{
		pf:            pf,
		count:         hdr.valuesCount,
		beginOffset:   hdr.valuesBegin,
		index:         newBPTree(pf, hdr.valuesIndex),
		eqClasses:     eqClasses,
		categoryStart: hdr.categoryStart,
		heap:          heap,
	}

	s := &Store{
		pf:    pf,
		hdr:   hdr,
		dict:  dict,
		heap:  heap,
		cache: newTripleCache(DefaultCacheCapacity),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the mapping. It is an error to use the Store afterward.
func (s *Store) Close() error {
	return s.pf.close()
}

// LookupString returns the string at id in O(1) (spec.md §4.2, §6.2).
func (s *Store) LookupString(id uint32) (String, error) {
	return s.heap.lookupString(id)
}

// FindString hashes and locates a byte string, returning 0 on miss
// (spec.md §4.2).
func (s *Store) FindString(b []byte) (uint32, error) {
	return s.heap.findString(b)
}

// LookupValue returns the value at id; DECIMAL values have their Decimal
// field parsed lazily from the lexical string (spec.md §4.3, §6.2).
func (s *Store) LookupValue(id uint32) (Value, error) {
	v, err := s.dict.lookupValue(id)
	if err != nil {
		return Value{}, err
	}
	if v.Category == CatNumeric && v.Numeric == NumDecimal {
		lex, err := s.heap.lookupString(uint32(v.Lexical))
		if err != nil {
			return Value{}, err
		}
		d, err := decimalFromLexical(string(lex.Bytes))
		if err != nil {
			return Value{}, corrupt(err)
		}
		v.Decimal = d
	}
	return v, nil
}

// lexicalOf resolves a value's lexical string, used by compareValues and
// rdfEquals, which the Store supplies as a closure so the store package's
// pure comparison logic stays mmap-agnostic.
func (s *Store) lexicalOf(r StringRef) string {
	str, err := s.heap.lookupString(uint32(r))
	if err != nil {
		return ""
	}
	return string(str.Bytes)
}

// CompareValues implements the SPARQL total order of spec.md §4.3.
func (s *Store) CompareValues(a, b Value) int {
	return compareValues(a, b, s.lexicalOf)
}

// RDFEquals implements SPARQL RDF-term-equality (spec.md §4.3).
func (s *Store) RDFEquals(a, b Value) int {
	return rdfEquals(a, b, s.lexicalOf)
}

// FindValueID fills in value.ID via the value-hash index (spec.md §4.3,
// §6.2). Returns 0 on miss.
func (s *Store) FindValueID(v Value) (uint32, error) {
	lex := s.lexicalOf(v.Lexical)
	return s.dict.lookupID([]byte(lex), v)
}

// GetValueCategory binary-searches categoryStart (spec.md §4.3, §6.2).
func (s *Store) GetValueCategory(id uint32) Category {
	return s.dict.getValueCategory(id)
}

// GetValueEqClassByID brackets id using eqClasses (spec.md §4.3, §6.2).
func (s *Store) GetValueEqClassByID(id uint32) ValueRange {
	return s.dict.getValueEqClassByID(id)
}

// GetValueEqClassByValue computes an equivalence class for a value that may
// or may not already be interned (spec.md §4.3, §6.2).
func (s *Store) GetValueEqClassByValue(v Value) (ValueRange, error) {
	lex := s.lexicalOf(v.Lexical)
	return s.dict.getValueEqClassByValue(v, []byte(lex))
}

// QueryTriples walks the contiguous range matching pattern (spec.md §4.4.4,
// §6.2).
func (s *Store) QueryTriples(p Pattern) (*RangeIterator, error) {
	return s.queryTriples(p)
}

// CountTriples is O(log n) when the pattern is fully bound or matches an
// aggregated index (spec.md §6.2).
func (s *Store) CountTriples(p Pattern) (uint64, error) {
	return s.countTriples(p)
}

// CacheStats exposes the triple cache's hit/miss/size counters for testing
// and instrumentation (spec.md §8).
func (s *Store) CacheStats() (hits, misses uint64, size int) {
	return s.cache.Stats()
}

// TriplesCount is the total number of triples in the store's raw table
// (spec.md §6.1 header item 2).
func (s *Store) TriplesCount() uint64 {
	return s.hdr.triplesCount
}

// ValuesCount is the number of distinct interned values, i.e. the highest
// valid value id (spec.md §6.1 header item 6); callers sizing a solver
// variable's domain over value ids use this as the upper bound.
func (s *Store) ValuesCount() uint32 {
	return s.dict.count
}

// StringsCount is the number of distinct interned strings, i.e. the highest
// valid string id (spec.md §6.1 header item 5).
func (s *Store) StringsCount() uint32 {
	return s.heap.count
}

// readEqClassesBitmap deserializes the on-disk roaring bitmap for eqClasses.
// The builder writes it with bitmap.WriteTo, so reading mirrors the
// teacher's ReadFrom idiom in db.go for posting-list bitmaps.
func readEqClassesBitmap(pf *pagedFile, off int64, count uint32, into *roaring.Bitmap) error {
	if off < 0 || off >= pf.len {
		return corruptf("eqClasses bitmap offset %d out of range", off)
	}
	_, err := into.ReadFrom(&mmapReader{pf: pf, off: off})
	return err
}

// mmapReader adapts a pagedFile+offset into an io.Reader for roaring's
// ReadFrom, without copying the whole bitmap out of the mapping up front.
type mmapReader struct {
	pf  *pagedFile
	off int64
}

func (r *mmapReader) Read(p []byte) (int, error) {
	if r.off >= r.pf.len {
		return 0, io.EOF
	}
	n := copy(p, r.pf.m[r.off:])
	r.off += int64(n)
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

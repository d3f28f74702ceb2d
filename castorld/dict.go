package castorld

import (
	"encoding/binary"
	"math"
	"sort"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/boutros/castor/store"
)

func uint64FromFloat(f float64) uint64  { return math.Float64bits(f) }
func floatFromUint64(u uint64) float64 { return math.Float64frombits(u) }

// bolt is repurposed here from the teacher's durable triple store into a
// build-time scratch cache: get-or-create interning during the parse
// pass, and a sorted id assignment during the finalize pass
// (_examples/boutros-sopp/db.go's addTerm/getIDb NextSequence idiom).
// It is discarded once the build completes; it is never the format a
// reader opens (spec.md §6.1 requires that format to be the exact page
// layout store/ decodes, which bolt's own b+tree page format is not).

var (
	bucketStringsByLex  = []byte("strings_by_lex")
	bucketStringsByID   = []byte("strings_by_id")
	bucketValuesByKey   = []byte("values_by_key")
	bucketValuesByID    = []byte("values_by_id")
)

// stringTable interns lexical byte strings into early (insertion-order)
// ids during the parse pass.
type stringTable struct {
	db *bolt.DB
}

func newStringTable(path string) (*stringTable, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "castorld: open string scratch db")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketStringsByLex); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketStringsByID)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &stringTable{db: db}, nil
}

func (t *stringTable) close() error { return t.db.Close() }

// Intern returns lex's early id, assigning a fresh one on first sight.
func (t *stringTable) Intern(lex []byte) (earlyID uint64, err error) {
	err = t.db.Update(func(tx *bolt.Tx) error {
		byLex := tx.Bucket(bucketStringsByLex)
		if v := byLex.Get(lex); v != nil {
			earlyID = binary.BigEndian.Uint64(v)
			return nil
		}
		n, err := byLex.NextSequence()
		if err != nil {
			return err
		}
		earlyID = n
		var idBuf [8]byte
		binary.BigEndian.PutUint64(idBuf[:], earlyID)
		if err := byLex.Put(lex, idBuf[:]); err != nil {
			return err
		}
		return tx.Bucket(bucketStringsByID).Put(idBuf[:], lex)
	})
	return earlyID, err
}

// finalize assigns final (1-based, byte-order) ids over every interned
// string and returns, in final-id order, the strings themselves plus the
// early->final id mapping (spec.md §3.6 "the string heap carries no
// intrinsic ordering requirement beyond what the hash index needs", so
// sorting here exists only to give the hash index locality, not because
// readers require it).
func (t *stringTable) finalize() (sorted [][]byte, earlyToFinal map[uint64]uint32, err error) {
	earlyToFinal = make(map[uint64]uint32)
	err = t.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketStringsByLex).Cursor()
		var id uint32
		for k, v := c.First(); k != nil; k, v = c.Next() {
			id++
			cp := make([]byte, len(k))
			copy(cp, k)
			sorted = append(sorted, cp)
			earlyToFinal[binary.BigEndian.Uint64(v)] = id
		}
		return nil
	})
	return sorted, earlyToFinal, err
}

// earlyValue is what the parse pass records for one distinct value: the
// already-interned early string ids it refers to, plus the interpreted
// fields compareRaw needs (spec.md §3.2). It is the Go counterpart of
// tempfile.h's EarlyValue.
type earlyValue struct {
	rawValue
	EarlyLexical  uint64
	EarlyDatatype uint64
	EarlyTag      uint64
}

// valueTable interns earlyValues the same get-or-create way as
// stringTable, keyed by a byte encoding of every comparison-relevant
// field (so bit-identical values collapse to one early id) during the
// parse pass; finalize sorts the distinct set under SPARQL order
// in-memory, which bounds this builder to value sets that fit in RAM --
// unlike the triple sort in sort.go, which spills to disk.
type valueTable struct {
	db *bolt.DB
}

func newValueTable(path string) (*valueTable, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, errors.Wrap(err, "castorld: open value scratch db")
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketValuesByKey); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketValuesByID)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &valueTable{db: db}, nil
}

func (t *valueTable) close() error { return t.db.Close() }

// Intern returns v's early id, assigning a fresh one on first sight. The
// full encoded record doubles as its own dedup key: two values collapse
// to one early id exactly when every comparison-relevant field matches.
func (t *valueTable) Intern(v earlyValue) (earlyID uint64, err error) {
	enc := encodeEarlyValue(v)
	err = t.db.Update(func(tx *bolt.Tx) error {
		byKey := tx.Bucket(bucketValuesByKey)
		if raw := byKey.Get(enc); raw != nil {
			earlyID = binary.BigEndian.Uint64(raw)
			return nil
		}
		n, err := byKey.NextSequence()
		if err != nil {
			return err
		}
		earlyID = n
		var idBuf [8]byte
		binary.BigEndian.PutUint64(idBuf[:], earlyID)
		if err := byKey.Put(enc, idBuf[:]); err != nil {
			return err
		}
		return tx.Bucket(bucketValuesByID).Put(idBuf[:], enc)
	})
	return earlyID, err
}

// finalEntry is one value in final (sorted) order: the value's own fields
// plus the final string ids it was resolved against, ready for
// store.EncodeValueRecord once Lexical/DatatypeID/LanguageTag are
// rewritten from early to final string ids by the caller.
type finalEntry struct {
	rawValue
	FinalLexical    uint32
	FinalDatatype   uint32
	FinalTag        uint32
	EqClassBoundary bool // true if this is the first member of a new rdfEquals class
}

// finalize sorts every distinct value under SPARQL order (compareRaw),
// assigns 1-based final ids, resolves early string ids to final ones via
// strEarlyToFinal, and marks equivalence class boundaries
// (spec.md §3.5 "eqClasses... one bit per value id marking the first
// member of a run of rdfEquals-equivalent values").
func (t *valueTable) finalize(strEarlyToFinal map[uint64]uint32) ([]finalEntry, [store.CategoryCount + 1]uint32, map[uint64]uint32, error) {
	type idAndValue struct {
		earlyID uint64
		ev      earlyValue
	}
	var all []idAndValue
	err := t.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(bucketValuesByID).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			ev, err := decodeEarlyValue(v)
			if err != nil {
				return err
			}
			all = append(all, idAndValue{earlyID: binary.BigEndian.Uint64(k), ev: ev})
		}
		return nil
	})
	if err != nil {
		return nil, [store.CategoryCount + 1]uint32{}, nil, err
	}

	sort.Slice(all, func(i, j int) bool {
		c := compareRaw(all[i].ev.rawValue, all[j].ev.rawValue)
		if c == typeErrorResult {
			// stable fallback for incomparable pairs: distinct literal
			// categories sort by category, so each category is one
			// contiguous id run; same-category typeErrors (CatDateTime,
			// mismatched CatOtherTyped) are kept in arbitrary but
			// deterministic early-id order.
			if all[i].ev.Category != all[j].ev.Category {
				return all[i].ev.Category < all[j].ev.Category
			}
			return all[i].earlyID < all[j].earlyID
		}
		return c < 0
	})

	entries := make([]finalEntry, len(all))
	earlyToFinal := make(map[uint64]uint32, len(all))
	var categoryStart [store.CategoryCount + 1]uint32
	prevCat := store.Category(-1)
	for i, item := range all {
		ev := item.ev
		finalID := uint32(i + 1)
		if ev.Category != prevCat {
			for c := int(prevCat) + 1; c <= int(ev.Category); c++ {
				categoryStart[c] = finalID
			}
			prevCat = ev.Category
		}
		boundary := i == 0 || rdfEqualRaw(all[i-1].ev.rawValue, ev.rawValue) != 0
		entries[i] = finalEntry{
			rawValue:        ev.rawValue,
			FinalLexical:    strEarlyToFinal[ev.EarlyLexical],
			FinalDatatype:   strEarlyToFinal[ev.EarlyDatatype],
			FinalTag:        strEarlyToFinal[ev.EarlyTag],
			EqClassBoundary: boundary,
		}
		earlyToFinal[item.earlyID] = finalID
	}
	for c := int(prevCat) + 1; c < len(categoryStart); c++ {
		categoryStart[c] = uint32(len(entries)) + 1
	}
	return entries, categoryStart, earlyToFinal, nil
}

func encodeEarlyValue(v earlyValue) []byte {
	b := make([]byte, 0, 64)
	b = append(b, byte(v.Category), byte(v.Numeric))
	var tmp [8]byte
	putU64 := func(x uint64) { binary.BigEndian.PutUint64(tmp[:], x); b = append(b, tmp[:]...) }
	putU64(v.EarlyLexical)
	putU64(v.EarlyDatatype)
	putU64(v.EarlyTag)
	if v.Bool {
		b = append(b, 1)
	} else {
		b = append(b, 0)
	}
	putU64(uint64(v.Int))
	binary.BigEndian.PutUint64(tmp[:], uint64FromFloat(v.Float))
	b = append(b, tmp[:]...)
	dec := []byte(v.Decimal.String())
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(dec)))
	b = append(b, lenBuf[:]...)
	b = append(b, dec...)
	return b
}

// minEarlyValueLen is the fixed-field prefix length encodeEarlyValue
// always writes before the variable-length decimal string: category(1) +
// numeric(1) + lexical/datatype/tag(8*3) + bool(1) + int(8) + float(8) +
// decimal length prefix(4).
const minEarlyValueLen = 1 + 1 + 8*3 + 1 + 8 + 8 + 4

func decodeEarlyValue(b []byte) (earlyValue, error) {
	if len(b) < minEarlyValueLen {
		return earlyValue{}, errors.New("castorld: truncated value scratch record")
	}
	var ev earlyValue
	ev.Category = store.Category(b[0])
	ev.Numeric = store.NumericKind(b[1])
	off := 2
	readU64 := func() uint64 {
		v := binary.BigEndian.Uint64(b[off:])
		off += 8
		return v
	}
	ev.EarlyLexical = readU64()
	ev.EarlyDatatype = readU64()
	ev.EarlyTag = readU64()
	ev.Bool = b[off] != 0
	off++
	ev.Int = int64(readU64())
	ev.Float = floatFromUint64(readU64())
	decLen := binary.BigEndian.Uint32(b[off:])
	off += 4
	dec, err := decimal.NewFromString(string(b[off : off+int(decLen)]))
	if err != nil {
		return earlyValue{}, errors.Wrap(err, "castorld: decode scratch decimal")
	}
	ev.Decimal = dec
	return ev, nil
}

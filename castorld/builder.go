package castorld

import (
	"bytes"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"

	"github.com/RoaringBitmap/roaring"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/boutros/castor/rdf"
	"github.com/boutros/castor/store"
)

// Options configures Build.
type Options struct {
	// ScratchDir holds the interning scratch databases and external-sort
	// run files for the duration of the build. Created if missing; removed
	// once Build returns unless the caller supplied it themselves.
	ScratchDir string

	Logger *zap.Logger
}

// Build reads an RDF triple stream from r and writes a complete store.Store
// image to w. It runs in three passes: parse and intern every term (dict.go,
// term.go), finalize the dictionaries and remap triples from early to final
// value ids, then sort each of the six orders (sort.go) and pack their
// B+-trees (pack.go) before assembling the header (store.WriteHeader).
//
// Grounded on original_source/tools/castorld's own parse -> sort -> write
// pass structure; there the three passes are separate binaries (rdf2nt,
// sort-join, castorld) wired together with Unix pipes. Build folds them into
// one in-process pipeline instead, which is the idiom the teacher repo
// itself uses for db.Open/db.Close lifecycles rather than separate tools.
func Build(r io.Reader, w io.Writer, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	scratch := opts.ScratchDir
	if scratch == "" {
		var err error
		scratch, err = os.MkdirTemp("", "castorld-scratch-*")
		if err != nil {
			return errors.Wrap(err, "castorld: create scratch dir")
		}
		defer os.RemoveAll(scratch)
	} else if err := os.MkdirAll(scratch, 0o755); err != nil {
		return errors.Wrap(err, "castorld: create scratch dir")
	}

	strs, err := newStringTable(filepath.Join(scratch, "strings.bolt"))
	if err != nil {
		return err
	}
	defer strs.close()

	vals, err := newValueTable(filepath.Join(scratch, "values.bolt"))
	if err != nil {
		return err
	}
	defer vals.close()

	early, err := newTempFile(scratch, "castorld-early-*")
	if err != nil {
		return err
	}
	defer early.discard()

	log.Info("castorld: parsing and interning")
	count, err := internStream(r, strs, vals, early, log)
	if err != nil {
		return err
	}

	log.Info("castorld: finalizing string table")
	sortedStrings, strEarlyToFinal, err := strs.finalize()
	if err != nil {
		return err
	}

	log.Info("castorld: finalizing value dictionary")
	finalValues, categoryStart, valEarlyToFinal, err := vals.finalize(strEarlyToFinal)
	if err != nil {
		return err
	}

	triples, err := remapTriples(early, count, valEarlyToFinal)
	if err != nil {
		return err
	}
	if err := early.discard(); err != nil {
		return err
	}

	alloc := newPageAllocator()
	var fields store.HeaderFields
	fields.CategoryStart = categoryStart

	for o := store.Order(0); int(o) < len(fields.Orders); o++ {
		log.Info("castorld: sorting and packing order", zap.Stringer("order", o), zap.Int("triples", len(triples)))
		roots, fullyAggRoot, n, err := packOrder(alloc, scratch, o, triples)
		if err != nil {
			return err
		}
		fields.Orders[o] = roots
		switch o {
		case store.OrderSPO:
			fields.TriplesCount = uint64(n)
			fields.FullyAggSPO = fullyAggRoot
		case store.OrderPSO:
			fields.FullyAggPSO = fullyAggRoot
		case store.OrderOSP:
			fields.FullyAggOSP = fullyAggRoot
		}
	}
	fields.RawTableFirst = fields.Orders[store.OrderSPO].Begin

	log.Info("castorld: packing string heap", zap.Int("count", len(sortedStrings)))
	stringsMapping, stringsIndex, err := packStringHeap(alloc, sortedStrings)
	if err != nil {
		return err
	}
	fields.StringsCount = uint32(len(sortedStrings))
	fields.StringsMapping = stringsMapping
	fields.StringsIndex = stringsIndex

	log.Info("castorld: packing value dictionary", zap.Int("count", len(finalValues)))
	valuesBegin, valuesIndex, eqClasses := packValueDictionary(alloc, finalValues)
	fields.ValuesCount = uint32(len(finalValues))
	fields.ValuesBegin = valuesBegin
	fields.ValuesIndex = valuesIndex

	log.Info("castorld: packing equivalence classes")
	var eqBuf bytes.Buffer
	if _, err := eqClasses.WriteTo(&eqBuf); err != nil {
		return errors.Wrap(err, "castorld: serialize eqClasses bitmap")
	}
	fields.EqClassesOff = alloc.appendRaw(eqBuf.Bytes())

	header := store.WriteHeader(fields)
	if len(header) > store.PageSize {
		return errors.New("castorld: header overflows one page")
	}
	copy(alloc.buf[:len(header)], header)

	if _, err := w.Write(alloc.buf); err != nil {
		return errors.Wrap(err, "castorld: write store image")
	}
	log.Info("castorld: done", zap.Uint64("triples", fields.TriplesCount), zap.Int("bytes", len(alloc.buf)))
	return nil
}

// internStream decodes every triple from r, classifies and interns its
// three terms, and spools the resulting (early subject id, early predicate
// id, early object id) rows to early for the remap pass, since none of
// those early ids are final until the whole value set has been seen and
// sorted.
func internStream(r io.Reader, strs *stringTable, vals *valueTable, early *tempFile, log *zap.Logger) (uint64, error) {
	dec := rdf.NewDecoder(r)
	var count uint64
	for {
		tr, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, errors.Wrap(err, "castorld: parse RDF stream")
		}
		sID, err := internTerm(strs, vals, tr.Subj)
		if err != nil {
			return 0, err
		}
		pID, err := internTerm(strs, vals, tr.Pred)
		if err != nil {
			return 0, err
		}
		oID, err := internTerm(strs, vals, tr.Obj)
		if err != nil {
			return 0, err
		}
		if err := early.writeVarInt(sID); err != nil {
			return 0, err
		}
		if err := early.writeVarInt(pID); err != nil {
			return 0, err
		}
		if err := early.writeVarInt(oID); err != nil {
			return 0, err
		}
		count++
		if log != nil && count%1_000_000 == 0 {
			log.Info("castorld: parsed", zap.Uint64("triples", count))
		}
	}
	return count, nil
}

// internTerm classifies term and interns its string-valued fields, then the
// resulting value itself, returning the value's early id.
func internTerm(strs *stringTable, vals *valueTable, term rdf.Term) (uint64, error) {
	rv, err := classify(term)
	if err != nil {
		return 0, err
	}
	ev := earlyValue{rawValue: rv}
	if rv.Lexical != "" {
		id, err := strs.Intern([]byte(rv.Lexical))
		if err != nil {
			return 0, err
		}
		ev.EarlyLexical = id
	}
	if rv.DatatypeLex != "" {
		id, err := strs.Intern([]byte(rv.DatatypeLex))
		if err != nil {
			return 0, err
		}
		ev.EarlyDatatype = id
	}
	if rv.LanguageTag != "" {
		id, err := strs.Intern([]byte(rv.LanguageTag))
		if err != nil {
			return 0, err
		}
		ev.EarlyTag = id
	}
	return vals.Intern(ev)
}

// remapTriples reads back the count early-id rows spooled by internStream
// and rewrites each column from its early value id to its final (sorted)
// one, producing the canonical SPO triple set every order is then permuted
// and sorted from.
func remapTriples(early *tempFile, count uint64, valEarlyToFinal map[uint64]uint32) ([]store.Triple, error) {
	if err := early.rewind(); err != nil {
		return nil, err
	}
	triples := make([]store.Triple, 0, count)
	for i := uint64(0); i < count; i++ {
		s, err := early.readVarInt()
		if err != nil {
			return nil, errors.Wrap(err, "castorld: re-read early triple")
		}
		p, err := early.readVarInt()
		if err != nil {
			return nil, errors.Wrap(err, "castorld: re-read early triple")
		}
		o, err := early.readVarInt()
		if err != nil {
			return nil, errors.Wrap(err, "castorld: re-read early triple")
		}
		triples = append(triples, store.Triple{
			S: valEarlyToFinal[s],
			P: valEarlyToFinal[p],
			O: valEarlyToFinal[o],
		})
	}
	return triples, nil
}

// packOrder sorts triples under order o (external, via sort.go) and packs
// the resulting run into compressed triple leaves, an aggregated index and,
// for SPO/PSO/OSP, a fully-aggregated index (spec.md §4.4).
func packOrder(alloc *pageAllocator, scratchDir string, o store.Order, triples []store.Triple) (roots store.OrderRoots, fullyAggRoot uint32, n int, err error) {
	sorted, err := SortTriples(scratchDir, o, triples)
	if err != nil {
		return store.OrderRoots{}, 0, 0, err
	}
	defer sorted.Close()

	ordered := make([]store.Triple, 0, len(triples))
	for {
		t, ok, err := sorted.Next()
		if err != nil {
			return store.OrderRoots{}, 0, 0, err
		}
		if !ok {
			break
		}
		ordered = append(ordered, t)
	}

	entries, first, last, err := buildTripleLeaves(alloc, o, ordered)
	if err != nil {
		return store.OrderRoots{}, 0, 0, err
	}
	indexRoot := buildInnerLevels(alloc, entries)

	aggEntries := buildAggregatedLeaves(alloc, groupAggregated(o, ordered))
	aggRoot := buildInnerLevels(alloc, aggEntries)

	roots = store.OrderRoots{Begin: first, End: last, IndexRoot: indexRoot, AggregatedRoot: aggRoot}

	// Only SPO/PSO/OSP carry a fully-aggregated companion index: the one
	// that counts "how many triples share this leading component" for
	// single-bound-variable queries (store/triples.go's
	// fullyAggregatedOrder).
	if o == store.OrderSPO || o == store.OrderPSO || o == store.OrderOSP {
		fullEntries := buildAggregatedLeaves(alloc, groupFullyAggregated(o, ordered))
		fullyAggRoot = buildInnerLevels(alloc, fullEntries)
	}

	return roots, fullyAggRoot, len(ordered), nil
}

// packStringHeap writes every sorted string as a raw (non-page-aligned)
// record, builds the flat offset table those records are addressed through,
// and packs the hash index findString/offsetOf walk (spec.md §4.5.1).
func packStringHeap(alloc *pageAllocator, sorted [][]byte) (mappingOff int64, indexRoot uint32, err error) {
	offsets := make([]int64, len(sorted))
	hashEntries := make([]hashBuildEntry, len(sorted))
	for i, s := range sorted {
		off := alloc.appendRaw(encodeStringRecord(s))
		offsets[i] = off
		hashEntries[i] = hashBuildEntry{hash: store.Hash32(s), off: off}
	}

	mapBuf := make([]byte, 0, len(offsets)*8)
	for _, off := range offsets {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], uint64(off))
		mapBuf = append(mapBuf, b[:]...)
	}
	mappingOff = alloc.appendRaw(mapBuf)

	alloc.alignToPage()
	sortHashEntries(hashEntries)
	leaves := buildHashLeaves(alloc, 8, hashEntries)
	indexRoot = buildInnerLevels(alloc, leaves)
	return mappingOff, indexRoot, nil
}

// encodeStringRecord matches store/stringheap.go's lookupString layout:
// varint(len) + hash:u32 + raw bytes.
func encodeStringRecord(s []byte) []byte {
	buf := make([]byte, 0, len(s)+8)
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	var h [4]byte
	binary.BigEndian.PutUint32(h[:], store.Hash32(s))
	buf = append(buf, h[:]...)
	buf = append(buf, s...)
	return buf
}

// packValueDictionary writes each final value as a raw fixed-width record
// (the dictionary's flat array, addressed by dict.go's offsetOf), builds the
// lookupID hash index over each value's lexical bytes, and collects the
// eqClasses bitmap of equivalence-class-leading value ids.
func packValueDictionary(alloc *pageAllocator, finalValues []finalEntry) (valuesBegin int64, indexRoot uint32, eqClasses *roaring.Bitmap) {
	eqClasses = roaring.New()
	hashEntries := make([]hashBuildEntry, 0, len(finalValues))
	for i, fe := range finalValues {
		rec := store.EncodeValueRecord(store.Value{
			Category:    fe.Category,
			Numeric:     fe.Numeric,
			Lexical:     store.StringRef(fe.FinalLexical),
			DatatypeLex: store.StringRef(fe.FinalDatatype),
			LanguageTag: store.StringRef(fe.FinalTag),
			Bool:        fe.Bool,
			Int:         fe.Int,
			Float:       fe.Float,
		})
		off := alloc.appendRaw(rec)
		if i == 0 {
			valuesBegin = off
		}
		finalID := uint32(i + 1)
		hashEntries = append(hashEntries, hashBuildEntry{hash: store.Hash32([]byte(fe.Lexical)), id: finalID})
		if fe.EqClassBoundary {
			eqClasses.Add(finalID)
		}
	}

	alloc.alignToPage()
	sortHashEntries(hashEntries)
	leaves := buildHashLeaves(alloc, 4, hashEntries)
	indexRoot = buildInnerLevels(alloc, leaves)
	return valuesBegin, indexRoot, eqClasses
}

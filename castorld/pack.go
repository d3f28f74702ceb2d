package castorld

import (
	"encoding/binary"
	"sort"

	"github.com/pkg/errors"

	"github.com/boutros/castor/store"
)

// pack.go turns already-sorted, already-interned data into the page stream
// store/bptree.go, store/leaf.go, store/aggregated.go and store/stringheap.go
// read back: compressed triple leaves with inner index levels, uncompressed
// aggregated leaves, and the shared hash-index leaf format for the string
// heap and value dictionary. It writes two kinds of region: page-granular
// (always PageSize, addressed by page number) for every B+-tree, and raw
// byte regions (string records, the value dictionary's flat array, the
// eqClasses bitmap) addressed by absolute file offset, exactly as
// store/stringheap.go's comment says they need not be page-aligned.
//
// Grounded on store/bptree.go's descend()/readHashLeaf()/collisionRun() and
// store/aggregated.go's aggregatedTreeLookup(), which this file is the write
// side of; there is no teacher precedent for the page format itself (bolt
// hides its own), so it follows spec.md/store's reader directly.

// btreeFlags mirrors store/bptree.go's unexported btreeFlags bit values; the
// two packages must agree on them but store doesn't export them.
const (
	flagLeaf      byte = 1 << 0
	flagFirstLeaf byte = 1 << 1
	flagLastLeaf  byte = 1 << 2
)

const (
	pageHeaderLen       = 4
	leafTrailerLen      = 8 // prevPage(4) + nextPage(4)
	hashLeafTrailerLen  = 4 // nextPage(4) only
	aggRecordLen        = 12
	hashEntryHeaderLen  = 1 // payload-width byte, right after the node header
)

// levelEntry is one (separator key, child page) pair used to build the next
// inner level up from a run of leaves or lower inner pages. The separator is
// the child's last key, since descend follows the first entry whose key is
// >= the search key.
type levelEntry struct {
	key   uint32
	child uint32
}

// pageAllocator writes PageSize-aligned pages sequentially to a growing byte
// buffer, plus raw (unaligned) byte regions interleaved between page runs.
// It never seeks: every region this builder produces is append-only, so
// page numbers and byte offsets are known the moment they're allocated.
type pageAllocator struct {
	buf []byte
}

// newPageAllocator reserves page 0 for the store header: store/page.go
// addresses every page as n*PageSize from byte 0 of the file, the same
// region store/header.go's readHeader parses directly, so page numbering
// for everything else must start at 1. The reservation means every page
// number and raw offset this allocator hands out is already the final
// absolute one; the header itself is patched into buf[:len(header)] once
// every other field is known.
func newPageAllocator() *pageAllocator {
	return &pageAllocator{buf: make([]byte, store.PageSize)}
}

// nextPage is the page number the next call to alloc will return. Valid only
// when the buffer is currently page-aligned.
func (a *pageAllocator) nextPage() uint32 {
	return uint32(len(a.buf) / store.PageSize)
}

// alloc writes data padded to exactly one page and returns its page number.
func (a *pageAllocator) alloc(data []byte) uint32 {
	if len(data) > store.PageSize {
		panic("castorld: page payload overflows PageSize")
	}
	if len(a.buf)%store.PageSize != 0 {
		panic("castorld: alloc called while not page-aligned")
	}
	page := a.nextPage()
	a.buf = append(a.buf, data...)
	for len(a.buf)%store.PageSize != 0 {
		a.buf = append(a.buf, 0)
	}
	return page
}

// appendRaw writes data with no padding or alignment and returns the
// absolute byte offset it was written at (the buffer starts with the
// reserved header page, so this is already the final file offset).
func (a *pageAllocator) appendRaw(data []byte) int64 {
	off := int64(len(a.buf))
	a.buf = append(a.buf, data...)
	return off
}

// alignToPage pads the buffer up to the next page boundary, so page
// allocation can resume after a raw region.
func (a *pageAllocator) alignToPage() {
	for len(a.buf)%store.PageSize != 0 {
		a.buf = append(a.buf, 0)
	}
}

func putHeaderWord(buf []byte, flags byte, count int) {
	binary.BigEndian.PutUint32(buf, uint32(flags)<<24|uint32(count)&0x00ffffff)
}

// buildInnerLevels repeatedly groups entries into PageSize inner-node pages
// until a single page (or a single leaf, if there was only one to begin
// with) remains, returning its page number as the tree root.
func buildInnerLevels(a *pageAllocator, entries []levelEntry) uint32 {
	if len(entries) == 0 {
		return 0
	}
	if len(entries) == 1 {
		return entries[0].child
	}
	const innerEntryLen = 8
	maxEntries := (store.PageSize - pageHeaderLen) / innerEntryLen
	for len(entries) > 1 {
		var next []levelEntry
		for i := 0; i < len(entries); {
			end := i + maxEntries
			if end > len(entries) {
				end = len(entries)
			}
			group := entries[i:end]
			buf := make([]byte, pageHeaderLen, pageHeaderLen+len(group)*innerEntryLen)
			putHeaderWord(buf, 0, len(group)) // inner node: flagLeaf unset
			for _, e := range group {
				var kv [8]byte
				binary.BigEndian.PutUint32(kv[0:4], e.key)
				binary.BigEndian.PutUint32(kv[4:8], e.child)
				buf = append(buf, kv[:]...)
			}
			page := a.alloc(buf)
			next = append(next, levelEntry{key: group[len(group)-1].key, child: page})
			i = end
		}
		entries = next
	}
	return entries[0].child
}

// buildTripleLeaves packs triples (already sorted and deduplicated under
// order) into compressed leaf pages via store.EncodeLeafTriples, chains them
// with prevPage/nextPage trailers, and returns the inner-index entries plus
// the first and last leaf page numbers.
func buildTripleLeaves(a *pageAllocator, order store.Order, triples []store.Triple) (entries []levelEntry, first, last uint32, err error) {
	if len(triples) == 0 {
		return nil, 0, 0, nil
	}
	maxData := store.PageSize - pageHeaderLen - leafTrailerLen

	type pending struct {
		data    []byte
		count   int
		lastKey uint32
	}
	var leaves []pending
	for i := 0; i < len(triples); {
		enc, n := store.EncodeLeafTriples(order, triples[i:], maxData)
		if n == 0 {
			return nil, 0, 0, errors.New("castorld: a single triple does not fit in one leaf page")
		}
		c1, _, _ := store.Permute(order, triples[i+n-1])
		leaves = append(leaves, pending{data: enc, count: n, lastKey: c1})
		i += n
	}

	base := a.nextPage()
	entries = make([]levelEntry, len(leaves))
	for idx, lv := range leaves {
		flags := flagLeaf
		if idx == 0 {
			flags |= flagFirstLeaf
		}
		if idx == len(leaves)-1 {
			flags |= flagLastLeaf
		}
		buf := make([]byte, pageHeaderLen, store.PageSize-leafTrailerLen)
		putHeaderWord(buf, flags, lv.count)
		buf = append(buf, lv.data...)
		for len(buf) < store.PageSize-leafTrailerLen {
			buf = append(buf, 0)
		}
		var prevPage, nextPage uint32
		if idx > 0 {
			prevPage = base + uint32(idx) - 1
		}
		if idx < len(leaves)-1 {
			nextPage = base + uint32(idx) + 1
		}
		var trailer [leafTrailerLen]byte
		binary.BigEndian.PutUint32(trailer[0:4], prevPage)
		binary.BigEndian.PutUint32(trailer[4:8], nextPage)
		buf = append(buf, trailer[:]...)
		page := a.alloc(buf)
		entries[idx] = levelEntry{key: lv.lastKey, child: page}
	}
	return entries, base, base + uint32(len(leaves)) - 1, nil
}

// aggRecord is one (c1, c2, groupCount) entry of an aggregated or
// fully-aggregated index (c2 is 0 for fully-aggregated entries).
type aggRecord struct {
	c1, c2 uint32
	count  uint32
}

// groupAggregated collapses sorted, order-permuted triples into
// (c1, c2) -> count records (spec.md §4.4.6).
func groupAggregated(order store.Order, triples []store.Triple) []aggRecord {
	var out []aggRecord
	for _, t := range triples {
		c1, c2, _ := store.Permute(order, t)
		if n := len(out); n > 0 && out[n-1].c1 == c1 && out[n-1].c2 == c2 {
			out[n-1].count++
			continue
		}
		out = append(out, aggRecord{c1: c1, c2: c2, count: 1})
	}
	return out
}

// groupFullyAggregated collapses by c1 alone, regardless of c2 (the
// "how many triples share this single leading component" count spec.md
// §4.4.6 and store.fullyAggregatedLookup use for single-bound-variable
// counts on SPO/PSO/OSP).
func groupFullyAggregated(order store.Order, triples []store.Triple) []aggRecord {
	var out []aggRecord
	for _, t := range triples {
		c1, _, _ := store.Permute(order, t)
		if n := len(out); n > 0 && out[n-1].c1 == c1 {
			out[n-1].count++
			continue
		}
		out = append(out, aggRecord{c1: c1, count: 1})
	}
	return out
}

// buildAggregatedLeaves packs already-grouped records into flat (uncompressed)
// leaf pages, per store/aggregated.go's layout.
func buildAggregatedLeaves(a *pageAllocator, records []aggRecord) []levelEntry {
	if len(records) == 0 {
		return nil
	}
	maxEntries := (store.PageSize - pageHeaderLen - hashLeafTrailerLen) / aggRecordLen
	var pages [][]aggRecord
	for i := 0; i < len(records); i += maxEntries {
		end := i + maxEntries
		if end > len(records) {
			end = len(records)
		}
		pages = append(pages, records[i:end])
	}
	base := a.nextPage()
	entries := make([]levelEntry, len(pages))
	for idx, recs := range pages {
		flags := flagLeaf
		if idx == 0 {
			flags |= flagFirstLeaf
		}
		if idx == len(pages)-1 {
			flags |= flagLastLeaf
		}
		buf := make([]byte, pageHeaderLen, store.PageSize-hashLeafTrailerLen)
		putHeaderWord(buf, flags, len(recs))
		for _, r := range recs {
			var rec [aggRecordLen]byte
			binary.BigEndian.PutUint32(rec[0:4], r.c1)
			binary.BigEndian.PutUint32(rec[4:8], r.c2)
			binary.BigEndian.PutUint32(rec[8:12], r.count)
			buf = append(buf, rec[:]...)
		}
		for len(buf) < store.PageSize-hashLeafTrailerLen {
			buf = append(buf, 0)
		}
		var nextPage uint32
		if idx < len(pages)-1 {
			nextPage = base + uint32(idx) + 1
		}
		var trailer [hashLeafTrailerLen]byte
		binary.BigEndian.PutUint32(trailer[:], nextPage)
		buf = append(buf, trailer[:]...)
		page := a.alloc(buf)
		entries[idx] = levelEntry{key: recs[len(recs)-1].c1, child: page}
	}
	return entries
}

// hashBuildEntry is one to-be-written hash-index entry: a payload of either
// an 8-byte file offset (string heap) or a 4-byte value id (value
// dictionary), selected by which of off/id the caller fills in.
type hashBuildEntry struct {
	hash uint32
	id   uint32
	off  int64
}

// buildHashLeaves packs entries (already sorted ascending by hash, so
// collisions land consecutively, per store/bptree.go's collisionRun) into
// flat leaf pages of fixed payload width (4 for value ids, 8 for string
// offsets).
func buildHashLeaves(a *pageAllocator, width int, entries []hashBuildEntry) []levelEntry {
	if len(entries) == 0 {
		return nil
	}
	entryLen := 4 + width
	maxEntries := (store.PageSize - pageHeaderLen - hashEntryHeaderLen - hashLeafTrailerLen) / entryLen
	var pages [][]hashBuildEntry
	for i := 0; i < len(entries); i += maxEntries {
		end := i + maxEntries
		if end > len(entries) {
			end = len(entries)
		}
		pages = append(pages, entries[i:end])
	}
	base := a.nextPage()
	out := make([]levelEntry, len(pages))
	for idx, es := range pages {
		flags := flagLeaf
		if idx == 0 {
			flags |= flagFirstLeaf
		}
		if idx == len(pages)-1 {
			flags |= flagLastLeaf
		}
		buf := make([]byte, pageHeaderLen, store.PageSize-hashLeafTrailerLen)
		putHeaderWord(buf, flags, len(es))
		buf = append(buf, byte(width))
		for _, e := range es {
			var h [4]byte
			binary.BigEndian.PutUint32(h[:], e.hash)
			buf = append(buf, h[:]...)
			if width == 4 {
				var p [4]byte
				binary.BigEndian.PutUint32(p[:], e.id)
				buf = append(buf, p[:]...)
			} else {
				var p [8]byte
				binary.BigEndian.PutUint64(p[:], uint64(e.off))
				buf = append(buf, p[:]...)
			}
		}
		for len(buf) < store.PageSize-hashLeafTrailerLen {
			buf = append(buf, 0)
		}
		var nextPage uint32
		if idx < len(pages)-1 {
			nextPage = base + uint32(idx) + 1
		}
		var trailer [hashLeafTrailerLen]byte
		binary.BigEndian.PutUint32(trailer[:], nextPage)
		buf = append(buf, trailer[:]...)
		page := a.alloc(buf)
		out[idx] = levelEntry{key: es[len(es)-1].hash, child: page}
	}
	return out
}

// sortHashEntries orders entries by hash ascending, which is all
// buildHashLeaves/buildInnerLevels need to reproduce collisionRun's
// "collisions land consecutively" assumption.
func sortHashEntries(entries []hashBuildEntry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].hash < entries[j].hash })
}

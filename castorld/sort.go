package castorld

import (
	"container/heap"
	"encoding/binary"
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/boutros/castor/store"
)

// runSize caps how many triples are sorted in memory before a run is
// spooled to disk; _examples/original_source/tools/castorld/sort.cpp's
// MEM_LIMIT plays the same role. A package var rather than a const so
// tests can shrink it to exercise the multi-run merge path without
// generating millions of triples.
var runSize = 2_000_000

const tripleRecordLen = 12 // 3 big-endian uint32 columns

// SortedTriples streams triples in ascending order for one Order, with
// duplicates eliminated, by externally sorting and k-way merging spooled
// runs (spec.md §9 "castorld... external sort", grounded on sort.cpp's
// spool-then-merge structure). Call Close once done to remove the
// backing run files.
type SortedTriples struct {
	order Order
	runs  []*tempFile
	h     *mergeHeap
	last  store.Triple
	first bool
}

// Order is re-exported so castorld call sites don't need both store and
// castorld imports just to name an order.
type Order = store.Order

// SortTriples spools src into runs of at most runSize triples, each run
// sorted under order's permuted key, then returns a streaming merge over
// every run with adjacent duplicates removed.
func SortTriples(dir string, order store.Order, src []store.Triple) (*SortedTriples, error) {
	var runs []*tempFile
	for len(src) > 0 {
		n := runSize
		if n > len(src) {
			n = len(src)
		}
		chunk := make([]store.Triple, n)
		copy(chunk, src[:n])
		src = src[n:]

		sort.Slice(chunk, func(i, j int) bool { return tripleLess(order, chunk[i], chunk[j]) })

		run, err := newTempFile(dir, "castorld-run-*")
		if err != nil {
			return nil, err
		}
		for _, t := range chunk {
			if err := writeTripleRecord(run, t); err != nil {
				return nil, err
			}
		}
		if err := run.rewind(); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	st := &SortedTriples{order: order, runs: runs, first: true}
	h := &mergeHeap{order: order}
	for i, run := range runs {
		t, ok, err := readTripleRecord(run)
		if err != nil {
			return nil, err
		}
		if ok {
			h.items = append(h.items, mergeItem{t: t, run: i})
		}
	}
	heap.Init(h)
	st.h = h
	return st, nil
}

func tripleLess(o store.Order, a, b store.Triple) bool {
	ac1, ac2, ac3 := store.Permute(o, a)
	bc1, bc2, bc3 := store.Permute(o, b)
	if ac1 != bc1 {
		return ac1 < bc1
	}
	if ac2 != bc2 {
		return ac2 < bc2
	}
	return ac3 < bc3
}

func writeTripleRecord(t *tempFile, tr store.Triple) error {
	var buf [tripleRecordLen]byte
	binary.BigEndian.PutUint32(buf[0:], tr.S)
	binary.BigEndian.PutUint32(buf[4:], tr.P)
	binary.BigEndian.PutUint32(buf[8:], tr.O)
	_, err := t.w.Write(buf[:])
	return err
}

func readTripleRecord(t *tempFile) (store.Triple, bool, error) {
	var buf [tripleRecordLen]byte
	_, err := io.ReadFull(t.r, buf[:])
	if err == io.EOF {
		return store.Triple{}, false, nil
	}
	if err != nil {
		return store.Triple{}, false, errors.Wrap(err, "castorld: read sorted run")
	}
	return store.Triple{
		S: binary.BigEndian.Uint32(buf[0:]),
		P: binary.BigEndian.Uint32(buf[4:]),
		O: binary.BigEndian.Uint32(buf[8:]),
	}, true, nil
}

type mergeItem struct {
	t   store.Triple
	run int
}

type mergeHeap struct {
	items []mergeItem
	order store.Order
}

// mergeHeap implements container/heap.Interface; it is a struct holding the
// item slice plus an order field set once at construction so Less
// can call tripleLess without a package-level comparator variable.
func (h mergeHeap) Len() int { return len(h.items) }
func (h mergeHeap) Less(i, j int) bool {
	return tripleLess(h.order, h.items[i].t, h.items[j].t)
}
func (h mergeHeap) Swap(i, j int) { h.items[i], h.items[j] = h.items[j], h.items[i] }
func (h *mergeHeap) Push(x interface{}) { h.items = append(h.items, x.(mergeItem)) }
func (h *mergeHeap) Pop() interface{} {
	old := h.items
	n := len(old)
	it := old[n-1]
	h.items = old[:n-1]
	return it
}

// Next returns the next distinct triple in order, or ok=false once every
// run is exhausted.
func (st *SortedTriples) Next() (store.Triple, bool, error) {
	for {
		if st.h.Len() == 0 {
			return store.Triple{}, false, nil
		}
		top := heap.Pop(st.h).(mergeItem)
		nt, ok, err := readTripleRecord(st.runs[top.run])
		if err != nil {
			return store.Triple{}, false, err
		}
		if ok {
			heap.Push(st.h, mergeItem{t: nt, run: top.run})
		}
		if !st.first && top.t == st.last {
			continue // duplicate of the previously returned triple
		}
		st.first = false
		st.last = top.t
		return top.t, true, nil
	}
}

// Close removes every spooled run file.
func (st *SortedTriples) Close() error {
	var firstErr error
	for _, r := range st.runs {
		if err := r.discard(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

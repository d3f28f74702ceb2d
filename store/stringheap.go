package store

import "sort"

// String is a borrowed view into the heap: a decoded id and its bytes.
// The byte slice aliases the mmap and must not be retained past the Store's
// lifetime (spec.md §3.6).
type String struct {
	ID    uint32
	Bytes []byte
}

// stringHeap is the append-only sequence of length-prefixed, hashed byte
// strings plus its offset table and hash index (spec.md §4.2).
type stringHeap struct {
	pf *pagedFile

	count      uint32
	beginPage  uint32 // first page of the record stream
	mappingOff int64  // byte offset of the flat id->offset table
	index      *bptree
}

func openStringHeap(pf *pagedFile, count uint32, beginPage uint32, mappingOff int64, indexRoot uint32) *stringHeap {
	return &stringHeap{
		pf:         pf,
		count:      count,
		beginPage:  beginPage,
		mappingOff: mappingOff,
		index:      newBPTree(pf, indexRoot),
	}
}

// offsetOf returns the byte offset of string id in the record stream via the
// flat offset table (one uint64 per id).
func (h *stringHeap) offsetOf(id uint32) (int64, error) {
	if id < 1 || id > h.count {
		return 0, corruptf("string id %d out of range [1,%d]", id, h.count)
	}
	off := h.mappingOff + int64(id-1)*8
	c := h.pf.cursorAtOffset(off)
	v, err := c.readLong()
	if err != nil {
		return 0, err
	}
	return int64(v), nil
}

// lookupString returns the String at id in O(1) (spec.md §4.2).
func (h *stringHeap) lookupString(id uint32) (String, error) {
	off, err := h.offsetOf(id)
	if err != nil {
		return String{}, err
	}
	c := h.pf.cursorAtOffset(off)
	n, err := c.readVarInt()
	if err != nil {
		return String{}, err
	}
	if _, err := c.readInt(); err != nil { // stored hash, unused on this path
		return String{}, err
	}
	b, err := c.readBytes(int(n))
	if err != nil {
		return String{}, err
	}
	return String{ID: id, Bytes: b}, nil
}

// findString hashes b, locates its hash run in the index, and linear-scans
// the collision list comparing bytes. A match's id is found by binary search
// of the offset table, since records are stored in id order. Returns 0, nil
// on miss (spec.md §4.2).
func (h *stringHeap) findString(b []byte) (uint32, error) {
	hv := hash32(b)
	entries, err := h.index.collisionRun(hv)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		s, err := h.lookupFromOffset(e.value)
		if err != nil {
			return 0, err
		}
		if string(s) == string(b) {
			n := int(h.count)
			i := sort.Search(n, func(i int) bool {
				off, err := h.offsetOf(uint32(i + 1))
				return err != nil || off >= e.value
			})
			if off, err := h.offsetOf(uint32(i + 1)); i == n || err != nil || off != e.value {
				return 0, corruptf("string record at offset %d has no id", e.value)
			}
			return uint32(i + 1), nil
		}
	}
	return 0, nil
}

// lookupFromOffset reads the raw bytes of a string record located at a
// known file offset (the offset stored alongside a hash-index entry).
func (h *stringHeap) lookupFromOffset(off int64) ([]byte, error) {
	c := h.pf.cursorAtOffset(off)
	n, err := c.readVarInt()
	if err != nil {
		return nil, err
	}
	if _, err := c.readInt(); err != nil {
		return nil, err
	}
	return c.readBytes(int(n))
}

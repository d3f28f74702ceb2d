package store

// btreeFlags mirrors the 4-byte page header of spec.md §4.4.2/§4.4.3.
type btreeFlags uint32

const (
	flagLeaf      btreeFlags = 1 << 0
	flagFirstLeaf btreeFlags = 1 << 1
	flagLastLeaf  btreeFlags = 1 << 2
)

func (f btreeFlags) isLeaf() bool      { return f&flagLeaf != 0 }
func (f btreeFlags) isFirstLeaf() bool { return f&flagFirstLeaf != 0 }
func (f btreeFlags) isLastLeaf() bool  { return f&flagLastLeaf != 0 }

// nodeHeader reads the 4-byte flags/count word at the start of a page plus
// the count packed in the low 3 bytes.
type nodeHeader struct {
	flags btreeFlags
	count int
}

func readNodeHeader(pf *pagedFile, page uint32) (nodeHeader, error) {
	c := pf.cursorAt(page)
	raw, err := c.readInt()
	if err != nil {
		return nodeHeader{}, err
	}
	return nodeHeader{flags: btreeFlags(raw >> 24), count: int(raw & 0x00ffffff)}, nil
}

// bptree is a read-only handle on one B+-tree rooted at a known page. It is
// shared by the six triple order indexes, their aggregated companions, the
// string-heap hash index, and the value-dictionary hash index: all of them
// use the same inner-node layout (spec.md §4.4.3). Leaf interpretation is
// left to the caller (compressed triples vs. flat hash entries).
type bptree struct {
	pf   *pagedFile
	root uint32
}

func newBPTree(pf *pagedFile, root uint32) *bptree {
	return &bptree{pf: pf, root: root}
}

// descend walks inner nodes, following the first entry whose key >= search
// key, until it reaches a leaf page (spec.md §4.4.3/§4.4.4 step 3).
func (t *bptree) descend(searchKey uint32) (uint32, error) {
	page := t.root
	for {
		hdr, err := readNodeHeader(t.pf, page)
		if err != nil {
			return 0, err
		}
		if hdr.isLeaf() {
			return page, nil
		}
		c := t.pf.cursorAt(page)
		if _, err := c.readInt(); err != nil { // skip header
			return 0, err
		}
		var child uint32
		found := false
		for i := 0; i < hdr.count; i++ {
			key, err := c.readInt()
			if err != nil {
				return 0, err
			}
			ch, err := c.readInt()
			if err != nil {
				return 0, err
			}
			if !found && key >= searchKey {
				child = ch
				found = true
			}
			if found {
				break
			}
			child = ch // last child seen so far is the fallback (all keys < searchKey)
		}
		if child == 0 {
			return 0, corruptf("bptree: empty inner node at page %d", page)
		}
		page = child
	}
}

// hashEntry is one (hash, payload) record in a string/value hash index
// leaf. payload is either an 8-byte file offset (string heap) or a 4-byte
// value id (value dictionary), per spec.md §4.2/§4.3.
type hashEntry struct {
	hash  uint32
	id    uint32 // value id, when payloadWidth==4
	value int64  // file offset, when payloadWidth==8
}

// collisionRun returns every hash-index entry whose hash equals hv,
// regardless of which leaf they land in at the boundary (collisions with
// equal hash are stored consecutively; spec.md §4.2 "collision list").
func (t *bptree) collisionRun(hv uint32) ([]hashEntry, error) {
	page, err := t.descend(hv)
	if err != nil {
		return nil, err
	}
	var out []hashEntry
	for page != 0 {
		entries, next, err := t.readHashLeaf(page)
		if err != nil {
			return nil, err
		}
		started := len(out) > 0
		for _, e := range entries {
			if e.hash == hv {
				out = append(out, e)
				started = true
			} else if started {
				return out, nil
			}
		}
		hdr, err := readNodeHeader(t.pf, page)
		if err != nil {
			return nil, err
		}
		if hdr.isLastLeaf() {
			break
		}
		page = next
	}
	return out, nil
}

// readHashLeaf decodes a flat, sorted-by-hash leaf of (hash:u32, width-byte
// payload) entries. The payload width is inferred from the leaf's declared
// entry stride, stored as the first byte after the header.
func (t *bptree) readHashLeaf(page uint32) (entries []hashEntry, nextPage uint32, err error) {
	hdr, err := readNodeHeader(t.pf, page)
	if err != nil {
		return nil, 0, err
	}
	c := t.pf.cursorAt(page)
	if _, err := c.readInt(); err != nil { // header word
		return nil, 0, err
	}
	width, err := c.readByte() // 4 (value id) or 8 (string offset)
	if err != nil {
		return nil, 0, err
	}
	entries = make([]hashEntry, 0, hdr.count)
	for i := 0; i < hdr.count; i++ {
		h, err := c.readInt()
		if err != nil {
			return nil, 0, err
		}
		var e hashEntry
		e.hash = h
		switch width {
		case 4:
			v, err := c.readInt()
			if err != nil {
				return nil, 0, err
			}
			e.id = v
		case 8:
			v, err := c.readLong()
			if err != nil {
				return nil, 0, err
			}
			e.value = int64(v)
		default:
			return nil, 0, corruptf("hash leaf: bad payload width %d", width)
		}
		entries = append(entries, e)
	}
	next := uint32(0)
	if !hdr.isLastLeaf() {
		next, err = t.pf.peekInt(t.pf.page(page) + int64(PageSize-4))
		if err != nil {
			return nil, 0, err
		}
	}
	return entries, next, nil
}

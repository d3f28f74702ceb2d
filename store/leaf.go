package store

// Triple is a (subject, predicate, object) tuple of value-ids
// (spec.md §3.3), ordered according to whatever Order produced it.
type Triple struct {
	S, P, O uint32
}

// component returns the i-th component in SPO order (0=S,1=P,2=O).
func (t Triple) component(i int) uint32 {
	switch i {
	case 0:
		return t.S
	case 1:
		return t.P
	default:
		return t.O
	}
}

// permute reorders a canonical (S,P,O) triple into the column order Order
// uses as its sort key, returning the three components in that order.
func permute(o Order, t Triple) (c1, c2, c3 uint32) {
	switch o {
	case OrderSPO:
		return t.S, t.P, t.O
	case OrderSOP:
		return t.S, t.O, t.P
	case OrderPSO:
		return t.P, t.S, t.O
	case OrderPOS:
		return t.P, t.O, t.S
	case OrderOSP:
		return t.O, t.S, t.P
	default: // OrderOPS
		return t.O, t.P, t.S
	}
}

func unpermute(o Order, c1, c2, c3 uint32) Triple {
	switch o {
	case OrderSPO:
		return Triple{c1, c2, c3}
	case OrderSOP:
		return Triple{c1, c3, c2}
	case OrderPSO:
		return Triple{c2, c1, c3}
	case OrderPOS:
		return Triple{c3, c1, c2}
	case OrderOSP:
		return Triple{c2, c3, c1}
	default: // OrderOPS
		return Triple{c3, c2, c1}
	}
}

// deltaCase encodes, for header bytes >= 128, which components reset to an
// absolute value and the byte width of each of the (up to three) deltas
// that follow, per spec.md §4.4.2. Table index is the low 7 bits of the
// header byte.
type deltaCase struct {
	resetC1, resetC2 bool
	w1, w2, w3       int // 0 means "component unchanged, no delta follows"
}

// deltaCaseTable holds every reachable (resetC1, resetC2, w1, w2, w3)
// combination encodeDelta can produce. widthOf only ever returns one of
// {0, 1, 2, 4} (the 3-byte range is rounded up to 4 to keep the cross
// product small enough to index with 7 bits), and encodeDelta's own
// invariants force w1/w2 to 0 whenever the matching component isn't reset:
// resetC1 == false means d1 == nc1-c1 == 0 (c1 unchanged), and resetC2 ==
// false means d2 == 0 the same way. That leaves three reachable
// (resetC1, resetC2) shapes: (false, false), (false, true) and
// (true, true) -- resetC1 == true forces resetC2 == true, so (true, false)
// never occurs.
//
// Because the table is exhaustive over what encodeDelta can actually emit,
// findCaseIndex always finds an exact match; deltaWidestIndex exists purely
// as a defensive fallback.
var deltaCaseTable = buildDeltaCaseTable()

// deltaWidestIndex maps each reachable (resetC1, resetC2) pair to the index
// of its widest (safest) table entry, for findCaseIndex's fallback.
var deltaWidestIndex = map[[2]bool]int{}

func buildDeltaCaseTable() [128]deltaCase {
	var t [128]deltaCase
	i := 0
	widths := []int{0, 1, 2, 4}
	add := func(resetC1, resetC2 bool, w1, w2, w3 int) {
		t[i] = deltaCase{resetC1, resetC2, w1, w2, w3}
		deltaWidestIndex[[2]bool{resetC1, resetC2}] = i
		i++
	}

	// resetC1=false, resetC2=false: c1 and c2 are unchanged (d1=d2=0), so
	// this branch is only reached when the single-byte fast path overflows
	// -- d3 is then always >= 128, never width 0.
	for _, w3 := range []int{1, 2, 4} {
		add(false, false, 0, 0, w3)
	}

	// resetC1=false, resetC2=true: c1 stays put (d1=0), c2 jumps to a new
	// absolute value, and c3 resets into the new group's own range.
	for _, w2 := range widths {
		for _, w3 := range widths {
			add(false, true, 0, w2, w3)
		}
	}

	// resetC1=true (which forces resetC2=true): c1, c2 and c3 all reset to
	// new absolute/relative values.
	for _, w1 := range widths {
		for _, w2 := range widths {
			for _, w3 := range widths {
				add(true, true, w1, w2, w3)
			}
		}
	}

	if i > len(t) {
		panic("deltaCaseTable: curated case set no longer fits in 128 entries")
	}
	// Unused trailing slots are never produced by findCaseIndex (it only
	// ever returns an index < i, or the deltaWidestIndex fallback, both of
	// which point at a populated entry) and never looked up by decode
	// either, since a header byte's low 7 bits only select an index decode
	// actually wrote.
	return t
}

// encodeLeafTriples compresses a page-ordered run of triples (already sorted
// under the target Order) into the spec.md §4.4.2 byte stream, stopping
// before exceeding maxBytes. Returns the encoded bytes and the count of
// triples actually packed.
func encodeLeafTriples(o Order, triples []Triple, maxBytes int) ([]byte, int) {
	buf := make([]byte, 0, maxBytes)
	if len(triples) == 0 {
		return buf, 0
	}
	c1, c2, c3 := permute(o, triples[0])
	buf = appendU32(buf, c1)
	buf = appendU32(buf, c2)
	buf = appendU32(buf, c3)
	n := 1
	for n < len(triples) {
		nc1, nc2, nc3 := permute(o, triples[n])
		enc, ok := encodeDelta(c1, c2, c3, nc1, nc2, nc3)
		if len(buf)+len(enc) > maxBytes-1 { // leave room for terminating zero byte
			break
		}
		buf = append(buf, enc...)
		c1, c2, c3 = nc1, nc2, nc3
		n++
	}
	buf = append(buf, 0) // end of page
	return buf, n
}

func encodeDelta(c1, c2, c3, nc1, nc2, nc3 uint32) ([]byte, bool) {
	if nc1 == c1 && nc2 == c2 && nc3 > c3 && nc3-c3 < 128 {
		return []byte{byte(nc3 - c3)}, true
	}
	resetC1 := nc1 != c1
	resetC2 := resetC1 || nc2 != c2
	var d1, d2 uint32
	if resetC1 {
		d1 = nc1 - 1
	} else {
		d1 = nc1 - c1
	}
	if resetC2 {
		d2 = nc2 - 1
	} else {
		d2 = nc2 - c2
	}
	d3 := nc3 - c3
	w1, w2, w3 := widthOf(d1), widthOf(d2), widthOf(d3)
	if !resetC1 && d1 == 0 {
		w1 = 0
	}
	if !resetC2 && d2 == 0 {
		w2 = 0
	}
	caseIdx := findCaseIndex(resetC1, resetC2, w1, w2, w3)
	// Write widths from the table entry actually selected, not the locally
	// computed w1/w2/w3: when findCaseIndex falls back to a wider case than
	// requested, the header byte and the bytes that follow it must still
	// agree, or decode reads the wrong number of delta bytes.
	dc := deltaCaseTable[caseIdx]
	out := []byte{0x80 | byte(caseIdx)}
	out = appendWidth(out, d1, dc.w1)
	out = appendWidth(out, d2, dc.w2)
	out = appendWidth(out, d3, dc.w3)
	return out, true
}

// widthOf classifies v into one of the four byte widths deltaCaseTable
// curates for (0, 1, 2 or 4 bytes); the 3-byte range is rounded up to 4.
func widthOf(v uint32) int {
	switch {
	case v == 0:
		return 0
	case v < 1<<8:
		return 1
	case v < 1<<16:
		return 2
	default:
		return 4
	}
}

// findCaseIndex looks up the exact (resetC1, resetC2, w1, w2, w3) case
// encodeDelta computed. deltaCaseTable is built to cover every combination
// widthOf and encodeDelta's reset rules can produce, so this always
// succeeds; the deltaWidestIndex lookup is a defensive fallback that widens
// to 4 bytes per component rather than silently picking the wrong
// resetC1/resetC2 flags.
func findCaseIndex(resetC1, resetC2 bool, w1, w2, w3 int) int {
	for i, dc := range deltaCaseTable {
		if dc.resetC1 == resetC1 && dc.resetC2 == resetC2 && dc.w1 == w1 && dc.w2 == w2 && dc.w3 == w3 {
			return i
		}
	}
	return deltaWidestIndex[[2]bool{resetC1, resetC2}]
}

func appendWidth(b []byte, v uint32, w int) []byte {
	switch w {
	case 0:
		return b
	case 1:
		return append(b, byte(v))
	case 2:
		return append(b, byte(v>>8), byte(v))
	case 3:
		return append(b, byte(v>>16), byte(v>>8), byte(v))
	default:
		return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
	}
}

func appendU32(b []byte, v uint32) []byte {
	return append(b, byte(v>>24), byte(v>>16), byte(v>>8), byte(v))
}

// decodeLeafTriples decompresses a leaf page's data stream (everything after
// the 4-byte node header) back into Triples in Order's sort order
// (spec.md §4.4.2).
func decodeLeafTriples(o Order, pf *pagedFile, page uint32) ([]Triple, error) {
	c := pf.cursorAt(page)
	if _, err := c.readInt(); err != nil { // node header
		return nil, err
	}
	c1, err := c.readInt()
	if err != nil {
		return nil, err
	}
	c2, err := c.readInt()
	if err != nil {
		return nil, err
	}
	c3, err := c.readInt()
	if err != nil {
		return nil, err
	}
	out := []Triple{unpermute(o, c1, c2, c3)}

	for {
		b, err := c.readByte()
		if err != nil {
			return nil, err
		}
		if b == 0 {
			break
		}
		if b < 128 {
			c3 += uint32(b)
			out = append(out, unpermute(o, c1, c2, c3))
			continue
		}
		dc := deltaCaseTable[b&0x7f]
		d1, err := readWidth(c, dc.w1)
		if err != nil {
			return nil, err
		}
		d2, err := readWidth(c, dc.w2)
		if err != nil {
			return nil, err
		}
		d3, err := readWidth(c, dc.w3)
		if err != nil {
			return nil, err
		}
		if dc.resetC1 {
			c1 = d1 + 1
		} else {
			c1 += d1
		}
		if dc.resetC2 {
			c2 = d2 + 1
		} else {
			c2 += d2
		}
		c3 += d3
		out = append(out, unpermute(o, c1, c2, c3))
	}
	return out, nil
}

func readWidth(c *cursor, w int) (uint32, error) {
	if w == 0 {
		return 0, nil
	}
	return c.readDelta(w)
}

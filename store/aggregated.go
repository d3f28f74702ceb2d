package store

// Aggregated leaves store one (c1, c2, count) record per distinct (c1,c2)
// key, in key order (spec.md §4.4.6). Fully aggregated leaves are the same
// shape with c2 fixed at 0 (unused).
//
// Layout: the 4-byte node header, whose low 3 bytes hold the record count,
// then that many records of (c1:u32, c2:u32, groupCount:u32), and a 4-byte
// next-page number in the page's last 4 bytes. Records are kept
// uncompressed (unlike triple
// leaves) since aggregated trees are far smaller than the raw triple table
// and the builder never needs to squeeze them into the same page budget.
func aggregatedTreeLookup(pf *pagedFile, root uint32, c1, c2 uint32) (uint64, error) {
	if root == 0 {
		return 0, nil
	}
	tree := newBPTree(pf, root)
	page, err := tree.descend(c1)
	if err != nil {
		return 0, err
	}
	for page != 0 {
		hdr, err := readNodeHeader(pf, page)
		if err != nil {
			return 0, err
		}
		c := pf.cursorAt(page)
		if _, err := c.readInt(); err != nil {
			return 0, err
		}
		for i := 0; i < hdr.count; i++ {
			k1, err := c.readInt()
			if err != nil {
				return 0, err
			}
			k2, err := c.readInt()
			if err != nil {
				return 0, err
			}
			cnt, err := c.readInt()
			if err != nil {
				return 0, err
			}
			if k1 == c1 && k2 == c2 {
				return uint64(cnt), nil
			}
			if k1 > c1 || (k1 == c1 && k2 > c2) {
				return 0, nil
			}
		}
		if hdr.isLastLeaf() {
			return 0, nil
		}
		next, err := pf.peekInt(pf.page(page) + int64(PageSize-4))
		if err != nil {
			return 0, err
		}
		page = next
	}
	return 0, nil
}

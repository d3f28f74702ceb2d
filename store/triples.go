package store

// Pattern is a triple query pattern; each component is either a bound
// value-id (> 0) or Wildcard (0), per spec.md §4.4.4. Id 0 is reserved for
// "unknown" (spec.md §3.1), so it doubles safely as the wildcard sentinel:
// a bound pattern component is never legitimately 0.
const Wildcard = 0

type Pattern struct {
	S, P, O uint32
}

func (p Pattern) boundCount() int {
	n := 0
	if p.S != Wildcard {
		n++
	}
	if p.P != Wildcard {
		n++
	}
	if p.O != Wildcard {
		n++
	}
	return n
}

// orderFor picks the order whose first k bound components form a key
// prefix (spec.md §4.4.4 step 1), preferring, among ties, the order with
// the smaller leaf range (a cheap proxy for "smaller index").
func orderFor(p Pattern, orders [orderCount]orderIndex) Order {
	bestOrder := OrderSPO
	bestPrefix := -1
	bestRange := ^uint32(0)
	for o := Order(0); o < orderCount; o++ {
		c1, c2, c3 := permute(o, Triple{p.S, p.P, p.O})
		prefix := 0
		if c1 != Wildcard {
			prefix++
			if c2 != Wildcard {
				prefix++
				if c3 != Wildcard {
					prefix++
				}
			}
		}
		rng := orders[o].end - orders[o].begin
		if prefix > bestPrefix || (prefix == bestPrefix && rng < bestRange) {
			bestPrefix = prefix
			bestRange = rng
			bestOrder = o
		}
	}
	return bestOrder
}

// keyRange computes (lo, hi) under order o for the bound prefix of pattern
// p (spec.md §4.4.4 step 2). Unbound trailing components widen the range to
// [0, maxUint32] in that column.
func keyRange(o Order, p Pattern) (lo, hi Triple) {
	c1, c2, c3 := permute(o, Triple{p.S, p.P, p.O})
	loC := [3]uint32{c1, c2, c3}
	hiC := [3]uint32{c1, c2, c3}
	const maxU32 = ^uint32(0)
	seenWildcard := false
	for i := 0; i < 3; i++ {
		if loC[i] == Wildcard {
			seenWildcard = true
			loC[i] = 0
			hiC[i] = maxU32
		} else if seenWildcard {
			// a bound component after a wildcard cannot form a prefix;
			// orderFor never selects such an order, but guard anyway.
			loC[i] = 0
			hiC[i] = maxU32
		}
	}
	lo = unpermute(o, loC[0], loC[1], loC[2])
	hi = unpermute(o, hiC[0], hiC[1], hiC[2])
	return lo, hi
}

func tripleLess(o Order, a, b Triple) bool {
	a1, a2, a3 := permute(o, a)
	b1, b2, b3 := permute(o, b)
	if a1 != b1 {
		return a1 < b1
	}
	if a2 != b2 {
		return a2 < b2
	}
	return a3 < b3
}

func tripleLessEq(o Order, a, b Triple) bool {
	return !tripleLess(o, b, a)
}

// RangeIterator walks a contiguous key range over one order index
// (spec.md §4.4.4).
type RangeIterator struct {
	pf    *pagedFile
	cache *TripleCache
	order Order
	hi    Triple

	line *cacheLine
	pos  int
	done bool
	err  error
}

func (s *Store) queryTriples(p Pattern) (*RangeIterator, error) {
	o := orderFor(p, s.hdr.orders)
	lo, hi := keyRange(o, p)
	it := &RangeIterator{pf: s.pf, cache: s.cache, order: o, hi: hi}
	if err := it.seek(s.hdr.orders[o], lo); err != nil {
		it.err = err
	}
	return it, it.err
}

// seek descends to the first leaf whose last key >= lo (spec.md §4.4.4
// step 3), then advances the in-line position past triples < lo.
func (it *RangeIterator) seek(oi orderIndex, lo Triple) error {
	key1, _, _ := permute(it.order, lo)
	tree := newBPTree(it.pf, oi.indexRoot)
	page, err := tree.descend(key1)
	if err != nil {
		return err
	}
	line, err := it.cache.fetch(it.pf, it.order, page)
	if err != nil {
		return err
	}
	it.line = line
	it.pos = 0
	for it.pos < len(it.line.triples) && tripleLess(it.order, it.line.triples[it.pos], lo) {
		it.pos++
	}
	return it.advanceToNonEmptyLine()
}

func (it *RangeIterator) advanceToNonEmptyLine() error {
	for it.line != nil && it.pos >= len(it.line.triples) {
		if it.line.isLast {
			it.line = nil
			return nil
		}
		next, err := it.cache.fetch(it.pf, it.order, it.line.nextPage)
		if err != nil {
			return err
		}
		it.line = next
		it.pos = 0
	}
	return nil
}

// Next returns the next triple in O's order, or (Triple{}, false, nil) when
// the range is exhausted (spec.md §4.4.4 step 4).
func (it *RangeIterator) Next() (Triple, bool, error) {
	if it.err != nil {
		return Triple{}, false, it.err
	}
	if it.done || it.line == nil {
		return Triple{}, false, nil
	}
	t := it.line.triples[it.pos]
	if !tripleLessEq(it.order, t, it.hi) {
		it.done = true
		return Triple{}, false, nil
	}
	it.pos++
	if err := it.advanceToNonEmptyLine(); err != nil {
		it.err = err
		return Triple{}, false, err
	}
	return t, true, nil
}

// countTriples returns the number of matching triples, using an aggregated
// or fully-aggregated index in O(log n) when the pattern permits, else
// scanning the range (spec.md §6.2, §4.4.6).
func (s *Store) countTriples(p Pattern) (uint64, error) {
	o := orderFor(p, s.hdr.orders)
	bound := p.boundCount()
	switch bound {
	case 3:
		it, err := s.queryTriples(p)
		if err != nil {
			return 0, err
		}
		_, ok, err := it.Next()
		if err != nil {
			return 0, err
		}
		if ok {
			return 1, nil
		}
		return 0, nil
	case 2:
		c1, c2, _ := permute(o, Triple{p.S, p.P, p.O})
		return s.aggregatedLookup(o, c1, c2)
	case 1:
		if c, ok := s.fullyAggregatedOrder(o); ok {
			c1, _, _ := permute(o, Triple{p.S, p.P, p.O})
			return s.fullyAggregatedLookup(c, c1)
		}
		fallthrough
	default:
		it, err := s.queryTriples(p)
		if err != nil {
			return 0, err
		}
		var n uint64
		for {
			_, ok, err := it.Next()
			if err != nil {
				return 0, err
			}
			if !ok {
				break
			}
			n++
		}
		return n, nil
	}
}

func (s *Store) fullyAggregatedOrder(o Order) (uint32, bool) {
	switch o {
	case OrderSPO:
		return s.hdr.fullyAggSPO, true
	case OrderPSO:
		return s.hdr.fullyAggPSO, true
	case OrderOSP:
		return s.hdr.fullyAggOSP, true
	default:
		return 0, false
	}
}

// aggregatedLookup reads the group count for a (c1,c2) prefix from O's
// aggregated B+-tree (spec.md §4.4.6).
func (s *Store) aggregatedLookup(o Order, c1, c2 uint32) (uint64, error) {
	root := s.hdr.orders[o].aggregatedRoot
	return aggregatedTreeLookup(s.pf, root, c1, c2)
}

func (s *Store) fullyAggregatedLookup(root uint32, c1 uint32) (uint64, error) {
	return aggregatedTreeLookup(s.pf, root, c1, 0)
}

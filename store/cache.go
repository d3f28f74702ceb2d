package store

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// cacheLine is one decompressed leaf page plus the neighboring page numbers
// recorded in its header, so the range iterator can walk forward without
// re-descending the tree (spec.md §4.4.5).
type cacheLine struct {
	order    Order
	page     uint32
	triples  []Triple
	prevPage uint32
	nextPage uint32
	isFirst  bool
	isLast   bool
}

// TripleCache is an LRU cache of decompressed leaf pages with a fixed
// capacity (spec.md §4.4.5). It is per-Store and not safe for concurrent use
// (spec.md §5).
type TripleCache struct {
	c       *lru.Cache[cacheKey, *cacheLine]
	hits    uint64
	misses  uint64
}

type cacheKey struct {
	order Order
	page  uint32
}

// DefaultCacheCapacity matches spec.md §2's "fixed capacity (e.g. 100)".
const DefaultCacheCapacity = 100

func newTripleCache(capacity int) *TripleCache {
	c, _ := lru.New[cacheKey, *cacheLine](capacity)
	return &TripleCache{c: c}
}

// fetch returns the decompressed line for (order, page), loading and
// decompressing it on a miss (spec.md §4.4.5).
func (tc *TripleCache) fetch(pf *pagedFile, order Order, page uint32) (*cacheLine, error) {
	key := cacheKey{order, page}
	if line, ok := tc.c.Get(key); ok {
		tc.hits++
		return line, nil
	}
	tc.misses++
	triples, err := decodeLeafTriples(order, pf, page)
	if err != nil {
		return nil, err
	}
	hdr, err := readNodeHeader(pf, page)
	if err != nil {
		return nil, err
	}
	line := &cacheLine{
		order:   order,
		page:    page,
		triples: triples,
		isFirst: hdr.isFirstLeaf(),
		isLast:  hdr.isLastLeaf(),
	}
	if !line.isLast {
		next, err := pf.peekInt(pf.page(page) + int64(PageSize-4))
		if err != nil {
			return nil, err
		}
		line.nextPage = next
	}
	if !line.isFirst {
		prev, err := pf.peekInt(pf.page(page) + int64(PageSize-8))
		if err != nil {
			return nil, err
		}
		line.prevPage = prev
	}
	tc.c.Add(key, line)
	return line, nil
}

// Stats mirrors spec.md §8's "hits+misses equals the number of fetch calls"
// testable property.
func (tc *TripleCache) Stats() (hits, misses uint64, size int) {
	return tc.hits, tc.misses, tc.c.Len()
}

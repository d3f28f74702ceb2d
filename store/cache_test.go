package store

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/boutros/castor/castorld"
)

// TestTripleCacheEvictsAtCapacity exercises the LRU wrapper's capacity bound
// directly (spec.md §4.4.5 "fixed capacity"): adding one more line than the
// cache can hold evicts the least recently touched one.
func TestTripleCacheEvictsAtCapacity(t *testing.T) {
	tc := newTripleCache(2)

	a := cacheKey{order: OrderSPO, page: 1}
	b := cacheKey{order: OrderSPO, page: 2}
	c := cacheKey{order: OrderSPO, page: 3}

	tc.c.Add(a, &cacheLine{order: OrderSPO, page: 1})
	tc.c.Add(b, &cacheLine{order: OrderSPO, page: 2})
	if tc.c.Len() != 2 {
		t.Fatalf("cache holds %d lines after 2 adds at capacity 2, want 2", tc.c.Len())
	}

	// Touch a so it is the most-recently-used; b is next in line for eviction.
	tc.c.Get(a)
	tc.c.Add(c, &cacheLine{order: OrderSPO, page: 3})
	if tc.c.Len() != 2 {
		t.Fatalf("cache holds %d lines after eviction, want 2", tc.c.Len())
	}
	if _, ok := tc.c.Get(b); ok {
		t.Fatal("page 2 survived eviction; it was the least recently used entry")
	}
	if _, ok := tc.c.Get(a); !ok {
		t.Fatal("page 1 was evicted despite being touched most recently")
	}
	if _, ok := tc.c.Get(c); !ok {
		t.Fatal("page 3, the entry just added, is missing")
	}
}

// TestTripleCacheHitsAndMisses exercises spec.md §8's "hits+misses equals the
// number of fetch calls" property against a real store and a real fetch path,
// rather than the fabricated cacheLine values TestTripleCacheEvictsAtCapacity
// uses to isolate the eviction policy.
func TestTripleCacheHitsAndMisses(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "cache.db")
	out, err := os.Create(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	input := "<http://ex/a> <http://ex/p> <http://ex/b> .\n" +
		"<http://ex/a> <http://ex/p> <http://ex/c> .\n"
	opts := castorld.Options{ScratchDir: filepath.Join(dir, "scratch")}
	if err := castorld.Build(bytes.NewBufferString(input), out, opts); err != nil {
		out.Close()
		t.Fatalf("Build: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	drain := func() {
		it, err := s.QueryTriples(Pattern{})
		if err != nil {
			t.Fatalf("QueryTriples: %v", err)
		}
		for {
			_, ok, err := it.Next()
			if err != nil {
				t.Fatalf("Next: %v", err)
			}
			if !ok {
				break
			}
		}
	}

	drain()
	hits1, misses1, _ := s.CacheStats()
	if hits1+misses1 == 0 {
		t.Fatal("no fetch was recorded by the first scan")
	}

	drain()
	hits2, misses2, _ := s.CacheStats()
	if hits2 <= hits1 {
		t.Fatalf("second scan of the same single-page fixture recorded no new hits: %d -> %d", hits1, hits2)
	}
	if misses2 != misses1 {
		t.Fatalf("second scan of an already-cached page recorded a new miss: %d -> %d", misses1, misses2)
	}
}

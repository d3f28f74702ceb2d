package castorld

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/boutros/castor/store"
)

// TestBuildAndQuery exercises the builder end to end against spec.md §8
// scenario 1: three triples (:a :p :b), (:a :p :c), (:a :q :b), checked via
// the store's own read path rather than by poking at page bytes.
func TestBuildAndQuery(t *testing.T) {
	input := "<a> <p> <b> .\n<a> <p> <c> .\n<a> <q> <b> .\n"
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	out, err := os.Create(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{ScratchDir: filepath.Join(dir, "scratch")}
	if err := Build(bytes.NewBufferString(input), out, opts); err != nil {
		out.Close()
		t.Fatalf("Build: %v", err)
	}
	if err := out.Close(); err != nil {
		t.Fatal(err)
	}

	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	defer s.Close()

	if got := s.TriplesCount(); got != 3 {
		t.Fatalf("TriplesCount() = %d, want 3", got)
	}

	it, err := s.QueryTriples(store.Pattern{})
	if err != nil {
		t.Fatalf("QueryTriples: %v", err)
	}
	var all []store.Triple
	for {
		tr, ok, err := it.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !ok {
			break
		}
		all = append(all, tr)
	}
	if len(all) != 3 {
		t.Fatalf("QueryTriples((*,*,*)) yielded %d triples, want 3", len(all))
	}

	aID, err := s.FindString([]byte("a"))
	if err != nil {
		t.Fatalf("FindString: %v", err)
	}
	if aID == 0 {
		t.Fatal(`string "a" not found`)
	}
	av, err := s.FindValueID(store.Value{Category: store.CatIRI, Lexical: store.StringRef(aID)})
	if err != nil {
		t.Fatalf("FindValueID: %v", err)
	}
	if av == 0 {
		t.Fatal("value for <a> not found")
	}

	n, err := s.CountTriples(store.Pattern{S: av})
	if err != nil {
		t.Fatalf("CountTriples: %v", err)
	}
	if n != 3 {
		t.Fatalf("CountTriples((a,*,*)) = %d, want 3", n)
	}

	pID, err := s.FindString([]byte("p"))
	if err != nil {
		t.Fatalf("FindString: %v", err)
	}
	pv, err := s.FindValueID(store.Value{Category: store.CatIRI, Lexical: store.StringRef(pID)})
	if err != nil {
		t.Fatalf("FindValueID: %v", err)
	}

	n, err = s.CountTriples(store.Pattern{S: av, P: pv})
	if err != nil {
		t.Fatalf("CountTriples: %v", err)
	}
	if n != 2 {
		t.Fatalf("CountTriples((a,p,*)) = %d, want 2", n)
	}

	if id, err := s.FindString([]byte("nowhere")); err != nil || id != 0 {
		t.Fatalf("FindString(missing) = (%d, %v), want (0, nil)", id, err)
	}
}

package solver

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/boutros/castor/castorld"
	"github.com/boutros/castor/store"
)

// buildFixtureStore runs the real builder over a tiny N-Triples stream and
// opens the result, giving Statement a store.Store to query against rather
// than a fake (spec.md §8 scenario 1's three-triple graph).
func buildFixtureStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "fixture.db")
	out, err := os.Create(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	input := "<a> <p> <b> .\n<a> <p> <c> .\n<a> <q> <b> .\n"
	opts := castorld.Options{ScratchDir: filepath.Join(dir, "scratch")}
	if err := castorld.Build(bytes.NewBufferString(input), out, opts); err != nil {
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
	t.Cleanup(func() { s.Close() })
	return s
}

func valueID(t *testing.T, s *store.Store, lexical string) uint32 {
	t.Helper()
	lexID, err := s.FindString([]byte(lexical))
	if err != nil {
		t.Fatal(err)
	}
	if lexID == 0 {
		t.Fatalf("string %q not found", lexical)
	}
	id, err := s.FindValueID(store.Value{Category: store.CatIRI, Lexical: store.StringRef(lexID)})
	if err != nil {
		t.Fatal(err)
	}
	if id == 0 {
		t.Fatalf("value for %q not found", lexical)
	}
	return id
}

// TestPostStatementBoundSubject exercises spec.md §8 scenario 2: binding the
// subject of (?s, ?p, ?o) to <a> and searching for every (p,o) pair yields
// exactly the three matching triples (two with <p>, one with <q>), with ?p
// and ?o pruned to their support.
func TestPostStatementBoundSubject(t *testing.T) {
	s := buildFixtureStore(t)
	a := valueID(t, s, "a")
	maxID := int(s.ValuesCount())

	sol := NewSolver()
	sv := NewDiscVar(sol.Trail(), a, a)
	pv := NewDiscVar(sol.Trail(), 1, maxID)
	ov := NewDiscVar(sol.Trail(), 1, maxID)

	if !PostStatement(sol, s, sv, pv, ov) {
		t.Fatal("PostStatement returned false for a satisfiable pattern")
	}

	var solutions int
	sub := NewSubtree([]Var{pv, ov}, HeuristicSmallestDomain, nil)
	sub.Search(sol, func() bool {
		solutions++
		return false
	})
	if solutions != 3 {
		t.Fatalf("(<a>,?p,?o) produced %d solutions, want 3", solutions)
	}
}

// TestPostStatementUnsatisfiable checks a pattern naming a subject/predicate
// pair absent from the store fails to post at all.
func TestPostStatementUnsatisfiable(t *testing.T) {
	s := buildFixtureStore(t)
	a := valueID(t, s, "a")
	q := valueID(t, s, "q")
	c := valueID(t, s, "c")

	sol := NewSolver()
	sv := NewDiscVar(sol.Trail(), a, a)
	pv := NewDiscVar(sol.Trail(), q, q)
	ov := NewDiscVar(sol.Trail(), c, c)

	if PostStatement(sol, s, sv, pv, ov) {
		t.Fatal("PostStatement returned true for (<a>,<q>,<c>), which is not in the store")
	}
}

// TestPostFilter exercises post_filter directly (spec.md §2, §295), using an
// equality predicate rather than Diff's specialized inequality.
func TestPostFilter(t *testing.T) {
	sol := NewSolver()
	a := NewDiscVar(sol.Trail(), 1, 2)
	b := NewDiscVar(sol.Trail(), 1, 2)

	ok := PostFilter(sol, []Var{a, b}, func(sv *Solver) bool {
		return a.Min() == b.Min()
	})
	if !ok {
		t.Fatal("PostFilter returned false at post time")
	}

	var solutions int
	sub := NewSubtree([]Var{a, b}, HeuristicSmallestDomain, nil)
	sub.Search(sol, func() bool {
		solutions++
		return false
	})
	if solutions != 2 {
		t.Fatalf("FILTER(a == b) over two 2-valued domains produced %d solutions, want 2", solutions)
	}
}

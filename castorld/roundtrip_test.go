package castorld

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/boutros/castor/store"
)

// TestBuildAndQueryMultiSubjectRoundTrip exercises spec.md §8's per-order
// round-trip property ("yielded triples equal the filtered raw table")
// against a dataset with more than one subject, unlike TestBuildAndQuery's
// single-subject fixture. The objects are arranged so that under an
// object-leading order (OSP/OPS) two triples share an object before a third
// introduces a new one -- the same "2,2,3" shape spec.md §8 scenario 1's own
// data produces, which is exactly where a leaf page's first sort component
// changes mid-page and a delta case must encode a reset rather than a plain
// increment.
func TestBuildAndQueryMultiSubjectRoundTrip(t *testing.T) {
	type triple struct{ s, p, o string }
	input := []triple{
		{"s1", "p", "o1"},
		{"s2", "p", "o1"},
		{"s3", "p", "o2"},
		{"s3", "q", "o2"},
	}

	var buf bytes.Buffer
	for _, tr := range input {
		fmt.Fprintf(&buf, "<%s> <%s> <%s> .\n", tr.s, tr.p, tr.o)
	}

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	out, err := os.Create(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	opts := Options{ScratchDir: filepath.Join(dir, "scratch")}
	if err := Build(&buf, out, opts); err != nil {
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

	if got := s.TriplesCount(); uint64(len(input)) != got {
		t.Fatalf("TriplesCount() = %d, want %d", got, len(input))
	}

	iriID := func(lex string) uint32 {
		t.Helper()
		lexID, err := s.FindString([]byte(lex))
		if err != nil {
			t.Fatal(err)
		}
		if lexID == 0 {
			t.Fatalf("string %q not found", lex)
		}
		id, err := s.FindValueID(store.Value{Category: store.CatIRI, Lexical: store.StringRef(lexID)})
		if err != nil {
			t.Fatal(err)
		}
		if id == 0 {
			t.Fatalf("value for %q not found", lex)
		}
		return id
	}

	want := make(map[[3]uint32]int)
	for _, tr := range input {
		want[[3]uint32{iriID(tr.s), iriID(tr.p), iriID(tr.o)}]++
	}

	scan := func(name string, p store.Pattern) map[[3]uint32]int {
		t.Helper()
		it, err := s.QueryTriples(p)
		if err != nil {
			t.Fatalf("%s: QueryTriples: %v", name, err)
		}
		got := make(map[[3]uint32]int)
		for {
			tr, ok, err := it.Next()
			if err != nil {
				t.Fatalf("%s: Next: %v", name, err)
			}
			if !ok {
				break
			}
			got[[3]uint32{tr.S, tr.P, tr.O}]++
		}
		return got
	}

	// An unbound pattern, a subject-bound pattern (forces an S-leading
	// order), a predicate-bound pattern (forces a P-leading order) and an
	// object-bound pattern (forces an O-leading order, the one directly
	// exercising the "2,2,3" resetC1 transition) between them drive a decode
	// through S-, P- and O-leading indexes; the unbound pattern reads
	// whichever order has the smallest leaf range.
	cases := map[string]store.Pattern{
		"wildcard":       {},
		"subject-bound":  {S: iriID("s3")},
		"predicate-bound": {P: iriID("p")},
		"object-bound":   {O: iriID("o1")},
	}
	for name, p := range cases {
		got := scan(name, p)
		expected := make(map[[3]uint32]int)
		for k, n := range want {
			if (p.S == store.Wildcard || p.S == k[0]) &&
				(p.P == store.Wildcard || p.P == k[1]) &&
				(p.O == store.Wildcard || p.O == k[2]) {
				expected[k] = n
			}
		}
		if !sameMultiset(got, expected) {
			t.Fatalf("%s: decoded %v, want %v", name, sortedKeys(got), sortedKeys(expected))
		}
	}
}

func sameMultiset(a, b map[[3]uint32]int) bool {
	if len(a) != len(b) {
		return false
	}
	for k, n := range a {
		if b[k] != n {
			return false
		}
	}
	return true
}

func sortedKeys(m map[[3]uint32]int) [][3]uint32 {
	keys := make([][3]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		if keys[i][1] != keys[j][1] {
			return keys[i][1] < keys[j][1]
		}
		return keys[i][2] < keys[j][2]
	})
	return keys
}

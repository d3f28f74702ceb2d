package castorld

import (
	"path/filepath"
	"testing"

	"github.com/boutros/castor/store"
)

func TestStringTableInternDedupsAndFinalizes(t *testing.T) {
	st, err := newStringTable(filepath.Join(t.TempDir(), "strings.bolt"))
	if err != nil {
		t.Fatal(err)
	}
	defer st.close()

	id1, err := st.Intern([]byte("b"))
	if err != nil {
		t.Fatal(err)
	}
	id2, err := st.Intern([]byte("a"))
	if err != nil {
		t.Fatal(err)
	}
	id1again, err := st.Intern([]byte("b"))
	if err != nil {
		t.Fatal(err)
	}
	if id1 != id1again {
		t.Fatalf("Intern(\"b\") twice gave different early ids: %d != %d", id1, id1again)
	}
	if id1 == id2 {
		t.Fatal("distinct strings interned to the same early id")
	}

	sorted, earlyToFinal, err := st.finalize()
	if err != nil {
		t.Fatal(err)
	}
	if len(sorted) != 2 {
		t.Fatalf("finalize() returned %d strings, want 2", len(sorted))
	}
	if string(sorted[0]) != "a" || string(sorted[1]) != "b" {
		t.Fatalf("finalize() not byte-sorted: %q", sorted)
	}
	if earlyToFinal[id2] != 1 || earlyToFinal[id1] != 2 {
		t.Fatalf("earlyToFinal mapping wrong: %v", earlyToFinal)
	}
}

func TestValueTableFinalizeOrdersByCategoryThenValue(t *testing.T) {
	vt, err := newValueTable(filepath.Join(t.TempDir(), "values.bolt"))
	if err != nil {
		t.Fatal(err)
	}
	defer vt.close()

	iriID, err := vt.Intern(earlyValue{rawValue: rawValue{Category: store.CatIRI, Lexical: "http://b"}, EarlyLexical: 1})
	if err != nil {
		t.Fatal(err)
	}
	blankID, err := vt.Intern(earlyValue{rawValue: rawValue{Category: store.CatBlank, Lexical: "_:x"}, EarlyLexical: 2})
	if err != nil {
		t.Fatal(err)
	}
	dupID, err := vt.Intern(earlyValue{rawValue: rawValue{Category: store.CatIRI, Lexical: "http://b"}, EarlyLexical: 1})
	if err != nil {
		t.Fatal(err)
	}
	if dupID != iriID {
		t.Fatalf("interning the same IRI twice gave different early ids: %d != %d", dupID, iriID)
	}

	strEarlyToFinal := map[uint64]uint32{1: 10, 2: 20}
	entries, categoryStart, earlyToFinal, err := vt.finalize(strEarlyToFinal)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("finalize() returned %d entries, want 2", len(entries))
	}
	// Blank sorts before IRI (spec.md §4.3 category ordering).
	if entries[0].Category != store.CatBlank || entries[1].Category != store.CatIRI {
		t.Fatalf("entries not category-ordered: %+v", entries)
	}
	if entries[1].FinalLexical != 10 {
		t.Fatalf("FinalLexical not resolved via strEarlyToFinal: got %d, want 10", entries[1].FinalLexical)
	}
	if categoryStart[store.CatBlank] != 1 || categoryStart[store.CatIRI] != 2 {
		t.Fatalf("categoryStart wrong: %v", categoryStart)
	}
	if earlyToFinal[blankID] != 1 || earlyToFinal[iriID] != 2 {
		t.Fatalf("earlyToFinal wrong: %v", earlyToFinal)
	}
}

package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/boutros/castor/castorld"
	"github.com/boutros/castor/store"
)

func TestParseQueryPrefixAndCurie(t *testing.T) {
	src := strings.NewReader(strings.Join([]string{
		"PREFIX ex: <http://example.org/>",
		"# a comment",
		"?s ex:p ?o",
		"FILTER ?s != ?o",
	}, "\n"))

	q, err := parseQuery(src)
	if err != nil {
		t.Fatalf("parseQuery: %v", err)
	}
	if len(q.patterns) != 1 {
		t.Fatalf("got %d patterns, want 1", len(q.patterns))
	}
	pred := q.patterns[0][1]
	if pred.kind != termIRI || pred.text != "http://example.org/p" {
		t.Fatalf("CURIE ex:p resolved to %+v, want IRI http://example.org/p", pred)
	}
	if len(q.filters) != 1 {
		t.Fatalf("got %d filters, want 1", len(q.filters))
	}
	if got := q.selectVars; len(got) != 2 || got[0] != "s" || got[1] != "o" {
		t.Fatalf("default SELECT order = %v, want [s o]", got)
	}
}

func TestParseQueryUnknownPrefixIsAnError(t *testing.T) {
	src := strings.NewReader("?s ex:p ?o")
	if _, err := parseQuery(src); err == nil {
		t.Fatal("expected an error for an undeclared CURIE prefix")
	}
}

// buildFixtureStore mirrors castorld/builder_test.go's round trip: a real
// store built from a tiny N-Triples stream rather than a stub.
func buildFixtureStore(t *testing.T) *store.Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "fixture.db")
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
	s, err := store.Open(dbPath)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// TestRunNeqFilter exercises spec.md §8 scenario 5: a triple pattern with
// a FILTER != specialized to post_diff prunes one of two otherwise-valid
// bindings.
func TestRunNeqFilter(t *testing.T) {
	s := buildFixtureStore(t)
	src := strings.NewReader(strings.Join([]string{
		"PREFIX ex: <http://ex/>",
		"SELECT ?o",
		"ex:a ex:p ?o",
		"FILTER ?o != ex:b",
	}, "\n"))

	q, err := parseQuery(src)
	if err != nil {
		t.Fatalf("parseQuery: %v", err)
	}

	var buf bytes.Buffer
	n, err := q.run(s, &buf)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 1 {
		t.Fatalf("got %d solutions, want 1", n)
	}
	if got := strings.TrimSpace(buf.String()); got != "ex:c" {
		t.Fatalf("solution = %q, want the CURIE-shrunk ex:c", got)
	}
}

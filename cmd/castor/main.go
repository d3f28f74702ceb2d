// Command castor runs a query against a store and prints its solutions
// (spec.md §6.3 "castor DB [QUERY]"). A full SPARQL parser and triple-
// pattern/filter compiler are named non-goals in spec.md (external
// collaborators whose interfaces only are pinned): this binary is the
// thin test harness spec.md asks for, not the compiler itself, so it reads
// a small line-oriented pattern language instead of real SPARQL and wires
// each line straight to solver.PostStatement/PostDiff.
//
// Query syntax, one clause per line:
//
//	PREFIX foo: <http://example.org/>   declare a CURIE prefix
//	SELECT ?x ?y                        select and order the printed variables
//	?s <http://p/1> ?o                  a triple pattern; terms are ?var,
//	?s foo:bar ?o                       <iri>, foo:bar (a declared CURIE),
//	                                    _:blank, or "literal"/"literal"@lang
//	FILTER ?x != ?y                     a post_diff between two variables
//	FILTER ?x != <iri>                  a post_diff between a variable and
//	                                    a constant
//	# comment                           ignored, as are blank lines
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/boutros/castor/rdf"
	"github.com/boutros/castor/solver"
	"github.com/boutros/castor/store"
)

func main() {
	var cacheCap int

	cmd := &cobra.Command{
		Use:   "castor DB [QUERY]",
		Short: "Run a query against a castor store and print its solutions",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := run(args, cacheCap, os.Stdin, os.Stdout)
			if err != nil {
				return err
			}
			fmt.Fprintf(os.Stderr, "%d solution(s)\n", n)
			return nil
		},
		SilenceUsage: true,
	}
	cmd.Flags().IntVar(&cacheCap, "cache", 0, "triple cache capacity in pages (0: store.DefaultCacheCapacity)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "castor:", err)
		os.Exit(2)
	}
}

// run opens args[0] as a store, reads a query program from args[1] (or
// stdin, per spec.md §6.3 "castor DB [QUERY]") and prints one line per
// solution to w.
func run(args []string, cacheCap int, stdin io.Reader, w io.Writer) (int, error) {
	src := stdin
	if len(args) == 2 {
		f, err := os.Open(args[1])
		if err != nil {
			return 0, fmt.Errorf("open query %s: %w", args[1], err)
		}
		defer f.Close()
		src = f
	}

	q, err := parseQuery(src)
	if err != nil {
		return 0, fmt.Errorf("parse query: %w", err)
	}

	var opts []store.Option
	if cacheCap > 0 {
		opts = append(opts, store.WithCacheCapacity(cacheCap))
	}
	s, err := store.Open(args[0], opts...)
	if err != nil {
		return 0, fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	start := time.Now()
	n, err := q.run(s, w)
	elapsed := time.Since(start)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(os.Stderr, "%s\n", elapsed)
	return n, nil
}

// query is the parsed form of a pattern-language program.
type query struct {
	prefixes   *rdf.PrefixMap
	selectVars []string // declared via SELECT, or nil for "every var seen, in order"
	patterns   [][3]term
	filters    []filter
}

type termKind int

const (
	termVar termKind = iota
	termIRI
	termBlank
	termLiteral
)

type term struct {
	kind termKind
	text string // variable name (without ?), IRI text, blank id, or literal body
	lang string
}

type filter struct {
	a, b term // b.kind==termVar for var-var, else a constant
}

func parseQuery(r io.Reader) (*query, error) {
	q := &query{prefixes: rdf.NewPrefixMap()}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		toks, err := tokenizeLine(line)
		if err != nil {
			return nil, err
		}
		switch {
		case strings.EqualFold(toks[0], "PREFIX"):
			if len(toks) != 3 || !strings.HasSuffix(toks[1], ":") ||
				!strings.HasPrefix(toks[2], "<") || !strings.HasSuffix(toks[2], ">") {
				return nil, fmt.Errorf("malformed PREFIX clause: %q", line)
			}
			prefix := strings.TrimSuffix(toks[1], ":")
			q.prefixes.Set(prefix, rdf.NewURI(toks[2][1:len(toks[2])-1]))
		case strings.EqualFold(toks[0], "SELECT"):
			for _, t := range toks[1:] {
				name := strings.TrimPrefix(t, "?")
				q.selectVars = append(q.selectVars, name)
			}
		case strings.EqualFold(toks[0], "FILTER"):
			if len(toks) != 4 || toks[2] != "!=" {
				return nil, fmt.Errorf("malformed FILTER clause: %q", line)
			}
			a, err := parseTerm(toks[1], q.prefixes)
			if err != nil {
				return nil, err
			}
			b, err := parseTerm(toks[3], q.prefixes)
			if err != nil {
				return nil, err
			}
			if a.kind != termVar {
				a, b = b, a
			}
			if a.kind != termVar {
				return nil, fmt.Errorf("FILTER needs at least one variable: %q", line)
			}
			q.filters = append(q.filters, filter{a, b})
		default:
			if len(toks) != 3 {
				return nil, fmt.Errorf("triple pattern needs 3 terms, got %d: %q", len(toks), line)
			}
			var pat [3]term
			for i, t := range toks {
				tm, err := parseTerm(t, q.prefixes)
				if err != nil {
					return nil, err
				}
				pat[i] = tm
			}
			q.patterns = append(q.patterns, pat)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(q.patterns) == 0 {
		return nil, fmt.Errorf("query has no triple patterns")
	}
	if q.selectVars == nil {
		q.selectVars = collectVarOrder(q.patterns)
	}
	return q, nil
}

func collectVarOrder(patterns [][3]term) []string {
	var order []string
	seen := map[string]bool{}
	for _, pat := range patterns {
		for _, t := range pat {
			if t.kind == termVar && !seen[t.text] {
				seen[t.text] = true
				order = append(order, t.text)
			}
		}
	}
	return order
}

// tokenizeLine splits on whitespace, keeping quoted literals (with a
// trailing @lang or not) intact as one token.
func tokenizeLine(line string) ([]string, error) {
	var toks []string
	i := 0
	for i < len(line) {
		for i < len(line) && line[i] == ' ' {
			i++
		}
		if i >= len(line) {
			break
		}
		if line[i] == '"' {
			j := i + 1
			for j < len(line) && line[j] != '"' {
				j++
			}
			if j >= len(line) {
				return nil, fmt.Errorf("unterminated literal in %q", line)
			}
			j++ // include closing quote
			for j < len(line) && line[j] == '@' {
				j++
				for j < len(line) && line[j] != ' ' {
					j++
				}
			}
			toks = append(toks, line[i:j])
			i = j
			continue
		}
		j := i
		for j < len(line) && line[j] != ' ' {
			j++
		}
		toks = append(toks, line[i:j])
		i = j
	}
	return toks, nil
}

// parseTerm parses a single pattern-language term. A bare token containing
// a colon that isn't a blank node label (_:x) is tried as a CURIE against
// prefixes before being rejected, mirroring rdf.PrefixMap.Resolve's own
// "prefix:local" convention.
func parseTerm(tok string, prefixes *rdf.PrefixMap) (term, error) {
	switch {
	case strings.HasPrefix(tok, "?"):
		return term{kind: termVar, text: strings.TrimPrefix(tok, "?")}, nil
	case strings.HasPrefix(tok, "<") && strings.HasSuffix(tok, ">"):
		return term{kind: termIRI, text: tok[1 : len(tok)-1]}, nil
	case strings.HasPrefix(tok, "_:"):
		return term{kind: termBlank, text: tok}, nil
	case strings.HasPrefix(tok, "\""):
		body := tok[1:]
		lang := ""
		if at := strings.IndexByte(body, '"'); at >= 0 {
			rest := body[at+1:]
			body = body[:at]
			if strings.HasPrefix(rest, "@") {
				lang = rest[1:]
			}
		} else {
			return term{}, fmt.Errorf("malformed literal %q", tok)
		}
		return term{kind: termLiteral, text: body, lang: lang}, nil
	case strings.Contains(tok, ":"):
		u, err := prefixes.Resolve(tok)
		if err != nil {
			return term{}, fmt.Errorf("unrecognized term %q: %w", tok, err)
		}
		return term{kind: termIRI, text: string(u)}, nil
	default:
		return term{}, fmt.Errorf("unrecognized term %q (want ?var, <iri>, prefix:local, _:blank or \"literal\")", tok)
	}
}

// run resolves every pattern/filter against s, searches for solutions, and
// writes one line per solution to w in the declared SELECT order.
func (q *query) run(s *store.Store, w io.Writer) (int, error) {
	sol := solver.NewSolver()
	vars := map[string]*solver.DiscVar{}
	maxID := int(s.ValuesCount())
	if maxID < 1 {
		maxID = 1
	}

	getVar := func(name string) *solver.DiscVar {
		if v, ok := vars[name]; ok {
			return v
		}
		v := solver.NewDiscVar(sol.Trail(), 1, maxID)
		vars[name] = v
		return v
	}

	// unsat is set once any constant term fails to resolve to a value id
	// already in the dictionary: the query can never match anything, which
	// is zero solutions, not an error.
	unsat := false

	markableFor := func(t term) (solver.Markable, error) {
		if t.kind == termVar {
			return getVar(t.text), nil
		}
		id, err := q.termToValueID(s, t)
		if err != nil {
			return nil, err
		}
		if id == 0 {
			unsat = true
			id = 1
		}
		return solver.NewDiscVar(sol.Trail(), int(id), int(id)), nil
	}

	for _, pat := range q.patterns {
		sm, err := markableFor(pat[0])
		if err != nil {
			return 0, err
		}
		pm, err := markableFor(pat[1])
		if err != nil {
			return 0, err
		}
		om, err := markableFor(pat[2])
		if err != nil {
			return 0, err
		}
		if unsat {
			return 0, nil
		}
		if !solver.PostStatement(sol, s, sm, pm, om) {
			return 0, nil // statically unsatisfiable: zero solutions, not an error
		}
	}

	for _, f := range q.filters {
		a := getVar(f.a.text)
		if f.b.kind == termVar {
			b := getVar(f.b.text)
			if !solver.PostDiffVars(sol, a, b) {
				return 0, nil
			}
			continue
		}
		id, err := q.termToValueID(s, f.b)
		if err != nil {
			return 0, err
		}
		if id == 0 {
			// The constant never occurs in the store: a FILTER != against
			// it is trivially true, so simply skip posting the diff.
			continue
		}
		if !solver.PostDiff(sol, a, int(id)) {
			return 0, nil
		}
	}

	searchVars := make([]solver.Var, 0, len(q.selectVars))
	for _, name := range q.selectVars {
		searchVars = append(searchVars, getVar(name))
	}
	sub := solver.NewSubtree(searchVars, solver.HeuristicSmallestDomain, nil)

	count := 0
	sub.Search(sol, func() bool {
		count++
		fields := make([]string, len(q.selectVars))
		for i, name := range q.selectVars {
			v, err := s.LookupValue(uint32(vars[name].Min()))
			if err != nil {
				fields[i] = fmt.Sprintf("<error: %v>", err)
				continue
			}
			fields[i] = formatValue(s, v, q.prefixes)
		}
		fmt.Fprintln(w, strings.Join(fields, "\t"))
		return false // keep searching: find_all_solutions
	})
	return count, nil
}

// termToValueID resolves a constant term to its store-assigned value id,
// via FindString for the lexical bytes and then FindValueID, mirroring the
// Lexical-for-every-category contract store.Store.FindValueID requires.
func (q *query) termToValueID(s *store.Store, t term) (uint32, error) {
	var v store.Value
	switch t.kind {
	case termIRI:
		v.Category = store.CatIRI
	case termBlank:
		v.Category = store.CatBlank
	case termLiteral:
		if t.lang != "" {
			v.Category = store.CatPlainStringWithLang
			langID, err := s.FindString([]byte(t.lang))
			if err != nil {
				return 0, err
			}
			v.LanguageTag = store.StringRef(langID)
		} else {
			v.Category = store.CatPlainString
		}
	default:
		return 0, fmt.Errorf("constant term required, got a variable")
	}
	lexID, err := s.FindString([]byte(t.text))
	if err != nil {
		return 0, err
	}
	if lexID == 0 {
		return 0, nil
	}
	v.Lexical = store.StringRef(lexID)
	return s.FindValueID(v)
}

// formatValue renders a resolved Value for the solutions table, shrinking
// IRIs to a declared CURIE where prefixes covers the namespace (the same
// abbreviation rdf.Triple.String gives N-Triples output, just table-printed
// instead of dot-terminated).
func formatValue(s *store.Store, v store.Value, prefixes *rdf.PrefixMap) string {
	lex, err := s.LookupString(uint32(v.Lexical))
	text := ""
	if err == nil {
		text = string(lex.Bytes)
	}
	switch v.Category {
	case store.CatIRI:
		return prefixes.Shrink(rdf.URI(text))
	case store.CatBlank:
		return text
	case store.CatPlainStringWithLang:
		tag, err := s.LookupString(uint32(v.LanguageTag))
		if err == nil {
			return fmt.Sprintf("%q@%s", text, string(tag.Bytes))
		}
		return fmt.Sprintf("%q", text)
	default:
		return fmt.Sprintf("%q", text)
	}
}

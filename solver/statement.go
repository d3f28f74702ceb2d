package solver

import "github.com/boutros/castor/store"

// Markable is the subset of Var that Statement needs to prune by support:
// DiscVar and SmallVar both satisfy it, since their domains are explicit
// value sets a candidate can be checked against and pruned from. BoundsVar
// does not, since spec.md §4.7.3 gives it no notion of individual holes;
// a triple pattern variable is always backed by a DiscVar or SmallVar over
// dictionary value ids, never a BoundsVar.
type Markable interface {
	Var
	Mark(val int)
	ClearMarks()
	RestrictToMarks(s *Solver) bool
}

// Statement is the query collaborator's bridge from a SPARQL triple
// pattern to the solver: S, P, O are the (possibly shared) variables a
// pattern's three positions were compiled to, each ranging over
// store.Value ids (spec.md §2 "query collaborator... post_statement").
// It enforces that the bound tuple is always a real triple in the store,
// pruning unbound positions by support each time it runs.
type Statement struct {
	PropagatorBase

	store *store.Store
	s, p, o Markable
}

// PostStatement posts the constraint that (s,p,o) names a triple present
// in st (spec.md §2, §295 "post_statement").
func PostStatement(sv *Solver, st *store.Store, s, p, o Markable) bool {
	c := &Statement{store: st, s: s, p: p, o: o}
	c.InitBase(sv.trail, PriorityLow)
	return sv.Post(c)
}

func (c *Statement) Post(sv *Solver) bool {
	c.s.register(Registration{Prop: c, Event: EventChange})
	c.p.register(Registration{Prop: c, Event: EventChange})
	c.o.register(Registration{Prop: c, Event: EventChange})
	return c.Propagate(sv)
}

func boundValue(v Var) (uint32, bool) {
	if !v.Bound() {
		return 0, false
	}
	return uint32(v.Min()), true
}

// Propagate scans every triple consistent with the currently bound
// positions, marking each unbound position's surviving candidates, then
// commits the mark sets. A pattern with no matching triple at all fails
// the whole constraint; spec.md §4.7.1/§4.7.2 "Mark.../RestrictToMarks"
// is exactly the commit-supported-values idiom this loop performs.
func (c *Statement) Propagate(sv *Solver) bool {
	if c.Entailed() {
		return true
	}
	pat := store.Pattern{S: store.Wildcard, P: store.Wildcard, O: store.Wildcard}
	sBound, sVal := boundValue(c.s)
	pBound, pVal := boundValue(c.p)
	oBound, oVal := boundValue(c.o)
	if sBound {
		pat.S = sVal
	}
	if pBound {
		pat.P = pVal
	}
	if oBound {
		pat.O = oVal
	}

	if sBound && pBound && oBound {
		n, err := c.store.CountTriples(pat)
		if err != nil || n == 0 {
			return false
		}
		c.SetEntailed(true)
		return true
	}

	it, err := c.store.QueryTriples(pat)
	if err != nil {
		return false
	}
	if !sBound {
		c.s.ClearMarks()
	}
	if !pBound {
		c.p.ClearMarks()
	}
	if !oBound {
		c.o.ClearMarks()
	}
	matched := false
	for {
		t, ok, err := it.Next()
		if err != nil {
			return false
		}
		if !ok {
			break
		}
		if !sBound && !c.s.Contains(int(t.S)) {
			continue
		}
		if !pBound && !c.p.Contains(int(t.P)) {
			continue
		}
		if !oBound && !c.o.Contains(int(t.O)) {
			continue
		}
		matched = true
		if !sBound {
			c.s.Mark(int(t.S))
		}
		if !pBound {
			c.p.Mark(int(t.P))
		}
		if !oBound {
			c.o.Mark(int(t.O))
		}
	}
	if !matched {
		return false
	}
	if !sBound && !c.s.RestrictToMarks(sv) {
		return false
	}
	if !pBound && !c.p.RestrictToMarks(sv) {
		return false
	}
	if !oBound && !c.o.RestrictToMarks(sv) {
		return false
	}
	if c.s.Bound() && c.p.Bound() && c.o.Bound() {
		c.SetEntailed(true)
	}
	return true
}

// Filter is the generic, non-triple-pattern propagator a SPARQL FILTER
// expression compiles to when it is not specialized to Diff
// (spec.md §2 "post_filter"). Eval receives the solver so it can read
// currently bound variable values and returns false to prune the current
// branch; filters only need to run once all variables they mention are
// bound, since SPARQL filter expressions are not in general monotonic
// under partial bindings.
type Filter struct {
	PropagatorBase

	vars []Var
	eval func(sv *Solver) bool
}

// PostFilter posts a boolean FILTER expression over vars, re-evaluating it
// whenever any of them binds and failing the branch once they are all
// bound and eval returns false (spec.md §2, §295 "post_filter").
func PostFilter(sv *Solver, vars []Var, eval func(sv *Solver) bool) bool {
	f := &Filter{vars: vars, eval: eval}
	f.InitBase(sv.trail, PriorityLowest)
	return sv.Post(f)
}

func (f *Filter) Post(sv *Solver) bool {
	for _, v := range f.vars {
		v.register(Registration{Prop: f, Event: EventBind})
	}
	return f.Propagate(sv)
}

func (f *Filter) Propagate(sv *Solver) bool {
	if f.Entailed() {
		return true
	}
	for _, v := range f.vars {
		if !v.Bound() {
			return true
		}
	}
	if !f.eval(sv) {
		return false
	}
	f.SetEntailed(true)
	return true
}

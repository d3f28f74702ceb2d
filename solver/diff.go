package solver

// Diff is the inequality propagator: either a variable pinned against a
// constant, or two variables pinned against each other (spec.md §2 "query
// collaborator... post_diff", exercised by n-queens via post_diff only and
// by SPARQL's FILTER(?x != ...) per spec.md §8 items 4-5). It is grounded
// on the shared Propagator contract of
// _examples/original_source/src/solver/constraint.h, there being no
// inequality constraint in the teacher repo to adapt.
type Diff struct {
	PropagatorBase

	a, b       Var // b is nil for the unary (variable-vs-constant) form
	k          int // the constant, for the unary form
	offA, offB int // a+offA != b+offB, for the binary form (spec.md §8 item 4's diagonal constraints)
}

// PostDiff posts v != k, removing k from v's domain immediately
// (spec.md §8 item 5 "reduces the domain immediately on post").
func PostDiff(s *Solver, v Var, k int) bool {
	d := &Diff{a: v, k: k}
	d.InitBase(s.trail, PriorityHigh)
	return s.Post(d)
}

// PostDiffVars posts a != b, a binary inequality that only propagates once
// one side becomes bound (spec.md §8 item 5 "only fires when either
// variable is bound").
func PostDiffVars(s *Solver, a, b Var) bool {
	return PostDiffOffset(s, a, 0, b, 0)
}

// PostDiffOffset posts a+offA != b+offB, the constant-shifted form used to
// state n-queens' diagonal constraints (Q[i]+i != Q[j]+j and
// Q[i]-i != Q[j]-j) without any propagator but Diff (spec.md §8 item 4
// "N-queens via post_diff only").
func PostDiffOffset(s *Solver, a Var, offA int, b Var, offB int) bool {
	d := &Diff{a: a, b: b, offA: offA, offB: offB}
	d.InitBase(s.trail, PriorityHigh)
	return s.Post(d)
}

func (d *Diff) Post(s *Solver) bool {
	if d.b == nil {
		d.a.register(Registration{Prop: d, Event: EventBind})
		return d.Propagate(s)
	}
	d.a.register(Registration{Prop: d, Event: EventBind})
	d.b.register(Registration{Prop: d, Event: EventBind})
	return d.Propagate(s)
}

// Propagate removes the opposing fixed value from whichever side is not
// yet bound, and marks the constraint entailed as soon as a removal is no
// longer possible to repeat (spec.md §4.6.1 "done -- once satisfied, a
// propagator need not run again").
func (d *Diff) Propagate(s *Solver) bool {
	if d.Entailed() {
		return true
	}
	if d.b == nil {
		if !d.a.Remove(s, d.k) {
			return false
		}
		d.SetEntailed(true)
		return true
	}
	aBound, bBound := d.a.Bound(), d.b.Bound()
	switch {
	case aBound && bBound:
		if d.a.Min()+d.offA == d.b.Min()+d.offB {
			return false
		}
		d.SetEntailed(true)
	case aBound:
		target := d.a.Min() + d.offA - d.offB
		if !d.b.Remove(s, target) {
			return false
		}
		if d.b.Bound() {
			d.SetEntailed(true)
		}
	case bBound:
		target := d.b.Min() + d.offB - d.offA
		if !d.a.Remove(s, target) {
			return false
		}
		if d.a.Bound() {
			d.SetEntailed(true)
		}
	}
	return true
}

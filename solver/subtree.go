package solver

import "math/rand"

// Heuristic selects which unbound variable a Subtree labels next
// (spec.md §4.8.3).
type Heuristic int

const (
	// HeuristicSmallestDomain picks the variable with the fewest remaining
	// values, the default (spec.md §4.8.3).
	HeuristicSmallestDomain Heuristic = iota
	// HeuristicDegree picks the variable with the most registered
	// propagators, static degree.
	HeuristicDegree
	// HeuristicDynDegree picks the variable with the most non-entailed
	// registered propagators, recomputed at each choice.
	HeuristicDynDegree
	// HeuristicDomDeg picks the smallest ratio of domain size to degree.
	HeuristicDomDeg
	// HeuristicDomDdeg picks the smallest ratio of domain size to dynamic
	// degree.
	HeuristicDomDdeg
	// HeuristicRandom picks uniformly among the unbound variables, for
	// comparison baselines and randomized restarts.
	HeuristicRandom
)

// Subtree is a nested search scope: the set of decision variables it
// branches on, the constraints posted only within its lifetime, and a
// trail checkpoint marking where it began (spec.md §4.8.2). Subtrees
// nest: a propagator posted while searching a Subtree becomes local to it
// and is automatically discarded when the Subtree is popped.
type Subtree struct {
	vars      []Var
	heuristic Heuristic
	rng       *rand.Rand

	chkp int
}

// NewSubtree creates a Subtree over vars using the given heuristic
// (spec.md §4.8.2/§4.8.3). rng may be nil unless heuristic is
// HeuristicRandom.
func NewSubtree(vars []Var, h Heuristic, rng *rand.Rand) *Subtree {
	return &Subtree{vars: vars, heuristic: h, rng: rng}
}

// PostLocal posts a constraint scoped to this Subtree: it propagates now
// and is discarded, along with every side effect it ever made, when the
// Subtree is popped (spec.md §4.8.2 "locally-posted constraints").
func (sub *Subtree) PostLocal(s *Solver, p Propagator) bool {
	qs := p.queueState()
	qs.owner = sub
	if !p.Post(s) {
		return false
	}
	return s.propagate()
}

// selectVar returns the next unbound variable to label, or nil if every
// variable is already bound (a solution), per sub.heuristic
// (spec.md §4.8.3).
func (sub *Subtree) selectVar() Var {
	var candidates []Var
	for _, v := range sub.vars {
		if !v.Bound() {
			candidates = append(candidates, v)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	switch sub.heuristic {
	case HeuristicRandom:
		return candidates[sub.rng.Intn(len(candidates))]
	case HeuristicDegree:
		best := candidates[0]
		for _, v := range candidates[1:] {
			if v.Degree() > best.Degree() {
				best = v
			}
		}
		return best
	case HeuristicDynDegree:
		best := candidates[0]
		for _, v := range candidates[1:] {
			if v.DynDegree() > best.DynDegree() {
				best = v
			}
		}
		return best
	case HeuristicDomDeg:
		best := candidates[0]
		bestRatio := domRatio(best, best.Degree())
		for _, v := range candidates[1:] {
			r := domRatio(v, v.Degree())
			if r < bestRatio {
				best, bestRatio = v, r
			}
		}
		return best
	case HeuristicDomDdeg:
		best := candidates[0]
		bestRatio := domRatio(best, best.DynDegree())
		for _, v := range candidates[1:] {
			r := domRatio(v, v.DynDegree())
			if r < bestRatio {
				best, bestRatio = v, r
			}
		}
		return best
	default: // HeuristicSmallestDomain
		best := candidates[0]
		for _, v := range candidates[1:] {
			if v.Size() < best.Size() {
				best = v
			}
		}
		return best
	}
}

// domRatio computes size/degree as a float ratio, treating degree 0 (an
// unconstrained variable) as the weakest possible tie-break candidate
// rather than dividing by zero.
func domRatio(v Var, degree int) float64 {
	if degree == 0 {
		return float64(v.Size()) * 1e9
	}
	return float64(v.Size()) / float64(degree)
}

// Search runs chronological backtracking search over sub's variables,
// invoking onSolution each time every variable becomes bound. onSolution
// returns true to stop the search immediately (find_one_solution) or false
// to keep exploring remaining branches (find_all_solutions), per
// spec.md §4.8.2, §6.2.
func (sub *Subtree) Search(s *Solver, onSolution func() bool) bool {
	s.PushSubtree(sub)
	defer s.PopSubtree()
	return sub.searchRec(s, onSolution)
}

func (sub *Subtree) searchRec(s *Solver, onSolution func() bool) bool {
	s.countNode()
	v := sub.selectVar()
	if v == nil {
		return onSolution()
	}
	for {
		chkp := s.trail.Checkpoint()
		if v.Label(s) && s.propagate() && sub.searchRec(s, onSolution) {
			return true
		}
		s.Backtrack(chkp)
		if !v.Unlabel(s) || !s.propagate() {
			return false
		}
		// Loop back and label v again: Unlabel narrowed its domain, so the
		// next iteration tries whatever value remains first.
	}
}

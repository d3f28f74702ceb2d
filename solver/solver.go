package solver

// Solver owns the trail, the propagation queues, the list of statically
// posted (global) constraints, and the stack of active search subtrees
// (spec.md §4.8.1, grounded on _examples/original_source/src/solver/solver.h).
type Solver struct {
	trail *Trail
	qs    queues

	// tsCurrent is the trail timestamp at which the solver last finished
	// posting static constraints; enqueue uses it to reject constraints
	// posted in a scope that has since been backtracked past.
	tsCurrent uint64

	statics []Propagator
	stack   []*Subtree

	statFails int
	statNodes int
}

// NewSolver returns an empty solver. Variables and a root Subtree are
// created separately and attached via Solver.PushSubtree (spec.md §6.2
// new_solver(nbVars, nbVals) is realized here as plain Go construction:
// the caller builds its Var slice with NewDiscVar/NewSmallVar/NewBoundsVar
// against Solver.Trail()).
func NewSolver() *Solver {
	return &Solver{trail: NewTrail(), tsCurrent: 1}
}

// Trail returns the shared trail that every Var and Propagator this solver
// owns must be constructed against.
func (s *Solver) Trail() *Trail { return s.trail }

// current is the innermost active subtree, or nil at the root with no
// subtree pushed (spec.md §4.8.2).
func (s *Solver) current() *Subtree {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

// Post registers a statically-scoped (global) constraint: it persists for
// the solver's whole lifetime, unlike a Subtree-local constraint
// (spec.md §4.8.1 "add"). Failure during Post (a propagator whose initial
// propagate already fails) is reported to the caller rather than panicking.
func (s *Solver) Post(p Propagator) bool {
	qs := p.queueState()
	qs.owner = nil
	qs.timestamp = s.tsCurrent
	s.statics = append(s.statics, p)
	if !p.Post(s) {
		return false
	}
	return s.propagate()
}

// Refresh re-validates every static constraint against the solver's current
// timestamp, used after a full restart clears the trail back to its root
// checkpoint (spec.md §4.8.1 "refresh").
func (s *Solver) refresh() {
	for _, p := range s.statics {
		p.queueState().timestamp = s.tsCurrent
	}
}

// PushSubtree activates a new nested search subtree as the current one
// (spec.md §4.8.2 "activate"). The caller must eventually call PopSubtree
// once the subtree's search is exhausted or committed.
func (s *Solver) PushSubtree(sub *Subtree) {
	sub.chkp = s.trail.Checkpoint()
	s.stack = append(s.stack, sub)
	s.tsCurrent = s.trail.Timestamp()
}

// PopSubtree discards the current subtree, restoring the trail to the
// checkpoint recorded when it was pushed (spec.md §4.8.2 "discard").
func (s *Solver) PopSubtree() {
	sub := s.current()
	s.stack = s.stack[:len(s.stack)-1]
	s.clearQueue()
	s.trail.Restore(sub.chkp)
	s.tsCurrent = s.trail.Timestamp()
	s.refresh()
}

// Backtrack restores the trail to chkp within the current subtree's scope
// and clears the queues, without popping the subtree itself
// (spec.md §4.8.2 search loop between sibling branches).
func (s *Solver) Backtrack(chkp int) {
	s.clearQueue()
	s.trail.Restore(chkp)
	s.tsCurrent = s.trail.Timestamp()
	s.refresh()
	s.statFails++
}

// Stats returns the running count of failed branches and explored nodes,
// for diagnostics (spec.md §8 "search statistics").
func (s *Solver) Stats() (fails, nodes int) { return s.statFails, s.statNodes }

func (s *Solver) countNode() { s.statNodes++ }

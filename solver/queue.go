package solver

// queues holds one FIFO per priority (spec.md §4.6.2).
type queues struct {
	q [priorityCount][]Propagator
}

// enqueue appends c if it is (a) not done, (b) not already queued, and (c)
// belongs to the active posting scope: global constraints compare
// timestamps with tsCurrent, subtree-local constraints must have their
// owning subtree equal to the current subtree (spec.md §4.6.2).
func (s *Solver) enqueue(c Propagator) {
	qs := c.queueState()
	if c.Entailed() || qs.inQueue || qs.propagating {
		return
	}
	if sub, ok := qs.owner.(*Subtree); ok {
		if sub != s.current() {
			return
		}
	} else if qs.timestamp > s.tsCurrent {
		// newly added static constraint not yet (re)posted at this root
		return
	}
	qs.inQueue = true
	p := c.Priority()
	s.qs.q[p] = append(s.qs.q[p], c)
}

// clearQueue empties every priority queue, clearing each propagator's
// in-queue flag (spec.md §4.6.2, §8 invariant).
func (s *Solver) clearQueue() {
	for p := range s.qs.q {
		for _, c := range s.qs.q[p] {
			c.queueState().inQueue = false
		}
		s.qs.q[p] = s.qs.q[p][:0]
	}
}

// propagate drains HIGH fully before draining MEDIUM, and so on
// (spec.md §4.6.2). A failing Propagate aborts immediately, leaving the
// remaining queue contents in place for the caller (search()) to clear via
// clearQueue after backtracking.
func (s *Solver) propagate() bool {
	for p := Priority(0); p < priorityCount; p++ {
		for len(s.qs.q[p]) > 0 {
			c := s.qs.q[p][0]
			s.qs.q[p] = s.qs.q[p][1:]
			qs := c.queueState()
			qs.inQueue = false
			if c.Entailed() {
				continue
			}
			qs.propagating = true
			ok := c.Propagate(s)
			qs.propagating = false
			if !ok {
				return false
			}
		}
	}
	return true
}

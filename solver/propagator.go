package solver

// Priority orders the per-priority propagation queues; HIGH drains fully
// before MEDIUM starts, and so on (spec.md §4.6.2).
type Priority int

const (
	PriorityHigh Priority = iota
	PriorityMedium
	PriorityLow
	PriorityLowest
	priorityCount
)

// Propagator is the contract every constraint implements (spec.md §4.6.1).
// Implementations embed PropagatorBase for priority/done/queued bookkeeping
// rather than reimplementing it, mirroring the original's shared base
// struct (_examples/original_source/src/solver/constraint.h).
type Propagator interface {
	Post(s *Solver) bool
	Propagate(s *Solver) bool
	Priority() Priority
	Entailed() bool
	SetEntailed(bool)

	// queue bookkeeping, used only by Solver/queue.go.
	queueState() *queueState
}

// queueState is the "not queued / queued / propagating" tri-state each
// propagator carries (spec.md §4.6.2 "sentinel unqueued pointer", and the
// "propagating" mark so a propagator's own events during its own Propagate
// call do not re-enqueue it).
type queueState struct {
	inQueue     bool
	propagating bool
	timestamp   uint64 // Solver.tsCurrent at post() time, for static constraints
	owner       interface{} // *Subtree for subtree-local constraints, nil for global
}

// PropagatorBase is embedded by concrete propagators for the shared
// priority/done/queue-state fields (spec.md §4.6.1).
type PropagatorBase struct {
	Reversible
	priority Priority
	done     bool
	qs       queueState
}

// InitBase must be called from a concrete propagator's constructor.
func (b *PropagatorBase) InitBase(trail *Trail, prio Priority) {
	b.Reversible.Init(trail)
	b.priority = prio
}

func (b *PropagatorBase) Priority() Priority   { return b.priority }
func (b *PropagatorBase) Entailed() bool       { return b.done }
func (b *PropagatorBase) queueState() *queueState { return &b.qs }

// SetEntailed marks the propagator done (or, in principle, un-done on
// restore); it is reversible, saved via the trail like any other mutation
// (spec.md §4.6.1 "done -- reversible flag").
func (b *PropagatorBase) SetEntailed(done bool) {
	if b.done == done {
		return
	}
	b.Modifying(propagatorBaseOwner{b})
	b.done = done
}

// propagatorBaseOwner adapts PropagatorBase to Trailable without forcing
// every embedder to implement save/restore itself.
type propagatorBaseOwner struct {
	b *PropagatorBase
}

func (o propagatorBaseOwner) save() restoreRecord {
	prev := o.b.done
	return restoreRecord{owner: o, undo: func() { o.b.done = prev }}
}

func (o propagatorBaseOwner) restore(rec restoreRecord) {
	rec.undo()
}

// Package solver implements a backtracking constraint-programming engine:
// trail-based reversible state, priority-ordered propagation, nested search
// subtrees, and a small library of finite-domain variables (spec.md §2, §4.5-
// §4.8). It is grounded directly on the original Castor C++ solver headers
// (_examples/original_source/src/solver/*.h), translated per spec.md §9's
// Design Notes: virtual dispatch becomes the Propagator interface, the
// manual trail byte-stack becomes a typed slice of restore records, and
// cyclic constraint/solver back-pointers become explicit solver arguments.
package solver

// Trailable is anything that can snapshot and restore its own state onto a
// shared Trail (spec.md §4.5).
type Trailable interface {
	// save captures this object's current state as a restore record and
	// returns it (Reversible.Modifying pushes it onto the trail).
	save() restoreRecord
	// restore reverts to the state captured in rec.
	restore(rec restoreRecord)
}

// restoreRecord is a small, type-erased snapshot. Concrete Trailables close
// over their own fields, so a restoreRecord is just "the closure that undoes
// one save", per spec.md §9's "discriminated record per Trailable kind".
type restoreRecord struct {
	owner Trailable
	undo  func()
}

// Trail is a stack of restore records plus a monotone timestamp
// (spec.md §4.5).
type Trail struct {
	stack     []restoreRecord
	timestamp uint64
}

// NewTrail returns an empty Trail at timestamp 1, so a freshly initialised
// Reversible (timestamp 0) saves on its first mutation.
func NewTrail() *Trail {
	return &Trail{timestamp: 1}
}

// Timestamp is the trail's current monotone clock; Trailables compare their
// own last-save timestamp against it to decide whether a fresh save is due.
func (t *Trail) Timestamp() uint64 { return t.timestamp }

// Checkpoint bumps the timestamp, so every Trailable saves again on its
// first mutation after it, and returns the current stack depth, to be passed
// to Restore later.
func (t *Trail) Checkpoint() int {
	t.timestamp++
	return len(t.stack)
}

// push records a save; called by Trailable.Modifying below, never directly.
func (t *Trail) push(rec restoreRecord) {
	t.stack = append(t.stack, rec)
}

// Restore pops records until the stack size equals chkp, invoking each
// popped record's undo in LIFO order, then bumps the timestamp
// (spec.md §4.5 invariant (a)/(b)).
func (t *Trail) Restore(chkp int) {
	for len(t.stack) > chkp {
		rec := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		rec.undo()
	}
	t.timestamp++
}

// Reversible is embedded by every Trailable to track its own last-save
// timestamp relative to the shared trail (spec.md §4.5 "Each Trailable has
// its own last-save timestamp").
type Reversible struct {
	trail     *Trail
	timestamp uint64
}

// Init binds a Reversible to its owning Trail. Must be called before any use.
func (r *Reversible) Init(trail *Trail) {
	r.trail = trail
	r.timestamp = 0
}

// Modifying must be called before any observable mutation of the owning
// Trailable. If the trail has moved on since this object's last save, it
// pushes a fresh save record (spec.md §4.5 invariant (a)).
func (r *Reversible) Modifying(owner Trailable) {
	if r.timestamp == r.trail.timestamp {
		return
	}
	r.timestamp = r.trail.timestamp
	r.trail.push(owner.save())
}

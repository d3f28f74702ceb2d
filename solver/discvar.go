package solver

// DiscVar is the sparse-set, large-domain variable of spec.md §4.7.1: a
// dual representation of an explicit value set plus auxiliary (not always
// tight) bounds.
type DiscVar struct {
	Reversible
	registry

	minVal, maxVal int // fixed domain bounds at construction
	domain         []int
	index          []int // index[v-minVal] = position of v in domain

	size     int
	min, max int

	marked          int
	markedMin       int
	markedMax       int
}

// NewDiscVar creates a variable over the closed integer range [minVal,maxVal]
// (spec.md §4.7.1).
func NewDiscVar(trail *Trail, minVal, maxVal int) *DiscVar {
	n := maxVal - minVal + 1
	v := &DiscVar{minVal: minVal, maxVal: maxVal}
	v.Init(trail)
	v.domain = make([]int, n)
	v.index = make([]int, n)
	for i := 0; i < n; i++ {
		v.domain[i] = minVal + i
		v.index[i] = i
	}
	v.size = n
	v.min, v.max = minVal, maxVal
	return v
}

func (v *DiscVar) posOf(val int) int { return v.index[val-v.minVal] }

func (v *DiscVar) Bound() bool   { return v.size == 1 }
func (v *DiscVar) Min() int      { return v.min }
func (v *DiscVar) Max() int      { return v.max }
func (v *DiscVar) Size() int     { return v.size }

func (v *DiscVar) Contains(val int) bool {
	if val < v.minVal || val > v.maxVal {
		return false
	}
	return v.posOf(val) < v.size
}

// swapToBack exchanges the domain/index entries at position pos (< size) and
// size-1, the last live slot; the caller then shrinks size by one. The
// permutation itself need not be logged on the trail: spec.md §4.7.1 notes
// size/min/max are the only state that must be saved, since values only ever
// move toward the removed suffix and size restores the boundary.
func (v *DiscVar) swapToBack(pos int) {
	last := v.size - 1
	a, b := v.domain[pos], v.domain[last]
	v.domain[pos], v.domain[last] = b, a
	v.index[a-v.minVal], v.index[b-v.minVal] = last, pos
}

type discSnapshot struct {
	size, min, max int
}

func (v *DiscVar) save() restoreRecord {
	snap := discSnapshot{v.size, v.min, v.max}
	return restoreRecord{owner: v, undo: func() {
		v.size, v.min, v.max = snap.size, snap.min, snap.max
	}}
}

func (v *DiscVar) restore(rec restoreRecord) { rec.undo() }

// Bind restricts the domain to {val}, failing if val is not present
// (spec.md §4.7.1). Unlike Remove, it moves val INTO position 0 rather
// than out to the tail: val is the survivor here, not the casualty.
func (v *DiscVar) Bind(s *Solver, val int) bool {
	if !v.Contains(val) {
		return false
	}
	v.Modifying(v)
	pos := v.posOf(val)
	if pos != 0 {
		other := v.domain[0]
		v.domain[0], v.domain[pos] = val, other
		v.index[val-v.minVal], v.index[other-v.minVal] = 0, pos
	}
	v.size = 1
	v.min, v.max = val, val
	v.clearMarksLocked()
	v.fire(s, EventBind)
	return true
}

// Remove removes val from the domain (spec.md §4.7.1).
func (v *DiscVar) Remove(s *Solver, val int) bool {
	if !v.Contains(val) {
		return true
	}
	if v.size == 1 {
		return false
	}
	if v.size == 2 {
		var other int
		if v.domain[0] == val {
			other = v.domain[1]
		} else {
			other = v.domain[0]
		}
		return v.Bind(s, other)
	}
	v.Modifying(v)
	pos := v.posOf(val)
	v.swapToBack(pos)
	v.size--
	boundsTouched := val == v.min || val == v.max
	if val == v.min {
		v.min = v.minOfLive()
	}
	if val == v.max {
		v.max = v.maxOfLive()
	}
	fired := EventChange
	v.fire(s, fired)
	if boundsTouched {
		v.fire(s, EventBounds)
	}
	if v.size == 1 {
		v.fire(s, EventBind)
	}
	return true
}

func (v *DiscVar) minOfLive() int {
	m := v.domain[0]
	for i := 1; i < v.size; i++ {
		if v.domain[i] < m {
			m = v.domain[i]
		}
	}
	return m
}

func (v *DiscVar) maxOfLive() int {
	m := v.domain[0]
	for i := 1; i < v.size; i++ {
		if v.domain[i] > m {
			m = v.domain[i]
		}
	}
	return m
}

// UpdateMin tightens the stored min without physically pruning the sparse
// set (spec.md §4.7.1).
func (v *DiscVar) UpdateMin(s *Solver, lo int) bool {
	if lo <= v.min {
		return true
	}
	if lo > v.max {
		return false
	}
	v.Modifying(v)
	v.min = lo
	v.fire(s, EventBounds)
	if v.min == v.max {
		v.fire(s, EventBind)
	}
	return true
}

// UpdateMax tightens the stored max without physically pruning the sparse
// set (spec.md §4.7.1).
func (v *DiscVar) UpdateMax(s *Solver, hi int) bool {
	if hi >= v.max {
		return true
	}
	if hi < v.min {
		return false
	}
	v.Modifying(v)
	v.max = hi
	v.fire(s, EventBounds)
	if v.min == v.max {
		v.fire(s, EventBind)
	}
	return true
}

// Mark records val as one to keep; a subsequent RestrictToMarks prunes
// everything else (spec.md §4.7.1).
func (v *DiscVar) Mark(val int) {
	if !v.Contains(val) {
		return
	}
	pos := v.posOf(val)
	if pos < v.marked {
		return // already marked
	}
	mval := v.domain[v.marked]
	v.domain[pos], v.domain[v.marked] = mval, val
	v.index[val-v.minVal], v.index[mval-v.minVal] = v.marked, pos
	if v.marked == 0 || val < v.markedMin {
		v.markedMin = val
	}
	if v.marked == 0 || val > v.markedMax {
		v.markedMax = val
	}
	v.marked++
}

func (v *DiscVar) clearMarksLocked() { v.marked = 0 }

// ClearMarks discards the pending mark set without touching the domain.
func (v *DiscVar) ClearMarks() { v.clearMarksLocked() }

// RestrictToMarks commits the mark set: every unmarked value is removed
// (spec.md §4.7.1).
func (v *DiscVar) RestrictToMarks(s *Solver) bool {
	if v.marked == 0 {
		return false // marking nothing means the domain becomes empty
	}
	if v.marked == v.size {
		v.clearMarksLocked()
		return true
	}
	v.Modifying(v)
	v.size = v.marked
	v.min, v.max = v.markedMin, v.markedMax
	v.clearMarksLocked()
	v.fire(s, EventChange)
	v.fire(s, EventBounds)
	if v.size == 1 {
		v.fire(s, EventBind)
	}
	return true
}

// Label binds the first value in domain order (spec.md §4.7.1 "Labeling").
// A value-ordering heuristic may have reordered domain beforehand.
func (v *DiscVar) Label(s *Solver) bool {
	return v.Bind(s, v.domain[0])
}

// Unlabel removes the value this variable was just labeled to, undoing the
// branching decision on backtrack (spec.md §4.7.1).
func (v *DiscVar) Unlabel(s *Solver) bool {
	return v.Remove(s, v.domain[0])
}

// Values returns a snapshot of the live domain values, smallest first is
// not guaranteed (sparse-set order); used by search heuristics and tests.
func (v *DiscVar) Values() []int {
	out := make([]int, v.size)
	copy(out, v.domain[:v.size])
	return out
}

package solver

// BoundsVar tracks only min and max, never materializing the set of values
// in between (spec.md §4.7.3). It is the cheapest flavor, used for
// wide-ranging numeric variables where only range reasoning is needed.
type BoundsVar struct {
	Reversible
	registry

	min, max int
}

// NewBoundsVar creates a variable ranging over [lo,hi] (spec.md §4.7.3).
func NewBoundsVar(trail *Trail, lo, hi int) *BoundsVar {
	v := &BoundsVar{min: lo, max: hi}
	v.Init(trail)
	return v
}

func (v *BoundsVar) Bound() bool { return v.min == v.max }
func (v *BoundsVar) Min() int    { return v.min }
func (v *BoundsVar) Max() int    { return v.max }

// Size reports max-min+1: a BoundsVar has no notion of holes, so this
// over-counts whenever the true domain (tracked by some other variable
// sharing the range) has gaps (spec.md §4.7.3 "may overestimate size").
func (v *BoundsVar) Size() int { return v.max - v.min + 1 }

func (v *BoundsVar) Contains(val int) bool { return val >= v.min && val <= v.max }

type boundsSnapshot struct{ min, max int }

func (v *BoundsVar) save() restoreRecord {
	snap := boundsSnapshot{v.min, v.max}
	return restoreRecord{owner: v, undo: func() {
		v.min, v.max = snap.min, snap.max
	}}
}

func (v *BoundsVar) restore(rec restoreRecord) { rec.undo() }

// Bind restricts the range to {val} (spec.md §4.7.3).
func (v *BoundsVar) Bind(s *Solver, val int) bool {
	if !v.Contains(val) {
		return false
	}
	if v.Bound() {
		return true
	}
	v.Modifying(v)
	v.min, v.max = val, val
	v.fire(s, EventBind)
	return true
}

// UpdateMin raises the floor (spec.md §4.7.3).
func (v *BoundsVar) UpdateMin(s *Solver, lo int) bool {
	if lo <= v.min {
		return true
	}
	if lo > v.max {
		return false
	}
	v.Modifying(v)
	v.min = lo
	v.fire(s, EventBounds)
	if v.Bound() {
		v.fire(s, EventBind)
	}
	return true
}

// UpdateMax lowers the ceiling (spec.md §4.7.3).
func (v *BoundsVar) UpdateMax(s *Solver, hi int) bool {
	if hi >= v.max {
		return true
	}
	if hi < v.min {
		return false
	}
	v.Modifying(v)
	v.max = hi
	v.fire(s, EventBounds)
	if v.Bound() {
		v.fire(s, EventBind)
	}
	return true
}

// Remove is only precise at the bounds; removing an interior value is a
// no-op because a BoundsVar cannot represent the resulting hole
// (spec.md §4.7.3).
func (v *BoundsVar) Remove(s *Solver, val int) bool {
	if val == v.min {
		return v.UpdateMin(s, val+1)
	}
	if val == v.max {
		return v.UpdateMax(s, val-1)
	}
	return true
}

// Label binds the variable to its current minimum (spec.md §4.7.3 "Labeling").
func (v *BoundsVar) Label(s *Solver) bool { return v.Bind(s, v.min) }

// Unlabel undoes the just-made labeling decision.
func (v *BoundsVar) Unlabel(s *Solver) bool { return v.UpdateMin(s, v.min+1) }

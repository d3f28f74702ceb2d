package solver

import "testing"

// TestSmallVarBindRemoveMark exercises SmallVar's bitset-backed domain ops
// directly (spec.md §4.7.2): Bind narrows to a singleton, Remove excludes an
// interior value without touching the bounds, and Mark/RestrictToMarks
// commits a support set the way Statement.Propagate does.
func TestSmallVarBindRemoveMark(t *testing.T) {
	tr := NewTrail()
	v := NewSmallVar(tr, 0, 4)
	if v.Size() != 5 || v.Min() != 0 || v.Max() != 4 {
		t.Fatalf("fresh SmallVar(0,4) = [%d,%d] size %d, want [0,4] size 5", v.Min(), v.Max(), v.Size())
	}

	sol := &Solver{trail: tr}
	if !v.Remove(sol, 2) {
		t.Fatal("Remove(2) on an interior value failed")
	}
	if v.Contains(2) {
		t.Fatal("Remove(2) left 2 in the domain")
	}
	if v.Min() != 0 || v.Max() != 4 {
		t.Fatalf("removing an interior value moved the bounds to [%d,%d]", v.Min(), v.Max())
	}

	v.ClearMarks()
	v.Mark(0)
	v.Mark(3)
	if !v.RestrictToMarks(sol) {
		t.Fatal("RestrictToMarks with a non-empty mark set returned false")
	}
	got := v.Values()
	if len(got) != 2 || got[0] != 0 || got[1] != 3 {
		t.Fatalf("Values() after RestrictToMarks({0,3}) = %v, want [0 3]", got)
	}

	if !v.Bind(sol, 3) {
		t.Fatal("Bind(3) on a value still in the domain failed")
	}
	if !v.Bound() || v.Min() != 3 || v.Max() != 3 {
		t.Fatalf("after Bind(3), domain = [%d,%d] bound=%v, want [3,3] bound=true", v.Min(), v.Max(), v.Bound())
	}
}

// TestSmallVarUpdateMinMax exercises the range-narrowing operations used by
// bounds-consistent propagators.
func TestSmallVarUpdateMinMax(t *testing.T) {
	tr := NewTrail()
	v := NewSmallVar(tr, 0, 9)
	sol := &Solver{trail: tr}

	if !v.UpdateMin(sol, 3) {
		t.Fatal("UpdateMin(3) failed")
	}
	if v.Min() != 3 {
		t.Fatalf("Min() = %d after UpdateMin(3), want 3", v.Min())
	}
	if !v.UpdateMax(sol, 6) {
		t.Fatal("UpdateMax(6) failed")
	}
	if v.Max() != 6 {
		t.Fatalf("Max() = %d after UpdateMax(6), want 6", v.Max())
	}
	if v.Size() != 4 {
		t.Fatalf("Size() = %d, want 4 ([3,6])", v.Size())
	}
	if v.UpdateMin(sol, 20) {
		t.Fatal("UpdateMin(20) past the current max should fail, not succeed")
	}
}

// TestBoundsVarPreciseOnlyAtBounds exercises spec.md §4.7.3's documented
// imprecision: removing an interior value is a no-op, while removing a
// boundary value narrows the range.
func TestBoundsVarPreciseOnlyAtBounds(t *testing.T) {
	tr := NewTrail()
	v := NewBoundsVar(tr, 0, 4)
	sol := &Solver{trail: tr}

	if !v.Remove(sol, 2) {
		t.Fatal("Remove(2) (interior) should be a harmless no-op, not a failure")
	}
	if v.Min() != 0 || v.Max() != 4 || !v.Contains(2) {
		t.Fatalf("Remove(2) on a BoundsVar changed the range to [%d,%d]; spec says interior removal is a no-op", v.Min(), v.Max())
	}

	if !v.Remove(sol, 0) {
		t.Fatal("Remove(0) (the floor) failed")
	}
	if v.Min() != 1 {
		t.Fatalf("Min() = %d after Remove(0), want 1", v.Min())
	}
}

// TestBoundsVarDiffSearch drives two BoundsVar domains through
// PostDiffVars and a full search, since BoundsVar is never used by the
// triple-pattern path (it isn't Markable) but is still a first-class Var.
func TestBoundsVarDiffSearch(t *testing.T) {
	sol := NewSolver()
	a := NewBoundsVar(sol.Trail(), 0, 1)
	b := NewBoundsVar(sol.Trail(), 0, 1)

	if !PostDiffVars(sol, a, b) {
		t.Fatal("PostDiffVars(a, b) returned false at post time")
	}

	var solutions [][2]int
	sub := NewSubtree([]Var{a, b}, HeuristicSmallestDomain, nil)
	sub.Search(sol, func() bool {
		solutions = append(solutions, [2]int{a.Min(), b.Min()})
		return false
	})
	if len(solutions) != 2 {
		t.Fatalf("got %d solutions, want 2 ((0,1) and (1,0))", len(solutions))
	}
	for _, sol := range solutions {
		if sol[0] == sol[1] {
			t.Fatalf("solution %v has a == b, which PostDiffVars should forbid", sol)
		}
	}
}

package solver

import "testing"

func TestTrailCheckpointRestore(t *testing.T) {
	trail := NewTrail()
	v := NewDiscVar(trail, 1, 10)

	chkp := trail.Checkpoint()
	before := v.Values()

	if !v.Remove(nil, 5) {
		t.Fatal("Remove(5) should succeed on a fresh domain")
	}
	if v.Contains(5) {
		t.Fatal("5 should have been removed")
	}

	trail.Restore(chkp)

	after := v.Values()
	if len(before) != len(after) {
		t.Fatalf("domain size not restored: before=%d after=%d", len(before), len(after))
	}
	if !v.Contains(5) {
		t.Fatal("Restore should bring back the removed value")
	}
}

func TestTrailNestedCheckpoints(t *testing.T) {
	trail := NewTrail()
	v := NewDiscVar(trail, 1, 5)

	outer := trail.Checkpoint()
	v.Remove(nil, 1)
	inner := trail.Checkpoint()
	v.Remove(nil, 2)
	v.Remove(nil, 3)

	if v.Size() != 2 {
		t.Fatalf("expected size 2, got %d", v.Size())
	}

	trail.Restore(inner)
	if v.Size() != 4 {
		t.Fatalf("after inner restore expected size 4, got %d", v.Size())
	}
	if !v.Contains(2) || !v.Contains(3) {
		t.Fatal("inner restore should bring back 2 and 3")
	}
	if v.Contains(1) {
		t.Fatal("inner restore should not bring back 1, removed before the checkpoint")
	}

	trail.Restore(outer)
	if v.Size() != 5 {
		t.Fatalf("after outer restore expected size 5, got %d", v.Size())
	}
}

func TestReversibleSkipsRedundantSave(t *testing.T) {
	trail := NewTrail()
	v := NewDiscVar(trail, 1, 10)

	chkp := trail.Checkpoint()
	v.Remove(nil, 1)
	v.Remove(nil, 2)
	v.Remove(nil, 3)

	// All three mutations happened at the same trail timestamp, so only one
	// restore record should have been pushed (spec.md §4.5 invariant (a)).
	if got := trail.Checkpoint() - chkp; got != 1 {
		t.Fatalf("expected exactly 1 pushed record, got %d", got)
	}
}

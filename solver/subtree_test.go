package solver

import "testing"

// solveNQueens counts solutions to the n-queens problem using Diff as the
// only propagator (spec.md §8 item 4): one row-column variable per row,
// pairwise column and diagonal inequalities via post_diff/post_diff with
// a constant offset.
func solveNQueens(n int) (solutions int) {
	s := NewSolver()
	vars := make([]*DiscVar, n)
	generic := make([]Var, n)
	for i := range vars {
		vars[i] = NewDiscVar(s.Trail(), 0, n-1)
		generic[i] = vars[i]
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if !PostDiffVars(s, vars[i], vars[j]) {
				return 0
			}
			if !PostDiffOffset(s, vars[i], i, vars[j], j) {
				return 0
			}
			if !PostDiffOffset(s, vars[i], -i, vars[j], -j) {
				return 0
			}
		}
	}
	sub := NewSubtree(generic, HeuristicSmallestDomain, nil)
	sub.Search(s, func() bool {
		solutions++
		return false // keep searching for every solution
	})
	return solutions
}

func TestNQueensEight(t *testing.T) {
	got := solveNQueens(8)
	if got != 92 {
		t.Fatalf("8-queens: expected 92 solutions, got %d", got)
	}
}

func TestNQueensFour(t *testing.T) {
	got := solveNQueens(4)
	if got != 2 {
		t.Fatalf("4-queens: expected 2 solutions, got %d", got)
	}
}

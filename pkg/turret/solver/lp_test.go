package solver

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestSolve_UpperBoundConversion exercises the finite-VarUB column added in
// Solve (lp.go:97): minimizing -x0 over x0 in [1,5] should drive x0 to its
// upper bound.
func TestSolve_UpperBoundConversion(t *testing.T) {
	t.Parallel()

	problem := &Problem{
		Objective: []float64{-1},
		A:         [][]float64{{1}},
		VarLB:     []float64{1},
		VarUB:     []float64{5},
		RowLB:     []float64{math.Inf(-1)},
		RowUB:     []float64{10},
	}

	sol, err := Solve(problem)
	require.NoError(t, err)
	require.InDelta(t, 5, sol.X[0], 1e-6)
}

// TestSolve_LowerBoundOnlyRow exercises the lo <= a.x, hi == +Inf row path.
func TestSolve_LowerBoundOnlyRow(t *testing.T) {
	t.Parallel()

	problem := &Problem{
		Objective: []float64{1},
		A:         [][]float64{{1}},
		VarLB:     []float64{0},
		VarUB:     []float64{math.Inf(1)},
		RowLB:     []float64{3},
		RowUB:     []float64{math.Inf(1)},
	}

	sol, err := Solve(problem)
	require.NoError(t, err)
	require.InDelta(t, 3, sol.X[0], 1e-6)
}

// TestSolve_TwoSidedRow exercises the lo <= a.x <= hi row path, which adds
// two slack columns (lp.go:131-138).
func TestSolve_TwoSidedRow(t *testing.T) {
	t.Parallel()

	problem := &Problem{
		Objective: []float64{1, 1},
		A:         [][]float64{{1, 1}},
		VarLB:     []float64{0, 0},
		VarUB:     []float64{100, 100},
		RowLB:     []float64{2},
		RowUB:     []float64{5},
	}

	sol, err := Solve(problem)
	require.NoError(t, err)
	sum := sol.X[0] + sol.X[1]
	require.GreaterOrEqual(t, sum, 2-1e-6)
	require.LessOrEqual(t, sum, 5+1e-6)
	require.InDelta(t, 2, sol.Cost, 1e-6)
}

// TestSolve_EqualityRow exercises the lo == hi equality-row path.
func TestSolve_EqualityRow(t *testing.T) {
	t.Parallel()

	problem := &Problem{
		Objective: []float64{1},
		A:         [][]float64{{1}},
		VarLB:     []float64{-10},
		VarUB:     []float64{10},
		RowLB:     []float64{4},
		RowUB:     []float64{4},
	}

	sol, err := Solve(problem)
	require.NoError(t, err)
	require.InDelta(t, 4, sol.X[0], 1e-6)
}

// TestSolve_NegativeLowerBoundShift exercises recovery of x_i = x'_i +
// lb_i when the lower bound is nonzero and negative.
func TestSolve_NegativeLowerBoundShift(t *testing.T) {
	t.Parallel()

	problem := &Problem{
		Objective: []float64{1},
		A:         [][]float64{},
		VarLB:     []float64{-5},
		VarUB:     []float64{5},
		RowLB:     []float64{},
		RowUB:     []float64{},
	}

	sol, err := Solve(problem)
	require.NoError(t, err)
	require.InDelta(t, -5, sol.X[0], 1e-6)
}

func TestSolve_InfeasibleReturnsErrInfeasible(t *testing.T) {
	t.Parallel()

	problem := &Problem{
		Objective: []float64{1},
		A:         [][]float64{{1}},
		VarLB:     []float64{10},
		VarUB:     []float64{20},
		RowLB:     []float64{0},
		RowUB:     []float64{1},
	}

	_, err := Solve(problem)
	require.ErrorIs(t, err, ErrInfeasible)
}

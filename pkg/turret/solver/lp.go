// Package solver wraps gonum's primal simplex behind the narrow interface
// the motion planner needs: load a tableau with row/column bounds, adjust
// row bounds in place, and re-solve. gonum's lp.Simplex only solves
// equality-constrained standard form (Ax = b, x >= 0); everything here is
// the bookkeeping that turns a boxed, two-sided-inequality problem into
// that standard form and back.
package solver

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"
)

// ErrInfeasible is returned by Solve when gonum's simplex cannot find a
// feasible point. The planner treats this as recoverable: grow the
// horizon and rebuild.
var ErrInfeasible = errors.New("solver: problem is infeasible")

// Problem is a resizable LP tableau: minimize Objective.x subject to
// RowLB <= A x <= RowUB, VarLB <= x <= VarUB. Every variable must carry a
// finite lower bound, since Solve shifts each variable by it; this covers
// every variable the planner ever poses (rates and slacks are always
// physically bounded below).
type Problem struct {
	Objective    []float64
	A            [][]float64
	VarLB, VarUB []float64
	RowLB, RowUB []float64
}

// NumVars and NumRows report the problem's dimensions.
func (p *Problem) NumVars() int { return len(p.Objective) }
func (p *Problem) NumRows() int { return len(p.A) }

// SetRowBounds updates one row's bounds in place, without touching the
// tableau itself, for callers that keep a Problem across solves. The
// planner does not use it: it builds a fresh Problem for every solve.
func (p *Problem) SetRowBounds(row int, lb, ub float64) {
	p.RowLB[row] = lb
	p.RowUB[row] = ub
}

// SetRowLower and SetRowUpper mutate a single bound, mirroring the
// external LP interface's set_row_lower/set_row_upper operations.
func (p *Problem) SetRowLower(row int, lb float64) { p.RowLB[row] = lb }
func (p *Problem) SetRowUpper(row int, ub float64) { p.RowUB[row] = ub }

// Solution is the result of a successful solve.
type Solution struct {
	X    []float64
	Cost float64
}

const tol = 1e-9

// Solve converts the problem to gonum's equality standard form and runs
// the primal simplex. On infeasibility it returns ErrInfeasible so the
// caller can grow the horizon and retry, per the planner's recovery
// policy.
func Solve(p *Problem) (Solution, error) {
	n := p.NumVars()
	if n == 0 {
		return Solution{}, errors.New("solver: empty problem")
	}

	var (
		stdObjective []float64
		rows         [][]float64
		rhs          []float64
	)

	// Column 0..n-1 are the shifted original variables x'_i = x_i - lb_i.
	stdObjective = append(stdObjective, p.Objective...)
	numStdCols := n

	addCol := func() int {
		numStdCols++
		for i := range rows {
			rows[i] = append(rows[i], 0)
		}
		stdObjective = append(stdObjective, 0)
		return numStdCols - 1
	}
	addRow := func(coeffs map[int]float64, b float64) {
		row := make([]float64, numStdCols)
		for col, v := range coeffs {
			row[col] = v
		}
		rows = append(rows, row)
		rhs = append(rhs, b)
	}

	// Upper-bound rows: x'_i + s_i = ub_i - lb_i, for every finite VarUB.
	for i := 0; i < n; i++ {
		if math.IsInf(p.VarUB[i], 1) {
			continue
		}
		s := addCol()
		addRow(map[int]float64{i: 1, s: 1}, p.VarUB[i]-p.VarLB[i])
	}

	// Constraint rows, shifted by the variable lower bounds.
	for r := 0; r < p.NumRows(); r++ {
		shift := 0.0
		coeffs := map[int]float64{}
		for i, a := range p.A[r] {
			if a == 0 {
				continue
			}
			coeffs[i] = a
			shift += a * p.VarLB[i]
		}
		lo, hi := p.RowLB[r]-shift, p.RowUB[r]-shift

		switch {
		case lo == hi:
			addRow(coeffs, lo)
		case math.IsInf(hi, 1):
			// lo <= a.x  =>  a.x - s = lo, s >= 0
			s := addCol()
			rowCoeffs := cloneWith(coeffs, s, -1)
			addRow(rowCoeffs, lo)
		case math.IsInf(lo, -1):
			// a.x <= hi  =>  a.x + s = hi, s >= 0
			s := addCol()
			rowCoeffs := cloneWith(coeffs, s, 1)
			addRow(rowCoeffs, hi)
		default:
			// lo <= a.x <= hi  =>  a.x + s = hi, s in [0, hi-lo]
			s := addCol()
			rowCoeffs := cloneWith(coeffs, s, 1)
			addRow(rowCoeffs, hi)
			s2 := addCol()
			addRow(map[int]float64{s: 1, s2: 1}, hi-lo)
		}
	}

	A := mat.NewDense(len(rows), numStdCols, nil)
	for i, row := range rows {
		for j, v := range row {
			A.Set(i, j, v)
		}
	}

	_, x, err := lp.Simplex(stdObjective, A, rhs, tol, nil)
	if err != nil {
		return Solution{}, ErrInfeasible
	}

	out := make([]float64, n)
	cost := 0.0
	for i := 0; i < n; i++ {
		out[i] = x[i] + p.VarLB[i]
		cost += p.Objective[i] * out[i]
	}
	return Solution{X: out, Cost: cost}, nil
}

func cloneWith(m map[int]float64, col int, v float64) map[int]float64 {
	out := make(map[int]float64, len(m)+1)
	for k, val := range m {
		out[k] = val
	}
	out[col] = v
	return out
}

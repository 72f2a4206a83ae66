package lp

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	gonumlp "gonum.org/v1/gonum/optimize/convex/lp"
)

// integralityTol is how far a binary variable may sit from 0/1 in a
// relaxation before we branch on it.
const integralityTol = 1e-6

// SimplexSolver solves the continuous relaxation with gonum's simplex method
// and resolves binary variables by branch and bound over their bounds.
type SimplexSolver struct {
	// Tol is the simplex pivot tolerance.
	Tol float64
}

// NewSimplexSolver creates the default LP/MILP backend.
func NewSimplexSolver() *SimplexSolver {
	return &SimplexSolver{Tol: 1e-10}
}

// Solve implements Solver.
func (s *SimplexSolver) Solve(p *Problem, budget time.Duration) (*Solution, error) {
	lower := make([]float64, len(p.vars))
	upper := make([]float64, len(p.vars))
	for i, v := range p.vars {
		lower[i] = v.Lower
		upper[i] = v.Upper
	}

	if !p.HasBinaries() {
		return s.solveRelaxed(p, lower, upper)
	}

	b := &branch{
		solver:   s,
		problem:  p,
		deadline: time.Now().Add(budget),
	}
	if err := b.explore(lower, upper); err != nil {
		return nil, err
	}
	if b.best == nil {
		if b.timedOut {
			return nil, ErrTimeout
		}
		return nil, ErrInfeasible
	}
	return b.best, nil
}

type branch struct {
	solver   *SimplexSolver
	problem  *Problem
	best     *Solution
	deadline time.Time
	timedOut bool
}

// explore runs depth-first branch and bound. The relaxation objective is an
// upper bound for every node below it, so nodes that cannot beat the
// incumbent are cut.
func (b *branch) explore(lower, upper []float64) error {
	if b.timedOut {
		return nil
	}
	if !time.Now().Before(b.deadline) {
		b.timedOut = true
		return nil
	}

	sol, err := b.solver.solveRelaxed(b.problem, lower, upper)
	switch err {
	case nil:
	case ErrInfeasible:
		return nil
	default:
		return err
	}

	if b.best != nil && sol.Objective <= b.best.Objective+1e-9 {
		return nil
	}

	frac := -1
	fracDist := integralityTol
	for i, v := range b.problem.vars {
		if !v.Binary {
			continue
		}
		d := math.Abs(sol.Values[i] - math.Round(sol.Values[i]))
		if d > fracDist {
			frac = i
			fracDist = d
		}
	}

	if frac < 0 {
		// Integral within tolerance: snap binaries and accept.
		for i, v := range b.problem.vars {
			if v.Binary {
				sol.Values[i] = math.Round(sol.Values[i])
			}
		}
		b.best = sol
		return nil
	}

	// Explore the side the relaxation leans toward first.
	sides := [2]float64{0, 1}
	if sol.Values[frac] >= 0.5 {
		sides = [2]float64{1, 0}
	}
	for _, side := range sides {
		lo := append([]float64(nil), lower...)
		hi := append([]float64(nil), upper...)
		lo[frac] = side
		hi[frac] = side
		if err := b.explore(lo, hi); err != nil {
			return err
		}
	}
	return nil
}

// solveRelaxed solves the LP with the supplied working bounds, ignoring
// integrality.
func (s *SimplexSolver) solveRelaxed(p *Problem, lower, upper []float64) (*Solution, error) {
	n := len(p.vars)

	var gRows [][]float64
	var h []float64
	var aRows [][]float64
	var bEq []float64

	appendRow := func(dst *[][]float64, terms []Term, negate bool) {
		row := make([]float64, n)
		for _, t := range terms {
			if negate {
				row[t.Var] -= t.Coeff
			} else {
				row[t.Var] += t.Coeff
			}
		}
		*dst = append(*dst, row)
	}

	for _, c := range p.cons {
		switch c.Op {
		case OpLe:
			appendRow(&gRows, c.Terms, false)
			h = append(h, c.RHS)
		case OpGe:
			appendRow(&gRows, c.Terms, true)
			h = append(h, -c.RHS)
		case OpEq:
			appendRow(&aRows, c.Terms, false)
			bEq = append(bEq, c.RHS)
		}
	}

	// Box bounds become inequality rows; the standard-form conversion frees
	// every variable, so even x >= 0 must be stated explicitly.
	for i := 0; i < n; i++ {
		if !math.IsInf(upper[i], 1) {
			row := make([]float64, n)
			row[i] = 1
			gRows = append(gRows, row)
			h = append(h, upper[i])
		}
		if !math.IsInf(lower[i], -1) {
			row := make([]float64, n)
			row[i] = -1
			gRows = append(gRows, row)
			h = append(h, -lower[i])
		}
	}

	// Maximize by minimizing the negated objective.
	c := make([]float64, n)
	for _, t := range p.obj {
		c[t.Var] -= t.Coeff
	}

	var g mat.Matrix
	if len(gRows) > 0 {
		g = denseFromRows(gRows, n)
	}
	var a mat.Matrix
	if len(aRows) > 0 {
		a = denseFromRows(aRows, n)
	}

	cNew, aNew, bNew := gonumlp.Convert(c, g, h, a, bEq)
	optF, optX, err := gonumlp.Simplex(cNew, aNew, bNew, s.Tol, nil)
	if err != nil {
		switch err {
		case gonumlp.ErrInfeasible:
			return nil, ErrInfeasible
		case gonumlp.ErrUnbounded:
			return nil, ErrUnbounded
		default:
			return nil, fmt.Errorf("lp: simplex failed: %w", err)
		}
	}

	// Convert splits each variable x into x⁺ − x⁻; recover the originals.
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = optX[i] - optX[n+i]
	}
	return &Solution{Values: values, Objective: -optF}, nil
}

func denseFromRows(rows [][]float64, cols int) *mat.Dense {
	data := make([]float64, 0, len(rows)*cols)
	for _, r := range rows {
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), cols, data)
}

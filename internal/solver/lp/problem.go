// Package lp provides the linear / mixed-binary programming capability behind
// the portfolio optimizer: continuous variables with bounds, optional binary
// variables, linear constraints, and a linear objective to maximize.
package lp

import (
	"errors"
	"math"
	"time"
)

// ErrInfeasible is returned when no assignment satisfies the constraints.
var ErrInfeasible = errors.New("lp: problem infeasible")

// ErrUnbounded is returned when the objective can grow without limit.
var ErrUnbounded = errors.New("lp: problem unbounded")

// ErrTimeout is returned when the branch-and-bound search exhausts its time
// budget before finding any integral solution.
var ErrTimeout = errors.New("lp: time budget exhausted")

// Op is a linear constraint comparison operator.
type Op int

const (
	OpLe Op = iota
	OpGe
	OpEq
)

// Term is one coefficient*variable entry in a linear expression.
type Term struct {
	Var   int
	Coeff float64
}

// Var is a decision variable with box bounds. Binary variables are
// constrained to {0, 1}.
type Var struct {
	Name   string
	Lower  float64
	Upper  float64
	Binary bool
}

// Constraint is a linear constraint sum(terms) Op RHS.
type Constraint struct {
	Terms []Term
	Op    Op
	RHS   float64
}

// Problem is a linear program with an objective to maximize.
type Problem struct {
	vars []Var
	cons []Constraint
	obj  []Term
}

// NewProblem creates an empty problem.
func NewProblem() *Problem {
	return &Problem{}
}

// AddVar adds a bounded continuous variable and returns its index.
// Use math.Inf for unbounded sides.
func (p *Problem) AddVar(name string, lower, upper float64) int {
	p.vars = append(p.vars, Var{Name: name, Lower: lower, Upper: upper})
	return len(p.vars) - 1
}

// AddBinaryVar adds a 0/1 variable and returns its index.
func (p *Problem) AddBinaryVar(name string) int {
	p.vars = append(p.vars, Var{Name: name, Lower: 0, Upper: 1, Binary: true})
	return len(p.vars) - 1
}

// AddConstraint appends a linear constraint.
func (p *Problem) AddConstraint(terms []Term, op Op, rhs float64) {
	p.cons = append(p.cons, Constraint{Terms: terms, Op: op, RHS: rhs})
}

// SetObjective sets the linear objective to maximize.
func (p *Problem) SetObjective(terms []Term) {
	p.obj = terms
}

// NumVars returns the number of decision variables.
func (p *Problem) NumVars() int {
	return len(p.vars)
}

// HasBinaries reports whether any variable is binary.
func (p *Problem) HasBinaries() bool {
	for _, v := range p.vars {
		if v.Binary {
			return true
		}
	}
	return false
}

// Solution holds the optimal variable values and objective.
type Solution struct {
	Values    []float64
	Objective float64
}

// Value returns the solved value of a variable, guarding against tiny
// negative round-off.
func (s *Solution) Value(idx int) float64 {
	v := s.Values[idx]
	if math.Abs(v) < 1e-12 {
		return 0
	}
	return v
}

// Solver solves a Problem within a wall-clock budget.
type Solver interface {
	Solve(p *Problem, budget time.Duration) (*Solution, error)
}

package sat

import (
	"errors"
	"sort"
	"time"
)

// ErrInfeasible is returned when the model admits no assignment.
var ErrInfeasible = errors.New("sat: model infeasible")

// ErrTimeout is returned when no feasible assignment was certified within
// the time budget.
var ErrTimeout = errors.New("sat: time budget exhausted")

// Objective is an integer linear objective over model variables.
type Objective struct {
	Terms    []Term
	Maximize bool
}

// Assignment is a 0/1 value per model variable, indexed like the model.
type Assignment []int

// Solver finds an assignment extremizing an integer linear objective subject
// to the model's constraints. Implementations return the best assignment
// found within the budget (optimal when the search completes), ErrInfeasible
// when no assignment exists, or ErrTimeout when the budget expires before
// any assignment is found.
type Solver interface {
	Solve(m *Model, obj Objective, budget time.Duration) (Assignment, error)
}

// BranchSolver is the default backend: depth-first branch and bound with
// interval pruning on every constraint and an optimistic objective bound.
type BranchSolver struct{}

// NewBranchSolver creates the default branch-and-bound solver.
func NewBranchSolver() *BranchSolver {
	return &BranchSolver{}
}

// Solve implements Solver.
func (s *BranchSolver) Solve(m *Model, obj Objective, budget time.Duration) (Assignment, error) {
	n := m.NumVars()

	// Work internally in minimization form.
	coeffs := make([]int64, n)
	for _, t := range obj.Terms {
		if obj.Maximize {
			coeffs[t.Var] -= t.Coeff
		} else {
			coeffs[t.Var] += t.Coeff
		}
	}

	// Branch on large objective coefficients first so the bound bites early.
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return abs64(coeffs[order[i]]) > abs64(coeffs[order[j]])
	})

	st := &search{
		cons:     m.Constraints(),
		coeffs:   coeffs,
		order:    order,
		values:   make([]int8, n),
		deadline: time.Now().Add(budget),
	}
	for i := range st.values {
		st.values[i] = unassigned
	}

	st.walk(0, 0)

	if st.best != nil {
		return st.best, nil
	}
	if st.timedOut {
		return nil, ErrTimeout
	}
	return nil, ErrInfeasible
}

const unassigned int8 = -1

// deadlineStride controls how often the wall clock is consulted.
const deadlineStride = 256

type search struct {
	cons     []Constraint
	coeffs   []int64
	order    []int
	values   []int8
	best     Assignment
	bestObj  int64
	deadline time.Time
	nodes    int
	timedOut bool
}

func (s *search) walk(pos int, objVal int64) {
	if s.timedOut {
		return
	}
	s.nodes++
	if s.nodes%deadlineStride == 1 && !time.Now().Before(s.deadline) {
		s.timedOut = true
		return
	}

	if s.best != nil && s.optimisticBound(objVal) >= s.bestObj {
		return
	}
	if !s.feasibleSoFar() {
		return
	}

	if pos == len(s.order) {
		s.record(objVal)
		return
	}

	v := s.order[pos]

	// Try the objective-improving value first.
	first, second := int8(0), int8(1)
	if s.coeffs[v] < 0 {
		first, second = 1, 0
	}

	s.values[v] = first
	s.walk(pos+1, objVal+int64(first)*s.coeffs[v])
	s.values[v] = second
	s.walk(pos+1, objVal+int64(second)*s.coeffs[v])
	s.values[v] = unassigned
}

// optimisticBound is the lowest objective value reachable from the current
// partial assignment, ignoring constraints.
func (s *search) optimisticBound(objVal int64) int64 {
	bound := objVal
	for v, val := range s.values {
		if val == unassigned && s.coeffs[v] < 0 {
			bound += s.coeffs[v]
		}
	}
	return bound
}

// feasibleSoFar checks every constraint against the interval of values its
// left-hand side can still take. Exact once all variables are assigned.
func (s *search) feasibleSoFar() bool {
	for _, c := range s.cons {
		var lo, hi int64
		for _, t := range c.Terms {
			switch s.values[t.Var] {
			case unassigned:
				if t.Coeff > 0 {
					hi += t.Coeff
				} else {
					lo += t.Coeff
				}
			case 1:
				lo += t.Coeff
				hi += t.Coeff
			}
		}
		switch c.Op {
		case OpEq:
			if c.RHS < lo || c.RHS > hi {
				return false
			}
		case OpLe:
			if lo > c.RHS {
				return false
			}
		case OpGe:
			if hi < c.RHS {
				return false
			}
		}
	}
	return true
}

func (s *search) record(objVal int64) {
	if s.best != nil && objVal >= s.bestObj {
		return
	}
	if s.best == nil {
		s.best = make(Assignment, len(s.values))
	}
	for i, v := range s.values {
		s.best[i] = int(v)
	}
	s.bestObj = objVal
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

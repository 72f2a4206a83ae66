package arbitrage

import (
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/arbiter/internal/domain"
	"github.com/aristath/arbiter/internal/solver/sat"
)

// coeffCutoff drops adversary objective coefficients too small to survive
// integer scaling.
const coeffCutoff = 1e-12

// Oracle finds feasible outcomes of a constraint model extremizing a linear
// objective. It powers both the initial extreme-outcome seeding and the
// adversarial worst-case search.
type Oracle struct {
	solver sat.Solver
	log    zerolog.Logger
}

// NewOracle creates an oracle over the given boolean solver backend.
func NewOracle(solver sat.Solver, log zerolog.Logger) *Oracle {
	return &Oracle{solver: solver, log: log}
}

// ExtremeOutcomes minimizes and maximizes the count of true conditions,
// returning up to two distinct feasible outcomes. Infeasible or timed-out
// searches contribute nothing; duplicates are collapsed by value.
func (o *Oracle) ExtremeOutcomes(m *sat.Model, timeout time.Duration) []domain.Outcome {
	terms := make([]sat.Term, m.NumVars())
	for i := range terms {
		terms[i] = sat.Term{Var: i, Coeff: 1}
	}

	var outcomes []domain.Outcome
	for _, maximize := range []bool{false, true} {
		assignment, err := o.solver.Solve(m, sat.Objective{Terms: terms, Maximize: maximize}, timeout)
		if err != nil {
			o.log.Debug().Err(err).Bool("maximize", maximize).Msg("extreme outcome search failed")
			continue
		}
		out := outcomeFromAssignment(m, assignment)
		if !containsOutcome(outcomes, out) {
			outcomes = append(outcomes, out)
		}
	}
	return outcomes
}

// WorstOutcome finds the feasible outcome minimizing the payoff of the given
// portfolio. Per-condition coefficients sum +delta for YES tokens and -delta
// for NO tokens, then scale to the solver's integer domain with
// round-to-nearest. Returns ok=false when no feasible outcome is certified
// within the timeout.
func (o *Oracle) WorstOutcome(m *sat.Model, positions []domain.Position, timeout time.Duration, scale float64) (domain.Outcome, bool) {
	coeffs := make(map[int]float64)
	for _, p := range positions {
		v, ok := m.Var(p.Token.ConditionID)
		if !ok {
			continue
		}
		if p.Token.Side == domain.SideYes {
			coeffs[v] += p.Delta()
		} else {
			coeffs[v] -= p.Delta()
		}
	}

	var terms []sat.Term
	for v, c := range coeffs {
		if math.Abs(c) < coeffCutoff {
			continue
		}
		terms = append(terms, sat.Term{Var: v, Coeff: int64(math.Round(c * scale))})
	}

	assignment, err := o.solver.Solve(m, sat.Objective{Terms: terms}, timeout)
	if err != nil {
		o.log.Debug().Err(err).Msg("adversary search failed")
		return nil, false
	}
	return outcomeFromAssignment(m, assignment), true
}

func outcomeFromAssignment(m *sat.Model, a sat.Assignment) domain.Outcome {
	out := make(domain.Outcome, len(a))
	for i, v := range a {
		out[m.VarName(i)] = v
	}
	return out
}

func containsOutcome(set []domain.Outcome, o domain.Outcome) bool {
	for _, existing := range set {
		if existing.Equal(o) {
			return true
		}
	}
	return false
}

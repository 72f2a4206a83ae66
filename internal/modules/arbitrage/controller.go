package arbitrage

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/arbiter/internal/domain"
	"github.com/aristath/arbiter/internal/solver/sat"
)

// ErrNoFeasibleOutcome signals that neither extreme-outcome search produced a
// feasible seed, so the dependency model admits no outcome at all.
var ErrNoFeasibleOutcome = errors.New("arbitrage: no feasible outcome")

// State is the phase of the robust loop.
type State int

const (
	StateSeeding State = iota
	StateOptimizing
	StateAdversaryChecking
	StateConverged
	StateExhausted
	StateInfeasible
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateSeeding:
		return "seeding"
	case StateOptimizing:
		return "optimizing"
	case StateAdversaryChecking:
		return "adversary_checking"
	case StateConverged:
		return "converged"
	case StateExhausted:
		return "exhausted"
	case StateInfeasible:
		return "infeasible"
	}
	return "unknown"
}

// Result is the outcome of one robust loop run: the best certified candidate
// (profit is -Inf when no allocation ever solved), the scenario set that
// certifies it, and how the loop terminated.
type Result struct {
	Profit     float64
	Cost       float64
	Positions  []domain.Position
	Scenarios  []domain.Outcome
	State      State
	Iterations int
	Elapsed    time.Duration
}

// Controller runs the cutting-plane robust loop: optimize against the current
// scenario set, search for an adversarial outcome against the candidate, and
// expand the set until worst case and assumed worst case agree within
// tolerance.
type Controller struct {
	oracle    *Oracle
	optimizer *Optimizer
	log       zerolog.Logger
}

// NewController wires the loop over its oracle and optimizer.
func NewController(oracle *Oracle, optimizer *Optimizer, log zerolog.Logger) *Controller {
	return &Controller{oracle: oracle, optimizer: optimizer, log: log}
}

// Run executes the robust loop. It returns ErrNoFeasibleOutcome when seeding
// fails; every other path, including mid-loop solver failures and an
// exhausted iteration budget, returns the best candidate found so far.
func (c *Controller) Run(ctx context.Context, m *sat.Model, tokens []domain.Token, st Settings) (*Result, error) {
	scenarios := c.oracle.ExtremeOutcomes(m, st.OracleTimeout)
	if len(scenarios) == 0 {
		return nil, ErrNoFeasibleOutcome
	}

	res := &Result{
		Profit:    math.Inf(-1),
		Scenarios: cloneScenarios(scenarios),
		State:     StateExhausted,
	}

	start := time.Now()
	for iter := 0; iter < st.MaxIter; iter++ {
		if ctx.Err() != nil {
			res.State = StateExhausted
			break
		}
		res.Iterations = iter + 1

		res.State = StateOptimizing
		alloc, err := c.optimizer.Solve(scenarios, tokens, st, st.OracleTimeout)
		if err != nil {
			// Mid-loop infeasibility is recoverable: keep the best candidate.
			res.State = StateExhausted
			break
		}
		if alloc.Profit > res.Profit {
			res.Profit = alloc.Profit
			res.Cost = alloc.Cost
			res.Positions = alloc.Positions
			res.Scenarios = cloneScenarios(scenarios)
		}

		res.State = StateAdversaryChecking
		worst, ok := c.oracle.WorstOutcome(m, alloc.Positions, st.OracleTimeout, st.Scale)
		if !ok {
			res.State = StateConverged
			break
		}
		worstProfit := domain.Payoff(alloc.Positions, worst) - alloc.Cost
		if worstProfit+st.Tolerance >= alloc.Profit {
			res.State = StateConverged
			break
		}
		if !containsOutcome(scenarios, worst) {
			scenarios = append(scenarios, worst)
		}

		c.log.Debug().
			Int("iteration", iter+1).
			Int("scenarios", len(scenarios)).
			Float64("master_profit", alloc.Profit).
			Float64("worst_profit", worstProfit).
			Msg("scenario set expanded")
	}
	if res.State == StateOptimizing || res.State == StateAdversaryChecking {
		res.State = StateExhausted
	}

	res.Elapsed = time.Since(start)
	return res, nil
}

func cloneScenarios(scenarios []domain.Outcome) []domain.Outcome {
	out := make([]domain.Outcome, len(scenarios))
	copy(out, scenarios)
	return out
}

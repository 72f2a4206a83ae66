package arbitrage

import (
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/aristath/arbiter/internal/domain"
	"github.com/aristath/arbiter/internal/solver/lp"
)

// positionEpsilon is the allocation size below which a token is considered
// untraded.
const positionEpsilon = 1e-9

// profitBound bounds the free profit variable so the LP stays well posed even
// with degenerate quotes.
const profitBound = 1e6

// Allocation is one solved portfolio: the robust profit guarantee, the total
// entry cost and the non-negligible per-token positions.
type Allocation struct {
	Profit    float64
	Cost      float64
	Positions []domain.Position
}

// Optimizer computes the profit-maximizing buy/sell allocation that stays
// profitable under every outcome in the current scenario set.
type Optimizer struct {
	solver lp.Solver
	log    zerolog.Logger
}

// NewOptimizer creates an optimizer over the given LP backend.
func NewOptimizer(solver lp.Solver, log zerolog.Logger) *Optimizer {
	return &Optimizer{solver: solver, log: log}
}

// Solve builds and solves the robust allocation program for the given
// scenario set. Tokens must already be depth-filtered; the optimizer
// additionally zeroes depth on non-positive prices and, when selling is
// disabled, on the bid side.
func (o *Optimizer) Solve(scenarios []domain.Outcome, tokens []domain.Token, st Settings, budget time.Duration) (*Allocation, error) {
	p := lp.NewProblem()

	askSizes := make([]float64, len(tokens))
	bidSizes := make([]float64, len(tokens))
	buyVars := make([]int, len(tokens))
	sellVars := make([]int, len(tokens))
	var useVars []int

	for i, tok := range tokens {
		askSize := tok.AskSize
		bidSize := tok.BidSize
		if tok.Ask <= 0 {
			askSize = 0
		}
		if tok.Bid <= 0 || !st.AllowSells {
			bidSize = 0
		}
		askSizes[i] = askSize
		bidSizes[i] = bidSize

		buyVars[i] = p.AddVar(fmt.Sprintf("buy_%d", i), 0, askSize)
		sellVars[i] = p.AddVar(fmt.Sprintf("sell_%d", i), 0, bidSize)

		if st.MaxLegs > 0 {
			use := p.AddBinaryVar(fmt.Sprintf("use_%d", i))
			useVars = append(useVars, use)
			p.AddConstraint([]lp.Term{
				{Var: buyVars[i], Coeff: 1},
				{Var: use, Coeff: -askSize},
			}, lp.OpLe, 0)
			p.AddConstraint([]lp.Term{
				{Var: sellVars[i], Coeff: 1},
				{Var: use, Coeff: -bidSize},
			}, lp.OpLe, 0)
		}
	}

	if st.MaxLegs > 0 {
		terms := make([]lp.Term, len(useVars))
		for i, v := range useVars {
			terms[i] = lp.Term{Var: v, Coeff: 1}
		}
		p.AddConstraint(terms, lp.OpLe, float64(st.MaxLegs))
	}

	buyCosts := make([]float64, len(tokens))
	sellRevs := make([]float64, len(tokens))
	slip := st.SlippageBps / 10000.0
	var notionalTerms []lp.Term
	for i, tok := range tokens {
		feeBps := math.Max(tok.FeeBps, st.FeeBps)
		buyCosts[i] = tok.Ask + effectiveFee(tok.Ask, feeBps, st) + tok.Ask*slip
		sellRevs[i] = tok.Bid - effectiveFee(tok.Bid, feeBps, st) - tok.Bid*slip
		if tok.Ask > 0 {
			notionalTerms = append(notionalTerms, lp.Term{Var: buyVars[i], Coeff: tok.Ask})
		}
	}

	if st.MaxNotional > 0 && len(notionalTerms) > 0 {
		p.AddConstraint(notionalTerms, lp.OpLe, st.MaxNotional)
	}

	profit := p.AddVar("profit", -profitBound, profitBound)

	// One robust constraint per scenario: payoff(outcome) - cost >= profit.
	for _, outcome := range scenarios {
		var terms []lp.Term
		for i, tok := range tokens {
			truth := outcome[tok.ConditionID]
			coeff := float64(truth)
			if tok.Side == domain.SideNo {
				coeff = float64(1 - truth)
			}
			terms = append(terms,
				lp.Term{Var: buyVars[i], Coeff: coeff - buyCosts[i]},
				lp.Term{Var: sellVars[i], Coeff: -coeff + sellRevs[i]},
			)
		}
		terms = append(terms, lp.Term{Var: profit, Coeff: -1})
		p.AddConstraint(terms, lp.OpGe, 0)
	}

	p.SetObjective([]lp.Term{{Var: profit, Coeff: 1}})

	sol, err := o.solver.Solve(p, budget)
	if err != nil {
		o.log.Debug().Err(err).Int("scenarios", len(scenarios)).Msg("allocation solve failed")
		return nil, err
	}

	alloc := &Allocation{Profit: sol.Value(profit)}
	for i, tok := range tokens {
		buy := sol.Value(buyVars[i])
		sell := sol.Value(sellVars[i])
		alloc.Cost += buy*buyCosts[i] - sell*sellRevs[i]
		if buy <= positionEpsilon && sell <= positionEpsilon {
			continue
		}
		alloc.Positions = append(alloc.Positions, domain.Position{Token: tok, Buy: buy, Sell: sell})
	}
	return alloc, nil
}

// effectiveFee computes the fee per share at the given price. When a fee
// curve is configured the fee is convex in price, penalizing near-even-money
// prices; otherwise it is a flat proportion of price.
func effectiveFee(price, feeBps float64, st Settings) float64 {
	if price <= 0 || feeBps <= 0 {
		return 0
	}
	if st.FeeCurveRate > 0 && st.FeeCurveExponent > 0 {
		p := math.Max(0, math.Min(1, price))
		curve := st.FeeCurveRate * math.Pow(p*(1-p), st.FeeCurveExponent)
		return p * (feeBps / 1000.0) * curve
	}
	return price * (feeBps / 10000.0)
}

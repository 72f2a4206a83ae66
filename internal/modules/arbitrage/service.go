package arbitrage

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/aristath/arbiter/internal/domain"
	"github.com/aristath/arbiter/internal/solver/lp"
	"github.com/aristath/arbiter/internal/solver/sat"
)

// Service runs one complete solve per request: parse, depth-filter, build
// the dependency model, run the robust loop and format the result. Every
// entity is request-scoped; nothing is shared across invocations.
type Service struct {
	satSolver sat.Solver
	lpSolver  lp.Solver
	log       zerolog.Logger
}

// NewService creates the arbitrage service over the two solver backends.
func NewService(satSolver sat.Solver, lpSolver lp.Solver, log zerolog.Logger) *Service {
	return &Service{satSolver: satSolver, lpSolver: lpSolver, log: log}
}

// Solve processes one request payload end to end. It never returns an error:
// every failure mode resolves to a well-formed envelope.
func (s *Service) Solve(ctx context.Context, req *SolveRequest) *Envelope {
	if s.satSolver == nil || s.lpSolver == nil {
		return errorEnvelope("solver backend unavailable")
	}
	if req == nil {
		return errorEnvelope("empty input")
	}

	condIDs := make([]string, 0, len(req.Conditions))
	for _, c := range req.Conditions {
		if c.ID != "" {
			condIDs = append(condIDs, c.ID)
		}
	}
	if len(condIDs) == 0 {
		return okEnvelope()
	}

	st := req.Settings.Resolve()

	tokens := filterTokens(req.Tokens, st)
	if len(tokens) == 0 {
		return okEnvelope()
	}

	groups := make([]domain.ConstraintGroup, 0, len(req.Groups))
	for _, in := range req.Groups {
		if g, ok := in.Group(); ok {
			groups = append(groups, g)
		}
	}
	relations := make([]domain.Relation, 0, len(req.Relations))
	for _, in := range req.Relations {
		if r, ok := in.Relation(); ok {
			relations = append(relations, r)
		}
	}

	model := BuildModel(condIDs, groups, relations)

	oracle := NewOracle(s.satSolver, s.log)
	optimizer := NewOptimizer(s.lpSolver, s.log)
	controller := NewController(oracle, optimizer, s.log)

	res, err := controller.Run(ctx, model, tokens, st)
	if err != nil {
		if errors.Is(err, ErrNoFeasibleOutcome) {
			return errorEnvelope("no feasible outcome")
		}
		return errorEnvelope(err.Error())
	}

	s.log.Info().
		Stringer("state", res.State).
		Int("iterations", res.Iterations).
		Int("scenarios", len(res.Scenarios)).
		Float64("profit", res.Profit).
		Dur("elapsed", res.Elapsed).
		Msg("robust loop finished")

	if res.Profit < st.MinProfit || len(res.Positions) == 0 {
		return okEnvelope()
	}
	return okEnvelope(FormatOpportunity(res))
}

// filterTokens applies the depth thresholds once before optimization: sizes
// below minDepth (or whose notional is below minDepthUsd) zero out, selling
// disabled zeroes all bids, and tokens with no tradable side at all drop.
func filterTokens(inputs []TokenInput, st Settings) []domain.Token {
	var tokens []domain.Token
	for _, in := range inputs {
		tok := in.Token()
		if tok.AskSize < st.MinDepth {
			tok.AskSize = 0
		}
		if tok.BidSize < st.MinDepth || !st.AllowSells {
			tok.BidSize = 0
		}
		if st.MinDepthUSD > 0 {
			if tok.Ask*tok.AskSize < st.MinDepthUSD {
				tok.AskSize = 0
			}
			if tok.Bid*tok.BidSize < st.MinDepthUSD {
				tok.BidSize = 0
			}
		}
		if tok.Ask > 0 || tok.Bid > 0 {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

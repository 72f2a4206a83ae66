package arbitrage

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/arbiter/internal/domain"
	"github.com/aristath/arbiter/internal/solver/lp"
)

func newTestOptimizer() *Optimizer {
	return NewOptimizer(lp.NewSimplexSolver(), zerolog.Nop())
}

func yesToken(id, condID string, ask, askSize float64) domain.Token {
	return domain.Token{ID: id, ConditionID: condID, Side: domain.SideYes, Ask: ask, AskSize: askSize}
}

// Three conditions under exactly-one, each YES ask at 0.30: covering all
// three pays 1.0 in every feasible outcome for a cost of 0.90.
func exactlyOneScenarios() []domain.Outcome {
	return []domain.Outcome{
		{"a": 1, "b": 0, "c": 0},
		{"a": 0, "b": 1, "c": 0},
		{"a": 0, "b": 0, "c": 1},
	}
}

func TestOptimizer_CoversExactlyOneMarket(t *testing.T) {
	tokens := []domain.Token{
		yesToken("t_a", "a", 0.30, 100),
		yesToken("t_b", "b", 0.30, 100),
		yesToken("t_c", "c", 0.30, 100),
	}
	st := SettingsInput{}.Resolve()

	alloc, err := newTestOptimizer().Solve(exactlyOneScenarios(), tokens, st, time.Second)
	require.NoError(t, err)

	// Full depth on all three legs: payoff 100, cost 90, profit 10.
	assert.InDelta(t, 10.0, alloc.Profit, 1e-6)
	assert.InDelta(t, 90.0, alloc.Cost, 1e-6)
	assert.Len(t, alloc.Positions, 3)
	for _, pos := range alloc.Positions {
		assert.InDelta(t, 100.0, pos.Buy, 1e-6)
	}
}

func TestOptimizer_ZeroDepthGetsNoAllocation(t *testing.T) {
	tokens := []domain.Token{
		yesToken("t_a", "a", 0.30, 100),
		yesToken("t_b", "b", 0.30, 0), // depth-filtered away upstream
		yesToken("t_c", "c", 0.30, 100),
	}
	st := SettingsInput{}.Resolve()

	alloc, err := newTestOptimizer().Solve(exactlyOneScenarios(), tokens, st, time.Second)
	require.NoError(t, err)

	// Without the b leg the portfolio cannot cover outcome b=1, so nothing
	// profitable survives the robust constraints.
	for _, pos := range alloc.Positions {
		assert.NotEqual(t, "t_b", pos.Token.ID)
	}
	assert.LessOrEqual(t, alloc.Profit, 1e-6)
}

func TestOptimizer_NonPositiveAskZeroesDepth(t *testing.T) {
	tokens := []domain.Token{
		{ID: "t_a", ConditionID: "a", Side: domain.SideYes, Ask: 0, AskSize: 100, Bid: 0.2, BidSize: 50},
	}
	st := SettingsInput{}.Resolve()

	alloc, err := newTestOptimizer().Solve([]domain.Outcome{{"a": 1}}, tokens, st, time.Second)
	require.NoError(t, err)
	for _, pos := range alloc.Positions {
		assert.Zero(t, pos.Buy, "no buys against a non-positive ask")
	}
}

func TestOptimizer_AllowSellsDisabledZeroesBids(t *testing.T) {
	// A rich bid would be sold immediately if selling were allowed.
	tokens := []domain.Token{
		{ID: "t_a", ConditionID: "a", Side: domain.SideYes, Ask: 0.5, AskSize: 10, Bid: 0.99, BidSize: 10},
	}
	allowSells := false
	st := SettingsInput{AllowSells: &allowSells}.Resolve()

	alloc, err := newTestOptimizer().Solve([]domain.Outcome{{"a": 0}, {"a": 1}}, tokens, st, time.Second)
	require.NoError(t, err)
	for _, pos := range alloc.Positions {
		assert.Zero(t, pos.Sell)
	}
}

func TestOptimizer_MaxLegsLimitsPositions(t *testing.T) {
	tokens := []domain.Token{
		yesToken("t_a", "a", 0.30, 100),
		yesToken("t_b", "b", 0.30, 100),
		yesToken("t_c", "c", 0.30, 100),
	}
	maxLegs := Number(2)
	st := SettingsInput{MaxLegs: maxLegs}.Resolve()

	alloc, err := newTestOptimizer().Solve(exactlyOneScenarios(), tokens, st, time.Second)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(alloc.Positions), 2)
}

func TestOptimizer_MaxNotionalCapsBuys(t *testing.T) {
	tokens := []domain.Token{
		yesToken("t_a", "a", 0.30, 100),
		yesToken("t_b", "b", 0.30, 100),
		yesToken("t_c", "c", 0.30, 100),
	}
	st := SettingsInput{MaxNotional: 9}.Resolve()

	alloc, err := newTestOptimizer().Solve(exactlyOneScenarios(), tokens, st, time.Second)
	require.NoError(t, err)

	notional := 0.0
	for _, pos := range alloc.Positions {
		notional += pos.Buy * pos.Token.Ask
	}
	assert.LessOrEqual(t, notional, 9.0+1e-6)
	// Profit scales with the cap: 10 shares per leg.
	assert.InDelta(t, 1.0, alloc.Profit, 1e-6)
}

func TestOptimizer_FlatFeeErodesProfit(t *testing.T) {
	tokens := []domain.Token{
		yesToken("t_a", "a", 0.30, 100),
		yesToken("t_b", "b", 0.30, 100),
		yesToken("t_c", "c", 0.30, 100),
	}
	st := SettingsInput{FeeBps: 100}.Resolve() // 1% of price per share

	alloc, err := newTestOptimizer().Solve(exactlyOneScenarios(), tokens, st, time.Second)
	require.NoError(t, err)

	// Cost per unit rises from 0.90 to 0.909: profit 100*(1-0.909).
	assert.InDelta(t, 9.1, alloc.Profit, 1e-6)
}

func TestOptimizer_PerTokenFeeOverrideWhenLarger(t *testing.T) {
	tok := yesToken("t_a", "a", 0.50, 10)
	tok.FeeBps = 200
	st := SettingsInput{FeeBps: 100}.Resolve()

	alloc, err := newTestOptimizer().Solve([]domain.Outcome{{"a": 1}}, []domain.Token{tok}, st, time.Second)
	require.NoError(t, err)

	// Buy cost per share = 0.50 * 1.02; profit = 10 * (1 - 0.51).
	assert.InDelta(t, 4.9, alloc.Profit, 1e-6)
}

func TestEffectiveFee(t *testing.T) {
	flat := SettingsInput{}.Resolve()
	assert.InDelta(t, 0.005, effectiveFee(0.5, 100, flat), 1e-12)
	assert.Zero(t, effectiveFee(0, 100, flat))
	assert.Zero(t, effectiveFee(0.5, 0, flat))

	// Curve fee peaks at even money: p * (bps/1000) * rate * (p(1-p))^exp.
	curved := SettingsInput{FeeCurveRate: 2, FeeCurveExponent: 1}.Resolve()
	assert.InDelta(t, 0.5*0.1*2*0.25, effectiveFee(0.5, 100, curved), 1e-12)
	assert.Greater(t, effectiveFee(0.5, 100, curved), effectiveFee(0.1, 100, curved))
}

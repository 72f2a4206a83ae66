package arbitrage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/arbiter/internal/domain"
)

func TestFormatOpportunity(t *testing.T) {
	res := &Result{
		Profit: 0.4,
		Cost:   0.6,
		Positions: []domain.Position{
			{Token: domain.Token{ID: "t_a", Ask: 0.30, Bid: 0.25, Label: "Team A"}, Buy: 1},
			{Token: domain.Token{ID: "t_b", Ask: 0.35, Bid: 0.32}, Sell: 2},
			{Token: domain.Token{ID: "t_c", Ask: 0.10, Bid: 0.05}, Buy: 1e-10, Sell: 1e-10},
		},
		Scenarios: []domain.Outcome{{"a": 1, "b": 0}},
		Elapsed:   42 * time.Millisecond,
	}

	opp := FormatOpportunity(res)

	assert.Equal(t, int64(42), opp.RuntimeMs)
	assert.Equal(t, 0.4, opp.GuaranteedProfit)
	assert.Equal(t, 0.6, opp.Cost)
	assert.Len(t, opp.Outcomes, 1)

	// Noise-level quantities on t_c produce no legs.
	assert.Len(t, opp.Legs, 2)

	buy := opp.Legs[0]
	assert.Equal(t, "t_a", buy.TokenID)
	assert.Equal(t, domain.OrderBuy, buy.Side)
	assert.Equal(t, 0.30, buy.Price, "buys execute at the ask")
	assert.Equal(t, "Team A", buy.Label)

	sell := opp.Legs[1]
	assert.Equal(t, "t_b", sell.TokenID)
	assert.Equal(t, domain.OrderSell, sell.Side)
	assert.Equal(t, 0.32, sell.Price, "sells execute at the bid")
	assert.Equal(t, 2.0, sell.Shares)
}

func TestFormatOpportunity_MixedPosition(t *testing.T) {
	// A token both bought and sold yields two legs.
	res := &Result{
		Positions: []domain.Position{
			{Token: domain.Token{ID: "t_a", Ask: 0.30, Bid: 0.28}, Buy: 1, Sell: 0.5},
		},
	}

	opp := FormatOpportunity(res)
	assert.Len(t, opp.Legs, 2)
	assert.Equal(t, domain.OrderBuy, opp.Legs[0].Side)
	assert.Equal(t, domain.OrderSell, opp.Legs[1].Side)
}

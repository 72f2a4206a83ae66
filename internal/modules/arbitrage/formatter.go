package arbitrage

import (
	"github.com/aristath/arbiter/internal/domain"
)

// legEpsilon suppresses floating-point noise when turning allocations into
// discrete order legs.
const legEpsilon = 1e-8

// FormatOpportunity converts the accepted best candidate into its executable
// legs and profit certificate: one BUY leg at the ask per non-negligible buy
// quantity, one SELL leg at the bid per non-negligible sell quantity, plus
// the exact scenario set that certifies the guaranteed profit.
func FormatOpportunity(res *Result) Opportunity {
	var legs []domain.Leg
	for _, pos := range res.Positions {
		if pos.Buy > legEpsilon {
			legs = append(legs, domain.Leg{
				TokenID: pos.Token.ID,
				Side:    domain.OrderBuy,
				Price:   pos.Token.Ask,
				Shares:  pos.Buy,
				Label:   pos.Token.Label,
			})
		}
		if pos.Sell > legEpsilon {
			legs = append(legs, domain.Leg{
				TokenID: pos.Token.ID,
				Side:    domain.OrderSell,
				Price:   pos.Token.Bid,
				Shares:  pos.Sell,
				Label:   pos.Token.Label,
			})
		}
	}

	return Opportunity{
		RuntimeMs:        res.Elapsed.Milliseconds(),
		GuaranteedProfit: res.Profit,
		Cost:             res.Cost,
		Legs:             legs,
		Outcomes:         res.Scenarios,
	}
}

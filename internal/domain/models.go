package domain

// Side identifies which outcome of a condition a token pays on.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Condition represents one binary real-world event underlying a market.
// Conditions are created from the request payload and never mutated.
type Condition struct {
	ID string `json:"id"`
}

// Token is one tradable side (YES or NO) of a condition, carrying the
// top-of-book quote and available depth for each direction.
type Token struct {
	ID          string  `json:"tokenId"`
	ConditionID string  `json:"conditionId"`
	Side        Side    `json:"outcome"`
	Ask         float64 `json:"ask"`
	Bid         float64 `json:"bid"`
	AskSize     float64 `json:"askSize"`
	BidSize     float64 `json:"bidSize"`
	FeeBps      float64 `json:"feeBps"`
	Label       string  `json:"label,omitempty"`
}

// GroupKind is a cardinality constraint type over a set of conditions.
type GroupKind string

const (
	GroupOneOf   GroupKind = "one_of"
	GroupAtMost  GroupKind = "at_most"
	GroupAtLeast GroupKind = "at_least"
)

// ConstraintGroup constrains how many conditions in a set may be true.
type ConstraintGroup struct {
	Kind         GroupKind
	K            int
	ConditionIDs []string
}

// RelationKind is a pairwise logical constraint type between two conditions.
type RelationKind string

const (
	RelationImplies         RelationKind = "implies"
	RelationMutualExclusive RelationKind = "mutual_exclusive"
)

// Relation links two conditions logically: If/Then for implications,
// A/B for mutual exclusion.
type Relation struct {
	Kind RelationKind
	If   string
	Then string
	A    string
	B    string
}

// Outcome is a total truth assignment: every condition id maps to 0 or 1.
// One outcome constitutes one scenario.
type Outcome map[string]int

// Equal reports whether two outcomes assign the same truth value to the
// same set of conditions. Outcomes compare by value, never by identity.
func (o Outcome) Equal(other Outcome) bool {
	if len(o) != len(other) {
		return false
	}
	for id, v := range o {
		w, ok := other[id]
		if !ok || v != w {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of the outcome.
func (o Outcome) Clone() Outcome {
	out := make(Outcome, len(o))
	for id, v := range o {
		out[id] = v
	}
	return out
}

// SatisfiesGroup reports whether the outcome honors a cardinality group.
func (o Outcome) SatisfiesGroup(g ConstraintGroup) bool {
	if len(g.ConditionIDs) == 0 {
		return true
	}
	count := 0
	for _, id := range g.ConditionIDs {
		count += o[id]
	}
	switch g.Kind {
	case GroupOneOf:
		return count == 1
	case GroupAtMost:
		return count <= g.K
	case GroupAtLeast:
		return count >= g.K
	}
	return true
}

// SatisfiesRelation reports whether the outcome honors a pairwise relation.
func (o Outcome) SatisfiesRelation(r Relation) bool {
	switch r.Kind {
	case RelationImplies:
		return o[r.If] <= o[r.Then]
	case RelationMutualExclusive:
		return o[r.A]+o[r.B] <= 1
	}
	return true
}

// Position is the optimized buy/sell quantity for a single token.
type Position struct {
	Token Token
	Buy   float64
	Sell  float64
}

// Delta is the signed net exposure: positive for net-buy, negative for
// net-sell.
func (p Position) Delta() float64 {
	return p.Buy - p.Sell
}

// OrderSide is the direction of a single order leg.
type OrderSide string

const (
	OrderBuy  OrderSide = "BUY"
	OrderSell OrderSide = "SELL"
)

// Leg is one executable order in the final portfolio.
type Leg struct {
	TokenID string    `json:"tokenId"`
	Side    OrderSide `json:"side"`
	Price   float64   `json:"price"`
	Shares  float64   `json:"shares"`
	Label   string    `json:"label,omitempty"`
}

// Payoff evaluates the portfolio payout under one outcome. A YES token pays
// its delta when the condition resolves true; a NO token pays its delta when
// it resolves false.
func Payoff(positions []Position, o Outcome) float64 {
	payoff := 0.0
	for _, p := range positions {
		truth := o[p.Token.ConditionID]
		if p.Token.Side == SideYes {
			payoff += p.Delta() * float64(truth)
		} else {
			payoff += p.Delta() * float64(1-truth)
		}
	}
	return payoff
}

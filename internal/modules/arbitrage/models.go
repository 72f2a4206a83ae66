package arbitrage

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/aristath/arbiter/internal/domain"
)

// Number is a tolerant float for quote and settings fields: JSON numbers,
// numeric strings, null and malformed values all decode, with anything
// unparseable coercing to zero instead of failing the request.
type Number float64

// UnmarshalJSON implements json.Unmarshaler.
func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(v)
	return nil
}

// SolveRequest is the single JSON input payload for one solve.
type SolveRequest struct {
	Conditions []ConditionInput `json:"conditions"`
	Tokens     []TokenInput     `json:"tokens"`
	Groups     []GroupInput     `json:"groups"`
	Relations  []RelationInput  `json:"relations"`
	Settings   SettingsInput    `json:"settings"`
}

// ConditionInput identifies one binary condition.
type ConditionInput struct {
	ID string `json:"id"`
}

// TokenInput is one tradable side of a condition with its live quote.
type TokenInput struct {
	TokenID     string `json:"tokenId"`
	ConditionID string `json:"conditionId"`
	Outcome     string `json:"outcome"`
	Ask         Number `json:"ask"`
	Bid         Number `json:"bid"`
	AskSize     Number `json:"askSize"`
	BidSize     Number `json:"bidSize"`
	FeeBps      Number `json:"feeBps"`
	Label       string `json:"label,omitempty"`
}

// GroupInput is a cardinality constraint over condition ids.
type GroupInput struct {
	Type         string   `json:"type"`
	K            *int     `json:"k,omitempty"`
	ConditionIDs []string `json:"conditionIds"`
}

// RelationInput is a pairwise logical constraint between two conditions.
type RelationInput struct {
	Type string `json:"type"`
	If   string `json:"if,omitempty"`
	Then string `json:"then,omitempty"`
	A    string `json:"a,omitempty"`
	B    string `json:"b,omitempty"`
}

// SettingsInput carries the numeric configuration for one solve. Pointer
// fields distinguish "absent" (documented default applies) from an explicit
// value.
type SettingsInput struct {
	MinProfit        Number  `json:"minProfit"`
	MinDepth         Number  `json:"minDepth"`
	MinDepthUsd      Number  `json:"minDepthUsd"`
	AllowSells       *bool   `json:"allowSells,omitempty"`
	MaxLegs          Number  `json:"maxLegs"`
	MaxNotional      Number  `json:"maxNotional"`
	FeeBps           Number  `json:"feeBps"`
	SlippageBps      Number  `json:"slippageBps"`
	FeeCurveRate     Number  `json:"feeCurveRate"`
	FeeCurveExponent Number  `json:"feeCurveExponent"`
	OracleTimeout    *Number `json:"oracleTimeout,omitempty"`
	MaxIter          *Number `json:"maxIter,omitempty"`
	Tolerance        *Number `json:"tolerance,omitempty"`
	Scale            *Number `json:"scale,omitempty"`
}

// Defaults applied when a settings field is absent from the payload.
const (
	DefaultOracleTimeout = 2 * time.Second
	DefaultMaxIter       = 12
	DefaultTolerance     = 1e-5
	DefaultScale         = 1_000_000
)

// Settings is the resolved, immutable configuration for one solve.
type Settings struct {
	MinProfit        float64
	MinDepth         float64
	MinDepthUSD      float64
	AllowSells       bool
	MaxLegs          int
	MaxNotional      float64
	FeeBps           float64
	SlippageBps      float64
	FeeCurveRate     float64
	FeeCurveExponent float64
	OracleTimeout    time.Duration
	MaxIter          int
	Tolerance        float64
	Scale            float64
}

// Resolve applies defaults for absent fields and converts units.
func (in SettingsInput) Resolve() Settings {
	st := Settings{
		MinProfit:        float64(in.MinProfit),
		MinDepth:         float64(in.MinDepth),
		MinDepthUSD:      float64(in.MinDepthUsd),
		AllowSells:       true,
		MaxLegs:          int(in.MaxLegs),
		MaxNotional:      float64(in.MaxNotional),
		FeeBps:           float64(in.FeeBps),
		SlippageBps:      float64(in.SlippageBps),
		FeeCurveRate:     float64(in.FeeCurveRate),
		FeeCurveExponent: float64(in.FeeCurveExponent),
		OracleTimeout:    DefaultOracleTimeout,
		MaxIter:          DefaultMaxIter,
		Tolerance:        DefaultTolerance,
		Scale:            DefaultScale,
	}
	if in.AllowSells != nil {
		st.AllowSells = *in.AllowSells
	}
	if in.OracleTimeout != nil {
		st.OracleTimeout = time.Duration(float64(*in.OracleTimeout) * float64(time.Second))
	}
	if in.MaxIter != nil {
		st.MaxIter = int(*in.MaxIter)
	}
	if in.Tolerance != nil {
		st.Tolerance = float64(*in.Tolerance)
	}
	if in.Scale != nil {
		st.Scale = float64(*in.Scale)
	}
	return st
}

// Token converts the wire token into its domain form.
func (in TokenInput) Token() domain.Token {
	side := domain.SideNo
	if strings.EqualFold(in.Outcome, string(domain.SideYes)) {
		side = domain.SideYes
	}
	return domain.Token{
		ID:          in.TokenID,
		ConditionID: in.ConditionID,
		Side:        side,
		Ask:         float64(in.Ask),
		Bid:         float64(in.Bid),
		AskSize:     float64(in.AskSize),
		BidSize:     float64(in.BidSize),
		FeeBps:      float64(in.FeeBps),
		Label:       in.Label,
	}
}

// Group converts the wire group into its domain form. The kind is matched
// case-insensitively; unknown kinds yield ok=false and are skipped.
func (in GroupInput) Group() (domain.ConstraintGroup, bool) {
	g := domain.ConstraintGroup{K: 1, ConditionIDs: in.ConditionIDs}
	if in.K != nil {
		g.K = *in.K
	}
	switch domain.GroupKind(strings.ToLower(in.Type)) {
	case domain.GroupOneOf:
		g.Kind = domain.GroupOneOf
	case domain.GroupAtMost:
		g.Kind = domain.GroupAtMost
	case domain.GroupAtLeast:
		g.Kind = domain.GroupAtLeast
	default:
		return g, false
	}
	return g, true
}

// Relation converts the wire relation into its domain form. Unknown kinds
// yield ok=false and are skipped.
func (in RelationInput) Relation() (domain.Relation, bool) {
	r := domain.Relation{If: in.If, Then: in.Then, A: in.A, B: in.B}
	switch domain.RelationKind(strings.ToLower(in.Type)) {
	case domain.RelationImplies:
		r.Kind = domain.RelationImplies
	case domain.RelationMutualExclusive:
		r.Kind = domain.RelationMutualExclusive
	default:
		return r, false
	}
	return r, true
}

// Envelope is the single JSON output payload.
type Envelope struct {
	Status        string        `json:"status"`
	Error         string        `json:"error,omitempty"`
	Opportunities []Opportunity `json:"opportunities,omitempty"`
}

// Opportunity is one executable arbitrage with its profit certificate.
type Opportunity struct {
	RuntimeMs        int64            `json:"runtimeMs"`
	GuaranteedProfit float64          `json:"guaranteedProfit"`
	Cost             float64          `json:"cost"`
	Legs             []domain.Leg     `json:"legs"`
	Outcomes         []domain.Outcome `json:"outcomes"`
}

// okEnvelope builds a success envelope; opportunities is never nil so the
// JSON always carries an array.
func okEnvelope(opps ...Opportunity) *Envelope {
	if opps == nil {
		opps = []Opportunity{}
	}
	return &Envelope{Status: "ok", Opportunities: opps}
}

func errorEnvelope(msg string) *Envelope {
	return &Envelope{Status: "error", Error: msg}
}

// MarshalJSON keeps the opportunities array present (possibly empty) on
// success envelopes.
func (e *Envelope) MarshalJSON() ([]byte, error) {
	type alias struct {
		Status        string        `json:"status"`
		Error         string        `json:"error,omitempty"`
		Opportunities []Opportunity `json:"opportunities,omitempty"`
	}
	a := alias{Status: e.Status, Error: e.Error, Opportunities: e.Opportunities}
	if e.Status == "ok" && a.Opportunities == nil {
		a.Opportunities = []Opportunity{}
	}
	if e.Status == "ok" {
		return json.Marshal(struct {
			Status        string        `json:"status"`
			Opportunities []Opportunity `json:"opportunities"`
		}{a.Status, a.Opportunities})
	}
	return json.Marshal(a)
}

package arbitrage

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aristath/arbiter/internal/domain"
	"github.com/aristath/arbiter/internal/solver/sat"
)

func newTestOracle() *Oracle {
	return NewOracle(sat.NewBranchSolver(), zerolog.Nop())
}

func TestOracle_ExtremeOutcomesSatisfyModel(t *testing.T) {
	condIDs := []string{"a", "b", "c"}
	group := domain.ConstraintGroup{Kind: domain.GroupOneOf, K: 1, ConditionIDs: condIDs}
	m := BuildModel(condIDs, []domain.ConstraintGroup{group}, nil)

	outcomes := newTestOracle().ExtremeOutcomes(m, time.Second)
	require.NotEmpty(t, outcomes)

	for _, out := range outcomes {
		assert.Len(t, out, 3, "outcome must assign every condition")
		assert.True(t, out.SatisfiesGroup(group), "oracle must never emit an infeasible outcome")
	}
}

func TestOracle_ExtremeOutcomesDeduplicated(t *testing.T) {
	// Exactly-one over a single condition has one feasible outcome, so the
	// min and max searches collapse to the same seed.
	condIDs := []string{"a"}
	m := BuildModel(condIDs, []domain.ConstraintGroup{
		{Kind: domain.GroupOneOf, K: 1, ConditionIDs: condIDs},
	}, nil)

	outcomes := newTestOracle().ExtremeOutcomes(m, time.Second)
	assert.Len(t, outcomes, 1)
}

func TestOracle_ExtremeOutcomesInfeasibleModel(t *testing.T) {
	condIDs := []string{"a", "b"}
	m := BuildModel(condIDs, []domain.ConstraintGroup{
		{Kind: domain.GroupAtLeast, K: 2, ConditionIDs: condIDs},
		{Kind: domain.GroupAtMost, K: 0, ConditionIDs: condIDs},
	}, nil)

	outcomes := newTestOracle().ExtremeOutcomes(m, time.Second)
	assert.Empty(t, outcomes)
}

func TestOracle_WorstOutcomeHurtsPortfolio(t *testing.T) {
	// Long YES on "a" with no constraints: the adversary resolves "a" false.
	condIDs := []string{"a", "b"}
	m := BuildModel(condIDs, nil, nil)

	positions := []domain.Position{
		{Token: domain.Token{ID: "t1", ConditionID: "a", Side: domain.SideYes}, Buy: 1},
	}

	worst, ok := newTestOracle().WorstOutcome(m, positions, time.Second, 1e6)
	require.True(t, ok)
	assert.Equal(t, 0, worst["a"])
	assert.InDelta(t, 0.0, domain.Payoff(positions, worst), 1e-9)
}

func TestOracle_WorstOutcomeNoSideFlipsObjective(t *testing.T) {
	// Long NO on "a": the adversary now wants "a" true.
	condIDs := []string{"a"}
	m := BuildModel(condIDs, nil, nil)

	positions := []domain.Position{
		{Token: domain.Token{ID: "t1", ConditionID: "a", Side: domain.SideNo}, Buy: 2},
	}

	worst, ok := newTestOracle().WorstOutcome(m, positions, time.Second, 1e6)
	require.True(t, ok)
	assert.Equal(t, 1, worst["a"])
}

func TestOracle_WorstOutcomeRespectsConstraints(t *testing.T) {
	// Mutual exclusion plus coverage: adversary must still pick a feasible
	// outcome even though resolving both false would hurt more.
	condIDs := []string{"a", "b"}
	group := domain.ConstraintGroup{Kind: domain.GroupAtLeast, K: 1, ConditionIDs: condIDs}
	rel := domain.Relation{Kind: domain.RelationMutualExclusive, A: "a", B: "b"}
	m := BuildModel(condIDs, []domain.ConstraintGroup{group}, []domain.Relation{rel})

	positions := []domain.Position{
		{Token: domain.Token{ID: "t1", ConditionID: "a", Side: domain.SideYes}, Buy: 1},
		{Token: domain.Token{ID: "t2", ConditionID: "b", Side: domain.SideYes}, Buy: 1},
	}

	worst, ok := newTestOracle().WorstOutcome(m, positions, time.Second, 1e6)
	require.True(t, ok)
	assert.True(t, worst.SatisfiesGroup(group))
	assert.True(t, worst.SatisfiesRelation(rel))
	assert.InDelta(t, 1.0, domain.Payoff(positions, worst), 1e-9)
}

func TestOracle_WorstOutcomeScaleGranularityStable(t *testing.T) {
	// Position deltas near the integer-scaling granularity round away without
	// breaking feasibility, at both a coarse and a fine scale.
	condIDs := []string{"a", "b"}
	group := domain.ConstraintGroup{Kind: domain.GroupOneOf, K: 1, ConditionIDs: condIDs}
	m := BuildModel(condIDs, []domain.ConstraintGroup{group}, nil)

	positions := []domain.Position{
		{Token: domain.Token{ID: "t1", ConditionID: "a", Side: domain.SideYes}, Buy: 1},
		{Token: domain.Token{ID: "t2", ConditionID: "b", Side: domain.SideYes}, Buy: 1 + 4e-7},
	}

	for _, scale := range []float64{1e3, 1e6} {
		worst, ok := newTestOracle().WorstOutcome(m, positions, time.Second, scale)
		require.True(t, ok, "scale %g", scale)
		assert.True(t, worst.SatisfiesGroup(group), "scale %g", scale)
	}
}

func TestOracle_WorstOutcomeTinyCoefficientsIgnored(t *testing.T) {
	// Deltas below the scaling cutoff contribute no objective term; the call
	// still returns some feasible outcome.
	condIDs := []string{"a"}
	m := BuildModel(condIDs, nil, nil)

	positions := []domain.Position{
		{Token: domain.Token{ID: "t1", ConditionID: "a", Side: domain.SideYes}, Buy: 1e-13},
	}

	_, ok := newTestOracle().WorstOutcome(m, positions, time.Second, 1e6)
	assert.True(t, ok)
}

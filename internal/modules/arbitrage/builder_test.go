package arbitrage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aristath/arbiter/internal/domain"
)

func TestBuildModel_Groups(t *testing.T) {
	condIDs := []string{"a", "b", "c"}

	tests := []struct {
		name     string
		groups   []domain.ConstraintGroup
		wantCons int
	}{
		{
			name:     "one_of emits a single equality",
			groups:   []domain.ConstraintGroup{{Kind: domain.GroupOneOf, K: 1, ConditionIDs: condIDs}},
			wantCons: 1,
		},
		{
			name: "at_most and at_least each emit one constraint",
			groups: []domain.ConstraintGroup{
				{Kind: domain.GroupAtMost, K: 2, ConditionIDs: condIDs},
				{Kind: domain.GroupAtLeast, K: 1, ConditionIDs: condIDs},
			},
			wantCons: 2,
		},
		{
			name:     "empty id list is skipped",
			groups:   []domain.ConstraintGroup{{Kind: domain.GroupOneOf, K: 1}},
			wantCons: 0,
		},
		{
			name:     "group of only unknown ids is skipped",
			groups:   []domain.ConstraintGroup{{Kind: domain.GroupOneOf, K: 1, ConditionIDs: []string{"x", "y"}}},
			wantCons: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := BuildModel(condIDs, tt.groups, nil)
			assert.Equal(t, 3, m.NumVars())
			assert.Len(t, m.Constraints(), tt.wantCons)
		})
	}
}

func TestBuildModel_Relations(t *testing.T) {
	condIDs := []string{"a", "b"}

	m := BuildModel(condIDs, nil, []domain.Relation{
		{Kind: domain.RelationImplies, If: "a", Then: "b"},
		{Kind: domain.RelationMutualExclusive, A: "a", B: "b"},
	})
	assert.Len(t, m.Constraints(), 2)
}

func TestBuildModel_UnknownRelationRefsDropped(t *testing.T) {
	condIDs := []string{"a", "b"}

	m := BuildModel(condIDs, nil, []domain.Relation{
		{Kind: domain.RelationImplies, If: "a", Then: "ghost"},
		{Kind: domain.RelationMutualExclusive, A: "ghost", B: "b"},
	})
	assert.Empty(t, m.Constraints(), "relations with unknown endpoints must be dropped")
}

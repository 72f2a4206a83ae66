package arbitrage

import (
	"github.com/aristath/arbiter/internal/domain"
	"github.com/aristath/arbiter/internal/solver/sat"
)

// BuildModel translates condition dependency metadata into a boolean
// constraint model with one 0/1 variable per condition id.
//
// Groups with an empty id list are skipped. References to unknown condition
// ids are dropped rather than treated as fatal: a group keeps its known
// members, a relation missing either endpoint is ignored entirely.
func BuildModel(condIDs []string, groups []domain.ConstraintGroup, relations []domain.Relation) *sat.Model {
	m := sat.NewModel()
	for _, id := range condIDs {
		m.BoolVar(id)
	}

	for _, g := range groups {
		if len(g.ConditionIDs) == 0 {
			continue
		}
		vars := make([]int, 0, len(g.ConditionIDs))
		for _, id := range g.ConditionIDs {
			if v, ok := m.Var(id); ok {
				vars = append(vars, v)
			}
		}
		if len(vars) == 0 {
			continue
		}
		switch g.Kind {
		case domain.GroupOneOf:
			m.AddSumEqual(vars, 1)
		case domain.GroupAtMost:
			m.AddSumAtMost(vars, int64(g.K))
		case domain.GroupAtLeast:
			m.AddSumAtLeast(vars, int64(g.K))
		}
	}

	for _, r := range relations {
		switch r.Kind {
		case domain.RelationImplies:
			a, okA := m.Var(r.If)
			b, okB := m.Var(r.Then)
			if okA && okB {
				m.AddImplication(a, b)
			}
		case domain.RelationMutualExclusive:
			a, okA := m.Var(r.A)
			b, okB := m.Var(r.B)
			if okA && okB {
				m.AddMutualExclusion(a, b)
			}
		}
	}

	return m
}

// Package sat provides the boolean constraint solving capability used by the
// outcome oracle: 0/1 decision variables, linear equality/inequality
// constraints over them, and an integer linear objective solved within a
// wall-clock budget.
package sat

// Op is a linear constraint comparison operator.
type Op int

const (
	OpEq Op = iota
	OpLe
	OpGe
)

// Term is one coefficient*variable entry in a linear expression.
type Term struct {
	Var   int
	Coeff int64
}

// Constraint is a linear constraint sum(terms) Op RHS.
type Constraint struct {
	Terms []Term
	Op    Op
	RHS   int64
}

// Model is a set of named 0/1 variables and linear constraints over them.
type Model struct {
	names []string
	index map[string]int
	cons  []Constraint
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{index: make(map[string]int)}
}

// BoolVar returns the index of the named 0/1 variable, creating it if needed.
func (m *Model) BoolVar(name string) int {
	if idx, ok := m.index[name]; ok {
		return idx
	}
	idx := len(m.names)
	m.names = append(m.names, name)
	m.index[name] = idx
	return idx
}

// Var looks up an existing variable by name.
func (m *Model) Var(name string) (int, bool) {
	idx, ok := m.index[name]
	return idx, ok
}

// VarName returns the name of the variable at idx.
func (m *Model) VarName(idx int) string {
	return m.names[idx]
}

// NumVars returns the number of variables in the model.
func (m *Model) NumVars() int {
	return len(m.names)
}

// Constraints returns the constraints added so far.
func (m *Model) Constraints() []Constraint {
	return m.cons
}

// Add appends a raw constraint.
func (m *Model) Add(c Constraint) {
	m.cons = append(m.cons, c)
}

// AddSumEqual emits sum(vars) = k.
func (m *Model) AddSumEqual(vars []int, k int64) {
	m.Add(Constraint{Terms: unitTerms(vars), Op: OpEq, RHS: k})
}

// AddSumAtMost emits sum(vars) <= k.
func (m *Model) AddSumAtMost(vars []int, k int64) {
	m.Add(Constraint{Terms: unitTerms(vars), Op: OpLe, RHS: k})
}

// AddSumAtLeast emits sum(vars) >= k.
func (m *Model) AddSumAtLeast(vars []int, k int64) {
	m.Add(Constraint{Terms: unitTerms(vars), Op: OpGe, RHS: k})
}

// AddImplication emits a <= b, i.e. a true forces b true.
func (m *Model) AddImplication(a, b int) {
	m.Add(Constraint{
		Terms: []Term{{Var: a, Coeff: 1}, {Var: b, Coeff: -1}},
		Op:    OpLe,
		RHS:   0,
	})
}

// AddMutualExclusion emits a + b <= 1.
func (m *Model) AddMutualExclusion(a, b int) {
	m.Add(Constraint{
		Terms: []Term{{Var: a, Coeff: 1}, {Var: b, Coeff: 1}},
		Op:    OpLe,
		RHS:   1,
	})
}

func unitTerms(vars []int) []Term {
	terms := make([]Term, 0, len(vars))
	for _, v := range vars {
		terms = append(terms, Term{Var: v, Coeff: 1})
	}
	return terms
}

package meta

import (
	"testing"

	"github.com/cottand/depmatch/frontend/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nat() ir.Term { return &ir.Def{Name: "Nat"} }

func TestAssign(t *testing.T) {
	s := NewStore()
	a := s.New("a", nat(), 0)
	f := s.New("f", nat(), 1)
	assert.ElementsMatch(t, []ir.MetaID{a, f}, s.Unsolved())

	require.NoError(t, s.Assign(a, &ir.Con{Name: "zero"}))
	sol, ok := s.Solution(a)
	require.True(t, ok)
	assert.Equal(t, "zero", sol.String())
	assert.Equal(t, []ir.MetaID{f}, s.Unsolved())

	testCases := []struct {
		name     string
		id       ir.MetaID
		solution ir.Term
	}{
		{"already assigned", a, &ir.Con{Name: "zero"}},
		{"unknown", 42, &ir.Con{Name: "zero"}},
		{"open", f, &ir.Lam{Name: "x", Body: ir.NewVar(1)}},
		{"too few lambdas", f, &ir.Con{Name: "zero"}},
		{"occurs", f, &ir.Lam{Name: "x", Body: &ir.Meta{ID: f}}},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Error(t, s.Assign(testCase.id, testCase.solution))
		})
	}
}

func TestSnapshotRestore(t *testing.T) {
	s := NewStore()
	a := s.New("a", nat(), 0)
	snap := s.Snapshot()

	b := s.New("b", nat(), 0)
	require.NoError(t, s.Assign(a, &ir.Con{Name: "zero"}))
	s.Restore(snap)

	_, solved := s.Solution(a)
	assert.False(t, solved, "assignments after the snapshot are forgotten")
	_, known := s.Lookup(b)
	assert.False(t, known, "metavariables created after the snapshot are forgotten")
	assert.Equal(t, b, s.New("c", nat(), 0), "ids are reused after a restore")
}

func TestInstantiate(t *testing.T) {
	s := NewStore()
	f := s.New("f", nat(), 1)
	g := s.New("g", nat(), 0)
	require.NoError(t, s.Assign(f, &ir.Lam{Name: "x", Body: &ir.Con{Name: "suc", Args: []ir.Term{ir.NewVar(0)}}}))

	term := &ir.Def{Name: "P", Args: []ir.Term{&ir.Meta{ID: f, Args: []ir.Term{&ir.Meta{ID: g}}}}}
	assert.Equal(t, "P (suc ?1)", s.Instantiate(term).String())

	require.NoError(t, s.Assign(g, &ir.Con{Name: "zero"}))
	assert.Equal(t, "P (suc zero)", s.Instantiate(term).String())
}

func TestAssignPattern(t *testing.T) {
	testCases := []struct {
		name     string
		args     []ir.Term
		rhs      ir.Term
		solved   bool
		solution string
	}{
		{
			name:     "identity",
			args:     []ir.Term{ir.NewVar(0)},
			rhs:      ir.NewVar(0),
			solved:   true,
			solution: "λ x0 → x0",
		},
		{
			name:     "swap",
			args:     []ir.Term{ir.NewVar(0), ir.NewVar(1)},
			rhs:      &ir.Con{Name: "pair", Args: []ir.Term{ir.NewVar(0), ir.NewVar(1)}},
			solved:   true,
			solution: "λ x0 → λ x1 → pair x0 x1",
		},
		{
			name:   "repeated argument",
			args:   []ir.Term{ir.NewVar(0), ir.NewVar(0)},
			rhs:    ir.NewVar(0),
			solved: false,
		},
		{
			name:   "non-variable argument",
			args:   []ir.Term{&ir.Con{Name: "zero"}, ir.NewVar(0)},
			rhs:    ir.NewVar(0),
			solved: false,
		},
		{
			name:   "escaping variable",
			args:   []ir.Term{ir.NewVar(0), ir.NewVar(1)},
			rhs:    ir.NewVar(2),
			solved: false,
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			s := NewStore()
			m := s.New("m", nat(), len(testCase.args))
			solved, err := s.AssignPattern(&ir.Meta{ID: m, Args: testCase.args}, testCase.rhs)
			require.NoError(t, err)
			assert.Equal(t, testCase.solved, solved)
			sol, ok := s.Solution(m)
			assert.Equal(t, testCase.solved, ok)
			if testCase.solved {
				assert.Equal(t, testCase.solution, sol.String())
			}
		})
	}
}

func TestAssignPatternOccurs(t *testing.T) {
	s := NewStore()
	m := s.New("m", nat(), 1)
	solved, err := s.AssignPattern(&ir.Meta{ID: m, Args: []ir.Term{ir.NewVar(0)}}, &ir.Con{Name: "suc", Args: []ir.Term{&ir.Meta{ID: m, Args: []ir.Term{ir.NewVar(0)}}}})
	require.NoError(t, err)
	assert.False(t, solved)
}

package unify

import (
	"slices"

	"github.com/cottand/depmatch/frontend/ast"
	"github.com/cottand/depmatch/frontend/ilerr"
	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/frontend/telescope"
	"github.com/hashicorp/go-set/v3"
)

// CheckRewriteLHS checks that the arguments of a rewrite rule's left-hand side, in the
// context tel, bind every variable of tel exactly once and that rhs mentions nothing else.
// Occurrences inside the arguments of a variable do not bind, as they cannot be matched.
func CheckRewriteLHS(tel telescope.Telescope, lhs []ir.Term, rhs ir.Term, source ast.Positioner) error {
	bound := make(map[int]int)
	for _, arg := range lhs {
		countBinders(arg, 0, bound)
	}
	var nonLinear []string
	for i, n := range bound {
		if n > 1 {
			nonLinear = append(nonLinear, nameOf(tel, i))
		}
	}
	if len(nonLinear) > 0 {
		slices.Sort(nonLinear)
		return ilerr.New(ilerr.NewNonLinearVariable{Positioner: ast.RangeOf(source), Names: nonLinear})
	}

	// the variables the types of used variables mention must be bound as well
	used := telescope.VarDependencies(tel, ir.FreeVars(rhs))
	unbound := set.New[string](0)
	for _, i := range used.Slice() {
		if _, ok := bound[i]; !ok {
			unbound.Insert(nameOf(tel, i))
		}
	}
	if !unbound.Empty() {
		names := unbound.Slice()
		slices.Sort(names)
		return ilerr.New(ilerr.NewUnboundVariable{Positioner: ast.RangeOf(source), Names: names})
	}
	return nil
}

// countBinders counts the pattern positions of every variable of t, under depth binders
func countBinders(t ir.Term, depth int, acc map[int]int) {
	switch t := t.(type) {
	case *ir.Var:
		if len(t.Args) == 0 && t.Index >= depth {
			acc[t.Index-depth]++
		}
	case *ir.Con:
		for _, arg := range t.Args {
			countBinders(arg, depth, acc)
		}
	case *ir.Def:
		for _, arg := range t.Args {
			countBinders(arg, depth, acc)
		}
	case *ir.Lam:
		countBinders(t.Body, depth+1, acc)
	}
}

func nameOf(tel telescope.Telescope, i int) string {
	if i < tel.Size() && tel.AtIndex(i).Name != "" {
		return tel.AtIndex(i).Name
	}
	return ir.NewVar(i).String()
}

package lhs

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/cottand/depmatch/frontend/ast"
	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/frontend/telescope"
)

// ProblemEq says that the user pattern Pattern has to match Term, of type Type.
// Term and Type live in the telescope of the State the equation belongs to.
type ProblemEq struct {
	Pattern ast.Pattern
	// Info is the argument info of the position the pattern was written at
	Info ir.ArgInfo
	Term ir.Term
	Type ir.Term
}

func (eq ProblemEq) apply(s ir.Subst) ProblemEq {
	eq.Term = ir.ApplySubst(s, eq.Term)
	eq.Type = ir.ApplySubst(s, eq.Type)
	return eq
}

// Problem is what is left to check of a left-hand side
type Problem struct {
	Eqs []ProblemEq
	// RestPats are the patterns beyond the arguments the type of the function is known
	// to have so far. They get an equation once the target reduces to a function type.
	RestPats []ast.NamedArg
}

// InPats are the user patterns of the equations, in order
func (p Problem) InPats() []ast.Pattern {
	ret := make([]ast.Pattern, len(p.Eqs))
	for i, eq := range p.Eqs {
		ret[i] = eq.Pattern
	}
	return ret
}

// IsSolved reports whether nothing is left to split on
func (p Problem) IsSolved() bool {
	if len(p.RestPats) > 0 {
		return false
	}
	for _, eq := range p.Eqs {
		if ast.IsConstructorPattern(eq.Pattern) {
			return false
		}
	}
	return true
}

// State is one iteration of the splitting loop
type State struct {
	// Tel holds the pattern variables
	Tel telescope.Telescope
	// OutPats are the internal patterns of the arguments checked so far, in the context of Tel
	OutPats []ir.PatArg
	Problem Problem
	// Target is the type of the right-hand side, in the context of Tel
	Target ir.Term
	// PartialSplit holds the argument positions where a split was not asked for by the
	// user, and those whose pattern has an absurd pattern directly under a constructor
	PartialSplit []int
	// IndexedSplit is set once a split on an indexed datatype happened
	IndexedSplit bool
}

// apply moves the state to a new telescope, where sub maps the current telescope to it
func (st *State) apply(tel telescope.Telescope, sub ir.PatSubst) {
	terms := sub.Terms()
	st.Tel = tel
	for i, p := range st.OutPats {
		st.OutPats[i] = ir.PatArg{Info: p.Info, Pattern: ir.ApplyPatSubst(sub, p.Pattern)}
	}
	for i, eq := range st.Problem.Eqs {
		st.Problem.Eqs[i] = eq.apply(terms)
	}
	st.Target = ir.ApplySubst(terms, st.Target)
}

// extend adds a pattern variable for the domain of the target
func (st *State) extend(pi *ir.Pi, arg ast.NamedArg) {
	dom := pi.Dom
	if v, ok := arg.Pattern.(*ast.VarP); ok && (dom.Name == "" || dom.Name == "_") {
		dom.Name = v.Name
	}
	st.apply(st.Tel.Extend(dom), ir.NewPatSubst(nil, 1))
	st.OutPats = append(st.OutPats, ir.PatArg{Info: arg.Info, Pattern: &ir.VarP{Name: dom.Name, Index: 0}})
	st.Problem.Eqs = append(st.Problem.Eqs, ProblemEq{
		Pattern: arg.Pattern,
		Info:    arg.Info,
		Term:    ir.NewVar(0),
		Type:    ir.Raise(1, dom.Type),
	})
	st.Target = pi.Cod
}

func (st *State) addPartialSplit(pos int) {
	if !slices.Contains(st.PartialSplit, pos) {
		st.PartialSplit = append(st.PartialSplit, pos)
	}
}

// argPosition returns the position of the argument whose pattern binds variable i
func (st *State) argPosition(i int) (int, bool) {
	for pos, p := range st.OutPats {
		for _, v := range ir.PatVars(p.Pattern) {
			if v == i {
				return pos, true
			}
		}
	}
	return 0, false
}

func (st *State) String() string {
	sb := &strings.Builder{}
	names := st.Tel.Names()
	sb.WriteString("tel: " + st.Tel.String() + "\n")
	pats := make([]string, len(st.OutPats))
	for i, p := range st.OutPats {
		pats[i] = ir.ShowPatArgIn(names, ir.PatArg{Info: p.Info, Pattern: ir.LabelPattern(names, p.Pattern)})
	}
	sb.WriteString("out: " + strings.Join(pats, " ") + "\n")
	for _, eq := range st.Problem.Eqs {
		sb.WriteString(fmt.Sprintf("eq: %s = %s : %s\n", ast.PatternString(eq.Pattern), ir.Show(names, eq.Term), ir.Show(names, eq.Type)))
	}
	if len(st.Problem.RestPats) > 0 {
		rest := make([]string, len(st.Problem.RestPats))
		for i, a := range st.Problem.RestPats {
			rest[i] = ast.ArgString(a)
		}
		sb.WriteString("rest: " + strings.Join(rest, " ") + "\n")
	}
	sb.WriteString("target: " + ir.Show(names, st.Target))
	return sb.String()
}

func (st *State) LogValue() slog.Value {
	return slog.StringValue(st.String())
}

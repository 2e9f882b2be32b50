package lhs

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/depmatch/frontend/ast"
	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/frontend/telescope"
)

// PatVarName is a user pattern variable that ended up naming a variable of the telescope
type PatVarName struct {
	Name  string
	Range ast.Range
	// IsParam is set when the name is also the name of a module parameter
	IsParam bool
	// IsInstance is set when the variable was written at an instance argument position
	IsInstance bool
}

// AsBinding binds Name to Term in the right-hand side. Term and Type live in the
// context of the final telescope.
type AsBinding struct {
	Name     string
	Term     ir.Term
	Type     ir.Term
	Instance bool
	Range    ast.Range
}

func (a AsBinding) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", a.Name),
		slog.String("term", ir.Show(nil, a.Term)),
		slog.Bool("instance", a.Instance),
	)
}

// DotPattern is a dot pattern the user wrote and the value splitting determined for it
type DotPattern struct {
	Expr  ast.Expr
	Term  ir.Term
	Type  ir.Term
	Range ast.Range
}

type absurdPattern struct {
	Type  ir.Term
	Range ast.Range
}

type annPattern struct {
	Annotation ast.Expr
	Type       ir.Term
	Range      ast.Range
}

// leftovers are the patterns left in the problem once nothing can be split any more,
// sorted by what remains to be done with them
type leftovers struct {
	// names maps a de Bruijn index of the telescope to the user names written for it
	names      *immutable.SortedMap[int, []PatVarName]
	asBindings []AsBinding
	dots       []DotPattern
	absurds    []absurdPattern
	anns       []annPattern
	other      []ast.Pattern
}

func newLeftovers() leftovers {
	return leftovers{names: immutable.NewSortedMap[int, []PatVarName](nil)}
}

func (l leftovers) merge(other leftovers) leftovers {
	it := other.names.Iterator()
	for !it.Done() {
		i, ns, _ := it.Next()
		existing, _ := l.names.Get(i)
		l.names = l.names.Set(i, append(slices.Clip(existing), ns...))
	}
	l.asBindings = append(l.asBindings, other.asBindings...)
	l.dots = append(l.dots, other.dots...)
	l.absurds = append(l.absurds, other.absurds...)
	l.anns = append(l.anns, other.anns...)
	l.other = append(l.other, other.other...)
	return l
}

// classify sorts the pattern of eq into the leftovers it belongs to.
// fresh generates names for the instance arguments the user did not name.
func (c *Checker) classify(eq ProblemEq, fresh func() string) leftovers {
	ret := newLeftovers()
	r := ast.RangeOf(eq.Pattern)
	asB := func(name string) AsBinding {
		return AsBinding{Name: name, Term: eq.Term, Type: eq.Type, Instance: eq.Info.IsInstance(), Range: r}
	}
	switch p := eq.Pattern.(type) {
	case *ast.VarP:
		if i, ok := c.EtaVar(eq.Term, eq.Type); ok {
			ret.names = ret.names.Set(i, []PatVarName{{
				Name:       p.Name,
				Range:      p.Range,
				IsParam:    c.ModuleParams != nil && c.ModuleParams.Contains(p.Name),
				IsInstance: eq.Info.IsInstance(),
			}})
			return ret
		}
		ret.asBindings = append(ret.asBindings, asB(p.Name))
	case *ast.WildP:
		// unnamed instance arguments are still available to instance search
		if eq.Info.IsInstance() {
			ret.asBindings = append(ret.asBindings, asB(fresh()))
		}
	case *ast.AsP:
		ret.asBindings = append(ret.asBindings, asB(p.Name))
		eq.Pattern = p.Pattern
		return ret.merge(c.classify(eq, fresh))
	case *ast.DotP:
		ret.dots = append(ret.dots, DotPattern{Expr: p.Expr, Term: eq.Term, Type: eq.Type, Range: p.Range})
	case *ast.AbsurdP:
		ret.absurds = append(ret.absurds, absurdPattern{Type: eq.Type, Range: p.Range})
	case *ast.AnnP:
		ret.anns = append(ret.anns, annPattern{Annotation: p.Type, Type: eq.Type, Range: p.Range})
		eq.Pattern = p.Pattern
		return ret.merge(c.classify(eq, fresh))
	default:
		ret.other = append(ret.other, p)
	}
	return ret
}

func (c *Checker) classifyAll(eqs []ProblemEq) leftovers {
	ret := newLeftovers()
	n := 0
	fresh := func() string {
		n++
		return fmt.Sprintf("_%d", n)
	}
	for _, eq := range eqs {
		ret = ret.merge(c.classify(eq, fresh))
	}
	return ret
}

// userVariableNames picks a name for every variable of tel among the user names written
// for it, preferring names that do not shadow a module parameter. Variables nobody
// named keep their current name. The names not picked become as-bindings.
func userVariableNames(tel telescope.Telescope, names *immutable.SortedMap[int, []PatVarName]) ([]string, []AsBinding) {
	n := tel.Size()
	ret := tel.Names()
	var asBindings []AsBinding
	for i := 0; i < n; i++ {
		candidates, ok := names.Get(i)
		if !ok || len(candidates) == 0 {
			continue
		}
		level := n - 1 - i
		dom := tel.At(level)
		candidates = slices.Clone(candidates)
		slices.SortStableFunc(candidates, func(a, b PatVarName) int {
			switch {
			case a.IsParam == b.IsParam:
				return 0
			case b.IsParam:
				return -1
			default:
				return 1
			}
		})
		chosen := candidates[0]
		ret[level] = chosen.Name
		binding := func(v PatVarName, instance bool) AsBinding {
			return AsBinding{
				Name:     v.Name,
				Term:     ir.NewVar(i),
				Type:     ir.Raise(i+1, dom.Type),
				Instance: instance,
				Range:    v.Range,
			}
		}
		// an instance argument bound at a visible or hidden position has to stay available to instance search
		if chosen.IsInstance && !dom.Info.IsInstance() {
			asBindings = append(asBindings, binding(chosen, true))
		}
		for _, other := range candidates[1:] {
			asBindings = append(asBindings, binding(other, other.IsInstance))
		}
	}
	return ret, asBindings
}

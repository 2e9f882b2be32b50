package ir

import (
	"fmt"

	"github.com/hashicorp/go-set/v3"
)

// FreeVars returns the de Bruijn indices of the variables free in t
func FreeVars(t Term) *set.Set[int] {
	acc := set.New[int](0)
	collectFreeVars(acc, 0, t)
	return acc
}

// FreeVarsAll returns the free variables of all ts
func FreeVarsAll(ts ...Term) *set.Set[int] {
	acc := set.New[int](0)
	for _, t := range ts {
		collectFreeVars(acc, 0, t)
	}
	return acc
}

func collectFreeVars(acc *set.Set[int], depth int, t Term) {
	switch t := t.(type) {
	case *Var:
		if t.Index >= depth {
			acc.Insert(t.Index - depth)
		}
		for _, arg := range t.Args {
			collectFreeVars(acc, depth, arg)
		}
	case *Con:
		for _, arg := range t.Args {
			collectFreeVars(acc, depth, arg)
		}
	case *Def:
		for _, arg := range t.Args {
			collectFreeVars(acc, depth, arg)
		}
	case *Meta:
		for _, arg := range t.Args {
			collectFreeVars(acc, depth, arg)
		}
	case *Lam:
		collectFreeVars(acc, depth+1, t.Body)
	case *Pi:
		collectFreeVars(acc, depth, t.Dom.Type)
		collectFreeVars(acc, depth+1, t.Cod)
	case *Sort, *Lit:
	default:
		panic(fmt.Sprintf("impossible: unknown term %T", t))
	}
}

// FreeIn reports whether variable i occurs in t
func FreeIn(i int, t Term) bool {
	return FreeVars(t).Contains(i)
}

// OccursRigidly reports whether variable i occurs in t under constructors only,
// in which case no substitution can make t equal to Var i
func OccursRigidly(i int, t Term) bool {
	switch t := t.(type) {
	case *Var:
		return t.Index == i
	case *Con:
		for _, arg := range t.Args {
			if OccursRigidly(i, arg) {
				return true
			}
		}
	}
	return false
}

// Metas returns the metavariables mentioned in t, in order of first occurrence
func Metas(t Term) []MetaID {
	var ret []MetaID
	seen := set.New[MetaID](0)
	var walk func(Term)
	walk = func(t Term) {
		switch t := t.(type) {
		case *Var:
			walkAll(walk, t.Args)
		case *Con:
			walkAll(walk, t.Args)
		case *Def:
			walkAll(walk, t.Args)
		case *Meta:
			if seen.Insert(t.ID) {
				ret = append(ret, t.ID)
			}
			walkAll(walk, t.Args)
		case *Lam:
			walk(t.Body)
		case *Pi:
			walk(t.Dom.Type)
			walk(t.Cod)
		}
	}
	walk(t)
	return ret
}

func walkAll(walk func(Term), ts []Term) {
	for _, t := range ts {
		walk(t)
	}
}

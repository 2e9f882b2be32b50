package flex

import (
	"fmt"

	"github.com/cottand/depmatch/frontend/ir"
)

// Var is a flexible variable of a unification problem: a variable of the pattern
// telescope that unification is still allowed to instantiate
type Var struct {
	Info   ir.ArgInfo
	Forced bool
	Kind   Kind
	// Pos is the position hint of the variable, if any
	Pos *int
	// Index is the de Bruijn index of the variable in the telescope being unified
	Index int
}

func (v Var) String() string {
	pos := "_"
	if v.Pos != nil {
		pos = fmt.Sprint(*v.Pos)
	}
	return fmt.Sprintf("flex(@%d %v forced=%v %v pos=%s)", v.Index, v.Kind, v.Forced, v.Info.Hiding, pos)
}

// ChooseFlex decides which of x and y to solve when unifying them with each other.
// Criteria are tried in order: kind, forcedness, argument info, position hint and
// raw index, and the first definite answer wins.
func ChooseFlex(x, y Var) Choice {
	return FirstChoice(
		ChooseKind(x.Kind, y.Kind),
		ChooseForced(x.Forced, y.Forced),
		ChooseArgInfo(x.Info, y.Info),
		ChoosePos(x.Pos, y.Pos),
		ChooseInt(x.Index, y.Index),
	)
}

// Vars is the set of flexible variables of a unification problem, keyed by de Bruijn index
type Vars map[int]Var

func (vs Vars) Lookup(i int) (Var, bool) {
	v, ok := vs[i]
	return v, ok
}

// Without returns a copy of vs without variable i
func (vs Vars) Without(i int) Vars {
	ret := make(Vars, len(vs))
	for j, v := range vs {
		if j != i {
			ret[j] = v
		}
	}
	return ret
}

// Rename moves every variable to the index sub maps it to, dropping variables that are
// not sent to a variable
func (vs Vars) Rename(sub ir.Subst) Vars {
	ret := make(Vars, len(vs))
	for j, v := range vs {
		idx, ok := ir.IsVar(sub.Lookup(j))
		if !ok {
			continue
		}
		v.Index = idx
		ret[idx] = v
	}
	return ret
}

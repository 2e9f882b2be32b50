// Package telescope implements dependently typed contexts: ordered bindings where the
// type of each binding may mention every binding before it.
package telescope

import (
	"fmt"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/internal/log"
)

var logger = log.DefaultLogger.With("section", "telescope")

// Telescope is an immutable sequence of bindings. The type of the binding at level l
// lives in the context of the l bindings before it.
//
// The zero value is the empty telescope.
type Telescope struct {
	entries *immutable.List[ir.Dom]
}

func Empty() Telescope {
	return Telescope{}
}

// FromList builds a telescope from bindings in binding order (telFromList)
func FromList(doms []ir.Dom) Telescope {
	if len(doms) == 0 {
		return Telescope{}
	}
	b := immutable.NewListBuilder[ir.Dom]()
	for _, d := range doms {
		b.Append(d)
	}
	return Telescope{entries: b.List()}
}

// ToList returns the bindings in binding order (telToList)
func (t Telescope) ToList() []ir.Dom {
	ret := make([]ir.Dom, 0, t.Size())
	if t.entries == nil {
		return ret
	}
	it := t.entries.Iterator()
	for !it.Done() {
		_, d := it.Next()
		ret = append(ret, d)
	}
	return ret
}

func (t Telescope) Size() int {
	if t.entries == nil {
		return 0
	}
	return t.entries.Len()
}

// At returns the binding at the given level
func (t Telescope) At(level int) ir.Dom {
	if level < 0 || level >= t.Size() {
		panic(fmt.Sprintf("impossible: level %d out of range of telescope of size %d", level, t.Size()))
	}
	return t.entries.Get(level)
}

// AtIndex returns the binding that de Bruijn index i refers to, in the context the
// whole telescope forms
func (t Telescope) AtIndex(i int) ir.Dom {
	return t.At(t.Size() - 1 - i)
}

func (t Telescope) Names() []string {
	ret := make([]string, 0, t.Size())
	for _, d := range t.ToList() {
		ret = append(ret, d.Name)
	}
	return ret
}

// Extend adds one binding at the end
func (t Telescope) Extend(d ir.Dom) Telescope {
	if t.entries == nil {
		return Telescope{entries: immutable.NewList(d)}
	}
	return Telescope{entries: t.entries.Append(d)}
}

// Concat appends other, whose bindings live in the context t forms
func (t Telescope) Concat(other Telescope) Telescope {
	ret := t
	for _, d := range other.ToList() {
		ret = ret.Extend(d)
	}
	return ret
}

// Slice returns the bindings at levels [from, to). Bindings keep the context they had,
// so a slice that does not start at 0 is only meaningful relative to t's prefix.
func (t Telescope) Slice(from, to int) Telescope {
	if from == to {
		return Telescope{}
	}
	return Telescope{entries: t.entries.Slice(from, to)}
}

// Rename replaces the binder names, keeping types
func (t Telescope) Rename(names []string) Telescope {
	doms := t.ToList()
	if len(names) != len(doms) {
		panic(fmt.Sprintf("impossible: %d names for telescope of size %d", len(names), len(doms)))
	}
	for i := range doms {
		doms[i].Name = names[i]
	}
	return FromList(doms)
}

// Equal compares names, hiding and types of every binding
func (t Telescope) Equal(other Telescope) bool {
	if t.Size() != other.Size() {
		return false
	}
	ts, os := t.ToList(), other.ToList()
	for i := range ts {
		if ts[i].Name != os[i].Name || ts[i].Info.Hiding != os[i].Info.Hiding || !ir.Equal(ts[i].Type, os[i].Type) {
			return false
		}
	}
	return true
}

func (t Telescope) String() string {
	sb := strings.Builder{}
	var names []string
	for i, d := range t.ToList() {
		if i > 0 {
			sb.WriteString(" ")
		}
		open, closing := "(", ")"
		switch d.Info.Hiding {
		case ir.Hidden:
			open, closing = "{", "}"
		case ir.Instance:
			open, closing = "{{", "}}"
		}
		sb.WriteString(open + d.Name + " : " + ir.Show(names, d.Type) + closing)
		names = append(names, d.Name)
	}
	return sb.String()
}

// WellScoped reports whether every binding only mentions bindings strictly before it
func (t Telescope) WellScoped() bool {
	for level, d := range t.ToList() {
		for _, v := range ir.FreeVars(d.Type).Slice() {
			if v >= level {
				return false
			}
		}
	}
	return true
}

// ApplySubst substitutes into every binding of t, where s maps the context t is
// relative to (t's bindings at level l live in that context extended by l bindings)
func ApplySubst(s ir.Subst, t Telescope) Telescope {
	doms := t.ToList()
	for i := range doms {
		doms[i] = ir.ApplySubstDom(ir.LiftS(i, s), doms[i])
	}
	return FromList(doms)
}

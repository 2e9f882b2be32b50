package telescope

import (
	"fmt"
	"slices"

	"github.com/cottand/depmatch/frontend/ir"
	"github.com/hashicorp/go-set/v3"
)

// Flatten returns every binding of t with its type moved to the context of the whole
// telescope, so that all the types can be read (and substituted) in one context
func Flatten(t Telescope) []ir.Dom {
	doms := t.ToList()
	n := len(doms)
	for level := range doms {
		doms[level] = doms[level].WithType(ir.Raise(n-level, doms[level].Type))
	}
	return doms
}

// FlattenRev is Flatten in reverse order, computed without reversing
func FlattenRev(t Telescope) []ir.Dom {
	n := t.Size()
	ret := make([]ir.Dom, 0, n)
	for level := n - 1; level >= 0; level-- {
		d := t.At(level)
		ret = append(ret, d.WithType(ir.Raise(n-level, d.Type)))
	}
	return ret
}

// Unflatten is the inverse of Flatten: names are the binder names to use and flat the
// types in the context of the whole telescope.
// It panics if a type mentions a binding at or after its own position.
func Unflatten(names []string, flat []ir.Dom) Telescope {
	if len(names) != len(flat) {
		panic(fmt.Sprintf("impossible: %d names for %d types", len(names), len(flat)))
	}
	n := len(flat)
	doms := make([]ir.Dom, n)
	for level, d := range flat {
		typ, ok := ir.Strengthen(n-level, d.Type)
		if !ok {
			panic(fmt.Sprintf("impossible: binding %s at level %d is not well-scoped: %v", names[level], level, d.Type))
		}
		doms[level] = ir.Dom{Name: names[level], Info: d.Info, Type: typ}
	}
	return FromList(doms)
}

// Reorder finds an order of flat (types in the context of the whole list) in which
// every type only mentions types before it. Among the valid orders it picks the one
// that keeps bindings as early as possible, so an already well-formed telescope gets the
// identity. It returns false if the dependencies are cyclic.
func Reorder(flat []ir.Dom) (ir.Permutation, bool) {
	n := len(flat)
	deps := make([][]int, n)
	for pos, d := range flat {
		for _, v := range ir.FreeVars(d.Type).Slice() {
			if v >= n {
				continue
			}
			dep := n - 1 - v
			if dep == pos {
				return ir.Permutation{}, false
			}
			deps[pos] = append(deps[pos], dep)
		}
	}
	placed := make([]bool, n)
	picks := make([]int, 0, n)
	for len(picks) < n {
		progress := false
		for pos := 0; pos < n; pos++ {
			if placed[pos] {
				continue
			}
			ready := !slices.ContainsFunc(deps[pos], func(dep int) bool { return !placed[dep] })
			if ready {
				placed[pos] = true
				picks = append(picks, pos)
				progress = true
				break
			}
		}
		if !progress {
			return ir.Permutation{}, false
		}
	}
	return ir.Permutation{Size: n, Picks: picks}, true
}

// VarDependencies is the smallest superset of vars (de Bruijn indices in the context t
// forms) closed under 'the type of x mentions y'. Indices out of range are dropped.
func VarDependencies(t Telescope, vars *set.Set[int]) *set.Set[int] {
	n := t.Size()
	flat := Flatten(t)
	ret := set.New[int](vars.Size())
	var visit func(i int)
	visit = func(i int) {
		if i < 0 || i >= n || ret.Contains(i) {
			return
		}
		ret.Insert(i)
		for _, j := range ir.FreeVars(flat[n-1-i].Type).Slice() {
			visit(j)
		}
	}
	for _, i := range vars.Slice() {
		visit(i)
	}
	return ret
}

// VarDependents is the smallest superset of vars (restricted to range) closed under
// 'x is mentioned by the type of y'
func VarDependents(t Telescope, vars *set.Set[int]) *set.Set[int] {
	n := t.Size()
	flat := Flatten(t)
	ret := set.New[int](vars.Size())
	for _, i := range vars.Slice() {
		if i >= 0 && i < n {
			ret.Insert(i)
		}
	}
	// dependents come later, so one pass from the outermost binding inwards suffices
	for level := 0; level < n; level++ {
		i := n - 1 - level
		if ret.Contains(i) {
			continue
		}
		for _, j := range ir.FreeVars(flat[level].Type).Slice() {
			if ret.Contains(j) {
				ret.Insert(i)
				break
			}
		}
	}
	return ret
}

// Split moves the bindings vars depend on to the front: t becomes tel1 ++ tel2 where
// tel1 holds VarDependencies(t, vars), and perm is the new order of the original levels.
// Both halves keep their relative order.
func Split(vars *set.Set[int], t Telescope) (tel1 Telescope, tel2 Telescope, perm ir.Permutation) {
	n := t.Size()
	deps := VarDependencies(t, vars)
	picks := make([]int, 0, n)
	var rest []int
	for level := 0; level < n; level++ {
		if deps.Contains(n - 1 - level) {
			picks = append(picks, level)
		} else {
			rest = append(rest, level)
		}
	}
	m := len(picks)
	perm = ir.Permutation{Size: n, Picks: append(picks, rest...)}

	rename := perm.RenameS()
	flat := Flatten(t)
	for i := range flat {
		flat[i] = ir.ApplySubstDom(rename, flat[i])
	}
	reordered := Unflatten(ir.Permute(perm, t.Names()), ir.Permute(perm, flat))
	return reordered.Slice(0, m), reordered.Slice(m, n), perm
}

// Instantiate removes the binding at level k by substituting u for it. u lives in the
// context t forms. The remaining bindings are reordered if u mentions bindings after k.
//
// On success it returns the new telescope together with the substitution from t's
// context to the new one (k is mapped to u). It fails if u depends on k, or if the
// instantiated bindings cannot be ordered.
func Instantiate(t Telescope, k int, u ir.Term) (Telescope, ir.Subst, bool) {
	n := t.Size()
	idx := n - 1 - k
	if VarDependencies(t, ir.FreeVars(u)).Contains(idx) {
		return Telescope{}, ir.Subst{}, false
	}

	// from the context of t to the context of t without k, where k := u
	images := make([]ir.Term, n)
	for i := range images {
		switch {
		case i < idx:
			images[i] = ir.NewVar(i)
		case i > idx:
			images[i] = ir.NewVar(i - 1)
		default:
			// never looked up, u does not mention k
			images[i] = ir.NewVar(0)
		}
	}
	images[idx] = ir.ApplySubst(ir.NewSubst(images, n-1), u)
	remove := ir.NewSubst(images, n-1)

	names := slices.Delete(t.Names(), k, k+1)
	flat := slices.Delete(Flatten(t), k, k+1)
	for i := range flat {
		flat[i] = ir.ApplySubstDom(remove, flat[i])
	}
	perm, ok := Reorder(flat)
	if !ok {
		return Telescope{}, ir.Subst{}, false
	}
	if !perm.IsIdentity() {
		logger.Debug("instantiate: reordering", "perm", perm, "level", k)
	}
	rename := perm.RenameS()
	for i := range flat {
		flat[i] = ir.ApplySubstDom(rename, flat[i])
	}
	result := Unflatten(ir.Permute(perm, names), ir.Permute(perm, flat))
	return result, ir.ComposeS(rename, remove), true
}

// ExpandVar replaces the binding at level k by the bindings of fields, which live in
// the context of the bindings before k. image is what the removed binding becomes,
// in the context of the bindings before k extended by fields.
//
// It returns the new telescope and the pattern substitution from t's context to it.
func ExpandVar(t Telescope, k int, fields Telescope, image ir.Pattern) (Telescope, ir.PatSubst) {
	n := t.Size()
	m := fields.Size()
	after := n - 1 - k
	// from the bindings up to k to the bindings before k extended by fields
	tau := ir.ConsPS(image, ir.NewPatSubst(nil, m))
	rest := ApplySubst(tau.Terms(), t.Slice(k+1, n))
	return t.Slice(0, k).Concat(fields).Concat(rest), ir.LiftPS(after, tau)
}

package ir

import (
	"fmt"
	"slices"
)

// Subst maps the variables of one context to terms of another.
// Var i is replaced by Terms[i] for i < len(Terms), and by Var(i - len(Terms) + Shift) otherwise.
//
// The zero value is the identity substitution.
type Subst struct {
	terms []Term
	shift int
}

func IDS() Subst { return Subst{} }

// RaiseS weakens terms by n binders
func RaiseS(n int) Subst { return Subst{shift: n} }

// ConsS maps Var 0 to t and Var (i+1) to what s maps Var i to
func ConsS(t Term, s Subst) Subst {
	terms := make([]Term, 0, len(s.terms)+1)
	terms = append(terms, t)
	terms = append(terms, s.terms...)
	return Subst{terms: terms, shift: s.shift}
}

// InstS instantiates the len(ts) innermost variables of a context with ts, given in
// binding order (ts[0] replaces the outermost of them). The remaining variables are kept.
func InstS(ts []Term) Subst {
	terms := make([]Term, len(ts))
	for i, t := range ts {
		terms[len(ts)-1-i] = t
	}
	return Subst{terms: terms}
}

// LiftS pushes s under n binders
func LiftS(n int, s Subst) Subst {
	if n == 0 || s.IsIdentity() {
		return s
	}
	terms := make([]Term, 0, n+len(s.terms))
	for i := 0; i < n; i++ {
		terms = append(terms, NewVar(i))
	}
	for _, t := range s.terms {
		terms = append(terms, Raise(n, t))
	}
	return Subst{terms: terms, shift: s.shift + n}
}

// ComposeS returns the substitution that applies s and then r
func ComposeS(r, s Subst) Subst {
	if s.IsIdentity() {
		return r
	}
	if r.IsIdentity() {
		return s
	}
	terms := make([]Term, 0, len(s.terms))
	for _, t := range s.terms {
		terms = append(terms, ApplySubst(r, t))
	}
	if s.shift >= len(r.terms) {
		return Subst{terms: terms, shift: s.shift - len(r.terms) + r.shift}
	}
	terms = append(terms, r.terms[s.shift:]...)
	return Subst{terms: terms, shift: r.shift}
}

func (s Subst) IsIdentity() bool {
	if s.shift != len(s.terms) {
		return false
	}
	for i, t := range s.terms {
		if idx, ok := IsVar(t); !ok || idx != i {
			return false
		}
	}
	return true
}

// Lookup returns what Var i is replaced by
func (s Subst) Lookup(i int) Term {
	if i < 0 {
		panic(fmt.Sprintf("impossible: negative de Bruijn index %d", i))
	}
	if i < len(s.terms) {
		return s.terms[i]
	}
	return NewVar(i - len(s.terms) + s.shift)
}

func (s Subst) String() string {
	return fmt.Sprintf("%v ++ raise %d", s.terms, s.shift)
}

// ApplySubst replaces the free variables of t according to s
func ApplySubst(s Subst, t Term) Term {
	if s.IsIdentity() {
		return t
	}
	return applySubst(s, t)
}

func applySubst(s Subst, t Term) Term {
	switch t := t.(type) {
	case *Var:
		return Apply(s.Lookup(t.Index), applyArgs(s, t.Args)...)
	case *Con:
		return &Con{Name: t.Name, Args: applyArgs(s, t.Args)}
	case *Def:
		return &Def{Name: t.Name, Args: applyArgs(s, t.Args)}
	case *Meta:
		return &Meta{ID: t.ID, Args: applyArgs(s, t.Args)}
	case *Lam:
		return &Lam{Name: t.Name, Info: t.Info, Body: applySubst(LiftS(1, s), t.Body)}
	case *Pi:
		return &Pi{Dom: t.Dom.WithType(applySubst(s, t.Dom.Type)), Cod: applySubst(LiftS(1, s), t.Cod)}
	case *Sort, *Lit:
		return t
	default:
		panic(fmt.Sprintf("impossible: unknown term %T", t))
	}
}

func applyArgs(s Subst, args []Term) []Term {
	if len(args) == 0 {
		return nil
	}
	ret := make([]Term, len(args))
	for i, arg := range args {
		ret[i] = applySubst(s, arg)
	}
	return ret
}

// ApplySubstDom substitutes into the type of a binder
func ApplySubstDom(s Subst, d Dom) Dom {
	return d.WithType(ApplySubst(s, d.Type))
}

// Raise weakens t by n binders
func Raise(n int, t Term) Term {
	if n == 0 {
		return t
	}
	return raiseFrom(0, n, t)
}

// raiseFrom adds n to every variable of t with index >= from
func raiseFrom(from, n int, t Term) Term {
	switch t := t.(type) {
	case *Var:
		idx := t.Index
		if idx >= from {
			idx += n
		}
		return &Var{Index: idx, Args: raiseArgs(from, n, t.Args)}
	case *Con:
		return &Con{Name: t.Name, Args: raiseArgs(from, n, t.Args)}
	case *Def:
		return &Def{Name: t.Name, Args: raiseArgs(from, n, t.Args)}
	case *Meta:
		return &Meta{ID: t.ID, Args: raiseArgs(from, n, t.Args)}
	case *Lam:
		return &Lam{Name: t.Name, Info: t.Info, Body: raiseFrom(from+1, n, t.Body)}
	case *Pi:
		return &Pi{Dom: t.Dom.WithType(raiseFrom(from, n, t.Dom.Type)), Cod: raiseFrom(from+1, n, t.Cod)}
	case *Sort, *Lit:
		return t
	default:
		panic(fmt.Sprintf("impossible: unknown term %T", t))
	}
}

func raiseArgs(from, n int, args []Term) []Term {
	if len(args) == 0 {
		return nil
	}
	ret := make([]Term, len(args))
	for i, arg := range args {
		ret[i] = raiseFrom(from, n, arg)
	}
	return ret
}

// Strengthen removes the n innermost variables from the context of t.
// It fails if t mentions any of them.
func Strengthen(n int, t Term) (Term, bool) {
	if n == 0 {
		return t, true
	}
	for _, v := range FreeVars(t).Slice() {
		if v < n {
			return nil, false
		}
	}
	return raiseFrom(n, -n, t), true
}

// NewSubst maps Var i to terms[i] for i < len(terms), and to Var(i - len(terms) + shift) otherwise
func NewSubst(terms []Term, shift int) Subst {
	return Subst{terms: slices.Clone(terms), shift: shift}
}

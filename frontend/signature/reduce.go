package signature

import (
	"fmt"

	"github.com/cottand/depmatch/frontend/ast"
	"github.com/cottand/depmatch/frontend/ilerr"
	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/frontend/meta"
)

// Normalizer reduces terms by instantiating solved metavariables, beta reduction and
// unfolding definitions. Reduction gets stuck on unsolved metavariables, which is
// reported as an ilerr.NewPatternViolation.
type Normalizer struct {
	Sig   *Signature
	Metas *meta.Store
}

func NewNormalizer(sig *Signature, metas *meta.Store) *Normalizer {
	return &Normalizer{Sig: sig, Metas: metas}
}

// WHNF reduces the head of t. When the head is an unsolved metavariable it returns
// the stuck term together with a pattern violation naming it.
func (n *Normalizer) WHNF(t ir.Term) (ir.Term, error) {
	for {
		switch h := t.(type) {
		case *ir.Meta:
			sol, ok := n.Metas.Solution(h.ID)
			if !ok {
				return t, ilerr.New(ilerr.NewPatternViolation{Positioner: ast.Range{}, Blocker: h.ID})
			}
			t = ir.Apply(sol, h.Args...)
		case *ir.Def:
			def, ok := n.Sig.Definition(h.Name)
			if !ok {
				return t, nil
			}
			t = ir.Apply(def.Body, h.Args...)
		default:
			return t, nil
		}
	}
}

// Normalize reduces t everywhere
func (n *Normalizer) Normalize(t ir.Term) (ir.Term, error) {
	t, err := n.WHNF(t)
	if err != nil {
		return t, err
	}
	normArgs := func(args []ir.Term) ([]ir.Term, error) {
		if len(args) == 0 {
			return nil, nil
		}
		ret := make([]ir.Term, len(args))
		for i, arg := range args {
			if ret[i], err = n.Normalize(arg); err != nil {
				return nil, err
			}
		}
		return ret, nil
	}
	switch t := t.(type) {
	case *ir.Var:
		args, err := normArgs(t.Args)
		return &ir.Var{Index: t.Index, Args: args}, err
	case *ir.Con:
		args, err := normArgs(t.Args)
		return &ir.Con{Name: t.Name, Args: args}, err
	case *ir.Def:
		args, err := normArgs(t.Args)
		return &ir.Def{Name: t.Name, Args: args}, err
	case *ir.Lam:
		body, err := n.Normalize(t.Body)
		return &ir.Lam{Name: t.Name, Info: t.Info, Body: body}, err
	case *ir.Pi:
		dom, err := n.Normalize(t.Dom.Type)
		if err != nil {
			return t, err
		}
		cod, err := n.Normalize(t.Cod)
		return &ir.Pi{Dom: t.Dom.WithType(dom), Cod: cod}, err
	default:
		return t, nil
	}
}

// Conversion decides definitional equality up to beta, delta and eta for functions.
// An unsolved metavariable on either side is solved if it is a higher-order pattern,
// and otherwise blocks the comparison with a pattern violation.
type Conversion struct {
	*Normalizer
}

func NewConversion(n *Normalizer) *Conversion {
	return &Conversion{Normalizer: n}
}

// NotConvertible is returned by Conversion.Equal when the terms differ
type NotConvertible struct {
	Left, Right ir.Term
}

func (e NotConvertible) Error() string {
	return fmt.Sprintf("%v is not equal to %v", e.Left, e.Right)
}

// Equal returns nil when a and b are equal at type typ. The type is only used for eta
func (c *Conversion) Equal(typ, a, b ir.Term) error {
	return c.equal(a, b)
}

func (c *Conversion) equal(a, b ir.Term) error {
	a, errA := c.WHNF(a)
	b, errB := c.WHNF(b)
	if ir.Equal(a, b) {
		return nil
	}
	if errA != nil || errB != nil {
		if solved, err := c.trySolve(a, b); solved || err != nil {
			return err
		}
		if errA != nil {
			return errA
		}
		return errB
	}
	switch a := a.(type) {
	case *ir.Lam:
		return c.equal(a.Body, etaApply(b))
	}
	if _, isLam := b.(*ir.Lam); isLam {
		return c.equal(etaApply(a), b.(*ir.Lam).Body)
	}
	mismatch := NotConvertible{Left: a, Right: b}
	switch a := a.(type) {
	case *ir.Var:
		b, ok := b.(*ir.Var)
		if !ok || a.Index != b.Index || len(a.Args) != len(b.Args) {
			return mismatch
		}
		return c.equalArgs(a.Args, b.Args)
	case *ir.Con:
		b, ok := b.(*ir.Con)
		if !ok || a.Name != b.Name || len(a.Args) != len(b.Args) {
			return mismatch
		}
		return c.equalArgs(a.Args, b.Args)
	case *ir.Def:
		b, ok := b.(*ir.Def)
		if !ok || a.Name != b.Name || len(a.Args) != len(b.Args) {
			return mismatch
		}
		return c.equalArgs(a.Args, b.Args)
	case *ir.Pi:
		b, ok := b.(*ir.Pi)
		if !ok || a.Dom.Info.Hiding != b.Dom.Info.Hiding {
			return mismatch
		}
		if err := c.equal(a.Dom.Type, b.Dom.Type); err != nil {
			return err
		}
		return c.equal(a.Cod, b.Cod)
	default:
		// sorts and literals are equal only if syntactically equal
		return mismatch
	}
}

// trySolve assigns an unsolved metavariable on one side to the other side
func (c *Conversion) trySolve(a, b ir.Term) (bool, error) {
	if m, ok := a.(*ir.Meta); ok {
		if _, solved := c.Metas.Solution(m.ID); !solved {
			if ok, err := c.Metas.AssignPattern(m, b); ok || err != nil {
				return ok, err
			}
		}
	}
	if m, ok := b.(*ir.Meta); ok {
		if _, solved := c.Metas.Solution(m.ID); !solved {
			return c.Metas.AssignPattern(m, a)
		}
	}
	return false, nil
}

func (c *Conversion) equalArgs(as, bs []ir.Term) error {
	for i := range as {
		if err := c.equal(as[i], bs[i]); err != nil {
			return err
		}
	}
	return nil
}

// etaApply is t applied to a fresh variable, under one more binder
func etaApply(t ir.Term) ir.Term {
	return ir.Apply(ir.Raise(1, t), ir.NewVar(0))
}

// IsEtaVar reports whether t is a variable up to eta-expansion of functions,
// returning its de Bruijn index
func IsEtaVar(t ir.Term, _ ir.Term) (int, bool) {
	return isEtaVar(t)
}

func isEtaVar(t ir.Term) (int, bool) {
	switch t := t.(type) {
	case *ir.Var:
		if len(t.Args) == 0 {
			return t.Index, true
		}
		return 0, false
	case *ir.Lam:
		v, ok := t.Body.(*ir.Var)
		if !ok || len(v.Args) == 0 {
			return 0, false
		}
		last, ok := ir.IsVar(v.Args[len(v.Args)-1])
		if !ok || last != 0 {
			return 0, false
		}
		f := &ir.Var{Index: v.Index, Args: v.Args[:len(v.Args)-1]}
		if ir.FreeIn(0, f) {
			return 0, false
		}
		strengthened, _ := ir.Strengthen(1, f)
		return isEtaVar(strengthened)
	default:
		return 0, false
	}
}

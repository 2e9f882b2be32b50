// Package elab turns the expressions of dot patterns and type annotations into
// internal terms. It resolves names against a telescope and the signature and
// creates metavariables for holes. It does not type check: the conversion check of
// the caller is what decides whether the result is right.
package elab

import (
	"fmt"
	"slices"

	"github.com/cottand/depmatch/frontend/ast"
	"github.com/cottand/depmatch/frontend/ilerr"
	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/frontend/meta"
	"github.com/cottand/depmatch/frontend/signature"
	"github.com/cottand/depmatch/frontend/telescope"
)

type Elaborator struct {
	Sig   *signature.Signature
	Metas *meta.Store
}

func New(sig *signature.Signature, metas *meta.Store) *Elaborator {
	return &Elaborator{Sig: sig, Metas: metas}
}

// scope is the list of names in scope, outermost first
type scope []string

func (s scope) lookup(name string) (int, bool) {
	for level := len(s) - 1; level >= 0; level-- {
		if s[level] == name {
			return len(s) - 1 - level, true
		}
	}
	return 0, false
}

func (s scope) extend(name string) scope {
	return append(slices.Clip(s), name)
}

// CheckExpr elaborates e in the context tel. typ, when not nil, is the type of the
// holes e consists of.
func (el *Elaborator) CheckExpr(tel telescope.Telescope, e ast.Expr, typ ir.Term) (ir.Term, error) {
	return el.elab(tel.Names(), e, typ)
}

// Elab elaborates e in a context of the given names, outermost first
func (el *Elaborator) Elab(names []string, e ast.Expr) (ir.Term, error) {
	return el.elab(names, e, nil)
}

func (el *Elaborator) elab(sc scope, e ast.Expr, typ ir.Term) (ir.Term, error) {
	switch e := e.(type) {
	case *ast.Ident:
		return el.apply(sc, e, e, nil)
	case *ast.App:
		head, ok := e.Fun.(*ast.Ident)
		if !ok {
			fun, err := el.elab(sc, e.Fun, nil)
			if err != nil {
				return nil, err
			}
			args, err := el.elabArgs(sc, e.Args)
			if err != nil {
				return nil, err
			}
			return applyTerm(fun, args)
		}
		return el.apply(sc, e, head, e.Args)
	case *ast.Hole:
		return el.hole(sc, typ), nil
	case *ast.Literal:
		return &ir.Lit{Value: e.Value}, nil
	case *ast.Universe:
		return &ir.Sort{Level: e.Level}, nil
	case *ast.PiExpr:
		return el.pi(sc, e.Binders, e.Cod)
	case *ast.LamExpr:
		inner := sc
		for _, b := range e.Binders {
			inner = inner.extend(b.Name)
		}
		body, err := el.elab(inner, e.Body, nil)
		if err != nil {
			return nil, err
		}
		for i := len(e.Binders) - 1; i >= 0; i-- {
			b := e.Binders[i]
			body = &ir.Lam{Name: b.Name, Info: ir.ArgInfo{Hiding: b.Hiding}, Body: body}
		}
		return body, nil
	default:
		return nil, fmt.Errorf("impossible: unknown expression %T", e)
	}
}

func (el *Elaborator) pi(sc scope, binders []ast.Binder, cod ast.Expr) (ir.Term, error) {
	if len(binders) == 0 {
		return el.elab(sc, cod, nil)
	}
	b := binders[0]
	dom, err := el.elab(sc, b.Type, nil)
	if err != nil {
		return nil, err
	}
	rest, err := el.pi(sc.extend(b.Name), binders[1:], cod)
	if err != nil {
		return nil, err
	}
	return &ir.Pi{Dom: ir.Dom{Name: b.Name, Info: ir.ArgInfo{Hiding: b.Hiding}, Type: dom}, Cod: rest}, nil
}

// hole is a new metavariable applied to every variable in scope
func (el *Elaborator) hole(sc scope, typ ir.Term) ir.Term {
	id := el.Metas.New("_", typ, len(sc))
	return &ir.Meta{ID: id, Args: ir.Vars(len(sc))}
}

func (el *Elaborator) elabArgs(sc scope, args []ast.ExprArg) ([]ir.Term, error) {
	ret := make([]ir.Term, 0, len(args))
	for _, arg := range args {
		t, err := el.elab(sc, arg.Expr, nil)
		if err != nil {
			return nil, err
		}
		ret = append(ret, t)
	}
	return ret, nil
}

// apply elaborates the name head applied to args
func (el *Elaborator) apply(sc scope, whole ast.Expr, head *ast.Ident, args []ast.ExprArg) (ir.Term, error) {
	if idx, ok := sc.lookup(head.Name); ok {
		elabArgs, err := el.elabArgs(sc, args)
		if err != nil {
			return nil, err
		}
		return &ir.Var{Index: idx, Args: elabArgs}, nil
	}
	if con, ok := el.Sig.Constructor(head.Name); ok {
		return el.constructor(sc, whole, con, args)
	}
	_, isData := el.Sig.Datatype(head.Name)
	_, isDef := el.Sig.Definition(head.Name)
	if isData || isDef {
		elabArgs, err := el.elabArgs(sc, args)
		if err != nil {
			return nil, err
		}
		return &ir.Def{Name: head.Name, Args: elabArgs}, nil
	}
	return nil, ilerr.New(ilerr.NewUnboundVariable{Positioner: ast.RangeOf(head), Names: []string{head.Name}})
}

// constructor drops the datatype parameters, given as leading hidden arguments, and
// fills in the hidden arguments of the constructor that are not given with holes
func (el *Elaborator) constructor(sc scope, whole ast.Expr, con *signature.Constructor, args []ast.ExprArg) (ir.Term, error) {
	d, _ := el.Sig.Datatype(con.Data)
	for skipped := 0; skipped < d.Params.Size() && len(args) > 0 && args[0].Hiding != ir.Visible; skipped++ {
		args = args[1:]
	}
	doms := con.Args.ToList()
	ret := make([]ir.Term, 0, len(doms))
	for _, dom := range doms {
		if len(args) > 0 && args[0].Hiding == dom.Info.Hiding {
			t, err := el.elab(sc, args[0].Expr, nil)
			if err != nil {
				return nil, err
			}
			ret = append(ret, t)
			args = args[1:]
			continue
		}
		if dom.Info.Hiding == ir.Visible {
			if len(args) == 0 {
				// partial application is not supported by ir.Con
				return nil, ilerr.New(ilerr.NewUnsupportedPattern{
					Positioner: ast.RangeOf(whole),
					Pattern:    ast.ExprString(whole),
					What:       "partially applied constructors",
				})
			}
			return nil, ilerr.New(ilerr.NewWrongHiding{
				Positioner: ast.RangeOf(args[0]),
				Pattern:    ast.ExprArgString(args[0]),
				Expected:   ir.Visible,
			})
		}
		ret = append(ret, el.hole(sc, nil))
	}
	if len(args) > 0 {
		strs := make([]string, len(args))
		for i, a := range args {
			strs[i] = ast.ExprArgString(a)
		}
		return nil, ilerr.New(ilerr.NewTooManyArgs{Positioner: ast.RangeOf(whole), Head: con.Name, Patterns: strs})
	}
	return &ir.Con{Name: con.Name, Args: ret}, nil
}

func applyTerm(fun ir.Term, args []ir.Term) (ir.Term, error) {
	switch fun.(type) {
	case *ir.Var, *ir.Def, *ir.Meta, *ir.Lam, *ir.Con:
		return ir.Apply(fun, args...), nil
	default:
		return nil, fmt.Errorf("cannot apply %v to arguments", fun)
	}
}

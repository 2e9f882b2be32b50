package ast

import (
	"go/token"

	"github.com/cottand/depmatch/frontend/ir"
)

// Expr is the expression language of dot patterns and type annotations.
// The full expression checker is not part of this module, see frontend/elab.
type Expr interface {
	Positioner
	exprNode()
}

var (
	_ Expr = (*Ident)(nil)
	_ Expr = (*App)(nil)
	_ Expr = (*Hole)(nil)
	_ Expr = (*Literal)(nil)
	_ Expr = (*PiExpr)(nil)
	_ Expr = (*Universe)(nil)
	_ Expr = (*LamExpr)(nil)
)

// Ident is a variable, constructor, datatype or definition name
type Ident struct {
	Range
	Name string
}

// App is Fun applied to Args
type App struct {
	Range
	Fun  Expr
	Args []ExprArg
}

type ExprArg struct {
	Hiding ir.Hiding
	Expr   Expr
}

// Hole is `_` in an expression, to be solved by a metavariable
type Hole struct {
	Range
}

// Literal represents a literal value.
type Literal struct {
	Range
	Value string
}

// Binder is one `(x : A)`, `{x : A}` or `{{x : A}}` of a PiExpr or LamExpr
type Binder struct {
	Name   string
	Hiding ir.Hiding
	Type   Expr
}

// PiExpr is `(x : A) -> B`, a non-dependent arrow has a binder named "_"
type PiExpr struct {
	Range
	Binders []Binder
	Cod     Expr
}

// LamExpr is `\x -> e`
type LamExpr struct {
	Range
	Binders []Binder
	Body    Expr
}

// Universe is `Set` or `SetN`
type Universe struct {
	Range
	Level int
}

func (*Ident) exprNode()    {}
func (*App) exprNode()      {}
func (*Hole) exprNode()     {}
func (*Literal) exprNode()  {}
func (*PiExpr) exprNode()   {}
func (*LamExpr) exprNode()  {}
func (*Universe) exprNode() {}

func (a ExprArg) Pos() token.Pos { return a.Expr.Pos() }
func (a ExprArg) End() token.Pos { return a.Expr.End() }

// Package ast holds the scope-checked abstract syntax that clause left-hand sides
// are written in: patterns, and the small expression language of dot patterns and
// type annotations.
package ast

import (
	"go/token"

	"github.com/cottand/depmatch/frontend/ir"
)

// Pattern is an abstract pattern as produced by the scope checker.
// Names are already resolved: a ConP always refers to a constructor, a VarP never does.
type Pattern interface {
	Positioner
	patternNode()
}

var (
	_ Pattern = (*VarP)(nil)
	_ Pattern = (*WildP)(nil)
	_ Pattern = (*AsP)(nil)
	_ Pattern = (*DotP)(nil)
	_ Pattern = (*AbsurdP)(nil)
	_ Pattern = (*ConP)(nil)
	_ Pattern = (*RecP)(nil)
	_ Pattern = (*LitP)(nil)
	_ Pattern = (*PatternSynP)(nil)
	_ Pattern = (*EqualP)(nil)
	_ Pattern = (*AnnP)(nil)
)

// VarP binds a pattern variable
type VarP struct {
	Range
	Name string
}

// WildP is `_`
type WildP struct {
	Range
}

// AsP is `x@p`
type AsP struct {
	Range
	Name    string
	Pattern Pattern
}

// DotP is `.e`, a position whose value the user claims is forced
type DotP struct {
	Range
	Expr Expr
}

// AbsurdP is `()`
type AbsurdP struct {
	Range
}

// ConP is a constructor applied to argument patterns. Parameters of the datatype are never given.
type ConP struct {
	Range
	Con  string
	Args []NamedArg
	// Origin is Inserted for patterns the system added when completing a case split
	Origin ir.Origin
}

// RecP is `record { f = p; ... }`
type RecP struct {
	Range
	Fields []FieldAssign
}

type FieldAssign struct {
	Name    string
	Pattern Pattern
}

// LitP matches a literal of a literal type
type LitP struct {
	Range
	Value string
}

// PatternSynP is an unexpanded pattern synonym. Expanding them is the scope checker's job
type PatternSynP struct {
	Range
	Name string
	Args []NamedArg
}

// EqualP is a cubical equality pattern, which the checker rejects
type EqualP struct {
	Range
}

// AnnP is `(p : A)`
type AnnP struct {
	Range
	Type    Expr
	Pattern Pattern
}

func (*VarP) patternNode()        {}
func (*WildP) patternNode()       {}
func (*AsP) patternNode()         {}
func (*DotP) patternNode()        {}
func (*AbsurdP) patternNode()     {}
func (*ConP) patternNode()        {}
func (*RecP) patternNode()        {}
func (*LitP) patternNode()        {}
func (*PatternSynP) patternNode() {}
func (*EqualP) patternNode()      {}
func (*AnnP) patternNode()        {}

// NamedArg is an argument pattern together with its hiding, and for hidden arguments
// given as `{x = p}` the name of the binder it is meant for
type NamedArg struct {
	Info    ir.ArgInfo
	Name    string
	Pattern Pattern
}

func (a NamedArg) Pos() token.Pos { return a.Pattern.Pos() }
func (a NamedArg) End() token.Pos { return a.Pattern.End() }

func Arg(p Pattern) NamedArg {
	return NamedArg{Info: ir.DefaultArgInfo, Pattern: p}
}

func HiddenArg(p Pattern) NamedArg {
	return NamedArg{Info: ir.ArgInfo{Hiding: ir.Hidden}, Pattern: p}
}

func InstanceArg(p Pattern) NamedArg {
	return NamedArg{Info: ir.ArgInfo{Hiding: ir.Instance}, Pattern: p}
}

// InsertedWild is the pattern the checker puts where the user omitted an implicit argument
func InsertedWild(info ir.ArgInfo, r Range) NamedArg {
	return NamedArg{Info: info.WithOrigin(ir.Inserted), Pattern: &WildP{Range: r}}
}

// IsConstructorPattern reports whether p, seen through annotations and as-patterns, is a pattern the
// splitter has to split on
func IsConstructorPattern(p Pattern) bool {
	switch p := p.(type) {
	case *ConP, *RecP, *LitP:
		return true
	case *AnnP:
		return IsConstructorPattern(p.Pattern)
	case *AsP:
		return IsConstructorPattern(p.Pattern)
	default:
		return false
	}
}

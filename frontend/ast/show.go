package ast

import (
	"fmt"
	"strings"

	"github.com/cottand/depmatch/frontend/ir"
)

// PatternString renders p in the concrete syntax accepted by the fixture loader
func PatternString(p Pattern) string {
	sb := &strings.Builder{}
	showPattern(sb, p, false)
	return sb.String()
}

func ArgString(a NamedArg) string {
	sb := &strings.Builder{}
	showArg(sb, a)
	return sb.String()
}

func showArg(sb *strings.Builder, a NamedArg) {
	open, closing := bracketsFor(a.Info.Hiding)
	sb.WriteString(open)
	if a.Name != "" {
		sb.WriteString(a.Name + " = ")
	}
	showPattern(sb, a.Pattern, open == "")
	sb.WriteString(closing)
}

func bracketsFor(h ir.Hiding) (string, string) {
	switch h {
	case ir.Hidden:
		return "{", "}"
	case ir.Instance:
		return "{{", "}}"
	default:
		return "", ""
	}
}

func showPattern(sb *strings.Builder, p Pattern, parens bool) {
	switch p := p.(type) {
	case *VarP:
		sb.WriteString(p.Name)
	case *WildP:
		sb.WriteString("_")
	case *AsP:
		sb.WriteString(p.Name + "@")
		showPattern(sb, p.Pattern, true)
	case *DotP:
		sb.WriteString(".")
		showExpr(sb, p.Expr, true)
	case *AbsurdP:
		sb.WriteString("()")
	case *ConP:
		showHead(sb, p.Con, p.Args, parens)
	case *PatternSynP:
		showHead(sb, p.Name, p.Args, parens)
	case *RecP:
		sb.WriteString("record {")
		for i, f := range p.Fields {
			if i > 0 {
				sb.WriteString(";")
			}
			sb.WriteString(" " + f.Name + " = ")
			showPattern(sb, f.Pattern, false)
		}
		sb.WriteString(" }")
	case *LitP:
		sb.WriteString(p.Value)
	case *EqualP:
		sb.WriteString("<equality>")
	case *AnnP:
		sb.WriteString("(")
		showPattern(sb, p.Pattern, false)
		sb.WriteString(" : ")
		showExpr(sb, p.Type, false)
		sb.WriteString(")")
	default:
		panic(fmt.Sprintf("impossible: unknown pattern %T", p))
	}
}

func showHead(sb *strings.Builder, head string, args []NamedArg, parens bool) {
	if len(args) == 0 {
		sb.WriteString(head)
		return
	}
	if parens {
		sb.WriteString("(")
	}
	sb.WriteString(head)
	for _, arg := range args {
		sb.WriteString(" ")
		showArg(sb, arg)
	}
	if parens {
		sb.WriteString(")")
	}
}

// ExprString renders e in the concrete syntax accepted by the fixture loader
func ExprString(e Expr) string {
	sb := &strings.Builder{}
	showExpr(sb, e, false)
	return sb.String()
}

func showExpr(sb *strings.Builder, e Expr, parens bool) {
	switch e := e.(type) {
	case *Ident:
		sb.WriteString(e.Name)
	case *Hole:
		sb.WriteString("_")
	case *Literal:
		sb.WriteString(e.Value)
	case *Universe:
		if e.Level == 0 {
			sb.WriteString("Set")
		} else {
			sb.WriteString(fmt.Sprintf("Set%d", e.Level))
		}
	case *App:
		if parens {
			sb.WriteString("(")
		}
		showExpr(sb, e.Fun, true)
		for _, arg := range e.Args {
			sb.WriteString(" ")
			open, closing := bracketsFor(arg.Hiding)
			sb.WriteString(open)
			showExpr(sb, arg.Expr, open == "")
			sb.WriteString(closing)
		}
		if parens {
			sb.WriteString(")")
		}
	case *PiExpr:
		if parens {
			sb.WriteString("(")
		}
		for _, b := range e.Binders {
			if b.Name == "_" && b.Hiding == ir.Visible {
				showExpr(sb, b.Type, true)
			} else {
				showBinder(sb, b)
			}
			sb.WriteString(" -> ")
		}
		showExpr(sb, e.Cod, false)
		if parens {
			sb.WriteString(")")
		}
	case *LamExpr:
		if parens {
			sb.WriteString("(")
		}
		sb.WriteString("\\")
		for i, b := range e.Binders {
			if i > 0 {
				sb.WriteString(" ")
			}
			open, closing := bracketsFor(b.Hiding)
			sb.WriteString(open + b.Name + closing)
		}
		sb.WriteString(" -> ")
		showExpr(sb, e.Body, false)
		if parens {
			sb.WriteString(")")
		}
	default:
		panic(fmt.Sprintf("impossible: unknown expression %T", e))
	}
}

func showBinder(sb *strings.Builder, b Binder) {
	open, closing := bracketsFor(b.Hiding)
	if open == "" {
		open, closing = "(", ")"
	}
	sb.WriteString(open + b.Name + " : ")
	showExpr(sb, b.Type, false)
	sb.WriteString(closing)
}

// ExprArgString renders an argument with the brackets of its hiding
func ExprArgString(a ExprArg) string {
	sb := &strings.Builder{}
	open, closing := bracketsFor(a.Hiding)
	sb.WriteString(open)
	showExpr(sb, a.Expr, open == "")
	sb.WriteString(closing)
	return sb.String()
}

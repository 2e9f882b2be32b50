package ir

import (
	"fmt"
	"strings"
)

// Pattern is an internal pattern whose variables are de Bruijn indices into the
// telescope of pattern variables of a clause
type Pattern interface {
	fmt.Stringer
	isPattern()
}

var (
	_ Pattern = (*VarP)(nil)
	_ Pattern = (*DotP)(nil)
	_ Pattern = (*ConP)(nil)
	_ Pattern = (*LitP)(nil)
)

type VarP struct {
	Name  string
	Index int
}

// DotP is a position whose value was determined by unification
type DotP struct {
	Term Term
}

type ConP struct {
	Con  string
	Args []PatArg
	// Eta is set for record patterns inserted by eta-expansion rather than written by the user
	Eta bool
}

type LitP struct {
	Value string
}

// PatArg is a pattern together with the argument info of the position it matches
type PatArg struct {
	Info    ArgInfo
	Pattern Pattern
}

func (*VarP) isPattern() {}
func (*DotP) isPattern() {}
func (*ConP) isPattern() {}
func (*LitP) isPattern() {}

func (p *VarP) String() string { return ShowPattern(nil, p) }
func (p *DotP) String() string { return ShowPattern(nil, p) }
func (p *ConP) String() string { return ShowPattern(nil, p) }
func (p *LitP) String() string { return p.Value }

// ShowPattern renders p using ctx as the names of its context, outermost first
func ShowPattern(ctx []string, p Pattern) string {
	switch p := p.(type) {
	case *VarP:
		if p.Name == "" {
			return Show(ctx, NewVar(p.Index))
		}
		return p.Name
	case *DotP:
		sb := &strings.Builder{}
		sb.WriteString(".")
		show(sb, ctx, p.Term, true)
		return sb.String()
	case *ConP:
		if len(p.Args) == 0 {
			return p.Con
		}
		sb := &strings.Builder{}
		sb.WriteString("(" + p.Con)
		for _, arg := range p.Args {
			sb.WriteString(" " + ShowPatArgIn(ctx, arg))
		}
		sb.WriteString(")")
		return sb.String()
	case *LitP:
		return p.Value
	default:
		return "<nil>"
	}
}

func ShowPatArg(a PatArg) string {
	return ShowPatArgIn(nil, a)
}

func ShowPatArgIn(ctx []string, a PatArg) string {
	switch a.Info.Hiding {
	case Hidden:
		return "{" + ShowPattern(ctx, a.Pattern) + "}"
	case Instance:
		return "{{" + ShowPattern(ctx, a.Pattern) + "}}"
	default:
		return ShowPattern(ctx, a.Pattern)
	}
}

// PatternToTerm reads a pattern back as the term it matches
func PatternToTerm(p Pattern) Term {
	switch p := p.(type) {
	case *VarP:
		return NewVar(p.Index)
	case *DotP:
		return p.Term
	case *ConP:
		args := make([]Term, len(p.Args))
		for i, arg := range p.Args {
			args[i] = PatternToTerm(arg.Pattern)
		}
		return &Con{Name: p.Con, Args: args}
	case *LitP:
		return &Lit{Value: p.Value}
	default:
		panic(fmt.Sprintf("impossible: unknown pattern %T", p))
	}
}

// PatVars returns the indices bound by VarP in p, left to right
func PatVars(p Pattern) []int {
	switch p := p.(type) {
	case *VarP:
		return []int{p.Index}
	case *ConP:
		var ret []int
		for _, arg := range p.Args {
			ret = append(ret, PatVars(arg.Pattern)...)
		}
		return ret
	default:
		return nil
	}
}

// PatSubst is a substitution whose images are patterns, so that applying it to
// patterns keeps track of which variables were solved (DotP) or split (ConP).
// It has the same shape as Subst.
type PatSubst struct {
	pats  []Pattern
	shift int
}

func IDPS() PatSubst { return PatSubst{} }

// ConsPS maps Var 0 to p and Var (i+1) to what s maps Var i to
func ConsPS(p Pattern, s PatSubst) PatSubst {
	pats := make([]Pattern, 0, len(s.pats)+1)
	pats = append(pats, p)
	pats = append(pats, s.pats...)
	return PatSubst{pats: pats, shift: s.shift}
}

// NewPatSubst builds the substitution mapping Var i to pats[i], and Var i for i >= len(pats)
// to Var(i - len(pats) + shift)
func NewPatSubst(pats []Pattern, shift int) PatSubst {
	return PatSubst{pats: pats, shift: shift}
}

func LiftPS(n int, s PatSubst) PatSubst {
	if n == 0 {
		return s
	}
	pats := make([]Pattern, 0, n+len(s.pats))
	for i := 0; i < n; i++ {
		pats = append(pats, &VarP{Index: i})
	}
	for _, p := range s.pats {
		pats = append(pats, RaisePattern(n, p))
	}
	return PatSubst{pats: pats, shift: s.shift + n}
}

// ComposePS returns the pattern substitution that applies s and then r
func ComposePS(r, s PatSubst) PatSubst {
	pats := make([]Pattern, 0, len(s.pats))
	for _, p := range s.pats {
		pats = append(pats, ApplyPatSubst(r, p))
	}
	if s.shift >= len(r.pats) {
		return PatSubst{pats: pats, shift: s.shift - len(r.pats) + r.shift}
	}
	pats = append(pats, r.pats[s.shift:]...)
	return PatSubst{pats: pats, shift: r.shift}
}

func (s PatSubst) Lookup(i int) Pattern {
	if i < len(s.pats) {
		return s.pats[i]
	}
	return &VarP{Index: i - len(s.pats) + s.shift}
}

// Terms forgets the pattern structure of s
func (s PatSubst) Terms() Subst {
	terms := make([]Term, len(s.pats))
	for i, p := range s.pats {
		terms[i] = PatternToTerm(p)
	}
	return Subst{terms: terms, shift: s.shift}
}

func ApplyPatSubst(s PatSubst, p Pattern) Pattern {
	switch p := p.(type) {
	case *VarP:
		return s.Lookup(p.Index)
	case *DotP:
		return &DotP{Term: ApplySubst(s.Terms(), p.Term)}
	case *ConP:
		args := make([]PatArg, len(p.Args))
		for i, arg := range p.Args {
			args[i] = PatArg{Info: arg.Info, Pattern: ApplyPatSubst(s, arg.Pattern)}
		}
		return &ConP{Con: p.Con, Args: args, Eta: p.Eta}
	case *LitP:
		return p
	default:
		panic(fmt.Sprintf("impossible: unknown pattern %T", p))
	}
}

func RaisePattern(n int, p Pattern) Pattern {
	if n == 0 {
		return p
	}
	switch p := p.(type) {
	case *VarP:
		return &VarP{Name: p.Name, Index: p.Index + n}
	case *DotP:
		return &DotP{Term: Raise(n, p.Term)}
	case *ConP:
		args := make([]PatArg, len(p.Args))
		for i, arg := range p.Args {
			args[i] = PatArg{Info: arg.Info, Pattern: RaisePattern(n, arg.Pattern)}
		}
		return &ConP{Con: p.Con, Args: args, Eta: p.Eta}
	default:
		return p
	}
}

// LabelPattern sets the name of every VarP from names, the binder names of the
// pattern's context in binding order
func LabelPattern(names []string, p Pattern) Pattern {
	switch p := p.(type) {
	case *VarP:
		level := len(names) - 1 - p.Index
		if level < 0 || level >= len(names) {
			panic(fmt.Sprintf("impossible: pattern variable @%d out of scope of %v", p.Index, names))
		}
		return &VarP{Name: names[level], Index: p.Index}
	case *ConP:
		args := make([]PatArg, len(p.Args))
		for i, arg := range p.Args {
			args[i] = PatArg{Info: arg.Info, Pattern: LabelPattern(names, arg.Pattern)}
		}
		return &ConP{Con: p.Con, Args: args, Eta: p.Eta}
	default:
		return p
	}
}

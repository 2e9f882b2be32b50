package ir

import (
	"fmt"
	"strconv"
	"strings"
)

// MetaID identifies a metavariable of the ambient elaboration session
type MetaID uint64

func (m MetaID) String() string {
	return "?" + strconv.FormatUint(uint64(m), 10)
}

// Term is an internal term in de Bruijn representation: Var{Index: 0} is the
// innermost binding of the context the term lives in.
//
// Terms are never mutated after construction, every operation returns a new Term.
type Term interface {
	fmt.Stringer
	isTerm()
}

var (
	_ Term = (*Var)(nil)
	_ Term = (*Con)(nil)
	_ Term = (*Def)(nil)
	_ Term = (*Meta)(nil)
	_ Term = (*Lam)(nil)
	_ Term = (*Pi)(nil)
	_ Term = (*Sort)(nil)
	_ Term = (*Lit)(nil)
)

// Var is a bound variable applied to a spine of arguments
type Var struct {
	Index int
	Args  []Term
}

// Con is a fully applied data or record constructor. Datatype parameters are not stored
type Con struct {
	Name string
	Args []Term
}

// Def is a datatype, record type or defined constant applied to arguments
type Def struct {
	Name string
	Args []Term
}

// Meta is a metavariable applied to arguments of the context it was created in
type Meta struct {
	ID   MetaID
	Args []Term
}

type Lam struct {
	Name string
	Info ArgInfo
	Body Term
}

// Pi is a dependent function type, Cod lives under one more binder than Dom.Type
type Pi struct {
	Dom Dom
	Cod Term
}

type Sort struct {
	Level int
}

// Lit is a literal, compared by its source text (quotes included for strings)
type Lit struct {
	Value string
}

func (*Var) isTerm()  {}
func (*Con) isTerm()  {}
func (*Def) isTerm()  {}
func (*Meta) isTerm() {}
func (*Lam) isTerm()  {}
func (*Pi) isTerm()   {}
func (*Sort) isTerm() {}
func (*Lit) isTerm()  {}

func NewVar(i int) *Var {
	return &Var{Index: i}
}

// Vars returns the variables n-1 .. 0, i.e. the n innermost variables in binding order
func Vars(n int) []Term {
	ret := make([]Term, n)
	for i := range ret {
		ret[i] = NewVar(n - 1 - i)
	}
	return ret
}

// Apply eliminates t with args, beta-reducing when t is a lambda
func Apply(t Term, args ...Term) Term {
	if len(args) == 0 {
		return t
	}
	switch t := t.(type) {
	case *Var:
		return &Var{Index: t.Index, Args: appendArgs(t.Args, args)}
	case *Con:
		return &Con{Name: t.Name, Args: appendArgs(t.Args, args)}
	case *Def:
		return &Def{Name: t.Name, Args: appendArgs(t.Args, args)}
	case *Meta:
		return &Meta{ID: t.ID, Args: appendArgs(t.Args, args)}
	case *Lam:
		body := ApplySubst(ConsS(args[0], IDS()), t.Body)
		return Apply(body, args[1:]...)
	default:
		panic(fmt.Sprintf("impossible: cannot apply %v to arguments", t))
	}
}

func appendArgs(existing, more []Term) []Term {
	ret := make([]Term, 0, len(existing)+len(more))
	ret = append(ret, existing...)
	return append(ret, more...)
}

// IsVar returns the index of t if t is a variable without arguments
func IsVar(t Term) (int, bool) {
	if v, ok := t.(*Var); ok && len(v.Args) == 0 {
		return v.Index, true
	}
	return 0, false
}

// Lams abstracts t over n variables
func Lams(names []string, t Term) Term {
	for i := len(names) - 1; i >= 0; i-- {
		t = &Lam{Name: names[i], Body: t}
	}
	return t
}

// PiFromTel builds the function type over doms (in binding order) ending in cod
func PiFromTel(doms []Dom, cod Term) Term {
	for i := len(doms) - 1; i >= 0; i-- {
		cod = &Pi{Dom: doms[i], Cod: cod}
	}
	return cod
}

// Equal is syntactic equality. Binder names are irrelevant in de Bruijn representation
func Equal(a, b Term) bool {
	switch a := a.(type) {
	case *Var:
		b, ok := b.(*Var)
		return ok && a.Index == b.Index && argsEqual(a.Args, b.Args)
	case *Con:
		b, ok := b.(*Con)
		return ok && a.Name == b.Name && argsEqual(a.Args, b.Args)
	case *Def:
		b, ok := b.(*Def)
		return ok && a.Name == b.Name && argsEqual(a.Args, b.Args)
	case *Meta:
		b, ok := b.(*Meta)
		return ok && a.ID == b.ID && argsEqual(a.Args, b.Args)
	case *Lam:
		b, ok := b.(*Lam)
		return ok && a.Info.Hiding == b.Info.Hiding && Equal(a.Body, b.Body)
	case *Pi:
		b, ok := b.(*Pi)
		return ok && a.Dom.Info.Hiding == b.Dom.Info.Hiding && Equal(a.Dom.Type, b.Dom.Type) && Equal(a.Cod, b.Cod)
	case *Sort:
		b, ok := b.(*Sort)
		return ok && a.Level == b.Level
	case *Lit:
		b, ok := b.(*Lit)
		return ok && a.Value == b.Value
	case nil:
		return b == nil
	default:
		panic(fmt.Sprintf("impossible: unknown term %T", a))
	}
}

func argsEqual(as, bs []Term) bool {
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if !Equal(as[i], bs[i]) {
			return false
		}
	}
	return true
}

func (t *Var) String() string  { return Show(nil, t) }
func (t *Con) String() string  { return Show(nil, t) }
func (t *Def) String() string  { return Show(nil, t) }
func (t *Meta) String() string { return Show(nil, t) }
func (t *Lam) String() string  { return Show(nil, t) }
func (t *Pi) String() string   { return Show(nil, t) }
func (t *Sort) String() string { return Show(nil, t) }
func (t *Lit) String() string  { return Show(nil, t) }

// Show renders t using ctx as the names of its context, outermost first.
// Variables outside of ctx are shown as @index
func Show(ctx []string, t Term) string {
	sb := &strings.Builder{}
	show(sb, ctx, t, false)
	return sb.String()
}

func show(sb *strings.Builder, ctx []string, t Term, parens bool) {
	applied := func(head string, args []Term) {
		if len(args) > 0 && parens {
			sb.WriteString("(")
		}
		sb.WriteString(head)
		for _, arg := range args {
			sb.WriteString(" ")
			show(sb, ctx, arg, true)
		}
		if len(args) > 0 && parens {
			sb.WriteString(")")
		}
	}
	switch t := t.(type) {
	case *Var:
		name := "@" + strconv.Itoa(t.Index)
		if level := len(ctx) - 1 - t.Index; level >= 0 && level < len(ctx) {
			name = ctx[level]
		}
		applied(name, t.Args)
	case *Con:
		applied(t.Name, t.Args)
	case *Def:
		applied(t.Name, t.Args)
	case *Meta:
		applied(t.ID.String(), t.Args)
	case *Lam:
		if parens {
			sb.WriteString("(")
		}
		sb.WriteString("λ " + t.Name + " → ")
		show(sb, append(ctx[:len(ctx):len(ctx)], t.Name), t.Body, false)
		if parens {
			sb.WriteString(")")
		}
	case *Pi:
		if parens {
			sb.WriteString("(")
		}
		open, closing := "(", ")"
		switch t.Dom.Info.Hiding {
		case Hidden:
			open, closing = "{", "}"
		case Instance:
			open, closing = "{{", "}}"
		}
		sb.WriteString(open + t.Dom.Name + " : ")
		show(sb, ctx, t.Dom.Type, false)
		sb.WriteString(closing + " → ")
		show(sb, append(ctx[:len(ctx):len(ctx)], t.Dom.Name), t.Cod, false)
		if parens {
			sb.WriteString(")")
		}
	case *Sort:
		if t.Level == 0 {
			sb.WriteString("Set")
		} else {
			sb.WriteString("Set" + strconv.Itoa(t.Level))
		}
	case *Lit:
		sb.WriteString(t.Value)
	case nil:
		sb.WriteString("<nil>")
	}
}

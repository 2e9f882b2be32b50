// Package unify solves the index equations that arise when a constructor pattern is
// matched against a value of an indexed datatype. Equations live in a telescope of
// pattern variables. Solving a flexible variable removes it from the telescope
// (turning it into a dot pattern) and substitutes its value everywhere.
package unify

import (
	"fmt"
	"log/slog"

	"github.com/cottand/depmatch/frontend/ast"
	"github.com/cottand/depmatch/frontend/flex"
	"github.com/cottand/depmatch/frontend/ilerr"
	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/frontend/meta"
	"github.com/cottand/depmatch/frontend/signature"
	"github.com/cottand/depmatch/frontend/telescope"
	"github.com/cottand/depmatch/internal/log"
)

var logger = log.DefaultLogger.With("section", "unify")

// Reducer computes weak head normal forms. When reduction is stuck on an unsolved
// metavariable it returns the stuck term and an ilerr.NewPatternViolation.
type Reducer interface {
	WHNF(t ir.Term) (ir.Term, error)
}

// Equation asks for Left and Right, of type Type, to be made equal.
// Type may be nil when it is not known; it is only needed to eta-expand records.
type Equation struct {
	Type  ir.Term
	Left  ir.Term
	Right ir.Term
}

func (e Equation) String() string {
	return fmt.Sprintf("%v = %v", e.Left, e.Right)
}

// Problem is a list of equations in the context Tel. Only the variables in Flex may be
// instantiated. Pattern and Source describe the pattern being checked, for errors.
type Problem struct {
	Tel     telescope.Telescope
	Flex    flex.Vars
	Eqs     []Equation
	Pattern string
	Source  ast.Positioner
}

// Result is a solved Problem: Tel is what remains of the original telescope and Sub maps
// the variables of the original telescope to patterns in Tel, with solved variables
// mapped to dot patterns
type Result struct {
	Tel  telescope.Telescope
	Sub  ir.PatSubst
	Flex flex.Vars
}

type Unifier struct {
	Sig     *signature.Signature
	Reducer Reducer
	Metas   *meta.Store
}

func New(sig *signature.Signature, reducer Reducer, metas *meta.Store) *Unifier {
	return &Unifier{Sig: sig, Reducer: reducer, Metas: metas}
}

// state is the problem while it is being solved: eqs live in tel, and sub maps the
// original telescope to tel
type state struct {
	*Problem
	sub ir.PatSubst
}

// Unify solves every equation of p, left to right.
//
// It fails with ilerr.NewUnifyConflict when two different rigid heads meet,
// ilerr.NewUnifyCycle when a variable would have to contain itself,
// ilerr.NewUnifyStuck when the problem is outside the fragment this unifier decides,
// and ilerr.NewPatternViolation when it needs an unsolved metavariable to make progress.
func (u *Unifier) Unify(p Problem) (Result, error) {
	s := &state{Problem: &p, sub: ir.IDPS()}
	logger.Debug("unify", "pattern", p.Pattern, "tel", p.Tel, "eqs", slogEqs(p.Eqs))
	for len(s.Eqs) > 0 {
		eq := s.Eqs[0]
		s.Eqs = s.Eqs[1:]
		if err := u.step(s, eq); err != nil {
			logger.Debug("unification failed", "eq", eq, "error", err)
			return Result{}, err
		}
	}
	logger.Debug("unified", "pattern", p.Pattern, "tel", s.Tel, "sub", s.sub)
	return Result{Tel: s.Tel, Sub: s.sub, Flex: s.Flex}, nil
}

func (u *Unifier) step(s *state, eq Equation) error {
	l, errL := u.Reducer.WHNF(eq.Left)
	r, errR := u.Reducer.WHNF(eq.Right)
	if ir.Equal(l, r) {
		return nil
	}
	// unsolved metavariables block unless they can be solved right away
	if errL != nil || errR != nil {
		return u.solveMeta(s, l, r, errL, errR)
	}

	i, lIsVar := ir.IsVar(l)
	j, rIsVar := ir.IsVar(r)
	fi, lFlex := s.Flex.Lookup(i)
	fj, rFlex := s.Flex.Lookup(j)
	lFlex = lFlex && lIsVar
	rFlex = rFlex && rIsVar

	switch {
	case lFlex && rFlex:
		return u.solveVarVar(s, eq, fi, fj)
	case lFlex:
		return u.solveVar(s, i, r)
	case rFlex:
		return u.solveVar(s, j, l)
	}

	switch l := l.(type) {
	case *ir.Con:
		if r, ok := r.(*ir.Con); ok {
			return u.injectCon(s, eq, l, r)
		}
	case *ir.Def:
		if r, ok := r.(*ir.Def); ok {
			return u.injectData(s, l, r)
		}
	case *ir.Lit:
		if r, ok := r.(*ir.Lit); ok {
			return u.conflict(s, l.Value, r.Value)
		}
	case *ir.Sort:
		if r, ok := r.(*ir.Sort); ok {
			return u.conflict(s, ir.Show(s.Tel.Names(), l), ir.Show(s.Tel.Names(), r))
		}
	}
	if lh, rh := rigidHead(l), rigidHead(r); lh != "" && rh != "" && lh != rh {
		return u.conflict(s, lh, rh)
	}
	return u.stuck(s, l, r, "not a constructor or variable")
}

// rigidHead names the head of a constructor or literal
func rigidHead(t ir.Term) string {
	switch t := t.(type) {
	case *ir.Con:
		return t.Name
	case *ir.Lit:
		return t.Value
	default:
		return ""
	}
}

func (u *Unifier) solveMeta(s *state, l, r ir.Term, errL, errR error) error {
	if m, ok := l.(*ir.Meta); ok && errL != nil {
		if solved, err := u.Metas.AssignPattern(m, r); err != nil || solved {
			return err
		}
	}
	if m, ok := r.(*ir.Meta); ok && errR != nil {
		if solved, err := u.Metas.AssignPattern(m, l); err != nil || solved {
			return err
		}
	}
	// a flexible variable against a stuck term can still be solved
	if i, ok := ir.IsVar(l); ok && errR != nil {
		if _, isFlex := s.Flex.Lookup(i); isFlex && u.solveVar(s, i, r) == nil {
			return nil
		}
	}
	if j, ok := ir.IsVar(r); ok && errL != nil {
		if _, isFlex := s.Flex.Lookup(j); isFlex && u.solveVar(s, j, l) == nil {
			return nil
		}
	}
	logger.Debug("blocked on metavariable", "left", l, "right", r)
	if errL != nil {
		return errL
	}
	return errR
}

// solveVarVar decides which of two flexible variables to instantiate with the other
func (u *Unifier) solveVarVar(s *state, eq Equation, fi, fj flex.Var) error {
	i, j := fi.Index, fj.Index
	choice := flex.ChooseFlex(fi, fj)
	logger.Debug("choosing flexible variable", "left", fi, "right", fj, "choice", choice)
	if choice == flex.ExpandBoth {
		expanded, err := u.etaExpandBoth(s, eq, i, j)
		if err != nil || expanded {
			return err
		}
		choice = flex.Either
	}
	solveLeft := func() error { return u.solveVar(s, i, ir.NewVar(j)) }
	solveRight := func() error { return u.solveVar(s, j, ir.NewVar(i)) }
	if choice == flex.Left {
		if err := solveLeft(); err == nil {
			return nil
		}
		return solveRight()
	}
	if err := solveRight(); err == nil {
		return nil
	}
	return solveLeft()
}

// solveVar instantiates the flexible variable i with t
func (u *Unifier) solveVar(s *state, i int, t ir.Term) error {
	n := s.Tel.Size()
	if i >= n {
		return u.stuck(s, ir.NewVar(i), t, "variable is not part of the pattern telescope")
	}
	tel, sigma, ok := telescope.Instantiate(s.Tel, n-1-i, t)
	if !ok {
		switch {
		case ir.OccursRigidly(i, t):
			return ilerr.New(ilerr.NewUnifyCycle{
				Positioner: ast.RangeOf(s.Source),
				Pattern:    s.Pattern,
				Var:        s.Tel.AtIndex(i).Name,
				Term:       ir.Show(s.Tel.Names(), t),
			})
		case ir.FreeIn(i, t):
			return u.stuck(s, ir.NewVar(i), t, "the variable occurs in a position that may be erased by reduction")
		default:
			return u.stuck(s, ir.NewVar(i), t, "the value depends on variables bound after the variable")
		}
	}
	logger.Debug("solved variable", "var", s.Tel.AtIndex(i).Name, "value", slogTerm(s.Tel.Names(), t))

	pats := make([]ir.Pattern, n)
	for k := range pats {
		if k == i {
			pats[k] = &ir.DotP{Term: sigma.Lookup(k)}
			continue
		}
		idx, _ := ir.IsVar(sigma.Lookup(k))
		pats[k] = &ir.VarP{Name: s.Tel.AtIndex(k).Name, Index: idx}
	}
	rho := ir.NewPatSubst(pats, tel.Size())
	s.apply(tel, rho, sigma)
	s.Flex = s.Flex.Without(i).Rename(sigma)
	return nil
}

// apply moves the state to tel, where rho (with underlying substitution sigma) maps
// the current telescope to tel
func (s *state) apply(tel telescope.Telescope, rho ir.PatSubst, sigma ir.Subst) {
	s.Tel = tel
	s.sub = ir.ComposePS(rho, s.sub)
	for k, eq := range s.Eqs {
		s.Eqs[k] = Equation{
			Type:  applyMaybe(sigma, eq.Type),
			Left:  ir.ApplySubst(sigma, eq.Left),
			Right: ir.ApplySubst(sigma, eq.Right),
		}
	}
}

func applyMaybe(s ir.Subst, t ir.Term) ir.Term {
	if t == nil {
		return nil
	}
	return ir.ApplySubst(s, t)
}

// injectCon replaces c us = c vs by the equations us = vs, and fails on different constructors
func (u *Unifier) injectCon(s *state, eq Equation, l, r *ir.Con) error {
	if l.Name != r.Name {
		return u.conflict(s, l.Name, r.Name)
	}
	if len(l.Args) != len(r.Args) {
		return u.stuck(s, l, r, "constructors applied to different numbers of arguments")
	}
	types := make([]ir.Term, len(l.Args))
	if con, ok := u.Sig.Constructor(l.Name); ok {
		if pars, ok := u.params(eq.Type, con.Data); ok {
			copy(types, con.ArgTypes(pars, l.Args))
		}
	}
	sub := make([]Equation, len(l.Args))
	for k := range l.Args {
		sub[k] = Equation{Type: types[k], Left: l.Args[k], Right: r.Args[k]}
	}
	s.Eqs = append(sub, s.Eqs...)
	return nil
}

// injectData unifies datatype applications argument-wise, type constructors being injective
func (u *Unifier) injectData(s *state, l, r *ir.Def) error {
	_, lData := u.Sig.Datatype(l.Name)
	_, rData := u.Sig.Datatype(r.Name)
	if !lData || !rData {
		return u.stuck(s, l, r, "not a datatype")
	}
	if l.Name != r.Name {
		return u.conflict(s, l.Name, r.Name)
	}
	if len(l.Args) != len(r.Args) {
		return u.stuck(s, l, r, "datatype applied to different numbers of arguments")
	}
	sub := make([]Equation, len(l.Args))
	for k := range l.Args {
		sub[k] = Equation{Left: l.Args[k], Right: r.Args[k]}
	}
	s.Eqs = append(sub, s.Eqs...)
	return nil
}

// params returns the parameters of the datatype called data that typ is an application of
func (u *Unifier) params(typ ir.Term, data string) ([]ir.Term, bool) {
	if typ == nil {
		return nil, false
	}
	typ, err := u.Reducer.WHNF(typ)
	if err != nil {
		return nil, false
	}
	def, ok := typ.(*ir.Def)
	if !ok || def.Name != data {
		return nil, false
	}
	d, _ := u.Sig.Datatype(data)
	if len(def.Args) < d.Params.Size() {
		return nil, false
	}
	return def.Args[:d.Params.Size()], true
}

// etaExpandBoth replaces both variables by the record constructor applied to fresh
// field variables, so that eq is solved field by field.
// It reports false when the variables are not of a record type.
func (u *Unifier) etaExpandBoth(s *state, eq Equation, i, j int) (bool, error) {
	if !u.isRecordVar(s, i) || !u.isRecordVar(s, j) {
		return false, nil
	}
	logger.Debug("eta-expanding both sides", "left", s.Tel.AtIndex(i).Name, "right", s.Tel.AtIndex(j).Name)
	s.Eqs = append([]Equation{eq}, s.Eqs...)
	// expanding a variable only moves the variables bound before it, so the
	// variable bound later keeps its index
	if err := u.etaExpandVar(s, max(i, j)); err != nil {
		return false, err
	}
	if err := u.etaExpandVar(s, min(i, j)); err != nil {
		return false, err
	}
	return true, nil
}

func (u *Unifier) isRecordVar(s *state, i int) bool {
	if i >= s.Tel.Size() {
		return false
	}
	_, _, ok := u.recordOf(s.Tel.AtIndex(i).Type)
	return ok
}

// etaExpandVar replaces variable i, of record type, by the record constructor applied
// to one new variable per field
func (u *Unifier) etaExpandVar(s *state, i int) error {
	n := s.Tel.Size()
	level := n - 1 - i
	con, pars, ok := u.recordOf(s.Tel.At(level).Type)
	if !ok {
		return fmt.Errorf("impossible: eta-expanding %s which is not of a record type", s.Tel.At(level).Name)
	}
	fields := con.ConstructorArgs(pars)
	m := fields.Size()
	args := make([]ir.PatArg, m)
	for f, fd := range fields.ToList() {
		args[f] = ir.PatArg{Info: fd.Info, Pattern: &ir.VarP{Name: fd.Name, Index: m - 1 - f}}
	}
	image := &ir.ConP{Con: con.Name, Args: args, Eta: true}
	tel, rho := telescope.ExpandVar(s.Tel, level, fields, image)

	expanded, _ := s.Flex.Lookup(i)
	s.apply(tel, rho, rho.Terms())
	s.Flex = s.Flex.Rename(rho.Terms())
	for f, fd := range fields.ToList() {
		kind := flex.Implicit
		if expanded.Kind.Tag == flex.RecordFlex && f < len(expanded.Kind.Fields) {
			kind = expanded.Kind.Fields[f]
		}
		idx := i + m - 1 - f
		s.Flex[idx] = flex.Var{Info: fd.Info, Kind: kind, Index: idx}
	}
	return nil
}

// recordOf returns the constructor and parameters of the record type typ reduces to
func (u *Unifier) recordOf(typ ir.Term) (*signature.Constructor, []ir.Term, bool) {
	typ, err := u.Reducer.WHNF(typ)
	if err != nil {
		return nil, nil, false
	}
	def, ok := typ.(*ir.Def)
	if !ok {
		return nil, nil, false
	}
	d, ok := u.Sig.Datatype(def.Name)
	if !ok || !d.Record || len(d.Constructors) != 1 || len(def.Args) != d.Params.Size() {
		return nil, nil, false
	}
	con, ok := u.Sig.Constructor(d.Constructors[0])
	return con, def.Args, ok
}

func (u *Unifier) conflict(s *state, left, right string) error {
	return ilerr.New(ilerr.NewUnifyConflict{
		Positioner: ast.RangeOf(s.Source),
		Pattern:    s.Pattern,
		Left:       left,
		Right:      right,
	})
}

func (u *Unifier) stuck(s *state, l, r ir.Term, reason string) error {
	names := s.Tel.Names()
	return ilerr.New(ilerr.NewUnifyStuck{
		Positioner: ast.RangeOf(s.Source),
		Pattern:    s.Pattern,
		Left:       ir.Show(names, l),
		Right:      ir.Show(names, r),
		Reason:     reason,
	})
}

func slogEqs(eqs []Equation) slog.LogValuer {
	return eqsLogValuer(eqs)
}

type eqsLogValuer []Equation

func (l eqsLogValuer) LogValue() slog.Value {
	strs := make([]string, len(l))
	for i, eq := range l {
		strs[i] = eq.String()
	}
	return slog.AnyValue(strs)
}

func slogTerm(names []string, t ir.Term) slog.LogValuer {
	return termLogValuer{names: names, t: t}
}

type termLogValuer struct {
	names []string
	t     ir.Term
}

func (l termLogValuer) LogValue() slog.Value {
	return slog.StringValue(ir.Show(l.names, l.t))
}

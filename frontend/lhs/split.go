package lhs

import (
	"slices"

	"github.com/cottand/depmatch/frontend/ast"
	"github.com/cottand/depmatch/frontend/flex"
	"github.com/cottand/depmatch/frontend/ilerr"
	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/frontend/signature"
	"github.com/cottand/depmatch/frontend/telescope"
	"github.com/cottand/depmatch/frontend/unify"
	"github.com/hashicorp/go-set/v3"
)

// step performs one transition of the splitting loop: it introduces the rest patterns
// the target has room for and splits the leftmost equation with a constructor
// pattern. It reports true once there is nothing left to split.
func (c *Checker) step(fn string, st *State) (bool, error) {
	if err := c.introRest(st); err != nil {
		return false, err
	}
	if err := rejectUnsupported(st.Problem.Eqs); err != nil {
		return false, err
	}
	idx := firstSplittable(st.Problem.Eqs)
	if idx < 0 {
		if len(st.Problem.RestPats) > 0 {
			return false, tooManyArgs(fn, st.Problem.RestPats)
		}
		return true, nil
	}
	logger.Debug("split step", "pattern", ast.Slog(st.Problem.Eqs[idx].Pattern), "state", st)
	return false, c.splitEq(st, idx)
}

// rejectUnsupported fails on the first equation whose pattern, under as-patterns and
// annotations, is a pattern synonym or an equality pattern
func rejectUnsupported(eqs []ProblemEq) error {
	for _, eq := range eqs {
		p := eq.Pattern
		for {
			switch q := p.(type) {
			case *ast.AsP:
				p = q.Pattern
				continue
			case *ast.AnnP:
				p = q.Pattern
				continue
			case *ast.PatternSynP:
				return ilerr.New(ilerr.NewUnsupportedPattern{Positioner: q.Range, Pattern: ast.PatternString(q), What: "pattern synonyms"})
			case *ast.EqualP:
				return ilerr.New(ilerr.NewUnsupportedPattern{Positioner: q.Range, Pattern: ast.PatternString(q), What: "equality patterns"})
			}
			break
		}
	}
	return nil
}

func firstSplittable(eqs []ProblemEq) int {
	for i, eq := range eqs {
		if ast.IsConstructorPattern(eq.Pattern) {
			return i
		}
	}
	return -1
}

// introRest moves rest patterns into the problem for as long as the target reduces to a
// function type, inserting wildcards for the hidden arguments the user skipped
func (c *Checker) introRest(st *State) error {
	for len(st.Problem.RestPats) > 0 {
		target, err := c.Reducer.WHNF(st.Target)
		if err != nil {
			// splitting may still refine the target
			if firstSplittable(st.Problem.Eqs) >= 0 {
				return nil
			}
			return err
		}
		pi, ok := target.(*ir.Pi)
		if !ok {
			return nil
		}
		arg := st.Problem.RestPats[0]
		dom := pi.Dom
		switch {
		case arg.Info.Hiding == dom.Info.Hiding && (arg.Name == "" || arg.Name == dom.Name):
			st.Problem.RestPats = st.Problem.RestPats[1:]
		case dom.Info.Hiding != ir.Visible:
			arg = ast.InsertedWild(dom.Info, ast.RangeOf(arg))
		default:
			return ilerr.New(ilerr.NewWrongHiding{
				Positioner: ast.RangeOf(arg),
				Pattern:    ast.ArgString(arg),
				Expected:   dom.Info.Hiding,
			})
		}
		if _, isAbsurd := arg.Pattern.(*ast.AbsurdP); isAbsurd {
			st.addPartialSplit(len(st.OutPats))
		}
		st.extend(pi, arg)
	}
	return nil
}

func tooManyArgs(head string, args []ast.NamedArg) error {
	strs := make([]string, len(args))
	for i, a := range args {
		strs[i] = ast.ArgString(a)
	}
	return ilerr.New(ilerr.NewTooManyArgs{Positioner: rangeOfArgs(args), Head: head, Patterns: strs})
}

// splitEq makes progress on the equation at idx, whose pattern is a constructor,
// record or literal pattern
func (c *Checker) splitEq(st *State, idx int) error {
	eq := peel(st, idx)
	source := ast.RangeOf(eq.Pattern)

	p := eq.Pattern
	if rec, ok := p.(*ast.RecP); ok {
		conP, err := c.recordToCon(st, eq, rec)
		if err != nil {
			return err
		}
		p = conP
		eq.Pattern = conP
		st.Problem.Eqs[idx] = eq
	}

	term, err := c.Reducer.WHNF(eq.Term)
	if err != nil {
		return err
	}
	switch term := term.(type) {
	case *ir.Con:
		return c.decompose(st, idx, p, term)
	case *ir.Lit:
		return c.decompose(st, idx, p, term)
	}
	i, ok := ir.IsVar(term)
	if !ok {
		return ilerr.New(ilerr.NewSplitOnNonVariable{
			Positioner: source,
			Pattern:    ast.PatternString(p),
			Term:       ir.Show(st.Tel.Names(), term),
		})
	}
	switch p := p.(type) {
	case *ast.ConP:
		return c.splitCon(st, idx, i, p)
	case *ast.LitP:
		return c.splitLit(st, idx, i, p)
	default:
		return ilerr.New(ilerr.NewUnsupportedPattern{Positioner: source, Pattern: ast.PatternString(p), What: "patterns of this kind"})
	}
}

// peel strips as-patterns and annotations off the pattern of the equation at idx.
// Each of them stays in the problem as an equation of its own, wrapping a wildcard,
// so that the leftover classifier still sees the name or the annotation.
func peel(st *State, idx int) ProblemEq {
	eq := st.Problem.Eqs[idx]
	var extra []ProblemEq
	for {
		switch p := eq.Pattern.(type) {
		case *ast.AsP:
			extra = append(extra, ProblemEq{
				Pattern: &ast.AsP{Range: p.Range, Name: p.Name, Pattern: &ast.WildP{Range: p.Range}},
				Info:    eq.Info,
				Term:    eq.Term,
				Type:    eq.Type,
			})
			eq.Pattern = p.Pattern
			continue
		case *ast.AnnP:
			extra = append(extra, ProblemEq{
				Pattern: &ast.AnnP{Range: p.Range, Type: p.Type, Pattern: &ast.WildP{Range: p.Range}},
				Info:    eq.Info,
				Term:    eq.Term,
				Type:    eq.Type,
			})
			eq.Pattern = p.Pattern
			continue
		}
		break
	}
	if len(extra) > 0 {
		st.Problem.Eqs = splice(st.Problem.Eqs, idx, append([]ProblemEq{eq}, extra...))
	}
	return eq
}

// splice replaces the equation at idx by eqs
func splice(eqs []ProblemEq, idx int, with []ProblemEq) []ProblemEq {
	ret := make([]ProblemEq, 0, len(eqs)-1+len(with))
	ret = append(ret, eqs[:idx]...)
	ret = append(ret, with...)
	return append(ret, eqs[idx+1:]...)
}

// recordToCon turns a record pattern into the constructor pattern of the record,
// with the fields in declaration order and wildcards for the missing ones
func (c *Checker) recordToCon(st *State, eq ProblemEq, rec *ast.RecP) (*ast.ConP, error) {
	names := st.Tel.Names()
	d, _, _, err := c.datatypeOf(eq.Type, ast.PatternString(rec), names)
	if err != nil {
		return nil, err
	}
	if !d.Record {
		return nil, ilerr.New(ilerr.NewSplitOnNonData{
			Positioner: rec.Range,
			Pattern:    ast.PatternString(rec),
			Type:       ir.Show(names, eq.Type),
		})
	}
	con, _ := c.Sig.Constructor(d.Constructors[0])
	given := make(map[string]ast.Pattern, len(rec.Fields))
	for _, f := range rec.Fields {
		given[f.Name] = f.Pattern
	}
	args := make([]ast.NamedArg, 0, con.Args.Size())
	for _, dom := range con.Args.ToList() {
		p, ok := given[dom.Name]
		if !ok {
			args = append(args, ast.InsertedWild(dom.Info, rec.Range))
			continue
		}
		delete(given, dom.Name)
		args = append(args, ast.NamedArg{Info: ir.ArgInfo{Hiding: dom.Info.Hiding}, Name: dom.Name, Pattern: p})
	}
	if len(given) > 0 {
		return nil, ilerr.New(ilerr.NewUnsupportedPattern{
			Positioner: rec.Range,
			Pattern:    ast.PatternString(rec),
			What:       "fields that do not belong to " + d.Name,
		})
	}
	return &ast.ConP{Range: rec.Range, Con: con.Name, Args: args}, nil
}

// datatypeOf reduces typ to a datatype applied to parameters and indices
func (c *Checker) datatypeOf(typ ir.Term, pattern string, names []string) (*signature.Datatype, []ir.Term, []ir.Term, error) {
	whnf, err := c.Reducer.WHNF(typ)
	if err != nil {
		return nil, nil, nil, err
	}
	notData := ilerr.New(ilerr.NewSplitOnNonData{Positioner: ast.Range{}, Pattern: pattern, Type: ir.Show(names, typ)})
	def, ok := whnf.(*ir.Def)
	if !ok {
		return nil, nil, nil, notData
	}
	d, ok := c.Sig.Datatype(def.Name)
	if !ok || len(def.Args) != d.Params.Size()+d.Indices.Size() {
		return nil, nil, nil, notData
	}
	np := d.Params.Size()
	return d, def.Args[:np], def.Args[np:], nil
}

// decompose handles a constructor or literal pattern whose value is already known to
// be a constructor or literal, replacing the equation by equations for the arguments
func (c *Checker) decompose(st *State, idx int, p ast.Pattern, term ir.Term) error {
	eq := st.Problem.Eqs[idx]
	names := st.Tel.Names()
	mismatch := ilerr.New(ilerr.NewConstructorMismatch{
		Positioner: ast.RangeOf(p),
		Pattern:    ast.PatternString(p),
		Value:      ir.Show(names, term),
	})
	switch p := p.(type) {
	case *ast.LitP:
		lit, ok := term.(*ir.Lit)
		if !ok || lit.Value != p.Value {
			return mismatch
		}
		st.Problem.Eqs = splice(st.Problem.Eqs, idx, nil)
		return nil
	case *ast.ConP:
		con, ok := term.(*ir.Con)
		if !ok || con.Name != p.Con {
			return mismatch
		}
		sig, ok := c.Sig.Constructor(p.Con)
		if !ok {
			return mismatch
		}
		_, pars, _, err := c.datatypeOf(eq.Type, ast.PatternString(p), names)
		if err != nil {
			return ilerr.WithRange(asIleError(err), p.Range)
		}
		args, err := insertImplicits(sig.Args.ToList(), p.Args, p.Con, p.Range)
		if err != nil {
			return err
		}
		types := sig.ArgTypes(pars, con.Args)
		sub := make([]ProblemEq, len(args))
		for f, arg := range args {
			sub[f] = ProblemEq{Pattern: arg.Pattern, Info: arg.Info, Term: con.Args[f], Type: types[f]}
		}
		logger.Debug("decomposed constructor pattern", "pattern", ast.Slog(p))
		st.Problem.Eqs = splice(st.Problem.Eqs, idx, sub)
		return nil
	default:
		return mismatch
	}
}

// insertImplicits lines up the argument patterns of a constructor with its argument
// domains, inserting wildcards for hidden arguments that are not given
func insertImplicits(doms []ir.Dom, args []ast.NamedArg, head string, source ast.Range) ([]ast.NamedArg, error) {
	ret := make([]ast.NamedArg, 0, len(doms))
	for _, dom := range doms {
		if len(args) > 0 && args[0].Info.Hiding == dom.Info.Hiding && (args[0].Name == "" || args[0].Name == dom.Name) {
			ret = append(ret, args[0])
			args = args[1:]
			continue
		}
		if dom.Info.Hiding != ir.Visible || len(args) == 0 {
			ret = append(ret, ast.InsertedWild(dom.Info, source))
			continue
		}
		return nil, ilerr.New(ilerr.NewWrongHiding{
			Positioner: ast.RangeOf(args[0]),
			Pattern:    ast.ArgString(args[0]),
			Expected:   dom.Info.Hiding,
		})
	}
	if len(args) > 0 {
		return nil, tooManyArgs(head, args)
	}
	return ret, nil
}

// splitCon splits variable i along the constructor pattern p of the equation at idx
func (c *Checker) splitCon(st *State, idx, i int, p *ast.ConP) error {
	n := st.Tel.Size()
	level := n - 1 - i
	dom := st.Tel.At(level)
	pattern := ast.PatternString(p)
	d, pars, is, err := c.datatypeOf(dom.Type, pattern, st.Tel.Names()[:level])
	if err != nil {
		return ilerr.WithRange(asIleError(err), p.Range)
	}
	con, ok := c.Sig.Constructor(p.Con)
	if !ok || con.Data != d.Name {
		return ilerr.New(ilerr.NewWrongConstructor{Positioner: p.Range, Con: p.Con, Data: d.Name})
	}
	args, err := insertImplicits(con.Args.ToList(), p.Args, p.Con, p.Range)
	if err != nil {
		return err
	}

	kinds := flexKinds{vars: make(map[int]flex.Kind), rigid: set.New[int](0)}
	for k, eq := range st.Problem.Eqs {
		j, ok := ir.IsVar(eq.Term)
		if !ok || k == idx {
			continue
		}
		if _, seen := kinds.vars[j]; seen || kinds.rigid.Contains(j) {
			continue
		}
		if kind, ok := flex.KindOf(eq.Pattern, c.Sig.IsRecordConstructor); ok {
			kinds.vars[j] = kind
		} else {
			kinds.rigid.Insert(j)
		}
	}
	for _, arg := range args {
		kind, ok := flex.KindOf(arg.Pattern, c.Sig.IsRecordConstructor)
		kinds.fields = append(kinds.fields, kindOrRigid{kind: kind, rigid: !ok})
	}

	if pos, ok := st.argPosition(i); ok && (p.Origin != ir.UserWritten || hasAbsurd(args)) {
		st.addPartialSplit(pos)
	}
	if d.Indices.Size() > 0 {
		st.IndexedSplit = true
	}

	tel, theta, err := c.splitTel(st.Tel, level, d, con, pars, is, kinds, pattern, p.Range)
	if err != nil {
		return err
	}
	image, ok := theta.Lookup(i).(*ir.ConP)
	if !ok {
		panic("impossible: split variable is not mapped to its constructor")
	}
	st.apply(tel, theta)

	// the parameters live in the context of the bindings before the split variable
	parsHere := make([]ir.Term, len(pars))
	for k, par := range pars {
		parsHere[k] = ir.ApplySubst(theta.Terms(), ir.Raise(n-level, par))
	}
	fieldTerms := make([]ir.Term, len(image.Args))
	for f, arg := range image.Args {
		fieldTerms[f] = ir.PatternToTerm(arg.Pattern)
	}
	types := con.ArgTypes(parsHere, fieldTerms)
	sub := make([]ProblemEq, len(args))
	for f, arg := range args {
		sub[f] = ProblemEq{Pattern: arg.Pattern, Info: arg.Info, Term: fieldTerms[f], Type: types[f]}
	}
	st.Problem.Eqs = splice(st.Problem.Eqs, idx, sub)
	logger.Debug("split", "con", con.Name, "state", st)
	return nil
}

// splitLit splits variable i, of a literal type, along the literal pattern p
func (c *Checker) splitLit(st *State, idx, i int, p *ast.LitP) error {
	n := st.Tel.Size()
	level := n - 1 - i
	dom := st.Tel.At(level)
	pattern := ast.PatternString(p)
	d, _, _, err := c.datatypeOf(dom.Type, pattern, st.Tel.Names()[:level])
	if err != nil {
		return ilerr.WithRange(asIleError(err), p.Range)
	}
	if !c.Sig.IsLiteralType(d.Name) {
		return ilerr.New(ilerr.NewSplitOnNonData{Positioner: p.Range, Pattern: pattern, Type: d.Name})
	}
	tel, tau := telescope.ExpandVar(st.Tel, level, telescope.Empty(), &ir.LitP{Value: p.Value})
	st.apply(tel, tau)
	st.Problem.Eqs = splice(st.Problem.Eqs, idx, nil)
	return nil
}

func hasAbsurd(args []ast.NamedArg) bool {
	return slices.ContainsFunc(args, func(a ast.NamedArg) bool {
		_, ok := a.Pattern.(*ast.AbsurdP)
		return ok
	})
}

type kindOrRigid struct {
	kind  flex.Kind
	rigid bool
}

// flexKinds are the kinds of flexible variables a split gives rise to: vars for the
// variables of the telescope being split, by de Bruijn index, and fields for the
// variables of the constructor arguments
type flexKinds struct {
	vars   map[int]flex.Kind
	rigid  *set.Set[int]
	fields []kindOrRigid
}

// splitTel replaces the variable at level of tel, of type d pars is, by con applied to
// new variables, and unifies the indices of con with is. It returns the resulting
// telescope and the substitution from tel to it.
func (c *Checker) splitTel(
	tel telescope.Telescope,
	level int,
	d *signature.Datatype,
	con *signature.Constructor,
	pars, is []ir.Term,
	kinds flexKinds,
	pattern string,
	source ast.Range,
) (telescope.Telescope, ir.PatSubst, error) {
	n := tel.Size()
	after := n - 1 - level
	fields := con.ConstructorArgs(pars)
	m := fields.Size()
	fieldDoms := fields.ToList()
	args := make([]ir.PatArg, m)
	for f, fd := range fieldDoms {
		args[f] = ir.PatArg{Info: fd.Info, Pattern: &ir.VarP{Name: fd.Name, Index: m - 1 - f}}
	}
	expanded, tau := telescope.ExpandVar(tel, level, fields, &ir.ConP{Con: con.Name, Args: args})
	if d.Indices.Size() == 0 {
		return expanded, tau, nil
	}

	conIndices := con.ConstructorIndices(pars)
	indexTypes := d.IndexTypes(pars, is)
	eqs := make([]unify.Equation, len(is))
	for k := range is {
		eqs[k] = unify.Equation{
			Type:  ir.Raise(m+after, indexTypes[k]),
			Left:  ir.Raise(after, conIndices[k]),
			Right: ir.Raise(m+after, is[k]),
		}
	}

	size := expanded.Size()
	fx := make(flex.Vars, size)
	for newLevel := 0; newLevel < size; newLevel++ {
		idx := size - 1 - newLevel
		pos := idx
		v := flex.Var{Kind: flex.Implicit, Index: idx, Pos: &pos, Info: expanded.At(newLevel).Info}
		switch {
		case newLevel >= level && newLevel < level+m:
			f := newLevel - level
			if f < len(kinds.fields) {
				if kinds.fields[f].rigid {
					continue
				}
				v.Kind = kinds.fields[f].kind
			}
			v.Forced = con.IsForced(f)
		default:
			oldLevel := newLevel
			if newLevel >= level+m {
				oldLevel = newLevel - m + 1
			}
			oldIdx := n - 1 - oldLevel
			if kinds.rigid != nil && kinds.rigid.Contains(oldIdx) {
				continue
			}
			if k, ok := kinds.vars[oldIdx]; ok {
				v.Kind = k
			}
		}
		fx[idx] = v
	}

	res, err := c.unifier.Unify(unify.Problem{Tel: expanded, Flex: fx, Eqs: eqs, Pattern: pattern, Source: source})
	if err != nil {
		return telescope.Telescope{}, ir.PatSubst{}, err
	}
	return res.Tel, ir.ComposePS(res.Sub, tau), nil
}

func asIleError(err error) ilerr.IleError {
	if ile, ok := err.(ilerr.IleError); ok {
		return ile
	}
	return ilerr.New(ilerr.Unclassified{Positioner: ast.Range{}, From: err})
}

package lhs

import (
	"github.com/cottand/depmatch/frontend/ast"
	"github.com/cottand/depmatch/frontend/ilerr"
	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/frontend/telescope"
)

// finish names the telescope after the user pattern variables and checks the dot
// patterns, annotations and absurd patterns left over once splitting is done
func (c *Checker) finish(st *State) (*Result, error) {
	lo := c.classifyAll(st.Problem.Eqs)
	if len(lo.other) > 0 {
		strs := make([]string, len(lo.other))
		for i, p := range lo.other {
			strs[i] = ast.PatternString(p)
		}
		return nil, ilerr.New(ilerr.NewLeftoverOther{Positioner: ast.RangeOf(lo.other[0]), Patterns: strs})
	}

	names, asBindings := userVariableNames(st.Tel, lo.names)
	st.Tel = st.Tel.Rename(names)
	for i, p := range st.OutPats {
		st.OutPats[i] = ir.PatArg{Info: p.Info, Pattern: ir.LabelPattern(names, p.Pattern)}
	}
	res := &Result{
		State:      *st,
		AsBindings: append(lo.asBindings, asBindings...),
		Dots:       lo.dots,
	}

	for _, dot := range lo.dots {
		if err := c.checkDot(st.Tel, dot); err != nil {
			return nil, err
		}
	}
	for _, ann := range lo.anns {
		if err := c.checkAnnotation(st.Tel, ann); err != nil {
			return nil, err
		}
	}
	for _, absurd := range lo.absurds {
		if err := c.checkEmpty(st.Tel, absurd.Type, absurd.Range); err != nil {
			return nil, err
		}
	}
	logger.Debug("left-hand side checked", "state", st, "asBindings", res.AsBindings)
	return res, nil
}

// checkDot checks that the expression of a dot pattern equals the value splitting found
func (c *Checker) checkDot(tel telescope.Telescope, dot DotPattern) error {
	v, err := c.Exprs.CheckExpr(tel, dot.Expr, dot.Type)
	if err != nil {
		return err
	}
	if err := c.Conversion.Equal(dot.Type, v, dot.Term); err != nil {
		if ilerr.IsPatternViolation(err) {
			return err
		}
		return ilerr.New(ilerr.NewDotMismatch{
			Positioner: dot.Range,
			Expr:       ast.ExprString(dot.Expr),
			Inferred:   ir.Show(tel.Names(), dot.Term),
		})
	}
	return nil
}

func (c *Checker) checkAnnotation(tel telescope.Telescope, ann annPattern) error {
	typ, err := c.Exprs.CheckExpr(tel, ann.Annotation, nil)
	if err != nil {
		return err
	}
	if err := c.Conversion.Equal(&ir.Sort{}, typ, ann.Type); err != nil {
		if ilerr.IsPatternViolation(err) {
			return err
		}
		return ilerr.New(ilerr.NewAnnotationMismatch{
			Positioner: ann.Range,
			Annotation: ast.ExprString(ann.Annotation),
			Type:       ir.Show(tel.Names(), ann.Type),
		})
	}
	return nil
}

// checkEmpty checks that typ, in the context of tel, has no elements: it has to be a
// datatype where splitting a variable of that type along any constructor fails to unify
func (c *Checker) checkEmpty(tel telescope.Telescope, typ ir.Term, r ast.Range) error {
	names := tel.Names()
	nonEmpty := ilerr.New(ilerr.NewAbsurdNonEmpty{Positioner: r, Type: ir.Show(names, typ)})
	d, pars, is, err := c.datatypeOf(typ, "()", names)
	if err != nil {
		if ilerr.IsPatternViolation(err) {
			return err
		}
		return nonEmpty
	}
	if c.Sig.IsLiteralType(d.Name) {
		return nonEmpty
	}
	n := tel.Size()
	ext := tel.Extend(ir.Dom{Name: "()", Type: typ})
	for _, name := range d.Constructors {
		con, _ := c.Sig.Constructor(name)
		// a conflicting constructor may have solved metavariables on its way
		snapshot := c.Metas.Snapshot()
		_, _, err := c.splitTel(ext, n, d, con, pars, is, flexKinds{}, "()", r)
		c.Metas.Restore(snapshot)
		switch {
		case err == nil:
			logger.Debug("type is inhabited", "type", ir.Show(names, typ), "con", name)
			return nonEmpty
		case ilerr.IsPatternViolation(err):
			return err
		case ilerr.CodeOf(err) == ilerr.UnifyConflict, ilerr.CodeOf(err) == ilerr.UnifyCycle:
			continue
		default:
			logger.Debug("cannot decide emptiness", "type", ir.Show(names, typ), "con", name, "reason", err)
			return nonEmpty
		}
	}
	return nil
}

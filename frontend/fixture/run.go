package fixture

import (
	"fmt"
	"slices"
	"strings"

	"github.com/cottand/depmatch/frontend/ast"
	"github.com/cottand/depmatch/frontend/elab"
	"github.com/cottand/depmatch/frontend/ilerr"
	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/frontend/lhs"
	"github.com/cottand/depmatch/frontend/meta"
	"github.com/cottand/depmatch/frontend/signature"
	"github.com/cottand/depmatch/frontend/unify"
	"github.com/hashicorp/go-set/v3"
	"github.com/pkg/errors"
)

// Outcome is the result of checking one clause
type Outcome struct {
	Clause ClauseDecl
	Result *lhs.Clause
	Err    error
	// Unexpected says how the outcome differs from what the clause expects, empty if it does not
	Unexpected string
}

func (o Outcome) OK() bool {
	return o.Unexpected == ""
}

// Patterns renders the internal patterns of a successful outcome
func (o Outcome) Patterns() string {
	if o.Result == nil {
		return ""
	}
	names := o.Result.Tel.Names()
	strs := make([]string, len(o.Result.OutPats))
	for i, p := range o.Result.OutPats {
		strs[i] = ir.ShowPatArgIn(names, p)
	}
	return strings.Join(strs, " ")
}

// Run checks every clause of f. It only fails if the signature cannot be built,
// failures of clauses are reported in their Outcome.
func (f *Fixture) Run() ([]Outcome, error) {
	metas := meta.NewStore()
	sig, err := f.Signature(metas)
	if err != nil {
		return nil, err
	}
	checker := lhs.NewChecker(sig, metas)
	checker.ModuleParams = set.From(f.Params)

	ret := make([]Outcome, 0, len(f.Clauses))
	for _, c := range f.Clauses {
		o := Outcome{Clause: c}
		o.Result, o.Err = checkClause(checker, sig, metas, c)
		o.Unexpected = c.Expect.compare(o)
		logger.Debug("checked clause", "clause", c.String(), "err", o.Err, "unexpected", o.Unexpected)
		ret = append(ret, o)
	}
	if errs := ClauseErrors(ret); errs.HasError() {
		logger.Debug("clauses failed", "errors", errs)
	}
	return ret, nil
}

// ClauseErrors collects the checking errors of outcomes, expected or not
func ClauseErrors(outcomes []Outcome) *ilerr.Errors {
	var ret *ilerr.Errors
	for _, o := range outcomes {
		var ile ilerr.IleError
		if o.Err != nil && errors.As(o.Err, &ile) {
			ret = ret.With(ile)
		}
	}
	return ret
}

func checkClause(checker *lhs.Checker, sig *signature.Signature, metas *meta.Store, c ClauseDecl) (*lhs.Clause, error) {
	el := elab.New(sig, metas)
	typ, err := elabString(el, nil, c.Type)
	if err != nil {
		return nil, errors.Wrap(err, "type of clause")
	}
	pats, err := c.Patterns(sig)
	if err != nil {
		return nil, err
	}
	return checker.CheckLHS(c.Fn, typ, pats, func(res *lhs.Result) (ir.Term, error) {
		if c.RHS == "" {
			return nil, nil
		}
		body, err := elabString(el, res.Tel.Names(), c.RHS)
		if err != nil {
			return nil, err
		}
		if !c.Rewrite {
			return body, nil
		}
		lhsTerms := make([]ir.Term, len(res.OutPats))
		for i, p := range res.OutPats {
			lhsTerms[i] = ir.PatternToTerm(p.Pattern)
		}
		return body, unify.CheckRewriteLHS(res.Tel, lhsTerms, body, rangeOf(pats))
	})
}

func rangeOf(pats []ast.NamedArg) ast.Range {
	if len(pats) == 0 {
		return ast.Range{}
	}
	return ast.RangeBetween(pats[0], pats[len(pats)-1])
}

func (e Expect) compare(o Outcome) string {
	if e.Error != "" {
		if o.Err == nil {
			return fmt.Sprintf("expected error %s, but the clause checked", e.Error)
		}
		if got := ilerr.CodeOf(o.Err); got.String() != e.Error {
			return fmt.Sprintf("expected error %s, got %s: %v", e.Error, got, o.Err)
		}
		return ""
	}
	if o.Err != nil {
		return fmt.Sprintf("unexpected error: %v", o.Err)
	}
	if e.Patterns != "" && o.Patterns() != e.Patterns {
		return fmt.Sprintf("expected patterns %q, got %q", e.Patterns, o.Patterns())
	}
	if e.Tel != "" && o.Result.Tel.String() != e.Tel {
		return fmt.Sprintf("expected telescope %q, got %q", e.Tel, o.Result.Tel.String())
	}
	if e.AsBindings != nil {
		got := make([]string, len(o.Result.AsBindings))
		for i, b := range o.Result.AsBindings {
			got[i] = b.Name
		}
		if !slices.Equal(got, e.AsBindings) {
			return fmt.Sprintf("expected as-bindings %v, got %v", e.AsBindings, got)
		}
	}
	return ""
}

// Package lhs checks the left-hand side of a clause: it splits the pattern variables
// of a function type along the constructor patterns of the clause, solving the index
// equations every split gives rise to, and then reconciles the remaining patterns
// (variables, as-patterns, dot patterns, absurd patterns) with the variables the
// splitting left in scope.
package lhs

import (
	"fmt"

	"github.com/cottand/depmatch/frontend/ast"
	"github.com/cottand/depmatch/frontend/elab"
	"github.com/cottand/depmatch/frontend/ilerr"
	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/frontend/meta"
	"github.com/cottand/depmatch/frontend/signature"
	"github.com/cottand/depmatch/frontend/telescope"
	"github.com/cottand/depmatch/frontend/unify"
	"github.com/cottand/depmatch/internal/log"
	"github.com/hashicorp/go-set/v3"
)

var logger = log.DefaultLogger.With("section", "lhs")

const DefaultMaxSteps = 10000

// Conversion decides definitional equality. It returns nil when a equals b at type typ,
// an ilerr.NewPatternViolation when it is blocked on a metavariable, and any other
// error when the terms differ.
type Conversion interface {
	Equal(typ, a, b ir.Term) error
}

// ExprChecker elaborates the expressions of dot patterns and type annotations
type ExprChecker interface {
	CheckExpr(tel telescope.Telescope, e ast.Expr, typ ir.Term) (ir.Term, error)
}

// EtaVarFunc returns the de Bruijn index of t if t is a variable up to eta-expansion
type EtaVarFunc func(t, typ ir.Term) (int, bool)

// Continuation checks the right-hand side of a clause once its left-hand side is
// checked. It is called at most once per call to CheckLHS.
type Continuation func(res *Result) (ir.Term, error)

// Checker holds the collaborators of left-hand side checking
type Checker struct {
	Sig        *signature.Signature
	Metas      *meta.Store
	Reducer    unify.Reducer
	Conversion Conversion
	Exprs      ExprChecker
	EtaVar     EtaVarFunc
	// ModuleParams are the names of the parameters of the enclosing module.
	// Pattern variables prefer not to be named like them.
	ModuleParams *set.Set[string]
	// MaxSteps bounds the iterations of the splitting loop
	MaxSteps int

	unifier *unify.Unifier
}

// NewChecker returns a Checker using the default reducer, conversion checker and
// expression elaborator over sig and metas
func NewChecker(sig *signature.Signature, metas *meta.Store) *Checker {
	norm := signature.NewNormalizer(sig, metas)
	return &Checker{
		Sig:          sig,
		Metas:        metas,
		Reducer:      norm,
		Conversion:   signature.NewConversion(norm),
		Exprs:        elab.New(sig, metas),
		EtaVar:       signature.IsEtaVar,
		ModuleParams: set.New[string](0),
		MaxSteps:     DefaultMaxSteps,
	}
}

// Result is a checked left-hand side, as handed to the Continuation
type Result struct {
	// State is the final state of splitting. Its telescope is named after the
	// variables of the user patterns and its patterns are labelled with those names.
	State
	// AsBindings are the names bound to something else than a pattern variable
	AsBindings []AsBinding
	// Dots are the dot patterns, already checked against the values unification found
	Dots []DotPattern
}

// Clause is a checked clause
type Clause struct {
	*Result
	Body ir.Term
}

// CheckLHS checks the left-hand side fn pats against the type typ of fn and then calls
// cont with the result.
//
// Checking either succeeds, or fails without leaving any metavariable assignment it
// made behind. A failure for which ilerr.IsPatternViolation holds means checking is
// blocked on a metavariable and should be retried once it is solved.
func (c *Checker) CheckLHS(fn string, typ ir.Term, pats []ast.NamedArg, cont Continuation) (*Clause, error) {
	snapshot := c.Metas.Snapshot()
	clause, err := c.checkLHS(fn, typ, pats, cont)
	if err != nil {
		c.Metas.Restore(snapshot)
		if ilerr.IsPatternViolation(err) {
			logger.Debug("left-hand side blocked", "fn", fn, "reason", err)
		}
		return nil, err
	}
	return clause, nil
}

func (c *Checker) checkLHS(fn string, typ ir.Term, pats []ast.NamedArg, cont Continuation) (*Clause, error) {
	c.unifier = unify.New(c.Sig, c.Reducer, c.Metas)
	st := &State{
		Tel:     telescope.Empty(),
		Target:  typ,
		Problem: Problem{RestPats: pats},
	}
	maxSteps := c.MaxSteps
	if maxSteps <= 0 {
		maxSteps = DefaultMaxSteps
	}
	for step := 0; ; step++ {
		if step >= maxSteps {
			return nil, ilerr.New(ilerr.Unclassified{
				Positioner: rangeOfArgs(pats),
				From:       fmt.Errorf("impossible: checking the left-hand side of %s did not finish after %d steps", fn, maxSteps),
			})
		}
		done, err := c.step(fn, st)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	logger.Debug("splitting done", "fn", fn, "state", st)

	res, err := c.finish(st)
	if err != nil {
		return nil, err
	}
	body, err := cont(res)
	if err != nil {
		return nil, err
	}
	return &Clause{Result: res, Body: body}, nil
}

func rangeOfArgs(pats []ast.NamedArg) ast.Range {
	if len(pats) == 0 {
		return ast.Range{}
	}
	return ast.RangeBetween(pats[0], pats[len(pats)-1])
}

package lhs_test

import (
	"strings"
	"testing"

	"github.com/cottand/depmatch/frontend/ast"
	"github.com/cottand/depmatch/frontend/elab"
	"github.com/cottand/depmatch/frontend/fixture"
	"github.com/cottand/depmatch/frontend/ilerr"
	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/frontend/lhs"
	"github.com/cottand/depmatch/frontend/meta"
	"github.com/cottand/depmatch/frontend/signature"
	"github.com/hashicorp/go-set/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prelude = `
data:
  - name: Nat
    constructors:
      - name: zero
      - name: suc
        args: "(n : Nat)"
  - name: Vec
    params: "(A : Set)"
    indices: "(n : Nat)"
    constructors:
      - name: nil
        indices: ["zero"]
      - name: cons
        args: "{m : Nat} (x : A) (xs : Vec A m)"
        indices: ["suc m"]
        forced: [m]
  - name: Fin
    indices: "(n : Nat)"
    constructors:
      - name: fzero
        args: "{k : Nat}"
        indices: ["suc k"]
      - name: fsuc
        args: "{k : Nat} (i : Fin k)"
        indices: ["suc k"]
  - name: Eq
    params: "(A : Set) (x : A)"
    indices: "(y : A)"
    constructors:
      - name: refl
        indices: ["x"]
  - name: Pair
    params: "(A B : Set)"
    record: true
    constructors:
      - name: pair
        args: "(fst : A) (snd : B)"
  - name: Both
    indices: "(a b : Nat)"
    constructors:
      - name: both
        indices: ["zero", "zero"]
  - name: String
    literal: true
definitions:
  - name: Fun
    type: "Set"
    body: "Nat -> Nat"
`

func setup(t *testing.T) (*signature.Signature, *meta.Store) {
	t.Helper()
	f, err := fixture.Parse([]byte(prelude))
	require.NoError(t, err)
	metas := meta.NewStore()
	sig, err := f.Signature(metas)
	require.NoError(t, err)
	return sig, metas
}

func parseType(t *testing.T, sig *signature.Signature, metas *meta.Store, src string) ir.Term {
	t.Helper()
	e, err := fixture.ParseExpr(src)
	require.NoError(t, err)
	typ, err := elab.New(sig, metas).Elab(nil, e)
	require.NoError(t, err)
	return typ
}

func showPatterns(res *lhs.Result) string {
	names := res.Tel.Names()
	strs := make([]string, len(res.OutPats))
	for i, p := range res.OutPats {
		strs[i] = ir.ShowPatArgIn(names, p)
	}
	return strings.Join(strs, " ")
}

func asNames(res *lhs.Result) []string {
	ret := []string{}
	for _, b := range res.AsBindings {
		ret = append(ret, b.Name)
	}
	return ret
}

type checked struct {
	clause *lhs.Clause
	calls  int
}

func check(t *testing.T, checker *lhs.Checker, typ ir.Term, src string) (checked, error) {
	t.Helper()
	pats, err := fixture.ParsePatterns(src, checker.Sig.IsConstructor)
	require.NoError(t, err)
	var ret checked
	ret.clause, err = checker.CheckLHS("f", typ, pats, func(res *lhs.Result) (ir.Term, error) {
		ret.calls++
		return nil, nil
	})
	return ret, err
}

func TestCheckLHS(t *testing.T) {
	cases := []struct {
		name       string
		typ        string
		lhs        string
		params     []string
		tel        string
		patterns   string
		asBindings []string
	}{
		{name: "constant constructor", typ: "Nat -> Nat", lhs: "zero", tel: "", patterns: "zero"},
		{name: "constructor with argument", typ: "Nat -> Nat", lhs: "(suc n)", tel: "(n : Nat)", patterns: "(suc n)"},
		{name: "variable", typ: "Nat -> Nat", lhs: "x", tel: "(x : Nat)", patterns: "x"},
		{
			name:       "non-linear variable becomes an as-binding",
			typ:        "(a b : Nat) -> Eq Nat a b -> Nat",
			lhs:        "x x refl",
			tel:        "(x : Nat)",
			patterns:   "x .x refl",
			asBindings: []string{"x"},
		},
		{
			name:     "forced constructor argument",
			typ:      "(n : Nat) -> Vec Nat (suc n) -> Nat",
			lhs:      "n (cons x xs)",
			tel:      "(n : Nat) (x : Nat) (xs : Vec Nat n)",
			patterns: "n (cons {.n} x xs)",
		},
		{
			name:     "dot pattern on the index",
			typ:      "(n : Nat) -> Vec Nat n -> Nat",
			lhs:      ".(suc m) (cons {m} x xs)",
			tel:      "{m : Nat} (x : Nat) (xs : Vec Nat m)",
			patterns: ".(suc m) (cons {m} x xs)",
		},
		{
			name:     "dot pattern on a forced argument",
			typ:      "(n : Nat) -> Vec Nat (suc n) -> Nat",
			lhs:      "n (cons {.n} x xs)",
			tel:      "(n : Nat) (x : Nat) (xs : Vec Nat n)",
			patterns: "n (cons {.n} x xs)",
		},
		{
			name:     "inserted implicit argument",
			typ:      "{n : Nat} -> Vec Nat n -> Nat",
			lhs:      "(cons x xs)",
			tel:      "{m : Nat} (x : Nat) (xs : Vec Nat m)",
			patterns: "{.(suc m)} (cons {m} x xs)",
		},
		{
			name:     "sub-pattern decomposed against a solved field",
			typ:      "Vec Nat (suc zero) -> Nat",
			lhs:      "(cons {m = zero} x xs)",
			tel:      "(x : Nat) (xs : Vec Nat zero)",
			patterns: "(cons {.zero} x xs)",
		},
		{name: "rest patterns behind a definition", typ: "Nat -> Fun", lhs: "zero n", tel: "(n : Nat)", patterns: "zero n"},
		{
			name:     "record pattern",
			typ:      "Pair Nat Nat -> Nat",
			lhs:      "record { snd = y ; fst = x }",
			tel:      "(x : Nat) (y : Nat)",
			patterns: "(pair x y)",
		},
		{
			name:     "record pattern with a missing field",
			typ:      "Pair Nat Nat -> Nat",
			lhs:      "record { fst = x }",
			tel:      "(x : Nat) (snd : Nat)",
			patterns: "(pair x snd)",
		},
		{
			name:       "as-pattern",
			typ:        "Nat -> Nat",
			lhs:        "m@(suc n)",
			tel:        "(n : Nat)",
			patterns:   "(suc n)",
			asBindings: []string{"m"},
		},
		{name: "annotation", typ: "Nat -> Nat", lhs: "(x : Nat)", tel: "(x : Nat)", patterns: "x"},
		{name: "literal", typ: "String -> Nat", lhs: `"a"`, tel: "", patterns: `"a"`},
		{name: "absurd pattern at an empty type", typ: "Fin zero -> Nat", lhs: "()", tel: "(_ : Fin zero)", patterns: "_"},
		{
			name:       "instance occurrence stays an instance",
			typ:        "(a : Nat) -> {{b : Nat}} -> Eq Nat a b -> Nat",
			lhs:        "_ {{x}} refl",
			tel:        "(x : Nat)",
			patterns:   "x {{.x}} refl",
			asBindings: []string{"x"},
		},
		{
			name:       "names of module parameters are avoided",
			typ:        "(a b : Nat) -> Eq Nat a b -> Nat",
			lhs:        "n k refl",
			params:     []string{"n"},
			tel:        "(k : Nat)",
			patterns:   "k .k refl",
			asBindings: []string{"n"},
		},
		{
			name:       "unnamed instance argument",
			typ:        "{{n : Nat}} -> Nat",
			lhs:        "{{_}}",
			tel:        "{{n : Nat}}",
			patterns:   "{{n}}",
			asBindings: []string{"_1"},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sig, metas := setup(t)
			checker := lhs.NewChecker(sig, metas)
			checker.ModuleParams = set.From(c.params)

			got, err := check(t, checker, parseType(t, sig, metas, c.typ), c.lhs)
			require.NoError(t, err)
			assert.Equal(t, 1, got.calls)
			assert.Equal(t, c.tel, got.clause.Tel.String())
			assert.Equal(t, c.patterns, showPatterns(got.clause.Result))
			if c.asBindings == nil {
				c.asBindings = []string{}
			}
			assert.Equal(t, c.asBindings, asNames(got.clause.Result))
			assert.True(t, got.clause.Tel.WellScoped())
		})
	}
}

func TestCheckLHSErrors(t *testing.T) {
	cases := []struct {
		name string
		typ  string
		lhs  string
		code ilerr.ErrCode
	}{
		{name: "constructors of different indices", typ: "(n : Nat) -> Vec Nat (suc n) -> Nat", lhs: "n nil", code: ilerr.UnifyConflict},
		{name: "absurd pattern at an inhabited type", typ: "Nat -> Nat", lhs: "()", code: ilerr.AbsurdNonEmpty},
		{name: "absurd pattern at a literal type", typ: "String -> Nat", lhs: "()", code: ilerr.AbsurdNonEmpty},
		{name: "too many patterns", typ: "Nat -> Nat", lhs: "x y", code: ilerr.TooManyArgs},
		{name: "too many constructor arguments", typ: "Nat -> Nat", lhs: "(suc n m)", code: ilerr.TooManyArgs},
		{name: "hidden pattern for a visible argument", typ: "Nat -> Nat", lhs: "{x}", code: ilerr.WrongHiding},
		{name: "constructor of another datatype", typ: "Nat -> Nat", lhs: "(cons x xs)", code: ilerr.WrongConstructor},
		{name: "split on a universe", typ: "Set -> Nat", lhs: "zero", code: ilerr.SplitOnNonData},
		{name: "dot pattern differs from the index", typ: "(n : Nat) -> Vec Nat n -> Nat", lhs: ".zero (cons {m} x xs)", code: ilerr.DotMismatch},
		{name: "wrong annotation", typ: "Nat -> Nat", lhs: "(x : Vec Nat zero)", code: ilerr.AnnotationMismatch},
		{name: "unknown record field", typ: "Pair Nat Nat -> Nat", lhs: "record { foo = x }", code: ilerr.UnsupportedPattern},
		{name: "sub-pattern against a different solved field", typ: "Vec Nat (suc zero) -> Nat", lhs: "(cons {m = suc k} x xs)", code: ilerr.ConstructorMismatch},
		{
			name: "sub-pattern against a neutral term",
			typ:  "(f : Nat -> Nat) -> Vec Nat (suc (f zero)) -> Nat",
			lhs:  "f (cons {suc k} x xs)",
			code: ilerr.SplitOnNonVariable,
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sig, metas := setup(t)
			checker := lhs.NewChecker(sig, metas)

			got, err := check(t, checker, parseType(t, sig, metas, c.typ), c.lhs)
			require.Error(t, err)
			assert.Equal(t, c.code, ilerr.CodeOf(err), "got %v", err)
			assert.False(t, ilerr.IsPatternViolation(err))
			assert.Zero(t, got.calls)
		})
	}
}

func TestCheckLHSUnsupportedPatterns(t *testing.T) {
	cases := map[string]ast.Pattern{
		"pattern synonym":     &ast.PatternSynP{Name: "two"},
		"equality pattern":    &ast.EqualP{},
		"under an as-pattern": &ast.AsP{Name: "x", Pattern: &ast.EqualP{}},
		"under a constructor": &ast.ConP{Con: "suc", Args: []ast.NamedArg{ast.Arg(&ast.PatternSynP{Name: "two"})}},
		"under an annotation": &ast.AnnP{Type: &ast.Ident{Name: "Nat"}, Pattern: &ast.PatternSynP{Name: "two"}},
	}
	for name, p := range cases {
		t.Run(name, func(t *testing.T) {
			sig, metas := setup(t)
			checker := lhs.NewChecker(sig, metas)
			calls := 0
			pats := []ast.NamedArg{ast.Arg(p)}
			_, err := checker.CheckLHS("f", parseType(t, sig, metas, "Nat -> Nat"), pats, func(*lhs.Result) (ir.Term, error) {
				calls++
				return nil, nil
			})
			require.Error(t, err)
			assert.Equal(t, ilerr.UnsupportedPattern, ilerr.CodeOf(err), "got %v", err)
			assert.Zero(t, calls)
		})
	}
}

func TestCheckLHSInstanceAliases(t *testing.T) {
	type binding struct {
		name     string
		instance bool
	}
	cases := []struct {
		name     string
		typ      string
		lhs      string
		bindings []binding
	}{
		{
			name:     "instance alias of a visible variable",
			typ:      "(a : Nat) -> {{b : Nat}} -> Eq Nat a b -> Nat",
			lhs:      "x {{y}} refl",
			bindings: []binding{{"y", true}},
		},
		{
			name:     "instance name chosen for a visible variable",
			typ:      "{{b : Nat}} -> (a : Nat) -> Eq Nat a b -> Nat",
			lhs:      "{{y}} x refl",
			bindings: []binding{{"y", true}, {"x", false}},
		},
		{
			name:     "only an instance name",
			typ:      "(a : Nat) -> {{b : Nat}} -> Eq Nat a b -> Nat",
			lhs:      "_ {{x}} refl",
			bindings: []binding{{"x", true}},
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sig, metas := setup(t)
			checker := lhs.NewChecker(sig, metas)

			got, err := check(t, checker, parseType(t, sig, metas, c.typ), c.lhs)
			require.NoError(t, err)
			var bindings []binding
			for _, b := range got.clause.AsBindings {
				bindings = append(bindings, binding{b.Name, b.Instance})
			}
			assert.Equal(t, c.bindings, bindings)
		})
	}
}

func TestCheckLHSBlockedOnMeta(t *testing.T) {
	sig, metas := setup(t)
	checker := lhs.NewChecker(sig, metas)
	typ := parseType(t, sig, metas, "_ -> Nat")
	unsolved := metas.Unsolved()
	require.Len(t, unsolved, 1)

	got, err := check(t, checker, typ, "zero")
	require.Error(t, err)
	assert.True(t, ilerr.IsPatternViolation(err))
	assert.Zero(t, got.calls)

	require.NoError(t, metas.Assign(unsolved[0], &ir.Def{Name: "Nat"}))
	got, err = check(t, checker, typ, "zero")
	require.NoError(t, err)
	assert.Equal(t, 1, got.calls)
	assert.Equal(t, "zero", showPatterns(got.clause.Result))
}

func TestCheckLHSRollsBackMetas(t *testing.T) {
	sig, metas := setup(t)
	checker := lhs.NewChecker(sig, metas)
	typ := parseType(t, sig, metas, "Nat -> Nat -> Nat")
	before := metas.New("probe", nil, 0)

	// the hole of the dot pattern is solved before the absurd pattern fails
	_, err := check(t, checker, typ, "._ ()")
	require.Error(t, err)
	assert.Equal(t, ilerr.AbsurdNonEmpty, ilerr.CodeOf(err))

	after := metas.New("probe", nil, 0)
	assert.Equal(t, before+1, after)
	assert.Len(t, metas.Unsolved(), 2)
}

func TestCheckLHSAbsurdLeavesMetasUnsolved(t *testing.T) {
	sig, metas := setup(t)
	checker := lhs.NewChecker(sig, metas)
	typ := parseType(t, sig, metas, "Both _ (suc zero) -> Nat")
	unsolved := metas.Unsolved()
	require.Len(t, unsolved, 1)

	// both fits the hole but not the second index
	got, err := check(t, checker, typ, "()")
	require.NoError(t, err)
	assert.Equal(t, 1, got.calls)
	_, solved := metas.Solution(unsolved[0])
	assert.False(t, solved)
}

func TestCheckLHSContinuationError(t *testing.T) {
	sig, metas := setup(t)
	checker := lhs.NewChecker(sig, metas)
	typ := parseType(t, sig, metas, "Nat -> Nat")
	pats, err := fixture.ParsePatterns("n", sig.IsConstructor)
	require.NoError(t, err)

	calls := 0
	_, err = checker.CheckLHS("f", typ, pats, func(res *lhs.Result) (ir.Term, error) {
		calls++
		hole := metas.New("rhs", nil, 0)
		return nil, ilerr.New(ilerr.NewPatternViolation{Positioner: ast.Range{}, Blocker: hole})
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, ilerr.IsPatternViolation(err))
	assert.Empty(t, metas.Unsolved())
}

func TestCheckLHSPartialSplit(t *testing.T) {
	sig, metas := setup(t)
	checker := lhs.NewChecker(sig, metas)

	got, err := check(t, checker, parseType(t, sig, metas, "Nat -> Fin zero -> Nat"), "(suc n) ()")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got.clause.PartialSplit)
	assert.False(t, got.clause.IndexedSplit)

	got, err = check(t, checker, parseType(t, sig, metas, "Nat -> Fin (suc zero) -> Nat"), "zero (fsuc ())")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, got.clause.PartialSplit)

	got, err = check(t, checker, parseType(t, sig, metas, "(n : Nat) -> Vec Nat n -> Nat"), "n (cons x xs)")
	require.NoError(t, err)
	assert.True(t, got.clause.IndexedSplit)
}

func TestCheckLHSFuel(t *testing.T) {
	sig, metas := setup(t)
	checker := lhs.NewChecker(sig, metas)
	checker.MaxSteps = 1

	_, err := check(t, checker, parseType(t, sig, metas, "Nat -> Nat"), "(suc (suc n))")
	require.Error(t, err)
	assert.Equal(t, ilerr.None, ilerr.CodeOf(err))
	assert.Contains(t, err.Error(), "did not finish")
}

package ir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func conP(name string, args ...Pattern) *ConP {
	pargs := make([]PatArg, len(args))
	for i, a := range args {
		pargs[i] = PatArg{Info: DefaultArgInfo, Pattern: a}
	}
	return &ConP{Con: name, Args: pargs}
}

var samplePatSubsts = map[string]PatSubst{
	"identity": IDPS(),
	"split":    ConsPS(conP("suc", &VarP{Index: 0}), NewPatSubst(nil, 1)),
	"solve":    NewPatSubst([]Pattern{&DotP{Term: suc(NewVar(0))}, &VarP{Index: 0}}, 1),
	"lifted":   LiftPS(1, ConsPS(conP("zero"), IDPS())),
}

func TestComposePS(t *testing.T) {
	for rName, r := range samplePatSubsts {
		for sName, s := range samplePatSubsts {
			for tName, term := range sampleTerms {
				t.Run(fmt.Sprintf("%s after %s on %s", rName, sName, tName), func(t *testing.T) {
					expected := ApplySubst(r.Terms(), ApplySubst(s.Terms(), term))
					assertTermEqual(t, expected, ApplySubst(ComposePS(r, s).Terms(), term))
				})
			}
		}
	}
}

func TestLiftPS(t *testing.T) {
	s := ConsPS(conP("suc", &VarP{Index: 0}), NewPatSubst(nil, 1))
	for name, term := range sampleTerms {
		t.Run(name, func(t *testing.T) {
			assertTermEqual(t, ApplySubst(LiftS(2, s.Terms()), term), ApplySubst(LiftPS(2, s).Terms(), term))
		})
	}
}

func TestApplyPatSubst(t *testing.T) {
	s := NewPatSubst([]Pattern{conP("suc", &VarP{Index: 0}), &DotP{Term: NewVar(0)}}, 1)
	p := conP("pair", &VarP{Index: 1}, &VarP{Index: 0})
	applied := ApplyPatSubst(s, p)
	assert.Equal(t, "(pair .n (suc n))", ShowPattern([]string{"n"}, applied))
	assertTermEqual(t, &Con{Name: "pair", Args: []Term{NewVar(0), suc(NewVar(0))}}, PatternToTerm(applied))
	assert.Equal(t, []int{0}, PatVars(applied))
}

func TestShowPatArg(t *testing.T) {
	ctx := []string{"m", "x"}
	cases := map[string]PatArg{
		"x":             {Info: DefaultArgInfo, Pattern: &VarP{Index: 0}},
		"{.(suc m)}":    {Info: ArgInfo{Hiding: Hidden}, Pattern: &DotP{Term: suc(NewVar(1))}},
		"{{m}}":         {Info: ArgInfo{Hiding: Instance}, Pattern: &VarP{Index: 1}},
		"(cons {.m} x)": {Info: DefaultArgInfo, Pattern: &ConP{Con: "cons", Args: []PatArg{{Info: ArgInfo{Hiding: Hidden}, Pattern: &DotP{Term: NewVar(1)}}, {Info: DefaultArgInfo, Pattern: &VarP{Index: 0}}}}},
		`"a"`:           {Info: DefaultArgInfo, Pattern: &LitP{Value: `"a"`}},
		"zero":          {Info: DefaultArgInfo, Pattern: conP("zero")},
		"y":             {Info: DefaultArgInfo, Pattern: &VarP{Name: "y", Index: 0}},
	}
	for expected, arg := range cases {
		t.Run(expected, func(t *testing.T) {
			assert.Equal(t, expected, ShowPatArgIn(ctx, arg))
		})
	}
	labelled := LabelPattern(ctx, conP("pair", &VarP{Index: 1}, &VarP{Index: 0}))
	assert.Equal(t, "(pair m x)", labelled.String())
}

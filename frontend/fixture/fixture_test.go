package fixture

import (
	"testing"

	"github.com/cottand/depmatch/frontend/ilerr"
	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/frontend/meta"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunVectors(t *testing.T) {
	f, err := Load("testdata/vectors.yaml")
	require.NoError(t, err)
	outcomes, err := f.Run()
	require.NoError(t, err)
	require.Len(t, outcomes, len(f.Clauses))
	for _, o := range outcomes {
		t.Run(o.Clause.String(), func(t *testing.T) {
			assert.True(t, o.OK(), o.Unexpected)
		})
	}
}

func TestClauseErrors(t *testing.T) {
	f, err := Load("testdata/vectors.yaml")
	require.NoError(t, err)
	outcomes, err := f.Run()
	require.NoError(t, err)

	errs := ClauseErrors(outcomes)
	require.True(t, errs.HasError())
	var codes []ilerr.ErrCode
	for _, e := range errs.Errors() {
		codes = append(codes, e.Code())
	}
	assert.Equal(t, []ilerr.ErrCode{ilerr.UnifyConflict, ilerr.UnboundVariable}, codes)

	assert.False(t, ClauseErrors(outcomes[:1]).HasError())
}

func TestRunReportsUnexpectedOutcomes(t *testing.T) {
	f, err := Parse([]byte(`
data:
  - name: Nat
    constructors:
      - name: zero
      - name: suc
        args: "(n : Nat)"
clauses:
  - fn: f
    type: "Nat -> Nat"
    lhs: "zero"
    expect:
      error: UnifyConflict
  - fn: g
    type: "Nat -> Nat"
    lhs: "(suc n)"
    expect:
      patterns: "(suc m)"
  - fn: h
    type: "Nat -> Nat"
    lhs: "x y"
`))
	require.NoError(t, err)
	outcomes, err := f.Run()
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.Contains(t, outcomes[0].Unexpected, "expected error UnifyConflict")
	assert.Contains(t, outcomes[1].Unexpected, `expected patterns "(suc m)", got "(suc n)"`)
	assert.Contains(t, outcomes[2].Unexpected, "unexpected error")
	assert.Equal(t, "h x y", outcomes[2].Clause.String())
}

func TestSignatureErrors(t *testing.T) {
	cases := map[string]string{
		"unknown name in a constructor": `
data:
  - name: T
    constructors:
      - name: c
        args: "(x : U)"
`,
		"forced argument that does not exist": `
data:
  - name: T
    constructors:
      - name: c
        forced: [x]
`,
		"duplicate definition": `
data:
  - name: T
definitions:
  - name: T
    type: "Set"
    body: "Set"
`,
		"record with indices": `
data:
  - name: Nat
  - name: R
    record: true
    indices: "(n : Nat)"
`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			f, err := Parse([]byte(src))
			require.NoError(t, err)
			_, err = f.Signature(meta.NewStore())
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/does-not-exist.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "could not read fixture")
}

func TestSignatureElaboratesDeclarations(t *testing.T) {
	f, err := Load("testdata/vectors.yaml")
	require.NoError(t, err)
	sig, err := f.Signature(meta.NewStore())
	require.NoError(t, err)

	vec, ok := sig.Datatype("Vec")
	require.True(t, ok)
	assert.Equal(t, "(A : Set)", vec.Params.String())
	assert.Equal(t, "(n : Nat)", vec.Indices.String())
	assert.Equal(t, []string{"nil", "cons"}, vec.Constructors)

	cons, ok := sig.Constructor("cons")
	require.True(t, ok)
	assert.Equal(t, "{m : Nat} (x : @1) (xs : Vec @2 m)", cons.Args.String())
	assert.Equal(t, "suc @2", ir.Show(nil, cons.Indices[0]))
	assert.True(t, cons.IsForced(0))
	assert.False(t, cons.IsForced(1))

	one, ok := sig.Definition("one")
	require.True(t, ok)
	assert.Equal(t, "suc zero", ir.Show(nil, one.Body))
}

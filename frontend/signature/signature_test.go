package signature

import (
	"errors"
	"testing"

	"github.com/cottand/depmatch/frontend/ilerr"
	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/frontend/meta"
	"github.com/cottand/depmatch/frontend/telescope"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nat() ir.Term { return &ir.Def{Name: "Nat"} }

func suc(t ir.Term) ir.Term { return &ir.Con{Name: "suc", Args: []ir.Term{t}} }

func zero() ir.Term { return &ir.Con{Name: "zero"} }

// Nat, Vec (A : Set) : Nat → Set, Pair as a record and one = suc zero
func testSignature(t *testing.T) *Signature {
	t.Helper()
	sig := New()
	require.NoError(t, sig.AddDatatype(&Datatype{Name: "Nat"}))
	require.NoError(t, sig.AddConstructor(&Constructor{Name: "zero", Data: "Nat"}))
	require.NoError(t, sig.AddConstructor(&Constructor{
		Name: "suc",
		Data: "Nat",
		Args: telescope.FromList([]ir.Dom{{Name: "n", Type: nat()}}),
	}))

	require.NoError(t, sig.AddDatatype(&Datatype{
		Name:    "Vec",
		Params:  telescope.FromList([]ir.Dom{{Name: "A", Type: &ir.Sort{}}}),
		Indices: telescope.FromList([]ir.Dom{{Name: "n", Type: nat()}}),
	}))
	require.NoError(t, sig.AddConstructor(&Constructor{Name: "nil", Data: "Vec", Indices: []ir.Term{zero()}}))
	require.NoError(t, sig.AddConstructor(&Constructor{
		Name: "cons",
		Data: "Vec",
		// {m : Nat} (x : A) (xs : Vec A m)
		Args: telescope.FromList([]ir.Dom{
			{Name: "m", Info: ir.ArgInfo{Hiding: ir.Hidden}, Type: nat()},
			{Name: "x", Type: ir.NewVar(1)},
			{Name: "xs", Type: &ir.Def{Name: "Vec", Args: []ir.Term{ir.NewVar(2), ir.NewVar(1)}}},
		}),
		Indices: []ir.Term{suc(ir.NewVar(2))},
		Forced:  []bool{true, false, false},
	}))

	require.NoError(t, sig.AddDatatype(&Datatype{
		Name:   "Pair",
		Params: telescope.FromList([]ir.Dom{{Name: "A", Type: &ir.Sort{}}, {Name: "B", Type: &ir.Sort{}}}),
		Record: true,
	}))
	require.NoError(t, sig.AddConstructor(&Constructor{
		Name: "pair",
		Data: "Pair",
		Args: telescope.FromList([]ir.Dom{{Name: "fst", Type: ir.NewVar(1)}, {Name: "snd", Type: ir.NewVar(1)}}),
	}))

	require.NoError(t, sig.AddDefinition(&Definition{Name: "one", Type: nat(), Body: suc(zero())}))
	require.NoError(t, sig.AddDefinition(&Definition{
		Name: "twice",
		Type: &ir.Pi{Dom: ir.Dom{Name: "n", Type: nat()}, Cod: nat()},
		Body: &ir.Lam{Name: "n", Body: suc(suc(ir.NewVar(0)))},
	}))
	return sig
}

func TestSignatureLookups(t *testing.T) {
	sig := testSignature(t)
	vec, ok := sig.Datatype("Vec")
	require.True(t, ok)
	assert.Equal(t, []string{"nil", "cons"}, vec.Constructors)
	assert.True(t, sig.IsConstructor("cons"))
	assert.False(t, sig.IsConstructor("Vec"))
	assert.True(t, sig.IsRecordConstructor("pair"))
	assert.False(t, sig.IsRecordConstructor("cons"))
	_, ok = sig.Definition("one")
	assert.True(t, ok)

	require.NoError(t, sig.AddDatatype(&Datatype{Name: "String"}))
	require.NoError(t, sig.AddLiteralType("String"))
	assert.True(t, sig.IsLiteralType("String"))
	assert.False(t, sig.IsLiteralType("Nat"))
}

func TestSignatureRejects(t *testing.T) {
	sig := testSignature(t)
	indexedRecord := &Datatype{
		Name:    "R",
		Record:  true,
		Indices: telescope.FromList([]ir.Dom{{Name: "n", Type: nat()}}),
	}
	testCases := map[string]error{
		"duplicate datatype":        sig.AddDatatype(&Datatype{Name: "Nat"}),
		"duplicate constructor":     sig.AddConstructor(&Constructor{Name: "zero", Data: "Nat"}),
		"constructor of unknown":    sig.AddConstructor(&Constructor{Name: "c", Data: "Missing"}),
		"wrong number of indices":   sig.AddConstructor(&Constructor{Name: "c", Data: "Vec"}),
		"second record constructor": sig.AddConstructor(&Constructor{Name: "pair2", Data: "Pair"}),
		"indexed record":            sig.AddDatatype(indexedRecord),
		"duplicate definition":      sig.AddDefinition(&Definition{Name: "suc", Type: nat(), Body: zero()}),
		"literals of non datatype":  sig.AddLiteralType("Float"),
	}
	for name, err := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, err)
		})
	}
}

func TestConstructorInstantiation(t *testing.T) {
	sig := testSignature(t)
	cons, _ := sig.Constructor("cons")

	// at A := Nat, in the empty context
	args := cons.ConstructorArgs([]ir.Term{nat()})
	assert.Equal(t, "{m : Nat} (x : Nat) (xs : Vec Nat m)", args.String())

	// in a context of the three arguments
	indices := cons.ConstructorIndices([]ir.Term{nat()})
	require.Len(t, indices, 1)
	assert.Equal(t, "suc m", ir.Show([]string{"m", "x", "xs"}, indices[0]))

	types := cons.ArgTypes([]ir.Term{nat()}, []ir.Term{zero(), suc(zero())})
	require.Len(t, types, 2)
	assert.Equal(t, "Nat", types[0].String())
	assert.Equal(t, "Nat", types[1].String())

	types = cons.ArgTypes([]ir.Term{nat()}, []ir.Term{zero(), suc(zero()), &ir.Con{Name: "nil"}})
	assert.Equal(t, "Vec Nat zero", types[2].String())

	vec, _ := sig.Datatype("Vec")
	assert.Equal(t, "Nat", vec.IndexTypes([]ir.Term{nat()}, []ir.Term{zero()})[0].String())
}

func TestWHNF(t *testing.T) {
	sig := testSignature(t)
	metas := meta.NewStore()
	n := NewNormalizer(sig, metas)

	whnf, err := n.WHNF(&ir.Def{Name: "twice", Args: []ir.Term{&ir.Def{Name: "one"}}})
	require.NoError(t, err)
	assert.Equal(t, "suc (suc one)", whnf.String())

	norm, err := n.Normalize(&ir.Def{Name: "twice", Args: []ir.Term{&ir.Def{Name: "one"}}})
	require.NoError(t, err)
	assert.Equal(t, "suc (suc (suc zero))", norm.String())

	stuck, err := n.WHNF(&ir.Def{Name: "Vec", Args: []ir.Term{nat(), zero()}})
	require.NoError(t, err)
	assert.Equal(t, "Vec Nat zero", stuck.String())

	m := metas.New("m", nat(), 0)
	_, err = n.WHNF(&ir.Meta{ID: m})
	require.Error(t, err)
	var pv ilerr.NewPatternViolation
	require.True(t, errors.As(err, &pv))
	assert.Equal(t, m, pv.Blocker)

	require.NoError(t, metas.Assign(m, &ir.Def{Name: "one"}))
	whnf, err = n.WHNF(&ir.Meta{ID: m})
	require.NoError(t, err)
	assert.Equal(t, "suc zero", whnf.String())
}

func TestConversion(t *testing.T) {
	sig := testSignature(t)
	f := &ir.Def{Name: "f"}
	testCases := []struct {
		name  string
		a, b  ir.Term
		equal bool
	}{
		{"delta", &ir.Def{Name: "one"}, suc(zero()), true},
		{"beta", &ir.Def{Name: "twice", Args: []ir.Term{zero()}}, suc(suc(zero())), true},
		{"eta", &ir.Lam{Name: "x", Body: &ir.Def{Name: "f", Args: []ir.Term{ir.NewVar(0)}}}, f, true},
		{"eta on the right", f, &ir.Lam{Name: "x", Body: &ir.Def{Name: "f", Args: []ir.Term{ir.NewVar(0)}}}, true},
		{"different constructors", zero(), suc(zero()), false},
		{"different variables", ir.NewVar(0), ir.NewVar(1), false},
		{"pi", &ir.Pi{Dom: ir.Dom{Name: "x", Type: nat()}, Cod: nat()}, &ir.Pi{Dom: ir.Dom{Name: "y", Type: &ir.Def{Name: "one"}}, Cod: nat()}, false},
		{"literals", &ir.Lit{Value: `"a"`}, &ir.Lit{Value: `"a"`}, true},
		{"sorts", &ir.Sort{Level: 0}, &ir.Sort{Level: 1}, false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			c := NewConversion(NewNormalizer(sig, meta.NewStore()))
			err := c.Equal(nil, testCase.a, testCase.b)
			if testCase.equal {
				assert.NoError(t, err)
				return
			}
			var mismatch NotConvertible
			assert.True(t, errors.As(err, &mismatch), "expected NotConvertible, got %v", err)
		})
	}
}

func TestConversionSolvesMetas(t *testing.T) {
	sig := testSignature(t)
	metas := meta.NewStore()
	c := NewConversion(NewNormalizer(sig, metas))

	m := metas.New("m", nat(), 1)
	require.NoError(t, c.Equal(nil, &ir.Meta{ID: m, Args: []ir.Term{ir.NewVar(3)}}, suc(ir.NewVar(3))))
	sol, ok := metas.Solution(m)
	require.True(t, ok)
	assert.Equal(t, "λ x0 → suc x0", sol.String())

	// not a pattern: the argument is not a variable
	k := metas.New("k", nat(), 1)
	err := c.Equal(nil, suc(&ir.Meta{ID: k, Args: []ir.Term{zero()}}), suc(zero()))
	assert.True(t, ilerr.IsPatternViolation(err))
}

func TestIsEtaVar(t *testing.T) {
	i, ok := IsEtaVar(ir.NewVar(2), nil)
	assert.True(t, ok)
	assert.Equal(t, 2, i)

	// λ x → f x with f at index 3 outside the lambda
	i, ok = IsEtaVar(&ir.Lam{Name: "x", Body: &ir.Var{Index: 4, Args: []ir.Term{ir.NewVar(0)}}}, nil)
	assert.True(t, ok)
	assert.Equal(t, 3, i)

	_, ok = IsEtaVar(&ir.Lam{Name: "x", Body: &ir.Var{Index: 0, Args: []ir.Term{ir.NewVar(0)}}}, nil)
	assert.False(t, ok)
	_, ok = IsEtaVar(zero(), nil)
	assert.False(t, ok)
}

package ir

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samplePerms = []Permutation{
	IdentityP(0),
	IdentityP(3),
	{Size: 3, Picks: []int{2, 0, 1}},
	{Size: 4, Picks: []int{1, 3, 0, 2}},
}

func TestPermutationInverse(t *testing.T) {
	for _, p := range samplePerms {
		t.Run(p.String(), func(t *testing.T) {
			require.True(t, p.IsBijection())
			xs := make([]int, p.Size)
			for i := range xs {
				xs[i] = 10 * i
			}
			assert.Equal(t, xs, Permute(p.Inverse(), Permute(p, xs)))
			assert.True(t, ComposeP(p.Inverse(), p).IsIdentity())
			assert.True(t, ComposeP(p, p.Inverse()).IsIdentity())
		})
	}
}

func TestComposeP(t *testing.T) {
	p := Permutation{Size: 3, Picks: []int{2, 0, 1}}
	q := Permutation{Size: 3, Picks: []int{1, 0, 2}}
	xs := []string{"a", "b", "c"}
	assert.Equal(t, Permute(p, Permute(q, xs)), Permute(ComposeP(p, q), xs))
}

func TestPermutationShape(t *testing.T) {
	assert.False(t, Permutation{Size: 2, Picks: []int{0, 0}}.IsBijection())
	assert.False(t, Permutation{Size: 2, Picks: []int{0}}.IsBijection())
	assert.False(t, Permutation{Size: 2, Picks: []int{0, 2}}.IsBijection())
	assert.False(t, Permutation{Size: 2, Picks: []int{1, 0}}.IsIdentity())
	assert.True(t, IdentityP(2).Equal(Permutation{Size: 2, Picks: []int{0, 1}}))
	assert.Panics(t, func() { Permutation{Size: 2, Picks: []int{0, 0}}.Inverse() })
	assert.Panics(t, func() { Permute(IdentityP(2), []int{1}) })
}

// RenameS moves a variable to where its binding ends up in the permuted context
func TestRenameS(t *testing.T) {
	for _, p := range samplePerms {
		names := make([]string, p.Size)
		for i := range names {
			names[i] = fmt.Sprintf("x%d", i)
		}
		permuted := Permute(p, names)
		rename := p.RenameS()
		for i := 0; i < p.Size; i++ {
			t.Run(fmt.Sprintf("%v var %d", p, i), func(t *testing.T) {
				assert.Equal(t, Show(names, NewVar(i)), Show(permuted, ApplySubst(rename, NewVar(i))))
			})
		}
	}
}

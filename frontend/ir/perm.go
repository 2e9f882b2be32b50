package ir

import (
	"fmt"
	"slices"
)

// Permutation reorders a list of Size elements: the element at position i of the
// result is the element at position Picks[i] of the input.
//
// For telescopes, positions are de Bruijn levels.
type Permutation struct {
	Size  int
	Picks []int
}

func IdentityP(n int) Permutation {
	picks := make([]int, n)
	for i := range picks {
		picks[i] = i
	}
	return Permutation{Size: n, Picks: picks}
}

// Permute applies p to xs. It panics if xs is not of size p.Size
func Permute[A any](p Permutation, xs []A) []A {
	if len(xs) != p.Size {
		panic(fmt.Sprintf("impossible: permutation of size %d applied to %d elements", p.Size, len(xs)))
	}
	ret := make([]A, len(p.Picks))
	for i, pick := range p.Picks {
		ret[i] = xs[pick]
	}
	return ret
}

func (p Permutation) IsIdentity() bool {
	if len(p.Picks) != p.Size {
		return false
	}
	for i, pick := range p.Picks {
		if pick != i {
			return false
		}
	}
	return true
}

// IsBijection reports whether every position is picked exactly once
func (p Permutation) IsBijection() bool {
	if len(p.Picks) != p.Size {
		return false
	}
	seen := make([]bool, p.Size)
	for _, pick := range p.Picks {
		if pick < 0 || pick >= p.Size || seen[pick] {
			return false
		}
		seen[pick] = true
	}
	return true
}

// Inverse of a bijective permutation: Permute(p.Inverse(), Permute(p, xs)) == xs
func (p Permutation) Inverse() Permutation {
	if !p.IsBijection() {
		panic(fmt.Sprintf("impossible: cannot invert %v", p))
	}
	picks := make([]int, p.Size)
	for i, pick := range p.Picks {
		picks[pick] = i
	}
	return Permutation{Size: p.Size, Picks: picks}
}

// ComposeP returns the permutation that applies q and then p
func ComposeP(p, q Permutation) Permutation {
	if p.Size != len(q.Picks) {
		panic(fmt.Sprintf("impossible: cannot compose %v after %v", p, q))
	}
	picks := make([]int, len(p.Picks))
	for i, pick := range p.Picks {
		picks[i] = q.Picks[pick]
	}
	return Permutation{Size: q.Size, Picks: picks}
}

// RenameS is the renaming that moves a term from the original context order to
// the order p describes. The context has p.Size variables and p must be a bijection.
func (p Permutation) RenameS() Subst {
	inverse := p.Inverse()
	n := p.Size
	terms := make([]Term, n)
	for oldLevel, newLevel := range inverse.Picks {
		terms[n-1-oldLevel] = NewVar(n - 1 - newLevel)
	}
	return Subst{terms: terms, shift: n}
}

func (p Permutation) Equal(other Permutation) bool {
	return p.Size == other.Size && slices.Equal(p.Picks, other.Picks)
}

func (p Permutation) String() string {
	return fmt.Sprintf("perm %d %v", p.Size, p.Picks)
}

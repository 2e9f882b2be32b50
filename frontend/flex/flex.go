// Package flex ranks flexible variables: when unification meets an equation between
// two variables that could both be solved, ChooseFlex decides which one is
// instantiated with the other, or that both must be eta-expanded.
package flex

import (
	"fmt"
	"strings"

	"github.com/cottand/depmatch/frontend/ir"
)

// Choice is the answer of ChooseFlex. Choices form a monoid under Combine with
// Either as identity and ExpandBoth absorbing.
type Choice uint8

const (
	// Either side may be solved, defer to the next criterion
	Either Choice = iota
	// Left means the left variable is solved first
	Left
	Right
	// ExpandBoth means neither variable can be solved for the other, both are eta-expanded
	ExpandBoth
)

func (c Choice) String() string {
	switch c {
	case Either:
		return "either"
	case Left:
		return "left"
	case Right:
		return "right"
	case ExpandBoth:
		return "expand-both"
	default:
		return fmt.Sprintf("choice(%d)", uint8(c))
	}
}

// Combine is the semigroup operation of Choice
func Combine(x, y Choice) Choice {
	switch {
	case x == ExpandBoth || y == ExpandBoth:
		return ExpandBoth
	case x == Either:
		return y
	case y == Either:
		return x
	case x == y:
		return x
	default:
		return ExpandBoth
	}
}

// Concat folds Combine over cs
func Concat(cs ...Choice) Choice {
	ret := Either
	for _, c := range cs {
		ret = Combine(ret, c)
	}
	return ret
}

// FirstChoice is the first choice that is not Either, scanning left to right
func FirstChoice(cs ...Choice) Choice {
	for _, c := range cs {
		if c != Either {
			return c
		}
	}
	return Either
}

type KindTag uint8

const (
	// DotFlex variables were written as dot patterns: the user already committed to their value
	DotFlex KindTag = iota
	// ImplicitFlex variables come from variable patterns, wildcards and inserted implicit arguments
	ImplicitFlex
	// OtherFlex variables come from non-record constructor and literal patterns
	OtherFlex
	// RecordFlex variables come from record patterns and carry the kinds of the fields
	RecordFlex
)

// Kind is the syntactic provenance of a flexible variable
type Kind struct {
	Tag    KindTag
	Fields []Kind
}

var (
	Dot      = Kind{Tag: DotFlex}
	Implicit = Kind{Tag: ImplicitFlex}
	Other    = Kind{Tag: OtherFlex}
)

func Record(fields ...Kind) Kind {
	return Kind{Tag: RecordFlex, Fields: fields}
}

func (k Kind) String() string {
	switch k.Tag {
	case DotFlex:
		return "dot"
	case ImplicitFlex:
		return "implicit"
	case OtherFlex:
		return "other"
	case RecordFlex:
		strs := make([]string, len(k.Fields))
		for i, f := range k.Fields {
			strs[i] = f.String()
		}
		return "record[" + strings.Join(strs, ", ") + "]"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k.Tag))
	}
}

// ChooseKind prefers dot variables, then implicit ones, then the rest.
// A record is compared fieldwise, against the fields of another record or against
// the other kind repeated once per field.
func ChooseKind(x, y Kind) Choice {
	switch {
	case x.Tag == DotFlex && y.Tag == DotFlex:
		return Either
	case x.Tag == DotFlex:
		return Left
	case y.Tag == DotFlex:
		return Right
	case x.Tag == RecordFlex && y.Tag == RecordFlex:
		return chooseKinds(x.Fields, y.Fields)
	case x.Tag == RecordFlex:
		return chooseKinds(x.Fields, repeat(y, len(x.Fields)))
	case y.Tag == RecordFlex:
		return chooseKinds(repeat(x, len(y.Fields)), y.Fields)
	case x.Tag == ImplicitFlex && y.Tag == ImplicitFlex:
		return Either
	case x.Tag == ImplicitFlex:
		return Left
	case y.Tag == ImplicitFlex:
		return Right
	default:
		return Either
	}
}

// chooseKinds compares pairwise up to the shorter list and combines the results
func chooseKinds(xs, ys []Kind) Choice {
	ret := Either
	for i := 0; i < min(len(xs), len(ys)); i++ {
		ret = Combine(ret, ChooseKind(xs[i], ys[i]))
	}
	return ret
}

func repeat(k Kind, n int) []Kind {
	ret := make([]Kind, n)
	for i := range ret {
		ret[i] = k
	}
	return ret
}

// ChooseForced prefers forced variables: their value is determined by an index anyway
func ChooseForced(x, y bool) Choice {
	switch {
	case x == y:
		return Either
	case x:
		return Left
	default:
		return Right
	}
}

func ChooseHiding(x, y ir.Hiding) Choice {
	switch {
	case x == ir.Hidden && y == ir.Hidden:
		return Either
	case x == ir.Hidden:
		return Left
	case y == ir.Hidden:
		return Right
	case x == ir.Instance && y == ir.Instance:
		return Either
	case x == ir.Instance:
		return Left
	case y == ir.Instance:
		return Right
	default:
		return Either
	}
}

func ChooseOrigin(x, y ir.Origin) Choice {
	switch {
	case x == ir.Inserted && y == ir.Inserted:
		return Either
	case x == ir.Inserted:
		return Left
	case y == ir.Inserted:
		return Right
	case x == ir.Reflected && y == ir.Reflected:
		return Either
	case x == ir.Reflected:
		return Left
	case y == ir.Reflected:
		return Right
	default:
		return Either
	}
}

// ChooseArgInfo looks at the origin first and then at the hiding
func ChooseArgInfo(x, y ir.ArgInfo) Choice {
	return FirstChoice(ChooseOrigin(x.Origin, y.Origin), ChooseHiding(x.Hiding, y.Hiding))
}

// ChooseInt prefers the smaller number
func ChooseInt(x, y int) Choice {
	switch {
	case x < y:
		return Left
	case x > y:
		return Right
	default:
		return Either
	}
}

// ChoosePos prefers a variable without position hint, then the smaller hint
func ChoosePos(x, y *int) Choice {
	switch {
	case x == nil && y == nil:
		return Either
	case x == nil:
		return Left
	case y == nil:
		return Right
	default:
		return ChooseInt(*x, *y)
	}
}

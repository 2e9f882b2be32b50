package ilerr

import (
	"fmt"
	"testing"

	"github.com/cottand/depmatch/frontend/ast"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrCodeNames(t *testing.T) {
	for code := None; code <= AnnotationMismatch; code++ {
		t.Run(code.String(), func(t *testing.T) {
			parsed, ok := ParseErrCode(code.String())
			require.True(t, ok)
			assert.Equal(t, code, parsed)
		})
	}
	_, ok := ParseErrCode("NoSuchCode")
	assert.False(t, ok)
	assert.Equal(t, "ErrCode(99)", ErrCode(99).String())
}

func TestCodeOfWrappedErrors(t *testing.T) {
	err := New(NewAbsurdNonEmpty{Positioner: ast.Range{}, Type: "Nat"})
	wrapped := errors.Wrap(err, "clause f")

	assert.Equal(t, AbsurdNonEmpty, CodeOf(wrapped))
	assert.Equal(t, None, CodeOf(fmt.Errorf("plain")))
	assert.False(t, IsPatternViolation(wrapped))
	assert.True(t, IsPatternViolation(errors.WithStack(New(NewPatternViolation{Positioner: ast.Range{}, Blocker: 3}))))
}

func TestWithRange(t *testing.T) {
	r := ast.Span(2, 5)
	unpositioned := New(NewUnboundVariable{Positioner: ast.Range{}, Names: []string{"x"}})
	positioned := WithRange(unpositioned, r)
	assert.Equal(t, r.Pos(), positioned.Pos())
	assert.Equal(t, r.End(), positioned.End())
	assert.Equal(t, UnboundVariable, positioned.Code())

	again := WithRange(positioned, ast.Span(0, 1))
	assert.Equal(t, r.Pos(), again.Pos(), "an existing position is kept")

	assert.False(t, WithRange(unpositioned, ast.Range{}).Pos().IsValid())
}

func TestFormatWithCodeAndSource(t *testing.T) {
	src := "n (cons x xs) y"
	err := New(NewAbsurdNonEmpty{Positioner: ast.Span(2, 13), Type: "Vec Nat (suc n)"})

	expected := "(E008) absurd pattern at type Vec Nat (suc n), which is not empty\n" +
		"    n (cons x xs) y\n" +
		"      ^^^^^^^^^^^"
	assert.Equal(t, expected, FormatWithCodeAndSource(err, src))

	noPos := New(NewAbsurdNonEmpty{Positioner: ast.Range{}, Type: "Nat"})
	assert.Equal(t, FormatWithCode(noPos), FormatWithCodeAndSource(noPos, src))
}

func TestFormatWithCodeAndSourceMultiline(t *testing.T) {
	src := "zero\n(suc n) m"
	err := New(NewTooManyArgs{Positioner: ast.Span(13, 14), Head: "f", Patterns: []string{"m"}})
	assert.Equal(t, "(E011) too many arguments to f: m\n    (suc n) m\n            ^", FormatWithCodeAndSource(err, src))
}

func TestErrorsAccumulate(t *testing.T) {
	var errs *Errors
	assert.False(t, errs.HasError())
	errs = errs.With(New(NewUnboundVariable{Positioner: ast.Range{}, Names: []string{"x"}}))
	errs = errs.Merge(nil).Merge((&Errors{}).With(New(NewTooManyArgs{Positioner: ast.Range{}, Head: "f"})))
	require.True(t, errs.HasError())
	assert.Len(t, errs.Errors(), 2)
}

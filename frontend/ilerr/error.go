// Package ilerr holds the typed errors of pattern checking. Every error carries a
// code, the source range of the pattern at fault and, when created through New,
// the stack it was raised from.
package ilerr

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/cottand/depmatch/frontend/ast"
)

// enableDebugErrorPrinting makes errors include the frame they were raised from when printed
var enableDebugErrorPrinting = false

const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None ErrCode = iota
	SplitOnNonData
	WrongConstructor
	ConstructorMismatch
	UnifyConflict
	UnifyCycle
	UnifyStuck
	PatternViolation
	AbsurdNonEmpty
	DotMismatch
	WrongHiding
	TooManyArgs
	SplitOnNonVariable
	UnsupportedPattern
	LeftoverOther
	UnboundVariable
	NonLinearVariable
	AnnotationMismatch
)

type IleError interface {
	Error() string
	Code() ErrCode
	ast.Positioner

	withStack([]byte) IleError
	withRange(ast.Range) IleError
	getStack() []byte
}

// SetDebugPrinting makes FormatWithCode prefix errors with the frame that raised them
func SetDebugPrinting(enabled bool) {
	enableDebugErrorPrinting = enabled
}

func FormatWithCode(e IleError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			lines := strings.Split(stack, "\n")
			if len(lines) > 6 {
				stack = strings.TrimSpace(lines[6])
			}
		}
		return fmt.Sprintf("%s:(E%03d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%03d) %s", e.Code(), e.Error())
}

// FormatWithCodeAndSource is FormatWithCode followed by the part of src the error
// points at, underlined. Positions of e are offsets into src as built by ast.Span.
func FormatWithCodeAndSource(e IleError, src string) string {
	msg := FormatWithCode(e)
	from, to := int(e.Pos())-1, int(e.End())-1
	if from < 0 || from > len(src) {
		return msg
	}
	to = min(max(to, from+1), len(src))
	lineStart := strings.LastIndexByte(src[:from], '\n') + 1
	lineEnd := strings.IndexByte(src[from:], '\n')
	if lineEnd < 0 {
		lineEnd = len(src)
	} else {
		lineEnd += from
	}
	to = min(to, lineEnd)
	underline := strings.Repeat(" ", from-lineStart) + strings.Repeat("^", max(to-from, 1))
	return fmt.Sprintf("%s\n    %s\n    %s", msg, src[lineStart:lineEnd], underline)
}

func New[E IleError](err E) IleError {
	return err.withStack(debug.Stack())
}

// IsPatternViolation reports whether err is the retryable blocked-on-metavariable signal
func IsPatternViolation(err error) bool {
	var pv NewPatternViolation
	return errors.As(err, &pv)
}

// CodeOf returns the code of the IleError wrapped in err, or None
func CodeOf(err error) ErrCode {
	var ile IleError
	if errors.As(err, &ile) {
		return ile.Code()
	}
	return None
}

// WithRange attaches r to err unless it already has a position.
// Errors must always be created with a Positioner, ast.Range{} when the position is unknown.
func WithRange(err IleError, r ast.Range) IleError {
	if err.Pos().IsValid() || !r.IsValid() {
		return err
	}
	return err.withRange(r)
}

type Unclassified struct {
	From error
	ast.Positioner
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Unwrap() error    { return e.From }
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e Unclassified) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

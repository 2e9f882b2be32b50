package ilerr

import (
	"fmt"
	"strings"

	"github.com/cottand/depmatch/frontend/ast"
	"github.com/cottand/depmatch/frontend/ir"
)

// NewSplitOnNonData is raised when a constructor pattern is matched at a type that does not reduce to a datatype
type NewSplitOnNonData struct {
	ast.Positioner
	Pattern string
	Type    string
	stack   []byte
}

func (e NewSplitOnNonData) Error() string {
	return fmt.Sprintf("cannot split on %s: its type %s is not a datatype", e.Pattern, e.Type)
}
func (e NewSplitOnNonData) Code() ErrCode    { return SplitOnNonData }
func (e NewSplitOnNonData) getStack() []byte { return e.stack }
func (e NewSplitOnNonData) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewSplitOnNonData) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

type NewWrongConstructor struct {
	ast.Positioner
	Con   string
	Data  string
	stack []byte
}

func (e NewWrongConstructor) Error() string {
	return fmt.Sprintf("constructor %s does not construct an element of %s", e.Con, e.Data)
}
func (e NewWrongConstructor) Code() ErrCode    { return WrongConstructor }
func (e NewWrongConstructor) getStack() []byte { return e.stack }
func (e NewWrongConstructor) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewWrongConstructor) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

// NewConstructorMismatch is raised when a constructor pattern meets a value that unification already fixed to another constructor
type NewConstructorMismatch struct {
	ast.Positioner
	Pattern string
	Value   string
	stack   []byte
}

func (e NewConstructorMismatch) Error() string {
	return fmt.Sprintf("the pattern %s cannot match, the value is already known to be %s", e.Pattern, e.Value)
}
func (e NewConstructorMismatch) Code() ErrCode    { return ConstructorMismatch }
func (e NewConstructorMismatch) getStack() []byte { return e.stack }
func (e NewConstructorMismatch) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewConstructorMismatch) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

type NewUnifyConflict struct {
	ast.Positioner
	Pattern string
	Left    string
	Right   string
	stack   []byte
}

func (e NewUnifyConflict) Error() string {
	return fmt.Sprintf("pattern %s does not match the indices of its type: %s and %s have different heads", e.Pattern, e.Left, e.Right)
}
func (e NewUnifyConflict) Code() ErrCode    { return UnifyConflict }
func (e NewUnifyConflict) getStack() []byte { return e.stack }
func (e NewUnifyConflict) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewUnifyConflict) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

type NewUnifyCycle struct {
	ast.Positioner
	Pattern string
	Var     string
	Term    string
	stack   []byte
}

func (e NewUnifyCycle) Error() string {
	return fmt.Sprintf("pattern %s does not match the indices of its type: %s occurs in %s", e.Pattern, e.Var, e.Term)
}
func (e NewUnifyCycle) Code() ErrCode    { return UnifyCycle }
func (e NewUnifyCycle) getStack() []byte { return e.stack }
func (e NewUnifyCycle) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewUnifyCycle) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

type NewUnifyStuck struct {
	ast.Positioner
	Pattern string
	Left    string
	Right   string
	Reason  string
	stack   []byte
}

func (e NewUnifyStuck) Error() string {
	return fmt.Sprintf("cannot decide whether %s and %s are equal when checking %s: %s", e.Left, e.Right, e.Pattern, e.Reason)
}
func (e NewUnifyStuck) Code() ErrCode    { return UnifyStuck }
func (e NewUnifyStuck) getStack() []byte { return e.stack }
func (e NewUnifyStuck) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewUnifyStuck) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

// NewPatternViolation signals that checking cannot go on until Blocker is solved. It is retryable and never shown to users
type NewPatternViolation struct {
	ast.Positioner
	Blocker ir.MetaID
	stack   []byte
}

func (e NewPatternViolation) Error() string {
	return fmt.Sprintf("blocked on metavariable %v", e.Blocker)
}
func (e NewPatternViolation) Code() ErrCode    { return PatternViolation }
func (e NewPatternViolation) getStack() []byte { return e.stack }
func (e NewPatternViolation) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewPatternViolation) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

type NewAbsurdNonEmpty struct {
	ast.Positioner
	Type  string
	stack []byte
}

func (e NewAbsurdNonEmpty) Error() string {
	return fmt.Sprintf("absurd pattern at type %s, which is not empty", e.Type)
}
func (e NewAbsurdNonEmpty) Code() ErrCode    { return AbsurdNonEmpty }
func (e NewAbsurdNonEmpty) getStack() []byte { return e.stack }
func (e NewAbsurdNonEmpty) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewAbsurdNonEmpty) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

type NewDotMismatch struct {
	ast.Positioner
	Expr     string
	Inferred string
	stack    []byte
}

func (e NewDotMismatch) Error() string {
	return fmt.Sprintf("dot pattern .%s does not match the inferred value %s", e.Expr, e.Inferred)
}
func (e NewDotMismatch) Code() ErrCode    { return DotMismatch }
func (e NewDotMismatch) getStack() []byte { return e.stack }
func (e NewDotMismatch) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewDotMismatch) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

type NewWrongHiding struct {
	ast.Positioner
	Pattern  string
	Expected ir.Hiding
	stack    []byte
}

func (e NewWrongHiding) Error() string {
	return fmt.Sprintf("unexpected %v argument %s, expected a %v argument", hidingOf(e.Pattern), e.Pattern, e.Expected)
}
func (e NewWrongHiding) Code() ErrCode    { return WrongHiding }
func (e NewWrongHiding) getStack() []byte { return e.stack }
func (e NewWrongHiding) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewWrongHiding) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

type NewTooManyArgs struct {
	ast.Positioner
	Head     string
	Patterns []string
	stack    []byte
}

func (e NewTooManyArgs) Error() string {
	return fmt.Sprintf("too many arguments to %s: %s", e.Head, strings.Join(e.Patterns, " "))
}
func (e NewTooManyArgs) Code() ErrCode    { return TooManyArgs }
func (e NewTooManyArgs) getStack() []byte { return e.stack }
func (e NewTooManyArgs) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewTooManyArgs) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

type NewSplitOnNonVariable struct {
	ast.Positioner
	Pattern string
	Term    string
	stack   []byte
}

func (e NewSplitOnNonVariable) Error() string {
	return fmt.Sprintf("cannot split on %s, its value is already fixed to %s which is not a constructor", e.Pattern, e.Term)
}
func (e NewSplitOnNonVariable) Code() ErrCode    { return SplitOnNonVariable }
func (e NewSplitOnNonVariable) getStack() []byte { return e.stack }
func (e NewSplitOnNonVariable) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewSplitOnNonVariable) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

type NewUnsupportedPattern struct {
	ast.Positioner
	Pattern string
	What    string
	stack   []byte
}

func (e NewUnsupportedPattern) Error() string {
	return fmt.Sprintf("%s are not supported: %s", e.What, e.Pattern)
}
func (e NewUnsupportedPattern) Code() ErrCode    { return UnsupportedPattern }
func (e NewUnsupportedPattern) getStack() []byte { return e.stack }
func (e NewUnsupportedPattern) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewUnsupportedPattern) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

// NewLeftoverOther is an internal error: the splitter left a pattern it should have split on
type NewLeftoverOther struct {
	ast.Positioner
	Patterns []string
	stack    []byte
}

func (e NewLeftoverOther) Error() string {
	return fmt.Sprintf("impossible: patterns left after splitting: %s", strings.Join(e.Patterns, ", "))
}
func (e NewLeftoverOther) Code() ErrCode    { return LeftoverOther }
func (e NewLeftoverOther) getStack() []byte { return e.stack }
func (e NewLeftoverOther) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewLeftoverOther) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

type NewUnboundVariable struct {
	ast.Positioner
	Names []string
	stack []byte
}

func (e NewUnboundVariable) Error() string {
	return fmt.Sprintf("variables not bound by the left-hand side: %s", strings.Join(e.Names, ", "))
}
func (e NewUnboundVariable) Code() ErrCode    { return UnboundVariable }
func (e NewUnboundVariable) getStack() []byte { return e.stack }
func (e NewUnboundVariable) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewUnboundVariable) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

type NewNonLinearVariable struct {
	ast.Positioner
	Names []string
	stack []byte
}

func (e NewNonLinearVariable) Error() string {
	return fmt.Sprintf("variables bound more than once by the left-hand side: %s", strings.Join(e.Names, ", "))
}
func (e NewNonLinearVariable) Code() ErrCode    { return NonLinearVariable }
func (e NewNonLinearVariable) getStack() []byte { return e.stack }
func (e NewNonLinearVariable) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewNonLinearVariable) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

func hidingOf(pattern string) ir.Hiding {
	switch {
	case strings.HasPrefix(pattern, "{{"):
		return ir.Instance
	case strings.HasPrefix(pattern, "{"):
		return ir.Hidden
	default:
		return ir.Visible
	}
}

// NewAnnotationMismatch is raised when the type annotation of a pattern differs from the type the pattern is checked at
type NewAnnotationMismatch struct {
	ast.Positioner
	Annotation string
	Type       string
	stack      []byte
}

func (e NewAnnotationMismatch) Error() string {
	return fmt.Sprintf("pattern is annotated with %s but has type %s", e.Annotation, e.Type)
}
func (e NewAnnotationMismatch) Code() ErrCode    { return AnnotationMismatch }
func (e NewAnnotationMismatch) getStack() []byte { return e.stack }
func (e NewAnnotationMismatch) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
func (e NewAnnotationMismatch) withRange(r ast.Range) IleError {
	e.Positioner = r
	return e
}

package ilerr

import "fmt"

var codeNames = map[ErrCode]string{
	None:                "None",
	SplitOnNonData:      "SplitOnNonData",
	WrongConstructor:    "WrongConstructor",
	ConstructorMismatch: "ConstructorMismatch",
	UnifyConflict:       "UnifyConflict",
	UnifyCycle:          "UnifyCycle",
	UnifyStuck:          "UnifyStuck",
	PatternViolation:    "PatternViolation",
	AbsurdNonEmpty:      "AbsurdNonEmpty",
	DotMismatch:         "DotMismatch",
	WrongHiding:         "WrongHiding",
	TooManyArgs:         "TooManyArgs",
	SplitOnNonVariable:  "SplitOnNonVariable",
	UnsupportedPattern:  "UnsupportedPattern",
	LeftoverOther:       "LeftoverOther",
	UnboundVariable:     "UnboundVariable",
	NonLinearVariable:   "NonLinearVariable",
	AnnotationMismatch:  "AnnotationMismatch",
}

func (c ErrCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrCode(%d)", int(c))
}

// ParseErrCode is the inverse of ErrCode.String
func ParseErrCode(name string) (ErrCode, bool) {
	for code, n := range codeNames {
		if n == name {
			return code, true
		}
	}
	return None, false
}

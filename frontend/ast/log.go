package ast

import (
	"log/slog"
)

// Slog wraps a Pattern as a slog.LogValuer to not render pattern strings
// unless they definitely need to be logged
func Slog(p Pattern) slog.LogValuer {
	return patternLogValuer{p}
}

type patternLogValuer struct{ Pattern }

func (l patternLogValuer) LogValue() slog.Value {
	return slog.StringValue(PatternString(l.Pattern))
}

// SlogArgs is Slog for a list of argument patterns
func SlogArgs(args []NamedArg) slog.LogValuer {
	return argsLogValuer(args)
}

type argsLogValuer []NamedArg

func (l argsLogValuer) LogValue() slog.Value {
	strs := make([]string, len(l))
	for i, a := range l {
		strs[i] = ArgString(a)
	}
	return slog.AnyValue(strs)
}

package flex

import (
	"github.com/cottand/depmatch/frontend/ast"
)

// KindOf returns the kind of flexible variable pattern p gives rise to. It returns
// false for patterns whose variable must stay rigid, like absurd patterns.
// isRecordCon tells record constructors apart from data constructors.
func KindOf(p ast.Pattern, isRecordCon func(con string) bool) (Kind, bool) {
	switch p := p.(type) {
	case *ast.DotP:
		return Dot, true
	case *ast.VarP, *ast.WildP:
		return Implicit, true
	case *ast.AsP:
		return KindOf(p.Pattern, isRecordCon)
	case *ast.AnnP:
		return KindOf(p.Pattern, isRecordCon)
	case *ast.ConP:
		if !isRecordCon(p.Con) {
			return Other, true
		}
		fields := make([]Kind, 0, len(p.Args))
		for _, arg := range p.Args {
			k, ok := KindOf(arg.Pattern, isRecordCon)
			if !ok {
				return Kind{}, false
			}
			fields = append(fields, k)
		}
		return Record(fields...), true
	case *ast.RecP:
		fields := make([]Kind, 0, len(p.Fields))
		for _, f := range p.Fields {
			k, ok := KindOf(f.Pattern, isRecordCon)
			if !ok {
				return Kind{}, false
			}
			fields = append(fields, k)
		}
		return Record(fields...), true
	case *ast.LitP:
		return Other, true
	default:
		return Kind{}, false
	}
}

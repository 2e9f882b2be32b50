package fixture

import (
	"fmt"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/cottand/depmatch/frontend/ast"
	"github.com/cottand/depmatch/frontend/ir"
)

const (
	tokArrow = -(iota + 100)
)

type token struct {
	kind     rune
	text     string
	from, to int
}

// lex splits src into tokens. It recognises identifiers, integer and string
// literals, `->` and single character punctuation.
func lex(src string) ([]token, error) {
	var s scanner.Scanner
	s.Init(strings.NewReader(src))
	s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanStrings | scanner.ScanComments | scanner.SkipComments
	s.IsIdentRune = func(ch rune, i int) bool {
		return ch == '_' || ch == '\'' && i > 0 || 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || '0' <= ch && ch <= '9' && i > 0
	}
	var lexErr error
	s.Error = func(s *scanner.Scanner, msg string) {
		if lexErr == nil {
			lexErr = fmt.Errorf("%s at offset %d", msg, s.Pos().Offset)
		}
	}
	var toks []token
	for tok := s.Scan(); tok != scanner.EOF; tok = s.Scan() {
		from := s.Position.Offset
		text := s.TokenText()
		if tok == '-' && s.Peek() == '>' {
			s.Next()
			tok, text = tokArrow, "->"
		}
		if tok == '→' {
			tok = tokArrow
		}
		toks = append(toks, token{kind: tok, text: text, from: from, to: from + len(text)})
	}
	if lexErr != nil {
		return nil, lexErr
	}
	return toks, nil
}

// parser is a recursive descent parser over the token list of one string.
// isCon tells constructor names apart from pattern variables, which is the one
// bit of scope checking patterns need.
type parser struct {
	toks  []token
	pos   int
	isCon func(string) bool
}

func newParser(src string, isCon func(string) bool) (*parser, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	if isCon == nil {
		isCon = func(string) bool { return false }
	}
	return &parser{toks: toks, isCon: isCon}, nil
}

func (p *parser) peek(k int) token {
	if p.pos+k < len(p.toks) {
		return p.toks[p.pos+k]
	}
	end := 0
	if len(p.toks) > 0 {
		end = p.toks[len(p.toks)-1].to
	}
	return token{kind: scanner.EOF, text: "end of input", from: end, to: end}
}

func (p *parser) cur() token { return p.peek(0) }

func (p *parser) next() token {
	t := p.cur()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return t
}

func (p *parser) at(kind rune) bool { return p.cur().kind == kind }

func (p *parser) expect(kind rune) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, p.errorf(t, "expected %s", tokenString(kind))
	}
	return t, nil
}

func tokenString(kind rune) string {
	if kind == tokArrow {
		return `"->"`
	}
	return scanner.TokenString(kind)
}

func (p *parser) errorf(t token, format string, args ...any) error {
	return fmt.Errorf("%s, found %q at offset %d", fmt.Sprintf(format, args...), t.text, t.from)
}

// adjacent reports whether the current token and the next one are written without space
// between them, which is how `{{` is told apart from two braces
func (p *parser) adjacent() bool {
	return p.cur().to == p.peek(1).from && p.pos+1 < len(p.toks)
}

func (p *parser) done() error {
	if !p.at(scanner.EOF) {
		return p.errorf(p.cur(), "unexpected input")
	}
	return nil
}

func span(from, to token) ast.Range {
	return ast.Span(from.from, to.to)
}

// ParseExpr parses an expression: Pi types with binder groups, non-dependent arrows,
// lambdas, applications with hidden arguments, holes, universes and literals
func ParseExpr(src string) (ast.Expr, error) {
	p, err := newParser(src, nil)
	if err != nil {
		return nil, err
	}
	e, err := p.expr()
	if err != nil {
		return nil, err
	}
	return e, p.done()
}

// ParseBinders parses a sequence of binder groups, as in `(A : Set) {n : Nat}`
func ParseBinders(src string) ([]ast.Binder, error) {
	p, err := newParser(src, nil)
	if err != nil {
		return nil, err
	}
	var ret []ast.Binder
	for !p.at(scanner.EOF) {
		group, err := p.binderGroup()
		if err != nil {
			return nil, err
		}
		ret = append(ret, group...)
	}
	return ret, nil
}

// ParsePatterns parses the argument patterns of a clause
func ParsePatterns(src string, isCon func(string) bool) ([]ast.NamedArg, error) {
	p, err := newParser(src, isCon)
	if err != nil {
		return nil, err
	}
	var ret []ast.NamedArg
	for !p.at(scanner.EOF) {
		arg, err := p.patArg()
		if err != nil {
			return nil, err
		}
		ret = append(ret, arg)
	}
	return ret, nil
}

func (p *parser) expr() (ast.Expr, error) {
	start := p.cur()
	if p.at('\\') {
		return p.lambda()
	}
	if p.atBinderGroup() {
		var binders []ast.Binder
		for p.atBinderGroup() {
			group, err := p.binderGroup()
			if err != nil {
				return nil, err
			}
			binders = append(binders, group...)
		}
		if _, err := p.expect(tokArrow); err != nil {
			return nil, err
		}
		cod, err := p.expr()
		if err != nil {
			return nil, err
		}
		return &ast.PiExpr{Range: ast.Range{PosStart: span(start, start).PosStart, PosEnd: cod.End()}, Binders: binders, Cod: cod}, nil
	}
	dom, err := p.app()
	if err != nil {
		return nil, err
	}
	if !p.at(tokArrow) {
		return dom, nil
	}
	p.next()
	cod, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &ast.PiExpr{
		Range:   ast.RangeBetween(dom, cod),
		Binders: []ast.Binder{{Name: "_", Type: dom}},
		Cod:     cod,
	}, nil
}

// atBinderGroup looks ahead for `(x y : `, `{x : ` or `{{x : `
func (p *parser) atBinderGroup() bool {
	k := 0
	switch {
	case p.at('(') || p.at('{') && !p.adjacentBraces():
		k = 1
	case p.at('{'):
		k = 2
	default:
		return false
	}
	if p.peek(k).kind != scanner.Ident {
		return false
	}
	for p.peek(k).kind == scanner.Ident {
		k++
	}
	return p.peek(k).kind == ':'
}

func (p *parser) adjacentBraces() bool {
	return p.at('{') && p.peek(1).kind == '{' && p.adjacent()
}

func (p *parser) binderGroup() ([]ast.Binder, error) {
	hiding := ir.Visible
	var closing []rune
	switch {
	case p.adjacentBraces():
		p.next()
		p.next()
		hiding, closing = ir.Instance, []rune{'}', '}'}
	case p.at('{'):
		p.next()
		hiding, closing = ir.Hidden, []rune{'}'}
	case p.at('('):
		p.next()
		closing = []rune{')'}
	default:
		return nil, p.errorf(p.cur(), "expected a binder")
	}
	var names []string
	for p.at(scanner.Ident) {
		names = append(names, p.next().text)
	}
	if len(names) == 0 {
		return nil, p.errorf(p.cur(), "expected a name")
	}
	if _, err := p.expect(':'); err != nil {
		return nil, err
	}
	typ, err := p.expr()
	if err != nil {
		return nil, err
	}
	for _, c := range closing {
		if _, err := p.expect(c); err != nil {
			return nil, err
		}
	}
	ret := make([]ast.Binder, len(names))
	for i, name := range names {
		ret[i] = ast.Binder{Name: name, Hiding: hiding, Type: typ}
	}
	return ret, nil
}

func (p *parser) lambda() (ast.Expr, error) {
	start := p.next()
	var binders []ast.Binder
	for p.at(scanner.Ident) {
		binders = append(binders, ast.Binder{Name: p.next().text})
	}
	if len(binders) == 0 {
		return nil, p.errorf(p.cur(), "expected a name")
	}
	if _, err := p.expect(tokArrow); err != nil {
		return nil, err
	}
	body, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &ast.LamExpr{Range: ast.Range{PosStart: span(start, start).PosStart, PosEnd: body.End()}, Binders: binders, Body: body}, nil
}

func (p *parser) app() (ast.Expr, error) {
	fun, err := p.atom()
	if err != nil {
		return nil, err
	}
	var args []ast.ExprArg
	for {
		hiding := ir.Visible
		var closing []rune
		switch {
		case p.adjacentBraces():
			p.next()
			p.next()
			hiding, closing = ir.Instance, []rune{'}', '}'}
		case p.at('{'):
			p.next()
			hiding, closing = ir.Hidden, []rune{'}'}
		case p.atAtom():
		default:
			if len(args) == 0 {
				return fun, nil
			}
			return &ast.App{Range: ast.RangeBetween(fun, args[len(args)-1]), Fun: fun, Args: args}, nil
		}
		var arg ast.Expr
		if closing == nil {
			arg, err = p.atom()
		} else {
			arg, err = p.expr()
		}
		if err != nil {
			return nil, err
		}
		for _, c := range closing {
			if _, err := p.expect(c); err != nil {
				return nil, err
			}
		}
		args = append(args, ast.ExprArg{Hiding: hiding, Expr: arg})
	}
}

func (p *parser) atAtom() bool {
	switch p.cur().kind {
	case scanner.Ident, scanner.Int, scanner.String, '(':
		return true
	default:
		return false
	}
}

func (p *parser) atom() (ast.Expr, error) {
	t := p.next()
	r := span(t, t)
	switch t.kind {
	case scanner.Ident:
		switch {
		case t.text == "_":
			return &ast.Hole{Range: r}, nil
		case t.text == "Set":
			return &ast.Universe{Range: r}, nil
		case strings.HasPrefix(t.text, "Set"):
			if level, err := strconv.Atoi(strings.TrimPrefix(t.text, "Set")); err == nil {
				return &ast.Universe{Range: r, Level: level}, nil
			}
		}
		return &ast.Ident{Range: r, Name: t.text}, nil
	case scanner.Int, scanner.String:
		return &ast.Literal{Range: r, Value: t.text}, nil
	case '(':
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(')'); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, p.errorf(t, "expected an expression")
	}
}

func (p *parser) patArg() (ast.NamedArg, error) {
	switch {
	case p.adjacentBraces():
		p.next()
		p.next()
		pat, err := p.pattern()
		if err != nil {
			return ast.NamedArg{}, err
		}
		for _, c := range []rune{'}', '}'} {
			if _, err := p.expect(c); err != nil {
				return ast.NamedArg{}, err
			}
		}
		return ast.InstanceArg(pat), nil
	case p.at('{'):
		p.next()
		name := ""
		if p.at(scanner.Ident) && p.peek(1).kind == '=' {
			name = p.next().text
			p.next()
		}
		pat, err := p.pattern()
		if err != nil {
			return ast.NamedArg{}, err
		}
		if _, err := p.expect('}'); err != nil {
			return ast.NamedArg{}, err
		}
		arg := ast.HiddenArg(pat)
		arg.Name = name
		return arg, nil
	default:
		pat, err := p.atomPattern()
		if err != nil {
			return ast.NamedArg{}, err
		}
		return ast.Arg(pat), nil
	}
}

// pattern parses a pattern in a position where a constructor may take arguments
// and an annotation may follow
func (p *parser) pattern() (ast.Pattern, error) {
	start := p.cur()
	var pat ast.Pattern
	if start.kind == scanner.Ident && p.isCon(start.text) {
		p.next()
		var args []ast.NamedArg
		for p.atPatArg() {
			arg, err := p.patArg()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		r := span(start, start)
		if len(args) > 0 {
			r = ast.Range{PosStart: r.PosStart, PosEnd: args[len(args)-1].End()}
		}
		pat = &ast.ConP{Range: r, Con: start.text, Args: args}
	} else {
		var err error
		if pat, err = p.atomPattern(); err != nil {
			return nil, err
		}
	}
	if !p.at(':') {
		return pat, nil
	}
	p.next()
	typ, err := p.expr()
	if err != nil {
		return nil, err
	}
	return &ast.AnnP{Range: ast.Range{PosStart: pat.Pos(), PosEnd: typ.End()}, Type: typ, Pattern: pat}, nil
}

func (p *parser) atPatArg() bool {
	switch p.cur().kind {
	case scanner.Ident, scanner.Int, scanner.String, '(', '{', '.':
		return true
	default:
		return false
	}
}

func (p *parser) atomPattern() (ast.Pattern, error) {
	t := p.next()
	r := span(t, t)
	switch t.kind {
	case scanner.Ident:
		switch {
		case t.text == "_":
			return &ast.WildP{Range: r}, nil
		case t.text == "record" && p.at('{'):
			return p.record(t)
		case p.isCon(t.text):
			return &ast.ConP{Range: r, Con: t.text}, nil
		case p.at('@'):
			p.next()
			inner, err := p.atomPattern()
			if err != nil {
				return nil, err
			}
			return &ast.AsP{Range: ast.Range{PosStart: r.PosStart, PosEnd: inner.End()}, Name: t.text, Pattern: inner}, nil
		}
		return &ast.VarP{Range: r, Name: t.text}, nil
	case scanner.Int, scanner.String:
		return &ast.LitP{Range: r, Value: t.text}, nil
	case '.':
		e, err := p.atom()
		if err != nil {
			return nil, err
		}
		return &ast.DotP{Range: ast.Range{PosStart: r.PosStart, PosEnd: e.End()}, Expr: e}, nil
	case '(':
		if p.at(')') {
			end := p.next()
			return &ast.AbsurdP{Range: span(t, end)}, nil
		}
		pat, err := p.pattern()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(')'); err != nil {
			return nil, err
		}
		return pat, nil
	default:
		return nil, p.errorf(t, "expected a pattern")
	}
}

// record parses `record { f = p ; g = q }`
func (p *parser) record(start token) (ast.Pattern, error) {
	p.next()
	var fields []ast.FieldAssign
	for !p.at('}') {
		name, err := p.expect(scanner.Ident)
		if err != nil {
			return nil, err
		}
		if _, err := p.expect('='); err != nil {
			return nil, err
		}
		pat, err := p.pattern()
		if err != nil {
			return nil, err
		}
		fields = append(fields, ast.FieldAssign{Name: name.text, Pattern: pat})
		if !p.at(';') {
			break
		}
		p.next()
	}
	end, err := p.expect('}')
	if err != nil {
		return nil, err
	}
	return &ast.RecP{Range: span(start, end), Fields: fields}, nil
}

// Package fixture loads signatures and clauses from YAML files and checks the
// clauses against their expectations. It stands in for a scope checker: names
// are resolved against the signature, and a name that is not a constructor in a
// pattern is a pattern variable.
package fixture

import (
	"os"
	"slices"
	"strings"

	"github.com/cottand/depmatch/frontend/ast"
	"github.com/cottand/depmatch/frontend/elab"
	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/frontend/meta"
	"github.com/cottand/depmatch/frontend/signature"
	"github.com/cottand/depmatch/frontend/telescope"
	"github.com/cottand/depmatch/internal/log"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var logger = log.DefaultLogger.With("section", "fixture")

type Fixture struct {
	// Params are the names of the parameters of the enclosing module
	Params      []string     `yaml:"params"`
	Data        []DataDecl   `yaml:"data"`
	Definitions []DefDecl    `yaml:"definitions"`
	Clauses     []ClauseDecl `yaml:"clauses"`
}

// DataDecl declares a datatype or, with Record set, a record.
// Params and Indices are binder groups like `(A : Set) {n : Nat}`.
type DataDecl struct {
	Name         string    `yaml:"name"`
	Params       string    `yaml:"params"`
	Indices      string    `yaml:"indices"`
	Record       bool      `yaml:"record"`
	Literal      bool      `yaml:"literal"`
	Constructors []ConDecl `yaml:"constructors"`
}

type ConDecl struct {
	Name string `yaml:"name"`
	// Args are binder groups in the scope of the parameters
	Args string `yaml:"args"`
	// Indices are expressions in the scope of the parameters and Args
	Indices []string `yaml:"indices"`
	// Forced names the arguments determined by the indices
	Forced []string `yaml:"forced"`
}

type DefDecl struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
	Body string `yaml:"body"`
}

type ClauseDecl struct {
	Name string `yaml:"name"`
	Fn   string `yaml:"fn"`
	Type string `yaml:"type"`
	LHS  string `yaml:"lhs"`
	// RHS is elaborated in the scope of the pattern variables, if given
	RHS string `yaml:"rhs"`
	// Rewrite checks the clause as a rewrite rule: every variable of RHS must be bound
	// by the left-hand side, and no variable may be bound twice
	Rewrite bool   `yaml:"rewrite"`
	Expect  Expect `yaml:"expect"`
}

// Expect is what checking a clause should result in. Empty fields are not checked.
type Expect struct {
	// Error is the name of the ilerr code of the expected failure
	Error string `yaml:"error"`
	// Patterns are the internal patterns, as printed by ir.ShowPatArgIn in the final telescope
	Patterns string `yaml:"patterns"`
	// Tel is the pattern variable telescope, as printed by telescope.Telescope.String
	Tel        string   `yaml:"tel"`
	AsBindings []string `yaml:"asBindings"`
}

func (c ClauseDecl) String() string {
	if c.Name != "" {
		return c.Name
	}
	return strings.TrimSpace(c.Fn + " " + c.LHS)
}

func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read fixture %s", path)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "could not load fixture %s", path)
	}
	return f, nil
}

func Parse(data []byte) (*Fixture, error) {
	f := &Fixture{}
	if err := yaml.Unmarshal(data, f); err != nil {
		return nil, errors.Wrap(err, "invalid fixture")
	}
	return f, nil
}

// Signature builds the signature the fixture declares. Holes in declared types
// become metavariables of metas.
func (f *Fixture) Signature(metas *meta.Store) (*signature.Signature, error) {
	sig := signature.New()
	el := elab.New(sig, metas)
	params := make(map[string][]string, len(f.Data))

	for _, d := range f.Data {
		pars, parNames, err := elabTelescope(el, nil, d.Params)
		if err != nil {
			return nil, errors.Wrapf(err, "parameters of %s", d.Name)
		}
		indices, _, err := elabTelescope(el, parNames, d.Indices)
		if err != nil {
			return nil, errors.Wrapf(err, "indices of %s", d.Name)
		}
		err = sig.AddDatatype(&signature.Datatype{Name: d.Name, Params: pars, Indices: indices, Record: d.Record})
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if d.Literal {
			if err := sig.AddLiteralType(d.Name); err != nil {
				return nil, errors.WithStack(err)
			}
		}
		params[d.Name] = parNames
	}

	for _, d := range f.Data {
		for _, c := range d.Constructors {
			con, err := elabConstructor(el, d.Name, params[d.Name], c)
			if err != nil {
				return nil, errors.Wrapf(err, "constructor %s of %s", c.Name, d.Name)
			}
			if err := sig.AddConstructor(con); err != nil {
				return nil, errors.WithStack(err)
			}
		}
	}

	for _, def := range f.Definitions {
		typ, err := elabString(el, nil, def.Type)
		if err != nil {
			return nil, errors.Wrapf(err, "type of %s", def.Name)
		}
		body, err := elabString(el, nil, def.Body)
		if err != nil {
			return nil, errors.Wrapf(err, "body of %s", def.Name)
		}
		if err := sig.AddDefinition(&signature.Definition{Name: def.Name, Type: typ, Body: body}); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	logger.Debug("built signature", "datatypes", len(f.Data), "definitions", len(f.Definitions))
	return sig, nil
}

func elabConstructor(el *elab.Elaborator, data string, parNames []string, c ConDecl) (*signature.Constructor, error) {
	args, names, err := elabTelescope(el, parNames, c.Args)
	if err != nil {
		return nil, err
	}
	indices := make([]ir.Term, len(c.Indices))
	for i, src := range c.Indices {
		if indices[i], err = elabString(el, names, src); err != nil {
			return nil, err
		}
	}
	argNames := args.Names()
	forced := make([]bool, len(argNames))
	for _, name := range c.Forced {
		i := slices.Index(argNames, name)
		if i < 0 {
			return nil, errors.Errorf("forced argument %s is not an argument", name)
		}
		forced[i] = true
	}
	return &signature.Constructor{Name: c.Name, Data: data, Args: args, Indices: indices, Forced: forced}, nil
}

// elabTelescope elaborates binder groups in a scope of names, returning the
// telescope and the scope extended by it
func elabTelescope(el *elab.Elaborator, names []string, src string) (telescope.Telescope, []string, error) {
	binders, err := ParseBinders(src)
	if err != nil {
		return telescope.Telescope{}, nil, errors.WithStack(err)
	}
	tel := telescope.Empty()
	scope := slices.Clone(names)
	for _, b := range binders {
		typ, err := el.Elab(scope, b.Type)
		if err != nil {
			return telescope.Telescope{}, nil, err
		}
		tel = tel.Extend(ir.Dom{Name: b.Name, Info: ir.ArgInfo{Hiding: b.Hiding}, Type: typ})
		scope = append(scope, b.Name)
	}
	return tel, scope, nil
}

func elabString(el *elab.Elaborator, names []string, src string) (ir.Term, error) {
	e, err := ParseExpr(src)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return el.Elab(names, e)
}

// Patterns parses the left-hand side of c, resolving constructor names against sig
func (c ClauseDecl) Patterns(sig *signature.Signature) ([]ast.NamedArg, error) {
	pats, err := ParsePatterns(c.LHS, sig.IsConstructor)
	return pats, errors.WithStack(err)
}

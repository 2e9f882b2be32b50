// Package signature holds the global definitions pattern matching refers to:
// datatypes, records, their constructors and defined constants.
package signature

import (
	"fmt"
	"slices"

	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/frontend/telescope"
)

// Datatype is an inductive family D (Params) : (Indices) → Set
type Datatype struct {
	Name string
	// Params is the telescope of parameters, shared by every constructor
	Params telescope.Telescope
	// Indices lives in the context of Params
	Indices      telescope.Telescope
	Constructors []string
	// Record marks single-constructor datatypes with eta. The constructor's arguments are the fields.
	Record bool
}

// Constructor c : (Args) → D Params Indices
type Constructor struct {
	Name string
	Data string
	// Args lives in the context of the datatype parameters
	Args telescope.Telescope
	// Indices are the indices of the result type, in the context of the parameters and Args
	Indices []ir.Term
	// Forced marks arguments whose value is determined by the indices of the result type
	Forced []bool
}

func (c *Constructor) IsForced(i int) bool {
	return i < len(c.Forced) && c.Forced[i]
}

// Definition is a constant that reduces to its body
type Definition struct {
	Name string
	Type ir.Term
	Body ir.Term
}

// Signature is populated before checking starts and then only read
type Signature struct {
	datatypes    map[string]*Datatype
	constructors map[string]*Constructor
	definitions  map[string]*Definition
	// literalTypes are the datatypes literal patterns may match on
	literalTypes map[string]bool
}

func New() *Signature {
	return &Signature{
		datatypes:    make(map[string]*Datatype),
		constructors: make(map[string]*Constructor),
		definitions:  make(map[string]*Definition),
		literalTypes: make(map[string]bool),
	}
}

func (s *Signature) AddDatatype(d *Datatype) error {
	if s.isDefined(d.Name) {
		return fmt.Errorf("duplicate definition of %s", d.Name)
	}
	if d.Record && len(d.Constructors) > 1 {
		return fmt.Errorf("record %s has %d constructors", d.Name, len(d.Constructors))
	}
	if d.Record && d.Indices.Size() > 0 {
		return fmt.Errorf("record %s cannot have indices", d.Name)
	}
	s.datatypes[d.Name] = d
	return nil
}

// AddConstructor registers c and appends it to the constructors of its datatype
func (s *Signature) AddConstructor(c *Constructor) error {
	if s.isDefined(c.Name) {
		return fmt.Errorf("duplicate definition of %s", c.Name)
	}
	d, ok := s.datatypes[c.Data]
	if !ok {
		return fmt.Errorf("constructor %s of unknown datatype %s", c.Name, c.Data)
	}
	if len(c.Indices) != d.Indices.Size() {
		return fmt.Errorf("constructor %s has %d indices, %s expects %d", c.Name, len(c.Indices), d.Name, d.Indices.Size())
	}
	if !slices.Contains(d.Constructors, c.Name) {
		if d.Record && len(d.Constructors) > 0 {
			return fmt.Errorf("record %s already has constructor %s", d.Name, d.Constructors[0])
		}
		d.Constructors = append(d.Constructors, c.Name)
	}
	s.constructors[c.Name] = c
	return nil
}

func (s *Signature) AddDefinition(d *Definition) error {
	if s.isDefined(d.Name) {
		return fmt.Errorf("duplicate definition of %s", d.Name)
	}
	s.definitions[d.Name] = d
	return nil
}

// AddLiteralType allows literal patterns at the datatype called name
func (s *Signature) AddLiteralType(name string) error {
	if _, ok := s.datatypes[name]; !ok {
		return fmt.Errorf("literal type %s is not a datatype", name)
	}
	s.literalTypes[name] = true
	return nil
}

func (s *Signature) isDefined(name string) bool {
	_, isData := s.datatypes[name]
	_, isCon := s.constructors[name]
	_, isDef := s.definitions[name]
	return isData || isCon || isDef
}

func (s *Signature) Datatype(name string) (*Datatype, bool) {
	d, ok := s.datatypes[name]
	return d, ok
}

func (s *Signature) Constructor(name string) (*Constructor, bool) {
	c, ok := s.constructors[name]
	return c, ok
}

func (s *Signature) Definition(name string) (*Definition, bool) {
	d, ok := s.definitions[name]
	return d, ok
}

func (s *Signature) IsConstructor(name string) bool {
	_, ok := s.constructors[name]
	return ok
}

func (s *Signature) IsLiteralType(name string) bool {
	return s.literalTypes[name]
}

// IsRecordConstructor reports whether c is the constructor of an eta record
func (s *Signature) IsRecordConstructor(c string) bool {
	con, ok := s.constructors[c]
	if !ok {
		return false
	}
	d := s.datatypes[con.Data]
	return d != nil && d.Record
}

// ConstructorArgs instantiates the argument telescope of c at the given parameters.
// pars live in some context Γ, the result lives in Γ too.
func (c *Constructor) ConstructorArgs(pars []ir.Term) telescope.Telescope {
	return telescope.ApplySubst(ir.InstS(pars), c.Args)
}

// ConstructorIndices instantiates the result indices of c at pars, for arguments that
// are the innermost c.Args.Size() variables of a context Γ extending the context of pars
func (c *Constructor) ConstructorIndices(pars []ir.Term) []ir.Term {
	m := c.Args.Size()
	raised := make([]ir.Term, len(pars))
	for i, p := range pars {
		raised[i] = ir.Raise(m, p)
	}
	s := ir.InstS(append(raised, ir.Vars(m)...))
	ret := make([]ir.Term, len(c.Indices))
	for i, idx := range c.Indices {
		ret[i] = ir.ApplySubst(s, idx)
	}
	return ret
}

// ArgTypes returns the types of the arguments of c applied to args, in the context of pars and args
func (c *Constructor) ArgTypes(pars, args []ir.Term) []ir.Term {
	doms := c.Args.ToList()
	ret := make([]ir.Term, 0, len(doms))
	for i := range doms {
		if i >= len(args) {
			break
		}
		inst := append(slices.Clone(pars), args[:i]...)
		ret = append(ret, ir.ApplySubst(ir.InstS(inst), doms[i].Type))
	}
	return ret
}

// IndexTypes returns the types of the indices of d at pars and is, in their context
func (d *Datatype) IndexTypes(pars, is []ir.Term) []ir.Term {
	doms := d.Indices.ToList()
	ret := make([]ir.Term, 0, len(doms))
	for i := range doms {
		if i >= len(is) {
			break
		}
		inst := append(slices.Clone(pars), is[:i]...)
		ret = append(ret, ir.ApplySubst(ir.InstS(inst), doms[i].Type))
	}
	return ret
}

// Package meta holds the metavariables of an elaboration session.
//
// The store is the only mutable state the pattern matching core touches. Assignments are
// monotone: a metavariable is assigned at most once and never unassigned, except by
// restoring a Snapshot taken before the assignment, which is how an aborted attempt to
// check a clause is rolled back before it is retried.
package meta

import (
	"fmt"
	"slices"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/depmatch/frontend/ir"
	"github.com/cottand/depmatch/internal/log"
)

var logger = log.DefaultLogger.With("section", "meta")

// Entry is a metavariable: its type, the size of the context it was created in, and
// its solution once assigned. A solution lives in the empty context and takes the
// context as explicit lambda-bound arguments.
type Entry struct {
	ID       ir.MetaID
	NameHint string
	Type     ir.Term
	Arity    int
	Solution ir.Term
}

func (e Entry) IsAssigned() bool {
	return e.Solution != nil
}

// Store is not safe for concurrent use
type Store struct {
	entries *immutable.Map[ir.MetaID, Entry]
	next    ir.MetaID
}

// Snapshot is the state of a Store at a point in time
type Snapshot struct {
	entries *immutable.Map[ir.MetaID, Entry]
	next    ir.MetaID
}

func NewStore() *Store {
	return &Store{
		entries: immutable.NewMap[ir.MetaID, Entry](metaHasher{}),
	}
}

type metaHasher struct{}

func (metaHasher) Hash(key ir.MetaID) uint32 {
	return uint32(key ^ key>>32)
}

func (metaHasher) Equal(a, b ir.MetaID) bool {
	return a == b
}

// New allocates a fresh, unassigned metavariable of the given type whose solution may
// depend on arity arguments
func (s *Store) New(nameHint string, typ ir.Term, arity int) ir.MetaID {
	id := s.next
	s.next++
	s.entries = s.entries.Set(id, Entry{ID: id, NameHint: nameHint, Type: typ, Arity: arity})
	logger.Debug("new metavariable", "id", id, "hint", nameHint)
	return id
}

func (s *Store) Lookup(id ir.MetaID) (Entry, bool) {
	return s.entries.Get(id)
}

// Solution returns the solution of id, if it is assigned
func (s *Store) Solution(id ir.MetaID) (ir.Term, bool) {
	e, ok := s.entries.Get(id)
	if !ok || !e.IsAssigned() {
		return nil, false
	}
	return e.Solution, true
}

// Assign solves id. The solution must be closed and must abstract over exactly the
// arity of the metavariable.
func (s *Store) Assign(id ir.MetaID, solution ir.Term) error {
	e, ok := s.entries.Get(id)
	if !ok {
		return fmt.Errorf("unknown metavariable %v", id)
	}
	if e.IsAssigned() {
		return fmt.Errorf("metavariable %v is already assigned to %v", id, e.Solution)
	}
	if fv := ir.FreeVars(solution); !fv.Empty() {
		return fmt.Errorf("solution %v for %v is not closed", solution, id)
	}
	if lams := countLams(solution); lams < e.Arity {
		return fmt.Errorf("solution %v for %v abstracts over %d arguments, expected %d", solution, id, lams, e.Arity)
	}
	for _, m := range ir.Metas(solution) {
		if m == id {
			return fmt.Errorf("solution %v for %v mentions itself", solution, id)
		}
	}
	e.Solution = solution
	s.entries = s.entries.Set(id, e)
	logger.Debug("assigned metavariable", "id", id, "solution", solution)
	return nil
}

func countLams(t ir.Term) int {
	n := 0
	for {
		lam, ok := t.(*ir.Lam)
		if !ok {
			return n
		}
		n++
		t = lam.Body
	}
}

// Unsolved returns the ids of every metavariable without a solution
func (s *Store) Unsolved() []ir.MetaID {
	var ret []ir.MetaID
	it := s.entries.Iterator()
	for !it.Done() {
		id, e, _ := it.Next()
		if !e.IsAssigned() {
			ret = append(ret, id)
		}
	}
	return ret
}

func (s *Store) Snapshot() Snapshot {
	return Snapshot{entries: s.entries, next: s.next}
}

// Restore rolls the store back to snap, forgetting every metavariable created and
// every assignment made since
func (s *Store) Restore(snap Snapshot) {
	s.entries = snap.entries
	s.next = snap.next
}

// Instantiate replaces every assigned metavariable in t by its solution
func (s *Store) Instantiate(t ir.Term) ir.Term {
	switch t := t.(type) {
	case *ir.Meta:
		args := s.instantiateAll(t.Args)
		if sol, ok := s.Solution(t.ID); ok {
			return s.Instantiate(ir.Apply(sol, args...))
		}
		return &ir.Meta{ID: t.ID, Args: args}
	case *ir.Var:
		return &ir.Var{Index: t.Index, Args: s.instantiateAll(t.Args)}
	case *ir.Con:
		return &ir.Con{Name: t.Name, Args: s.instantiateAll(t.Args)}
	case *ir.Def:
		return &ir.Def{Name: t.Name, Args: s.instantiateAll(t.Args)}
	case *ir.Lam:
		return &ir.Lam{Name: t.Name, Info: t.Info, Body: s.Instantiate(t.Body)}
	case *ir.Pi:
		return &ir.Pi{Dom: t.Dom.WithType(s.Instantiate(t.Dom.Type)), Cod: s.Instantiate(t.Cod)}
	default:
		return t
	}
}

func (s *Store) instantiateAll(ts []ir.Term) []ir.Term {
	if len(ts) == 0 {
		return nil
	}
	ret := make([]ir.Term, len(ts))
	for i, t := range ts {
		ret[i] = s.Instantiate(t)
	}
	return ret
}

// AssignPattern solves m := λxs.t when m is applied to distinct variables xs and t
// only mentions xs. It reports false, assigning nothing, when m is not in that
// fragment or t mentions m.
func (s *Store) AssignPattern(m *ir.Meta, t ir.Term) (bool, error) {
	e, ok := s.entries.Get(m.ID)
	if !ok {
		return false, fmt.Errorf("unknown metavariable %v", m.ID)
	}
	if e.IsAssigned() {
		return false, fmt.Errorf("metavariable %v is already assigned to %v", m.ID, e.Solution)
	}
	if len(m.Args) < e.Arity {
		return false, nil
	}
	n := len(m.Args)
	position := make(map[int]int, n)
	for k, arg := range m.Args {
		idx, isVar := ir.IsVar(arg)
		if !isVar {
			return false, nil
		}
		if _, seen := position[idx]; seen {
			return false, nil
		}
		position[idx] = k
	}
	fv := ir.FreeVars(t).Slice()
	maxVar := -1
	for _, v := range fv {
		if _, ok := position[v]; !ok {
			return false, nil
		}
		maxVar = max(maxVar, v)
	}
	if slices.Contains(ir.Metas(t), m.ID) {
		return false, nil
	}
	// the argument at position k is bound by the k-th lambda, counted from the outside
	images := make([]ir.Term, maxVar+1)
	for i := range images {
		images[i] = ir.NewVar(0)
		if k, ok := position[i]; ok {
			images[i] = ir.NewVar(n - 1 - k)
		}
	}
	names := make([]string, n)
	for k := range names {
		names[k] = fmt.Sprintf("x%d", k)
	}
	solution := ir.Lams(names, ir.ApplySubst(ir.NewSubst(images, n), t))
	if err := s.Assign(m.ID, solution); err != nil {
		return false, err
	}
	return true, nil
}

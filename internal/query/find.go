package query

import (
	"github.com/roach88/groundhog/internal/graph"
	"github.com/roach88/groundhog/internal/pattern"
	"github.com/roach88/groundhog/internal/term"
)

// Request describes one query: the declared variables, the mandatory
// clauses, and the optional clauses. Terms may be built freshly; Find and
// Satisfiable intern them into the queried store so that pattern identity
// is pointer identity.
type Request struct {
	Vars     []*term.Term
	Find     []*term.Term
	Optional []*term.Term

	// Evaluator evaluates virtual clauses. Nil gets a fresh evaluator
	// with no registered predicates.
	Evaluator *Evaluator

	// MaxResults caps enumeration for Find. Zero means unbounded.
	MaxResults int
}

// Find enumerates groundings of the request against the store, in
// discovery order. Look bindings up by variable name via Result.Binding;
// the map keys are the store's interned variable terms.
func Find(st *graph.Store, req Request, opts ...Option) ([]Result, error) {
	compiled, eval, err := prepare(st, req)
	if err != nil {
		return nil, err
	}
	coll := NewResultCollector(st, eval, req.MaxResults)
	if _, err := Satisfy(compiled, coll, opts...); err != nil {
		return nil, err
	}
	return coll.Results(), nil
}

// Satisfiable reports whether at least one grounding exists. The search
// stops at the first accepted solution.
func Satisfiable(st *graph.Store, req Request, opts ...Option) (bool, error) {
	compiled, eval, err := prepare(st, req)
	if err != nil {
		return false, err
	}
	return Satisfy(compiled, NewDefaultCallback(st, eval), opts...)
}

func prepare(st *graph.Store, req Request) (*pattern.Compiled, *Evaluator, error) {
	compiled, err := pattern.Compile(
		internAll(st, req.Vars),
		internAll(st, req.Find),
		internAll(st, req.Optional),
	)
	if err != nil {
		return nil, nil, err
	}
	eval := req.Evaluator
	if eval == nil {
		eval = NewEvaluator()
	}
	return compiled, eval, nil
}

func internAll(st *graph.Store, ts []*term.Term) []*term.Term {
	if len(ts) == 0 {
		return nil
	}
	out := make([]*term.Term, len(ts))
	for i, t := range ts {
		out[i] = st.Intern(t)
	}
	return out
}

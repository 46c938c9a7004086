package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/token"

	"github.com/roach88/groundhog/internal/graph"
	"github.com/roach88/groundhog/internal/pattern"
	"github.com/roach88/groundhog/internal/term"
)

// Query is one named query from a bundle: its declared variables and
// clauses, plus the decomposition compiled from them.
//
// Vars, Find, and Optional hold fresh term trees; callers intern them
// into whatever store the query runs against. Compiled is built against
// a throwaway store so the bundle graph stays free of query clauses.
type Query struct {
	Name     string
	Vars     []*term.Term
	Find     []*term.Term
	Optional []*term.Term

	Compiled *pattern.Compiled

	// Pos locates the query declaration in the source document.
	Pos token.Pos
}

// parseQueries parses the queries struct, in declaration order.
func parseQueries(v cue.Value) ([]*Query, error) {
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var queries []*Query
	for iter.Next() {
		q, err := parseQuery(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, nil
}

// parseQuery parses a single query struct.
func parseQuery(name string, v cue.Value) (*Query, error) {
	q := &Query{Name: name, Pos: v.Pos()}

	// Parse vars (required)
	varsVal := v.LookupPath(cue.ParsePath("vars"))
	if !varsVal.Exists() {
		return nil, &CompileError{
			Field:   fmt.Sprintf("queries.%s.vars", name),
			Message: "vars is required",
			Pos:     v.Pos(),
		}
	}
	vars, err := parseVars(name, varsVal)
	if err != nil {
		return nil, err
	}
	q.Vars = vars

	// Parse find clauses (optional when optional clauses are present)
	findVal := v.LookupPath(cue.ParsePath("find"))
	if findVal.Exists() {
		q.Find, err = parseClauses(name, findVal, "find")
		if err != nil {
			return nil, err
		}
	}

	// Parse optional clauses
	optVal := v.LookupPath(cue.ParsePath("optional"))
	if optVal.Exists() {
		q.Optional, err = parseClauses(name, optVal, "optional")
		if err != nil {
			return nil, err
		}
	}

	if len(q.Find)+len(q.Optional) == 0 {
		return nil, &CompileError{
			Field:   fmt.Sprintf("queries.%s", name),
			Message: "query declares no find or optional clauses",
			Pos:     v.Pos(),
		}
	}

	// Compile the decomposition now so malformed queries fail at bundle
	// compile time, positioned at their declaration. Variable membership
	// is by pointer, so vars and clauses intern into one shared store.
	st := graph.New()
	compiled, err := pattern.Compile(
		internAll(st, q.Vars),
		internAll(st, q.Find),
		internAll(st, q.Optional),
	)
	if err != nil {
		return nil, &CompileError{
			Field:   fmt.Sprintf("queries.%s", name),
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	q.Compiled = compiled

	return q, nil
}

// parseVars parses variable declarations; each must be a "$name" string.
func parseVars(queryName string, v cue.Value) ([]*term.Term, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var vars []*term.Term
	for i := 0; iter.Next(); i++ {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &CompileError{
				Field:   fmt.Sprintf("queries.%s.vars[%d]", queryName, i),
				Message: "variable declarations must be strings",
				Pos:     iter.Value().Pos(),
			}
		}
		if !strings.HasPrefix(s, "$") {
			return nil, &CompileError{
				Field:   fmt.Sprintf("queries.%s.vars[%d]", queryName, i),
				Message: fmt.Sprintf("variable %q must start with \"$\"", s),
				Pos:     iter.Value().Pos(),
			}
		}
		vars = append(vars, term.Var(s))
	}
	return vars, nil
}

// parseClauses parses a clause list through the shared literal grammar.
func parseClauses(queryName string, v cue.Value, section string) ([]*term.Term, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var clauses []*term.Term
	for i := 0; iter.Next(); i++ {
		clause, err := termFromValue(iter.Value(), fmt.Sprintf("queries.%s.%s[%d]", queryName, section, i))
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, clause)
	}
	return clauses, nil
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

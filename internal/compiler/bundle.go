package compiler

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/groundhog/internal/graph"
	"github.com/roach88/groundhog/internal/term"
)

// Bundle is a compiled bundle document: the declared facts interned into
// a fresh store, plus the queries declared alongside them.
type Bundle struct {
	Graph   *graph.Store
	Facts   []*term.Term
	Queries []*Query
}

// Query returns the named query, if the bundle declares one.
func (b *Bundle) Query(name string) (*Query, bool) {
	for _, q := range b.Queries {
		if q.Name == name {
			return q, true
		}
	}
	return nil, false
}

// CompileBundle parses a CUE value into a Bundle.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the bundle document root, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`
//	    graph: facts: [["Inheritance", ["Concept", "cat"], ["Concept", "animal"]]]
//	    queries: animals: {
//	        vars: ["$x"]
//	        find: [["Inheritance", "$x", ["Concept", "animal"]]]
//	    }
//	`)
//	bundle, err := CompileBundle(v)
//
// Facts and query clauses share one literal grammar: a bare string is a
// Variable ("$x"), a Number (numeric text), or a Concept; a list is
// [TypeName, ...] with nested literals as link arguments.
func CompileBundle(v cue.Value) (*Bundle, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	b := &Bundle{Graph: graph.New()}

	// Parse facts (optional, a bundle may declare queries only)
	factsVal := v.LookupPath(cue.ParsePath("graph.facts"))
	if factsVal.Exists() {
		facts, err := parseFacts(b.Graph, factsVal)
		if err != nil {
			return nil, err
		}
		b.Facts = facts
	}

	// Parse queries (optional, a bundle may declare facts only)
	queriesVal := v.LookupPath(cue.ParsePath("queries"))
	if queriesVal.Exists() {
		queries, err := parseQueries(queriesVal)
		if err != nil {
			return nil, err
		}
		b.Queries = queries
	}

	if len(b.Facts) == 0 && len(b.Queries) == 0 {
		return nil, &CompileError{
			Field:   "bundle",
			Message: "bundle declares neither graph facts nor queries",
			Pos:     v.Pos(),
		}
	}

	return b, nil
}

// parseFacts interns each fact literal into the store, in document order.
func parseFacts(st *graph.Store, v cue.Value) ([]*term.Term, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var facts []*term.Term
	for i := 0; iter.Next(); i++ {
		fact, err := termFromValue(iter.Value(), fmt.Sprintf("graph.facts[%d]", i))
		if err != nil {
			return nil, err
		}
		facts = append(facts, st.Intern(fact))
	}
	return facts, nil
}

// termFromValue decodes a CUE value through the shared literal grammar.
func termFromValue(v cue.Value, field string) (*term.Term, error) {
	var raw any
	if err := v.Decode(&raw); err != nil {
		return nil, formatCUEError(err)
	}

	t, err := term.FromLiteral(raw)
	if err != nil {
		return nil, &CompileError{
			Field:   field,
			Message: err.Error(),
			Pos:     v.Pos(),
		}
	}
	return t, nil
}

// CompileError represents a compilation error with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	// CUE errors may contain multiple errors
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	// Return first error with position info
	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}

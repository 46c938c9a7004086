package harness

import (
	"errors"
	"fmt"

	"github.com/roach88/groundhog/internal/graph"
	"github.com/roach88/groundhog/internal/query"
	"github.com/roach88/groundhog/internal/term"
)

// defaultRunToken tags runs of scenarios that do not pin their own token.
const defaultRunToken = "test-run-default"

// Run executes a scenario and returns the result.
//
// Each scenario runs against a fresh in-memory store for isolation, with
// a fixed run token and a fresh trace clock, so the recorded trace is
// fully deterministic.
//
// Execution flow:
//  1. Build the store from the scenario's graph literals, in order
//  2. Compile the query from the scenario's literals
//  3. Run the search with a recording tracer
//  4. Evaluate the expectations against the outcome
//
// Malformed scenarios (bad literals, uncompilable queries) return an
// error. A run that exhausts its step budget is a failed result, not an
// error: the partial trace is kept for diagnosis.
func Run(scenario *Scenario) (*Result, error) {
	st := graph.New()
	for i, lit := range scenario.Graph {
		if _, err := st.InternLiteral(lit); err != nil {
			return nil, fmt.Errorf("graph[%d]: %w", i, err)
		}
	}

	req, err := buildRequest(&scenario.Query)
	if err != nil {
		return nil, err
	}

	token := scenario.RunToken
	if token == "" {
		token = defaultRunToken
	}
	recorder := &query.Recorder{}
	opts := []query.Option{
		query.WithTracer(recorder),
		query.WithTokens(query.NewFixedGenerator(token)),
	}
	if scenario.Expect.MaxSteps > 0 {
		opts = append(opts, query.WithMaxSteps(scenario.Expect.MaxSteps))
	}

	result := NewResult()
	results, err := query.Find(st, req, opts...)
	result.Trace = recorder.Events()
	if err != nil {
		var budgetErr *query.BudgetExceededError
		if !errors.As(err, &budgetErr) {
			return nil, fmt.Errorf("query run failed: %w", err)
		}
		result.AddError(fmt.Sprintf("run aborted: %v", err))
		evaluateExpectations(result, scenario.Expect)
		return result, nil
	}

	result.Satisfied = len(results) > 0
	result.Groundings = renderGroundings(scenario.Query.Vars, results)
	evaluateExpectations(result, scenario.Expect)
	return result, nil
}

// buildRequest turns the scenario's query section into a query request.
// Clause literals share the grammar of the store's facts; variables are
// declared by name.
func buildRequest(spec *QuerySpec) (query.Request, error) {
	req := query.Request{MaxResults: spec.MaxResults}

	req.Vars = make([]*term.Term, len(spec.Vars))
	for i, name := range spec.Vars {
		req.Vars[i] = term.Var(name)
	}

	var err error
	if req.Find, err = buildClauses("query.find", spec.Find); err != nil {
		return query.Request{}, err
	}
	if req.Optional, err = buildClauses("query.optional", spec.Optional); err != nil {
		return query.Request{}, err
	}
	return req, nil
}

func buildClauses(field string, lits []any) ([]*term.Term, error) {
	if len(lits) == 0 {
		return nil, nil
	}
	clauses := make([]*term.Term, len(lits))
	for i, lit := range lits {
		t, err := term.FromLiteral(lit)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		clauses[i] = t
	}
	return clauses, nil
}

// renderGroundings projects each result onto the declared variables,
// rendering groundings as s-expressions. Variables a result leaves
// unbound (absent optionals) are omitted from its map.
func renderGroundings(vars []string, results []query.Result) []map[string]string {
	if len(results) == 0 {
		return nil
	}
	out := make([]map[string]string, len(results))
	for i, res := range results {
		m := make(map[string]string, len(vars))
		for _, name := range vars {
			if g := res.Binding(name); g != nil {
				m[name] = g.String()
			}
		}
		out[i] = m
	}
	return out
}

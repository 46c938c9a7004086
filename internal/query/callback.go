package query

import (
	"github.com/roach88/groundhog/internal/pattern"
	"github.com/roach88/groundhog/internal/term"
)

// Callback is how a search talks to policy. The Engine owns the traversal
// mechanics (candidate lifting, clause-by-clause descent, backtracking);
// every acceptance decision and every graph access goes through the
// callback, so alternative match semantics plug in without touching the
// engine.
//
// DefaultCallback implements graph-presence semantics; ResultCollector
// extends it to accumulate groundings. Custom callbacks usually embed one
// of those and override a handful of methods.
type Callback interface {
	// NodeMatch decides whether a constant pattern node matches a graph
	// term. Interning makes pointer comparison the default semantics.
	NodeMatch(pat, gnd *term.Term) bool

	// VariableMatch decides whether a declared variable may ground to the
	// given term. Binding consistency (same variable, same grounding) is
	// enforced by the engine before this is consulted.
	VariableMatch(v, gnd *term.Term) bool

	// LinkMatch decides whether a pattern link is compatible with a graph
	// link before their children are compared.
	LinkMatch(pat, gnd *term.Term) bool

	// PostLinkMatch re-inspects a link match after all children matched.
	PostLinkMatch(pat, gnd *term.Term) bool

	// FuzzyMatch is the last resort when an exact match failed. Returning
	// true accepts the mismatch.
	FuzzyMatch(pat, gnd *term.Term) bool

	// ClauseMatch accepts or rejects a fully grounded mandatory clause.
	// terms holds the clause groundings so far, excluding this clause.
	ClauseMatch(clause, gnd *term.Term, terms Bindings) bool

	// OptionalMatch reports how an optional clause fared: gnd is the
	// matched term, or nil when the clause has no grounding. Returning
	// false rejects the current solution path.
	OptionalMatch(clause, gnd *term.Term, vars Bindings) (bool, error)

	// EvaluateClause evaluates a virtual clause under the given variable
	// bindings. Grounded predicates and numeric comparisons route through
	// here rather than through shape matching.
	EvaluateClause(clause *term.Term, vars Bindings) (bool, error)

	// IncomingSet returns the links that contain the given term. This is
	// the only way the engine reaches the graph, so callbacks control
	// which portion of the store a search can see.
	IncomingSet(t *term.Term) []*term.Term

	// Push and Pop bracket the engine's descent from one grounded clause
	// into the next. Stateful callbacks save and restore their own state
	// here; the engine guarantees the calls balance.
	Push()
	Pop()

	// SetPattern announces the pattern about to be searched. During a
	// multi-component run it is called once per component and once more
	// before recombination, with the full pattern.
	SetPattern(vars *pattern.VarSet, pat *pattern.Pattern)

	// InitiateSearch picks the starting point and drives the engine. The
	// returned bool reports whether any grounding was accepted.
	InitiateSearch(eng *Engine) (bool, error)

	// SearchFinished sees the overall verdict last and may override it.
	SearchFinished(found bool) bool

	// Grounding reports one complete solution. Both maps are the engine's
	// working state, valid only for the duration of the call: retainers
	// must Clone. Returning true stops the search; false asks for more
	// solutions.
	Grounding(vars, terms Bindings) (bool, error)
}

// OptionalsObserver is implemented by callbacks that remember whether any
// optional clause was actually present in the graph. Satisfy consults it
// when a pattern decomposes into components with nothing mandatory in
// them: if their optionals are present, the whole query fails.
type OptionalsObserver interface {
	OptionalsPresent() bool
}

package query

import (
	"math"

	"github.com/roach88/groundhog/internal/graph"
	"github.com/roach88/groundhog/internal/pattern"
	"github.com/roach88/groundhog/internal/term"
)

// DefaultCallback implements graph-presence semantics over a store:
// constant nodes match by interned pointer, links by type and arity,
// variables ground to any non-variable term, and virtual clauses are
// routed to an Evaluator. Grounding accepts the first solution, making
// Satisfy a yes/no satisfiability check; ResultCollector overrides that
// to enumerate solutions.
//
// The callback is single-use per query run: it remembers whether any
// optional clause was present across all components of the run.
type DefaultCallback struct {
	store     *graph.Store
	evaluator *Evaluator

	vars *pattern.VarSet
	pat  *pattern.Pattern

	optionalsPresent bool
}

// NewDefaultCallback creates a callback over the given store. A nil
// evaluator gets a fresh one with no registered predicates.
func NewDefaultCallback(store *graph.Store, eval *Evaluator) *DefaultCallback {
	if eval == nil {
		eval = NewEvaluator()
	}
	return &DefaultCallback{store: store, evaluator: eval}
}

// NodeMatch accepts exactly the same interned node.
func (c *DefaultCallback) NodeMatch(pat, gnd *term.Term) bool {
	return pat == gnd
}

// VariableMatch lets a variable ground to anything except another
// variable. Pattern clauses are interned into the same store they query,
// so this is what keeps a pattern from matching itself.
func (c *DefaultCallback) VariableMatch(v, gnd *term.Term) bool {
	return !gnd.IsVariable()
}

// LinkMatch requires the same link type and arity.
func (c *DefaultCallback) LinkMatch(pat, gnd *term.Term) bool {
	return pat.Type() == gnd.Type() && pat.Arity() == gnd.Arity()
}

// PostLinkMatch accepts every link whose children matched.
func (c *DefaultCallback) PostLinkMatch(pat, gnd *term.Term) bool {
	return true
}

// FuzzyMatch rejects; there is no approximate matching by default.
func (c *DefaultCallback) FuzzyMatch(pat, gnd *term.Term) bool {
	return false
}

// ClauseMatch accepts every fully grounded clause.
func (c *DefaultCallback) ClauseMatch(clause, gnd *term.Term, terms Bindings) bool {
	return true
}

// OptionalMatch records presence and always accepts. Callbacks wanting
// absence semantics (reject solutions where the optional is present)
// override this to return false on a non-nil gnd.
func (c *DefaultCallback) OptionalMatch(clause, gnd *term.Term, vars Bindings) (bool, error) {
	if gnd != nil {
		c.optionalsPresent = true
	}
	return true, nil
}

// OptionalsPresent reports whether any optional clause matched during
// this run. Implements OptionalsObserver.
func (c *DefaultCallback) OptionalsPresent() bool {
	return c.optionalsPresent
}

// EvaluateClause delegates to the evaluator.
func (c *DefaultCallback) EvaluateClause(clause *term.Term, vars Bindings) (bool, error) {
	return c.evaluator.Evaluate(clause, vars)
}

// IncomingSet exposes the store's incoming sets to the engine.
func (c *DefaultCallback) IncomingSet(t *term.Term) []*term.Term {
	return c.store.Incoming(t)
}

// Push and Pop are no-ops; the default callback keeps no per-depth state.
func (c *DefaultCallback) Push() {}

// Pop is the counterpart of Push.
func (c *DefaultCallback) Pop() {}

// SetPattern records the pattern for the next search. The optionals
// presence flag deliberately survives: a run spans several components and
// the flag must accumulate across all of them.
func (c *DefaultCallback) SetPattern(vars *pattern.VarSet, pat *pattern.Pattern) {
	c.vars = vars
	c.pat = pat
}

// InitiateSearch picks the cheapest entry into the graph and drives the
// engine from there:
//
//  1. Constant clauses are checked first. An evaluatable constant is
//     evaluated, any other must be present in the store; one failure
//     fails the search with no graph traversal at all.
//  2. With no mandatory clauses the engine goes straight to optionals.
//  3. Otherwise the constant node with the smallest incoming set anchors
//     the search; ties keep the earliest clause.
//  4. Patterns with no constants anywhere fall back to scanning the
//     store by the first clause's type.
func (c *DefaultCallback) InitiateSearch(eng *Engine) (bool, error) {
	for _, k := range c.pat.Constants {
		ok, err := c.checkConstant(k)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	if len(c.pat.Mandatory) == 0 {
		return eng.ExploreOptionals()
	}
	if clause, anchor := c.chooseAnchor(); anchor != nil {
		return eng.ExploreNeighborhood(clause, anchor, anchor)
	}
	return c.fullScan(eng)
}

// SearchFinished passes the verdict through.
func (c *DefaultCallback) SearchFinished(found bool) bool {
	return found
}

// Grounding accepts the first solution and stops the search.
func (c *DefaultCallback) Grounding(vars, terms Bindings) (bool, error) {
	return true, nil
}

func (c *DefaultCallback) checkConstant(k *term.Term) (bool, error) {
	if k.IsEvaluatable() {
		return c.evaluator.Evaluate(k, nil)
	}
	return c.store.Contains(k), nil
}

// chooseAnchor returns the mandatory clause and constant node with the
// thinnest incoming set. Searching from the rarest constant keeps the
// initial candidate set small.
func (c *DefaultCallback) chooseAnchor() (clause, anchor *term.Term) {
	best := uint64(math.MaxUint64)
	for _, cl := range c.pat.Mandatory {
		for _, node := range constantNodes(c.vars, cl) {
			if sz := c.store.IncomingSize(node); sz < best {
				best = sz
				clause, anchor = cl, node
			}
		}
	}
	return clause, anchor
}

// fullScan grounds the first mandatory clause against every term of its
// type. Only patterns whose clauses are all variables end up here.
func (c *DefaultCallback) fullScan(eng *Engine) (bool, error) {
	clause := c.pat.Mandatory[0]
	if clause.IsLink() {
		return eng.ExploreCandidates(clause, c.store.ByType(clause.Type()))
	}
	var all []*term.Term
	c.store.Each(func(t *term.Term) bool {
		all = append(all, t)
		return true
	})
	return eng.ExploreCandidates(clause, all)
}

// constantNodes collects the constant nodes of a clause in first-visit
// order, skipping declared variables.
func constantNodes(vars *pattern.VarSet, clause *term.Term) []*term.Term {
	var nodes []*term.Term
	var walk func(t *term.Term)
	walk = func(t *term.Term) {
		if vars.Contains(t) {
			return
		}
		if t.IsNode() {
			nodes = append(nodes, t)
			return
		}
		for _, child := range t.Out() {
			walk(child)
		}
	}
	walk(clause)
	return nodes
}

// ResultCollector accumulates every accepted grounding instead of
// stopping at the first. MaxResults bounds the enumeration; zero means
// unbounded.
type ResultCollector struct {
	DefaultCallback

	MaxResults int
	results    []Result
}

// NewResultCollector creates a collector over the given store.
func NewResultCollector(store *graph.Store, eval *Evaluator, maxResults int) *ResultCollector {
	return &ResultCollector{
		DefaultCallback: *NewDefaultCallback(store, eval),
		MaxResults:      maxResults,
	}
}

// Grounding snapshots the solution and keeps searching until MaxResults
// is reached.
func (c *ResultCollector) Grounding(vars, terms Bindings) (bool, error) {
	c.results = append(c.results, Result{Vars: vars.Clone(), Terms: terms.Clone()})
	if c.MaxResults > 0 && len(c.results) >= c.MaxResults {
		return true, nil
	}
	return false, nil
}

// SearchFinished counts an exhaustive enumeration as satisfied when it
// collected anything. Grounding keeps refusing so the search runs to the
// end; without this the run would report unsatisfied despite results.
func (c *ResultCollector) SearchFinished(found bool) bool {
	return found || len(c.results) > 0
}

// Results returns the collected groundings in discovery order.
func (c *ResultCollector) Results() []Result {
	return c.results
}

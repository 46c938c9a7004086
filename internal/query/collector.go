package query

import (
	"github.com/roach88/groundhog/internal/pattern"
	"github.com/roach88/groundhog/internal/term"
)

// componentCollector wraps the user's callback for the duration of one
// component's search. It forwards every decision to the wrapped callback
// except Grounding, which it intercepts: solutions are snapshotted into
// the collector and the search is told to keep going, so a component
// always enumerates all of its groundings before recombination starts.
type componentCollector struct {
	inner          Callback
	varGroundings  []Bindings
	termGroundings []Bindings
}

func newComponentCollector(inner Callback) *componentCollector {
	return &componentCollector{inner: inner}
}

func (c *componentCollector) NodeMatch(pat, gnd *term.Term) bool {
	return c.inner.NodeMatch(pat, gnd)
}

func (c *componentCollector) VariableMatch(v, gnd *term.Term) bool {
	return c.inner.VariableMatch(v, gnd)
}

func (c *componentCollector) LinkMatch(pat, gnd *term.Term) bool {
	return c.inner.LinkMatch(pat, gnd)
}

func (c *componentCollector) PostLinkMatch(pat, gnd *term.Term) bool {
	return c.inner.PostLinkMatch(pat, gnd)
}

func (c *componentCollector) FuzzyMatch(pat, gnd *term.Term) bool {
	return c.inner.FuzzyMatch(pat, gnd)
}

func (c *componentCollector) ClauseMatch(clause, gnd *term.Term, terms Bindings) bool {
	return c.inner.ClauseMatch(clause, gnd, terms)
}

func (c *componentCollector) OptionalMatch(clause, gnd *term.Term, vars Bindings) (bool, error) {
	return c.inner.OptionalMatch(clause, gnd, vars)
}

func (c *componentCollector) EvaluateClause(clause *term.Term, vars Bindings) (bool, error) {
	return c.inner.EvaluateClause(clause, vars)
}

func (c *componentCollector) IncomingSet(t *term.Term) []*term.Term {
	return c.inner.IncomingSet(t)
}

func (c *componentCollector) Push() { c.inner.Push() }

func (c *componentCollector) Pop() { c.inner.Pop() }

func (c *componentCollector) SetPattern(vars *pattern.VarSet, pat *pattern.Pattern) {
	c.inner.SetPattern(vars, pat)
}

func (c *componentCollector) InitiateSearch(eng *Engine) (bool, error) {
	return c.inner.InitiateSearch(eng)
}

func (c *componentCollector) SearchFinished(found bool) bool {
	return c.inner.SearchFinished(found)
}

// Grounding snapshots the solution and returns false so the component
// search exhausts every grounding. The wrapped callback never sees
// per-component solutions, only recombined ones.
func (c *componentCollector) Grounding(vars, terms Bindings) (bool, error) {
	c.termGroundings = append(c.termGroundings, terms.Clone())
	c.varGroundings = append(c.varGroundings, vars.Clone())
	return false, nil
}

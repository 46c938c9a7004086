package query

import (
	"github.com/roach88/groundhog/internal/pattern"
	"github.com/roach88/groundhog/internal/term"
)

// Engine performs the backtracking search for one connected component.
//
// The engine owns the working state of a search: the variable bindings,
// the clause groundings, and the trail used to undo bindings on
// backtrack. It knows nothing about the graph beyond what the callback's
// IncomingSet exposes, and it makes no acceptance decisions of its own.
//
// A callback's InitiateSearch drives the engine through the Explore
// methods; the engine then calls back out for every match decision.
// Engines are single-use per component and not safe for concurrent use.
type Engine struct {
	cb  Callback
	run *run

	vars *pattern.VarSet
	pat  *pattern.Pattern

	varGnd  Bindings
	termGnd Bindings
	solved  map[*term.Term]bool
	trail   []*term.Term

	// varFree memoizes which pattern subterms contain no declared
	// variables; those compare by pointer identity alone.
	varFree map[*term.Term]bool
}

func newEngine(cb Callback, r *run) *Engine {
	return &Engine{cb: cb, run: r}
}

// SetPattern resets the engine for a fresh search over the given pattern.
func (e *Engine) SetPattern(vars *pattern.VarSet, pat *pattern.Pattern) {
	e.vars = vars
	e.pat = pat
	e.varGnd = Bindings{}
	e.termGnd = Bindings{}
	e.solved = map[*term.Term]bool{}
	e.trail = e.trail[:0]
	e.varFree = map[*term.Term]bool{}
}

// ExploreNeighborhood searches outward from a known starting point:
// anchor is a subterm of clause, seed the graph term proposed for it.
// Candidates for the whole clause are lifted from the seed through
// incoming sets, one link level per step on the anchor's path to the
// clause root.
func (e *Engine) ExploreNeighborhood(clause, anchor, seed *term.Term) (bool, error) {
	return e.ExploreCandidates(clause, e.liftCandidates(clause, anchor, seed))
}

// ExploreCandidates tries each candidate as a grounding for the clause,
// recursing into the rest of the pattern on every match. It returns as
// soon as a complete grounding is accepted.
func (e *Engine) ExploreCandidates(clause *term.Term, cands []*term.Term) (bool, error) {
	for _, g := range cands {
		accepted, err := e.tryCandidate(clause, g)
		if err != nil {
			return false, err
		}
		if accepted {
			return true, nil
		}
	}
	return false, nil
}

// ExploreOptionals runs the solution tail for patterns with no mandatory
// clauses: optional clauses are grounded best-effort, then the grounding
// is reported. Callbacks route empty-mandatory patterns here.
func (e *Engine) ExploreOptionals() (bool, error) {
	return e.solveOptional(0)
}

// tryCandidate grounds one clause against one candidate and, if the
// clause holds, descends into the remaining clauses. All bindings made on
// behalf of the candidate are undone before returning, accepted or not:
// solutions only escape through Callback.Grounding.
func (e *Engine) tryCandidate(clause, g *term.Term) (bool, error) {
	if err := e.run.step(); err != nil {
		return false, err
	}
	e.run.trace(TraceEvent{Kind: TraceCandidate, Clause: clause.String(), Term: g.String()})

	mark := len(e.trail)
	if !e.treeCompare(clause, g) {
		e.unwindTo(mark)
		return false, nil
	}
	if !e.cb.ClauseMatch(clause, g, e.termGnd) {
		e.unwindTo(mark)
		return false, nil
	}
	e.termGnd[clause] = g
	e.solved[clause] = true
	e.cb.Push()
	accepted, err := e.solveRest()
	e.cb.Pop()
	delete(e.termGnd, clause)
	delete(e.solved, clause)
	e.unwindTo(mark)
	if err != nil {
		return false, err
	}
	return accepted, nil
}

// solveRest picks the next unsolved mandatory clause that already has a
// bound variable and explores it from that variable's grounding. When
// every mandatory clause is solved the search moves on to optionals,
// virtuals, and finally the report.
func (e *Engine) solveRest() (bool, error) {
	var next *term.Term
	remaining := 0
	for _, cl := range e.pat.Mandatory {
		if e.solved[cl] {
			continue
		}
		remaining++
		if next == nil {
			if a, _ := e.boundAnchor(cl); a != nil {
				next = cl
			}
		}
	}
	if remaining == 0 {
		return e.solveOptional(0)
	}
	if next == nil {
		// Unsolved clauses share no variable with anything solved.
		// Component connectivity makes this unreachable for compiled
		// patterns; bail out rather than report a partial grounding.
		return false, nil
	}
	anchor, seed := e.boundAnchor(next)
	return e.ExploreCandidates(next, e.liftCandidates(next, anchor, seed))
}

// solveOptional grounds the pattern's optional clauses in order, starting
// at idx. Each optional takes its first matching candidate; bindings it
// introduces stay visible to later optionals and to the virtual clauses.
// An optional with no grounding is reported to the callback with a nil
// term and the search continues.
func (e *Engine) solveOptional(idx int) (bool, error) {
	if idx >= len(e.pat.Optionals) {
		return e.evaluateVirtuals()
	}
	opt := e.pat.Optionals[idx]
	for _, g := range e.optionalCandidates(opt) {
		if err := e.run.step(); err != nil {
			return false, err
		}
		mark := len(e.trail)
		if !e.treeCompare(opt, g) {
			e.unwindTo(mark)
			continue
		}
		ok, err := e.cb.OptionalMatch(opt, g, e.varGnd)
		e.run.trace(TraceEvent{Kind: TraceOptionalCheck, Clause: opt.String(), Term: g.String(), OK: ok})
		if err != nil {
			e.unwindTo(mark)
			return false, err
		}
		if !ok {
			e.unwindTo(mark)
			return false, nil
		}
		e.termGnd[opt] = g
		accepted, err := e.solveOptional(idx + 1)
		delete(e.termGnd, opt)
		e.unwindTo(mark)
		return accepted, err
	}

	// No grounding in the graph for this optional.
	ok, err := e.cb.OptionalMatch(opt, nil, e.varGnd)
	e.run.trace(TraceEvent{Kind: TraceOptionalCheck, Clause: opt.String(), OK: ok})
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return e.solveOptional(idx + 1)
}

// evaluateVirtuals filters the completed grounding through the pattern's
// virtual clauses, then reports it.
func (e *Engine) evaluateVirtuals() (bool, error) {
	for _, virt := range e.pat.Virtuals {
		ok, err := e.cb.EvaluateClause(virt, e.varGnd)
		if err != nil {
			return false, err
		}
		e.run.trace(TraceEvent{Kind: TraceVirtualEval, Clause: virt.String(), OK: ok})
		if !ok {
			return false, nil
		}
	}
	return e.report()
}

func (e *Engine) report() (bool, error) {
	accepted, err := e.cb.Grounding(e.varGnd, e.termGnd)
	if err != nil {
		return false, err
	}
	e.run.trace(TraceEvent{Kind: TraceSolution, Vars: formatBindings(e.varGnd), OK: accepted})
	return accepted, nil
}

// treeCompare walks pattern and graph terms in lockstep. Declared
// variables bind (or must agree with their existing binding); constant
// subterms compare by interned pointer; links recurse over children.
// Bindings made during a failed comparison are undone via the trail.
func (e *Engine) treeCompare(p, g *term.Term) bool {
	if e.vars.Contains(p) {
		if bound, ok := e.varGnd[p]; ok {
			return bound == g
		}
		if !e.cb.VariableMatch(p, g) {
			return false
		}
		e.varGnd[p] = g
		e.trail = append(e.trail, p)
		return true
	}
	if p == g && e.hasNoVars(p) {
		return true
	}
	if p.IsNode() {
		if e.cb.NodeMatch(p, g) {
			return true
		}
		return e.cb.FuzzyMatch(p, g)
	}
	if !g.IsLink() || p.Arity() != g.Arity() || !e.cb.LinkMatch(p, g) {
		return e.cb.FuzzyMatch(p, g)
	}
	mark := len(e.trail)
	po, gout := p.Out(), g.Out()
	for i := range po {
		if !e.treeCompare(po[i], gout[i]) {
			e.unwindTo(mark)
			return e.cb.FuzzyMatch(p, g)
		}
	}
	if !e.cb.PostLinkMatch(p, g) {
		e.unwindTo(mark)
		return false
	}
	return true
}

// hasNoVars reports whether a pattern subterm mentions no declared
// variable. Such subterms are interned constants: identity is equality.
func (e *Engine) hasNoVars(t *term.Term) bool {
	if free, ok := e.varFree[t]; ok {
		return free
	}
	free := true
	if e.vars.Contains(t) {
		free = false
	} else {
		for _, c := range t.Out() {
			if !e.hasNoVars(c) {
				free = false
				break
			}
		}
	}
	e.varFree[t] = free
	return free
}

func (e *Engine) unwindTo(mark int) {
	for i := len(e.trail) - 1; i >= mark; i-- {
		delete(e.varGnd, e.trail[i])
	}
	e.trail = e.trail[:mark]
}

// liftCandidates turns a grounded anchor into candidates for the whole
// clause: starting from the seed, each step up the anchor's path lifts
// the current set through the incoming sets of its members, keeping only
// links compatible with the pattern term at that level.
func (e *Engine) liftCandidates(clause, anchor, seed *term.Term) []*term.Term {
	path, ok := pathTo(clause, anchor)
	if !ok {
		return nil
	}
	cands := []*term.Term{seed}
	for depth := len(path) - 2; depth >= 0; depth-- {
		parent := path[depth]
		var lifted []*term.Term
		seen := map[*term.Term]bool{}
		for _, c := range cands {
			for _, in := range e.cb.IncomingSet(c) {
				if seen[in] {
					continue
				}
				seen[in] = true
				if in.Arity() == parent.Arity() && e.cb.LinkMatch(parent, in) {
					lifted = append(lifted, in)
				}
			}
		}
		if len(lifted) == 0 {
			return nil
		}
		cands = lifted
	}
	return cands
}

// pathTo returns the root-to-target spine for the first occurrence of
// target inside root. Pattern terms are interned, so the search is by
// pointer.
func pathTo(root, target *term.Term) ([]*term.Term, bool) {
	if root == target {
		return []*term.Term{root}, true
	}
	for _, child := range root.Out() {
		if sub, ok := pathTo(child, target); ok {
			return append([]*term.Term{root}, sub...), true
		}
	}
	return nil, false
}

// boundAnchor finds the first declared variable in t that already has a
// grounding, returning the variable and its grounding.
func (e *Engine) boundAnchor(t *term.Term) (anchor, seed *term.Term) {
	if e.vars.Contains(t) {
		if g, ok := e.varGnd[t]; ok {
			return t, g
		}
		return nil, nil
	}
	for _, child := range t.Out() {
		if a, s := e.boundAnchor(child); a != nil {
			return a, s
		}
	}
	return nil, nil
}

// constantAnchor finds the first constant node in t, skipping declared
// variables.
func constantAnchor(vars *pattern.VarSet, t *term.Term) *term.Term {
	if vars.Contains(t) {
		return nil
	}
	if t.IsNode() {
		return t
	}
	for _, child := range t.Out() {
		if a := constantAnchor(vars, child); a != nil {
			return a
		}
	}
	return nil
}

// optionalCandidates picks candidates for an optional clause: lifted from
// a bound variable when one exists, otherwise from a constant node inside
// the clause. An optional with neither (a bare node, or all-unbound
// variables) yields no candidates and is treated as absent.
func (e *Engine) optionalCandidates(opt *term.Term) []*term.Term {
	if anchor, seed := e.boundAnchor(opt); anchor != nil {
		return e.liftCandidates(opt, anchor, seed)
	}
	if opt.IsLink() {
		if anchor := constantAnchor(e.vars, opt); anchor != nil {
			return e.liftCandidates(opt, anchor, anchor)
		}
	}
	return nil
}

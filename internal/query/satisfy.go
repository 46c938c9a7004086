package query

import (
	"github.com/roach88/groundhog/internal/pattern"
	"github.com/roach88/groundhog/internal/term"
)

// Satisfy searches the graph for groundings of a compiled pattern,
// reporting each one through cb.Grounding until the callback accepts one
// or the space is exhausted. The returned bool is the callback's final
// verdict: whether an acceptable grounding was found.
//
// Errors abort the search immediately, bypassing SearchFinished; a budget
// overrun surfaces here as a BudgetExceededError.
func Satisfy(c *pattern.Compiled, cb Callback, opts ...Option) (bool, error) {
	r := newRun(opts)
	r.trace(TraceEvent{Kind: TraceSearchStart})
	found, err := satisfy(c, cb, r)
	if err != nil {
		return false, err
	}
	r.trace(TraceEvent{Kind: TraceSearchDone, OK: found})
	return found, nil
}

func satisfy(c *pattern.Compiled, cb Callback, r *run) (bool, error) {
	if len(c.Components) == 0 {
		return satisfyOne(c, cb, r)
	}
	return satisfyComponents(c, cb, r)
}

// satisfyOne runs a single-component search: one engine, one pattern,
// solutions reported as they are found. Virtual clauses, if any, are
// evaluated by the engine once a candidate grounding is complete.
func satisfyOne(c *pattern.Compiled, cb Callback, r *run) (bool, error) {
	eng := newEngine(cb, r)
	eng.SetPattern(c.Pattern.Vars, c.Pattern)
	cb.SetPattern(c.Pattern.Vars, c.Pattern)
	found, err := cb.InitiateSearch(eng)
	if err != nil {
		return false, err
	}
	return cb.SearchFinished(found), nil
}

// satisfyComponents grounds each variable-disjoint component separately,
// then recombines the per-component groundings under the pattern's
// virtual clauses.
//
// Components with no mandatory clauses contribute nothing to the product.
// They act as existence checks instead: if their optionals are present in
// the graph, the whole query fails. Any other component with zero
// groundings fails the query outright, before later components run.
func satisfyComponents(c *pattern.Compiled, cb Callback, r *run) (bool, error) {
	var compVars, compTerms [][]Bindings
	for i, sub := range c.Components {
		r.trace(TraceEvent{Kind: TraceComponentStart, Index: i})
		coll := newComponentCollector(cb)
		if _, err := satisfy(sub, coll, r); err != nil {
			return false, err
		}
		if sub.Pattern.IsPureOptional() {
			if obs, ok := cb.(OptionalsObserver); ok && obs.OptionalsPresent() {
				return false, nil
			}
			continue
		}
		if len(coll.termGroundings) == 0 {
			return false, nil
		}
		compVars = append(compVars, coll.varGroundings)
		compTerms = append(compTerms, coll.termGroundings)
	}
	cb.SetPattern(c.Pattern.Vars, c.Pattern)
	accepted, err := recombine(cb, r, c.Pattern.Virtuals, c.Pattern.Optionals,
		Bindings{}, Bindings{}, compVars, compTerms)
	if err != nil {
		return false, err
	}
	return cb.SearchFinished(accepted), nil
}

// recombine walks the cartesian product of per-component groundings,
// peeling one component per recursion level. The last component is the
// outermost loop, so the first component varies fastest. Each complete
// combination is filtered through the virtual clauses, then the optional
// clauses, then offered to cb.Grounding; the first acceptance unwinds the
// whole product immediately.
//
// Accumulated maps are disjoint across components, so merging never
// rebinds anything.
func recombine(cb Callback, r *run, virtuals, optionals []*term.Term,
	accVars, accTerms Bindings, compVars, compTerms [][]Bindings) (bool, error) {

	if len(compVars) == 0 {
		for _, virt := range virtuals {
			ok, err := cb.EvaluateClause(virt, accVars)
			if err != nil {
				return false, err
			}
			r.trace(TraceEvent{Kind: TraceVirtualEval, Clause: virt.String(), OK: ok})
			if !ok {
				return false, nil
			}
		}
		for _, opt := range optionals {
			ok, err := cb.OptionalMatch(opt, nil, accVars)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		accepted, err := cb.Grounding(accVars, accTerms)
		if err != nil {
			return false, err
		}
		r.trace(TraceEvent{Kind: TraceSolution, Vars: formatBindings(accVars), OK: accepted})
		return accepted, nil
	}

	last := len(compVars) - 1
	varGnds, termGnds := compVars[last], compTerms[last]
	for i := range varGnds {
		if err := r.step(); err != nil {
			return false, err
		}
		mergedVars := accVars.Clone()
		mergedVars.mergeFrom(varGnds[i])
		mergedTerms := accTerms.Clone()
		mergedTerms.mergeFrom(termGnds[i])
		accepted, err := recombine(cb, r, virtuals, optionals,
			mergedVars, mergedTerms, compVars[:last], compTerms[:last])
		if err != nil {
			return false, err
		}
		if accepted {
			return true, nil
		}
	}
	return false, nil
}

package pattern

import "github.com/roach88/groundhog/internal/term"

// VarsIn returns the declared variables occurring anywhere in the
// clause's tree, in first-occurrence order.
func VarsIn(vars *VarSet, clause *term.Term) *VarSet {
	found := NewVarSet()
	collectVars(vars, clause, found)
	return found
}

func collectVars(vars *VarSet, t *term.Term, found *VarSet) {
	if vars.Contains(t) {
		found.Add(t)
		return
	}
	for _, c := range t.Out() {
		collectVars(vars, c, found)
	}
}

// IsConstant reports whether no declared variable occurs anywhere in the
// clause's tree. Constant clauses are irrelevant to shape matching.
func IsConstant(vars *VarSet, clause *term.Term) bool {
	return !containsAny(vars, clause)
}

func containsAny(vars *VarSet, t *term.Term) bool {
	if vars.Contains(t) {
		return true
	}
	for _, c := range t.Out() {
		if containsAny(vars, c) {
			return true
		}
	}
	return false
}

// RemoveConstants splits clauses into those that mention at least one
// declared variable (kept, in order) and the constant remainder.
func RemoveConstants(vars *VarSet, clauses []*term.Term) (kept, constants []*term.Term) {
	for _, c := range clauses {
		if IsConstant(vars, c) {
			constants = append(constants, c)
		} else {
			kept = append(kept, c)
		}
	}
	return kept, constants
}

// ConnectedComponents partitions clauses into maximal groups such that
// two clauses share a group iff they are transitively linked by sharing
// at least one declared variable. A clause sharing no variable with any
// other clause forms its own singleton group.
//
// Components are ordered by the position of their earliest clause, and
// clauses inside a component keep their input order. The returned
// variable sets follow first-occurrence order. These orderings define
// the component order the search orchestration relies on.
func ConnectedComponents(vars *VarSet, clauses []*term.Term) ([][]*term.Term, []*VarSet) {
	n := len(clauses)
	if n == 0 {
		return nil, nil
	}

	clauseVars := make([]*VarSet, n)
	for i, c := range clauses {
		clauseVars[i] = VarsIn(vars, c)
	}

	// Union-find over clause indices, linked through shared variables.
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			// Keep the smaller root so component order tracks clause order.
			if rb < ra {
				ra, rb = rb, ra
			}
			parent[rb] = ra
		}
	}

	firstClauseOf := make(map[*term.Term]int)
	for i := range clauses {
		for _, v := range clauseVars[i].Slice() {
			if j, ok := firstClauseOf[v]; ok {
				union(i, j)
			} else {
				firstClauseOf[v] = i
			}
		}
	}

	// Group clause indices by root, preserving order.
	groups := make(map[int]int) // root -> component index
	var compset [][]*term.Term
	var compvars []*VarSet
	for i, c := range clauses {
		root := find(i)
		ci, ok := groups[root]
		if !ok {
			ci = len(compset)
			groups[root] = ci
			compset = append(compset, nil)
			compvars = append(compvars, NewVarSet())
		}
		compset[ci] = append(compset[ci], c)
		for _, v := range clauseVars[i].Slice() {
			compvars[ci].Add(v)
		}
	}
	return compset, compvars
}

// BridgedComponents partitions clauses and opts together, so that
// evaluatable clauses included in the input link otherwise-disjoint
// shape components into one logical group through the variables they
// reference. The bridging clauses appear in the component lists like
// any other clause; they are never shape-matched.
func BridgedComponents(vars *VarSet, clauses, opts []*term.Term) ([][]*term.Term, []*VarSet) {
	all := make([]*term.Term, 0, len(clauses)+len(opts))
	all = append(all, clauses...)
	all = append(all, opts...)
	return ConnectedComponents(vars, all)
}

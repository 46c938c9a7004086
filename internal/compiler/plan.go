package compiler

import (
	"fmt"
	"strings"

	"github.com/roach88/groundhog/internal/pattern"
	"github.com/roach88/groundhog/internal/term"
)

// PlanWarning flags a query whose shape makes the search expensive.
//
// These are warnings, not errors, because the shapes may be intentional:
//   - Cross products over small clause groups
//   - Full scans over small stores
//   - Join cycles that prune candidates from several directions
type PlanWarning struct {
	Query   string   `json:"query"`
	Path    []string `json:"path,omitempty"` // Clauses involved, cycle paths closed
	Message string   `json:"message"`        // Human-readable description
	Level   string   `json:"level"`          // "warning" or "info"
}

// AnalyzePlans performs static search-cost analysis on a bundle's queries.
//
// It inspects each compiled decomposition and reports:
//   - Cartesian products: a query whose clauses split into independent
//     groups enumerates the cross product of the groups' results.
//   - Full scans: a clause group with no constant node anywhere cannot be
//     anchored, so the search walks every term of the first clause's type.
//   - Join cycles: clauses whose shared variables form a cycle constrain
//     candidates from several directions at once (reported as info).
//
// A bundle of well-anchored, single-group queries returns an empty list.
func AnalyzePlans(b *Bundle) []PlanWarning {
	var warnings []PlanWarning
	for _, q := range b.Queries {
		warnings = append(warnings, planWarnings(q)...)
	}
	return warnings
}

// planWarnings analyzes a single compiled query.
func planWarnings(q *Query) []PlanWarning {
	if q.Compiled == nil {
		return nil
	}
	var warnings []PlanWarning

	pat := q.Compiled.Pattern
	groups := []*pattern.Pattern{pat}
	if len(q.Compiled.Components) > 0 {
		groups = nil
		for _, comp := range q.Compiled.Components {
			groups = append(groups, comp.Pattern)
		}
		warnings = append(warnings, PlanWarning{
			Query:   q.Name,
			Message: fmt.Sprintf("query %q splits into %d independent clause groups; results are their cross product", q.Name, len(q.Compiled.Components)),
			Level:   "warning",
		})
	}

	for _, group := range groups {
		if w, ok := fullScanWarning(q.Name, pat.Vars, group); ok {
			warnings = append(warnings, w)
		}
	}

	if cycle := joinCycle(pat.Vars, pat.Mandatory); len(cycle) > 0 {
		path := make([]string, 0, len(cycle)+1)
		for _, clause := range cycle {
			path = append(path, clause.String())
		}
		path = append(path, path[0])
		warnings = append(warnings, PlanWarning{
			Query:   q.Name,
			Path:    path,
			Message: fmt.Sprintf("join cycle detected: %s", strings.Join(path, " -> ")),
			Level:   "info",
		})
	}

	return warnings
}

// fullScanWarning reports a clause group with no constant node to anchor
// the search. The engine falls back to scanning every term of the first
// clause's type.
func fullScanWarning(query string, vars *pattern.VarSet, group *pattern.Pattern) (PlanWarning, bool) {
	if len(group.Mandatory) == 0 {
		return PlanWarning{}, false
	}
	for _, clause := range group.Mandatory {
		if hasConstantNode(vars, clause) {
			return PlanWarning{}, false
		}
	}
	first := group.Mandatory[0]
	return PlanWarning{
		Query:   query,
		Path:    []string{first.String()},
		Message: fmt.Sprintf("no constant anchors clause %s; the search scans every %s term", first, first.Type()),
		Level:   "warning",
	}, true
}

// hasConstantNode reports whether the clause contains any non-variable
// node to anchor the search.
func hasConstantNode(vars *pattern.VarSet, clause *term.Term) bool {
	if vars.Contains(clause) {
		return false
	}
	if clause.IsNode() {
		return true
	}
	for _, child := range clause.Out() {
		if hasConstantNode(vars, child) {
			return true
		}
	}
	return false
}

// joinCycle detects a cycle in the clause-variable incidence graph and
// returns the clauses on one such cycle, or nil.
//
// The graph is bipartite: clause nodes on one side, variable nodes on the
// other, an edge where a variable occurs in a clause. A cycle means two
// clauses are connected through more than one variable path, so grounding
// order constrains candidates from several directions.
func joinCycle(vars *pattern.VarSet, clauses []*term.Term) []*term.Term {
	if len(clauses) < 2 {
		return nil
	}

	// Index variables that occur in any clause
	varIndex := make(map[*term.Term]int)
	var incidence [][]int // per clause, the variable indexes it touches
	for _, clause := range clauses {
		seen := make(map[int]bool)
		var touched []int
		var walk func(t *term.Term)
		walk = func(t *term.Term) {
			if vars.Contains(t) {
				idx, ok := varIndex[t]
				if !ok {
					idx = len(varIndex)
					varIndex[t] = idx
				}
				if !seen[idx] {
					seen[idx] = true
					touched = append(touched, idx)
				}
				return
			}
			for _, child := range t.Out() {
				walk(child)
			}
		}
		walk(clause)
		incidence = append(incidence, touched)
	}

	// Bipartite adjacency: clause c is node c, variable v is node n+v
	n := len(clauses)
	total := n + len(varIndex)
	adj := make([][]int, total)
	for c, touched := range incidence {
		for _, v := range touched {
			adj[c] = append(adj[c], n+v)
			adj[n+v] = append(adj[n+v], c)
		}
	}

	// DFS with parent tracking; an edge back into the active path that is
	// not the tree edge closes a cycle.
	const (
		unvisited = iota
		active
		done
	)
	state := make([]int, total)
	parent := make([]int, total)
	for i := range parent {
		parent[i] = -1
	}

	var cycle []int
	var dfs func(u int) bool
	dfs = func(u int) bool {
		state[u] = active
		for _, v := range adj[u] {
			if v == parent[u] {
				continue
			}
			if state[v] == active {
				cycle = append(cycle, u)
				for x := parent[u]; x != -1 && x != v; x = parent[x] {
					cycle = append(cycle, x)
				}
				cycle = append(cycle, v)
				return true
			}
			if state[v] == unvisited {
				parent[v] = u
				if dfs(v) {
					return true
				}
			}
		}
		state[u] = done
		return false
	}

	for i := 0; i < total && cycle == nil; i++ {
		if state[i] == unvisited {
			dfs(i)
		}
	}
	if cycle == nil {
		return nil
	}

	// Keep the clause nodes, in cycle order
	var out []*term.Term
	for i := len(cycle) - 1; i >= 0; i-- {
		if cycle[i] < n {
			out = append(out, clauses[cycle[i]])
		}
	}
	return out
}

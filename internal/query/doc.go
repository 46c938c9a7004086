// Package query grounds compiled patterns against a graph store.
//
// Grounding means finding, for each declared variable, a stored term such
// that every mandatory clause of the pattern is present in the graph and
// every virtual clause evaluates to true under those assignments.
//
// ARCHITECTURE:
//
// Single-Writer Search:
// A query runs in one goroutine. The Engine performs a depth-first
// backtracking search over one connected component at a time:
//  1. The callback picks a starting clause and anchor (InitiateSearch)
//  2. Candidates are lifted from the anchor through incoming sets
//  3. treeCompare walks clause and candidate in lockstep, binding variables
//  4. Each grounded clause narrows the candidates for the next clause
//  5. A fully grounded component is reported through Callback.Grounding
//
// Multi-Component Flow:
// Patterns whose clauses fall into several variable-disjoint components
// (held together only by virtual clauses) are satisfied per component
// first. Satisfy collects each component's groundings, then recombines
// them as a lazy cartesian product: virtual clauses filter each combined
// assignment, and the first accepted combination stops the search.
//
// Determinism:
// Candidates are explored in store insertion order, components in clause
// order, and combinations with the earliest component varying fastest.
// Trace events are stamped with a monotonic seq from Clock.Next(), so two
// runs over the same store produce identical traces.
//
// The search is designed for correctness and reproducibility, not
// throughput. Nothing in this package mutates the store.
package query

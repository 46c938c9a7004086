// Package pattern compiles raw queries into searchable patterns.
//
// A raw query is a declared variable set plus mandatory and optional
// clauses (term trees). Compilation classifies clauses (constant,
// virtual, fixed), partitions the shape-matched clauses into connected
// components over shared variables, and validates connectivity: more
// than one component is malformed unless virtual clauses bridge the
// components carrying mandatory clauses into a single logical group.
//
// Compiled patterns are built once, ahead of search, and are read-only
// thereafter.
package pattern

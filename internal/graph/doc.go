// Package graph provides the in-memory hypergraph store.
//
// A Store interns terms so that structural equality becomes pointer
// equality, and maintains two indexes over the interned population: a
// per-type bitmap and a per-term incoming-set bitmap (the links in which
// a term appears directly as a child). Both are Roaring bitmaps keyed by
// dense store-assigned IDs, so index intersections stay cheap even on
// large stores.
//
// A Store is not safe for concurrent mutation. Searches treat the store
// as read-only.
package graph

// Package term provides the hypergraph term model for groundhog.
//
// A term is either a node (type + name) or a link (type + ordered child
// terms). Terms are immutable after construction and carry a
// content-addressed hash, so structurally equal terms always hash equal.
// All other internal packages import term; term imports nothing internal.
//
// Key design constraints:
//   - Terms are never mutated after construction
//   - Node names are NFC normalized before hashing
//   - Number payloads use a canonical decimal form ("3", not "3.0")
//   - Identity comparison of interned terms is pointer equality
package term

package query

import "github.com/roach88/groundhog/internal/term"

// Bindings maps pattern-side terms to graph terms. Two maps flow through
// every search: variable bindings (Variable node -> grounding) and term
// bindings (whole clause -> the stored term that matched it).
//
// Keys and values are interned terms, so equality is pointer equality.
type Bindings map[*term.Term]*term.Term

// Clone returns an independent shallow copy. Terms themselves are
// immutable and shared.
func (b Bindings) Clone() Bindings {
	out := make(Bindings, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// mergeFrom copies entries from other into b. Existing keys are kept, so
// merging never rebinds a variable; callers rely on the maps being
// disjoint in the first place.
func (b Bindings) mergeFrom(other Bindings) {
	for k, v := range other {
		if _, ok := b[k]; ok {
			continue
		}
		b[k] = v
	}
}

// Result is one accepted grounding: a snapshot of both binding maps,
// detached from the engine's working state.
type Result struct {
	Vars  Bindings
	Terms Bindings
}

// Binding returns the grounding of the variable with the given name, or
// nil. Callers outside the interning store match variables by name, not
// pointer.
func (r Result) Binding(name string) *term.Term {
	for v, g := range r.Vars {
		if v.Name() == name {
			return g
		}
	}
	return nil
}

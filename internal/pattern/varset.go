package pattern

import "github.com/roach88/groundhog/internal/term"

// VarSet is an ordered set of variable terms. Membership is by pointer,
// so variables must be interned in the same store as the clauses that
// use them. Iteration follows insertion order, which keeps component
// decomposition deterministic.
type VarSet struct {
	set   map[*term.Term]struct{}
	order []*term.Term
}

// NewVarSet builds a set from the given variables, dropping duplicates.
func NewVarSet(vars ...*term.Term) *VarSet {
	vs := &VarSet{set: make(map[*term.Term]struct{}, len(vars))}
	for _, v := range vars {
		vs.Add(v)
	}
	return vs
}

// Add inserts a variable. Re-adding is a no-op.
func (vs *VarSet) Add(v *term.Term) {
	if _, ok := vs.set[v]; ok {
		return
	}
	vs.set[v] = struct{}{}
	vs.order = append(vs.order, v)
}

// Contains reports membership.
func (vs *VarSet) Contains(v *term.Term) bool {
	if vs == nil {
		return false
	}
	_, ok := vs.set[v]
	return ok
}

// Len returns the number of variables.
func (vs *VarSet) Len() int {
	if vs == nil {
		return 0
	}
	return len(vs.order)
}

// Slice returns the variables in insertion order. The slice is borrowed;
// callers must not mutate it.
func (vs *VarSet) Slice() []*term.Term {
	if vs == nil {
		return nil
	}
	return vs.order
}

// Intersects reports whether the two sets share any variable.
func (vs *VarSet) Intersects(other *VarSet) bool {
	if vs == nil || other == nil {
		return false
	}
	small, large := vs, other
	if large.Len() < small.Len() {
		small, large = large, small
	}
	for _, v := range small.order {
		if large.Contains(v) {
			return true
		}
	}
	return false
}

package pattern

import (
	"fmt"

	"github.com/roach88/groundhog/internal/term"
)

// Pattern is a compiled query: its variable set and its clauses after
// classification. Mandatory holds the fixed (shape-matched) clauses;
// Virtuals the evaluated clauses; Optionals the preferred-but-not-
// required clauses; Constants the variable-free clauses stripped from
// matching.
type Pattern struct {
	Vars      *VarSet
	Mandatory []*term.Term
	Virtuals  []*term.Term
	Optionals []*term.Term
	Constants []*term.Term
}

// IsPureOptional reports whether the pattern consists solely of optional
// clauses.
func (p *Pattern) IsPureOptional() bool {
	return len(p.Mandatory) == 0 && len(p.Optionals) > 0
}

// Compiled is a pattern plus its connected-component decomposition.
// Components is nil when the pattern forms at most one component (the
// search fast path); otherwise it holds one sub-pattern per component,
// in component order. Sub-patterns never carry virtual or constant
// clauses: virtuals belong to the parent, constants were stripped.
type Compiled struct {
	Pattern    *Pattern
	Components []*Compiled
}

// Compile classifies and decomposes a raw query.
//
// Validation rejects: empty queries; declared variables that are not
// Variable nodes; queries in which no declared variable occurs in any
// clause; evaluatable optional clauses; virtual clauses using variables
// no shape clause binds; and multiple mandatory components that virtual
// clauses do not bridge into a single logical group.
func Compile(vars, mandatory, optionals []*term.Term) (*Compiled, error) {
	if len(mandatory)+len(optionals) == 0 {
		return nil, &ValidateError{Code: ErrCodeNoClauses, Message: "query has no clauses"}
	}
	for _, v := range vars {
		if !v.IsVariable() {
			return nil, &ValidateError{
				Code:    ErrCodeNotAVariable,
				Message: fmt.Sprintf("declared variable has type %s", v.Type()),
				Clause:  v,
			}
		}
	}
	vs := NewVarSet(vars...)

	for _, opt := range optionals {
		if opt.IsEvaluatable() {
			return nil, &ValidateError{
				Code:    ErrCodeEvaluatableOptional,
				Message: "optional clauses must be shape-matched",
				Clause:  opt,
			}
		}
	}

	// Classification order matters: a variable-free evaluatable clause is
	// a constant, checked once at search setup, never a virtual.
	kept, constants := RemoveConstants(vs, mandatory)
	var fixed, virtuals []*term.Term
	for _, c := range kept {
		if c.IsEvaluatable() {
			virtuals = append(virtuals, c)
		} else {
			fixed = append(fixed, c)
		}
	}

	shapeVars := NewVarSet()
	for _, c := range fixed {
		for _, v := range VarsIn(vs, c).Slice() {
			shapeVars.Add(v)
		}
	}
	for _, c := range optionals {
		for _, v := range VarsIn(vs, c).Slice() {
			shapeVars.Add(v)
		}
	}
	if shapeVars.Len() == 0 && len(virtuals) == 0 {
		return nil, &ValidateError{
			Code:    ErrCodeNoVariableUse,
			Message: "no declared variable occurs in any clause",
		}
	}
	for _, virt := range virtuals {
		for _, v := range VarsIn(vs, virt).Slice() {
			if !shapeVars.Contains(v) {
				return nil, &ValidateError{
					Code:    ErrCodeUnanchoredVirtual,
					Message: fmt.Sprintf("variable %s is only used in evaluated clauses", v),
					Clause:  virt,
				}
			}
		}
	}

	shaped := make([]*term.Term, 0, len(fixed)+len(optionals))
	shaped = append(shaped, fixed...)
	shaped = append(shaped, optionals...)
	compset, compvars := ConnectedComponents(vs, shaped)

	pat := &Pattern{
		Vars:      vs,
		Mandatory: fixed,
		Virtuals:  virtuals,
		Optionals: optionals,
		Constants: constants,
	}
	if len(compset) <= 1 {
		return &Compiled{Pattern: pat}, nil
	}

	// Multiple shape components: virtual clauses must bridge every
	// component that carries mandatory clauses into one logical group.
	// Components made solely of optionals are exempt; they contribute an
	// existence check, not a conjunct.
	isMandatory := make(map[*term.Term]bool, len(fixed)+len(virtuals))
	for _, c := range fixed {
		isMandatory[c] = true
	}
	for _, c := range virtuals {
		isMandatory[c] = true
	}
	bridgeable := make([]*term.Term, 0, len(fixed)+len(virtuals))
	bridgeable = append(bridgeable, fixed...)
	bridgeable = append(bridgeable, virtuals...)
	bridged, _ := BridgedComponents(vs, bridgeable, optionals)
	mandatoryGroups := 0
	for _, group := range bridged {
		for _, c := range group {
			if isMandatory[c] {
				mandatoryGroups++
				break
			}
		}
	}
	if mandatoryGroups > 1 {
		return nil, &ValidateError{
			Code:    ErrCodeDisconnected,
			Message: fmt.Sprintf("%d unrelated mandatory clause groups; no virtual clause bridges them", mandatoryGroups),
		}
	}

	isFixed := make(map[*term.Term]bool, len(fixed))
	for _, c := range fixed {
		isFixed[c] = true
	}
	compiled := &Compiled{Pattern: pat}
	for i, comp := range compset {
		var compFixed, compOpts []*term.Term
		for _, c := range comp {
			if isFixed[c] {
				compFixed = append(compFixed, c)
			} else {
				compOpts = append(compOpts, c)
			}
		}
		compiled.Components = append(compiled.Components, &Compiled{
			Pattern: &Pattern{
				Vars:      compvars[i],
				Mandatory: compFixed,
				Optionals: compOpts,
			},
		})
	}
	return compiled, nil
}

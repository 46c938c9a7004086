package term

// Type identifies the kind of a term. The zero value is invalid.
type Type uint8

const (
	TypeInvalid Type = iota

	// Node types.
	TypeConcept
	TypePredicate
	TypeGroundedPredicate
	TypeVariable
	TypeNumber

	// Link types.
	TypeList
	TypeInheritance
	TypeMember
	TypeEvaluation
	TypeGreaterThan
	TypeLessThan
	TypeEqual

	maxType
)

// typeInfo describes one entry in the type registry.
type typeInfo struct {
	name string
	node bool
	// evaluatable marks link types whose clauses are evaluated rather
	// than shape-matched against the store.
	evaluatable bool
}

var typeTable = [maxType]typeInfo{
	TypeInvalid:           {name: "Invalid"},
	TypeConcept:           {name: "Concept", node: true},
	TypePredicate:         {name: "Predicate", node: true},
	TypeGroundedPredicate: {name: "GroundedPredicate", node: true},
	TypeVariable:          {name: "Variable", node: true},
	TypeNumber:            {name: "Number", node: true},
	TypeList:              {name: "List"},
	TypeInheritance:       {name: "Inheritance"},
	TypeMember:            {name: "Member"},
	TypeEvaluation:        {name: "Evaluation"},
	TypeGreaterThan:       {name: "GreaterThan", evaluatable: true},
	TypeLessThan:          {name: "LessThan", evaluatable: true},
	TypeEqual:             {name: "Equal", evaluatable: true},
}

// typesByName is the reverse index of typeTable, built at init.
var typesByName = func() map[string]Type {
	m := make(map[string]Type, maxType)
	for t := Type(1); t < maxType; t++ {
		m[typeTable[t].name] = t
	}
	return m
}()

// TypeByName resolves a registry name ("Concept", "Inheritance", ...) to
// its Type. The second result is false for unknown names.
func TypeByName(name string) (Type, bool) {
	t, ok := typesByName[name]
	return t, ok
}

// String returns the registry name of the type.
func (t Type) String() string {
	if t >= maxType {
		return "Invalid"
	}
	return typeTable[t].name
}

// IsNode reports whether the type is a node type.
func (t Type) IsNode() bool {
	return t < maxType && typeTable[t].node
}

// IsLink reports whether the type is a link type.
func (t Type) IsLink() bool {
	return t > TypeInvalid && t < maxType && !typeTable[t].node
}

// IsEvaluatable reports whether links of this type are evaluated instead
// of shape-matched. Evaluation links are not flagged here: they are only
// evaluatable when their first child is a GroundedPredicate, which is a
// per-term property (see Term.IsEvaluatable).
func (t Type) IsEvaluatable() bool {
	return t < maxType && typeTable[t].evaluatable
}

package term

import (
	"fmt"
	"strconv"
	"strings"
)

// Term is an immutable hypergraph term: a node (type + name) or a link
// (type + ordered children). Construct terms only through NewNode and
// NewLink; the content hash is computed eagerly and never changes.
//
// Terms are shared freely across stores, patterns, and groundings. Callers
// must never mutate the slice returned by Out.
type Term struct {
	typ  Type
	name string
	out  []*Term
	hash string
}

// NewNode constructs a node term. The name is NFC normalized; Number
// names are additionally rewritten to canonical decimal form.
//
// Panics if typ is not a node type or if a Number name does not parse:
// both are programmer errors. Front ends that accept untrusted text
// validate through FromLiteral first.
func NewNode(typ Type, name string) *Term {
	if !typ.IsNode() {
		panic(fmt.Sprintf("term: NewNode called with link type %s", typ))
	}
	name = normalizeName(name)
	if typ == TypeNumber {
		f, err := strconv.ParseFloat(name, 64)
		if err != nil {
			panic(fmt.Sprintf("term: invalid Number name %q", name))
		}
		name = formatNumber(f)
	}
	t := &Term{typ: typ, name: name}
	t.hash = hashNode(typ, name)
	return t
}

// NewLink constructs a link term over the given children.
//
// Panics if typ is not a link type or any child is nil.
func NewLink(typ Type, out ...*Term) *Term {
	if !typ.IsLink() {
		panic(fmt.Sprintf("term: NewLink called with node type %s", typ))
	}
	for i, c := range out {
		if c == nil {
			panic(fmt.Sprintf("term: NewLink %s with nil child at %d", typ, i))
		}
	}
	t := &Term{typ: typ, out: out}
	t.hash = hashLink(typ, out)
	return t
}

// Convenience constructors for the common node types. Tests and fixtures
// lean on these heavily.

// Concept constructs a Concept node.
func Concept(name string) *Term { return NewNode(TypeConcept, name) }

// Predicate constructs a Predicate node.
func Predicate(name string) *Term { return NewNode(TypePredicate, name) }

// GroundedPredicate constructs a GroundedPredicate node. By convention the
// name carries an evaluation scheme prefix, e.g. "expr:" or "go:".
func GroundedPredicate(name string) *Term { return NewNode(TypeGroundedPredicate, name) }

// Var constructs a Variable node. By convention names start with "$".
func Var(name string) *Term { return NewNode(TypeVariable, name) }

// Number constructs a Number node from a float64 payload.
func Number(v float64) *Term { return NewNode(TypeNumber, formatNumber(v)) }

// List constructs a List link.
func List(out ...*Term) *Term { return NewLink(TypeList, out...) }

// Type returns the term's type.
func (t *Term) Type() Type { return t.typ }

// Name returns the node name. Empty for links.
func (t *Term) Name() string { return t.name }

// Out returns the link's children, borrowed from the term. Nil for nodes.
func (t *Term) Out() []*Term { return t.out }

// Arity returns the number of children. Zero for nodes.
func (t *Term) Arity() int { return len(t.out) }

// IsNode reports whether the term is a node.
func (t *Term) IsNode() bool { return t.typ.IsNode() }

// IsLink reports whether the term is a link.
func (t *Term) IsLink() bool { return t.typ.IsLink() }

// IsVariable reports whether the term is a Variable node.
func (t *Term) IsVariable() bool { return t.typ == TypeVariable }

// Hash returns the content-addressed identity of the term.
func (t *Term) Hash() string { return t.hash }

// Equal reports structural equality via the content hash. Interned terms
// can be compared by pointer instead.
func (t *Term) Equal(o *Term) bool {
	if t == nil || o == nil {
		return t == o
	}
	return t.hash == o.hash
}

// IsEvaluatable reports whether this term, used as a clause, is evaluated
// rather than shape-matched: either its type is an evaluatable link type,
// or it is an Evaluation link whose first child is a GroundedPredicate.
func (t *Term) IsEvaluatable() bool {
	if t.typ.IsEvaluatable() {
		return true
	}
	return t.typ == TypeEvaluation && len(t.out) > 0 &&
		t.out[0].typ == TypeGroundedPredicate
}

// NumberValue returns the numeric payload of a Number node.
func (t *Term) NumberValue() (float64, bool) {
	if t.typ != TypeNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(t.name, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// String renders the term as an s-expression, e.g.
// "(Inheritance (Concept cat) (Concept animal))". The rendering is
// deterministic and is what harness expectations and traces use.
func (t *Term) String() string {
	var b strings.Builder
	t.writeString(&b)
	return b.String()
}

func (t *Term) writeString(b *strings.Builder) {
	b.WriteByte('(')
	b.WriteString(t.typ.String())
	if t.IsNode() {
		b.WriteByte(' ')
		b.WriteString(t.name)
	} else {
		for _, c := range t.out {
			b.WriteByte(' ')
			c.writeString(b)
		}
	}
	b.WriteByte(')')
}

// formatNumber renders a float64 in canonical decimal form: shortest
// representation that round-trips, so 3.0 prints as "3".
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

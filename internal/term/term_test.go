package term

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNodeHashDeterminism(t *testing.T) {
	a := Concept("cat")
	b := Concept("cat")

	assert.Equal(t, a.Hash(), b.Hash(), "Equal nodes must hash equal")
	assert.Len(t, a.Hash(), 64, "SHA-256 hex is 64 characters")
	assert.True(t, a.Equal(b))
}

func TestNodeHashChangesWithContent(t *testing.T) {
	cat := Concept("cat")
	dog := Concept("dog")
	catPred := Predicate("cat")

	assert.NotEqual(t, cat.Hash(), dog.Hash(), "Different names must hash differently")
	assert.NotEqual(t, cat.Hash(), catPred.Hash(), "Different types must hash differently")
}

func TestLinkHashDeterminism(t *testing.T) {
	mk := func() *Term {
		return NewLink(TypeInheritance, Concept("cat"), Concept("animal"))
	}

	assert.Equal(t, mk().Hash(), mk().Hash(), "Equal links must hash equal")
}

func TestLinkHashIsPositional(t *testing.T) {
	ab := NewLink(TypeInheritance, Concept("a"), Concept("b"))
	ba := NewLink(TypeInheritance, Concept("b"), Concept("a"))

	assert.NotEqual(t, ab.Hash(), ba.Hash(), "Child order must change the hash")
}

func TestNodeLinkDomainSeparation(t *testing.T) {
	// A node and a link can never collide even if their preimages align.
	node := Concept("x")
	link := NewLink(TypeList)

	assert.NotEqual(t, node.Hash(), link.Hash())
}

func TestNameNormalization(t *testing.T) {
	// U+00E9 (é) versus e + U+0301 (combining acute): NFC collapses both
	// to the same name, so the hashes agree.
	composed := Concept("café")
	decomposed := Concept("café")

	assert.Equal(t, composed.Name(), decomposed.Name())
	assert.Equal(t, composed.Hash(), decomposed.Hash(), "NFC normalization must unify equivalent names")
}

func TestNumberCanonicalForm(t *testing.T) {
	a := NewNode(TypeNumber, "3.0")
	b := NewNode(TypeNumber, "3")
	c := Number(3)

	assert.Equal(t, "3", a.Name(), "Number names are canonical decimal")
	assert.Equal(t, a.Hash(), b.Hash())
	assert.Equal(t, a.Hash(), c.Hash())

	v, ok := c.NumberValue()
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
}

func TestNumberValueOnNonNumber(t *testing.T) {
	_, ok := Concept("3").NumberValue()
	assert.False(t, ok, "Concept nodes carry no numeric payload")
}

func TestConstructorPanics(t *testing.T) {
	assert.Panics(t, func() { NewNode(TypeInheritance, "x") }, "Node constructor rejects link types")
	assert.Panics(t, func() { NewLink(TypeConcept, Concept("x")) }, "Link constructor rejects node types")
	assert.Panics(t, func() { NewNode(TypeNumber, "not-a-number") })
	assert.Panics(t, func() { NewLink(TypeList, nil) })
}

func TestTermString(t *testing.T) {
	assert.Equal(t, "(Concept cat)", Concept("cat").String())
	assert.Equal(t, "(Variable $x)", Var("$x").String())
	assert.Equal(t,
		"(Inheritance (Concept cat) (Concept animal))",
		NewLink(TypeInheritance, Concept("cat"), Concept("animal")).String())
	assert.Equal(t,
		"(Evaluation (Predicate likes) (List (Concept alice) (Concept bob)))",
		NewLink(TypeEvaluation, Predicate("likes"),
			List(Concept("alice"), Concept("bob"))).String())
}

func TestIsEvaluatable(t *testing.T) {
	gt := NewLink(TypeGreaterThan, Var("$x"), Number(2))
	assert.True(t, gt.IsEvaluatable(), "Comparison links are evaluated, not shape-matched")

	grounded := NewLink(TypeEvaluation,
		GroundedPredicate("expr: args[0] > 1"),
		List(Var("$x")))
	assert.True(t, grounded.IsEvaluatable(), "Evaluation over a GroundedPredicate is evaluated")

	plain := NewLink(TypeEvaluation, Predicate("likes"), List(Var("$x"), Var("$y")))
	assert.False(t, plain.IsEvaluatable(), "Evaluation over a plain Predicate is shape-matched")

	inh := NewLink(TypeInheritance, Var("$x"), Concept("animal"))
	assert.False(t, inh.IsEvaluatable())
}

func TestAccessors(t *testing.T) {
	cat := Concept("cat")
	assert.True(t, cat.IsNode())
	assert.False(t, cat.IsLink())
	assert.Equal(t, 0, cat.Arity())
	assert.Nil(t, cat.Out())

	link := List(cat, Concept("dog"))
	assert.True(t, link.IsLink())
	assert.Equal(t, 2, link.Arity())
	assert.Equal(t, cat, link.Out()[0])
	assert.Empty(t, link.Name())

	assert.True(t, Var("$x").IsVariable())
	assert.False(t, cat.IsVariable())
}

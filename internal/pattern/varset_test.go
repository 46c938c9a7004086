package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/groundhog/internal/term"
)

func TestVarSetAddAndContains(t *testing.T) {
	x := term.Var("$x")
	y := term.Var("$y")

	vs := NewVarSet(x, y, x)
	assert.Equal(t, 2, vs.Len(), "Duplicates are dropped")
	assert.True(t, vs.Contains(x))
	assert.True(t, vs.Contains(y))
	assert.False(t, vs.Contains(term.Var("$x")), "Membership is by pointer, not structure")
}

func TestVarSetOrder(t *testing.T) {
	x := term.Var("$x")
	y := term.Var("$y")
	z := term.Var("$z")

	vs := NewVarSet(z, x)
	vs.Add(y)
	vs.Add(z)

	assert.Equal(t, []*term.Term{z, x, y}, vs.Slice(), "Insertion order is preserved")
}

func TestVarSetIntersects(t *testing.T) {
	x := term.Var("$x")
	y := term.Var("$y")
	z := term.Var("$z")

	a := NewVarSet(x, y)
	b := NewVarSet(y, z)
	c := NewVarSet(z)

	assert.True(t, a.Intersects(b))
	assert.True(t, b.Intersects(a))
	assert.False(t, a.Intersects(c))
	assert.False(t, a.Intersects(nil))
	assert.False(t, (*VarSet)(nil).Intersects(a))
}

func TestVarSetNilSafety(t *testing.T) {
	var vs *VarSet
	assert.Equal(t, 0, vs.Len())
	assert.False(t, vs.Contains(term.Var("$x")))
	assert.Nil(t, vs.Slice())
}

package compiler

import (
	"testing"

	"cuelang.org/go/cue/cuecontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/groundhog/internal/term"
)

func TestCompileBundleBasic(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		graph: facts: [
			["Inheritance", ["Concept", "cat"], ["Concept", "animal"]],
			["Inheritance", ["Concept", "dog"], ["Concept", "animal"]],
		]

		queries: animals: {
			vars: ["$x"]
			find: [["Inheritance", "$x", ["Concept", "animal"]]]
		}
	`)

	require.NoError(t, v.Err())
	b, err := CompileBundle(v)
	require.NoError(t, err)

	assert.Len(t, b.Facts, 2)
	assert.Len(t, b.Queries, 1)
	assert.Equal(t, "animals", b.Queries[0].Name)
	assert.Equal(t, "(Inheritance (Concept cat) (Concept animal))", b.Facts[0].String())
}

func TestCompileBundleFactsShareStructure(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		graph: facts: [
			["Inheritance", ["Concept", "cat"], ["Concept", "animal"]],
			["Inheritance", ["Concept", "dog"], ["Concept", "animal"]],
		]
	`)

	require.NoError(t, v.Err())
	b, err := CompileBundle(v)
	require.NoError(t, err)

	// cat, dog, animal, and two links; the shared animal node interns once
	assert.Equal(t, 5, b.Graph.Len())
}

func TestCompileBundleFactsOnly(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		graph: facts: [["Concept", "solo"]]
	`)

	require.NoError(t, v.Err())
	b, err := CompileBundle(v)
	require.NoError(t, err)

	assert.Len(t, b.Facts, 1)
	assert.Empty(t, b.Queries)
}

func TestCompileBundleQueriesOnly(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		queries: members: {
			vars: ["$x"]
			find: [["Member", "$x", ["Concept", "club"]]]
		}
	`)

	require.NoError(t, v.Err())
	b, err := CompileBundle(v)
	require.NoError(t, err)

	assert.Empty(t, b.Facts)
	assert.Len(t, b.Queries, 1)
	assert.Equal(t, 0, b.Graph.Len(), "query clauses must not leak into the bundle graph")
}

func TestCompileBundleEmpty(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`other: 1`)

	require.NoError(t, v.Err())
	_, err := CompileBundle(v)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "neither")
}

func TestCompileBundleBadFactLiteral(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		graph: facts: [
			["Bogus", ["Concept", "cat"]],
		]
	`)

	require.NoError(t, v.Err())
	_, err := CompileBundle(v)

	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "graph.facts[0]", ce.Field)
	assert.Contains(t, ce.Message, "Bogus")
}

func TestCompileBundleFactPosition(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`graph: facts: [[]]`)

	require.NoError(t, v.Err())
	_, err := CompileBundle(v)

	require.Error(t, err)
	var ce *CompileError
	require.ErrorAs(t, err, &ce)
	assert.True(t, ce.Pos.IsValid(), "fact errors should carry a source position")
}

func TestCompileBundleNumberFacts(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		graph: facts: [
			["Member", ["Number", "1"], ["Concept", "nums"]],
			["Member", 2, ["Concept", "nums"]],
		]
	`)

	require.NoError(t, v.Err())
	b, err := CompileBundle(v)
	require.NoError(t, err)

	require.Len(t, b.Facts, 2)
	assert.Equal(t, term.TypeNumber, b.Facts[0].Out()[0].Type())
	assert.Equal(t, term.TypeNumber, b.Facts[1].Out()[0].Type())
	assert.Equal(t, "(Member (Number 2) (Concept nums))", b.Facts[1].String())
}

func TestBundleQueryLookup(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		queries: {
			first: {
				vars: ["$x"]
				find: [["Member", "$x", ["Concept", "a"]]]
			}
			second: {
				vars: ["$y"]
				find: [["Member", "$y", ["Concept", "b"]]]
			}
		}
	`)

	require.NoError(t, v.Err())
	b, err := CompileBundle(v)
	require.NoError(t, err)

	q, ok := b.Query("second")
	require.True(t, ok)
	assert.Equal(t, "second", q.Name)

	_, ok = b.Query("missing")
	assert.False(t, ok)
}

func TestCompileBundleDocumentOrder(t *testing.T) {
	ctx := cuecontext.New()
	v := ctx.CompileString(`
		queries: {
			zebra: {
				vars: ["$x"]
				find: [["Member", "$x", ["Concept", "z"]]]
			}
			apple: {
				vars: ["$x"]
				find: [["Member", "$x", ["Concept", "a"]]]
			}
		}
	`)

	require.NoError(t, v.Err())
	b, err := CompileBundle(v)
	require.NoError(t, err)

	require.Len(t, b.Queries, 2)
	assert.Equal(t, "zebra", b.Queries[0].Name)
	assert.Equal(t, "apple", b.Queries[1].Name)
}

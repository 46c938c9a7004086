package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/groundhog/internal/graph"
	"github.com/roach88/groundhog/internal/term"
)

// createTestStore creates a new store backed by a temp file.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestGraph interns a small mixed graph: nodes, nested links, and a
// child shared between two parents.
func createTestGraph(t *testing.T) *graph.Store {
	t.Helper()
	g := graph.New()
	cat := term.Concept("cat")
	animal := term.Concept("animal")
	g.Intern(term.NewLink(term.TypeInheritance, cat, animal))
	g.Intern(term.NewLink(term.TypeMember, cat, term.Concept("pets")))
	g.Intern(term.NewLink(term.TypeEvaluation,
		term.Predicate("likes"),
		term.List(term.Concept("alice"), cat),
	))
	return g
}

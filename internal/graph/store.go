package graph

import (
	"github.com/RoaringBitmap/roaring/v2"

	"github.com/roach88/groundhog/internal/term"
)

// Store is the in-memory hypergraph store: an interning table plus type
// and incoming-set indexes.
type Store struct {
	byHash map[string]*term.Term
	ids    map[*term.Term]uint32
	terms  []*term.Term // dense, index == id

	byType   map[term.Type]*roaring.Bitmap
	incoming map[uint32]*roaring.Bitmap
}

// New creates an empty store.
func New() *Store {
	return &Store{
		byHash:   make(map[string]*term.Term),
		ids:      make(map[*term.Term]uint32),
		byType:   make(map[term.Type]*roaring.Bitmap),
		incoming: make(map[uint32]*roaring.Bitmap),
	}
}

// Intern adds a term tree to the store and returns its canonical
// representative. Children are interned first, so a link's children are
// always canonical pointers. Interning an already-present tree is a
// no-op that returns the existing representative.
func (s *Store) Intern(t *term.Term) *term.Term {
	if existing, ok := s.byHash[t.Hash()]; ok {
		return existing
	}

	canonical := t
	if t.IsLink() {
		out := t.Out()
		children := make([]*term.Term, len(out))
		rebuilt := false
		for i, c := range out {
			children[i] = s.Intern(c)
			if children[i] != c {
				rebuilt = true
			}
		}
		if rebuilt {
			canonical = term.NewLink(t.Type(), children...)
		}
	}

	id := uint32(len(s.terms))
	s.terms = append(s.terms, canonical)
	s.byHash[canonical.Hash()] = canonical
	s.ids[canonical] = id

	tb := s.byType[canonical.Type()]
	if tb == nil {
		tb = roaring.New()
		s.byType[canonical.Type()] = tb
	}
	tb.Add(id)

	for _, c := range canonical.Out() {
		cid := s.ids[c]
		in := s.incoming[cid]
		if in == nil {
			in = roaring.New()
			s.incoming[cid] = in
		}
		in.Add(id)
	}
	return canonical
}

// InternLiteral builds a term from the shared literal grammar and
// interns it.
func (s *Store) InternLiteral(v any) (*term.Term, error) {
	t, err := term.FromLiteral(v)
	if err != nil {
		return nil, err
	}
	return s.Intern(t), nil
}

// Lookup returns the interned term with the given content hash.
func (s *Store) Lookup(hash string) (*term.Term, bool) {
	t, ok := s.byHash[hash]
	return t, ok
}

// Contains reports whether a structurally equal term is interned.
func (s *Store) Contains(t *term.Term) bool {
	_, ok := s.byHash[t.Hash()]
	return ok
}

// Len returns the number of interned terms.
func (s *Store) Len() int {
	return len(s.terms)
}

// Incoming returns the links in which t appears directly as a child, in
// insertion order. Returns nil for terms with no parents or terms not in
// this store.
func (s *Store) Incoming(t *term.Term) []*term.Term {
	id, ok := s.ids[t]
	if !ok {
		return nil
	}
	return s.collect(s.incoming[id])
}

// IncomingOfType returns the incoming set of t restricted to links of
// the given type. The restriction is a bitmap intersection.
func (s *Store) IncomingOfType(t *term.Term, typ term.Type) []*term.Term {
	id, ok := s.ids[t]
	if !ok {
		return nil
	}
	in := s.incoming[id]
	tb := s.byType[typ]
	if in == nil || tb == nil {
		return nil
	}
	return s.collect(roaring.And(in, tb))
}

// IncomingSize returns the cardinality of t's incoming set without
// materializing it. Used by search initiation to pick rare anchors.
func (s *Store) IncomingSize(t *term.Term) uint64 {
	id, ok := s.ids[t]
	if !ok {
		return 0
	}
	in := s.incoming[id]
	if in == nil {
		return 0
	}
	return in.GetCardinality()
}

// ByType returns every interned term of the given type, in insertion
// order.
func (s *Store) ByType(typ term.Type) []*term.Term {
	return s.collect(s.byType[typ])
}

// Each calls fn for every interned term in insertion order, stopping
// early if fn returns false.
func (s *Store) Each(fn func(*term.Term) bool) {
	for _, t := range s.terms {
		if !fn(t) {
			return
		}
	}
}

// collect materializes a bitmap of ids into terms. Bitmap iteration is
// ascending, and ids are assigned sequentially, so the result is in
// insertion order.
func (s *Store) collect(b *roaring.Bitmap) []*term.Term {
	if b == nil || b.IsEmpty() {
		return nil
	}
	out := make([]*term.Term, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		out = append(out, s.terms[it.Next()])
	}
	return out
}

package store

import (
	"context"
	"fmt"

	"github.com/roach88/groundhog/internal/graph"
	"github.com/roach88/groundhog/internal/term"
)

// SaveGraph persists every term of an in-memory graph in a single
// transaction. Terms are written in the graph's insertion order, which
// interning guarantees is children-before-parents, so child rows always
// reference already-written terms.
//
// Uses ON CONFLICT(hash) DO NOTHING for idempotency - saving the same
// graph twice, or saving into a database that already holds some of the
// terms, writes only what is missing.
func (s *Store) SaveGraph(ctx context.Context, g *graph.Store) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("save graph: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	insertTerm, err := tx.PrepareContext(ctx, `
		INSERT INTO terms (hash, type, name)
		VALUES (?, ?, ?)
		ON CONFLICT(hash) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("save graph: prepare term insert: %w", err)
	}
	defer insertTerm.Close()

	insertChild, err := tx.PrepareContext(ctx, `
		INSERT INTO term_children (parent_id, position, child_id)
		VALUES (?, ?, ?)
		ON CONFLICT(parent_id, position) DO NOTHING
	`)
	if err != nil {
		return fmt.Errorf("save graph: prepare child insert: %w", err)
	}
	defer insertChild.Close()

	selectID, err := tx.PrepareContext(ctx, `
		SELECT id FROM terms WHERE hash = ?
	`)
	if err != nil {
		return fmt.Errorf("save graph: prepare id select: %w", err)
	}
	defer selectID.Close()

	ids := make(map[*term.Term]int64, g.Len())
	var walkErr error
	g.Each(func(t *term.Term) bool {
		res, err := insertTerm.ExecContext(ctx, t.Hash(), t.Type().String(), t.Name())
		if err != nil {
			walkErr = fmt.Errorf("save graph: insert term %s: %w", t.Hash(), err)
			return false
		}

		rowsAffected, err := res.RowsAffected()
		if err != nil {
			walkErr = fmt.Errorf("save graph: rows affected: %w", err)
			return false
		}

		var id int64
		if rowsAffected > 0 {
			// New row inserted - get the auto-generated ID
			id, err = res.LastInsertId()
			if err != nil {
				walkErr = fmt.Errorf("save graph: last insert id: %w", err)
				return false
			}
		} else {
			// Conflict - term already stored, fetch the existing ID
			if err := selectID.QueryRowContext(ctx, t.Hash()).Scan(&id); err != nil {
				walkErr = fmt.Errorf("save graph: select existing term %s: %w", t.Hash(), err)
				return false
			}
		}
		ids[t] = id

		for i, c := range t.Out() {
			if _, err := insertChild.ExecContext(ctx, id, i, ids[c]); err != nil {
				walkErr = fmt.Errorf("save graph: insert child %d of %s: %w", i, t.Hash(), err)
				return false
			}
		}
		return true
	})
	if walkErr != nil {
		return walkErr
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("save graph: commit: %w", err)
	}

	return nil
}

// LoadGraph reads every stored term into a fresh in-memory graph.
// Rows are consumed in ascending id order; children-before-parents
// insertion means every link's children have already been rebuilt when
// the link's row arrives.
//
// The content hash of each rebuilt term is checked against the stored
// hash, so a corrupted or hand-edited database fails loudly instead of
// producing a silently different graph.
func (s *Store) LoadGraph(ctx context.Context) (*graph.Store, error) {
	children, err := s.loadChildren(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hash, type, name
		FROM terms
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load graph: query terms: %w", err)
	}
	defer rows.Close()

	g := graph.New()
	byID := make(map[int64]*term.Term)
	for rows.Next() {
		var (
			id       int64
			hash     string
			typeName string
			name     string
		)
		if err := rows.Scan(&id, &hash, &typeName, &name); err != nil {
			return nil, fmt.Errorf("load graph: scan term: %w", err)
		}

		typ, ok := term.TypeByName(typeName)
		if !ok {
			return nil, fmt.Errorf("load graph: term %d has unknown type %q", id, typeName)
		}

		var t *term.Term
		if typ.IsNode() {
			t = term.NewNode(typ, name)
		} else {
			childIDs := children[id]
			out := make([]*term.Term, len(childIDs))
			for i, cid := range childIDs {
				c, ok := byID[cid]
				if !ok {
					return nil, fmt.Errorf("load graph: term %d references unknown child %d", id, cid)
				}
				out[i] = c
			}
			t = term.NewLink(typ, out...)
		}

		if t.Hash() != hash {
			return nil, fmt.Errorf("load graph: term %d hash mismatch: stored %s, rebuilt %s", id, hash, t.Hash())
		}
		byID[id] = g.Intern(t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load graph: iterate terms: %w", err)
	}

	return g, nil
}

// loadChildren reads the child table into per-parent ordered id slices.
// Position ordering in the query makes slice index equal child position.
func (s *Store) loadChildren(ctx context.Context) (map[int64][]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT parent_id, position, child_id
		FROM term_children
		ORDER BY parent_id ASC, position ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("load graph: query children: %w", err)
	}
	defer rows.Close()

	children := make(map[int64][]int64)
	for rows.Next() {
		var parent, position, child int64
		if err := rows.Scan(&parent, &position, &child); err != nil {
			return nil, fmt.Errorf("load graph: scan child: %w", err)
		}
		if int64(len(children[parent])) != position {
			return nil, fmt.Errorf("load graph: term %d has a gap at child position %d", parent, position)
		}
		children[parent] = append(children[parent], child)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load graph: iterate children: %w", err)
	}

	return children, nil
}

// CountTerms returns the number of stored terms.
func (s *Store) CountTerms(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM terms").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count terms: %w", err)
	}
	return count, nil
}

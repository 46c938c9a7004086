package query

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/roach88/groundhog/internal/term"
)

// PredicateFunc is a host predicate callable from Evaluation clauses via
// the "go:" scheme. Arguments arrive fully resolved: no variables remain.
type PredicateFunc func(args []*term.Term) (bool, error)

// Evaluator evaluates virtual clauses under a set of variable bindings.
//
// Two clause families are supported:
//
//   - Comparison links: GreaterThan, LessThan, Equal over two arguments.
//     GreaterThan and LessThan require Number arguments; Equal compares
//     numerically when both sides are Numbers and structurally otherwise.
//
//   - Evaluation links headed by a GroundedPredicate. The predicate name
//     selects the scheme:
//
//     "expr:<program>" compiles the program with expr-lang and runs it
//     with the clause arguments exposed as the "args" list (Numbers as
//     float64, other nodes as their name, links as their s-expression).
//     Programs must produce a boolean. Compiled programs are cached, so
//     a predicate reused across candidates compiles once.
//
//     "go:<name>" calls a PredicateFunc registered under that name.
//
// An Evaluator is not safe for concurrent use; queries run single
// threaded.
type Evaluator struct {
	predicates map[string]PredicateFunc
	programs   map[string]*vm.Program
}

// NewEvaluator creates an evaluator with no registered predicates.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		predicates: map[string]PredicateFunc{},
		programs:   map[string]*vm.Program{},
	}
}

// RegisterPredicate makes fn callable as "go:<name>". Re-registering a
// name replaces the previous function.
func (e *Evaluator) RegisterPredicate(name string, fn PredicateFunc) {
	e.predicates[name] = fn
}

// Evaluate resolves the clause's variables against vars and evaluates it.
// Every variable occurring in the clause must be bound.
func (e *Evaluator) Evaluate(clause *term.Term, vars Bindings) (bool, error) {
	resolved, err := resolveTerm(clause, vars)
	if err != nil {
		return false, err
	}
	switch resolved.Type() {
	case term.TypeGreaterThan, term.TypeLessThan, term.TypeEqual:
		return compareTerms(resolved)
	case term.TypeEvaluation:
		return e.evaluateGrounded(resolved)
	default:
		return false, &EvalError{
			Code:    ErrCodeNotEvaluatable,
			Message: fmt.Sprintf("%s clause cannot be evaluated", resolved.Type()),
			Clause:  clause,
		}
	}
}

// resolveTerm substitutes bound variables throughout t. Links are rebuilt
// only when a child actually changed, so constant subtrees keep their
// interned identity.
func resolveTerm(t *term.Term, vars Bindings) (*term.Term, error) {
	if t.IsVariable() {
		if g, ok := vars[t]; ok {
			return g, nil
		}
		return nil, &EvalError{
			Code:    ErrCodeUnboundVariable,
			Message: fmt.Sprintf("variable %s has no grounding", t.Name()),
			Clause:  t,
		}
	}
	if t.IsNode() {
		return t, nil
	}
	out := t.Out()
	resolved := make([]*term.Term, len(out))
	changed := false
	for i, child := range out {
		rc, err := resolveTerm(child, vars)
		if err != nil {
			return nil, err
		}
		if rc != child {
			changed = true
		}
		resolved[i] = rc
	}
	if !changed {
		return t, nil
	}
	return term.NewLink(t.Type(), resolved...), nil
}

func compareTerms(resolved *term.Term) (bool, error) {
	out := resolved.Out()
	if len(out) != 2 {
		return false, &EvalError{
			Code:    ErrCodeBadArguments,
			Message: fmt.Sprintf("%s takes 2 arguments, got %d", resolved.Type(), len(out)),
			Clause:  resolved,
		}
	}
	a, b := out[0], out[1]
	av, aok := a.NumberValue()
	bv, bok := b.NumberValue()

	if resolved.Type() == term.TypeEqual {
		if aok && bok {
			return av == bv, nil
		}
		return a.Equal(b), nil
	}
	if !aok || !bok {
		return false, &EvalError{
			Code:    ErrCodeBadArguments,
			Message: fmt.Sprintf("%s requires Number arguments", resolved.Type()),
			Clause:  resolved,
		}
	}
	if resolved.Type() == term.TypeGreaterThan {
		return av > bv, nil
	}
	return av < bv, nil
}

func (e *Evaluator) evaluateGrounded(resolved *term.Term) (bool, error) {
	out := resolved.Out()
	if len(out) == 0 || out[0].Type() != term.TypeGroundedPredicate {
		return false, &EvalError{
			Code:    ErrCodeNotEvaluatable,
			Message: "Evaluation clause must be headed by a GroundedPredicate",
			Clause:  resolved,
		}
	}
	args := groundedArgs(out[1:])
	name := out[0].Name()
	switch {
	case strings.HasPrefix(name, "expr:"):
		return e.runProgram(strings.TrimSpace(strings.TrimPrefix(name, "expr:")), resolved, args)
	case strings.HasPrefix(name, "go:"):
		fn, ok := e.predicates[strings.TrimPrefix(name, "go:")]
		if !ok {
			return false, &EvalError{
				Code:    ErrCodeUnknownPredicate,
				Message: fmt.Sprintf("no predicate registered as %q", name),
				Clause:  resolved,
			}
		}
		return fn(args)
	default:
		return false, &EvalError{
			Code:    ErrCodeUnknownPredicate,
			Message: fmt.Sprintf("predicate %q has no evaluation scheme prefix", name),
			Clause:  resolved,
		}
	}
}

// groundedArgs unwraps the conventional single List argument; bare
// arguments after the predicate work too.
func groundedArgs(rest []*term.Term) []*term.Term {
	if len(rest) == 1 && rest[0].Type() == term.TypeList {
		return rest[0].Out()
	}
	return rest
}

func (e *Evaluator) runProgram(src string, clause *term.Term, args []*term.Term) (bool, error) {
	prog, ok := e.programs[src]
	if !ok {
		var err error
		prog, err = expr.Compile(src)
		if err != nil {
			return false, &EvalError{
				Code:    ErrCodeBadProgram,
				Message: fmt.Sprintf("compile %q: %v", src, err),
				Clause:  clause,
			}
		}
		e.programs[src] = prog
	}
	env := map[string]any{"args": exprValues(args)}
	res, err := vm.Run(prog, env)
	if err != nil {
		return false, &EvalError{
			Code:    ErrCodeBadProgram,
			Message: fmt.Sprintf("run %q: %v", src, err),
			Clause:  clause,
		}
	}
	verdict, ok := res.(bool)
	if !ok {
		return false, &EvalError{
			Code:    ErrCodeBadProgram,
			Message: fmt.Sprintf("program %q produced %T, want bool", src, res),
			Clause:  clause,
		}
	}
	return verdict, nil
}

// exprValues converts resolved terms into expr-friendly values.
func exprValues(args []*term.Term) []any {
	vals := make([]any, len(args))
	for i, a := range args {
		if v, ok := a.NumberValue(); ok {
			vals[i] = v
			continue
		}
		if a.IsNode() {
			vals[i] = a.Name()
			continue
		}
		vals[i] = a.String()
	}
	return vals
}

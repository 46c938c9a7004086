package query

import (
	"errors"
	"fmt"

	"github.com/roach88/groundhog/internal/term"
)

// EvalError represents a failure to evaluate a virtual clause.
//
// Evaluation failures are not match failures: a virtual clause that
// evaluates to false merely rejects a candidate, while an EvalError
// aborts the whole query. Malformed programs, unknown predicates, and
// unbound variables are query bugs, not empty results.
type EvalError struct {
	// Code identifies the error category.
	Code EvalErrorCode

	// Message is a human-readable description.
	Message string

	// Clause is the term under evaluation, when known.
	Clause *term.Term
}

// EvalErrorCode categorizes evaluation errors.
type EvalErrorCode string

const (
	// ErrCodeUnboundVariable indicates a clause referenced a variable with
	// no grounding at evaluation time.
	ErrCodeUnboundVariable EvalErrorCode = "UNBOUND_VARIABLE"

	// ErrCodeNotEvaluatable indicates the clause is not an evaluatable type.
	ErrCodeNotEvaluatable EvalErrorCode = "NOT_EVALUATABLE"

	// ErrCodeBadArguments indicates wrong arity or argument types.
	ErrCodeBadArguments EvalErrorCode = "BAD_ARGUMENTS"

	// ErrCodeUnknownPredicate indicates an unregistered predicate name or
	// an unrecognized evaluation scheme.
	ErrCodeUnknownPredicate EvalErrorCode = "UNKNOWN_PREDICATE"

	// ErrCodeBadProgram indicates an expression program failed to compile,
	// failed at runtime, or produced a non-boolean result.
	ErrCodeBadProgram EvalErrorCode = "BAD_PROGRAM"
)

// Error implements the error interface.
func (e *EvalError) Error() string {
	if e.Clause != nil {
		return fmt.Sprintf("%s: %s (clause=%s)", e.Code, e.Message, e.Clause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsEvalError returns true if the error is an EvalError.
// Uses errors.As to handle wrapped errors.
func IsEvalError(err error) bool {
	var ee *EvalError
	return errors.As(err, &ee)
}

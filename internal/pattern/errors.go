package pattern

import (
	"errors"
	"fmt"

	"github.com/roach88/groundhog/internal/term"
)

// ValidateError reports a malformed query rejected at compile time.
// Search never sees malformed patterns; the orchestration layers assume
// compilation has already validated connectivity.
type ValidateError struct {
	// Code identifies the validation failure category.
	Code ValidateErrorCode

	// Message is a human-readable description.
	Message string

	// Clause is the offending clause, when one can be named.
	Clause *term.Term
}

// ValidateErrorCode categorizes validation failures.
type ValidateErrorCode string

const (
	// ErrCodeNoClauses indicates a query with no clauses at all.
	ErrCodeNoClauses ValidateErrorCode = "NO_CLAUSES"

	// ErrCodeNotAVariable indicates a declared variable that is not a
	// Variable node.
	ErrCodeNotAVariable ValidateErrorCode = "NOT_A_VARIABLE"

	// ErrCodeNoVariableUse indicates that no declared variable occurs in
	// any clause.
	ErrCodeNoVariableUse ValidateErrorCode = "NO_VARIABLE_USE"

	// ErrCodeDisconnected indicates multiple mandatory components with no
	// virtual clauses bridging them into one logical group.
	ErrCodeDisconnected ValidateErrorCode = "DISCONNECTED"

	// ErrCodeEvaluatableOptional indicates an optional clause that would
	// need evaluation rather than shape matching.
	ErrCodeEvaluatableOptional ValidateErrorCode = "EVALUATABLE_OPTIONAL"

	// ErrCodeUnanchoredVirtual indicates a virtual clause using a
	// variable that no shape-matched clause can ever bind.
	ErrCodeUnanchoredVirtual ValidateErrorCode = "UNANCHORED_VIRTUAL"
)

// Error implements the error interface.
func (e *ValidateError) Error() string {
	if e.Clause != nil {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Clause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsValidateError reports whether err is (or wraps) a ValidateError.
func IsValidateError(err error) bool {
	var ve *ValidateError
	return errors.As(err, &ve)
}

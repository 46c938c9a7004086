package compiler

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/groundhog/internal/graph"
	"github.com/roach88/groundhog/internal/pattern"
	"github.com/roach88/groundhog/internal/term"
)

// Validation error codes (E100-E199)
const (
	// General validation errors (E100-E109)
	ErrUnsupportedValue = "E100" // unsupported value type for validation
	ErrCompileFailed    = "E101" // bundle failed to compile
	ErrBundleEmpty      = "E102" // bundle has no facts and no queries
	ErrFactNotGround    = "E103" // fact contains a variable

	// Query errors (E110-E119)
	ErrQueryNoClauses           = "E110" // query has no clauses
	ErrQueryBadVariable         = "E111" // declared variable is not a Variable node
	ErrQueryNoVariableUse       = "E112" // no declared variable occurs in any clause
	ErrQueryDisconnected        = "E113" // unbridged mandatory clause groups
	ErrQueryEvaluatableOptional = "E114" // optional clause is evaluatable
	ErrQueryUnanchoredVirtual   = "E115" // virtual clause variable never shape-bound
	ErrQueryDuplicateVariable   = "E116" // variable declared twice
	ErrQueryUnusedVariable      = "E117" // declared variable occurs in no clause
)

// ValidationError represents a bundle validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("[%s] line %d: %s: %s", e.Code, e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidateBundle compiles and validates a bundle document in one step,
// returning all errors found. A document that fails to compile yields a
// single positioned error; a compiled bundle is checked exhaustively.
func ValidateBundle(v cue.Value) []ValidationError {
	b, err := CompileBundle(v)
	if err != nil {
		return []ValidationError{validationFromError(err)}
	}
	return Validate(b)
}

// Validate validates a compiled bundle against schema rules.
// Returns all errors found (does not fail-fast).
// Supports Bundle and Query types.
func Validate(v any) []ValidationError {
	switch val := v.(type) {
	case *Bundle:
		return validateBundle(val)
	case Bundle:
		return validateBundle(&val)
	case *Query:
		return validateQuery(val)
	case Query:
		return validateQuery(&val)
	default:
		return []ValidationError{{
			Field:   "type",
			Message: fmt.Sprintf("unsupported value type: %T", v),
			Code:    ErrUnsupportedValue,
		}}
	}
}

// validateBundle validates facts and every query, collecting all errors.
func validateBundle(b *Bundle) []ValidationError {
	var errs []ValidationError

	// E102: a bundle must declare something
	if len(b.Facts) == 0 && len(b.Queries) == 0 {
		errs = append(errs, ValidationError{
			Field:   "bundle",
			Message: "bundle declares neither graph facts nor queries",
			Code:    ErrBundleEmpty,
		})
	}

	// E103: facts must be ground terms
	for i, fact := range b.Facts {
		if containsVariable(fact) {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("graph.facts[%d]", i),
				Message: fmt.Sprintf("fact %s contains a variable; facts must be ground", fact),
				Code:    ErrFactNotGround,
			})
		}
	}

	for _, q := range b.Queries {
		errs = append(errs, validateQuery(q)...)
	}

	return errs
}

// validateQuery validates a single query's variable discipline and its
// decomposition, collecting all errors.
func validateQuery(q *Query) []ValidationError {
	var errs []ValidationError
	field := func(sub string) string {
		if sub == "" {
			return fmt.Sprintf("queries.%s", q.Name)
		}
		return fmt.Sprintf("queries.%s.%s", q.Name, sub)
	}
	line := 0
	if q.Pos.IsValid() {
		line = q.Pos.Line()
	}

	// E111: declared variables must be Variable nodes
	badVars := false
	for i, v := range q.Vars {
		if !v.IsVariable() {
			badVars = true
			errs = append(errs, ValidationError{
				Field:   field(fmt.Sprintf("vars[%d]", i)),
				Message: fmt.Sprintf("declared variable has type %s", v.Type()),
				Code:    ErrQueryBadVariable,
				Line:    line,
			})
		}
	}

	// E116: duplicate declarations collapse silently at compile time,
	// almost always an authoring slip
	seen := make(map[string]bool, len(q.Vars))
	for i, v := range q.Vars {
		if !v.IsVariable() {
			continue
		}
		if seen[v.Name()] {
			errs = append(errs, ValidationError{
				Field:   field(fmt.Sprintf("vars[%d]", i)),
				Message: fmt.Sprintf("duplicate variable declaration: %s", v.Name()),
				Code:    ErrQueryDuplicateVariable,
				Line:    line,
			})
		}
		seen[v.Name()] = true
	}

	// E117: a declared variable no clause mentions never binds, so every
	// grounding omits it
	used := make(map[string]bool, len(q.Vars))
	for _, clause := range q.Find {
		markVariables(clause, used)
	}
	for _, clause := range q.Optional {
		markVariables(clause, used)
	}
	for i, v := range q.Vars {
		if v.IsVariable() && !used[v.Name()] {
			errs = append(errs, ValidationError{
				Field:   field(fmt.Sprintf("vars[%d]", i)),
				Message: fmt.Sprintf("variable %s occurs in no clause", v.Name()),
				Code:    ErrQueryUnusedVariable,
				Line:    line,
			})
		}
	}

	// E110-E115: recompile the decomposition so hand-built queries get the
	// same checks bundle compilation runs. Skipped when a declared
	// variable is malformed; compilation would just repeat that finding.
	if badVars {
		return errs
	}
	st := graph.New()
	_, err := pattern.Compile(
		internAll(st, q.Vars),
		internAll(st, q.Find),
		internAll(st, q.Optional),
	)
	if err != nil {
		var ve *pattern.ValidateError
		if errors.As(err, &ve) {
			errs = append(errs, ValidationError{
				Field:   field(""),
				Message: ve.Message,
				Code:    codeFromValidate(ve.Code),
				Line:    line,
			})
		} else {
			errs = append(errs, ValidationError{
				Field:   field(""),
				Message: err.Error(),
				Code:    ErrCompileFailed,
				Line:    line,
			})
		}
	}

	return errs
}

// codeFromValidate maps decomposition failure codes onto validation codes.
func codeFromValidate(code pattern.ValidateErrorCode) string {
	switch code {
	case pattern.ErrCodeNoClauses:
		return ErrQueryNoClauses
	case pattern.ErrCodeNotAVariable:
		return ErrQueryBadVariable
	case pattern.ErrCodeNoVariableUse:
		return ErrQueryNoVariableUse
	case pattern.ErrCodeDisconnected:
		return ErrQueryDisconnected
	case pattern.ErrCodeEvaluatableOptional:
		return ErrQueryEvaluatableOptional
	case pattern.ErrCodeUnanchoredVirtual:
		return ErrQueryUnanchoredVirtual
	default:
		return ErrCompileFailed
	}
}

// validationFromError converts a compile failure into a ValidationError.
func validationFromError(err error) ValidationError {
	var ce *CompileError
	if errors.As(err, &ce) {
		ve := ValidationError{
			Field:   ce.Field,
			Message: ce.Message,
			Code:    ErrCompileFailed,
		}
		if ce.Pos.IsValid() {
			ve.Line = ce.Pos.Line()
		}
		return ve
	}

	// Raw CUE errors still carry positions worth surfacing
	positions := cueerrors.Positions(err)
	ve := ValidationError{
		Field:   "bundle",
		Message: err.Error(),
		Code:    ErrCompileFailed,
	}
	if len(positions) > 0 && positions[0].IsValid() {
		ve.Line = positions[0].Line()
	}
	return ve
}

// containsVariable reports whether any node in the tree is a Variable.
func containsVariable(t *term.Term) bool {
	if t.IsVariable() {
		return true
	}
	for _, c := range t.Out() {
		if containsVariable(c) {
			return true
		}
	}
	return false
}

// markVariables records the names of every Variable in the tree.
func markVariables(t *term.Term, into map[string]bool) {
	if t.IsVariable() {
		into[t.Name()] = true
		return
	}
	for _, c := range t.Out() {
		markVariables(c, into)
	}
}

package query

import (
	"errors"
	"fmt"
)

// StepBudget tracks the number of candidates a query run has tried and
// enforces an upper limit.
//
// Each run gets its own StepBudget instance. The budget is charged once
// per candidate term tried by the engine and once per combination tried
// during recombination, so it bounds total search effort rather than
// result count.
//
// A limit of zero (the default) disables enforcement; the counter still
// runs so diagnostics can report how much work a query did.
type StepBudget struct {
	maxSteps int // Maximum allowed steps for this run, <= 0 means unlimited
	current  int // Current step count
}

// NewStepBudget creates a budget with the given limit.
//
// maxSteps: maximum number of candidates tried per run.
// Configurable via WithMaxSteps(); zero disables the limit.
func NewStepBudget(maxSteps int) *StepBudget {
	return &StepBudget{
		maxSteps: maxSteps,
		current:  0,
	}
}

// Check increments the step counter and validates against the limit.
//
// Returns BudgetExceededError if the budget is exhausted.
// Called before each candidate is explored.
func (b *StepBudget) Check(token string) error {
	b.current++
	if b.maxSteps > 0 && b.current > b.maxSteps {
		return &BudgetExceededError{
			Token: token,
			Steps: b.current,
			Limit: b.maxSteps,
		}
	}
	return nil
}

// Current returns the current step count.
// Used for logging and diagnostics.
func (b *StepBudget) Current() int {
	return b.current
}

// MaxSteps returns the configured limit.
// Used for logging and diagnostics.
func (b *StepBudget) MaxSteps() int {
	return b.maxSteps
}

// BudgetExceededError is returned when a run exceeds its step budget.
//
// The error aborts the whole query, not just the current candidate:
// partial results gathered before the limit are discarded by Find.
type BudgetExceededError struct {
	Token string // The run that exceeded the budget
	Steps int    // Number of steps taken
	Limit int    // Maximum allowed steps
}

// Error implements the error interface.
func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("query %s exceeded step budget: %d steps > %d limit",
		e.Token, e.Steps, e.Limit)
}

// IsBudgetExceededError returns true if the error is a BudgetExceededError.
// Uses errors.As to handle wrapped errors.
func IsBudgetExceededError(err error) bool {
	var be *BudgetExceededError
	return errors.As(err, &be)
}

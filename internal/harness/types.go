package harness

import "github.com/roach88/groundhog/internal/query"

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall scenario success: the run completed and
	// every expectation held.
	Pass bool `json:"pass"`

	// Satisfied is the query's verdict as reported by the search.
	Satisfied bool `json:"satisfied"`

	// Groundings holds the reported results in discovery order, each a
	// map of variable name to the rendered grounding.
	Groundings []map[string]string `json:"groundings,omitempty"`

	// Trace contains the run's recorded events in emission order. Used
	// for assertion diagnostics and golden comparison.
	Trace []query.TraceEvent `json:"trace"`

	// Errors contains expectation failure messages. Empty if Pass is
	// true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result. Expectation evaluation flips
// Pass through AddError.
func NewResult() *Result {
	return &Result{Pass: true}
}

// AddError records an expectation failure and marks the result as failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}

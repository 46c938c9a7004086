package harness

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/roach88/groundhog/internal/query"
)

// AssertionError is returned when an expectation fails. It includes the
// recorded trace so a failure can be debugged from the message alone.
type AssertionError struct {
	Type     string             // Expectation kind for categorization
	Expected string             // Human-readable expected outcome
	Actual   string             // Human-readable actual outcome
	Trace    []query.TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Expectation failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s%s\n", ev.Seq, ev.Kind, traceDetail(ev))
	}

	return buf.String()
}

// traceDetail renders the interesting part of one event for the
// assertion message.
func traceDetail(ev query.TraceEvent) string {
	switch ev.Kind {
	case query.TraceComponentStart:
		return fmt.Sprintf(" %d", ev.Index)
	case query.TraceCandidate:
		return " " + ev.Term
	case query.TraceVirtualEval:
		return fmt.Sprintf(" ok=%t %s", ev.OK, ev.Clause)
	case query.TraceOptionalCheck:
		if ev.Term == "" {
			return fmt.Sprintf(" ok=%t (absent)", ev.OK)
		}
		return fmt.Sprintf(" ok=%t %s", ev.OK, ev.Term)
	case query.TraceSolution:
		return " " + ev.Vars
	case query.TraceSearchDone:
		return fmt.Sprintf(" ok=%t", ev.OK)
	default:
		return ""
	}
}

// AssertSatisfied checks the run's overall verdict.
func AssertSatisfied(result *Result, want bool) error {
	if result.Satisfied == want {
		return nil
	}
	return &AssertionError{
		Type:     "satisfied",
		Expected: verdictWord(want),
		Actual:   verdictWord(result.Satisfied),
		Trace:    result.Trace,
	}
}

// AssertGroundings checks the reported groundings against the expected
// set. Matching ignores discovery order: every expected grounding must
// match exactly one actual grounding and nothing may be left over, so
// scenario authors never encode enumeration order.
func AssertGroundings(result *Result, want []map[string]string) error {
	if len(result.Groundings) != len(want) {
		return &AssertionError{
			Type:     "groundings",
			Expected: fmt.Sprintf("%d grounding(s): %s", len(want), formatGroundingList(want)),
			Actual:   fmt.Sprintf("%d grounding(s): %s", len(result.Groundings), formatGroundingList(result.Groundings)),
			Trace:    result.Trace,
		}
	}

	matched := make([]bool, len(result.Groundings))
	for _, expected := range want {
		found := false
		for i, actual := range result.Groundings {
			if !matched[i] && maps.Equal(actual, expected) {
				matched[i] = true
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     "groundings",
				Expected: fmt.Sprintf("a grounding matching %s", formatGrounding(expected)),
				Actual:   fmt.Sprintf("got %s", formatGroundingList(result.Groundings)),
				Trace:    result.Trace,
			}
		}
	}
	return nil
}

// evaluateExpectations checks every expectation the scenario states and
// records failures on the result.
func evaluateExpectations(result *Result, expect Expectation) {
	if expect.Satisfied != nil {
		if err := AssertSatisfied(result, *expect.Satisfied); err != nil {
			result.AddError(err.Error())
		}
	}
	if expect.Groundings != nil {
		if err := AssertGroundings(result, expect.Groundings); err != nil {
			result.AddError(err.Error())
		}
	}
}

// verdictWord renders the run outcome.
func verdictWord(ok bool) string {
	if ok {
		return "satisfied"
	}
	return "unsatisfied"
}

// formatGrounding renders one grounding with sorted variables, e.g.
// "{$x=(Concept a), $y=(Concept b)}".
func formatGrounding(m map[string]string) string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	pairs := make([]string, len(names))
	for i, name := range names {
		pairs[i] = name + "=" + m[name]
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}

// formatGroundingList renders a grounding list for failure messages.
func formatGroundingList(list []map[string]string) string {
	if len(list) == 0 {
		return "(none)"
	}
	parts := make([]string, len(list))
	for i, m := range list {
		parts[i] = formatGrounding(m)
	}
	return strings.Join(parts, ", ")
}

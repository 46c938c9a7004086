package query

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// TraceKind labels one step of a query run.
type TraceKind string

const (
	// TraceSearchStart marks the beginning of a run.
	TraceSearchStart TraceKind = "search_start"

	// TraceComponentStart marks the start of one component's search.
	TraceComponentStart TraceKind = "component_start"

	// TraceCandidate records a candidate term tried against a clause.
	TraceCandidate TraceKind = "candidate"

	// TraceVirtualEval records a virtual clause evaluation and its verdict.
	TraceVirtualEval TraceKind = "virtual_eval"

	// TraceOptionalCheck records an optional clause check. Term is empty
	// when the clause had no grounding in the graph.
	TraceOptionalCheck TraceKind = "optional_check"

	// TraceSolution records a grounding reported to the callback. OK is
	// the callback's verdict: true stops the search.
	TraceSolution TraceKind = "solution"

	// TraceSearchDone marks the end of a run with the overall outcome.
	TraceSearchDone TraceKind = "search_done"
)

// TraceEvent is one step of a query run. Events carry a seq from the run's
// Clock and the run token, so interleaved runs can be teased apart and a
// single run's events are totally ordered.
type TraceEvent struct {
	Seq    int64     `json:"seq"`
	Token  string    `json:"token"`
	Kind   TraceKind `json:"kind"`
	Index  int       `json:"index,omitempty"`
	Clause string    `json:"clause,omitempty"`
	Term   string    `json:"term,omitempty"`
	Vars   string    `json:"vars,omitempty"`
	OK     bool      `json:"ok,omitempty"`
}

// Tracer receives trace events during a run. Implementations must not
// block; the search calls Trace synchronously.
type Tracer interface {
	Trace(ev TraceEvent)
}

// SlogTracer logs each event at debug level through a slog.Logger.
type SlogTracer struct {
	Logger *slog.Logger
}

// Trace implements Tracer.
func (t *SlogTracer) Trace(ev TraceEvent) {
	t.Logger.Debug("query trace",
		"seq", ev.Seq,
		"token", ev.Token,
		"kind", string(ev.Kind),
		"index", ev.Index,
		"clause", ev.Clause,
		"term", ev.Term,
		"vars", ev.Vars,
		"ok", ev.OK,
	)
}

// Recorder accumulates trace events in memory. Tests and the trace
// command replay them after the run.
//
// Thread-safety: Recorder is safe for concurrent use via internal mutex.
type Recorder struct {
	mu     sync.Mutex
	events []TraceEvent
}

// Trace implements Tracer.
func (r *Recorder) Trace(ev TraceEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of the recorded events in arrival order.
func (r *Recorder) Events() []TraceEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]TraceEvent, len(r.events))
	copy(out, r.events)
	return out
}

// formatBindings renders variable bindings sorted by variable name, e.g.
// "$x=(Concept a), $y=(Concept b)". Map iteration order is random, so
// traces must not render bindings directly.
func formatBindings(vars Bindings) string {
	if len(vars) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(vars))
	for v, g := range vars {
		pairs = append(pairs, v.Name()+"="+g.String())
	}
	sort.Strings(pairs)
	return strings.Join(pairs, ", ")
}

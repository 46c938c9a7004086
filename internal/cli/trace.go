package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/groundhog/internal/query"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Kind string // optional - filter to a specific event kind
}

// TraceFile is the on-disk format written by "query --trace".
type TraceFile struct {
	Query  string             `json:"query"`
	Token  string             `json:"token,omitempty"`
	Events []query.TraceEvent `json:"events"`
}

// TraceResult holds the rendered trace output.
type TraceResult struct {
	Query    string             `json:"query"`
	Token    string             `json:"token,omitempty"`
	Timeline []query.TraceEvent `json:"timeline"`
	Stats    TraceStats         `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEvents    int  `json:"total_events"`
	Candidates     int  `json:"candidates"`
	VirtualEvals   int  `json:"virtual_evals"`
	OptionalChecks int  `json:"optional_checks"`
	Solutions      int  `json:"solutions"`
	Satisfied      bool `json:"satisfied"`
	Complete       bool `json:"complete"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <trace-file>",
		Short: "Render a recorded query trace",
		Long: `Render a search trace recorded with "query --trace".

Shows the run's timeline: candidates tried against each clause, virtual
clause verdicts, optional clause checks, and the groundings reported.

The output includes:
- Timeline: Chronological list of search events
- Stats: Summary statistics for the run

Examples:
  groundhog trace ./trace.json
  groundhog trace ./trace.json --kind candidate
  groundhog trace ./trace.json --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraceRender(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter to a specific event kind")

	return cmd
}

func runTraceRender(opts *TraceOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	tf, err := readTraceFile(path)
	if err != nil {
		code, message := ErrCodeGeneric, err.Error()
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			code, message = loadErr.Code, loadErr.Message
		}
		_ = formatter.Error(code, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
	}

	timeline := tf.Events
	if opts.Kind != "" {
		timeline = filterEvents(timeline, query.TraceKind(opts.Kind))
	}

	result := TraceResult{
		Query:    tf.Query,
		Token:    tf.Token,
		Timeline: timeline,
		Stats:    traceStats(tf.Events),
	}

	if opts.Format == "json" {
		return outputTraceJSON(cmd, result)
	}

	return outputTraceText(cmd, result, opts.Verbose)
}

// writeTraceFile records a run's events next to the query name.
func writeTraceFile(path, queryName string, events []query.TraceEvent) error {
	tf := TraceFile{
		Query:  queryName,
		Events: events,
	}
	if len(events) > 0 {
		tf.Token = events[0].Token
	}

	data, err := json.MarshalIndent(tf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling trace: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}
	return nil
}

// readTraceFile loads and decodes a recorded trace.
func readTraceFile(path string) (*TraceFile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("trace file not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading trace file: %v", err)}
	}

	var tf TraceFile
	if err := json.Unmarshal(data, &tf); err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("parsing trace file: %v", err)}
	}
	return &tf, nil
}

// filterEvents keeps events of one kind.
func filterEvents(events []query.TraceEvent, kind query.TraceKind) []query.TraceEvent {
	var out []query.TraceEvent
	for _, ev := range events {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

// traceStats summarizes the full event list, ignoring any kind filter.
func traceStats(events []query.TraceEvent) TraceStats {
	stats := TraceStats{TotalEvents: len(events)}
	for _, ev := range events {
		switch ev.Kind {
		case query.TraceCandidate:
			stats.Candidates++
		case query.TraceVirtualEval:
			stats.VirtualEvals++
		case query.TraceOptionalCheck:
			stats.OptionalChecks++
		case query.TraceSolution:
			stats.Solutions++
		case query.TraceSearchDone:
			stats.Complete = true
			stats.Satisfied = ev.OK
		}
	}
	return stats
}

// outputTraceJSON outputs the trace result as JSON.
func outputTraceJSON(cmd *cobra.Command, result TraceResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(response)
}

// outputTraceText outputs the trace result as text.
func outputTraceText(cmd *cobra.Command, result TraceResult, verbose bool) error {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Trace for query: %s\n", result.Query)
	if result.Token != "" {
		fmt.Fprintf(w, "Run token: %s\n", truncateID(result.Token))
	}
	fmt.Fprintln(w)

	// Timeline section
	fmt.Fprintln(w, "=== Timeline ===")
	if len(result.Timeline) == 0 {
		fmt.Fprintln(w, "  (no events)")
	} else {
		for _, event := range result.Timeline {
			formatTimelineEvent(w, event, verbose)
		}
	}
	fmt.Fprintln(w)

	// Stats section
	fmt.Fprintln(w, "=== Stats ===")
	fmt.Fprintf(w, "  Total Events:    %d\n", result.Stats.TotalEvents)
	fmt.Fprintf(w, "  Candidates:      %d\n", result.Stats.Candidates)
	fmt.Fprintf(w, "  Virtual Evals:   %d\n", result.Stats.VirtualEvals)
	fmt.Fprintf(w, "  Optional Checks: %d\n", result.Stats.OptionalChecks)
	fmt.Fprintf(w, "  Solutions:       %d\n", result.Stats.Solutions)
	fmt.Fprintf(w, "  Satisfied:       %s\n", satisfiedStatus(result.Stats))

	return nil
}

// formatTimelineEvent formats a single timeline event for text output.
func formatTimelineEvent(w io.Writer, event query.TraceEvent, verbose bool) {
	switch event.Kind {
	case query.TraceSearchStart:
		fmt.Fprintf(w, "  [%d] START\n", event.Seq)

	case query.TraceComponentStart:
		fmt.Fprintf(w, "  [%d] COMPONENT %d\n", event.Seq, event.Index)

	case query.TraceCandidate:
		fmt.Fprintf(w, "  [%d] CAND %s\n", event.Seq, event.Term)
		if verbose {
			fmt.Fprintf(w, "       Clause: %s\n", event.Clause)
		}

	case query.TraceVirtualEval:
		fmt.Fprintf(w, "  [%d] VIRT %s %s\n", event.Seq, verdict(event.OK), event.Clause)

	case query.TraceOptionalCheck:
		grounding := event.Term
		if grounding == "" {
			grounding = "(absent)"
		}
		fmt.Fprintf(w, "  [%d] OPT %s %s\n", event.Seq, verdict(event.OK), grounding)
		if verbose {
			fmt.Fprintf(w, "       Clause: %s\n", event.Clause)
		}

	case query.TraceSolution:
		fmt.Fprintf(w, "  [%d] SOLUTION %s\n", event.Seq, event.Vars)

	case query.TraceSearchDone:
		fmt.Fprintf(w, "  [%d] DONE %s\n", event.Seq, satisfiedWord(event.OK))

	default:
		fmt.Fprintf(w, "  [%d] %s\n", event.Seq, event.Kind)
	}
}

// verdict renders a pass/fail flag.
func verdict(ok bool) string {
	if ok {
		return "ok"
	}
	return "fail"
}

// satisfiedWord renders the run outcome.
func satisfiedWord(ok bool) string {
	if ok {
		return "satisfied"
	}
	return "unsatisfied"
}

// satisfiedStatus returns a human-readable run status.
func satisfiedStatus(stats TraceStats) string {
	if !stats.Complete {
		return "unknown (trace truncated)"
	}
	return satisfiedWord(stats.Satisfied)
}

// truncateID truncates a long run token for display.
func truncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:8] + "..." + id[len(id)-8:]
}

package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/groundhog/internal/graph"
	"github.com/roach88/groundhog/internal/query"
	"github.com/roach88/groundhog/internal/store"
	"github.com/roach88/groundhog/internal/term"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	Database string // optional - facts come from this database instead of the bundle
	Name     string
	All      bool
	MaxSteps int
	TraceOut string
}

// QueryRunResult is the output of one query run.
type QueryRunResult struct {
	Query       string              `json:"query"`
	Satisfied   bool                `json:"satisfied"`
	Vars        []string            `json:"vars"`
	Results     []map[string]string `json:"results,omitempty"`
	TraceFile   string              `json:"trace_file,omitempty"`
	TraceEvents int                 `json:"trace_events,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <bundle>",
		Short: "Run a named query from a bundle",
		Long: `Run a named query from a CUE bundle.

By default the query runs against the facts declared in the bundle
itself. With --db, the facts are loaded from a SQLite database written
by load, and the bundle supplies only the query definitions. The search
stops at the first grounding unless --all is given.

Exits 1 when the query has no results.

Examples:
  groundhog query --name adults ./bundle.cue
  groundhog query --db ./facts.db --name adults --all ./queries.cue
  groundhog query --name adults --trace trace.json --max-steps 10000 ./bundle.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "load facts from this SQLite database instead of the bundle")
	cmd.Flags().StringVar(&opts.Name, "name", "", "query to run (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().BoolVar(&opts.All, "all", false, "enumerate every grounding instead of stopping at the first")
	cmd.Flags().IntVar(&opts.MaxSteps, "max-steps", 0, "abort after this many search steps (0 = unlimited)")
	cmd.Flags().StringVar(&opts.TraceOut, "trace", "", "record the search trace to this file")

	return cmd
}

func runQuery(opts *QueryOptions, bundlePath string, cmd *cobra.Command) error {
	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	loadResult, err := LoadBundle(bundlePath)
	if err != nil {
		return outputCompileError(formatter, err)
	}
	bundle := loadResult.Bundle

	q, ok := bundle.Query(opts.Name)
	if !ok {
		names := make([]string, 0, len(bundle.Queries))
		for _, bq := range bundle.Queries {
			names = append(names, bq.Name)
		}
		message := fmt.Sprintf("query %q not defined in bundle", opts.Name)
		if len(names) > 0 {
			message += fmt.Sprintf(" (defined: %s)", strings.Join(names, ", "))
		}
		_ = formatter.Error(ErrCodeQueryNotFound, message, nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", ErrCodeQueryNotFound, message))
	}

	// Use command's context if available (for testing), otherwise create one
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	g, err := factsGraph(ctx, bundle.Graph, opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load facts", err)
	}
	slog.Debug("facts ready", "terms", g.Len(), "query", q.Name)

	maxResults := 1
	if opts.All {
		maxResults = 0
	}
	req := query.Request{
		Vars:       q.Vars,
		Find:       q.Find,
		Optional:   q.Optional,
		MaxResults: maxResults,
	}

	var runOpts []query.Option
	if opts.MaxSteps > 0 {
		runOpts = append(runOpts, query.WithMaxSteps(opts.MaxSteps))
	}
	var rec *query.Recorder
	switch {
	case opts.TraceOut != "":
		rec = &query.Recorder{}
		runOpts = append(runOpts, query.WithTracer(rec))
	case opts.Verbose:
		runOpts = append(runOpts, query.WithTracer(&query.SlogTracer{Logger: slog.Default()}))
	}

	results, findErr := query.Find(g, req, runOpts...)

	// Write the trace even when the run aborted: a truncated trace shows
	// where the budget went.
	traceEvents := 0
	if rec != nil {
		events := rec.Events()
		traceEvents = len(events)
		if werr := writeTraceFile(opts.TraceOut, q.Name, events); werr != nil {
			_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("writing trace file: %v", werr), nil)
			return WrapExitError(ExitCommandError, "writing trace file", werr)
		}
		slog.Debug("trace written", "path", opts.TraceOut, "events", traceEvents)
	}

	if findErr != nil {
		if query.IsBudgetExceededError(findErr) {
			_ = formatter.Error(ErrCodeBudgetExceeded, findErr.Error(), nil)
			return WrapExitError(ExitFailure, "step budget exceeded", findErr)
		}
		_ = formatter.Error(ErrCodeSearchFailed, findErr.Error(), nil)
		return WrapExitError(ExitFailure, "query failed", findErr)
	}

	runResult := QueryRunResult{
		Query:       q.Name,
		Satisfied:   len(results) > 0,
		Vars:        varNames(q.Vars),
		TraceFile:   opts.TraceOut,
		TraceEvents: traceEvents,
	}
	for _, r := range results {
		runResult.Results = append(runResult.Results, bindingView(q.Vars, r))
	}

	return outputQueryResult(formatter, runResult)
}

// factsGraph picks the store the query runs against: the bundle's own
// facts, or a persisted graph when a database path is given.
func factsGraph(ctx context.Context, bundleGraph *graph.Store, dbPath string) (*graph.Store, error) {
	if dbPath == "" {
		return bundleGraph, nil
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()
	g, err := st.LoadGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading graph: %w", err)
	}
	return g, nil
}

// outputQueryResult outputs the run result and sets the exit code.
// An unsatisfied query exits 1 so scripts can branch on satisfiability.
func outputQueryResult(formatter *OutputFormatter, result QueryRunResult) error {
	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
		if !result.Satisfied {
			return NewExitError(ExitFailure, fmt.Sprintf("query %s not satisfied", result.Query))
		}
		return nil
	}

	w := formatter.Writer
	if !result.Satisfied {
		fmt.Fprintf(w, "✗ Query %s not satisfied\n", result.Query)
		return NewExitError(ExitFailure, fmt.Sprintf("query %s not satisfied", result.Query))
	}

	fmt.Fprintf(w, "✓ Query %s satisfied: %d result(s)\n", result.Query, len(result.Results))
	if len(result.Results) > 0 {
		fmt.Fprintln(w)
		for i, view := range result.Results {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, formatBindingRow(result.Vars, view))
		}
	}
	if result.TraceFile != "" {
		fmt.Fprintf(w, "\nWrote %d trace event(s) to %s\n", result.TraceEvents, result.TraceFile)
	}

	return nil
}

// formatBindingRow renders one result's bindings in declaration order.
func formatBindingRow(vars []string, view map[string]string) string {
	pairs := make([]string, 0, len(vars))
	for _, name := range vars {
		if grounding, ok := view[name]; ok {
			pairs = append(pairs, fmt.Sprintf("%s = %s", name, grounding))
		}
	}
	return strings.Join(pairs, ", ")
}

// varNames extracts the declared variable names in order.
func varNames(vars []*term.Term) []string {
	names := make([]string, len(vars))
	for i, v := range vars {
		names[i] = v.Name()
	}
	return names
}

// bindingView maps variable names to their groundings. Variables bound
// only by optional clauses may be absent.
func bindingView(vars []*term.Term, r query.Result) map[string]string {
	view := make(map[string]string, len(vars))
	for _, v := range vars {
		if g := r.Binding(v.Name()); g != nil {
			view[v.Name()] = g.String()
		}
	}
	return view
}

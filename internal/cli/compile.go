package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/groundhog/internal/compiler"
	"github.com/roach88/groundhog/internal/term"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// QuerySummary describes one compiled query for output.
type QuerySummary struct {
	Name       string   `json:"name"`
	Vars       []string `json:"vars"`
	Find       []string `json:"find,omitempty"`
	Optional   []string `json:"optional,omitempty"`
	Virtuals   int      `json:"virtuals,omitempty"`
	Components int      `json:"components"`
}

// CompilationResult holds the compiled facts and queries.
type CompilationResult struct {
	Facts    []string               `json:"facts"`
	Queries  []QuerySummary         `json:"queries"`
	Warnings []compiler.PlanWarning `json:"warnings,omitempty"`
}

// CompilationStats holds summary statistics.
type CompilationStats struct {
	FactCount    int
	QueryCount   int
	TotalClauses int
	WarningCount int
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <bundle>",
		Short: "Compile a CUE bundle of facts and queries",
		Long: `Compile a CUE bundle into graph facts and decomposed query patterns.

The compiler parses the bundle, interns the facts into a graph, decomposes
each query into clause groups, and reports search-cost warnings for
expensive query shapes. The bundle may be a single .cue file or a
directory of .cue files.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, bundlePath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loadResult, err := LoadBundle(bundlePath)
	if err != nil {
		return outputCompileError(formatter, err)
	}

	formatter.VerboseLog("Found %d CUE file(s) in %s", loadResult.FileCount, bundlePath)

	bundle := loadResult.Bundle
	for _, q := range bundle.Queries {
		formatter.VerboseLog("Compiling query: %s", q.Name)
	}

	result := buildCompilationResult(bundle)
	stats := calculateStats(result)

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeResultToFile(result, opts.Output); err != nil {
			lerr := &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err)}
			return outputCompileError(formatter, lerr)
		}
	}

	return outputCompileSuccess(formatter, result, stats, opts.Output)
}

// buildCompilationResult flattens a bundle into its output form.
func buildCompilationResult(bundle *compiler.Bundle) *CompilationResult {
	result := &CompilationResult{
		Facts:    make([]string, 0, len(bundle.Facts)),
		Queries:  make([]QuerySummary, 0, len(bundle.Queries)),
		Warnings: compiler.AnalyzePlans(bundle),
	}

	for _, fact := range bundle.Facts {
		result.Facts = append(result.Facts, fact.String())
	}

	for _, q := range bundle.Queries {
		components := len(q.Compiled.Components)
		if components == 0 {
			components = 1
		}
		summary := QuerySummary{
			Name:       q.Name,
			Vars:       termStrings(q.Vars),
			Find:       termStrings(q.Find),
			Optional:   termStrings(q.Optional),
			Virtuals:   len(q.Compiled.Pattern.Virtuals),
			Components: components,
		}
		result.Queries = append(result.Queries, summary)
	}

	return result
}

// calculateStats computes summary statistics from a compilation result.
func calculateStats(result *CompilationResult) CompilationStats {
	stats := CompilationStats{
		FactCount:    len(result.Facts),
		QueryCount:   len(result.Queries),
		WarningCount: len(result.Warnings),
	}

	for _, q := range result.Queries {
		stats.TotalClauses += len(q.Find) + len(q.Optional)
	}

	return stats
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult, stats CompilationStats, outputFile string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	fmt.Fprintf(formatter.Writer, "✓ Compiled %d fact(s), %d query(s)\n\n",
		stats.FactCount, stats.QueryCount)

	if len(result.Queries) > 0 {
		fmt.Fprintln(formatter.Writer, "Queries:")
		for _, q := range result.Queries {
			clauses := len(q.Find) + len(q.Optional)
			fmt.Fprintf(formatter.Writer, "  %s: %d clause(s), %d component(s)",
				q.Name, clauses, q.Components)
			if q.Virtuals > 0 {
				fmt.Fprintf(formatter.Writer, ", %d virtual(s)", q.Virtuals)
			}
			fmt.Fprintln(formatter.Writer)
		}
		fmt.Fprintln(formatter.Writer)
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintln(formatter.Writer, "Warnings:")
		for _, w := range result.Warnings {
			fmt.Fprintf(formatter.Writer, "  [%s] %s\n", w.Level, w.Message)
		}
		fmt.Fprintln(formatter.Writer)
	}

	if outputFile != "" {
		fmt.Fprintf(formatter.Writer, "Wrote compiled bundle to %s\n", outputFile)
	}

	return nil
}

// outputCompileError outputs a compilation or load error with position
// info when the error carries one.
func outputCompileError(formatter *OutputFormatter, err error) error {
	code, message := ErrCodeGeneric, err.Error()

	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		code, message = loadErr.Code, loadErr.Message
		if formatter.Format != "json" && loadErr.Pos.IsValid() {
			fmt.Fprintf(formatter.Writer, "%s:%d:%d\n",
				loadErr.Pos.Filename(),
				loadErr.Pos.Line(),
				loadErr.Pos.Column())
		}
	}

	_ = formatter.Error(code, message, nil)
	// Compilation errors are command-level errors (exit code 2)
	return WrapExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message), nil)
}

// termStrings renders terms in s-expression form.
func termStrings(ts []*term.Term) []string {
	if len(ts) == 0 {
		return nil
	}
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.String()
	}
	return out
}

// writeResultToFile writes the compilation result to a file as JSON.
func writeResultToFile(result *CompilationResult, filename string) error {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling result: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}

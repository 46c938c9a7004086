package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/groundhog/internal/store"
)

// LoadOptions holds flags for the load command.
type LoadOptions struct {
	*RootOptions
	Database string
}

// LoadSummary reports what a load wrote to the database.
type LoadSummary struct {
	Facts      int    `json:"facts"`
	Terms      int    `json:"terms"`
	TotalTerms int    `json:"total_terms"`
	Database   string `json:"database"`
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LoadOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "load <bundle>",
		Short: "Persist a bundle's facts into a database",
		Long: `Compile a CUE bundle and persist its graph facts into a SQLite database.

The database is created if it does not exist. Loading is idempotent and
merges into whatever the database already holds: a term present from an
earlier load is written once, so repeated loads and overlapping bundles
never duplicate terms.

Example:
  groundhog load --db ./facts.db ./bundle.cue
  groundhog load --db /tmp/kb.db ./bundles --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runLoad(opts *LoadOptions, bundlePath string, cmd *cobra.Command) error {
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

	// Compile the bundle
	slog.Debug("compiling bundle", "path", bundlePath)
	loadResult, err := LoadBundle(bundlePath)
	if err != nil {
		return outputCompileError(formatter, err)
	}
	bundle := loadResult.Bundle
	slog.Debug("bundle compiled", "facts", len(bundle.Facts), "terms", bundle.Graph.Len())

	// Open database (create if not exists)
	slog.Debug("opening database", "path", opts.Database)
	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("failed to open database: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	// Use command's context if available (for testing), otherwise create one
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if err := st.SaveGraph(ctx, bundle.Graph); err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, fmt.Sprintf("failed to save graph: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to save graph", err)
	}

	total, err := st.CountTerms(ctx)
	if err != nil {
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("failed to count terms: %v", err), nil)
		return WrapExitError(ExitCommandError, "failed to count terms", err)
	}

	summary := LoadSummary{
		Facts:      len(bundle.Facts),
		Terms:      bundle.Graph.Len(),
		TotalTerms: total,
		Database:   opts.Database,
	}
	slog.Debug("graph saved", "facts", summary.Facts, "total_terms", summary.TotalTerms)

	return outputLoadSuccess(formatter, summary)
}

// outputLoadSuccess outputs the load summary.
func outputLoadSuccess(formatter *OutputFormatter, summary LoadSummary) error {
	if formatter.Format == "json" {
		return formatter.Success(summary)
	}

	fmt.Fprintf(formatter.Writer, "✓ Loaded %d fact(s) (%d term(s)) into %s\n",
		summary.Facts, summary.Terms, summary.Database)
	fmt.Fprintf(formatter.Writer, "Database now holds %d term(s)\n", summary.TotalTerms)
	return nil
}

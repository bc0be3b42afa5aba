// =============================================================================
// Labor Ledger - Import and Check Commands
// =============================================================================
//
// COMMAND USAGE:
//   ledger import <work|expense> <file> [flags]
//   ledger check  <work|expense> <file> [--clean]
//
// FLAGS (import):
//   --force    : Import even when rows fail validation
//   --clean    : Drop problem rows before validating
//   --dry-run  : Run the whole pipeline but persist nothing
//   --archive  : Move the source file to the archive after a successful import
//   --json     : Print the full report as JSON
//
// PROCESSING PIPELINE:
//   1. Parse the spreadsheet (CSV, XLSX or XLS)
//   2. Optionally clean problem rows
//   3. Validate; refuse on errors unless --force (an error log is written)
//   4. Analyze duplicates and unregistered references
//   5. Reconcile against stored records and compute wages
//   6. Persist accepted records, then mirror them to the remote if configured
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/labor-ledger/internal/console"
	"github.com/ginjaninja78/labor-ledger/internal/types"
	"github.com/ginjaninja78/labor-ledger/internal/validation"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	forceImport bool
	cleanRows   bool
	dryRun      bool
	archiveFile bool
	jsonOutput  bool
)

// =============================================================================
// COMMAND DEFINITIONS
// =============================================================================

var importCmd = &cobra.Command{
	Use:   "import <work|expense> <file>",
	Short: "Import a daily labor or site expense spreadsheet",
	Long: `The import command reads a spreadsheet, validates and analyzes it, computes
wages for labor rows, and stores every accepted record.

Rows whose site is not registered are filtered out and reported. Rows that
are already stored are skipped. When a remote database is configured, the
accepted records are mirrored to it after they are stored locally; a failed
mirror never undoes the local import.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, args[0], args[1])
	},
}

var checkCmd = &cobra.Command{
	Use:   "check <work|expense> <file>",
	Short: "Validate and analyze a spreadsheet without importing it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := kindArg(args[0])
		if err != nil {
			return err
		}
		rows, err := readRows(args[1])
		if err != nil {
			return err
		}
		report, err := app.console.Check(kind, rows, cleanRows)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, report)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "=== Check: %s (%s) ===\n", kind, filepath.Base(args[1]))
		if report.Removed > 0 {
			fmt.Fprintf(out, "Rows removed by cleaning: %d\n", report.Removed)
		}
		printValidation(out, report.Validation)
		a := report.Analysis
		fmt.Fprintf(out, "Duplicates:      %d (%d exact, %d partial)\n",
			a.Duplicates.Total, len(a.Duplicates.Exact), len(a.Duplicates.Partial))
		fmt.Fprintf(out, "Unmatched:       %d (%d workers, %d sites)\n",
			a.Unmatched.Total, len(a.Unmatched.Workers), len(a.Unmatched.Sites))
		fmt.Fprintf(out, "Unregistered site rows: %d\n", len(a.FilteredBySite))
		return nil
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(checkCmd)

	importCmd.Flags().BoolVar(&forceImport, "force", false, "Import even when rows fail validation")
	importCmd.Flags().BoolVar(&cleanRows, "clean", false, "Drop problem rows before validating")
	importCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run the pipeline without persisting anything")
	importCmd.Flags().BoolVar(&archiveFile, "archive", false, "Move the source file to the archive after a successful import")
	importCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full report as JSON")

	checkCmd.Flags().BoolVar(&cleanRows, "clean", false, "Drop problem rows before validating")
	checkCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full report as JSON")
}

// =============================================================================
// IMPORT
// =============================================================================

func runImport(cmd *cobra.Command, kindName, path string) error {
	kind, err := kindArg(kindName)
	if err != nil {
		return err
	}
	rows, err := readRows(path)
	if err != nil {
		return err
	}

	opts := console.ImportOptions{
		Source: filepath.Base(path),
		Force:  forceImport,
		Clean:  cleanRows,
		DryRun: dryRun,
	}
	ctx := cmd.Context()

	switch kind {
	case types.KindWork:
		report, importErr := app.console.ImportWork(ctx, rows, opts)
		err = finishImport(cmd, report, importErr)
	case types.KindExpense:
		report, importErr := app.console.ImportExpenses(ctx, rows, opts)
		err = finishImport(cmd, report, importErr)
	}
	if err != nil {
		return err
	}

	if archiveFile && !dryRun {
		dest, err := app.files.ArchiveInputFile(path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Archived:        %s\n", dest)
	}
	return nil
}

// finishImport prints the report and passes the import error through.
func finishImport[R any](cmd *cobra.Command, report *console.Report[R], importErr error) error {
	if report == nil {
		return importErr
	}
	if jsonOutput {
		if err := printJSON(cmd, report); err != nil {
			return err
		}
		return importErr
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "=== Import: %s (%s) ===\n", report.Kind, report.Source)
	if report.Removed > 0 {
		fmt.Fprintf(out, "Rows removed by cleaning: %d\n", report.Removed)
	}
	if report.Validation != nil {
		printValidation(out, report.Validation)
	}

	if errors.Is(importErr, console.ErrValidationFailed) {
		fmt.Fprint(out, validation.FormatErrors(report.Validation.Errors))
		if report.ErrorLog != "" {
			fmt.Fprintf(out, "Error log:       %s\n", report.ErrorLog)
		}
		fmt.Fprintln(out, "Fix the rows above or re-run with --force or --clean.")
		return importErr
	}
	if importErr != nil {
		return importErr
	}

	fmt.Fprintln(out, report.Message)
	if report.DryRun {
		fmt.Fprintln(out, "Dry run: nothing was stored.")
		return nil
	}
	fmt.Fprintf(out, "Stored:          %d\n", report.Persisted)
	switch {
	case report.SyncError != "":
		fmt.Fprintf(out, "Remote sync failed: %s\n", report.SyncError)
		fmt.Fprintln(out, "Local records are kept; run 'ledger sync' to retry.")
	case report.Synced > 0:
		fmt.Fprintf(out, "Synced:          %d\n", report.Synced)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// readRows parses the spreadsheet at path.
func readRows(path string) ([]types.RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return app.console.ReadRows(f, filepath.Base(path))
}

func printValidation(out io.Writer, res *validation.Result) {
	fmt.Fprintf(out, "Rows:            %d (%d valid, %d with errors, %d with warnings)\n",
		res.Summary.Total, res.Summary.Valid, res.Summary.Errors, res.Summary.Warnings)
}

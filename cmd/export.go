// =============================================================================
// Labor Ledger - Export Commands
// =============================================================================
//
// COMMAND USAGE:
//   ledger export all                     -> admin_console_data_<date>.json
//   ledger export issues <kind> <file>    -> <kind>_issues_<date>.json
//   ledger export csv <kind>              -> <kind>_records_<date>.csv
//
// All files are written to the configured output directory.
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write stored data or upload problems to the output directory",
}

var exportAllCmd = &cobra.Command{
	Use:   "all",
	Short: "Export every record, worker and site as one JSON document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := app.console.ExportAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
		return nil
	},
}

var exportIssuesCmd = &cobra.Command{
	Use:   "issues <work|expense> <file>",
	Short: "Export the duplicates and unregistered references found in an upload",
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
		path, err := app.console.ExportIssues(cmd.Context(), kind, rows)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
		return nil
	},
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv <work|expense>",
	Short: "Export stored records of one kind as CSV",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := kindArg(args[0])
		if err != nil {
			return err
		}
		path, err := app.console.ExportRecordsCSV(cmd.Context(), kind)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportAllCmd, exportIssuesCmd, exportCSVCmd)
}

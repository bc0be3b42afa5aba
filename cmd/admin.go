// =============================================================================
// Labor Ledger - Admin Commands
// =============================================================================
//
// COMMAND USAGE:
//   ledger config show
//   ledger config set [--supabase-url U --supabase-key K] [--database-url D] [--tax-rate P]
//   ledger sync [--test]
//   ledger status
//
// =============================================================================

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/labor-ledger/internal/console"
)

var (
	supabaseURL string
	supabaseKey string
	databaseURL string
	taxRate     float64
	testOnly    bool
)

// =============================================================================
// CONFIG COMMANDS
// =============================================================================

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the admin configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the admin configuration with the API key masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.console.AdminConfig()
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Supabase URL:    %s\n", orNone(cfg.SupabaseURL))
		fmt.Fprintf(out, "Supabase key:    %s\n", orNone(cfg.MaskedKey()))
		if cfg.DatabaseURL != "" {
			fmt.Fprintln(out, "Database URL:    (set)")
		} else {
			fmt.Fprintln(out, "Database URL:    (none)")
		}
		fmt.Fprintf(out, "Tax rate:        %g%%\n", cfg.TaxRate)
		fmt.Fprintf(out, "Remote:          %t\n", cfg.RemoteConfigured())
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change admin configuration values",
	Long: `Changes only the values whose flags are given. Setting a remote reconnects
immediately; pass an empty value to clear one. A tax rate of 0 restores the
default of 3.3%.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := app.console.AdminConfig()
		flags := cmd.Flags()
		if flags.Changed("supabase-url") {
			cfg.SupabaseURL = supabaseURL
		}
		if flags.Changed("supabase-key") {
			cfg.SupabaseKey = supabaseKey
		}
		if flags.Changed("database-url") {
			cfg.DatabaseURL = databaseURL
		}
		if flags.Changed("tax-rate") {
			cfg.TaxRate = taxRate
		}
		if err := app.console.SaveAdminConfig(cmd.Context(), cfg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Admin configuration saved.")
		return nil
	},
}

// =============================================================================
// SYNC / STATUS
// =============================================================================

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push every stored record to the remote database",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if testOnly {
			if err := app.console.TestConnection(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(out, "Remote connection ok.")
			return nil
		}

		res, err := app.console.SyncAll(cmd.Context())
		if res != nil {
			fmt.Fprintf(out, "Work records synced:    %d\n", res.Work)
			fmt.Fprintf(out, "Expense records synced: %d\n", res.Expense)
		}
		return err
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show stored record counts and registry sizes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := app.console.Status(cmd.Context())
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(cmd, st)
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Work records:    %s\n", kindLine(st.Work))
		fmt.Fprintf(out, "Expense records: %s\n", kindLine(st.Expense))
		fmt.Fprintf(out, "Workers:         %d\n", st.Workers)
		fmt.Fprintf(out, "Sites:           %d\n", st.Sites)
		fmt.Fprintf(out, "Tax rate:        %g%%\n", st.TaxRate)
		fmt.Fprintf(out, "Remote:          %t\n", st.RemoteConfigured)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd, syncCmd, statusCmd)
	configCmd.AddCommand(configShowCmd, configSetCmd)

	configSetCmd.Flags().StringVar(&supabaseURL, "supabase-url", "", "Supabase project URL")
	configSetCmd.Flags().StringVar(&supabaseKey, "supabase-key", "", "Supabase API key")
	configSetCmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string")
	configSetCmd.Flags().Float64Var(&taxRate, "tax-rate", 0, "Withholding percentage")

	syncCmd.Flags().BoolVar(&testOnly, "test", false, "Only check the connection")
	statusCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func kindLine(s console.KindStatus) string {
	if s.LastUpdated == nil {
		return fmt.Sprintf("%d", s.Count)
	}
	return fmt.Sprintf("%d (last %s)", s.Count, s.LastUpdated.Format("2006-01-02 15:04"))
}

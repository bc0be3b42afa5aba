// =============================================================================
// Labor Ledger - Registry Commands
// =============================================================================
//
// COMMAND USAGE:
//   ledger worker add <name> --daily-rate N [--monthly-salary N]
//   ledger worker update <name> --daily-rate N [--monthly-salary N]
//   ledger worker remove <name>
//   ledger worker list
//   ledger worker import <roster.json>
//   ledger site add <name> [--address A] [--manager M]
//   ledger site update <name> [--address A] [--manager M]
//   ledger site remove <name>
//   ledger site list
//
// =============================================================================

package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/labor-ledger/internal/types"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	dailyRate     int64
	monthlySalary int64
	siteAddress   string
	siteManager   string
)

// =============================================================================
// WORKER COMMANDS
// =============================================================================

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Manage the worker registry",
}

var workerAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a worker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := app.console.AddWorker(cmd.Context(), types.Worker{
			Name:          args[0],
			DailyRate:     dailyRate,
			MonthlySalary: monthlySalary,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added worker %s (daily rate %d)\n", w.Name, w.DailyRate)
		return nil
	},
}

var workerUpdateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Change a worker's daily rate or monthly salary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		current, ok := app.console.Registry().FindWorker(args[0])
		if ok {
			if !cmd.Flags().Changed("daily-rate") {
				dailyRate = current.DailyRate
			}
			if !cmd.Flags().Changed("monthly-salary") {
				monthlySalary = current.MonthlySalary
			}
		}
		err := app.console.UpdateWorker(cmd.Context(), types.Worker{
			Name:          args[0],
			DailyRate:     dailyRate,
			MonthlySalary: monthlySalary,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated worker %s\n", args[0])
		return nil
	},
}

var workerRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Unregister a worker",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.console.RemoveWorker(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed worker %s\n", args[0])
		return nil
	},
}

var workerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered workers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		workers := app.console.Registry().Workers()
		if jsonOutput {
			return printJSON(cmd, workers)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tDAILY RATE\tMONTHLY SALARY\tREGISTERED")
		for _, w := range workers {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", w.Name, w.DailyRate, w.MonthlySalary, w.CreatedAt.Format("2006-01-02"))
		}
		return tw.Flush()
	},
}

var workerImportCmd = &cobra.Command{
	Use:   "import <roster.json>",
	Short: "Merge a JSON roster of workers into the registry",
	Long: `Reads a JSON array of workers ({"name", "dailyRate", "monthlySalary"}) and
registers every name that is not registered yet. Existing workers are left
untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read roster: %w", err)
		}
		var roster []types.Worker
		if err := json.Unmarshal(data, &roster); err != nil {
			return fmt.Errorf("failed to parse roster: %w", err)
		}
		added, err := app.console.MergeWorkers(cmd.Context(), roster)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added %d of %d roster entries\n", added, len(roster))
		return nil
	},
}

// =============================================================================
// SITE COMMANDS
// =============================================================================

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Manage the site registry",
}

var siteAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := app.console.AddSite(cmd.Context(), types.Site{
			Name:    args[0],
			Address: siteAddress,
			Manager: siteManager,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added site %s\n", s.Name)
		return nil
	},
}

var siteUpdateCmd = &cobra.Command{
	Use:   "update <name>",
	Short: "Change a site's address or manager",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		current, ok := app.console.Registry().FindSite(args[0])
		if ok {
			if !cmd.Flags().Changed("address") {
				siteAddress = current.Address
			}
			if !cmd.Flags().Changed("manager") {
				siteManager = current.Manager
			}
		}
		err := app.console.UpdateSite(cmd.Context(), types.Site{
			Name:    args[0],
			Address: siteAddress,
			Manager: siteManager,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated site %s\n", args[0])
		return nil
	},
}

var siteRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Unregister a site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.console.RemoveSite(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed site %s\n", args[0])
		return nil
	},
}

var siteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered sites",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sites := app.console.Registry().Sites()
		if jsonOutput {
			return printJSON(cmd, sites)
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tADDRESS\tMANAGER\tREGISTERED")
		for _, s := range sites {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.Name, s.Address, s.Manager, s.CreatedAt.Format("2006-01-02"))
		}
		return tw.Flush()
	},
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.AddCommand(workerAddCmd, workerUpdateCmd, workerRemoveCmd, workerListCmd, workerImportCmd)

	for _, c := range []*cobra.Command{workerAddCmd, workerUpdateCmd} {
		c.Flags().Int64Var(&dailyRate, "daily-rate", 0, "Daily wage in won")
		c.Flags().Int64Var(&monthlySalary, "monthly-salary", 0, "Monthly salary in won, if salaried")
	}
	workerListCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")

	rootCmd.AddCommand(siteCmd)
	siteCmd.AddCommand(siteAddCmd, siteUpdateCmd, siteRemoveCmd, siteListCmd)

	for _, c := range []*cobra.Command{siteAddCmd, siteUpdateCmd} {
		c.Flags().StringVar(&siteAddress, "address", "", "Site address")
		c.Flags().StringVar(&siteManager, "manager", "", "Site manager")
	}
	siteListCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print as JSON")
}

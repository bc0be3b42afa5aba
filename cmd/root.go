// =============================================================================
// Labor Ledger - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// (import, check, worker, site, config, sync, export, status, serve, version)
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (ledger)
//   ├── importCmd  (ledger import <work|expense> <file>)
//   ├── checkCmd   (ledger check <work|expense> <file>)
//   ├── workerCmd  (ledger worker add|update|remove|list|import)
//   ├── siteCmd    (ledger site add|update|remove|list)
//   ├── configCmd  (ledger config show|set)
//   ├── syncCmd    (ledger sync)
//   ├── exportCmd  (ledger export all|issues|csv)
//   ├── statusCmd  (ledger status)
//   ├── serveCmd   (ledger serve)
//   └── versionCmd (ledger version)
//
// STARTUP:
//   Before any command that touches the ledger runs, the root command:
//   1. Loads .env into the environment (missing file is fine)
//   2. Loads config.yaml, applying LEDGER_* environment overrides
//   3. Builds the logger
//   4. Opens the storage backend and the console on top of it
//
//   Both are closed once the command returns, even when it fails.
//
// =============================================================================

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/labor-ledger/internal/config"
	"github.com/ginjaninja78/labor-ledger/internal/console"
	"github.com/ginjaninja78/labor-ledger/internal/sheet"
	"github.com/ginjaninja78/labor-ledger/internal/storage"
	"github.com/ginjaninja78/labor-ledger/internal/types"
	"github.com/ginjaninja78/labor-ledger/pkg/utils"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the main configuration file.
// This can be overridden using the --config flag.
var cfgFile string

// envFile is loaded into the environment before the configuration.
var envFile string

// verbose enables verbose logging when set to true.
var verbose bool

// app is the wired application, built in PersistentPreRunE.
var app *application

// skipSetup marks commands that run without opening the ledger.
const skipSetup = "skipSetup"

type application struct {
	cfg     *config.MainConfig
	logger  *logrus.Logger
	store   storage.Store
	files   *utils.FileManager
	console *console.Console
}

// close releases the console, then the store under it.
func (a *application) close() error {
	return errors.Join(a.console.Close(), a.store.Close())
}

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Labor Ledger - Daily labor and expense bookkeeping for construction sites",
	Long: `Labor Ledger imports daily labor and site expense spreadsheets, checks them
against the worker and site registries, computes wages and withholding, and
keeps the accepted records in local storage with an optional remote mirror.

Key Features:
  - CSV, XLSX and XLS uploads with flexible column headers
  - Validation with a per-row error log
  - Duplicate and unregistered-reference reporting
  - Daily wage, withholding and net pay calculation
  - Supabase or Postgres mirror of accepted records

Example Usage:
  ledger worker add Kim --daily-rate 150000
  ledger site add SiteA
  ledger import work ./march.xlsx
  ledger export issues work ./march.xlsx
  ledger serve`,

	SilenceUsage:  true,
	SilenceErrors: true,
	Annotations:   map[string]string{skipSetup: "true"},

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipSetup] == "true" || cmd.Name() == "help" {
			return nil
		}
		return setupApp(cmd.Context())
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. This is called by main.main().
func Execute() {
	if err := execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// execute runs the selected command and then releases the application,
// whether or not the command failed. Cobra skips post-run hooks on error.
func execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	return errors.Join(err, closeApp())
}

// closeApp closes and forgets the application opened by setupApp.
func closeApp() error {
	if app == nil {
		return nil
	}
	err := app.close()
	app = nil
	return err
}

// =============================================================================
// INITIALIZATION
// =============================================================================

func init() {
	// ==========================================================================
	// PERSISTENT FLAGS
	// ==========================================================================

	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultConfigPath,
		"Path to the main configuration file",
	)

	rootCmd.PersistentFlags().StringVar(
		&envFile,
		"env",
		".env",
		"Path to an optional .env file",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable verbose output for debugging",
	)
}

// setupApp loads configuration and opens the console.
func setupApp(ctx context.Context) error {
	// =========================================================================
	// STEP 1: ENVIRONMENT AND CONFIGURATION
	// =========================================================================

	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}

	cfg, err := config.LoadMainConfig(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load main config: %w", err)
	}

	logger, err := config.NewLogger(cfg, verbose)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 2: STORAGE AND CONSOLE
	// =========================================================================

	store, err := storage.Open(cfg.Store)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}

	files := utils.NewFileManager(cfg.OutputDir)
	files.UseTimestampSubdirs = cfg.ArchiveByDate
	c, err := console.New(ctx, console.Deps{
		Store:    store,
		Logger:   logger,
		Files:    files,
		Sheet:    sheet.Options{Delimiter: cfg.CSV.Delimiter},
		Mappings: cfg.Mappings,
	})
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to open console: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"store":  cfg.Store.Backend,
		"output": cfg.OutputDir,
	}).Debug("ledger opened")

	app = &application{cfg: cfg, logger: logger, store: store, files: files, console: c}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// printJSON writes v as indented JSON to the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

// kindArg parses a record kind argument.
func kindArg(s string) (types.Kind, error) {
	kind, ok := types.ParseKind(s)
	if !ok {
		return "", fmt.Errorf("unknown record kind %q (want work or expense)", s)
	}
	return kind, nil
}

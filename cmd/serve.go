// =============================================================================
// Labor Ledger - Serve Command
// =============================================================================
//
// COMMAND USAGE:
//   ledger serve [--addr :8080]
//
// Runs the HTTP console until interrupted. The listen address defaults to
// server.addr from config.yaml (LEDGER_SERVER_ADDR overrides it).
//
// =============================================================================

package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/labor-ledger/internal/server"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP console",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr := app.cfg.Server.Addr
		if listenAddr != "" {
			addr = listenAddr
		}
		srv := server.New(app.console, app.logger, app.cfg.Server.MaxUploadMB)
		return srv.Serve(ctx, addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "Listen address (overrides server.addr)")
}

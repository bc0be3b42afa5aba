// =============================================================================
// Labor Ledger - Main Entry Point
// =============================================================================
//
// Labor Ledger is the bookkeeping console for daily construction labor and
// site expenses. All command handling lives in the cmd package.
//
// USAGE:
//   ledger import <work|expense> <file>  - Import a spreadsheet
//   ledger worker|site ...               - Manage the registries
//   ledger serve                         - Run the HTTP console
//   ledger version                       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Core bookkeeping logic (not for external import)
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/labor-ledger/cmd"
)

func main() {
	cmd.Execute()
}

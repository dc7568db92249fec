package cli

import (
	"github.com/lianhaeming/renoguard/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Schedule   service.ScheduleService
	Acceptance service.AcceptanceService
}

// NewRootCmd creates the top-level "renoguard" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "renoguard",
		Short: "Construction stage tracker and acceptance workflow",
	}

	root.AddCommand(
		newScheduleCmd(app),
		newStageCmd(app),
		newSyncCmd(app),
	)

	return root
}

package cli

import (
	"context"
	"fmt"

	"github.com/lianhaeming/renoguard/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newSyncCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Push queued local changes to the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Schedule.Reconcile(context.Background())
			if err != nil {
				return err
			}
			fmt.Println(formatter.FormatReconcile(res))
			return nil
		},
	}
}

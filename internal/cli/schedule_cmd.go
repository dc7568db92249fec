package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/lianhaeming/renoguard/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newScheduleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "View and manage the project timeline",
	}

	cmd.AddCommand(
		newScheduleShowCmd(app),
		newScheduleStartCmd(app),
		newScheduleCalibrateCmd(app),
		newScheduleResetCmd(app),
	)

	return cmd
}

func newScheduleShowCmd(app *App) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stage timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			if offline {
				state, err := app.Schedule.Snapshot(ctx)
				if err != nil {
					return err
				}
				fmt.Println(formatter.FormatScheduleTable(state))
				return nil
			}

			res, err := app.Schedule.LoadSchedule(ctx)
			if err != nil {
				return err
			}
			if res.FromCache {
				fmt.Println("Backend unreachable; showing the last synced schedule.")
				fmt.Println()
			}
			fmt.Println(formatter.FormatScheduleTable(&res.State))
			if out := formatter.FormatDrift(res.Drift); out != "" {
				fmt.Println()
				fmt.Println(out)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the backend and show the local cache")

	return cmd
}

func newScheduleStartCmd(app *App) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Set the construction start date and build the timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.ParseInLocation("2006-01-02", date, time.UTC)
			if err != nil {
				return fmt.Errorf("invalid start date %q: %w", date, err)
			}

			state, err := app.Schedule.SetStartDate(context.Background(), start)
			if err != nil {
				return err
			}

			fmt.Println(formatter.FormatScheduleTable(state))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "Start date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func newScheduleResetCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Wipe the local cache, including acceptance records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("pass --force to confirm wiping the local cache")
			}
			if err := app.Schedule.ResetLocal(context.Background()); err != nil {
				return err
			}
			fmt.Println("Local cache cleared. Run 'schedule show' to pull the backend schedule, or 'schedule start' to begin a new timeline.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Confirm the wipe")

	return cmd
}

func newScheduleCalibrateCmd(app *App) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "calibrate STAGE",
		Short: "Correct a stage's end date; later stages shift with it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveStageKey(args[0])
			if err != nil {
				return err
			}
			end, err := time.ParseInLocation("2006-01-02", date, time.UTC)
			if err != nil {
				return fmt.Errorf("invalid end date %q: %w", date, err)
			}

			state, err := app.Schedule.Calibrate(context.Background(), key, end)
			if err != nil {
				return err
			}

			fmt.Println(formatter.FormatScheduleTable(state))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "end", "", "Actual end date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}

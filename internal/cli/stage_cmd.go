package cli

import (
	"context"
	"fmt"

	"github.com/lianhaeming/renoguard/internal/cli/formatter"
	"github.com/lianhaeming/renoguard/internal/domain"
	"github.com/spf13/cobra"
)

func newStageCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stage",
		Short: "Acceptance workflow for individual stages",
	}

	cmd.AddCommand(
		newStageAcceptCmd(app),
		newStageRecheckCmd(app),
		newStagePassCmd(app),
		newStageAppealCmd(app),
		newStageAppealResolveCmd(app),
		newStageRecordCmd(app),
		newStageLogCmd(app),
	)

	return cmd
}

func newStageAcceptCmd(app *App) *cobra.Command {
	var photos []string

	cmd := &cobra.Command{
		Use:   "accept STAGE",
		Short: "Submit a stage for acceptance analysis",
		Long: "Submits evidence photos for analysis and waits for the verdict. " +
			"A passing verdict completes the stage; a rectification finding opens " +
			"the recheck cycle.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveStageKey(args[0])
			if err != nil {
				return err
			}

			fmt.Println("Submitting evidence for analysis...")
			rec, err := app.Acceptance.SubmitAcceptance(context.Background(), key, photos)
			if err != nil {
				return err
			}

			fmt.Println(formatter.FormatAcceptanceRecord(rec))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&photos, "photo", nil, "Evidence photo URL (repeatable)")
	_ = cmd.MarkFlagRequired("photo")

	return cmd
}

func newStageRecheckCmd(app *App) *cobra.Command {
	var photos []string

	cmd := &cobra.Command{
		Use:   "recheck STAGE",
		Short: "Re-submit a stage after rectification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveStageKey(args[0])
			if err != nil {
				return err
			}

			fmt.Println("Submitting recheck evidence for analysis...")
			rec, err := app.Acceptance.SubmitRecheck(context.Background(), key, photos)
			if err != nil {
				return err
			}

			fmt.Println(formatter.FormatAcceptanceRecord(rec))
			if rec.Result == domain.ResultRectifyNeeded && rec.RecheckCount >= domain.MaxRecheckAttempts {
				fmt.Println("\nRechecks are exhausted. You may appeal the finding" +
					" or, for low/mid severity, sign the stage off yourself.")
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&photos, "photo", nil, "Evidence photo URL (repeatable)")
	_ = cmd.MarkFlagRequired("photo")

	return cmd
}

func newStagePassCmd(app *App) *cobra.Command {
	var photos []string
	var note string

	cmd := &cobra.Command{
		Use:   "pass STAGE",
		Short: "Sign a stage off manually after exhausted rechecks",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveStageKey(args[0])
			if err != nil {
				return err
			}

			if err := app.Acceptance.MarkPassed(context.Background(), key, photos, note); err != nil {
				return err
			}

			fmt.Printf("Stage %s signed off.\n", key)
			return nil
		},
		Args: cobra.ExactArgs(1),
	}

	cmd.Flags().StringArrayVar(&photos, "photo", nil, "Evidence photo URL (repeatable)")
	cmd.Flags().StringVar(&note, "note", "", "Sign-off note (at least 10 characters)")
	_ = cmd.MarkFlagRequired("photo")
	_ = cmd.MarkFlagRequired("note")

	return cmd
}

func newStageAppealCmd(app *App) *cobra.Command {
	var reason string
	var photos []string

	cmd := &cobra.Command{
		Use:   "appeal STAGE",
		Short: "Dispute a rectification finding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveStageKey(args[0])
			if err != nil {
				return err
			}

			if err := app.Acceptance.SubmitAppeal(context.Background(), key, reason, photos); err != nil {
				return err
			}

			fmt.Printf("Appeal filed for stage %s. A reviewer will decide; apply the outcome with 'stage appeal-resolve'.\n", key)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Why the finding is wrong")
	cmd.Flags().StringArrayVar(&photos, "photo", nil, "Supporting photo URL (repeatable)")
	_ = cmd.MarkFlagRequired("reason")
	_ = cmd.MarkFlagRequired("photo")

	return cmd
}

func newStageAppealResolveCmd(app *App) *cobra.Command {
	var approve, reject bool

	cmd := &cobra.Command{
		Use:   "appeal-resolve STAGE",
		Short: "Apply the reviewer's appeal decision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if approve == reject {
				return fmt.Errorf("pass exactly one of --approve or --reject")
			}
			key, err := resolveStageKey(args[0])
			if err != nil {
				return err
			}

			if err := app.Acceptance.ResolveAppeal(context.Background(), key, approve); err != nil {
				return err
			}

			if approve {
				fmt.Printf("Appeal approved; stage %s is completed.\n", key)
			} else {
				fmt.Printf("Appeal rejected; the finding on stage %s stands.\n", key)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&approve, "approve", false, "The reviewer upheld the appeal")
	cmd.Flags().BoolVar(&reject, "reject", false, "The reviewer rejected the appeal")

	return cmd
}

func newStageRecordCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "record STAGE",
		Short: "Show a stage's acceptance record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveStageKey(args[0])
			if err != nil {
				return err
			}

			rec, err := app.Acceptance.ActiveRecord(context.Background(), key)
			if err != nil {
				return err
			}
			if rec == nil {
				fmt.Printf("No acceptance record for stage %s.\n", key)
				return nil
			}

			fmt.Println(formatter.FormatAcceptanceRecord(rec))
			return nil
		},
	}
}

func newStageLogCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "log STAGE",
		Short: "Show a stage's status history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := resolveStageKey(args[0])
			if err != nil {
				return err
			}

			entries, err := app.Schedule.StageLog(context.Background(), key)
			if err != nil {
				return err
			}

			fmt.Println(formatter.FormatStageLog(entries))
			return nil
		},
	}
}

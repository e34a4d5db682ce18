package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskweave/taskweave/internal/config"
	"github.com/taskweave/taskweave/internal/state"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [task-id]",
	Short: "Show past task runs",
	Long: `List recorded task runs, or show the full result of one task by id.

History is stored in an SQLite database under the XDG data directory
(override with history.path in the config).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		db, err := state.Open(cfg.HistoryDBPath())
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer db.Close()

		if len(args) > 0 {
			return showRun(db, args[0])
		}
		return listRuns(db)
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum runs to list")
}

func listRuns(db *state.DB) error {
	runs, err := db.ListRuns(historyLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	for _, run := range runs {
		status := color.GreenString("ok  ")
		if !run.Success {
			status = color.RedString("fail")
		}
		desc := run.Description
		if desc == "" {
			desc = "(no description)"
		}
		fmt.Printf("%s  %s  %-36s  %d/%d steps  %v  %s\n",
			status, run.RecordedAt.Format("2006-01-02 15:04"),
			run.TaskID, run.CompletedSteps, run.CompletedSteps+run.FailedSteps,
			run.Duration, desc)
	}
	return nil
}

func showRun(db *state.DB, taskID string) error {
	result, err := db.GetResult(taskID)
	if err != nil {
		return err
	}

	fmt.Printf("Task %s\n", result.TaskID)
	for _, step := range result.Steps {
		mark := color.GreenString("✓")
		if !step.Success {
			mark = color.RedString("✗")
		}
		fmt.Printf("  %s %s (%v", mark, step.StepID, step.Duration)
		if step.Retries > 0 {
			fmt.Printf(", %d retries", step.Retries)
		}
		fmt.Println(")")
		if step.Error != "" {
			fmt.Printf("    %s\n", step.Error)
		}
	}
	fmt.Printf("\n%d completed, %d failed in %v\n",
		result.CompletedSteps, result.FailedSteps, result.Duration)
	if len(result.Errors) > 0 && len(result.Steps) == 0 {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "  %s\n", e)
		}
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/taskweave/taskweave/internal/decompose"
	"github.com/taskweave/taskweave/internal/graph"
	"github.com/taskweave/taskweave/internal/planner"
	"github.com/taskweave/taskweave/internal/reasoning"
	"github.com/taskweave/taskweave/pkg/models"
)

var planFile string

var planCmd = &cobra.Command{
	Use:   "plan [task description]",
	Short: "Show the execution plan without running it",
	Long: `Decompose a task and print the leveled execution plan: which steps
run in which order, which levels parallelize, and the estimated
duration. Nothing is executed.

Planning always uses the offline heuristic engine.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if planFile == "" && len(args) == 0 {
			return fmt.Errorf("provide a task description or --file")
		}

		runFile = planFile
		task, steps, err := loadTask(args)
		if err != nil {
			return err
		}

		if steps == nil {
			engine := reasoning.NewHeuristicEngine()
			assessment, err := engine.Reason(context.Background(), task.Description, task.Context)
			if err != nil {
				return fmt.Errorf("reasoning: %w", err)
			}
			fmt.Printf("Assessment: %s (confidence %.2f)\n\n", assessment.Conclusion, assessment.Confidence)

			steps, err = decompose.Breakdown(task, assessment.Conclusion)
			if err != nil {
				return fmt.Errorf("decomposition: %w", err)
			}
		}

		g, err := graph.Resolve(steps)
		if err != nil {
			return fmt.Errorf("dependency resolution: %w", err)
		}
		plan := planner.BuildPlan(g)
		printPlan(plan)
		return nil
	},
}

func init() {
	planCmd.Flags().StringVarP(&planFile, "file", "f", "", "YAML task file")
}

func printPlan(plan models.ExecutionPlan) {
	for _, group := range plan.Groups {
		mode := "sequential"
		if group.CanParallelize {
			mode = "parallel"
		}
		fmt.Printf("%s %d (%s)\n", color.CyanString("Level"), group.Level, mode)
		for _, step := range group.Steps {
			line := fmt.Sprintf("  %s", step.ID)
			if step.Tool != "" {
				line += fmt.Sprintf(" [%s]", step.Tool)
			}
			if len(step.Dependencies) > 0 {
				line += fmt.Sprintf(" <- %s", strings.Join(step.Dependencies, ", "))
			}
			fmt.Println(line)
		}
	}
	fmt.Printf("\n%d steps in %d levels, estimated %v\n",
		plan.TotalSteps, len(plan.Groups), plan.EstimatedDuration)
}

// Command taskweave decomposes tasks into dependency-ordered steps and
// executes them with bounded parallelism.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "taskweave",
	Short: "Dependency-aware task planner and executor",
	Long: `Taskweave reasons about a task, breaks it into steps, resolves the
step dependency graph into parallel execution levels, and runs the
levels in order with bounded concurrency.

Tasks come from the command line or a YAML task file. Reasoning uses
the Anthropic API by default; pass --offline to use the built-in
heuristic engine instead.`,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskweave/taskweave/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show effective configuration",
	Long: `Display the effective configuration after merging defaults, the user
config (~/.config/taskweave/config.yaml), the project config
(.taskweave.yaml in this directory or a parent), and environment
variables.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		displayConfig(cfg)
	},
}

func displayConfig(cfg *config.Config) {
	apiKeyDisplay := "(not set)"
	if cfg.Anthropic.APIKey != "" {
		apiKeyDisplay = "****"
	}
	modelDisplay := cfg.Anthropic.Model
	if modelDisplay == "" {
		modelDisplay = "(default)"
	}

	fmt.Printf("anthropic.api_key: %s\n", apiKeyDisplay)
	fmt.Printf("anthropic.model: %s\n", modelDisplay)
	fmt.Printf("anthropic.use_bedrock: %t\n", cfg.Anthropic.UseBedrock)
	if cfg.Anthropic.UseBedrock {
		fmt.Printf("anthropic.aws_region: %s\n", cfg.Anthropic.AWSRegion)
		fmt.Printf("anthropic.aws_profile: %s\n", cfg.Anthropic.AWSProfile)
	}
	fmt.Printf("executor.max_parallel: %d\n", cfg.Executor.MaxParallel)
	fmt.Printf("executor.max_retries: %d\n", cfg.Executor.MaxRetries)
	fmt.Printf("executor.retry_delay: %s\n", cfg.Executor.RetryDelay)
	fmt.Printf("history.enabled: %t\n", cfg.History.Enabled)
	fmt.Printf("history.path: %s\n", cfg.HistoryDBPath())

	fmt.Printf("\nuser config: %s\n", config.UserConfigPath())
	if project := config.ProjectConfigPath(); project != "" {
		fmt.Printf("project config: %s\n", project)
	}
}

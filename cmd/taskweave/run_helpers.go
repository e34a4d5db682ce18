package main

import (
	"fmt"
	"os"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/fatih/color"

	"github.com/taskweave/taskweave/internal/config"
	"github.com/taskweave/taskweave/internal/executor"
	"github.com/taskweave/taskweave/internal/orchestrator"
	"github.com/taskweave/taskweave/internal/reasoning"
	"github.com/taskweave/taskweave/internal/state"
	"github.com/taskweave/taskweave/internal/tools"
	"github.com/taskweave/taskweave/pkg/models"
)

// buildOrchestrator wires the orchestrator from configuration: tool
// registry with builtins, group executor, reasoning engine, and the
// history store when enabled. The returned cleanup closes the store.
func buildOrchestrator(explicit []*models.Step) (*orchestrator.Orchestrator, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	workDir, err := os.Getwd()
	if err != nil {
		return nil, nil, err
	}

	registry := tools.NewRegistry()
	if err := tools.RegisterBuiltins(registry, workDir); err != nil {
		return nil, nil, fmt.Errorf("register builtin tools: %w", err)
	}

	reasoner, err := buildReasoner(cfg)
	if err != nil {
		return nil, nil, err
	}

	opts := []orchestrator.Option{}
	cleanup := func() {}
	if cfg.History.Enabled {
		db, err := state.Open(cfg.HistoryDBPath())
		if err != nil {
			// History is best-effort; run without it.
			fmt.Fprintf(os.Stderr, "Warning: history store unavailable: %v\n", err)
		} else {
			opts = append(opts, orchestrator.WithResultStore(db))
			cleanup = func() { db.Close() }
		}
	}
	if explicit != nil {
		opts = append(opts, orchestrator.WithBreakdown(
			func(*models.Task, string) ([]*models.Step, error) { return explicit, nil }))
	}

	o, err := orchestrator.New(orchestrator.RequiredConfig{
		Reasoner: reasoner,
		Executor: executor.New(registry, executor.Config{
			MaxParallel: cfg.Executor.MaxParallel,
			MaxRetries:  cfg.Executor.MaxRetries,
			RetryDelay:  cfg.Executor.RetryDelay,
		}),
		Registry: registry,
	}, opts...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return o, cleanup, nil
}

func buildReasoner(cfg *config.Config) (reasoning.Engine, error) {
	if runOffline {
		return reasoning.NewHeuristicEngine(), nil
	}
	engine, err := reasoning.NewClaudeEngine(reasoning.ClaudeConfig{
		Model:         anthropic.Model(cfg.Anthropic.Model),
		APIKey:        cfg.Anthropic.APIKey,
		UseAWSBedrock: cfg.Anthropic.UseBedrock,
		AWSRegion:     cfg.Anthropic.AWSRegion,
		AWSProfile:    cfg.Anthropic.AWSProfile,
	})
	if err != nil {
		return nil, fmt.Errorf("reasoning engine: %w (use --offline to run without API access)", err)
	}
	return engine, nil
}

// printResult renders the execution outcome.
func printResult(task *models.Task, result *models.ExecutionResult) {
	fmt.Printf("\nTask: %s\n", task.Description)

	for _, step := range result.Steps {
		if step.Success {
			fmt.Printf("  %s %s (%v", color.GreenString("✓"), step.StepID, step.Duration.Round(time.Millisecond))
		} else {
			fmt.Printf("  %s %s (%v", color.RedString("✗"), step.StepID, step.Duration.Round(time.Millisecond))
		}
		if step.Retries > 0 {
			fmt.Printf(", %d retries", step.Retries)
		}
		fmt.Println(")")
		if !step.Success && step.Error != "" {
			fmt.Printf("    %s\n", step.Error)
		}
	}

	status := color.GreenString("succeeded")
	if !result.Success {
		status = color.RedString("failed")
	}
	fmt.Printf("\nTask %s: %d completed, %d failed in %v\n",
		status, result.CompletedSteps, result.FailedSteps, result.Duration.Round(time.Millisecond))

	// Pipeline-stage failures (reasoning, cycles) have no step results,
	// so their errors would otherwise be invisible.
	if len(result.Steps) == 0 {
		for _, e := range result.Errors {
			fmt.Printf("  %s %s\n", color.RedString("!"), e)
		}
	}
}

// Package executor drives execution plans: strict level ordering,
// concurrent dispatch within parallelizable groups, per-step retries
// and timeouts.
package executor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/taskweave/taskweave/internal/logging"
	"github.com/taskweave/taskweave/internal/tools"
	"github.com/taskweave/taskweave/pkg/models"
)

// Config tunes a GroupExecutor.
type Config struct {
	// MaxParallel caps concurrent steps within a group. Zero means 4.
	MaxParallel int
	// MaxRetries is the number of additional attempts for retryable
	// steps. Zero means 2.
	MaxRetries int
	// RetryDelay is the pause between attempts. Zero means 100ms.
	RetryDelay time.Duration
}

// GroupExecutor executes step groups against a tool registry. Groups
// are processed strictly in ascending level order; level k+1 does not
// start until every step of level k has resolved. Within a
// parallelizable group steps run concurrently with join semantics.
type GroupExecutor struct {
	registry    *tools.Registry
	maxParallel int
	maxRetries  int
	retryDelay  time.Duration
}

// New creates a GroupExecutor over the given registry.
func New(registry *tools.Registry, cfg Config) *GroupExecutor {
	maxParallel := cfg.MaxParallel
	if maxParallel <= 0 {
		maxParallel = 4
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 2
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 100 * time.Millisecond
	}

	return &GroupExecutor{
		registry:    registry,
		maxParallel: maxParallel,
		maxRetries:  maxRetries,
		retryDelay:  retryDelay,
	}
}

// Execute runs all groups and returns exactly one result per step.
// A failed step never halts its siblings, but its dependents (direct
// and transitive) are skipped and reported as failed with a blocked-by
// reason. Context cancellation stops dispatch; remaining steps are
// failed with the context error.
func (e *GroupExecutor) Execute(ctx context.Context, groups []models.StepGroup) ([]models.StepResult, error) {
	var results []models.StepResult

	// failed tracks resolved-unsuccessful step IDs so later levels can
	// skip their dependents. Only touched between group barriers.
	failed := make(map[string]bool)

	for _, group := range groups {
		logging.Debugf("[executor] level %d: %d steps (parallel=%v)",
			group.Level, len(group.Steps), group.CanParallelize)

		groupResults := make([]models.StepResult, len(group.Steps))

		g, groupCtx := errgroup.WithContext(ctx)
		g.SetLimit(e.maxParallel)

		for i, step := range group.Steps {
			if blockedBy := blockingDependency(step, failed); blockedBy != "" {
				step.Status = models.StepStatusFailed
				groupResults[i] = models.StepResult{
					StepID:  step.ID,
					Success: false,
					Error:   fmt.Sprintf("blocked by dependency %s", blockedBy),
				}
				continue
			}

			if err := ctx.Err(); err != nil {
				step.Status = models.StepStatusFailed
				groupResults[i] = models.StepResult{
					StepID:  step.ID,
					Success: false,
					Error:   fmt.Sprintf("not started: %v", err),
				}
				continue
			}

			i, step := i, step
			g.Go(func() error {
				groupResults[i] = e.runStep(groupCtx, step)
				// Step failures are recorded, never propagated: the
				// group must join on every member.
				return nil
			})
		}

		// Barrier: the next level must not start before this one has
		// fully resolved.
		_ = g.Wait()

		for _, res := range groupResults {
			if !res.Success {
				failed[res.StepID] = true
			}
		}

		results = append(results, groupResults...)
	}

	return results, nil
}

// runStep executes one step, retrying when the step (or its tool)
// allows it. The per-attempt timeout is binding.
func (e *GroupExecutor) runStep(ctx context.Context, step *models.Step) models.StepResult {
	start := time.Now()
	step.Status = models.StepStatusRunning

	// Steps without a tool carry no executable action; they resolve
	// immediately. Decomposition templates produce such steps.
	if step.Tool == "" {
		step.Status = models.StepStatusCompleted
		logging.Debugf("[executor] step %s: no tool, resolved as no-op", step.ID)
		return models.StepResult{
			StepID:   step.ID,
			Success:  true,
			Output:   fmt.Sprintf("%s (no-op)", step.Action),
			Duration: time.Since(start),
		}
	}

	def, ok := e.registry.Get(step.Tool)
	if !ok {
		step.Status = models.StepStatusFailed
		return models.StepResult{
			StepID:   step.ID,
			Success:  false,
			Error:    fmt.Sprintf("unknown tool %q", step.Tool),
			Duration: time.Since(start),
		}
	}

	timeout := step.EffectiveTimeout()
	if def.Timeout > 0 && step.Timeout == 0 {
		timeout = def.Timeout
	}

	attempts := 1
	if step.Retryable || def.Retryable {
		attempts += e.maxRetries
	}

	var lastErr error
	retries := 0
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			logging.Debugf("[executor] step %s: retry %d/%d", step.ID, attempt, attempts-1)
			select {
			case <-time.After(e.retryDelay):
			case <-ctx.Done():
				lastErr = ctx.Err()
				break
			}
			if ctx.Err() != nil {
				break
			}
			retries++
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		output, err := def.Execute(attemptCtx, step.Inputs)
		cancel()

		if err == nil {
			step.Status = models.StepStatusCompleted
			return models.StepResult{
				StepID:   step.ID,
				Success:  true,
				Output:   output,
				Duration: time.Since(start),
				Retries:  retries,
			}
		}
		lastErr = err

		// A cancelled parent context makes further attempts pointless.
		if ctx.Err() != nil {
			break
		}
	}

	step.Status = models.StepStatusFailed
	return models.StepResult{
		StepID:   step.ID,
		Success:  false,
		Error:    lastErr.Error(),
		Duration: time.Since(start),
		Retries:  retries,
	}
}

// blockingDependency returns the first dependency of the step that has
// already failed, or "" when the step may run.
func blockingDependency(step *models.Step, failed map[string]bool) string {
	for _, dep := range step.Dependencies {
		if failed[dep] {
			return dep
		}
	}
	return ""
}

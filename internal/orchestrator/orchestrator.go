// Package orchestrator coordinates one task execution end to end:
// reasoning, decomposition, graph resolution, planning, execution,
// and result aggregation.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/taskweave/taskweave/internal/decompose"
	"github.com/taskweave/taskweave/internal/graph"
	"github.com/taskweave/taskweave/internal/logging"
	"github.com/taskweave/taskweave/internal/planner"
	"github.com/taskweave/taskweave/internal/reasoning"
	"github.com/taskweave/taskweave/internal/tools"
	"github.com/taskweave/taskweave/pkg/models"
)

// StepExecutor is the executor collaborator contract. It processes
// groups strictly in ascending level order and returns exactly one
// result per input step.
type StepExecutor interface {
	Execute(ctx context.Context, groups []models.StepGroup) ([]models.StepResult, error)
}

// ResultStore receives finished execution results. Persistence is
// best-effort: a store failure never fails the task.
type ResultStore interface {
	SaveResult(result *models.ExecutionResult) error
}

// BreakdownFunc turns a task and a reasoning conclusion into steps.
type BreakdownFunc func(task *models.Task, conclusion string) ([]*models.Step, error)

// RequiredConfig contains the collaborators every Orchestrator needs.
type RequiredConfig struct {
	// Reasoner assesses the task before decomposition.
	Reasoner reasoning.Engine
	// Executor drives the plan's step groups.
	Executor StepExecutor
	// Registry is the tool registry RegisterTool forwards to.
	Registry *tools.Registry
}

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*orchestratorOptions)

type orchestratorOptions struct {
	store     ResultStore
	breakdown BreakdownFunc
}

// WithResultStore attaches a history store for finished results.
func WithResultStore(store ResultStore) Option {
	return func(o *orchestratorOptions) { o.store = store }
}

// WithBreakdown replaces the default decomposition strategy.
func WithBreakdown(fn BreakdownFunc) Option {
	return func(o *orchestratorOptions) { o.breakdown = fn }
}

// Orchestrator runs tasks. It is explicitly constructed with its
// collaborators and holds no state shared across ExecuteTask calls, so
// separate tasks may run concurrently on the same instance.
type Orchestrator struct {
	reasoner  reasoning.Engine
	executor  StepExecutor
	registry  *tools.Registry
	store     ResultStore
	breakdown BreakdownFunc
}

// New creates an Orchestrator from its collaborators.
func New(cfg RequiredConfig, opts ...Option) (*Orchestrator, error) {
	if cfg.Reasoner == nil {
		return nil, fmt.Errorf("orchestrator requires a reasoning engine")
	}
	if cfg.Executor == nil {
		return nil, fmt.Errorf("orchestrator requires a step executor")
	}
	if cfg.Registry == nil {
		return nil, fmt.Errorf("orchestrator requires a tool registry")
	}

	options := &orchestratorOptions{breakdown: decompose.Breakdown}
	for _, opt := range opts {
		opt(options)
	}

	return &Orchestrator{
		reasoner:  cfg.Reasoner,
		executor:  cfg.Executor,
		registry:  cfg.Registry,
		store:     options.store,
		breakdown: options.breakdown,
	}, nil
}

// ExecuteTask runs one task to completion and returns its result. All
// expected failure modes (reasoning failure, malformed decomposition,
// dependency cycles, executor failure, step failures) terminate as a
// well-formed ExecutionResult; the method never panics past its own
// boundary and never returns a nil result.
func (o *Orchestrator) ExecuteTask(ctx context.Context, task *models.Task) *models.ExecutionResult {
	start := time.Now()

	if task == nil {
		return &models.ExecutionResult{
			Success: false,
			Errors:  []string{"nil task"},
		}
	}

	result := o.executeTask(ctx, task, start)
	result.Duration = time.Since(start)

	if o.store != nil {
		if err := o.store.SaveResult(result); err != nil {
			logging.Debugf("[orchestrator] save result for task %s: %v", task.ID, err)
		}
	}
	return result
}

func (o *Orchestrator) executeTask(ctx context.Context, task *models.Task, start time.Time) *models.ExecutionResult {
	fail := func(stage string, err error) *models.ExecutionResult {
		logging.Debugf("[orchestrator] task %s failed during %s: %v", task.ID, stage, err)
		return &models.ExecutionResult{
			TaskID:  task.ID,
			Success: false,
			Errors:  []string{fmt.Sprintf("%s: %v", stage, err)},
		}
	}

	logging.Debugf("[orchestrator] task %s: reasoning", task.ID)
	assessment, err := o.reasoner.Reason(ctx, task.Description, task.Context)
	if err != nil {
		return fail("reasoning", err)
	}
	logging.Debugf("[orchestrator] task %s: conclusion=%q confidence=%.2f",
		task.ID, assessment.Conclusion, assessment.Confidence)

	steps, err := o.breakdown(task, assessment.Conclusion)
	if err != nil {
		return fail("decomposition", err)
	}

	// Fail closed on structural errors: no execution is attempted for
	// a step set that is not a DAG.
	g, err := graph.Resolve(steps)
	if err != nil {
		return fail("dependency resolution", err)
	}

	plan := planner.BuildPlan(g)
	logging.Debugf("[orchestrator] task %s: %d steps in %d groups, estimated %v",
		task.ID, plan.TotalSteps, len(plan.Groups), plan.EstimatedDuration)

	stepResults, err := o.executor.Execute(ctx, plan.Groups)
	if err != nil {
		return fail("execution", err)
	}

	return aggregate(task.ID, stepResults)
}

// aggregate folds per-step results into the task-level outcome.
func aggregate(taskID string, stepResults []models.StepResult) *models.ExecutionResult {
	result := &models.ExecutionResult{
		TaskID:  taskID,
		Success: true,
		Steps:   stepResults,
	}

	for _, r := range stepResults {
		if r.Success {
			result.CompletedSteps++
			continue
		}
		result.Success = false
		result.FailedSteps++
		result.Errors = append(result.Errors, fmt.Sprintf("step %s: %s", r.StepID, r.Error))
	}

	return result
}

// RegisterTool forwards a tool registration to the registry. It is a
// pass-through; the orchestrator plays no part in tool execution.
func (o *Orchestrator) RegisterTool(def tools.Definition) error {
	return o.registry.Register(def)
}

// ExplainReasoning returns the reasoning engine's explanation for a
// task. Pass-through; not part of scheduling.
func (o *Orchestrator) ExplainReasoning(ctx context.Context, task *models.Task) (string, error) {
	if task == nil {
		return "", fmt.Errorf("nil task")
	}
	return o.reasoner.Explain(ctx, task.Description)
}

// Package models defines the core data types shared across taskweave:
// tasks, steps, execution plans, and execution results.
package models

import "time"

// DefaultStepTimeout is used for duration estimation and enforcement
// when a step does not declare its own timeout.
const DefaultStepTimeout = 5 * time.Second

// Priority indicates how urgent a task is relative to others.
type Priority string

const (
	// PriorityLow marks background work.
	PriorityLow Priority = "low"
	// PriorityNormal is the default priority.
	PriorityNormal Priority = "normal"
	// PriorityHigh marks work that should be surfaced first.
	PriorityHigh Priority = "high"
)

// Valid returns true if the priority is a known value.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	default:
		return false
	}
}

// Task represents one user request to be decomposed and executed.
// A Task is immutable after creation; the orchestrator owns it for
// the duration of a single ExecuteTask call.
type Task struct {
	// ID is the unique identifier for this task.
	ID string `json:"id"`
	// Description is the free-text description of what to accomplish.
	Description string `json:"description"`
	// Context carries arbitrary key/value hints for reasoning and decomposition.
	Context map[string]any `json:"context,omitempty"`
	// Constraints lists restrictions the execution should respect.
	Constraints []string `json:"constraints,omitempty"`
	// Priority is the task priority.
	Priority Priority `json:"priority"`
	// CreatedAt is when the task was created.
	CreatedAt time.Time `json:"created_at"`
}

// StepStatus represents the current state of a step.
type StepStatus string

const (
	// StepStatusPending indicates the step has not started.
	StepStatusPending StepStatus = "pending"
	// StepStatusRunning indicates the step is executing.
	StepStatusRunning StepStatus = "running"
	// StepStatusCompleted indicates the step finished successfully.
	StepStatusCompleted StepStatus = "completed"
	// StepStatusFailed indicates the step failed.
	StepStatusFailed StepStatus = "failed"
)

// Valid returns true if the status is a known value.
func (s StepStatus) Valid() bool {
	switch s {
	case StepStatusPending, StepStatusRunning, StepStatusCompleted, StepStatusFailed:
		return true
	default:
		return false
	}
}

// Terminal returns true once the step can no longer change state.
func (s StepStatus) Terminal() bool {
	return s == StepStatusCompleted || s == StepStatusFailed
}

// Step is a single unit of work within a task. Steps are produced by
// decomposition, status-mutated only by the executor, and discarded
// when the task's execution ends.
type Step struct {
	// ID is unique within the owning task.
	ID string `json:"id"`
	// Action is the short verb phrase for what the step does.
	Action string `json:"action"`
	// Description provides detail about the step.
	Description string `json:"description,omitempty"`
	// Tool is the registered tool to invoke, if any.
	Tool string `json:"tool,omitempty"`
	// Inputs are passed to the tool when the step runs.
	Inputs map[string]any `json:"inputs,omitempty"`
	// Outputs names the values this step is expected to produce.
	Outputs []string `json:"outputs,omitempty"`
	// Dependencies lists IDs of steps in the same task that must
	// complete before this step may run.
	Dependencies []string `json:"dependencies,omitempty"`
	// Retryable indicates the executor may retry this step on failure.
	Retryable bool `json:"retryable"`
	// Timeout bounds a single execution attempt. Zero means
	// DefaultStepTimeout.
	Timeout time.Duration `json:"timeout,omitempty"`
	// Status is the current state of the step.
	Status StepStatus `json:"status"`
}

// EffectiveTimeout returns the step timeout, falling back to
// DefaultStepTimeout when none is declared.
func (s *Step) EffectiveTimeout() time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return DefaultStepTimeout
}

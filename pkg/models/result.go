package models

import "time"

// StepResult is the outcome of executing a single step. Produced by
// the executor; the orchestrator aggregates results and never mutates
// them.
type StepResult struct {
	// StepID identifies the step this result belongs to.
	StepID string `json:"step_id"`
	// Success is true if the step completed without error.
	Success bool `json:"success"`
	// Output is the value produced by the step's tool, if any.
	Output any `json:"output,omitempty"`
	// Error is the failure message for unsuccessful steps.
	Error string `json:"error,omitempty"`
	// Duration is how long the step took, including retries.
	Duration time.Duration `json:"duration"`
	// Retries is how many additional attempts were made after the first.
	Retries int `json:"retries"`
}

// ExecutionResult is the terminal artifact of one ExecuteTask call.
// Success is true iff every step result succeeded.
type ExecutionResult struct {
	// TaskID identifies the task this result belongs to.
	TaskID string `json:"task_id"`
	// Success is true when every step succeeded.
	Success bool `json:"success"`
	// Steps holds one result per executed step.
	Steps []StepResult `json:"steps,omitempty"`
	// Duration is the wall-clock time of the whole call.
	Duration time.Duration `json:"duration"`
	// Errors collects the cycle, collaborator, or step errors that
	// caused failure.
	Errors []string `json:"errors,omitempty"`
	// CompletedSteps counts successful steps.
	CompletedSteps int `json:"completed_steps"`
	// FailedSteps counts unsuccessful steps.
	FailedSteps int `json:"failed_steps"`
}

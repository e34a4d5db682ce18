package models

import "time"

// StepGroup is the runtime unit corresponding to one level of the
// dependency graph. Steps in a group have no dependencies on each
// other and may run concurrently when CanParallelize is true.
type StepGroup struct {
	// Level is the zero-based topological level of this group.
	Level int `json:"level"`
	// Steps are the members of this group, in deterministic order.
	Steps []*Step `json:"steps"`
	// CanParallelize is true when the group has more than one step.
	CanParallelize bool `json:"can_parallelize"`
}

// ExecutionPlan is the ordered set of step groups for one task,
// with a wall-clock estimate under the parallel/sequential cost
// model. It is derived, read-only, and consumed once by the executor.
type ExecutionPlan struct {
	// Groups are the step groups in ascending level order.
	Groups []StepGroup `json:"groups"`
	// TotalSteps is the number of steps across all groups.
	TotalSteps int `json:"total_steps"`
	// EstimatedDuration is the estimated wall-clock cost of the plan.
	EstimatedDuration time.Duration `json:"estimated_duration"`
}

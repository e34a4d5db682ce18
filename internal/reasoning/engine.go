// Package reasoning provides the reasoning collaborator the
// orchestrator consults before decomposing a task.
package reasoning

import "context"

// Reasoning is the collaborator's assessment of a task description.
// The conclusion feeds decomposition as a hint; confidence is
// advisory only.
type Reasoning struct {
	// Conclusion is a short free-text assessment of the task.
	Conclusion string `json:"conclusion"`
	// Confidence is in [0, 1].
	Confidence float64 `json:"confidence"`
}

// Engine is the reasoning collaborator contract. Implementations may
// fail; the orchestrator converts failures into a failed
// ExecutionResult rather than propagating them.
type Engine interface {
	// Reason assesses a task description with optional context hints.
	Reason(ctx context.Context, description string, taskCtx map[string]any) (Reasoning, error)
	// Explain returns a human-readable explanation of how the engine
	// would approach the description.
	Explain(ctx context.Context, description string) (string, error)
}

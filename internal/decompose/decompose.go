// Package decompose breaks a task into concrete, dependency-annotated steps.
package decompose

import (
	"fmt"
	"strings"

	"github.com/taskweave/taskweave/pkg/models"
)

// Breakdown produces the step list for a task. The reasoning
// conclusion is used only as an extra keyword source for template
// selection; correctness of the schedule never depends on it.
// The strategy is a keyword-triggered template selector and is meant
// to be replaceable.
func Breakdown(task *models.Task, conclusion string) ([]*models.Step, error) {
	if task == nil {
		return nil, fmt.Errorf("nil task")
	}

	text := strings.ToLower(task.Description + " " + conclusion)

	steps := instantiate(genericTemplate, task)
	for _, trigger := range templateTriggers {
		if matchesAny(text, trigger.keywords) {
			steps = instantiate(trigger.steps, task)
			break
		}
	}

	if err := ValidateSteps(steps); err != nil {
		return nil, fmt.Errorf("decomposition produced malformed steps: %w", err)
	}
	return steps, nil
}

// ValidateSteps checks the structural contract of a step list: IDs are
// unique and every dependency references another step in the list.
// Cycle checking is the graph resolver's job, not ours.
func ValidateSteps(steps []*models.Step) error {
	seen := make(map[string]bool, len(steps))
	for _, step := range steps {
		if step.ID == "" {
			return fmt.Errorf("step with empty id")
		}
		if seen[step.ID] {
			return fmt.Errorf("duplicate step id %q", step.ID)
		}
		seen[step.ID] = true
	}
	for _, step := range steps {
		for _, dep := range step.Dependencies {
			if !seen[dep] {
				return fmt.Errorf("step %s references unknown dependency %s", step.ID, dep)
			}
		}
	}
	return nil
}

func instantiate(tmpl []stepTemplate, task *models.Task) []*models.Step {
	steps := make([]*models.Step, len(tmpl))
	for i, st := range tmpl {
		steps[i] = &models.Step{
			ID:           st.id,
			Action:       st.action,
			Description:  st.description + ": " + task.Description,
			Dependencies: append([]string(nil), st.dependencies...),
			Retryable:    st.retryable,
			Status:       models.StepStatusPending,
		}
	}
	return steps
}

func matchesAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

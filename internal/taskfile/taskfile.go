// Package taskfile loads task definitions from YAML files. A task file
// carries the description plus optional context, constraints, priority,
// and an explicit step list that bypasses keyword decomposition.
package taskfile

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/taskweave/taskweave/pkg/models"
)

// File is the YAML schema of a task definition.
type File struct {
	Description string         `yaml:"description"`
	Context     map[string]any `yaml:"context"`
	Constraints []string       `yaml:"constraints"`
	Priority    string         `yaml:"priority"`
	Steps       []StepDef      `yaml:"steps"`
}

// StepDef is one explicitly declared step.
type StepDef struct {
	ID           string         `yaml:"id"`
	Action       string         `yaml:"action"`
	Description  string         `yaml:"description"`
	Tool         string         `yaml:"tool"`
	Inputs       map[string]any `yaml:"inputs"`
	Dependencies []string       `yaml:"dependencies"`
	Timeout      time.Duration  `yaml:"timeout"`
	Retryable    bool           `yaml:"retryable"`
}

// Load reads and validates a task file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse task file %s: %w", path, err)
	}
	if err := f.validate(); err != nil {
		return nil, fmt.Errorf("task file %s: %w", path, err)
	}
	return &f, nil
}

func (f *File) validate() error {
	if f.Description == "" {
		return fmt.Errorf("description is required")
	}
	if f.Priority != "" && !models.Priority(f.Priority).Valid() {
		return fmt.Errorf("invalid priority %q", f.Priority)
	}
	seen := make(map[string]bool, len(f.Steps))
	for i, s := range f.Steps {
		if s.ID == "" {
			return fmt.Errorf("step %d: id is required", i)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate step id %q", s.ID)
		}
		seen[s.ID] = true
	}
	for _, s := range f.Steps {
		for _, dep := range s.Dependencies {
			if !seen[dep] {
				return fmt.Errorf("step %q depends on unknown step %q", s.ID, dep)
			}
		}
	}
	return nil
}

// Task builds a models.Task from the file. A fresh UUID is assigned.
func (f *File) Task() *models.Task {
	priority := models.Priority(f.Priority)
	if priority == "" {
		priority = models.PriorityNormal
	}
	return &models.Task{
		ID:          uuid.NewString(),
		Description: f.Description,
		Context:     f.Context,
		Constraints: f.Constraints,
		Priority:    priority,
		CreatedAt:   time.Now(),
	}
}

// ExplicitSteps converts the declared step list to model steps, or nil
// when the file declares none.
func (f *File) ExplicitSteps() []*models.Step {
	if len(f.Steps) == 0 {
		return nil
	}
	steps := make([]*models.Step, 0, len(f.Steps))
	for _, s := range f.Steps {
		action := s.Action
		if action == "" {
			action = s.ID
		}
		steps = append(steps, &models.Step{
			ID:           s.ID,
			Action:       action,
			Description:  s.Description,
			Tool:         s.Tool,
			Inputs:       s.Inputs,
			Dependencies: s.Dependencies,
			Timeout:      s.Timeout,
			Retryable:    s.Retryable,
			Status:       models.StepStatusPending,
		})
	}
	return steps
}

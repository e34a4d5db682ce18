package taskfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/taskweave/taskweave/pkg/models"
)

func writeTaskFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "task.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write task file: %v", err)
	}
	return path
}

func TestLoadMinimal(t *testing.T) {
	path := writeTaskFile(t, "description: refactor the parser\n")

	f, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task := f.Task()
	if task.ID == "" {
		t.Error("expected generated task id")
	}
	if task.Description != "refactor the parser" {
		t.Errorf("unexpected description: %q", task.Description)
	}
	if task.Priority != models.PriorityNormal {
		t.Errorf("expected normal priority default, got %q", task.Priority)
	}
	if f.ExplicitSteps() != nil {
		t.Error("expected no explicit steps")
	}
}

func TestLoadWithExplicitSteps(t *testing.T) {
	path := writeTaskFile(t, `
description: release pipeline
priority: high
context:
  branch: main
constraints:
  - no force pushes
steps:
  - id: build
    tool: shell
    inputs:
      command: make build
    timeout: 30s
  - id: test
    tool: shell
    dependencies: [build]
    retryable: true
  - id: publish
    dependencies: [test]
`)

	f, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	task := f.Task()
	if task.Priority != models.PriorityHigh {
		t.Errorf("expected high priority, got %q", task.Priority)
	}
	if task.Context["branch"] != "main" {
		t.Errorf("unexpected context: %v", task.Context)
	}
	if len(task.Constraints) != 1 {
		t.Errorf("unexpected constraints: %v", task.Constraints)
	}

	steps := f.ExplicitSteps()
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(steps))
	}
	if steps[0].Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", steps[0].Timeout)
	}
	if steps[0].Action != "build" {
		t.Errorf("expected action to default to id, got %q", steps[0].Action)
	}
	if !steps[1].Retryable {
		t.Error("expected test step retryable")
	}
	if steps[1].Status != models.StepStatusPending {
		t.Errorf("expected pending status, got %q", steps[1].Status)
	}
	if len(steps[2].Dependencies) != 1 || steps[2].Dependencies[0] != "test" {
		t.Errorf("unexpected dependencies: %v", steps[2].Dependencies)
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing description", "priority: high\n"},
		{"bad priority", "description: x\npriority: urgent\n"},
		{"missing step id", "description: x\nsteps:\n  - tool: shell\n"},
		{"duplicate step id", "description: x\nsteps:\n  - id: a\n  - id: a\n"},
		{"unknown dependency", "description: x\nsteps:\n  - id: a\n    dependencies: [b]\n"},
		{"malformed yaml", "description: [unclosed\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeTaskFile(t, tc.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

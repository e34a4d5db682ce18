package decompose

import (
	"testing"

	"github.com/taskweave/taskweave/pkg/models"
)

func task(description string) *models.Task {
	return &models.Task{
		ID:          "task-1",
		Description: description,
		Priority:    models.PriorityNormal,
	}
}

func TestBreakdownBuildKeyword(t *testing.T) {
	steps, err := Breakdown(task("create a REST endpoint for orders"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"prepare", "implement", "test", "validate"}
	if len(steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(steps))
	}
	for i, id := range want {
		if steps[i].ID != id {
			t.Errorf("step %d: expected id %s, got %s", i, id, steps[i].ID)
		}
	}

	// Each step after the first depends on its predecessor.
	for i := 1; i < len(steps); i++ {
		deps := steps[i].Dependencies
		if len(deps) != 1 || deps[0] != want[i-1] {
			t.Errorf("step %s: expected dependency [%s], got %v", steps[i].ID, want[i-1], deps)
		}
	}
}

func TestBreakdownRefactorKeyword(t *testing.T) {
	steps, err := Breakdown(task("refactor the billing module"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != 3 || steps[0].ID != "analyze" || steps[1].ID != "restructure" {
		t.Errorf("expected refactor template, got %v", stepIDs(steps))
	}
}

func TestBreakdownIntegrateKeyword(t *testing.T) {
	steps, err := Breakdown(task("integrate the payment gateway"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(steps) != 3 || steps[1].ID != "connect" {
		t.Errorf("expected integrate template, got %v", stepIDs(steps))
	}
}

func TestBreakdownFallback(t *testing.T) {
	steps, err := Breakdown(task("investigate the flaky login"), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"analyze", "execute", "verify"}
	got := stepIDs(steps)
	if len(got) != len(want) {
		t.Fatalf("expected generic template %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected generic template %v, got %v", want, got)
			break
		}
	}
}

func TestBreakdownConclusionInfluencesSelection(t *testing.T) {
	// Description alone matches nothing; the reasoning conclusion
	// supplies the trigger keyword.
	steps, err := Breakdown(task("handle the new requirement"), "we should build a small adapter")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if steps[0].ID != "prepare" {
		t.Errorf("expected build template via conclusion, got %v", stepIDs(steps))
	}
}

func TestBreakdownNilTask(t *testing.T) {
	if _, err := Breakdown(nil, ""); err == nil {
		t.Fatal("expected error for nil task")
	}
}

func TestBreakdownStepsWellFormed(t *testing.T) {
	for _, desc := range []string{
		"create a widget",
		"refactor storage",
		"integrate telemetry",
		"something else entirely",
	} {
		steps, err := Breakdown(task(desc), "")
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", desc, err)
		}
		if err := ValidateSteps(steps); err != nil {
			t.Errorf("%q: malformed steps: %v", desc, err)
		}
		for _, s := range steps {
			if s.Status != models.StepStatusPending {
				t.Errorf("%q: step %s created with status %s", desc, s.ID, s.Status)
			}
		}
	}
}

func TestValidateStepsDuplicateID(t *testing.T) {
	err := ValidateSteps([]*models.Step{{ID: "a"}, {ID: "a"}})
	if err == nil {
		t.Fatal("expected error for duplicate id")
	}
}

func TestValidateStepsUnknownDependency(t *testing.T) {
	err := ValidateSteps([]*models.Step{{ID: "a", Dependencies: []string{"ghost"}}})
	if err == nil {
		t.Fatal("expected error for unknown dependency")
	}
}

func stepIDs(steps []*models.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.ID
	}
	return out
}

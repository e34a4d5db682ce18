package executor

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/taskweave/taskweave/internal/graph"
	"github.com/taskweave/taskweave/internal/tools"
	"github.com/taskweave/taskweave/pkg/models"
)

func newExecutor(t *testing.T, defs ...tools.Definition) *GroupExecutor {
	t.Helper()
	r := tools.NewRegistry()
	for _, def := range defs {
		if err := r.Register(def); err != nil {
			t.Fatalf("register %s: %v", def.Name, err)
		}
	}
	return New(r, Config{RetryDelay: time.Millisecond})
}

func groupsFor(t *testing.T, steps []*models.Step) []models.StepGroup {
	t.Helper()
	g, err := graph.Resolve(steps)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	return graph.ParallelGroups(g)
}

func resultByID(results []models.StepResult, id string) (models.StepResult, bool) {
	for _, r := range results {
		if r.StepID == id {
			return r, true
		}
	}
	return models.StepResult{}, false
}

func TestExecuteNoToolStepsSucceed(t *testing.T) {
	e := newExecutor(t)
	steps := []*models.Step{
		{ID: "a", Action: "analyze"},
		{ID: "b", Action: "execute", Dependencies: []string{"a"}},
	}

	results, err := e.Execute(context.Background(), groupsFor(t, steps))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Success {
			t.Errorf("step %s: expected success, got error %q", r.StepID, r.Error)
		}
	}
	for _, s := range steps {
		if s.Status != models.StepStatusCompleted {
			t.Errorf("step %s: expected completed, got %s", s.ID, s.Status)
		}
	}
}

func TestExecuteRunsTool(t *testing.T) {
	var calls int32
	e := newExecutor(t, tools.Definition{
		Name: "count",
		Execute: func(_ context.Context, inputs map[string]any) (any, error) {
			atomic.AddInt32(&calls, 1)
			return inputs["value"], nil
		},
	})

	steps := []*models.Step{
		{ID: "a", Tool: "count", Inputs: map[string]any{"value": 42}},
	}
	results, err := e.Execute(context.Background(), groupsFor(t, steps))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 tool call, got %d", calls)
	}
	if results[0].Output != 42 {
		t.Errorf("expected output 42, got %v", results[0].Output)
	}
}

func TestExecuteUnknownToolFails(t *testing.T) {
	e := newExecutor(t)
	steps := []*models.Step{{ID: "a", Tool: "ghost"}}

	results, err := e.Execute(context.Background(), groupsFor(t, steps))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Success {
		t.Fatal("expected failure for unknown tool")
	}
	if !strings.Contains(results[0].Error, "ghost") {
		t.Errorf("expected error to name the tool, got %q", results[0].Error)
	}
}

func TestExecuteLevelBarrier(t *testing.T) {
	var mu sync.Mutex
	var order []string
	record := func(id string) {
		mu.Lock()
		order = append(order, id)
		mu.Unlock()
	}

	e := newExecutor(t, tools.Definition{
		Name: "trace",
		Execute: func(_ context.Context, inputs map[string]any) (any, error) {
			id := inputs["id"].(string)
			// First-level steps linger so a barrier violation would
			// let the dependent start first.
			if id != "late" {
				time.Sleep(30 * time.Millisecond)
			}
			record(id)
			return nil, nil
		},
	})

	steps := []*models.Step{
		{ID: "x", Tool: "trace", Inputs: map[string]any{"id": "x"}},
		{ID: "y", Tool: "trace", Inputs: map[string]any{"id": "y"}},
		{ID: "late", Tool: "trace", Inputs: map[string]any{"id": "late"}, Dependencies: []string{"x", "y"}},
	}

	if _, err := e.Execute(context.Background(), groupsFor(t, steps)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(order) != 3 || order[2] != "late" {
		t.Errorf("expected dependent to run last, got order %v", order)
	}
}

func TestExecuteParallelGroupRunsConcurrently(t *testing.T) {
	var active, peak int32
	e := newExecutor(t, tools.Definition{
		Name: "busy",
		Execute: func(_ context.Context, _ map[string]any) (any, error) {
			n := atomic.AddInt32(&active, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(30 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return nil, nil
		},
	})

	steps := []*models.Step{
		{ID: "a", Tool: "busy"},
		{ID: "b", Tool: "busy"},
		{ID: "c", Tool: "busy"},
	}
	if _, err := e.Execute(context.Background(), groupsFor(t, steps)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak < 2 {
		t.Errorf("expected concurrent execution within level, peak was %d", peak)
	}
}

func TestExecuteFailureDoesNotHaltSiblings(t *testing.T) {
	e := newExecutor(t, tools.Definition{
		Name: "flaky",
		Execute: func(_ context.Context, inputs map[string]any) (any, error) {
			if inputs["fail"] == "yes" {
				return nil, fmt.Errorf("boom")
			}
			return "ok", nil
		},
	})

	steps := []*models.Step{
		{ID: "good1", Tool: "flaky"},
		{ID: "bad", Tool: "flaky", Inputs: map[string]any{"fail": "yes"}},
		{ID: "good2", Tool: "flaky"},
	}
	results, err := e.Execute(context.Background(), groupsFor(t, steps))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r, _ := resultByID(results, "bad"); r.Success {
		t.Error("expected bad to fail")
	}
	for _, id := range []string{"good1", "good2"} {
		if r, _ := resultByID(results, id); !r.Success {
			t.Errorf("expected %s to succeed despite sibling failure", id)
		}
	}
}

func TestExecuteSkipsDependentsOfFailedStep(t *testing.T) {
	e := newExecutor(t, tools.Definition{
		Name: "fail",
		Execute: func(_ context.Context, _ map[string]any) (any, error) {
			return nil, fmt.Errorf("boom")
		},
	})

	steps := []*models.Step{
		{ID: "root", Tool: "fail"},
		{ID: "child", Dependencies: []string{"root"}},
		{ID: "grandchild", Dependencies: []string{"child"}},
		{ID: "unrelated"},
	}
	results, err := e.Execute(context.Background(), groupsFor(t, steps))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("expected one result per step, got %d", len(results))
	}

	child, _ := resultByID(results, "child")
	if child.Success || !strings.Contains(child.Error, "blocked by dependency root") {
		t.Errorf("expected child blocked by root, got %+v", child)
	}
	grandchild, _ := resultByID(results, "grandchild")
	if grandchild.Success || !strings.Contains(grandchild.Error, "blocked by dependency child") {
		t.Errorf("expected grandchild blocked by child, got %+v", grandchild)
	}
	if unrelated, _ := resultByID(results, "unrelated"); !unrelated.Success {
		t.Errorf("expected unrelated step to succeed, got %+v", unrelated)
	}
}

func TestExecuteRetriesRetryableStep(t *testing.T) {
	var calls int32
	e := newExecutor(t, tools.Definition{
		Name: "flaky",
		Execute: func(_ context.Context, _ map[string]any) (any, error) {
			if atomic.AddInt32(&calls, 1) < 3 {
				return nil, fmt.Errorf("transient")
			}
			return "ok", nil
		},
	})

	steps := []*models.Step{{ID: "a", Tool: "flaky", Retryable: true}}
	results, err := e.Execute(context.Background(), groupsFor(t, steps))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := results[0]
	if !r.Success {
		t.Fatalf("expected eventual success, got %q", r.Error)
	}
	if r.Retries != 2 {
		t.Errorf("expected 2 retries, got %d", r.Retries)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestExecuteNoRetryForNonRetryable(t *testing.T) {
	var calls int32
	e := newExecutor(t, tools.Definition{
		Name: "fail",
		Execute: func(_ context.Context, _ map[string]any) (any, error) {
			atomic.AddInt32(&calls, 1)
			return nil, fmt.Errorf("boom")
		},
	})

	steps := []*models.Step{{ID: "a", Tool: "fail"}}
	results, err := e.Execute(context.Background(), groupsFor(t, steps))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls)
	}
	if results[0].Retries != 0 {
		t.Errorf("expected 0 retries, got %d", results[0].Retries)
	}
}

func TestExecuteStepTimeoutBinding(t *testing.T) {
	e := newExecutor(t, tools.Definition{
		Name: "slow",
		Execute: func(ctx context.Context, _ map[string]any) (any, error) {
			select {
			case <-time.After(5 * time.Second):
				return "done", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	})

	steps := []*models.Step{{ID: "a", Tool: "slow", Timeout: 20 * time.Millisecond}}
	start := time.Now()
	results, err := e.Execute(context.Background(), groupsFor(t, steps))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Success {
		t.Fatal("expected timeout failure")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("timeout not enforced, took %v", elapsed)
	}
}

func TestExecuteCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := newExecutor(t)
	steps := []*models.Step{{ID: "a"}, {ID: "b", Dependencies: []string{"a"}}}

	results, err := e.Execute(ctx, groupsFor(t, steps))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected one result per step, got %d", len(results))
	}
	for _, r := range results {
		if r.Success {
			t.Errorf("step %s: expected failure under cancelled context", r.StepID)
		}
	}
}

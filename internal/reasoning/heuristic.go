package reasoning

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// HeuristicEngine is a deterministic, offline reasoning engine. It is
// the default when no API key is configured, and what tests run
// against. Conclusions are built from keyword classification, so the
// same description always yields the same reasoning.
type HeuristicEngine struct{}

// NewHeuristicEngine creates the offline engine.
func NewHeuristicEngine() *HeuristicEngine {
	return &HeuristicEngine{}
}

// categories maps an intent label to its trigger keywords. Confidence
// grows with the number of matched categories.
var categories = map[string][]string{
	"construction": {"create", "build", "implement", "add", "write"},
	"restructure":  {"refactor", "restructure", "rewrite", "clean up"},
	"integration":  {"integrate", "connect", "wire", "hook up"},
	"diagnosis":    {"fix", "debug", "investigate", "bug"},
	"verification": {"test", "verify", "validate", "check"},
}

// Reason classifies the description and reports matched intents.
func (e *HeuristicEngine) Reason(ctx context.Context, description string, taskCtx map[string]any) (Reasoning, error) {
	if err := ctx.Err(); err != nil {
		return Reasoning{}, err
	}
	if strings.TrimSpace(description) == "" {
		return Reasoning{}, fmt.Errorf("empty task description")
	}

	matched := classify(description)
	if len(matched) == 0 {
		return Reasoning{
			Conclusion: "general task, proceed with analyze-execute-verify",
			Confidence: 0.4,
		}, nil
	}

	confidence := 0.5 + 0.1*float64(len(matched))
	if confidence > 0.9 {
		confidence = 0.9
	}

	conclusion := fmt.Sprintf("task involves %s; proceed with a %s-oriented breakdown",
		strings.Join(matched, " and "), matched[0])

	// Context hints nudge confidence up slightly: more signal in,
	// more trust out.
	if len(taskCtx) > 0 {
		confidence += 0.05
	}

	return Reasoning{Conclusion: conclusion, Confidence: confidence}, nil
}

// Explain describes the classification the engine would apply.
func (e *HeuristicEngine) Explain(ctx context.Context, description string) (string, error) {
	r, err := e.Reason(ctx, description, nil)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Heuristic reasoning (keyword classification):\n")
	fmt.Fprintf(&b, "  conclusion: %s\n", r.Conclusion)
	fmt.Fprintf(&b, "  confidence: %.2f\n", r.Confidence)
	return b.String(), nil
}

func classify(description string) []string {
	text := strings.ToLower(description)

	var matched []string
	for label, keywords := range categories {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				matched = append(matched, label)
				break
			}
		}
	}
	sort.Strings(matched)
	return matched
}

package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

const reasonPrompt = `You are the reasoning stage of a task scheduler.
Assess the task below and answer with a single JSON object of the form
{"conclusion": "<one-sentence assessment>", "confidence": <0.0-1.0>}
and nothing else.

Task: %s
Context: %s`

const explainPrompt = `Explain briefly, in plain prose, how you would
approach the following task. Do not produce a step list, just the
reasoning.

Task: %s`

// ClaudeConfig configures the API-backed reasoning engine.
type ClaudeConfig struct {
	// Model is the Claude model to use. Empty selects a default.
	Model anthropic.Model
	// APIKey is the Anthropic API key. If empty, ANTHROPIC_API_KEY is used.
	APIKey string
	// UseAWSBedrock routes requests through AWS Bedrock instead of the
	// direct API.
	UseAWSBedrock bool
	// AWSRegion is the Bedrock region (e.g. "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS shared-config profile.
	AWSProfile string
	// MaxTokens bounds the response size. Zero means 1024.
	MaxTokens int64
}

// ClaudeEngine implements Engine against the Anthropic Messages API.
type ClaudeEngine struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewClaudeEngine creates an API-backed reasoning engine.
func NewClaudeEngine(cfg ClaudeConfig) (*ClaudeEngine, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	model := cfg.Model
	if model == "" {
		model = anthropic.ModelClaudeSonnet4_20250514
	}
	if cfg.UseAWSBedrock {
		model = translateModelForBedrock(model)
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	return &ClaudeEngine{
		client:    anthropic.NewClient(opts...),
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Reason asks the model for a conclusion/confidence pair. The model is
// instructed to answer with bare JSON, but responses wrapped in prose
// are tolerated via brace extraction.
func (e *ClaudeEngine) Reason(ctx context.Context, description string, taskCtx map[string]any) (Reasoning, error) {
	ctxJSON := "{}"
	if len(taskCtx) > 0 {
		if b, err := json.Marshal(taskCtx); err == nil {
			ctxJSON = string(b)
		}
	}

	text, err := e.complete(ctx, fmt.Sprintf(reasonPrompt, description, ctxJSON))
	if err != nil {
		return Reasoning{}, err
	}

	r, err := parseReasoning(text)
	if err != nil {
		return Reasoning{}, fmt.Errorf("parse reasoning response: %w", err)
	}
	return r, nil
}

// Explain asks the model for a prose explanation.
func (e *ClaudeEngine) Explain(ctx context.Context, description string) (string, error) {
	return e.complete(ctx, fmt.Sprintf(explainPrompt, description))
}

func (e *ClaudeEngine) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := e.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}

	var b strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(variant.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return b.String(), nil
}

// parseReasoning extracts the first JSON object from the response and
// decodes it, clamping confidence into [0, 1].
func parseReasoning(response string) (Reasoning, error) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end <= start {
		preview := response
		if len(preview) > 200 {
			preview = preview[:200] + "... (truncated)"
		}
		return Reasoning{}, fmt.Errorf("no JSON object found in response: %q", preview)
	}

	var r Reasoning
	if err := json.Unmarshal([]byte(response[start:end+1]), &r); err != nil {
		return Reasoning{}, fmt.Errorf("unmarshal JSON: %w", err)
	}
	if strings.TrimSpace(r.Conclusion) == "" {
		return Reasoning{}, fmt.Errorf("response missing conclusion")
	}

	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}
	return r, nil
}

// translateModelForBedrock converts standard Anthropic model names to
// Bedrock cross-region inference profile format.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:   "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaudeSonnet4_5_20250929: "us.anthropic.claude-sonnet-4-5-20250929-v1:0",
		anthropic.ModelClaudeHaiku4_5_20251001:  "us.anthropic.claude-haiku-4-5-20251001-v1:0",
		anthropic.ModelClaudeOpus4_1_20250805:   "us.anthropic.claude-opus-4-1-20250805-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:   "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}

	if bedrockModel, ok := bedrockModels[model]; ok {
		return anthropic.Model(bedrockModel)
	}
	return model
}

package decompose

// stepTemplate is one step of a canned decomposition template.
// Dependencies reference earlier template step IDs.
type stepTemplate struct {
	id           string
	action       string
	description  string
	dependencies []string
	retryable    bool
}

// Templates are keyword-triggered. Matching is intentionally simple:
// decomposition quality does not affect scheduler correctness, only
// the well-formedness of the resulting steps does.
var (
	buildTemplate = []stepTemplate{
		{id: "prepare", action: "prepare", description: "Prepare the workspace and gather requirements"},
		{id: "implement", action: "implement", description: "Implement the requested change", dependencies: []string{"prepare"}},
		{id: "test", action: "test", description: "Exercise the implementation", dependencies: []string{"implement"}, retryable: true},
		{id: "validate", action: "validate", description: "Validate the result against the request", dependencies: []string{"test"}},
	}

	refactorTemplate = []stepTemplate{
		{id: "analyze", action: "analyze", description: "Map the code paths affected by the refactor"},
		{id: "restructure", action: "restructure", description: "Apply the structural change", dependencies: []string{"analyze"}},
		{id: "verify", action: "verify", description: "Verify behavior is unchanged", dependencies: []string{"restructure"}, retryable: true},
	}

	integrateTemplate = []stepTemplate{
		{id: "review-interfaces", action: "review", description: "Review the interfaces being connected"},
		{id: "connect", action: "connect", description: "Wire the components together", dependencies: []string{"review-interfaces"}},
		{id: "smoke-test", action: "test", description: "Smoke-test the integrated path", dependencies: []string{"connect"}, retryable: true},
	}

	genericTemplate = []stepTemplate{
		{id: "analyze", action: "analyze", description: "Analyze the task"},
		{id: "execute", action: "execute", description: "Carry out the task", dependencies: []string{"analyze"}},
		{id: "verify", action: "verify", description: "Verify the outcome", dependencies: []string{"execute"}},
	}
)

// templateTriggers maps keywords to templates. First match wins, in
// this order.
var templateTriggers = []struct {
	keywords []string
	steps    []stepTemplate
}{
	{keywords: []string{"create", "build", "implement", "add"}, steps: buildTemplate},
	{keywords: []string{"refactor", "restructure", "rewrite"}, steps: refactorTemplate},
	{keywords: []string{"integrate", "connect", "wire"}, steps: integrateTemplate},
}
